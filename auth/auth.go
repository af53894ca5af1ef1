// Package auth authenticates callers. An Authenticator strategy is chosen
// at configuration time: UserStoreAuthenticator for multi-user deployments,
// FixedAuthenticator for a single configured author.
package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"secret-notes/db"
	"secret-notes/models"
	"secret-notes/passwords"
)

var (
	ErrDuplicateUsername    = errors.New("username already exists")
	ErrInvalidCredentials   = errors.New("invalid credentials")
	ErrMissingCredentials   = errors.New("username and password are required")
	ErrRegistrationDisabled = errors.New("registration is disabled")
)

// Identity is the authenticated caller, carried in the request context.
type Identity struct {
	Username string
}

type Authenticator interface {
	Register(ctx context.Context, username, password string) error
	Login(ctx context.Context, username, password string) (Identity, error)
	// CanRegister reports whether Register can ever succeed.
	CanRegister() bool
}

// UserStoreAuthenticator checks credentials against registered users.
type UserStoreAuthenticator struct {
	users  db.UserStore
	hasher *passwords.Hasher
}

func NewUserStoreAuthenticator(users db.UserStore, hasher *passwords.Hasher) *UserStoreAuthenticator {
	return &UserStoreAuthenticator{users: users, hasher: hasher}
}

func (a *UserStoreAuthenticator) CanRegister() bool {
	return true
}

func (a *UserStoreAuthenticator) Register(ctx context.Context, username, password string) error {
	username = strings.TrimSpace(username)
	if username == "" || password == "" {
		return ErrMissingCredentials
	}

	hash, err := a.hasher.Hash(password)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}

	err = a.users.CreateUser(ctx, models.User{
		Username:     username,
		PasswordHash: hash,
		CreatedAt:    models.Now(),
	})
	if errors.Is(err, db.ErrUserExists) {
		return ErrDuplicateUsername
	}
	return err
}

func (a *UserStoreAuthenticator) Login(ctx context.Context, username, password string) (Identity, error) {
	user, err := a.users.GetUser(ctx, strings.TrimSpace(username))
	if errors.Is(err, db.ErrUserNotFound) {
		return Identity{}, ErrInvalidCredentials
	}
	if err != nil {
		return Identity{}, err
	}

	if err := a.hasher.Verify(user.PasswordHash, password); err != nil {
		if errors.Is(err, passwords.ErrMismatch) {
			return Identity{}, ErrInvalidCredentials
		}
		return Identity{}, fmt.Errorf("failed to verify password for %s: %w", user.Username, err)
	}
	return Identity{Username: user.Username}, nil
}

// FixedAuthenticator accepts exactly one credential pair. The password is
// hashed once when the authenticator is built.
type FixedAuthenticator struct {
	username string
	hash     string
	hasher   *passwords.Hasher
}

func NewFixedAuthenticator(username, password string, hasher *passwords.Hasher) (*FixedAuthenticator, error) {
	if username == "" || password == "" {
		return nil, fmt.Errorf("single-author mode: %w", ErrMissingCredentials)
	}
	hash, err := hasher.Hash(password)
	if err != nil {
		return nil, fmt.Errorf("failed to hash author password: %w", err)
	}
	return &FixedAuthenticator{username: username, hash: hash, hasher: hasher}, nil
}

func (a *FixedAuthenticator) CanRegister() bool {
	return false
}

func (a *FixedAuthenticator) Register(context.Context, string, string) error {
	return ErrRegistrationDisabled
}

func (a *FixedAuthenticator) Login(_ context.Context, username, password string) (Identity, error) {
	if strings.TrimSpace(username) != a.username {
		return Identity{}, ErrInvalidCredentials
	}
	if err := a.hasher.Verify(a.hash, password); err != nil {
		return Identity{}, ErrInvalidCredentials
	}
	return Identity{Username: a.username}, nil
}
