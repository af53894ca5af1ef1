// Package passwords hashes and verifies account and share passwords.
//
// New hashes are always salted (bcrypt or argon2id). Verification also
// understands the unsalted hex SHA-256 digests written by earlier versions
// of the app, so existing users.json and notes.json files keep working.
package passwords

import (
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/base64"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"

	"golang.org/x/crypto/argon2"
	"golang.org/x/crypto/bcrypt"
)

type Scheme string

const (
	SchemeBcrypt   Scheme = "bcrypt"
	SchemeArgon2id Scheme = "argon2id"
)

var (
	ErrUnknownScheme = errors.New("unknown password hash scheme")
	ErrMismatch      = errors.New("password does not match")
)

// Argon2Params mirror the argon2.IDKey arguments.
type Argon2Params struct {
	Time    uint32
	Memory  uint32 // KiB
	Threads uint8
	KeyLen  uint32
	SaltLen int
}

var DefaultArgon2Params = Argon2Params{
	Time:    2,
	Memory:  32 * 1024,
	Threads: 2,
	KeyLen:  32,
	SaltLen: 16,
}

type Hasher struct {
	scheme     Scheme
	bcryptCost int
	argon      Argon2Params
}

type Option func(*Hasher)

func WithBcryptCost(cost int) Option {
	return func(h *Hasher) {
		h.bcryptCost = cost
	}
}

func WithArgon2Params(p Argon2Params) Option {
	return func(h *Hasher) {
		h.argon = p
	}
}

func New(scheme Scheme, opts ...Option) (*Hasher, error) {
	switch scheme {
	case SchemeBcrypt, SchemeArgon2id:
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownScheme, scheme)
	}

	h := &Hasher{
		scheme:     scheme,
		bcryptCost: bcrypt.DefaultCost,
		argon:      DefaultArgon2Params,
	}
	for _, opt := range opts {
		opt(h)
	}
	return h, nil
}

func (h *Hasher) Scheme() Scheme {
	return h.scheme
}

// Hash returns an encoded, salted hash of password.
func (h *Hasher) Hash(password string) (string, error) {
	switch h.scheme {
	case SchemeArgon2id:
		return h.hashArgon2id(password)
	default:
		hash, err := bcrypt.GenerateFromPassword(bcryptInput(password), h.bcryptCost)
		if err != nil {
			return "", fmt.Errorf("bcrypt: %w", err)
		}
		return string(hash), nil
	}
}

// Verify checks password against an encoded hash of any supported scheme.
// It returns ErrMismatch when the password is wrong.
func (h *Hasher) Verify(encoded, password string) error {
	switch {
	case strings.HasPrefix(encoded, "$2a$"), strings.HasPrefix(encoded, "$2b$"), strings.HasPrefix(encoded, "$2y$"):
		err := bcrypt.CompareHashAndPassword([]byte(encoded), bcryptInput(password))
		if errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
			return ErrMismatch
		}
		if err != nil {
			return fmt.Errorf("bcrypt: %w", err)
		}
		return nil
	case strings.HasPrefix(encoded, "$argon2id$"):
		return verifyArgon2id(encoded, password)
	case isLegacyDigest(encoded):
		if subtle.ConstantTimeCompare([]byte(LegacyDigest(password)), []byte(strings.ToLower(encoded))) != 1 {
			return ErrMismatch
		}
		return nil
	default:
		return ErrUnknownScheme
	}
}

// bcryptMaxLen is the longest input bcrypt accepts.
const bcryptMaxLen = 72

// bcryptInput returns password unchanged when bcrypt can take it, and the
// base64 SHA-256 of it otherwise. The choice depends only on the length,
// so Hash and Verify always agree.
func bcryptInput(password string) []byte {
	if len(password) <= bcryptMaxLen {
		return []byte(password)
	}
	sum := sha256.Sum256([]byte(password))
	return []byte(base64.StdEncoding.EncodeToString(sum[:]))
}

// LegacyDigest is the unsalted hex SHA-256 used by the original app.
// It is only kept for verification and tests.
func LegacyDigest(password string) string {
	sum := sha256.Sum256([]byte(password))
	return hex.EncodeToString(sum[:])
}

func isLegacyDigest(s string) bool {
	if len(s) != sha256.Size*2 {
		return false
	}
	_, err := hex.DecodeString(s)
	return err == nil
}

func (h *Hasher) hashArgon2id(password string) (string, error) {
	p := h.argon
	salt := make([]byte, p.SaltLen)
	if _, err := rand.Read(salt); err != nil {
		return "", fmt.Errorf("failed to generate salt: %w", err)
	}

	key := argon2.IDKey([]byte(password), salt, p.Time, p.Memory, p.Threads, p.KeyLen)
	return fmt.Sprintf("$argon2id$v=%d$m=%d,t=%d,p=%d$%s$%s",
		argon2.Version, p.Memory, p.Time, p.Threads,
		base64.RawStdEncoding.EncodeToString(salt),
		base64.RawStdEncoding.EncodeToString(key),
	), nil
}

func verifyArgon2id(encoded, password string) error {
	// "", "argon2id", "v=19", "m=..,t=..,p=..", salt, key
	parts := strings.Split(encoded, "$")
	if len(parts) != 6 {
		return fmt.Errorf("%w: malformed argon2id hash", ErrUnknownScheme)
	}

	var version int
	if _, err := fmt.Sscanf(parts[2], "v=%d", &version); err != nil || version != argon2.Version {
		return fmt.Errorf("%w: unsupported argon2 version", ErrUnknownScheme)
	}

	var p Argon2Params
	if _, err := fmt.Sscanf(parts[3], "m=%d,t=%d,p=%d", &p.Memory, &p.Time, &p.Threads); err != nil {
		return fmt.Errorf("%w: malformed argon2id parameters", ErrUnknownScheme)
	}

	salt, err := base64.RawStdEncoding.DecodeString(parts[4])
	if err != nil {
		return fmt.Errorf("%w: malformed argon2id salt", ErrUnknownScheme)
	}
	want, err := base64.RawStdEncoding.DecodeString(parts[5])
	if err != nil {
		return fmt.Errorf("%w: malformed argon2id key", ErrUnknownScheme)
	}

	got := argon2.IDKey([]byte(password), salt, p.Time, p.Memory, p.Threads, uint32(len(want)))
	if subtle.ConstantTimeCompare(got, want) != 1 {
		return ErrMismatch
	}
	return nil
}
