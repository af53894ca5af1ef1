package auth

import (
	"context"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"secret-notes/db"
	"secret-notes/models"
	"secret-notes/passwords"
)

func testHasher(t *testing.T) *passwords.Hasher {
	t.Helper()
	h, err := passwords.New(passwords.SchemeBcrypt, passwords.WithBcryptCost(bcrypt.MinCost))
	require.NoError(t, err)
	return h
}

func testStore(t *testing.T) *db.JSONStore {
	t.Helper()
	dir := t.TempDir()
	s, err := db.NewJSONStore(filepath.Join(dir, "users.json"), filepath.Join(dir, "notes.json"))
	require.NoError(t, err)
	return s
}

func TestUserStoreAuthenticator(t *testing.T) {
	ctx := context.Background()
	store := testStore(t)
	a := NewUserStoreAuthenticator(store, testHasher(t))

	assert.True(t, a.CanRegister())
	require.NoError(t, a.Register(ctx, "alice", "pw1"))
	assert.ErrorIs(t, a.Register(ctx, "alice", "other"), ErrDuplicateUsername)
	assert.ErrorIs(t, a.Register(ctx, "  ", "pw"), ErrMissingCredentials)
	assert.ErrorIs(t, a.Register(ctx, "bob", ""), ErrMissingCredentials)

	user, err := store.GetUser(ctx, "alice")
	require.NoError(t, err)
	assert.NotEqual(t, "pw1", user.PasswordHash)
	assert.NotEqual(t, passwords.LegacyDigest("pw1"), user.PasswordHash)

	id, err := a.Login(ctx, "alice", "pw1")
	require.NoError(t, err)
	assert.Equal(t, Identity{Username: "alice"}, id)

	_, err = a.Login(ctx, "alice", "wrong")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
	_, err = a.Login(ctx, "nobody", "pw1")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestUserStoreAuthenticatorLegacyHash(t *testing.T) {
	ctx := context.Background()
	store := testStore(t)
	require.NoError(t, store.CreateUser(ctx, models.User{
		Username:     "legacy",
		PasswordHash: passwords.LegacyDigest("old-password"),
		CreatedAt:    models.Now(),
	}))

	a := NewUserStoreAuthenticator(store, testHasher(t))
	id, err := a.Login(ctx, "legacy", "old-password")
	require.NoError(t, err)
	assert.Equal(t, "legacy", id.Username)
}

func TestFixedAuthenticator(t *testing.T) {
	ctx := context.Background()
	_, err := NewFixedAuthenticator("", "pw", testHasher(t))
	assert.ErrorIs(t, err, ErrMissingCredentials)

	a, err := NewFixedAuthenticator("author", "s3cret", testHasher(t))
	require.NoError(t, err)

	assert.False(t, a.CanRegister())
	assert.ErrorIs(t, a.Register(ctx, "alice", "pw"), ErrRegistrationDisabled)

	id, err := a.Login(ctx, "author", "s3cret")
	require.NoError(t, err)
	assert.Equal(t, "author", id.Username)

	_, err = a.Login(ctx, "author", "nope")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
	_, err = a.Login(ctx, "alice", "s3cret")
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	long := strings.Repeat("s", 80)
	a, err = NewFixedAuthenticator("author", long, testHasher(t))
	require.NoError(t, err)
	_, err = a.Login(ctx, "author", long)
	assert.NoError(t, err)
}

func TestSessions(t *testing.T) {
	_, err := NewSessions("", time.Hour)
	assert.Error(t, err)

	s, err := NewSessions("test-secret", time.Hour)
	require.NoError(t, err)

	t.Run("round trip", func(t *testing.T) {
		token, err := s.Issue(Identity{Username: "alice"})
		require.NoError(t, err)
		id, err := s.Parse(token)
		require.NoError(t, err)
		assert.Equal(t, "alice", id.Username)
	})

	t.Run("expired", func(t *testing.T) {
		past, err := NewSessions("test-secret", time.Hour)
		require.NoError(t, err)
		past.now = func() time.Time { return time.Now().Add(-2 * time.Hour) }
		token, err := past.Issue(Identity{Username: "alice"})
		require.NoError(t, err)

		_, err = s.Parse(token)
		assert.ErrorIs(t, err, ErrInvalidSession)
	})

	t.Run("wrong secret", func(t *testing.T) {
		other, err := NewSessions("other-secret", time.Hour)
		require.NoError(t, err)
		token, err := other.Issue(Identity{Username: "alice"})
		require.NoError(t, err)

		_, err = s.Parse(token)
		assert.ErrorIs(t, err, ErrInvalidSession)
	})

	t.Run("logged out flag", func(t *testing.T) {
		claims := Claims{
			Username: "alice",
			LoggedIn: false,
			RegisteredClaims: jwt.RegisteredClaims{
				Issuer:    issuer,
				ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
			},
		}
		token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("test-secret"))
		require.NoError(t, err)

		_, err = s.Parse(token)
		assert.ErrorIs(t, err, ErrInvalidSession)
	})

	t.Run("garbage", func(t *testing.T) {
		_, err := s.Parse("not.a.token")
		assert.ErrorIs(t, err, ErrInvalidSession)
	})
}
