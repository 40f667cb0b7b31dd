package auth

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/makolaconnect/makola/jwt"
	"github.com/makolaconnect/makola/password"
	"github.com/makolaconnect/makola/session"
)

func newHasher(t *testing.T) *password.Argon2 {
	t.Helper()
	cfg := password.DefaultConfig()
	cfg.Memory = 8 * 1024
	cfg.Time = 1
	cfg.Parallelism = 1
	h, err := password.NewArgon2(cfg)
	require.NoError(t, err)
	return h
}

func newFixture(t *testing.T) (*Authenticator, *MemoryDirectory, *jwt.Manager) {
	t.Helper()
	hasher := newHasher(t)
	dir, err := NewMemoryDirectory(hasher)
	require.NoError(t, err)
	tokens, err := jwt.NewManager(jwt.Config{
		TTL:           time.Hour,
		SigningMethod: jwt.MethodHS256,
		PrivateKey:    []byte("0123456789abcdef0123456789abcdef"),
	})
	require.NoError(t, err)
	a, err := NewAuthenticator(dir, hasher, tokens, nil)
	require.NoError(t, err)
	return a, dir, tokens
}

func TestAuthenticateIssuesTokenForUser(t *testing.T) {
	a, dir, tokens := newFixture(t)
	kofi := session.User{ID: "u-7", UserType: session.Kayayo, Name: "Kofi"}
	require.NoError(t, dir.Enroll(kofi, "Kofi@Example.com", "carry-the-load"))

	user, token, err := a.Authenticate(context.Background(), " kofi@example.com ", "carry-the-load")
	require.NoError(t, err)
	assert.Equal(t, kofi, user)

	claims, err := tokens.Parse(token)
	require.NoError(t, err)
	assert.Equal(t, "u-7", claims.UID)
	assert.Equal(t, session.Kayayo, claims.UserType)
}

func TestAuthenticateRejectsBadCredentials(t *testing.T) {
	a, dir, _ := newFixture(t)
	require.NoError(t, dir.Enroll(session.User{ID: "u-1", UserType: session.Buyer}, "0241234567", "plantain-chips"))

	_, _, err := a.Authenticate(context.Background(), "0241234567", "wrong-password")
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	_, _, err = a.Authenticate(context.Background(), "0200000000", "plantain-chips")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestEnrollRejectsDuplicatesAndInvalidUsers(t *testing.T) {
	_, dir, _ := newFixture(t)
	user := session.User{ID: "u-1", UserType: session.Rider}
	require.NoError(t, dir.Enroll(user, "rider@example.com", "okada-rider"))
	assert.ErrorIs(t, dir.Enroll(user, "RIDER@example.com", "okada-rider"), ErrAccountExists)
	assert.ErrorIs(t, dir.Enroll(session.User{ID: "u-2"}, "x@example.com", "okada-rider"), session.ErrInvalidUser)
	assert.ErrorIs(t, dir.Enroll(session.User{ID: "u-3", UserType: session.Buyer}, "y@example.com", "short"), password.ErrTooShort)
}

type failingDirectory struct{}

func (failingDirectory) FindByIdentifier(context.Context, string) (Account, error) {
	return Account{}, errors.New("directory offline")
}

func TestAuthenticatePropagatesDirectoryFailure(t *testing.T) {
	_, _, tokens := newFixture(t)
	a, err := NewAuthenticator(failingDirectory{}, newHasher(t), tokens, nil)
	require.NoError(t, err)

	_, _, err = a.Authenticate(context.Background(), "a@b.c", "whatever-pass")
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrInvalidCredentials)
}

func TestNewAuthenticatorRequiresCollaborators(t *testing.T) {
	_, err := NewAuthenticator(nil, nil, nil, nil)
	assert.ErrorIs(t, err, ErrNotWired)
}
