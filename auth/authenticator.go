package auth

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/makolaconnect/makola/session"
)

// ErrInvalidCredentials covers both an unknown identifier and a wrong
// password.
var ErrInvalidCredentials = errors.New("auth: invalid credentials")

// TokenIssuer is satisfied by *jwt.Manager.
type TokenIssuer interface {
	Issue(user session.User) (string, error)
}

// Authenticator verifies credentials and issues session tokens.
type Authenticator struct {
	directory Directory
	hasher    PasswordHasher
	issuer    TokenIssuer
	logger    *zap.Logger
	decoy     string
}

func NewAuthenticator(directory Directory, hasher PasswordHasher, issuer TokenIssuer, logger *zap.Logger) (*Authenticator, error) {
	if directory == nil || hasher == nil || issuer == nil {
		return nil, ErrNotWired
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	decoy, err := hasher.Hash("makola-decoy-password")
	if err != nil {
		return nil, fmt.Errorf("auth: decoy hash: %w", err)
	}
	return &Authenticator{
		directory: directory,
		hasher:    hasher,
		issuer:    issuer,
		logger:    logger,
		decoy:     decoy,
	}, nil
}

// Authenticate returns the account's user and a fresh token.
func (a *Authenticator) Authenticate(ctx context.Context, identifier, plain string) (session.User, string, error) {
	acc, err := a.directory.FindByIdentifier(ctx, identifier)
	if errors.Is(err, ErrAccountNotFound) {
		// Keep unknown identifiers as slow as wrong passwords.
		_, _ = a.hasher.Verify(plain, a.decoy)
		return session.User{}, "", ErrInvalidCredentials
	}
	if err != nil {
		return session.User{}, "", err
	}

	ok, err := a.hasher.Verify(plain, acc.PasswordHash)
	if err != nil {
		a.logger.Error("stored password hash unreadable",
			zap.String("user_id", acc.User.ID),
			zap.Error(err),
		)
		return session.User{}, "", ErrInvalidCredentials
	}
	if !ok {
		return session.User{}, "", ErrInvalidCredentials
	}

	token, err := a.issuer.Issue(acc.User)
	if err != nil {
		return session.User{}, "", fmt.Errorf("auth: issue token: %w", err)
	}
	return acc.User, token, nil
}
