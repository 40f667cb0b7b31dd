package auth

import (
	"context"
	"errors"
	"strings"
	"sync"

	"github.com/makolaconnect/makola/session"
)

var (
	ErrAccountNotFound = errors.New("auth: account not found")
	ErrAccountExists   = errors.New("auth: account already exists")
	ErrNotWired        = errors.New("auth: not wired")
)

// Account is a user identity with its password hash.
type Account struct {
	User         session.User
	PasswordHash string
}

// Directory resolves login identifiers to accounts.
type Directory interface {
	FindByIdentifier(ctx context.Context, identifier string) (Account, error)
}

// PasswordHasher is satisfied by *password.Argon2.
type PasswordHasher interface {
	Hash(plain string) (string, error)
	Verify(plain, encoded string) (bool, error)
}

// MemoryDirectory is an in-process Directory for development and tests.
type MemoryDirectory struct {
	mu       sync.RWMutex
	hasher   PasswordHasher
	accounts map[string]Account
}

func NewMemoryDirectory(hasher PasswordHasher) (*MemoryDirectory, error) {
	if hasher == nil {
		return nil, ErrNotWired
	}
	return &MemoryDirectory{hasher: hasher, accounts: make(map[string]Account)}, nil
}

// Enroll registers user under identifier with the given plaintext password.
func (d *MemoryDirectory) Enroll(user session.User, identifier, plain string) error {
	if err := user.Validate(); err != nil {
		return err
	}
	key := NormalizeIdentifier(identifier)
	if key == "" {
		return ErrAccountNotFound
	}
	hash, err := d.hasher.Hash(plain)
	if err != nil {
		return err
	}

	d.mu.Lock()
	defer d.mu.Unlock()
	if _, ok := d.accounts[key]; ok {
		return ErrAccountExists
	}
	d.accounts[key] = Account{User: user, PasswordHash: hash}
	return nil
}

func (d *MemoryDirectory) FindByIdentifier(_ context.Context, identifier string) (Account, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	acc, ok := d.accounts[NormalizeIdentifier(identifier)]
	if !ok {
		return Account{}, ErrAccountNotFound
	}
	return acc, nil
}

// NormalizeIdentifier trims and lower-cases an email or phone identifier.
func NormalizeIdentifier(identifier string) string {
	return strings.ToLower(strings.TrimSpace(identifier))
}
