package password

import (
	"errors"
	"strings"
	"testing"
)

func fastConfig() Config {
	cfg := DefaultConfig()
	cfg.Memory = minMemoryKB
	cfg.Time = 1
	cfg.Parallelism = 1
	return cfg
}

func TestHashAndVerify(t *testing.T) {
	hasher, err := NewArgon2(fastConfig())
	if err != nil {
		t.Fatalf("NewArgon2 error: %v", err)
	}

	hash, err := hasher.Hash("kente-cloth-42")
	if err != nil {
		t.Fatalf("Hash error: %v", err)
	}
	if !strings.HasPrefix(hash, "$argon2id$v=19$m=8192,t=1,p=1$") {
		t.Fatalf("unexpected PHC prefix: %s", hash)
	}

	ok, err := hasher.Verify("kente-cloth-42", hash)
	if err != nil || !ok {
		t.Fatalf("expected verification to succeed, ok=%v err=%v", ok, err)
	}
	ok, err = hasher.Verify("kente-cloth-43", hash)
	if err != nil || ok {
		t.Fatalf("expected mismatch without error, ok=%v err=%v", ok, err)
	}
}

func TestHashSaltsEveryCall(t *testing.T) {
	hasher, _ := NewArgon2(fastConfig())
	a, _ := hasher.Hash("same-password")
	b, _ := hasher.Hash("same-password")
	if a == b {
		t.Fatal("expected distinct hashes for the same password")
	}
}

func TestVerifyUsesEncodedParameters(t *testing.T) {
	cheap, _ := NewArgon2(fastConfig())
	hash, err := cheap.Hash("market-day")
	if err != nil {
		t.Fatalf("Hash error: %v", err)
	}

	costly := fastConfig()
	costly.Time = 2
	hasher, _ := NewArgon2(costly)
	ok, err := hasher.Verify("market-day", hash)
	if err != nil || !ok {
		t.Fatalf("expected old hash to verify, ok=%v err=%v", ok, err)
	}
}

func TestHashRejectsShortPassword(t *testing.T) {
	hasher, _ := NewArgon2(fastConfig())
	if _, err := hasher.Hash("short"); !errors.Is(err, ErrTooShort) {
		t.Fatalf("expected ErrTooShort, got %v", err)
	}
}

func TestVerifyRejectsMalformedHash(t *testing.T) {
	hasher, _ := NewArgon2(fastConfig())
	for _, encoded := range []string{
		"",
		"plain",
		"$bcrypt$v=19$m=8192,t=1,p=1$c2FsdA$a2V5",
		"$argon2id$v=18$m=8192,t=1,p=1$c2FsdHNhbHRzYWx0c2FsdA$a2V5a2V5a2V5a2V5a2V5",
		"$argon2id$v=19$m=1,t=1,p=1$c2FsdHNhbHRzYWx0c2FsdA$a2V5a2V5a2V5a2V5a2V5",
		"$argon2id$v=19$m=8192,t=1,p=1$!!$a2V5",
	} {
		if _, err := hasher.Verify("whatever", encoded); !errors.Is(err, ErrInvalidHash) {
			t.Fatalf("%q: expected ErrInvalidHash, got %v", encoded, err)
		}
	}
}

func TestNewArgon2RejectsWeakConfig(t *testing.T) {
	cfg := fastConfig()
	cfg.SaltLength = 4
	if _, err := NewArgon2(cfg); !errors.Is(err, ErrInvalidConfig) {
		t.Fatalf("expected ErrInvalidConfig, got %v", err)
	}
}
