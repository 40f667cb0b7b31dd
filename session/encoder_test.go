package session

import (
	"errors"
	"testing"
)

func TestDecodeUserRejectsMalformedPayloads(t *testing.T) {
	cases := map[string]string{
		"not json":     "{",
		"wrong shape":  `["buyer"]`,
		"missing id":   `{"userType":"buyer"}`,
		"missing role": `{"id":"u-1"}`,
		"unknown role": `{"id":"u-1","userType":"admin"}`,
	}
	for name, raw := range cases {
		if _, err := DecodeUser(raw); !errors.Is(err, ErrMalformedUser) {
			t.Fatalf("%s: expected ErrMalformedUser, got %v", name, err)
		}
	}
}

func TestEncodeDecodeKeepsProfileFields(t *testing.T) {
	u := User{ID: "u-7", UserType: Rider, Name: "Kojo", Phone: "+233200000000", Avatar: "https://cdn/a.png"}
	raw, err := EncodeUser(u)
	if err != nil {
		t.Fatalf("encode failed: %v", err)
	}
	got, err := DecodeUser(raw)
	if err != nil {
		t.Fatalf("decode failed: %v", err)
	}
	if got != u {
		t.Fatalf("expected %+v, got %+v", u, got)
	}
}

func TestParseUserType(t *testing.T) {
	if got, ok := ParseUserType(" Kayayo "); !ok || got != Kayayo {
		t.Fatalf("expected kayayo, got %q %v", got, ok)
	}
	if _, ok := ParseUserType("courier"); ok {
		t.Fatal("expected unknown role to be rejected")
	}
}
