package auth

import (
	"testing"

	"golang.org/x/crypto/bcrypt"
)

func TestBcryptHasherRoundTrip(t *testing.T) {
	h := NewBcryptHasher(bcrypt.MinCost)

	hashed, err := h.Hash("Sup3rSecret!")
	if err != nil {
		t.Fatalf("Hash failed: %v", err)
	}
	if err := ComparePassword(hashed, "Sup3rSecret!"); err != nil {
		t.Fatalf("expected the password to match its hash: %v", err)
	}
	if err := ComparePassword(hashed, "wrong"); err == nil {
		t.Fatal("expected a mismatch for the wrong password")
	}
}

func TestBcryptHasherRejectsInvalidCost(t *testing.T) {
	h := NewBcryptHasher(-1)
	if h.cost != bcrypt.DefaultCost {
		t.Fatalf("expected fallback to the default cost, got %d", h.cost)
	}
}
