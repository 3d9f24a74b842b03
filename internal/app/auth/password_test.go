package auth

import (
	"strings"
	"testing"

	"golang.org/x/crypto/bcrypt"
)

func TestHashAndVerifyPassword(t *testing.T) {
	hash, err := HashPassword("correct horse", bcrypt.MinCost)
	if err != nil {
		t.Fatalf("hash: %v", err)
	}
	if !VerifyPassword(hash, "correct horse") {
		t.Fatalf("expected password to verify")
	}
	if VerifyPassword(hash, "wrong horse") {
		t.Fatalf("expected mismatch")
	}
}

func TestLongPasswordsAreNotTruncated(t *testing.T) {
	base := strings.Repeat("a", 80)
	hash, err := HashPassword(base+"1", bcrypt.MinCost)
	if err != nil {
		t.Fatalf("hash: %v", err)
	}
	if VerifyPassword(hash, base+"2") {
		t.Fatalf("passwords differing after byte 72 must not match")
	}
}
