package crypto_test

import (
	"bytes"
	"testing"

	"github.com/talkroom/talkd/pkg/crypto"
)

func TestHashPasswordDeterministic(t *testing.T) {
	salt, err := crypto.GenerateSalt()
	if err != nil {
		t.Fatalf("GenerateSalt: %v", err)
	}

	h1 := crypto.HashPassword("a123", salt)
	h2 := crypto.HashPassword("a123", salt)
	if !bytes.Equal(h1, h2) {
		t.Fatal("same password and salt produced different hashes")
	}
}

func TestVerifyPassword(t *testing.T) {
	salt, err := crypto.GenerateSalt()
	if err != nil {
		t.Fatalf("GenerateSalt: %v", err)
	}
	hash := crypto.HashPassword("a123", salt)

	if !crypto.VerifyPassword("a123", salt, hash) {
		t.Error("VerifyPassword rejected the correct password")
	}
	if crypto.VerifyPassword("a124", salt, hash) {
		t.Error("VerifyPassword accepted a wrong password")
	}
}

func TestGenerateSaltUnique(t *testing.T) {
	s1, err := crypto.GenerateSalt()
	if err != nil {
		t.Fatalf("GenerateSalt: %v", err)
	}
	s2, err := crypto.GenerateSalt()
	if err != nil {
		t.Fatalf("GenerateSalt: %v", err)
	}
	if bytes.Equal(s1, s2) {
		t.Error("two salts were identical")
	}
}
