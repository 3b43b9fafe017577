package utils

import (
	"strings"
	"testing"

	"golang.org/x/crypto/bcrypt"
)

func TestHashPassword(t *testing.T) {
	password := "testpassword123"

	hash, err := HashPassword(password)
	if err != nil {
		t.Fatalf("HashPassword() error = %v", err)
	}

	if hash == "" {
		t.Error("HashPassword() returned empty string")
	}

	if hash == password {
		t.Error("HashPassword() should not return plaintext password")
	}

	if !strings.HasPrefix(hash, "$2") {
		t.Errorf("hash is not a bcrypt hash: %q", hash)
	}
}

func TestHashPassword_DifferentHashes(t *testing.T) {
	password := "testpassword"

	hash1, _ := HashPassword(password)
	hash2, _ := HashPassword(password)

	if hash1 == hash2 {
		t.Error("same password should produce different hashes (due to salt)")
	}
}

func TestHashPassword_TooLong(t *testing.T) {
	// bcrypt refuses input beyond 72 bytes rather than silently truncating.
	_, err := HashPassword(strings.Repeat("a", 73))
	if err == nil {
		t.Fatal("HashPassword() should fail for passwords longer than 72 bytes")
	}
	if err != bcrypt.ErrPasswordTooLong {
		t.Errorf("error = %v, expected bcrypt.ErrPasswordTooLong", err)
	}
}

func TestCheckPassword(t *testing.T) {
	password := "correctpassword"
	hash, _ := HashPassword(password)

	tests := []struct {
		name     string
		password string
		expected bool
	}{
		{"correct password", "correctpassword", true},
		{"wrong password", "wrongpassword", false},
		{"empty password", "", false},
		{"similar password", "correctpassword1", false},
		{"case sensitive", "CorrectPassword", false},
		{"whitespace differs", " correctpassword", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := CheckPassword(tt.password, hash)
			if result != tt.expected {
				t.Errorf("CheckPassword(%q) = %v, expected %v", tt.password, result, tt.expected)
			}
		})
	}
}

func TestCheckPassword_UnicodeRoundTrip(t *testing.T) {
	password := "pässwörd-日本語"
	hash, err := HashPassword(password)
	if err != nil {
		t.Fatalf("HashPassword() error = %v", err)
	}

	if !CheckPassword(password, hash) {
		t.Error("unicode password should verify against its own hash")
	}
	if CheckPassword("password-日本語", hash) {
		t.Error("different unicode password should not verify")
	}
}

func TestCheckPassword_MalformedHash(t *testing.T) {
	for _, hash := range []string{"", "invalid_hash", "$2a$broken"} {
		if CheckPassword("password", hash) {
			t.Errorf("CheckPassword should return false for malformed hash %q", hash)
		}
	}
}
