package auth

import (
	"errors"
	"strings"
	"testing"
)

// newTestPasswordService uses bcrypt's minimum cost so each hash takes
// milliseconds instead of ~250ms.
func newTestPasswordService() *PasswordService {
	return NewPasswordServiceForTest(4)
}

// =========================================================================
// Hash TESTS
// =========================================================================

func TestHash_OutputLooksBcrypt(t *testing.T) {
	ps := newTestPasswordService()

	hash, err := ps.Hash("kidney-donor-2024")
	if err != nil {
		t.Fatalf("Hash() error = %v", err)
	}

	if !strings.HasPrefix(hash, "$2") {
		t.Errorf("Hash() does not look like a bcrypt hash: %q", hash)
	}
	if strings.Contains(hash, "kidney-donor-2024") {
		t.Error("Hash() output contains the plaintext")
	}
}

func TestHash_SamePasswordProducesDifferentHashes(t *testing.T) {
	ps := newTestPasswordService()

	hash1, _ := ps.Hash("same-password")
	hash2, _ := ps.Hash("same-password")

	if hash1 == hash2 {
		t.Error("Hash() produced identical hashes for the same password (salt must be random)")
	}
}

func TestHash_LengthLimit(t *testing.T) {
	ps := newTestPasswordService()

	tests := []struct {
		name    string
		length  int
		wantErr bool
	}{
		{"exactly 72 bytes", 72, false},
		{"73 bytes", 73, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ps.Hash(strings.Repeat("a", tt.length))
			if (err != nil) != tt.wantErr {
				t.Errorf("Hash() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

// =========================================================================
// Verify TESTS
// =========================================================================

func TestVerify_CorrectPassword(t *testing.T) {
	ps := newTestPasswordService()

	hash, err := ps.Hash("correct-horse-battery-staple")
	if err != nil {
		t.Fatalf("Hash() error = %v", err)
	}

	if err := ps.Verify(hash, "correct-horse-battery-staple"); err != nil {
		t.Errorf("Verify() should return nil for a correct password, got: %v", err)
	}
}

func TestVerify_WrongPassword(t *testing.T) {
	ps := newTestPasswordService()

	hash, _ := ps.Hash("the-real-password")

	err := ps.Verify(hash, "the-wrong-password")
	if !errors.Is(err, ErrPasswordMismatch) {
		t.Fatalf("Verify() error = %v, want ErrPasswordMismatch", err)
	}

	if err := ps.Verify(hash, ""); !errors.Is(err, ErrPasswordMismatch) {
		t.Errorf("Verify() with empty password error = %v, want ErrPasswordMismatch", err)
	}
}

func TestVerify_GarbageHash(t *testing.T) {
	ps := newTestPasswordService()

	err := ps.Verify("not-a-valid-bcrypt-hash", "password")
	if err == nil {
		t.Fatal("Verify() should return an error for a garbage hash")
	}
	if errors.Is(err, ErrPasswordMismatch) {
		t.Error("a malformed hash is a server fault, not a wrong password")
	}
}

func TestHashVerify_RoundTrip(t *testing.T) {
	ps := newTestPasswordService()

	cases := []struct {
		name     string
		password string
	}{
		{"simple alphanumeric", "hello123"},
		{"special characters", "p@$$w0rd!#%"},
		{"unicode", "пароль-密码"},
		{"whitespace", "  leading and trailing  "},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			hash, err := ps.Hash(tc.password)
			if err != nil {
				t.Fatalf("Hash(%q) error = %v", tc.password, err)
			}

			if err := ps.Verify(hash, tc.password); err != nil {
				t.Errorf("Verify() failed for %q: %v", tc.password, err)
			}
		})
	}
}
