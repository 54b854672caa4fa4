package auth

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const testSecret = "test-secret-at-least-16-chars!!"

// newTestTokenService uses a fixed secret so tests are deterministic.
func newTestTokenService(t *testing.T) *TokenService {
	t.Helper()
	ts, err := NewTokenService(testSecret, time.Hour)
	if err != nil {
		t.Fatalf("NewTokenService: %v", err)
	}
	return ts
}

// =========================================================================
// TOKEN SERVICE CONSTRUCTION TESTS
// =========================================================================

func TestNewTokenService_ShortSecret(t *testing.T) {
	_, err := NewTokenService("short", time.Hour)
	if err == nil {
		t.Fatal("NewTokenService() should reject secrets shorter than 16 chars")
	}
}

func TestNewTokenService_DefaultTTL(t *testing.T) {
	ts, err := NewTokenService("this-is-16-chars", 0)
	if err != nil {
		t.Fatalf("NewTokenService() unexpected error: %v", err)
	}
	if ts.TTL() != DefaultTokenTTL {
		t.Errorf("TTL() = %v, want %v", ts.TTL(), DefaultTokenTTL)
	}
}

// =========================================================================
// GENERATE / VALIDATE TESTS
// =========================================================================

func TestGenerate_LooksLikeJWT(t *testing.T) {
	ts := newTestTokenService(t)

	token, err := ts.Generate("user-123")
	if err != nil {
		t.Fatalf("Generate() error = %v", err)
	}

	if n := strings.Count(token, "."); n != 2 {
		t.Errorf("Generate() token has %d dots, want 2", n)
	}
}

func TestValidate_RoundTrip(t *testing.T) {
	ts := newTestTokenService(t)

	token, err := ts.Generate("user-abc-123")
	if err != nil {
		t.Fatalf("Generate() error = %v", err)
	}

	got, err := ts.Validate(token)
	if err != nil {
		t.Fatalf("Validate() error = %v", err)
	}
	if got != "user-abc-123" {
		t.Errorf("Validate() userID = %q, want %q", got, "user-abc-123")
	}
}

func TestGenerate_UsesConfiguredTTL(t *testing.T) {
	ts, _ := NewTokenService(testSecret, 2*time.Hour)

	token, _ := ts.Generate("user-1")

	parsed, _, err := jwt.NewParser().ParseUnverified(token, &claims{})
	if err != nil {
		t.Fatalf("ParseUnverified() error = %v", err)
	}
	c := parsed.Claims.(*claims)
	lifetime := c.ExpiresAt.Sub(c.IssuedAt.Time)
	if lifetime != 2*time.Hour {
		t.Errorf("token lifetime = %v, want 2h", lifetime)
	}
	if c.Issuer != "organlink" {
		t.Errorf("Issuer = %q, want organlink", c.Issuer)
	}
}

func TestValidate_ExpiredToken(t *testing.T) {
	ts := newTestTokenService(t)

	token, err := ts.GenerateWithDuration("user-123", -1*time.Second)
	if err != nil {
		t.Fatalf("GenerateWithDuration() error = %v", err)
	}

	_, err = ts.Validate(token)
	if !errors.Is(err, ErrTokenExpired) {
		t.Fatalf("Validate() error = %v, want ErrTokenExpired", err)
	}
}

func TestValidate_Rejects(t *testing.T) {
	ts := newTestTokenService(t)
	good, _ := ts.Generate("user-123")

	other, _ := NewTokenService("wrong-secret-32-chars-long!!!!!!", time.Hour)
	foreign, _ := other.Generate("user-123")

	noSubject, _ := ts.GenerateWithDuration("", time.Hour)

	tests := []struct {
		name  string
		token string
	}{
		{"tampered signature", good[:len(good)-3] + "xxx"},
		{"signed with another secret", foreign},
		{"empty string", ""},
		{"garbage", "not.a.jwt.token"},
		{"missing subject", noSubject},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := ts.Validate(tt.token); err == nil {
				t.Errorf("Validate() accepted %s", tt.name)
			}
		})
	}
}

func TestValidate_RejectsForeignIssuer(t *testing.T) {
	ts := newTestTokenService(t)

	c := claims{RegisteredClaims: jwt.RegisteredClaims{
		Subject:   "user-1",
		Issuer:    "someone-else",
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
	}}
	token, _ := jwt.NewWithClaims(jwt.SigningMethodHS256, c).SignedString([]byte(testSecret))

	if _, err := ts.Validate(token); err == nil {
		t.Fatal("Validate() should reject a token from another issuer")
	}
}
