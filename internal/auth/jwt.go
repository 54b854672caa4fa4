// Package auth provides JWT bearer tokens, password hashing and the
// middleware that turns a bearer token into a user identity.
//
// AUTHENTICATION FLOW OVERVIEW:
//  1. POST /api/auth/register stores the user with a bcrypt hash
//  2. POST /api/auth/login verifies the password and returns a signed JWT
//  3. The client sends "Authorization: Bearer <jwt>" on every protected call
//  4. RequireAuth validates the JWT and puts the user ID in the request context
//
// Tokens are stateless: the server keeps no session table, so a token stays
// valid until it expires.
//
// JWT STRUCTURE (three base64-encoded parts separated by dots):
//
//	HEADER.PAYLOAD.SIGNATURE
//	- Header: {"alg":"HS256","typ":"JWT"}
//	- Payload: {"sub":"<userID>","iss":"organlink","exp":...}
//	- Signature: HMAC-SHA256(header+"."+payload, secretKey)
package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const issuer = "organlink"

// DefaultTokenTTL is how long a login token stays valid when no TTL is configured.
const DefaultTokenTTL = 7 * 24 * time.Hour

// ErrTokenExpired lets callers tell an expired token apart from a forged one.
var ErrTokenExpired = errors.New("auth: token expired")

// TokenService signs and verifies HS256 tokens with one shared secret.
type TokenService struct {
	secret []byte
	ttl    time.Duration
}

// NewTokenService creates a TokenService. A ttl of zero or less falls back to
// DefaultTokenTTL.
//
// The secret should be at least 32 bytes of random data in production.
// Example: JWT_SECRET=$(openssl rand -hex 32)
func NewTokenService(secret string, ttl time.Duration) (*TokenService, error) {
	if len(secret) < 16 {
		return nil, errors.New("auth: JWT secret must be at least 16 characters")
	}
	if ttl <= 0 {
		ttl = DefaultTokenTTL
	}
	return &TokenService{secret: []byte(secret), ttl: ttl}, nil
}

// TTL reports the lifetime of tokens issued by Generate.
func (s *TokenService) TTL() time.Duration {
	return s.ttl
}

// claims is the JWT payload. "sub" carries the internal user ID.
type claims struct {
	jwt.RegisteredClaims
}

// Generate issues a token for userID that expires after the configured TTL.
func (s *TokenService) Generate(userID string) (string, error) {
	return s.GenerateWithDuration(userID, s.ttl)
}

// GenerateWithDuration issues a token with an explicit lifetime. Tests use a
// negative duration to mint already-expired tokens.
func (s *TokenService) GenerateWithDuration(userID string, d time.Duration) (string, error) {
	now := time.Now()

	c := claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(d)),
			Issuer:    issuer,
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, c)
	signed, err := token.SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("auth: signing token: %w", err)
	}

	return signed, nil
}

// Validate parses and verifies a JWT string and returns the user ID from "sub".
//
// VALIDATION CHECKS (performed by the jwt library):
//   - Signature is valid
//   - Token is not expired, and carries an expiry at all
//   - Issuer is "organlink"
//   - Algorithm is HS256 (rejects "alg":"none" and algorithm confusion)
func (s *TokenService) Validate(tokenStr string) (string, error) {
	token, err := jwt.ParseWithClaims(
		tokenStr,
		&claims{},
		func(token *jwt.Token) (any, error) {
			if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, fmt.Errorf("auth: unexpected signing method: %v", token.Header["alg"])
			}
			return s.secret, nil
		},
		jwt.WithValidMethods([]string{"HS256"}),
		jwt.WithIssuer(issuer),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return "", ErrTokenExpired
		}
		return "", fmt.Errorf("auth: invalid token: %w", err)
	}

	c, ok := token.Claims.(*claims)
	if !ok || !token.Valid {
		return "", fmt.Errorf("auth: invalid token claims")
	}

	if c.Subject == "" {
		return "", fmt.Errorf("auth: token has no subject")
	}

	return c.Subject, nil
}
