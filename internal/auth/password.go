package auth

import (
	"errors"
	"fmt"

	"golang.org/x/crypto/bcrypt"
)

// defaultCost is the bcrypt work factor used in production. Cost 12 takes
// roughly 250ms per hash on a modern server.
const defaultCost = 12

// maxPasswordBytes is bcrypt's input limit. Longer inputs are rejected
// rather than silently truncated.
const maxPasswordBytes = 72

// ErrPasswordMismatch is returned by Verify when the password is wrong.
var ErrPasswordMismatch = errors.New("auth: invalid password")

// PasswordService hashes and verifies passwords with bcrypt.
//
// The hash output embeds version, cost and salt:
//
//	$2a$12$<22-char salt><31-char hash>
//
// so the users table needs a single column for it.
type PasswordService struct {
	cost int
}

// NewPasswordService creates a PasswordService with the default cost.
func NewPasswordService() *PasswordService {
	return &PasswordService{cost: defaultCost}
}

// NewPasswordServiceForTest lets other packages' tests use a cheap cost
// (bcrypt.MinCost is 4). Never use it in production.
func NewPasswordServiceForTest(cost int) *PasswordService {
	return &PasswordService{cost: cost}
}

// Hash hashes plaintext with a fresh random salt.
func (p *PasswordService) Hash(plaintext string) (string, error) {
	if len(plaintext) > maxPasswordBytes {
		return "", fmt.Errorf("auth: password must be %d bytes or fewer", maxPasswordBytes)
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(plaintext), p.cost)
	if err != nil {
		return "", fmt.Errorf("auth: hashing password: %w", err)
	}

	return string(hashed), nil
}

// Verify returns nil when plaintext matches hash and ErrPasswordMismatch when
// it does not. The comparison is constant-time.
func (p *PasswordService) Verify(hash, plaintext string) error {
	err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(plaintext))
	if err != nil {
		if errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
			return ErrPasswordMismatch
		}
		return fmt.Errorf("auth: comparing password hash: %w", err)
	}
	return nil
}
