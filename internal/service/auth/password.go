package auth

import (
	"errors"
	"fmt"

	"golang.org/x/crypto/bcrypt"
)

// DefaultBcryptCost is used when the configured cost is outside bcrypt's range.
const DefaultBcryptCost = 12

// ErrPasswordMismatch is returned when a password does not match its hash.
var ErrPasswordMismatch = errors.New("password does not match")

// PasswordHasher hashes passwords and compares them with stored hashes.
type PasswordHasher interface {
	// Hash returns a salted hash of the plaintext password.
	Hash(password string) (string, error)

	// Compare compares a hashed password with its possible plaintext equivalent.
	// Returns nil on success, ErrPasswordMismatch on mismatch, or another
	// error if the hash itself is unusable.
	Compare(hashedPassword, password string) error
}

// BcryptHasher implements PasswordHasher using bcrypt.
type BcryptHasher struct {
	cost int
}

var _ PasswordHasher = (*BcryptHasher)(nil)

// NewBcryptHasher creates a BcryptHasher. A cost outside bcrypt's accepted
// range is replaced by DefaultBcryptCost.
func NewBcryptHasher(cost int) *BcryptHasher {
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		cost = DefaultBcryptCost
	}
	return &BcryptHasher{cost: cost}
}

// Hash implements the PasswordHasher interface.
func (h *BcryptHasher) Hash(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), h.cost)
	if err != nil {
		return "", fmt.Errorf("failed to hash password: %w", err)
	}
	return string(hash), nil
}

// Compare implements the PasswordHasher interface using bcrypt's
// constant-time comparison.
func (h *BcryptHasher) Compare(hashedPassword, password string) error {
	err := bcrypt.CompareHashAndPassword([]byte(hashedPassword), []byte(password))
	switch {
	case err == nil:
		return nil
	case errors.Is(err, bcrypt.ErrMismatchedHashAndPassword):
		return ErrPasswordMismatch
	default:
		return fmt.Errorf("failed to compare password hash: %w", err)
	}
}
