package user

import (
	"errors"

	"golang.org/x/crypto/bcrypt"
)

// MaxPasswordBytes is the longest input bcrypt hashes without truncation.
const MaxPasswordBytes = 72

var ErrPasswordTooLong = errors.New("password exceeds 72 bytes")

// PasswordHasher is the one-way hash primitive for stored passwords.
type PasswordHasher interface {
	Hash(pw string) (string, error)
	// Verify reports whether pw matches hash. A malformed hash is just a mismatch.
	Verify(hash, pw string) bool
}

// BcryptHasher hashes with bcrypt at Cost, or bcrypt.DefaultCost when unset.
type BcryptHasher struct{ Cost int }

func (b BcryptHasher) cost() int {
	if b.Cost < bcrypt.MinCost {
		return bcrypt.DefaultCost
	}
	return b.Cost
}

func (b BcryptHasher) Hash(pw string) (string, error) {
	if len(pw) > MaxPasswordBytes {
		return "", ErrPasswordTooLong
	}
	h, err := bcrypt.GenerateFromPassword([]byte(pw), b.cost())
	return string(h), err
}

// Verify never matches an over-long password, so a stored hash cannot be hit
// by a longer input sharing its first 72 bytes.
func (b BcryptHasher) Verify(hash, pw string) bool {
	if len(pw) > MaxPasswordBytes {
		return false
	}
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(pw)) == nil
}
