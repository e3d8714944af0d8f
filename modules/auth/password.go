package auth

import (
	"golang.org/x/crypto/bcrypt"
)

// DefaultBcryptCost is the default cost for bcrypt hashing.
const DefaultBcryptCost = 12

// PasswordHasher provides password hashing and verification functionality.
type PasswordHasher struct {
	cost int
}

// NewPasswordHasher creates a new PasswordHasher with default cost.
func NewPasswordHasher() *PasswordHasher {
	return NewPasswordHasherWithCost(DefaultBcryptCost)
}

// NewPasswordHasherWithCost creates a hasher with an explicit bcrypt cost.
func NewPasswordHasherWithCost(cost int) *PasswordHasher {
	return &PasswordHasher{cost: cost}
}

// Hash generates a bcrypt hash of the given password.
func (h *PasswordHasher) Hash(password string) (string, error) {
	bytes, err := bcrypt.GenerateFromPassword([]byte(password), h.cost)
	if err != nil {
		return "", err
	}
	return string(bytes), nil
}

// Verify checks if the provided password matches the hash.
func (h *PasswordHasher) Verify(password, hash string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}
