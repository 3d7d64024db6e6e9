// Package password hashes and verifies account passwords with bcrypt.
package password

import (
	"fmt"

	"golang.org/x/crypto/bcrypt"
)

// DefaultCost is used when the configured cost is zero.
const DefaultCost = 12

// MaxBytes is the longest plaintext bcrypt reads in full.
const MaxBytes = 72

// Hasher hashes with a fixed bcrypt cost. The zero value uses DefaultCost.
type Hasher struct {
	cost int
}

// NewHasher returns a Hasher for cost, which must be within bcrypt's range.
func NewHasher(cost int) (*Hasher, error) {
	if cost == 0 {
		cost = DefaultCost
	}
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		return nil, fmt.Errorf("bcrypt cost %d out of range [%d, %d]", cost, bcrypt.MinCost, bcrypt.MaxCost)
	}
	return &Hasher{cost: cost}, nil
}

// Hash returns a salted bcrypt hash of plaintext.
//
// bcrypt only looks at the first 72 bytes; longer inputs are rejected so two
// passwords sharing a 72-byte prefix cannot collide silently.
func (h *Hasher) Hash(plaintext string) (string, error) {
	cost := h.cost
	if cost == 0 {
		cost = DefaultCost
	}
	b, err := bcrypt.GenerateFromPassword([]byte(plaintext), cost)
	if err != nil {
		return "", fmt.Errorf("hash password: %w", err)
	}
	return string(b), nil
}

// Compare reports whether plaintext matches hash. A malformed hash is a
// mismatch, not an error. Plaintext longer than MaxBytes never matches,
// since Hash cannot have produced hash from it.
func (h *Hasher) Compare(plaintext, hash string) bool {
	if len(plaintext) > MaxBytes {
		return false
	}
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(plaintext)) == nil
}
