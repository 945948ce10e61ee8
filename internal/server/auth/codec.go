// Package auth holds the credential primitives of the identity service:
// password hashing and verification, the password policy, random token
// generation and signed access tokens.
package auth

import (
	"errors"
	"fmt"

	"golang.org/x/crypto/bcrypt"
)

// DefaultCost is the bcrypt work factor used for stored identities.
const DefaultCost = 12

// MaxPasswordBytes is the longest input bcrypt consumes; longer inputs are
// rejected rather than silently truncated.
const MaxPasswordBytes = 72

var (
	ErrEmptyPassword   = errors.New("empty password")
	ErrPasswordTooLong = errors.New("password exceeds 72 bytes")
)

// PasswordCodec turns a plaintext password into a self-describing salted
// hash and checks candidates against such hashes.
type PasswordCodec interface {
	Hash(plaintext string) (string, error)
	// Verify never fails: a malformed hash simply does not match.
	Verify(plaintext, hash string) bool
	// DummyHash is a valid hash of an unknowable secret, verified against
	// when no identity exists so both paths cost the same.
	DummyHash() string
}

// BcryptCodec is the bcrypt PasswordCodec.
type BcryptCodec struct {
	cost  int
	dummy string
}

// NewBcryptCodec creates a codec hashing at the given cost (DefaultCost when
// zero). The dummy hash is computed once here, at the same cost.
func NewBcryptCodec(cost int) (*BcryptCodec, error) {
	if cost == 0 {
		cost = DefaultCost
	}
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		return nil, fmt.Errorf("bcrypt cost %d out of range [%d, %d]", cost, bcrypt.MinCost, bcrypt.MaxCost)
	}

	secret, err := GenerateToken(MaxPasswordBytes)
	if err != nil {
		return nil, fmt.Errorf("dummy secret: %w", err)
	}
	dummy, err := bcrypt.GenerateFromPassword([]byte(secret), cost)
	if err != nil {
		return nil, fmt.Errorf("dummy hash: %w", err)
	}
	return &BcryptCodec{cost: cost, dummy: string(dummy)}, nil
}

// Hash returns a salted bcrypt hash of plaintext. Empty and over-long
// passwords are rejected before hashing.
func (c *BcryptCodec) Hash(plaintext string) (string, error) {
	if plaintext == "" {
		return "", ErrEmptyPassword
	}
	if len(plaintext) > MaxPasswordBytes {
		return "", ErrPasswordTooLong
	}
	h, err := bcrypt.GenerateFromPassword([]byte(plaintext), c.cost)
	if err != nil {
		return "", fmt.Errorf("bcrypt: %w", err)
	}
	return string(h), nil
}

// Verify reports whether plaintext matches hash. A malformed hash never
// matches.
func (c *BcryptCodec) Verify(plaintext, hash string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(plaintext)) == nil
}

// DummyHash returns a valid hash at the codec cost that no login password is
// expected to match.
func (c *BcryptCodec) DummyHash() string {
	return c.dummy
}

// Cost reports the work factor of hashes produced by c.
func (c *BcryptCodec) Cost() int {
	return c.cost
}
