package auth

import (
	"crypto/rand"
	"math/big"
)

// DefaultTokenLength is used when GenerateToken is given a non-positive length.
const DefaultTokenLength = 32

const tokenAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789"

var alphabetSize = big.NewInt(int64(len(tokenAlphabet)))

// GenerateToken returns length characters drawn uniformly and independently
// from the 62-symbol alphanumeric alphabet using crypto/rand. Uniqueness is
// not guaranteed; storage must enforce it where it matters.
func GenerateToken(length int) (string, error) {
	if length <= 0 {
		length = DefaultTokenLength
	}
	out := make([]byte, length)
	for i := range out {
		n, err := rand.Int(rand.Reader, alphabetSize)
		if err != nil {
			return "", err
		}
		out[i] = tokenAlphabet[n.Int64()]
	}
	return string(out), nil
}
