package common

import (
	"crypto/rand"
	"math/big"
)

const base36Alphabet = "0123456789abcdefghijklmnopqrstuvwxyz"

// MakeRandBase36String generates a random base36 string of the given length.
// It is used for the random suffix of anonymous user identifiers.
//
// It returns an error if the random number generator fails.
func MakeRandBase36String(length int) (string, error) {
	b := make([]byte, length)
	max := big.NewInt(int64(len(base36Alphabet)))
	for i := range b {
		n, err := rand.Int(rand.Reader, max)
		if err != nil {
			return "", err
		}
		b[i] = base36Alphabet[n.Int64()]
	}
	return string(b), nil
}
