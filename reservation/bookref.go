package reservation

import (
	"crypto/rand"
	"fmt"
	"math/big"
)

// BookRefLength is the length of generated public references.
const BookRefLength = 5

const bookRefAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789"

// GenerateBookRef returns n random alphanumeric characters.
func GenerateBookRef(n int) (string, error) {
	if n <= 0 {
		return "", fmt.Errorf("book reference length must be positive, got %d", n)
	}
	max := big.NewInt(int64(len(bookRefAlphabet)))
	out := make([]byte, n)
	for i := range out {
		idx, err := rand.Int(rand.Reader, max)
		if err != nil {
			return "", fmt.Errorf("failed to generate book reference: %w", err)
		}
		out[i] = bookRefAlphabet[idx.Int64()]
	}
	return string(out), nil
}
