package crypto

import (
	"crypto/rand"
	"math/big"
)

// TokenLen is the length of issued bearer tokens.
const TokenLen = 160

const tokenAlphabet = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

// GenerateToken returns n characters drawn uniformly from letters and digits.
func GenerateToken(n int) (string, error) {
	base := big.NewInt(int64(len(tokenAlphabet)))
	b := make([]byte, n)
	for i := range b {
		idx, err := rand.Int(rand.Reader, base)
		if err != nil {
			return "", err
		}
		b[i] = tokenAlphabet[idx.Int64()]
	}
	return string(b), nil
}
