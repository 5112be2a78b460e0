package security

import (
	"crypto/rand"
	"fmt"
	"math/big"
	"strings"
)

// GenerateNumericCode returns a random code of exactly length decimal digits.
// Digits are drawn from crypto/rand so codes are safe for one-time verification.
func GenerateNumericCode(length int) (string, error) {
	if length <= 0 {
		return "", fmt.Errorf("security: code length must be positive, got %d", length)
	}

	var sb strings.Builder
	sb.Grow(length)

	max := big.NewInt(10)
	for i := 0; i < length; i++ {
		n, err := rand.Int(rand.Reader, max)
		if err != nil {
			return "", fmt.Errorf("security: generate digit: %w", err)
		}
		sb.WriteByte(byte('0' + n.Int64()))
	}

	return sb.String(), nil
}
