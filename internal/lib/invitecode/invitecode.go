// Package invitecode generates team invitation codes.
package invitecode

import (
	"crypto/rand"
	"math/big"
	"strings"
)

const (
	Charset = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
	Length  = 8
)

var charsetSize = big.NewInt(int64(len(Charset)))

// Generate returns a random code of the given length drawn from Charset.
func Generate(length int) (string, error) {
	var sb strings.Builder
	sb.Grow(length)
	for i := 0; i < length; i++ {
		n, err := rand.Int(rand.Reader, charsetSize)
		if err != nil {
			return "", err
		}
		sb.WriteByte(Charset[n.Int64()])
	}
	return sb.String(), nil
}

// New returns a code of the default length.
func New() (string, error) {
	return Generate(Length)
}

// Normalize upper-cases and trims user input so codes compare case-insensitively.
func Normalize(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}
