package invitecode

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateLengthAndCharset(t *testing.T) {
	for _, length := range []int{1, Length, 32} {
		code, err := Generate(length)
		require.NoError(t, err)
		assert.Len(t, code, length)
		for _, r := range code {
			assert.True(t, strings.ContainsRune(Charset, r), "unexpected rune %q", r)
		}
	}
}

func TestNewIsNotConstant(t *testing.T) {
	seen := make(map[string]struct{})
	for i := 0; i < 50; i++ {
		code, err := New()
		require.NoError(t, err)
		seen[code] = struct{}{}
	}
	assert.Greater(t, len(seen), 1)
}

func TestNormalize(t *testing.T) {
	assert.Equal(t, "AB12CD34", Normalize("  ab12cd34 "))
}
