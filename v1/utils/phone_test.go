package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalizePhone(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
		ok    bool
	}{
		{"international with plus", "+6281234567890", "081234567890", true},
		{"country code without plus", "6281234567890", "081234567890", true},
		{"local format", "081234567890", "081234567890", true},
		{"spaces and dashes", "+62 812-3456-7890", "081234567890", true},
		{"parentheses", "(0812) 3456 7890", "081234567890", true},
		{"no leading zero", "81234567890", "081234567890", true},
		{"too short", "0812345", "", false},
		{"not a number", "hello there", "", false},
		{"empty", "", "", false},
		{"digits buried in text", "call me at 081234567890 thanks", "081234567890", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := NormalizePhone(tt.input)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

// Normalizing an already-normalized number must not change it.
func TestNormalizePhone_Idempotent(t *testing.T) {
	inputs := []string{"+6281234567890", "081234567890", "6281234567890", "8123456789012"}
	for _, input := range inputs {
		first, ok := NormalizePhone(input)
		assert.True(t, ok, "input %q should normalize", input)

		second, ok := NormalizePhone(first)
		assert.True(t, ok)
		assert.Equal(t, first, second, "normalization of %q is not idempotent", input)
	}
}

// The +62 international form and the 0-prefixed local form of the same
// number must normalize to the same canonical phone.
func TestNormalizePhone_CountryCodeEquivalence(t *testing.T) {
	international, ok := NormalizePhone("+6281234567890")
	assert.True(t, ok)

	local, ok := NormalizePhone("081234567890")
	assert.True(t, ok)

	assert.Equal(t, local, international)
}
