package auth

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testKey = "0123456789abcdef0123456789abcdef"

func TestEncryptDecryptToken(t *testing.T) {
	tests := []struct {
		name  string
		token string
	}{
		{"personal access token", "pat-na1-00000000-aaaa-bbbb-cccc-dddddddddddd"},
		{"short value", "x"},
		{"unicode", "tøken-ñ-✓"},
		{"long value", strings.Repeat("a", 4096)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			enc, err := EncryptToken(tt.token, testKey)
			require.NoError(t, err)
			require.NotEmpty(t, enc)
			assert.NotEqual(t, tt.token, enc)

			dec, err := DecryptToken(enc, testKey)
			require.NoError(t, err)
			assert.Equal(t, tt.token, dec)
		})
	}
}

func TestEncryptToken_Randomized(t *testing.T) {
	a, err := EncryptToken("pat-secret", testKey)
	require.NoError(t, err)
	b, err := EncryptToken("pat-secret", testKey)
	require.NoError(t, err)
	assert.NotEqual(t, a, b, "nonce must differ between encryptions")
}

func TestEncryptToken_EmptyStringPassthrough(t *testing.T) {
	enc, err := EncryptToken("", testKey)
	require.NoError(t, err)
	assert.Empty(t, enc)

	dec, err := DecryptToken("", testKey)
	require.NoError(t, err)
	assert.Empty(t, dec)
}

func TestEncryptToken_KeyValidation(t *testing.T) {
	_, err := EncryptToken("pat-secret", "")
	assert.ErrorIs(t, err, ErrEmptyKey)

	_, err = EncryptToken("pat-secret", "too-short")
	assert.ErrorIs(t, err, ErrInvalidKeyLength)

	_, err = DecryptToken("whatever", "")
	assert.ErrorIs(t, err, ErrEmptyKey)

	_, err = DecryptToken("whatever", "also-too-short")
	assert.ErrorIs(t, err, ErrInvalidKeyLength)
}

func TestDecryptToken_RejectsBadCiphertext(t *testing.T) {
	tests := []struct {
		name string
		in   string
	}{
		{"not base64", "%%%not-base64%%%"},
		{"too short", "YWJj"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := DecryptToken(tt.in, testKey)
			assert.ErrorIs(t, err, ErrInvalidCiphertext)
		})
	}
}

func TestDecryptToken_RejectsTamperedCiphertext(t *testing.T) {
	enc, err := EncryptToken("pat-secret", testKey)
	require.NoError(t, err)

	// flip one character of the base64 payload
	b := []byte(enc)
	if b[len(b)-2] == 'A' {
		b[len(b)-2] = 'B'
	} else {
		b[len(b)-2] = 'A'
	}
	_, err = DecryptToken(string(b), testKey)
	assert.ErrorIs(t, err, ErrInvalidCiphertext)
}

func TestDecryptToken_WrongKey(t *testing.T) {
	enc, err := EncryptToken("pat-secret", testKey)
	require.NoError(t, err)

	otherKey := "fedcba9876543210fedcba9876543210"
	_, err = DecryptToken(enc, otherKey)
	assert.ErrorIs(t, err, ErrInvalidCiphertext)
}
