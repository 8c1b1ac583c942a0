package crypto

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCodecRoundTrip(t *testing.T) {
	c := NewCodec("unit-test-secret")

	tests := []struct {
		name      string
		plaintext string
	}{
		{name: "simple answer", plaintext: "Photosynthesis"},
		{name: "structured question", plaintext: `{"correctAnswer":"42","weight":3}`},
		{name: "empty string", plaintext: ""},
		{name: "unicode", plaintext: "réponse correcte ✓"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			enc, err := c.Encrypt(tt.plaintext)
			require.NoError(t, err)
			assert.True(t, c.IsCiphertext(enc))
			assert.NotEqual(t, tt.plaintext, enc)

			dec, err := c.Decrypt(enc)
			require.NoError(t, err)
			assert.Equal(t, tt.plaintext, dec)
		})
	}
}

func TestEncryptIfNeededIsIdempotent(t *testing.T) {
	c := NewCodec("unit-test-secret")

	enc, err := c.Encrypt("A")
	require.NoError(t, err)

	// A second pass over the ciphertext must return it untouched.
	again, err := c.EncryptIfNeeded(enc)
	require.NoError(t, err)
	assert.Equal(t, enc, again)

	// A plain value still gets encrypted.
	fresh, err := c.EncryptIfNeeded("B")
	require.NoError(t, err)
	assert.True(t, c.IsCiphertext(fresh))
}

func TestDecryptFailures(t *testing.T) {
	c := NewCodec("unit-test-secret")

	tests := []struct {
		name  string
		input string
	}{
		{name: "plain legacy value", input: "just a string"},
		{name: "prefix with bad base64", input: "enc.v1.%%%%"},
		{name: "prefix with short payload", input: "enc.v1.QUJD"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := c.Decrypt(tt.input)
			assert.ErrorIs(t, err, ErrDecrypt)
		})
	}
}

func TestDecryptWrongKey(t *testing.T) {
	enc, err := NewCodec("secret-one").Encrypt("hidden")
	require.NoError(t, err)

	// Decrypting under a different secret must fail authentication, not
	// return garbage plaintext.
	_, err = NewCodec("secret-two").Decrypt(enc)
	assert.ErrorIs(t, err, ErrDecrypt)
}

func TestIsCiphertext(t *testing.T) {
	c := NewCodec("unit-test-secret")
	assert.False(t, c.IsCiphertext("What is 2+2?"))
	assert.False(t, c.IsCiphertext("enc.v1.***"))

	enc, err := c.Encrypt("payload")
	require.NoError(t, err)
	assert.True(t, c.IsCiphertext(enc))
}
