// Package crypto implements the symmetric codec that protects exam question
// payloads at rest.  Questions are encrypted with AES-256-GCM under a single
// process-wide secret and stored as opaque strings; the plaintext schema never
// touches the database.
package crypto

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"strings"
)

// ciphertextPrefix marks an encoded value as produced by this codec.  The
// prefix doubles as the idempotence guard: callers probe for it before
// encrypting so that already-encrypted values are never wrapped twice.
const ciphertextPrefix = "enc.v1."

// nonceSize is the standard 12-byte nonce length for AES-GCM.
const nonceSize = 12

// ErrDecrypt is returned when a value cannot be decrypted: it is not in the
// codec's encoded form, or it was encrypted under a different key, or the
// ciphertext was corrupted.  Callers are expected to recover by falling back
// to the raw value, since historical data may predate encryption.
var ErrDecrypt = errors.New("crypto: unable to decrypt value")

// Codec encrypts and decrypts strings under a fixed secret.  The secret is
// stretched to a 32-byte AES-256 key with SHA-256 so that any secret length
// is accepted.  There is no key rotation; one static secret per process.
type Codec struct {
	key [32]byte
}

// NewCodec builds a Codec from the configured secret.
func NewCodec(secret string) *Codec {
	return &Codec{key: sha256.Sum256([]byte(secret))}
}

// IsCiphertext reports whether s looks like output of this codec.  The check
// is a format probe (prefix plus valid base64), not an authenticity check;
// Decrypt still verifies the GCM tag.
func (c *Codec) IsCiphertext(s string) bool {
	if !strings.HasPrefix(s, ciphertextPrefix) {
		return false
	}
	raw, err := base64.StdEncoding.DecodeString(strings.TrimPrefix(s, ciphertextPrefix))
	if err != nil {
		return false
	}
	return len(raw) > nonceSize
}

// Encrypt seals plaintext and returns the prefixed, base64-encoded result.
// The encoded layout is nonce (12 bytes) || ciphertext || auth tag.
func (c *Codec) Encrypt(plaintext string) (string, error) {
	block, err := aes.NewCipher(c.key[:])
	if err != nil {
		return "", err
	}
	aesGCM, err := cipher.NewGCM(block)
	if err != nil {
		return "", err
	}
	nonce := make([]byte, nonceSize)
	if _, err := rand.Read(nonce); err != nil {
		return "", err
	}
	sealed := aesGCM.Seal(nonce, nonce, []byte(plaintext), nil)
	return ciphertextPrefix + base64.StdEncoding.EncodeToString(sealed), nil
}

// EncryptIfNeeded encrypts plaintext unless it already carries the codec's
// ciphertext format, in which case it is returned unchanged.
func (c *Codec) EncryptIfNeeded(value string) (string, error) {
	if c.IsCiphertext(value) {
		return value, nil
	}
	return c.Encrypt(value)
}

// Decrypt reverses Encrypt.  Any failure (missing prefix, bad base64, short
// payload, GCM authentication failure) is reported as ErrDecrypt so callers
// can treat all of them as "this is not our ciphertext".
func (c *Codec) Decrypt(encoded string) (string, error) {
	if !strings.HasPrefix(encoded, ciphertextPrefix) {
		return "", ErrDecrypt
	}
	raw, err := base64.StdEncoding.DecodeString(strings.TrimPrefix(encoded, ciphertextPrefix))
	if err != nil || len(raw) <= nonceSize {
		return "", ErrDecrypt
	}
	block, err := aes.NewCipher(c.key[:])
	if err != nil {
		return "", err
	}
	aesGCM, err := cipher.NewGCM(block)
	if err != nil {
		return "", err
	}
	plaintext, err := aesGCM.Open(nil, raw[:nonceSize], raw[nonceSize:], nil)
	if err != nil {
		return "", ErrDecrypt
	}
	return string(plaintext), nil
}
