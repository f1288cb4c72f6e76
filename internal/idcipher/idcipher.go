// Package idcipher translates internal consent and authorisation ids into
// opaque external ids handed to TPPs. Internal ids never cross the API
// boundary in clear text.
package idcipher

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/base64"
	"encoding/hex"
	"fmt"
	"io"
)

// IDCipherInterface encrypts and decrypts external ids. Both operations
// report failure with a false second return instead of an error so callers
// can map it straight onto the technical-error path.
type IDCipherInterface interface {
	EncryptID(internalID string) (string, bool)
	DecryptID(externalID string) (string, bool)
}

type idCipher struct {
	aead cipher.AEAD
}

// NewIDCipher builds an AES-GCM cipher from a hex-encoded key.
// Key length selects the AES variant; 32 bytes gives AES-256.
func NewIDCipher(hexKey string) (IDCipherInterface, error) {
	key, err := hex.DecodeString(hexKey)
	if err != nil {
		return nil, fmt.Errorf("invalid encryption key encoding: %w", err)
	}

	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("invalid encryption key: %w", err)
	}

	aead, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("failed to create cipher: %w", err)
	}

	return &idCipher{aead: aead}, nil
}

// EncryptID produces a URL-safe opaque id with the nonce prefixed to the
// ciphertext. A fresh nonce per call means the same internal id encrypts to
// a different external id every time.
func (c *idCipher) EncryptID(internalID string) (string, bool) {
	if internalID == "" {
		return "", false
	}

	nonce := make([]byte, c.aead.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return "", false
	}

	sealed := c.aead.Seal(nonce, nonce, []byte(internalID), nil)
	return base64.RawURLEncoding.EncodeToString(sealed), true
}

// DecryptID recovers the internal id. Any malformed or tampered input
// yields false; no partial result is ever returned.
func (c *idCipher) DecryptID(externalID string) (string, bool) {
	raw, err := base64.RawURLEncoding.DecodeString(externalID)
	if err != nil {
		return "", false
	}

	nonceSize := c.aead.NonceSize()
	if len(raw) <= nonceSize {
		return "", false
	}

	plain, err := c.aead.Open(nil, raw[:nonceSize], raw[nonceSize:], nil)
	if err != nil {
		return "", false
	}
	return string(plain), true
}
