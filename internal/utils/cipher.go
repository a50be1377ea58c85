package utils

import (
	"crypto/cipher"
	"crypto/rand"
	"errors"
	"fmt"

	"golang.org/x/crypto/chacha20poly1305"
)

// ErrDecrypt is returned when a payload cannot be authenticated or decrypted
var ErrDecrypt = errors.New("failed to decrypt payload")

// PayloadCipher encrypts record payloads at rest.
// Sealed payloads are laid out as nonce || ciphertext.
type PayloadCipher struct {
	aead cipher.AEAD
}

// NewPayloadCipher creates a cipher from a 32-byte key
func NewPayloadCipher(key []byte) (*PayloadCipher, error) {
	if len(key) != chacha20poly1305.KeySize {
		return nil, fmt.Errorf("encryption key must be %d bytes, got %d", chacha20poly1305.KeySize, len(key))
	}
	aead, err := chacha20poly1305.NewX(key)
	if err != nil {
		return nil, fmt.Errorf("failed to create cipher: %w", err)
	}
	return &PayloadCipher{aead: aead}, nil
}

// Seal encrypts plaintext. The owner id is bound as additional data so a payload
// copied onto another user's row fails to open.
func (c *PayloadCipher) Seal(plaintext []byte, ownerID string) ([]byte, error) {
	if len(plaintext) == 0 {
		return nil, fmt.Errorf("input data is empty")
	}
	nonce := make([]byte, c.aead.NonceSize(), c.aead.NonceSize()+len(plaintext)+c.aead.Overhead())
	if _, err := rand.Read(nonce); err != nil {
		return nil, fmt.Errorf("failed to generate nonce: %w", err)
	}
	return c.aead.Seal(nonce, nonce, plaintext, []byte(ownerID)), nil
}

// Open decrypts a payload produced by Seal for the same owner
func (c *PayloadCipher) Open(sealed []byte, ownerID string) ([]byte, error) {
	if len(sealed) < c.aead.NonceSize()+c.aead.Overhead() {
		return nil, fmt.Errorf("%w: payload too short: %d bytes", ErrDecrypt, len(sealed))
	}
	nonce, ciphertext := sealed[:c.aead.NonceSize()], sealed[c.aead.NonceSize():]
	plaintext, err := c.aead.Open(nil, nonce, ciphertext, []byte(ownerID))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDecrypt, err)
	}
	return plaintext, nil
}
