// Package security provides AES encryption utilities
package security

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/base64"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
)

var (
	// ErrInvalidKey is returned for keys that are neither 16, 24 nor 32 bytes
	// raw, nor the hex encoding of such.
	ErrInvalidKey = errors.New("invalid encryption key")

	// ErrCiphertext is returned when a sealed value is malformed, was sealed
	// under another key, or is bound to another visitor.
	ErrCiphertext = errors.New("invalid ciphertext")
)

// TokenCipher seals access tokens at rest with AES-GCM. Every sealed value is
// bound to an owner string (the visitor id) through the GCM additional data,
// so a row copied to another visitor fails to open.
type TokenCipher struct {
	aead cipher.AEAD
}

// NewTokenCipher builds a cipher from a hex-encoded or raw AES key.
func NewTokenCipher(key string) (*TokenCipher, error) {
	raw, err := decodeKey(key)
	if err != nil {
		return nil, err
	}
	block, err := aes.NewCipher(raw)
	if err != nil {
		return nil, fmt.Errorf("failed to create AES block: %w", err)
	}
	aead, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("failed to create GCM: %w", err)
	}
	return &TokenCipher{aead: aead}, nil
}

func decodeKey(key string) ([]byte, error) {
	if key == "" {
		return nil, ErrInvalidKey
	}
	if decoded, err := hex.DecodeString(key); err == nil && validKeyLen(len(decoded)) {
		return decoded, nil
	}
	if validKeyLen(len(key)) {
		return []byte(key), nil
	}
	return nil, ErrInvalidKey
}

func validKeyLen(n int) bool {
	return n == 16 || n == 24 || n == 32
}

// Seal encrypts plaintext for owner. The result is base64(nonce|ciphertext).
func (c *TokenCipher) Seal(plaintext, owner string) (string, error) {
	nonce := make([]byte, c.aead.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return "", fmt.Errorf("failed to generate nonce: %w", err)
	}
	sealed := c.aead.Seal(nonce, nonce, []byte(plaintext), []byte(owner))
	return base64.StdEncoding.EncodeToString(sealed), nil
}

// Open reverses Seal. Any mismatch in key, owner or bytes yields ErrCiphertext.
func (c *TokenCipher) Open(sealed, owner string) (string, error) {
	data, err := base64.StdEncoding.DecodeString(sealed)
	if err != nil || len(data) < c.aead.NonceSize() {
		return "", ErrCiphertext
	}
	nonce, body := data[:c.aead.NonceSize()], data[c.aead.NonceSize():]
	plain, err := c.aead.Open(nil, nonce, body, []byte(owner))
	if err != nil {
		return "", ErrCiphertext
	}
	return string(plain), nil
}
