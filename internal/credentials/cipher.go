// Package credentials decrypts stored cloud account credentials.
//
// Secret material is stored as AES-256-GCM payloads in the form
// "iv:tag:ciphertext" with each part hex encoded. Plaintext secrets
// only ever exist in memory and must never be logged.
package credentials

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"strings"
)

const nonceSize = 12 // GCM standard 96-bit nonce

// Cipher encrypts and decrypts credential payloads with a fixed
// 256-bit key.
type Cipher struct {
	key []byte
}

// NewCipher builds a Cipher from the configured key. The key may be
// given as 64 hex characters or as 32 raw bytes.
func NewCipher(key string) (*Cipher, error) {
	var raw []byte
	switch len(key) {
	case 64:
		decoded, err := hex.DecodeString(key)
		if err != nil {
			return nil, fmt.Errorf("encryption key is not valid hex: %w", err)
		}
		raw = decoded
	case 32:
		raw = []byte(key)
	default:
		return nil, fmt.Errorf("encryption key must be 32 bytes (64 hex chars), got %d chars", len(key))
	}
	return &Cipher{key: raw}, nil
}

// Encrypt seals plaintext into an "iv:tag:ciphertext" hex payload.
func (c *Cipher) Encrypt(plaintext string) (string, error) {
	block, err := aes.NewCipher(c.key)
	if err != nil {
		return "", err
	}
	gcm, err := cipher.NewGCMWithNonceSize(block, nonceSize)
	if err != nil {
		return "", err
	}

	iv := make([]byte, nonceSize)
	if _, err := rand.Read(iv); err != nil {
		return "", fmt.Errorf("failed to generate nonce: %w", err)
	}

	sealed := gcm.Seal(nil, iv, []byte(plaintext), nil)
	// Seal appends the 16-byte tag after the ciphertext.
	tagAt := len(sealed) - gcm.Overhead()
	ciphertext, tag := sealed[:tagAt], sealed[tagAt:]

	return fmt.Sprintf("%s:%s:%s",
		hex.EncodeToString(iv),
		hex.EncodeToString(tag),
		hex.EncodeToString(ciphertext)), nil
}

// Decrypt opens an "iv:tag:ciphertext" payload. Tampered or corrupted
// payloads fail authentication and return an error.
func (c *Cipher) Decrypt(payload string) (string, error) {
	parts := strings.Split(payload, ":")
	if len(parts) != 3 {
		return "", fmt.Errorf("malformed payload: want iv:tag:ciphertext, got %d parts", len(parts))
	}

	iv, err := hex.DecodeString(parts[0])
	if err != nil {
		return "", fmt.Errorf("malformed payload iv: %w", err)
	}
	tag, err := hex.DecodeString(parts[1])
	if err != nil {
		return "", fmt.Errorf("malformed payload tag: %w", err)
	}
	ciphertext, err := hex.DecodeString(parts[2])
	if err != nil {
		return "", fmt.Errorf("malformed payload ciphertext: %w", err)
	}

	block, err := aes.NewCipher(c.key)
	if err != nil {
		return "", err
	}
	gcm, err := cipher.NewGCMWithNonceSize(block, len(iv))
	if err != nil {
		return "", err
	}

	plaintext, err := gcm.Open(nil, iv, append(ciphertext, tag...), nil)
	if err != nil {
		return "", fmt.Errorf("decryption failed: %w", err)
	}
	return string(plaintext), nil
}
