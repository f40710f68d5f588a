// Package crypt defines the line cipher used by encrypted log files.
package crypt

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
)

// ErrDecrypt is returned when a line cannot be decrypted with the key.
var ErrDecrypt = errors.New("decrypt failed")

// Cipher encrypts and decrypts whole log lines. Output must be a single
// line of text.
type Cipher interface {
	Encrypt(text string) (string, error)
	Decrypt(text string) (string, error)
}

// Nop passes text through unchanged.
type Nop struct{}

func (Nop) Encrypt(text string) (string, error) { return text, nil }
func (Nop) Decrypt(text string) (string, error) { return text, nil }

// AESGCM encrypts lines with AES-256-GCM under a key derived from a
// passphrase. Each line carries its own random nonce and is base64 encoded.
type AESGCM struct {
	aead cipher.AEAD
	rand io.Reader
}

// NewAESGCM derives a 256-bit key from passphrase with SHA-256.
func NewAESGCM(passphrase string) (*AESGCM, error) {
	if passphrase == "" {
		return nil, errors.New("empty passphrase")
	}
	key := sha256.Sum256([]byte(passphrase))
	block, err := aes.NewCipher(key[:])
	if err != nil {
		return nil, fmt.Errorf("aes: %w", err)
	}
	aead, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("gcm: %w", err)
	}
	return &AESGCM{aead: aead, rand: rand.Reader}, nil
}

// FromKey returns nil for an empty key (no encryption) and an AESGCM cipher
// otherwise.
func FromKey(key string) (Cipher, error) {
	if key == "" {
		return nil, nil
	}
	return NewAESGCM(key)
}

func (c *AESGCM) Encrypt(text string) (string, error) {
	nonce := make([]byte, c.aead.NonceSize())
	if _, err := io.ReadFull(c.rand, nonce); err != nil {
		return "", fmt.Errorf("nonce: %w", err)
	}
	sealed := c.aead.Seal(nonce, nonce, []byte(text), nil)
	return base64.RawStdEncoding.EncodeToString(sealed), nil
}

func (c *AESGCM) Decrypt(text string) (string, error) {
	data, err := base64.RawStdEncoding.DecodeString(text)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrDecrypt, err)
	}
	n := c.aead.NonceSize()
	if len(data) < n+c.aead.Overhead() {
		return "", fmt.Errorf("%w: line too short", ErrDecrypt)
	}
	plain, err := c.aead.Open(nil, data[:n], data[n:], nil)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrDecrypt, err)
	}
	return string(plain), nil
}
