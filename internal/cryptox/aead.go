package cryptox

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"fmt"

	"github.com/dmitrijs2005/acqbridge/internal/common"
)

// NonceSize is the AES-GCM nonce length in bytes.
const NonceSize = 12

// Encrypt encrypts plaintext with AES-256-GCM under key, generating a fresh
// random 12-byte nonce for every call. Nonces must never be reused under the
// same key; callers persist the (ciphertext, nonce) pair together.
func Encrypt(key, plaintext []byte) (ciphertext, nonce []byte, err error) {
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, nil, fmt.Errorf("create cipher: %w", err)
	}

	aesgcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, nil, fmt.Errorf("create gcm: %w", err)
	}

	nonce = make([]byte, NonceSize)
	if _, err := rand.Read(nonce); err != nil {
		return nil, nil, fmt.Errorf("generate nonce: %w", err)
	}

	ciphertext = aesgcm.Seal(nil, nonce, plaintext, nil)

	return ciphertext, nonce, nil
}

// Decrypt decrypts a (ciphertext, nonce) pair produced by Encrypt.
//
// If the authentication tag does not verify (wrong key or tampered data) it
// returns common.ErrAuthenticationFailed and no plaintext, partial or
// otherwise.
func Decrypt(key, ciphertext, nonce []byte) ([]byte, error) {
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("create cipher: %w", err)
	}

	aesgcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("create gcm: %w", err)
	}

	if len(nonce) != NonceSize {
		return nil, common.ErrAuthenticationFailed
	}

	plaintext, err := aesgcm.Open(nil, nonce, ciphertext, nil)
	if err != nil {
		return nil, common.ErrAuthenticationFailed
	}

	return plaintext, nil
}
