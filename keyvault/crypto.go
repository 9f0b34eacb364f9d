package keyvault

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"fmt"
	"io"

	"golang.org/x/crypto/scrypt"
)

// scrypt parameters for the vault key derivation.
//
// N=2^18 (~256MB RAM, around a second on commodity hardware) keeps brute-force
// attacks expensive while staying usable on laptops. Matches the work factor
// of the standard geth keystore.
const (
	scryptR      = 8
	scryptP      = 1
	scryptKeyLen = 32
	saltLen      = 32
	nonceLen     = 12
)

// scryptN is a var so tests can dial the work factor down.
var scryptN = 1 << 18

func deriveKey(password []byte, salt []byte) ([]byte, error) {
	key, err := scrypt.Key(password, salt, scryptN, scryptR, scryptP, scryptKeyLen)
	if err != nil {
		return nil, fmt.Errorf("failed to derive key: %w", err)
	}
	return key, nil
}

func randomBytes(n int) ([]byte, error) {
	buf := make([]byte, n)
	if _, err := io.ReadFull(rand.Reader, buf); err != nil {
		return nil, fmt.Errorf("failed to read random bytes: %w", err)
	}
	return buf, nil
}

// seal encrypts plaintext under a key derived from password and a fresh
// random salt, using AES-256-GCM with a fresh random nonce. Salt and nonce
// are never reused across records.
func seal(password []byte, plaintext []byte) (ciphertext, nonce, salt []byte, err error) {
	salt, err = randomBytes(saltLen)
	if err != nil {
		return nil, nil, nil, err
	}
	nonce, err = randomBytes(nonceLen)
	if err != nil {
		return nil, nil, nil, err
	}
	key, err := deriveKey(password, salt)
	if err != nil {
		return nil, nil, nil, err
	}
	defer clear(key)
	aead, err := newGCM(key)
	if err != nil {
		return nil, nil, nil, err
	}
	return aead.Seal(nil, nonce, plaintext, nil), nonce, salt, nil
}

// open decrypts a sealed record. Every failure mode, wrong password, tampered
// ciphertext, truncated nonce, collapses into ErrInvalidPassword so callers
// cannot distinguish a bad password from corrupted data.
func open(password []byte, ciphertext, nonce, salt []byte) ([]byte, error) {
	if len(salt) != saltLen || len(nonce) != nonceLen {
		return nil, ErrInvalidPassword
	}
	key, err := deriveKey(password, salt)
	if err != nil {
		return nil, ErrInvalidPassword
	}
	defer clear(key)
	aead, err := newGCM(key)
	if err != nil {
		return nil, ErrInvalidPassword
	}
	plaintext, err := aead.Open(nil, nonce, ciphertext, nil)
	if err != nil {
		return nil, ErrInvalidPassword
	}
	return plaintext, nil
}

func newGCM(key []byte) (cipher.AEAD, error) {
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("failed to create cipher: %w", err)
	}
	return cipher.NewGCM(block)
}
