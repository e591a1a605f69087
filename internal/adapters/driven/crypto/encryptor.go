package crypto

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"errors"
	"fmt"
	"io"

	"golang.org/x/crypto/hkdf"

	"github.com/custodia-labs/streamlink/internal/core/ports/driven"
)

// Verify interface compliance
var _ driven.TokenCipher = (*SecretEncryptor)(nil)

const (
	// secretVersion is the version byte for the encrypted blob format.
	secretVersion = 0x01

	// nonceSize is the AES-GCM nonce size
	nonceSize = 12

	// keySize is the required key size for AES-256
	keySize = 32

	// minMasterKeySize is the shortest master key accepted for derivation
	minMasterKeySize = 32

	// tokenKeyInfo binds derived keys to their use
	tokenKeyInfo = "streamlink/platform-tokens/v1"
)

var (
	// ErrInvalidKeySize is returned when the encryption key is not 32 bytes.
	ErrInvalidKeySize = errors.New("encryption key must be 32 bytes")

	// ErrInvalidBlobSize is returned when the encrypted blob is too small.
	ErrInvalidBlobSize = errors.New("encrypted blob is too small")

	// ErrUnsupportedVersion is returned when the blob version is not supported.
	ErrUnsupportedVersion = errors.New("unsupported secret blob version")

	// ErrDecryptionFailed is returned when decryption fails (wrong key or corrupted data).
	ErrDecryptionFailed = errors.New("failed to decrypt secret blob")
)

// SecretEncryptor handles AES-256-GCM encryption/decryption of token material.
// The encrypted format is: version(1) || nonce(12) || ciphertext(N).
// Callers bind each blob to its owner through additional authenticated data.
type SecretEncryptor struct {
	gcm cipher.AEAD
}

// NewSecretEncryptor creates a new encryptor with the given 32-byte key.
func NewSecretEncryptor(key []byte) (*SecretEncryptor, error) {
	if len(key) != keySize {
		return nil, fmt.Errorf("%w: got %d bytes", ErrInvalidKeySize, len(key))
	}

	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("create AES cipher: %w", err)
	}

	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("create GCM: %w", err)
	}

	return &SecretEncryptor{gcm: gcm}, nil
}

// NewSecretEncryptorFromMaster derives the token key from a master key with HKDF-SHA256.
// The master key is provisioned out of band and is never stored next to the data.
func NewSecretEncryptorFromMaster(master []byte) (*SecretEncryptor, error) {
	key, err := DeriveKey(master, tokenKeyInfo)
	if err != nil {
		return nil, err
	}
	return NewSecretEncryptor(key)
}

// DeriveKey derives a 32-byte key for the given purpose from master.
func DeriveKey(master []byte, info string) ([]byte, error) {
	if len(master) < minMasterKeySize {
		return nil, fmt.Errorf("%w: master key has %d bytes, need at least %d", ErrInvalidKeySize, len(master), minMasterKeySize)
	}

	key := make([]byte, keySize)
	if _, err := io.ReadFull(hkdf.New(sha256.New, master, nil, []byte(info)), key); err != nil {
		return nil, fmt.Errorf("derive key: %w", err)
	}
	return key, nil
}

// Encrypt seals plaintext under a fresh random nonce.
// aad is authenticated but not stored; Decrypt must be given the same value.
func (e *SecretEncryptor) Encrypt(plaintext, aad []byte) ([]byte, error) {
	nonce := make([]byte, nonceSize)
	if _, err := rand.Read(nonce); err != nil {
		return nil, fmt.Errorf("generate nonce: %w", err)
	}

	ciphertext := e.gcm.Seal(nil, nonce, plaintext, aad)

	blob := make([]byte, 1+nonceSize+len(ciphertext))
	blob[0] = secretVersion
	copy(blob[1:1+nonceSize], nonce)
	copy(blob[1+nonceSize:], ciphertext)

	return blob, nil
}

// Decrypt opens a blob produced by Encrypt with the same aad.
func (e *SecretEncryptor) Decrypt(blob, aad []byte) ([]byte, error) {
	minSize := 1 + nonceSize + e.gcm.Overhead()
	if len(blob) < minSize {
		return nil, ErrInvalidBlobSize
	}

	if version := blob[0]; version != secretVersion {
		return nil, fmt.Errorf("%w: got version %d", ErrUnsupportedVersion, version)
	}

	plaintext, err := e.gcm.Open(nil, blob[1:1+nonceSize], blob[1+nonceSize:], aad)
	if err != nil {
		return nil, ErrDecryptionFailed
	}
	return plaintext, nil
}

// EncryptString encrypts a token value bound to aad.
func (e *SecretEncryptor) EncryptString(s string, aad []byte) ([]byte, error) {
	return e.Encrypt([]byte(s), aad)
}

// DecryptString decrypts a blob to a token value. aad must match the value used to encrypt it.
func (e *SecretEncryptor) DecryptString(blob, aad []byte) (string, error) {
	plaintext, err := e.Decrypt(blob, aad)
	if err != nil {
		return "", err
	}
	return string(plaintext), nil
}
