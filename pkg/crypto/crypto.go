// Package crypto provides confirmation codes and passphrase-sealed backups.
package crypto

import (
	"crypto/rand"
	"crypto/subtle"
	"errors"
	"fmt"
	"io"
	"math/big"
	"strings"

	"golang.org/x/crypto/argon2"
	"golang.org/x/crypto/chacha20poly1305"
)

var (
	ErrInvalidCiphertext = errors.New("crypto: invalid ciphertext")
	ErrDecryptionFailed  = errors.New("crypto: decryption failed")
)

// CodeAlphabet is the character set of confirmation codes.
const CodeAlphabet = "abcdefghijklmnopqrstuvwxyz"

// DefaultCodeLength is the length of a confirmation code.
const DefaultCodeLength = 4

// GenerateCode returns a random lowercase code of the given length.
func GenerateCode(length int) (string, error) {
	if length <= 0 {
		return "", fmt.Errorf("crypto: generate code: invalid length %d", length)
	}
	limit := big.NewInt(int64(len(CodeAlphabet)))
	b := make([]byte, length)
	for i := range b {
		n, err := rand.Int(rand.Reader, limit)
		if err != nil {
			return "", fmt.Errorf("crypto: generate code: %w", err)
		}
		b[i] = CodeAlphabet[n.Int64()]
	}
	return string(b), nil
}

// CodeEqual compares a typed code with an issued one, ignoring case and
// surrounding whitespace, in constant time.
func CodeEqual(issued, typed string) bool {
	a := []byte(strings.ToLower(strings.TrimSpace(issued)))
	b := []byte(strings.ToLower(strings.TrimSpace(typed)))
	return len(a) > 0 && subtle.ConstantTimeCompare(a, b) == 1
}

// sealMagic prefixes every sealed backup.
var sealMagic = []byte("GSB1")

const saltSize = 16

// deriveKey stretches a passphrase with Argon2id.
func deriveKey(passphrase string, salt []byte) []byte {
	return argon2.IDKey([]byte(passphrase), salt, 1, 64*1024, 4, chacha20poly1305.KeySize)
}

// SealBackup encrypts plaintext with a key derived from passphrase.
// Format: [magic(4) | salt(16) | nonce(24) | ciphertext+tag]
func SealBackup(plaintext []byte, passphrase string) ([]byte, error) {
	if passphrase == "" {
		return nil, fmt.Errorf("crypto: seal: empty passphrase")
	}
	salt := make([]byte, saltSize)
	if _, err := io.ReadFull(rand.Reader, salt); err != nil {
		return nil, fmt.Errorf("crypto: seal: %w", err)
	}
	aead, err := chacha20poly1305.NewX(deriveKey(passphrase, salt))
	if err != nil {
		return nil, fmt.Errorf("crypto: new xchacha20 cipher: %w", err)
	}
	nonce := make([]byte, aead.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return nil, fmt.Errorf("crypto: seal: %w", err)
	}

	out := make([]byte, 0, len(sealMagic)+saltSize+len(nonce)+len(plaintext)+aead.Overhead())
	out = append(out, sealMagic...)
	out = append(out, salt...)
	out = append(out, nonce...)
	return aead.Seal(out, nonce, plaintext, sealMagic), nil
}

// IsSealed reports whether data looks like the output of SealBackup.
func IsSealed(data []byte) bool {
	return len(data) >= len(sealMagic) && string(data[:len(sealMagic)]) == string(sealMagic)
}

// OpenBackup reverses SealBackup.
func OpenBackup(sealed []byte, passphrase string) ([]byte, error) {
	header := len(sealMagic) + saltSize + chacha20poly1305.NonceSizeX
	if !IsSealed(sealed) || len(sealed) < header+chacha20poly1305.Overhead {
		return nil, ErrInvalidCiphertext
	}
	salt := sealed[len(sealMagic) : len(sealMagic)+saltSize]
	nonce := sealed[len(sealMagic)+saltSize : header]

	aead, err := chacha20poly1305.NewX(deriveKey(passphrase, salt))
	if err != nil {
		return nil, fmt.Errorf("crypto: new xchacha20 cipher: %w", err)
	}
	plaintext, err := aead.Open(nil, nonce, sealed[header:], sealMagic)
	if err != nil {
		return nil, ErrDecryptionFailed
	}
	return plaintext, nil
}
