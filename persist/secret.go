package persist

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"golang.org/x/crypto/scrypt"
)

const (
	keySize  = 32
	saltSize = 16
)

// ErrNoSecret is returned when sealed data is read without a secret.
var ErrNoSecret = errors.New("persist: secret is required")

// Secret is the material used to seal stored data with AES-256-GCM.
// Key takes precedence over Pwd.
type Secret struct {
	// Key is a hex-encoded 32 byte key.
	Key string
	// Pwd is a password; a key is derived from it with scrypt and a random salt.
	Pwd string
}

// Sealer encrypts and decrypts stored blobs.
// Sealed layout is [salt] || nonce || ciphertext; salt is present only for password secrets.
type Sealer struct {
	key []byte
	pwd string
}

// NewSealer validates the secret. A nil secret yields a nil sealer, which stores data in clear.
func NewSealer(s *Secret) (*Sealer, error) {
	if s == nil {
		return nil, nil
	}
	if s.Key != "" {
		key, err := hex.DecodeString(s.Key)
		if err != nil {
			return nil, fmt.Errorf("decoding encryption key: %w", err)
		}
		if len(key) != keySize {
			return nil, fmt.Errorf("encryption key must be %d bytes, got %d", keySize, len(key))
		}
		return &Sealer{key: key}, nil
	}
	if s.Pwd == "" {
		return nil, errors.New("secret must have a key or a password")
	}
	return &Sealer{pwd: s.Pwd}, nil
}

func (s *Sealer) gcm(salt []byte) (cipher.AEAD, error) {
	key := s.key
	if key == nil {
		var err error
		key, err = scrypt.Key([]byte(s.pwd), salt, 1<<15, 8, 1, keySize)
		if err != nil {
			return nil, fmt.Errorf("deriving key: %w", err)
		}
	}
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("creating cipher: %w", err)
	}
	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("creating GCM: %w", err)
	}
	return gcm, nil
}

// Seal encrypts plaintext. A nil sealer returns it unchanged.
func (s *Sealer) Seal(plaintext []byte) ([]byte, error) {
	if s == nil {
		return plaintext, nil
	}
	var salt []byte
	if s.key == nil {
		salt = make([]byte, saltSize)
		if _, err := io.ReadFull(rand.Reader, salt); err != nil {
			return nil, fmt.Errorf("generating salt: %w", err)
		}
	}
	gcm, err := s.gcm(salt)
	if err != nil {
		return nil, err
	}
	nonce := make([]byte, gcm.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return nil, fmt.Errorf("generating nonce: %w", err)
	}
	out := append(salt, nonce...)
	return gcm.Seal(out, nonce, plaintext, nil), nil
}

// Open decrypts data produced by Seal. A nil sealer returns it unchanged
// if it's clear JSON, and ErrNoSecret otherwise.
func (s *Sealer) Open(sealed []byte) ([]byte, error) {
	if s == nil {
		if len(sealed) != 0 && !json.Valid(sealed) {
			return nil, ErrNoSecret
		}
		return sealed, nil
	}
	var salt []byte
	if s.key == nil {
		if len(sealed) < saltSize {
			return nil, fmt.Errorf("ciphertext too short")
		}
		salt, sealed = sealed[:saltSize], sealed[saltSize:]
	}
	gcm, err := s.gcm(salt)
	if err != nil {
		return nil, err
	}
	nonceSize := gcm.NonceSize()
	if len(sealed) < nonceSize {
		return nil, fmt.Errorf("ciphertext too short")
	}
	nonce, ct := sealed[:nonceSize], sealed[nonceSize:]
	plain, err := gcm.Open(nil, nonce, ct, nil)
	if err != nil {
		return nil, fmt.Errorf("decrypting: %w", err)
	}
	return plain, nil
}
