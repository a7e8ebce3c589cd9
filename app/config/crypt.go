package config

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"log"
	"strings"

	"github.com/hashicorp/go-multierror"
	"golang.org/x/crypto/argon2"
)

// EncryptPrefix is added to encrypted values to identify them
const EncryptPrefix = "ENC:"

// sensitive field names
const (
	FieldOpenAIAPIKey   = "detection.openai_api_key"
	FieldRedisURL       = "remote.redis_url"
	FieldServerAuthHash = "server.auth_hash"
	FieldServerAuthUser = "server.auth_user"
)

// MinKeyLength defines the minimum acceptable length for an encryption key
const MinKeyLength = 20

// Crypter handles encryption and decryption of sensitive fields
type Crypter struct {
	key []byte
	gid string // instance ID for salt generation
}

// Argon2 parameters for key derivation
const (
	argon2Time    = 1         // number of iterations
	argon2Memory  = 64 * 1024 // memory usage in KiB (64MB)
	argon2Threads = 4         // number of threads
	argon2KeyLen  = 32        // output key length (for AES-256)
)

// NewCrypter creates a new encryption manager with the given key and instance ID
func NewCrypter(masterKey, instanceID string) (*Crypter, error) {
	if masterKey == "" {
		return nil, errors.New("empty master key")
	}

	if len(masterKey) < MinKeyLength {
		return nil, fmt.Errorf("encryption key too short, minimum length is %d characters", MinKeyLength)
	}

	if instanceID == "" {
		return nil, errors.New("empty instance ID")
	}

	// per-instance salt, stable across restarts
	salt := []byte("form-spam-settings-salt-" + instanceID)

	// derive a proper cryptographic key using Argon2id
	key := argon2.IDKey(
		[]byte(masterKey),
		salt,
		argon2Time,
		argon2Memory,
		argon2Threads,
		argon2KeyLen,
	)

	return &Crypter{key: key, gid: instanceID}, nil
}

// Encrypt encrypts a string value
func (c *Crypter) Encrypt(plaintext string) (string, error) {
	if plaintext == "" {
		return "", nil
	}

	// create a new AES cipher block
	block, err := aes.NewCipher(c.key)
	if err != nil {
		return "", fmt.Errorf("failed to create cipher: %w", err)
	}

	// create the GCM mode with the default nonce size
	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return "", fmt.Errorf("failed to create GCM: %w", err)
	}

	// create a nonce
	nonce := make([]byte, gcm.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return "", fmt.Errorf("failed to generate nonce: %w", err)
	}

	// encrypt and append the nonce
	ciphertext := gcm.Seal(nonce, nonce, []byte(plaintext), nil)

	// encode to base64 and add prefix
	return EncryptPrefix + base64.StdEncoding.EncodeToString(ciphertext), nil
}

// Decrypt decrypts a string value
func (c *Crypter) Decrypt(ciphertext string) (string, error) {
	// if not encrypted or empty, return as is
	if ciphertext == "" || !strings.HasPrefix(ciphertext, EncryptPrefix) {
		return ciphertext, nil
	}

	// remove prefix and decode from base64
	data, err := base64.StdEncoding.DecodeString(strings.TrimPrefix(ciphertext, EncryptPrefix))
	if err != nil {
		return "", fmt.Errorf("failed to decode base64 data: %w", err)
	}

	// create a new AES cipher block
	block, err := aes.NewCipher(c.key)
	if err != nil {
		return "", fmt.Errorf("failed to create cipher for decryption: %w", err)
	}

	// create the GCM mode
	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return "", fmt.Errorf("failed to create GCM for decryption: %w", err)
	}

	// the nonce is at the beginning of the ciphertext
	nonceSize := gcm.NonceSize()
	if len(data) < nonceSize {
		return "", errors.New("ciphertext too short")
	}

	nonce, ciphertextBytes := data[:nonceSize], data[nonceSize:]
	plaintext, err := gcm.Open(nil, nonce, ciphertextBytes, nil)
	if err != nil {
		return "", fmt.Errorf("failed to decrypt data: %w", err)
	}

	return string(plaintext), nil
}

// IsEncrypted checks if a value is encrypted
func IsEncrypted(value string) bool {
	return strings.HasPrefix(value, EncryptPrefix)
}

// EncryptSensitiveFields encrypts sensitive fields in place, all known fields if none listed.
// Already encrypted values are kept as is.
func (c *Crypter) EncryptSensitiveFields(settings *Settings, sensitiveFields ...string) error {
	if settings == nil {
		return nil
	}
	for _, field := range fieldsOrDefault(sensitiveFields) {
		ptr := sensitiveField(settings, field)
		if ptr == nil {
			log.Printf("[WARN] unknown sensitive field: %s", field)
			continue
		}
		if *ptr == "" || IsEncrypted(*ptr) {
			continue
		}
		encrypted, err := c.Encrypt(*ptr)
		if err != nil {
			return fmt.Errorf("failed to encrypt %s: %w", field, err)
		}
		*ptr = encrypted
	}
	return nil
}

// DecryptSensitiveFields decrypts sensitive fields in place, all known fields if none listed.
// Fields failed to decrypt are left encrypted, all failures are returned together.
func (c *Crypter) DecryptSensitiveFields(settings *Settings, sensitiveFields ...string) error {
	if settings == nil {
		return nil
	}
	var errs *multierror.Error
	for _, field := range fieldsOrDefault(sensitiveFields) {
		ptr := sensitiveField(settings, field)
		if ptr == nil {
			log.Printf("[WARN] unknown sensitive field: %s", field)
			continue
		}
		if !IsEncrypted(*ptr) {
			continue
		}
		decrypted, err := c.Decrypt(*ptr)
		if err != nil {
			log.Printf("[WARN] failed to decrypt %s: %v", field, err)
			errs = multierror.Append(errs, fmt.Errorf("failed to decrypt %s: %w", field, err))
			continue
		}
		*ptr = decrypted
	}
	return errs.ErrorOrNil()
}

func fieldsOrDefault(fields []string) []string {
	if len(fields) == 0 {
		return []string{FieldOpenAIAPIKey, FieldRedisURL, FieldServerAuthHash, FieldServerAuthUser}
	}
	return fields
}

// sensitiveField returns a pointer to the settings field by its name, nil for unknown names
func sensitiveField(s *Settings, field string) *string {
	switch field {
	case FieldOpenAIAPIKey:
		return &s.Detection.OpenAIAPIKey
	case FieldRedisURL:
		return &s.Remote.RedisURL
	case FieldServerAuthHash:
		return &s.Server.AuthHash
	case FieldServerAuthUser:
		return &s.Server.AuthUser
	}
	return nil
}
