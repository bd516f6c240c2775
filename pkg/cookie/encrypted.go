package cookie

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
)

const flashPrefix = "__flash_"

// SetEncrypted stores value encrypted with the first secret.
func (m *Manager) SetEncrypted(w http.ResponseWriter, name, value string, opts ...Option) error {
	encrypted, err := m.encrypt([]byte(value))
	if err != nil {
		return err
	}
	m.Set(w, name, encrypted, opts...)
	return nil
}

// GetEncrypted decrypts a cookie with any configured secret.
func (m *Manager) GetEncrypted(r *http.Request, name string) (string, error) {
	encrypted, err := m.Get(r, name)
	if err != nil {
		return "", err
	}
	plain, err := m.decrypt(encrypted)
	if err != nil {
		return "", err
	}
	return string(plain), nil
}

// SetEncryptedJSON encrypts the JSON encoding of v.
func (m *Manager) SetEncryptedJSON(w http.ResponseWriter, name string, v any, opts ...Option) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encode cookie %s: %w", name, err)
	}
	return m.SetEncrypted(w, name, string(data), opts...)
}

// GetEncryptedJSON decrypts a cookie and decodes it into dest.
func (m *Manager) GetEncryptedJSON(r *http.Request, name string, dest any) error {
	raw, err := m.GetEncrypted(r, name)
	if err != nil {
		return err
	}
	if err := json.Unmarshal([]byte(raw), dest); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidFormat, err)
	}
	return nil
}

// SetFlash stores a value for the next request only.
func (m *Manager) SetFlash(w http.ResponseWriter, key string, value any) error {
	return m.SetEncryptedJSON(w, flashPrefix+key, value)
}

// GetFlash reads a flash value into dest and deletes it.
func (m *Manager) GetFlash(w http.ResponseWriter, r *http.Request, key string, dest any) error {
	name := flashPrefix + key
	err := m.GetEncryptedJSON(r, name, dest)
	if !errors.Is(err, ErrCookieNotFound) {
		m.Delete(w, name)
	}
	return err
}

func gcmFor(secret string) (cipher.AEAD, error) {
	key := sha256.Sum256([]byte(secret))
	block, err := aes.NewCipher(key[:])
	if err != nil {
		return nil, err
	}
	return cipher.NewGCM(block)
}

func (m *Manager) encrypt(plain []byte) (string, error) {
	gcm, err := gcmFor(m.secrets[0])
	if err != nil {
		return "", err
	}
	nonce := make([]byte, gcm.NonceSize())
	if _, err := rand.Read(nonce); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(gcm.Seal(nonce, nonce, plain, nil)), nil
}

func (m *Manager) decrypt(encrypted string) ([]byte, error) {
	data, err := base64.RawURLEncoding.DecodeString(encrypted)
	if err != nil {
		return nil, ErrInvalidFormat
	}

	for _, secret := range m.secrets {
		gcm, err := gcmFor(secret)
		if err != nil {
			return nil, err
		}
		if len(data) < gcm.NonceSize() {
			return nil, ErrInvalidFormat
		}
		nonce, ciphertext := data[:gcm.NonceSize()], data[gcm.NonceSize():]
		if plain, err := gcm.Open(nil, nonce, ciphertext, nil); err == nil {
			return plain, nil
		}
	}
	return nil, ErrDecryptionFailed
}
