package credential

import (
	"fmt"

	"github.com/felixgeelhaar/nexus/internal/store"
)

// Vault persists encrypted secrets in the configuration table. Values
// are encrypted before they reach the database and decrypted on read.
type Vault struct {
	manager *Manager
	store   store.Storage
}

func NewVault(s store.Storage) (*Vault, error) {
	m, err := NewManager()
	if err != nil {
		return nil, err
	}
	return &Vault{manager: m, store: s}, nil
}

// StoreSecret encrypts and saves a secret under the given key.
func (v *Vault) StoreSecret(key, secret string) error {
	encrypted, err := v.manager.Encrypt(secret)
	if err != nil {
		return fmt.Errorf("failed to encrypt %s: %w", key, err)
	}
	return v.store.SetConfig(key, encrypted)
}

// LoadSecret retrieves and decrypts a secret. A missing key returns an
// empty string without error.
func (v *Vault) LoadSecret(key string) (string, error) {
	stored, err := v.store.GetConfig(key)
	if err != nil {
		return "", err
	}
	if stored == "" {
		return "", nil
	}
	return v.manager.Decrypt(stored)
}
