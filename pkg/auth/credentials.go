package auth

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"time"
)

// DefaultName is the credential name used when none is given
const DefaultName = "default"

// Credential is a bearer token for the feed API
type Credential struct {
	Name         string    `json:"name"`
	Token        string    `json:"token"`
	LastModified time.Time `json:"last_modified"`
}

// TokenStore is the interface for storing and retrieving feed API tokens
type TokenStore interface {
	// Store saves a credential under its name
	Store(cred *Credential) error

	// Retrieve gets the credential stored under name
	Retrieve(name string) (*Credential, error)

	// Delete removes the credential stored under name
	Delete(name string) error
}

// Manager handles token storage with fallback mechanisms
type Manager struct {
	stores []TokenStore
}

// NewManager creates a manager trying the system keychain, then an
// encrypted file, then the environment
func NewManager() (*Manager, error) {
	var stores []TokenStore

	if keyringStore, err := NewKeyringStore(); err == nil {
		stores = append(stores, keyringStore)
	}

	configDir, err := getConfigDir()
	if err != nil {
		return nil, fmt.Errorf("failed to get config directory: %w", err)
	}

	encryptedStore, err := NewEncryptedFileStore(filepath.Join(configDir, "credentials.enc"), "")
	if err != nil {
		return nil, fmt.Errorf("failed to create encrypted store: %w", err)
	}
	stores = append(stores, encryptedStore)

	stores = append(stores, NewEnvironmentStore())

	return &Manager{stores: stores}, nil
}

// NewManagerWithStores creates a manager over the given stores, tried in order
func NewManagerWithStores(stores ...TokenStore) *Manager {
	return &Manager{stores: stores}
}

// Store saves the credential using the first store that accepts it
func (m *Manager) Store(cred *Credential) error {
	if cred == nil || cred.Token == "" {
		return errors.New("token is required")
	}
	if cred.Name == "" {
		cred.Name = DefaultName
	}
	cred.LastModified = time.Now()

	var lastErr error
	for _, store := range m.stores {
		err := store.Store(cred)
		if err == nil {
			return nil
		}
		lastErr = err
	}

	if lastErr != nil {
		return fmt.Errorf("failed to store token: %w", lastErr)
	}
	return ErrStoreUnavailable
}

// Retrieve gets the credential from the first store that has it
func (m *Manager) Retrieve(name string) (*Credential, error) {
	if name == "" {
		name = DefaultName
	}
	for _, store := range m.stores {
		if cred, err := store.Retrieve(name); err == nil && cred != nil {
			return cred, nil
		}
	}
	return nil, fmt.Errorf("%w: %s", ErrCredentialsNotFound, name)
}

// Token returns the stored token for name, or "" when there is none
func (m *Manager) Token(name string) string {
	cred, err := m.Retrieve(name)
	if err != nil {
		return ""
	}
	return cred.Token
}

// Delete removes the credential from every store holding it
func (m *Manager) Delete(name string) error {
	if name == "" {
		name = DefaultName
	}

	var deleted bool
	var lastErr error
	for _, store := range m.stores {
		err := store.Delete(name)
		switch {
		case err == nil:
			deleted = true
		case errors.Is(err, ErrCredentialsNotFound), errors.Is(err, ErrStoreUnavailable):
		default:
			lastErr = err
		}
	}

	if deleted {
		return nil
	}
	if lastErr != nil {
		return fmt.Errorf("failed to delete token: %w", lastErr)
	}
	return fmt.Errorf("%w: %s", ErrCredentialsNotFound, name)
}

// getConfigDir returns the configuration directory path
func getConfigDir() (string, error) {
	var configDir string

	switch runtime.GOOS {
	case "darwin":
		home, err := os.UserHomeDir()
		if err != nil {
			return "", err
		}
		configDir = filepath.Join(home, "Library", "Application Support", "feedjournal")
	case "windows":
		configDir = filepath.Join(os.Getenv("APPDATA"), "feedjournal")
	default:
		if xdgConfig := os.Getenv("XDG_CONFIG_HOME"); xdgConfig != "" {
			configDir = filepath.Join(xdgConfig, "feedjournal")
		} else {
			home, err := os.UserHomeDir()
			if err != nil {
				return "", err
			}
			configDir = filepath.Join(home, ".config", "feedjournal")
		}
	}

	if err := os.MkdirAll(configDir, 0700); err != nil {
		return "", fmt.Errorf("failed to create config directory: %w", err)
	}

	return configDir, nil
}

// MaskToken masks all but the first 4 and last 4 characters of a token
func MaskToken(s string) string {
	if len(s) <= 8 {
		return "********"
	}
	return s[:4] + "..." + s[len(s)-4:]
}

// Errors
var (
	ErrCredentialsNotFound = errors.New("credentials not found")
	ErrInvalidCredentials  = errors.New("invalid credentials")
	ErrStoreUnavailable    = errors.New("credential store unavailable")
)
