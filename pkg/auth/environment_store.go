package auth

import (
	"os"
	"time"
)

// TokenEnvVar names the environment variable consulted last for a token
const TokenEnvVar = "FEEDJOURNAL_TOKEN"

// EnvironmentStore implements TokenStore over the FEEDJOURNAL_TOKEN
// environment variable. It is read-only.
type EnvironmentStore struct{}

// NewEnvironmentStore creates a new environment-based store
func NewEnvironmentStore() *EnvironmentStore {
	return &EnvironmentStore{}
}

// Store is not supported for environment variables
func (e *EnvironmentStore) Store(cred *Credential) error {
	return ErrStoreUnavailable
}

// Retrieve returns the token from the environment under any name
func (e *EnvironmentStore) Retrieve(name string) (*Credential, error) {
	token := os.Getenv(TokenEnvVar)
	if token == "" {
		return nil, ErrCredentialsNotFound
	}
	if name == "" {
		name = DefaultName
	}

	return &Credential{
		Name:         name,
		Token:        token,
		LastModified: time.Now(),
	}, nil
}

// Delete is not supported for environment variables
func (e *EnvironmentStore) Delete(name string) error {
	return ErrStoreUnavailable
}
