package auth

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestManagerStoreAndRetrieve(t *testing.T) {
	mem := NewMemoryStore()
	manager := NewManagerWithStores(mem)

	require.NoError(t, manager.Store(&Credential{Token: "AAAA-secret-token-ZZZZ"}))

	cred, err := manager.Retrieve("")
	require.NoError(t, err)
	assert.Equal(t, DefaultName, cred.Name)
	assert.Equal(t, "AAAA-secret-token-ZZZZ", cred.Token)
	assert.False(t, cred.LastModified.IsZero())
	assert.Equal(t, "AAAA-secret-token-ZZZZ", manager.Token(DefaultName))

	require.NoError(t, manager.Delete(DefaultName))
	assert.Equal(t, 0, mem.Count())

	_, err = manager.Retrieve(DefaultName)
	assert.ErrorIs(t, err, ErrCredentialsNotFound)
	assert.Empty(t, manager.Token(DefaultName))
}

func TestManagerStoreRequiresToken(t *testing.T) {
	manager := NewManagerWithStores(NewMemoryStore())
	assert.Error(t, manager.Store(&Credential{Name: "work"}))
	assert.Error(t, manager.Store(nil))
}

func TestManagerFallsBackOnStoreFailure(t *testing.T) {
	broken := NewMemoryStore()
	broken.StoreError = errors.New("keychain locked")
	fallback := NewMemoryStore()
	manager := NewManagerWithStores(broken, fallback)

	require.NoError(t, manager.Store(&Credential{Name: "work", Token: "tok"}))
	assert.Equal(t, 0, broken.Count())
	assert.Equal(t, 1, fallback.Count())

	cred, err := manager.Retrieve("work")
	require.NoError(t, err)
	assert.Equal(t, "tok", cred.Token)
}

func TestManagerStoreAllFail(t *testing.T) {
	broken := NewMemoryStore()
	broken.StoreError = errors.New("disk full")
	manager := NewManagerWithStores(broken, NewEnvironmentStore())

	err := manager.Store(&Credential{Token: "tok"})
	assert.ErrorIs(t, err, ErrStoreUnavailable)
}

func TestManagerDeleteMissing(t *testing.T) {
	manager := NewManagerWithStores(NewMemoryStore(), NewEnvironmentStore())
	assert.ErrorIs(t, manager.Delete("nobody"), ErrCredentialsNotFound)
}

func TestEnvironmentStore(t *testing.T) {
	t.Setenv(TokenEnvVar, "env-token")
	manager := NewManagerWithStores(NewMemoryStore(), NewEnvironmentStore())

	cred, err := manager.Retrieve("")
	require.NoError(t, err)
	assert.Equal(t, "env-token", cred.Token)

	assert.ErrorIs(t, NewEnvironmentStore().Store(cred), ErrStoreUnavailable)
	assert.ErrorIs(t, NewEnvironmentStore().Delete(DefaultName), ErrStoreUnavailable)
}

func TestEnvironmentStoreEmpty(t *testing.T) {
	t.Setenv(TokenEnvVar, "")
	_, err := NewEnvironmentStore().Retrieve(DefaultName)
	assert.ErrorIs(t, err, ErrCredentialsNotFound)
}

func TestEncryptedFileStore(t *testing.T) {
	path := filepath.Join(t.TempDir(), "creds", "credentials.enc")
	store, err := NewEncryptedFileStore(path, "test-passphrase")
	require.NoError(t, err)

	require.NoError(t, store.Store(&Credential{Name: "default", Token: "first"}))
	require.NoError(t, store.Store(&Credential{Name: "work", Token: "second"}))

	content, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.NotContains(t, string(content), "first", "token must not be stored in clear text")

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0600), info.Mode().Perm())

	reopened, err := NewEncryptedFileStore(path, "test-passphrase")
	require.NoError(t, err)
	cred, err := reopened.Retrieve("work")
	require.NoError(t, err)
	assert.Equal(t, "second", cred.Token)

	require.NoError(t, reopened.Delete("work"))
	_, err = reopened.Retrieve("work")
	assert.ErrorIs(t, err, ErrCredentialsNotFound)

	require.NoError(t, reopened.Delete("default"))
	_, err = os.Stat(path)
	assert.True(t, os.IsNotExist(err), "empty store removes its file")
}

func TestEncryptedFileStoreWrongPassphrase(t *testing.T) {
	path := filepath.Join(t.TempDir(), "credentials.enc")
	store, err := NewEncryptedFileStore(path, "right")
	require.NoError(t, err)
	require.NoError(t, store.Store(&Credential{Name: "default", Token: "tok"}))

	other, err := NewEncryptedFileStore(path, "wrong")
	require.NoError(t, err)
	_, err = other.Retrieve("default")
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrCredentialsNotFound)
}

func TestEncryptedFileStoreMissingFile(t *testing.T) {
	store, err := NewEncryptedFileStore(filepath.Join(t.TempDir(), "none.enc"), "pass")
	require.NoError(t, err)

	_, err = store.Retrieve("default")
	assert.ErrorIs(t, err, ErrCredentialsNotFound)
	assert.ErrorIs(t, store.Delete("default"), ErrCredentialsNotFound)
	assert.ErrorIs(t, store.Store(&Credential{}), ErrInvalidCredentials)
}

func TestPassphraseFromEnvironment(t *testing.T) {
	t.Setenv(PassphraseEnvVar, "from-env")
	pass, err := getPassphrase()
	require.NoError(t, err)
	assert.Equal(t, "from-env", pass)
}

func TestMaskToken(t *testing.T) {
	assert.Equal(t, "********", MaskToken("short"))
	assert.Equal(t, "abcd...wxyz", MaskToken("abcdefghijklmnopqrstuvwxyz"))
}
