package storage

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) (*JSONStore, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "settings.json")
	store, err := NewJSONStore(path)
	require.NoError(t, err)
	return store, path
}

func TestNewJSONStore(t *testing.T) {
	store, path := newTestStore(t)
	defer store.Close()

	// File should exist after creation
	info, err := os.Stat(path)
	require.NoError(t, err, "store file was not created")
	assert.Equal(t, os.FileMode(settingsFileMode), info.Mode().Perm())

	got, err := store.Get(context.Background())
	require.NoError(t, err)
	assert.Empty(t, got.APIKey)
	assert.Empty(t, got.Revision)
}

func TestNewJSONStoreCreatesDirectory(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "dir", "settings.json")
	store, err := NewJSONStore(path)
	require.NoError(t, err)
	defer store.Close()

	assert.FileExists(t, path)
}

func TestJSONStore_SetAPIKey(t *testing.T) {
	store, _ := newTestStore(t)
	defer store.Close()
	ctx := context.Background()

	first, err := store.SetAPIKey(ctx, "  AIzaSyExampleKey1234  ")
	require.NoError(t, err)
	assert.Equal(t, "AIzaSyExampleKey1234", first.APIKey)
	assert.NotEmpty(t, first.Revision)
	assert.False(t, first.UpdatedAt.IsZero())

	second, err := store.SetAPIKey(ctx, "AIzaSyOtherKey5678")
	require.NoError(t, err)
	assert.NotEqual(t, first.Revision, second.Revision, "Revision should change on every update")

	got, err := store.Get(ctx)
	require.NoError(t, err)
	assert.Equal(t, "AIzaSyOtherKey5678", got.APIKey)

	// Clearing is allowed.
	cleared, err := store.SetAPIKey(ctx, "")
	require.NoError(t, err)
	assert.Empty(t, cleared.APIKey)
}

func TestJSONStore_SetAPIKeyInvalid(t *testing.T) {
	store, _ := newTestStore(t)
	defer store.Close()

	tests := []string{
		"two words",
		`quote"key`,
		"<script>",
		"line\nbreak",
	}
	for _, key := range tests {
		t.Run(key, func(t *testing.T) {
			_, err := store.SetAPIKey(context.Background(), key)
			assert.ErrorIs(t, err, ErrInvalidInput)
		})
	}
}

func TestJSONStore_LoadExisting(t *testing.T) {
	store, path := newTestStore(t)
	saved, err := store.SetAPIKey(context.Background(), "persisted-key")
	require.NoError(t, err)
	store.Close()

	// Reopen and verify
	store2, err := NewJSONStore(path)
	require.NoError(t, err)
	defer store2.Close()

	loaded, err := store2.Get(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "persisted-key", loaded.APIKey)
	assert.Equal(t, saved.Revision, loaded.Revision)
}

func TestJSONStore_Corrupt(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{"invalid json", "{not json"},
		{"missing version", `{"settings": {"api_key": "k"}}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "settings.json")
			require.NoError(t, os.WriteFile(path, []byte(tt.content), 0600))

			_, err := NewJSONStore(path)
			require.ErrorIs(t, err, ErrStorageCorrupt)
			var storErr *StorageError
			require.ErrorAs(t, err, &storErr)
			assert.Equal(t, "read", storErr.Op)

			// The lock must have been released.
			assert.NoFileExists(t, path+".lock")
		})
	}
}

func TestJSONStore_LockTimeout(t *testing.T) {
	old := lockTimeout
	lockTimeout = 50 * time.Millisecond
	defer func() { lockTimeout = old }()

	store, path := newTestStore(t)
	defer store.Close()

	_, err := NewJSONStore(path)
	assert.ErrorIs(t, err, ErrLockTimeout)
}

func TestJSONStore_Closed(t *testing.T) {
	store, _ := newTestStore(t)
	require.NoError(t, store.Close())
	assert.NoError(t, store.Close(), "second Close should be a no-op")

	_, err := store.Get(context.Background())
	assert.ErrorIs(t, err, ErrClosed)
	_, err = store.SetAPIKey(context.Background(), "k")
	assert.ErrorIs(t, err, ErrClosed)
}

func TestReadSettings(t *testing.T) {
	t.Run("missing file is not created", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "nested", "settings.json")

		got, err := ReadSettings(path)
		require.NoError(t, err)
		assert.Equal(t, Settings{}, got)
		assert.NoFileExists(t, path)
		assert.NoDirExists(t, filepath.Dir(path))
	})

	t.Run("reads while a store holds the lock", func(t *testing.T) {
		old := lockTimeout
		lockTimeout = 50 * time.Millisecond
		defer func() { lockTimeout = old }()

		store, path := newTestStore(t)
		defer store.Close()
		saved, err := store.SetAPIKey(context.Background(), "shared-key")
		require.NoError(t, err)

		start := time.Now()
		got, err := ReadSettings(path)
		require.NoError(t, err)
		assert.Less(t, time.Since(start), lockTimeout)
		assert.Equal(t, "shared-key", got.APIKey)
		assert.Equal(t, saved.Revision, got.Revision)
	})

	t.Run("corrupt", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "settings.json")
		require.NoError(t, os.WriteFile(path, []byte("{not json"), 0600))

		_, err := ReadSettings(path)
		assert.ErrorIs(t, err, ErrStorageCorrupt)
	})
}

func TestSettingsMaskedAPIKey(t *testing.T) {
	tests := []struct {
		key  string
		want string
	}{
		{"", ""},
		{"abc", "****"},
		{"abcd", "****"},
		{"AIzaSyExampleKey1234", "****1234"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, (Settings{APIKey: tt.key}).MaskedAPIKey(), "key %q", tt.key)
	}
}
