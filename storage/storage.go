// Package storage persists the admin settings of the comments widget.
package storage

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// Sentinel errors for common storage conditions.
var (
	// ErrInvalidInput indicates invalid or malformed input was provided.
	ErrInvalidInput = errors.New("storage: invalid input")
	// ErrStorageCorrupt indicates data corruption was detected.
	ErrStorageCorrupt = errors.New("storage: data corruption detected")
	// ErrLockTimeout indicates a timeout acquiring a file lock.
	ErrLockTimeout = errors.New("storage: lock acquisition timeout")
	// ErrClosed indicates the store was used after Close.
	ErrClosed = errors.New("storage: store closed")
)

// StorageError wraps storage errors with operation and entity context.
// Use errors.As() to extract this error type and get operation details:
//
//	var storErr *storage.StorageError
//	if errors.As(err, &storErr) {
//		fmt.Printf("Failed to %s %s: %v\n", storErr.Op, storErr.Entity, storErr.Err)
//	}
type StorageError struct {
	// Op is the operation that failed ("read", "write", "lock").
	Op string
	// Entity is the entity type ("settings", "file").
	Entity string
	// ID is the entity ID if applicable.
	ID string
	// Err is the underlying error that occurred.
	Err error
}

// Error returns a string representation of the storage error.
func (e *StorageError) Error() string {
	if e.ID != "" {
		return fmt.Sprintf("storage: %s %s %s: %v", e.Op, e.Entity, e.ID, e.Err)
	}
	return fmt.Sprintf("storage: %s %s: %v", e.Op, e.Entity, e.Err)
}

// Unwrap returns the underlying error for use with errors.Is() and errors.As().
func (e *StorageError) Unwrap() error { return e.Err }

// Settings is the admin-configurable state: the default API key used by
// every embed that does not specify its own.
type Settings struct {
	// APIKey is the default YouTube Data API v3 key.
	APIKey string `json:"api_key"`
	// Revision changes on every update.
	Revision string `json:"revision"`
	// UpdatedAt is when the settings were last changed.
	UpdatedAt time.Time `json:"updated_at"`
}

// MaskedAPIKey returns the key with all but the last four characters hidden.
func (s Settings) MaskedAPIKey() string {
	const visible = 4
	if len(s.APIKey) <= visible {
		if s.APIKey == "" {
			return ""
		}
		return "****"
	}
	return "****" + s.APIKey[len(s.APIKey)-visible:]
}

// SettingsStore reads and updates settings.
// Implementations must be safe for concurrent use.
type SettingsStore interface {
	// Get returns the current settings. Unset settings are the zero value.
	Get(ctx context.Context) (Settings, error)
	// SetAPIKey replaces the default API key; an empty key clears it.
	SetAPIKey(ctx context.Context, apiKey string) (Settings, error)
	// Close releases resources held by the store.
	Close() error
}
