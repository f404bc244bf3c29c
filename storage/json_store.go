package storage

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

const schemaVersion = "1.0"

// lockTimeout bounds how long NewJSONStore waits for another process.
var lockTimeout = 5 * time.Second

// JSONStore implements SettingsStore using a single JSON file.
// The file is locked for the lifetime of the store.
type JSONStore struct {
	path   string
	lock   *FileLock
	data   *storeData
	closed bool
	mu     sync.RWMutex
}

// storeData is the top-level JSON structure.
type storeData struct {
	Version   string    `json:"version"`
	UpdatedAt time.Time `json:"updated_at"`
	Settings  Settings  `json:"settings"`
}

// NewJSONStore opens the JSON settings file at path.
// If the file exists, it is loaded; otherwise an empty store is created.
func NewJSONStore(path string) (*JSONStore, error) {
	s := &JSONStore{
		path: path,
		lock: NewFileLock(path),
	}

	if err := s.lock.Lock(lockTimeout); err != nil {
		return nil, err
	}

	if err := s.load(); err != nil {
		s.lock.Unlock()
		return nil, err
	}

	return s, nil
}

// load reads the JSON file into memory. Creates empty data if file doesn't exist.
func (s *JSONStore) load() error {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			s.data = newStoreData()
			// Save immediately to catch permission errors early
			return s.save()
		}
		return &StorageError{Op: "read", Entity: "settings", Err: err}
	}

	s.data, err = decodeStoreData(data)
	return err
}

func decodeStoreData(data []byte) (*storeData, error) {
	sd := &storeData{}
	if err := json.Unmarshal(data, sd); err != nil {
		return nil, &StorageError{Op: "read", Entity: "settings", Err: ErrStorageCorrupt}
	}
	if sd.Version == "" {
		return nil, &StorageError{Op: "read", Entity: "settings", Err: ErrStorageCorrupt}
	}
	return sd, nil
}

// ReadSettings loads the settings file at path without locking or creating it.
// A missing file yields zero Settings. Writers replace the file atomically, so
// a reader never observes a partial write even while a JSONStore holds the lock.
func ReadSettings(path string) (Settings, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return Settings{}, nil
		}
		return Settings{}, &StorageError{Op: "read", Entity: "settings", Err: err}
	}
	sd, err := decodeStoreData(data)
	if err != nil {
		return Settings{}, err
	}
	return sd.Settings, nil
}

// save persists the data to disk atomically.
func (s *JSONStore) save() error {
	s.data.UpdatedAt = time.Now()

	writer, err := NewAtomicWriter(s.path)
	if err != nil {
		return &StorageError{Op: "write", Entity: "settings", Err: err}
	}

	encoder := json.NewEncoder(writer)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(s.data); err != nil {
		writer.Abort()
		return &StorageError{Op: "write", Entity: "settings", Err: err}
	}

	if err := writer.Commit(); err != nil {
		return &StorageError{Op: "write", Entity: "settings", Err: err}
	}

	return nil
}

// Get returns the current settings.
func (s *JSONStore) Get(ctx context.Context) (Settings, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return Settings{}, &StorageError{Op: "read", Entity: "settings", Err: ErrClosed}
	}
	return s.data.Settings, nil
}

// SetAPIKey replaces the default API key and persists the change.
func (s *JSONStore) SetAPIKey(ctx context.Context, apiKey string) (Settings, error) {
	apiKey = strings.TrimSpace(apiKey)
	if strings.ContainsAny(apiKey, " \t\r\n\"'<>") {
		return Settings{}, &StorageError{Op: "write", Entity: "settings", Err: ErrInvalidInput}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return Settings{}, &StorageError{Op: "write", Entity: "settings", Err: ErrClosed}
	}

	prev := s.data.Settings
	s.data.Settings = Settings{
		APIKey:    apiKey,
		Revision:  uuid.NewString(),
		UpdatedAt: time.Now(),
	}
	if err := s.save(); err != nil {
		s.data.Settings = prev
		return Settings{}, err
	}
	return s.data.Settings, nil
}

// Close releases resources held by the store.
func (s *JSONStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil
	}
	s.closed = true
	return s.lock.Unlock()
}

func newStoreData() *storeData {
	return &storeData{
		Version:   schemaVersion,
		UpdatedAt: time.Now(),
	}
}
