package session

import (
	"path/filepath"
	"sync"

	"github.com/mitchellh/go-homedir"
)

// DefaultStorageDir is the session directory relative to the user's home.
const DefaultStorageDir = ".config/taboowiki/session"

// Storage is a string key/value store. Implementations must treat a missing
// key as absent rather than as an error.
type Storage interface {
	Get(key string) (string, bool)
	Set(key, value string) error
	Delete(key string) error
}

// MemoryStorage keeps values in process memory.
type MemoryStorage struct {
	mu     sync.RWMutex
	values map[string]string
}

// NewMemoryStorage creates an empty in-memory storage.
func NewMemoryStorage() *MemoryStorage {
	return &MemoryStorage{values: make(map[string]string)}
}

func (m *MemoryStorage) Get(key string) (string, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	v, ok := m.values[key]
	return v, ok
}

func (m *MemoryStorage) Set(key, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.values[key] = value
	return nil
}

func (m *MemoryStorage) Delete(key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.values, key)
	return nil
}

// NoStorage is used where no persistent storage exists. Reads are always
// absent and writes are discarded.
type NoStorage struct{}

func (NoStorage) Get(string) (string, bool) { return "", false }
func (NoStorage) Set(string, string) error  { return nil }
func (NoStorage) Delete(string) error       { return nil }

// OpenStorage returns the storage for a session directory. When persist is
// false the session is kept in memory only. An empty dir resolves to
// ~/.config/taboowiki/session.
func OpenStorage(dir string, persist bool) (Storage, error) {
	if !persist {
		return NewMemoryStorage(), nil
	}
	if dir == "" {
		home, err := homedir.Dir()
		if err != nil {
			return nil, err
		}
		dir = filepath.Join(home, DefaultStorageDir)
	}
	return NewFileStorage(dir)
}
