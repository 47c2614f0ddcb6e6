package session

import (
	"encoding/json"
	"fmt"
	"sync"

	"taboowiki/pkg/logging"
)

const (
	// TokenKey holds the bearer token.
	TokenKey = "taboowiki_token"

	// UserKey holds the JSON encoded user snapshot.
	UserKey = "taboowiki_user"
)

// TokenStore holds the session token and cached user in a Storage backend.
// At most one token is active at a time; the last Save wins.
//
// SECURITY: token values are never logged, only the storage location.
type TokenStore struct {
	mu      sync.Mutex
	storage Storage
}

// NewTokenStore wraps storage. A nil storage behaves like NoStorage.
func NewTokenStore(storage Storage) *TokenStore {
	if storage == nil {
		storage = NoStorage{}
	}
	return &TokenStore{storage: storage}
}

// Save overwrites the stored token. The token shape is not validated.
func (s *TokenStore) Save(token string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.storage.Set(TokenKey, token); err != nil {
		logging.AuditLevel(logging.LevelWarn, "token_store_failed", "Session token storage failed",
			"storage", describe(s.storage), "error", err.Error())
		return fmt.Errorf("failed to persist token: %w", err)
	}
	logging.Audit("token_stored", "Session token stored", "storage", describe(s.storage))
	return nil
}

// Get returns the stored token. An empty value is reported as absent.
func (s *TokenStore) Get() (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	token, ok := s.storage.Get(TokenKey)
	if !ok || token == "" {
		return "", false
	}
	return token, true
}

// HasToken reports whether a token is stored. It does not check validity.
func (s *TokenStore) HasToken() bool {
	_, ok := s.Get()
	return ok
}

// Remove clears the token.
func (s *TokenStore) Remove() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.removeLocked()
}

// RemoveIfCurrent clears the token only if it still equals token. It
// reports whether the token was removed. A concurrent refresh that already
// stored a newer token is left alone.
func (s *TokenStore) RemoveIfCurrent(token string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	current, ok := s.storage.Get(TokenKey)
	if !ok || current != token {
		return false, nil
	}
	if err := s.removeLocked(); err != nil {
		return false, err
	}
	return true, nil
}

func (s *TokenStore) removeLocked() error {
	if err := s.storage.Delete(TokenKey); err != nil {
		logging.AuditLevel(logging.LevelWarn, "token_delete_failed", "Session token deletion failed",
			"storage", describe(s.storage), "error", err.Error())
		return err
	}
	logging.Audit("token_deleted", "Session token deleted", "storage", describe(s.storage))
	return nil
}

// SaveUser stores the user snapshot. A nil user removes it.
func (s *TokenStore) SaveUser(user *User) error {
	if user == nil {
		return s.RemoveUser()
	}
	data, err := json.Marshal(user)
	if err != nil {
		return fmt.Errorf("failed to marshal user: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.storage.Set(UserKey, string(data)); err != nil {
		return fmt.Errorf("failed to persist user: %w", err)
	}
	return nil
}

// User returns the cached user snapshot. An unreadable snapshot is reported
// as absent.
func (s *TokenStore) User() (*User, bool) {
	s.mu.Lock()
	raw, ok := s.storage.Get(UserKey)
	s.mu.Unlock()
	if !ok || raw == "" {
		return nil, false
	}

	var user User
	if err := json.Unmarshal([]byte(raw), &user); err != nil {
		logging.Warn("Session", "Ignoring malformed cached user: %v", err)
		return nil, false
	}
	return &user, true
}

// RemoveUser clears the cached user.
func (s *TokenStore) RemoveUser() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.storage.Delete(UserKey)
}

// Clear removes both the token and the cached user.
func (s *TokenStore) Clear() error {
	if err := s.Remove(); err != nil {
		return err
	}
	return s.RemoveUser()
}

func describe(storage Storage) string {
	switch st := storage.(type) {
	case fmt.Stringer:
		return st.String()
	case *MemoryStorage:
		return "memory"
	case NoStorage:
		return "none"
	default:
		return fmt.Sprintf("%T", storage)
	}
}
