// Package session persists CLI login state under the user config
// directory.
package session

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// ErrNotLoggedIn reports a missing or empty stored session.
var ErrNotLoggedIn = errors.New("session: not logged in")

// Session is the stored login state for one account.
type Session struct {
	APIBaseURL string `json:"api_base_url,omitempty"`
	Token      string `json:"token"`
	Email      string `json:"email,omitempty"`
	UserID     string `json:"user_id,omitempty"`
}

// Store reads and writes sessions at a fixed path.
type Store struct {
	path string
}

// NewStore returns a store rooted at the platform config directory.
func NewStore() (*Store, error) {
	base, err := os.UserConfigDir()
	if err != nil {
		return nil, fmt.Errorf("resolve config dir: %w", err)
	}
	return &Store{path: filepath.Join(base, "whopctl", "session.json")}, nil
}

// NewStoreAt returns a store using an explicit file path.
func NewStoreAt(path string) *Store {
	return &Store{path: path}
}

// Load reads the stored session. A missing file or a session without a
// token reports ErrNotLoggedIn.
func (s *Store) Load() (Session, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return Session{}, ErrNotLoggedIn
		}
		return Session{}, fmt.Errorf("read session: %w", err)
	}
	var sess Session
	if err := json.Unmarshal(data, &sess); err != nil {
		return Session{}, fmt.Errorf("decode session: %w", err)
	}
	if strings.TrimSpace(sess.Token) == "" {
		return Session{}, ErrNotLoggedIn
	}
	return sess, nil
}

// Save writes the session with owner-only permissions.
func (s *Store) Save(sess Session) error {
	if err := os.MkdirAll(filepath.Dir(s.path), 0o700); err != nil {
		return fmt.Errorf("create config dir: %w", err)
	}
	data, err := json.MarshalIndent(sess, "", "  ")
	if err != nil {
		return fmt.Errorf("encode session: %w", err)
	}
	if err := os.WriteFile(s.path, data, 0o600); err != nil {
		return fmt.Errorf("write session: %w", err)
	}
	return nil
}

// Clear removes the stored session. Clearing an absent session succeeds.
func (s *Store) Clear() error {
	if err := os.Remove(s.path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("remove session: %w", err)
	}
	return nil
}
