// Package settings persists process-wide client settings.
package settings

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
)

// Settings are the client flags shared across commands.
type Settings struct {
	FirstRun          bool   `json:"first_run"`
	NotificationToken string `json:"notification_token,omitempty"`
}

// Defaults returns the settings of a fresh install.
func Defaults() Settings {
	return Settings{FirstRun: true}
}

// Store defines persistence operations for settings.
type Store interface {
	Load() (Settings, error)
	Save(Settings) error
}

// JSONStore persists settings in a single JSON file.
type JSONStore struct {
	mu   sync.Mutex
	path string
}

// NewJSONStore creates a JSON-backed store.
func NewJSONStore(path string) *JSONStore {
	return &JSONStore{path: path}
}

// Path returns the backing file.
func (s *JSONStore) Path() string { return s.path }

// Load reads settings or returns defaults when the file does not exist.
func (s *JSONStore) Load() (Settings, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	data, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return Defaults(), nil
		}
		return Settings{}, err
	}
	cfg := Defaults()
	if err := json.Unmarshal(data, &cfg); err != nil {
		return Settings{}, fmt.Errorf("decode %s: %w", s.path, err)
	}
	return cfg, nil
}

// Save writes settings through a temp file and rename.
func (s *JSONStore) Save(cfg Settings) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return err
	}
	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return err
	}
	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o600); err != nil {
		return err
	}
	return os.Rename(tmp, s.path)
}

// ConsumeFirstRun reports whether this is the first run and clears the flag.
func ConsumeFirstRun(store Store) (bool, error) {
	cfg, err := store.Load()
	if err != nil {
		return false, err
	}
	if !cfg.FirstRun {
		return false, nil
	}
	cfg.FirstRun = false
	return true, store.Save(cfg)
}

// SetNotificationToken stores the device push token.
func SetNotificationToken(store Store, token string) error {
	cfg, err := store.Load()
	if err != nil {
		return err
	}
	cfg.NotificationToken = token
	return store.Save(cfg)
}
