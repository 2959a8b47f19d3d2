// Ferrex media server core
// SPDX-License-Identifier: AGPL-3.0-or-later

package tokenstore

import (
	"os"
	"path/filepath"
	"time"

	"github.com/goccy/go-json"
	"github.com/google/renameio/v2"
)

// AutoLoginStore persists auto_login.json: a plain map from user_id to
// whether auto-login is enabled for that user on this device, rewritten
// wholesale on every change (spec.md §6).
type AutoLoginStore struct {
	path string
}

// NewAutoLoginStore creates an AutoLoginStore under dir.
func NewAutoLoginStore(dir string) *AutoLoginStore {
	return &AutoLoginStore{path: filepath.Join(dir, "auto_login.json")}
}

// Load reads the current user_id -> enabled map. A missing file reads
// as an empty map.
func (s *AutoLoginStore) Load() (map[string]bool, error) {
	data, err := os.ReadFile(s.path)
	if os.IsNotExist(err) {
		return map[string]bool{}, nil
	}
	if err != nil {
		return nil, err
	}
	out := map[string]bool{}
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// Save rewrites the whole map atomically.
func (s *AutoLoginStore) Save(entries map[string]bool) error {
	if err := os.MkdirAll(filepath.Dir(s.path), 0o700); err != nil {
		return err
	}
	data, err := json.Marshal(entries)
	if err != nil {
		return err
	}
	return renameio.WriteFile(s.path, data, 0o600)
}

// Set toggles auto-login for a single user and persists the result.
func (s *AutoLoginStore) Set(userID string, enabled bool) error {
	entries, err := s.Load()
	if err != nil {
		return err
	}
	entries[userID] = enabled
	return s.Save(entries)
}

// AdminPinUnlock is the plaintext contents of admin_pin_unlock.json.
type AdminPinUnlock struct {
	Enabled    bool      `json:"enabled"`
	UnlockedBy string    `json:"unlocked_by"`
	UnlockedAt time.Time `json:"unlocked_at"`
}

// AdminPinUnlockStore persists admin_pin_unlock.json.
type AdminPinUnlockStore struct {
	path string
}

// NewAdminPinUnlockStore creates an AdminPinUnlockStore under dir.
func NewAdminPinUnlockStore(dir string) *AdminPinUnlockStore {
	return &AdminPinUnlockStore{path: filepath.Join(dir, "admin_pin_unlock.json")}
}

// Load reads the current state. A missing file reads as the zero value.
func (s *AdminPinUnlockStore) Load() (AdminPinUnlock, error) {
	data, err := os.ReadFile(s.path)
	if os.IsNotExist(err) {
		return AdminPinUnlock{}, nil
	}
	if err != nil {
		return AdminPinUnlock{}, err
	}
	var out AdminPinUnlock
	if err := json.Unmarshal(data, &out); err != nil {
		return AdminPinUnlock{}, err
	}
	return out, nil
}

// Save rewrites the file atomically.
func (s *AdminPinUnlockStore) Save(state AdminPinUnlock) error {
	if err := os.MkdirAll(filepath.Dir(s.path), 0o700); err != nil {
		return err
	}
	data, err := json.Marshal(state)
	if err != nil {
		return err
	}
	return renameio.WriteFile(s.path, data, 0o600)
}
