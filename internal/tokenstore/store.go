// Ferrex media server core
// SPDX-License-Identifier: AGPL-3.0-or-later

package tokenstore

import (
	"crypto/aes"
	"crypto/cipher"
	"encoding/base64"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/goccy/go-json"
	"github.com/gofrs/flock"
	"github.com/google/renameio/v2"

	"github.com/ferrex/mediaserver/internal/account"
)

const schemaVersion = 2

const fileName = "auth_cache.enc"

// StoredAuth is the plaintext envelope payload (spec.md §3 Encrypted
// Token Blob). It never touches disk unencrypted.
type StoredAuth struct {
	AccessToken          string     `json:"access_token"`
	RefreshToken         string     `json:"refresh_token"`
	User                 string     `json:"user"`
	ServerURL            string     `json:"server_url"`
	Permissions          []string   `json:"permissions,omitempty"`
	StoredAt             time.Time  `json:"stored_at"`
	DeviceTrustExpiresAt *time.Time `json:"device_trust_expires_at,omitempty"`
}

// envelope is the on-disk JSON wrapper around the AES-GCM ciphertext.
type envelope struct {
	SchemaVersion int       `json:"schema_version"`
	Nonce         string    `json:"nonce"`
	Ciphertext    string    `json:"ciphertext"`
	EncryptedAt   time.Time `json:"encrypted_at"`
	Salt          string    `json:"salt"`
}

// Store persists a single Encrypted Token Store blob under Dir,
// protected by an advisory file lock for the read-modify-write cycle.
type Store struct {
	Dir  string
	lock *flock.Flock
}

// New creates a Store rooted at dir (app-data-dir/ferrex-auth/ in the
// spec's reference layout). The directory is not created until the
// first Save.
func New(dir string) *Store {
	return &Store{
		Dir:  dir,
		lock: flock.New(filepath.Join(dir, ".lock")),
	}
}

func (s *Store) path() string { return filepath.Join(s.Dir, fileName) }

// Save encrypts plaintext under a key derived from deviceFingerprint
// and a fresh random salt, and atomically replaces the store file.
func (s *Store) Save(plaintext StoredAuth, deviceFingerprint [32]byte) error {
	if err := os.MkdirAll(s.Dir, 0o700); err != nil {
		return fmt.Errorf("tokenstore: create dir: %w", err)
	}

	locked, err := s.lock.TryLock()
	if err != nil {
		return fmt.Errorf("tokenstore: acquire lock: %w", err)
	}
	if locked {
		defer s.lock.Unlock()
	}

	salt, err := account.GenerateSalt16()
	if err != nil {
		return fmt.Errorf("tokenstore: generate salt: %w", err)
	}
	nonce, err := account.GenerateNonce12()
	if err != nil {
		return fmt.Errorf("tokenstore: generate nonce: %w", err)
	}

	key := account.DeriveAtRestKey(deviceFingerprint, salt)
	aead, err := newAEAD(key)
	if err != nil {
		return err
	}

	plainBytes, err := json.Marshal(plaintext)
	if err != nil {
		return fmt.Errorf("tokenstore: marshal plaintext: %w", err)
	}
	ciphertext := aead.Seal(nil, nonce[:], plainBytes, nil)

	env := envelope{
		SchemaVersion: schemaVersion,
		Nonce:         base64.StdEncoding.EncodeToString(nonce[:]),
		Ciphertext:    base64.StdEncoding.EncodeToString(ciphertext),
		EncryptedAt:   time.Now(),
		Salt:          base64.StdEncoding.EncodeToString(salt[:]),
	}
	data, err := json.Marshal(env)
	if err != nil {
		return fmt.Errorf("tokenstore: marshal envelope: %w", err)
	}

	return renameio.WriteFile(s.path(), data, 0o600)
}

// Load decrypts the store file using a key derived from
// deviceFingerprint. Returns (nil, nil) when the file is absent or
// carries a schema_version other than 2 (an older v1 ciphertext is
// treated as a miss, per spec.md §4.9).
func (s *Store) Load(deviceFingerprint [32]byte) (*StoredAuth, error) {
	data, err := os.ReadFile(s.path())
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("tokenstore: read: %w", err)
	}

	var env envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return nil, fmt.Errorf("tokenstore: unmarshal envelope: %w", err)
	}
	if env.SchemaVersion != schemaVersion {
		return nil, nil
	}
	if env.Salt == "" {
		return nil, ErrSaltMissing
	}

	saltBytes, err := base64.StdEncoding.DecodeString(env.Salt)
	if err != nil || len(saltBytes) != 16 {
		return nil, ErrSaltMissing
	}
	var salt [16]byte
	copy(salt[:], saltBytes)

	nonceBytes, err := base64.StdEncoding.DecodeString(env.Nonce)
	if err != nil {
		return nil, fmt.Errorf("%w: malformed nonce", ErrFingerprintChanged)
	}
	ciphertext, err := base64.StdEncoding.DecodeString(env.Ciphertext)
	if err != nil {
		return nil, fmt.Errorf("%w: malformed ciphertext", ErrFingerprintChanged)
	}

	key := account.DeriveAtRestKey(deviceFingerprint, salt)
	aead, err := newAEAD(key)
	if err != nil {
		return nil, err
	}

	plainBytes, err := aead.Open(nil, nonceBytes, ciphertext, nil)
	if err != nil {
		return nil, ErrFingerprintChanged
	}

	var stored StoredAuth
	if err := json.Unmarshal(plainBytes, &stored); err != nil {
		return nil, fmt.Errorf("tokenstore: unmarshal plaintext: %w", err)
	}
	return &stored, nil
}

// Clear removes the store file if present. Absence is not an error.
func (s *Store) Clear() error {
	err := os.Remove(s.path())
	if os.IsNotExist(err) {
		return nil
	}
	return err
}

func newAEAD(key [32]byte) (cipher.AEAD, error) {
	block, err := aes.NewCipher(key[:])
	if err != nil {
		return nil, fmt.Errorf("tokenstore: create cipher: %w", err)
	}
	aead, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("tokenstore: create gcm: %w", err)
	}
	return aead, nil
}
