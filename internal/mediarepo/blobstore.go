// Ferrex media server core
// SPDX-License-Identifier: AGPL-3.0-or-later

package mediarepo

import (
	"crypto/sha256"
	"encoding/base64"
	"encoding/binary"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/renameio/v2"

	"github.com/ferrex/mediaserver/internal/structures"
)

// ErrInvalidIntegrity is returned when an integrity string is not a
// sha256-<base64> value this store recognizes.
var ErrInvalidIntegrity = errors.New("mediarepo: invalid integrity string")

const integrityPrefix = "sha256-"

// BlobStore is the content-addressed half of the Media Cache (spec.md
// C11): batch/bundle payloads are written once under their sha256
// integrity string and never rewritten in place.
type BlobStore struct {
	dir string
	hot *structures.Cache
}

// NewBlobStore opens (creating if absent) a content-addressed blob
// store rooted at dir.
func NewBlobStore(dir string) (*BlobStore, error) {
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return nil, fmt.Errorf("mediarepo: create blob dir: %w", err)
	}
	return &BlobStore{dir: dir, hot: structures.New(10 * time.Minute)}, nil
}

// WriteHash writes data under its sha256 integrity string and returns
// that string along with the payload length.
func (s *BlobStore) WriteHash(data []byte) (integrity string, byteLen int, err error) {
	sum := sha256.Sum256(data)
	integrity = integrityPrefix + base64.RawURLEncoding.EncodeToString(sum[:])

	path := s.pathFor(integrity)
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return "", 0, fmt.Errorf("mediarepo: create blob shard dir: %w", err)
	}
	if err := renameio.WriteFile(path, data, 0o600); err != nil {
		return "", 0, fmt.Errorf("mediarepo: write blob: %w", err)
	}
	s.hot.Set(integrity, data)
	return integrity, len(data), nil
}

// ReadHash returns the blob addressed by integrity, consulting the
// hot-entry cache before touching disk.
func (s *BlobStore) ReadHash(integrity string) ([]byte, error) {
	if cached, ok := s.hot.Get(integrity); ok {
		return cached.([]byte), nil
	}

	path, err := s.verifiedPathFor(integrity)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("mediarepo: read blob: %w", err)
	}
	s.hot.Set(integrity, data)
	return data, nil
}

// RemoveHash deletes the blob addressed by integrity, if present.
func (s *BlobStore) RemoveHash(integrity string) error {
	s.hot.Delete(integrity)
	path, err := s.verifiedPathFor(integrity)
	if err != nil {
		return err
	}
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("mediarepo: remove blob: %w", err)
	}
	return nil
}

// ContentHashU64 is an auxiliary, non-cryptographic dedup key derived
// from the same sha256 digest WriteHash uses (content_hash_u64 in
// spec.md §4.11), for callers that want a fixed-width key instead of
// the full integrity string.
func ContentHashU64(data []byte) uint64 {
	sum := sha256.Sum256(data)
	return binary.BigEndian.Uint64(sum[:8])
}

func (s *BlobStore) pathFor(integrity string) string {
	digest := strings.TrimPrefix(integrity, integrityPrefix)
	shard := digest
	if len(shard) > 2 {
		shard = digest[:2]
	}
	return filepath.Join(s.dir, shard, digest)
}

func (s *BlobStore) verifiedPathFor(integrity string) (string, error) {
	if !strings.HasPrefix(integrity, integrityPrefix) {
		return "", ErrInvalidIntegrity
	}
	return s.pathFor(integrity), nil
}
