// Ferrex media server core
// SPDX-License-Identifier: AGPL-3.0-or-later

package mediarepo

import (
	"crypto/sha256"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/goccy/go-json"
	"github.com/google/renameio/v2"
	"github.com/gofrs/flock"

	"github.com/ferrex/mediaserver/internal/ids"
)

const cacheIndexSchemaVersion = 1

// BatchEntry records the cached version of one movie batch or series
// bundle (spec.md §4.11).
type BatchEntry struct {
	Version   uint64 `json:"version"`
	Integrity string `json:"integrity"`
	ByteLen   uint32 `json:"byte_len"`
}

type snapshotEntry struct {
	Integrity string `json:"integrity"`
	ByteLen   uint32 `json:"byte_len"`
}

type batchKey struct {
	LibraryID ids.LibraryID
	ID        string
}

// indexFile is the on-disk JSON shape of CacheIndex.
type indexFile struct {
	SchemaVersion int                   `json:"schema_version"`
	MovieBatches  map[string]BatchEntry `json:"movie_batches"`
	SeriesBundles map[string]BatchEntry `json:"series_bundles"`
	RepoSnapshot  *snapshotEntry        `json:"repo_snapshot,omitempty"`
}

// CacheIndex is the atomically-persisted JSON index describing which
// movie batches, series bundles, and repo snapshot are cached in a
// BlobStore, keyed by (library_id, batch/series id). On malformed or
// partial load it falls back to an empty index rather than failing
// (spec.md §4.11): a media cache is always safe to treat as cold.
type CacheIndex struct {
	mu sync.Mutex

	path string
	lock *flock.Flock

	movieBatches  map[batchKey]BatchEntry
	seriesBundles map[batchKey]BatchEntry
	repoSnapshot  *snapshotEntry
}

// Namespace derives the per-server cache directory name from a
// normalized server URL: the first 16 bytes of its sha256 digest,
// hex-encoded, so distinct servers never collide in a shared cache
// root.
func Namespace(normalizedServerURL string) string {
	sum := sha256.Sum256([]byte(normalizedServerURL))
	return fmt.Sprintf("%x", sum[:16])
}

// OpenCacheIndex loads (or initializes) the index file at dir/index.json.
func OpenCacheIndex(dir string) (*CacheIndex, error) {
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return nil, fmt.Errorf("mediarepo: create cache index dir: %w", err)
	}
	path := filepath.Join(dir, "index.json")
	idx := &CacheIndex{
		path:          path,
		lock:          flock.New(path + ".lock"),
		movieBatches:  make(map[batchKey]BatchEntry),
		seriesBundles: make(map[batchKey]BatchEntry),
	}
	idx.load()
	return idx, nil
}

// load populates idx from disk, falling back silently to an empty
// index when the file is absent or malformed.
func (idx *CacheIndex) load() {
	raw, err := os.ReadFile(idx.path)
	if err != nil {
		return
	}

	var f indexFile
	if err := json.Unmarshal(raw, &f); err != nil {
		return
	}
	if f.SchemaVersion != cacheIndexSchemaVersion {
		return
	}

	for k, v := range f.MovieBatches {
		lib, id, ok := splitBatchKey(k)
		if !ok {
			continue
		}
		idx.movieBatches[batchKey{lib, id}] = v
	}
	for k, v := range f.SeriesBundles {
		lib, id, ok := splitBatchKey(k)
		if !ok {
			continue
		}
		idx.seriesBundles[batchKey{lib, id}] = v
	}
	idx.repoSnapshot = f.RepoSnapshot
}

func splitBatchKey(s string) (ids.LibraryID, string, bool) {
	for i := 0; i < len(s); i++ {
		if s[i] == '\x1f' {
			lib, err := ids.ParseLibraryID(s[:i])
			if err != nil {
				return ids.LibraryID{}, "", false
			}
			return lib, s[i+1:], true
		}
	}
	return ids.LibraryID{}, "", false
}

func joinBatchKey(k batchKey) string {
	return k.LibraryID.String() + "\x1f" + k.ID
}

// persist writes the index to disk atomically, holding the advisory
// lock for the duration of the write.
func (idx *CacheIndex) persist() error {
	if err := idx.lock.Lock(); err != nil {
		return fmt.Errorf("mediarepo: lock cache index: %w", err)
	}
	defer idx.lock.Unlock()

	f := indexFile{
		SchemaVersion: cacheIndexSchemaVersion,
		MovieBatches:  make(map[string]BatchEntry, len(idx.movieBatches)),
		SeriesBundles: make(map[string]BatchEntry, len(idx.seriesBundles)),
		RepoSnapshot:  idx.repoSnapshot,
	}
	for k, v := range idx.movieBatches {
		f.MovieBatches[joinBatchKey(k)] = v
	}
	for k, v := range idx.seriesBundles {
		f.SeriesBundles[joinBatchKey(k)] = v
	}

	raw, err := json.MarshalIndent(f, "", "  ")
	if err != nil {
		return fmt.Errorf("mediarepo: encode cache index: %w", err)
	}
	if err := renameio.WriteFile(idx.path, raw, 0o600); err != nil {
		return fmt.Errorf("mediarepo: write cache index: %w", err)
	}
	return nil
}

// ListMovieBatchesForLibrary returns every cached movie batch id for libraryID.
func (idx *CacheIndex) ListMovieBatchesForLibrary(libraryID ids.LibraryID) map[string]BatchEntry {
	idx.mu.Lock()
	defer idx.mu.Unlock()

	out := make(map[string]BatchEntry)
	for k, v := range idx.movieBatches {
		if k.LibraryID == libraryID {
			out[k.ID] = v
		}
	}
	return out
}

// ListSeriesBundlesForLibrary returns every cached series bundle id for libraryID.
func (idx *CacheIndex) ListSeriesBundlesForLibrary(libraryID ids.LibraryID) map[string]BatchEntry {
	idx.mu.Lock()
	defer idx.mu.Unlock()

	out := make(map[string]BatchEntry)
	for k, v := range idx.seriesBundles {
		if k.LibraryID == libraryID {
			out[k.ID] = v
		}
	}
	return out
}

// PutMovieBatch records or replaces the cache entry for a movie batch.
func (idx *CacheIndex) PutMovieBatch(libraryID ids.LibraryID, batchID string, entry BatchEntry) error {
	idx.mu.Lock()
	idx.movieBatches[batchKey{libraryID, batchID}] = entry
	idx.mu.Unlock()
	return idx.persist()
}

// PutSeriesBundle records or replaces the cache entry for a series bundle.
func (idx *CacheIndex) PutSeriesBundle(libraryID ids.LibraryID, seriesID string, entry BatchEntry) error {
	idx.mu.Lock()
	idx.seriesBundles[batchKey{libraryID, seriesID}] = entry
	idx.mu.Unlock()
	return idx.persist()
}

// PutRepoSnapshot records the cached archived-repo snapshot entry.
func (idx *CacheIndex) PutRepoSnapshot(entry BatchEntry) error {
	idx.mu.Lock()
	idx.repoSnapshot = &snapshotEntry{Integrity: entry.Integrity, ByteLen: entry.ByteLen}
	idx.mu.Unlock()
	return idx.persist()
}

// RemoveMovieBatch drops a movie batch's cache entry.
func (idx *CacheIndex) RemoveMovieBatch(libraryID ids.LibraryID, batchID string) error {
	idx.mu.Lock()
	delete(idx.movieBatches, batchKey{libraryID, batchID})
	idx.mu.Unlock()
	return idx.persist()
}

// RemoveSeriesBundle drops a series bundle's cache entry.
func (idx *CacheIndex) RemoveSeriesBundle(libraryID ids.LibraryID, seriesID string) error {
	idx.mu.Lock()
	delete(idx.seriesBundles, batchKey{libraryID, seriesID})
	idx.mu.Unlock()
	return idx.persist()
}

// InvalidateRepoSnapshot clears the cached repo snapshot entry.
func (idx *CacheIndex) InvalidateRepoSnapshot() error {
	idx.mu.Lock()
	idx.repoSnapshot = nil
	idx.mu.Unlock()
	return idx.persist()
}

// SetMovieBatchVersion bumps the locally recorded version of a movie
// batch only when serverHash (the server-reported content hash) matches
// the hash of localBytes; this is how the client confirms the server's
// idea of "new version" agrees with what it would actually cache,
// before committing to a higher version number.
func (idx *CacheIndex) SetMovieBatchVersion(libraryID ids.LibraryID, batchID string, newVersion uint64, serverHash uint64, localBytes []byte) (bool, error) {
	if ContentHashU64(localBytes) != serverHash {
		return false, nil
	}

	idx.mu.Lock()
	entry, ok := idx.movieBatches[batchKey{libraryID, batchID}]
	if !ok {
		idx.mu.Unlock()
		return false, nil
	}
	if entry.Version == newVersion {
		idx.mu.Unlock()
		return false, nil
	}
	entry.Version = newVersion
	idx.movieBatches[batchKey{libraryID, batchID}] = entry
	idx.mu.Unlock()

	return true, idx.persist()
}
