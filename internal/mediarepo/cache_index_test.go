// Ferrex media server core
// SPDX-License-Identifier: AGPL-3.0-or-later

package mediarepo

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ferrex/mediaserver/internal/ids"
)

func TestCacheIndexPutAndListMovieBatches(t *testing.T) {
	idx, err := OpenCacheIndex(t.TempDir())
	require.NoError(t, err)

	libraryID := ids.NewLibraryID()
	entry := BatchEntry{Version: 1, Integrity: "sha256-abc", ByteLen: 10}
	require.NoError(t, idx.PutMovieBatch(libraryID, "batch-1", entry))

	listed := idx.ListMovieBatchesForLibrary(libraryID)
	require.Contains(t, listed, "batch-1")
	assert.Equal(t, entry, listed["batch-1"])
}

func TestCacheIndexPersistsAcrossReopen(t *testing.T) {
	dir := t.TempDir()
	idx, err := OpenCacheIndex(dir)
	require.NoError(t, err)

	libraryID := ids.NewLibraryID()
	require.NoError(t, idx.PutSeriesBundle(libraryID, "series-1", BatchEntry{Version: 3, Integrity: "sha256-xyz"}))

	reopened, err := OpenCacheIndex(dir)
	require.NoError(t, err)
	listed := reopened.ListSeriesBundlesForLibrary(libraryID)
	assert.Equal(t, uint64(3), listed["series-1"].Version)
}

func TestCacheIndexFailsOpenOnMalformedFile(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "index.json"), []byte("{not json"), 0o600))

	idx, err := OpenCacheIndex(dir)
	require.NoError(t, err)
	assert.Empty(t, idx.ListMovieBatchesForLibrary(ids.NewLibraryID()))
}

func TestCacheIndexRemoveMovieBatch(t *testing.T) {
	idx, err := OpenCacheIndex(t.TempDir())
	require.NoError(t, err)

	libraryID := ids.NewLibraryID()
	require.NoError(t, idx.PutMovieBatch(libraryID, "batch-1", BatchEntry{Version: 1}))
	require.NoError(t, idx.RemoveMovieBatch(libraryID, "batch-1"))

	assert.Empty(t, idx.ListMovieBatchesForLibrary(libraryID))
}

func TestCacheIndexInvalidateRepoSnapshot(t *testing.T) {
	idx, err := OpenCacheIndex(t.TempDir())
	require.NoError(t, err)

	require.NoError(t, idx.PutRepoSnapshot(BatchEntry{Integrity: "sha256-snap", ByteLen: 5}))
	require.NotNil(t, idx.repoSnapshot)

	require.NoError(t, idx.InvalidateRepoSnapshot())
	assert.Nil(t, idx.repoSnapshot)
}

func TestCacheIndexSetMovieBatchVersionRequiresHashMatch(t *testing.T) {
	idx, err := OpenCacheIndex(t.TempDir())
	require.NoError(t, err)

	libraryID := ids.NewLibraryID()
	localBytes := []byte("cached batch bytes")
	require.NoError(t, idx.PutMovieBatch(libraryID, "batch-1", BatchEntry{Version: 1}))

	changed, err := idx.SetMovieBatchVersion(libraryID, "batch-1", 2, ContentHashU64([]byte("wrong bytes")), localBytes)
	require.NoError(t, err)
	assert.False(t, changed)

	listed := idx.ListMovieBatchesForLibrary(libraryID)
	assert.Equal(t, uint64(1), listed["batch-1"].Version)
}

func TestCacheIndexSetMovieBatchVersionNoopWhenUnchanged(t *testing.T) {
	idx, err := OpenCacheIndex(t.TempDir())
	require.NoError(t, err)

	libraryID := ids.NewLibraryID()
	localBytes := []byte("cached batch bytes")
	hash := ContentHashU64(localBytes)
	require.NoError(t, idx.PutMovieBatch(libraryID, "batch-7", BatchEntry{Version: 1}))

	changed, err := idx.SetMovieBatchVersion(libraryID, "batch-7", 1, hash, localBytes)
	require.NoError(t, err)
	assert.False(t, changed, "calling with the same version must report no change")

	changed, err = idx.SetMovieBatchVersion(libraryID, "batch-7", 2, hash, localBytes)
	require.NoError(t, err)
	assert.True(t, changed, "a genuine version bump must report a change")

	listed := idx.ListMovieBatchesForLibrary(libraryID)
	assert.Equal(t, uint64(2), listed["batch-7"].Version)
}

func TestCacheIndexSetMovieBatchVersionUnknownBatch(t *testing.T) {
	idx, err := OpenCacheIndex(t.TempDir())
	require.NoError(t, err)

	localBytes := []byte("bytes")
	changed, err := idx.SetMovieBatchVersion(ids.NewLibraryID(), "missing", 2, ContentHashU64(localBytes), localBytes)
	require.NoError(t, err)
	assert.False(t, changed)
}
