// Ferrex media server core
// SPDX-License-Identifier: AGPL-3.0-or-later

package tokenstore

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	dir, err := os.MkdirTemp("", "tokenstore-test-*")
	require.NoError(t, err)
	t.Cleanup(func() { os.RemoveAll(dir) })
	return New(dir)
}

func TestStoreSaveLoadRoundTrip(t *testing.T) {
	store := newTestStore(t)
	var fp [32]byte
	fp[0] = 0x11

	auth := StoredAuth{
		AccessToken:  "access-xyz",
		RefreshToken: "refresh-xyz",
		User:         "alice",
		ServerURL:    "https://ferrex.example",
		StoredAt:     time.Now().UTC().Truncate(time.Second),
	}

	require.NoError(t, store.Save(auth, fp))

	loaded, err := store.Load(fp)
	require.NoError(t, err)
	require.NotNil(t, loaded)
	require.Equal(t, auth.AccessToken, loaded.AccessToken)
	require.Equal(t, auth.RefreshToken, loaded.RefreshToken)
	require.Equal(t, auth.User, loaded.User)
}

func TestStoreLoadAbsentFileIsNilNil(t *testing.T) {
	store := newTestStore(t)
	var fp [32]byte

	loaded, err := store.Load(fp)
	require.NoError(t, err)
	require.Nil(t, loaded)
}

func TestStoreLoadFingerprintMismatch(t *testing.T) {
	store := newTestStore(t)
	var fpA, fpB [32]byte
	fpA[0] = 1
	fpB[0] = 2

	require.NoError(t, store.Save(StoredAuth{AccessToken: "tok"}, fpA))

	_, err := store.Load(fpB)
	require.ErrorIs(t, err, ErrFingerprintChanged)
}

func TestStoreLoadRejectsNonV2SchemaAsMiss(t *testing.T) {
	store := newTestStore(t)
	var fp [32]byte

	require.NoError(t, os.MkdirAll(store.Dir, 0o700))
	v1 := `{"schema_version":1,"nonce":"","ciphertext":"deadbeef","salt":""}`
	require.NoError(t, os.WriteFile(filepath.Join(store.Dir, fileName), []byte(v1), 0o600))

	loaded, err := store.Load(fp)
	require.NoError(t, err)
	require.Nil(t, loaded)
}

func TestStoreClearIsIdempotent(t *testing.T) {
	store := newTestStore(t)
	var fp [32]byte

	require.NoError(t, store.Save(StoredAuth{AccessToken: "tok"}, fp))
	require.NoError(t, store.Clear())
	require.NoError(t, store.Clear())

	loaded, err := store.Load(fp)
	require.NoError(t, err)
	require.Nil(t, loaded)
}

func TestAutoLoginStoreSetAndLoad(t *testing.T) {
	dir, err := os.MkdirTemp("", "tokenstore-autologin-*")
	require.NoError(t, err)
	t.Cleanup(func() { os.RemoveAll(dir) })

	store := NewAutoLoginStore(dir)
	entries, err := store.Load()
	require.NoError(t, err)
	require.Empty(t, entries)

	require.NoError(t, store.Set("user-1", true))
	entries, err = store.Load()
	require.NoError(t, err)
	require.True(t, entries["user-1"])
}

func TestAdminPinUnlockStoreSaveLoad(t *testing.T) {
	dir, err := os.MkdirTemp("", "tokenstore-adminpin-*")
	require.NoError(t, err)
	t.Cleanup(func() { os.RemoveAll(dir) })

	store := NewAdminPinUnlockStore(dir)
	state, err := store.Load()
	require.NoError(t, err)
	require.False(t, state.Enabled)

	want := AdminPinUnlock{Enabled: true, UnlockedBy: "user-1", UnlockedAt: time.Now().UTC().Truncate(time.Second)}
	require.NoError(t, store.Save(want))

	got, err := store.Load()
	require.NoError(t, err)
	require.Equal(t, want.Enabled, got.Enabled)
	require.Equal(t, want.UnlockedBy, got.UnlockedBy)
}
