// Ferrex media server core
// SPDX-License-Identifier: AGPL-3.0-or-later

/*
Package tokenstore implements the client-side Encrypted Token Store
(spec.md C9): a single fingerprint-bound at-rest blob holding access
and refresh tokens, plus two plain-JSON sibling files under the same
directory.

Store (auth_cache.enc) wraps an AES-256-GCM ciphertext in a JSON
envelope; the key is derived from the device fingerprint and a random
salt via account.DeriveAtRestKey. Every write goes through
renameio.PendingFile for atomic, fsync'd replacement, guarded by a
gofrs/flock advisory lock for the duration of the read-modify-write
cycle, the same pattern internal/jobs' write_unix.go and
internal/daemon's lock file use in the retrieval pack.
*/
package tokenstore
