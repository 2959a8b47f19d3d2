// Ferrex media server core
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package envsetup implements the §6 ".env merge" external-collaborator
// contract: generating and rotating the managed secrets an operator's
// .env file needs, merging them idempotently into whatever file already
// exists, and writing the result back atomically with its original file
// permissions preserved.
//
// This package owns only the merge/rotate/atomic-write contract. It does
// not know how the resulting .env is consumed; internal/config reads
// environment variables directly via koanf's env provider.
package envsetup
