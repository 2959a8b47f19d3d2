// Ferrex media server core
// SPDX-License-Identifier: AGPL-3.0-or-later

/*
Package mediarepo implements the client-side Archived Media Repo,
Media Cache, and Library Query Engine (spec.md C10-C12): a zero-copy
archived snapshot with a mutable runtime overlay, a content-addressed
blob store with an atomically-persisted index, and the sorting/
filtering operations a library browser needs.

Components:

  - Repo (repo.go): the merge view over an immutable archived snapshot
    and a RuntimeOverlay (overlay.go), a read-through layering where
    archived data is the cold tier and the overlay is the hot tier.
  - BlobStore (blobstore.go): content-addressed storage keyed by
    sha256 integrity string.
  - CacheIndex (cache_index.go): the atomically-persisted JSON index
    describing movie batches, series bundles, and the repo snapshot,
    grounded on internal/config's atomic-write discipline, now via
    renameio + flock.
  - QueryEngine (query.go): sorting, title position mapping, and
    filtered-index computation.

This package holds no filesystem scan state; it is the client-facing
half of the pipeline the scan package's orchestrator feeds on the
server side.
*/
package mediarepo
