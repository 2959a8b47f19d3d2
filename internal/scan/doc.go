// Ferrex media server core
// SPDX-License-Identifier: AGPL-3.0-or-later

/*
Package scan implements the library scan pipeline: a hierarchical,
resumable, pausable actor pipeline that walks filesystem trees,
classifies directories as movie/series/season nodes, and emits typed
MediaFileDiscovered events downstream.

Components:

  - Context types (context.go): smart constructors enforcing the
    series-root / season-folder / movie-root hierarchy invariants.
  - Filename parsers (parsers.go): season/episode number extraction and
    extras classification, independent of the filesystem.
  - Folder Scan Actor (actor.go): one job per folder — plan the
    directory listing, discover media files, derive child contexts.
  - Scan Orchestrator (orchestrator.go): spawns folder scan actors under
    a bounded worker pool, tracks progress, and serves pause/resume/
    cancel per scan.

Folder scan actors run as suture.Service instances under the scan layer
of internal/supervisor.SupervisorTree so a panic in one folder job
restarts that job without affecting the rest of the scan or any other
subsystem. Per-folder retry on transient I/O failure is guarded by a
github.com/sony/gobreaker/v2 circuit breaker keyed by library ID.
MediaFileDiscovered events are published on an in-process
github.com/ThreeDotsLabs/watermill GoChannel bus for downstream analysis
and metadata stages to consume.
*/
package scan
