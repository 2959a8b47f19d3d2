// Ferrex media server core
// SPDX-License-Identifier: AGPL-3.0-or-later

/*
Package metrics provides Prometheus metrics collection and export for observability.

This package implements comprehensive application instrumentation using the Prometheus
client library, exposing metrics for monitoring scan throughput, cache efficiency,
and authentication activity.

# Overview

The package provides metrics for:
  - Scan pipeline throughput: folders processed, files discovered, dedup rate
  - Folder scan actor circuit breaker state transitions
  - Media cache and archived-snapshot cache hit/miss rates
  - Device session and account authentication outcomes
  - Encrypted token store and media cache index write outcomes

# Metrics Endpoint

Metrics are exposed at the /metrics endpoint in Prometheus text format:

	curl http://localhost:8420/metrics

# Available Metrics

Scan Pipeline Metrics:
  - scan_folders_processed_total: Folder jobs processed (counter)
    Labels: library_id, outcome (completed, failed, retried)
  - scan_folder_duration_seconds: Folder job duration (histogram)
    Labels: library_id
  - scan_files_discovered_total: MediaFileDiscovered events emitted (counter)
    Labels: library_id, media_kind (movie, episode, extra)
  - scan_files_deduplicated_total: Files skipped as already-seen (counter)
    Labels: library_id
  - scan_active_folder_jobs: Folder scan actors currently running (gauge)
    Labels: library_id
  - scan_retry_queue_depth: Folder jobs waiting on retry backoff (gauge)
  - scan_orchestrator_pauses_total: Orchestrator pause operations (counter)

Cache Metrics:
  - cache_hits_total / cache_misses_total: Cache effectiveness (counters)
    Labels: cache_type (media_cache, archived_snapshot, dedup_fingerprint)
  - cache_entries: Current cache size (gauge)
  - cache_evictions_total: LRU/TTL evictions (counter)
  - media_cache_bytes_stored: Total blob bytes held by the media cache (gauge)
  - media_cache_index_writes_total: Atomic index write outcomes (counter)

Circuit Breaker Metrics (folder job retry/backoff):
  - circuit_breaker_state: 0=closed, 1=half-open, 2=open (gauge)
  - circuit_breaker_requests_total: Requests by result (counter)
  - circuit_breaker_consecutive_failures: Current failure streak (gauge)
  - circuit_breaker_state_transitions_total: State changes (counter)

Authentication & Device Trust Metrics:
  - auth_login_attempts_total: Password login attempts by outcome (counter)
  - auth_account_lockouts_total: Accounts locked after failed logins (counter)
  - device_sessions_active: Trusted device sessions (gauge)
  - device_pin_attempts_total: Device PIN attempts by outcome (counter)
  - device_pin_lockouts_total: Device sessions locked after failed PINs (counter)
  - claim_tokens_issued_total: First-run claim tokens issued (counter)
  - token_store_writes_total: Encrypted token store write outcomes (counter)

# Recording Helpers

Most metrics are recorded through small helper functions rather than touched
directly, so call sites don't need to know label ordering:

	metrics.RecordScanFolderCompletion(libraryID, "completed", elapsed)
	metrics.RecordFileDiscovered(libraryID, "movie")
	metrics.RecordLoginAttempt("success")
	metrics.RecordDevicePinAttempt("locked")

# Thread Safety

All metric types from the Prometheus client library are safe for concurrent
use; the recording helpers in this package add no additional locking.
*/
package metrics
