// Ferrex media server core
// SPDX-License-Identifier: AGPL-3.0-or-later

package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Prometheus Metrics Integration for Production Observability
// This package provides comprehensive instrumentation for:
// - Library scan pipeline throughput and error rates
// - Folder scan actor circuit breaker state
// - Media cache and dedup cache efficiency
// - Device session and account authentication events
// - Encrypted token store persistence

var (
	// Scan Pipeline Metrics
	ScanFoldersProcessed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "scan_folders_processed_total",
			Help: "Total number of folder jobs processed by the scan pipeline",
		},
		[]string{"library_id", "outcome"}, // outcome: "completed", "failed", "retried"
	)

	ScanFolderDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "scan_folder_duration_seconds",
			Help:    "Duration of a single folder scan job in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"library_id"},
	)

	ScanFilesDiscovered = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "scan_files_discovered_total",
			Help: "Total number of MediaFileDiscovered events emitted",
		},
		[]string{"library_id", "media_kind"}, // media_kind: "movie", "episode", "extra"
	)

	ScanFilesDeduplicated = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "scan_files_deduplicated_total",
			Help: "Total number of files skipped because the fingerprint was already seen",
		},
		[]string{"library_id"},
	)

	ScanActiveFolderJobs = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "scan_active_folder_jobs",
			Help: "Current number of folder scan actors running under the orchestrator",
		},
		[]string{"library_id"},
	)

	ScanRetryQueueDepth = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "scan_retry_queue_depth",
			Help: "Current number of folder jobs waiting in the retry priority queue",
		},
	)

	ScanOrchestratorPauses = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "scan_orchestrator_pauses_total",
			Help: "Total number of times the scan orchestrator was paused",
		},
	)

	// Media Cache Metrics
	CacheHits = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cache_hits_total",
			Help: "Total number of cache hits",
		},
		[]string{"cache_type"}, // "media_cache", "archived_snapshot", "dedup_fingerprint"
	)

	CacheMisses = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cache_misses_total",
			Help: "Total number of cache misses",
		},
		[]string{"cache_type"},
	)

	CacheSize = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "cache_entries",
			Help: "Current number of cached entries",
		},
		[]string{"cache_type"},
	)

	CacheEvictions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cache_evictions_total",
			Help: "Total number of cache evictions (LRU or TTL expiry)",
		},
		[]string{"cache_type"},
	)

	MediaCacheBytesStored = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "media_cache_bytes_stored",
			Help: "Total bytes of blob content held in the content-addressed media cache",
		},
	)

	MediaCacheIndexWrites = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "media_cache_index_writes_total",
			Help: "Total number of atomic writes to the media cache index",
		},
		[]string{"outcome"}, // "success", "failed"
	)

	// Circuit Breaker Metrics (folder job retry/backoff)
	CircuitBreakerState = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "circuit_breaker_state",
			Help: "Circuit breaker state (0=closed, 1=half-open, 2=open)",
		},
		[]string{"name"},
	)

	CircuitBreakerRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "circuit_breaker_requests_total",
			Help: "Total number of requests through circuit breaker",
		},
		[]string{"name", "result"}, // result: "success", "failure", "rejected"
	)

	CircuitBreakerConsecutiveFailures = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "circuit_breaker_consecutive_failures",
			Help: "Current number of consecutive failures",
		},
		[]string{"name"},
	)

	CircuitBreakerTransitions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "circuit_breaker_state_transitions_total",
			Help: "Total number of circuit breaker state transitions",
		},
		[]string{"name", "from_state", "to_state"},
	)

	// Authentication & Device Trust Metrics
	AuthLoginAttempts = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "auth_login_attempts_total",
			Help: "Total number of password login attempts",
		},
		[]string{"outcome"}, // "success", "bad_credentials", "locked"
	)

	AuthAccountLockouts = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "auth_account_lockouts_total",
			Help: "Total number of accounts locked after repeated failed logins",
		},
	)

	DeviceSessionsActive = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "device_sessions_active",
			Help: "Current number of trusted device sessions",
		},
	)

	DevicePinAttempts = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "device_pin_attempts_total",
			Help: "Total number of device PIN authentication attempts",
		},
		[]string{"outcome"}, // "success", "bad_pin", "locked"
	)

	DevicePinLockouts = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "device_pin_lockouts_total",
			Help: "Total number of device sessions locked after repeated failed PIN attempts",
		},
	)

	ClaimTokensIssued = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "claim_tokens_issued_total",
			Help: "Total number of first-run claim tokens issued",
		},
	)

	TokenStoreWrites = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "token_store_writes_total",
			Help: "Total number of atomic writes to the encrypted token store",
		},
		[]string{"outcome"}, // "success", "failed"
	)

	// System Metrics
	AppInfo = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "app_info",
			Help: "Application version and build information",
		},
		[]string{"version", "go_version"},
	)

	AppUptime = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "app_uptime_seconds",
			Help: "Application uptime in seconds",
		},
	)
)

// RecordScanFolderCompletion records the outcome and duration of a single folder job.
func RecordScanFolderCompletion(libraryID, outcome string, duration time.Duration) {
	ScanFoldersProcessed.WithLabelValues(libraryID, outcome).Inc()
	ScanFolderDuration.WithLabelValues(libraryID).Observe(duration.Seconds())
}

// RecordFileDiscovered records a MediaFileDiscovered event being emitted.
func RecordFileDiscovered(libraryID, mediaKind string) {
	ScanFilesDiscovered.WithLabelValues(libraryID, mediaKind).Inc()
}

// RecordFileDeduplicated records a file being skipped because it was already known.
func RecordFileDeduplicated(libraryID string) {
	ScanFilesDeduplicated.WithLabelValues(libraryID).Inc()
}

// SetActiveFolderJobs sets the current gauge of active folder scan actors for a library.
func SetActiveFolderJobs(libraryID string, count int) {
	ScanActiveFolderJobs.WithLabelValues(libraryID).Set(float64(count))
}

// SetRetryQueueDepth sets the current depth of the scan orchestrator's retry queue.
func SetRetryQueueDepth(depth int) {
	ScanRetryQueueDepth.Set(float64(depth))
}

// RecordLoginAttempt records a password login attempt and its outcome.
func RecordLoginAttempt(outcome string) {
	AuthLoginAttempts.WithLabelValues(outcome).Inc()
	if outcome == "locked" {
		AuthAccountLockouts.Inc()
	}
}

// RecordDevicePinAttempt records a device PIN authentication attempt and its outcome.
func RecordDevicePinAttempt(outcome string) {
	DevicePinAttempts.WithLabelValues(outcome).Inc()
	if outcome == "locked" {
		DevicePinLockouts.Inc()
	}
}

// RecordTokenStoreWrite records an atomic write to the encrypted token store.
func RecordTokenStoreWrite(success bool) {
	outcome := "success"
	if !success {
		outcome = "failed"
	}
	TokenStoreWrites.WithLabelValues(outcome).Inc()
}

// RecordMediaCacheIndexWrite records an atomic write to the media cache index.
func RecordMediaCacheIndexWrite(success bool) {
	outcome := "success"
	if !success {
		outcome = "failed"
	}
	MediaCacheIndexWrites.WithLabelValues(outcome).Inc()
}
