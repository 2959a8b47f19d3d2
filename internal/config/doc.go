// Ferrex media server core
// SPDX-License-Identifier: AGPL-3.0-or-later

/*
Package config provides centralized configuration management for the media
server core.

This package handles loading, validation, and parsing of configuration for
the scan pipeline, authentication and device trust, and the HTTP transport
layer. It ensures consistent configuration across components and provides
sensible defaults for optional settings.

# Configuration Sources

Configuration is loaded in three layers, using Koanf:

  - Built-in defaults (defaultConfig)
  - An optional YAML config file (config.yaml, or CONFIG_PATH)
  - Environment variables, which take highest precedence

# Configuration Structure

  - ScanConfig: folder scan actor concurrency, retry/backoff, circuit breaker
  - SecurityConfig: Argon2id parameters, claim token/session lifetimes,
    account and device PIN lockout policy
  - StorageConfig: data directory, device session store path, encrypted
    token store path, media cache directory
  - ServerConfig: HTTP bind address, port, timeout, environment
  - LoggingConfig: zerolog level, format, caller info

# Environment Variables

Scan pipeline:
  - SCAN_FOLDER_CONCURRENCY: folder scan actor concurrency (default: 8)
  - SCAN_RETRY_MAX_ATTEMPTS: folder job retry attempts (default: 5)
  - SCAN_RETRY_INITIAL_BACKOFF / SCAN_RETRY_MAX_BACKOFF: backoff bounds
  - SCAN_CIRCUIT_BREAKER_THRESHOLD: consecutive failures to trip open (default: 5)
  - SCAN_CIRCUIT_BREAKER_OPEN_TIMEOUT: time before a half-open probe

Security:
  - JWT_SECRET: signs First-Run Claim tokens (min 32 chars, required in production)
  - JWT_ISSUER: claim token issuer (default: ferrex)
  - CLAIM_TOKEN_TTL: First-Run Claim token lifetime (default: 15m)
  - SESSION_TIMEOUT: device session lifetime (default: 720h)
  - ARGON2_MEMORY_KIB / ARGON2_TIME / ARGON2_PARALLELISM: Argon2id parameters
  - ACCOUNT_LOCKOUT_MAX_ATTEMPTS / ACCOUNT_LOCKOUT_DURATION
  - DEVICE_PIN_MAX_ATTEMPTS / DEVICE_PIN_LOCKOUT_DURATION
  - PASSWORD_POLICY: "default" or "relaxed"

Storage:
  - DATA_DIR: base data directory (default: /data/ferrex)
  - SESSION_STORE_PATH: BadgerDB device session store directory
  - TOKEN_STORE_PATH: encrypted token store file path
  - MEDIA_CACHE_DIR: content-addressed media cache directory
  - ARCHIVED_SNAPSHOT_ID: archived media repository snapshot identifier

Server:
  - HTTP_HOST / HTTP_PORT / HTTP_TIMEOUT
  - ENVIRONMENT: development or production

Logging:
  - LOG_LEVEL, LOG_FORMAT, LOG_CALLER

# Usage Example

	import "github.com/ferrex/mediaserver/internal/config"

	cfg, err := config.LoadWithKoanf()
	if err != nil {
	    log.Fatalf("failed to load config: %v", err)
	}

	fmt.Printf("Starting server on %s:%d\n", cfg.Server.Host, cfg.Server.Port)
	fmt.Printf("Media cache: %s\n", cfg.Storage.MediaCacheDir)

# Validation

Validate() rejects configurations that would leave the scan pipeline or auth
layer in an unsafe state: a JWT secret shorter than 32 characters, a missing
JWT secret in production, an unrecognized password policy, or an invalid
logging level.

# Thread Safety

The Config struct is immutable after LoadWithKoanf() returns, making it safe
for concurrent access from multiple goroutines without synchronization.
*/
package config
