// Ferrex media server core
// SPDX-License-Identifier: AGPL-3.0-or-later

package config

import (
	"fmt"
	"time"
)

// Config is the root configuration for the media server core: the scan
// pipeline, authentication and device trust, and the client-side media
// repository surface.
type Config struct {
	Scan     ScanConfig     `koanf:"scan"`
	Security SecurityConfig `koanf:"security"`
	Storage  StorageConfig  `koanf:"storage"`
	Server   ServerConfig   `koanf:"server"`
	Logging  LoggingConfig  `koanf:"logging"`
}

// ScanConfig controls the library scan pipeline: folder actor concurrency,
// retry/backoff behavior, and the circuit breaker guarding folder jobs.
type ScanConfig struct {
	// FolderConcurrency bounds how many folder scan actors run at once.
	FolderConcurrency int `koanf:"folder_concurrency"`

	// RetryMaxAttempts is the number of times a folder job is retried
	// before it is dropped to the dead letter path.
	RetryMaxAttempts int `koanf:"retry_max_attempts"`

	// RetryInitialBackoff and RetryMaxBackoff bound the exponential
	// backoff applied between folder job retries.
	RetryInitialBackoff time.Duration `koanf:"retry_initial_backoff"`
	RetryMaxBackoff     time.Duration `koanf:"retry_max_backoff"`

	// CircuitBreakerThreshold is the consecutive-failure count that trips
	// a folder's circuit breaker open.
	CircuitBreakerThreshold uint32 `koanf:"circuit_breaker_threshold"`

	// CircuitBreakerOpenTimeout is how long a tripped breaker stays open
	// before allowing a half-open probe.
	CircuitBreakerOpenTimeout time.Duration `koanf:"circuit_breaker_open_timeout"`
}

// LockoutPolicyConfig describes a failed-attempt lockout policy shared by
// account login and device PIN entry.
type LockoutPolicyConfig struct {
	MaxAttempts     int           `koanf:"max_attempts"`
	LockoutDuration time.Duration `koanf:"lockout_duration"`
}

// SecurityConfig controls authentication, device trust, and the encrypted
// token store: Argon2id parameters, claim/session lifetimes, and lockout
// policy.
type SecurityConfig struct {
	// Argon2Memory, Argon2Time and Argon2Parallelism are Argon2id
	// parameters for password and device PIN hashing.
	Argon2Memory      uint32 `koanf:"argon2_memory"`
	Argon2Time        uint32 `koanf:"argon2_time"`
	Argon2Parallelism uint8  `koanf:"argon2_parallelism"`
	Argon2KeyLength   uint32 `koanf:"argon2_key_length"`

	// JWTSecret signs First-Run Claim tokens. Required in production.
	JWTSecret string `koanf:"jwt_secret"`
	JWTIssuer string `koanf:"jwt_issuer"`

	// ClaimTokenTTL bounds how long an unclaimed First-Run Claim token
	// remains valid.
	ClaimTokenTTL time.Duration `koanf:"claim_token_ttl"`

	// SessionTimeout is the default device session lifetime before a
	// trusted device must re-establish trust.
	SessionTimeout time.Duration `koanf:"session_timeout"`

	AccountLockout   LockoutPolicyConfig `koanf:"account_lockout"`
	DevicePinLockout LockoutPolicyConfig `koanf:"device_pin_lockout"`

	// PasswordPolicy selects "default" (DefaultPasswordPolicy) or
	// "relaxed" (RelaxedPasswordPolicy).
	PasswordPolicy string `koanf:"password_policy"`
}

// StorageConfig controls where durable state lives on disk: device
// sessions, the encrypted token store, and the content-addressed media
// cache.
type StorageConfig struct {
	DataDir            string `koanf:"data_dir"`
	SessionStorePath   string `koanf:"session_store_path"`
	TokenStorePath     string `koanf:"token_store_path"`
	MediaCacheDir      string `koanf:"media_cache_dir"`
	ArchivedSnapshotID string `koanf:"archived_snapshot_id"`
}

// ServerConfig controls the HTTP transport layer.
type ServerConfig struct {
	Host        string        `koanf:"host"`
	Port        int           `koanf:"port"`
	Timeout     time.Duration `koanf:"timeout"`
	Environment string        `koanf:"environment"`
}

// LoggingConfig controls zerolog output.
type LoggingConfig struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format"`
	Caller bool   `koanf:"caller"`
}

// Validate checks the configuration for internal consistency and rejects
// values that would leave the scan pipeline or auth layer in an unsafe
// state.
func (c *Config) Validate() error {
	if c.Scan.FolderConcurrency < 1 {
		return fmt.Errorf("scan.folder_concurrency must be >= 1, got %d", c.Scan.FolderConcurrency)
	}
	if c.Scan.RetryMaxAttempts < 0 {
		return fmt.Errorf("scan.retry_max_attempts must be >= 0, got %d", c.Scan.RetryMaxAttempts)
	}
	if c.Scan.CircuitBreakerThreshold < 1 {
		return fmt.Errorf("scan.circuit_breaker_threshold must be >= 1, got %d", c.Scan.CircuitBreakerThreshold)
	}

	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port must be between 1 and 65535, got %d", c.Server.Port)
	}

	if c.Server.Environment == "production" && c.Security.JWTSecret == "" {
		return fmt.Errorf("security.jwt_secret is required when server.environment=production")
	}
	if c.Security.JWTSecret != "" && len(c.Security.JWTSecret) < 32 {
		return fmt.Errorf("security.jwt_secret must be at least 32 characters, got %d", len(c.Security.JWTSecret))
	}

	if c.Security.Argon2Memory < 8*1024 {
		return fmt.Errorf("security.argon2_memory must be at least 8192 KiB, got %d", c.Security.Argon2Memory)
	}
	if c.Security.Argon2Time < 1 {
		return fmt.Errorf("security.argon2_time must be >= 1, got %d", c.Security.Argon2Time)
	}
	if c.Security.Argon2Parallelism < 1 {
		return fmt.Errorf("security.argon2_parallelism must be >= 1, got %d", c.Security.Argon2Parallelism)
	}

	if c.Security.AccountLockout.MaxAttempts < 1 {
		return fmt.Errorf("security.account_lockout.max_attempts must be >= 1, got %d", c.Security.AccountLockout.MaxAttempts)
	}
	if c.Security.DevicePinLockout.MaxAttempts < 1 {
		return fmt.Errorf("security.device_pin_lockout.max_attempts must be >= 1, got %d", c.Security.DevicePinLockout.MaxAttempts)
	}

	switch c.Security.PasswordPolicy {
	case "default", "relaxed":
	default:
		return fmt.Errorf("security.password_policy must be %q or %q, got %q", "default", "relaxed", c.Security.PasswordPolicy)
	}

	if c.Storage.DataDir == "" {
		return fmt.Errorf("storage.data_dir is required")
	}

	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("logging.level must be one of debug/info/warn/error, got %q", c.Logging.Level)
	}

	return nil
}

// ResolvePasswordPolicy returns the PasswordPolicy selected by
// Security.PasswordPolicy.
func (c *Config) ResolvePasswordPolicy() PasswordPolicy {
	if c.Security.PasswordPolicy == "relaxed" {
		return RelaxedPasswordPolicy()
	}
	return DefaultPasswordPolicy()
}
