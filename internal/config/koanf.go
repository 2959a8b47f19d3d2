// Ferrex media server core
// SPDX-License-Identifier: AGPL-3.0-or-later

package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"
)

// DefaultConfigPaths lists the paths where config files are searched in order of priority.
// The first file found will be used.
var DefaultConfigPaths = []string{
	"config.yaml",
	"config.yml",
	"/etc/ferrex/config.yaml",
	"/etc/ferrex/config.yml",
}

// ConfigPathEnvVar is the environment variable that can override the config file path.
const ConfigPathEnvVar = "CONFIG_PATH"

// defaultConfig returns a Config struct with all sensible default values.
// These defaults are applied first, then overridden by config file and env vars.
func defaultConfig() *Config {
	return &Config{
		Scan: ScanConfig{
			FolderConcurrency:         8,
			RetryMaxAttempts:          5,
			RetryInitialBackoff:       2 * time.Second,
			RetryMaxBackoff:           5 * time.Minute,
			CircuitBreakerThreshold:   5,
			CircuitBreakerOpenTimeout: 30 * time.Second,
		},
		Security: SecurityConfig{
			Argon2Memory:      64 * 1024, // 64MB, per RFC 9106 first recommendation
			Argon2Time:        3,
			Argon2Parallelism: 2,
			Argon2KeyLength:   32,
			JWTSecret:         "",
			JWTIssuer:         "ferrex",
			ClaimTokenTTL:     15 * time.Minute,
			SessionTimeout:    30 * 24 * time.Hour,
			AccountLockout: LockoutPolicyConfig{
				MaxAttempts:     5,
				LockoutDuration: 15 * time.Minute,
			},
			DevicePinLockout: LockoutPolicyConfig{
				MaxAttempts:     5,
				LockoutDuration: 15 * time.Minute,
			},
			PasswordPolicy: "default",
		},
		Storage: StorageConfig{
			DataDir:            "/data/ferrex",
			SessionStorePath:   "/data/ferrex/sessions",
			TokenStorePath:     "/data/ferrex/auth_cache.enc",
			MediaCacheDir:      "/data/ferrex/cache",
			ArchivedSnapshotID: "",
		},
		Server: ServerConfig{
			Host:        "0.0.0.0",
			Port:        8420,
			Timeout:     30 * time.Second,
			Environment: "development",
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
			Caller: false,
		},
	}
}

// LoadWithKoanf loads configuration using Koanf v2 with layered sources:
//  1. Defaults: Built-in sensible defaults
//  2. Config File: Optional YAML config file (if exists)
//  3. Environment Variables: Override any setting
//
// This function is the preferred way to load configuration and provides:
//   - Type-safe configuration unmarshaling
//   - Clear precedence: ENV > File > Defaults
//   - Support for nested configuration via koanf struct tags
func LoadWithKoanf() (*Config, error) {
	k := koanf.New(".")

	// Layer 1: Load defaults from struct
	defaults := defaultConfig()
	if err := k.Load(structs.Provider(defaults, "koanf"), nil); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	// Layer 2: Load config file (optional)
	configPath := findConfigFile()
	if configPath != "" {
		if err := k.Load(file.Provider(configPath), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", configPath, err)
		}
	}

	// Layer 3: Load environment variables (highest priority)
	// Transform environment variable names to koanf paths:
	// FERREX_JWT_SECRET -> security.jwt_secret
	// SCAN_FOLDER_CONCURRENCY -> scan.folder_concurrency
	envProvider := env.Provider("", ".", envTransformFunc)
	if err := k.Load(envProvider, nil); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	// Unmarshal into Config struct
	cfg := &Config{}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal configuration: %w", err)
	}

	// Validate the configuration
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return cfg, nil
}

// findConfigFile searches for a config file in the default paths.
// Returns the path to the first file found, or empty string if none found.
func findConfigFile() string {
	// Check environment variable first
	if envPath := os.Getenv(ConfigPathEnvVar); envPath != "" {
		if _, err := os.Stat(envPath); err == nil {
			return envPath
		}
	}

	// Search default paths
	for _, path := range DefaultConfigPaths {
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}

	return ""
}

// envTransformFunc transforms environment variable names to koanf config paths.
//
// Examples:
//   - FERREX_JWT_SECRET -> security.jwt_secret
//   - SCAN_FOLDER_CONCURRENCY -> scan.folder_concurrency
//   - DATA_DIR -> storage.data_dir
//   - HTTP_PORT -> server.port
func envTransformFunc(key string) string {
	key = strings.ToLower(key)

	envMappings := map[string]string{
		// Scan pipeline
		"scan_folder_concurrency":           "scan.folder_concurrency",
		"scan_retry_max_attempts":           "scan.retry_max_attempts",
		"scan_retry_initial_backoff":        "scan.retry_initial_backoff",
		"scan_retry_max_backoff":            "scan.retry_max_backoff",
		"scan_circuit_breaker_threshold":    "scan.circuit_breaker_threshold",
		"scan_circuit_breaker_open_timeout": "scan.circuit_breaker_open_timeout",

		// Security / authentication
		"ferrex_jwt_secret":            "security.jwt_secret",
		"jwt_secret":                   "security.jwt_secret",
		"jwt_issuer":                   "security.jwt_issuer",
		"claim_token_ttl":              "security.claim_token_ttl",
		"session_timeout":              "security.session_timeout",
		"argon2_memory_kib":            "security.argon2_memory",
		"argon2_time":                  "security.argon2_time",
		"argon2_parallelism":           "security.argon2_parallelism",
		"account_lockout_max_attempts": "security.account_lockout.max_attempts",
		"account_lockout_duration":     "security.account_lockout.lockout_duration",
		"device_pin_max_attempts":      "security.device_pin_lockout.max_attempts",
		"device_pin_lockout_duration":  "security.device_pin_lockout.lockout_duration",
		"password_policy":              "security.password_policy",

		// Storage
		"data_dir":             "storage.data_dir",
		"session_store_path":   "storage.session_store_path",
		"token_store_path":     "storage.token_store_path",
		"media_cache_dir":      "storage.media_cache_dir",
		"archived_snapshot_id": "storage.archived_snapshot_id",

		// Server
		"http_port":   "server.port",
		"http_host":   "server.host",
		"http_timeout": "server.timeout",
		"environment": "server.environment",

		// Logging
		"log_level":  "logging.level",
		"log_format": "logging.format",
		"log_caller": "logging.caller",
	}

	if mapped, ok := envMappings[key]; ok {
		return mapped
	}

	// For unmapped keys, return empty string to skip them.
	// This prevents random environment variables from polluting config.
	return ""
}

// GetKoanfInstance returns a new Koanf instance for advanced usage, e.g.
// hot-reload scenarios with the caller providing its own mutex protection.
func GetKoanfInstance() *koanf.Koanf {
	return koanf.New(".")
}

// WatchConfigFile sets up a file watcher for hot-reload capability.
// Note: The caller is responsible for mutex protection when accessing
// configuration during reloads.
//
// Example usage:
//
//	var cfgMu sync.RWMutex
//	var cfg *Config
//
//	err := WatchConfigFile(configPath, func() {
//	    cfgMu.Lock()
//	    defer cfgMu.Unlock()
//	    newCfg, err := LoadWithKoanf()
//	    if err != nil {
//	        log.Printf("Config reload failed: %v", err)
//	        return
//	    }
//	    cfg = newCfg
//	})
func WatchConfigFile(path string, callback func()) error {
	provider := file.Provider(path)

	return provider.Watch(func(event interface{}, err error) {
		if err != nil {
			return
		}
		callback()
	})
}
