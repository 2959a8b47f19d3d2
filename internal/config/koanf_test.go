// Ferrex media server core
// SPDX-License-Identifier: AGPL-3.0-or-later

package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

// TestDefaultConfig verifies that defaultConfig() returns proper defaults.
func TestDefaultConfig(t *testing.T) {
	cfg := defaultConfig()

	if cfg.Scan.FolderConcurrency != 8 {
		t.Errorf("Scan.FolderConcurrency = %d, want 8", cfg.Scan.FolderConcurrency)
	}
	if cfg.Scan.RetryMaxAttempts != 5 {
		t.Errorf("Scan.RetryMaxAttempts = %d, want 5", cfg.Scan.RetryMaxAttempts)
	}
	if cfg.Scan.CircuitBreakerThreshold != 5 {
		t.Errorf("Scan.CircuitBreakerThreshold = %d, want 5", cfg.Scan.CircuitBreakerThreshold)
	}

	if cfg.Security.Argon2Memory != 64*1024 {
		t.Errorf("Security.Argon2Memory = %d, want 65536", cfg.Security.Argon2Memory)
	}
	if cfg.Security.Argon2Time != 3 {
		t.Errorf("Security.Argon2Time = %d, want 3", cfg.Security.Argon2Time)
	}
	if cfg.Security.ClaimTokenTTL != 15*time.Minute {
		t.Errorf("Security.ClaimTokenTTL = %v, want 15m", cfg.Security.ClaimTokenTTL)
	}
	if cfg.Security.SessionTimeout != 30*24*time.Hour {
		t.Errorf("Security.SessionTimeout = %v, want 720h", cfg.Security.SessionTimeout)
	}
	if cfg.Security.AccountLockout.MaxAttempts != 5 {
		t.Errorf("Security.AccountLockout.MaxAttempts = %d, want 5", cfg.Security.AccountLockout.MaxAttempts)
	}
	if cfg.Security.PasswordPolicy != "default" {
		t.Errorf("Security.PasswordPolicy = %q, want default", cfg.Security.PasswordPolicy)
	}

	if cfg.Storage.DataDir != "/data/ferrex" {
		t.Errorf("Storage.DataDir = %q, want /data/ferrex", cfg.Storage.DataDir)
	}
	if cfg.Storage.MediaCacheDir != "/data/ferrex/cache" {
		t.Errorf("Storage.MediaCacheDir = %q, want /data/ferrex/cache", cfg.Storage.MediaCacheDir)
	}

	if cfg.Server.Port != 8420 {
		t.Errorf("Server.Port = %d, want 8420", cfg.Server.Port)
	}
	if cfg.Server.Host != "0.0.0.0" {
		t.Errorf("Server.Host = %q, want 0.0.0.0", cfg.Server.Host)
	}

	if cfg.Logging.Level != "info" {
		t.Errorf("Logging.Level = %q, want info", cfg.Logging.Level)
	}
}

// TestEnvTransformFunc verifies environment variable name transformations.
func TestEnvTransformFunc(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"SCAN_FOLDER_CONCURRENCY", "scan.folder_concurrency"},
		{"SCAN_RETRY_MAX_ATTEMPTS", "scan.retry_max_attempts"},
		{"SCAN_CIRCUIT_BREAKER_THRESHOLD", "scan.circuit_breaker_threshold"},

		{"JWT_SECRET", "security.jwt_secret"},
		{"FERREX_JWT_SECRET", "security.jwt_secret"},
		{"CLAIM_TOKEN_TTL", "security.claim_token_ttl"},
		{"ACCOUNT_LOCKOUT_MAX_ATTEMPTS", "security.account_lockout.max_attempts"},
		{"DEVICE_PIN_MAX_ATTEMPTS", "security.device_pin_lockout.max_attempts"},

		{"DATA_DIR", "storage.data_dir"},
		{"MEDIA_CACHE_DIR", "storage.media_cache_dir"},

		{"HTTP_PORT", "server.port"},
		{"HTTP_HOST", "server.host"},

		{"LOG_LEVEL", "logging.level"},

		{"RANDOM_VAR", ""},
		{"PATH", ""},
		{"HOME", ""},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			result := envTransformFunc(tt.input)
			if result != tt.expected {
				t.Errorf("envTransformFunc(%q) = %q, want %q", tt.input, result, tt.expected)
			}
		})
	}
}

// TestFindConfigFile verifies config file discovery.
func TestFindConfigFile(t *testing.T) {
	tmpDir, err := os.MkdirTemp("", "config_test")
	if err != nil {
		t.Fatalf("Failed to create temp dir: %v", err)
	}
	defer os.RemoveAll(tmpDir)

	origDir, err := os.Getwd()
	if err != nil {
		t.Fatalf("Failed to get working directory: %v", err)
	}
	defer func() {
		if err := os.Chdir(origDir); err != nil {
			t.Errorf("Failed to restore working directory: %v", err)
		}
	}()

	if err := os.Chdir(tmpDir); err != nil {
		t.Fatalf("Failed to change to temp directory: %v", err)
	}

	t.Run("no config file exists", func(t *testing.T) {
		os.Unsetenv(ConfigPathEnvVar)
		result := findConfigFile()
		if result != "" {
			t.Errorf("findConfigFile() = %q, want empty string", result)
		}
	})

	t.Run("config.yaml exists", func(t *testing.T) {
		configPath := filepath.Join(tmpDir, "config.yaml")
		if err := os.WriteFile(configPath, []byte("scan:\n  folder_concurrency: 4\n"), 0644); err != nil {
			t.Fatalf("Failed to create config file: %v", err)
		}
		defer os.Remove(configPath)

		os.Unsetenv(ConfigPathEnvVar)
		result := findConfigFile()
		if result != "config.yaml" {
			t.Errorf("findConfigFile() = %q, want config.yaml", result)
		}
	})

	t.Run("CONFIG_PATH env var takes precedence", func(t *testing.T) {
		customPath := filepath.Join(tmpDir, "custom_config.yaml")
		if err := os.WriteFile(customPath, []byte("scan:\n  folder_concurrency: 4\n"), 0644); err != nil {
			t.Fatalf("Failed to create custom config file: %v", err)
		}
		defer os.Remove(customPath)

		os.Setenv(ConfigPathEnvVar, customPath)
		defer os.Unsetenv(ConfigPathEnvVar)

		result := findConfigFile()
		if result != customPath {
			t.Errorf("findConfigFile() = %q, want %q", result, customPath)
		}
	})

	t.Run("CONFIG_PATH env var with non-existent file", func(t *testing.T) {
		os.Setenv(ConfigPathEnvVar, "/non/existent/config.yaml")
		defer os.Unsetenv(ConfigPathEnvVar)

		result := findConfigFile()
		if result != "" {
			t.Errorf("findConfigFile() = %q, want empty string", result)
		}
	})
}

// TestLoadWithKoanfEnvVars tests loading configuration from environment variables.
func TestLoadWithKoanfEnvVars(t *testing.T) {
	os.Clearenv()

	os.Setenv("JWT_SECRET", "test-secret-at-least-32-characters-long")
	os.Setenv("HTTP_PORT", "9000")
	os.Setenv("LOG_LEVEL", "debug")
	os.Setenv("SCAN_FOLDER_CONCURRENCY", "16")

	cfg, err := LoadWithKoanf()
	if err != nil {
		t.Fatalf("LoadWithKoanf() error = %v", err)
	}

	if cfg.Server.Port != 9000 {
		t.Errorf("Server.Port = %d, want 9000", cfg.Server.Port)
	}
	if cfg.Logging.Level != "debug" {
		t.Errorf("Logging.Level = %q, want debug", cfg.Logging.Level)
	}
	if cfg.Scan.FolderConcurrency != 16 {
		t.Errorf("Scan.FolderConcurrency = %d, want 16", cfg.Scan.FolderConcurrency)
	}

	if cfg.Server.Host != "0.0.0.0" {
		t.Errorf("Server.Host = %q, want 0.0.0.0 (default)", cfg.Server.Host)
	}
	if cfg.Storage.MediaCacheDir != "/data/ferrex/cache" {
		t.Errorf("Storage.MediaCacheDir = %q, want /data/ferrex/cache (default)", cfg.Storage.MediaCacheDir)
	}
}

// TestLoadWithKoanfConfigFile tests loading configuration from a YAML file.
func TestLoadWithKoanfConfigFile(t *testing.T) {
	tmpDir, err := os.MkdirTemp("", "config_test")
	if err != nil {
		t.Fatalf("Failed to create temp dir: %v", err)
	}
	defer os.RemoveAll(tmpDir)

	configContent := `
server:
  port: 8888
  host: "127.0.0.1"

logging:
  level: "warn"
`
	configPath := filepath.Join(tmpDir, "config.yaml")
	if err := os.WriteFile(configPath, []byte(configContent), 0644); err != nil {
		t.Fatalf("Failed to create config file: %v", err)
	}

	os.Clearenv()
	os.Setenv(ConfigPathEnvVar, configPath)
	os.Setenv("JWT_SECRET", "test-secret-at-least-32-characters-long")

	cfg, err := LoadWithKoanf()
	if err != nil {
		t.Fatalf("LoadWithKoanf() error = %v", err)
	}

	if cfg.Server.Port != 8888 {
		t.Errorf("Server.Port = %d, want 8888", cfg.Server.Port)
	}
	if cfg.Server.Host != "127.0.0.1" {
		t.Errorf("Server.Host = %q, want 127.0.0.1", cfg.Server.Host)
	}
	if cfg.Logging.Level != "warn" {
		t.Errorf("Logging.Level = %q, want warn", cfg.Logging.Level)
	}

	if cfg.Storage.DataDir != "/data/ferrex" {
		t.Errorf("Storage.DataDir = %q, want /data/ferrex (default)", cfg.Storage.DataDir)
	}
}

// TestLoadWithKoanfEnvOverridesFile tests that env vars override config file values.
func TestLoadWithKoanfEnvOverridesFile(t *testing.T) {
	tmpDir, err := os.MkdirTemp("", "config_test")
	if err != nil {
		t.Fatalf("Failed to create temp dir: %v", err)
	}
	defer os.RemoveAll(tmpDir)

	configContent := `
server:
  port: 8888

logging:
  level: "warn"
`
	configPath := filepath.Join(tmpDir, "config.yaml")
	if err := os.WriteFile(configPath, []byte(configContent), 0644); err != nil {
		t.Fatalf("Failed to create config file: %v", err)
	}

	os.Clearenv()
	os.Setenv(ConfigPathEnvVar, configPath)
	os.Setenv("JWT_SECRET", "test-secret-at-least-32-characters-long")
	os.Setenv("HTTP_PORT", "9999")
	os.Setenv("LOG_LEVEL", "error")
	os.Setenv("DATA_DIR", "/custom/data")

	cfg, err := LoadWithKoanf()
	if err != nil {
		t.Fatalf("LoadWithKoanf() error = %v", err)
	}

	if cfg.Server.Port != 9999 {
		t.Errorf("Server.Port = %d, want 9999 (env override)", cfg.Server.Port)
	}
	if cfg.Logging.Level != "error" {
		t.Errorf("Logging.Level = %q, want error (env override)", cfg.Logging.Level)
	}
	if cfg.Storage.DataDir != "/custom/data" {
		t.Errorf("Storage.DataDir = %q, want /custom/data (env override)", cfg.Storage.DataDir)
	}
}

// TestLoadWithKoanfValidation tests that validation still works.
func TestLoadWithKoanfValidation(t *testing.T) {
	tests := []struct {
		name    string
		envVars map[string]string
		wantErr bool
	}{
		{
			name: "production requires jwt secret",
			envVars: map[string]string{
				"ENVIRONMENT": "production",
			},
			wantErr: true,
		},
		{
			name: "short jwt secret rejected",
			envVars: map[string]string{
				"JWT_SECRET": "too-short",
			},
			wantErr: true,
		},
		{
			name: "invalid log level rejected",
			envVars: map[string]string{
				"JWT_SECRET": "test-secret-at-least-32-characters-long",
				"LOG_LEVEL":  "verbose",
			},
			wantErr: true,
		},
		{
			name:    "development mode - no jwt secret required",
			envVars: map[string]string{},
			wantErr: false,
		},
		{
			name: "valid configuration",
			envVars: map[string]string{
				"JWT_SECRET": "test-secret-at-least-32-characters-long",
			},
			wantErr: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			os.Clearenv()
			for k, v := range tt.envVars {
				os.Setenv(k, v)
			}

			_, err := LoadWithKoanf()

			if tt.wantErr && err == nil {
				t.Errorf("LoadWithKoanf() expected an error, got nil")
			}
			if !tt.wantErr && err != nil {
				t.Errorf("LoadWithKoanf() unexpected error = %v", err)
			}
		})
	}
}

// TestGetKoanfInstance verifies we can get a Koanf instance for custom use.
func TestGetKoanfInstance(t *testing.T) {
	k := GetKoanfInstance()
	if k == nil {
		t.Error("GetKoanfInstance() returned nil")
	}
}
