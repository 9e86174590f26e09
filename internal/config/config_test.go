package config

import (
	"os"
	"testing"
)

func TestLoadWithDefaults(t *testing.T) {
	// Set only required env vars
	setTestEnv(t, map[string]string{
		"INTERNAL_API_KEY": "test_api_key",
	})

	config, err := Load()
	if err != nil {
		t.Fatalf("Failed to load config: %v", err)
	}

	// Check defaults
	if config.Host != "localhost" {
		t.Errorf("Expected default host 'localhost', got %s", config.Host)
	}
	if config.Port != 4201 {
		t.Errorf("Expected default port 4201, got %d", config.Port)
	}
	if config.DatabasePath != "./trainsched.db" {
		t.Errorf("Expected default database path './trainsched.db', got %s", config.DatabasePath)
	}
	if config.ReviewWorkers != 4 {
		t.Errorf("Expected default review workers 4, got %d", config.ReviewWorkers)
	}
	if !config.MetricsEnabled {
		t.Error("Expected metrics enabled by default")
	}
	if config.MetricsPort != 9091 {
		t.Errorf("Expected default metrics port 9091, got %d", config.MetricsPort)
	}
	if config.LogLevel != "info" {
		t.Errorf("Expected default log level 'info', got %s", config.LogLevel)
	}

	// Check required values
	if config.InternalAPIKey != "test_api_key" {
		t.Errorf("Expected INTERNAL_API_KEY 'test_api_key', got %s", config.InternalAPIKey)
	}
}

func TestLoadFromEnvVars(t *testing.T) {
	setTestEnv(t, map[string]string{
		"HOST":             "0.0.0.0",
		"PORT":             "8080",
		"DATABASE_PATH":    "/tmp/test.db",
		"INTERNAL_API_KEY": "custom_api_key",
		"REVIEW_WORKERS":   "8",
		"METRICS_ENABLED":  "false",
		"LOG_LEVEL":        "debug",
	})

	config, err := Load()
	if err != nil {
		t.Fatalf("Failed to load config: %v", err)
	}

	if config.Host != "0.0.0.0" {
		t.Errorf("Expected host '0.0.0.0', got %s", config.Host)
	}
	if config.Port != 8080 {
		t.Errorf("Expected port 8080, got %d", config.Port)
	}
	if config.DatabasePath != "/tmp/test.db" {
		t.Errorf("Expected database path '/tmp/test.db', got %s", config.DatabasePath)
	}
	if config.ReviewWorkers != 8 {
		t.Errorf("Expected 8 review workers, got %d", config.ReviewWorkers)
	}
	if config.MetricsEnabled {
		t.Error("Expected metrics disabled")
	}
	if config.LogLevel != "debug" {
		t.Errorf("Expected log level 'debug', got %s", config.LogLevel)
	}
}

func TestValidationMissingAPIKey(t *testing.T) {
	setTestEnv(t, map[string]string{
		// Missing INTERNAL_API_KEY
		"PORT": "8080",
	})

	_, err := Load()
	if err == nil {
		t.Error("Expected validation error for missing INTERNAL_API_KEY")
	}
}

func TestValidationReviewWorkers(t *testing.T) {
	tests := []struct {
		workers string
		wantErr bool
	}{
		{"0", true},
		{"-1", true},
		{"1", false},
		{"16", false},
	}

	for _, tt := range tests {
		t.Run("workers_"+tt.workers, func(t *testing.T) {
			setTestEnv(t, map[string]string{
				"REVIEW_WORKERS":   tt.workers,
				"INTERNAL_API_KEY": "test_api_key",
			})

			_, err := Load()
			if tt.wantErr && err == nil {
				t.Errorf("Expected error for REVIEW_WORKERS=%s, but got none", tt.workers)
			}
			if !tt.wantErr && err != nil {
				t.Errorf("Expected no error for REVIEW_WORKERS=%s, but got: %v", tt.workers, err)
			}
		})
	}
}

func TestMalformedValuesFallBackToDefaults(t *testing.T) {
	setTestEnv(t, map[string]string{
		"PORT":             "not_a_number",
		"METRICS_ENABLED":  "maybe",
		"INTERNAL_API_KEY": "test_api_key",
	})

	config, err := Load()
	if err != nil {
		t.Fatalf("Failed to load config: %v", err)
	}

	if config.Port != 4201 {
		t.Errorf("Expected default port for malformed value, got %d", config.Port)
	}
	if !config.MetricsEnabled {
		t.Error("Expected default metrics setting for malformed value")
	}
}

// Helper function to set test environment variables and clean up after test
func setTestEnv(t *testing.T, vars map[string]string) {
	t.Helper()

	// Clear all relevant env vars first
	clearTestEnv(t)

	for key, value := range vars {
		os.Setenv(key, value)
		t.Cleanup(func() {
			os.Unsetenv(key)
		})
	}
}

// Helper function to clear all config-related environment variables
func clearTestEnv(t *testing.T) {
	t.Helper()

	envVars := []string{
		"HOST", "PORT", "DATABASE_PATH", "INTERNAL_API_KEY",
		"REVIEW_WORKERS", "METRICS_ENABLED", "METRICS_HOST", "METRICS_PORT",
		"LOG_LEVEL",
	}

	for _, key := range envVars {
		os.Unsetenv(key)
	}
}
