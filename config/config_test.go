package config

import (
	"os"
	"reflect"
	"testing"
)

func TestGetEnvAsList(t *testing.T) {
	testCases := []struct {
		name     string
		envValue string
		expected []string
	}{
		{
			name:     "Single origin",
			envValue: "http://localhost:5173",
			expected: []string{"http://localhost:5173"},
		},
		{
			name:     "Values with spaces",
			envValue: " http://a.local , http://b.local ",
			expected: []string{"http://a.local", "http://b.local"},
		},
		{
			name:     "Empty parts",
			envValue: "http://a.local,,http://b.local,",
			expected: []string{"http://a.local", "http://b.local"},
		},
		{
			name:     "Only commas falls back",
			envValue: ",,",
			expected: []string{"*"},
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			os.Setenv("TEST_ORIGINS", tc.envValue)
			defer os.Unsetenv("TEST_ORIGINS")

			result := getEnvAsList("TEST_ORIGINS", []string{"*"})
			if !reflect.DeepEqual(result, tc.expected) {
				t.Errorf("Expected %v, got %v", tc.expected, result)
			}
		})
	}
}

func TestGetEnvAsInt(t *testing.T) {
	testCases := []struct {
		name     string
		envValue string
		expected int
	}{
		{"Unset", "", 25},
		{"Valid", "40", 40},
		{"Padded", " 7 ", 7},
		{"Not a number", "many", 25},
		{"Zero", "0", 25},
		{"Negative", "-3", 25},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			os.Setenv("TEST_POOL_SIZE", tc.envValue)
			defer os.Unsetenv("TEST_POOL_SIZE")

			if got := getEnvAsInt("TEST_POOL_SIZE", 25); got != tc.expected {
				t.Errorf("Expected %d, got %d", tc.expected, got)
			}
		})
	}
}

func TestGetEnvAsBool(t *testing.T) {
	os.Setenv("TEST_AUTH_REQUIRED", "true")
	if !getEnvAsBool("TEST_AUTH_REQUIRED", false) {
		t.Errorf("Expected true for %q", "true")
	}
	os.Setenv("TEST_AUTH_REQUIRED", "nope")
	if getEnvAsBool("TEST_AUTH_REQUIRED", false) {
		t.Errorf("Expected default for unparsable value")
	}
	os.Unsetenv("TEST_AUTH_REQUIRED")
}

func TestLoadDefaults(t *testing.T) {
	for _, key := range []string{"DB_NAME", "PORT", "UPLOAD_DIR", "UPLOAD_URL_PREFIX", "AMQP_URL", "JWT_SECRET", "TRUSTED_PROXIES"} {
		os.Unsetenv(key)
	}

	cfg := Load()
	if cfg.DBName != "report_logger" {
		t.Errorf("Expected default DB name report_logger, got %s", cfg.DBName)
	}
	if cfg.Port != "3001" {
		t.Errorf("Expected default port 3001, got %s", cfg.Port)
	}
	if cfg.UploadDir != "uploads" || cfg.UploadURLPrefix != "/uploads" {
		t.Errorf("Unexpected upload defaults: %s %s", cfg.UploadDir, cfg.UploadURLPrefix)
	}
	if cfg.AMQPURL != "" {
		t.Errorf("Expected report events disabled by default")
	}
	if cfg.JWTSecret == "" {
		t.Errorf("Expected a fallback JWT secret")
	}
	if cfg.TrustedProxies != nil {
		t.Errorf("Expected no trusted proxies by default, got %v", cfg.TrustedProxies)
	}
}
