package config

import (
	"os"
	"strings"
	"testing"
	"time"
)

func TestLoad_DefaultValues(t *testing.T) {
	// Clear all relevant env vars
	envVars := []string{
		"APP_NAME", "APP_VERSION", "APP_ENV", "APP_PORT",
		"HTTP_READ_TIMEOUT", "HTTP_WRITE_TIMEOUT", "HTTP_IDLE_TIMEOUT", "HTTP_SHUTDOWN_TIMEOUT",
		"AUTH_ENABLED", "JWT_ISSUER_URI", "JWT_JWK_SET_URI", "AUTH_CLOCK_SKEW", "AUTH_BYPASS_PATHS",
		"LOG_LEVEL", "HTTP_REQUEST_TIMEOUT", "HTTP_MAX_BODY_BYTES", "DB_HOST",
		"ECF_UNKNOWN_TYPE_POLICY", "ECF_TIMEZONE", "ECF_BATCH_WORKERS", "ECF_MAX_BATCH_SIZE",
		"ECF_VALIDATION_MODE", "ECF_SCHEMA_DIR", "ECF_XMLLINT_PATH", "METRICS_ENABLED", "METRICS_PATH",
	}

	for _, key := range envVars {
		os.Unsetenv(key)
	}
	
	// Set AUTH_ENABLED=false to avoid requiring JWT config
	os.Setenv("AUTH_ENABLED", "false")
	defer os.Unsetenv("AUTH_ENABLED")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cfg.App.Name != "ms_ecf_core" {
		t.Errorf("expected default app name 'ms_ecf_core', got %q", cfg.App.Name)
	}

	if cfg.App.Version != "0.1.0" {
		t.Errorf("expected default version '0.1.0', got %q", cfg.App.Version)
	}

	if cfg.App.Environment != "local" {
		t.Errorf("expected default environment 'local', got %q", cfg.App.Environment)
	}

	if cfg.HTTP.Port != 8080 {
		t.Errorf("expected default port 8080, got %d", cfg.HTTP.Port)
	}

	// We set AUTH_ENABLED=false in the test, so it should be false
	if cfg.Auth.Enabled != false {
		t.Errorf("expected auth enabled false (as set in test), got %v", cfg.Auth.Enabled)
	}

	if cfg.ECF.UnknownTypePolicy != "reject" {
		t.Errorf("expected default unknown type policy 'reject', got %q", cfg.ECF.UnknownTypePolicy)
	}

	if cfg.ECF.TimeZone != "America/Santo_Domingo" {
		t.Errorf("expected default timezone 'America/Santo_Domingo', got %q", cfg.ECF.TimeZone)
	}

	if cfg.ECF.BatchWorkers != 4 {
		t.Errorf("expected default batch workers 4, got %d", cfg.ECF.BatchWorkers)
	}

	if cfg.ECF.MaxBatchSize != 100 {
		t.Errorf("expected default max batch size 100, got %d", cfg.ECF.MaxBatchSize)
	}

	if cfg.Validation.Mode != ValidationWellFormed {
		t.Errorf("expected default validation mode %q, got %q", ValidationWellFormed, cfg.Validation.Mode)
	}

	if cfg.HTTP.RequestTimeout != 20*time.Second {
		t.Errorf("expected default request timeout 20s, got %v", cfg.HTTP.RequestTimeout)
	}

	if !cfg.Metrics.Enabled || cfg.Metrics.Path != "/metrics" {
		t.Errorf("expected metrics enabled on /metrics, got %v %q", cfg.Metrics.Enabled, cfg.Metrics.Path)
	}

	if cfg.Database.Enabled() {
		t.Error("expected database disabled without DB_HOST")
	}

	wantBypass := []string{"/health", "/metrics", "/api/v1/auth/semilla"}
	if strings.Join(cfg.Auth.BypassPaths, ",") != strings.Join(wantBypass, ",") {
		t.Errorf("expected default bypass paths %v, got %v", wantBypass, cfg.Auth.BypassPaths)
	}
}

func TestLoad_WithCustomValues(t *testing.T) {
	// Set custom values
	os.Setenv("APP_NAME", "test-app")
	os.Setenv("APP_VERSION", "2.0.0")
	os.Setenv("APP_ENV", "production")
	os.Setenv("APP_PORT", "9090")
	os.Setenv("AUTH_ENABLED", "false")
	defer func() {
		os.Unsetenv("APP_NAME")
		os.Unsetenv("APP_VERSION")
		os.Unsetenv("APP_ENV")
		os.Unsetenv("APP_PORT")
		os.Unsetenv("AUTH_ENABLED")
	}()

	cfg, err := Load()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cfg.App.Name != "test-app" {
		t.Errorf("expected app name 'test-app', got %q", cfg.App.Name)
	}

	if cfg.App.Version != "2.0.0" {
		t.Errorf("expected version '2.0.0', got %q", cfg.App.Version)
	}

	if cfg.App.Environment != "production" {
		t.Errorf("expected environment 'production', got %q", cfg.App.Environment)
	}

	if cfg.HTTP.Port != 9090 {
		t.Errorf("expected port 9090, got %d", cfg.HTTP.Port)
	}

	if cfg.Auth.Enabled != false {
		t.Errorf("expected auth enabled false, got %v", cfg.Auth.Enabled)
	}
}

func TestLoad_AuthEnabled_MissingIssuerURI(t *testing.T) {
	os.Setenv("AUTH_ENABLED", "true")
	os.Unsetenv("JWT_ISSUER_URI")
	os.Unsetenv("JWT_JWK_SET_URI")
	defer func() {
		os.Unsetenv("AUTH_ENABLED")
	}()

	_, err := Load()
	if err == nil {
		t.Fatal("expected error when AUTH_ENABLED=true and JWT_ISSUER_URI is missing")
	}

	if err.Error() != "invalid config: JWT_ISSUER_URI is required when AUTH_ENABLED=true" {
		t.Errorf("unexpected error message: %v", err)
	}
}

func TestLoad_AuthEnabled_MissingJWKSetURI(t *testing.T) {
	os.Setenv("AUTH_ENABLED", "true")
	os.Setenv("JWT_ISSUER_URI", "https://issuer.example.com")
	os.Unsetenv("JWT_JWK_SET_URI")
	defer func() {
		os.Unsetenv("AUTH_ENABLED")
		os.Unsetenv("JWT_ISSUER_URI")
	}()

	_, err := Load()
	if err == nil {
		t.Fatal("expected error when AUTH_ENABLED=true and JWT_JWK_SET_URI is missing")
	}

	if err.Error() != "invalid config: JWT_JWK_SET_URI is required when AUTH_ENABLED=true" {
		t.Errorf("unexpected error message: %v", err)
	}
}

func TestHTTPSettings_Address(t *testing.T) {
	settings := HTTPSettings{Port: 8080}
	addr := settings.Address()

	if addr != ":8080" {
		t.Errorf("expected address ':8080', got %q", addr)
	}
}

func TestGetEnv(t *testing.T) {
	os.Setenv("TEST_KEY", "test-value")
	defer os.Unsetenv("TEST_KEY")

	value := getEnv("TEST_KEY", "default")
	if value != "test-value" {
		t.Errorf("expected 'test-value', got %q", value)
	}

	value = getEnv("NON_EXISTENT_KEY", "default-value")
	if value != "default-value" {
		t.Errorf("expected 'default-value', got %q", value)
	}
}

func TestGetEnvAsBool(t *testing.T) {
	tests := []struct {
		name     string
		envValue string
		fallback bool
		expected bool
	}{
		{"true value", "true", false, true},
		{"false value", "false", true, false},
		{"True value", "True", false, true},
		{"FALSE value", "FALSE", true, false},
		{"invalid value", "invalid", true, true},
		{"missing key", "", false, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.envValue != "" {
				os.Setenv("TEST_BOOL", tt.envValue)
				defer os.Unsetenv("TEST_BOOL")
			} else {
				os.Unsetenv("TEST_BOOL")
			}

			result := getEnvAsBool("TEST_BOOL", tt.fallback)
			if result != tt.expected {
				t.Errorf("expected %v, got %v", tt.expected, result)
			}
		})
	}
}

func TestGetEnvAsInt(t *testing.T) {
	tests := []struct {
		name     string
		envValue string
		fallback int
		expected int
	}{
		{"valid int", "123", 0, 123},
		{"zero", "0", 999, 0},
		{"negative", "-10", 0, -10},
		{"invalid value", "not-a-number", 42, 42},
		{"missing key", "", 42, 42},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.envValue != "" {
				os.Setenv("TEST_INT", tt.envValue)
				defer os.Unsetenv("TEST_INT")
			} else {
				os.Unsetenv("TEST_INT")
			}

			result := getEnvAsInt("TEST_INT", tt.fallback)
			if result != tt.expected {
				t.Errorf("expected %d, got %d", tt.expected, result)
			}
		})
	}
}

func TestGetEnvAsDuration(t *testing.T) {
	tests := []struct {
		name     string
		envValue string
		fallback time.Duration
		expected time.Duration
	}{
		{"valid duration", "10s", 0, 10 * time.Second},
		{"minutes", "5m", 0, 5 * time.Minute},
		{"hours", "2h", 0, 2 * time.Hour},
		{"invalid value", "not-a-duration", 30 * time.Second, 30 * time.Second},
		{"empty value", "", 30 * time.Second, 30 * time.Second},
		{"missing key", "", 30 * time.Second, 30 * time.Second},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.envValue != "" {
				os.Setenv("TEST_DURATION", tt.envValue)
				defer os.Unsetenv("TEST_DURATION")
			} else {
				os.Unsetenv("TEST_DURATION")
			}

			result := getEnvAsDuration("TEST_DURATION", tt.fallback)
			if result != tt.expected {
				t.Errorf("expected %v, got %v", tt.expected, result)
			}
		})
	}
}

func TestGetEnvAsCSV(t *testing.T) {
	tests := []struct {
		name     string
		envValue string
		fallback []string
		expected []string
	}{
		{
			name:     "single value",
			envValue: "value1",
			fallback: []string{"default"},
			expected: []string{"value1"},
		},
		{
			name:     "multiple values",
			envValue: "value1,value2,value3",
			fallback: []string{"default"},
			expected: []string{"value1", "value2", "value3"},
		},
		{
			name:     "with spaces",
			envValue: "value1, value2 , value3",
			fallback: []string{"default"},
			expected: []string{"value1", "value2", "value3"},
		},
		{
			name:     "empty values filtered",
			envValue: "value1,,value2, ,value3",
			fallback: []string{"default"},
			expected: []string{"value1", "value2", "value3"},
		},
		{
			name:     "empty string",
			envValue: "",
			fallback: []string{"default"},
			expected: []string{"default"},
		},
		{
			name:     "only spaces",
			envValue: " , , ",
			fallback: []string{"default"},
			expected: []string{"default"},
		},
		{
			name:     "missing key",
			envValue: "",
			fallback: []string{"default1", "default2"},
			expected: []string{"default1", "default2"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.envValue != "" {
				os.Setenv("TEST_CSV", tt.envValue)
				defer os.Unsetenv("TEST_CSV")
			} else {
				os.Unsetenv("TEST_CSV")
			}

			result := getEnvAsCSV("TEST_CSV", tt.fallback)
			if len(result) != len(tt.expected) {
				t.Errorf("expected %d values, got %d", len(tt.expected), len(result))
				return
			}

			for i, expected := range tt.expected {
				if result[i] != expected {
					t.Errorf("expected[%d] %q, got %q", i, expected, result[i])
				}
			}
		})
	}
}


func TestLoad_ECFSettings(t *testing.T) {
	os.Setenv("AUTH_ENABLED", "false")
	os.Setenv("ECF_UNKNOWN_TYPE_POLICY", "BASE")
	os.Setenv("ECF_TIMEZONE", "UTC")
	os.Setenv("ECF_BATCH_WORKERS", "8")
	os.Setenv("ECF_MAX_BATCH_SIZE", "25")
	os.Setenv("ECF_VALIDATION_MODE", "xmllint")
	os.Setenv("ECF_SCHEMA_DIR", "/opt/xsd")
	os.Setenv("ECF_VALIDATION_MAX_CONCURRENT", "2")
	os.Setenv("ECF_VALIDATION_BREAKER_COOLDOWN", "1m")
	defer func() {
		os.Unsetenv("AUTH_ENABLED")
		os.Unsetenv("ECF_UNKNOWN_TYPE_POLICY")
		os.Unsetenv("ECF_TIMEZONE")
		os.Unsetenv("ECF_BATCH_WORKERS")
		os.Unsetenv("ECF_MAX_BATCH_SIZE")
		os.Unsetenv("ECF_VALIDATION_MODE")
		os.Unsetenv("ECF_SCHEMA_DIR")
		os.Unsetenv("ECF_VALIDATION_MAX_CONCURRENT")
		os.Unsetenv("ECF_VALIDATION_BREAKER_COOLDOWN")
	}()

	cfg, err := Load()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cfg.ECF.UnknownTypePolicy != "base" {
		t.Errorf("expected policy 'base', got %q", cfg.ECF.UnknownTypePolicy)
	}

	loc, err := cfg.ECF.Location()
	if err != nil || loc.String() != "UTC" {
		t.Errorf("expected UTC location, got %v (%v)", loc, err)
	}

	if cfg.ECF.BatchWorkers != 8 {
		t.Errorf("expected 8 batch workers, got %d", cfg.ECF.BatchWorkers)
	}

	if cfg.ECF.MaxBatchSize != 25 {
		t.Errorf("expected max batch size 25, got %d", cfg.ECF.MaxBatchSize)
	}

	if cfg.Validation.Mode != ValidationXMLLint || cfg.Validation.SchemaDir != "/opt/xsd" {
		t.Errorf("unexpected validation settings: %+v", cfg.Validation)
	}

	if cfg.Validation.MaxConcurrent != 2 {
		t.Errorf("expected 2 concurrent validations, got %d", cfg.Validation.MaxConcurrent)
	}

	if cfg.Validation.BreakerFailures != 5 || cfg.Validation.BreakerCooldown != time.Minute {
		t.Errorf("unexpected breaker settings: %d, %v", cfg.Validation.BreakerFailures, cfg.Validation.BreakerCooldown)
	}
}

func TestLoad_InvalidSettings(t *testing.T) {
	tests := []struct {
		name     string
		key      string
		value    string
		expected string
	}{
		{
			name:     "unknown type policy",
			key:      "ECF_UNKNOWN_TYPE_POLICY",
			value:    "ignore",
			expected: `invalid config: ECF_UNKNOWN_TYPE_POLICY must be 'reject' or 'base', got "ignore"`,
		},
		{
			name:     "batch workers zero",
			key:      "ECF_BATCH_WORKERS",
			value:    "0",
			expected: "invalid config: ECF_BATCH_WORKERS must be greater than 0",
		},
		{
			name:     "batch workers too high",
			key:      "ECF_BATCH_WORKERS",
			value:    "1000",
			expected: "invalid config: ECF_BATCH_WORKERS cannot exceed 256",
		},
		{
			name:     "max batch size negative",
			key:      "ECF_MAX_BATCH_SIZE",
			value:    "-1",
			expected: "invalid config: ECF_MAX_BATCH_SIZE must be greater than 0",
		},
		{
			name:     "validation mode",
			key:      "ECF_VALIDATION_MODE",
			value:    "strict",
			expected: `invalid config: ECF_VALIDATION_MODE must be 'none', 'wellformed' or 'xmllint', got "strict"`,
		},
		{
			name:     "metrics path",
			key:      "METRICS_PATH",
			value:    "metrics",
			expected: "invalid config: METRICS_PATH must start with '/'",
		},
		{
			name:     "max body bytes",
			key:      "HTTP_MAX_BODY_BYTES",
			value:    "0",
			expected: "invalid config: HTTP_MAX_BODY_BYTES must be greater than 0",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			os.Setenv("AUTH_ENABLED", "false")
			os.Setenv(tt.key, tt.value)
			defer func() {
				os.Unsetenv("AUTH_ENABLED")
				os.Unsetenv(tt.key)
			}()

			_, err := Load()
			if err == nil {
				t.Fatal("expected error")
			}

			if err.Error() != tt.expected {
				t.Errorf("expected %q, got %q", tt.expected, err.Error())
			}
		})
	}
}

func TestLoad_InvalidTimeZone(t *testing.T) {
	os.Setenv("AUTH_ENABLED", "false")
	os.Setenv("ECF_TIMEZONE", "Mars/Olympus_Mons")
	defer func() {
		os.Unsetenv("AUTH_ENABLED")
		os.Unsetenv("ECF_TIMEZONE")
	}()

	_, err := Load()
	if err == nil {
		t.Fatal("expected error for unknown timezone")
	}

	if !strings.HasPrefix(err.Error(), "invalid config: ECF_TIMEZONE") {
		t.Errorf("unexpected error message: %v", err)
	}
}

func TestLoad_XMLLintRequiresSchemaDir(t *testing.T) {
	os.Setenv("AUTH_ENABLED", "false")
	os.Setenv("ECF_VALIDATION_MODE", "xmllint")
	os.Setenv("ECF_SCHEMA_DIR", "")
	defer func() {
		os.Unsetenv("AUTH_ENABLED")
		os.Unsetenv("ECF_VALIDATION_MODE")
		os.Unsetenv("ECF_SCHEMA_DIR")
	}()

	_, err := Load()
	if err == nil {
		t.Fatal("expected error when schema dir is empty")
	}

	if err.Error() != "invalid config: ECF_SCHEMA_DIR is required when ECF_VALIDATION_MODE=xmllint" {
		t.Errorf("unexpected error message: %v", err)
	}
}

func TestDatabaseSettings_Enabled(t *testing.T) {
	if (DatabaseSettings{}).Enabled() {
		t.Error("expected empty settings to be disabled")
	}

	if !(DatabaseSettings{Host: "localhost"}).Enabled() {
		t.Error("expected settings with host to be enabled")
	}
}
