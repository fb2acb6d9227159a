package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
	_ "time/tzdata"

	"github.com/joho/godotenv"
)

// Validation modes.
const (
	ValidationNone       = "none"
	ValidationWellFormed = "wellformed"
	ValidationXMLLint    = "xmllint"
)

// AppConfig encapsulates all runtime configuration knobs.
type AppConfig struct {
	App        AppSettings
	HTTP       HTTPSettings
	Auth       AuthSettings
	Log        LogSettings
	Database   DatabaseSettings
	Audit      AuditSettings
	ECF        ECFSettings
	Validation ValidationSettings
	Metrics    MetricsSettings
}

type AppSettings struct {
	Name        string
	Version     string
	Environment string
}

type HTTPSettings struct {
	Port            int
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	RequestTimeout  time.Duration // Deadline applied to each generation request context
	IdleTimeout     time.Duration
	ShutdownTimeout time.Duration
	MaxBodyBytes    int64
}

type AuthSettings struct {
	Enabled     bool
	IssuerURI   string
	JWKSetURI   string
	Audience    string // Optional; checked against the aud claim when set
	ClockSkew   time.Duration
	BypassPaths []string
}

type LogSettings struct {
	Level string
}

// DatabaseSettings configures the optional audit store. An empty Host
// disables persistence.
type DatabaseSettings struct {
	Host            string
	Port            int
	Database        string
	User            string
	Password        string
	SSLMode         string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
}

// Enabled reports whether a database is configured.
func (d DatabaseSettings) Enabled() bool {
	return d.Host != ""
}

type AuditSettings struct {
	Enabled        bool
	MaxPayloadSize int
}

// ECFSettings controls document generation.
type ECFSettings struct {
	UnknownTypePolicy string // "reject" or "base"
	TimeZone          string // IANA zone for FechaHoraFirma
	BatchWorkers      int
	MaxBatchSize      int
}

// Location resolves TimeZone.
func (e ECFSettings) Location() (*time.Location, error) {
	return time.LoadLocation(e.TimeZone)
}

// ValidationSettings selects the document validator.
type ValidationSettings struct {
	Mode            string // "none", "wellformed" or "xmllint"
	SchemaDir       string
	XMLLintPath     string
	MaxConcurrent   int // Concurrent xmllint processes
	BreakerFailures int
	BreakerCooldown time.Duration
}

type MetricsSettings struct {
	Enabled bool
	Path    string
}

// Load resolves the application configuration from environment variables.
// It first attempts to load variables from a .env file if it exists.
// Environment variables set in the system take precedence over .env file values.
func Load() (AppConfig, error) {
	// Try to load .env file (ignore error if file doesn't exist)
	_ = godotenv.Load()

	cfg := AppConfig{
		App: AppSettings{
			Name:        getEnv("APP_NAME", "ms_ecf_core"),
			Version:     getEnv("APP_VERSION", "0.1.0"),
			Environment: getEnv("APP_ENV", "local"),
		},
		HTTP: HTTPSettings{
			Port:            getEnvAsInt("APP_PORT", 8080),
			ReadTimeout:     getEnvAsDuration("HTTP_READ_TIMEOUT", 10*time.Second),
			WriteTimeout:    getEnvAsDuration("HTTP_WRITE_TIMEOUT", 30*time.Second),
			RequestTimeout:  getEnvAsDuration("HTTP_REQUEST_TIMEOUT", 20*time.Second),
			IdleTimeout:     getEnvAsDuration("HTTP_IDLE_TIMEOUT", 120*time.Second),
			ShutdownTimeout: getEnvAsDuration("HTTP_SHUTDOWN_TIMEOUT", 30*time.Second),
			MaxBodyBytes:    int64(getEnvAsInt("HTTP_MAX_BODY_BYTES", 5<<20)),
		},
		Auth: AuthSettings{
			Enabled:     getEnvAsBool("AUTH_ENABLED", true),
			IssuerURI:   strings.TrimSpace(os.Getenv("JWT_ISSUER_URI")),
			JWKSetURI:   strings.TrimSpace(os.Getenv("JWT_JWK_SET_URI")),
			Audience:    strings.TrimSpace(os.Getenv("JWT_AUDIENCE")),
			ClockSkew:   getEnvAsDuration("AUTH_CLOCK_SKEW", 2*time.Minute),
			BypassPaths: getEnvAsCSV("AUTH_BYPASS_PATHS", []string{"/health", "/metrics", "/api/v1/auth/semilla"}),
		},
		Log: LogSettings{
			Level: getEnv("LOG_LEVEL", "info"),
		},
		Database: DatabaseSettings{
			Host:            strings.TrimSpace(os.Getenv("DB_HOST")),
			Port:            getEnvAsInt("DB_PORT", 5432),
			Database:        getEnv("DB_NAME", "ms_ecf_core"),
			User:            getEnv("DB_USER", "postgres"),
			Password:        getEnv("DB_PASSWORD", ""),
			SSLMode:         getEnv("DB_SSL_MODE", "disable"),
			MaxOpenConns:    getEnvAsInt("DB_MAX_OPEN_CONNS", 25),
			MaxIdleConns:    getEnvAsInt("DB_MAX_IDLE_CONNS", 5),
			ConnMaxLifetime: getEnvAsDuration("DB_CONN_MAX_LIFETIME", 30*time.Minute),
		},
		Audit: AuditSettings{
			Enabled:        getEnvAsBool("AUDIT_ENABLED", true),
			MaxPayloadSize: getEnvAsInt("AUDIT_MAX_PAYLOAD_SIZE", 65536),
		},
		ECF: ECFSettings{
			UnknownTypePolicy: strings.ToLower(getEnv("ECF_UNKNOWN_TYPE_POLICY", "reject")),
			TimeZone:          getEnv("ECF_TIMEZONE", "America/Santo_Domingo"),
			BatchWorkers:      getEnvAsInt("ECF_BATCH_WORKERS", 4),
			MaxBatchSize:      getEnvAsInt("ECF_MAX_BATCH_SIZE", 100),
		},
		Validation: ValidationSettings{
			Mode:            strings.ToLower(getEnv("ECF_VALIDATION_MODE", ValidationWellFormed)),
			SchemaDir:       getEnv("ECF_SCHEMA_DIR", "schemas"),
			XMLLintPath:     getEnv("ECF_XMLLINT_PATH", "xmllint"),
			MaxConcurrent:   getEnvAsInt("ECF_VALIDATION_MAX_CONCURRENT", 8),
			BreakerFailures: getEnvAsInt("ECF_VALIDATION_BREAKER_FAILURES", 5),
			BreakerCooldown: getEnvAsDuration("ECF_VALIDATION_BREAKER_COOLDOWN", 30*time.Second),
		},
		Metrics: MetricsSettings{
			Enabled: getEnvAsBool("METRICS_ENABLED", true),
			Path:    getEnv("METRICS_PATH", "/metrics"),
		},
	}

	if err := cfg.validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

func (cfg AppConfig) validate() error {
	switch cfg.ECF.UnknownTypePolicy {
	case "reject", "base":
	default:
		return fmt.Errorf("invalid config: ECF_UNKNOWN_TYPE_POLICY must be 'reject' or 'base', got %q", cfg.ECF.UnknownTypePolicy)
	}

	if _, err := cfg.ECF.Location(); err != nil {
		return fmt.Errorf("invalid config: ECF_TIMEZONE: %w", err)
	}
	if cfg.ECF.BatchWorkers <= 0 {
		return errors.New("invalid config: ECF_BATCH_WORKERS must be greater than 0")
	}
	if cfg.ECF.BatchWorkers > 256 {
		return errors.New("invalid config: ECF_BATCH_WORKERS cannot exceed 256")
	}
	if cfg.ECF.MaxBatchSize <= 0 {
		return errors.New("invalid config: ECF_MAX_BATCH_SIZE must be greater than 0")
	}

	switch cfg.Validation.Mode {
	case ValidationNone, ValidationWellFormed:
	case ValidationXMLLint:
		if cfg.Validation.SchemaDir == "" {
			return errors.New("invalid config: ECF_SCHEMA_DIR is required when ECF_VALIDATION_MODE=xmllint")
		}
		if cfg.Validation.MaxConcurrent <= 0 {
			return errors.New("invalid config: ECF_VALIDATION_MAX_CONCURRENT must be greater than 0")
		}
	default:
		return fmt.Errorf("invalid config: ECF_VALIDATION_MODE must be 'none', 'wellformed' or 'xmllint', got %q", cfg.Validation.Mode)
	}

	if cfg.HTTP.MaxBodyBytes <= 0 {
		return errors.New("invalid config: HTTP_MAX_BODY_BYTES must be greater than 0")
	}
	if cfg.Metrics.Enabled && !strings.HasPrefix(cfg.Metrics.Path, "/") {
		return errors.New("invalid config: METRICS_PATH must start with '/'")
	}

	if cfg.Auth.Enabled {
		if cfg.Auth.IssuerURI == "" {
			return errors.New("invalid config: JWT_ISSUER_URI is required when AUTH_ENABLED=true")
		}
		if cfg.Auth.JWKSetURI == "" {
			return errors.New("invalid config: JWT_JWK_SET_URI is required when AUTH_ENABLED=true")
		}
	}
	return nil
}

// Address returns the HTTP listen address in host:port form.
func (h HTTPSettings) Address() string {
	return fmt.Sprintf(":%d", h.Port)
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return fallback
}

func getEnvAsBool(key string, fallback bool) bool {
	if value, ok := os.LookupEnv(key); ok {
		if parsed, err := strconv.ParseBool(value); err == nil {
			return parsed
		}
	}
	return fallback
}

func getEnvAsInt(key string, fallback int) int {
	if value, ok := os.LookupEnv(key); ok {
		if parsed, err := strconv.Atoi(value); err == nil {
			return parsed
		}
	}
	return fallback
}

func getEnvAsDuration(key string, fallback time.Duration) time.Duration {
	if value, ok := os.LookupEnv(key); ok && value != "" {
		if parsed, err := time.ParseDuration(value); err == nil {
			return parsed
		}
	}
	return fallback
}

func getEnvAsCSV(key string, fallback []string) []string {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return fallback
	}

	parts := strings.Split(raw, ",")
	values := make([]string, 0, len(parts))
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed != "" {
			values = append(values, trimmed)
		}
	}
	if len(values) == 0 {
		return fallback
	}
	return values
}
