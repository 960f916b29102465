package config

import (
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	App     AppConfig
	Server  ServerConfig
	Store   StoreConfig
	Admin   AdminConfig
	Log     LogConfig
	Tracing TracingConfig
}

type AppConfig struct {
	Name        string
	Environment string
	Version     string
}

type ServerConfig struct {
	Host            string
	Port            int
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	IdleTimeout     time.Duration
	ShutdownTimeout time.Duration
}

func (s ServerConfig) Address() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

// StoreConfig holds the connection parameters for the remote document store.
// Every field is required; the process refuses to start without them.
type StoreConfig struct {
	Endpoint           string
	ProjectID          string
	APIKey             string
	DatabaseID         string
	PatientTableID     string
	AppointmentTableID string
	BucketID           string
	RequestTimeout     time.Duration
}

type AdminConfig struct {
	// Bcrypt hash of the dashboard passkey.
	PasskeyHash     string
	JWTSecret       string
	SessionTokenTTL time.Duration
	Issuer          string
}

type LogConfig struct {
	Level      string
	Format     string
	OutputPath string
}

type TracingConfig struct {
	Enabled     bool
	ServiceName string
	OTLPURL     string
	SampleRate  float64
}

func Load() (*Config, error) {
	cfg := &Config{
		App: AppConfig{
			Name:        getEnv("APP_NAME", "salus-api"),
			Environment: getEnv("APP_ENV", "development"),
			Version:     getEnv("APP_VERSION", "0.0.0"),
		},
		Server: ServerConfig{
			Host:            getEnv("SERVER_HOST", "0.0.0.0"),
			Port:            getEnvInt("SERVER_PORT", 8080),
			ReadTimeout:     getEnvDuration("SERVER_READ_TIMEOUT", 15*time.Second),
			WriteTimeout:    getEnvDuration("SERVER_WRITE_TIMEOUT", 15*time.Second),
			IdleTimeout:     getEnvDuration("SERVER_IDLE_TIMEOUT", 60*time.Second),
			ShutdownTimeout: getEnvDuration("SERVER_SHUTDOWN_TIMEOUT", 30*time.Second),
		},
		Store: StoreConfig{
			Endpoint:           getEnv("STORE_ENDPOINT", ""),
			ProjectID:          getEnv("STORE_PROJECT_ID", ""),
			APIKey:             getEnv("STORE_API_KEY", ""),
			DatabaseID:         getEnv("STORE_DATABASE_ID", ""),
			PatientTableID:     getEnv("STORE_PATIENT_TABLE_ID", ""),
			AppointmentTableID: getEnv("STORE_APPOINTMENT_TABLE_ID", ""),
			BucketID:           getEnv("STORE_BUCKET_ID", ""),
			RequestTimeout:     getEnvDuration("STORE_REQUEST_TIMEOUT", 30*time.Second),
		},
		Admin: AdminConfig{
			PasskeyHash:     getEnv("ADMIN_PASSKEY_HASH", ""),
			JWTSecret:       getEnv("ADMIN_JWT_SECRET", ""),
			SessionTokenTTL: getEnvDuration("ADMIN_SESSION_TTL", 1*time.Hour),
			Issuer:          getEnv("ADMIN_JWT_ISSUER", "salus-api"),
		},
		Log: LogConfig{
			Level:      getEnv("LOG_LEVEL", "info"),
			Format:     getEnv("LOG_FORMAT", "json"),
			OutputPath: getEnv("LOG_OUTPUT", "stdout"),
		},
		Tracing: TracingConfig{
			Enabled:     getEnvBool("TRACING_ENABLED", false),
			ServiceName: getEnv("TRACING_SERVICE_NAME", "salus-api"),
			OTLPURL:     getEnv("OTLP_ENDPOINT", "localhost:4318"),
			SampleRate:  getEnvFloat("TRACING_SAMPLE_RATE", 0.1),
		},
	}

	if err := validate(cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

// validate reports every missing or malformed value at once so a broken
// deployment fails with one actionable message instead of a guessing game.
func validate(cfg *Config) error {
	var errs []string

	required := []struct {
		name  string
		value string
	}{
		{"STORE_ENDPOINT", cfg.Store.Endpoint},
		{"STORE_PROJECT_ID", cfg.Store.ProjectID},
		{"STORE_API_KEY", cfg.Store.APIKey},
		{"STORE_DATABASE_ID", cfg.Store.DatabaseID},
		{"STORE_PATIENT_TABLE_ID", cfg.Store.PatientTableID},
		{"STORE_APPOINTMENT_TABLE_ID", cfg.Store.AppointmentTableID},
		{"STORE_BUCKET_ID", cfg.Store.BucketID},
	}
	for _, r := range required {
		if strings.TrimSpace(r.value) == "" {
			errs = append(errs, r.name+" is required")
		}
	}

	if cfg.Store.Endpoint != "" {
		if err := validateEndpoint(cfg.Store.Endpoint); err != nil {
			errs = append(errs, err.Error())
		}
	}

	if cfg.Admin.JWTSecret == "" {
		errs = append(errs, "ADMIN_JWT_SECRET is required")
	} else if len(cfg.Admin.JWTSecret) < 32 && cfg.App.Environment == "production" {
		errs = append(errs, "ADMIN_JWT_SECRET must be at least 32 characters in production")
	}

	if cfg.Admin.PasskeyHash == "" && cfg.App.Environment == "production" {
		errs = append(errs, "ADMIN_PASSKEY_HASH is required in production")
	}

	if len(errs) > 0 {
		return fmt.Errorf("configuration errors:\n  - %s", strings.Join(errs, "\n  - "))
	}

	return nil
}

func validateEndpoint(endpoint string) error {
	u, err := url.Parse(endpoint)
	if err != nil {
		return fmt.Errorf("STORE_ENDPOINT %q is not a valid URL: %v", endpoint, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("STORE_ENDPOINT %q must use http or https", endpoint)
	}
	if u.Host == "" {
		return fmt.Errorf("STORE_ENDPOINT %q is missing a host", endpoint)
	}
	return nil
}

func getEnv(key, fallback string) string {
	if v, ok := os.LookupEnv(key); ok {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if v, ok := os.LookupEnv(key); ok {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return fallback
}

func getEnvFloat(key string, fallback float64) float64 {
	if v, ok := os.LookupEnv(key); ok {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	if v, ok := os.LookupEnv(key); ok {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return fallback
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	if v, ok := os.LookupEnv(key); ok {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}
