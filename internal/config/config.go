// Package config loads service configuration from the environment.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"

	"github.com/privacyguard/privacyguard/internal/simulator"
)

// Development fallbacks. Load refuses them in production.
const (
	DevSigningKey = "local-dev-signing-key-change-in-production"
	DevAccessCode = "privacyguard-dev"
)

// ErrMissingSecret is returned when production config lacks a secret.
var ErrMissingSecret = errors.New("missing required secret")

// Config holds the service configuration.
type Config struct {
	Port         string
	Env          string
	LogLevel     zerolog.Level
	OTELEnabled  bool
	OTLPEndpoint string
	RequireTLS   bool

	JWTSigningKey string

	// Exactly one access code source is used, in this order of precedence:
	// remote verifier URL, bcrypt hash, plain code.
	AccessCode          string
	AccessCodeHash      string
	AccessCodeVerifyURL string

	SessionTTL           time.Duration
	SessionMax           int
	SessionSweepInterval time.Duration

	SeedFile string
}

// Load reads the given .env files, when present, and then the environment.
// Variables already set in the environment win over .env values.
func Load(envFiles ...string) (Config, error) {
	var existing []string
	for _, f := range envFiles {
		if _, err := os.Stat(f); err == nil {
			existing = append(existing, f)
		}
	}
	if len(existing) > 0 {
		if err := godotenv.Load(existing...); err != nil {
			return Config{}, fmt.Errorf("loading env files: %w", err)
		}
	}

	cfg := Config{
		Port:                getEnvOrDefault("APP_PORT", "8080"),
		Env:                 getEnvOrDefault("APP_ENV", "development"),
		OTLPEndpoint:        getEnvOrDefault("OTEL_EXPORTER_OTLP_ENDPOINT", "localhost:4317"),
		JWTSigningKey:       os.Getenv("JWT_SIGNING_KEY"),
		AccessCode:          os.Getenv("ACCESS_CODE"),
		AccessCodeHash:      os.Getenv("ACCESS_CODE_HASH"),
		AccessCodeVerifyURL: os.Getenv("ACCESS_CODE_VERIFY_URL"),
		SeedFile:            os.Getenv("SEED_FILE"),
	}

	var errs []error
	var err error

	if cfg.LogLevel, err = zerolog.ParseLevel(strings.ToLower(getEnvOrDefault("LOG_LEVEL", "info"))); err != nil {
		errs = append(errs, fmt.Errorf("LOG_LEVEL: %w", err))
	}
	if cfg.OTELEnabled, err = parseBool("OTEL_ENABLED", false); err != nil {
		errs = append(errs, err)
	}
	if cfg.RequireTLS, err = parseBool("REQUIRE_TLS", false); err != nil {
		errs = append(errs, err)
	}
	if cfg.SessionTTL, err = parseDuration("SESSION_TTL", 30*time.Minute); err != nil {
		errs = append(errs, err)
	}
	if cfg.SessionSweepInterval, err = parseDuration("SESSION_SWEEP_INTERVAL", time.Minute); err != nil {
		errs = append(errs, err)
	}
	if cfg.SessionMax, err = parsePositiveInt("SESSION_MAX", 1000); err != nil {
		errs = append(errs, err)
	}

	if len(errs) > 0 {
		return Config{}, errors.Join(errs...)
	}

	if err := cfg.applySecrets(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// IsProduction reports whether APP_ENV is production.
func (c Config) IsProduction() bool {
	return c.Env == "production"
}

// UsingDevSecrets reports whether a development fallback is in use.
func (c Config) UsingDevSecrets() bool {
	return c.JWTSigningKey == DevSigningKey || c.AccessCode == DevAccessCode
}

// Seed returns the configured seed: the YAML file when SEED_FILE is set,
// else the compiled-in dataset.
func (c Config) Seed() (simulator.Seed, error) {
	if c.SeedFile == "" {
		return simulator.DefaultSeed(), nil
	}
	return simulator.LoadSeedFile(c.SeedFile)
}

func (c *Config) applySecrets() error {
	hasAccess := c.AccessCode != "" || c.AccessCodeHash != "" || c.AccessCodeVerifyURL != ""

	if c.IsProduction() {
		if c.JWTSigningKey == "" {
			return fmt.Errorf("%w: JWT_SIGNING_KEY", ErrMissingSecret)
		}
		if !hasAccess {
			return fmt.Errorf("%w: one of ACCESS_CODE, ACCESS_CODE_HASH or ACCESS_CODE_VERIFY_URL", ErrMissingSecret)
		}
		return nil
	}

	if c.JWTSigningKey == "" {
		c.JWTSigningKey = DevSigningKey
	}
	if !hasAccess {
		c.AccessCode = DevAccessCode
	}
	return nil
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func parseBool(key string, def bool) (bool, error) {
	raw := os.Getenv(key)
	if raw == "" {
		return def, nil
	}
	v, err := strconv.ParseBool(raw)
	if err != nil {
		return def, fmt.Errorf("%s: %w", key, err)
	}
	return v, nil
}

func parseDuration(key string, def time.Duration) (time.Duration, error) {
	raw := os.Getenv(key)
	if raw == "" {
		return def, nil
	}
	v, err := time.ParseDuration(raw)
	if err != nil {
		return def, fmt.Errorf("%s: %w", key, err)
	}
	if v <= 0 {
		return def, fmt.Errorf("%s: must be positive, got %s", key, raw)
	}
	return v, nil
}

func parsePositiveInt(key string, def int) (int, error) {
	raw := os.Getenv(key)
	if raw == "" {
		return def, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return def, fmt.Errorf("%s: %w", key, err)
	}
	if v <= 0 {
		return def, fmt.Errorf("%s: must be positive, got %d", key, v)
	}
	return v, nil
}
