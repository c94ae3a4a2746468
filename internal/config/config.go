package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

const (
	defaultAppName        = "MealToken"
	defaultAppEnv         = "development"
	defaultPort           = "8080"
	defaultLogLevel       = "info"
	defaultShutdownDelay  = 10 * time.Second
	defaultIdempotencyTTL = 24 * time.Hour
	defaultSessionTTL     = time.Hour
	defaultLedgerTimeout  = 5 * time.Second
)

// Config captures application runtime configuration loaded from environment variables.
type Config struct {
	AppName        string
	AppEnv         string
	Port           string
	LogLevel       string
	DatabaseURL    string
	RedisURL       string
	ShutdownPeriod time.Duration
	IdempotencyTTL time.Duration
	SessionTTL     time.Duration
	LedgerTimeout  time.Duration

	// VerifierCredentials maps usernames to plaintext secrets parsed from
	// VERIFIER_CREDENTIALS ("alice:secret,bob:secret"). Secrets are hashed
	// at seed time and the map must never be logged.
	VerifierCredentials map[string]string
}

// Load reads configuration values from the environment and populates a Config instance.
func Load() (Config, error) {
	cfg := Config{
		AppName:        getEnv("APP_NAME", defaultAppName),
		AppEnv:         getEnv("APP_ENV", defaultAppEnv),
		Port:           getEnv("PORT", defaultPort),
		LogLevel:       strings.ToLower(getEnv("LOG_LEVEL", defaultLogLevel)),
		DatabaseURL:    os.Getenv("DATABASE_URL"),
		RedisURL:       os.Getenv("REDIS_URL"),
		ShutdownPeriod: defaultShutdownDelay,
		IdempotencyTTL: defaultIdempotencyTTL,
		SessionTTL:     defaultSessionTTL,
		LedgerTimeout:  defaultLedgerTimeout,
	}

	var err error
	if cfg.ShutdownPeriod, err = durationEnv("SHUTDOWN_TIMEOUT", cfg.ShutdownPeriod); err != nil {
		return Config{}, err
	}
	if cfg.IdempotencyTTL, err = durationEnv("IDEMPOTENCY_TTL", cfg.IdempotencyTTL); err != nil {
		return Config{}, err
	}
	if cfg.SessionTTL, err = durationEnv("VERIFIER_SESSION_TTL", cfg.SessionTTL); err != nil {
		return Config{}, err
	}
	if cfg.LedgerTimeout, err = durationEnv("LEDGER_TIMEOUT", cfg.LedgerTimeout); err != nil {
		return Config{}, err
	}

	cfg.VerifierCredentials, err = parseVerifierCredentials(os.Getenv("VERIFIER_CREDENTIALS"))
	if err != nil {
		return Config{}, err
	}

	if !isDev(cfg.AppEnv) {
		if cfg.DatabaseURL == "" {
			return Config{}, fmt.Errorf("DATABASE_URL must be set")
		}
		if cfg.RedisURL == "" {
			return Config{}, fmt.Errorf("REDIS_URL must be set")
		}
	}

	return cfg, nil
}

// Address returns the listen address in the format Fiber expects.
func (c Config) Address() string {
	if strings.HasPrefix(c.Port, ":") {
		return c.Port
	}
	return fmt.Sprintf(":%s", c.Port)
}

// IsDev reports whether the configured environment is a development one.
func (c Config) IsDev() bool {
	return isDev(c.AppEnv)
}

func isDev(env string) bool {
	switch strings.ToLower(env) {
	case "dev", "development", "local":
		return true
	default:
		return false
	}
}

// durationEnv reads NAME_SECONDS as an integer or NAME as a Go duration.
func durationEnv(name string, fallback time.Duration) (time.Duration, error) {
	if v := os.Getenv(name + "_SECONDS"); v != "" {
		seconds, err := strconv.Atoi(v)
		if err != nil {
			return 0, fmt.Errorf("invalid %s_SECONDS: %w", name, err)
		}
		return time.Duration(seconds) * time.Second, nil
	}
	if v := os.Getenv(name); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return 0, fmt.Errorf("invalid %s: %w", name, err)
		}
		return d, nil
	}
	return fallback, nil
}

func parseVerifierCredentials(raw string) (map[string]string, error) {
	creds := make(map[string]string)
	if raw == "" {
		return creds, nil
	}
	for _, pair := range strings.Split(raw, ",") {
		username, secret, ok := strings.Cut(strings.TrimSpace(pair), ":")
		if !ok || username == "" || secret == "" {
			return nil, fmt.Errorf("invalid VERIFIER_CREDENTIALS entry %q", pair)
		}
		creds[username] = secret
	}
	return creds, nil
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}
