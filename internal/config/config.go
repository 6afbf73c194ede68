// Package config loads application configuration from environment variables.
package config

import (
	"encoding/base64"
	"fmt"
	"os"
	"strconv"
	"strings"
)

// Store backend names accepted by FINRELAY_STORE_BACKEND.
const (
	StoreSQLite = "sqlite"
	StoreRedis  = "redis"
)

// Config holds the application configuration loaded from environment
// variables. It is constructed once at startup and passed explicitly to
// every component that needs it.
type Config struct {
	ListenAddr string

	StoreBackend  string
	DBPath        string
	RedisAddr     string
	RedisPassword string
	RedisDB       int

	AppID           string
	AppSecret       string
	ProviderBaseURL string
	PublicBaseURL   string
	CallbackURL     string

	// SecretKey enables AES-256-GCM encryption of paired values at rest in
	// the sqlite backend. nil disables encryption.
	SecretKey []byte

	// AuthRateLimit is the allowed request rate on the OAuth callback in
	// requests per second. Zero disables rate limiting.
	AuthRateLimit float64
}

// RedirectURI is the fixed redirect_uri sent with every code exchange: this
// service's own /auth endpoint under the public base URL.
func (c *Config) RedirectURI() string {
	return strings.TrimRight(c.PublicBaseURL, "/") + "/auth"
}

// Load reads configuration from FINRELAY_ environment variables and returns
// a validated Config. Required: FINRELAY_APP_ID, FINRELAY_APP_SECRET,
// FINRELAY_PROVIDER_BASE_URL, FINRELAY_PUBLIC_BASE_URL, FINRELAY_CALLBACK_URL.
// Optional with defaults: FINRELAY_LISTEN_ADDR (127.0.0.1:8080),
// FINRELAY_STORE_BACKEND (sqlite), FINRELAY_DB_PATH (finrelay.db),
// FINRELAY_REDIS_ADDR (127.0.0.1:6379), FINRELAY_REDIS_DB (0),
// FINRELAY_SECRET_KEY (unset), FINRELAY_AUTH_RATE_LIMIT (0, disabled).
func Load() (*Config, error) {
	cfg := &Config{
		ListenAddr:      envOrDefault("FINRELAY_LISTEN_ADDR", "127.0.0.1:8080"),
		StoreBackend:    envOrDefault("FINRELAY_STORE_BACKEND", StoreSQLite),
		DBPath:          envOrDefault("FINRELAY_DB_PATH", "finrelay.db"),
		RedisAddr:       envOrDefault("FINRELAY_REDIS_ADDR", "127.0.0.1:6379"),
		RedisPassword:   os.Getenv("FINRELAY_REDIS_PASSWORD"),
		AppID:           os.Getenv("FINRELAY_APP_ID"),
		AppSecret:       os.Getenv("FINRELAY_APP_SECRET"),
		ProviderBaseURL: os.Getenv("FINRELAY_PROVIDER_BASE_URL"),
		PublicBaseURL:   os.Getenv("FINRELAY_PUBLIC_BASE_URL"),
		CallbackURL:     os.Getenv("FINRELAY_CALLBACK_URL"),
	}

	var missing []string
	for _, req := range []struct{ key, value string }{
		{"FINRELAY_APP_ID", cfg.AppID},
		{"FINRELAY_APP_SECRET", cfg.AppSecret},
		{"FINRELAY_PROVIDER_BASE_URL", cfg.ProviderBaseURL},
		{"FINRELAY_PUBLIC_BASE_URL", cfg.PublicBaseURL},
		{"FINRELAY_CALLBACK_URL", cfg.CallbackURL},
	} {
		if req.value == "" {
			missing = append(missing, req.key)
		}
	}
	if len(missing) > 0 {
		return nil, fmt.Errorf("missing required environment variables: %s", strings.Join(missing, ", "))
	}

	if cfg.StoreBackend != StoreSQLite && cfg.StoreBackend != StoreRedis {
		return nil, fmt.Errorf("FINRELAY_STORE_BACKEND has invalid value %q: expected %q or %q", cfg.StoreBackend, StoreSQLite, StoreRedis)
	}

	if v, ok := os.LookupEnv("FINRELAY_REDIS_DB"); ok {
		parsed, err := strconv.Atoi(v)
		if err != nil {
			return nil, fmt.Errorf("FINRELAY_REDIS_DB has invalid value %q: %w", v, err)
		}
		cfg.RedisDB = parsed
	}

	if v, ok := os.LookupEnv("FINRELAY_SECRET_KEY"); ok && v != "" {
		key, err := base64.StdEncoding.DecodeString(v)
		if err != nil {
			return nil, fmt.Errorf("FINRELAY_SECRET_KEY is not valid base64: %w", err)
		}
		if len(key) != 32 {
			return nil, fmt.Errorf("FINRELAY_SECRET_KEY must decode to 32 bytes, got %d", len(key))
		}
		cfg.SecretKey = key
	}

	if v, ok := os.LookupEnv("FINRELAY_AUTH_RATE_LIMIT"); ok && v != "" {
		parsed, err := strconv.ParseFloat(v, 64)
		if err != nil || parsed < 0 {
			return nil, fmt.Errorf("FINRELAY_AUTH_RATE_LIMIT has invalid value %q", v)
		}
		cfg.AuthRateLimit = parsed
	}

	return cfg, nil
}

// envOrDefault returns the env var value or def when unset.
func envOrDefault(key, def string) string {
	if v, ok := os.LookupEnv(key); ok {
		return v
	}
	return def
}
