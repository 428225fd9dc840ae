package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

var defaultOrigins = []string{
	"http://localhost:3000",
	"http://localhost:5173",
}

type Config struct {
	Port        string
	DatabaseURL string
	JWTSecret   string

	PlaidClientID string
	PlaidSecret   string
	PlaidEnv      string

	DemoMode       bool
	CacheMaxCost   int64
	ScenariosFile  string
	AllowedOrigins []string
}

// Load reads .env if present, then the process environment.
func Load() (Config, error) {
	_ = godotenv.Load()

	cfg := Config{
		Port:           getEnv("PORT", "8080"),
		DatabaseURL:    getEnv("DATABASE_URL", ""),
		JWTSecret:      getEnv("JWT_SECRET", ""),
		PlaidClientID:  getEnv("PLAID_CLIENT_ID", ""),
		PlaidSecret:    getEnv("PLAID_SECRET", ""),
		PlaidEnv:       getEnv("PLAID_ENV", "sandbox"),
		ScenariosFile:  getEnv("SCENARIOS_FILE", ""),
		AllowedOrigins: splitList(getEnv("ALLOWED_ORIGINS", "")),
	}
	if len(cfg.AllowedOrigins) == 0 {
		cfg.AllowedOrigins = defaultOrigins
	}

	var err error
	if cfg.DemoMode, err = strconv.ParseBool(getEnv("DEMO_MODE", "false")); err != nil {
		return Config{}, fmt.Errorf("DEMO_MODE: %w", err)
	}
	if cfg.CacheMaxCost, err = strconv.ParseInt(getEnv("CACHE_MAX_COST", "10000"), 10, 64); err != nil {
		return Config{}, fmt.Errorf("CACHE_MAX_COST: %w", err)
	}
	if cfg.CacheMaxCost <= 0 {
		return Config{}, errors.New("CACHE_MAX_COST must be positive")
	}

	return cfg, nil
}

// ValidateDatabase is required by every command that touches Postgres.
func (c Config) ValidateDatabase() error {
	if c.DatabaseURL == "" {
		return errors.New("DATABASE_URL is required")
	}
	return nil
}

func (c Config) ValidateServer() error {
	if err := c.ValidateDatabase(); err != nil {
		return err
	}
	if c.JWTSecret == "" {
		return errors.New("JWT_SECRET is required")
	}
	if c.PlaidEnabled() && c.PlaidEnv != "sandbox" && c.PlaidEnv != "production" {
		return fmt.Errorf("invalid PLAID_ENV: %s", c.PlaidEnv)
	}
	return nil
}

// PlaidEnabled reports whether bank aggregation credentials are configured.
func (c Config) PlaidEnabled() bool {
	return c.PlaidClientID != "" && c.PlaidSecret != ""
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return fallback
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
