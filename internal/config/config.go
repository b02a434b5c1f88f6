package config

import (
	"fmt"
	"os"
	"strconv"
)

type Config struct {
	Port          string
	PostgresDSN   string
	MigrationsDir string
	MaxIdleConns  int
	MaxOpenConns  int
}

func Load() (Config, error) {
	cfg := Config{
		Port:          envOrDefault("PORT", "8080"),
		MigrationsDir: envOrDefault("MIGRATIONS_DIR", "migrations"),
	}

	host := os.Getenv("POSTGRES_HOST")
	if host == "" {
		return Config{}, fmt.Errorf("POSTGRES_HOST is required")
	}
	cfg.PostgresDSN = fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=disable",
		host,
		envOrDefault("POSTGRES_PORT", "5432"),
		envOrDefault("POSTGRES_USER", "postgres"),
		os.Getenv("POSTGRES_PASSWORD"),
		envOrDefault("POSTGRES_DB", "polyglot"),
	)

	var err error
	if cfg.MaxIdleConns, err = parseIntEnv("DB_MAX_IDLE_CONNS", 10); err != nil {
		return Config{}, err
	}
	if cfg.MaxOpenConns, err = parseIntEnv("DB_MAX_OPEN_CONNS", 20); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

func envOrDefault(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func parseIntEnv(key string, fallback int) (int, error) {
	raw := os.Getenv(key)
	if raw == "" {
		return fallback, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("parse %s: %w", key, err)
	}
	return v, nil
}
