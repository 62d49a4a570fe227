// Package config loads the server's environment-derived configuration:
// the Postgres connection string, listen address, savefile path, and log
// level. These are the only environment knobs the core contract names.
package config

import (
	"fmt"
	"os"

	"github.com/rs/zerolog"
)

// Config is the fully-resolved set of environment knobs consumed by
// cmd/stigd.
type Config struct {
	DatabaseURL  string
	ListenAddr   string
	SavefilePath string
	LogLevel     zerolog.Level
}

// Load reads Config from the process environment, applying the defaults
// documented in the external interfaces contract. DatabaseURL is the only
// required variable; everything else has a default.
func Load() (Config, error) {
	dsn := os.Getenv("DATABASE_URL")
	if dsn == "" {
		return Config{}, fmt.Errorf("config: DATABASE_URL is required")
	}

	level, err := parseLevel(os.Getenv("STIG_LOG_LEVEL"))
	if err != nil {
		return Config{}, err
	}

	return Config{
		DatabaseURL:  dsn,
		ListenAddr:   envOr("STIG_LISTEN_ADDR", ":8080"),
		SavefilePath: envOr("STIG_SAVEFILE_PATH", "./stigmergy.jsonl"),
		LogLevel:     level,
	}, nil
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func parseLevel(s string) (zerolog.Level, error) {
	if s == "" {
		return zerolog.InfoLevel, nil
	}
	level, err := zerolog.ParseLevel(s)
	if err != nil {
		return zerolog.InfoLevel, fmt.Errorf("config: invalid STIG_LOG_LEVEL %q: %w", s, err)
	}
	return level, nil
}
