// Package config loads server configuration from environment variables.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// Config holds everything the server needs to start.
type Config struct {
	ListenAddr    string
	DBPath        string
	TokenSecret   string
	TokenDuration time.Duration
}

// Load reads configuration from the environment. TOKEN_SECRET is the only
// required variable; everything else has a sensible default.
func Load() (*Config, error) {
	secret := os.Getenv("TOKEN_SECRET")
	if secret == "" {
		return nil, fmt.Errorf("TOKEN_SECRET must be set")
	}

	tokenHours, err := strconv.Atoi(getEnv("TOKEN_DURATION_HOURS", "24"))
	if err != nil || tokenHours <= 0 {
		return nil, fmt.Errorf("invalid TOKEN_DURATION_HOURS: %s", os.Getenv("TOKEN_DURATION_HOURS"))
	}

	return &Config{
		ListenAddr:    getEnv("LISTEN_ADDR", ":8080"),
		DBPath:        getEnv("DB_PATH", "./data/tally.db"),
		TokenSecret:   secret,
		TokenDuration: time.Duration(tokenHours) * time.Hour,
	}, nil
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}
