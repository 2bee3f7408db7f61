// Package config loads service configuration from flags with environment
// fallbacks.
package config

import (
	"flag"
	"fmt"
	"os"

	"github.com/haneul-labs/moodshift/internal/core/domain"
)

// Config carries everything main needs to wire the service.
type Config struct {
	Port         string
	LogLevel     string
	DatabasePath string
	Market       string
	Timezone     string

	LastFMAPIKey        string
	SpotifyClientID     string
	SpotifyClientSecret string
	OpenWeatherAPIKey   string
}

// New parses flags once and reads credentials from the environment.
func New() *Config {
	var (
		port     = flag.String("port", getEnvOrDefault("PORT", "8080"), "HTTP server port")
		logLevel = flag.String("log-level", getEnvOrDefault("LOG_LEVEL", "info"), "Log level (debug, info, warn, error)")
		dbPath   = flag.String("db-path", getEnvOrDefault("DB_PATH", "moodshift.db"), "Database file path")
		market   = flag.String("market", getEnvOrDefault("MARKET", "US"), "Default catalog market")
		tz       = flag.String("timezone", getEnvOrDefault("TIMEZONE", "UTC"), "Local timezone for weather mood resolution")
	)
	flag.Parse()

	return &Config{
		Port:                *port,
		LogLevel:            *logLevel,
		DatabasePath:        *dbPath,
		Market:              *market,
		Timezone:            *tz,
		LastFMAPIKey:        os.Getenv("LASTFM_API_KEY"),
		SpotifyClientID:     os.Getenv("SPOTIFY_CLIENT_ID"),
		SpotifyClientSecret: os.Getenv("SPOTIFY_CLIENT_SECRET"),
		OpenWeatherAPIKey:   os.Getenv("OPENWEATHERMAP_API_KEY"),
	}
}

// Validate checks that every credential the adapters need is present.
func (c *Config) Validate() error {
	missing := ""
	switch {
	case c.LastFMAPIKey == "":
		missing = "LASTFM_API_KEY"
	case c.SpotifyClientID == "":
		missing = "SPOTIFY_CLIENT_ID"
	case c.SpotifyClientSecret == "":
		missing = "SPOTIFY_CLIENT_SECRET"
	case c.OpenWeatherAPIKey == "":
		missing = "OPENWEATHERMAP_API_KEY"
	}
	if missing != "" {
		return fmt.Errorf("config: %s: %w", missing, domain.ErrConfigMissing)
	}
	return nil
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
