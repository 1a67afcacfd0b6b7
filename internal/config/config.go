package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"github.com/i474232898/team-weather/internal/common"
	"github.com/i474232898/team-weather/internal/weather/providers"
)

type AppConfig struct {
	Port string

	// AppID namespaces the shared roster in the registry.
	AppID    string
	// RedisURL selects the shared registry. Empty means offline mode.
	RedisURL string

	PollInterval   time.Duration
	HTTPTimeout    time.Duration
	RefreshTimeout time.Duration

	SearchDebounce    time.Duration
	SearchMinLength   int
	SearchResultCount int
	SearchLanguage    string

	ForecastBaseURL string
	GeocodeBaseURL  string
}

// Load reads configuration from environment with sensible defaults.
func Load() (*AppConfig, error) {
	if err := godotenv.Load(); err != nil {
		log.Printf("INFO: No .env file found or error loading it: %v", err)
	}
	cfg := &AppConfig{
		Port:            getenvDefault("PORT", "8080"),
		AppID:           common.DefaultIfBlank(os.Getenv("APP_ID"), "default-app-id"),
		RedisURL:        strings.TrimSpace(os.Getenv("REDIS_URL")),
		SearchLanguage:  getenvDefault("SEARCH_LANGUAGE", "en"),
		ForecastBaseURL: getenvDefault("FORECAST_BASE_URL", providers.DefaultForecastBaseURL),
		GeocodeBaseURL:  getenvDefault("GEOCODE_BASE_URL", providers.DefaultGeocodeBaseURL),
	}

	if cfg.RedisURL != "" && !common.HasAny(cfg.RedisURL, "redis://", "rediss://", "unix://") {
		return nil, fmt.Errorf("invalid REDIS_URL: unsupported scheme in %q", cfg.RedisURL)
	}

	var err error
	if cfg.PollInterval, err = getenvDuration("POLL_INTERVAL", 15*time.Minute); err != nil {
		return nil, err
	}
	if cfg.HTTPTimeout, err = getenvDuration("HTTP_TIMEOUT", 10*time.Second); err != nil {
		return nil, err
	}
	if cfg.RefreshTimeout, err = getenvDuration("REFRESH_TIMEOUT", 30*time.Second); err != nil {
		return nil, err
	}
	if cfg.SearchDebounce, err = getenvDuration("SEARCH_DEBOUNCE", 300*time.Millisecond); err != nil {
		return nil, err
	}
	if cfg.SearchMinLength, err = getenvInt("SEARCH_MIN_LENGTH", 2); err != nil {
		return nil, err
	}
	if cfg.SearchResultCount, err = getenvInt("SEARCH_RESULT_COUNT", 6); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Offline reports whether no shared registry is configured.
func (c *AppConfig) Offline() bool {
	return c.RedisURL == ""
}

func getenvDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getenvInt(key string, def int) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return def, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil || n <= 0 {
		return 0, fmt.Errorf("invalid %s: %q", key, v)
	}
	return n, nil
}

func getenvDuration(key string, def time.Duration) (time.Duration, error) {
	d, err := time.ParseDuration(getenvDefault(key, def.String()))
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	if d <= 0 {
		return 0, fmt.Errorf("invalid %s: must be positive", key)
	}
	return d, nil
}
