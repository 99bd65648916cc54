// ABOUTME: Centralized configuration for the tierworks CLI and MCP server
// ABOUTME: Loads from environment variables (and .env) with validation and defaults
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// DefaultPosterFolders are searched in order for <id>.jpg / <id>.png posters
var DefaultPosterFolders = []string{
	"posters",
	"posters-basketball",
	"posters-basketball-teams",
	"posters-movies",
	"posters-football-players",
	"posters-actors",
	"posters-football",
}

// Config holds all configuration for tierworks
type Config struct {
	// Local storage
	DBPath string

	// Charm settings
	SyncEnabled bool
	CharmHost   string
	CharmDBName string
	AutoSync    bool
	SyncTimeout time.Duration

	// TMDB settings
	TMDBKey      string
	TMDBLanguage string
	Timeout      time.Duration
	MaxRetries   int
	RetryDelay   time.Duration

	// Items and posters
	MaxImageBytes int64
	PosterRoot    string
	PosterFolders []string

	// Sharing and observability
	ShareBaseURL string
	MetricsAddr  string
	LogLevel     string
}

// LoadDotEnv reads .env into the environment if present. Existing variables win.
func LoadDotEnv() error {
	err := godotenv.Load()
	if err != nil && os.IsNotExist(err) {
		return nil
	}
	return err
}

// Load reads configuration from environment variables
func Load() (*Config, error) {
	cfg := &Config{
		DBPath:        os.Getenv("TIERWORKS_DB"),
		SyncEnabled:   getEnvBool("TIERWORKS_SYNC", false),
		CharmHost:     getEnv("CHARM_HOST", "charm.2389.dev"),
		CharmDBName:   getEnv("CHARM_DB", "tierworks"),
		AutoSync:      getEnvBool("CHARM_AUTO_SYNC", true),
		SyncTimeout:   getEnvDuration("CHARM_SYNC_TIMEOUT", 30*time.Second),
		TMDBKey:       os.Getenv("TMDB_API_KEY"),
		TMDBLanguage:  getEnv("TMDB_LANGUAGE", "ru-RU"),
		Timeout:       getEnvDuration("TMDB_TIMEOUT", 10*time.Second),
		MaxRetries:    getEnvInt("TMDB_MAX_RETRIES", 3),
		RetryDelay:    getEnvDuration("TMDB_RETRY_DELAY", time.Second),
		MaxImageBytes: int64(getEnvInt("TIERWORKS_MAX_IMAGE_BYTES", 5*1024*1024)),
		PosterRoot:    getEnv("TIERWORKS_POSTER_ROOT", "public"),
		PosterFolders: getEnvList("TIERWORKS_POSTER_FOLDERS", DefaultPosterFolders),
		ShareBaseURL:  getEnv("TIERWORKS_SHARE_BASE_URL", "https://tierworks.app/share"),
		MetricsAddr:   os.Getenv("TIERWORKS_METRICS_ADDR"),
		LogLevel:      getEnv("TIERWORKS_LOG_LEVEL", "info"),
	}

	return cfg, cfg.Validate()
}

// Validate checks value ranges
func (c *Config) Validate() error {
	if c.MaxRetries < 0 || c.MaxRetries > 10 {
		return fmt.Errorf("TMDB_MAX_RETRIES must be 0-10, got %d", c.MaxRetries)
	}
	if c.MaxImageBytes <= 0 {
		return fmt.Errorf("TIERWORKS_MAX_IMAGE_BYTES must be positive, got %d", c.MaxImageBytes)
	}
	if c.Timeout <= 0 {
		return fmt.Errorf("TMDB_TIMEOUT must be positive, got %v", c.Timeout)
	}
	switch strings.ToLower(c.LogLevel) {
	case "debug", "info", "warn", "warning", "error":
	default:
		return fmt.Errorf("TIERWORKS_LOG_LEVEL must be debug, info, warn or error, got %q", c.LogLevel)
	}
	return nil
}

// HasTMDB reports whether poster lookups against TMDB are possible
func (c *Config) HasTMDB() bool {
	return c.TMDBKey != ""
}

// Helper functions
func getEnv(key, defaultVal string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultVal
}

func getEnvBool(key string, defaultVal bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal
	}
	return v == "true" || v == "1"
}

func getEnvInt(key string, defaultVal int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return defaultVal
}

func getEnvDuration(key string, defaultVal time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return defaultVal
}

func getEnvList(key string, defaultVal []string) []string {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal
	}
	var out []string
	for _, part := range strings.Split(v, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	if len(out) == 0 {
		return defaultVal
	}
	return out
}
