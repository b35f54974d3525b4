package config

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

// Config holds all configuration for the application.
type Config struct {
	PostsDir         string
	DBPath           string
	IndexPath        string
	IndexURL         string
	APIPort          string
	SearchMaxResults int
	SearchMinQuery   int
	WatchPosts       bool
	LogLevel         slog.Level
	LogFormat        string
}

// Load reads configuration from environment variables and returns a Config struct.
// It applies defaults for optional fields and validates required fields.
// If a .env file exists in the current directory or project root, it will be loaded automatically.
// Environment variables already set take precedence over .env file values.
func Load() (*Config, error) {
	// Try to load .env file (ignore error if it doesn't exist)
	// Check current directory first, then walk up to find project root (where go.mod is)
	_ = godotenv.Load() // Try current directory

	// Try to find project root by looking for a .env placed next to go.mod
	wd, err := os.Getwd()
	if err == nil {
		dir := wd
		for i := 0; i < 5; i++ { // Limit search depth
			envPath := filepath.Join(dir, ".env")
			if _, err := os.Stat(envPath); err == nil {
				_ = godotenv.Load(envPath)
				break
			}
			parent := filepath.Dir(dir)
			if parent == dir {
				break // Reached filesystem root
			}
			dir = parent
		}
	}

	cfg := &Config{
		PostsDir:  getEnv("POSTS_DIR", ""),
		DBPath:    getEnv("DB_PATH", "./data/blogsearch.db"),
		IndexPath: getEnv("INDEX_PATH", "./data/search.json"),
		IndexURL:  getEnv("INDEX_URL", ""),
		APIPort:   getEnv("API_PORT", "9000"),
		LogFormat: getEnv("LOG_FORMAT", "text"),
	}

	// Validate required fields
	if cfg.PostsDir == "" {
		return nil, fmt.Errorf("POSTS_DIR is required")
	}
	if info, err := os.Stat(cfg.PostsDir); err != nil {
		return nil, fmt.Errorf("POSTS_DIR is not accessible: %w", err)
	} else if !info.IsDir() {
		return nil, fmt.Errorf("POSTS_DIR is not a directory: %s", cfg.PostsDir)
	}

	// SEARCH_MAX_RESULTS caps how many matches a query returns (first-come-first-shown).
	maxResults, err := getEnvInt("SEARCH_MAX_RESULTS", 5)
	if err != nil {
		return nil, err
	}
	if maxResults <= 0 {
		return nil, fmt.Errorf("SEARCH_MAX_RESULTS must be greater than 0")
	}
	cfg.SearchMaxResults = maxResults

	// SEARCH_MIN_QUERY is the minimum trimmed query length before a search runs.
	// Shorter queries keep the result panel hidden to avoid noisy single-letter matches.
	minQuery, err := getEnvInt("SEARCH_MIN_QUERY", 2)
	if err != nil {
		return nil, err
	}
	if minQuery <= 0 {
		return nil, fmt.Errorf("SEARCH_MIN_QUERY must be greater than 0")
	}
	cfg.SearchMinQuery = minQuery

	watch := strings.ToLower(getEnv("WATCH_POSTS", "false"))
	cfg.WatchPosts = watch == "true" || watch == "1"

	level, err := parseLogLevel(getEnv("LOG_LEVEL", "info"))
	if err != nil {
		return nil, err
	}
	cfg.LogLevel = level

	if cfg.LogFormat != "text" && cfg.LogFormat != "json" {
		return nil, fmt.Errorf("LOG_FORMAT must be \"text\" or \"json\", got %q", cfg.LogFormat)
	}

	// Create data directories if they don't exist (for the DB and index files)
	for _, p := range []string{cfg.DBPath, cfg.IndexPath} {
		if err := os.MkdirAll(filepath.Dir(p), 0755); err != nil {
			return nil, fmt.Errorf("failed to create data directory: %w", err)
		}
	}

	return cfg, nil
}

// getEnv gets an environment variable or returns a default value.
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvInt gets an integer environment variable or returns a default value.
func getEnvInt(key string, defaultValue int) (int, error) {
	raw := os.Getenv(key)
	if raw == "" {
		return defaultValue, nil
	}
	value, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("%s must be a valid integer: %w", key, err)
	}
	return value, nil
}

// parseLogLevel converts a level name into a slog.Level.
func parseLogLevel(raw string) (slog.Level, error) {
	switch strings.ToLower(raw) {
	case "debug":
		return slog.LevelDebug, nil
	case "info":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return 0, fmt.Errorf("LOG_LEVEL must be one of debug, info, warn, error; got %q", raw)
	}
}
