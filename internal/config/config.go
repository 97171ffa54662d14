// Package config loads terratrac settings from the environment.
package config

import (
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// DefaultDropPattern matches every upload format the parser understands,
// compressed or not.
const DefaultDropPattern = "*.{csv,xlsx,xls,geojson,csv.xz,xlsx.xz,xls.xz,geojson.xz}"

// Config holds all configuration values.
type Config struct {
	// TerraTrac server
	ServerURL     string
	ClientTimeout time.Duration

	// Credentials (file plus optional env overrides)
	CredentialsFile string
	AuthToken       string
	CSRFToken       string

	// Logging
	LogFile  string
	LogLevel slog.Level

	// Drop folder
	DropPattern string

	// Force line-based output even on a terminal
	Plain bool
}

// Load reads configuration from environment variables.
func Load() Config {
	return Config{
		ServerURL:     strings.TrimRight(getEnv("TERRATRAC_SERVER_URL", "http://localhost:8000"), "/"),
		ClientTimeout: parseDuration(getEnv("TERRATRAC_CLIENT_TIMEOUT", ""), 10*time.Minute),

		CredentialsFile: getEnv("TERRATRAC_CREDENTIALS_FILE", defaultCredentialsFile()),
		AuthToken:       getEnv("TERRATRAC_AUTH_TOKEN", ""),
		CSRFToken:       getEnv("TERRATRAC_CSRF_TOKEN", ""),

		LogFile:  getEnv("TERRATRAC_LOG_FILE", "/tmp/terratrac.log"),
		LogLevel: parseLogLevel(getEnv("TERRATRAC_LOG_LEVEL", "INFO")),

		DropPattern: getEnv("TERRATRAC_DROP_PATTERN", DefaultDropPattern),

		Plain: getEnv("TERRATRAC_PLAIN", "false") == "true",
	}
}

func getEnv(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}

func defaultCredentialsFile() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		dir = os.TempDir()
	}
	return filepath.Join(dir, "terratrac", "credentials.yaml")
}

func parseDuration(s string, fallback time.Duration) time.Duration {
	if s == "" {
		return fallback
	}
	d, err := time.ParseDuration(s)
	if err != nil || d <= 0 {
		return fallback
	}
	return d
}

func parseLogLevel(s string) slog.Level {
	switch strings.ToUpper(s) {
	case "DEBUG":
		return slog.LevelDebug
	case "INFO":
		return slog.LevelInfo
	case "WARN", "WARNING":
		return slog.LevelWarn
	case "ERROR":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
