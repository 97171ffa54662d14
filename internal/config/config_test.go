package config

import (
	"bytes"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	for _, key := range []string{
		"TERRATRAC_SERVER_URL", "TERRATRAC_CLIENT_TIMEOUT", "TERRATRAC_LOG_LEVEL",
		"TERRATRAC_DROP_PATTERN", "TERRATRAC_PLAIN", "TERRATRAC_AUTH_TOKEN",
	} {
		t.Setenv(key, "")
	}

	cfg := Load()
	assert.Equal(t, "http://localhost:8000", cfg.ServerURL)
	assert.Equal(t, 10*time.Minute, cfg.ClientTimeout)
	assert.Equal(t, slog.LevelInfo, cfg.LogLevel)
	assert.Equal(t, DefaultDropPattern, cfg.DropPattern)
	assert.False(t, cfg.Plain)
	assert.Empty(t, cfg.AuthToken)
	assert.NotEmpty(t, cfg.CredentialsFile)
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("TERRATRAC_SERVER_URL", "https://portal.example.org/")
	t.Setenv("TERRATRAC_CLIENT_TIMEOUT", "30s")
	t.Setenv("TERRATRAC_LOG_LEVEL", "debug")
	t.Setenv("TERRATRAC_PLAIN", "true")
	t.Setenv("TERRATRAC_AUTH_TOKEN", "tok")

	cfg := Load()
	assert.Equal(t, "https://portal.example.org", cfg.ServerURL, "trailing slash is trimmed")
	assert.Equal(t, 30*time.Second, cfg.ClientTimeout)
	assert.Equal(t, slog.LevelDebug, cfg.LogLevel)
	assert.True(t, cfg.Plain)
	assert.Equal(t, "tok", cfg.AuthToken)
}

func TestParseDurationFallback(t *testing.T) {
	assert.Equal(t, time.Minute, parseDuration("bogus", time.Minute))
	assert.Equal(t, time.Minute, parseDuration("-5s", time.Minute))
	assert.Equal(t, 5*time.Second, parseDuration("5s", time.Minute))
}

func TestParseLogLevel(t *testing.T) {
	tests := map[string]slog.Level{
		"DEBUG":   slog.LevelDebug,
		"warning": slog.LevelWarn,
		"Error":   slog.LevelError,
		"":        slog.LevelInfo,
		"verbose": slog.LevelInfo,
	}
	for in, want := range tests {
		assert.Equal(t, want, parseLogLevel(in), "level %q", in)
	}
}

func TestSetupLoggerWithWriters(t *testing.T) {
	var stderr, file bytes.Buffer
	logger := SetupLoggerWithWriters(&stderr, &file, slog.LevelInfo)

	logger.Info("upload finished", "file_id", "42")
	logger.Debug("hidden")

	require.Contains(t, stderr.String(), "upload finished")
	require.Contains(t, file.String(), `"file_id":"42"`)
	assert.NotContains(t, file.String(), "hidden")
}
