package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_DefaultsWithAPIKeyFromEnv(t *testing.T) {
	t.Setenv("BIBLE_API_KEY", "secret")

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, ":8080", cfg.Addr)
	assert.Equal(t, "https://api.scripture.api.bible", cfg.ProviderURL)
	assert.Equal(t, "secret", cfg.APIKey)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, 15*time.Second, cfg.RequestTimeout.Std())
}

func TestLoad_MissingAPIKey(t *testing.T) {
	t.Setenv("BIBLE_API_KEY", "")
	_, err := Load("")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "API key is required")
}

func TestLoad_FileThenEnvLayering(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(
		"api_key: from-file\naddr: \":9999\"\nbible_id: custom-bible\nrequest_timeout: 5s\n",
	), 0o644))

	t.Setenv("BIBLE_MCP_ADDR", ":7777")

	cfg, err := Load(path)
	require.NoError(t, err)

	// Env beats file, file beats defaults.
	assert.Equal(t, ":7777", cfg.Addr)
	assert.Equal(t, "from-file", cfg.APIKey)
	assert.Equal(t, "custom-bible", cfg.BibleID)
	assert.Equal(t, 5*time.Second, cfg.RequestTimeout.Std())
	assert.Equal(t, "info", cfg.LogLevel)
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	assert.Error(t, err)
}
