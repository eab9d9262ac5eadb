package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("CONFIG_FILE", "")
	t.Setenv("LLM_DEFAULT_MODEL", "")
	t.Setenv("AUTH_DEV_ROLES", "")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, 0, cfg.LLM.MaxRetries)
	assert.Equal(t, 0.3, cfg.Pipeline.AnalysisTemperature)
	assert.Equal(t, 8000, cfg.Pipeline.AnalysisMaxChars)
	assert.Equal(t, 20, cfg.Chat.HistoryLimit)
	assert.Equal(t, 2000, cfg.Chat.ContextChars)
	assert.Equal(t, time.Hour, cfg.Worker.SweepTimeout)
	assert.False(t, cfg.Auth.DevRoles)
	assert.Equal(t, cfg.LLM.DefaultModel, cfg.Pipeline.AnalysisModel)
	assert.Equal(t, cfg.LLM.DefaultModel, cfg.Chat.Model)
}

func TestLoadYAMLThenEnv(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	yml := `
server:
  port: 9000
storage:
  backend: local
  local_dir: /tmp/docs
pipeline:
  analysis_max_chars: 20000
  lock_ttl: 2m
chat:
  history_limit: 10
`
	require.NoError(t, os.WriteFile(path, []byte(yml), 0o600))

	t.Setenv("CONFIG_FILE", path)
	t.Setenv("CHAT_HISTORY_LIMIT", "5")
	t.Setenv("AUTH_DEV_ROLES", "true")
	t.Setenv("CORS_ORIGINS", "https://app.example.com, http://localhost:3000")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 9000, cfg.Server.Port)
	assert.Equal(t, "local", cfg.Storage.Backend)
	assert.Equal(t, "/tmp/docs", cfg.Storage.LocalDir)
	assert.Equal(t, 20000, cfg.Pipeline.AnalysisMaxChars)
	assert.Equal(t, 2*time.Minute, cfg.Pipeline.LockTTL)
	assert.Equal(t, 5, cfg.Chat.HistoryLimit)
	assert.True(t, cfg.Auth.DevRoles)
	assert.Equal(t, []string{"https://app.example.com", "http://localhost:3000"}, cfg.Server.CORSOrigins)
}

func TestLoadRejectsBadNumber(t *testing.T) {
	t.Setenv("CONFIG_FILE", "")
	t.Setenv("SERVER_PORT", "eighty")

	_, err := Load()
	assert.ErrorContains(t, err, "SERVER_PORT")
}

func TestValidate(t *testing.T) {
	cfg := defaults()
	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "DATABASE_URL")
	assert.Contains(t, err.Error(), "JWT_SECRET")

	cfg.Database.URL = "postgres://localhost/docchat"
	cfg.Auth.JWTSecret = "secret"
	cfg.Storage.Backend = "local"
	assert.NoError(t, cfg.Validate())

	cfg.Storage.Backend = "ftp"
	assert.ErrorContains(t, cfg.Validate(), "STORAGE_BACKEND")
}
