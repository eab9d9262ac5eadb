package app

import (
	"context"
	"log/slog"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nikhilbhutani/docchat/internal/chat"
	"github.com/nikhilbhutani/docchat/internal/config"
	"github.com/nikhilbhutani/docchat/internal/document"
)

func TestParseLevel(t *testing.T) {
	assert.Equal(t, slog.LevelDebug, parseLevel("DEBUG"))
	assert.Equal(t, slog.LevelWarn, parseLevel("warning"))
	assert.Equal(t, slog.LevelError, parseLevel("error"))
	assert.Equal(t, slog.LevelInfo, parseLevel(""))
}

func testConfig(t *testing.T, redisAddr string) *config.Config {
	t.Helper()
	t.Setenv("CONFIG_FILE", "")
	cfg, err := config.Load()
	require.NoError(t, err)
	cfg.Database.URL = ""
	cfg.Redis.Addr = redisAddr
	cfg.Storage.Backend = "local"
	cfg.Storage.LocalDir = t.TempDir()
	cfg.LLM = config.LLMConfig{DefaultProvider: "textgen", TextGenURL: "http://127.0.0.1:1"}
	return cfg
}

func TestBuildInMemory(t *testing.T) {
	mr := miniredis.RunT(t)

	a, err := Build(context.Background(), testConfig(t, mr.Addr()))
	require.NoError(t, err)
	defer a.Close()

	assert.Nil(t, a.DB)
	assert.NotNil(t, a.Redis)
	assert.IsType(t, &document.MemoryStore{}, a.Documents)
	assert.IsType(t, &chat.MemoryStore{}, a.Chats)
	assert.NotNil(t, a.Pipeline)
}

func TestBuildWithoutRedis(t *testing.T) {
	mr := miniredis.RunT(t)
	addr := mr.Addr()
	mr.Close()

	a, err := Build(context.Background(), testConfig(t, addr))
	require.NoError(t, err)
	defer a.Close()

	assert.Nil(t, a.Redis)
	assert.NotNil(t, a.Pipeline)
}

func TestBuildRejectsUnknownStorage(t *testing.T) {
	mr := miniredis.RunT(t)
	cfg := testConfig(t, mr.Addr())
	cfg.Storage.Backend = "ftp"

	_, err := Build(context.Background(), cfg)
	assert.ErrorContains(t, err, "init storage")
}
