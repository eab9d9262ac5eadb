package database

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadMigrationsOrdersByName(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"002_chat.sql", "001_init.sql", "notes.md"} {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte("--"), 0o600))
	}

	got, err := LoadMigrations(dir)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "001_init", got[0].Version)
	assert.Equal(t, "002_chat", got[1].Version)
}

func TestRepositoryMigrationsPresent(t *testing.T) {
	got, err := LoadMigrations(filepath.Join("..", "..", "migrations"))
	require.NoError(t, err)
	require.NotEmpty(t, got)
	assert.Equal(t, "001_init", got[0].Version)
}
