package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://localhost/coach")
	t.Setenv("CLERK_SECRET_KEY", "sk_test")

	cfg, _, err := Load(filepath.Join(t.TempDir(), "missing.env"))
	require.NoError(t, err)

	assert.Equal(t, "3333", cfg.Port)
	assert.Equal(t, ":3333", cfg.Addr())
	assert.Equal(t, "dev", cfg.LogMode)
	assert.Equal(t, int32(25), cfg.DBMaxConns)
	assert.Equal(t, 3, cfg.StreakMaxRetries)
	assert.Equal(t, 30, cfg.RateLimitBurst)
	assert.Equal(t, 4, cfg.NotifyWorkers)
}

func TestLoadMissingRequired(t *testing.T) {
	t.Setenv("DATABASE_URL", "")
	os.Unsetenv("DATABASE_URL")
	t.Setenv("CLERK_SECRET_KEY", "sk_test")

	_, _, err := Load(filepath.Join(t.TempDir(), "missing.env"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "parse env:")
}

func TestLoadDotEnv(t *testing.T) {
	t.Setenv("DATABASE_URL", "")
	t.Setenv("CLERK_SECRET_KEY", "")
	os.Unsetenv("DATABASE_URL")
	os.Unsetenv("CLERK_SECRET_KEY")
	t.Setenv("PORT", "8080")

	path := filepath.Join(t.TempDir(), ".env")
	content := "DATABASE_URL=postgres://dotenv/coach\nCLERK_SECRET_KEY=sk_dotenv\nPORT=9999\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	cfg, found, err := Load(path)
	require.NoError(t, err)

	assert.True(t, found)
	assert.Equal(t, "postgres://dotenv/coach", cfg.DatabaseURL)
	// godotenv never overrides variables already present in the environment.
	assert.Equal(t, "8080", cfg.Port)
}
