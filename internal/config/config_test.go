package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setBaseEnv(t *testing.T) {
	t.Helper()
	t.Setenv("ENV_FILE", filepath.Join(t.TempDir(), "absent.env"))
	t.Setenv("HTTP_PORT", "3000")
	t.Setenv("API_BASE_URL", "http://127.0.0.1:8000/")
}

func TestLoad_Defaults(t *testing.T) {
	setBaseEnv(t)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "http://127.0.0.1:8000", cfg.API.BaseURL)
	assert.Equal(t, 15*time.Second, cfg.API.Timeout)
	assert.Equal(t, SessionStorageFile, cfg.Session.Storage)
	assert.Equal(t, 3*time.Second, cfg.Wizard.SavedAckDelay)
	assert.Equal(t, "6379", cfg.Redis.Port)
}

func TestLoad_MissingRequired(t *testing.T) {
	t.Setenv("ENV_FILE", filepath.Join(t.TempDir(), "absent.env"))
	t.Setenv("HTTP_PORT", "")
	t.Setenv("API_BASE_URL", "")

	_, err := Load()
	require.ErrorIs(t, err, errMissingRequiredEnv)
	assert.Contains(t, err.Error(), "HTTP_PORT")
	assert.Contains(t, err.Error(), "API_BASE_URL")
}

func TestLoad_InvalidDuration(t *testing.T) {
	setBaseEnv(t)
	t.Setenv("API_TIMEOUT", "soon")

	_, err := Load()
	require.ErrorIs(t, err, errInvalidEnv)
}

func TestLoad_PostgresStorageNeedsDatabase(t *testing.T) {
	setBaseEnv(t)
	t.Setenv("SESSION_STORAGE", "postgres")
	t.Setenv("DB_HOST", "")

	_, err := Load()
	require.ErrorIs(t, err, errMissingRequiredEnv)
	assert.Contains(t, err.Error(), "DB_HOST")
}

func TestLoad_EnvFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "test.env")
	require.NoError(t, os.WriteFile(path, []byte("SESSION_STORAGE=memory\nSAVED_ACK_DELAY=1s\n"), 0o600))

	t.Setenv("ENV_FILE", path)
	t.Setenv("HTTP_PORT", "3000")
	t.Setenv("API_BASE_URL", "http://backend")
	t.Setenv("SESSION_STORAGE", "")
	t.Setenv("SAVED_ACK_DELAY", "")
	os.Unsetenv("SESSION_STORAGE")
	os.Unsetenv("SAVED_ACK_DELAY")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, SessionStorageMemory, cfg.Session.Storage)
	assert.Equal(t, time.Second, cfg.Wizard.SavedAckDelay)
}
