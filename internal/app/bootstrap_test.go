package app

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfig_DefaultsWithoutEnvFile(t *testing.T) {
	cfg, err := LoadConfig(filepath.Join(t.TempDir(), "missing.env"))
	require.NoError(t, err)

	def := DefaultConfig()
	assert.Equal(t, def.DBPath, cfg.DBPath)
	assert.Equal(t, def.LedgerPath, cfg.LedgerPath)
	assert.Equal(t, 10*time.Second, cfg.SMTP.Timeout)
	assert.False(t, cfg.SMTP.Enabled())
}

func TestLoadConfig_EnvFileAndEnvironment(t *testing.T) {
	envFile := filepath.Join(t.TempDir(), "test.env")
	require.NoError(t, os.WriteFile(envFile, []byte("HAZARD_DB_PATH=/tmp/x.db\nSMTP_HOST=smtp.example.com\nSAFETY_OFFICER_EMAIL=officer@example.com\n"), 0o644))
	t.Setenv("NOTIFY_TIMEOUT", "3s")
	t.Cleanup(func() {
		os.Unsetenv("HAZARD_DB_PATH")
		os.Unsetenv("SMTP_HOST")
		os.Unsetenv("SAFETY_OFFICER_EMAIL")
	})

	cfg, err := LoadConfig(envFile)
	require.NoError(t, err)
	assert.Equal(t, "/tmp/x.db", cfg.DBPath)
	assert.True(t, cfg.SMTP.Enabled())
	assert.Equal(t, 3*time.Second, cfg.SMTP.Timeout)
}

func TestLocation(t *testing.T) {
	loc, err := Config{Timezone: "UTC"}.Location()
	require.NoError(t, err)
	assert.Equal(t, time.UTC, loc)

	_, err = Config{Timezone: "Nowhere/Invalid"}.Location()
	assert.Error(t, err)
}

func TestEnsureDirs(t *testing.T) {
	root := t.TempDir()
	cfg := Config{
		DBPath:     filepath.Join(root, "a", "reports.db"),
		LedgerPath: filepath.Join(root, "b", "reports.csv"),
	}
	require.NoError(t, cfg.EnsureDirs())
	assert.DirExists(t, filepath.Join(root, "a"))
	assert.DirExists(t, filepath.Join(root, "b"))
}
