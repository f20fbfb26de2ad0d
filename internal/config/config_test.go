package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func envMap(m map[string]string) func(string) string {
	return func(k string) string { return m[k] }
}

func TestFromEnvDefaults(t *testing.T) {
	t.Parallel()

	cfg, err := FromEnv(envMap(nil))
	require.NoError(t, err)
	assert.Equal(t, "mysql", cfg.DB_DRIVER)
	assert.Equal(t, 3, cfg.DB_CONNECT_RETRIES)
	assert.Equal(t, "queries", cfg.QUERY_DIR)
	assert.False(t, cfg.HasDataSource())
	assert.ErrorIs(t, cfg.Validate(), ErrNoDataSource)
}

func TestFromEnvValues(t *testing.T) {
	t.Parallel()

	cfg, err := FromEnv(envMap(map[string]string{
		"DB_DRIVER":          "postgres",
		"DB_HOST":            "db.local",
		"DB_PORT":            "5433",
		"DB_NAME":            "sales",
		"DB_CONNECT_BACKOFF": "2s",
	}))
	require.NoError(t, err)
	assert.Equal(t, "postgres", cfg.DB_DRIVER)
	assert.Equal(t, 5433, cfg.DB_PORT)
	assert.Equal(t, 2*time.Second, cfg.DB_CONNECT_BACKOFF)
	assert.NoError(t, cfg.Validate())
}

func TestFromEnvInvalid(t *testing.T) {
	t.Parallel()

	_, err := FromEnv(envMap(map[string]string{
		"DB_PORT":              "not-a-port",
		"DB_CONN_MAX_LIFETIME": "forever",
	}))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "DB_PORT")
	assert.Contains(t, err.Error(), "DB_CONN_MAX_LIFETIME")
}

func TestHasDataSource(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		cfg  EnvConfig
		want bool
	}{
		{name: "dsn", cfg: EnvConfig{DB_DSN: "user@/db"}, want: true},
		{name: "host and name", cfg: EnvConfig{DB_HOST: "h", DB_NAME: "n"}, want: true},
		{name: "host only", cfg: EnvConfig{DB_HOST: "h"}, want: false},
		{name: "sqlite file", cfg: EnvConfig{DB_DRIVER: "sqlite", DB_NAME: "a.db"}, want: true},
		{name: "nothing", cfg: EnvConfig{}, want: false},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, tt.cfg.HasDataSource(), tt.name)
	}
}

func TestLoadEnvConfigFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.env")
	require.NoError(t, os.WriteFile(path, []byte("SQL2XLSX_TEST_ONLY=1\nQUERY_DIR=/srv/queries\n"), 0o600))
	orig, had := os.LookupEnv("QUERY_DIR")
	require.NoError(t, os.Unsetenv("QUERY_DIR"))
	t.Cleanup(func() {
		_ = os.Unsetenv("SQL2XLSX_TEST_ONLY")
		_ = os.Unsetenv("QUERY_DIR")
		if had {
			_ = os.Setenv("QUERY_DIR", orig)
		}
		DefaultEnvConfig = defaults()
	})

	require.NoError(t, LoadEnvConfig(path))
	assert.Equal(t, "/srv/queries", DefaultEnvConfig.QUERY_DIR)
}

func TestLoadEnvConfigMissingFile(t *testing.T) {
	err := LoadEnvConfig(filepath.Join(t.TempDir(), "missing.env"))
	assert.Error(t, err)
}
