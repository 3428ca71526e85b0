package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"quote-observer/src/helpers"

	"github.com/stretchr/testify/require"
)

func TestNewConfig(t *testing.T) {
	t.Run("missing file uses defaults", func(t *testing.T) {
		cfg, err := NewConfig(filepath.Join(t.TempDir(), "absent.yaml"))
		require.NoError(t, err)
		require.Equal(t, 3000, cfg.Port)
		require.Equal(t, 5000, cfg.DataSource.PollIntervalMs)
		require.Equal(t, 7, cfg.DataSource.DataRetentionDays)
		require.Equal(t, "file", cfg.Storage.DBType)
		require.Len(t, cfg.DataSource.Symbols, 5)
	})

	t.Run("file values and defaults", func(t *testing.T) {
		content := `
name: test-observer
port: 8080
storage:
  db_type: sqlite
  db_path: /tmp/q.db
data_source:
  symbols:
    - symbol: " ETHUSDT "
    - symbol: aapl
      market: xnas
`
		path := filepath.Join(t.TempDir(), "config.yaml")
		require.NoError(t, os.WriteFile(path, []byte(content), 0644))

		cfg, err := NewConfig(path)
		require.NoError(t, err)
		require.Equal(t, "test-observer", cfg.Name)
		require.Equal(t, 8080, cfg.Port)
		require.Equal(t, "sqlite", cfg.Storage.DBType)
		require.Equal(t, 250, cfg.Storage.FlushDelayMs)
		require.Len(t, cfg.DataSource.Symbols, 2)
		require.Equal(t, "ethusdt", cfg.DataSource.Symbols[0].Symbol)
		require.Equal(t, "crypto", cfg.DataSource.Symbols[0].Market)
		require.Equal(t, "xnas", cfg.DataSource.Symbols[1].Market)
	})

	t.Run("environment overrides", func(t *testing.T) {
		t.Setenv("PORT", "4100")
		t.Setenv("RETENTION_DAYS", "3")
		t.Setenv("DB_TYPE", "SQLITE")
		t.Setenv("LOG_LEVEL", "debug")

		cfg, err := NewConfig(filepath.Join(t.TempDir(), "absent.yaml"))
		require.NoError(t, err)
		require.Equal(t, 4100, cfg.Port)
		require.Equal(t, 3, cfg.DataSource.DataRetentionDays)
		require.Equal(t, "sqlite", cfg.Storage.DBType)
		require.Equal(t, "DEBUG", cfg.LogLevel)
	})

	t.Run("invalid yaml", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "bad.yaml")
		require.NoError(t, os.WriteFile(path, []byte("port: [1, 2"), 0644))

		_, err := NewConfig(path)
		require.Error(t, err)
		require.Contains(t, err.Error(), "failed to parse config")
	})
}

func TestApplyEnv(t *testing.T) {
	env := map[string]string{"POLL_INTERVAL_MS": "abc"}
	lookup := func(k string) (string, bool) { v, ok := env[k]; return v, ok }

	cfg := &Config{MConfig: Default()}
	err := cfg.ApplyEnv(lookup)
	require.Error(t, err)

	var cfgErr *helpers.ConfigurationError
	require.True(t, errors.As(err, &cfgErr))
}

func TestValidate(t *testing.T) {
	cases := map[string]func(c *Config){
		"unknown db type":   func(c *Config) { c.Storage.DBType = "mongo" },
		"postgres no dsn":   func(c *Config) { c.Storage.DBType = "postgres" },
		"bad port":          func(c *Config) { c.Port = 70000 },
		"no symbols":        func(c *Config) { c.DataSource.Symbols = nil },
		"duplicate symbols": func(c *Config) { c.DataSource.Symbols[1].Symbol = c.DataSource.Symbols[0].Symbol },
		"bad log level":     func(c *Config) { c.LogLevel = "LOUD" },
		"bad proxy":         func(c *Config) { c.Network.Proxies = []string{"ftp://x"} },
	}
	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			cfg := &Config{MConfig: Default()}
			mutate(cfg)
			require.Error(t, cfg.Validate())
		})
	}

	require.NoError(t, (&Config{MConfig: Default()}).Validate())
}

func TestSave(t *testing.T) {
	path := filepath.Join(t.TempDir(), "saved.yaml")
	cfg := &Config{MConfig: Default()}
	cfg.Port = 3333
	require.NoError(t, cfg.Save(path))

	loaded, err := NewConfig(path)
	require.NoError(t, err)
	require.Equal(t, 3333, loaded.Port)
	require.Equal(t, cfg.DataSource.Symbols, loaded.DataSource.Symbols)
}
