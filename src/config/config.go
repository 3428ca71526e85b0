package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"

	"quote-observer/src/helpers"
	"quote-observer/src/models"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// -----------------------------------------------------------------------------

// Config wraps models.MConfig and provides business logic methods
type Config struct {
	*models.MConfig
}

// -----------------------------------------------------------------------------

// NewConfig loads the YAML file at configPath, applies .env and environment
// overrides, fills defaults and validates the result. A missing file yields the
// default configuration.
func NewConfig(configPath string) (*Config, error) {
	// 1. .env is optional
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("failed to load .env: %w", err)
	}

	// 2. Read and unmarshal the YAML file
	modelConfig := Default()
	data, err := os.ReadFile(configPath)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		// defaults only
	case err != nil:
		return nil, fmt.Errorf("failed to read config file '%s': %w", configPath, err)
	default:
		if err := yaml.Unmarshal(data, modelConfig); err != nil {
			return nil, fmt.Errorf("failed to parse config from YAML: %w", err)
		}
	}

	config := &Config{MConfig: modelConfig}

	// 3. Environment wins over the file
	if err := config.ApplyEnv(os.LookupEnv); err != nil {
		return nil, err
	}
	config.FillDefaults()

	// 4. Validate the loaded configuration
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return config, nil
}

// -----------------------------------------------------------------------------

// ApplyEnv overrides fields from PORT, POLL_INTERVAL_MS, RETENTION_DAYS, DB_TYPE
// and LOG_LEVEL. lookup is os.LookupEnv outside tests.
func (c *Config) ApplyEnv(lookup func(string) (string, bool)) error {
	ints := []struct {
		key string
		dst *int
	}{
		{"PORT", &c.Port},
		{"POLL_INTERVAL_MS", &c.DataSource.PollIntervalMs},
		{"RETENTION_DAYS", &c.DataSource.DataRetentionDays},
	}
	for _, e := range ints {
		raw, ok := lookup(e.key)
		if !ok || strings.TrimSpace(raw) == "" {
			continue
		}
		n, err := strconv.Atoi(strings.TrimSpace(raw))
		if err != nil {
			return helpers.NewConfigurationError(fmt.Sprintf("invalid %s %q", e.key, raw), err)
		}
		*e.dst = n
	}

	if v, ok := lookup("DB_TYPE"); ok && strings.TrimSpace(v) != "" {
		c.Storage.DBType = strings.ToLower(strings.TrimSpace(v))
	}
	if v, ok := lookup("LOG_LEVEL"); ok && strings.TrimSpace(v) != "" {
		c.LogLevel = strings.ToUpper(strings.TrimSpace(v))
	}
	return nil
}

// -----------------------------------------------------------------------------

// FillDefaults replaces zero values the YAML file left empty.
func (c *Config) FillDefaults() {
	d := Default()

	if c.Name == "" {
		c.Name = d.Name
	}
	if c.Host == "" {
		c.Host = d.Host
	}
	if c.Port == 0 {
		c.Port = d.Port
	}
	if c.LogLevel == "" {
		c.LogLevel = d.LogLevel
	}
	if c.GrpcHost == "" {
		c.GrpcHost = d.GrpcHost
	}

	if c.Storage.DBType == "" {
		c.Storage.DBType = d.Storage.DBType
	}
	if c.Storage.FilePath == "" {
		c.Storage.FilePath = d.Storage.FilePath
	}
	if c.Storage.FlushDelayMs <= 0 {
		c.Storage.FlushDelayMs = d.Storage.FlushDelayMs
	}
	if c.Storage.DBPath == "" {
		c.Storage.DBPath = d.Storage.DBPath
	}

	if c.Network.RequestTimeout <= 0 {
		c.Network.RequestTimeout = d.Network.RequestTimeout
	}
	if c.Network.ConcurrentRequests <= 0 {
		c.Network.ConcurrentRequests = d.Network.ConcurrentRequests
	}
	if c.Network.UserAgent == "" {
		c.Network.UserAgent = d.Network.UserAgent
	}

	ds := &c.DataSource
	if ds.Provider == "" {
		ds.Provider = d.DataSource.Provider
	}
	if ds.BaseURL == "" {
		ds.BaseURL = d.DataSource.BaseURL
	}
	if ds.PollIntervalMs <= 0 {
		ds.PollIntervalMs = d.DataSource.PollIntervalMs
	}
	if ds.CycleTimeoutSeconds <= 0 {
		ds.CycleTimeoutSeconds = d.DataSource.CycleTimeoutSeconds
	}
	if ds.DataRetentionDays <= 0 {
		ds.DataRetentionDays = d.DataSource.DataRetentionDays
	}
	if ds.RetentionSweepMinutes <= 0 {
		ds.RetentionSweepMinutes = d.DataSource.RetentionSweepMinutes
	}
	if len(ds.Symbols) == 0 {
		ds.Symbols = d.DataSource.Symbols
	}
	for i := range ds.Symbols {
		ds.Symbols[i].Symbol = strings.ToLower(strings.TrimSpace(ds.Symbols[i].Symbol))
		if ds.Symbols[i].Market == "" {
			ds.Symbols[i].Market = "crypto"
		}
	}

	if c.Cache.TTLSeconds <= 0 {
		c.Cache.TTLSeconds = d.Cache.TTLSeconds
	}
}

// -----------------------------------------------------------------------------

// Validate performs basic configuration validation
func (c *Config) Validate() error {
	if c.Name == "" {
		return fmt.Errorf("application name cannot be empty")
	}
	switch strings.ToUpper(c.LogLevel) {
	case "DEBUG", "INFO", "WARNING", "WARN", "ERROR":
	default:
		return fmt.Errorf("invalid log level: %q", c.LogLevel)
	}

	// Server
	if c.Host == "" {
		return fmt.Errorf("server host cannot be empty")
	}
	if c.Port <= 0 || c.Port > 65535 {
		return fmt.Errorf("invalid server port number: %d (must be between 1 and 65535)", c.Port)
	}
	if c.GrpcPort < 0 || c.GrpcPort > 65535 {
		return fmt.Errorf("invalid grpc port number: %d", c.GrpcPort)
	}
	if c.GrpcPort != 0 && c.GrpcPort == c.Port && c.GrpcHost == c.Host {
		return fmt.Errorf("grpc port %d collides with the http port", c.GrpcPort)
	}

	// Storage
	switch c.Storage.DBType {
	case "file":
		if c.Storage.FilePath == "" {
			return fmt.Errorf("state file path cannot be empty for file storage")
		}
	case "sqlite":
		if c.Storage.DBPath == "" {
			return fmt.Errorf("database path cannot be empty for sqlite")
		}
	case "postgres":
		if c.Storage.DBConnectionString == "" {
			return fmt.Errorf("connection string cannot be empty for postgres")
		}
	default:
		return fmt.Errorf("unknown database type: %q", c.Storage.DBType)
	}

	// Network
	if c.Network.RequestTimeout <= 0 {
		return fmt.Errorf("request timeout must be greater than 0")
	}
	if c.Network.MaxRetries < 0 {
		return fmt.Errorf("max retries cannot be negative")
	}
	if c.Network.ConcurrentRequests <= 0 {
		return fmt.Errorf("concurrent requests must be greater than 0")
	}
	for _, p := range c.Network.Proxies {
		if !helpers.ValidateProxy(p) {
			return fmt.Errorf("invalid proxy: %q", p)
		}
	}

	// Data source
	ds := c.DataSource
	if ds.BaseURL == "" {
		return fmt.Errorf("data source base url cannot be empty")
	}
	if ds.PollIntervalMs <= 0 {
		return fmt.Errorf("poll interval must be greater than 0")
	}
	if ds.DataRetentionDays <= 0 {
		return fmt.Errorf("data retention days must be greater than 0")
	}
	if len(ds.Symbols) == 0 {
		return fmt.Errorf("at least one symbol must be configured")
	}
	seen := make(map[string]bool, len(ds.Symbols))
	for i, s := range ds.Symbols {
		if s.Symbol == "" {
			return fmt.Errorf("symbol %d cannot be empty", i)
		}
		if seen[s.Symbol] {
			return fmt.Errorf("symbol '%s' is configured twice", s.Symbol)
		}
		seen[s.Symbol] = true
	}

	return nil
}

// -----------------------------------------------------------------------------

// Save persists the current configuration to the specified YAML file path
func (c *Config) Save(configPath string) error {
	data, err := yaml.Marshal(c.MConfig)
	if err != nil {
		return fmt.Errorf("failed to marshal config to YAML: %w", err)
	}

	if err := os.WriteFile(configPath, data, 0644); err != nil {
		return fmt.Errorf("failed to write config to file '%s': %w", configPath, err)
	}

	return nil
}
