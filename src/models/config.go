package models

// MConfig Structure
type MConfig struct {
	Name       string            `yaml:"name"`
	Host       string            `yaml:"host"`
	Port       int               `yaml:"port"`
	LogLevel   string            `yaml:"log_level"`
	LogFormat  string            `yaml:"log_format"` // "text" or "json"
	LogFile    string            `yaml:"log_file"`   // Optional rotating file
	GrpcHost   string            `yaml:"grpc_host"`
	GrpcPort   int               `yaml:"grpc_port"` // 0 disables the control endpoint
	Storage    MStorageConfig    `yaml:"storage"`
	Network    MNetworkConfig    `yaml:"network"`
	DataSource MDataSourceConfig `yaml:"data_source"`
	Cache      MCacheConfig      `yaml:"cache"`
}

type MStorageConfig struct {
	DBType             string `yaml:"db_type"`   // "file", "sqlite" or "postgres"
	FilePath           string `yaml:"file_path"` // JSON state file for the "file" backend
	FlushDelayMs       int    `yaml:"flush_delay_ms"`
	DBPath             string `yaml:"db_path"`
	DBConnectionString string `yaml:"db_connection_string"`
}

type MNetworkConfig struct {
	Enabled            bool     `yaml:"enabled"`
	Proxies            []string `yaml:"proxies"`
	RequestTimeout     int      `yaml:"timeout"`
	MaxRetries         int      `yaml:"retries"`
	ConcurrentRequests int      `yaml:"concurrent_requests"`
	UserAgent          string   `yaml:"user_agent"`
}

type MDataSourceConfig struct {
	Provider              string          `yaml:"provider"`
	BaseURL               string          `yaml:"base_url"`
	PollIntervalMs        int             `yaml:"poll_interval_ms"`
	CycleTimeoutSeconds   int             `yaml:"cycle_timeout_seconds"`
	DataRetentionDays     int             `yaml:"data_retention_days"`
	RetentionSweepMinutes int             `yaml:"retention_sweep_minutes"`
	Symbols               []MSymbolConfig `yaml:"symbols"`
}

// MSymbolConfig ties a symbol to the market whose hours gate its polling.
type MSymbolConfig struct {
	Symbol string `yaml:"symbol"`
	Market string `yaml:"market"` // "crypto" or an ISO 10383 MIC such as "xnys"
}

type MCacheConfig struct {
	RedisAddr     string `yaml:"redis_addr"` // Empty disables caching
	RedisPassword string `yaml:"redis_password"`
	RedisDB       int    `yaml:"redis_db"`
	TTLSeconds    int    `yaml:"ttl_seconds"`
}
