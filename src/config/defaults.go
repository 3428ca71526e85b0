package config

import "quote-observer/src/models"

// Default returns the configuration used when no file is present.
func Default() *models.MConfig {
	return &models.MConfig{
		Name:     "quote-observer",
		Host:     "0.0.0.0",
		Port:     3000,
		LogLevel: "INFO",
		GrpcHost: "0.0.0.0",
		Storage: models.MStorageConfig{
			DBType:       "file",
			FilePath:     "data/quotes.json",
			FlushDelayMs: 250,
			DBPath:       "data/quotes.db",
		},
		Network: models.MNetworkConfig{
			Enabled:            true,
			RequestTimeout:     10,
			MaxRetries:         2,
			ConcurrentRequests: 8,
		},
		DataSource: models.MDataSourceConfig{
			Provider:              "binance",
			BaseURL:               "https://api.binance.com",
			PollIntervalMs:        5000,
			CycleTimeoutSeconds:   30,
			DataRetentionDays:     7,
			RetentionSweepMinutes: 60,
			Symbols: []models.MSymbolConfig{
				{Symbol: "btcusdt", Market: "crypto"},
				{Symbol: "ethusdt", Market: "crypto"},
				{Symbol: "bnbusdt", Market: "crypto"},
				{Symbol: "solusdt", Market: "crypto"},
				{Symbol: "xrpusdt", Market: "crypto"},
			},
		},
		Cache: models.MCacheConfig{
			TTLSeconds: 5,
		},
	}
}
