package storage

import (
	"quote-observer/src/logger"

	_ "github.com/lib/pq"
)

// -----------------------------------------------------------------------------

var postgresDialect = sqlDialect{
	name:        "postgres",
	driver:      "postgres",
	numbered:    true,
	// The default collation follows the server locale; "C" compares bytes.
	symbolOrder: `symbol COLLATE "C" ASC`,
	schema: []string{
		`CREATE TABLE IF NOT EXISTS quotes (
			symbol TEXT PRIMARY KEY,
			market TEXT NOT NULL DEFAULT '',
			price DOUBLE PRECISION,
			open DOUBLE PRECISION,
			close DOUBLE PRECISION,
			high DOUBLE PRECISION,
			low DOUBLE PRECISION,
			volume DOUBLE PRECISION,
			amount DOUBLE PRECISION,
			update_time BIGINT NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS snapshots (
			id BIGSERIAL PRIMARY KEY,
			symbol TEXT NOT NULL,
			timestamp BIGINT NOT NULL,
			open DOUBLE PRECISION,
			close DOUBLE PRECISION,
			high DOUBLE PRECISION,
			low DOUBLE PRECISION,
			volume DOUBLE PRECISION,
			created_at BIGINT NOT NULL
		);`,
		`CREATE INDEX IF NOT EXISTS idx_snapshots_symbol_ts ON snapshots (symbol, timestamp);`,
	},
}

// -----------------------------------------------------------------------------

// NewPostgresDB returns a store backed by the Postgres database at dsn.
func NewPostgresDB(dsn string, log *logger.Logger) *SQLStore {
	return &SQLStore{
		DSN:     dsn,
		Logger:  log,
		dialect: postgresDialect,
	}
}
