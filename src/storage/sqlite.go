package storage

import (
	"quote-observer/src/logger"

	_ "modernc.org/sqlite"
)

// -----------------------------------------------------------------------------

var sqliteDialect = sqlDialect{
	name:   "sqlite",
	driver: "sqlite",
	// A single connection serializes writers and avoids SQLITE_BUSY.
	maxOpenConns: 1,
	pragmas: []string{
		"PRAGMA journal_mode = WAL;",
		"PRAGMA synchronous = NORMAL;",
		"PRAGMA busy_timeout = 5000;",
	},
	schema: []string{
		`CREATE TABLE IF NOT EXISTS quotes (
			symbol TEXT PRIMARY KEY,
			market TEXT NOT NULL DEFAULT '',
			price REAL,
			open REAL,
			close REAL,
			high REAL,
			low REAL,
			volume REAL,
			amount REAL,
			update_time INTEGER NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS snapshots (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			symbol TEXT NOT NULL,
			timestamp INTEGER NOT NULL,
			open REAL,
			close REAL,
			high REAL,
			low REAL,
			volume REAL,
			created_at INTEGER NOT NULL
		);`,
		`CREATE INDEX IF NOT EXISTS idx_snapshots_symbol_ts ON snapshots (symbol, timestamp);`,
	},
}

// -----------------------------------------------------------------------------

// NewSQLiteDB returns a store backed by the SQLite file at path.
func NewSQLiteDB(path string, log *logger.Logger) *SQLStore {
	return &SQLStore{
		DSN:     path,
		Logger:  log,
		dialect: sqliteDialect,
	}
}
