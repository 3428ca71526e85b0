package storage

import (
	"fmt"
	"time"

	"quote-observer/src/interfaces"
	"quote-observer/src/logger"
	"quote-observer/src/models"
)

// -----------------------------------------------------------------------------

// NewStore builds the backend named by cfg.Storage.DBType. The store still has
// to be opened by the caller.
func NewStore(cfg *models.MConfig) (interfaces.IQuoteStore, error) {
	switch cfg.Storage.DBType {
	case "", "file":
		delay := time.Duration(cfg.Storage.FlushDelayMs) * time.Millisecond
		return NewFileStore(cfg.Storage.FilePath, delay, logger.NewLogger("FileStore")), nil
	case "sqlite":
		return NewSQLiteDB(cfg.Storage.DBPath, logger.NewLogger("SQLiteDB")), nil
	case "postgres":
		return NewPostgresDB(cfg.Storage.DBConnectionString, logger.NewLogger("PostgresDB")), nil
	default:
		return nil, fmt.Errorf("unknown storage type %q", cfg.Storage.DBType)
	}
}
