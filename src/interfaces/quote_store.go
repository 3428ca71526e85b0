package interfaces

import (
	"context"

	"quote-observer/src/models"
)

// -----------------------------------------------------------------------------
// IQuoteStore is the storage contract shared by every persistence backend.
// Reads always return copies the caller may modify freely.
// -----------------------------------------------------------------------------

type IQuoteStore interface {

	// Name identifies the backend ("file", "sqlite", "postgres").
	Name() string

	// -----------------------------------------------------------------------------

	// Open loads or prepares durable state. It must be called before any other method.
	Open(ctx context.Context) error

	// -----------------------------------------------------------------------------

	// UpsertQuote normalizes and replaces the quote for its symbol.
	// It reports false when the quote fails normalization.
	UpsertQuote(ctx context.Context, quote models.MQuote) (bool, error)

	// Quotes returns every latest quote ordered by symbol.
	Quotes(ctx context.Context) ([]models.MQuote, error)

	// Quote returns the latest quote for a canonical symbol.
	Quote(ctx context.Context, symbol string) (models.MQuote, bool, error)

	// -----------------------------------------------------------------------------

	// InsertSnapshot normalizes and appends a snapshot to the series.
	InsertSnapshot(ctx context.Context, snapshot models.MSnapshot) (bool, error)

	// Snapshots returns the symbol's snapshots with timestamp >= minTimestamp, ascending.
	Snapshots(ctx context.Context, symbol string, minTimestamp int64) ([]models.MSnapshot, error)

	// DeleteSnapshotsBefore removes snapshots with timestamp < cutoff and returns the count.
	DeleteSnapshotsBefore(ctx context.Context, cutoff int64) (int, error)

	// LatestTimestamp returns the newest retained snapshot timestamp for the symbol.
	LatestTimestamp(ctx context.Context, symbol string) (int64, bool, error)

	// -----------------------------------------------------------------------------

	// Flush forces pending durability work to finish synchronously.
	Flush(ctx context.Context) error

	// Close flushes and releases resources.
	Close() error
}
