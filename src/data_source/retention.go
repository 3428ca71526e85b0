package data_source

import (
	"context"
	"time"

	"quote-observer/src/interfaces"
	"quote-observer/src/logger"
	"quote-observer/src/metrics"
	"quote-observer/src/models"
	"quote-observer/src/utils"
)

// RetentionSweeper deletes snapshots older than the retention window.
type RetentionSweeper struct {
	Store         interfaces.IQuoteStore
	Metrics       *metrics.Metrics
	Logger        *logger.Logger
	Now           func() time.Time
	RetentionDays int
	Interval      time.Duration
}

// -----------------------------------------------------------------------------

func NewRetentionSweeper(cfg *models.MConfig, store interfaces.IQuoteStore, m *metrics.Metrics) *RetentionSweeper {
	return &RetentionSweeper{
		Store:         store,
		Metrics:       m,
		Logger:        logger.NewLogger("RetentionSweeper"),
		Now:           time.Now,
		RetentionDays: cfg.DataSource.DataRetentionDays,
		Interval:      time.Duration(cfg.DataSource.RetentionSweepMinutes) * time.Minute,
	}
}

// -----------------------------------------------------------------------------

// Sweep removes every snapshot older than RetentionDays and returns the count.
func (r *RetentionSweeper) Sweep(ctx context.Context) (int, error) {
	cutoff := utils.RetentionCutoff(r.Now(), r.RetentionDays)

	removed, err := r.Store.DeleteSnapshotsBefore(ctx, cutoff)
	if err != nil {
		r.Logger.Error("Retention sweep failed: %v", err)
		return 0, err
	}

	r.Metrics.RecordPruned(removed)
	if removed > 0 {
		r.Logger.Info("Pruned %d snapshots older than %d days", removed, r.RetentionDays)
	}
	return removed, nil
}

// -----------------------------------------------------------------------------

// Run sweeps once immediately and then every Interval until ctx is done.
func (r *RetentionSweeper) Run(ctx context.Context) {
	r.Sweep(ctx)

	ticker := time.NewTicker(r.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			r.Sweep(ctx)
		}
	}
}
