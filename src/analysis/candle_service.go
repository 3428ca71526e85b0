package analysis

import (
	"context"
	"math"
	"strings"
	"time"

	"quote-observer/src/interfaces"
	"quote-observer/src/models"
	"quote-observer/src/normalize"
)

// -----------------------------------------------------------------------------
// CandleService answers candle queries from the snapshot series.
// -----------------------------------------------------------------------------

type CandleService struct {
	Store interfaces.IQuoteStore
	Now   func() time.Time
}

func NewCandleService(store interfaces.IQuoteStore) *CandleService {
	return &CandleService{Store: store, Now: time.Now}
}

// -----------------------------------------------------------------------------

// Candles aggregates the snapshots of the last interval*limit*2 milliseconds
// and keeps the newest limit buckets.
func (c *CandleService) Candles(ctx context.Context, symbol, interval string, limit int) (models.MCandleResponse, error) {
	symbol = normalize.Symbol(symbol)
	intervalMs := ParseInterval(interval)
	limit = ClampLimit(limit)

	interval = strings.TrimSpace(interval)
	if interval == "" {
		interval = DefaultInterval
	}

	since := int64(math.MinInt64)
	if intervalMs <= math.MaxInt64/int64(limit*2) {
		since = c.Now().UnixMilli() - intervalMs*int64(limit)*2
	}

	snapshots, err := c.Store.Snapshots(ctx, symbol, since)
	if err != nil {
		return models.MCandleResponse{}, err
	}

	return models.MCandleResponse{
		Symbol:     symbol,
		Interval:   interval,
		IntervalMs: intervalMs,
		Limit:      limit,
		Candles:    TakeLast(Aggregate(snapshots, intervalMs), limit),
	}, nil
}
