package analysis

import (
	"math"
	"sort"

	"quote-observer/src/models"

	"github.com/shopspring/decimal"
)

const (
	priceDecimals  = 4
	volumeDecimals = 6
)

// -----------------------------------------------------------------------------

// CalculateWindowBoundaries returns the [start, end) bucket holding ts. Buckets
// are aligned to multiples of window, including for negative timestamps.
func CalculateWindowBoundaries(ts int64, window int64) (int64, int64) {
	start := ts - (ts % window)
	if ts%window < 0 {
		start -= window
	}
	return start, start + window
}

// -----------------------------------------------------------------------------

type bucket struct {
	start   int64
	firstTs int64
	lastTs  int64
	open    float64
	close   float64
	high    float64
	low     float64
	volume  float64
}

// -----------------------------------------------------------------------------

// Aggregate folds snapshots into OHLCV candles of intervalMs width. Input must be
// sorted ascending by timestamp; the first snapshot of a bucket sets its open
// and the last sets its close. Candles come back ascending by bucket start.
func Aggregate(snapshots []models.MSnapshot, intervalMs int64) []models.MCandle {
	if intervalMs <= 0 || len(snapshots) == 0 {
		return []models.MCandle{}
	}

	buckets := make(map[int64]*bucket)
	for _, s := range snapshots {
		start, _ := CalculateWindowBoundaries(s.Timestamp, intervalMs)
		open, closeVal, high, low, volume := fillOHLCV(s)

		b, ok := buckets[start]
		if !ok {
			buckets[start] = &bucket{
				start:   start,
				firstTs: s.Timestamp,
				lastTs:  s.Timestamp,
				open:    open,
				close:   closeVal,
				high:    high,
				low:     low,
				volume:  volume,
			}
			continue
		}

		if s.Timestamp < b.firstTs {
			b.firstTs = s.Timestamp
			b.open = open
		}
		if s.Timestamp >= b.lastTs {
			b.lastTs = s.Timestamp
			b.close = closeVal
		}
		b.high = math.Max(b.high, high)
		b.low = math.Min(b.low, low)
		b.volume += volume
	}

	starts := make([]int64, 0, len(buckets))
	for start := range buckets {
		starts = append(starts, start)
	}
	sort.Slice(starts, func(i, j int) bool { return starts[i] < starts[j] })

	candles := make([]models.MCandle, 0, len(starts))
	for _, start := range starts {
		b := buckets[start]
		candles = append(candles, models.MCandle{
			Time:   b.start,
			Open:   Round(b.open, priceDecimals),
			Close:  Round(b.close, priceDecimals),
			High:   Round(b.high, priceDecimals),
			Low:    Round(b.low, priceDecimals),
			Volume: Round(b.volume, volumeDecimals),
		})
	}
	return candles
}

// -----------------------------------------------------------------------------

// fillOHLCV substitutes missing values: open falls back to close then 0, close
// to open, high/low to the max/min of open and close, volume to 0.
func fillOHLCV(s models.MSnapshot) (open, closeVal, high, low, volume float64) {
	switch {
	case s.Open != nil:
		open = *s.Open
	case s.Close != nil:
		open = *s.Close
	}

	closeVal = open
	if s.Close != nil {
		closeVal = *s.Close
	}

	high = math.Max(open, closeVal)
	if s.High != nil {
		high = *s.High
	}

	low = math.Min(open, closeVal)
	if s.Low != nil {
		low = *s.Low
	}

	if s.Volume != nil {
		volume = *s.Volume
	}
	return open, closeVal, high, low, volume
}

// -----------------------------------------------------------------------------

// Round rounds v half away from zero to the given decimal places. Non-finite
// values yield nil.
func Round(v float64, places int32) *float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return nil
	}
	r, _ := decimal.NewFromFloat(v).Round(places).Float64()
	return &r
}

// -----------------------------------------------------------------------------

// TakeLast keeps the newest n candles.
func TakeLast(candles []models.MCandle, n int) []models.MCandle {
	if n <= 0 {
		return []models.MCandle{}
	}
	if len(candles) <= n {
		return candles
	}
	return candles[len(candles)-n:]
}
