// Package normalize validates and coerces quote and snapshot records into the
// canonical form held by the store. It has two entry points per entity: a typed
// one used on every live mutation and a record one used while bulk loading
// persisted state, where values arrive as decoded JSON.
package normalize

import (
	"encoding/json"
	"math"
	"strconv"
	"strings"
	"time"

	"quote-observer/src/models"
)

// Now returns the current time in epoch milliseconds. Tests may replace it.
var Now = func() int64 { return time.Now().UnixMilli() }

// -----------------------------------------------------------------------------

// Symbol returns the canonical (trimmed, lowercase) form of a symbol.
func Symbol(symbol string) string {
	return strings.ToLower(strings.TrimSpace(symbol))
}

// -----------------------------------------------------------------------------

// Quote canonicalizes q. It only rejects a quote without a symbol.
func Quote(q models.MQuote) (models.MQuote, bool) {
	q.Symbol = Symbol(q.Symbol)
	if q.Symbol == "" {
		return models.MQuote{}, false
	}

	q.Market = strings.TrimSpace(q.Market)
	q.Price = finite(q.Price)
	q.Open = finite(q.Open)
	q.Close = finite(q.Close)
	q.High = finite(q.High)
	q.Low = finite(q.Low)
	q.Volume = finite(q.Volume)
	q.Amount = finite(q.Amount)

	if q.UpdateTime <= 0 {
		q.UpdateTime = Now()
	}
	return q, true
}

// -----------------------------------------------------------------------------

// Snapshot canonicalizes s. A snapshot needs a symbol; every int64 timestamp,
// including one before the epoch, is finite.
func Snapshot(s models.MSnapshot) (models.MSnapshot, bool) {
	s.Symbol = Symbol(s.Symbol)
	if s.Symbol == "" {
		return models.MSnapshot{}, false
	}

	s.Open = finite(s.Open)
	s.Close = finite(s.Close)
	s.High = finite(s.High)
	s.Low = finite(s.Low)
	s.Volume = finite(s.Volume)

	if s.CreatedAt <= 0 {
		s.CreatedAt = Now()
	}
	return s, true
}

// -----------------------------------------------------------------------------
// Record path (decoded JSON)
// -----------------------------------------------------------------------------

// QuoteRecord builds a quote from a loosely typed record.
func QuoteRecord(raw map[string]interface{}) (models.MQuote, bool) {
	if raw == nil {
		return models.MQuote{}, false
	}

	q := models.MQuote{
		Symbol: stringValue(raw["symbol"]),
		Market: stringValue(raw["market"]),
		Price:  Number(raw["price"]),
		Open:   Number(raw["open"]),
		Close:  Number(raw["close"]),
		High:   Number(raw["high"]),
		Low:    Number(raw["low"]),
		Volume: Number(raw["volume"]),
		Amount: Number(raw["amount"]),
	}
	if ts, ok := Timestamp(raw["updateTime"]); ok {
		q.UpdateTime = ts
	}
	return Quote(q)
}

// -----------------------------------------------------------------------------

// SnapshotRecord builds a snapshot from a loosely typed record.
func SnapshotRecord(raw map[string]interface{}) (models.MSnapshot, bool) {
	if raw == nil {
		return models.MSnapshot{}, false
	}

	ts, ok := Timestamp(raw["timestamp"])
	if !ok {
		return models.MSnapshot{}, false
	}

	s := models.MSnapshot{
		Symbol:    stringValue(raw["symbol"]),
		Timestamp: ts,
		Open:      Number(raw["open"]),
		Close:     Number(raw["close"]),
		High:      Number(raw["high"]),
		Low:       Number(raw["low"]),
		Volume:    Number(raw["volume"]),
	}
	if created, ok := Timestamp(raw["createdAt"]); ok {
		s.CreatedAt = created
	}
	return Snapshot(s)
}

// -----------------------------------------------------------------------------

// Quotes filters a bulk load. It returns the accepted quotes and how many were dropped.
func Quotes(raws []map[string]interface{}) ([]models.MQuote, int) {
	out := make([]models.MQuote, 0, len(raws))
	dropped := 0
	for _, raw := range raws {
		if q, ok := QuoteRecord(raw); ok {
			out = append(out, q)
		} else {
			dropped++
		}
	}
	return out, dropped
}

// Snapshots filters a bulk load. It returns the accepted snapshots and how many were dropped.
func Snapshots(raws []map[string]interface{}) ([]models.MSnapshot, int) {
	out := make([]models.MSnapshot, 0, len(raws))
	dropped := 0
	for _, raw := range raws {
		if s, ok := SnapshotRecord(raw); ok {
			out = append(out, s)
		} else {
			dropped++
		}
	}
	return out, dropped
}

// -----------------------------------------------------------------------------
// Coercion
// -----------------------------------------------------------------------------

// Number is a best-effort numeric parse. Anything that is not a finite number becomes nil.
func Number(v interface{}) *float64 {
	var f float64
	switch n := v.(type) {
	case nil:
		return nil
	case float64:
		f = n
	case float32:
		f = float64(n)
	case int:
		f = float64(n)
	case int64:
		f = float64(n)
	case int32:
		f = float64(n)
	case uint64:
		f = float64(n)
	case json.Number:
		parsed, err := n.Float64()
		if err != nil {
			return nil
		}
		f = parsed
	case string:
		parsed, err := strconv.ParseFloat(strings.TrimSpace(n), 64)
		if err != nil {
			return nil
		}
		f = parsed
	case *float64:
		if n == nil {
			return nil
		}
		f = *n
	default:
		return nil
	}

	if math.IsNaN(f) || math.IsInf(f, 0) {
		return nil
	}
	return &f
}

// Timestamp parses a finite epoch millisecond value that fits in an int64.
// Fractions are truncated toward zero.
func Timestamp(v interface{}) (int64, bool) {
	f := Number(v)
	if f == nil || *f < math.MinInt64 || *f >= math.MaxInt64 {
		return 0, false
	}
	return int64(*f), true
}

func finite(v *float64) *float64 {
	if v == nil || math.IsNaN(*v) || math.IsInf(*v, 0) {
		return nil
	}
	c := *v
	return &c
}

func stringValue(v interface{}) string {
	switch s := v.(type) {
	case string:
		return s
	case json.Number:
		return s.String()
	case float64:
		return strconv.FormatFloat(s, 'f', -1, 64)
	default:
		return ""
	}
}
