package storage

import (
	"sort"
	"sync"

	"quote-observer/src/models"
	"quote-observer/src/normalize"
)

// -----------------------------------------------------------------------------
// QuoteTable holds one latest quote per symbol.
// -----------------------------------------------------------------------------

type QuoteTable struct {
	mu     sync.RWMutex
	quotes map[string]models.MQuote
}

func NewQuoteTable() *QuoteTable {
	return &QuoteTable{quotes: make(map[string]models.MQuote)}
}

// -----------------------------------------------------------------------------

// Upsert replaces the entry for the quote's symbol. It returns false when the
// quote has no symbol.
func (t *QuoteTable) Upsert(q models.MQuote) bool {
	n, ok := normalize.Quote(q)
	if !ok {
		return false
	}

	t.mu.Lock()
	t.quotes[n.Symbol] = n
	t.mu.Unlock()
	return true
}

// -----------------------------------------------------------------------------

// All returns copies of every quote ordered by symbol.
func (t *QuoteTable) All() []models.MQuote {
	t.mu.RLock()
	out := make([]models.MQuote, 0, len(t.quotes))
	for _, q := range t.quotes {
		out = append(out, q.Clone())
	}
	t.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool {
		return out[i].Symbol < out[j].Symbol
	})
	return out
}

// -----------------------------------------------------------------------------

// Get returns a copy of the quote stored under symbol.
func (t *QuoteTable) Get(symbol string) (models.MQuote, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()

	q, ok := t.quotes[symbol]
	if !ok {
		return models.MQuote{}, false
	}
	return q.Clone(), true
}

// -----------------------------------------------------------------------------

// Len returns the number of symbols in the table.
func (t *QuoteTable) Len() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return len(t.quotes)
}

// -----------------------------------------------------------------------------

// Reset replaces the whole table. Entries are assumed to be normalized.
func (t *QuoteTable) Reset(quotes []models.MQuote) {
	m := make(map[string]models.MQuote, len(quotes))
	for _, q := range quotes {
		m[q.Symbol] = q.Clone()
	}

	t.mu.Lock()
	t.quotes = m
	t.mu.Unlock()
}

// -----------------------------------------------------------------------------
// SnapshotSeries is the append-only snapshot list with a per-symbol index of
// the newest retained timestamp.
// -----------------------------------------------------------------------------

type SnapshotSeries struct {
	mu        sync.RWMutex
	snapshots []models.MSnapshot
	latest    map[string]int64
}

func NewSnapshotSeries() *SnapshotSeries {
	return &SnapshotSeries{latest: make(map[string]int64)}
}

// -----------------------------------------------------------------------------

// Insert appends a normalized copy of s and advances the latest index.
func (ss *SnapshotSeries) Insert(s models.MSnapshot) bool {
	n, ok := normalize.Snapshot(s)
	if !ok {
		return false
	}

	ss.mu.Lock()
	defer ss.mu.Unlock()

	ss.snapshots = append(ss.snapshots, n)
	if cur, ok := ss.latest[n.Symbol]; !ok || n.Timestamp > cur {
		ss.latest[n.Symbol] = n.Timestamp
	}
	return true
}

// -----------------------------------------------------------------------------

// Range returns the symbol's snapshots with timestamp >= minTimestamp sorted
// ascending by timestamp. Equal timestamps keep insertion order.
func (ss *SnapshotSeries) Range(symbol string, minTimestamp int64) []models.MSnapshot {
	ss.mu.RLock()
	var out []models.MSnapshot
	for _, s := range ss.snapshots {
		if s.Symbol == symbol && s.Timestamp >= minTimestamp {
			out = append(out, s.Clone())
		}
	}
	ss.mu.RUnlock()

	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Timestamp < out[j].Timestamp
	})
	return out
}

// -----------------------------------------------------------------------------

// DeleteBefore drops every snapshot with timestamp < cutoff and rebuilds the
// latest index. It returns the number removed.
func (ss *SnapshotSeries) DeleteBefore(cutoff int64) int {
	ss.mu.Lock()
	defer ss.mu.Unlock()

	kept := ss.snapshots[:0]
	for _, s := range ss.snapshots {
		if s.Timestamp >= cutoff {
			kept = append(kept, s)
		}
	}
	removed := len(ss.snapshots) - len(kept)

	// Clear the tail so dropped pointer fields can be collected.
	for i := len(kept); i < len(ss.snapshots); i++ {
		ss.snapshots[i] = models.MSnapshot{}
	}
	ss.snapshots = kept

	if removed > 0 {
		ss.rebuildIndexLocked()
	}
	return removed
}

// -----------------------------------------------------------------------------

// LatestTimestamp returns the newest retained timestamp for symbol.
func (ss *SnapshotSeries) LatestTimestamp(symbol string) (int64, bool) {
	ss.mu.RLock()
	defer ss.mu.RUnlock()
	ts, ok := ss.latest[symbol]
	return ts, ok
}

// -----------------------------------------------------------------------------

// All returns copies of every snapshot in storage order.
func (ss *SnapshotSeries) All() []models.MSnapshot {
	ss.mu.RLock()
	defer ss.mu.RUnlock()

	out := make([]models.MSnapshot, len(ss.snapshots))
	for i, s := range ss.snapshots {
		out[i] = s.Clone()
	}
	return out
}

// -----------------------------------------------------------------------------

// Len returns the number of retained snapshots.
func (ss *SnapshotSeries) Len() int {
	ss.mu.RLock()
	defer ss.mu.RUnlock()
	return len(ss.snapshots)
}

// -----------------------------------------------------------------------------

// Reset replaces the series. Entries are assumed to be normalized.
func (ss *SnapshotSeries) Reset(snapshots []models.MSnapshot) {
	cp := make([]models.MSnapshot, len(snapshots))
	for i, s := range snapshots {
		cp[i] = s.Clone()
	}

	ss.mu.Lock()
	ss.snapshots = cp
	ss.rebuildIndexLocked()
	ss.mu.Unlock()
}

// -----------------------------------------------------------------------------

func (ss *SnapshotSeries) rebuildIndexLocked() {
	latest := make(map[string]int64)
	for _, s := range ss.snapshots {
		if cur, ok := latest[s.Symbol]; !ok || s.Timestamp > cur {
			latest[s.Symbol] = s.Timestamp
		}
	}
	ss.latest = latest
}
