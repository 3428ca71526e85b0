package storage

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"quote-observer/src/helpers"
	"quote-observer/src/logger"
	"quote-observer/src/models"
	"quote-observer/src/normalize"
)

const DefaultFlushDelay = 250 * time.Millisecond

// -----------------------------------------------------------------------------
// FileStore keeps the quote table and snapshot series in memory and rewrites a
// single JSON file after a short debounce. Memory is the source of truth: a
// failed write is logged and retried on the next mutation, and a crash loses at
// most the mutations of one debounce window.
// -----------------------------------------------------------------------------

type FileStore struct {
	Path   string
	Logger *logger.Logger

	quotes    *QuoteTable
	snapshots *SnapshotSeries
	debouncer *Debouncer

	// OnSaveError is called after a failed write, if set.
	OnSaveError func(error)
}

// fileState is the on-disk layout.
type fileState struct {
	Quotes    map[string]models.MQuote `json:"quotes"`
	Snapshots []models.MSnapshot       `json:"snapshots"`
}

// rawFileState is decoded leniently so every record passes through the normalizer.
type rawFileState struct {
	Quotes    map[string]map[string]interface{} `json:"quotes"`
	Snapshots []map[string]interface{}          `json:"snapshots"`
}

// -----------------------------------------------------------------------------

func NewFileStore(path string, flushDelay time.Duration, log *logger.Logger) *FileStore {
	if flushDelay <= 0 {
		flushDelay = DefaultFlushDelay
	}
	s := &FileStore{
		Path:      path,
		Logger:    log,
		quotes:    NewQuoteTable(),
		snapshots: NewSnapshotSeries(),
	}
	s.debouncer = NewDebouncer(flushDelay, s.save)
	return s
}

// -----------------------------------------------------------------------------

func (s *FileStore) Name() string {
	return "file"
}

// -----------------------------------------------------------------------------

// Open loads the state file. A missing or unreadable file leaves the store empty.
func (s *FileStore) Open(ctx context.Context) error {
	if dir := filepath.Dir(s.Path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return helpers.NewDurabilityError("create state directory", err)
		}
	}

	data, err := os.ReadFile(s.Path)
	if errors.Is(err, fs.ErrNotExist) {
		s.Logger.Info("No state file at %s, starting empty", s.Path)
		return nil
	}
	if err != nil {
		s.Logger.Error("%v", helpers.NewLoadError(s.Path, err))
		return nil
	}

	var raw rawFileState
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	if err := dec.Decode(&raw); err != nil {
		s.Logger.Error("%v; starting empty", helpers.NewLoadError(s.Path, err))
		return nil
	}

	quoteRecords := make([]map[string]interface{}, 0, len(raw.Quotes))
	for key, rec := range raw.Quotes {
		if rec == nil {
			quoteRecords = append(quoteRecords, nil)
			continue
		}
		if _, ok := rec["symbol"]; !ok {
			rec["symbol"] = key
		}
		quoteRecords = append(quoteRecords, rec)
	}

	quotes, droppedQuotes := normalize.Quotes(quoteRecords)
	snapshots, droppedSnapshots := normalize.Snapshots(raw.Snapshots)
	if droppedQuotes > 0 || droppedSnapshots > 0 {
		s.Logger.Warning("Dropped %d invalid quotes and %d invalid snapshots from %s", droppedQuotes, droppedSnapshots, s.Path)
	}

	s.quotes.Reset(quotes)
	s.snapshots.Reset(snapshots)
	s.Logger.Info("Loaded %d quotes and %d snapshots from %s", len(quotes), len(snapshots), s.Path)
	return nil
}

// -----------------------------------------------------------------------------

func (s *FileStore) UpsertQuote(ctx context.Context, q models.MQuote) (bool, error) {
	if !s.quotes.Upsert(q) {
		return false, nil
	}
	s.debouncer.Trigger()
	return true, nil
}

// -----------------------------------------------------------------------------

func (s *FileStore) Quotes(ctx context.Context) ([]models.MQuote, error) {
	return s.quotes.All(), nil
}

// -----------------------------------------------------------------------------

func (s *FileStore) Quote(ctx context.Context, symbol string) (models.MQuote, bool, error) {
	q, ok := s.quotes.Get(symbol)
	return q, ok, nil
}

// -----------------------------------------------------------------------------

func (s *FileStore) InsertSnapshot(ctx context.Context, snap models.MSnapshot) (bool, error) {
	if !s.snapshots.Insert(snap) {
		return false, nil
	}
	s.debouncer.Trigger()
	return true, nil
}

// -----------------------------------------------------------------------------

func (s *FileStore) Snapshots(ctx context.Context, symbol string, minTimestamp int64) ([]models.MSnapshot, error) {
	return s.snapshots.Range(symbol, minTimestamp), nil
}

// -----------------------------------------------------------------------------

func (s *FileStore) DeleteSnapshotsBefore(ctx context.Context, cutoff int64) (int, error) {
	removed := s.snapshots.DeleteBefore(cutoff)
	if removed > 0 {
		s.debouncer.Trigger()
	}
	return removed, nil
}

// -----------------------------------------------------------------------------

func (s *FileStore) LatestTimestamp(ctx context.Context, symbol string) (int64, bool, error) {
	ts, ok := s.snapshots.LatestTimestamp(symbol)
	return ts, ok, nil
}

// -----------------------------------------------------------------------------

// Flush cancels the pending write and writes the full state now.
func (s *FileStore) Flush(ctx context.Context) error {
	s.debouncer.Flush()
	return nil
}

// -----------------------------------------------------------------------------

// Close writes the state one last time and ignores later mutation hooks.
func (s *FileStore) Close() error {
	s.debouncer.Stop()
	return nil
}

// -----------------------------------------------------------------------------

// save is the debounced write. Errors are logged, never returned.
func (s *FileStore) save() {
	if err := s.writeFile(); err != nil {
		s.Logger.Error("%v", err)
		if s.OnSaveError != nil {
			s.OnSaveError(err)
		}
	}
}

// -----------------------------------------------------------------------------

// writeFile serializes the state to a temp file next to Path and renames it
// into place so readers see either the old or the new complete file.
func (s *FileStore) writeFile() error {
	state := fileState{
		Quotes:    make(map[string]models.MQuote),
		Snapshots: s.snapshots.All(),
	}
	for _, q := range s.quotes.All() {
		state.Quotes[q.Symbol] = q
	}

	data, err := json.Marshal(state)
	if err != nil {
		return helpers.NewDurabilityError("encode state", err)
	}

	dir, base := filepath.Split(s.Path)
	if dir == "" {
		dir = "."
	}

	tmp, err := os.CreateTemp(dir, base+".tmp-*")
	if err != nil {
		return helpers.NewDurabilityError("create temp file", err)
	}
	tmpPath := tmp.Name()

	cleanup := func(cause error) error {
		tmp.Close()
		if rmErr := os.Remove(tmpPath); rmErr != nil && !errors.Is(rmErr, fs.ErrNotExist) {
			s.Logger.Warning("Failed to remove temp file %s: %v", tmpPath, rmErr)
		}
		return cause
	}

	if _, err := tmp.Write(data); err != nil {
		return cleanup(helpers.NewDurabilityError("write temp file", err))
	}
	if err := tmp.Sync(); err != nil {
		return cleanup(helpers.NewDurabilityError("sync temp file", err))
	}
	if err := tmp.Close(); err != nil {
		return cleanup(helpers.NewDurabilityError("close temp file", err))
	}
	if err := os.Rename(tmpPath, s.Path); err != nil {
		return cleanup(helpers.NewDurabilityError(fmt.Sprintf("rename to %s", s.Path), err))
	}

	s.Logger.Debug("Saved %d quotes and %d snapshots to %s", len(state.Quotes), len(state.Snapshots), s.Path)
	return nil
}
