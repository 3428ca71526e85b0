package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"quote-observer/src/helpers"
	"quote-observer/src/logger"
	"quote-observer/src/models"
	"quote-observer/src/normalize"
)

// -----------------------------------------------------------------------------

// sqlDialect carries what differs between the SQL backends.
type sqlDialect struct {
	name         string
	driver       string
	numbered     bool   // $1 placeholders instead of ?
	symbolOrder  string // ORDER BY clause matching Go string ordering
	maxOpenConns int
	pragmas      []string
	schema       []string
}

// -----------------------------------------------------------------------------
// SQLStore writes every accepted mutation straight to the database and serves
// reads from it. There is no batching: each upsert or insert is one durable
// statement, and the (symbol, timestamp) index backs range and latest queries.
// -----------------------------------------------------------------------------

type SQLStore struct {
	DSN    string
	DB     *sql.DB
	Logger *logger.Logger

	dialect sqlDialect
}

// -----------------------------------------------------------------------------

func (d *SQLStore) Name() string {
	return d.dialect.name
}

// -----------------------------------------------------------------------------

func (d *SQLStore) Open(ctx context.Context) error {
	db, err := sql.Open(d.dialect.driver, d.DSN)
	if err != nil {
		return fmt.Errorf("open %s: %w", d.dialect.name, err)
	}

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return fmt.Errorf("ping %s: %w", d.dialect.name, err)
	}

	if d.dialect.maxOpenConns > 0 {
		db.SetMaxOpenConns(d.dialect.maxOpenConns)
	}

	for _, pragma := range d.dialect.pragmas {
		if _, err := db.ExecContext(ctx, pragma); err != nil {
			d.Logger.Warning("Failed to apply %q: %v", pragma, err)
		}
	}

	for _, stmt := range d.dialect.schema {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			db.Close()
			return fmt.Errorf("create schema: %w", err)
		}
	}

	d.DB = db
	d.Logger.Info("%s store ready", d.dialect.name)
	return nil
}

// -----------------------------------------------------------------------------

func (d *SQLStore) UpsertQuote(ctx context.Context, q models.MQuote) (bool, error) {
	n, ok := normalize.Quote(q)
	if !ok {
		return false, nil
	}

	query := d.rebind(`
		INSERT INTO quotes (symbol, market, price, open, close, high, low, volume, amount, update_time)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (symbol) DO UPDATE SET
			market = excluded.market,
			price = excluded.price,
			open = excluded.open,
			close = excluded.close,
			high = excluded.high,
			low = excluded.low,
			volume = excluded.volume,
			amount = excluded.amount,
			update_time = excluded.update_time
	`)
	_, err := d.DB.ExecContext(ctx, query,
		n.Symbol, n.Market,
		nullFloat(n.Price), nullFloat(n.Open), nullFloat(n.Close), nullFloat(n.High),
		nullFloat(n.Low), nullFloat(n.Volume), nullFloat(n.Amount),
		n.UpdateTime,
	)
	if err != nil {
		return false, helpers.NewDurabilityError("upsert quote "+n.Symbol, err)
	}
	return true, nil
}

// -----------------------------------------------------------------------------

const quoteColumns = `symbol, market, price, open, close, high, low, volume, amount, update_time`

func (d *SQLStore) Quotes(ctx context.Context) ([]models.MQuote, error) {
	rows, err := d.DB.QueryContext(ctx, d.quotesQuery())
	if err != nil {
		return nil, helpers.NewQueryError("list quotes", err)
	}
	defer rows.Close()

	quotes := []models.MQuote{}
	for rows.Next() {
		q, err := scanQuote(rows)
		if err != nil {
			return nil, helpers.NewQueryError("scan quote", err)
		}
		quotes = append(quotes, q)
	}
	if err := rows.Err(); err != nil {
		return nil, helpers.NewQueryError("list quotes", err)
	}
	return quotes, nil
}

// -----------------------------------------------------------------------------

func (d *SQLStore) Quote(ctx context.Context, symbol string) (models.MQuote, bool, error) {
	row := d.DB.QueryRowContext(ctx, d.rebind(`SELECT `+quoteColumns+` FROM quotes WHERE symbol = ?`), symbol)
	q, err := scanQuote(row)
	if errors.Is(err, sql.ErrNoRows) {
		return models.MQuote{}, false, nil
	}
	if err != nil {
		return models.MQuote{}, false, helpers.NewQueryError("get quote "+symbol, err)
	}
	return q, true, nil
}

// -----------------------------------------------------------------------------

func (d *SQLStore) InsertSnapshot(ctx context.Context, s models.MSnapshot) (bool, error) {
	n, ok := normalize.Snapshot(s)
	if !ok {
		return false, nil
	}

	query := d.rebind(`
		INSERT INTO snapshots (symbol, timestamp, open, close, high, low, volume, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`)
	_, err := d.DB.ExecContext(ctx, query,
		n.Symbol, n.Timestamp,
		nullFloat(n.Open), nullFloat(n.Close), nullFloat(n.High), nullFloat(n.Low), nullFloat(n.Volume),
		n.CreatedAt,
	)
	if err != nil {
		return false, helpers.NewDurabilityError("insert snapshot "+n.Symbol, err)
	}
	return true, nil
}

// -----------------------------------------------------------------------------

func (d *SQLStore) Snapshots(ctx context.Context, symbol string, minTimestamp int64) ([]models.MSnapshot, error) {
	query := d.rebind(`
		SELECT symbol, timestamp, open, close, high, low, volume, created_at
		FROM snapshots
		WHERE symbol = ? AND timestamp >= ?
		ORDER BY timestamp ASC, id ASC
	`)
	rows, err := d.DB.QueryContext(ctx, query, symbol, minTimestamp)
	if err != nil {
		return nil, helpers.NewQueryError("range snapshots "+symbol, err)
	}
	defer rows.Close()

	var out []models.MSnapshot
	for rows.Next() {
		var s models.MSnapshot
		var open, closeVal, high, low, volume sql.NullFloat64
		if err := rows.Scan(&s.Symbol, &s.Timestamp, &open, &closeVal, &high, &low, &volume, &s.CreatedAt); err != nil {
			return nil, helpers.NewQueryError("scan snapshot", err)
		}
		s.Open = floatPtr(open)
		s.Close = floatPtr(closeVal)
		s.High = floatPtr(high)
		s.Low = floatPtr(low)
		s.Volume = floatPtr(volume)
		out = append(out, s)
	}
	if err := rows.Err(); err != nil {
		return nil, helpers.NewQueryError("range snapshots "+symbol, err)
	}
	return out, nil
}

// -----------------------------------------------------------------------------

func (d *SQLStore) DeleteSnapshotsBefore(ctx context.Context, cutoff int64) (int, error) {
	res, err := d.DB.ExecContext(ctx, d.rebind(`DELETE FROM snapshots WHERE timestamp < ?`), cutoff)
	if err != nil {
		return 0, helpers.NewDurabilityError("delete snapshots", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, helpers.NewDurabilityError("delete snapshots", err)
	}
	return int(n), nil
}

// -----------------------------------------------------------------------------

func (d *SQLStore) LatestTimestamp(ctx context.Context, symbol string) (int64, bool, error) {
	var ts sql.NullInt64
	err := d.DB.QueryRowContext(ctx, d.rebind(`SELECT MAX(timestamp) FROM snapshots WHERE symbol = ?`), symbol).Scan(&ts)
	if err != nil {
		return 0, false, helpers.NewQueryError("latest timestamp "+symbol, err)
	}
	return ts.Int64, ts.Valid, nil
}

// -----------------------------------------------------------------------------

// Flush is a no-op: every write is already durable when it returns.
func (d *SQLStore) Flush(ctx context.Context) error {
	return nil
}

// -----------------------------------------------------------------------------

func (d *SQLStore) Close() error {
	if d.DB != nil {
		return d.DB.Close()
	}
	return nil
}

// -----------------------------------------------------------------------------
// Helpers
// -----------------------------------------------------------------------------

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanQuote(row rowScanner) (models.MQuote, error) {
	var q models.MQuote
	var price, open, closeVal, high, low, volume, amount sql.NullFloat64
	if err := row.Scan(&q.Symbol, &q.Market, &price, &open, &closeVal, &high, &low, &volume, &amount, &q.UpdateTime); err != nil {
		return models.MQuote{}, err
	}
	q.Price = floatPtr(price)
	q.Open = floatPtr(open)
	q.Close = floatPtr(closeVal)
	q.High = floatPtr(high)
	q.Low = floatPtr(low)
	q.Volume = floatPtr(volume)
	q.Amount = floatPtr(amount)
	return q, nil
}

// quotesQuery lists every quote in byte-wise symbol order.
func (d *SQLStore) quotesQuery() string {
	order := d.dialect.symbolOrder
	if order == "" {
		order = "symbol ASC"
	}
	return `SELECT ` + quoteColumns + ` FROM quotes ORDER BY ` + order
}

// rebind rewrites ? placeholders as $1..$n for drivers that need them.
func (d *SQLStore) rebind(query string) string {
	if !d.dialect.numbered {
		return query
	}
	var b strings.Builder
	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			b.WriteString("$" + strconv.Itoa(n))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

func nullFloat(v *float64) sql.NullFloat64 {
	if v == nil {
		return sql.NullFloat64{}
	}
	return sql.NullFloat64{Float64: *v, Valid: true}
}

func floatPtr(v sql.NullFloat64) *float64 {
	if !v.Valid {
		return nil
	}
	f := v.Float64
	return &f
}
