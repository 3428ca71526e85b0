package normalize

import (
	"encoding/json"
	"math"
	"testing"

	"quote-observer/src/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func withNow(t *testing.T, ms int64) {
	t.Helper()
	prev := Now
	Now = func() int64 { return ms }
	t.Cleanup(func() { Now = prev })
}

func TestNumber(t *testing.T) {
	cases := []struct {
		in   interface{}
		want *float64
	}{
		{nil, nil},
		{1.5, models.Float(1.5)},
		{int64(7), models.Float(7)},
		{json.Number("42.25"), models.Float(42.25)},
		{" 3.5 ", models.Float(3.5)},
		{"", nil},
		{"abc", nil},
		{math.NaN(), nil},
		{math.Inf(1), nil},
		{"Infinity", nil},
		{true, nil},
	}
	for _, c := range cases {
		assert.Equal(t, c.want, Number(c.in), "input %#v", c.in)
	}
}

func TestTimestamp(t *testing.T) {
	ts, ok := Timestamp(json.Number("1700000000123.9"))
	require.True(t, ok)
	assert.Equal(t, int64(1700000000123), ts)

	ts, ok = Timestamp(0)
	require.True(t, ok)
	assert.Equal(t, int64(0), ts)

	ts, ok = Timestamp(-1.9)
	require.True(t, ok)
	assert.Equal(t, int64(-1), ts)

	_, ok = Timestamp(-1e30)
	assert.False(t, ok)
	_, ok = Timestamp(1e30)
	assert.False(t, ok)
	_, ok = Timestamp("soon")
	assert.False(t, ok)
}

func TestQuote(t *testing.T) {
	withNow(t, 5000)

	q, ok := Quote(models.MQuote{Symbol: "  BTCUSDT ", Price: models.Float(math.NaN()), Close: models.Float(10)})
	require.True(t, ok)
	assert.Equal(t, "btcusdt", q.Symbol)
	assert.Nil(t, q.Price)
	assert.Equal(t, 10.0, *q.Close)
	assert.Equal(t, int64(5000), q.UpdateTime)

	q, ok = Quote(models.MQuote{Symbol: "btcusdt", UpdateTime: 42})
	require.True(t, ok)
	assert.Equal(t, int64(42), q.UpdateTime)

	_, ok = Quote(models.MQuote{Symbol: "\t"})
	assert.False(t, ok)
}

func TestSnapshot(t *testing.T) {
	withNow(t, 9000)

	s, ok := Snapshot(models.MSnapshot{Symbol: "ETHUSDT", Timestamp: 0, High: models.Float(math.Inf(-1))})
	require.True(t, ok)
	assert.Equal(t, "ethusdt", s.Symbol)
	assert.Nil(t, s.High)
	assert.Equal(t, int64(9000), s.CreatedAt)

	s, ok = Snapshot(models.MSnapshot{Symbol: "ethusdt", Timestamp: -10})
	require.True(t, ok)
	assert.Equal(t, int64(-10), s.Timestamp)
	_, ok = Snapshot(models.MSnapshot{Timestamp: 10})
	assert.False(t, ok)
}

func TestBulkRecords(t *testing.T) {
	withNow(t, 1)

	quotes, dropped := Quotes([]map[string]interface{}{
		{"symbol": "BTCUSDT", "price": "100.5", "updateTime": json.Number("1000")},
		{"symbol": ""},
		nil,
	})
	require.Len(t, quotes, 1)
	assert.Equal(t, 2, dropped)
	assert.Equal(t, 100.5, *quotes[0].Price)
	assert.Equal(t, int64(1000), quotes[0].UpdateTime)

	snaps, dropped := Snapshots([]map[string]interface{}{
		{"symbol": "btcusdt", "timestamp": 1000, "close": "x", "createdAt": 2000},
		{"symbol": "btcusdt"},
		{"symbol": "btcusdt", "timestamp": "later"},
	})
	require.Len(t, snaps, 1)
	assert.Equal(t, 2, dropped)
	assert.Nil(t, snaps[0].Close)
	assert.Equal(t, int64(2000), snaps[0].CreatedAt)
}
