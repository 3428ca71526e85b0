package analysis

import (
	"math"
	"testing"

	"quote-observer/src/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func snap(ts int64, open, closeVal, high, low, volume *float64) models.MSnapshot {
	return models.MSnapshot{Symbol: "btcusdt", Timestamp: ts, Open: open, Close: closeVal, High: high, Low: low, Volume: volume}
}

func TestCalculateWindowBoundaries(t *testing.T) {
	start, end := CalculateWindowBoundaries(59999, 60000)
	assert.Equal(t, int64(0), start)
	assert.Equal(t, int64(60000), end)

	start, end = CalculateWindowBoundaries(60000, 60000)
	assert.Equal(t, int64(60000), start)
	assert.Equal(t, int64(120000), end)

	start, _ = CalculateWindowBoundaries(-1, 60000)
	assert.Equal(t, int64(-60000), start)
}

func TestAggregate(t *testing.T) {
	f := models.Float

	t.Run("single bucket", func(t *testing.T) {
		candles := Aggregate([]models.MSnapshot{
			snap(0, nil, f(100), nil, nil, f(1)),
			snap(30000, nil, f(110), f(115), f(95), f(2)),
			snap(59999, nil, f(105), nil, nil, f(3)),
		}, 60000)

		require.Len(t, candles, 1)
		c := candles[0]
		assert.Equal(t, int64(0), c.Time)
		assert.Equal(t, 100.0, *c.Open)
		assert.Equal(t, 105.0, *c.Close)
		assert.Equal(t, 115.0, *c.High)
		assert.Equal(t, 95.0, *c.Low)
		assert.Equal(t, 6.0, *c.Volume)
	})

	t.Run("buckets ascending", func(t *testing.T) {
		candles := Aggregate([]models.MSnapshot{
			snap(1000, f(1), f(2), nil, nil, nil),
			snap(61000, f(3), f(4), nil, nil, nil),
			snap(181000, f(5), f(6), nil, nil, nil),
		}, 60000)

		require.Len(t, candles, 3)
		assert.Equal(t, int64(0), candles[0].Time)
		assert.Equal(t, int64(60000), candles[1].Time)
		assert.Equal(t, int64(180000), candles[2].Time)
		assert.Equal(t, 2.0, *candles[0].High)
		assert.Equal(t, 1.0, *candles[0].Low)
		assert.Equal(t, 0.0, *candles[0].Volume)
	})

	t.Run("missing fields", func(t *testing.T) {
		candles := Aggregate([]models.MSnapshot{snap(0, nil, nil, nil, nil, nil)}, 60000)
		require.Len(t, candles, 1)
		assert.Equal(t, 0.0, *candles[0].Open)
		assert.Equal(t, 0.0, *candles[0].Close)

		candles = Aggregate([]models.MSnapshot{snap(0, f(7), nil, nil, nil, nil)}, 60000)
		require.Len(t, candles, 1)
		assert.Equal(t, 7.0, *candles[0].Close)
	})

	t.Run("rounding", func(t *testing.T) {
		candles := Aggregate([]models.MSnapshot{snap(0, f(1.23455), f(2.00004), nil, nil, f(0.1234567))}, 60000)
		require.Len(t, candles, 1)
		assert.Equal(t, 1.2346, *candles[0].Open)
		assert.Equal(t, 2.0, *candles[0].Close)
		assert.Equal(t, 0.123457, *candles[0].Volume)
	})

	t.Run("empty input", func(t *testing.T) {
		assert.Empty(t, Aggregate(nil, 60000))
		assert.NotNil(t, Aggregate(nil, 60000))
		assert.Empty(t, Aggregate([]models.MSnapshot{snap(0, f(1), f(1), nil, nil, nil)}, 0))
	})

	t.Run("overflowing volume is nil", func(t *testing.T) {
		candles := Aggregate([]models.MSnapshot{
			snap(0, f(1), f(1), nil, nil, f(math.MaxFloat64)),
			snap(1, f(1), f(1), nil, nil, f(math.MaxFloat64)),
		}, 60000)
		require.Len(t, candles, 1)
		assert.Nil(t, candles[0].Volume)
		assert.NotNil(t, candles[0].Open)
	})
}

func TestRound(t *testing.T) {
	assert.Nil(t, Round(math.NaN(), 4))
	assert.Nil(t, Round(math.Inf(1), 4))
	assert.Nil(t, Round(math.Inf(-1), 6))
	assert.Equal(t, -1.5, *Round(-1.49999, 4))
}

func TestTakeLast(t *testing.T) {
	candles := []models.MCandle{{Time: 1}, {Time: 2}, {Time: 3}}

	assert.Equal(t, []models.MCandle{{Time: 2}, {Time: 3}}, TakeLast(candles, 2))
	assert.Len(t, TakeLast(candles, 10), 3)
	assert.Empty(t, TakeLast(candles, 0))
}
