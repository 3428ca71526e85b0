package utils

import (
	"testing"
	"time"

	"quote-observer/src/logger"
	"quote-observer/src/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetCalendar(t *testing.T) {
	crypto := GetCalendar("crypto", nil)
	assert.True(t, crypto.AlwaysOpen)
	assert.True(t, crypto.IsOpenOnMinute(time.Date(2025, 12, 25, 3, 0, 0, 0, time.UTC)))

	assert.True(t, GetCalendar("", nil).AlwaysOpen)

	unknown := GetCalendar("nowhere", logger.NewLogger("test"))
	require.True(t, unknown.Fallback)
	// Sunday
	assert.False(t, unknown.IsOpenOnMinute(time.Date(2025, 6, 8, 15, 0, 0, 0, time.UTC)))
}

func TestMarketScheduler(t *testing.T) {
	ms := NewMarketScheduler([]models.MSymbolConfig{
		{Symbol: "btcusdt", Market: "crypto"},
		{Symbol: "ethusdt", Market: "crypto"},
		{Symbol: "aapl", Market: "xnys"},
	}, logger.NewLogger("test"))

	require.Len(t, ms.Calendars, 3)
	assert.Same(t, ms.Calendars["btcusdt"], ms.Calendars["ethusdt"])

	saturday := time.Date(2025, 6, 7, 15, 0, 0, 0, time.UTC)
	assert.True(t, ms.IsOpen("btcusdt", saturday))
	assert.False(t, ms.IsOpen("aapl", saturday))
	assert.True(t, ms.IsOpen("unmapped", saturday))
	assert.True(t, ms.AnyMarketOpen(saturday))
}

func TestRetentionCutoff(t *testing.T) {
	now := time.UnixMilli(10 * MillisPerDay)
	assert.Equal(t, 3*MillisPerDay, RetentionCutoff(now, 7))
}
