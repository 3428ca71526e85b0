package utils

import (
	"strings"
	"time"

	"quote-observer/src/logger"

	"github.com/scmhub/calendar"
)

// MarketCrypto tags symbols that trade around the clock.
const MarketCrypto = "crypto"

// TradingCalendar answers open/closed questions for one market using scmhub/calendar.
type TradingCalendar struct {
	Market     string
	Calendar   *calendar.Calendar
	AlwaysOpen bool
	Fallback   bool
	Timezone   *time.Location
}

// -----------------------------------------------------------------------------

// GetCalendar resolves a market tag. "crypto" (or empty) never closes; any
// other tag is looked up as an ISO 10383 MIC. Unknown MICs fall back to a
// Mon-Fri 09:30-16:00 New York session.
func GetCalendar(market string, log *logger.Logger) *TradingCalendar {
	mic := strings.ToLower(strings.TrimSpace(market))
	if mic == "" || mic == MarketCrypto {
		return &TradingCalendar{Market: MarketCrypto, AlwaysOpen: true, Timezone: time.UTC}
	}

	if cal := calendar.GetCalendar(mic); cal != nil {
		return &TradingCalendar{Market: mic, Calendar: cal, Timezone: cal.Loc}
	}

	if log != nil {
		log.Warning("No calendar for MIC '%s', using Mon-Fri 09:30-16:00 New York hours", mic)
	}
	nyLoc, err := time.LoadLocation("America/New_York")
	if err != nil {
		nyLoc = time.UTC
	}
	return &TradingCalendar{Market: mic, Fallback: true, Timezone: nyLoc}
}

// -----------------------------------------------------------------------------

func (tc *TradingCalendar) IsTradingDay(date time.Time) bool {
	if tc.AlwaysOpen {
		return true
	}
	if tc.Timezone != nil {
		date = date.In(tc.Timezone)
	}

	if tc.Fallback {
		weekday := date.Weekday()
		return weekday != time.Saturday && weekday != time.Sunday
	}
	return tc.Calendar.IsBusinessDay(date)
}

// -----------------------------------------------------------------------------

// IsOpenOnMinute checks if the market is open at t.
func (tc *TradingCalendar) IsOpenOnMinute(t time.Time) bool {
	if tc.AlwaysOpen {
		return true
	}
	if tc.Timezone != nil {
		t = t.In(tc.Timezone)
	}

	if tc.Fallback {
		if !tc.IsTradingDay(t) {
			return false
		}
		hour, minute := t.Hour(), t.Minute()
		return (hour > 9 || (hour == 9 && minute >= 30)) && hour < 16
	}

	return tc.Calendar.IsOpen(t)
}
