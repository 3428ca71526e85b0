package utils

import (
	"sync"
	"time"

	"quote-observer/src/logger"
	"quote-observer/src/models"
)

// MarketScheduler maps each polled symbol to the calendar of its market.
type MarketScheduler struct {
	Calendars map[string]*TradingCalendar
	Logger    *logger.Logger
	mu        sync.RWMutex
}

// -----------------------------------------------------------------------------

func NewMarketScheduler(symbols []models.MSymbolConfig, l *logger.Logger) *MarketScheduler {
	ms := &MarketScheduler{
		Calendars: make(map[string]*TradingCalendar),
		Logger:    l,
	}
	ms.MapSymbolsToCalendars(symbols)
	return ms
}

// -----------------------------------------------------------------------------

// MapSymbolsToCalendars replaces the symbol to calendar mapping. Symbols of
// the same market share one calendar.
func (ms *MarketScheduler) MapSymbolsToCalendars(symbols []models.MSymbolConfig) {
	byMarket := make(map[string]*TradingCalendar)
	calendars := make(map[string]*TradingCalendar, len(symbols))

	for _, s := range symbols {
		cal, ok := byMarket[s.Market]
		if !ok {
			cal = GetCalendar(s.Market, ms.Logger)
			byMarket[s.Market] = cal
		}
		calendars[s.Symbol] = cal
	}

	ms.mu.Lock()
	ms.Calendars = calendars
	ms.mu.Unlock()

	ms.Logger.Info("MarketScheduler: Mapped %d symbols to %d unique calendars.", len(symbols), len(byMarket))
}

// -----------------------------------------------------------------------------

// IsOpen reports whether symbol's market is open at t. Unmapped symbols are
// treated as always open.
func (ms *MarketScheduler) IsOpen(symbol string, t time.Time) bool {
	ms.mu.RLock()
	cal, ok := ms.Calendars[symbol]
	ms.mu.RUnlock()

	if !ok {
		return true
	}
	return cal.IsOpenOnMinute(t)
}

// -----------------------------------------------------------------------------

// AnyMarketOpen checks if any tracked market is open at t.
func (ms *MarketScheduler) AnyMarketOpen(t time.Time) bool {
	ms.mu.RLock()
	defer ms.mu.RUnlock()

	seen := make(map[*TradingCalendar]bool)
	for _, cal := range ms.Calendars {
		if seen[cal] {
			continue
		}
		seen[cal] = true
		if cal.IsOpenOnMinute(t) {
			return true
		}
	}
	return false
}
