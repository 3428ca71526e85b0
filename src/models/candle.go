package models

// MCandle is an OHLCV aggregate over one bucket. It is never persisted.
// A nil field means the aggregate was not a finite number.
type MCandle struct {
	Time   int64    `json:"time"` // bucket start, epoch ms
	Open   *float64 `json:"open"`
	Close  *float64 `json:"close"`
	High   *float64 `json:"high"`
	Low    *float64 `json:"low"`
	Volume *float64 `json:"volume"`
}

// MCandleResponse is the payload of a candle query.
type MCandleResponse struct {
	Symbol     string    `json:"symbol"`
	Interval   string    `json:"interval"`
	IntervalMs int64     `json:"intervalMs"`
	Limit      int       `json:"limit"`
	Candles    []MCandle `json:"candles"`
}
