package models

// MSnapshot is one timestamped observation of a symbol's OHLCV values.
type MSnapshot struct {
	Symbol    string   `json:"symbol"`
	Timestamp int64    `json:"timestamp"` // epoch ms of the upstream update
	Open      *float64 `json:"open"`
	Close     *float64 `json:"close"`
	High      *float64 `json:"high"`
	Low       *float64 `json:"low"`
	Volume    *float64 `json:"volume"`
	CreatedAt int64    `json:"createdAt"` // epoch ms of local insertion
}

// Clone returns a deep copy of the snapshot.
func (s MSnapshot) Clone() MSnapshot {
	s.Open = CloneFloat(s.Open)
	s.Close = CloneFloat(s.Close)
	s.High = CloneFloat(s.High)
	s.Low = CloneFloat(s.Low)
	s.Volume = CloneFloat(s.Volume)
	return s
}

// SnapshotFromQuote derives the series entry recorded for a polled quote.
func SnapshotFromQuote(q MQuote, createdAt int64) MSnapshot {
	return MSnapshot{
		Symbol:    q.Symbol,
		Timestamp: q.UpdateTime,
		Open:      CloneFloat(q.Open),
		Close:     CloneFloat(q.Close),
		High:      CloneFloat(q.High),
		Low:       CloneFloat(q.Low),
		Volume:    CloneFloat(q.Volume),
		CreatedAt: createdAt,
	}
}
