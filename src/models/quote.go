package models

// MQuote is the latest known market state for one symbol.
// Numeric fields are nil when the upstream value was missing or not finite.
type MQuote struct {
	Symbol     string   `json:"symbol"`
	Market     string   `json:"market"`
	Price      *float64 `json:"price"`
	Open       *float64 `json:"open"`
	Close      *float64 `json:"close"`
	High       *float64 `json:"high"`
	Low        *float64 `json:"low"`
	Volume     *float64 `json:"volume"`
	Amount     *float64 `json:"amount"`
	UpdateTime int64    `json:"updateTime"` // epoch ms
}

// Clone returns a deep copy so callers never share pointer fields with the store.
func (q MQuote) Clone() MQuote {
	q.Price = CloneFloat(q.Price)
	q.Open = CloneFloat(q.Open)
	q.Close = CloneFloat(q.Close)
	q.High = CloneFloat(q.High)
	q.Low = CloneFloat(q.Low)
	q.Volume = CloneFloat(q.Volume)
	q.Amount = CloneFloat(q.Amount)
	return q
}

// -----------------------------------------------------------------------------

// CloneFloat copies a nullable float.
func CloneFloat(v *float64) *float64 {
	if v == nil {
		return nil
	}
	c := *v
	return &c
}

// Float is a helper for building nullable values.
func Float(v float64) *float64 {
	return &v
}
