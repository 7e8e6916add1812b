package domain

// Bar is one OHLCV observation. Sequences are ordered oldest to newest.
type Bar struct {
	Time   int64   `json:"time"` // unix seconds, bar open
	Open   float64 `json:"open"`
	High   float64 `json:"high"`
	Low    float64 `json:"low"`
	Close  float64 `json:"close"`
	Volume float64 `json:"volume"`
}

// TypicalPrice returns (high+low+close)/3.
func (b Bar) TypicalPrice() float64 {
	return (b.High + b.Low + b.Close) / 3
}
