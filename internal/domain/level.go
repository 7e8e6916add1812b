package domain

import "time"

type LevelType string

const (
	LevelSupport      LevelType = "support"
	LevelResistance   LevelType = "resistance"
	LevelVWAP         LevelType = "vwap"
	LevelPriorDayHigh LevelType = "prior_day_high"
	LevelPriorDayLow  LevelType = "prior_day_low"
	LevelEMA          LevelType = "ema"
)

// Valid reports whether t is one of the known level types.
func (t LevelType) Valid() bool {
	switch t {
	case LevelSupport, LevelResistance, LevelVWAP, LevelPriorDayHigh, LevelPriorDayLow, LevelEMA:
		return true
	}
	return false
}

// Label is the human readable form used in coach notes.
func (t LevelType) Label() string {
	switch t {
	case LevelSupport:
		return "support"
	case LevelResistance:
		return "resistance"
	case LevelVWAP:
		return "VWAP"
	case LevelPriorDayHigh:
		return "prior day high"
	case LevelPriorDayLow:
		return "prior day low"
	case LevelEMA:
		return "EMA"
	}
	if t == "" {
		return "key"
	}
	return string(t)
}

// KeyLevel is a significant price level. Expiry is owned by the store;
// the engine treats every level it receives as valid.
type KeyLevel struct {
	ID        string    `json:"id"`
	Symbol    string    `json:"symbol"`
	Type      LevelType `json:"level_type"`
	Price     float64   `json:"price"`
	Timeframe Timeframe `json:"timeframe"`
	Strength  float64   `json:"strength"` // 0..100
	CreatedAt time.Time `json:"created_at"`
	ExpiresAt time.Time `json:"expires_at"`
}
