package domain

import "time"

type Timeframe string

const (
	TFWeekly Timeframe = "weekly"
	TFDaily  Timeframe = "daily"
	TF4h     Timeframe = "4h"
	TF1h     Timeframe = "1h"
	TF15m    Timeframe = "15m"
	TF5m     Timeframe = "5m"
	TF2m     Timeframe = "2m"
)

// AllTimeframes lists the timeframes analysed per symbol, highest first.
var AllTimeframes = []Timeframe{TFWeekly, TFDaily, TF4h, TF1h, TF15m, TF5m, TF2m}

func (tf Timeframe) Valid() bool {
	for _, known := range AllTimeframes {
		if tf == known {
			return true
		}
	}
	return false
}

type Trend string

const (
	TrendBullish Trend = "bullish"
	TrendBearish Trend = "bearish"
	TrendNeutral Trend = "neutral"
)

// Position of price relative to a reference line (VWAP, opening range).
type Position string

const (
	PositionAbove  Position = "above"
	PositionBelow  Position = "below"
	PositionInside Position = "inside"
)

// MTFAnalysis is one timeframe's trend read for a symbol.
type MTFAnalysis struct {
	ID           int64     `json:"id"`
	Symbol       string    `json:"symbol"`
	Timeframe    Timeframe `json:"timeframe"`
	Trend        Trend     `json:"trend"`
	Structure    string    `json:"structure"`     // higher_highs, lower_lows, ranging
	EMAPosition  string    `json:"ema_position"`  // bullish_stack, bearish_stack, mixed
	Momentum     string    `json:"momentum"`      // strong, moderate, weak
	ORBPosition  *Position `json:"orb_position"`  // nil when no opening range is known
	VWAPPosition *Position `json:"vwap_position"` // nil when volume is missing
	AnalyzedAt   time.Time `json:"analyzed_at"`
}
