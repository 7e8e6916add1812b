package usecase

import (
	"time"

	"github.com/vitos/ltp_scanner/internal/domain"
)

// EngineConfig carries every threshold and weight used by the scorers.
type EngineConfig struct {
	ProximityPct       float64 // level must sit within this % of price to score
	PatienceDistPct    float64 // patience candle close must sit within this % of the level
	PatienceMaxBodyPct float64
	PatienceLookback   int
	ATRProxyPct        float64 // flat volatility estimate used for stops
	TimeframeWeights   map[domain.Timeframe]float64
	SetupWindow        time.Duration
	ReadyScore         int
}

// DefaultTimeframeWeights sum to 1.0.
func DefaultTimeframeWeights() map[domain.Timeframe]float64 {
	return map[domain.Timeframe]float64{
		domain.TFWeekly: 0.15,
		domain.TFDaily:  0.20,
		domain.TF4h:     0.15,
		domain.TF1h:     0.20,
		domain.TF15m:    0.15,
		domain.TF5m:     0.10,
		domain.TF2m:     0.05,
	}
}

func DefaultEngineConfig() EngineConfig {
	return EngineConfig{
		ProximityPct:       0.3,
		PatienceDistPct:    0.3,
		PatienceMaxBodyPct: 0.5,
		PatienceLookback:   5,
		ATRProxyPct:        1.0,
		TimeframeWeights:   DefaultTimeframeWeights(),
		SetupWindow:        30 * time.Minute,
		ReadyScore:         70,
	}
}

// withDefaults fills zero fields so a partially populated config behaves.
func (c EngineConfig) withDefaults() EngineConfig {
	d := DefaultEngineConfig()
	if c.ProximityPct <= 0 {
		c.ProximityPct = d.ProximityPct
	}
	if c.PatienceDistPct <= 0 {
		c.PatienceDistPct = d.PatienceDistPct
	}
	if c.PatienceMaxBodyPct <= 0 {
		c.PatienceMaxBodyPct = d.PatienceMaxBodyPct
	}
	if c.PatienceLookback <= 0 {
		c.PatienceLookback = d.PatienceLookback
	}
	if c.ATRProxyPct <= 0 {
		c.ATRProxyPct = d.ATRProxyPct
	}
	if len(c.TimeframeWeights) == 0 {
		c.TimeframeWeights = d.TimeframeWeights
	}
	if c.SetupWindow <= 0 {
		c.SetupWindow = d.SetupWindow
	}
	if c.ReadyScore <= 0 {
		c.ReadyScore = d.ReadyScore
	}
	return c
}
