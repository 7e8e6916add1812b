package usecase

import (
	"math"

	"github.com/vitos/ltp_scanner/internal/domain"
)

const (
	DefaultPatienceMaxBodyPct  = 0.5
	DefaultPatienceDistancePct = 0.3
	DefaultPatienceLookback    = 5

	minPatienceBars       = 3
	minPatienceConfirming = 2
)

// PatienceOptions tunes the detector. Zero fields take the defaults above.
type PatienceOptions struct {
	MaxBodyPct     float64
	MaxDistancePct float64
	Lookback       int
}

// DetectPatienceCandle counts small-bodied bars closing tight to levelPrice
// among the most recent bars. Two or more qualifying bars confirm patience.
func DetectPatienceCandle(bars []domain.Bar, levelPrice float64, opts PatienceOptions) domain.PatienceResult {
	if len(bars) < minPatienceBars || levelPrice <= 0 {
		return domain.PatienceResult{}
	}
	if opts.MaxBodyPct <= 0 {
		opts.MaxBodyPct = DefaultPatienceMaxBodyPct
	}
	if opts.MaxDistancePct <= 0 {
		opts.MaxDistancePct = DefaultPatienceDistancePct
	}
	if opts.Lookback <= 0 {
		opts.Lookback = DefaultPatienceLookback
	}

	start := len(bars) - opts.Lookback
	if start < 0 {
		start = 0
	}

	count := 0
	for _, b := range bars[start:] {
		if b.Open <= 0 {
			continue
		}
		bodyPct := math.Abs(b.Close-b.Open) / b.Open * 100
		distPct := math.Abs(b.Close-levelPrice) / levelPrice * 100
		if bodyPct < opts.MaxBodyPct && distPct < opts.MaxDistancePct {
			count++
		}
	}

	return domain.PatienceResult{
		Detected: count >= minPatienceConfirming,
		Count:    count,
	}
}

// ScorePatienceQuality maps detector output to 0..100: a base of 40 for any
// confirmed patience plus 20 per candle, capped at 60.
func ScorePatienceQuality(p domain.PatienceResult) float64 {
	if !p.Detected {
		return 0
	}
	bonus := math.Min(float64(p.Count*20), 60)
	return 40 + bonus
}
