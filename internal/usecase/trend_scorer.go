package usecase

import (
	"math"

	"github.com/vitos/ltp_scanner/internal/domain"
)

// UnknownTimeframeWeight applies to timeframes missing from the weight map.
const UnknownTimeframeWeight = 0.1

// ScoreTrendAlignment sums weight*100 over every analysis whose trend agrees
// with direction. A nil weights map uses DefaultTimeframeWeights.
func ScoreTrendAlignment(analyses []*domain.MTFAnalysis, direction domain.Direction, weights map[domain.Timeframe]float64) float64 {
	if weights == nil {
		weights = DefaultTimeframeWeights()
	}

	var acc float64
	for _, a := range analyses {
		if a == nil || !direction.Matches(a.Trend) {
			continue
		}
		w, ok := weights[a.Timeframe]
		if !ok {
			w = UnknownTimeframeWeight
		}
		acc += w * 100
	}
	return math.Round(acc)
}
