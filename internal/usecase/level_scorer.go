package usecase

import (
	"math"

	"github.com/vitos/ltp_scanner/internal/domain"
)

const DefaultProximityPct = 0.3

// ScoreLevelProximity picks the best level within thresholdPct of price.
// Each candidate scores up to 50 for closeness and up to 50 for strength.
// Ties keep the first level encountered.
func ScoreLevelProximity(price float64, levels []*domain.KeyLevel, thresholdPct float64) domain.LevelResult {
	if thresholdPct <= 0 {
		thresholdPct = DefaultProximityPct
	}

	var best domain.LevelResult
	for _, l := range levels {
		if l == nil || l.Price <= 0 {
			continue
		}
		distPct := math.Abs(price-l.Price) / l.Price * 100
		if distPct > thresholdPct {
			continue
		}

		proximity := (1 - distPct/thresholdPct) * 50
		strength := clamp(l.Strength, 0, 100) / 100 * 50
		score := proximity + strength

		if best.Level == nil || score > best.Score {
			best = domain.LevelResult{Score: score, Level: l}
		}
	}
	return best
}
