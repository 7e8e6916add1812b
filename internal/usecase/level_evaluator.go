package usecase

import "github.com/vitos/ltp_scanner/internal/domain"

type LevelEvaluator struct{}

func NewLevelEvaluator() *LevelEvaluator {
	return &LevelEvaluator{}
}

// InferDirection reads the level as support when price is above it and as
// resistance when price is below. Exact touch returns "".
func (e *LevelEvaluator) InferDirection(levelPrice, currentPrice float64) domain.Direction {
	if currentPrice > levelPrice {
		return domain.DirectionBullish
	}
	if currentPrice < levelPrice {
		return domain.DirectionBearish
	}
	return ""
}

// ProximityBand returns the [low, high] prices within pct percent of the level.
func (e *LevelEvaluator) ProximityBand(level *domain.KeyLevel, pct float64) (float64, float64) {
	return level.Price * (1 - pct/100), level.Price * (1 + pct/100)
}
