package usecase

import (
	"math"

	"github.com/vitos/ltp_scanner/internal/domain"
)

const (
	LevelWeight    = 0.35
	TrendWeight    = 0.35
	PatienceWeight = 0.30
)

// CalculateLTPScore clamps each component to 0..100 and combines them with
// fixed weights.
func CalculateLTPScore(levelScore, trendScore, patienceScore float64) domain.LTPScore {
	l := clamp(levelScore, 0, 100)
	t := clamp(trendScore, 0, 100)
	p := clamp(patienceScore, 0, 100)

	overall := math.Round(LevelWeight*l + TrendWeight*t + PatienceWeight*p)

	return domain.LTPScore{
		Level:    l,
		Trend:    t,
		Patience: p,
		Overall:  int(overall),
	}
}

func GetLTPGrade(overall int) domain.Grade {
	switch {
	case overall >= 90:
		return domain.GradeA
	case overall >= 80:
		return domain.GradeB
	case overall >= 70:
		return domain.GradeC
	case overall >= 60:
		return domain.GradeD
	default:
		return domain.GradeF
	}
}

func clamp(v, lo, hi float64) float64 {
	if math.IsNaN(v) {
		return lo
	}
	return math.Max(lo, math.Min(hi, v))
}
