package usecase_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/vitos/ltp_scanner/internal/domain"
	"github.com/vitos/ltp_scanner/internal/usecase"
)

func TestScoreTrendAlignment(t *testing.T) {
	allBullish := make([]*domain.MTFAnalysis, 0, len(domain.AllTimeframes))
	for _, tf := range domain.AllTimeframes {
		allBullish = append(allBullish, analysis(tf, domain.TrendBullish))
	}

	tests := []struct {
		name      string
		analyses  []*domain.MTFAnalysis
		direction domain.Direction
		want      float64
	}{
		{"No analyses", nil, domain.DirectionBullish, 0},
		{"Every timeframe agrees", allBullish, domain.DirectionBullish, 100},
		{"Every timeframe disagrees", allBullish, domain.DirectionBearish, 0},
		{
			"Daily and 1h agree",
			[]*domain.MTFAnalysis{
				analysis(domain.TFDaily, domain.TrendBullish),
				analysis(domain.TF1h, domain.TrendBullish),
				analysis(domain.TF4h, domain.TrendBearish),
			},
			domain.DirectionBullish,
			40,
		},
		{
			"Neutral never counts",
			[]*domain.MTFAnalysis{
				analysis(domain.TFWeekly, domain.TrendNeutral),
				analysis(domain.TF15m, domain.TrendBearish),
			},
			domain.DirectionBearish,
			15,
		},
		{
			"Unknown timeframe weighs 0.1",
			[]*domain.MTFAnalysis{analysis(domain.Timeframe("3m"), domain.TrendBullish)},
			domain.DirectionBullish,
			10,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := usecase.ScoreTrendAlignment(tt.analyses, tt.direction, nil)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestScoreTrendAlignment_CustomWeights(t *testing.T) {
	weights := map[domain.Timeframe]float64{domain.TFDaily: 0.5, domain.TF1h: 0.5}
	analyses := []*domain.MTFAnalysis{
		analysis(domain.TFDaily, domain.TrendBearish),
		analysis(domain.TF5m, domain.TrendBearish),
	}
	// 5m is not in the map so falls back to 0.1
	assert.Equal(t, 60.0, usecase.ScoreTrendAlignment(analyses, domain.DirectionBearish, weights))
}
