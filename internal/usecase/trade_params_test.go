package usecase_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vitos/ltp_scanner/internal/domain"
	"github.com/vitos/ltp_scanner/internal/usecase"
)

func TestCalculateTradeParams(t *testing.T) {
	tests := []struct {
		name      string
		price     float64
		level     *domain.KeyLevel
		direction domain.Direction
		want      *domain.TradeParams
	}{
		{
			"Bullish off support",
			100, keyLevel(domain.LevelSupport, 98, 80), domain.DirectionBullish,
			&domain.TradeParams{Entry: 100, Stop: 97, Target1: 103, Target2: 106, Target3: 109, RiskReward: 2},
		},
		{
			"Bearish off resistance",
			100, keyLevel(domain.LevelResistance, 102, 80), domain.DirectionBearish,
			&domain.TradeParams{Entry: 100, Stop: 103, Target1: 97, Target2: 94, Target3: 91, RiskReward: 2},
		},
		{
			"Prices round to cents",
			123.456, keyLevel(domain.LevelSupport, 123.4, 80), domain.DirectionBullish,
			&domain.TradeParams{Entry: 123.46, Stop: 122.17, Target1: 124.75, Target2: 126.04, Target3: 127.33, RiskReward: 2},
		},
		{"No level bullish", 100, nil, domain.DirectionBullish, nil},
		{"No level bearish", 100, nil, domain.DirectionBearish, nil},
		{"Invalid direction", 100, keyLevel(domain.LevelSupport, 98, 80), domain.Direction("sideways"), nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := usecase.CalculateTradeParams(tt.price, tt.level, tt.direction, usecase.DefaultATRProxyPct)
			if tt.want == nil {
				assert.Nil(t, got)
				return
			}
			require.NotNil(t, got)
			assert.InDelta(t, tt.want.Entry, got.Entry, epsilon)
			assert.InDelta(t, tt.want.Stop, got.Stop, epsilon)
			assert.InDelta(t, tt.want.Target1, got.Target1, epsilon)
			assert.InDelta(t, tt.want.Target2, got.Target2, epsilon)
			assert.InDelta(t, tt.want.Target3, got.Target3, epsilon)
			assert.InDelta(t, tt.want.RiskReward, got.RiskReward, epsilon)
		})
	}
}

func TestCalculateTradeParams_ZeroRisk(t *testing.T) {
	// price sits exactly one ATR below the level, so stop == entry
	got := usecase.CalculateTradeParams(100, keyLevel(domain.LevelSupport, 101, 80), domain.DirectionBullish, usecase.DefaultATRProxyPct)
	require.NotNil(t, got)
	assert.Equal(t, 0.0, got.RiskReward)
}
