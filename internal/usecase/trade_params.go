package usecase

import (
	"math"

	"github.com/shopspring/decimal"
	"github.com/vitos/ltp_scanner/internal/domain"
)

// DefaultATRProxyPct is the flat volatility estimate (1% of price) standing
// in for a computed ATR. Changing it moves every stop and target.
const DefaultATRProxyPct = 1.0

// CalculateTradeParams derives entry, stop and three R-multiple targets off
// the selected level. It returns nil when there is no level to lean on.
// Risk/reward always uses target 2 as the reward leg.
func CalculateTradeParams(currentPrice float64, level *domain.KeyLevel, direction domain.Direction, atrPct float64) *domain.TradeParams {
	if level == nil || !direction.Valid() {
		return nil
	}
	if atrPct <= 0 {
		atrPct = DefaultATRProxyPct
	}
	atr := currentPrice * atrPct / 100

	entry := currentPrice
	var stop, t1, t2, t3 float64
	if direction == domain.DirectionBullish {
		stop = level.Price - atr
		r := entry - stop
		t1, t2, t3 = entry+r, entry+2*r, entry+3*r
	} else {
		stop = level.Price + atr
		r := stop - entry
		t1, t2, t3 = entry-r, entry-2*r, entry-3*r
	}

	risk := math.Abs(entry - stop)
	reward := math.Abs(t2 - entry)
	var rr float64
	if risk > 0 {
		rr = reward / risk
	}

	return &domain.TradeParams{
		Entry:      roundTo(entry, 2),
		Stop:       roundTo(stop, 2),
		Target1:    roundTo(t1, 2),
		Target2:    roundTo(t2, 2),
		Target3:    roundTo(t3, 2),
		RiskReward: roundTo(rr, 1),
	}
}

func roundTo(v float64, places int32) float64 {
	return decimal.NewFromFloat(v).Round(places).InexactFloat64()
}
