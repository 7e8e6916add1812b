package usecase

import (
	"fmt"
	"time"

	"github.com/vitos/ltp_scanner/internal/domain"
)

const (
	priorDayStrength = 80
	pivotStrength    = 75
	vwapStrength     = 70
	emaStrength      = 60
	pivotSpan        = 2
	levelEMAPeriod   = 21
)

// DerivedLevelID is stable per symbol, level type and timeframe so a refresh
// replaces the previous derived level instead of adding another one.
func DerivedLevelID(symbol string, t domain.LevelType, tf domain.Timeframe) string {
	return fmt.Sprintf("%s:%s:%s", symbol, t, tf)
}

// DeriveKeyLevels builds the standard level set for a symbol: prior-day
// high/low, nearest daily pivot support and resistance, intraday VWAP and the
// daily EMA21. daily must end with the current (forming) day.
func DeriveKeyLevels(symbol string, daily, intraday []domain.Bar, intradayTF domain.Timeframe, now time.Time, ttl time.Duration) []*domain.KeyLevel {
	var levels []*domain.KeyLevel
	add := func(t domain.LevelType, price float64, tf domain.Timeframe, strength float64) {
		if price <= 0 {
			return
		}
		levels = append(levels, &domain.KeyLevel{
			ID:        DerivedLevelID(symbol, t, tf),
			Symbol:    symbol,
			Type:      t,
			Price:     price,
			Timeframe: tf,
			Strength:  strength,
			CreatedAt: now,
			ExpiresAt: now.Add(ttl),
		})
	}

	if len(daily) >= 2 {
		prior := daily[len(daily)-2]
		add(domain.LevelPriorDayHigh, prior.High, domain.TFDaily, priorDayStrength)
		add(domain.LevelPriorDayLow, prior.Low, domain.TFDaily, priorDayStrength)
	}

	price := 0.0
	if len(intraday) > 0 {
		price = intraday[len(intraday)-1].Close
	} else if len(daily) > 0 {
		price = daily[len(daily)-1].Close
	}

	if price > 0 && len(daily) > 2*pivotSpan {
		if p, ok := nearestPivot(daily, price, false); ok {
			add(domain.LevelSupport, p, domain.TFDaily, pivotStrength)
		}
		if p, ok := nearestPivot(daily, price, true); ok {
			add(domain.LevelResistance, p, domain.TFDaily, pivotStrength)
		}
	}

	add(domain.LevelVWAP, CalculateVWAP(intraday), intradayTF, vwapStrength)

	if len(daily) >= levelEMAPeriod {
		add(domain.LevelEMA, CalculateEMA(closes(daily), levelEMAPeriod), domain.TFDaily, emaStrength)
	}

	return levels
}

// nearestPivot finds the closest pivot high above price (highs=true) or
// pivot low below price.
func nearestPivot(bars []domain.Bar, price float64, highs bool) (float64, bool) {
	best, found := 0.0, false
	for i := pivotSpan; i < len(bars)-pivotSpan; i++ {
		if !isPivot(bars, i, highs) {
			continue
		}
		if highs {
			p := bars[i].High
			if p > price && (!found || p < best) {
				best, found = p, true
			}
		} else {
			p := bars[i].Low
			if p < price && (!found || p > best) {
				best, found = p, true
			}
		}
	}
	return best, found
}

func isPivot(bars []domain.Bar, i int, highs bool) bool {
	for j := 1; j <= pivotSpan; j++ {
		if highs {
			if bars[i-j].High >= bars[i].High || bars[i+j].High >= bars[i].High {
				return false
			}
		} else {
			if bars[i-j].Low <= bars[i].Low || bars[i+j].Low <= bars[i].Low {
				return false
			}
		}
	}
	return true
}
