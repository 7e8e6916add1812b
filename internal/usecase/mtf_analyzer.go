package usecase

import (
	"math"
	"time"

	"github.com/vitos/ltp_scanner/internal/domain"
)

const (
	structureWindow = 10
	momentumBars    = 5
	orbBars         = 3
)

// AnalyzeTimeframe classifies one timeframe's bars into an MTFAnalysis.
// It returns nil for an empty series.
func AnalyzeTimeframe(symbol string, tf domain.Timeframe, bars []domain.Bar, now time.Time) *domain.MTFAnalysis {
	if len(bars) == 0 {
		return nil
	}

	cl := closes(bars)
	last := cl[len(cl)-1]
	ema9 := CalculateEMA(cl, 9)
	ema21 := CalculateEMA(cl, 21)
	ema50 := CalculateEMA(cl, 50)

	a := &domain.MTFAnalysis{
		Symbol:      symbol,
		Timeframe:   tf,
		Trend:       domain.TrendNeutral,
		Structure:   classifyStructure(bars),
		EMAPosition: "mixed",
		Momentum:    classifyMomentum(cl),
		AnalyzedAt:  now,
	}

	switch {
	case ema9 > ema21 && ema21 > ema50:
		a.EMAPosition = "bullish_stack"
	case ema9 < ema21 && ema21 < ema50:
		a.EMAPosition = "bearish_stack"
	}

	switch {
	case last > ema21 && ema9 >= ema21:
		a.Trend = domain.TrendBullish
	case last < ema21 && ema9 <= ema21:
		a.Trend = domain.TrendBearish
	}

	if vwap := CalculateVWAP(bars); vwap > 0 {
		p := relativePosition(last, vwap, vwap)
		a.VWAPPosition = &p
	}

	if isIntraday(tf) {
		if hi, lo, ok := openingRange(bars); ok {
			p := relativePosition(last, hi, lo)
			a.ORBPosition = &p
		}
	}

	return a
}

// classifyStructure compares the two halves of the recent window.
func classifyStructure(bars []domain.Bar) string {
	if len(bars) < 4 {
		return "ranging"
	}
	window := bars
	if len(window) > structureWindow {
		window = window[len(window)-structureWindow:]
	}
	mid := len(window) / 2
	h1, l1 := highLow(window[:mid])
	h2, l2 := highLow(window[mid:])

	switch {
	case h2 > h1 && l2 > l1:
		return "higher_highs"
	case h2 < h1 && l2 < l1:
		return "lower_lows"
	}
	return "ranging"
}

func classifyMomentum(cl []float64) string {
	if len(cl) <= momentumBars {
		return "weak"
	}
	base := cl[len(cl)-1-momentumBars]
	if base == 0 {
		return "weak"
	}
	roc := math.Abs(cl[len(cl)-1]-base) / base * 100
	switch {
	case roc >= 1:
		return "strong"
	case roc >= 0.3:
		return "moderate"
	}
	return "weak"
}

// openingRange is the high/low of the first bars of the last bar's UTC day.
func openingRange(bars []domain.Bar) (float64, float64, bool) {
	lastDay := dayOf(bars[len(bars)-1].Time)
	var session []domain.Bar
	for _, b := range bars {
		if dayOf(b.Time) == lastDay {
			session = append(session, b)
		}
	}
	if len(session) <= orbBars {
		return 0, 0, false
	}
	hi, lo := highLow(session[:orbBars])
	return hi, lo, true
}

func relativePosition(price, upper, lower float64) domain.Position {
	switch {
	case price > upper:
		return domain.PositionAbove
	case price < lower:
		return domain.PositionBelow
	}
	return domain.PositionInside
}

func highLow(bars []domain.Bar) (float64, float64) {
	hi, lo := bars[0].High, bars[0].Low
	for _, b := range bars[1:] {
		hi = math.Max(hi, b.High)
		lo = math.Min(lo, b.Low)
	}
	return hi, lo
}

func isIntraday(tf domain.Timeframe) bool {
	return tf == domain.TF15m || tf == domain.TF5m || tf == domain.TF2m
}

func dayOf(unix int64) string {
	return time.Unix(unix, 0).UTC().Format("2006-01-02")
}
