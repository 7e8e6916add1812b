package usecase

import "github.com/vitos/ltp_scanner/internal/domain"

// CalculateEMA returns the final exponential moving average of series.
// With fewer points than period it falls back to the latest value (0 when empty).
func CalculateEMA(series []float64, period int) float64 {
	if len(series) == 0 {
		return 0
	}
	if period <= 0 || len(series) < period {
		return series[len(series)-1]
	}

	k := 2.0 / (float64(period) + 1.0)

	// Simple MA seeds the first EMA
	sum := 0.0
	for i := 0; i < period; i++ {
		sum += series[i]
	}
	ema := sum / float64(period)

	for i := period; i < len(series); i++ {
		ema = series[i]*k + ema*(1-k)
	}
	return ema
}

// CalculateVWAP is the volume weighted typical price over all bars.
func CalculateVWAP(bars []domain.Bar) float64 {
	var pv, v float64
	for _, b := range bars {
		pv += b.TypicalPrice() * b.Volume
		v += b.Volume
	}
	if v == 0 {
		return 0
	}
	return pv / v
}

func closes(bars []domain.Bar) []float64 {
	out := make([]float64, len(bars))
	for i, b := range bars {
		out[i] = b.Close
	}
	return out
}
