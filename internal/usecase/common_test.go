package usecase_test

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/vitos/ltp_scanner/internal/domain"
)

const epsilon = 0.000001

var errMarketDown = errors.New("market down")

// flatBars returns n dojis at price, each with a 0.2% range.
func flatBars(n int, price float64) []domain.Bar {
	bars := make([]domain.Bar, n)
	start := time.Date(2026, 10, 1, 0, 0, 0, 0, time.UTC).Unix()
	for i := range bars {
		bars[i] = domain.Bar{
			Time:   start + int64(i*300),
			Open:   price,
			High:   price * 1.002,
			Low:    price * 0.998,
			Close:  price,
			Volume: 10,
		}
	}
	return bars
}

// risingBars climbs one point per bar from base.
func risingBars(n int, base float64, step time.Duration) []domain.Bar {
	bars := make([]domain.Bar, n)
	start := time.Date(2026, 10, 1, 0, 0, 0, 0, time.UTC)
	for i := range bars {
		c := base + float64(i)
		bars[i] = domain.Bar{
			Time:   start.Add(time.Duration(i) * step).Unix(),
			Open:   c - 0.5,
			High:   c + 0.5,
			Low:    c - 1,
			Close:  c,
			Volume: 10,
		}
	}
	return bars
}

func fallingBars(n int, base float64, step time.Duration) []domain.Bar {
	bars := risingBars(n, 0, step)
	for i := range bars {
		c := base - float64(i)
		bars[i].Open, bars[i].High, bars[i].Low, bars[i].Close = c+0.5, c+1, c-0.5, c
	}
	return bars
}

func keyLevel(t domain.LevelType, price, strength float64) *domain.KeyLevel {
	now := time.Now()
	return &domain.KeyLevel{
		ID:        string(t),
		Symbol:    "BTCUSDT",
		Type:      t,
		Price:     price,
		Timeframe: domain.TF5m,
		Strength:  strength,
		CreatedAt: now,
		ExpiresAt: now.Add(time.Hour),
	}
}

func analysis(tf domain.Timeframe, trend domain.Trend) *domain.MTFAnalysis {
	return &domain.MTFAnalysis{
		Symbol:     "BTCUSDT",
		Timeframe:  tf,
		Trend:      trend,
		AnalyzedAt: time.Now(),
	}
}

// mockMarket serves canned bars per timeframe.
type mockMarket struct {
	mu    sync.Mutex
	bars  map[domain.Timeframe][]domain.Bar
	err   error
	calls int
}

func (m *mockMarket) GetCandles(ctx context.Context, symbol string, tf domain.Timeframe, limit int) ([]domain.Bar, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls++
	if m.err != nil {
		return nil, m.err
	}
	bars, ok := m.bars[tf]
	if !ok {
		return nil, errors.New("unsupported timeframe")
	}
	return bars, nil
}

// failingReader fails every read and records the last window it was asked for.
type failingReader struct {
	since time.Time
	asOf  time.Time
}

func (r *failingReader) ListDetectedSetups(ctx context.Context, filter domain.SetupFilter) ([]*domain.DetectedSetup, error) {
	r.since = filter.Since
	return nil, errors.New("db closed")
}

func (r *failingReader) ListKeyLevels(ctx context.Context, symbol string, asOf time.Time) ([]*domain.KeyLevel, error) {
	r.asOf = asOf
	return nil, errors.New("db closed")
}

func (r *failingReader) ListMTFAnalyses(ctx context.Context, symbol string, since time.Time) ([]*domain.MTFAnalysis, error) {
	r.since = since
	return nil, errors.New("db closed")
}
