package usecase_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vitos/ltp_scanner/internal/domain"
	"github.com/vitos/ltp_scanner/internal/infrastructure/storage"
	"github.com/vitos/ltp_scanner/internal/usecase"
	"go.uber.org/zap"
)

func newTestService(t *testing.T, market domain.MarketData) (*usecase.SetupService, *storage.MemoryStore) {
	t.Helper()
	store := storage.NewMemoryStore()
	svc := usecase.NewSetupService(market, store, store, usecase.DefaultEngineConfig(), usecase.DefaultScanConfig(), zap.NewNop())
	return svc, store
}

// seedBullishStructure stores a support at 100 and an 80-point bullish
// timeframe picture (weekly bearish, 2m neutral).
func seedBullishStructure(t *testing.T, store *storage.MemoryStore) {
	t.Helper()
	ctx := context.Background()
	require.NoError(t, store.SaveKeyLevel(ctx, keyLevel(domain.LevelSupport, 100, 60)))
	trends := map[domain.Timeframe]domain.Trend{
		domain.TFWeekly: domain.TrendBearish,
		domain.TFDaily:  domain.TrendBullish,
		domain.TF4h:     domain.TrendBullish,
		domain.TF1h:     domain.TrendBullish,
		domain.TF15m:    domain.TrendBullish,
		domain.TF5m:     domain.TrendBullish,
		domain.TF2m:     domain.TrendNeutral,
	}
	for tf, trend := range trends {
		require.NoError(t, store.SaveMTFAnalysis(ctx, analysis(tf, trend)))
	}
}

func TestSetupService_ScanBullishSetup(t *testing.T) {
	market := &mockMarket{bars: map[domain.Timeframe][]domain.Bar{domain.TF5m: flatBars(10, 100)}}
	svc, store := newTestService(t, market)
	seedBullishStructure(t, store)

	setup, err := svc.Scan(context.Background(), "BTCUSDT", domain.DirectionBullish)
	require.NoError(t, err)
	require.NotNil(t, setup)

	assert.NotEmpty(t, setup.ID)
	assert.Equal(t, "BTCUSDT", setup.Symbol)
	assert.Equal(t, domain.DirectionBullish, setup.Direction)
	assert.Equal(t, 80, setup.LevelScore)
	assert.Equal(t, 80, setup.TrendScore)
	assert.Equal(t, 100, setup.PatienceScore)
	assert.Equal(t, 86, setup.ConfluenceScore)
	assert.Equal(t, domain.GradeB, setup.Grade)
	assert.Equal(t, domain.StageReady, setup.Stage)
	assert.Equal(t, 5, setup.PatienceCandles)

	require.NotNil(t, setup.PrimaryLevel)
	assert.Equal(t, domain.LevelSupport, *setup.PrimaryLevel)
	require.NotNil(t, setup.LevelPrice)
	assert.Equal(t, 100.0, *setup.LevelPrice)

	require.NotNil(t, setup.Trade)
	assert.InDelta(t, 100.0, setup.Trade.Entry, epsilon)
	assert.InDelta(t, 99.0, setup.Trade.Stop, epsilon)
	assert.InDelta(t, 101.0, setup.Trade.Target1, epsilon)
	assert.InDelta(t, 102.0, setup.Trade.Target2, epsilon)
	assert.InDelta(t, 103.0, setup.Trade.Target3, epsilon)
	assert.InDelta(t, 2.0, setup.Trade.RiskReward, epsilon)

	assert.Equal(t,
		"Strong confluence at support level. Strong bullish alignment across timeframes. 5 patience candles confirmed.",
		setup.CoachNote)

	saved := svc.RecentSetups(context.Background(), "BTCUSDT")
	require.Len(t, saved, 1)
	assert.Equal(t, setup.ID, saved[0].ID)
}

func TestSetupService_ScanPicksStrongerSide(t *testing.T) {
	market := &mockMarket{bars: map[domain.Timeframe][]domain.Bar{domain.TF5m: flatBars(10, 100)}}
	svc, store := newTestService(t, market)
	seedBullishStructure(t, store)

	setup, err := svc.Scan(context.Background(), "BTCUSDT", "")
	require.NoError(t, err)
	assert.Equal(t, domain.DirectionBullish, setup.Direction)
	assert.Equal(t, 86, setup.ConfluenceScore)
}

func TestSetupService_ScanTieUsesLevelSide(t *testing.T) {
	// no timeframe data, so both sides score the same; price sits under the level
	market := &mockMarket{bars: map[domain.Timeframe][]domain.Bar{domain.TF5m: flatBars(10, 99.9)}}
	svc, store := newTestService(t, market)
	require.NoError(t, store.SaveKeyLevel(context.Background(), keyLevel(domain.LevelResistance, 100, 60)))

	setup, err := svc.Scan(context.Background(), "BTCUSDT", "")
	require.NoError(t, err)
	assert.Equal(t, domain.DirectionBearish, setup.Direction)
	assert.Equal(t, 0, setup.TrendScore)
}

func TestSetupService_ScanWithoutLevel(t *testing.T) {
	market := &mockMarket{bars: map[domain.Timeframe][]domain.Bar{domain.TF5m: flatBars(10, 100)}}
	svc, _ := newTestService(t, market)

	setup, err := svc.Scan(context.Background(), "BTCUSDT", domain.DirectionBearish)
	require.NoError(t, err)

	assert.Nil(t, setup.Trade)
	assert.Nil(t, setup.PrimaryLevel)
	assert.Nil(t, setup.LevelPrice)
	assert.Equal(t, 0, setup.ConfluenceScore)
	assert.Equal(t, domain.GradeF, setup.Grade)
	assert.Equal(t, domain.StageForming, setup.Stage)
	assert.Equal(t, "Waiting for patience candle confirmation.", setup.CoachNote)
}

func TestSetupService_ScanErrors(t *testing.T) {
	tests := []struct {
		name      string
		market    *mockMarket
		direction domain.Direction
		wantErr   error
	}{
		{"Invalid direction", &mockMarket{}, domain.Direction("sideways"), domain.ErrInvalidDirection},
		{"No bars", &mockMarket{bars: map[domain.Timeframe][]domain.Bar{domain.TF5m: {}}}, domain.DirectionBullish, domain.ErrNoBars},
		{"Market failure", &mockMarket{err: errMarketDown}, domain.DirectionBullish, errMarketDown},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, _ := newTestService(t, tt.market)
			setup, err := svc.Scan(context.Background(), "BTCUSDT", tt.direction)
			assert.ErrorIs(t, err, tt.wantErr)
			assert.Nil(t, setup)
			assert.Empty(t, svc.RecentSetups(context.Background(), ""))
		})
	}
}

func TestSetupService_ScanToleratesBrokenReader(t *testing.T) {
	market := &mockMarket{bars: map[domain.Timeframe][]domain.Bar{domain.TF5m: flatBars(10, 100)}}
	store := storage.NewMemoryStore()
	svc := usecase.NewSetupService(market, &failingReader{}, store, usecase.DefaultEngineConfig(), usecase.DefaultScanConfig(), nil)

	setup, err := svc.Scan(context.Background(), "BTCUSDT", domain.DirectionBullish)
	require.NoError(t, err)
	assert.Equal(t, 0, setup.ConfluenceScore)
}

func TestSetupService_RefreshMarketStructure(t *testing.T) {
	svc, store := newTestService(t, refreshingMarket())
	ctx := context.Background()

	require.NoError(t, svc.RefreshMarketStructure(ctx, "BTCUSDT"))

	analyses, err := store.ListMTFAnalyses(ctx, "BTCUSDT", time.Now().Add(-time.Minute))
	require.NoError(t, err)
	assert.Len(t, analyses, len(domain.AllTimeframes)-1)
	for _, a := range analyses {
		assert.Equal(t, domain.TrendBullish, a.Trend)
	}

	levels := svc.KeyLevels(ctx, "BTCUSDT")
	types := make([]domain.LevelType, 0, len(levels))
	for _, l := range levels {
		types = append(types, l.Type)
	}
	assert.ElementsMatch(t, []domain.LevelType{
		domain.LevelPriorDayHigh, domain.LevelPriorDayLow, domain.LevelVWAP, domain.LevelEMA,
	}, types)
}

func refreshingMarket() *mockMarket {
	bars := make(map[domain.Timeframe][]domain.Bar)
	for _, tf := range domain.AllTimeframes {
		if tf == domain.TF2m {
			continue
		}
		bars[tf] = risingBars(60, 100, time.Hour)
	}
	return &mockMarket{bars: bars}
}

func TestSetupService_RepeatedRefreshKeepsTrendScore(t *testing.T) {
	svc, _ := newTestService(t, refreshingMarket())
	ctx := context.Background()

	require.NoError(t, svc.RefreshMarketStructure(ctx, "BTCUSDT"))
	first, err := svc.Scan(ctx, "BTCUSDT", domain.DirectionBullish)
	require.NoError(t, err)
	require.NotNil(t, first)

	require.NoError(t, svc.RefreshMarketStructure(ctx, "BTCUSDT"))
	second, err := svc.Scan(ctx, "BTCUSDT", domain.DirectionBullish)
	require.NoError(t, err)
	require.NotNil(t, second)

	assert.Equal(t, first.TrendScore, second.TrendScore)
	assert.LessOrEqual(t, second.TrendScore, 100)
	assert.Len(t, svc.MTFAnalyses(ctx, "BTCUSDT"), len(domain.AllTimeframes)-1)
}

func TestSetupService_RepeatedRefreshReplacesLevels(t *testing.T) {
	svc, _ := newTestService(t, refreshingMarket())
	ctx := context.Background()

	require.NoError(t, svc.RefreshMarketStructure(ctx, "BTCUSDT"))
	want := len(svc.KeyLevels(ctx, "BTCUSDT"))
	require.NotZero(t, want)

	for i := 0; i < 2; i++ {
		require.NoError(t, svc.RefreshMarketStructure(ctx, "BTCUSDT"))
	}

	levels := svc.KeyLevels(ctx, "BTCUSDT")
	assert.Len(t, levels, want)
	for _, l := range levels {
		assert.Equal(t, usecase.DerivedLevelID("BTCUSDT", l.Type, l.Timeframe), l.ID)
	}
}

func TestSetupService_RefreshFailsWithoutDaily(t *testing.T) {
	market := &mockMarket{bars: map[domain.Timeframe][]domain.Bar{domain.TF5m: flatBars(10, 100)}}
	svc, _ := newTestService(t, market)
	assert.Error(t, svc.RefreshMarketStructure(context.Background(), "BTCUSDT"))
}
