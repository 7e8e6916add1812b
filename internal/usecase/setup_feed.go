package usecase

import (
	"context"
	"sort"
	"time"

	"github.com/vitos/ltp_scanner/internal/domain"
	"go.uber.org/zap"
)

// SetupFeed is the only path from the engine to the store. Every read
// degrades to an empty slice on failure; callers treat empty as no signal.
type SetupFeed struct {
	repo    domain.SetupReader
	window  time.Duration
	logger  *zap.Logger
	timeNow func() time.Time
}

func NewSetupFeed(repo domain.SetupReader, window time.Duration, logger *zap.Logger) *SetupFeed {
	if window <= 0 {
		window = DefaultEngineConfig().SetupWindow
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SetupFeed{
		repo:    repo,
		window:  window,
		logger:  logger,
		timeNow: time.Now,
	}
}

// RecentSetups returns setups from the trailing window, best score first.
// An empty symbol returns every symbol.
func (f *SetupFeed) RecentSetups(ctx context.Context, symbol string) []*domain.DetectedSetup {
	setups, err := f.repo.ListDetectedSetups(ctx, domain.SetupFilter{
		Symbol: symbol,
		Since:  f.timeNow().Add(-f.window),
	})
	if err != nil {
		f.logger.Warn("Failed to fetch detected setups", zap.String("symbol", symbol), zap.Error(err))
		return []*domain.DetectedSetup{}
	}
	if setups == nil {
		return []*domain.DetectedSetup{}
	}
	return setups
}

// KeyLevels returns the symbol's non-expired levels.
func (f *SetupFeed) KeyLevels(ctx context.Context, symbol string) []*domain.KeyLevel {
	levels, err := f.repo.ListKeyLevels(ctx, symbol, f.timeNow())
	if err != nil {
		f.logger.Warn("Failed to fetch key levels", zap.String("symbol", symbol), zap.Error(err))
		return []*domain.KeyLevel{}
	}
	if levels == nil {
		return []*domain.KeyLevel{}
	}
	return levels
}

// MTFAnalyses returns the newest analysis per timeframe from the trailing
// window, newest first.
func (f *SetupFeed) MTFAnalyses(ctx context.Context, symbol string) []*domain.MTFAnalysis {
	analyses, err := f.repo.ListMTFAnalyses(ctx, symbol, f.timeNow().Add(-f.window))
	if err != nil {
		f.logger.Warn("Failed to fetch MTF analyses", zap.String("symbol", symbol), zap.Error(err))
		return []*domain.MTFAnalysis{}
	}
	return latestPerTimeframe(analyses)
}

func latestPerTimeframe(analyses []*domain.MTFAnalysis) []*domain.MTFAnalysis {
	newest := make(map[domain.Timeframe]*domain.MTFAnalysis, len(analyses))
	for _, a := range analyses {
		if a == nil {
			continue
		}
		cur, ok := newest[a.Timeframe]
		if !ok || a.AnalyzedAt.After(cur.AnalyzedAt) || (a.AnalyzedAt.Equal(cur.AnalyzedAt) && a.ID > cur.ID) {
			newest[a.Timeframe] = a
		}
	}

	out := make([]*domain.MTFAnalysis, 0, len(newest))
	for _, a := range newest {
		out = append(out, a)
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].AnalyzedAt.Equal(out[j].AnalyzedAt) {
			return out[i].AnalyzedAt.After(out[j].AnalyzedAt)
		}
		return out[i].Timeframe < out[j].Timeframe
	})
	return out
}
