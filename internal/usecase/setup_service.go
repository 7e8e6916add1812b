package usecase

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/google/uuid"
	"github.com/vitos/ltp_scanner/internal/domain"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// ScanConfig controls what the service fetches for a scan.
type ScanConfig struct {
	BarTimeframe domain.Timeframe
	BarLimit     int
	DailyLimit   int
	LevelTTL     time.Duration
}

func DefaultScanConfig() ScanConfig {
	return ScanConfig{
		BarTimeframe: domain.TF5m,
		BarLimit:     100,
		DailyLimit:   60,
		LevelTTL:     24 * time.Hour,
	}
}

// SetupService runs the LTP pipeline for a symbol: fetch, score, assemble
// and persist a DetectedSetup.
type SetupService struct {
	market    domain.MarketData
	feed      *SetupFeed
	writer    domain.SetupWriter
	evaluator *LevelEvaluator
	cfg       EngineConfig
	scan      ScanConfig
	logger    *zap.Logger
	timeNow   func() time.Time
}

func NewSetupService(
	market domain.MarketData,
	reader domain.SetupReader,
	writer domain.SetupWriter,
	cfg EngineConfig,
	scan ScanConfig,
	logger *zap.Logger,
) *SetupService {
	if logger == nil {
		logger = zap.NewNop()
	}
	cfg = cfg.withDefaults()
	d := DefaultScanConfig()
	if scan.BarTimeframe == "" {
		scan.BarTimeframe = d.BarTimeframe
	}
	if scan.BarLimit <= 0 {
		scan.BarLimit = d.BarLimit
	}
	if scan.DailyLimit <= 0 {
		scan.DailyLimit = d.DailyLimit
	}
	if scan.LevelTTL <= 0 {
		scan.LevelTTL = d.LevelTTL
	}
	return &SetupService{
		market:    market,
		feed:      NewSetupFeed(reader, cfg.SetupWindow, logger),
		writer:    writer,
		evaluator: NewLevelEvaluator(),
		cfg:       cfg,
		scan:      scan,
		logger:    logger,
		timeNow:   time.Now,
	}
}

func (s *SetupService) Config() EngineConfig {
	return s.cfg
}

// RecentSetups passes through to the feed.
func (s *SetupService) RecentSetups(ctx context.Context, symbol string) []*domain.DetectedSetup {
	return s.feed.RecentSetups(ctx, symbol)
}

func (s *SetupService) KeyLevels(ctx context.Context, symbol string) []*domain.KeyLevel {
	return s.feed.KeyLevels(ctx, symbol)
}

func (s *SetupService) MTFAnalyses(ctx context.Context, symbol string) []*domain.MTFAnalysis {
	return s.feed.MTFAnalyses(ctx, symbol)
}

// Scan fetches bars, levels and analyses concurrently, evaluates the setup
// and stores it. An empty direction evaluates both sides and keeps the
// higher overall score; ties go to the side of price relative to the
// primary level, then bullish.
func (s *SetupService) Scan(ctx context.Context, symbol string, direction domain.Direction) (*domain.DetectedSetup, error) {
	if direction != "" && !direction.Valid() {
		return nil, domain.ErrInvalidDirection
	}

	var (
		bars     []domain.Bar
		levels   []*domain.KeyLevel
		analyses []*domain.MTFAnalysis
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		b, err := s.market.GetCandles(gctx, symbol, s.scan.BarTimeframe, s.scan.BarLimit)
		if err != nil {
			return fmt.Errorf("failed to fetch candles for %s: %w", symbol, err)
		}
		bars = b
		return nil
	})
	g.Go(func() error {
		levels = s.feed.KeyLevels(gctx, symbol)
		return nil
	})
	g.Go(func() error {
		analyses = s.feed.MTFAnalyses(gctx, symbol)
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}
	if len(bars) == 0 {
		return nil, fmt.Errorf("%s: %w", symbol, domain.ErrNoBars)
	}

	var setup *domain.DetectedSetup
	if direction != "" {
		setup = s.Evaluate(symbol, direction, bars, levels, analyses)
	} else {
		bull := s.Evaluate(symbol, domain.DirectionBullish, bars, levels, analyses)
		bear := s.Evaluate(symbol, domain.DirectionBearish, bars, levels, analyses)
		setup = s.pickSide(bull, bear, bars[len(bars)-1].Close)
	}

	s.logger.Debug("Setup evaluated",
		zap.String("symbol", symbol),
		zap.String("direction", string(setup.Direction)),
		zap.Int("score", setup.ConfluenceScore),
		zap.String("grade", string(setup.Grade)),
		zap.String("stage", string(setup.Stage)),
	)

	if s.writer != nil {
		if err := s.writer.SaveDetectedSetup(ctx, setup); err != nil {
			return setup, fmt.Errorf("failed to save setup: %w", err)
		}
	}
	return setup, nil
}

func (s *SetupService) pickSide(bull, bear *domain.DetectedSetup, price float64) *domain.DetectedSetup {
	switch {
	case bull.ConfluenceScore > bear.ConfluenceScore:
		return bull
	case bear.ConfluenceScore > bull.ConfluenceScore:
		return bear
	}
	if bull.LevelPrice != nil && s.evaluator.InferDirection(*bull.LevelPrice, price) == domain.DirectionBearish {
		return bear
	}
	return bull
}

// Evaluate runs the scorers over already fetched inputs.
func (s *SetupService) Evaluate(symbol string, direction domain.Direction, bars []domain.Bar, levels []*domain.KeyLevel, analyses []*domain.MTFAnalysis) *domain.DetectedSetup {
	var price float64
	if len(bars) > 0 {
		price = bars[len(bars)-1].Close
	}

	levelRes := ScoreLevelProximity(price, levels, s.cfg.ProximityPct)

	var patience domain.PatienceResult
	if levelRes.Level != nil {
		patience = DetectPatienceCandle(bars, levelRes.Level.Price, PatienceOptions{
			MaxBodyPct:     s.cfg.PatienceMaxBodyPct,
			MaxDistancePct: s.cfg.PatienceDistPct,
			Lookback:       s.cfg.PatienceLookback,
		})
	}

	trendScore := ScoreTrendAlignment(analyses, direction, s.cfg.TimeframeWeights)
	ltp := CalculateLTPScore(levelRes.Score, trendScore, ScorePatienceQuality(patience))

	setup := &domain.DetectedSetup{
		ID:              uuid.NewString(),
		Symbol:          symbol,
		Direction:       direction,
		Stage:           ClassifySetupStage(ltp, patience, bars, direction, s.cfg.ReadyScore),
		ConfluenceScore: ltp.Overall,
		Grade:           GetLTPGrade(ltp.Overall),
		LevelScore:      int(math.Round(ltp.Level)),
		TrendScore:      int(math.Round(ltp.Trend)),
		PatienceScore:   int(math.Round(ltp.Patience)),
		PatienceCandles: patience.Count,
		Trade:           CalculateTradeParams(price, levelRes.Level, direction, s.cfg.ATRProxyPct),
		CoachNote:       GenerateCoachNote(ltp.Level, levelRes.Level, ltp.Trend, direction, patience),
		DetectedAt:      s.timeNow(),
	}
	if levelRes.Level != nil {
		t := levelRes.Level.Type
		p := levelRes.Level.Price
		setup.PrimaryLevel = &t
		setup.LevelPrice = &p
	}
	return setup
}

// RefreshMarketStructure recomputes per-timeframe analyses and derived key
// levels for symbol and writes them to the store. Timeframes the market
// cannot serve are skipped.
func (s *SetupService) RefreshMarketStructure(ctx context.Context, symbol string) error {
	if s.writer == nil {
		return fmt.Errorf("refresh %s: store is read-only", symbol)
	}
	now := s.timeNow()

	for _, tf := range domain.AllTimeframes {
		bars, err := s.market.GetCandles(ctx, symbol, tf, s.scan.BarLimit)
		if err != nil {
			s.logger.Debug("Skipping timeframe", zap.String("symbol", symbol), zap.String("tf", string(tf)), zap.Error(err))
			continue
		}
		a := AnalyzeTimeframe(symbol, tf, bars, now)
		if a == nil {
			continue
		}
		if err := s.writer.SaveMTFAnalysis(ctx, a); err != nil {
			return fmt.Errorf("failed to save %s analysis: %w", tf, err)
		}
	}

	daily, err := s.market.GetCandles(ctx, symbol, domain.TFDaily, s.scan.DailyLimit)
	if err != nil {
		return fmt.Errorf("failed to fetch daily candles: %w", err)
	}
	intraday, err := s.market.GetCandles(ctx, symbol, s.scan.BarTimeframe, s.scan.BarLimit)
	if err != nil {
		return fmt.Errorf("failed to fetch intraday candles: %w", err)
	}

	levels := DeriveKeyLevels(symbol, daily, intraday, s.scan.BarTimeframe, now, s.scan.LevelTTL)
	for _, l := range levels {
		if err := s.writer.SaveKeyLevel(ctx, l); err != nil {
			return fmt.Errorf("failed to save level: %w", err)
		}
	}
	s.logger.Info("Market structure refreshed", zap.String("symbol", symbol), zap.Int("levels", len(levels)))
	return nil
}
