package usecase

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/vitos/ltp_scanner/internal/domain"
	"go.uber.org/zap"
)

// ScanWorker drives periodic structure refreshes and scans for a fixed
// symbol list and keeps the latest setup per symbol in memory.
type ScanWorker struct {
	service  *SetupService
	symbols  []string
	interval time.Duration
	refresh  time.Duration
	journal  *zap.Logger
	logger   *zap.Logger

	mu         sync.RWMutex
	latest     map[string]*domain.DetectedSetup
	lastUpdate time.Time
}

func NewScanWorker(service *SetupService, symbols []string, interval, refresh time.Duration, journal, logger *zap.Logger) *ScanWorker {
	if logger == nil {
		logger = zap.NewNop()
	}
	if journal == nil {
		journal = logger
	}
	if interval <= 0 {
		interval = time.Minute
	}
	if refresh <= 0 {
		refresh = 15 * time.Minute
	}
	return &ScanWorker{
		service:  service,
		symbols:  symbols,
		interval: interval,
		refresh:  refresh,
		journal:  journal,
		logger:   logger,
		latest:   make(map[string]*domain.DetectedSetup),
	}
}

func (w *ScanWorker) Start(ctx context.Context) {
	w.logger.Info("Starting scan worker", zap.Strings("symbols", w.symbols), zap.Duration("interval", w.interval))

	go func() {
		ticker := time.NewTicker(w.refresh)
		defer ticker.Stop()
		for {
			// Run immediately first time
			w.refreshAll(ctx)
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
			}
		}
	}()

	go func() {
		ticker := time.NewTicker(w.interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				for _, symbol := range w.symbols {
					w.ScanSymbol(ctx, symbol)
				}
			}
		}
	}()
}

func (w *ScanWorker) refreshAll(ctx context.Context) {
	for _, symbol := range w.symbols {
		if err := w.service.RefreshMarketStructure(ctx, symbol); err != nil {
			w.logger.Error("Failed to refresh market structure", zap.String("symbol", symbol), zap.Error(err))
		}
	}
}

// ScanSymbol scans one symbol, journals the result and caches it as the
// symbol's latest setup. It returns nil when the scan produced nothing.
func (w *ScanWorker) ScanSymbol(ctx context.Context, symbol string) *domain.DetectedSetup {
	setup, err := w.service.Scan(ctx, symbol, "")
	if err != nil {
		w.logger.Error("Scan failed", zap.String("symbol", symbol), zap.Error(err))
	}
	if setup == nil {
		return nil
	}

	w.journal.Info("setup",
		zap.String("symbol", setup.Symbol),
		zap.String("direction", string(setup.Direction)),
		zap.String("stage", string(setup.Stage)),
		zap.Int("score", setup.ConfluenceScore),
		zap.String("grade", string(setup.Grade)),
		zap.String("note", setup.CoachNote),
	)

	w.mu.Lock()
	w.latest[symbol] = setup
	w.lastUpdate = time.Now()
	w.mu.Unlock()
	return setup
}

// Latest returns a copy of the newest setup per symbol, best score first.
func (w *ScanWorker) Latest() []*domain.DetectedSetup {
	w.mu.RLock()
	defer w.mu.RUnlock()

	result := make([]*domain.DetectedSetup, 0, len(w.latest))
	for _, s := range w.latest {
		c := *s
		result = append(result, &c)
	}
	sort.Slice(result, func(i, j int) bool {
		if result[i].ConfluenceScore != result[j].ConfluenceScore {
			return result[i].ConfluenceScore > result[j].ConfluenceScore
		}
		return result[i].Symbol < result[j].Symbol
	})
	return result
}

func (w *ScanWorker) LastUpdate() time.Time {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.lastUpdate
}
