package domain

import (
	"context"
	"time"
)

// MarketData supplies bars for a symbol and timeframe.
type MarketData interface {
	GetCandles(ctx context.Context, symbol string, tf Timeframe, limit int) ([]Bar, error)
}

// SetupReader is the read side of the setup store.
type SetupReader interface {
	// ListDetectedSetups returns setups detected at or after filter.Since,
	// highest confluence score first.
	ListDetectedSetups(ctx context.Context, filter SetupFilter) ([]*DetectedSetup, error)
	// ListKeyLevels returns levels for symbol that have not expired at asOf.
	ListKeyLevels(ctx context.Context, symbol string, asOf time.Time) ([]*KeyLevel, error)
	// ListMTFAnalyses returns analyses for symbol recorded at or after since.
	ListMTFAnalyses(ctx context.Context, symbol string, since time.Time) ([]*MTFAnalysis, error)
}

// SetupWriter persists scan inputs and outputs.
type SetupWriter interface {
	SaveDetectedSetup(ctx context.Context, setup *DetectedSetup) error
	SaveKeyLevel(ctx context.Context, level *KeyLevel) error
	SaveMTFAnalysis(ctx context.Context, analysis *MTFAnalysis) error
	DeleteKeyLevel(ctx context.Context, id string) error
}

type SetupStore interface {
	SetupReader
	SetupWriter
}
