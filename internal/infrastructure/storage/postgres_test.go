package storage_test

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vitos/ltp_scanner/internal/domain"
	"github.com/vitos/ltp_scanner/internal/infrastructure/storage"
)

// Runs against a live database only when LTP_TEST_DATABASE_URL is set.
func newPostgres(t *testing.T) *storage.PostgresStore {
	t.Helper()
	dbURL := os.Getenv("LTP_TEST_DATABASE_URL")
	if dbURL == "" {
		t.Skip("LTP_TEST_DATABASE_URL not set")
	}
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	pool, err := storage.NewPool(ctx, dbURL, storage.DefaultPoolConfig())
	require.NoError(t, err)
	require.NoError(t, storage.Migrate(ctx, pool))

	store := storage.NewPostgresStore(pool)
	t.Cleanup(func() { store.Close() })
	return store
}

func TestPostgresStore_RoundTrip(t *testing.T) {
	store := newPostgres(t)
	ctx := context.Background()
	now := time.Now().Truncate(time.Microsecond)
	symbol := "TEST" + uuid.NewString()[:8]

	lvl := &domain.KeyLevel{ID: uuid.NewString(), Symbol: symbol, Type: domain.LevelPriorDayHigh, Price: 101.5, Timeframe: domain.TFDaily, Strength: 80, CreatedAt: now, ExpiresAt: now.Add(time.Hour)}
	require.NoError(t, store.SaveKeyLevel(ctx, lvl))
	t.Cleanup(func() { store.DeleteKeyLevel(context.Background(), lvl.ID) })

	levels, err := store.ListKeyLevels(ctx, symbol, now)
	require.NoError(t, err)
	require.Len(t, levels, 1)
	assert.Equal(t, domain.LevelPriorDayHigh, levels[0].Type)

	vwap := domain.PositionBelow
	a := &domain.MTFAnalysis{Symbol: symbol, Timeframe: domain.TF1h, Trend: domain.TrendBearish, Structure: "lower_lows", EMAPosition: "bearish_stack", Momentum: "moderate", VWAPPosition: &vwap, AnalyzedAt: now}
	require.NoError(t, store.SaveMTFAnalysis(ctx, a))
	assert.NotZero(t, a.ID)

	analyses, err := store.ListMTFAnalyses(ctx, symbol, now.Add(-time.Minute))
	require.NoError(t, err)
	require.Len(t, analyses, 1)
	require.NotNil(t, analyses[0].VWAPPosition)
	assert.Equal(t, domain.PositionBelow, *analyses[0].VWAPPosition)
	assert.Nil(t, analyses[0].ORBPosition)

	setup := &domain.DetectedSetup{
		ID: uuid.NewString(), Symbol: symbol, Direction: domain.DirectionBearish, Stage: domain.StageForming,
		ConfluenceScore: 42, Grade: domain.GradeF, CoachNote: "Waiting for patience candle confirmation.", DetectedAt: now,
	}
	require.NoError(t, store.SaveDetectedSetup(ctx, setup))

	setups, err := store.ListDetectedSetups(ctx, domain.SetupFilter{Symbol: symbol, Since: now.Add(-time.Minute)})
	require.NoError(t, err)
	require.Len(t, setups, 1)
	assert.Nil(t, setups[0].Trade)
	assert.Nil(t, setups[0].PrimaryLevel)
	assert.Equal(t, 42, setups[0].ConfluenceScore)
}
