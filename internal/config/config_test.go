package config_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vitos/ltp_scanner/internal/config"
	"github.com/vitos/ltp_scanner/internal/domain"
	"github.com/vitos/ltp_scanner/internal/usecase"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestLoad(t *testing.T) {
	path := writeConfig(t, `
storage:
  driver: sqlite
  sqlite_path: /tmp/ltp.db
scanner:
  symbols: [BTCUSDT, ETHUSDT]
  interval: 30s
  bar_timeframe: 15m
  bar_limit: 200
  level_ttl: 12h
engine:
  proximity_pct: 0.5
  ready_score: 75
  timeframe_weights:
    daily: 0.6
    1h: 0.4
server:
  port: 9090
`)

	cfg, err := config.Load(path)
	require.NoError(t, err)

	assert.Equal(t, "sqlite", cfg.Storage.Driver)
	assert.Equal(t, []string{"BTCUSDT", "ETHUSDT"}, cfg.Scanner.Symbols)
	assert.Equal(t, 30*time.Second, cfg.Scanner.Interval)
	assert.Equal(t, 15*time.Minute, cfg.Scanner.StructureRefresh, "default")
	assert.Equal(t, "info", cfg.Logging.Level, "default")
	assert.Equal(t, 9090, cfg.Server.Port)

	ec := cfg.EngineConfig()
	assert.Equal(t, 0.5, ec.ProximityPct)
	assert.Equal(t, 75, ec.ReadyScore)
	assert.Equal(t, usecase.DefaultPatienceMaxBodyPct, ec.PatienceMaxBodyPct)
	assert.Equal(t, 30*time.Minute, ec.SetupWindow)
	assert.Equal(t, map[domain.Timeframe]float64{domain.TFDaily: 0.6, domain.TF1h: 0.4}, ec.TimeframeWeights)

	sc := cfg.ScanConfig()
	assert.Equal(t, domain.TF15m, sc.BarTimeframe)
	assert.Equal(t, 200, sc.BarLimit)
	assert.Equal(t, 12*time.Hour, sc.LevelTTL)
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("LTP_DATABASE_URL", "postgres://ltp:secret@db:5432/ltp")
	t.Setenv("LTP_REDIS_ADDR", "redis:6379")
	t.Setenv("LTP_LOG_LEVEL", "debug")

	cfg, err := config.Load(writeConfig(t, "storage:\n  driver: sqlite\n"))
	require.NoError(t, err)

	assert.Equal(t, "postgres", cfg.Storage.Driver)
	assert.Equal(t, "postgres://ltp:secret@db:5432/ltp", cfg.Storage.PostgresURL)
	assert.True(t, cfg.Cache.Enabled)
	assert.Equal(t, "redis:6379", cfg.Cache.Address)
	assert.Equal(t, "debug", cfg.Logging.Level)
}

func TestLoad_Errors(t *testing.T) {
	_, err := config.Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)

	_, err = config.Load(writeConfig(t, "scanner: [unclosed"))
	assert.Error(t, err)
}

func TestLoad_SampleConfig(t *testing.T) {
	cfg, err := config.Load("../../config/config.yaml")
	require.NoError(t, err)
	assert.Equal(t, usecase.DefaultTimeframeWeights(), cfg.EngineConfig().TimeframeWeights)
	assert.Equal(t, usecase.DefaultScanConfig().BarTimeframe, cfg.ScanConfig().BarTimeframe)
}
