package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/vitos/ltp_scanner/internal/domain"
	"github.com/vitos/ltp_scanner/internal/usecase"
	"gopkg.in/yaml.v3"
)

type Config struct {
	Exchange struct {
		Name         string `yaml:"name"`
		WSEndpoint   string `yaml:"ws_endpoint"`
		RESTEndpoint string `yaml:"rest_endpoint"`
	} `yaml:"exchange"`
	Storage struct {
		Driver      string `yaml:"driver"` // sqlite, postgres or memory
		SQLitePath  string `yaml:"sqlite_path"`
		PostgresURL string `yaml:"postgres_url"`
		MaxConns    int32  `yaml:"max_conns"`
		MinConns    int32  `yaml:"min_conns"`
	} `yaml:"storage"`
	Cache struct {
		Enabled  bool          `yaml:"enabled"`
		Address  string        `yaml:"address"`
		Password string        `yaml:"password"`
		DB       int           `yaml:"db"`
		TTL      time.Duration `yaml:"ttl"`
	} `yaml:"cache"`
	Scanner struct {
		Symbols          []string      `yaml:"symbols"`
		Interval         time.Duration `yaml:"interval"`
		StructureRefresh time.Duration `yaml:"structure_refresh"`
		BarTimeframe     string        `yaml:"bar_timeframe"`
		BarLimit         int           `yaml:"bar_limit"`
		LevelTTL         time.Duration `yaml:"level_ttl"`
		JournalPath      string        `yaml:"journal_path"`
	} `yaml:"scanner"`
	Engine struct {
		ProximityPct       float64            `yaml:"proximity_pct"`
		PatienceDistPct    float64            `yaml:"patience_distance_pct"`
		PatienceMaxBodyPct float64            `yaml:"patience_max_body_pct"`
		PatienceLookback   int                `yaml:"patience_lookback"`
		ATRProxyPct        float64            `yaml:"atr_proxy_pct"`
		TimeframeWeights   map[string]float64 `yaml:"timeframe_weights"`
		SetupWindow        time.Duration      `yaml:"setup_window"`
		ReadyScore         int                `yaml:"ready_score"`
	} `yaml:"engine"`
	Logging struct {
		Level string `yaml:"level"`
	} `yaml:"logging"`
	Server struct {
		Port int `yaml:"port"`
	} `yaml:"server"`
}

// Load reads the YAML file at path and applies environment overrides.
// A .env file next to the binary is loaded first when present.
func Load(path string) (*Config, error) {
	_ = godotenv.Load()

	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var cfg Config
	decoder := yaml.NewDecoder(f)
	if err := decoder.Decode(&cfg); err != nil {
		return nil, fmt.Errorf("failed to decode %s: %w", path, err)
	}

	cfg.applyEnv()
	cfg.applyDefaults()
	return &cfg, nil
}

func (c *Config) applyEnv() {
	if v := strings.TrimSpace(os.Getenv("LTP_DATABASE_URL")); v != "" {
		c.Storage.Driver = "postgres"
		c.Storage.PostgresURL = v
	}
	if v := strings.TrimSpace(os.Getenv("LTP_REDIS_ADDR")); v != "" {
		c.Cache.Enabled = true
		c.Cache.Address = v
	}
	if v := strings.TrimSpace(os.Getenv("LTP_LOG_LEVEL")); v != "" {
		c.Logging.Level = v
	}
}

func (c *Config) applyDefaults() {
	if c.Storage.Driver == "" {
		c.Storage.Driver = "sqlite"
	}
	if c.Storage.SQLitePath == "" {
		c.Storage.SQLitePath = "ltp.db"
	}
	if c.Scanner.Interval <= 0 {
		c.Scanner.Interval = time.Minute
	}
	if c.Scanner.StructureRefresh <= 0 {
		c.Scanner.StructureRefresh = 15 * time.Minute
	}
	if c.Logging.Level == "" {
		c.Logging.Level = "info"
	}
	if c.Server.Port == 0 {
		c.Server.Port = 8080
	}
}

// EngineConfig maps the engine section; unset values keep their defaults.
func (c *Config) EngineConfig() usecase.EngineConfig {
	ec := usecase.DefaultEngineConfig()
	e := c.Engine
	if e.ProximityPct > 0 {
		ec.ProximityPct = e.ProximityPct
	}
	if e.PatienceDistPct > 0 {
		ec.PatienceDistPct = e.PatienceDistPct
	}
	if e.PatienceMaxBodyPct > 0 {
		ec.PatienceMaxBodyPct = e.PatienceMaxBodyPct
	}
	if e.PatienceLookback > 0 {
		ec.PatienceLookback = e.PatienceLookback
	}
	if e.ATRProxyPct > 0 {
		ec.ATRProxyPct = e.ATRProxyPct
	}
	if len(e.TimeframeWeights) > 0 {
		ec.TimeframeWeights = make(map[domain.Timeframe]float64, len(e.TimeframeWeights))
		for tf, w := range e.TimeframeWeights {
			ec.TimeframeWeights[domain.Timeframe(tf)] = w
		}
	}
	if e.SetupWindow > 0 {
		ec.SetupWindow = e.SetupWindow
	}
	if e.ReadyScore > 0 {
		ec.ReadyScore = e.ReadyScore
	}
	return ec
}

func (c *Config) ScanConfig() usecase.ScanConfig {
	sc := usecase.DefaultScanConfig()
	if c.Scanner.BarTimeframe != "" {
		sc.BarTimeframe = domain.Timeframe(c.Scanner.BarTimeframe)
	}
	if c.Scanner.BarLimit > 0 {
		sc.BarLimit = c.Scanner.BarLimit
	}
	if c.Scanner.LevelTTL > 0 {
		sc.LevelTTL = c.Scanner.LevelTTL
	}
	return sc
}
