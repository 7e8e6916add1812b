package storage

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

type PoolConfig struct {
	MaxConns          int32
	MinConns          int32
	MaxConnLifetime   time.Duration
	MaxConnIdleTime   time.Duration
	HealthCheckPeriod time.Duration
}

func DefaultPoolConfig() PoolConfig {
	return PoolConfig{
		MaxConns:          10,
		MinConns:          2,
		MaxConnLifetime:   30 * time.Minute,
		MaxConnIdleTime:   5 * time.Minute,
		HealthCheckPeriod: 30 * time.Second,
	}
}

// ensureSSLMode defaults sslmode to require unless the URL says otherwise.
func ensureSSLMode(dbURL string) string {
	u, err := url.Parse(dbURL)
	if err != nil {
		return dbURL
	}
	q := u.Query()
	if q.Get("sslmode") == "" {
		q.Set("sslmode", "require")
		u.RawQuery = q.Encode()
	}
	return strings.TrimSpace(u.String())
}

func NewPool(ctx context.Context, databaseURL string, cfg PoolConfig) (*pgxpool.Pool, error) {
	poolCfg, err := pgxpool.ParseConfig(ensureSSLMode(databaseURL))
	if err != nil {
		return nil, fmt.Errorf("failed to parse database url: %w", err)
	}

	if cfg.MaxConns > 0 {
		poolCfg.MaxConns = cfg.MaxConns
	}
	if cfg.MinConns >= 0 && cfg.MinConns <= poolCfg.MaxConns {
		poolCfg.MinConns = cfg.MinConns
	}
	if cfg.MaxConnLifetime > 0 {
		poolCfg.MaxConnLifetime = cfg.MaxConnLifetime
	}
	if cfg.MaxConnIdleTime > 0 {
		poolCfg.MaxConnIdleTime = cfg.MaxConnIdleTime
	}
	if cfg.HealthCheckPeriod > 0 {
		poolCfg.HealthCheckPeriod = cfg.HealthCheckPeriod
	}

	return pgxpool.NewWithConfig(ctx, poolCfg)
}

// Migrate creates the tables the scanner reads and writes.
func Migrate(ctx context.Context, pool *pgxpool.Pool) error {
	stmts := []string{
		`create table if not exists key_levels (
			id text primary key,
			symbol text not null,
			level_type text not null,
			price double precision not null,
			timeframe text not null,
			strength double precision not null,
			created_at timestamptz not null default now(),
			expires_at timestamptz not null
		);`,
		`create index if not exists idx_key_levels_symbol on key_levels(symbol, expires_at);`,
		`create table if not exists mtf_analysis (
			id bigserial primary key,
			symbol text not null,
			timeframe text not null,
			trend text not null,
			structure text not null,
			ema_position text not null,
			momentum text not null,
			orb_position text null,
			vwap_position text null,
			analyzed_at timestamptz not null default now()
		);`,
		`create index if not exists idx_mtf_symbol on mtf_analysis(symbol, analyzed_at desc);`,
		`create table if not exists detected_setups (
			id text primary key,
			symbol text not null,
			direction text not null,
			stage text not null,
			confluence_score int not null,
			grade text not null,
			level_score int not null,
			trend_score int not null,
			patience_score int not null,
			primary_level_type text null,
			primary_level_price double precision null,
			patience_candles int not null default 0,
			entry_price double precision null,
			stop_loss double precision null,
			target_1 double precision null,
			target_2 double precision null,
			target_3 double precision null,
			risk_reward double precision null,
			coach_note text not null default '',
			detected_at timestamptz not null default now()
		);`,
		`create index if not exists idx_setups_detected on detected_setups(detected_at desc, confluence_score desc);`,
	}

	for _, stmt := range stmts {
		if _, err := pool.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("migrate: %w", err)
		}
	}
	return nil
}
