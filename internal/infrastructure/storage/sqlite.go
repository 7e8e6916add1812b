package storage

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/vitos/ltp_scanner/internal/domain"
)

// SQLiteStore keeps timestamps as unix milliseconds so window filters
// compare numerically.
type SQLiteStore struct {
	db *sql.DB
}

func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, err
	}

	store := &SQLiteStore{db: db}
	if err := store.initSchema(); err != nil {
		db.Close()
		return nil, err
	}

	return store, nil
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) initSchema() error {
	queries := []string{
		`CREATE TABLE IF NOT EXISTS key_levels (
			id TEXT PRIMARY KEY,
			symbol TEXT NOT NULL,
			level_type TEXT NOT NULL,
			price REAL NOT NULL,
			timeframe TEXT NOT NULL,
			strength REAL NOT NULL,
			created_at INTEGER NOT NULL,
			expires_at INTEGER NOT NULL
		);`,
		`CREATE INDEX IF NOT EXISTS idx_key_levels_symbol ON key_levels(symbol, expires_at);`,
		`CREATE TABLE IF NOT EXISTS mtf_analysis (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			symbol TEXT NOT NULL,
			timeframe TEXT NOT NULL,
			trend TEXT NOT NULL,
			structure TEXT NOT NULL,
			ema_position TEXT NOT NULL,
			momentum TEXT NOT NULL,
			orb_position TEXT,
			vwap_position TEXT,
			analyzed_at INTEGER NOT NULL
		);`,
		`CREATE INDEX IF NOT EXISTS idx_mtf_symbol ON mtf_analysis(symbol, analyzed_at);`,
		`CREATE TABLE IF NOT EXISTS detected_setups (
			id TEXT PRIMARY KEY,
			symbol TEXT NOT NULL,
			direction TEXT NOT NULL,
			stage TEXT NOT NULL,
			confluence_score INTEGER NOT NULL,
			grade TEXT NOT NULL,
			level_score INTEGER NOT NULL,
			trend_score INTEGER NOT NULL,
			patience_score INTEGER NOT NULL,
			primary_level_type TEXT,
			primary_level_price REAL,
			patience_candles INTEGER NOT NULL,
			entry_price REAL,
			stop_loss REAL,
			target_1 REAL,
			target_2 REAL,
			target_3 REAL,
			risk_reward REAL,
			coach_note TEXT NOT NULL,
			detected_at INTEGER NOT NULL
		);`,
		`CREATE INDEX IF NOT EXISTS idx_setups_detected ON detected_setups(detected_at);`,
	}

	for _, q := range queries {
		if _, err := s.db.Exec(q); err != nil {
			return fmt.Errorf("failed to exec query %s: %w", q, err)
		}
	}
	return nil
}

// SetupWriter Implementation

func (s *SQLiteStore) SaveKeyLevel(ctx context.Context, l *domain.KeyLevel) error {
	query := `INSERT INTO key_levels (id, symbol, level_type, price, timeframe, strength, created_at, expires_at)
			  VALUES (?, ?, ?, ?, ?, ?, ?, ?)
			  ON CONFLICT(id) DO UPDATE SET
			  price=excluded.price,
			  strength=excluded.strength,
			  expires_at=excluded.expires_at`
	_, err := s.db.ExecContext(ctx, query,
		l.ID, l.Symbol, l.Type, l.Price, l.Timeframe, l.Strength, l.CreatedAt.UnixMilli(), l.ExpiresAt.UnixMilli())
	return err
}

func (s *SQLiteStore) DeleteKeyLevel(ctx context.Context, id string) error {
	_, err := s.db.ExecContext(ctx, "DELETE FROM key_levels WHERE id = ?", id)
	return err
}

func (s *SQLiteStore) SaveMTFAnalysis(ctx context.Context, a *domain.MTFAnalysis) error {
	query := `INSERT INTO mtf_analysis (symbol, timeframe, trend, structure, ema_position, momentum, orb_position, vwap_position, analyzed_at)
			  VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`
	res, err := s.db.ExecContext(ctx, query,
		a.Symbol, a.Timeframe, a.Trend, a.Structure, a.EMAPosition, a.Momentum,
		nullPosition(a.ORBPosition), nullPosition(a.VWAPPosition), a.AnalyzedAt.UnixMilli())
	if err != nil {
		return err
	}
	if id, err := res.LastInsertId(); err == nil {
		a.ID = id
	}
	return nil
}

func (s *SQLiteStore) SaveDetectedSetup(ctx context.Context, st *domain.DetectedSetup) error {
	query := `INSERT INTO detected_setups (id, symbol, direction, stage, confluence_score, grade, level_score, trend_score, patience_score,
			  primary_level_type, primary_level_price, patience_candles, entry_price, stop_loss, target_1, target_2, target_3, risk_reward,
			  coach_note, detected_at)
			  VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`
	trade := tradeColumns(st.Trade)
	_, err := s.db.ExecContext(ctx, query,
		st.ID, st.Symbol, st.Direction, st.Stage, st.ConfluenceScore, st.Grade, st.LevelScore, st.TrendScore, st.PatienceScore,
		nullLevelType(st.PrimaryLevel), nullFloat(st.LevelPrice), st.PatienceCandles,
		trade[0], trade[1], trade[2], trade[3], trade[4], trade[5],
		st.CoachNote, st.DetectedAt.UnixMilli())
	return err
}

// SetupReader Implementation

func (s *SQLiteStore) ListKeyLevels(ctx context.Context, symbol string, asOf time.Time) ([]*domain.KeyLevel, error) {
	query := `SELECT id, symbol, level_type, price, timeframe, strength, created_at, expires_at
			  FROM key_levels WHERE symbol = ? AND expires_at > ? ORDER BY strength DESC, created_at ASC`
	rows, err := s.db.QueryContext(ctx, query, symbol, asOf.UnixMilli())
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var levels []*domain.KeyLevel
	for rows.Next() {
		var l domain.KeyLevel
		var created, expires int64
		if err := rows.Scan(&l.ID, &l.Symbol, &l.Type, &l.Price, &l.Timeframe, &l.Strength, &created, &expires); err != nil {
			return nil, err
		}
		l.CreatedAt = time.UnixMilli(created).UTC()
		l.ExpiresAt = time.UnixMilli(expires).UTC()
		levels = append(levels, &l)
	}
	return levels, rows.Err()
}

func (s *SQLiteStore) ListMTFAnalyses(ctx context.Context, symbol string, since time.Time) ([]*domain.MTFAnalysis, error) {
	query := `SELECT id, symbol, timeframe, trend, structure, ema_position, momentum, orb_position, vwap_position, analyzed_at
			  FROM mtf_analysis WHERE symbol = ? AND analyzed_at >= ? ORDER BY analyzed_at DESC`
	rows, err := s.db.QueryContext(ctx, query, symbol, since.UnixMilli())
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var analyses []*domain.MTFAnalysis
	for rows.Next() {
		var a domain.MTFAnalysis
		var orb, vwap sql.NullString
		var analyzed int64
		if err := rows.Scan(&a.ID, &a.Symbol, &a.Timeframe, &a.Trend, &a.Structure, &a.EMAPosition, &a.Momentum, &orb, &vwap, &analyzed); err != nil {
			return nil, err
		}
		a.ORBPosition = positionPtr(orb)
		a.VWAPPosition = positionPtr(vwap)
		a.AnalyzedAt = time.UnixMilli(analyzed).UTC()
		analyses = append(analyses, &a)
	}
	return analyses, rows.Err()
}

func (s *SQLiteStore) ListDetectedSetups(ctx context.Context, filter domain.SetupFilter) ([]*domain.DetectedSetup, error) {
	query := `SELECT id, symbol, direction, stage, confluence_score, grade, level_score, trend_score, patience_score,
			  primary_level_type, primary_level_price, patience_candles, entry_price, stop_loss, target_1, target_2, target_3, risk_reward,
			  coach_note, detected_at
			  FROM detected_setups WHERE detected_at >= ?`
	args := []interface{}{filter.Since.UnixMilli()}
	if filter.Symbol != "" {
		query += ` AND symbol = ?`
		args = append(args, filter.Symbol)
	}
	query += ` ORDER BY confluence_score DESC, detected_at DESC`
	if filter.Limit > 0 {
		query += ` LIMIT ?`
		args = append(args, filter.Limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var setups []*domain.DetectedSetup
	for rows.Next() {
		var st domain.DetectedSetup
		var levelType sql.NullString
		var levelPrice, entry, stop, t1, t2, t3, rr sql.NullFloat64
		var detected int64
		if err := rows.Scan(&st.ID, &st.Symbol, &st.Direction, &st.Stage, &st.ConfluenceScore, &st.Grade,
			&st.LevelScore, &st.TrendScore, &st.PatienceScore, &levelType, &levelPrice, &st.PatienceCandles,
			&entry, &stop, &t1, &t2, &t3, &rr, &st.CoachNote, &detected); err != nil {
			return nil, err
		}
		if levelType.Valid {
			lt := domain.LevelType(levelType.String)
			st.PrimaryLevel = &lt
		}
		if levelPrice.Valid {
			p := levelPrice.Float64
			st.LevelPrice = &p
		}
		if entry.Valid {
			st.Trade = &domain.TradeParams{
				Entry:      entry.Float64,
				Stop:       stop.Float64,
				Target1:    t1.Float64,
				Target2:    t2.Float64,
				Target3:    t3.Float64,
				RiskReward: rr.Float64,
			}
		}
		st.DetectedAt = time.UnixMilli(detected).UTC()
		setups = append(setups, &st)
	}
	return setups, rows.Err()
}
