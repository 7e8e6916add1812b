package storage

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/vitos/ltp_scanner/internal/domain"
)

// PostgresStore is the production backend for the same three tables.
type PostgresStore struct {
	pool *pgxpool.Pool
}

func NewPostgresStore(pool *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

func (s *PostgresStore) Close() error {
	s.pool.Close()
	return nil
}

func (s *PostgresStore) SaveKeyLevel(ctx context.Context, l *domain.KeyLevel) error {
	_, err := s.pool.Exec(ctx, `
		insert into key_levels (id, symbol, level_type, price, timeframe, strength, created_at, expires_at)
		values ($1,$2,$3,$4,$5,$6,$7,$8)
		on conflict (id) do update set
			price = excluded.price,
			strength = excluded.strength,
			expires_at = excluded.expires_at
	`, l.ID, l.Symbol, string(l.Type), l.Price, string(l.Timeframe), l.Strength, l.CreatedAt, l.ExpiresAt)
	return err
}

func (s *PostgresStore) DeleteKeyLevel(ctx context.Context, id string) error {
	_, err := s.pool.Exec(ctx, `delete from key_levels where id = $1`, id)
	return err
}

func (s *PostgresStore) SaveMTFAnalysis(ctx context.Context, a *domain.MTFAnalysis) error {
	return s.pool.QueryRow(ctx, `
		insert into mtf_analysis (symbol, timeframe, trend, structure, ema_position, momentum, orb_position, vwap_position, analyzed_at)
		values ($1,$2,$3,$4,$5,$6,$7,$8,$9)
		returning id
	`, a.Symbol, string(a.Timeframe), string(a.Trend), a.Structure, a.EMAPosition, a.Momentum,
		nullPosition(a.ORBPosition), nullPosition(a.VWAPPosition), a.AnalyzedAt).Scan(&a.ID)
}

func (s *PostgresStore) SaveDetectedSetup(ctx context.Context, st *domain.DetectedSetup) error {
	trade := tradeColumns(st.Trade)
	_, err := s.pool.Exec(ctx, `
		insert into detected_setups (
			id, symbol, direction, stage, confluence_score, grade, level_score, trend_score, patience_score,
			primary_level_type, primary_level_price, patience_candles,
			entry_price, stop_loss, target_1, target_2, target_3, risk_reward,
			coach_note, detected_at
		) values ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17,$18,$19,$20)
	`,
		st.ID, st.Symbol, string(st.Direction), string(st.Stage), st.ConfluenceScore, string(st.Grade),
		st.LevelScore, st.TrendScore, st.PatienceScore,
		nullLevelType(st.PrimaryLevel), nullFloat(st.LevelPrice), st.PatienceCandles,
		trade[0], trade[1], trade[2], trade[3], trade[4], trade[5],
		st.CoachNote, st.DetectedAt,
	)
	return err
}

func (s *PostgresStore) ListKeyLevels(ctx context.Context, symbol string, asOf time.Time) ([]*domain.KeyLevel, error) {
	rows, err := s.pool.Query(ctx, `
		select id, symbol, level_type, price, timeframe, strength, created_at, expires_at
		from key_levels
		where symbol = $1 and expires_at > $2
		order by strength desc, created_at asc
	`, symbol, asOf)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	levels := make([]*domain.KeyLevel, 0)
	for rows.Next() {
		var l domain.KeyLevel
		var levelType, tf string
		if err := rows.Scan(&l.ID, &l.Symbol, &levelType, &l.Price, &tf, &l.Strength, &l.CreatedAt, &l.ExpiresAt); err != nil {
			return nil, err
		}
		l.Type = domain.LevelType(levelType)
		l.Timeframe = domain.Timeframe(tf)
		levels = append(levels, &l)
	}
	return levels, rows.Err()
}

func (s *PostgresStore) ListMTFAnalyses(ctx context.Context, symbol string, since time.Time) ([]*domain.MTFAnalysis, error) {
	rows, err := s.pool.Query(ctx, `
		select id, symbol, timeframe, trend, structure, ema_position, momentum, orb_position, vwap_position, analyzed_at
		from mtf_analysis
		where symbol = $1 and analyzed_at >= $2
		order by analyzed_at desc
	`, symbol, since)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	analyses := make([]*domain.MTFAnalysis, 0)
	for rows.Next() {
		var a domain.MTFAnalysis
		var tf, trend string
		var orb, vwap *string
		if err := rows.Scan(&a.ID, &a.Symbol, &tf, &trend, &a.Structure, &a.EMAPosition, &a.Momentum, &orb, &vwap, &a.AnalyzedAt); err != nil {
			return nil, err
		}
		a.Timeframe = domain.Timeframe(tf)
		a.Trend = domain.Trend(trend)
		a.ORBPosition = positionFromString(orb)
		a.VWAPPosition = positionFromString(vwap)
		analyses = append(analyses, &a)
	}
	return analyses, rows.Err()
}

func (s *PostgresStore) ListDetectedSetups(ctx context.Context, filter domain.SetupFilter) ([]*domain.DetectedSetup, error) {
	query := `
		select id, symbol, direction, stage, confluence_score, grade, level_score, trend_score, patience_score,
			primary_level_type, primary_level_price, patience_candles,
			entry_price, stop_loss, target_1, target_2, target_3, risk_reward,
			coach_note, detected_at
		from detected_setups
		where detected_at >= $1`
	args := []interface{}{filter.Since}
	if filter.Symbol != "" {
		args = append(args, filter.Symbol)
		query += fmt.Sprintf(" and symbol = $%d", len(args))
	}
	query += " order by confluence_score desc, detected_at desc"
	if filter.Limit > 0 {
		args = append(args, filter.Limit)
		query += fmt.Sprintf(" limit $%d", len(args))
	}

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	setups := make([]*domain.DetectedSetup, 0)
	for rows.Next() {
		st, err := scanDetectedSetup(rows)
		if err != nil {
			return nil, err
		}
		setups = append(setups, st)
	}
	return setups, rows.Err()
}

func scanDetectedSetup(rows pgx.Rows) (*domain.DetectedSetup, error) {
	var st domain.DetectedSetup
	var direction, stage, grade string
	var levelType *string
	var levelPrice, entry, stop, t1, t2, t3, rr *float64
	if err := rows.Scan(&st.ID, &st.Symbol, &direction, &stage, &st.ConfluenceScore, &grade,
		&st.LevelScore, &st.TrendScore, &st.PatienceScore, &levelType, &levelPrice, &st.PatienceCandles,
		&entry, &stop, &t1, &t2, &t3, &rr, &st.CoachNote, &st.DetectedAt); err != nil {
		return nil, err
	}
	st.Direction = domain.Direction(direction)
	st.Stage = domain.Stage(stage)
	st.Grade = domain.Grade(grade)
	if levelType != nil {
		lt := domain.LevelType(*levelType)
		st.PrimaryLevel = &lt
	}
	st.LevelPrice = levelPrice
	if entry != nil {
		st.Trade = &domain.TradeParams{
			Entry:      *entry,
			Stop:       derefFloat(stop),
			Target1:    derefFloat(t1),
			Target2:    derefFloat(t2),
			Target3:    derefFloat(t3),
			RiskReward: derefFloat(rr),
		}
	}
	return &st, nil
}

func positionFromString(s *string) *domain.Position {
	if s == nil {
		return nil
	}
	p := domain.Position(*s)
	return &p
}

func derefFloat(v *float64) float64 {
	if v == nil {
		return 0
	}
	return *v
}
