package storage

import (
	"database/sql"

	"github.com/vitos/ltp_scanner/internal/domain"
)

func nullFloat(v *float64) interface{} {
	if v == nil {
		return nil
	}
	return *v
}

func nullPosition(p *domain.Position) interface{} {
	if p == nil {
		return nil
	}
	return string(*p)
}

func nullLevelType(t *domain.LevelType) interface{} {
	if t == nil {
		return nil
	}
	return string(*t)
}

func positionPtr(s sql.NullString) *domain.Position {
	if !s.Valid {
		return nil
	}
	p := domain.Position(s.String)
	return &p
}

// tradeColumns flattens trade params into entry, stop, targets and risk/reward,
// all NULL when the group is absent.
func tradeColumns(t *domain.TradeParams) [6]interface{} {
	if t == nil {
		return [6]interface{}{}
	}
	return [6]interface{}{t.Entry, t.Stop, t.Target1, t.Target2, t.Target3, t.RiskReward}
}
