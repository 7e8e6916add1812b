package domain

import (
	"errors"
	"time"
)

var (
	ErrInvalidDirection = errors.New("direction must be bullish or bearish")
	ErrNoBars           = errors.New("no bars available")
)

type Direction string

const (
	DirectionBullish Direction = "bullish"
	DirectionBearish Direction = "bearish"
)

func (d Direction) Valid() bool {
	return d == DirectionBullish || d == DirectionBearish
}

// Matches reports whether a timeframe trend agrees with the direction.
// Neutral never matches.
func (d Direction) Matches(t Trend) bool {
	return string(d) == string(t)
}

type Stage string

const (
	StageForming   Stage = "forming"
	StageReady     Stage = "ready"
	StageTriggered Stage = "triggered"
)

type Grade string

const (
	GradeA Grade = "A"
	GradeB Grade = "B"
	GradeC Grade = "C"
	GradeD Grade = "D"
	GradeF Grade = "F"
)

type PatienceResult struct {
	Detected bool `json:"detected"`
	Count    int  `json:"count"`
}

type LevelResult struct {
	Score float64   `json:"score"`
	Level *KeyLevel `json:"level"`
}

// LTPScore holds the clamped component scores and their weighted average.
type LTPScore struct {
	Level    float64 `json:"level"`
	Trend    float64 `json:"trend"`
	Patience float64 `json:"patience"`
	Overall  int     `json:"overall"`
}

// TradeParams is absent (nil) as a group when no level qualified.
type TradeParams struct {
	Entry      float64 `json:"entry"`
	Stop       float64 `json:"stop"`
	Target1    float64 `json:"target_1"`
	Target2    float64 `json:"target_2"`
	Target3    float64 `json:"target_3"`
	RiskReward float64 `json:"risk_reward"`
}

// DetectedSetup is the output of one scan. A new scan produces a new record.
type DetectedSetup struct {
	ID              string       `json:"id"`
	Symbol          string       `json:"symbol"`
	Direction       Direction    `json:"direction"`
	Stage           Stage        `json:"stage"`
	ConfluenceScore int          `json:"confluence_score"`
	Grade           Grade        `json:"grade"`
	LevelScore      int          `json:"level_score"`
	TrendScore      int          `json:"trend_score"`
	PatienceScore   int          `json:"patience_score"`
	PrimaryLevel    *LevelType   `json:"primary_level_type"`
	LevelPrice      *float64     `json:"primary_level_price"`
	PatienceCandles int          `json:"patience_candles"`
	Trade           *TradeParams `json:"trade"`
	CoachNote       string       `json:"coach_note"`
	DetectedAt      time.Time    `json:"detected_at"`
}

// SetupFilter narrows a detected setups query. Empty Symbol means all symbols.
type SetupFilter struct {
	Symbol string
	Since  time.Time
	Limit  int
}
