package usecase

import (
	"fmt"
	"strings"

	"github.com/vitos/ltp_scanner/internal/domain"
)

// GenerateCoachNote picks fixed phrases for level, trend and patience, in
// that order, and joins them with spaces.
func GenerateCoachNote(levelScore float64, level *domain.KeyLevel, trendScore float64, direction domain.Direction, patience domain.PatienceResult) string {
	var parts []string

	levelName := "key"
	if level != nil {
		levelName = level.Type.Label()
	}
	switch {
	case levelScore >= 70:
		parts = append(parts, fmt.Sprintf("Strong confluence at %s level.", levelName))
	case levelScore >= 50:
		parts = append(parts, fmt.Sprintf("Price near %s level.", levelName))
	}

	switch {
	case trendScore >= 70:
		parts = append(parts, fmt.Sprintf("Strong %s alignment across timeframes.", direction))
	case trendScore >= 50:
		parts = append(parts, fmt.Sprintf("Moderate %s alignment.", direction))
	}

	if patience.Detected {
		noun := "candles"
		if patience.Count == 1 {
			noun = "candle"
		}
		parts = append(parts, fmt.Sprintf("%d patience %s confirmed.", patience.Count, noun))
	} else {
		parts = append(parts, "Waiting for patience candle confirmation.")
	}

	return strings.Join(parts, " ")
}
