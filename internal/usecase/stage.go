package usecase

import "github.com/vitos/ltp_scanner/internal/domain"

// ClassifySetupStage places a setup on its forming -> ready -> triggered path.
// Ready needs confirmed patience and an overall score of at least readyScore.
// Triggered additionally needs the last bar to close through the prior bar's
// extreme in the trade direction.
func ClassifySetupStage(score domain.LTPScore, patience domain.PatienceResult, bars []domain.Bar, direction domain.Direction, readyScore int) domain.Stage {
	if !patience.Detected || score.Overall < readyScore {
		return domain.StageForming
	}
	if len(bars) < 2 {
		return domain.StageReady
	}

	last, prev := bars[len(bars)-1], bars[len(bars)-2]
	switch direction {
	case domain.DirectionBullish:
		if last.Close > prev.High {
			return domain.StageTriggered
		}
	case domain.DirectionBearish:
		if last.Close < prev.Low {
			return domain.StageTriggered
		}
	}
	return domain.StageReady
}
