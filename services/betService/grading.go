package betService

import (
	"github.com/elliotttmiller/NSSPORTS-sub002/models"
	"github.com/elliotttmiller/NSSPORTS-sub002/models/external"
)

// GradeLeg converts a final score into the leg's grade. The line on the leg
// is evaluated as stored, so teaser legs grade against their adjusted line.
// Prop legs cannot be graded from a scoreboard; the second return is false
// when the score feed is not enough to grade the leg.
func GradeLeg(leg models.Leg, score external.FinalScore) (models.LegResult, bool) {
	if leg.BetType.IsProp() {
		return models.LegPending, false
	}

	margin := float64(score.HomeScore - score.AwayScore)

	switch leg.BetType {
	case models.BetTypeMoneyline:
		if margin == 0 {
			return models.LegPush, true
		}
		homeWon := margin > 0
		if (leg.Selection == models.SelectionHome) == homeWon {
			return models.LegWon, true
		}
		return models.LegLost, true

	case models.BetTypeSpread:
		if leg.Line == nil {
			return models.LegPending, false
		}
		// Line is stored from the selected side's perspective.
		covered := margin + *leg.Line
		if leg.Selection == models.SelectionAway {
			covered = -margin + *leg.Line
		}
		return gradeMargin(covered), true

	case models.BetTypeTotal:
		if leg.Line == nil {
			return models.LegPending, false
		}
		total := float64(score.HomeScore + score.AwayScore)
		diff := total - *leg.Line
		if leg.Selection == models.SelectionUnder {
			diff = *leg.Line - total
		}
		return gradeMargin(diff), true
	}

	return models.LegPending, false
}

func gradeMargin(diff float64) models.LegResult {
	switch {
	case diff > 0:
		return models.LegWon
	case diff < 0:
		return models.LegLost
	default:
		return models.LegPush
	}
}
