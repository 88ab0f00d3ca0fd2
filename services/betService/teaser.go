package betService

import (
	"fmt"

	"github.com/elliotttmiller/NSSPORTS-sub002/config"
	"github.com/elliotttmiller/NSSPORTS-sub002/models"
	"github.com/elliotttmiller/NSSPORTS-sub002/services/common"
)

// Leagues that take the basketball point adjustment instead of the default.
var basketballLeagues = []string{"NBA", "WNBA", "NCAAB", "CBB"}

// TeaserAdjustment is the durable record of what a teaser's line adjustment
// did, written into wager metadata at placement. Settlement grades against
// the adjusted lines, never the originals.
//
// PointsApplied records the adjustment each leg actually took, which differs
// from the tier default when the basketball override fires. PointAdjustment
// carries the applied value when it is uniform across legs; for mixed-league
// teasers the per-leg map is the authoritative record.
type TeaserAdjustment struct {
	OriginalLines   map[string]float64
	AdjustedLines   map[string]float64
	PointsApplied   map[string]float64
	PointAdjustment float64
	PushRule        models.PushRule
}

func adjustmentFor(leg models.Leg, tier config.Teaser) float64 {
	if tier.NBAPointAdjustment != nil && common.Contains(basketballLeagues, leg.League) {
		return *tier.NBAPointAdjustment
	}
	return tier.PointAdjustment
}

// AdjustTeaserLines shifts every leg's line in the bettor's favor by the
// tier's point value and returns adjusted copies plus the metadata record.
//
// Lines are stored from the selected side's perspective, so a spread always
// moves up by the adjustment: a -7.5 favorite becomes -1.5, a +3.5 underdog
// becomes +9.5. Totals move down for overs and up for unders.
func AdjustTeaserLines(legs []models.Leg, tier config.Teaser) ([]models.Leg, TeaserAdjustment, error) {
	meta := TeaserAdjustment{
		OriginalLines:   make(map[string]float64, len(legs)),
		AdjustedLines:   make(map[string]float64, len(legs)),
		PointsApplied:   make(map[string]float64, len(legs)),
		PointAdjustment: tier.PointAdjustment,
		PushRule:        tier.PushRule,
	}

	applied := tier.PointAdjustment
	uniform := true

	adjusted := make([]models.Leg, len(legs))
	for i, leg := range legs {
		if leg.Line == nil {
			return nil, TeaserAdjustment{}, fmt.Errorf("teaser leg %s has no line to adjust", leg.Key())
		}

		points := adjustmentFor(leg, tier)
		if i == 0 {
			applied = points
		} else if points != applied {
			uniform = false
		}
		original := *leg.Line

		var moved float64
		switch {
		case leg.BetType == models.BetTypeSpread:
			moved = original + points
		case leg.BetType == models.BetTypeTotal && leg.Selection == models.SelectionOver:
			moved = original - points
		case leg.BetType == models.BetTypeTotal && leg.Selection == models.SelectionUnder:
			moved = original + points
		default:
			return nil, TeaserAdjustment{}, fmt.Errorf("teaser leg %s: cannot adjust a %s market", leg.Key(), leg.BetType)
		}

		leg.OriginalLine = &original
		line := moved
		leg.Line = &line
		adjusted[i] = leg

		meta.OriginalLines[leg.Key()] = original
		meta.AdjustedLines[leg.Key()] = moved
		meta.PointsApplied[leg.Key()] = points
	}

	if uniform && len(legs) > 0 {
		meta.PointAdjustment = applied
	}
	return adjusted, meta, nil
}
