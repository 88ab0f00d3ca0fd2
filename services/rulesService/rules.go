package rulesService

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/elliotttmiller/NSSPORTS-sub002/config"
	"github.com/elliotttmiller/NSSPORTS-sub002/models"
	"github.com/elliotttmiller/NSSPORTS-sub002/services/common"
)

// Violation is the machine-readable outcome of a failed admission check. It is
// a value, not an error: callers decide whether to block or warn.
type Violation struct {
	Rule    string
	Message string
}

const (
	RuleBadOdds           = "invalid_odds"
	RuleBadSelection      = "invalid_selection"
	RuleMissingLine       = "missing_line"
	RuleDuplicateLeg      = "duplicate_leg"
	RuleOpposingMoneyline = "opposing_moneyline"
	RuleMinLegs           = "min_legs"
	RuleTeaserLegCount    = "teaser_leg_count"
	RuleTeaserMarket      = "teaser_market"
	RuleUnknownTeaserType = "unknown_teaser_type"
	RuleStakeBounds       = "stake_bounds"
	RuleGameStarted       = "game_started"
	RuleGameFinished      = "game_finished"
)

func violationf(rule, format string, args ...interface{}) *Violation {
	return &Violation{Rule: rule, Message: fmt.Sprintf(format, args...)}
}

var standardSelections = map[models.BetType][]string{
	models.BetTypeMoneyline: {models.SelectionHome, models.SelectionAway},
	models.BetTypeSpread:    {models.SelectionHome, models.SelectionAway},
	models.BetTypeTotal:     {models.SelectionOver, models.SelectionUnder},
}

// validateLeg checks a leg in isolation: odds shape, selection against the
// market's closed set (free-form but non-empty for props), and line presence.
func validateLeg(leg models.Leg) *Violation {
	if _, err := common.ToDecimal(leg.Odds); err != nil {
		return violationf(RuleBadOdds, "leg %s: %v", leg.Key(), err)
	}

	if leg.BetType.IsProp() {
		if leg.Selection == "" {
			return violationf(RuleBadSelection, "prop leg on game %s has an empty selection", leg.GameID)
		}
		if leg.PropID == nil || *leg.PropID == "" {
			return violationf(RuleBadSelection, "prop leg on game %s is missing a prop id", leg.GameID)
		}
		return nil
	}

	allowed, ok := standardSelections[leg.BetType]
	if !ok {
		return violationf(RuleBadSelection, "unknown bet type %q", leg.BetType)
	}
	if !common.Contains(allowed, leg.Selection) {
		return violationf(RuleBadSelection, "selection %q is not valid for a %s market", leg.Selection, leg.BetType)
	}

	switch leg.BetType {
	case models.BetTypeSpread, models.BetTypeTotal:
		if leg.Line == nil {
			return violationf(RuleMissingLine, "%s leg on game %s has no line", leg.BetType, leg.GameID)
		}
	case models.BetTypeMoneyline:
		if leg.Line != nil {
			return violationf(RuleBadSelection, "moneyline leg on game %s must not carry a line", leg.GameID)
		}
	}
	return nil
}

// ValidateAddition checks whether a candidate leg may join the given legs
// under the wager kind. Game-state rules are deferred to placement, since game
// state can change while a slip is open.
func ValidateAddition(existing []models.Leg, candidate models.Leg, kind models.WagerKind) *Violation {
	if v := validateLeg(candidate); v != nil {
		return v
	}

	if kind == models.WagerTeaser && candidate.BetType != models.BetTypeSpread && candidate.BetType != models.BetTypeTotal {
		return violationf(RuleTeaserMarket, "teasers accept only spread and total legs, got %s", candidate.BetType)
	}

	for _, leg := range existing {
		if leg.Key() == candidate.Key() {
			return violationf(RuleDuplicateLeg, "leg %s is already on the wager", candidate.Key())
		}
	}

	// Both sides of the same game's moneyline in one parlay or teaser are
	// mutually exclusive and carry zero combined value.
	if (kind == models.WagerParlay || kind == models.WagerTeaser) && candidate.BetType == models.BetTypeMoneyline {
		opposite := models.SelectionAway
		if candidate.Selection == models.SelectionAway {
			opposite = models.SelectionHome
		}
		for _, leg := range existing {
			if leg.BetType == models.BetTypeMoneyline && leg.GameID == candidate.GameID && leg.Selection == opposite {
				return violationf(RuleOpposingMoneyline,
					"game %s already has the %s moneyline on this wager", candidate.GameID, opposite)
			}
		}
	}

	return nil
}

// ValidatePlacement runs the full admission check for a wager about to be
// persisted. For parlay and teaser wagers totalStake is the shared stake; for
// single and custom wagers each leg carries its own (custom parlay-subset
// stake is totalStake).
func ValidatePlacement(legs []models.Leg, kind models.WagerKind, totalStake decimal.Decimal, teaserType string, cfg *config.Engine, now time.Time) *Violation {
	if kind == models.WagerCustom {
		return validateCustomPlacement(legs, totalStake, cfg, now)
	}

	var accepted []models.Leg
	for _, leg := range legs {
		if v := ValidateAddition(accepted, leg, kind); v != nil {
			return v
		}
		accepted = append(accepted, leg)
	}

	switch kind {
	case models.WagerSingle:
		if len(legs) != 1 {
			return violationf(RuleMinLegs, "a single wager carries exactly one leg, got %d", len(legs))
		}
		if v := checkStake(legs[0].Stake, cfg); v != nil {
			return v
		}
	case models.WagerParlay:
		if len(legs) < 2 {
			return violationf(RuleMinLegs, "a parlay requires at least 2 legs, got %d", len(legs))
		}
		if v := checkStake(totalStake, cfg); v != nil {
			return v
		}
	case models.WagerTeaser:
		if len(legs) < 2 {
			return violationf(RuleMinLegs, "a teaser requires at least 2 legs, got %d", len(legs))
		}
		tier, ok := cfg.Teasers[teaserType]
		if !ok {
			return violationf(RuleUnknownTeaserType, "unknown teaser type %q", teaserType)
		}
		if len(legs) < tier.MinLegs || len(legs) > tier.MaxLegs {
			return violationf(RuleTeaserLegCount,
				"teaser %q requires between %d and %d legs, got %d", teaserType, tier.MinLegs, tier.MaxLegs, len(legs))
		}
		if v := checkStake(totalStake, cfg); v != nil {
			return v
		}
	}

	return checkGameState(legs, now)
}

// custom wagers validate each subset independently under the subset's
// effective kind.
func validateCustomPlacement(legs []models.Leg, parlayStake decimal.Decimal, cfg *config.Engine, now time.Time) *Violation {
	var straight, parlay []models.Leg
	for _, leg := range legs {
		if leg.InParlay {
			parlay = append(parlay, leg)
		} else {
			straight = append(straight, leg)
		}
	}

	if len(straight) == 0 && len(parlay) == 0 {
		return violationf(RuleMinLegs, "a custom wager requires at least one leg")
	}

	// A subset staked at zero or below the minimum is excluded from pricing
	// rather than rejected, but some subset must survive and no stake may
	// exceed the maximum.
	min := decimal.NewFromFloat(cfg.MinStake)
	max := decimal.NewFromFloat(cfg.MaxStake)
	priced := false

	var accepted []models.Leg
	for _, leg := range straight {
		if v := ValidateAddition(accepted, leg, models.WagerSingle); v != nil {
			return v
		}
		accepted = append(accepted, leg)
		if leg.Stake.GreaterThan(max) {
			return violationf(RuleStakeBounds, "stake %s exceeds maximum %s", leg.Stake.String(), max.String())
		}
		if leg.Stake.GreaterThanOrEqual(min) {
			priced = true
		}
	}

	if len(parlay) > 0 {
		if len(parlay) < 2 {
			return violationf(RuleMinLegs, "the parlay subset of a custom wager requires at least 2 legs, got %d", len(parlay))
		}
		accepted = nil
		for _, leg := range parlay {
			if v := ValidateAddition(accepted, leg, models.WagerParlay); v != nil {
				return v
			}
			accepted = append(accepted, leg)
		}
		if parlayStake.GreaterThan(max) {
			return violationf(RuleStakeBounds, "stake %s exceeds maximum %s", parlayStake.String(), max.String())
		}
		if parlayStake.GreaterThanOrEqual(min) {
			priced = true
		}
	}

	if !priced {
		return violationf(RuleStakeBounds, "no subset of the custom wager carries a stake at or above the minimum %s", min.String())
	}

	return checkGameState(legs, now)
}

func checkStake(stake decimal.Decimal, cfg *config.Engine) *Violation {
	min := decimal.NewFromFloat(cfg.MinStake)
	max := decimal.NewFromFloat(cfg.MaxStake)
	if stake.LessThan(min) || stake.GreaterThan(max) {
		return violationf(RuleStakeBounds,
			"stake %s outside allowed range [%s, %s]", stake.String(), min.String(), max.String())
	}
	return nil
}

func checkGameState(legs []models.Leg, now time.Time) *Violation {
	for _, leg := range legs {
		if leg.GameFinal {
			return violationf(RuleGameFinished, "game %s is already final", leg.GameID)
		}
		if leg.GameStart != nil && !now.Before(*leg.GameStart) {
			return violationf(RuleGameStarted, "game %s has already started", leg.GameID)
		}
	}
	return nil
}
