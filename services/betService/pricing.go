package betService

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/elliotttmiller/NSSPORTS-sub002/config"
	"github.com/elliotttmiller/NSSPORTS-sub002/models"
	"github.com/elliotttmiller/NSSPORTS-sub002/services/common"
)

// ParlayPrice is the combined price of a parlay: the multiplicative decimal,
// its American display form, and the payout a shared stake buys.
type ParlayPrice struct {
	CombinedDecimal float64
	TotalOdds       int
	TotalPayout     decimal.Decimal
}

// PriceParlay multiplies each leg's decimal odds into one combined price. A
// single shared stake applies to the whole parlay.
func PriceParlay(legs []models.Leg, totalStake decimal.Decimal) (ParlayPrice, error) {
	if len(legs) < 2 {
		return ParlayPrice{}, fmt.Errorf("a parlay requires at least 2 legs, got %d", len(legs))
	}

	combined := 1.0
	for _, leg := range legs {
		dec, err := common.ToDecimal(leg.Odds)
		if err != nil {
			return ParlayPrice{}, fmt.Errorf("leg %s: %w", leg.Key(), err)
		}
		combined *= dec
	}

	totalOdds, err := common.DecimalToAmerican(combined)
	if err != nil {
		return ParlayPrice{}, err
	}

	return ParlayPrice{
		CombinedDecimal: combined,
		TotalOdds:       totalOdds,
		TotalPayout:     totalStake.Mul(decimal.NewFromFloat(combined)).Round(2),
	}, nil
}

// PriceTeaser returns the payout for a fully-winning teaser. The price comes
// from the tier's fixed odds, never from the legs: a teaser is a fixed-price
// product regardless of which lines the adjustment crossed.
func PriceTeaser(tier config.Teaser, totalStake decimal.Decimal) decimal.Decimal {
	return common.Payout(totalStake, tier.Odds).Round(2)
}

// CustomPrice aggregates a custom wager's two independently priced subsets.
type CustomPrice struct {
	StraightStake  decimal.Decimal
	StraightPayout decimal.Decimal
	ParlayStake    decimal.Decimal
	Parlay         *ParlayPrice // nil when the parlay subset is excluded
	TotalStake     decimal.Decimal
	TotalPayout    decimal.Decimal
}

// SplitCustomLegs partitions a custom wager's legs into its straight-bet and
// parlay subsets.
func SplitCustomLegs(legs []models.Leg) (straight, parlay []models.Leg) {
	for _, leg := range legs {
		if leg.InParlay {
			parlay = append(parlay, leg)
		} else {
			straight = append(straight, leg)
		}
	}
	return straight, parlay
}

// PriceCustom prices a custom wager as the union of two simpler products:
// each straight leg priced alone plus one parlay over the parlay subset. A
// subset staked at zero or below the minimum is excluded from the total
// without invalidating the other subset.
func PriceCustom(legs []models.Leg, parlayStake decimal.Decimal, cfg *config.Engine) (CustomPrice, error) {
	straight, parlayLegs := SplitCustomLegs(legs)
	minStake := decimal.NewFromFloat(cfg.MinStake)

	price := CustomPrice{
		StraightStake:  decimal.Zero,
		StraightPayout: decimal.Zero,
		ParlayStake:    decimal.Zero,
	}

	for _, leg := range straight {
		if leg.Stake.LessThan(minStake) {
			continue
		}
		price.StraightStake = price.StraightStake.Add(leg.Stake)
		price.StraightPayout = price.StraightPayout.Add(common.Payout(leg.Stake, leg.Odds).Round(2))
	}

	if len(parlayLegs) >= 2 && parlayStake.GreaterThanOrEqual(minStake) {
		pp, err := PriceParlay(parlayLegs, parlayStake)
		if err != nil {
			return CustomPrice{}, err
		}
		price.Parlay = &pp
		price.ParlayStake = parlayStake
	}

	price.TotalStake = price.StraightStake.Add(price.ParlayStake)
	price.TotalPayout = price.StraightPayout
	if price.Parlay != nil {
		price.TotalPayout = price.TotalPayout.Add(price.Parlay.TotalPayout)
	}
	return price, nil
}
