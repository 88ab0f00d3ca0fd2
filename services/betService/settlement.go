package betService

import (
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/elliotttmiller/NSSPORTS-sub002/config"
	"github.com/elliotttmiller/NSSPORTS-sub002/models"
	"github.com/elliotttmiller/NSSPORTS-sub002/services/common"
)

var (
	// ErrAlreadySettled rejects settlement of a wager that already reached a
	// terminal status. Settlement is idempotent: the caller gets this error
	// and the wager and balance are left untouched.
	ErrAlreadySettled = errors.New("wager already settled")

	// ErrIncompleteGrades rejects settlement when one or more legs have no
	// grade yet.
	ErrIncompleteGrades = errors.New("incomplete leg grades")
)

// Outcome is the terminal result of resolving a wager: the status it
// transitions to and the amount credited back to the account. The stake was
// debited at placement, so a lost wager credits nothing and a push credits
// the full stake.
type Outcome struct {
	Status       models.WagerStatus
	Payout       decimal.Decimal
	RevertedTier string // teaser tier used when a push reverted the wager down a size
}

// ResolveWager determines a wager's terminal status and payout from per-leg
// grades. It is a pure function over the wager, the grades, and the immutable
// teaser table; it never touches storage.
func ResolveWager(w *models.Wager, grades map[string]models.LegResult, cfg *config.Engine) (Outcome, error) {
	for _, leg := range w.Legs {
		g, ok := grades[leg.Key()]
		if !ok {
			return Outcome{}, fmt.Errorf("%w: leg %s", ErrIncompleteGrades, leg.Key())
		}
		switch g {
		case models.LegWon, models.LegLost, models.LegPush:
		default:
			return Outcome{}, fmt.Errorf("%w: leg %s has grade %q", ErrIncompleteGrades, leg.Key(), g)
		}
	}

	switch w.Kind {
	case models.WagerSingle:
		return resolveSingle(w, grades), nil
	case models.WagerParlay:
		return resolveParlay(w.Legs, grades, w.TotalStake, w.TotalPayout), nil
	case models.WagerTeaser:
		return resolveTeaser(w, grades, cfg)
	case models.WagerCustom:
		return resolveCustom(w, grades, cfg)
	}
	return Outcome{}, fmt.Errorf("unknown wager kind %q", w.Kind)
}

func resolveSingle(w *models.Wager, grades map[string]models.LegResult) Outcome {
	leg := w.Legs[0]
	switch grades[leg.Key()] {
	case models.LegWon:
		return Outcome{Status: models.StatusWon, Payout: w.TotalPayout}
	case models.LegPush:
		return Outcome{Status: models.StatusPush, Payout: w.TotalStake}
	default:
		return Outcome{Status: models.StatusLost, Payout: decimal.Zero}
	}
}

// A parlay wins only when every leg wins and loses as soon as any leg loses.
// With no loss and at least one push the whole ticket pushes at the
// stake-return level; non-teaser parlays are not re-priced over the
// remaining legs.
func resolveParlay(legs []models.Leg, grades map[string]models.LegResult, stake, payout decimal.Decimal) Outcome {
	anyLost := false
	anyPush := false
	for _, leg := range legs {
		switch grades[leg.Key()] {
		case models.LegLost:
			anyLost = true
		case models.LegPush:
			anyPush = true
		}
	}

	switch {
	case anyLost:
		return Outcome{Status: models.StatusLost, Payout: decimal.Zero}
	case anyPush:
		return Outcome{Status: models.StatusPush, Payout: stake}
	default:
		return Outcome{Status: models.StatusWon, Payout: payout}
	}
}

func resolveTeaser(w *models.Wager, grades map[string]models.LegResult, cfg *config.Engine) (Outcome, error) {
	wonCount := 0
	anyLost := false
	anyPush := false
	for _, leg := range w.Legs {
		switch grades[leg.Key()] {
		case models.LegWon:
			wonCount++
		case models.LegLost:
			anyLost = true
		case models.LegPush:
			anyPush = true
		}
	}

	if anyLost {
		return Outcome{Status: models.StatusLost, Payout: decimal.Zero}, nil
	}
	if !anyPush {
		return Outcome{Status: models.StatusWon, Payout: w.TotalPayout}, nil
	}

	// No loss, at least one push: the placement-time push rule decides.
	switch w.PushRule {
	case models.PushRuleLose:
		return Outcome{Status: models.StatusLost, Payout: decimal.Zero}, nil
	case models.PushRuleRevert:
		// Drop down to the tier sized for the legs that actually won and
		// re-price against the original stake. No matching tier means there
		// is nothing to revert to, so refund the stake.
		tier, name, ok := cfg.FindTierByLegCount(wonCount)
		if ok && wonCount >= tier.MinLegs {
			return Outcome{
				Status:       models.StatusWon,
				Payout:       PriceTeaser(tier, w.TotalStake),
				RevertedTier: name,
			}, nil
		}
		return Outcome{Status: models.StatusPush, Payout: w.TotalStake}, nil
	default:
		return Outcome{Status: models.StatusPush, Payout: w.TotalStake}, nil
	}
}

// resolveCustom settles the straight and parlay subsets independently and
// sums their payouts. The wager wins when any component wins, pushes when
// nothing won but some stake comes back, and loses otherwise.
func resolveCustom(w *models.Wager, grades map[string]models.LegResult, cfg *config.Engine) (Outcome, error) {
	straight, parlayLegs := SplitCustomLegs(w.Legs)
	minStake := decimal.NewFromFloat(cfg.MinStake)

	payout := decimal.Zero
	anyWon := false

	for _, leg := range straight {
		if leg.Stake.LessThan(minStake) {
			continue
		}
		switch grades[leg.Key()] {
		case models.LegWon:
			payout = payout.Add(common.Payout(leg.Stake, leg.Odds).Round(2))
			anyWon = true
		case models.LegPush:
			payout = payout.Add(leg.Stake)
		}
	}

	if len(parlayLegs) >= 2 && w.ParlayStake.GreaterThanOrEqual(minStake) {
		pp, err := PriceParlay(parlayLegs, w.ParlayStake)
		if err != nil {
			return Outcome{}, err
		}
		sub := resolveParlay(parlayLegs, grades, w.ParlayStake, pp.TotalPayout)
		payout = payout.Add(sub.Payout)
		if sub.Status == models.StatusWon {
			anyWon = true
		}
	}

	switch {
	case anyWon:
		return Outcome{Status: models.StatusWon, Payout: payout}, nil
	case payout.IsPositive():
		return Outcome{Status: models.StatusPush, Payout: payout}, nil
	default:
		return Outcome{Status: models.StatusLost, Payout: decimal.Zero}, nil
	}
}

// Settle resolves a pending wager and applies the status transition and the
// payout credit in one transaction. The transition is a compare-and-swap on
// status = pending, so concurrent settlement attempts serialize at the
// database and at most one wins.
func Settle(db *gorm.DB, cfg *config.Engine, wagerID uint, grades map[string]models.LegResult) (*models.Wager, error) {
	var wager models.Wager
	if err := db.Preload("Legs").First(&wager, wagerID).Error; err != nil {
		return nil, err
	}
	if wager.Status != models.StatusPending {
		return nil, ErrAlreadySettled
	}

	outcome, err := ResolveWager(&wager, grades, cfg)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	err = db.Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&models.Wager{}).
			Where("id = ? AND status = ?", wager.ID, models.StatusPending).
			Updates(map[string]interface{}{"status": outcome.Status, "settled_at": now})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return ErrAlreadySettled
		}

		for i := range wager.Legs {
			leg := &wager.Legs[i]
			if err := tx.Model(&models.Leg{}).Where("id = ?", leg.ID).
				Update("result", grades[leg.Key()]).Error; err != nil {
				return err
			}
		}

		if outcome.Payout.IsPositive() {
			if err := tx.Model(&models.User{}).Where("id = ?", wager.UserID).
				UpdateColumn("balance", gorm.Expr("balance + ?", outcome.Payout)).Error; err != nil {
				return err
			}

			reason := models.LedgerReasonPayout
			if outcome.Status == models.StatusPush {
				reason = models.LedgerReasonRefund
			}
			entry := models.LedgerEntry{
				UserID:  wager.UserID,
				WagerID: wager.ID,
				Amount:  outcome.Payout,
				Reason:  reason,
			}
			if err := tx.Create(&entry).Error; err != nil {
				return err
			}
		}

		switch outcome.Status {
		case models.StatusWon:
			if err := tx.Model(&models.User{}).Where("id = ?", wager.UserID).
				UpdateColumns(map[string]interface{}{
					"total_bets_won": gorm.Expr("total_bets_won + 1"),
					"total_won":      gorm.Expr("total_won + ?", outcome.Payout),
				}).Error; err != nil {
				return err
			}
		case models.StatusLost:
			if err := tx.Model(&models.User{}).Where("id = ?", wager.UserID).
				UpdateColumn("total_bets_lost", gorm.Expr("total_bets_lost + 1")).Error; err != nil {
				return err
			}
		}

		return nil
	})
	if err != nil {
		return nil, err
	}

	wager.Status = outcome.Status
	wager.SettledAt = &now
	for i := range wager.Legs {
		wager.Legs[i].Result = grades[wager.Legs[i].Key()]
	}
	return &wager, nil
}
