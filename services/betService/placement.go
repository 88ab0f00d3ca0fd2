package betService

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/elliotttmiller/NSSPORTS-sub002/config"
	"github.com/elliotttmiller/NSSPORTS-sub002/models"
	"github.com/elliotttmiller/NSSPORTS-sub002/services/common"
	"github.com/elliotttmiller/NSSPORTS-sub002/services/rulesService"
)

// ErrInsufficientFunds rejects placement when the balance does not cover the
// total stake. The check happens inside the placement transaction, before any
// debit, so a partial debit can never occur.
var ErrInsufficientFunds = errors.New("insufficient balance for stake")

// WagerDraft is everything a request handler supplies to place a wager. Leg
// stakes are carried on the legs for single and custom wagers; TotalStake is
// the shared stake for parlays and teasers and the parlay-subset stake for
// custom wagers.
type WagerDraft struct {
	Kind           models.WagerKind
	Legs           []models.Leg
	TotalStake     decimal.Decimal
	TeaserType     string
	IdempotencyKey string
}

// PlaceWager validates, prices, and persists a wager, debiting the stake in
// the same transaction. A rejected draft comes back as a *Violation with a
// nil error; infrastructure failures come back as errors.
//
// Retried requests carrying the same idempotency key return the wager created
// by the first attempt without debiting again.
func PlaceWager(db *gorm.DB, cfg *config.Engine, userID uint, draft WagerDraft) (*models.Wager, *rulesService.Violation, error) {
	if v := rulesService.ValidatePlacement(draft.Legs, draft.Kind, draft.TotalStake, draft.TeaserType, cfg, time.Now()); v != nil {
		return nil, v, nil
	}

	wager, err := buildWager(cfg, userID, draft)
	if err != nil {
		return nil, nil, err
	}

	var placed *models.Wager
	err = db.Transaction(func(tx *gorm.DB) error {
		// Idempotent replay: a retry with the same key gets the original wager.
		var existing models.Wager
		err := tx.Preload("Legs").Where("idempotency_key = ?", wager.IdempotencyKey).First(&existing).Error
		if err == nil {
			placed = &existing
			return nil
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}

		var user models.User
		if err := tx.First(&user, userID).Error; err != nil {
			return err
		}
		if user.Balance.LessThan(wager.TotalStake) {
			return ErrInsufficientFunds
		}

		if err := tx.Model(&models.User{}).Where("id = ?", userID).
			UpdateColumns(map[string]interface{}{
				"balance":      gorm.Expr("balance - ?", wager.TotalStake),
				"total_staked": gorm.Expr("total_staked + ?", wager.TotalStake),
			}).Error; err != nil {
			return err
		}

		if err := tx.Create(wager).Error; err != nil {
			return err
		}

		entry := models.LedgerEntry{
			UserID:  userID,
			WagerID: wager.ID,
			Amount:  wager.TotalStake.Neg(),
			Reason:  models.LedgerReasonPlace,
		}
		if err := tx.Create(&entry).Error; err != nil {
			return err
		}

		placed = wager
		return nil
	})
	if err != nil {
		// Two placements can race past the in-transaction lookup with the
		// same key; the loser hits the unique index on Create, its debit
		// rolls back, and the winner's wager is the placement result.
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			var existing models.Wager
			if lookupErr := db.Preload("Legs").Where("idempotency_key = ?", wager.IdempotencyKey).First(&existing).Error; lookupErr == nil {
				return &existing, nil, nil
			}
		}
		return nil, nil, err
	}
	return placed, nil, nil
}

// buildWager prices the draft into a persistable wager. PotentialPayout on
// every leg is derived from (stake, odds) here and never set independently.
func buildWager(cfg *config.Engine, userID uint, draft WagerDraft) (*models.Wager, error) {
	key := draft.IdempotencyKey
	if key == "" {
		key = uuid.NewString()
	}

	wager := &models.Wager{
		ExternalID:     uuid.NewString(),
		UserID:         userID,
		Kind:           draft.Kind,
		Status:         models.StatusPending,
		IdempotencyKey: key,
	}

	legs := make([]models.Leg, len(draft.Legs))
	copy(legs, draft.Legs)

	switch draft.Kind {
	case models.WagerSingle:
		leg := &legs[0]
		leg.PotentialPayout = common.Payout(leg.Stake, leg.Odds).Round(2)
		wager.TotalStake = leg.Stake
		wager.TotalPayout = leg.PotentialPayout

	case models.WagerParlay:
		price, err := PriceParlay(legs, draft.TotalStake)
		if err != nil {
			return nil, err
		}
		for i := range legs {
			legs[i].Stake = decimal.Zero
			legs[i].PotentialPayout = decimal.Zero
		}
		wager.TotalStake = draft.TotalStake
		wager.TotalPayout = price.TotalPayout
		wager.TotalOdds = price.TotalOdds

	case models.WagerTeaser:
		tier, ok := cfg.Teasers[draft.TeaserType]
		if !ok {
			return nil, fmt.Errorf("unknown teaser type %q", draft.TeaserType)
		}
		adjusted, meta, err := AdjustTeaserLines(legs, tier)
		if err != nil {
			return nil, err
		}
		legs = adjusted
		for i := range legs {
			legs[i].Stake = decimal.Zero
			legs[i].PotentialPayout = decimal.Zero
		}
		wager.TotalStake = draft.TotalStake
		wager.TotalPayout = PriceTeaser(tier, draft.TotalStake)
		wager.TotalOdds = tier.Odds
		wager.TeaserType = draft.TeaserType
		wager.OriginalLines = meta.OriginalLines
		wager.AdjustedLines = meta.AdjustedLines
		wager.PointsApplied = meta.PointsApplied
		wager.PointAdjustment = meta.PointAdjustment
		wager.PushRule = meta.PushRule

	case models.WagerCustom:
		price, err := PriceCustom(legs, draft.TotalStake, cfg)
		if err != nil {
			return nil, err
		}
		minStake := decimal.NewFromFloat(cfg.MinStake)
		for i := range legs {
			if legs[i].InParlay || legs[i].Stake.LessThan(minStake) {
				legs[i].Stake = decimal.Zero
				legs[i].PotentialPayout = decimal.Zero
				continue
			}
			legs[i].PotentialPayout = common.Payout(legs[i].Stake, legs[i].Odds).Round(2)
		}
		wager.TotalStake = price.TotalStake
		wager.TotalPayout = price.TotalPayout
		wager.ParlayStake = price.ParlayStake
		if price.Parlay != nil {
			wager.TotalOdds = price.Parlay.TotalOdds
		}

	default:
		return nil, fmt.Errorf("unknown wager kind %q", draft.Kind)
	}

	wager.Legs = legs
	return wager, nil
}
