package models

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type BetType string

const (
	BetTypeSpread     BetType = "spread"
	BetTypeMoneyline  BetType = "moneyline"
	BetTypeTotal      BetType = "total"
	BetTypePlayerProp BetType = "player_prop"
	BetTypeGameProp   BetType = "game_prop"
)

// IsProp reports whether the market is priced from a free-form prop selection
// rather than the closed home/away/over/under set.
func (b BetType) IsProp() bool {
	return b == BetTypePlayerProp || b == BetTypeGameProp
}

const (
	SelectionHome  = "home"
	SelectionAway  = "away"
	SelectionOver  = "over"
	SelectionUnder = "under"
)

type LegResult string

const (
	LegPending LegResult = "pending"
	LegWon     LegResult = "won"
	LegLost    LegResult = "lost"
	LegPush    LegResult = "push"
)

type Leg struct {
	gorm.Model
	ID              uint            `gorm:"primaryKey"`
	WagerID         uint            `gorm:"index"`
	GameID          string          `gorm:"size:64;index"`
	League          string          `gorm:"size:32"`
	BetType         BetType         `gorm:"size:16"`
	Selection       string          `gorm:"size:128"`
	PropID          *string         `gorm:"size:64"`
	Odds            int
	Line            *float64
	OriginalLine    *float64 // pre-adjustment line, set only for teaser legs
	Stake           decimal.Decimal `gorm:"type:decimal(12,2)"`
	PotentialPayout decimal.Decimal `gorm:"type:decimal(12,2)"`
	Result          LegResult       `gorm:"size:8;default:pending"`
	InParlay        bool            `gorm:"default:false"` // custom wagers only: leg belongs to the parlay subset
	GameStart       *time.Time
	GameFinal       bool `gorm:"default:false"`
	// Optional prop metadata, never inferred from the selection string
	PlayerID *string `gorm:"size:64"`
	StatType *string `gorm:"size:32"`
}

// Key returns the identity of a leg inside a wager: (gameId, betType, selection)
// for standard markets, (gameId, propId, selection) for props.
func (l *Leg) Key() string {
	if l.PropID != nil {
		return fmt.Sprintf("%s|%s|%s", l.GameID, *l.PropID, l.Selection)
	}
	return fmt.Sprintf("%s|%s|%s", l.GameID, l.BetType, l.Selection)
}
