package models

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type WagerKind string

const (
	WagerSingle WagerKind = "single"
	WagerParlay WagerKind = "parlay"
	WagerTeaser WagerKind = "teaser"
	WagerCustom WagerKind = "custom"
)

type WagerStatus string

const (
	StatusPending WagerStatus = "pending"
	StatusWon     WagerStatus = "won"
	StatusLost    WagerStatus = "lost"
	StatusPush    WagerStatus = "push"
)

type PushRule string

const (
	PushRulePush   PushRule = "push"
	PushRuleLose   PushRule = "lose"
	PushRuleRevert PushRule = "revert"
)

type Wager struct {
	gorm.Model
	ID          uint   `gorm:"primaryKey"`
	ExternalID  string `gorm:"uniqueIndex;size:36"`
	UserID      uint
	User        User      `gorm:"foreignKey:UserID"`
	Kind        WagerKind `gorm:"size:16"`
	Legs        []Leg
	TotalStake  decimal.Decimal `gorm:"type:decimal(12,2)"`
	ParlayStake decimal.Decimal `gorm:"type:decimal(12,2)"` // custom wagers: stake on the parlay subset
	TotalPayout decimal.Decimal `gorm:"type:decimal(12,2)"`
	TotalOdds   int             // American, combined; 0 for single wagers
	// Teaser placement record, required for settlement and auditing
	TeaserType      string             `gorm:"size:32"`
	OriginalLines   map[string]float64 `gorm:"serializer:json"`
	AdjustedLines   map[string]float64 `gorm:"serializer:json"`
	PointsApplied   map[string]float64 `gorm:"serializer:json"` // adjustment each leg took, per league override
	PointAdjustment float64
	PushRule        PushRule    `gorm:"size:8"`
	Status          WagerStatus `gorm:"size:8;default:pending"`
	IdempotencyKey  string      `gorm:"uniqueIndex;size:64"`
	SettledAt       *time.Time
}
