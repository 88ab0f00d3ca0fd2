package models

import (
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

const (
	LedgerReasonPlace  = "place"
	LedgerReasonPayout = "payout"
	LedgerReasonRefund = "refund"
)

// LedgerEntry is the durable record of every balance movement. Entries are
// written in the same transaction as the wager state change they belong to.
type LedgerEntry struct {
	gorm.Model
	ID      uint            `gorm:"primaryKey"`
	UserID  uint            `gorm:"index"`
	WagerID uint            `gorm:"index"`
	Amount  decimal.Decimal `gorm:"type:decimal(12,2)"` // negative for debits
	Reason  string          `gorm:"size:16"`
}
