package models

import (
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type User struct {
	gorm.Model
	ID            uint            `gorm:"primaryKey"`
	ExternalID    string          `gorm:"uniqueIndex;size:64"`
	Balance       decimal.Decimal `gorm:"type:decimal(12,2)"`
	TotalBetsWon  int
	TotalBetsLost int
	TotalStaked   decimal.Decimal `gorm:"type:decimal(14,2)"`
	TotalWon      decimal.Decimal `gorm:"type:decimal(14,2)"`
}
