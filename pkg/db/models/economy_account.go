package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// EconomyAccount is the per-user economy record. Counters only move through
// atomic increment expressions; the row is never overwritten wholesale.
type EconomyAccount struct {
	UserID       uuid.UUID       `gorm:"column:user_id;type:uuid;primaryKey"`
	TotalSavings decimal.Decimal `gorm:"column:total_savings;type:numeric(12,2);not null;default:0"`
	TotalCoins   int64           `gorm:"column:total_coins;not null;default:0"`
	TotalOrders  int64           `gorm:"column:total_orders;not null;default:0"`
	CreatedAt    time.Time       `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt    time.Time       `gorm:"column:updated_at;autoUpdateTime"`
}

func (EconomyAccount) TableName() string {
	return "economy_accounts"
}
