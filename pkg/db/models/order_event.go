package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/bitewise-app/bitewise-backend/pkg/enums"
)

// OrderEvent records one outbound click to a delivery platform and its
// eventual completion. CompletedAt is the completion marker: nil until the
// user confirms the order, set exactly once afterwards.
type OrderEvent struct {
	ID            uuid.UUID          `gorm:"column:id;type:uuid;primaryKey"`
	UserID        uuid.UUID          `gorm:"column:user_id;type:uuid;not null;index:idx_order_events_user_created"`
	Platform      string             `gorm:"column:platform;type:text;not null"`
	DishName      string             `gorm:"column:dish_name;type:text"`
	ComparePrice  decimal.Decimal    `gorm:"column:compare_price;type:numeric(12,2);not null;default:0"`
	PlatformPrice decimal.Decimal    `gorm:"column:platform_price;type:numeric(12,2);not null;default:0"`
	SavedAmount   decimal.Decimal    `gorm:"column:saved_amount;type:numeric(12,2);not null;default:0"`
	Outcome       enums.OrderOutcome `gorm:"column:outcome;type:text;not null"`
	RedirectedAt  time.Time          `gorm:"column:redirected_at;not null"`
	CompletedAt   *time.Time         `gorm:"column:completed_at"`
	CreatedAt     time.Time          `gorm:"column:created_at;autoCreateTime;index:idx_order_events_user_created"`
	UpdatedAt     time.Time          `gorm:"column:updated_at;autoUpdateTime"`
}

func (OrderEvent) TableName() string {
	return "order_events"
}
