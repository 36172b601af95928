package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/bitewise-app/bitewise-backend/pkg/enums"
)

// Achievement is an idempotent grant: the ID is userID + "__" + code, so a
// duplicate grant collapses onto the same row.
type Achievement struct {
	ID        string                `gorm:"column:id;type:text;primaryKey"`
	UserID    uuid.UUID             `gorm:"column:user_id;type:uuid;not null;index"`
	Code      enums.AchievementCode `gorm:"column:code;type:text;not null"`
	Title     string                `gorm:"column:title;type:text;not null"`
	Points    int                   `gorm:"column:points;not null;default:0"`
	EarnedAt  time.Time             `gorm:"column:earned_at;not null"`
	UpdatedAt time.Time             `gorm:"column:updated_at;autoUpdateTime"`
}

func (Achievement) TableName() string {
	return "achievements"
}

// AchievementID builds the idempotent document key for a grant.
func AchievementID(userID uuid.UUID, code enums.AchievementCode) string {
	return userID.String() + "__" + string(code)
}
