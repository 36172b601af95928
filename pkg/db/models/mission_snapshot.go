package models

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// MissionSnapshot is the server copy of a user's mission/streak state. Version
// is the optimistic-merge discriminator: a write only lands when its version is
// strictly greater than the stored one.
type MissionSnapshot struct {
	UserID         uuid.UUID       `gorm:"column:user_id;type:uuid;primaryKey"`
	DayKey         string          `gorm:"column:day_key;type:text;not null"`
	TotalCompleted int             `gorm:"column:total_completed;not null;default:0"`
	StreakCurrent  int             `gorm:"column:streak_current;not null;default:0"`
	StreakBest     int             `gorm:"column:streak_best;not null;default:0"`
	StreakLastDay  string          `gorm:"column:streak_last_day;type:text"`
	Tasks          json.RawMessage `gorm:"column:tasks;type:jsonb"`
	Version        int64           `gorm:"column:version;not null;default:0"`
	CreatedAt      time.Time       `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt      time.Time       `gorm:"column:updated_at;autoUpdateTime"`
}

func (MissionSnapshot) TableName() string {
	return "mission_snapshots"
}
