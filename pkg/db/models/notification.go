package models

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// Notification is a best-effort user-facing message produced by post-commit
// effects. Delivery is out of scope; rows exist for the client to poll.
type Notification struct {
	ID        uuid.UUID       `gorm:"column:id;type:uuid;primaryKey"`
	UserID    uuid.UUID       `gorm:"column:user_id;type:uuid;not null;index"`
	Kind      string          `gorm:"column:kind;type:text;not null"`
	Title     string          `gorm:"column:title;type:text;not null"`
	Body      string          `gorm:"column:body;type:text"`
	Metadata  json.RawMessage `gorm:"column:metadata;type:jsonb"`
	ReadAt    *time.Time      `gorm:"column:read_at"`
	CreatedAt time.Time       `gorm:"column:created_at;autoCreateTime"`
}

func (Notification) TableName() string {
	return "notifications"
}
