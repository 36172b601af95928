package models

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// CoinEntry is an immutable coin history record. The ID doubles as the
// idempotency key: callers may supply their own request id, otherwise a fresh
// UUID is assigned. Amount is always positive; redemption semantics hang off
// the reason tag, not the sign.
type CoinEntry struct {
	ID        string          `gorm:"column:id;type:text;primaryKey"`
	UserID    uuid.UUID       `gorm:"column:user_id;type:uuid;not null;index:idx_coin_entries_user_created"`
	Amount    int64           `gorm:"column:amount;not null"`
	Reason    string          `gorm:"column:reason;type:text;not null"`
	Metadata  json.RawMessage `gorm:"column:metadata;type:jsonb"`
	CreatedAt time.Time       `gorm:"column:created_at;autoCreateTime;index:idx_coin_entries_user_created"`
}

func (CoinEntry) TableName() string {
	return "coin_entries"
}
