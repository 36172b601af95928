package models

import (
	"time"

	"github.com/google/uuid"
)

// ReferralCode is the single shareable code owned by a referring user.
type ReferralCode struct {
	Code        string    `gorm:"column:code;type:text;primaryKey"`
	ReferrerUID uuid.UUID `gorm:"column:referrer_uid;type:uuid;not null;uniqueIndex:idx_referral_codes_referrer"`
	Uses        int       `gorm:"column:uses;not null;default:0"`
	UsesLimit   int       `gorm:"column:uses_limit;not null;default:3"`
	CreatedAt   time.Time `gorm:"column:created_at;autoCreateTime"`
}

func (ReferralCode) TableName() string {
	return "referral_codes"
}

// ReferralRedemption records a user's one-and-only redemption. The redeeming
// user's id is the primary key, which is what enforces at-most-one redemption
// per user globally.
type ReferralRedemption struct {
	UserID      uuid.UUID `gorm:"column:user_id;type:uuid;primaryKey"`
	Code        string    `gorm:"column:code;type:text;not null;index"`
	ReferrerUID uuid.UUID `gorm:"column:referrer_uid;type:uuid;not null"`
	CreatedAt   time.Time `gorm:"column:created_at;autoCreateTime"`
}

func (ReferralRedemption) TableName() string {
	return "referral_redemptions"
}
