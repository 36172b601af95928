package referrals

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/bitewise-app/bitewise-backend/pkg/db/models"
)

// Repository exposes persistence helpers for referral codes and redemptions.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	CreateCode(ctx context.Context, code *models.ReferralCode) error
	FindCode(ctx context.Context, code string) (*models.ReferralCode, error)
	FindCodeByReferrer(ctx context.Context, referrerUID uuid.UUID) (*models.ReferralCode, error)
	IncrementUses(ctx context.Context, code string) (bool, error)
	CreateRedemption(ctx context.Context, redemption *models.ReferralRedemption) error
	FindRedemption(ctx context.Context, userID uuid.UUID) (*models.ReferralRedemption, error)
	CountRedemptionsByReferrer(ctx context.Context, referrerUID uuid.UUID) (int64, error)
}

type repository struct {
	db *gorm.DB
}

// NewRepository returns a referrals repository bound to the provided database.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) CreateCode(ctx context.Context, code *models.ReferralCode) error {
	return r.db.WithContext(ctx).Create(code).Error
}

func (r *repository) FindCode(ctx context.Context, code string) (*models.ReferralCode, error) {
	var row models.ReferralCode
	err := r.db.WithContext(ctx).First(&row, "code = ?", code).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &row, nil
}

func (r *repository) FindCodeByReferrer(ctx context.Context, referrerUID uuid.UUID) (*models.ReferralCode, error) {
	var row models.ReferralCode
	err := r.db.WithContext(ctx).First(&row, "referrer_uid = ?", referrerUID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &row, nil
}

// IncrementUses bumps the use counter only while capacity remains. The guard
// in the WHERE clause is what makes concurrent redemptions of the last slot
// settle to exactly one winner.
func (r *repository) IncrementUses(ctx context.Context, code string) (bool, error) {
	result := r.db.WithContext(ctx).
		Model(&models.ReferralCode{}).
		Where("code = ? AND uses < uses_limit", code).
		UpdateColumn("uses", gorm.Expr("uses + 1"))
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

func (r *repository) CreateRedemption(ctx context.Context, redemption *models.ReferralRedemption) error {
	return r.db.WithContext(ctx).Create(redemption).Error
}

func (r *repository) FindRedemption(ctx context.Context, userID uuid.UUID) (*models.ReferralRedemption, error) {
	var row models.ReferralRedemption
	err := r.db.WithContext(ctx).First(&row, "user_id = ?", userID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &row, nil
}

func (r *repository) CountRedemptionsByReferrer(ctx context.Context, referrerUID uuid.UUID) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.ReferralRedemption{}).
		Where("referrer_uid = ?", referrerUID).
		Count(&count).Error
	return count, err
}
