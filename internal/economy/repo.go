package economy

import (
	"context"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/bitewise-app/bitewise-backend/pkg/db/models"
)

// Repository manages the per-user economy record. All mutations are atomic
// column increments; the row is created lazily with zeroed counters and never
// replaced wholesale.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Get(ctx context.Context, userID uuid.UUID) (*models.EconomyAccount, error)
	AddCoins(ctx context.Context, userID uuid.UUID, delta int64) error
	AddSavings(ctx context.Context, userID uuid.UUID, amount decimal.Decimal) error
	IncrementOrders(ctx context.Context, userID uuid.UUID) error
}

type repository struct {
	db *gorm.DB
}

// NewRepository returns an economy repository bound to the provided database.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

// Get returns the user's account, creating a zeroed row on first read.
func (r *repository) Get(ctx context.Context, userID uuid.UUID) (*models.EconomyAccount, error) {
	account := models.EconomyAccount{UserID: userID}
	err := r.db.WithContext(ctx).
		Where(models.EconomyAccount{UserID: userID}).
		FirstOrCreate(&account).Error
	if err != nil {
		return nil, err
	}
	return &account, nil
}

func (r *repository) ensure(ctx context.Context, userID uuid.UUID) error {
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(&models.EconomyAccount{UserID: userID}).Error
}

func (r *repository) AddCoins(ctx context.Context, userID uuid.UUID, delta int64) error {
	if err := r.ensure(ctx, userID); err != nil {
		return err
	}
	return r.db.WithContext(ctx).
		Model(&models.EconomyAccount{}).
		Where("user_id = ?", userID).
		UpdateColumn("total_coins", gorm.Expr("total_coins + ?", delta)).Error
}

func (r *repository) AddSavings(ctx context.Context, userID uuid.UUID, amount decimal.Decimal) error {
	if err := r.ensure(ctx, userID); err != nil {
		return err
	}
	return r.db.WithContext(ctx).
		Model(&models.EconomyAccount{}).
		Where("user_id = ?", userID).
		UpdateColumn("total_savings", gorm.Expr("total_savings + ?", amount)).Error
}

func (r *repository) IncrementOrders(ctx context.Context, userID uuid.UUID) error {
	if err := r.ensure(ctx, userID); err != nil {
		return err
	}
	return r.db.WithContext(ctx).
		Model(&models.EconomyAccount{}).
		Where("user_id = ?", userID).
		UpdateColumn("total_orders", gorm.Expr("total_orders + ?", 1)).Error
}
