package achievements

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/bitewise-app/bitewise-backend/pkg/db/models"
)

// Repository manages persistence for achievement grants.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Ensure(ctx context.Context, grant *models.Achievement) (bool, error)
	FindByID(ctx context.Context, id string) (*models.Achievement, error)
	ListByUser(ctx context.Context, userID uuid.UUID) ([]models.Achievement, error)
}

type repository struct {
	db *gorm.DB
}

// NewRepository returns an achievements repository bound to the provided database.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

// Ensure inserts the grant if the idempotent key is new. A duplicate call
// touches updated_at only; the original earned_at and points stand. Returns
// true when the grant was newly earned.
func (r *repository) Ensure(ctx context.Context, grant *models.Achievement) (bool, error) {
	res := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "id"}},
			DoNothing: true,
		}).
		Create(grant)
	if res.Error != nil {
		return false, res.Error
	}
	if res.RowsAffected > 0 {
		return true, nil
	}
	err := r.db.WithContext(ctx).
		Model(&models.Achievement{}).
		Where("id = ?", grant.ID).
		UpdateColumn("updated_at", time.Now().UTC()).Error
	return false, err
}

func (r *repository) FindByID(ctx context.Context, id string) (*models.Achievement, error) {
	var grant models.Achievement
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&grant).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &grant, nil
}

func (r *repository) ListByUser(ctx context.Context, userID uuid.UUID) ([]models.Achievement, error) {
	var grants []models.Achievement
	if err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("earned_at ASC").
		Find(&grants).Error; err != nil {
		return nil, err
	}
	return grants, nil
}
