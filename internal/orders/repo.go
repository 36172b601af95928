package orders

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/bitewise-app/bitewise-backend/pkg/db/models"
	"github.com/bitewise-app/bitewise-backend/pkg/enums"
)

const (
	defaultListLimit = 20
	maxListLimit     = 50
)

// Repository exposes persistence helpers for order events.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, event *models.OrderEvent) error
	FindByID(ctx context.Context, id uuid.UUID) (*models.OrderEvent, error)
	MarkCompleted(ctx context.Context, id uuid.UUID, savedAmount decimal.Decimal, now time.Time) (bool, error)
	ListByUser(ctx context.Context, userID uuid.UUID, limit int) ([]models.OrderEvent, error)
}

type repository struct {
	db *gorm.DB
}

// NewRepository returns an order event repository bound to the provided database.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) Create(ctx context.Context, event *models.OrderEvent) error {
	return r.db.WithContext(ctx).Create(event).Error
}

func (r *repository) FindByID(ctx context.Context, id uuid.UUID) (*models.OrderEvent, error) {
	var event models.OrderEvent
	err := r.db.WithContext(ctx).First(&event, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &event, nil
}

// MarkCompleted flips the completion marker exactly once. The completed_at
// guard in the WHERE clause makes repeat calls affect zero rows.
func (r *repository) MarkCompleted(ctx context.Context, id uuid.UUID, savedAmount decimal.Decimal, now time.Time) (bool, error) {
	result := r.db.WithContext(ctx).
		Model(&models.OrderEvent{}).
		Where("id = ? AND completed_at IS NULL", id).
		Updates(map[string]any{
			"completed_at": now,
			"outcome":      enums.OrderOutcomeSaved,
			"saved_amount": savedAmount,
			"updated_at":   now,
		})
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

func (r *repository) ListByUser(ctx context.Context, userID uuid.UUID, limit int) ([]models.OrderEvent, error) {
	if limit <= 0 {
		limit = defaultListLimit
	}
	if limit > maxListLimit {
		limit = maxListLimit
	}

	var events []models.OrderEvent
	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC, id DESC").
		Limit(limit).
		Find(&events).Error
	if err != nil {
		return nil, err
	}
	return events, nil
}
