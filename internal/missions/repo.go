package missions

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/bitewise-app/bitewise-backend/pkg/db/models"
)

// Repository exposes persistence helpers for mission snapshots.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Get(ctx context.Context, userID uuid.UUID) (*models.MissionSnapshot, error)
	Create(ctx context.Context, snapshot *models.MissionSnapshot) error
	UpdateIfNewer(ctx context.Context, snapshot *models.MissionSnapshot) (bool, error)
}

type repository struct {
	db *gorm.DB
}

// NewRepository returns a mission snapshot repository bound to the provided database.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) Get(ctx context.Context, userID uuid.UUID) (*models.MissionSnapshot, error) {
	var row models.MissionSnapshot
	err := r.db.WithContext(ctx).First(&row, "user_id = ?", userID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &row, nil
}

func (r *repository) Create(ctx context.Context, snapshot *models.MissionSnapshot) error {
	return r.db.WithContext(ctx).Create(snapshot).Error
}

// UpdateIfNewer writes the snapshot only while its version is strictly
// greater than the stored one. The version guard in the WHERE clause settles
// two racing pushes without a row lock.
func (r *repository) UpdateIfNewer(ctx context.Context, snapshot *models.MissionSnapshot) (bool, error) {
	result := r.db.WithContext(ctx).
		Model(&models.MissionSnapshot{}).
		Where("user_id = ? AND version < ?", snapshot.UserID, snapshot.Version).
		Updates(map[string]any{
			"day_key":         snapshot.DayKey,
			"total_completed": snapshot.TotalCompleted,
			"streak_current":  snapshot.StreakCurrent,
			"streak_best":     snapshot.StreakBest,
			"streak_last_day": snapshot.StreakLastDay,
			"tasks":           []byte(snapshot.Tasks),
			"version":         snapshot.Version,
		})
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}
