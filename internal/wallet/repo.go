package wallet

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/bitewise-app/bitewise-backend/pkg/db/models"
	"github.com/bitewise-app/bitewise-backend/pkg/pagination"
)

// Repository manages persistence for immutable coin history entries.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Insert(ctx context.Context, entry *models.CoinEntry) error
	FindByID(ctx context.Context, id string) (*models.CoinEntry, error)
	ListSince(ctx context.Context, userID uuid.UUID, since time.Time) ([]models.CoinEntry, error)
	ListPage(ctx context.Context, userID uuid.UUID, cursor *pagination.Cursor, limit int) ([]models.CoinEntry, error)
}

type repository struct {
	db *gorm.DB
}

// NewRepository returns a coin history repository bound to the provided database.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) Insert(ctx context.Context, entry *models.CoinEntry) error {
	return r.db.WithContext(ctx).Create(entry).Error
}

func (r *repository) FindByID(ctx context.Context, id string) (*models.CoinEntry, error) {
	var entry models.CoinEntry
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&entry).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &entry, nil
}

// ListSince returns the user's entries created at or after the window start,
// oldest first. This is the rolling-aggregate scan: equality on user plus a
// range filter on created_at.
func (r *repository) ListSince(ctx context.Context, userID uuid.UUID, since time.Time) ([]models.CoinEntry, error) {
	var entries []models.CoinEntry
	err := r.db.WithContext(ctx).
		Where("user_id = ? AND created_at >= ?", userID, since).
		Order("created_at ASC").
		Find(&entries).Error
	if err != nil {
		return nil, err
	}
	return entries, nil
}

func (r *repository) ListPage(ctx context.Context, userID uuid.UUID, cursor *pagination.Cursor, limit int) ([]models.CoinEntry, error) {
	q := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC, id DESC").
		Limit(limit)
	if cursor != nil {
		q = q.Where("(created_at < ?) OR (created_at = ? AND id < ?)", cursor.CreatedAt, cursor.CreatedAt, cursor.ID)
	}
	var entries []models.CoinEntry
	if err := q.Find(&entries).Error; err != nil {
		return nil, err
	}
	return entries, nil
}
