package notifications

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"

	"github.com/bitewise-app/bitewise-backend/pkg/db/models"
	pkgerrors "github.com/bitewise-app/bitewise-backend/pkg/errors"
	"github.com/bitewise-app/bitewise-backend/pkg/logger"
	"github.com/bitewise-app/bitewise-backend/pkg/pagination"
)

// Notification kinds produced by reward flows.
const (
	KindCoinsCredited  = "coins_credited"
	KindAchievement    = "achievement_earned"
	KindReferralRedeem = "referral_redeemed"
	KindOrderCompleted = "order_completed"
)

// Service defines notification create/list/read operations.
type Service interface {
	Notify(ctx context.Context, input NotifyInput)
	List(ctx context.Context, params ListParams) (*ListResult, error)
	MarkRead(ctx context.Context, userID, notificationID uuid.UUID) error
	MarkAllRead(ctx context.Context, userID uuid.UUID) (int64, error)
}

type service struct {
	repo Repository
	log  *logger.Logger
}

// NotifyInput describes a message to persist for a user.
type NotifyInput struct {
	UserID   uuid.UUID
	Kind     string
	Title    string
	Body     string
	Metadata json.RawMessage
}

// ListParams configures pagination for notifications.
type ListParams struct {
	UserID     uuid.UUID
	Limit      int
	Cursor     string
	UnreadOnly bool
}

// ListResult wraps returned notifications and the cursor for the next page.
type ListResult struct {
	Items  []models.Notification `json:"items"`
	Cursor string                `json:"cursor"`
}

// NewService wires notifications dependencies.
func NewService(repo Repository, log *logger.Logger) (Service, error) {
	if repo == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "notifications repository required")
	}
	if log == nil {
		log = logger.New(logger.Options{})
	}
	return &service{repo: repo, log: log}, nil
}

// Notify persists a notification row. Failures are logged and swallowed so
// callers on the post-commit path are never disturbed.
func (s *service) Notify(ctx context.Context, input NotifyInput) {
	if input.UserID == uuid.Nil || input.Kind == "" || input.Title == "" {
		return
	}
	notification := &models.Notification{
		ID:       uuid.New(),
		UserID:   input.UserID,
		Kind:     input.Kind,
		Title:    input.Title,
		Body:     input.Body,
		Metadata: input.Metadata,
	}
	if err := s.repo.Create(ctx, notification); err != nil {
		ctx = s.log.WithFields(ctx, map[string]any{
			"user_id": input.UserID.String(),
			"kind":    input.Kind,
		})
		s.log.Error(ctx, "persisting notification", err)
	}
}

func (s *service) List(ctx context.Context, params ListParams) (*ListResult, error) {
	if params.UserID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "user id is required")
	}

	query := listNotificationsParams{
		UserID:     params.UserID,
		Limit:      params.Limit,
		UnreadOnly: params.UnreadOnly,
	}
	if params.Cursor != "" {
		cursor, err := pagination.ParseCursor(params.Cursor)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid cursor")
		}
		query.Cursor = cursor
	}

	rows, next, err := s.repo.List(ctx, query)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list notifications")
	}

	cursor := ""
	if next != nil {
		cursor = pagination.EncodeCursor(*next)
	}
	return &ListResult{Items: rows, Cursor: cursor}, nil
}

func (s *service) MarkRead(ctx context.Context, userID, notificationID uuid.UUID) error {
	if userID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "user id is required")
	}
	if notificationID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "notification id is required")
	}

	result, err := s.repo.MarkRead(ctx, userID, notificationID, time.Now().UTC())
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "mark notification read")
	}
	if !result.Found {
		return pkgerrors.New(pkgerrors.CodeNotFound, "notification not found")
	}
	return nil
}

func (s *service) MarkAllRead(ctx context.Context, userID uuid.UUID) (int64, error) {
	if userID == uuid.Nil {
		return 0, pkgerrors.New(pkgerrors.CodeValidation, "user id is required")
	}

	count, err := s.repo.MarkAllRead(ctx, userID, time.Now().UTC())
	if err != nil {
		return 0, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "mark notifications read")
	}
	return count, nil
}
