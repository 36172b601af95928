package orders

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/bitewise-app/bitewise-backend/internal/achievements"
	"github.com/bitewise-app/bitewise-backend/internal/economy"
	"github.com/bitewise-app/bitewise-backend/internal/leaderboard"
	"github.com/bitewise-app/bitewise-backend/internal/notifications"
	"github.com/bitewise-app/bitewise-backend/pkg/db/models"
	"github.com/bitewise-app/bitewise-backend/pkg/enums"
	pkgerrors "github.com/bitewise-app/bitewise-backend/pkg/errors"
	"github.com/bitewise-app/bitewise-backend/pkg/logger"
	"github.com/bitewise-app/bitewise-backend/pkg/metrics"
)

// Milestone thresholds checked after each first completion.
var (
	milestoneSavings = decimal.NewFromInt(100)
)

const milestoneOrders = 3

// Achievement titles and point values granted by the completion flow.
const (
	titleFirstSave  = "First Save"
	titleSavings100 = "Savings Champion"
	titleOrders3    = "Regular Saver"

	pointsFirstSave  = 10
	pointsSavings100 = 50
	pointsOrders3    = 25
)

// Service records outbound clicks and drives the one-shot completion
// transition with its post-commit rollups.
type Service interface {
	RecordOutbound(ctx context.Context, userID uuid.UUID, payload OutboundPayload) (*models.OrderEvent, error)
	Complete(ctx context.Context, userID, orderID uuid.UUID, savedAmount decimal.Decimal) (*CompleteResult, error)
	List(ctx context.Context, userID uuid.UUID, limit int) ([]models.OrderEvent, error)
}

// CompleteResult reports the final state after a completion call. Completed
// is false when the event had already been completed earlier.
type CompleteResult struct {
	OrderID     uuid.UUID       `json:"order_id"`
	SavedAmount decimal.Decimal `json:"saved_amount"`
	Completed   bool            `json:"completed"`
}

// ServiceParams wires the order lifecycle dependencies.
type ServiceParams struct {
	DB           *gorm.DB
	Repo         Repository
	Economy      economy.Repository
	Leaderboard  leaderboard.Service
	Achievements achievements.Service
	Notifier     notifications.Service
	Logger       *logger.Logger
	Metrics      *metrics.RewardsMetrics
	Now          func() time.Time
}

type service struct {
	db           *gorm.DB
	repo         Repository
	economy      economy.Repository
	leaderboard  leaderboard.Service
	achievements achievements.Service
	notifier     notifications.Service
	logg         *logger.Logger
	metrics      *metrics.RewardsMetrics
	now          func() time.Time
}

// NewService wires an order lifecycle service.
func NewService(params ServiceParams) (Service, error) {
	if params.DB == nil {
		return nil, fmt.Errorf("orders db handle required")
	}
	if params.Repo == nil {
		return nil, fmt.Errorf("orders repository required")
	}
	if params.Economy == nil {
		return nil, fmt.Errorf("economy repository required")
	}
	now := params.Now
	if now == nil {
		now = time.Now
	}
	return &service{
		db:           params.DB,
		repo:         params.Repo,
		economy:      params.Economy,
		leaderboard:  params.Leaderboard,
		achievements: params.Achievements,
		notifier:     params.Notifier,
		logg:         params.Logger,
		metrics:      params.Metrics,
		now:          now,
	}, nil
}

func (s *service) RecordOutbound(ctx context.Context, userID uuid.UUID, payload OutboundPayload) (*models.OrderEvent, error) {
	if userID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "user id is required")
	}
	normalized, err := payload.Normalize()
	if err != nil {
		return nil, err
	}

	event := &models.OrderEvent{
		ID:            uuid.New(),
		UserID:        userID,
		Platform:      normalized.Platform,
		DishName:      normalized.DishName,
		ComparePrice:  normalized.ComparePrice,
		PlatformPrice: normalized.PlatformPrice,
		SavedAmount:   normalized.SavedAmount,
		Outcome:       normalized.Outcome,
		RedirectedAt:  s.now().UTC(),
	}
	if err := s.repo.Create(ctx, event); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "recording outbound event")
	}
	return event, nil
}

// Complete marks an order event as completed. Ownership is checked before the
// idempotency short-circuit so a wrong owner is always rejected, whatever the
// event state. Rollups run after the transaction commits; their failures are
// logged and never surfaced.
func (s *service) Complete(ctx context.Context, userID, orderID uuid.UUID, savedAmount decimal.Decimal) (*CompleteResult, error) {
	if userID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "user id is required")
	}
	if orderID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order id is required")
	}
	if savedAmount.IsNegative() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "saved amount cannot be negative")
	}

	var (
		final     decimal.Decimal
		completed bool
	)
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		event, err := repo.FindByID(ctx, orderID)
		if err != nil {
			return err
		}
		if event == nil {
			return pkgerrors.New(pkgerrors.CodeNotFound, "order event not found")
		}
		if event.UserID != userID {
			return pkgerrors.New(pkgerrors.CodeForbidden, "order event belongs to another user")
		}
		if event.CompletedAt != nil {
			final = event.SavedAmount
			return nil
		}

		updated, err := repo.MarkCompleted(ctx, orderID, savedAmount, s.now().UTC())
		if err != nil {
			return err
		}
		// Zero rows means another request completed it between the read
		// and the guarded update; treat it like the short-circuit above.
		if !updated {
			current, err := repo.FindByID(ctx, orderID)
			if err != nil {
				return err
			}
			if current != nil {
				final = current.SavedAmount
			}
			return nil
		}

		final = savedAmount
		completed = true
		return nil
	})
	if err != nil {
		if typed := pkgerrors.As(err); typed != nil {
			return nil, typed
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "completing order event")
	}

	if !completed {
		s.metrics.IncDuplicateCompletion()
		return &CompleteResult{OrderID: orderID, SavedAmount: final}, nil
	}

	s.metrics.IncOrderCompletion()
	if err := runEffects(ctx, s.logg, s.metrics, s.completionEffects(userID, orderID, final)); err != nil && s.logg != nil {
		s.logg.Warn(s.logg.WithUserID(ctx, userID.String()), "order completion rollups partially failed")
	}

	return &CompleteResult{OrderID: orderID, SavedAmount: final, Completed: true}, nil
}

func (s *service) completionEffects(userID, orderID uuid.UUID, saved decimal.Decimal) []Effect {
	effects := []Effect{
		{
			Name: "economy_rollup",
			Run: func(ctx context.Context) error {
				if err := s.economy.AddSavings(ctx, userID, saved); err != nil {
					return err
				}
				return s.economy.IncrementOrders(ctx, userID)
			},
		},
	}

	if s.leaderboard != nil && saved.IsPositive() {
		effects = append(effects, Effect{
			Name: "leaderboard_bump",
			Run: func(ctx context.Context) error {
				_, err := s.leaderboard.BumpScore(ctx, userID, saved.InexactFloat64(), "", "")
				return err
			},
		})
	}

	if s.achievements != nil {
		effects = append(effects,
			Effect{
				Name: "first_save",
				Run: func(ctx context.Context) error {
					_, _, err := s.achievements.Ensure(ctx, userID, enums.AchievementFirstSave, titleFirstSave, pointsFirstSave)
					return err
				},
			},
			Effect{
				Name: "milestones",
				Run:  func(ctx context.Context) error { return s.grantMilestones(ctx, userID) },
			},
		)
	}

	if s.notifier != nil {
		effects = append(effects, Effect{
			Name: "notification",
			Run: func(ctx context.Context) error {
				meta, _ := json.Marshal(map[string]string{
					"order_id":     orderID.String(),
					"saved_amount": saved.String(),
				})
				s.notifier.Notify(ctx, notifications.NotifyInput{
					UserID:   userID,
					Kind:     notifications.KindOrderCompleted,
					Title:    "Order completed",
					Body:     fmt.Sprintf("You saved %s on this order", saved.StringFixed(2)),
					Metadata: meta,
				})
				return nil
			},
		})
	}

	return effects
}

// grantMilestones re-reads cumulative totals so grants reflect the rollup
// that just ran, not the pre-completion state.
func (s *service) grantMilestones(ctx context.Context, userID uuid.UUID) error {
	account, err := s.economy.Get(ctx, userID)
	if err != nil {
		return err
	}

	if account.TotalSavings.GreaterThanOrEqual(milestoneSavings) {
		if _, _, err := s.achievements.Ensure(ctx, userID, enums.AchievementSavings100, titleSavings100, pointsSavings100); err != nil {
			return err
		}
	}
	if account.TotalOrders >= milestoneOrders {
		if _, _, err := s.achievements.Ensure(ctx, userID, enums.AchievementOrders3, titleOrders3, pointsOrders3); err != nil {
			return err
		}
	}
	return nil
}

func (s *service) List(ctx context.Context, userID uuid.UUID, limit int) ([]models.OrderEvent, error) {
	if userID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "user id is required")
	}
	events, err := s.repo.ListByUser(ctx, userID, limit)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "listing order events")
	}
	return events, nil
}
