package wallet

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/bitewise-app/bitewise-backend/internal/economy"
	"github.com/bitewise-app/bitewise-backend/pkg/config"
	"github.com/bitewise-app/bitewise-backend/pkg/db"
	"github.com/bitewise-app/bitewise-backend/pkg/db/models"
	"github.com/bitewise-app/bitewise-backend/pkg/enums"
	pkgerrors "github.com/bitewise-app/bitewise-backend/pkg/errors"
	"github.com/bitewise-app/bitewise-backend/pkg/logger"
	"github.com/bitewise-app/bitewise-backend/pkg/metrics"
	"github.com/bitewise-app/bitewise-backend/pkg/pagination"
)

// Service is the coin ledger: it enforces earn/redeem caps and applies
// balance-plus-history mutations atomically.
type Service interface {
	Credit(ctx context.Context, input CreditInput) (*CreditResult, error)
	Summary(ctx context.Context, userID uuid.UUID) (*Summary, error)
	History(ctx context.Context, userID uuid.UUID, cursor string, limit int) (*HistoryPage, error)
}

// ServiceParams wires the coin ledger dependencies.
type ServiceParams struct {
	DB      *gorm.DB
	Repo    Repository
	Economy economy.Repository
	Rewards config.RewardsConfig
	Logger  *logger.Logger
	Metrics *metrics.RewardsMetrics
	Now     func() time.Time
}

type service struct {
	db      *gorm.DB
	repo    Repository
	economy economy.Repository
	rewards config.RewardsConfig
	logg    *logger.Logger
	metrics *metrics.RewardsMetrics
	now     func() time.Time
}

// NewService wires a coin ledger service.
func NewService(params ServiceParams) (Service, error) {
	if params.DB == nil {
		return nil, fmt.Errorf("wallet db handle required")
	}
	if params.Repo == nil {
		return nil, fmt.Errorf("wallet repository required")
	}
	if params.Economy == nil {
		return nil, fmt.Errorf("economy repository required")
	}
	now := params.Now
	if now == nil {
		now = time.Now
	}
	return &service{
		db:      params.DB,
		repo:    params.Repo,
		economy: params.Economy,
		rewards: params.Rewards,
		logg:    params.Logger,
		metrics: params.Metrics,
		now:     now,
	}, nil
}

func (s *service) Credit(ctx context.Context, input CreditInput) (*CreditResult, error) {
	if input.UserID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "user id is required")
	}
	if input.Amount <= 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "amount must be a positive integer")
	}
	if input.Reason == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "reason is required")
	}

	// Idempotency short-circuit: a reused request id returns the current
	// balance without a second credit.
	if input.RequestID != "" {
		existing, err := s.repo.FindByID(ctx, input.RequestID)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "looking up request id")
		}
		if existing != nil {
			account, err := s.economy.Get(ctx, input.UserID)
			if err != nil {
				return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "reading balance")
			}
			return &CreditResult{NewTotal: account.TotalCoins, TransactionID: existing.ID, Duplicate: true}, nil
		}
	}

	isRedeem := enums.IsRedeemReason(input.Reason)
	agg := s.windowAggregates(ctx, input.UserID)

	// Cap checks run against a point-in-time read outside the credit
	// transaction. Two racing credits can jointly overshoot a cap by at most
	// one request's amount; callers needing a hard ceiling must serialize
	// per user externally.
	if isRedeem {
		if err := s.checkRedeemCaps(ctx, input, agg); err != nil {
			return nil, err
		}
	} else {
		if err := s.checkEarnCaps(input.Amount, agg); err != nil {
			return nil, err
		}
	}

	entryID := input.RequestID
	if entryID == "" {
		entryID = uuid.NewString()
	}
	delta := input.Amount
	if isRedeem {
		delta = -input.Amount
	}

	entry := &models.CoinEntry{
		ID:       entryID,
		UserID:   input.UserID,
		Amount:   input.Amount,
		Reason:   input.Reason,
		Metadata: input.Metadata,
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := s.repo.WithTx(tx).Insert(ctx, entry); err != nil {
			return err
		}
		return s.economy.WithTx(tx).AddCoins(ctx, input.UserID, delta)
	})
	if err != nil {
		if db.IsUniqueViolation(err, "") {
			// Concurrent retry with the same request id won the race.
			account, accErr := s.economy.Get(ctx, input.UserID)
			if accErr != nil {
				return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, accErr, "reading balance")
			}
			return &CreditResult{NewTotal: account.TotalCoins, TransactionID: entryID, Duplicate: true}, nil
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "applying credit")
	}

	if s.metrics != nil {
		s.metrics.IncCreditIssued(input.Reason)
	}

	account, err := s.economy.Get(ctx, input.UserID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "reading balance")
	}
	return &CreditResult{NewTotal: account.TotalCoins, TransactionID: entryID}, nil
}

func (s *service) checkEarnCaps(amount int64, agg aggregates) error {
	dailyRemaining := s.rewards.DailyCoinCap - agg.dailyEarned
	if dailyRemaining < 0 {
		dailyRemaining = 0
	}
	if amount > dailyRemaining {
		if s.metrics != nil {
			s.metrics.IncCapRejection("daily")
		}
		return pkgerrors.New(pkgerrors.CodeCapExceeded,
			fmt.Sprintf("daily coin cap reached: %d remaining today", dailyRemaining)).
			WithDetails(map[string]any{"window": "daily", "remaining": dailyRemaining})
	}

	monthlyRemaining := s.rewards.MonthlyCoinCap - agg.monthlyEarned
	if monthlyRemaining < 0 {
		monthlyRemaining = 0
	}
	if amount > monthlyRemaining {
		if s.metrics != nil {
			s.metrics.IncCapRejection("monthly")
		}
		return pkgerrors.New(pkgerrors.CodeCapExceeded,
			fmt.Sprintf("monthly coin cap reached: %d remaining this month", monthlyRemaining)).
			WithDetails(map[string]any{"window": "monthly", "remaining": monthlyRemaining})
	}
	return nil
}

func (s *service) checkRedeemCaps(ctx context.Context, input CreditInput, agg aggregates) error {
	redeemableCap := agg.monthlyEarned * s.rewards.RedeemablePercent / 100
	redeemableRemaining := redeemableCap - agg.monthlyRedeemed
	if redeemableRemaining < 0 {
		redeemableRemaining = 0
	}
	if input.Amount > redeemableRemaining {
		if s.metrics != nil {
			s.metrics.IncCapRejection("redeemable")
		}
		return pkgerrors.New(pkgerrors.CodeCapExceeded,
			fmt.Sprintf("redeemable cap reached: %d redeemable this month", redeemableRemaining)).
			WithDetails(map[string]any{"window": "redeemable", "remaining": redeemableRemaining})
	}

	account, err := s.economy.Get(ctx, input.UserID)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "reading balance")
	}
	if input.Amount > account.TotalCoins {
		return pkgerrors.New(pkgerrors.CodeValidation,
			fmt.Sprintf("insufficient balance: %d coins available", account.TotalCoins))
	}
	return nil
}

func (s *service) Summary(ctx context.Context, userID uuid.UUID) (*Summary, error) {
	if userID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "user id is required")
	}

	account, err := s.economy.Get(ctx, userID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "reading balance")
	}

	agg := s.windowAggregates(ctx, userID)

	summary := &Summary{
		TotalCoins:    account.TotalCoins,
		DailyEarned:   agg.dailyEarned,
		MonthlyEarned: agg.monthlyEarned,
	}
	summary.DailyRemaining = clampNonNegative(s.rewards.DailyCoinCap - agg.dailyEarned)
	summary.MonthlyRemaining = clampNonNegative(s.rewards.MonthlyCoinCap - agg.monthlyEarned)
	summary.RedeemableCap = agg.monthlyEarned * s.rewards.RedeemablePercent / 100
	summary.RedeemableRemaining = clampNonNegative(summary.RedeemableCap - agg.monthlyRedeemed)
	return summary, nil
}

func (s *service) History(ctx context.Context, userID uuid.UUID, cursor string, limit int) (*HistoryPage, error) {
	if userID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "user id is required")
	}

	parsed, err := pagination.ParseCursor(cursor)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid cursor")
	}

	normalized := pagination.NormalizeLimit(limit)
	entries, err := s.repo.ListPage(ctx, userID, parsed, pagination.LimitWithBuffer(limit))
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "listing history")
	}

	page := &HistoryPage{Entries: entries}
	if len(entries) > normalized {
		page.Entries = entries[:normalized]
		last := page.Entries[normalized-1]
		page.NextCursor = pagination.EncodeCursor(pagination.Cursor{CreatedAt: last.CreatedAt, ID: last.ID})
	}
	return page, nil
}

// windowAggregates scans this month's entries for the user and folds them
// into the daily/monthly sums. An aggregate failure degrades to zeroes so the
// balance read path stays available without the history index.
func (s *service) windowAggregates(ctx context.Context, userID uuid.UUID) aggregates {
	now := s.now().UTC()
	monthStart := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC)
	dayStart := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)

	entries, err := s.repo.ListSince(ctx, userID, monthStart)
	if err != nil {
		if s.logg != nil {
			s.logg.Warn(s.logg.WithField(ctx, "user_id", userID.String()), "coin aggregates unavailable, degrading to zero")
		}
		return aggregates{}
	}

	var agg aggregates
	for _, entry := range entries {
		if enums.IsRedeemReason(entry.Reason) {
			agg.monthlyRedeemed += entry.Amount
			continue
		}
		agg.monthlyEarned += entry.Amount
		if !entry.CreatedAt.Before(dayStart) {
			agg.dailyEarned += entry.Amount
		}
	}
	return agg
}

func clampNonNegative(v int64) int64 {
	if v < 0 {
		return 0
	}
	return v
}
