package orders

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/bitewise-app/bitewise-backend/internal/achievements"
	"github.com/bitewise-app/bitewise-backend/internal/economy"
	"github.com/bitewise-app/bitewise-backend/internal/leaderboard"
	"github.com/bitewise-app/bitewise-backend/pkg/enums"
	pkgerrors "github.com/bitewise-app/bitewise-backend/pkg/errors"
)

func setupOrdersTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{})
	require.NoError(t, err)

	statements := []string{`
CREATE TABLE IF NOT EXISTS order_events (
  id TEXT PRIMARY KEY,
  user_id TEXT NOT NULL,
  platform TEXT NOT NULL,
  dish_name TEXT,
  compare_price NUMERIC NOT NULL DEFAULT 0,
  platform_price NUMERIC NOT NULL DEFAULT 0,
  saved_amount NUMERIC NOT NULL DEFAULT 0,
  outcome TEXT NOT NULL,
  redirected_at DATETIME NOT NULL,
  completed_at DATETIME,
  created_at DATETIME,
  updated_at DATETIME
);`, `
CREATE TABLE IF NOT EXISTS economy_accounts (
  user_id TEXT PRIMARY KEY,
  total_savings NUMERIC NOT NULL DEFAULT 0,
  total_coins INTEGER NOT NULL DEFAULT 0,
  total_orders INTEGER NOT NULL DEFAULT 0,
  created_at DATETIME,
  updated_at DATETIME
);`, `
CREATE TABLE IF NOT EXISTS achievements (
  id TEXT PRIMARY KEY,
  user_id TEXT NOT NULL,
  code TEXT NOT NULL,
  title TEXT NOT NULL,
  points INTEGER NOT NULL DEFAULT 0,
  earned_at DATETIME NOT NULL,
  updated_at DATETIME
);`}
	for _, stmt := range statements {
		require.NoError(t, db.Exec(stmt).Error)
	}
	return db
}

type leaderboardRecorder struct {
	bumps map[string]float64
}

func (l *leaderboardRecorder) BumpScore(_ context.Context, userID uuid.UUID, delta float64, _, _ string) (float64, error) {
	if l.bumps == nil {
		l.bumps = map[string]float64{}
	}
	l.bumps[userID.String()] += delta
	return l.bumps[userID.String()], nil
}

func (l *leaderboardRecorder) Top(context.Context, string, string, int64) ([]leaderboard.Entry, error) {
	return nil, nil
}

func (l *leaderboardRecorder) Standing(context.Context, string, string, uuid.UUID) (*leaderboard.Standing, error) {
	return nil, nil
}

type ordersHarness struct {
	svc     Service
	economy economy.Repository
	achiev  achievements.Service
	board   *leaderboardRecorder
}

func newOrdersHarness(t *testing.T) *ordersHarness {
	t.Helper()
	db := setupOrdersTestDB(t)

	economyRepo := economy.NewRepository(db)
	achievSvc, err := achievements.NewService(achievements.NewRepository(db))
	require.NoError(t, err)
	board := &leaderboardRecorder{}

	svc, err := NewService(ServiceParams{
		DB:           db,
		Repo:         NewRepository(db),
		Economy:      economyRepo,
		Leaderboard:  board,
		Achievements: achievSvc,
	})
	require.NoError(t, err)

	return &ordersHarness{svc: svc, economy: economyRepo, achiev: achievSvc, board: board}
}

func recordEvent(t *testing.T, h *ordersHarness, userID uuid.UUID) uuid.UUID {
	t.Helper()
	event, err := h.svc.RecordOutbound(context.Background(), userID, OutboundPayload{
		Platform: "dashly",
		DishName: "Burrito",
		Total:    dec("12.00"),
	})
	require.NoError(t, err)
	require.Equal(t, enums.OrderOutcomeViewed, event.Outcome)
	require.Nil(t, event.CompletedAt)
	return event.ID
}

func TestComplete_FirstCompletionRollsUp(t *testing.T) {
	h := newOrdersHarness(t)
	userID := uuid.New()
	orderID := recordEvent(t, h, userID)

	result, err := h.svc.Complete(context.Background(), userID, orderID, decimal.RequireFromString("70"))
	require.NoError(t, err)
	assert.True(t, result.Completed)
	assert.True(t, result.SavedAmount.Equal(decimal.RequireFromString("70")))

	account, err := h.economy.Get(context.Background(), userID)
	require.NoError(t, err)
	assert.True(t, account.TotalSavings.Equal(decimal.RequireFromString("70")))
	assert.Equal(t, int64(1), account.TotalOrders)
	assert.Equal(t, float64(70), h.board.bumps[userID.String()])

	earned, err := h.achiev.List(context.Background(), userID)
	require.NoError(t, err)
	require.Len(t, earned, 1)
	assert.Equal(t, enums.AchievementFirstSave, earned[0].Code)
}

func TestComplete_SecondCallIsNoOp(t *testing.T) {
	h := newOrdersHarness(t)
	userID := uuid.New()
	orderID := recordEvent(t, h, userID)

	_, err := h.svc.Complete(context.Background(), userID, orderID, decimal.RequireFromString("70"))
	require.NoError(t, err)

	result, err := h.svc.Complete(context.Background(), userID, orderID, decimal.RequireFromString("999"))
	require.NoError(t, err)
	assert.False(t, result.Completed)
	assert.True(t, result.SavedAmount.Equal(decimal.RequireFromString("70")), "first saved amount sticks")

	account, err := h.economy.Get(context.Background(), userID)
	require.NoError(t, err)
	assert.True(t, account.TotalSavings.Equal(decimal.RequireFromString("70")))
	assert.Equal(t, int64(1), account.TotalOrders)
	assert.Equal(t, float64(70), h.board.bumps[userID.String()])
}

func TestComplete_OwnershipEnforced(t *testing.T) {
	h := newOrdersHarness(t)
	owner := uuid.New()
	other := uuid.New()
	orderID := recordEvent(t, h, owner)

	_, err := h.svc.Complete(context.Background(), other, orderID, decimal.RequireFromString("5"))
	require.Error(t, err)
	var appErr *pkgerrors.Error
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, pkgerrors.CodeForbidden, appErr.Code())

	// Ownership still holds after the event is completed.
	_, err = h.svc.Complete(context.Background(), owner, orderID, decimal.RequireFromString("5"))
	require.NoError(t, err)
	_, err = h.svc.Complete(context.Background(), other, orderID, decimal.RequireFromString("5"))
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, pkgerrors.CodeForbidden, appErr.Code())
}

func TestComplete_UnknownOrder(t *testing.T) {
	h := newOrdersHarness(t)

	_, err := h.svc.Complete(context.Background(), uuid.New(), uuid.New(), decimal.Zero)
	require.Error(t, err)
	var appErr *pkgerrors.Error
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, pkgerrors.CodeNotFound, appErr.Code())
}

func TestComplete_MilestoneAchievements(t *testing.T) {
	h := newOrdersHarness(t)
	userID := uuid.New()

	for i := 0; i < 3; i++ {
		orderID := recordEvent(t, h, userID)
		_, err := h.svc.Complete(context.Background(), userID, orderID, decimal.RequireFromString("40"))
		require.NoError(t, err)
	}

	earned, err := h.achiev.List(context.Background(), userID)
	require.NoError(t, err)

	codes := map[enums.AchievementCode]bool{}
	for _, a := range earned {
		codes[a.Code] = true
	}
	assert.True(t, codes[enums.AchievementFirstSave])
	assert.True(t, codes[enums.AchievementSavings100], "120 cumulative savings crosses 100")
	assert.True(t, codes[enums.AchievementOrders3])
	assert.Len(t, earned, 3)
}

func TestList_NewestFirstWithCap(t *testing.T) {
	h := newOrdersHarness(t)
	userID := uuid.New()

	for i := 0; i < 4; i++ {
		recordEvent(t, h, userID)
	}

	events, err := h.svc.List(context.Background(), userID, 0)
	require.NoError(t, err)
	assert.Len(t, events, 4)

	events, err = h.svc.List(context.Background(), userID, 2)
	require.NoError(t, err)
	assert.Len(t, events, 2)

	_, err = h.svc.List(context.Background(), uuid.Nil, 0)
	require.Error(t, err)
}
