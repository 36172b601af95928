package wallet

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/bitewise-app/bitewise-backend/internal/economy"
	"github.com/bitewise-app/bitewise-backend/pkg/config"
	"github.com/bitewise-app/bitewise-backend/pkg/enums"
	pkgerrors "github.com/bitewise-app/bitewise-backend/pkg/errors"
)

func setupWalletTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{})
	require.NoError(t, err)

	accounts := `
CREATE TABLE IF NOT EXISTS economy_accounts (
  user_id TEXT PRIMARY KEY,
  total_savings NUMERIC NOT NULL DEFAULT 0,
  total_coins INTEGER NOT NULL DEFAULT 0,
  total_orders INTEGER NOT NULL DEFAULT 0,
  created_at DATETIME,
  updated_at DATETIME
);`
	entries := `
CREATE TABLE IF NOT EXISTS coin_entries (
  id TEXT PRIMARY KEY,
  user_id TEXT NOT NULL,
  amount INTEGER NOT NULL,
  reason TEXT NOT NULL,
  metadata TEXT,
  created_at DATETIME
);`
	require.NoError(t, db.Exec(accounts).Error)
	require.NoError(t, db.Exec(entries).Error)
	return db
}

func testRewardsConfig() config.RewardsConfig {
	return config.RewardsConfig{
		DailyCoinCap:      30,
		MonthlyCoinCap:    500,
		RedeemablePercent: 80,
	}
}

func newTestService(t *testing.T, db *gorm.DB) Service {
	t.Helper()

	svc, err := NewService(ServiceParams{
		DB:      db,
		Repo:    NewRepository(db),
		Economy: economy.NewRepository(db),
		Rewards: testRewardsConfig(),
	})
	require.NoError(t, err)
	return svc
}

func TestCredit_AppendsEntryAndIncrementsBalance(t *testing.T) {
	db := setupWalletTestDB(t)
	svc := newTestService(t, db)
	userID := uuid.New()

	res, err := svc.Credit(context.Background(), CreditInput{
		UserID: userID,
		Amount: 10,
		Reason: enums.CoinReasonOrderComplete,
	})
	require.NoError(t, err)
	assert.Equal(t, int64(10), res.NewTotal)
	assert.NotEmpty(t, res.TransactionID)

	summary, err := svc.Summary(context.Background(), userID)
	require.NoError(t, err)
	assert.Equal(t, int64(10), summary.TotalCoins)
	assert.Equal(t, int64(10), summary.DailyEarned)
	assert.Equal(t, int64(20), summary.DailyRemaining)
}

func TestCredit_DailyCapEnforced(t *testing.T) {
	db := setupWalletTestDB(t)
	svc := newTestService(t, db)
	userID := uuid.New()

	// Bring the day's earned total to 25.
	for _, amount := range []int64{10, 10, 5} {
		_, err := svc.Credit(context.Background(), CreditInput{
			UserID: userID,
			Amount: amount,
			Reason: enums.CoinReasonMissionReward,
		})
		require.NoError(t, err)
	}

	_, err := svc.Credit(context.Background(), CreditInput{
		UserID: userID,
		Amount: 10,
		Reason: enums.CoinReasonMissionReward,
	})
	require.Error(t, err)
	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	assert.Equal(t, pkgerrors.CodeCapExceeded, typed.Code())
	assert.Contains(t, typed.Message(), "5 remaining")

	// A credit that exactly fills the cap still succeeds.
	res, err := svc.Credit(context.Background(), CreditInput{
		UserID: userID,
		Amount: 5,
		Reason: enums.CoinReasonMissionReward,
	})
	require.NoError(t, err)
	assert.Equal(t, int64(30), res.NewTotal)

	summary, err := svc.Summary(context.Background(), userID)
	require.NoError(t, err)
	assert.Equal(t, int64(0), summary.DailyRemaining)
}

func TestCredit_RejectsInvalidInput(t *testing.T) {
	svc := newTestService(t, setupWalletTestDB(t))

	_, err := svc.Credit(context.Background(), CreditInput{UserID: uuid.New(), Amount: 0, Reason: "x"})
	require.Error(t, err)
	assert.Equal(t, pkgerrors.CodeValidation, pkgerrors.As(err).Code())

	_, err = svc.Credit(context.Background(), CreditInput{UserID: uuid.New(), Amount: -5, Reason: "x"})
	require.Error(t, err)

	_, err = svc.Credit(context.Background(), CreditInput{UserID: uuid.New(), Amount: 5})
	require.Error(t, err)

	_, err = svc.Credit(context.Background(), CreditInput{Amount: 5, Reason: "x"})
	require.Error(t, err)
}

func TestCredit_RequestIDDeduplicates(t *testing.T) {
	db := setupWalletTestDB(t)
	svc := newTestService(t, db)
	userID := uuid.New()

	first, err := svc.Credit(context.Background(), CreditInput{
		UserID:    userID,
		Amount:    10,
		Reason:    enums.CoinReasonDailyCheckIn,
		RequestID: "req-123",
	})
	require.NoError(t, err)
	assert.False(t, first.Duplicate)

	second, err := svc.Credit(context.Background(), CreditInput{
		UserID:    userID,
		Amount:    10,
		Reason:    enums.CoinReasonDailyCheckIn,
		RequestID: "req-123",
	})
	require.NoError(t, err)
	assert.True(t, second.Duplicate)
	assert.Equal(t, "req-123", second.TransactionID)
	assert.Equal(t, int64(10), second.NewTotal, "balance must not move on a replay")
}

func TestCredit_RedeemableCap(t *testing.T) {
	db := setupWalletTestDB(t)
	svc := newTestService(t, db)
	userID := uuid.New()

	// Earn 20 this month: redeemable cap is 80% = 16.
	_, err := svc.Credit(context.Background(), CreditInput{
		UserID: userID,
		Amount: 20,
		Reason: enums.CoinReasonOrderComplete,
	})
	require.NoError(t, err)

	_, err = svc.Credit(context.Background(), CreditInput{
		UserID: userID,
		Amount: 17,
		Reason: enums.CoinReasonRedeemVoucher,
	})
	require.Error(t, err)
	assert.Equal(t, pkgerrors.CodeCapExceeded, pkgerrors.As(err).Code())

	res, err := svc.Credit(context.Background(), CreditInput{
		UserID: userID,
		Amount: 16,
		Reason: enums.CoinReasonRedeemVoucher,
	})
	require.NoError(t, err)
	assert.Equal(t, int64(4), res.NewTotal, "redemption debits the balance")

	summary, err := svc.Summary(context.Background(), userID)
	require.NoError(t, err)
	assert.Equal(t, int64(20), summary.MonthlyEarned, "redeems do not count as earnings")
	assert.Equal(t, int64(0), summary.RedeemableRemaining)
}

func TestCredit_RedeemRequiresBalance(t *testing.T) {
	db := setupWalletTestDB(t)
	svc := newTestService(t, db)
	userID := uuid.New()

	_, err := svc.Credit(context.Background(), CreditInput{
		UserID: userID,
		Amount: 5,
		Reason: enums.CoinReasonRedeemVoucher,
	})
	require.Error(t, err)
	assert.Equal(t, pkgerrors.CodeCapExceeded, pkgerrors.As(err).Code())
}

func TestSummary_EmptyUserIsZeroed(t *testing.T) {
	svc := newTestService(t, setupWalletTestDB(t))

	summary, err := svc.Summary(context.Background(), uuid.New())
	require.NoError(t, err)
	assert.Zero(t, summary.TotalCoins)
	assert.Zero(t, summary.DailyEarned)
	assert.Equal(t, int64(30), summary.DailyRemaining)
	assert.Equal(t, int64(500), summary.MonthlyRemaining)
	assert.Zero(t, summary.RedeemableCap)
}

func TestAggregates_DegradeToZeroOnScanFailure(t *testing.T) {
	db := setupWalletTestDB(t)
	svc := newTestService(t, db)
	userID := uuid.New()

	// Drop the history table so the aggregate scan fails; the summary must
	// still serve the balance with zeroed windows.
	require.NoError(t, db.Exec(`DROP TABLE coin_entries`).Error)

	summary, err := svc.Summary(context.Background(), userID)
	require.NoError(t, err)
	assert.Zero(t, summary.DailyEarned)
	assert.Zero(t, summary.MonthlyEarned)
}

func TestHistory_PaginatesNewestFirst(t *testing.T) {
	db := setupWalletTestDB(t)
	repo := NewRepository(db)
	svc := newTestService(t, db)
	userID := uuid.New()

	base := time.Now().UTC().Add(-time.Hour)
	for i := 0; i < 5; i++ {
		require.NoError(t, db.Exec(
			`INSERT INTO coin_entries (id, user_id, amount, reason, created_at) VALUES (?, ?, ?, ?, ?)`,
			uuid.NewString(), userID.String(), int64(i+1), "mission_reward", base.Add(time.Duration(i)*time.Minute),
		).Error)
	}

	page, err := svc.History(context.Background(), userID, "", 3)
	require.NoError(t, err)
	require.Len(t, page.Entries, 3)
	assert.NotEmpty(t, page.NextCursor)
	assert.Equal(t, int64(5), page.Entries[0].Amount, "newest entry first")

	rest, err := svc.History(context.Background(), userID, page.NextCursor, 3)
	require.NoError(t, err)
	require.Len(t, rest.Entries, 2)
	assert.Empty(t, rest.NextCursor)

	// Repo-level scan honors the window filter.
	since, err := repo.ListSince(context.Background(), userID, base.Add(3*time.Minute))
	require.NoError(t, err)
	assert.Len(t, since, 2)
}
