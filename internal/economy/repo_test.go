package economy

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func setupEconomyTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{})
	require.NoError(t, err)

	schema := `
CREATE TABLE IF NOT EXISTS economy_accounts (
  user_id TEXT PRIMARY KEY,
  total_savings NUMERIC NOT NULL DEFAULT 0,
  total_coins INTEGER NOT NULL DEFAULT 0,
  total_orders INTEGER NOT NULL DEFAULT 0,
  created_at DATETIME,
  updated_at DATETIME
);`
	require.NoError(t, db.Exec(schema).Error)
	return db
}

func TestGet_CreatesZeroedAccountLazily(t *testing.T) {
	repo := NewRepository(setupEconomyTestDB(t))
	userID := uuid.New()

	account, err := repo.Get(context.Background(), userID)
	require.NoError(t, err)
	assert.Equal(t, userID, account.UserID)
	assert.True(t, account.TotalSavings.IsZero())
	assert.Zero(t, account.TotalCoins)
	assert.Zero(t, account.TotalOrders)

	again, err := repo.Get(context.Background(), userID)
	require.NoError(t, err)
	assert.Equal(t, account.UserID, again.UserID)
}

func TestAddCoins_Accumulates(t *testing.T) {
	repo := NewRepository(setupEconomyTestDB(t))
	userID := uuid.New()

	require.NoError(t, repo.AddCoins(context.Background(), userID, 10))
	require.NoError(t, repo.AddCoins(context.Background(), userID, 5))
	require.NoError(t, repo.AddCoins(context.Background(), userID, -3))

	account, err := repo.Get(context.Background(), userID)
	require.NoError(t, err)
	assert.Equal(t, int64(12), account.TotalCoins)
}

func TestAddSavingsAndOrders(t *testing.T) {
	repo := NewRepository(setupEconomyTestDB(t))
	userID := uuid.New()

	require.NoError(t, repo.AddSavings(context.Background(), userID, decimal.NewFromFloat(70.50)))
	require.NoError(t, repo.AddSavings(context.Background(), userID, decimal.NewFromFloat(29.50)))
	require.NoError(t, repo.IncrementOrders(context.Background(), userID))
	require.NoError(t, repo.IncrementOrders(context.Background(), userID))

	account, err := repo.Get(context.Background(), userID)
	require.NoError(t, err)
	assert.True(t, account.TotalSavings.Equal(decimal.NewFromInt(100)), "got %s", account.TotalSavings)
	assert.Equal(t, int64(2), account.TotalOrders)
}
