package achievements

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/bitewise-app/bitewise-backend/pkg/enums"
)

func setupAchievementsTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{})
	require.NoError(t, err)

	schema := `
CREATE TABLE IF NOT EXISTS achievements (
  id TEXT PRIMARY KEY,
  user_id TEXT NOT NULL,
  code TEXT NOT NULL,
  title TEXT NOT NULL,
  points INTEGER NOT NULL DEFAULT 0,
  earned_at DATETIME NOT NULL,
  updated_at DATETIME
);`
	require.NoError(t, db.Exec(schema).Error)
	return db
}

func TestEnsure_GrantsOnce(t *testing.T) {
	db := setupAchievementsTestDB(t)
	svc, err := NewService(NewRepository(db))
	require.NoError(t, err)
	userID := uuid.New()

	grant, earned, err := svc.Ensure(context.Background(), userID, enums.AchievementFirstSave, "First Save", 10)
	require.NoError(t, err)
	assert.True(t, earned)
	assert.Equal(t, userID.String()+"__first_save", grant.ID)
	assert.Equal(t, 10, grant.Points)

	again, earned, err := svc.Ensure(context.Background(), userID, enums.AchievementFirstSave, "First Save", 10)
	require.NoError(t, err)
	assert.False(t, earned, "duplicate grant must not re-earn")
	assert.Equal(t, grant.ID, again.ID)

	var count int64
	require.NoError(t, db.Raw(`SELECT COUNT(*) FROM achievements WHERE user_id = ?`, userID.String()).Scan(&count).Error)
	assert.Equal(t, int64(1), count)
}

func TestEnsure_ValidatesInput(t *testing.T) {
	svc, err := NewService(NewRepository(setupAchievementsTestDB(t)))
	require.NoError(t, err)

	_, _, err = svc.Ensure(context.Background(), uuid.Nil, enums.AchievementFirstSave, "x", 1)
	require.Error(t, err)

	_, _, err = svc.Ensure(context.Background(), uuid.New(), enums.AchievementCode("bogus"), "x", 1)
	require.Error(t, err)
}

func TestList_ReturnsUserGrants(t *testing.T) {
	db := setupAchievementsTestDB(t)
	svc, err := NewService(NewRepository(db))
	require.NoError(t, err)
	userID := uuid.New()

	_, _, err = svc.Ensure(context.Background(), userID, enums.AchievementFirstSave, "First Save", 10)
	require.NoError(t, err)
	_, _, err = svc.Ensure(context.Background(), userID, enums.AchievementOrders3, "Regular", 20)
	require.NoError(t, err)
	_, _, err = svc.Ensure(context.Background(), uuid.New(), enums.AchievementFirstSave, "First Save", 10)
	require.NoError(t, err)

	grants, err := svc.List(context.Background(), userID)
	require.NoError(t, err)
	assert.Len(t, grants, 2)
}
