package leaderboard

import (
	"context"
	"sort"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeScoreStore is an in-memory sorted set keyed like the redis client.
type fakeScoreStore struct {
	sets map[string]map[string]float64
}

func newFakeScoreStore() *fakeScoreStore {
	return &fakeScoreStore{sets: map[string]map[string]float64{}}
}

func (f *fakeScoreStore) ZIncrBy(_ context.Context, key string, delta float64, member string) (float64, error) {
	if f.sets[key] == nil {
		f.sets[key] = map[string]float64{}
	}
	f.sets[key][member] += delta
	return f.sets[key][member], nil
}

func (f *fakeScoreStore) sorted(key string) []redis.Z {
	var rows []redis.Z
	for member, score := range f.sets[key] {
		rows = append(rows, redis.Z{Member: member, Score: score})
	}
	sort.Slice(rows, func(i, j int) bool { return rows[i].Score > rows[j].Score })
	return rows
}

func (f *fakeScoreStore) ZTop(_ context.Context, key string, n int64) ([]redis.Z, error) {
	rows := f.sorted(key)
	if int64(len(rows)) > n {
		rows = rows[:n]
	}
	return rows, nil
}

func (f *fakeScoreStore) ZRevRank(_ context.Context, key, member string) (int64, error) {
	for i, row := range f.sorted(key) {
		if row.Member == member {
			return int64(i), nil
		}
	}
	return 0, redis.Nil
}

func (f *fakeScoreStore) ZScore(_ context.Context, key, member string) (float64, error) {
	if set, ok := f.sets[key]; ok {
		if score, ok := set[member]; ok {
			return score, nil
		}
	}
	return 0, redis.Nil
}

func (f *fakeScoreStore) LeaderboardKey(region, weekID string) string {
	return "bw:leaderboard:" + region + ":" + weekID
}

func TestWeekID_ISOWeek(t *testing.T) {
	// 2026-01-01 falls in ISO week 1 of 2026.
	if got := WeekID(time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)); got != "2026-W01" {
		t.Fatalf("unexpected week id %q", got)
	}
	// 2023-01-01 is a Sunday belonging to ISO 2022-W52.
	if got := WeekID(time.Date(2023, 1, 1, 0, 0, 0, 0, time.UTC)); got != "2022-W52" {
		t.Fatalf("unexpected week id %q", got)
	}
}

func TestBumpScore_AccumulatesWithinWeek(t *testing.T) {
	store := newFakeScoreStore()
	svc, err := NewService(store)
	require.NoError(t, err)
	userID := uuid.New()

	score, err := svc.BumpScore(context.Background(), userID, 70, "2026-W35", "")
	require.NoError(t, err)
	assert.Equal(t, float64(70), score)

	score, err = svc.BumpScore(context.Background(), userID, 30, "2026-W35", "")
	require.NoError(t, err)
	assert.Equal(t, float64(100), score)
}

func TestBumpScore_Validates(t *testing.T) {
	svc, err := NewService(newFakeScoreStore())
	require.NoError(t, err)

	_, err = svc.BumpScore(context.Background(), uuid.Nil, 10, "", "")
	require.Error(t, err)
	_, err = svc.BumpScore(context.Background(), uuid.New(), 0, "", "")
	require.Error(t, err)
}

func TestTop_RanksDescending(t *testing.T) {
	store := newFakeScoreStore()
	svc, err := NewService(store)
	require.NoError(t, err)

	a, b, c := uuid.New(), uuid.New(), uuid.New()
	_, _ = svc.BumpScore(context.Background(), a, 50, "2026-W35", "global")
	_, _ = svc.BumpScore(context.Background(), b, 120, "2026-W35", "global")
	_, _ = svc.BumpScore(context.Background(), c, 80, "2026-W35", "global")

	entries, err := svc.Top(context.Background(), "global", "2026-W35", 2)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, b.String(), entries[0].UserID)
	assert.Equal(t, 1, entries[0].Rank)
	assert.Equal(t, c.String(), entries[1].UserID)
}

func TestStanding_UnrankedUser(t *testing.T) {
	svc, err := NewService(newFakeScoreStore())
	require.NoError(t, err)

	standing, err := svc.Standing(context.Background(), "global", "2026-W35", uuid.New())
	require.NoError(t, err)
	assert.False(t, standing.Ranked)
	assert.Zero(t, standing.Rank)
}

func TestStanding_RankedUser(t *testing.T) {
	store := newFakeScoreStore()
	svc, err := NewService(store)
	require.NoError(t, err)

	a, b := uuid.New(), uuid.New()
	_, _ = svc.BumpScore(context.Background(), a, 100, "2026-W35", "global")
	_, _ = svc.BumpScore(context.Background(), b, 40, "2026-W35", "global")

	standing, err := svc.Standing(context.Background(), "global", "2026-W35", b)
	require.NoError(t, err)
	assert.True(t, standing.Ranked)
	assert.Equal(t, 2, standing.Rank)
	assert.Equal(t, float64(40), standing.Score)
}
