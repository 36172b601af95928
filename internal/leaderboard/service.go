package leaderboard

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	pkgerrors "github.com/bitewise-app/bitewise-backend/pkg/errors"
)

// DefaultRegion is used when a caller does not scope the board.
const DefaultRegion = "global"

// ScoreStore is the sorted-set surface the leaderboard needs; satisfied by
// pkg/redis.Client.
type ScoreStore interface {
	ZIncrBy(ctx context.Context, key string, delta float64, member string) (float64, error)
	ZTop(ctx context.Context, key string, n int64) ([]redis.Z, error)
	ZRevRank(ctx context.Context, key, member string) (int64, error)
	ZScore(ctx context.Context, key, member string) (float64, error)
	LeaderboardKey(region, weekID string) string
}

// Entry is one leaderboard row.
type Entry struct {
	UserID string  `json:"user_id"`
	Rank   int     `json:"rank"`
	Score  float64 `json:"score"`
}

// Standing is a single user's position on a board.
type Standing struct {
	UserID string  `json:"user_id"`
	Rank   int     `json:"rank"`
	Score  float64 `json:"score"`
	Ranked bool    `json:"ranked"`
}

// Service maintains weekly per-region score boards.
type Service interface {
	BumpScore(ctx context.Context, userID uuid.UUID, delta float64, weekID, region string) (float64, error)
	Top(ctx context.Context, region, weekID string, n int64) ([]Entry, error)
	Standing(ctx context.Context, region, weekID string, userID uuid.UUID) (*Standing, error)
}

type service struct {
	store ScoreStore
	now   func() time.Time
}

// NewService wires a leaderboard service over the provided score store.
func NewService(store ScoreStore) (Service, error) {
	if store == nil {
		return nil, fmt.Errorf("score store required")
	}
	return &service{store: store, now: time.Now}, nil
}

// WeekID returns the ISO year-week identifier for t, e.g. "2026-W35".
func WeekID(t time.Time) string {
	year, week := t.UTC().ISOWeek()
	return fmt.Sprintf("%d-W%02d", year, week)
}

func (s *service) resolve(weekID, region string) (string, string) {
	if weekID == "" {
		weekID = WeekID(s.now())
	}
	if region == "" {
		region = DefaultRegion
	}
	return weekID, region
}

func (s *service) BumpScore(ctx context.Context, userID uuid.UUID, delta float64, weekID, region string) (float64, error) {
	if userID == uuid.Nil {
		return 0, pkgerrors.New(pkgerrors.CodeValidation, "user id is required")
	}
	if delta <= 0 {
		return 0, pkgerrors.New(pkgerrors.CodeValidation, "delta must be positive")
	}
	weekID, region = s.resolve(weekID, region)

	score, err := s.store.ZIncrBy(ctx, s.store.LeaderboardKey(region, weekID), delta, userID.String())
	if err != nil {
		return 0, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "bumping leaderboard score")
	}
	return score, nil
}

func (s *service) Top(ctx context.Context, region, weekID string, n int64) ([]Entry, error) {
	weekID, region = s.resolve(weekID, region)

	rows, err := s.store.ZTop(ctx, s.store.LeaderboardKey(region, weekID), n)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "reading leaderboard")
	}

	entries := make([]Entry, 0, len(rows))
	for i, row := range rows {
		member, _ := row.Member.(string)
		entries = append(entries, Entry{UserID: member, Rank: i + 1, Score: row.Score})
	}
	return entries, nil
}

func (s *service) Standing(ctx context.Context, region, weekID string, userID uuid.UUID) (*Standing, error) {
	if userID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "user id is required")
	}
	weekID, region = s.resolve(weekID, region)
	key := s.store.LeaderboardKey(region, weekID)

	rank, err := s.store.ZRevRank(ctx, key, userID.String())
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return &Standing{UserID: userID.String()}, nil
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "reading leaderboard rank")
	}

	score, err := s.store.ZScore(ctx, key, userID.String())
	if err != nil && !errors.Is(err, redis.Nil) {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "reading leaderboard score")
	}

	return &Standing{
		UserID: userID.String(),
		Rank:   int(rank) + 1,
		Score:  score,
		Ranked: true,
	}, nil
}
