package missions

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/bitewise-app/bitewise-backend/pkg/db/models"
	pkgerrors "github.com/bitewise-app/bitewise-backend/pkg/errors"
)

// SyncOutcome names what a Sync call did with the local snapshot.
type SyncOutcome string

const (
	SyncPushed SyncOutcome = "pushed"
	SyncPulled SyncOutcome = "pulled"
	SyncNoop   SyncOutcome = "noop"
)

// SyncResult carries the authoritative snapshot after a sync round.
type SyncResult struct {
	Snapshot *Snapshot   `json:"snapshot"`
	Outcome  SyncOutcome `json:"outcome"`
}

// Service syncs device-held mission snapshots against the server copy.
type Service interface {
	Pull(ctx context.Context, userID uuid.UUID) (*Snapshot, error)
	Push(ctx context.Context, userID uuid.UUID, snapshot Snapshot) (*Snapshot, bool, error)
	Sync(ctx context.Context, userID uuid.UUID, cache *ClientCache) (*SyncResult, error)
}

type service struct {
	db   *gorm.DB
	repo Repository
}

// NewService wires a mission sync service.
func NewService(db *gorm.DB, repo Repository) (Service, error) {
	if db == nil {
		return nil, fmt.Errorf("missions db handle required")
	}
	if repo == nil {
		return nil, fmt.Errorf("missions repository required")
	}
	return &service{db: db, repo: repo}, nil
}

// Pull returns the server snapshot, or nil when the user has never synced.
func (s *service) Pull(ctx context.Context, userID uuid.UUID) (*Snapshot, error) {
	if userID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "user id is required")
	}
	row, err := s.repo.Get(ctx, userID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "loading mission snapshot")
	}
	if row == nil {
		return nil, nil
	}
	snapshot, err := snapshotFromModel(row)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "decoding mission snapshot")
	}
	return snapshot, nil
}

// Push offers a snapshot to the server. It lands only when its version is
// strictly greater than the stored one; otherwise the stored snapshot is
// returned unchanged and accepted is false. Merge-write semantics: a push
// with no tasks or no day key keeps the stored values for those fields.
func (s *service) Push(ctx context.Context, userID uuid.UUID, snapshot Snapshot) (*Snapshot, bool, error) {
	if userID == uuid.Nil {
		return nil, false, pkgerrors.New(pkgerrors.CodeValidation, "user id is required")
	}
	if snapshot.Version <= 0 {
		return nil, false, pkgerrors.New(pkgerrors.CodeValidation, "snapshot version must be positive")
	}
	snapshot.Tasks = truncateTasks(snapshot.Tasks)

	var (
		final    *Snapshot
		accepted bool
	)
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		stored, err := repo.Get(ctx, userID)
		if err != nil {
			return err
		}

		if stored == nil {
			row, err := modelFromSnapshot(userID, snapshot)
			if err != nil {
				return err
			}
			if err := repo.Create(ctx, row); err != nil {
				return err
			}
			final, accepted = &snapshot, true
			return nil
		}

		if snapshot.Version <= stored.Version {
			final, err = snapshotFromModel(stored)
			return err
		}

		merged := mergeSnapshots(stored, snapshot)
		row, err := modelFromSnapshot(userID, merged)
		if err != nil {
			return err
		}
		updated, err := repo.UpdateIfNewer(ctx, row)
		if err != nil {
			return err
		}
		if !updated {
			// Lost a race to a higher-versioned push inside the window.
			current, err := repo.Get(ctx, userID)
			if err != nil {
				return err
			}
			final, err = snapshotFromModel(current)
			return err
		}
		final, accepted = &merged, true
		return nil
	})
	if err != nil {
		if typed := pkgerrors.As(err); typed != nil {
			return nil, false, typed
		}
		return nil, false, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "pushing mission snapshot")
	}
	return final, accepted, nil
}

// Sync runs the client merge algorithm: absent remote means the local copy is
// authoritative; a newer remote replaces the local copy wholesale; a newer
// local copy is pushed. Equal versions are a no-op.
func (s *service) Sync(ctx context.Context, userID uuid.UUID, cache *ClientCache) (*SyncResult, error) {
	if cache == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "client cache is required")
	}

	remote, err := s.Pull(ctx, userID)
	if err != nil {
		return nil, err
	}

	if remote == nil || cache.Snapshot.Version > remote.Version {
		pushed, _, err := s.Push(ctx, userID, cache.Snapshot)
		if err != nil {
			return nil, err
		}
		cache.Replace(*pushed)
		return &SyncResult{Snapshot: pushed, Outcome: SyncPushed}, nil
	}

	if remote.Version > cache.Snapshot.Version {
		cache.Replace(*remote)
		return &SyncResult{Snapshot: remote, Outcome: SyncPulled}, nil
	}

	return &SyncResult{Snapshot: remote, Outcome: SyncNoop}, nil
}

// mergeSnapshots applies merge-write semantics over the stored row: empty
// incoming fields keep their stored values, and the monotonic counters never
// move backwards.
func mergeSnapshots(stored *models.MissionSnapshot, incoming Snapshot) Snapshot {
	merged := incoming
	if merged.DayKey == "" {
		merged.DayKey = stored.DayKey
	}
	if merged.Tasks == nil && len(stored.Tasks) > 0 {
		_ = json.Unmarshal(stored.Tasks, &merged.Tasks)
	}
	if merged.TotalCompleted < stored.TotalCompleted {
		merged.TotalCompleted = stored.TotalCompleted
	}
	if merged.Streak.Best < stored.StreakBest {
		merged.Streak.Best = stored.StreakBest
	}
	return merged
}

func modelFromSnapshot(userID uuid.UUID, snapshot Snapshot) (*models.MissionSnapshot, error) {
	tasks, err := json.Marshal(snapshot.Tasks)
	if err != nil {
		return nil, err
	}
	return &models.MissionSnapshot{
		UserID:         userID,
		DayKey:         snapshot.DayKey,
		TotalCompleted: snapshot.TotalCompleted,
		StreakCurrent:  snapshot.Streak.Current,
		StreakBest:     snapshot.Streak.Best,
		StreakLastDay:  snapshot.Streak.LastDay,
		Tasks:          tasks,
		Version:        snapshot.Version,
	}, nil
}
