package missions

import (
	"encoding/json"
	"time"

	"github.com/bitewise-app/bitewise-backend/pkg/db/models"
)

// MaxTasks bounds the per-user task list; pushes are truncated to it.
const MaxTasks = 10

// Task is one mission entry in a snapshot.
type Task struct {
	ID       string `json:"id"`
	Kind     string `json:"kind"`
	Title    string `json:"title"`
	Target   int    `json:"target"`
	Reward   int    `json:"reward"`
	Day      string `json:"day"`
	Progress int    `json:"progress"`
	Ready    bool   `json:"ready"`
	Done     bool   `json:"done"`
	DueTs    int64  `json:"dueTs"`
}

// Streak tracks consecutive mission days.
type Streak struct {
	Current int    `json:"current"`
	Best    int    `json:"best"`
	LastDay string `json:"lastDay"`
}

// Snapshot is the syncable mission/streak state. Version is the merge
// discriminator: larger wins, equal is a no-op.
type Snapshot struct {
	DayKey         string `json:"dayKey"`
	TotalCompleted int    `json:"totalCompleted"`
	Streak         Streak `json:"streak"`
	Tasks          []Task `json:"tasks"`
	Version        int64  `json:"version"`
}

// ClientCache is the device-held copy of a snapshot. It replaces the global
// browser-storage store of older clients: callers own the instance and pass
// it into Sync explicitly.
type ClientCache struct {
	Snapshot Snapshot
	now      func() time.Time
}

// NewClientCache wraps a device-local snapshot for syncing.
func NewClientCache(snapshot Snapshot) *ClientCache {
	return &ClientCache{Snapshot: snapshot, now: time.Now}
}

// Touch stamps the local snapshot with a fresh version so the next sync
// pushes it. Versions are unix-millisecond timestamps; Touch never moves
// the version backwards.
func (c *ClientCache) Touch() {
	nowFn := c.now
	if nowFn == nil {
		nowFn = time.Now
	}
	stamp := nowFn().UnixMilli()
	if stamp > c.Snapshot.Version {
		c.Snapshot.Version = stamp
	} else {
		c.Snapshot.Version++
	}
}

// Replace adopts a remote snapshot wholesale, version included.
func (c *ClientCache) Replace(remote Snapshot) {
	c.Snapshot = remote
}

// truncateTasks caps a task list at MaxTasks, keeping the head of the list.
func truncateTasks(tasks []Task) []Task {
	if len(tasks) > MaxTasks {
		return tasks[:MaxTasks]
	}
	return tasks
}

func snapshotFromModel(row *models.MissionSnapshot) (*Snapshot, error) {
	snapshot := &Snapshot{
		DayKey:         row.DayKey,
		TotalCompleted: row.TotalCompleted,
		Streak: Streak{
			Current: row.StreakCurrent,
			Best:    row.StreakBest,
			LastDay: row.StreakLastDay,
		},
		Version: row.Version,
	}
	if len(row.Tasks) > 0 {
		if err := json.Unmarshal(row.Tasks, &snapshot.Tasks); err != nil {
			return nil, err
		}
	}
	return snapshot, nil
}
