package engine

import (
	"context"
	"errors"

	"studyquest/core"
)

// ErrConflict is returned by storage adapters that give up on an optimistic
// update after repeated concurrent modifications.
var ErrConflict = errors.New("concurrent update conflict")

// StatsUpdate transforms a user's stats. Adapters may call it more than once
// when they retry an optimistic update, so repeating it must be safe.
type StatsUpdate = func(core.GameStats) (core.GameStats, error)

// Storage abstracts persistence for scoring state.
//
// UpdateStats is the only write path for stats and must serialize
// read-modify-write per user: two concurrent updates of one user never lose
// each other's changes. Users without stored stats read as
// core.NewGameStats().
type Storage interface {
	GetStats(ctx context.Context, user core.UserID) (core.GameStats, error)
	UpdateStats(ctx context.Context, user core.UserID, fn StatsUpdate) (core.GameStats, error)
	AppendActivity(ctx context.Context, user core.UserID, rec core.ActivityRecord) error
	ListActivity(ctx context.Context, user core.UserID) ([]core.ActivityRecord, error)
	// RecordUnlock stores an unlock unless the user already has that
	// achievement; created reports whether it was stored.
	RecordUnlock(ctx context.Context, user core.UserID, unlock core.AchievementUnlock) (created bool, err error)
	ListUnlocks(ctx context.Context, user core.UserID) ([]core.AchievementUnlock, error)
}
