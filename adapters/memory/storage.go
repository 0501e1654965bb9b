package memory

import (
	"context"
	"sync"

	"studyquest/core"
)

// Store is a concurrent in-memory Storage implementation.
type Store struct {
	users sync.Map // map[core.UserID]*userRecord
}

type userRecord struct {
	mu       sync.Mutex
	stats    core.GameStats
	activity []core.ActivityRecord
	unlocks  []core.AchievementUnlock
	unlocked map[string]struct{}
}

func New() *Store { return &Store{} }

func (s *Store) getOrCreate(user core.UserID) *userRecord {
	if v, ok := s.users.Load(user); ok {
		return v.(*userRecord)
	}
	rec := &userRecord{stats: core.NewGameStats(), unlocked: map[string]struct{}{}}
	actual, _ := s.users.LoadOrStore(user, rec)
	return actual.(*userRecord)
}

func (s *Store) GetStats(_ context.Context, user core.UserID) (core.GameStats, error) {
	rec := s.getOrCreate(user)
	rec.mu.Lock()
	defer rec.mu.Unlock()
	return rec.stats, nil
}

// UpdateStats runs fn under the user's lock.
func (s *Store) UpdateStats(_ context.Context, user core.UserID, fn func(core.GameStats) (core.GameStats, error)) (core.GameStats, error) {
	rec := s.getOrCreate(user)
	rec.mu.Lock()
	defer rec.mu.Unlock()
	next, err := fn(rec.stats)
	if err != nil {
		return rec.stats, err
	}
	rec.stats = next.Recompute()
	return rec.stats, nil
}

func (s *Store) AppendActivity(_ context.Context, user core.UserID, r core.ActivityRecord) error {
	rec := s.getOrCreate(user)
	rec.mu.Lock()
	defer rec.mu.Unlock()
	rec.activity = append(rec.activity, r)
	return nil
}

func (s *Store) ListActivity(_ context.Context, user core.UserID) ([]core.ActivityRecord, error) {
	rec := s.getOrCreate(user)
	rec.mu.Lock()
	defer rec.mu.Unlock()
	out := make([]core.ActivityRecord, len(rec.activity))
	copy(out, rec.activity)
	return out, nil
}

func (s *Store) RecordUnlock(_ context.Context, user core.UserID, u core.AchievementUnlock) (bool, error) {
	if err := core.ValidateAchievementID(u.AchievementID); err != nil {
		return false, err
	}
	rec := s.getOrCreate(user)
	rec.mu.Lock()
	defer rec.mu.Unlock()
	if _, ok := rec.unlocked[u.AchievementID]; ok {
		return false, nil
	}
	rec.unlocked[u.AchievementID] = struct{}{}
	rec.unlocks = append(rec.unlocks, u)
	return true, nil
}

func (s *Store) ListUnlocks(_ context.Context, user core.UserID) ([]core.AchievementUnlock, error) {
	rec := s.getOrCreate(user)
	rec.mu.Lock()
	defer rec.mu.Unlock()
	out := make([]core.AchievementUnlock, len(rec.unlocks))
	copy(out, rec.unlocks)
	return out, nil
}
