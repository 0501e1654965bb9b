package jsonfile

import (
	"context"
	"encoding/json"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"sync"

	"studyquest/core"
	"studyquest/engine"
)

// userDoc is one user's entry in the state file.
type userDoc struct {
	Stats    core.GameStats           `json:"stats"`
	Activity []core.ActivityRecord    `json:"activity,omitempty"`
	Unlocks  []core.AchievementUnlock `json:"unlocks,omitempty"`
}

func (d userDoc) clone() userDoc {
	d.Activity = append([]core.ActivityRecord(nil), d.Activity...)
	d.Unlocks = append([]core.AchievementUnlock(nil), d.Unlocks...)
	return d
}

// Store persists entire state to a single JSON file.
// Suitable for demos and small deployments.
type Store struct {
	path string
	mu   sync.Mutex
	// in-memory cache for speed
	data map[core.UserID]userDoc
}

var _ engine.Storage = (*Store)(nil)

func New(path string) (*Store, error) {
	s := &Store{path: path, data: map[core.UserID]userDoc{}}
	if err := s.load(); err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			return nil, err
		}
	}
	return s, nil
}

func (s *Store) load() error {
	b, err := os.ReadFile(s.path)
	if err != nil {
		return err
	}
	var raw map[string]userDoc
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}
	for k, v := range raw {
		v.Stats = v.Stats.Recompute()
		s.data[core.UserID(k)] = v
	}
	return nil
}

func (s *Store) persist() error {
	tmp := s.path + ".tmp"
	raw := make(map[string]userDoc, len(s.data))
	for k, v := range s.data {
		raw[string(k)] = v
	}
	b, err := json.MarshalIndent(raw, "", "  ")
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return err
	}
	if err := os.WriteFile(tmp, b, 0o644); err != nil {
		return err
	}
	return os.Rename(tmp, s.path)
}

func (s *Store) get(user core.UserID) userDoc {
	if d, ok := s.data[user]; ok {
		return d
	}
	return userDoc{Stats: core.NewGameStats()}
}

// mutate applies fn to user's document and writes the file. The cached
// document is left untouched when fn or the write fails.
func (s *Store) mutate(user core.UserID, fn func(*userDoc) error) error {
	prev, existed := s.data[user]
	next := s.get(user).clone()
	if err := fn(&next); err != nil {
		return err
	}
	s.data[user] = next
	if err := s.persist(); err != nil {
		if existed {
			s.data[user] = prev
		} else {
			delete(s.data, user)
		}
		return err
	}
	return nil
}

func (s *Store) GetStats(_ context.Context, user core.UserID) (core.GameStats, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.get(user).Stats, nil
}

func (s *Store) UpdateStats(_ context.Context, user core.UserID, fn engine.StatsUpdate) (core.GameStats, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out core.GameStats
	err := s.mutate(user, func(d *userDoc) error {
		next, err := fn(d.Stats)
		if err != nil {
			return err
		}
		d.Stats = next.Recompute()
		out = d.Stats
		return nil
	})
	if err != nil {
		return s.get(user).Stats, err
	}
	return out, nil
}

func (s *Store) AppendActivity(_ context.Context, user core.UserID, rec core.ActivityRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.mutate(user, func(d *userDoc) error {
		d.Activity = append(d.Activity, rec)
		return nil
	})
}

func (s *Store) ListActivity(_ context.Context, user core.UserID) ([]core.ActivityRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.get(user).clone().Activity, nil
}

func (s *Store) RecordUnlock(_ context.Context, user core.UserID, u core.AchievementUnlock) (bool, error) {
	if err := core.ValidateAchievementID(u.AchievementID); err != nil {
		return false, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, have := range s.get(user).Unlocks {
		if have.AchievementID == u.AchievementID {
			return false, nil
		}
	}
	err := s.mutate(user, func(d *userDoc) error {
		d.Unlocks = append(d.Unlocks, u)
		return nil
	})
	return err == nil, err
}

func (s *Store) ListUnlocks(_ context.Context, user core.UserID) ([]core.AchievementUnlock, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.get(user).clone().Unlocks, nil
}
