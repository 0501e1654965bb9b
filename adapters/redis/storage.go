package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/redis/go-redis/v9"

	"studyquest/core"
	"studyquest/engine"
)

// maxUpdateRetries bounds optimistic UpdateStats attempts before giving up
// with engine.ErrConflict.
const maxUpdateRetries = 32

// Config holds Redis connection configuration
type Config struct {
	Addr         string
	Password     string
	DB           int
	PoolSize     int
	MinIdleConns int
	DialTimeout  time.Duration
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

// DefaultConfig returns sensible defaults for Redis configuration
func DefaultConfig() Config {
	return Config{
		Addr:         "localhost:6379",
		Password:     "",
		DB:           0,
		PoolSize:     10,
		MinIdleConns: 2,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
	}
}

// Store implements engine.Storage using Redis as the backend.
// Data structure:
// - user:{user_id}:stats -> JSON blob of GameStats
// - user:{user_id}:activity -> list of JSON ActivityRecords, oldest first
// - user:{user_id}:unlocks -> hash of achievement id to JSON AchievementUnlock
type Store struct {
	client *redis.Client
}

var _ engine.Storage = (*Store)(nil)

// New creates a new Redis-backed storage with the provided configuration
func New(config Config) (*Store, error) {
	client := redis.NewClient(&redis.Options{
		Addr:         config.Addr,
		Password:     config.Password,
		DB:           config.DB,
		PoolSize:     config.PoolSize,
		MinIdleConns: config.MinIdleConns,
		DialTimeout:  config.DialTimeout,
		ReadTimeout:  config.ReadTimeout,
		WriteTimeout: config.WriteTimeout,
	})

	// Test connection
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	return &Store{client: client}, nil
}

// NewWithClient creates a Store using an existing Redis client (useful for testing)
func NewWithClient(client *redis.Client) *Store {
	return &Store{client: client}
}

// Close closes the Redis connection
func (s *Store) Close() error {
	return s.client.Close()
}

func userStatsKey(userID core.UserID) string {
	return fmt.Sprintf("user:%s:stats", userID)
}

func userActivityKey(userID core.UserID) string {
	return fmt.Sprintf("user:%s:activity", userID)
}

func userUnlocksKey(userID core.UserID) string {
	return fmt.Sprintf("user:%s:unlocks", userID)
}

// readStats loads stats through getter, which is either the client or a
// transaction watching the key.
func readStats(ctx context.Context, getter redis.Cmdable, userID core.UserID) (core.GameStats, error) {
	data, err := getter.Get(ctx, userStatsKey(userID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return core.NewGameStats(), nil
	}
	if err != nil {
		return core.GameStats{}, fmt.Errorf("failed to get stats: %w", err)
	}
	var st core.GameStats
	if err := json.Unmarshal(data, &st); err != nil {
		return core.GameStats{}, fmt.Errorf("failed to decode stats: %w", err)
	}
	return st.Recompute(), nil
}

func (s *Store) GetStats(ctx context.Context, userID core.UserID) (core.GameStats, error) {
	return readStats(ctx, s.client, userID)
}

// UpdateStats applies fn under WATCH/MULTI/EXEC. A concurrent write to the
// same user aborts the transaction and fn runs again on the fresh value.
func (s *Store) UpdateStats(ctx context.Context, userID core.UserID, fn engine.StatsUpdate) (core.GameStats, error) {
	key := userStatsKey(userID)
	var out core.GameStats
	txf := func(tx *redis.Tx) error {
		cur, err := readStats(ctx, tx, userID)
		if err != nil {
			return err
		}
		next, err := fn(cur)
		if err != nil {
			return err
		}
		next = next.Recompute()
		data, err := json.Marshal(next)
		if err != nil {
			return err
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, key, data, 0)
			return nil
		})
		if err == nil {
			out = next
		}
		return err
	}

	for i := 0; i < maxUpdateRetries; i++ {
		err := s.client.Watch(ctx, txf, key)
		if err == nil {
			return out, nil
		}
		if !errors.Is(err, redis.TxFailedErr) {
			return core.GameStats{}, err
		}
	}
	return core.GameStats{}, fmt.Errorf("update stats for %s: %w", userID, engine.ErrConflict)
}

func (s *Store) AppendActivity(ctx context.Context, userID core.UserID, rec core.ActivityRecord) error {
	data, err := json.Marshal(rec)
	if err != nil {
		return err
	}
	if err := s.client.RPush(ctx, userActivityKey(userID), data).Err(); err != nil {
		return fmt.Errorf("failed to append activity: %w", err)
	}
	return nil
}

func (s *Store) ListActivity(ctx context.Context, userID core.UserID) ([]core.ActivityRecord, error) {
	items, err := s.client.LRange(ctx, userActivityKey(userID), 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to list activity: %w", err)
	}
	out := make([]core.ActivityRecord, 0, len(items))
	for _, item := range items {
		var rec core.ActivityRecord
		if err := json.Unmarshal([]byte(item), &rec); err != nil {
			return nil, fmt.Errorf("failed to decode activity: %w", err)
		}
		out = append(out, rec)
	}
	return out, nil
}

// RecordUnlock relies on HSETNX, so the first writer of an achievement wins.
func (s *Store) RecordUnlock(ctx context.Context, userID core.UserID, u core.AchievementUnlock) (bool, error) {
	if err := core.ValidateAchievementID(u.AchievementID); err != nil {
		return false, err
	}
	data, err := json.Marshal(u)
	if err != nil {
		return false, err
	}
	created, err := s.client.HSetNX(ctx, userUnlocksKey(userID), u.AchievementID, data).Result()
	if err != nil {
		return false, fmt.Errorf("failed to record unlock: %w", err)
	}
	return created, nil
}

// ListUnlocks returns unlocks ordered by unlock time.
func (s *Store) ListUnlocks(ctx context.Context, userID core.UserID) ([]core.AchievementUnlock, error) {
	all, err := s.client.HGetAll(ctx, userUnlocksKey(userID)).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to list unlocks: %w", err)
	}
	out := make([]core.AchievementUnlock, 0, len(all))
	for _, v := range all {
		var u core.AchievementUnlock
		if err := json.Unmarshal([]byte(v), &u); err != nil {
			return nil, fmt.Errorf("failed to decode unlock: %w", err)
		}
		out = append(out, u)
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].UnlockedAt.Equal(out[j].UnlockedAt) {
			return out[i].UnlockedAt.Before(out[j].UnlockedAt)
		}
		return out[i].AchievementID < out[j].AchievementID
	})
	return out, nil
}
