package core

import (
	"time"

	"github.com/google/uuid"
)

// EventType enumerates domain events.
type EventType string

const (
	EventXPAwarded           EventType = "xp_awarded"
	EventLevelUp             EventType = "level_up"
	EventAchievementUnlocked EventType = "achievement_unlocked"
	EventStreakUpdated       EventType = "streak_updated"
)

// Event represents an immutable domain event.
type Event struct {
	ID          string         `json:"id"`
	Type        EventType      `json:"type"`
	Time        time.Time      `json:"time"`
	UserID      UserID         `json:"user_id"`
	Activity    ActivityType   `json:"activity,omitempty"`
	Delta       int64          `json:"delta,omitempty"`
	Total       int64          `json:"total,omitempty"`
	Level       int            `json:"level,omitempty"`
	Achievement string         `json:"achievement,omitempty"`
	StreakDays  int            `json:"streak_days,omitempty"`
	Metadata    map[string]any `json:"metadata,omitempty"`
}

func newEvent(typ EventType, user UserID) Event {
	return Event{ID: uuid.NewString(), Type: typ, Time: time.Now().UTC(), UserID: user}
}

func NewXPAwarded(user UserID, activity ActivityType, delta int64, total int64) Event {
	e := newEvent(EventXPAwarded, user)
	e.Activity, e.Delta, e.Total = activity, delta, total
	return e
}

func NewLevelUp(user UserID, level int, total int64) Event {
	e := newEvent(EventLevelUp, user)
	e.Level, e.Total = level, total
	return e
}

func NewAchievementUnlocked(user UserID, u AchievementUnlock) Event {
	e := newEvent(EventAchievementUnlocked, user)
	e.Achievement, e.Delta, e.Time = u.AchievementID, u.XPAwarded, u.UnlockedAt.UTC()
	return e
}

func NewStreakUpdated(user UserID, days int) Event {
	e := newEvent(EventStreakUpdated, user)
	e.StreakDays = days
	return e
}
