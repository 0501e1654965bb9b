package core

import (
	"errors"
	"fmt"
	"math"
	"strings"
	"time"
)

// UserID uniquely identifies a user in the scoring domain.
type UserID string

// ActivityType names the kind of activity that produced XP.
type ActivityType string

const (
	ActivityStudySession ActivityType = "study_session"
	ActivityQuest        ActivityType = "quest"
	ActivityTodo         ActivityType = "todo"
	ActivityStreakBonus  ActivityType = "streak_bonus"
)

// Valid reports whether t is one of the known activity types.
func (t ActivityType) Valid() bool {
	switch t {
	case ActivityStudySession, ActivityQuest, ActivityTodo, ActivityStreakBonus:
		return true
	}
	return false
}

// Difficulty scales rewards for study sessions and quests.
type Difficulty string

const (
	DifficultyEasy   Difficulty = "easy"
	DifficultyMedium Difficulty = "medium"
	DifficultyHard   Difficulty = "hard"
	DifficultyExpert Difficulty = "expert"
)

// Valid reports whether d is one of the known difficulties.
func (d Difficulty) Valid() bool {
	switch d {
	case DifficultyEasy, DifficultyMedium, DifficultyHard, DifficultyExpert:
		return true
	}
	return false
}

// QuestType selects the base reward of a quest.
type QuestType string

const (
	QuestDaily     QuestType = "daily"
	QuestWeekly    QuestType = "weekly"
	QuestMilestone QuestType = "milestone"
	QuestBonus     QuestType = "bonus"
)

// Valid reports whether q is one of the known quest types.
func (q QuestType) Valid() bool {
	switch q {
	case QuestDaily, QuestWeekly, QuestMilestone, QuestBonus:
		return true
	}
	return false
}

// ActivityEvent is a single completed activity. It is consumed once to
// produce an XP delta and is not owned by the engine after the call.
type ActivityEvent struct {
	Type            ActivityType `json:"type"`
	DurationMinutes float64      `json:"duration_minutes,omitempty"`
	Difficulty      Difficulty   `json:"difficulty,omitempty"`
	QuestType       QuestType    `json:"quest_type,omitempty"`
	CompletedEarly  bool         `json:"completed_early,omitempty"`
	CompletedOnTime bool         `json:"completed_on_time,omitempty"`
	// FocusPercent is the share of the session spent focused (0-100).
	// Zero means "not measured" and scores as full focus.
	FocusPercent float64 `json:"focus_percent,omitempty"`
	// EstimatedMinutes is the planned effort of a todo item.
	EstimatedMinutes float64 `json:"estimated_minutes,omitempty"`
	// StreakDays is the streak length a streak_bonus event is paid for.
	StreakDays int `json:"streak_days,omitempty"`
}

// Validate rejects events the engine cannot attribute to a category.
// Unknown difficulties and quest types are accepted; scoring falls back
// to defaults for them.
func (e ActivityEvent) Validate() error {
	if !e.Type.Valid() {
		return fmt.Errorf("unknown activity type %q", e.Type)
	}
	if math.IsNaN(e.DurationMinutes) || e.DurationMinutes < 0 {
		return errors.New("duration_minutes must be a non-negative number")
	}
	return nil
}

// ActivityRecord is an activity as stored in a user's history.
type ActivityRecord struct {
	Event ActivityEvent `json:"event"`
	At    time.Time     `json:"at"`
	XP    int64         `json:"xp"`
}

// WeeklyStats aggregates activity for one ISO week.
type WeeklyStats struct {
	Week             string  `json:"week"`
	StudyMinutes     float64 `json:"study_minutes"`
	QuestsCompleted  int     `json:"quests_completed"`
	TasksCompleted   int     `json:"tasks_completed"`
	XPEarned         int64   `json:"xp_earned"`
	StreakMaintained bool    `json:"streak_maintained"`
}

// GameStats is the per-user progression record. Level, CurrentXP and
// XPToNextLevel are derived from TotalXP; use Recompute rather than
// setting them directly.
type GameStats struct {
	Level         int         `json:"level"`
	TotalXP       int64       `json:"total_xp"`
	CurrentXP     int64       `json:"current_xp"`
	XPToNextLevel int64       `json:"xp_to_next_level"`
	StreakDays    int         `json:"streak_days"`
	LastActivity  time.Time   `json:"last_activity"`
	Weekly        WeeklyStats `json:"weekly"`
}

// NewGameStats returns the stats of a user with no activity.
func NewGameStats() GameStats {
	return GameStats{}.Recompute()
}

// Recompute returns s with the derived level fields rebuilt from TotalXP.
func (s GameStats) Recompute() GameStats {
	if s.TotalXP < 0 {
		s.TotalXP = 0
	}
	s.Level = LevelFromXP(s.TotalXP)
	s.CurrentXP = CurrentLevelXP(s.TotalXP)
	s.XPToNextLevel = XPToNextLevel(s.TotalXP)
	return s
}

// AchievementUnlock records a single achievement being earned.
type AchievementUnlock struct {
	AchievementID string    `json:"achievement_id"`
	UnlockedAt    time.Time `json:"unlocked_at"`
	XPAwarded     int64     `json:"xp_awarded"`
}

// AddSafe adds delta to base ensuring no signed overflow occurs.
func AddSafe(base int64, delta int64) (int64, error) {
	if (delta > 0 && base > math.MaxInt64-delta) || (delta < 0 && base < math.MinInt64-delta) {
		return 0, errors.New("integer overflow in AddSafe")
	}
	return base + delta, nil
}

// NormalizeUserID trims and lowercases user identifiers.
func NormalizeUserID(id UserID) (UserID, error) {
	s := strings.TrimSpace(string(id))
	if s == "" {
		return "", errors.New("empty user id")
	}
	return UserID(strings.ToLower(s)), nil
}

// ValidateAchievementID ensures a non-empty id with a simple charset check.
func ValidateAchievementID(id string) error {
	s := strings.TrimSpace(id)
	if s == "" {
		return errors.New("empty achievement id")
	}
	// simple check: alnum, dash, underscore
	for _, r := range s {
		if r >= 'a' && r <= 'z' || r >= 'A' && r <= 'Z' || r >= '0' && r <= '9' || r == '-' || r == '_' {
			continue
		}
		return fmt.Errorf("invalid achievement id %q", id)
	}
	return nil
}
