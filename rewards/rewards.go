// Package rewards computes the XP paid for completed activities.
//
// Every function here is pure and deterministic. Invalid numeric input is
// clamped and unknown enum values fall back to documented defaults, so no
// function returns an error or a negative value.
package rewards

import (
	"math"

	"studyquest/core"
)

// ForActivity dispatches an activity to its formula.
func ForActivity(ev core.ActivityEvent) int64 {
	switch ev.Type {
	case core.ActivityStudySession:
		return StudySessionXP(ev.DurationMinutes, ev.Difficulty, ev.FocusPercent)
	case core.ActivityQuest:
		return QuestXP(ev.QuestType, ev.Difficulty, ev.CompletedEarly)
	case core.ActivityTodo:
		return TaskXP(TimingOf(ev.CompletedEarly, ev.CompletedOnTime), ev.EstimatedMinutes)
	case core.ActivityStreakBonus:
		return StreakBonus(ev.StreakDays)
	}
	return 0
}

// floorXP truncates a computed reward and enforces a lower bound.
func floorXP(v float64, lo int64) int64 {
	if math.IsNaN(v) || v < float64(lo) {
		return lo
	}
	if v >= math.MaxInt64 {
		return math.MaxInt64
	}
	// absorb float noise such as 76.99999999999999
	return int64(math.Floor(v + 1e-9))
}

// addCapped adds a non-negative bonus, saturating at math.MaxInt64.
func addCapped(xp, bonus int64) int64 {
	if xp > math.MaxInt64-bonus {
		return math.MaxInt64
	}
	return xp + bonus
}

// sanitizeMinutes maps NaN, infinities and negatives to 0.
func sanitizeMinutes(m float64) float64 {
	if math.IsNaN(m) || math.IsInf(m, 0) || m < 0 {
		return 0
	}
	return m
}
