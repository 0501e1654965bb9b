package engine

import (
	"fmt"
	"math"
	"time"

	"studyquest/core"
)

// XPResult is the outcome of applying an XP delta to stats.
type XPResult struct {
	Stats core.GameStats
	// Applied is the change actually made to TotalXP after clamping.
	Applied   int64
	LeveledUp bool
	NewLevel  int
}

// ApplyXP adds delta to stats.TotalXP, clamping the total at zero and
// saturating at MaxInt64, then rebuilds the derived level fields. The weekly
// counters are advanced for activity's category; an activity with an empty
// type only counts toward weekly XP.
//
// ApplyXP is pure. Callers persist the returned stats, normally through
// Storage.UpdateStats so concurrent updates of one user are serialized.
func ApplyXP(stats core.GameStats, delta int64, activity core.ActivityEvent) XPResult {
	before := stats.Recompute()
	total, err := core.AddSafe(before.TotalXP, delta)
	if err != nil {
		total = math.MaxInt64
	}
	if total < 0 {
		total = 0
	}
	after := before
	after.TotalXP = total
	after = after.Recompute()

	applied := after.TotalXP - before.TotalXP
	if applied > 0 {
		if w, err := core.AddSafe(after.Weekly.XPEarned, applied); err == nil {
			after.Weekly.XPEarned = w
		}
	}
	switch activity.Type {
	case core.ActivityStudySession:
		if m := activity.DurationMinutes; m > 0 && !math.IsInf(m, 0) {
			after.Weekly.StudyMinutes += m
		}
	case core.ActivityQuest:
		after.Weekly.QuestsCompleted++
	case core.ActivityTodo:
		after.Weekly.TasksCompleted++
	}

	return XPResult{
		Stats:     after,
		Applied:   applied,
		LeveledUp: after.Level > before.Level,
		NewLevel:  after.Level,
	}
}

// RevertXP undoes an ApplyXP that paid applied XP for activity. Weekly
// counters are decremented but never below zero, so a revert after a week
// rollover leaves the new week untouched.
func RevertXP(stats core.GameStats, applied int64, activity core.ActivityEvent) core.GameStats {
	if applied < 0 {
		applied = 0
	}
	after := ApplyXP(stats, -applied, core.ActivityEvent{}).Stats
	after.Weekly.XPEarned = max(after.Weekly.XPEarned-applied, 0)
	switch activity.Type {
	case core.ActivityStudySession:
		if m := activity.DurationMinutes; m > 0 && !math.IsInf(m, 0) {
			after.Weekly.StudyMinutes = math.Max(after.Weekly.StudyMinutes-m, 0)
		}
	case core.ActivityQuest:
		after.Weekly.QuestsCompleted = max(after.Weekly.QuestsCompleted-1, 0)
	case core.ActivityTodo:
		after.Weekly.TasksCompleted = max(after.Weekly.TasksCompleted-1, 0)
	}
	return after
}

// ISOWeek formats t's ISO week as "2006-W01".
func ISOWeek(t time.Time) string {
	year, week := t.ISOWeek()
	return fmt.Sprintf("%d-W%02d", year, week)
}

// RollWeek resets the weekly counters when now falls in a different ISO week
// than the one they were collected for.
func RollWeek(stats core.GameStats, now time.Time) core.GameStats {
	week := ISOWeek(now)
	if stats.Weekly.Week != week {
		stats.Weekly = core.WeeklyStats{Week: week}
	}
	return stats
}
