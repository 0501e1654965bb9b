package engine

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"studyquest/core"
)

func TestApplyXPOrderIndependent(t *testing.T) {
	start := core.NewGameStats()
	none := core.ActivityEvent{}

	a := ApplyXP(ApplyXP(start, 50, none).Stats, 300, none).Stats
	b := ApplyXP(ApplyXP(start, 300, none).Stats, 50, none).Stats

	assert.Equal(t, a.TotalXP, b.TotalXP)
	assert.Equal(t, a.Level, b.Level)
	assert.Equal(t, a.CurrentXP, b.CurrentXP)
	assert.Equal(t, a.XPToNextLevel, b.XPToNextLevel)
	assert.Equal(t, int64(350), a.TotalXP)
	assert.Equal(t, 2, a.Level)
	assert.Equal(t, int64(100), a.CurrentXP)
}

func TestApplyXPLevelUp(t *testing.T) {
	r := ApplyXP(core.NewGameStats(), 99, core.ActivityEvent{})
	assert.False(t, r.LeveledUp)
	assert.Equal(t, 0, r.NewLevel)

	r = ApplyXP(r.Stats, 1, core.ActivityEvent{})
	assert.True(t, r.LeveledUp)
	assert.Equal(t, 1, r.NewLevel)
	assert.Equal(t, int64(0), r.Stats.CurrentXP)
	assert.Equal(t, int64(150), r.Stats.XPToNextLevel)

	// several levels at once
	r = ApplyXP(core.NewGameStats(), 4000, core.ActivityEvent{})
	assert.True(t, r.LeveledUp)
	assert.Equal(t, 10, r.NewLevel)
}

func TestApplyXPClamps(t *testing.T) {
	st := ApplyXP(core.NewGameStats(), 40, core.ActivityEvent{}).Stats
	r := ApplyXP(st, -100, core.ActivityEvent{})
	assert.Equal(t, int64(0), r.Stats.TotalXP)
	assert.Equal(t, int64(-40), r.Applied)
	assert.False(t, r.LeveledUp)

	st = core.GameStats{TotalXP: math.MaxInt64 - 5}.Recompute()
	r = ApplyXP(st, 100, core.ActivityEvent{})
	assert.Equal(t, int64(math.MaxInt64), r.Stats.TotalXP)
	assert.Equal(t, int64(5), r.Applied)
	assert.Equal(t, core.MaxLevel, r.Stats.Level)
}

func TestApplyXPRepairsStaleDerivedFields(t *testing.T) {
	stale := core.GameStats{TotalXP: 300, Level: 9, CurrentXP: 1}
	r := ApplyXP(stale, 0, core.ActivityEvent{})
	assert.Equal(t, 2, r.Stats.Level)
	assert.Equal(t, int64(50), r.Stats.CurrentXP)
}

func TestApplyXPWeeklyCounters(t *testing.T) {
	st := core.NewGameStats()
	st = ApplyXP(st, 92, core.ActivityEvent{Type: core.ActivityStudySession, DurationMinutes: 30}).Stats
	st = ApplyXP(st, 75, core.ActivityEvent{Type: core.ActivityQuest}).Stats
	st = ApplyXP(st, 20, core.ActivityEvent{Type: core.ActivityTodo}).Stats
	st = ApplyXP(st, 10, core.ActivityEvent{Type: core.ActivityStreakBonus, StreakDays: 3}).Stats
	st = ApplyXP(st, 25, core.ActivityEvent{}).Stats

	assert.Equal(t, 30.0, st.Weekly.StudyMinutes)
	assert.Equal(t, 1, st.Weekly.QuestsCompleted)
	assert.Equal(t, 1, st.Weekly.TasksCompleted)
	assert.Equal(t, int64(222), st.Weekly.XPEarned)
	assert.Equal(t, int64(222), st.TotalXP)
}

func TestRollWeek(t *testing.T) {
	wed := time.Date(2026, 4, 15, 12, 0, 0, 0, time.UTC)
	st := RollWeek(core.NewGameStats(), wed)
	assert.Equal(t, "2026-W16", st.Weekly.Week)

	st = ApplyXP(st, 50, core.ActivityEvent{Type: core.ActivityQuest}).Stats
	same := RollWeek(st, wed.AddDate(0, 0, 4)) // sunday
	assert.Equal(t, 1, same.Weekly.QuestsCompleted)

	next := RollWeek(st, wed.AddDate(0, 0, 5)) // monday
	assert.Equal(t, core.WeeklyStats{Week: "2026-W17"}, next.Weekly)
	assert.Equal(t, st.TotalXP, next.TotalXP)
}

func TestRevertXPUndoesApplyXP(t *testing.T) {
	base := core.GameStats{TotalXP: 120, Weekly: core.WeeklyStats{Week: "2026-W16", TasksCompleted: 2, XPEarned: 120}}.Recompute()
	study := core.ActivityEvent{Type: core.ActivityStudySession, DurationMinutes: 30}
	r := ApplyXP(base, 92, study)

	back := RevertXP(r.Stats, r.Applied, study)
	assert.Equal(t, base, back)

	// counters from a rolled-over week stay at zero
	fresh := core.GameStats{TotalXP: 50, Weekly: core.WeeklyStats{Week: "2026-W17"}}.Recompute()
	back = RevertXP(fresh, 20, core.ActivityEvent{Type: core.ActivityTodo})
	assert.Equal(t, int64(30), back.TotalXP)
	assert.Equal(t, 0, back.Weekly.TasksCompleted)
	assert.Equal(t, int64(0), back.Weekly.XPEarned)
}
