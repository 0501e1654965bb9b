package analytics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"studyquest/achievements"
	"studyquest/core"
)

func TestEngagement_OnEvent(t *testing.T) {
	g := NewEngagement()
	now := time.Date(2026, 4, 15, 10, 0, 0, 0, time.UTC)

	g.OnEvent(core.Event{Type: core.EventXPAwarded, UserID: "ana", Time: now, Activity: core.ActivityStudySession, Delta: 92})
	g.OnEvent(core.Event{Type: core.EventXPAwarded, UserID: "ben", Time: now, Activity: core.ActivityQuest, Delta: 75})
	g.OnEvent(core.Event{Type: core.EventLevelUp, UserID: "ana", Time: now, Level: 1})
	g.OnEvent(core.Event{Type: core.EventLevelUp, UserID: "ana", Time: now, Level: 2})
	g.OnEvent(core.Event{Type: core.EventLevelUp, UserID: "ben", Time: now, Level: 1})
	g.OnEvent(core.Event{Type: core.EventAchievementUnlocked, UserID: "ana", Time: now, Achievement: "first_session"})
	g.OnEvent(core.Event{Type: core.EventAchievementUnlocked, UserID: "ben", Time: now, Achievement: "first_session"})
	g.OnEvent(core.Event{Type: core.EventAchievementUnlocked, UserID: "ben", Time: now, Achievement: "quests_10"})
	g.OnEvent(core.Event{Type: core.EventStreakUpdated, UserID: "ana", Time: now, StreakDays: 4})
	g.OnEvent(core.Event{Type: core.EventStreakUpdated, UserID: "ana", Time: now, StreakDays: 1})

	day := DayKey(now)
	assert.Equal(t, 2, g.DailyActiveUsers(day))
	assert.Equal(t, 2, g.WeeklyActiveUsers(WeekKey(now)))
	assert.Equal(t, 2, g.MonthlyActiveUsers("2026-04"))
	assert.Equal(t, 0, g.DailyActiveUsers("2026-04-16"))
	assert.Equal(t, int64(167), g.XPByDay(day))
	assert.Equal(t, int64(75), g.XPByActivity(core.ActivityQuest))
	assert.Equal(t, int64(3), g.LevelUpsByDay(day))
	assert.Equal(t, map[int]int{1: 1, 2: 1}, g.LevelDistribution())
	assert.Equal(t, int64(3), g.UnlocksByDay(day))
	assert.Equal(t, []AchievementCount{{"first_session", 2}, {"quests_10", 1}}, g.TopAchievements(5))
	assert.Len(t, g.TopAchievements(1), 1)
	assert.Equal(t, 4, g.LongestStreak("ana"))
}

func TestBridgeFansOut(t *testing.T) {
	a, b := NewEngagement(), NewEngagement()
	NewBridge(a, b).OnEvent(core.Event{Type: core.EventXPAwarded, UserID: "u", Time: time.Now(), Delta: 5})
	assert.Equal(t, int64(5), a.XPByDay(DayKey(time.Now())))
	assert.Equal(t, int64(5), b.XPByDay(DayKey(time.Now())))
}

func TestWeekKey(t *testing.T) {
	assert.Equal(t, "2026-W01", WeekKey(time.Date(2025, 12, 29, 0, 0, 0, 0, time.UTC)))
	assert.Equal(t, "2026-W16", WeekKey(time.Date(2026, 4, 15, 0, 0, 0, 0, time.UTC)))
}

func study(at time.Time, minutes float64, xp int64) core.ActivityRecord {
	return core.ActivityRecord{
		Event: core.ActivityEvent{Type: core.ActivityStudySession, DurationMinutes: minutes},
		At:    at,
		XP:    xp,
	}
}

func TestBuildSnapshot(t *testing.T) {
	// Wednesday
	now := time.Date(2026, 4, 15, 23, 30, 0, 0, time.UTC)
	history := []core.ActivityRecord{
		study(time.Date(2026, 3, 28, 10, 0, 0, 0, time.UTC), 60, 80),  // saturday, previous month
		study(time.Date(2026, 4, 12, 7, 15, 0, 0, time.UTC), 30, 40),  // sunday, early, previous week
		study(time.Date(2026, 4, 14, 22, 10, 0, 0, time.UTC), 45, 60), // late
		study(time.Date(2026, 4, 15, 9, 0, 0, 0, time.UTC), 20, 30),
		study(time.Date(2026, 4, 15, 23, 0, 0, 0, time.UTC), 25, 50), // late
		{Event: core.ActivityEvent{Type: core.ActivityQuest}, At: time.Date(2026, 4, 15, 12, 0, 0, 0, time.UTC), XP: 75},
		{Event: core.ActivityEvent{Type: core.ActivityTodo}, At: time.Date(2026, 4, 13, 12, 0, 0, 0, time.UTC), XP: 20},
		study(time.Date(2026, 4, 16, 9, 0, 0, 0, time.UTC), 500, 900), // future
	}
	stats := core.GameStats{TotalXP: 355, StreakDays: 4}.Recompute()

	s := BuildSnapshot(history, stats, now)

	assert.Equal(t, achievements.Values{
		TotalStudyMinutes:    180,
		StreakDays:           4,
		Level:                stats.Level,
		TotalXP:              355,
		QuestsCompleted:      1,
		StudySessions:        5,
		ConsecutiveStudyDays: 2,
		EarlyMorningSessions: 1,
		LateNightSessions:    2,
		WeekendSessions:      2,
	}, s.AllTime)

	daily := s.Windows[achievements.TimeframeDaily]
	assert.Equal(t, 45.0, daily.TotalStudyMinutes)
	assert.Equal(t, 2, daily.StudySessions)
	assert.Equal(t, 1, daily.QuestsCompleted)
	assert.Equal(t, int64(155), daily.TotalXP)
	assert.Equal(t, 1, daily.ConsecutiveStudyDays)

	weekly := s.Windows[achievements.TimeframeWeekly]
	assert.Equal(t, 90.0, weekly.TotalStudyMinutes)
	assert.Equal(t, 3, weekly.StudySessions)
	assert.Equal(t, int64(235), weekly.TotalXP)
	assert.Equal(t, 0, weekly.WeekendSessions)

	monthly := s.Windows[achievements.TimeframeMonthly]
	assert.Equal(t, 120.0, monthly.TotalStudyMinutes)
	assert.Equal(t, 1, monthly.WeekendSessions)
	assert.Equal(t, stats.Level, monthly.Level)

	assert.Equal(t, 45.0, s.Resolve(achievements.MetricTotalStudyTime, achievements.TimeframeDaily))
}

func TestBuildSnapshotUsesNowLocation(t *testing.T) {
	tokyo := time.FixedZone("JST", 9*3600)
	// 23:00 UTC on a friday is 08:00 saturday in Tokyo
	at := time.Date(2026, 4, 17, 23, 0, 0, 0, time.UTC)
	history := []core.ActivityRecord{study(at, 30, 40)}

	utc := BuildSnapshot(history, core.NewGameStats(), at.Add(time.Hour))
	assert.Equal(t, 1, utc.AllTime.LateNightSessions)
	assert.Equal(t, 0, utc.AllTime.WeekendSessions)

	jst := BuildSnapshot(history, core.NewGameStats(), at.Add(time.Hour).In(tokyo))
	assert.Equal(t, 0, jst.AllTime.LateNightSessions)
	assert.Equal(t, 0, jst.AllTime.EarlyMorningSessions)
	assert.Equal(t, 1, jst.AllTime.WeekendSessions)
}

func TestBuildSnapshotEmpty(t *testing.T) {
	s := BuildSnapshot(nil, core.NewGameStats(), time.Now())
	assert.Equal(t, achievements.Values{}, s.AllTime)
	require.Len(t, s.Windows, 3)
}

func TestPrometheusHook(t *testing.T) {
	reg := prometheus.NewRegistry()
	h := NewPrometheusHook(reg)

	h.OnEvent(core.NewXPAwarded("u", core.ActivityStudySession, 92, 92))
	h.OnEvent(core.NewXPAwarded("u", core.ActivityStudySession, 8, 100))
	h.OnEvent(core.NewLevelUp("u", 1, 100))
	h.OnEvent(core.NewAchievementUnlocked("u", core.AchievementUnlock{AchievementID: "first_session", UnlockedAt: time.Now(), XPAwarded: 25}))
	h.OnEvent(core.NewStreakUpdated("u", 3))

	assert.Equal(t, 100.0, testutil.ToFloat64(h.xpAwarded.WithLabelValues("study_session")))
	assert.Equal(t, 1.0, testutil.ToFloat64(h.levelUps))
	assert.Equal(t, 1.0, testutil.ToFloat64(h.unlocks.WithLabelValues("first_session")))
	assert.Equal(t, 2.0, testutil.ToFloat64(h.events.WithLabelValues("xp_awarded")))

	n, err := testutil.GatherAndCount(reg, "studyquest_streak_days", "studyquest_level_reached")
	require.NoError(t, err)
	assert.Equal(t, 2, n)
}
