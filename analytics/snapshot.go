package analytics

import (
	"math"
	"time"

	"studyquest/achievements"
	"studyquest/core"
	"studyquest/streak"
)

// Hours that bound the early-morning and late-night session counters.
const (
	EarlyMorningBefore = 8
	LateNightFrom      = 22
)

// BuildSnapshot derives the metrics snapshot used to evaluate achievements
// from a user's activity history and current stats.
//
// Clock-based counters (early morning, late night, weekend) and the
// daily/weekly/monthly windows use now's location. Records after now are
// ignored. Level and streak are point-in-time values and are copied into
// every window; the window's TotalXP is the XP earned inside it.
func BuildSnapshot(history []core.ActivityRecord, stats core.GameStats, now time.Time) achievements.Snapshot {
	loc := now.Location()
	y, m, d := now.Date()
	dayStart := time.Date(y, m, d, 0, 0, 0, 0, loc)
	weekday := (int(dayStart.Weekday()) + 6) % 7 // monday = 0
	weekStart := dayStart.AddDate(0, 0, -weekday)
	monthStart := time.Date(y, m, 1, 0, 0, 0, 0, loc)

	windows := []struct {
		tf    achievements.Timeframe
		start time.Time
	}{
		{achievements.TimeframeAllTime, time.Time{}},
		{achievements.TimeframeDaily, dayStart},
		{achievements.TimeframeWeekly, weekStart},
		{achievements.TimeframeMonthly, monthStart},
	}

	acc := make([]accumulator, len(windows))
	for _, rec := range history {
		if rec.At.IsZero() || rec.At.After(now) {
			continue
		}
		for i, w := range windows {
			if w.tf != achievements.TimeframeAllTime && rec.At.Before(w.start) {
				continue
			}
			acc[i].add(rec, loc)
		}
	}

	snap := achievements.Snapshot{Windows: make(map[achievements.Timeframe]achievements.Values, len(windows)-1)}
	for i, w := range windows {
		v := acc[i].values(now)
		v.Level = stats.Level
		v.StreakDays = stats.StreakDays
		if w.tf == achievements.TimeframeAllTime {
			v.TotalXP = stats.TotalXP
			snap.AllTime = v
			continue
		}
		snap.Windows[w.tf] = v
	}
	return snap
}

type accumulator struct {
	studyMinutes float64
	sessions     int
	quests       int
	early        int
	late         int
	weekend      int
	xp           int64
	studyDates   []time.Time
}

func (a *accumulator) add(rec core.ActivityRecord, loc *time.Location) {
	if rec.XP > 0 && a.xp <= math.MaxInt64-rec.XP {
		a.xp += rec.XP
	}
	switch rec.Event.Type {
	case core.ActivityQuest:
		a.quests++
	case core.ActivityStudySession:
		if m := rec.Event.DurationMinutes; m > 0 && !math.IsInf(m, 0) {
			a.studyMinutes += m
		}
		a.sessions++
		a.studyDates = append(a.studyDates, rec.At)
		local := rec.At.In(loc)
		if local.Hour() < EarlyMorningBefore {
			a.early++
		}
		if local.Hour() >= LateNightFrom {
			a.late++
		}
		if wd := local.Weekday(); wd == time.Saturday || wd == time.Sunday {
			a.weekend++
		}
	}
}

func (a *accumulator) values(now time.Time) achievements.Values {
	return achievements.Values{
		TotalStudyMinutes:    a.studyMinutes,
		TotalXP:              a.xp,
		QuestsCompleted:      a.quests,
		StudySessions:        a.sessions,
		ConsecutiveStudyDays: streak.Compute(a.studyDates, now),
		EarlyMorningSessions: a.early,
		LateNightSessions:    a.late,
		WeekendSessions:      a.weekend,
	}
}
