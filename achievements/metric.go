package achievements

import "strings"

// Metric names a value an achievement condition can test.
type Metric string

const (
	MetricTotalStudyTime       Metric = "total_study_time"
	MetricStreakDays           Metric = "streak_days"
	MetricLevel                Metric = "level"
	MetricTotalXP              Metric = "total_xp"
	MetricQuestsCompleted      Metric = "quests_completed"
	MetricStudySessions        Metric = "study_sessions"
	MetricConsecutiveStudyDays Metric = "consecutive_study_days"
	MetricEarlyMorningSessions Metric = "early_morning_sessions"
	MetricLateNightSessions    Metric = "late_night_sessions"
	MetricWeekendSessions      Metric = "weekend_sessions"
)

// Metrics lists every known metric.
var Metrics = []Metric{
	MetricTotalStudyTime,
	MetricStreakDays,
	MetricLevel,
	MetricTotalXP,
	MetricQuestsCompleted,
	MetricStudySessions,
	MetricConsecutiveStudyDays,
	MetricEarlyMorningSessions,
	MetricLateNightSessions,
	MetricWeekendSessions,
}

// Known reports whether m is one of Metrics.
func (m Metric) Known() bool {
	for _, k := range Metrics {
		if m == k {
			return true
		}
	}
	return false
}

// Timeframe scopes a metric to a window ending now.
type Timeframe string

const (
	TimeframeAllTime Timeframe = "all_time"
	TimeframeDaily   Timeframe = "daily"
	TimeframeWeekly  Timeframe = "weekly"
	TimeframeMonthly Timeframe = "monthly"
)

// normalize maps the empty timeframe to all_time and lowercases the rest.
func (t Timeframe) normalize() Timeframe {
	s := Timeframe(strings.ToLower(strings.TrimSpace(string(t))))
	if s == "" {
		return TimeframeAllTime
	}
	return s
}

func (t Timeframe) suffix() string {
	switch t.normalize() {
	case TimeframeDaily:
		return " today"
	case TimeframeWeekly:
		return " this week"
	case TimeframeMonthly:
		return " this month"
	}
	return ""
}
