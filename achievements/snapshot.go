package achievements

// Values holds one number per metric.
type Values struct {
	TotalStudyMinutes    float64 `json:"total_study_time"`
	StreakDays           int     `json:"streak_days"`
	Level                int     `json:"level"`
	TotalXP              int64   `json:"total_xp"`
	QuestsCompleted      int     `json:"quests_completed"`
	StudySessions        int     `json:"study_sessions"`
	ConsecutiveStudyDays int     `json:"consecutive_study_days"`
	EarlyMorningSessions int     `json:"early_morning_sessions"`
	LateNightSessions    int     `json:"late_night_sessions"`
	WeekendSessions      int     `json:"weekend_sessions"`
}

// Get resolves a metric. Unknown metrics resolve to 0.
func (v Values) Get(m Metric) float64 {
	switch m {
	case MetricTotalStudyTime:
		return v.TotalStudyMinutes
	case MetricStreakDays:
		return float64(v.StreakDays)
	case MetricLevel:
		return float64(v.Level)
	case MetricTotalXP:
		return float64(v.TotalXP)
	case MetricQuestsCompleted:
		return float64(v.QuestsCompleted)
	case MetricStudySessions:
		return float64(v.StudySessions)
	case MetricConsecutiveStudyDays:
		return float64(v.ConsecutiveStudyDays)
	case MetricEarlyMorningSessions:
		return float64(v.EarlyMorningSessions)
	case MetricLateNightSessions:
		return float64(v.LateNightSessions)
	case MetricWeekendSessions:
		return float64(v.WeekendSessions)
	default:
		return 0
	}
}

// Snapshot is a point-in-time view of a user's metrics. AllTime covers the
// whole history; Windows optionally holds the same metrics restricted to a
// daily, weekly or monthly window.
type Snapshot struct {
	AllTime Values               `json:"all_time"`
	Windows map[Timeframe]Values `json:"windows,omitempty"`
}

// Resolve returns the value of m in timeframe tf. A timeframe the snapshot
// carries no window for resolves to 0.
func (s Snapshot) Resolve(m Metric, tf Timeframe) float64 {
	tf = tf.normalize()
	if tf == TimeframeAllTime {
		return s.AllTime.Get(m)
	}
	w, ok := s.Windows[tf]
	if !ok {
		return 0
	}
	return w.Get(m)
}
