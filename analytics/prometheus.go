package analytics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"studyquest/core"
)

// PrometheusHook exports scoring events as Prometheus metrics.
type PrometheusHook struct {
	xpAwarded    *prometheus.CounterVec
	levelUps     prometheus.Counter
	levelReached prometheus.Histogram
	unlocks      *prometheus.CounterVec
	streakDays   prometheus.Histogram
	events       *prometheus.CounterVec
}

// NewPrometheusHook registers the scoring metrics with reg. A nil reg uses
// the default registerer.
func NewPrometheusHook(reg prometheus.Registerer) *PrometheusHook {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	f := promauto.With(reg)
	return &PrometheusHook{
		xpAwarded: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: "studyquest",
			Name:      "xp_awarded_total",
			Help:      "Total XP awarded, by activity type.",
		}, []string{"activity"}),
		levelUps: f.NewCounter(prometheus.CounterOpts{
			Namespace: "studyquest",
			Name:      "level_ups_total",
			Help:      "Total level-up events.",
		}),
		levelReached: f.NewHistogram(prometheus.HistogramOpts{
			Namespace: "studyquest",
			Name:      "level_reached",
			Help:      "Levels reached on level-up.",
			Buckets:   []float64{1, 2, 5, 10, 15, 20, 30, 50, 75, 100},
		}),
		unlocks: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: "studyquest",
			Name:      "achievements_unlocked_total",
			Help:      "Total achievement unlocks, by achievement id.",
		}, []string{"achievement"}),
		streakDays: f.NewHistogram(prometheus.HistogramOpts{
			Namespace: "studyquest",
			Name:      "streak_days",
			Help:      "Streak length on each streak update.",
			Buckets:   []float64{1, 3, 7, 14, 30, 60, 100, 365},
		}),
		events: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: "studyquest",
			Name:      "events_total",
			Help:      "Domain events observed, by type.",
		}, []string{"type"}),
	}
}

func (p *PrometheusHook) OnEvent(e core.Event) {
	p.events.WithLabelValues(string(e.Type)).Inc()
	switch e.Type {
	case core.EventXPAwarded:
		if e.Delta > 0 {
			p.xpAwarded.WithLabelValues(string(e.Activity)).Add(float64(e.Delta))
		}
	case core.EventLevelUp:
		p.levelUps.Inc()
		p.levelReached.Observe(float64(e.Level))
	case core.EventAchievementUnlocked:
		p.unlocks.WithLabelValues(e.Achievement).Inc()
	case core.EventStreakUpdated:
		p.streakDays.Observe(float64(e.StreakDays))
	}
}
