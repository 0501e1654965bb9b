package achievements

import (
	"fmt"
	"math"
)

// Progress is the partial completion of a requirement.
type Progress struct {
	Current     float64 `json:"current"`
	Target      float64 `json:"target"`
	Percent     float64 `json:"percent"`
	Description string  `json:"description"`
}

var metricTemplates = map[Metric]string{
	MetricTotalStudyTime:       "Study for %s minutes",
	MetricStreakDays:           "Reach a %s-day streak",
	MetricLevel:                "Reach level %s",
	MetricTotalXP:              "Earn %s XP",
	MetricQuestsCompleted:      "Complete %s quests",
	MetricStudySessions:        "Complete %s study sessions",
	MetricConsecutiveStudyDays: "Study %s days in a row",
	MetricEarlyMorningSessions: "Complete %s study sessions before 8 AM",
	MetricLateNightSessions:    "Complete %s study sessions after 10 PM",
	MetricWeekendSessions:      "Complete %s study sessions on weekends",
}

// Describe renders a leaf condition as a sentence.
func Describe(leaf Requirement) string {
	tmpl, ok := metricTemplates[leaf.Metric]
	if !ok {
		return fmt.Sprintf("%s %s %s%s", leaf.Metric, leaf.Op.normalize(), leaf.Value, leaf.Timeframe.suffix())
	}
	return fmt.Sprintf(tmpl, leaf.Value) + leaf.Timeframe.suffix()
}

// ProgressOf reports how far s is from satisfying r.
//
// Composite requirements report the progress of their first leaf only.
// Current is clamped to [0, Target] and never exceeds the target.
func ProgressOf(r Requirement, s Snapshot) Progress {
	leaf, ok := FirstLeaf(r)
	if !ok {
		return Progress{}
	}
	target := 0.0
	if !leaf.Value.IsString && !math.IsNaN(leaf.Value.Num) {
		target = math.Max(leaf.Value.Num, 0)
	}
	current := s.Resolve(leaf.Metric, leaf.Timeframe)
	if math.IsNaN(current) || current < 0 {
		current = 0
	}
	if current > target {
		current = target
	}
	p := Progress{Current: current, Target: target, Description: Describe(leaf)}
	if target > 0 {
		p.Percent = current / target * 100
	}
	return p
}
