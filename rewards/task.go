package rewards

import "math"

// Timing says when a todo item was completed relative to its due date.
type Timing string

const (
	TimingEarly  Timing = "early"
	TimingOnTime Timing = "on_time"
	TimingLate   Timing = "late"
)

const (
	EarlyTaskXP  = 30
	OnTimeTaskXP = 20
	LateTaskXP   = 10

	// TaskEffortBonus is paid for every full TaskEffortBlockMinutes of
	// estimated effort, up to TaskEffortMaxBlocks blocks.
	TaskEffortBonus        = 5
	TaskEffortBlockMinutes = 30
	TaskEffortMaxBlocks    = 8
)

// TimingOf derives the timing bucket from completion flags. Early wins over
// on-time; neither flag means late.
func TimingOf(completedEarly, completedOnTime bool) Timing {
	switch {
	case completedEarly:
		return TimingEarly
	case completedOnTime:
		return TimingOnTime
	default:
		return TimingLate
	}
}

// TaskBaseXP returns the base reward of a timing bucket. Unknown buckets pay
// the late rate.
func TaskBaseXP(t Timing) int64 {
	switch t {
	case TimingEarly:
		return EarlyTaskXP
	case TimingOnTime:
		return OnTimeTaskXP
	default:
		return LateTaskXP
	}
}

// TaskEffortXP is the flat bonus for a todo's estimated effort.
func TaskEffortXP(estimatedMinutes float64) int64 {
	blocks := int64(math.Floor(sanitizeMinutes(estimatedMinutes) / TaskEffortBlockMinutes))
	if blocks > TaskEffortMaxBlocks {
		blocks = TaskEffortMaxBlocks
	}
	return blocks * TaskEffortBonus
}

// TaskXP pays a completed todo item.
func TaskXP(t Timing, estimatedMinutes float64) int64 {
	return TaskBaseXP(t) + TaskEffortXP(estimatedMinutes)
}
