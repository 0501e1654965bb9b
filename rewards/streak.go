package rewards

// MinStreakForBonus is the shortest streak that can earn a bonus.
const MinStreakForBonus = 3

// streakMilestones pay a fixed bonus on exact streak lengths and override
// the recurring schedule.
var streakMilestones = map[int]int64{
	7:   100,
	30:  500,
	100: 2000,
	365: 10000,
}

// streakRecurring is checked in order; the first divisor that matches wins.
var streakRecurring = []struct {
	every int
	bonus int64
}{
	{10, 50},
	{5, 25},
	{3, 10},
}

// StreakBonus returns the XP bonus for reaching a streak of the given
// length. Milestones win over the recurring every-10th/5th/3rd-day bonus;
// streaks shorter than MinStreakForBonus earn nothing.
func StreakBonus(days int) int64 {
	if days < MinStreakForBonus {
		return 0
	}
	if bonus, ok := streakMilestones[days]; ok {
		return bonus
	}
	for _, r := range streakRecurring {
		if days%r.every == 0 {
			return r.bonus
		}
	}
	return 0
}

// IsStreakMilestone reports whether days is one of the fixed milestones.
func IsStreakMilestone(days int) bool {
	_, ok := streakMilestones[days]
	return ok
}
