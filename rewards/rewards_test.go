package rewards

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"

	"studyquest/core"
)

func TestStudySessionXP(t *testing.T) {
	tests := []struct {
		name    string
		minutes float64
		diff    core.Difficulty
		focus   float64
		want    int64
	}{
		{"medium band with unmeasured focus", 30, core.DifficultyMedium, 0, 77 + DeepFocusBonus},
		{"short easy half focus", 20, core.DifficultyEasy, 50, 20},
		{"long hard below deep focus", 60, core.DifficultyHard, 80, 169},
		{"marathon expert deep focus", 120, core.DifficultyExpert, 95, 570 + DeepFocusBonus},
		{"zero duration", 0, core.DifficultyHard, 100, 0},
		{"negative duration", -15, core.DifficultyHard, 100, 0},
		{"nan duration", math.NaN(), core.DifficultyHard, 100, 0},
		{"tiny session floors at one", 0.1, core.DifficultyEasy, 10, 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, StudySessionXP(tt.minutes, tt.diff, tt.focus))
		})
	}
}

func TestStudySessionXPSaturatesOnHugeDuration(t *testing.T) {
	for _, minutes := range []float64{1e18, 1e300, math.MaxFloat64} {
		got := StudySessionXP(minutes, core.DifficultyExpert, 100)
		assert.Equal(t, int64(math.MaxInt64), got, "minutes=%v", minutes)
	}
	assert.Equal(t, int64(math.MaxInt64), ForActivity(core.ActivityEvent{
		Type:            core.ActivityStudySession,
		DurationMinutes: 1e300,
		Difficulty:      core.DifficultyMedium,
	}))
}

func TestStudySessionUnknownDifficultyIsMedium(t *testing.T) {
	assert.Equal(t,
		StudySessionXP(45, core.DifficultyMedium, 70),
		StudySessionXP(45, "impossible", 70))
}

func TestBandOf(t *testing.T) {
	assert.Equal(t, BandShort, BandOf(24.9))
	assert.Equal(t, BandMedium, BandOf(25))
	assert.Equal(t, BandLong, BandOf(60))
	assert.Equal(t, BandMarathon, BandOf(120))
	assert.Equal(t, BandShort, BandOf(math.NaN()))
}

func TestQuestXPMonotonicInDifficulty(t *testing.T) {
	for _, qt := range []core.QuestType{core.QuestDaily, core.QuestWeekly, core.QuestMilestone, core.QuestBonus} {
		easy := QuestXP(qt, core.DifficultyEasy, false)
		medium := QuestXP(qt, core.DifficultyMedium, false)
		hard := QuestXP(qt, core.DifficultyHard, false)
		expert := QuestXP(qt, core.DifficultyExpert, false)
		assert.Less(t, easy, medium, "quest type %s", qt)
		assert.Less(t, medium, hard, "quest type %s", qt)
		assert.Less(t, hard, expert, "quest type %s", qt)
	}
}

func TestQuestXPValues(t *testing.T) {
	assert.Equal(t, int64(75), QuestXP(core.QuestDaily, core.DifficultyMedium, false))
	assert.Equal(t, int64(93), QuestXP(core.QuestDaily, core.DifficultyMedium, true))
	assert.Equal(t, int64(600), QuestXP(core.QuestMilestone, core.DifficultyHard, false))
	assert.Equal(t, int64(750), QuestXP(core.QuestMilestone, core.DifficultyHard, true))
	// unknown type and difficulty fall back to base 50 and medium
	assert.Equal(t, int64(75), QuestXP("raid", "nightmare", false))
}

func TestTaskXP(t *testing.T) {
	assert.Equal(t, int64(30), TaskXP(TimingEarly, 0))
	assert.Equal(t, int64(20), TaskXP(TimingOnTime, 29))
	assert.Equal(t, int64(25), TaskXP(TimingOnTime, 30))
	assert.Equal(t, int64(20), TaskXP(TimingLate, 60))
	assert.Equal(t, int64(10+TaskEffortMaxBlocks*TaskEffortBonus), TaskXP(TimingLate, 10_000))
	assert.Equal(t, int64(10), TaskXP(TimingLate, -60))
	assert.Equal(t, int64(10), TaskXP("whenever", math.NaN()))
}

func TestTimingOf(t *testing.T) {
	assert.Equal(t, TimingEarly, TimingOf(true, true))
	assert.Equal(t, TimingOnTime, TimingOf(false, true))
	assert.Equal(t, TimingLate, TimingOf(false, false))
}

func TestStreakBonus(t *testing.T) {
	tests := []struct {
		days int
		want int64
	}{
		{-1, 0}, {0, 0}, {1, 0}, {2, 0},
		{3, 10}, {4, 0}, {5, 25}, {6, 10},
		{7, 100},
		{9, 10}, {10, 50}, {15, 25}, {20, 50},
		{30, 500}, {60, 50},
		{100, 2000}, {365, 10000}, {730, 50},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, StreakBonus(tt.days), "days=%d", tt.days)
	}
	assert.True(t, IsStreakMilestone(30))
	assert.False(t, IsStreakMilestone(31))
}

func TestForActivity(t *testing.T) {
	assert.Equal(t, StudySessionXP(45, core.DifficultyHard, 90),
		ForActivity(core.ActivityEvent{Type: core.ActivityStudySession, DurationMinutes: 45, Difficulty: core.DifficultyHard, FocusPercent: 90}))
	assert.Equal(t, int64(93),
		ForActivity(core.ActivityEvent{Type: core.ActivityQuest, QuestType: core.QuestDaily, Difficulty: core.DifficultyMedium, CompletedEarly: true}))
	assert.Equal(t, int64(25),
		ForActivity(core.ActivityEvent{Type: core.ActivityTodo, CompletedOnTime: true, EstimatedMinutes: 45}))
	assert.Equal(t, int64(100),
		ForActivity(core.ActivityEvent{Type: core.ActivityStreakBonus, StreakDays: 7}))
	assert.Equal(t, int64(0), ForActivity(core.ActivityEvent{Type: "unknown"}))
}

func TestRewardsAreDeterministic(t *testing.T) {
	ev := core.ActivityEvent{Type: core.ActivityStudySession, DurationMinutes: 73.5, Difficulty: core.DifficultyExpert, FocusPercent: 88}
	first := ForActivity(ev)
	for i := 0; i < 10; i++ {
		assert.Equal(t, first, ForActivity(ev))
	}
}
