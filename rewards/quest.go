package rewards

import "studyquest/core"

// Base rewards per quest category.
const (
	DailyQuestXP     = 50
	WeeklyQuestXP    = 150
	MilestoneQuestXP = 300
	BonusQuestXP     = 75

	// DefaultQuestXP is paid for quest types the engine does not know.
	DefaultQuestXP = DailyQuestXP

	// EarlyCompletionMultiplier rewards quests finished before their deadline.
	EarlyCompletionMultiplier = 1.25
)

// QuestBaseXP returns the base reward of a quest category.
func QuestBaseXP(t core.QuestType) int64 {
	switch t {
	case core.QuestDaily:
		return DailyQuestXP
	case core.QuestWeekly:
		return WeeklyQuestXP
	case core.QuestMilestone:
		return MilestoneQuestXP
	case core.QuestBonus:
		return BonusQuestXP
	default:
		return DefaultQuestXP
	}
}

// QuestDifficultyMultiplier scales quest rewards. Unknown values score as
// medium.
func QuestDifficultyMultiplier(d core.Difficulty) float64 {
	switch d {
	case core.DifficultyEasy:
		return 1.0
	case core.DifficultyHard:
		return 2.0
	case core.DifficultyExpert:
		return 2.5
	default:
		return 1.5
	}
}

// QuestXP pays a completed quest: floor(base * difficulty), then
// floor(x * 1.25) when it was completed early. The result is at least 1.
func QuestXP(t core.QuestType, d core.Difficulty, completedEarly bool) int64 {
	xp := floorXP(float64(QuestBaseXP(t))*QuestDifficultyMultiplier(d), 1)
	if completedEarly {
		xp = floorXP(float64(xp)*EarlyCompletionMultiplier, 1)
	}
	return xp
}
