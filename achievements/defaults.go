package achievements

// DefaultDefinitions returns the built-in achievement set.
func DefaultDefinitions() []Definition {
	return []Definition{
		// study time and sessions
		{
			ID: "first_session", Name: "First Steps", Category: CategoryStudy, Rarity: RarityCommon,
			Description: "Complete your first study session", Icon: "📖", XPReward: 25,
			Requirement: Cond(MetricStudySessions, OpGTE, 1),
		},
		{
			ID: "study_hour", Name: "Hour of Power", Category: CategoryStudy, Rarity: RarityCommon,
			Description: "Study for a total of one hour", Icon: "⏱️", XPReward: 50,
			Requirement: Cond(MetricTotalStudyTime, OpGTE, 60),
		},
		{
			ID: "study_5_hours", Name: "Bookworm", Category: CategoryStudy, Rarity: RarityCommon,
			Description: "Study for a total of five hours", Icon: "🐛", XPReward: 100,
			Requirement: Cond(MetricTotalStudyTime, OpGTE, 300),
		},
		{
			ID: "study_50_hours", Name: "Scholar", Category: CategoryStudy, Rarity: RarityEpic,
			Description: "Study for a total of fifty hours", Icon: "🎓", XPReward: 500,
			Requirement: Cond(MetricTotalStudyTime, OpGTE, 3000),
		},
		{
			ID: "sessions_50", Name: "Regular", Category: CategoryStudy, Rarity: RarityRare,
			Description: "Complete 50 study sessions", Icon: "📚", XPReward: 200,
			Requirement: Cond(MetricStudySessions, OpGTE, 50),
		},
		{
			ID: "daily_grind", Name: "Daily Grind", Category: CategoryStudy, Rarity: RarityRare,
			Description: "Study for three hours in a single day", Icon: "☕", XPReward: 100,
			Requirement: Cond(MetricTotalStudyTime, OpGTE, 180).Within(TimeframeDaily),
		},
		{
			ID: "weekly_focus", Name: "Focused Week", Category: CategoryStudy, Rarity: RarityRare,
			Description: "Complete 10 study sessions in one week", Icon: "🗓️", XPReward: 150,
			Requirement: Cond(MetricStudySessions, OpGTE, 10).Within(TimeframeWeekly),
		},

		// streaks
		{
			ID: "streak_3", Name: "Warming Up", Category: CategoryStreak, Rarity: RarityCommon,
			Description: "Keep a 3-day streak", Icon: "🔥", XPReward: 30,
			Requirement: Cond(MetricStreakDays, OpGTE, 3),
		},
		{
			ID: "streak_7", Name: "Week Warrior", Category: CategoryStreak, Rarity: RarityRare,
			Description: "Keep a 7-day streak", Icon: "🔥", XPReward: 100,
			Requirement: Cond(MetricStreakDays, OpGTE, 7),
		},
		{
			ID: "streak_30", Name: "Monthly Master", Category: CategoryStreak, Rarity: RarityEpic,
			Description: "Keep a 30-day streak", Icon: "💪", XPReward: 500,
			Requirement: Cond(MetricStreakDays, OpGTE, 30),
		},
		{
			ID: "streak_100", Name: "Unstoppable", Category: CategoryStreak, Rarity: RarityLegendary,
			Description: "Keep a 100-day streak", Icon: "💎", XPReward: 2000,
			Requirement: Cond(MetricStreakDays, OpGTE, 100),
		},

		// levels and xp
		{
			ID: "level_5", Name: "Apprentice", Category: CategoryLevel, Rarity: RarityCommon,
			Description: "Reach level 5", Icon: "⭐", XPReward: 50,
			Requirement: Cond(MetricLevel, OpGTE, 5),
		},
		{
			ID: "level_10", Name: "Adept", Category: CategoryLevel, Rarity: RarityRare,
			Description: "Reach level 10", Icon: "🌟", XPReward: 150,
			Requirement: Cond(MetricLevel, OpGTE, 10),
		},
		{
			ID: "level_25", Name: "Sage", Category: CategoryLevel, Rarity: RarityEpic,
			Description: "Reach level 25", Icon: "🧙", XPReward: 600,
			Requirement: Cond(MetricLevel, OpGTE, 25),
		},
		{
			ID: "xp_10000", Name: "Ten Thousand", Category: CategoryLevel, Rarity: RarityEpic,
			Description: "Earn 10,000 XP", Icon: "🏆", XPReward: 400,
			Requirement: Cond(MetricTotalXP, OpGTE, 10000),
		},

		// quests
		{
			ID: "quests_10", Name: "Quest Taker", Category: CategoryQuest, Rarity: RarityCommon,
			Description: "Complete 10 quests", Icon: "🗺️", XPReward: 75,
			Requirement: Cond(MetricQuestsCompleted, OpGTE, 10),
		},
		{
			ID: "quests_100", Name: "Quest Legend", Category: CategoryQuest, Rarity: RarityEpic,
			Description: "Complete 100 quests", Icon: "🐉", XPReward: 500,
			Requirement: Cond(MetricQuestsCompleted, OpGTE, 100),
		},

		// time of day
		{
			ID: "early_bird", Name: "Early Bird", Category: CategoryTimeOfDay, Rarity: RarityRare,
			Description: "Complete 10 study sessions before 8 AM", Icon: "🌅", XPReward: 150,
			Requirement: Cond(MetricEarlyMorningSessions, OpGTE, 10),
		},
		{
			ID: "night_owl", Name: "Night Owl", Category: CategoryTimeOfDay, Rarity: RarityRare,
			Description: "Complete 10 study sessions after 10 PM", Icon: "🦉", XPReward: 150,
			Requirement: Cond(MetricLateNightSessions, OpGTE, 10),
		},
		{
			ID: "weekend_warrior", Name: "Weekend Warrior", Category: CategoryTimeOfDay, Rarity: RarityRare,
			Description: "Complete 8 study sessions on weekends", Icon: "🏖️", XPReward: 120,
			Requirement: Cond(MetricWeekendSessions, OpGTE, 8),
		},

		// combined
		{
			ID: "balanced_learner", Name: "Balanced Learner", Category: CategorySpecial, Rarity: RarityRare,
			Description: "Reach level 5 while keeping a 5-day streak", Icon: "⚖️", XPReward: 150,
			Requirement: And(Cond(MetricLevel, OpGTE, 5), Cond(MetricStreakDays, OpGTE, 5)),
		},
		{
			ID: "dedicated", Name: "Dedicated", Category: CategorySpecial, Rarity: RarityEpic,
			Description: "Study 14 days in a row or 20 hours in a month", Icon: "🎯", XPReward: 400,
			Requirement: Or(
				Cond(MetricConsecutiveStudyDays, OpGTE, 14),
				Cond(MetricTotalStudyTime, OpGTE, 1200).Within(TimeframeMonthly),
			),
		},
		{
			ID: "around_the_clock", Name: "Around the Clock", Category: CategorySpecial, Rarity: RarityLegendary,
			Description: "Complete 25 early morning and 25 late night sessions", Icon: "🌗", XPReward: 1000,
			IsHidden:    true,
			Requirement: And(Cond(MetricEarlyMorningSessions, OpGTE, 25), Cond(MetricLateNightSessions, OpGTE, 25)),
		},
	}
}

// DefaultCatalog returns a catalog of DefaultDefinitions.
func DefaultCatalog() *Catalog {
	c, err := NewCatalog(DefaultDefinitions()...)
	if err != nil {
		panic("achievements: invalid built-in catalog: " + err.Error())
	}
	return c
}
