// Package achievements evaluates achievement requirement trees against a
// snapshot of user metrics and holds the catalog of definitions.
//
// Evaluation is pure: the same snapshot and requirement always produce the
// same answer, and nothing here touches storage.
package achievements

import (
	"fmt"
	"time"

	"studyquest/core"
)

// Rarity grades how hard an achievement is to earn.
type Rarity string

const (
	RarityCommon    Rarity = "common"
	RarityRare      Rarity = "rare"
	RarityEpic      Rarity = "epic"
	RarityLegendary Rarity = "legendary"
)

func (r Rarity) valid() bool {
	switch r {
	case RarityCommon, RarityRare, RarityEpic, RarityLegendary:
		return true
	}
	return false
}

// Category groups related achievements for display.
type Category string

const (
	CategoryStudy     Category = "study"
	CategoryStreak    Category = "streak"
	CategoryLevel     Category = "level"
	CategoryQuest     Category = "quest"
	CategoryTimeOfDay Category = "time_of_day"
	CategorySpecial   Category = "special"
)

// Definition describes a single unlockable achievement.
type Definition struct {
	ID           string      `json:"id" toml:"id"`
	Name         string      `json:"name" toml:"name"`
	Description  string      `json:"description,omitempty" toml:"description"`
	Icon         string      `json:"icon,omitempty" toml:"icon"`
	Category     Category    `json:"category" toml:"category"`
	Rarity       Rarity      `json:"rarity" toml:"rarity"`
	XPReward     int64       `json:"xp_reward" toml:"xp_reward"`
	Requirement  Requirement `json:"requirement" toml:"requirement"`
	IsHidden     bool        `json:"is_hidden,omitempty" toml:"is_hidden"`
	IsSeasonal   bool        `json:"is_seasonal,omitempty" toml:"is_seasonal"`
	EventEndDate *time.Time  `json:"event_end_date,omitempty" toml:"event_end_date"`
}

// Validate checks the fields the catalog relies on. Requirement trees are
// not checked: a malformed tree simply never unlocks.
func (d Definition) Validate() error {
	if err := core.ValidateAchievementID(d.ID); err != nil {
		return err
	}
	if d.Rarity != "" && !d.Rarity.valid() {
		return fmt.Errorf("achievement %s: unknown rarity %q", d.ID, d.Rarity)
	}
	if d.XPReward < 0 {
		return fmt.Errorf("achievement %s: xp_reward must be >= 0", d.ID)
	}
	if d.IsSeasonal && d.EventEndDate == nil {
		return fmt.Errorf("achievement %s: seasonal achievements need event_end_date", d.ID)
	}
	return nil
}

// Available reports whether d can still be unlocked at now. Seasonal
// achievements close after their event end date.
func (d Definition) Available(now time.Time) bool {
	if !d.IsSeasonal || d.EventEndDate == nil {
		return true
	}
	return !now.After(*d.EventEndDate)
}

// Met reports whether d's requirement holds for s.
func (d Definition) Met(s Snapshot) bool {
	return Evaluate(d.Requirement, s)
}
