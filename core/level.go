package core

import (
	"math"
	"sort"
)

// baseThresholds holds the designer-tuned cumulative XP needed for levels
// 0 through 20. Index is the level.
var baseThresholds = []int64{
	0, 100, 250, 450, 700,
	1000, 1400, 1900, 2500, 3200,
	4000, 5000, 6200, 7600, 9200,
	11000, 13000, 15500, 18500, 22000,
	26000,
}

// levelGrowthPercent is how much each threshold past the table grows over
// the previous one.
const levelGrowthPercent = 10

// levelThresholds is the full curve: the table followed by the extrapolated
// levels up to the last one representable in int64.
var levelThresholds = buildThresholds()

// MaxLevel is the highest level the curve can express.
var MaxLevel = len(levelThresholds) - 1

func buildThresholds() []int64 {
	out := append([]int64(nil), baseThresholds...)
	for {
		prev := out[len(out)-1]
		if prev > (math.MaxInt64-99)/(100+levelGrowthPercent) {
			return out
		}
		// round up so every step grows by at least one XP
		out = append(out, (prev*(100+levelGrowthPercent)+99)/100)
	}
}

// LevelFromXP maps total XP to a level. Negative XP is level 0.
func LevelFromXP(totalXP int64) int {
	if totalXP <= 0 {
		return 0
	}
	i := sort.Search(len(levelThresholds), func(i int) bool { return levelThresholds[i] > totalXP })
	return i - 1
}

// XPForLevel returns the minimum total XP of a level. Levels above MaxLevel
// are unreachable and report math.MaxInt64.
func XPForLevel(level int) int64 {
	if level <= 0 {
		return 0
	}
	if level > MaxLevel {
		return math.MaxInt64
	}
	return levelThresholds[level]
}

// LevelWidth is the XP span between level and the next one.
func LevelWidth(level int) int64 {
	if level < 0 {
		level = 0
	}
	return XPForLevel(level+1) - XPForLevel(level)
}

// progressXP clamps a total for progress math. The level after MaxLevel
// sits at math.MaxInt64 and is never reached, so a saturated total counts
// as one XP short of it.
func progressXP(totalXP int64) int64 {
	switch {
	case totalXP < 0:
		return 0
	case totalXP == math.MaxInt64:
		return math.MaxInt64 - 1
	}
	return totalXP
}

// CurrentLevelXP is the XP earned inside the current level.
func CurrentLevelXP(totalXP int64) int64 {
	totalXP = progressXP(totalXP)
	return totalXP - XPForLevel(LevelFromXP(totalXP))
}

// XPToNextLevel is the XP still missing to reach the next level. It is
// always at least 1.
func XPToNextLevel(totalXP int64) int64 {
	totalXP = progressXP(totalXP)
	return XPForLevel(LevelFromXP(totalXP)+1) - totalXP
}

// LevelProgress returns progress toward the next level as a percentage
// in [0, 100).
func LevelProgress(totalXP int64) float64 {
	lvl := LevelFromXP(totalXP)
	width := LevelWidth(lvl)
	if width <= 0 {
		return 0
	}
	return float64(CurrentLevelXP(totalXP)) / float64(width) * 100.0
}

// SanitizeXP converts a floating XP value from an external source into a
// usable total. NaN and negatives become 0, +Inf saturates.
func SanitizeXP(v float64) int64 {
	switch {
	case math.IsNaN(v), v <= 0:
		return 0
	case v >= math.MaxInt64:
		return math.MaxInt64
	}
	return int64(math.Floor(v))
}
