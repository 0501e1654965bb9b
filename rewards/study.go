package rewards

import (
	"math"

	"studyquest/core"
)

const (
	StudyBaseXP      = 10
	StudyXPPerMinute = 2

	// DeepFocusBonus is added to sessions of at least DeepFocusMinMinutes
	// spent at DeepFocusPercent focus or better.
	DeepFocusBonus      = 15
	DeepFocusPercent    = 90
	DeepFocusMinMinutes = 25
)

// DurationBand buckets study sessions by length.
type DurationBand string

const (
	BandShort    DurationBand = "short"
	BandMedium   DurationBand = "medium"
	BandLong     DurationBand = "long"
	BandMarathon DurationBand = "marathon"
)

// BandOf returns the band a session of the given length falls in.
func BandOf(minutes float64) DurationBand {
	switch m := sanitizeMinutes(minutes); {
	case m >= 120:
		return BandMarathon
	case m >= 60:
		return BandLong
	case m >= 25:
		return BandMedium
	default:
		return BandShort
	}
}

// BandMultiplier scales longer sessions up.
func BandMultiplier(b DurationBand) float64 {
	switch b {
	case BandMedium:
		return 1.1
	case BandLong:
		return 1.25
	case BandMarathon:
		return 1.5
	default:
		return 1.0
	}
}

// StudyDifficultyMultiplier scores a session's difficulty. Unknown values
// score as medium.
func StudyDifficultyMultiplier(d core.Difficulty) float64 {
	switch d {
	case core.DifficultyEasy:
		return 0.8
	case core.DifficultyHard:
		return 1.3
	case core.DifficultyExpert:
		return 1.6
	default:
		return 1.0
	}
}

// normalizeFocus maps an unmeasured focus (<= 0 or NaN) to full focus and
// caps values above 100.
func normalizeFocus(p float64) float64 {
	if math.IsNaN(p) || p <= 0 || p > 100 {
		return 100
	}
	return p
}

// StudySessionXP pays a study session:
//
//	floor((base + perMinute*minutes) * difficulty * band * focus/100) [+ deep focus bonus]
//
// Sessions with no duration earn nothing; any other session earns at least 1.
func StudySessionXP(minutes float64, d core.Difficulty, focusPercent float64) int64 {
	m := sanitizeMinutes(minutes)
	if m == 0 {
		return 0
	}
	focus := normalizeFocus(focusPercent)
	raw := (StudyBaseXP + StudyXPPerMinute*m) *
		StudyDifficultyMultiplier(d) *
		BandMultiplier(BandOf(m)) *
		(focus / 100)
	xp := floorXP(raw, 1)
	if focus >= DeepFocusPercent && m >= DeepFocusMinMinutes {
		xp = addCapped(xp, DeepFocusBonus)
	}
	return xp
}
