package core

import (
	"math"
	"testing"
)

func TestLevelThresholdsStrictlyIncreasing(t *testing.T) {
	for lvl := 1; lvl <= MaxLevel; lvl++ {
		if XPForLevel(lvl) <= XPForLevel(lvl-1) {
			t.Fatalf("threshold of level %d (%d) not above level %d (%d)",
				lvl, XPForLevel(lvl), lvl-1, XPForLevel(lvl-1))
		}
	}
	if MaxLevel <= len(baseThresholds) {
		t.Fatalf("curve was not extrapolated past the table: max level %d", MaxLevel)
	}
}

func TestLevelFromXPTable(t *testing.T) {
	cases := []struct {
		xp   int64
		want int
	}{
		{-50, 0},
		{0, 0},
		{99, 0},
		{100, 1},
		{249, 1},
		{250, 2},
		{4000, 10},
		{25999, 19},
		{26000, 20},
		{28600, 21},
		{28599, 20},
		{math.MaxInt64, MaxLevel},
	}
	for _, c := range cases {
		if got := LevelFromXP(c.xp); got != c.want {
			t.Errorf("LevelFromXP(%d) = %d, want %d", c.xp, got, c.want)
		}
	}
}

func TestExtrapolationGrowsTenPercent(t *testing.T) {
	if got := XPForLevel(21); got != 28600 {
		t.Fatalf("level 21 threshold = %d, want 28600", got)
	}
	if got := XPForLevel(22); got != 31460 {
		t.Fatalf("level 22 threshold = %d, want 31460", got)
	}
}

func TestLevelRoundTrip(t *testing.T) {
	for lvl := 0; lvl <= MaxLevel; lvl++ {
		if got := LevelFromXP(XPForLevel(lvl)); got != lvl {
			t.Fatalf("LevelFromXP(XPForLevel(%d)) = %d", lvl, got)
		}
	}
	for _, x := range []int64{0, 1, 99, 100, 777, 12345, 26000, 99999, 5_000_000} {
		l := LevelFromXP(x)
		if LevelFromXP(XPForLevel(l)) != l {
			t.Fatalf("round trip unstable for %d", x)
		}
	}
}

func TestCurrentLevelXPInvariants(t *testing.T) {
	for _, x := range []int64{0, 1, 99, 100, 101, 449, 450, 3199, 26000, 30000, 1 << 40} {
		l := LevelFromXP(x)
		cur := CurrentLevelXP(x)
		width := XPForLevel(l+1) - XPForLevel(l)
		if cur < 0 || cur >= width {
			t.Fatalf("current level xp %d out of [0,%d) for %d", cur, width, x)
		}
		if cur+XPForLevel(l) != x {
			t.Fatalf("current+floor != total for %d", x)
		}
		if cur+XPToNextLevel(x) != width {
			t.Fatalf("current+remaining != width for %d", x)
		}
		if LevelWidth(l) != width {
			t.Fatalf("LevelWidth(%d) = %d, want %d", l, LevelWidth(l), width)
		}
	}
}

func TestSaturatedTotalStaysBelowNextLevel(t *testing.T) {
	if got := LevelFromXP(math.MaxInt64); got != MaxLevel {
		t.Fatalf("level = %d, want %d", got, MaxLevel)
	}
	width := LevelWidth(MaxLevel)
	if cur := CurrentLevelXP(math.MaxInt64); cur >= width {
		t.Fatalf("current level xp %d not below width %d", cur, width)
	}
	if got := XPToNextLevel(math.MaxInt64); got != 1 {
		t.Fatalf("xp to next level = %d, want 1", got)
	}
	if p := LevelProgress(math.MaxInt64); p < 0 || p >= 100 {
		t.Fatalf("progress = %v, want [0,100)", p)
	}
}

func TestNegativeXPIsLevelZero(t *testing.T) {
	if CurrentLevelXP(-10) != 0 {
		t.Fatal("negative xp should have no progress")
	}
	if XPToNextLevel(-10) != XPForLevel(1) {
		t.Fatal("negative xp should need the full first level")
	}
}

func TestLevelProgress(t *testing.T) {
	if got := LevelProgress(175); got != 50 {
		t.Fatalf("progress = %v, want 50", got)
	}
	if got := LevelProgress(0); got != 0 {
		t.Fatalf("progress = %v, want 0", got)
	}
}

func TestSanitizeXP(t *testing.T) {
	cases := map[float64]int64{
		math.NaN():   0,
		-3:           0,
		math.Inf(-1): 0,
		12.9:         12,
		math.Inf(1):  math.MaxInt64,
	}
	for in, want := range cases {
		if got := SanitizeXP(in); got != want {
			t.Errorf("SanitizeXP(%v) = %d, want %d", in, got, want)
		}
	}
}
