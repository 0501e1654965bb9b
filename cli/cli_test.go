package cli

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func run(t *testing.T, args ...string) string {
	t.Helper()
	var out bytes.Buffer
	cmd := NewRootCmd()
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	require.NoError(t, cmd.Execute())
	return out.String()
}

func TestLevelCommand(t *testing.T) {
	out := run(t, "level", "350")
	assert.Contains(t, out, "Level:        2")
	assert.Contains(t, out, "Into level:   100")

	var res levelResult
	require.NoError(t, json.Unmarshal([]byte(run(t, "level", "100", "--json")), &res))
	assert.Equal(t, 1, res.Level)
	assert.Equal(t, int64(0), res.CurrentXP)
	assert.Equal(t, int64(250), res.NextLevelAt)
}

func TestLevelRejectsGarbage(t *testing.T) {
	cmd := NewRootCmd()
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetArgs([]string{"level", "lots"})
	assert.ErrorContains(t, cmd.Execute(), "invalid xp")
}

func TestRewardCommands(t *testing.T) {
	cases := []struct {
		args []string
		xp   int64
	}{
		{[]string{"reward", "study", "--minutes", "30"}, 92},
		{[]string{"reward", "quest", "--type", "weekly", "--difficulty", "hard"}, 300},
		{[]string{"reward", "quest", "--type", "raid", "--difficulty", "nightmare"}, 75},
		{[]string{"reward", "task", "--on-time"}, 20},
		{[]string{"reward", "task", "--early", "--estimate", "60"}, 40},
		{[]string{"reward", "streak", "7"}, 100},
		{[]string{"reward", "streak", "2"}, 0},
	}
	for _, tc := range cases {
		var res rewardResult
		require.NoError(t, json.Unmarshal([]byte(run(t, append(tc.args, "--json")...)), &res), tc.args)
		assert.Equal(t, tc.xp, res.XP, tc.args)
	}
	assert.Contains(t, run(t, "reward", "streak", "30"), "milestone")
}

func TestStreakCommand(t *testing.T) {
	var res streakResult
	out := run(t, "streak", "--today", "2026-04-15", "--json",
		"2026-04-01", "2026-04-02", "2026-04-03", "2026-04-04",
		"2026-04-13", "2026-04-14", "2026-04-15")
	require.NoError(t, json.Unmarshal([]byte(out), &res))
	assert.Equal(t, 3, res.Current)
	assert.Equal(t, 4, res.Longest)
	assert.Equal(t, int64(0), res.NextBonus)

	out = run(t, "streak", "--today", "2026-04-15", "2026-04-12")
	assert.Contains(t, out, "Current streak: 0 days")
}

func TestAchievementsCheck(t *testing.T) {
	history := `[
		{"event": {"type": "study_session", "duration_minutes": 30}, "at": "2026-04-13T10:00:00Z"},
		{"event": {"type": "todo", "completed_on_time": true}, "at": "2026-04-14T10:00:00Z"},
		{"event": {"type": "streak_bonus", "streak_days": 100}, "at": "2026-04-15T09:00:00Z"},
		{"event": {"type": "todo", "completed_on_time": true}, "at": "2026-04-15T10:00:00Z"}
	]`
	path := filepath.Join(t.TempDir(), "history.json")
	require.NoError(t, os.WriteFile(path, []byte(history), 0o600))

	var res replayResult
	require.NoError(t, json.Unmarshal([]byte(run(t, "achievements", "check", path, "--json")), &res))
	assert.Equal(t, 3, res.Stats.StreakDays)

	ids := map[string]bool{}
	for _, u := range res.Unlocked {
		ids[u.AchievementID] = true
	}
	assert.True(t, ids["first_session"])
	assert.True(t, ids["streak_3"])
}

func TestAchievementsList(t *testing.T) {
	out := run(t, "achievements", "list")
	assert.Contains(t, out, "first_session")
	assert.Contains(t, out, "around_the_clock")
}
