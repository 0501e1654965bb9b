package cli

import (
	"fmt"
	"io"
	"strconv"

	"github.com/spf13/cobra"

	"studyquest/core"
)

type levelResult struct {
	TotalXP       int64   `json:"total_xp"`
	Level         int     `json:"level"`
	CurrentXP     int64   `json:"current_xp"`
	XPToNextLevel int64   `json:"xp_to_next_level"`
	Progress      float64 `json:"progress"`
	NextLevelAt   int64   `json:"next_level_at"`
}

func newLevelCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "level TOTAL_XP",
		Short: "Show the level reached with a total XP",
		Args:  cobra.ExactArgs(1),
		RunE:  runLevel,
	}
}

func runLevel(cmd *cobra.Command, args []string) error {
	total, err := strconv.ParseInt(args[0], 10, 64)
	if err != nil {
		return fmt.Errorf("invalid xp %q: %w", args[0], err)
	}
	if total < 0 {
		total = 0
	}
	st := core.GameStats{TotalXP: total}.Recompute()
	res := levelResult{
		TotalXP:       st.TotalXP,
		Level:         st.Level,
		CurrentXP:     st.CurrentXP,
		XPToNextLevel: st.XPToNextLevel,
		Progress:      core.LevelProgress(st.TotalXP),
	}
	if st.Level < core.MaxLevel {
		res.NextLevelAt = core.XPForLevel(st.Level + 1)
	}
	return output(cmd, res, func(w io.Writer) {
		fmt.Fprintf(w, "Level:        %d\n", res.Level)
		fmt.Fprintf(w, "Total XP:     %d\n", res.TotalXP)
		fmt.Fprintf(w, "Into level:   %d\n", res.CurrentXP)
		fmt.Fprintf(w, "To next:      %d\n", res.XPToNextLevel)
		fmt.Fprintf(w, "Progress:     %.1f%%\n", res.Progress)
	})
}
