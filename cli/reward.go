package cli

import (
	"fmt"
	"io"
	"strconv"

	"github.com/spf13/cobra"

	"studyquest/core"
	"studyquest/rewards"
)

type rewardResult struct {
	Activity core.ActivityEvent `json:"activity"`
	XP       int64              `json:"xp"`
	Detail   string             `json:"detail,omitempty"`
}

func newRewardCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "reward",
		Short: "Compute the XP paid for an activity",
	}
	cmd.AddCommand(newRewardStudyCmd(), newRewardQuestCmd(), newRewardTaskCmd(), newRewardStreakCmd())
	return cmd
}

func printReward(cmd *cobra.Command, res rewardResult) error {
	return output(cmd, res, func(w io.Writer) {
		fmt.Fprintf(w, "%d XP\n", res.XP)
		if res.Detail != "" {
			fmt.Fprintln(w, res.Detail)
		}
	})
}

func newRewardStudyCmd() *cobra.Command {
	var (
		minutes    float64
		difficulty string
		focus      float64
	)
	cmd := &cobra.Command{
		Use:   "study",
		Short: "XP for a study session",
		RunE: func(cmd *cobra.Command, args []string) error {
			ev := core.ActivityEvent{
				Type:            core.ActivityStudySession,
				DurationMinutes: minutes,
				Difficulty:      core.Difficulty(difficulty),
				FocusPercent:    focus,
			}
			return printReward(cmd, rewardResult{
				Activity: ev,
				XP:       rewards.ForActivity(ev),
				Detail:   fmt.Sprintf("band: %s", rewards.BandOf(minutes)),
			})
		},
	}
	cmd.Flags().Float64VarP(&minutes, "minutes", "m", 25, "session length in minutes")
	cmd.Flags().StringVarP(&difficulty, "difficulty", "d", string(core.DifficultyMedium), "easy, medium, hard or expert")
	cmd.Flags().Float64Var(&focus, "focus", 0, "focused share of the session, 0-100 (0 means not measured)")
	return cmd
}

func newRewardQuestCmd() *cobra.Command {
	var (
		questType  string
		difficulty string
		early      bool
	)
	cmd := &cobra.Command{
		Use:   "quest",
		Short: "XP for a completed quest",
		RunE: func(cmd *cobra.Command, args []string) error {
			ev := core.ActivityEvent{
				Type:           core.ActivityQuest,
				QuestType:      core.QuestType(questType),
				Difficulty:     core.Difficulty(difficulty),
				CompletedEarly: early,
			}
			return printReward(cmd, rewardResult{Activity: ev, XP: rewards.ForActivity(ev)})
		},
	}
	cmd.Flags().StringVarP(&questType, "type", "t", string(core.QuestDaily), "daily, weekly, milestone or bonus")
	cmd.Flags().StringVarP(&difficulty, "difficulty", "d", string(core.DifficultyMedium), "easy, medium, hard or expert")
	cmd.Flags().BoolVar(&early, "early", false, "completed before the deadline")
	return cmd
}

func newRewardTaskCmd() *cobra.Command {
	var (
		early, onTime bool
		estimate      float64
	)
	cmd := &cobra.Command{
		Use:   "task",
		Short: "XP for a completed todo item",
		RunE: func(cmd *cobra.Command, args []string) error {
			ev := core.ActivityEvent{
				Type:             core.ActivityTodo,
				CompletedEarly:   early,
				CompletedOnTime:  onTime,
				EstimatedMinutes: estimate,
			}
			return printReward(cmd, rewardResult{
				Activity: ev,
				XP:       rewards.ForActivity(ev),
				Detail:   fmt.Sprintf("timing: %s", rewards.TimingOf(early, onTime)),
			})
		},
	}
	cmd.Flags().BoolVar(&early, "early", false, "completed before the due date")
	cmd.Flags().BoolVar(&onTime, "on-time", false, "completed on the due date")
	cmd.Flags().Float64Var(&estimate, "estimate", 0, "estimated effort in minutes")
	return cmd
}

func newRewardStreakCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "streak DAYS",
		Short: "Bonus XP for reaching a streak length",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			days, err := strconv.Atoi(args[0])
			if err != nil {
				return fmt.Errorf("invalid streak length %q: %w", args[0], err)
			}
			ev := core.ActivityEvent{Type: core.ActivityStreakBonus, StreakDays: days}
			res := rewardResult{Activity: ev, XP: rewards.ForActivity(ev)}
			if rewards.IsStreakMilestone(days) {
				res.Detail = "milestone"
			}
			return printReward(cmd, res)
		},
	}
}
