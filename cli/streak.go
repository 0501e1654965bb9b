package cli

import (
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"

	"studyquest/rewards"
	"studyquest/streak"
)

const dateLayout = "2006-01-02"

type streakResult struct {
	Current   int   `json:"current"`
	Longest   int   `json:"longest"`
	NextBonus int64 `json:"next_bonus"`
}

func newStreakCmd() *cobra.Command {
	var (
		today string
		tz    string
	)
	cmd := &cobra.Command{
		Use:   "streak DATE...",
		Short: "Compute the current and longest streak from activity dates",
		Long: `Compute streaks from activity dates (YYYY-MM-DD or RFC 3339).

The current streak counts back from --today and is alive only if the most
recent activity was today or yesterday.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			loc, err := time.LoadLocation(tz)
			if err != nil {
				return fmt.Errorf("invalid timezone %q: %w", tz, err)
			}
			now := time.Now().In(loc)
			if today != "" {
				if now, err = parseDate(today, loc); err != nil {
					return err
				}
			}
			dates := make([]time.Time, 0, len(args))
			for _, a := range args {
				t, err := parseDate(a, loc)
				if err != nil {
					return err
				}
				dates = append(dates, t)
			}
			current := streak.Compute(dates, now)
			res := streakResult{
				Current:   current,
				Longest:   streak.Longest(dates, loc),
				NextBonus: rewards.StreakBonus(current + 1),
			}
			return output(cmd, res, func(w io.Writer) {
				fmt.Fprintf(w, "Current streak: %d days\n", res.Current)
				fmt.Fprintf(w, "Longest streak: %d days\n", res.Longest)
				if res.NextBonus > 0 {
					fmt.Fprintf(w, "Tomorrow pays:  %d XP bonus\n", res.NextBonus)
				}
			})
		},
	}
	cmd.Flags().StringVar(&today, "today", "", "reference date (default: now)")
	cmd.Flags().StringVar(&tz, "tz", "UTC", "IANA timezone deciding where days start")
	return cmd
}

func parseDate(s string, loc *time.Location) (time.Time, error) {
	if t, err := time.ParseInLocation(dateLayout, s, loc); err == nil {
		return t.Add(12 * time.Hour), nil
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q: want YYYY-MM-DD or RFC 3339", s)
	}
	return t.In(loc), nil
}
