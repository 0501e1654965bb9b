package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"sort"
	"time"

	"github.com/spf13/cobra"

	"studyquest/achievements"
	mem "studyquest/adapters/memory"
	"studyquest/core"
	"studyquest/engine"
)

func newAchievementsCmd() *cobra.Command {
	var catalogPath string
	cmd := &cobra.Command{
		Use:   "achievements",
		Short: "Inspect achievement catalogs",
	}
	cmd.PersistentFlags().StringVar(&catalogPath, "catalog", "", "JSON or TOML catalog (default: built-in)")

	loadCatalog := func() (*achievements.Catalog, error) {
		if catalogPath == "" {
			return achievements.DefaultCatalog(), nil
		}
		return achievements.LoadCatalog(catalogPath)
	}

	cmd.AddCommand(
		&cobra.Command{
			Use:   "list",
			Short: "List catalog definitions",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				catalog, err := loadCatalog()
				if err != nil {
					return err
				}
				defs := catalog.Definitions()
				return output(cmd, defs, func(w io.Writer) {
					for _, d := range defs {
						fmt.Fprintf(w, "%-24s %-10s %5d XP  %s\n", d.ID, d.Rarity, d.XPReward, d.Name)
					}
				})
			},
		},
		&cobra.Command{
			Use:   "check HISTORY",
			Short: "Replay an activity history and report unlocked achievements",
			Long: `Replay a JSON array of activity records ({"event": {...}, "at": "..."})
in time order and report what the user would have unlocked. Streak bonus
records in the file are skipped; the replay pays its own.`,
			Args: cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				catalog, err := loadCatalog()
				if err != nil {
					return err
				}
				history, err := readHistory(args[0])
				if err != nil {
					return err
				}
				res, err := replay(cmd.Context(), catalog, history)
				if err != nil {
					return err
				}
				return output(cmd, res, func(w io.Writer) {
					fmt.Fprintf(w, "Level %d, %d XP, streak %d days\n", res.Stats.Level, res.Stats.TotalXP, res.Stats.StreakDays)
					for _, u := range res.Unlocked {
						fmt.Fprintf(w, "  %s  %s (+%d XP)\n", u.UnlockedAt.Format(dateLayout), u.AchievementID, u.XPAwarded)
					}
				})
			},
		},
	)
	return cmd
}

func readHistory(path string) ([]core.ActivityRecord, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read history: %w", err)
	}
	var recs []core.ActivityRecord
	if err := json.Unmarshal(b, &recs); err != nil {
		return nil, fmt.Errorf("parse history: %w", err)
	}
	return recs, nil
}

type replayResult struct {
	Stats    core.GameStats           `json:"stats"`
	Unlocked []core.AchievementUnlock `json:"unlocked"`
}

// replay feeds history through a fresh in-memory engine with the clock held
// at each record's timestamp.
func replay(ctx context.Context, catalog *achievements.Catalog, history []core.ActivityRecord) (replayResult, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	sort.SliceStable(history, func(i, j int) bool { return history[i].At.Before(history[j].At) })

	var now time.Time
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	svc := engine.NewService(mem.New(), engine.NewEventBus(engine.DispatchSync),
		engine.WithCatalog(catalog),
		engine.WithLogger(logger),
		engine.WithClock(func() time.Time { return now }),
	)
	defer svc.Close()

	const user core.UserID = "replay"
	res := replayResult{Stats: core.NewGameStats()}
	for i, rec := range history {
		if rec.Event.Type == core.ActivityStreakBonus {
			continue
		}
		now = rec.At
		out, err := svc.RecordActivity(ctx, user, rec.Event, rec.At)
		if err != nil {
			return replayResult{}, fmt.Errorf("record %d: %w", i, err)
		}
		res.Stats = out.Stats
		res.Unlocked = append(res.Unlocked, out.Unlocked...)
	}
	return res, nil
}
