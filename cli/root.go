// Package cli implements the studyquest command-line calculator using Cobra.
// Every command runs the scoring core locally; nothing talks to a server.
package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
)

// NewRootCmd builds the command tree.
func NewRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "studyquest",
		Short: "StudyQuest scoring calculator",
		Long: `studyquest runs the StudyQuest scoring rules offline.

Compute levels, activity rewards and streaks, or replay an activity
history against an achievement catalog.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().Bool("json", false, "print results as JSON")

	root.AddCommand(
		newLevelCmd(),
		newRewardCmd(),
		newStreakCmd(),
		newAchievementsCmd(),
	)
	return root
}

// Execute runs the root command. Called from main.go.
func Execute(version string) {
	root := NewRootCmd()
	root.Version = version

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

// output prints v as indented JSON when --json is set and calls text
// otherwise.
func output(cmd *cobra.Command, v any, text func(w io.Writer)) error {
	asJSON, _ := cmd.Flags().GetBool("json")
	w := cmd.OutOrStdout()
	if asJSON {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(v)
	}
	text(w)
	return nil
}
