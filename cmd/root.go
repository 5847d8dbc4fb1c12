package cmd

import (
	"context"
	"errors"
	"os"

	"github.com/spf13/cobra"

	"github.com/medilearn/healthxp/internal/store"
)

var rootCmd = &cobra.Command{
	Use:          "healthxp",
	Short:        "Learner progress and rewards for health education",
	Long:         "healthxp tracks learning activity in health education modules and turns it into XP, levels, streaks, achievements and rewards.",
	SilenceUsage: true,
}

// Execute runs the root command.
func Execute(ctx context.Context) error {
	return rootCmd.ExecuteContext(ctx)
}

func init() {
	rootCmd.PersistentFlags().String("db", "", "Path to SQLite database file (overrides HEALTHXP_DB env var)")
	rootCmd.PersistentFlags().String("config", "", "Path to YAML config file (overrides HEALTHXP_CONFIG env var)")
	rootCmd.PersistentFlags().String("learner", "", "Learner id (overrides HEALTHXP_LEARNER env var)")
	rootCmd.PersistentFlags().Bool("json", false, "Print results as JSON")

	rootCmd.AddCommand(trackCmd)
	rootCmd.AddCommand(syncCmd)
	rootCmd.AddCommand(exportCmd)
	rootCmd.AddCommand(importCmd)
	rootCmd.AddCommand(statsCmd)
	rootCmd.AddCommand(historyCmd)
	rootCmd.AddCommand(settingsCmd)
	rootCmd.AddCommand(learnersCmd)
	rootCmd.AddCommand(resetCmd)
	rootCmd.AddCommand(versionCmd)
}

var errNoLearner = errors.New("no learner selected: pass --learner or set HEALTHXP_LEARNER (create one with `healthxp learners new`)")

// resolveLearner returns the learner id using --learner (highest priority),
// then HEALTHXP_LEARNER.
func resolveLearner(cmd *cobra.Command) (string, error) {
	if id, _ := cmd.Flags().GetString("learner"); id != "" {
		return id, nil
	}
	if id := os.Getenv("HEALTHXP_LEARNER"); id != "" {
		return id, nil
	}
	return "", errNoLearner
}

// resolveDBPath returns the database path using --db (highest priority),
// then the configured path, then HEALTHXP_DB or the default XDG path.
func resolveDBPath(cmd *cobra.Command, configured string) (string, error) {
	if p, _ := cmd.Flags().GetString("db"); p != "" {
		return p, store.EnsureDir(p)
	}
	if configured != "" {
		return configured, store.EnsureDir(configured)
	}
	return store.DefaultDBPath()
}
