package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/medilearn/healthxp/internal/render"
)

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show learning statistics",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withLearner(cmd, func(e *env, learnerID string) error {
			ctx := cmd.Context()
			res, err := e.svc.State(ctx, learnerID)
			if err != nil {
				return err
			}
			locked, err := e.svc.LockedRewards(ctx, learnerID)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if asJSON, _ := cmd.Flags().GetBool("json"); asJSON {
				progress, err := e.svc.AchievementProgress(ctx, learnerID)
				if err != nil {
					return err
				}
				return writeJSON(out, map[string]any{
					"state":               res.State,
					"lockedRewards":       locked,
					"achievementProgress": progress,
					"warnings":            res.Warnings,
				})
			}
			for _, w := range res.Warnings {
				fmt.Fprintln(cmd.ErrOrStderr(), "warning:", w)
			}
			_, err = fmt.Fprintln(out, render.Stats(res.State, locked))
			return err
		})
	},
}
