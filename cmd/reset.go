package cmd

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"
)

var resetCmd = &cobra.Command{
	Use:   "reset",
	Short: "Reset learner data",
	Long:  "Delete every snapshot and recorded event of the learner. This cannot be undone.",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if yes, _ := cmd.Flags().GetBool("yes"); !yes {
			return errors.New("refusing to reset without --yes")
		}
		return withLearner(cmd, func(e *env, learnerID string) error {
			if err := e.svc.Reset(cmd.Context(), learnerID); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Reset learner %s\n", learnerID)
			return nil
		})
	},
}

func init() {
	resetCmd.Flags().Bool("yes", false, "Confirm the reset")
}
