package cmd

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
)

var learnersCmd = &cobra.Command{
	Use:   "learners",
	Short: "List learners with stored progress",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		e, err := openEnv(cmd)
		if err != nil {
			return err
		}
		defer e.Close()

		ids, err := e.svc.Learners(cmd.Context())
		if err != nil {
			return fmt.Errorf("list learners: %w", err)
		}
		if len(ids) == 0 {
			fmt.Fprintln(cmd.OutOrStdout(), "No learners yet.")
			return nil
		}
		for _, id := range ids {
			fmt.Fprintln(cmd.OutOrStdout(), id)
		}
		return nil
	},
}

var learnersNewCmd = &cobra.Command{
	Use:   "new",
	Short: "Print a fresh learner id",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintln(cmd.OutOrStdout(), uuid.NewString())
	},
}

func init() {
	learnersCmd.AddCommand(learnersNewCmd)
}
