package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/medilearn/healthxp/internal/render"
	"github.com/medilearn/healthxp/internal/store"
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "List recorded learning events",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		limit, _ := cmd.Flags().GetInt("limit")
		return withLearner(cmd, func(e *env, learnerID string) error {
			records, err := e.svc.History(cmd.Context(), learnerID, store.QueryOpts{Limit: limit})
			if err != nil {
				return fmt.Errorf("query history: %w", err)
			}
			if asJSON, _ := cmd.Flags().GetBool("json"); asJSON {
				return writeJSON(cmd.OutOrStdout(), records)
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), render.History(records))
			return err
		})
	},
}

func init() {
	historyCmd.Flags().Int("limit", 20, "Maximum events to show (0 for all)")
}
