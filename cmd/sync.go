package cmd

import (
	"github.com/spf13/cobra"

	"github.com/medilearn/healthxp/internal/activity"
)

var syncCmd = &cobra.Command{
	Use:   "sync <file>",
	Short: "Apply a batch of events reported by the education module",
	Long: `Apply a JSON array of {"type": ..., "payload": ...} envelopes in order.
Events already recorded are skipped. If any event is invalid, nothing is applied.
Use "-" to read from stdin.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		data, err := readInput(cmd, args[0])
		if err != nil {
			return err
		}
		events, err := activity.DecodeBatch(data)
		if err != nil {
			return err
		}
		return withLearner(cmd, func(e *env, learnerID string) error {
			res, err := e.svc.SyncWithEducationModule(cmd.Context(), learnerID, events)
			return printResult(cmd, res, err)
		})
	},
}
