package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export the learner's progress as JSON",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		output, _ := cmd.Flags().GetString("output")
		return withLearner(cmd, func(e *env, learnerID string) error {
			data, err := e.svc.ExportGamificationData(cmd.Context(), learnerID)
			if err != nil {
				return err
			}
			if output == "" || output == "-" {
				_, err = cmd.OutOrStdout().Write(append(data, '\n'))
				return err
			}
			if err := os.WriteFile(output, data, 0o600); err != nil {
				return fmt.Errorf("write %s: %w", output, err)
			}
			fmt.Fprintf(cmd.ErrOrStderr(), "Exported to %s\n", output)
			return nil
		})
	},
}

var importCmd = &cobra.Command{
	Use:   "import <file>",
	Short: "Replace the learner's progress with an exported document",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		data, err := readInput(cmd, args[0])
		if err != nil {
			return err
		}
		return withLearner(cmd, func(e *env, learnerID string) error {
			res, err := e.svc.ImportGamificationData(cmd.Context(), learnerID, data)
			if err != nil {
				return err
			}
			p := res.State.Progress
			fmt.Fprintf(cmd.OutOrStdout(), "Imported: level %d, %d XP, %d achievements\n",
				p.Level.CurrentLevel, p.Level.TotalXP, len(res.State.UnlockedAchievements))
			return nil
		})
	},
}

func init() {
	exportCmd.Flags().StringP("output", "o", "", "Write to file instead of stdout")
}
