package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

var settingsCmd = &cobra.Command{
	Use:   "settings",
	Short: "Show or change the learner's preferences",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withLearner(cmd, func(e *env, learnerID string) error {
			ctx := cmd.Context()
			res, err := e.svc.State(ctx, learnerID)
			if err != nil {
				return err
			}
			settings := res.State.Settings
			flags := cmd.Flags()
			changed := false
			if flags.Changed("timezone") {
				settings.Timezone, _ = flags.GetString("timezone")
				changed = true
			}
			if flags.Changed("notifications") {
				settings.NotificationsEnabled, _ = flags.GetBool("notifications")
				changed = true
			}
			if flags.Changed("language") {
				settings.Language, _ = flags.GetString("language")
				changed = true
			}
			if changed {
				if res, err = e.svc.UpdateSettings(ctx, learnerID, settings); err != nil {
					return err
				}
				settings = res.State.Settings
			}

			if asJSON, _ := flags.GetBool("json"); asJSON {
				return writeJSON(cmd.OutOrStdout(), settings)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "timezone:      %s\nnotifications: %v\nlanguage:      %s\n",
				settings.Timezone, settings.NotificationsEnabled, settings.Language)
			return nil
		})
	},
}

func init() {
	settingsCmd.Flags().String("timezone", "", "IANA timezone used for streak days")
	settingsCmd.Flags().Bool("notifications", true, "Show unlock notifications")
	settingsCmd.Flags().String("language", "", "Preferred language")
}
