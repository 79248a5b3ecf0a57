package cmd

import (
	"github.com/spf13/cobra"

	"github.com/example/studytrack/internal/app"
)

var dueCmd = &cobra.Command{
	Use:   "due <user-id>",
	Short: "List items due for review",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		subject, _ := cmd.Flags().GetString("subject")
		return withApp(cmd, func(a *app.App) error {
			items, err := a.Service.GetItemsDueForReview(cmd.Context(), args[0], subject)
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), items)
		})
	},
}

var scheduleCmd = &cobra.Command{
	Use:   "schedule <user-id>",
	Short: "Show upcoming reviews day by day",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		days, _ := cmd.Flags().GetInt("days")
		return withApp(cmd, func(a *app.App) error {
			schedule, err := a.Service.GetReviewSchedule(cmd.Context(), args[0], days)
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), schedule)
		})
	},
}

var atRiskCmd = &cobra.Command{
	Use:   "at-risk <user-id>",
	Short: "List topics whose estimated retention fell below a threshold",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		threshold, _ := cmd.Flags().GetFloat64("threshold")
		return withApp(cmd, func(a *app.App) error {
			scored, err := a.Service.GetTopicsAtRisk(cmd.Context(), args[0], threshold)
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), scored)
		})
	},
}

var remindersCmd = &cobra.Command{
	Use:   "reminders <user-id>",
	Short: "Show the merged reminder feed",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(cmd, func(a *app.App) error {
			feed, err := a.Service.GenerateReviewReminders(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), feed)
		})
	},
}

func init() {
	rootCmd.AddCommand(dueCmd, scheduleCmd, atRiskCmd, remindersCmd)

	dueCmd.Flags().String("subject", "", "only items of this subject")
	scheduleCmd.Flags().Int("days", 7, "number of days, today included")
	atRiskCmd.Flags().Float64("threshold", 60, "retention score threshold (0-100)")
}
