package cmd

import (
	"github.com/spf13/cobra"

	"github.com/example/studytrack/internal/app"
	"github.com/example/studytrack/pkg/models"
)

var createCmd = &cobra.Command{
	Use:   "create",
	Short: "Start tracking a topic",
	RunE: func(cmd *cobra.Command, args []string) error {
		in := models.NewItem{}
		in.UserID, _ = cmd.Flags().GetString("user")
		in.SubjectID, _ = cmd.Flags().GetString("subject")
		in.TopicName, _ = cmd.Flags().GetString("topic")
		in.Confidence, _ = cmd.Flags().GetInt("confidence")
		in.DifficultyLevel, _ = cmd.Flags().GetInt("difficulty")
		if chapter, _ := cmd.Flags().GetString("chapter"); chapter != "" {
			in.ChapterReference = &chapter
		}
		return withApp(cmd, func(a *app.App) error {
			item, err := a.Service.CreateItem(cmd.Context(), in)
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), item)
		})
	},
}

var reviewCmd = &cobra.Command{
	Use:   "review <item-id>",
	Short: "Record the outcome of a review",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		resultFlag, _ := cmd.Flags().GetString("result")
		result, err := models.ParseReviewResult(resultFlag)
		if err != nil {
			return err
		}
		in := models.ReviewInput{ItemID: args[0], Result: result}
		in.Confidence, _ = cmd.Flags().GetInt("confidence")
		in.TimeSpentSeconds, _ = cmd.Flags().GetInt("seconds")
		return withApp(cmd, func(a *app.App) error {
			item, record, err := a.Service.RecordReview(cmd.Context(), in)
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), map[string]interface{}{
				"item":   item,
				"review": record,
			})
		})
	},
}

var archiveCmd = &cobra.Command{
	Use:   "archive <item-id>",
	Short: "Stop scheduling an item",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(cmd, func(a *app.App) error {
			item, err := a.Service.ArchiveItem(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), item)
		})
	},
}

var historyCmd = &cobra.Command{
	Use:   "history <item-id>",
	Short: "Show the review history of an item",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(cmd, func(a *app.App) error {
			records, err := a.Service.GetReviewHistory(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), records)
		})
	},
}

var statsCmd = &cobra.Command{
	Use:   "stats <item-id>",
	Short: "Show review statistics of an item",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(cmd, func(a *app.App) error {
			stats, err := a.Service.GetItemStats(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), stats)
		})
	},
}

func init() {
	rootCmd.AddCommand(createCmd, reviewCmd, archiveCmd, historyCmd, statsCmd)

	createCmd.Flags().String("user", "", "owner of the item")
	createCmd.Flags().String("subject", "", "subject id")
	createCmd.Flags().String("topic", "", "topic name")
	createCmd.Flags().String("chapter", "", "chapter reference")
	createCmd.Flags().Int("confidence", 3, "self-assessed confidence (1-5)")
	createCmd.Flags().Int("difficulty", 3, "difficulty level (1-5)")

	reviewCmd.Flags().Int("confidence", 3, "confidence after the review (1-5)")
	reviewCmd.Flags().Int("seconds", 60, "time spent in seconds")
	reviewCmd.Flags().String("result", string(models.ResultCorrect), "correct, partial or incorrect")
}
