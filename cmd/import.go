package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/example/studytrack/internal/app"
	"github.com/example/studytrack/internal/excel"
)

var importCmd = &cobra.Command{
	Use:   "import <file>",
	Short: "Import topics from an Excel or CSV file",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := excel.DefaultImportConfig()
		cfg.FilePath = args[0]
		cfg.UserID, _ = cmd.Flags().GetString("user")
		cfg.SheetName, _ = cmd.Flags().GetString("sheet")
		cfg.StartRow, _ = cmd.Flags().GetInt("start-row")

		return withApp(cmd, func(a *app.App) error {
			result, err := excel.ImportItems(cmd.Context(), a.Service, cfg)
			if result != nil {
				a.Log.WithField("created", result.Created).WithField("skipped", result.Skipped).Info("Import finished")
				if perr := printJSON(cmd.OutOrStdout(), result); perr != nil && err == nil {
					err = perr
				}
			}
			if err != nil {
				return fmt.Errorf("import aborted: %w", err)
			}
			return nil
		})
	},
}

func init() {
	rootCmd.AddCommand(importCmd)
	importCmd.Flags().String("user", "", "owner of the imported items")
	importCmd.Flags().String("sheet", "", "sheet name (default: first sheet)")
	importCmd.Flags().Int("start-row", 2, "first data row (1-based)")
}
