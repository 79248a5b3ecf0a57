package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/example/studytrack/internal/app"
)

// dbInitCmd creates the schema; app wiring already runs the idempotent migration.
var dbInitCmd = &cobra.Command{
	Use:   "db-init",
	Short: "Create the database schema",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(cmd, func(a *app.App) error {
			fmt.Fprintf(cmd.OutOrStdout(), "schema ready (%s)\n", a.Config.Database.Driver)
			return nil
		})
	},
}

func init() {
	rootCmd.AddCommand(dbInitCmd)
}
