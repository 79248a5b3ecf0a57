package cmd

import (
	"errors"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/example/studytrack/internal/app"
)

var digestCmd = &cobra.Command{
	Use:   "digest",
	Short: "Run the periodic reminder digest until interrupted",
	RunE: func(cmd *cobra.Command, args []string) error {
		once, _ := cmd.Flags().GetString("user")
		return withApp(cmd, func(a *app.App) error {
			sched := a.Scheduler(nil)
			if once != "" {
				return sched.RunManualCheck(cmd.Context(), once)
			}

			if !a.Config.Digest.Enabled {
				return errors.New("digest is disabled; set digest.enabled or pass --user")
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			if err := sched.Start(); err != nil {
				return err
			}
			<-ctx.Done()
			a.Log.Info("Shutting down digest scheduler")
			sched.Stop()
			return nil
		})
	},
}

func init() {
	rootCmd.AddCommand(digestCmd)
	digestCmd.Flags().String("user", "", "send one digest to this user and exit")
}
