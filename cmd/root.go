package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/example/studytrack/internal/app"
	"github.com/example/studytrack/internal/config"
)

var loadOpts config.LoadOptions

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:           "studytrack",
	Short:         "Spaced repetition review scheduler",
	Long:          "Tracks study topics, schedules their reviews with SM-2 and reports what is due or fading.",
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute adds all child commands to the root command and runs it.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&loadOpts.ConfigFile, "config", "", "config file (default: ./config.yaml or ./config/config.yaml)")
	rootCmd.PersistentFlags().StringVar(&loadOpts.EnvFile, "env-file", ".env", "env file loaded before reading the environment")
}

// withApp wires the application for a single command run.
func withApp(cmd *cobra.Command, fn func(a *app.App) error) error {
	a, err := app.New(cmd.Context(), loadOpts)
	if err != nil {
		return err
	}
	defer a.Close()
	return fn(a)
}

func printJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
