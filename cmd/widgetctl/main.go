package main

import (
	"log/slog"
	"os"

	"github.com/spf13/cobra"
)

// newRootCommand builds the base command when called without any subcommands.
func newRootCommand() *cobra.Command {
	logLevel := "warn"

	rootCmd := &cobra.Command{
		Use:   "widgetctl",
		Short: "Render and inspect chat message widgets",
		Long: `widgetctl dispatches the user-defined block of a chat message to its
widget and renders it the way the chat UI would, fetching feedback tokens
from a running API server.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			var level slog.Level
			if err := level.UnmarshalText([]byte(logLevel)); err != nil {
				return err
			}
			slog.SetDefault(slog.New(slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{Level: level})))
			slog.Debug("debug logging enabled")
			return nil
		},
	}

	rootCmd.AddCommand(
		NewRenderCommand(),
		NewTokenCommand(),
		NewTagsCommand(),
	)

	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", logLevel,
		"Log level (debug,info,warn,error)")

	return rootCmd
}

func main() {
	if err := newRootCommand().Execute(); err != nil {
		os.Exit(1)
	}
}
