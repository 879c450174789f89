// Feedback Coach - roleplay practice server for manager feedback conversations.
package main

import (
	"context"
	"log/slog"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	if err := godotenv.Load(); err != nil {
		slog.Info("No .env file found, using environment variables")
	}

	if err := rootCmd(logger).ExecuteContext(context.Background()); err != nil {
		os.Exit(1)
	}
}

func rootCmd(logger *slog.Logger) *cobra.Command {
	root := &cobra.Command{
		Use:          "feedback-coach",
		Short:        "Practice difficult feedback conversations with a simulated employee",
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runServe(cmd.Context(), logger)
		},
	}

	root.AddCommand(
		serveCmd(logger),
		sessionsCmd(logger),
		scenariosCmd(logger),
	)
	return root
}
