package main

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/ashureev/feedback-coach/internal/api"
	"github.com/ashureev/feedback-coach/internal/config"
	"github.com/ashureev/feedback-coach/internal/domain"
	"github.com/ashureev/feedback-coach/internal/store"
)

func sessionsCmd(logger *slog.Logger) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "sessions",
		Short: "Inspect or clear saved practice sessions",
	}
	cmd.AddCommand(sessionsListCmd(logger), sessionsClearCmd(logger))
	return cmd
}

func openStore(logger *slog.Logger, opts ...store.Option) (store.SessionStore, error) {
	cfg, err := config.LoadStorage()
	if err != nil {
		return nil, err
	}
	opts = append([]store.Option{store.WithLogger(logger)}, opts...)
	return store.Open(cfg.StoreDriver, cfg.SessionsFile, cfg.DBPath, opts...)
}

func sessionsListCmd(logger *slog.Logger) *cobra.Command {
	var days int
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List saved sessions, newest first",
		Long:  "List saved sessions, newest first. The store is opened read-only; a missing store lists nothing.",
		RunE: func(cmd *cobra.Command, _ []string) error {
			st, err := openStore(logger, store.ReadOnly())
			if errors.Is(err, fs.ErrNotExist) {
				return printSessions(cmd.OutOrStdout(), nil)
			}
			if err != nil {
				return err
			}
			defer st.Close()

			sessions := api.FilterRecent(st.List(cmd.Context()), days, time.Now())
			return printSessions(cmd.OutOrStdout(), sessions)
		},
	}
	cmd.Flags().IntVar(&days, "days", 0, "Only show sessions from the last N days (0 = all)")
	return cmd
}

func printSessions(out io.Writer, sessions []domain.Session) error {
	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tWHEN\tDIFFICULTY\tSCENARIO\tMESSAGES")
	for _, s := range sessions {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%d\n",
			s.ID, s.Timestamp.Local().Format("Jan 2 15:04"), s.Scenario.Difficulty, s.Scenario.Title, len(s.Messages))
	}
	stats := api.ComputeStats(sessions)
	fmt.Fprintf(tw, "\nTotal: %d\tMost popular level: %s\n", stats.Total, stats.TopDifficulty)
	return tw.Flush()
}

func sessionsClearCmd(logger *slog.Logger) *cobra.Command {
	var yes bool
	cmd := &cobra.Command{
		Use:   "clear",
		Short: "Delete all saved sessions",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if !yes {
				return errors.New("refusing to delete session history without --yes")
			}
			st, err := openStore(logger)
			if err != nil {
				return err
			}
			defer st.Close()

			if err := st.Clear(cmd.Context()); err != nil {
				return fmt.Errorf("clear sessions: %w", err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Session history cleared.")
			return nil
		},
	}
	cmd.Flags().BoolVar(&yes, "yes", false, "Confirm deleting every saved session")
	return cmd
}
