package main

import (
	"fmt"
	"log/slog"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/ashureev/feedback-coach/internal/scenario"
)

func scenariosCmd(logger *slog.Logger) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "scenarios",
		Short: "Inspect the scenario catalog",
	}
	cmd.AddCommand(scenariosListCmd(logger))
	return cmd
}

func scenariosListCmd(logger *slog.Logger) *cobra.Command {
	var file string
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List preset scenarios",
		RunE: func(cmd *cobra.Command, _ []string) error {
			catalog := scenario.NewCatalog(scenario.WithLogger(logger))
			if file != "" {
				if err := catalog.LoadFile(file); err != nil {
					return err
				}
			}

			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "ID\tDIFFICULTY\tTITLE\tEMPLOYEE")
			for _, s := range catalog.Presets() {
				fmt.Fprintf(tw, "%s\t%s\t%s\t%s (%s)\n", s.ID, s.Difficulty, s.Title, s.EmployeeName, s.EmployeeRole)
			}
			return tw.Flush()
		},
	}
	cmd.Flags().StringVar(&file, "file", os.Getenv("SCENARIOS_FILE"), "YAML preset file (defaults to SCENARIOS_FILE)")
	return cmd
}
