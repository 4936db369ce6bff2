package main

import (
	"fmt"
	"strings"

	"github.com/4ms/u-boot-stm32mp25/pkg/db"
	"github.com/spf13/cobra"
)

func listCmd() *cobra.Command {
	var (
		listPanel   string
		listBackend string
		listLimit   int
		listSuccess bool
		listFailed  bool
	)

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List bring-up runs",
		Long: `List bring-up runs from the database.

Examples:
  # List all runs
  lvdsctl list

  # List runs of one panel
  lvdsctl list --panel fhd-dual

  # List only failed runs
  lvdsctl list --failed`,
		RunE: func(_ *cobra.Command, _ []string) error {
			database, err := openDB()
			if err != nil {
				return err
			}
			defer func() { _ = database.Close() }()

			filter := db.RunFilter{
				Panel:   listPanel,
				Backend: listBackend,
				Limit:   listLimit,
			}
			if listSuccess && !listFailed {
				success := true
				filter.Success = &success
			} else if listFailed && !listSuccess {
				success := false
				filter.Success = &success
			}

			runs, err := database.ListRuns(filter)
			if err != nil {
				return fmt.Errorf("failed to list runs: %w", err)
			}

			if len(runs) == 0 {
				fmt.Println("No runs found")
				return nil
			}

			fmt.Printf("%-6s %-16s %-8s %-16s %-20s %-10s %-8s\n",
				"ID", "Panel", "Backend", "Topology", "Start Time", "Duration", "Status")
			fmt.Println(strings.Repeat("-", 90))

			for _, run := range runs {
				duration := "-"
				if run.EndTime != nil {
					duration = run.Duration().String()
				}

				fmt.Printf("%-6d %-16s %-8s %-16s %-20s %-10s %-8s\n",
					run.ID,
					truncate(run.Panel, 16),
					run.Backend,
					run.Topology,
					run.StartTime.Format("2006-01-02 15:04:05"),
					duration,
					run.GetStatus(),
				)
			}

			return nil
		},
	}

	cmd.Flags().StringVarP(&listPanel, "panel", "p", "", "Filter by panel name")
	cmd.Flags().StringVarP(&listBackend, "backend", "b", "", "Filter by backend")
	cmd.Flags().IntVarP(&listLimit, "limit", "n", 50, "Maximum number of runs to show")
	cmd.Flags().BoolVar(&listSuccess, "success", false, "Show only successful runs")
	cmd.Flags().BoolVar(&listFailed, "failed", false, "Show only failed runs")

	return cmd
}
