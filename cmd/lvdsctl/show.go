package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"
)

func showCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "show [run-id]",
		Short: "Show detailed run information",
		Long: `Show a bring-up run with its PHY records and metrics.

Examples:
  lvdsctl show 42
  lvdsctl show 42 -v`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			runID, err := strconv.ParseInt(args[0], 10, 64)
			if err != nil {
				return fmt.Errorf("invalid run ID: %s", args[0])
			}

			database, err := openDB()
			if err != nil {
				return err
			}
			defer func() { _ = database.Close() }()

			run, err := database.GetRun(runID)
			if err != nil {
				return fmt.Errorf("run %d not found", runID)
			}
			phys, err := database.GetPHYs(runID)
			if err != nil {
				return fmt.Errorf("failed to get PHYs: %w", err)
			}
			results, err := database.GetResults(runID)
			if err != nil {
				return fmt.Errorf("failed to get results: %w", err)
			}

			fmt.Printf("Run ID: %d\n", run.ID)
			fmt.Printf("Panel: %s\n", run.Panel)
			fmt.Printf("Backend: %s\n", run.Backend)
			if run.Host != "" {
				fmt.Printf("Host: %s\n", run.Host)
			}
			fmt.Printf("Start Time: %s\n", run.StartTime.Format("2006-01-02 15:04:05"))
			if run.EndTime != nil {
				fmt.Printf("End Time: %s\n", run.EndTime.Format("2006-01-02 15:04:05"))
				fmt.Printf("Duration: %s\n", run.Duration())
			} else {
				fmt.Printf("End Time: (still running)\n")
			}
			fmt.Printf("Status: %s\n", run.GetStatus())
			if run.Error != "" {
				fmt.Printf("Error: %s\n", run.Error)
			}
			if run.Topology != "" {
				fmt.Printf("Topology: %s\n", run.Topology)
				fmt.Printf("Format: %s\n", run.Format)
			}

			if len(phys) > 0 {
				fmt.Printf("\nPHYs:\n")
				for _, p := range phys {
					fmt.Printf("  %-7s %-10s ndiv=%d bdiv=%d mdiv=%d %d/%d kHz, %d polls, %s\n",
						p.PHY, p.State, p.NDiv, p.BDiv, p.MDiv, p.AchievedKHz, p.TargetKHz, p.Polls, p.LockTime)
					if p.Error != "" {
						fmt.Printf("          %s\n", p.Error)
					}
				}
			}

			if len(results) > 0 {
				fmt.Printf("\nResults:\n")
				for _, result := range results {
					if result.Unit != "" {
						fmt.Printf("  %s: %.2f %s\n", result.Metric, result.Value, result.Unit)
					} else {
						fmt.Printf("  %s: %.2f\n", result.Metric, result.Value)
					}
				}
			}

			verbose, _ := cmd.Flags().GetBool("verbose")
			if verbose && len(run.Params) > 0 {
				fmt.Printf("\nParameters:\n")
				for k, v := range run.Params {
					fmt.Printf("  %s: %v\n", k, v)
				}
			}

			return nil
		},
	}

	cmd.Flags().BoolP("verbose", "v", false, "Also show the run parameters")

	return cmd
}
