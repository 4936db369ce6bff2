package main

import (
	"fmt"
	"io"
	"os"

	"github.com/4ms/u-boot-stm32mp25/pkg/db"
	"github.com/spf13/cobra"
)

var (
	exportRunID  int64
	exportOutput string
	exportAll    bool
	exportPanel  string
)

func exportCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export bring-up runs",
		Long:  "Export bring-up runs with their PHY records and metrics",
	}

	cmd.AddCommand(exportFormatCmd(db.ExportFormatCSV))
	cmd.AddCommand(exportFormatCmd(db.ExportFormatJSON))

	return cmd
}

func exportFormatCmd(format db.ExportFormat) *cobra.Command {
	cmd := &cobra.Command{
		Use:   string(format),
		Short: fmt.Sprintf("Export runs to %s format", format),
		Long: fmt.Sprintf(`Export bring-up runs to %[1]s format.

Examples:
  # Export one run to a file
  lvdsctl export %[1]s --run 42 --out run.%[1]s

  # Export every run of a panel to stdout
  lvdsctl export %[1]s --all --panel fhd-dual`, format),
		RunE: func(_ *cobra.Command, _ []string) error {
			return runExport(format)
		},
	}

	cmd.Flags().Int64Var(&exportRunID, "run", 0, "Run ID to export")
	cmd.Flags().StringVarP(&exportOutput, "out", "o", "", "Output file (default: stdout)")
	cmd.Flags().BoolVar(&exportAll, "all", false, "Export all runs")
	cmd.Flags().StringVarP(&exportPanel, "panel", "p", "", "With --all, only runs of this panel")

	return cmd
}

func runExport(format db.ExportFormat) error {
	if !exportAll && exportRunID == 0 {
		return fmt.Errorf("either --run or --all must be specified")
	}

	database, err := openDB()
	if err != nil {
		return err
	}
	defer func() { _ = database.Close() }()

	if !exportAll {
		if _, err := database.GetRun(exportRunID); err != nil {
			return fmt.Errorf("run %d not found", exportRunID)
		}
	}

	var out io.Writer = os.Stdout
	if exportOutput != "" {
		f, err := os.Create(exportOutput)
		if err != nil {
			return fmt.Errorf("failed to create output file: %w", err)
		}
		defer func() { _ = f.Close() }()
		out = f
	}

	filter := db.RunFilter{Panel: exportPanel}
	switch {
	case exportAll && format == db.ExportFormatCSV:
		err = database.ExportAllCSV(out, filter)
	case exportAll:
		err = database.ExportAllJSON(out, filter)
	case format == db.ExportFormatCSV:
		err = database.ExportCSV(out, exportRunID)
	default:
		err = database.ExportJSON(out, exportRunID)
	}
	if err != nil {
		return fmt.Errorf("failed to export %s: %w", format, err)
	}

	if exportOutput != "" {
		if exportAll {
			fmt.Printf("Exported runs to %s\n", exportOutput)
		} else {
			fmt.Printf("Exported run %d to %s\n", exportRunID, exportOutput)
		}
	}
	return nil
}
