package db

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"strconv"
)

var csvHeaders = []string{
	"Run ID", "Panel", "Backend", "Topology", "Format", "Start Time", "End Time",
	"Duration (s)", "Success", "Metric", "Value", "Unit",
}

const timeLayout = "2006-01-02 15:04:05"

// RunExport is the JSON form of one run
type RunExport struct {
	Run     *Run      `json:"run"`
	PHYs    []*PHY    `json:"phys"`
	Results []*Result `json:"results"`
}

func (db *DB) runExport(run *Run) (RunExport, error) {
	phys, err := db.GetPHYs(run.ID)
	if err != nil {
		return RunExport{}, fmt.Errorf("failed to get phys for run %d: %w", run.ID, err)
	}
	results, err := db.GetResults(run.ID)
	if err != nil {
		return RunExport{}, fmt.Errorf("failed to get results for run %d: %w", run.ID, err)
	}
	return RunExport{Run: run, PHYs: phys, Results: results}, nil
}

func writeRunCSV(w *csv.Writer, run *Run, results []*Result) error {
	end := ""
	if run.EndTime != nil {
		end = run.EndTime.Format(timeLayout)
	}

	for _, result := range results {
		row := []string{
			strconv.FormatInt(run.ID, 10),
			run.Panel,
			run.Backend,
			run.Topology,
			run.Format,
			run.StartTime.Format(timeLayout),
			end,
			fmt.Sprintf("%.3f", run.Duration().Seconds()),
			strconv.FormatBool(run.Success),
			result.Metric,
			fmt.Sprintf("%.6f", result.Value),
			result.Unit,
		}
		if err := w.Write(row); err != nil {
			return fmt.Errorf("failed to write row: %w", err)
		}
	}
	return nil
}

// ExportCSV exports the results of one run to CSV format
func (db *DB) ExportCSV(w io.Writer, runID int64) error {
	run, err := db.GetRun(runID)
	if err != nil {
		return err
	}
	results, err := db.GetResults(runID)
	if err != nil {
		return fmt.Errorf("failed to get results: %w", err)
	}

	csvWriter := csv.NewWriter(w)
	if err := csvWriter.Write(csvHeaders); err != nil {
		return fmt.Errorf("failed to write headers: %w", err)
	}
	if err := writeRunCSV(csvWriter, run, results); err != nil {
		return err
	}
	csvWriter.Flush()
	return csvWriter.Error()
}

// ExportJSON exports one run with its PHY records and results to JSON format
func (db *DB) ExportJSON(w io.Writer, runID int64) error {
	run, err := db.GetRun(runID)
	if err != nil {
		return err
	}
	export, err := db.runExport(run)
	if err != nil {
		return err
	}

	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(export); err != nil {
		return fmt.Errorf("failed to encode JSON: %w", err)
	}
	return nil
}

// ExportAllCSV exports all runs matching filter to CSV format
func (db *DB) ExportAllCSV(w io.Writer, filter RunFilter) error {
	runs, err := db.ListRuns(filter)
	if err != nil {
		return err
	}

	csvWriter := csv.NewWriter(w)
	if err := csvWriter.Write(csvHeaders); err != nil {
		return fmt.Errorf("failed to write headers: %w", err)
	}

	for _, run := range runs {
		results, err := db.GetResults(run.ID)
		if err != nil {
			return fmt.Errorf("failed to get results for run %d: %w", run.ID, err)
		}
		if err := writeRunCSV(csvWriter, run, results); err != nil {
			return err
		}
	}

	csvWriter.Flush()
	return csvWriter.Error()
}

// ExportAllJSON exports all runs matching filter to JSON format
func (db *DB) ExportAllJSON(w io.Writer, filter RunFilter) error {
	runs, err := db.ListRuns(filter)
	if err != nil {
		return err
	}

	exports := make([]RunExport, 0, len(runs))
	for _, run := range runs {
		export, err := db.runExport(run)
		if err != nil {
			return err
		}
		exports = append(exports, export)
	}

	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(exports); err != nil {
		return fmt.Errorf("failed to encode JSON: %w", err)
	}
	return nil
}
