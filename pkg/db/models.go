package db

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"
)

// Run is one bring-up attempt
type Run struct {
	ID        int64      `json:"id"`
	Panel     string     `json:"panel"`
	Backend   string     `json:"backend"`
	Params    JSONData   `json:"params"`
	Topology  string     `json:"topology"`
	Format    string     `json:"format"`
	Host      string     `json:"host"`
	StartTime time.Time  `json:"start_time"`
	EndTime   *time.Time `json:"end_time"`
	Success   bool       `json:"success"`
	Error     string     `json:"error,omitempty"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
}

// PHY is the record of one PHY within a run
type PHY struct {
	ID          int64         `json:"id"`
	RunID       int64         `json:"run_id"`
	PHY         string        `json:"phy"`
	NDiv        uint32        `json:"ndiv"`
	BDiv        uint32        `json:"bdiv"`
	MDiv        uint32        `json:"mdiv"`
	TargetKHz   uint32        `json:"target_khz"`
	AchievedKHz uint32        `json:"achieved_khz"`
	State       string        `json:"state"`
	Polls       int           `json:"polls"`
	LockTime    time.Duration `json:"lock_time"`
	Error       string        `json:"error,omitempty"`
}

// Result represents a metric of a run
type Result struct {
	ID        int64     `json:"id"`
	RunID     int64     `json:"run_id"`
	Metric    string    `json:"metric"`
	Value     float64   `json:"value"`
	Unit      string    `json:"unit"`
	CreatedAt time.Time `json:"created_at"`
}

// JSONData is a custom type for storing JSON in SQLite
type JSONData map[string]interface{}

// Value implements the driver.Valuer interface
func (j JSONData) Value() (driver.Value, error) {
	if j == nil {
		return nil, nil
	}
	return json.Marshal(j)
}

// Scan implements the sql.Scanner interface
func (j *JSONData) Scan(value interface{}) error {
	if value == nil {
		*j = nil
		return nil
	}

	var data []byte
	switch v := value.(type) {
	case []byte:
		data = v
	case string:
		data = []byte(v)
	default:
		return fmt.Errorf("cannot scan type %T into JSONData", value)
	}

	return json.Unmarshal(data, j)
}

// ToJSONData converts any JSON-encodable value into JSONData
func ToJSONData(v interface{}) (JSONData, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("failed to encode params: %w", err)
	}
	var j JSONData
	if err := json.Unmarshal(data, &j); err != nil {
		return nil, fmt.Errorf("failed to decode params: %w", err)
	}
	return j, nil
}

// RunStatus represents the status of a run
type RunStatus string

const (
	RunStatusPending  RunStatus = "pending"
	RunStatusRunning  RunStatus = "running"
	RunStatusComplete RunStatus = "complete"
	RunStatusFailed   RunStatus = "failed"
)

// GetStatus returns the status of a run
func (r *Run) GetStatus() RunStatus {
	if r.EndTime == nil {
		if r.StartTime.IsZero() {
			return RunStatusPending
		}
		return RunStatusRunning
	}

	if r.Success {
		return RunStatusComplete
	}
	return RunStatusFailed
}

// Duration returns the duration of the run
func (r *Run) Duration() time.Duration {
	if r.EndTime == nil {
		return 0
	}
	return r.EndTime.Sub(r.StartTime)
}

// RunFilter represents filters for querying runs
type RunFilter struct {
	Panel     string
	Backend   string
	StartTime *time.Time
	EndTime   *time.Time
	Success   *bool
	Limit     int
	Offset    int
}

// ResultFilter represents filters for querying results
type ResultFilter struct {
	RunID  *int64
	Metric string
	Limit  int
	Offset int
}

// ExportFormat represents the format for exporting data
type ExportFormat string

const (
	ExportFormatCSV  ExportFormat = "csv"
	ExportFormatJSON ExportFormat = "json"
)
