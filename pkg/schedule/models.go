package schedule

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/4ms/u-boot-stm32mp25/pkg/backend"
	"github.com/4ms/u-boot-stm32mp25/pkg/db"
)

// Schedule is a recurring soak bring-up of one panel on one backend
type Schedule struct {
	ID          int64       `json:"id"`
	Name        string      `json:"name"`
	Description string      `json:"description"`
	CronExpr    string      `json:"cron_expr"`
	Panel       string      `json:"panel"`
	Backend     string      `json:"backend"`
	Params      db.JSONData `json:"params"`
	Enabled     bool        `json:"enabled"`
	LastRunID   *int64      `json:"last_run_id"`
	LastRunTime *time.Time  `json:"last_run_time"`
	NextRunTime *time.Time  `json:"next_run_time"`
	CreatedAt   time.Time   `json:"created_at"`
	UpdatedAt   time.Time   `json:"updated_at"`
}

// Params are the tunables stored with a schedule.
type Params struct {
	Options     backend.Options `json:"options"`
	Lenient     bool            `json:"lenient,omitempty"`
	LockTimeout time.Duration   `json:"lock_timeout,omitempty"`
}

// DecodeParams reads the stored tunables.
func (s *Schedule) DecodeParams() (Params, error) {
	var p Params
	if s.Params == nil {
		return p, nil
	}
	data, err := json.Marshal(s.Params)
	if err != nil {
		return p, fmt.Errorf("failed to encode params: %w", err)
	}
	if err := json.Unmarshal(data, &p); err != nil {
		return p, fmt.Errorf("invalid params for schedule %s: %w", s.Name, err)
	}
	return p, nil
}

// ScheduleFilter represents filters for querying schedules
type ScheduleFilter struct {
	Panel   string
	Enabled *bool
	Limit   int
	Offset  int
}

// IsOverdue returns true if the schedule is overdue for execution
func (s *Schedule) IsOverdue() bool {
	if !s.Enabled || s.NextRunTime == nil {
		return false
	}
	return time.Now().After(*s.NextRunTime)
}

// ShouldRun returns true if the schedule should run now
func (s *Schedule) ShouldRun() bool {
	if !s.Enabled {
		return false
	}

	// If never run, should run
	if s.LastRunTime == nil {
		return true
	}

	return s.IsOverdue()
}
