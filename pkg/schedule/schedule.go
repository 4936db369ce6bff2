package schedule

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/4ms/u-boot-stm32mp25/pkg/db"
	"github.com/robfig/cron/v3"
)

// parser accepts standard five field cron expressions.
var parser = cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow)

// nextRun validates expr and returns its next activation after now.
func nextRun(expr string, now time.Time) (time.Time, error) {
	sched, err := parser.Parse(expr)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid cron expression: %w", err)
	}
	return sched.Next(now), nil
}

// Store handles schedule persistence
type Store struct {
	db *db.DB
}

// NewStore creates a new schedule store
func NewStore(database *db.DB) *Store {
	return &Store{db: database}
}

const columns = `id, name, description, cron_expr, panel, backend, params, enabled,
	last_run_id, last_run_time, next_run_time, created_at, updated_at`

func scan(row interface{ Scan(...interface{}) error }) (*Schedule, error) {
	s := &Schedule{}
	err := row.Scan(
		&s.ID, &s.Name, &s.Description, &s.CronExpr, &s.Panel, &s.Backend,
		&s.Params, &s.Enabled, &s.LastRunID, &s.LastRunTime,
		&s.NextRunTime, &s.CreatedAt, &s.UpdatedAt,
	)
	return s, err
}

// Create creates a new schedule
func (s *Store) Create(schedule *Schedule) error {
	if schedule.Name == "" {
		return fmt.Errorf("schedule name cannot be empty")
	}

	now := time.Now()
	next, err := nextRun(schedule.CronExpr, now)
	if err != nil {
		return err
	}
	schedule.NextRunTime = &next
	schedule.CreatedAt = now
	schedule.UpdatedAt = now

	result, err := s.db.Conn().Exec(
		`INSERT INTO schedules (name, description, cron_expr, panel, backend, params, enabled, next_run_time, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		schedule.Name, schedule.Description, schedule.CronExpr, schedule.Panel,
		schedule.Backend, schedule.Params, schedule.Enabled, schedule.NextRunTime,
		schedule.CreatedAt, schedule.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create schedule: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get last insert id: %w", err)
	}

	schedule.ID = id
	return nil
}

// Get retrieves a schedule by ID
func (s *Store) Get(id int64) (*Schedule, error) {
	schedule, err := scan(s.db.Conn().QueryRow(`SELECT `+columns+` FROM schedules WHERE id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("schedule %d: %w", id, db.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get schedule: %w", err)
	}
	return schedule, nil
}

// GetByName retrieves a schedule by name
func (s *Store) GetByName(name string) (*Schedule, error) {
	schedule, err := scan(s.db.Conn().QueryRow(`SELECT `+columns+` FROM schedules WHERE name = ?`, name))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("schedule %q: %w", name, db.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get schedule: %w", err)
	}
	return schedule, nil
}

func (s *Store) query(query string, args ...interface{}) ([]*Schedule, error) {
	rows, err := s.db.Conn().Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var schedules []*Schedule
	for rows.Next() {
		schedule, err := scan(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan schedule: %w", err)
		}
		schedules = append(schedules, schedule)
	}
	return schedules, rows.Err()
}

// List retrieves schedules based on filters
func (s *Store) List(filter ScheduleFilter) ([]*Schedule, error) {
	query := `SELECT ` + columns + ` FROM schedules WHERE 1=1`
	args := []interface{}{}

	if filter.Panel != "" {
		query += " AND panel = ?"
		args = append(args, filter.Panel)
	}

	if filter.Enabled != nil {
		query += " AND enabled = ?"
		args = append(args, *filter.Enabled)
	}

	query += " ORDER BY name"

	if filter.Limit > 0 {
		query += " LIMIT ?"
		args = append(args, filter.Limit)

		if filter.Offset > 0 {
			query += " OFFSET ?"
			args = append(args, filter.Offset)
		}
	}

	schedules, err := s.query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list schedules: %w", err)
	}
	return schedules, nil
}

// Update updates a schedule
func (s *Store) Update(schedule *Schedule) error {
	now := time.Now()
	next, err := nextRun(schedule.CronExpr, now)
	if err != nil {
		return err
	}
	schedule.NextRunTime = &next
	schedule.UpdatedAt = now

	_, err = s.db.Conn().Exec(
		`UPDATE schedules SET name = ?, description = ?, cron_expr = ?, panel = ?,
		 backend = ?, params = ?, enabled = ?, next_run_time = ?, updated_at = ?
		 WHERE id = ?`,
		schedule.Name, schedule.Description, schedule.CronExpr, schedule.Panel,
		schedule.Backend, schedule.Params, schedule.Enabled, schedule.NextRunTime,
		schedule.UpdatedAt, schedule.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update schedule: %w", err)
	}
	return nil
}

// UpdateLastRun updates the last run information for a schedule
func (s *Store) UpdateLastRun(scheduleID int64, runID int64) error {
	schedule, err := s.Get(scheduleID)
	if err != nil {
		return err
	}

	now := time.Now()
	next, err := nextRun(schedule.CronExpr, now)
	if err != nil {
		return err
	}

	_, err = s.db.Conn().Exec(
		`UPDATE schedules SET last_run_id = ?, last_run_time = ?, next_run_time = ?
		 WHERE id = ?`,
		runID, now, next, scheduleID,
	)
	if err != nil {
		return fmt.Errorf("failed to update last run: %w", err)
	}
	return nil
}

// Enable enables a schedule
func (s *Store) Enable(id int64) error {
	schedule, err := s.Get(id)
	if err != nil {
		return err
	}

	next, err := nextRun(schedule.CronExpr, time.Now())
	if err != nil {
		return err
	}

	_, err = s.db.Conn().Exec(
		`UPDATE schedules SET enabled = 1, next_run_time = ? WHERE id = ?`,
		next, id,
	)
	if err != nil {
		return fmt.Errorf("failed to enable schedule: %w", err)
	}
	return nil
}

// Disable disables a schedule
func (s *Store) Disable(id int64) error {
	res, err := s.db.Conn().Exec(`UPDATE schedules SET enabled = 0 WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to disable schedule: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("schedule %d: %w", id, db.ErrNotFound)
	}
	return nil
}

// Delete deletes a schedule
func (s *Store) Delete(id int64) error {
	res, err := s.db.Conn().Exec(`DELETE FROM schedules WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete schedule: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("schedule %d: %w", id, db.ErrNotFound)
	}
	return nil
}

// GetDue returns all enabled schedules whose next run time has passed
func (s *Store) GetDue(now time.Time) ([]*Schedule, error) {
	schedules, err := s.query(
		`SELECT `+columns+` FROM schedules
		 WHERE enabled = 1 AND (next_run_time IS NULL OR next_run_time <= ?)
		 ORDER BY next_run_time`,
		now,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to get due schedules: %w", err)
	}
	return schedules, nil
}
