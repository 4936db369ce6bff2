package db

import (
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3" // SQLite driver
)

var ErrNotFound = errors.New("record not found")

// DB wraps the SQL database connection
type DB struct {
	conn *sql.DB
	path string
}

// Open creates or opens a SQLite database
func Open(path string) (*DB, error) {
	// Create directory if it doesn't exist
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create database directory: %w", err)
	}

	conn, err := sql.Open("sqlite3", path+"?_journal_mode=WAL&_foreign_keys=on")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := conn.Ping(); err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	db := &DB{
		conn: conn,
		path: path,
	}

	if err := db.Migrate(); err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	return db, nil
}

// Close closes the database connection
func (db *DB) Close() error {
	return db.conn.Close()
}

// Conn returns the underlying database connection
func (db *DB) Conn() *sql.DB {
	return db.conn
}

// Path returns the database file path
func (db *DB) Path() string {
	return db.path
}

// Migrate creates or updates the database schema
func (db *DB) Migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS runs (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		panel TEXT NOT NULL,
		backend TEXT NOT NULL,
		params TEXT,
		topology TEXT NOT NULL DEFAULT '',
		format TEXT NOT NULL DEFAULT '',
		host TEXT NOT NULL DEFAULT '',
		start_time DATETIME NOT NULL,
		end_time DATETIME,
		success BOOLEAN DEFAULT 0,
		error TEXT NOT NULL DEFAULT '',
		created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
		updated_at DATETIME DEFAULT CURRENT_TIMESTAMP
	);

	CREATE TABLE IF NOT EXISTS phys (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		run_id INTEGER NOT NULL,
		phy TEXT NOT NULL,
		ndiv INTEGER NOT NULL,
		bdiv INTEGER NOT NULL,
		mdiv INTEGER NOT NULL,
		target_khz INTEGER NOT NULL,
		achieved_khz INTEGER NOT NULL,
		state TEXT NOT NULL,
		polls INTEGER NOT NULL,
		lock_time_ns INTEGER NOT NULL,
		error TEXT NOT NULL DEFAULT '',
		FOREIGN KEY (run_id) REFERENCES runs(id) ON DELETE CASCADE
	);

	CREATE TABLE IF NOT EXISTS results (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		run_id INTEGER NOT NULL,
		metric TEXT NOT NULL,
		value REAL NOT NULL,
		unit TEXT NOT NULL DEFAULT '',
		created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
		FOREIGN KEY (run_id) REFERENCES runs(id) ON DELETE CASCADE
	);

	CREATE TABLE IF NOT EXISTS schedules (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		name TEXT NOT NULL UNIQUE,
		description TEXT NOT NULL DEFAULT '',
		cron_expr TEXT NOT NULL,
		panel TEXT NOT NULL,
		backend TEXT NOT NULL,
		params TEXT,
		enabled BOOLEAN DEFAULT 1,
		last_run_id INTEGER,
		last_run_time DATETIME,
		next_run_time DATETIME,
		created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
		updated_at DATETIME DEFAULT CURRENT_TIMESTAMP,
		FOREIGN KEY (last_run_id) REFERENCES runs(id) ON DELETE SET NULL
	);

	CREATE INDEX IF NOT EXISTS idx_runs_panel ON runs(panel);
	CREATE INDEX IF NOT EXISTS idx_runs_start_time ON runs(start_time);
	CREATE INDEX IF NOT EXISTS idx_runs_success ON runs(success);
	CREATE INDEX IF NOT EXISTS idx_phys_run_id ON phys(run_id);
	CREATE INDEX IF NOT EXISTS idx_results_run_id ON results(run_id);
	CREATE INDEX IF NOT EXISTS idx_results_metric ON results(metric);
	CREATE INDEX IF NOT EXISTS idx_schedules_enabled ON schedules(enabled);
	CREATE INDEX IF NOT EXISTS idx_schedules_next_run ON schedules(next_run_time);

	CREATE TRIGGER IF NOT EXISTS update_runs_timestamp
	AFTER UPDATE ON runs
	BEGIN
		UPDATE runs SET updated_at = CURRENT_TIMESTAMP WHERE id = NEW.id;
	END;

	CREATE TRIGGER IF NOT EXISTS update_schedules_timestamp
	AFTER UPDATE ON schedules
	BEGIN
		UPDATE schedules SET updated_at = CURRENT_TIMESTAMP WHERE id = NEW.id;
	END;
	`

	_, err := db.conn.Exec(schema)
	return err
}

const runColumns = `id, panel, backend, params, topology, format, host,
	start_time, end_time, success, error, created_at, updated_at`

func scanRun(row interface{ Scan(...interface{}) error }) (*Run, error) {
	run := &Run{}
	err := row.Scan(
		&run.ID, &run.Panel, &run.Backend, &run.Params, &run.Topology,
		&run.Format, &run.Host, &run.StartTime, &run.EndTime, &run.Success,
		&run.Error, &run.CreatedAt, &run.UpdatedAt,
	)
	return run, err
}

// CreateRun creates a new bring-up run record
func (db *DB) CreateRun(panel, backend string, params JSONData) (*Run, error) {
	now := time.Now()
	run := &Run{
		Panel:     panel,
		Backend:   backend,
		Params:    params,
		StartTime: now,
		CreatedAt: now,
		UpdatedAt: now,
	}

	result, err := db.conn.Exec(
		`INSERT INTO runs (panel, backend, params, start_time, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		run.Panel, run.Backend, run.Params, run.StartTime, run.CreatedAt, run.UpdatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create run: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("failed to get last insert id: %w", err)
	}

	run.ID = id
	return run, nil
}

// UpdateRun updates a run record
func (db *DB) UpdateRun(run *Run) error {
	_, err := db.conn.Exec(
		`UPDATE runs SET
		 topology = ?, format = ?, host = ?, start_time = ?, end_time = ?,
		 success = ?, error = ?, updated_at = ?
		 WHERE id = ?`,
		run.Topology, run.Format, run.Host, run.StartTime, run.EndTime,
		run.Success, run.Error, time.Now(), run.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update run: %w", err)
	}
	return nil
}

// GetRun retrieves a run by ID
func (db *DB) GetRun(id int64) (*Run, error) {
	run, err := scanRun(db.conn.QueryRow(
		`SELECT `+runColumns+` FROM runs WHERE id = ?`, id,
	))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("run %d: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get run: %w", err)
	}
	return run, nil
}

// ListRuns retrieves runs based on filters
func (db *DB) ListRuns(filter RunFilter) ([]*Run, error) {
	query := `SELECT ` + runColumns + ` FROM runs WHERE 1=1`
	args := []interface{}{}

	if filter.Panel != "" {
		query += " AND panel = ?"
		args = append(args, filter.Panel)
	}

	if filter.Backend != "" {
		query += " AND backend = ?"
		args = append(args, filter.Backend)
	}

	if filter.StartTime != nil {
		query += " AND start_time >= ?"
		args = append(args, *filter.StartTime)
	}

	if filter.EndTime != nil {
		query += " AND start_time <= ?"
		args = append(args, *filter.EndTime)
	}

	if filter.Success != nil {
		query += " AND success = ?"
		args = append(args, *filter.Success)
	}

	query += " ORDER BY start_time DESC, id DESC"

	if filter.Limit > 0 {
		query += " LIMIT ?"
		args = append(args, filter.Limit)

		if filter.Offset > 0 {
			query += " OFFSET ?"
			args = append(args, filter.Offset)
		}
	}

	rows, err := db.conn.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list runs: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var runs []*Run
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan run: %w", err)
		}
		runs = append(runs, run)
	}

	return runs, rows.Err()
}

// DeleteRun removes a run with its PHY records and results
func (db *DB) DeleteRun(id int64) error {
	res, err := db.conn.Exec(`DELETE FROM runs WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete run: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("run %d: %w", id, ErrNotFound)
	}
	return nil
}

// CreatePHYs stores the per-PHY records of a run in a transaction
func (db *DB) CreatePHYs(runID int64, phys []PHY) error {
	tx, err := db.conn.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		// Only rollback if we haven't committed
		_ = tx.Rollback()
	}()

	stmt, err := tx.Prepare(
		`INSERT INTO phys (run_id, phy, ndiv, bdiv, mdiv, target_khz, achieved_khz,
		 state, polls, lock_time_ns, error) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
	)
	if err != nil {
		return fmt.Errorf("failed to prepare statement: %w", err)
	}
	defer func() { _ = stmt.Close() }()

	for _, p := range phys {
		if _, err := stmt.Exec(runID, p.PHY, p.NDiv, p.BDiv, p.MDiv, p.TargetKHz,
			p.AchievedKHz, p.State, p.Polls, int64(p.LockTime), p.Error); err != nil {
			return fmt.Errorf("failed to insert phy %s: %w", p.PHY, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// GetPHYs retrieves the PHY records of a run in bring-up order
func (db *DB) GetPHYs(runID int64) ([]*PHY, error) {
	rows, err := db.conn.Query(
		`SELECT id, run_id, phy, ndiv, bdiv, mdiv, target_khz, achieved_khz,
		 state, polls, lock_time_ns, error
		 FROM phys WHERE run_id = ? ORDER BY id`,
		runID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to get phys: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var phys []*PHY
	for rows.Next() {
		p := &PHY{}
		var lockNS int64
		err := rows.Scan(
			&p.ID, &p.RunID, &p.PHY, &p.NDiv, &p.BDiv, &p.MDiv, &p.TargetKHz,
			&p.AchievedKHz, &p.State, &p.Polls, &lockNS, &p.Error,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan phy: %w", err)
		}
		p.LockTime = time.Duration(lockNS)
		phys = append(phys, p)
	}

	return phys, rows.Err()
}

// CreateResults creates multiple result records in a transaction
func (db *DB) CreateResults(runID int64, metrics map[string]float64, units map[string]string) error {
	tx, err := db.conn.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		// Only rollback if we haven't committed
		_ = tx.Rollback()
	}()

	stmt, err := tx.Prepare(
		`INSERT INTO results (run_id, metric, value, unit) VALUES (?, ?, ?, ?)`,
	)
	if err != nil {
		return fmt.Errorf("failed to prepare statement: %w", err)
	}
	defer func() { _ = stmt.Close() }()

	for metric, value := range metrics {
		unit := units[metric]
		if _, err := stmt.Exec(runID, metric, value, unit); err != nil {
			return fmt.Errorf("failed to insert result %s: %w", metric, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	return nil
}

// GetResults retrieves results for a run
func (db *DB) GetResults(runID int64) ([]*Result, error) {
	id := runID
	return db.ListResults(ResultFilter{RunID: &id})
}

// ListResults retrieves results based on filters, ordered by metric
func (db *DB) ListResults(filter ResultFilter) ([]*Result, error) {
	query := `SELECT id, run_id, metric, value, unit, created_at
	          FROM results WHERE 1=1`
	args := []interface{}{}

	if filter.RunID != nil {
		query += " AND run_id = ?"
		args = append(args, *filter.RunID)
	}

	if filter.Metric != "" {
		query += " AND metric = ?"
		args = append(args, filter.Metric)
	}

	query += " ORDER BY run_id DESC, metric"

	if filter.Limit > 0 {
		query += " LIMIT ?"
		args = append(args, filter.Limit)

		if filter.Offset > 0 {
			query += " OFFSET ?"
			args = append(args, filter.Offset)
		}
	}

	rows, err := db.conn.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list results: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var results []*Result
	for rows.Next() {
		result := &Result{}
		err := rows.Scan(
			&result.ID, &result.RunID, &result.Metric,
			&result.Value, &result.Unit, &result.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan result: %w", err)
		}
		results = append(results, result)
	}

	return results, rows.Err()
}
