package schedule

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/4ms/u-boot-stm32mp25/pkg/bench"
	"github.com/4ms/u-boot-stm32mp25/pkg/db"
	"github.com/4ms/u-boot-stm32mp25/pkg/panel"
	"github.com/robfig/cron/v3"
)

// Runner executes scheduled soak bring-ups and records them
type Runner struct {
	cron     *cron.Cron
	store    *Store
	database *db.DB
	jobs     map[int64]cron.EntryID
	mu       sync.RWMutex
	logger   *log.Logger
	ctx      context.Context
	cancel   context.CancelFunc

	// profiles loaded from a watched file take precedence over the built-ins
	profiles *panel.Registry
	wg       sync.WaitGroup

	host string
}

// NewRunner creates a new schedule runner
func NewRunner(database *db.DB, logger *log.Logger) *Runner {
	if logger == nil {
		logger = log.Default()
	}

	ctx, cancel := context.WithCancel(context.Background())

	return &Runner{
		cron:     cron.New(cron.WithParser(parser)),
		store:    NewStore(database),
		database: database,
		jobs:     make(map[int64]cron.EntryID),
		logger:   logger,
		ctx:      ctx,
		cancel:   cancel,
		profiles: panel.NewRegistry(),
		host:     bench.HostInfo(),
	}
}

// Store returns the schedule store of the runner
func (r *Runner) Store() *Store {
	return r.store
}

// Start loads the enabled schedules and starts the scheduler
func (r *Runner) Start() error {
	r.logger.Println("Starting scheduler...")

	enabled := true
	schedules, err := r.store.List(ScheduleFilter{Enabled: &enabled})
	if err != nil {
		return fmt.Errorf("failed to load schedules: %w", err)
	}

	for _, schedule := range schedules {
		if err := r.registerSchedule(schedule); err != nil {
			r.logger.Printf("Failed to register schedule %s: %v", schedule.Name, err)
		}
	}

	r.cron.Start()

	r.mu.RLock()
	n := len(r.jobs)
	r.mu.RUnlock()
	r.logger.Printf("Scheduler started with %d active schedules", n)
	return nil
}

// Stop stops the scheduler and waits for running bring-ups
func (r *Runner) Stop() {
	r.logger.Println("Stopping scheduler...")

	r.cancel()
	ctx := r.cron.Stop()

	select {
	case <-ctx.Done():
	case <-time.After(time.Minute):
		r.logger.Println("Timeout waiting for jobs to complete")
	}
	r.wg.Wait()

	r.logger.Println("Scheduler stopped")
}

// RegisterSchedule adds a schedule to the runner
func (r *Runner) RegisterSchedule(scheduleID int64) error {
	schedule, err := r.store.Get(scheduleID)
	if err != nil {
		return err
	}
	return r.registerSchedule(schedule)
}

// UnregisterSchedule removes a schedule from the runner
func (r *Runner) UnregisterSchedule(scheduleID int64) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if entryID, exists := r.jobs[scheduleID]; exists {
		r.cron.Remove(entryID)
		delete(r.jobs, scheduleID)
		r.logger.Printf("Unregistered schedule ID %d", scheduleID)
	}
}

// RefreshSchedule re-reads a schedule and registers it again if enabled
func (r *Runner) RefreshSchedule(scheduleID int64) error {
	r.UnregisterSchedule(scheduleID)

	schedule, err := r.store.Get(scheduleID)
	if err != nil {
		return err
	}
	return r.registerSchedule(schedule)
}

func (r *Runner) registerSchedule(schedule *Schedule) error {
	if !schedule.Enabled {
		return nil
	}

	id := schedule.ID
	entryID, err := r.cron.AddFunc(schedule.CronExpr, func() {
		select {
		case <-r.ctx.Done():
			return
		default:
		}
		r.wg.Add(1)
		go func() {
			defer r.wg.Done()
			if _, err := r.RunOnce(id); err != nil {
				r.logger.Printf("Failed to execute schedule %d: %v", id, err)
			}
		}()
	})
	if err != nil {
		return fmt.Errorf("failed to add cron job: %w", err)
	}

	r.mu.Lock()
	r.jobs[id] = entryID
	r.mu.Unlock()

	r.logger.Printf("Registered schedule '%s' (ID: %d) with cron expression: %s",
		schedule.Name, id, schedule.CronExpr)
	return nil
}

// resolvePanel looks the panel up in the watched profile file first.
func (r *Runner) resolvePanel(name string) (panel.Profile, error) {
	if p, err := r.profiles.Get(name); err == nil {
		return p, nil
	}
	return panel.Get(name)
}

// RunOnce executes a schedule now and returns the recorded run. A failed
// bring-up is recorded and is not an error; only failures to run or record
// are returned.
func (r *Runner) RunOnce(scheduleID int64) (run *db.Run, err error) {
	defer func() {
		if p := recover(); p != nil {
			err = fmt.Errorf("panic in schedule %d: %v", scheduleID, p)
		}
	}()

	schedule, err := r.store.Get(scheduleID)
	if err != nil {
		return nil, err
	}
	sp, err := schedule.DecodeParams()
	if err != nil {
		return nil, err
	}
	profile, err := r.resolvePanel(schedule.Panel)
	if err != nil {
		return nil, err
	}
	cfg, err := profile.Config(sp.Lenient)
	if err != nil {
		return nil, err
	}

	params := bench.Params{
		Panel:       profile.Name,
		Backend:     schedule.Backend,
		Options:     sp.Options,
		Config:      cfg,
		LockTimeout: sp.LockTimeout,
		Logger:      r.logger,
	}

	run, err = bench.Begin(r.database, params)
	if err != nil {
		return nil, fmt.Errorf("failed to create run record: %w", err)
	}
	r.logger.Printf("Started run %d for schedule %s", run.ID, schedule.Name)

	result, runErr := bench.Run(r.ctx, params)
	if errors.Is(runErr, context.Canceled) {
		r.logger.Printf("Run %d for schedule %s cancelled", run.ID, schedule.Name)
	}
	if err := bench.Save(r.database, run, result, r.host); err != nil {
		return run, fmt.Errorf("failed to record run %d: %w", run.ID, err)
	}

	if err := r.store.UpdateLastRun(schedule.ID, run.ID); err != nil {
		r.logger.Printf("Failed to update schedule last run: %v", err)
	}

	r.logger.Printf("Completed run %d for schedule %s (success: %v, duration: %s)",
		run.ID, schedule.Name, result.Success, result.Duration)
	return run, nil
}

// CheckDue runs any overdue schedules in the background
func (r *Runner) CheckDue() error {
	schedules, err := r.store.GetDue(time.Now())
	if err != nil {
		return err
	}

	for _, schedule := range schedules {
		r.logger.Printf("Running overdue schedule: %s", schedule.Name)
		r.wg.Add(1)
		go func(s *Schedule) {
			defer r.wg.Done()
			if _, err := r.RunOnce(s.ID); err != nil {
				r.logger.Printf("Failed to execute overdue schedule %s: %v", s.Name, err)
			}
		}(schedule)
	}

	return nil
}

// ListJobs returns information about all scheduled jobs
func (r *Runner) ListJobs() []cron.Entry {
	return r.cron.Entries()
}
