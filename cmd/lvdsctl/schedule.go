package main

import (
	"fmt"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/4ms/u-boot-stm32mp25/pkg/backend"
	"github.com/4ms/u-boot-stm32mp25/pkg/backend/sim"
	"github.com/4ms/u-boot-stm32mp25/pkg/db"
	"github.com/4ms/u-boot-stm32mp25/pkg/schedule"
	"github.com/spf13/cobra"
)

func scheduleCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "schedule",
		Short: "Manage soak schedules",
		Long:  "Create, manage, and run scheduled bring-ups",
	}

	cmd.AddCommand(scheduleAddCmd())
	cmd.AddCommand(scheduleListCmd())
	cmd.AddCommand(scheduleRemoveCmd())
	cmd.AddCommand(scheduleEnableCmd())
	cmd.AddCommand(scheduleDisableCmd())
	cmd.AddCommand(scheduleStartCmd())
	cmd.AddCommand(scheduleShowCmd())
	cmd.AddCommand(scheduleRunCmd())

	return cmd
}

func scheduleAddCmd() *cobra.Command {
	var (
		name        string
		description string
		cronExpr    string
		panelName   string
		backendName string
		enabled     bool
		params      schedule.Params
		neverLock   []string
	)

	cmd := &cobra.Command{
		Use:   "add",
		Short: "Add a new schedule",
		Long: `Add a recurring bring-up with cron-style timing.

Cron expression format:
  ┌───────────── minute (0 - 59)
  │ ┌───────────── hour (0 - 23)
  │ │ ┌───────────── day of month (1 - 31)
  │ │ │ ┌───────────── month (1 - 12)
  │ │ │ │ ┌───────────── day of week (0 - 6) (Sunday to Saturday)
  │ │ │ │ │
  * * * * *

Examples:
  # Bring up the dual link panel every 5 minutes on the simulator
  lvdsctl schedule add --name "fhd soak" --cron "*/5 * * * *" --panel fhd-dual

  # Nightly bring-up on the hardware
  lvdsctl schedule add --name nightly --cron "0 2 * * *" --panel wsvga-7in --backend devmem`,
		RunE: func(_ *cobra.Command, _ []string) error {
			if _, err := backend.Get(backendName); err != nil {
				return fmt.Errorf("backend %s not found", backendName)
			}
			for _, s := range neverLock {
				id, err := parsePHY(s)
				if err != nil {
					return err
				}
				params.Options.NeverLock = append(params.Options.NeverLock, id)
			}
			data, err := db.ToJSONData(params)
			if err != nil {
				return err
			}

			database, err := openDB()
			if err != nil {
				return err
			}
			defer func() { _ = database.Close() }()

			store := schedule.NewStore(database)
			sched := &schedule.Schedule{
				Name:        name,
				Description: description,
				CronExpr:    cronExpr,
				Panel:       panelName,
				Backend:     backendName,
				Params:      data,
				Enabled:     enabled,
			}
			if err := store.Create(sched); err != nil {
				return fmt.Errorf("failed to create schedule: %w", err)
			}

			fmt.Printf("Created schedule '%s' (ID: %d)\n", sched.Name, sched.ID)
			fmt.Printf("Cron: %s\n", sched.CronExpr)
			fmt.Printf("Panel: %s on %s\n", sched.Panel, sched.Backend)
			if sched.NextRunTime != nil {
				fmt.Printf("Next run: %s\n", sched.NextRunTime.Format("2006-01-02 15:04:05"))
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&name, "name", "n", "", "Schedule name (required)")
	cmd.Flags().StringVarP(&description, "desc", "d", "", "Schedule description")
	cmd.Flags().StringVar(&cronExpr, "cron", "", "Cron expression (required)")
	cmd.Flags().StringVarP(&panelName, "panel", "p", "", "Panel profile name (required)")
	cmd.Flags().StringVarP(&backendName, "backend", "b", sim.Name, "Register backend")
	cmd.Flags().BoolVar(&enabled, "enabled", true, "Enable schedule immediately")
	cmd.Flags().BoolVar(&params.Lenient, "lenient", false, "Fall back to vesa-24 on unknown data mappings")
	cmd.Flags().DurationVar(&params.LockTimeout, "timeout", 0, "PLL lock timeout (default 20s)")
	cmd.Flags().IntVar(&params.Options.LockAfter, "lock-after", 0, "PLL status reads before lock (sim backend)")
	cmd.Flags().StringSliceVar(&neverLock, "never-lock", nil, "PHYs whose PLL never locks (sim backend)")

	for _, flag := range []string{"name", "cron", "panel"} {
		if err := cmd.MarkFlagRequired(flag); err != nil {
			fmt.Fprintf(os.Stderr, "Warning: failed to mark flag '%s' as required: %v\n", flag, err)
		}
	}

	return cmd
}

func scheduleListCmd() *cobra.Command {
	var (
		all      bool
		disabled bool
		panel    string
	)

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List schedules",
		Long: `List configured schedules.

Examples:
  # List enabled schedules
  lvdsctl schedule list

  # List all schedules
  lvdsctl schedule list --all`,
		RunE: func(_ *cobra.Command, _ []string) error {
			database, err := openDB()
			if err != nil {
				return err
			}
			defer func() { _ = database.Close() }()

			filter := schedule.ScheduleFilter{Panel: panel}
			if !all && !disabled {
				enabled := true
				filter.Enabled = &enabled
			} else if disabled {
				enabled := false
				filter.Enabled = &enabled
			}

			schedules, err := schedule.NewStore(database).List(filter)
			if err != nil {
				return fmt.Errorf("failed to list schedules: %w", err)
			}

			if len(schedules) == 0 {
				fmt.Println("No schedules found")
				return nil
			}

			fmt.Printf("%-4s %-20s %-16s %-8s %-16s %-8s %-20s\n",
				"ID", "Name", "Panel", "Backend", "Cron", "Enabled", "Next Run")
			fmt.Println(strings.Repeat("-", 98))

			for _, sched := range schedules {
				nextRun := "N/A"
				if sched.NextRunTime != nil {
					nextRun = sched.NextRunTime.Format("2006-01-02 15:04")
					if sched.IsOverdue() {
						nextRun += " (overdue)"
					}
				}

				fmt.Printf("%-4d %-20s %-16s %-8s %-16s %-8v %-20s\n",
					sched.ID,
					truncate(sched.Name, 20),
					truncate(sched.Panel, 16),
					sched.Backend,
					sched.CronExpr,
					sched.Enabled,
					nextRun,
				)
			}
			return nil
		},
	}

	cmd.Flags().BoolVarP(&all, "all", "a", false, "Show all schedules")
	cmd.Flags().BoolVar(&disabled, "disabled", false, "Show only disabled schedules")
	cmd.Flags().StringVarP(&panel, "panel", "p", "", "Filter by panel name")

	return cmd
}

// findSchedule looks a schedule up by ID, then by name.
func findSchedule(store *schedule.Store, identifier string) (*schedule.Schedule, error) {
	if id, err := parseInt64(identifier); err == nil {
		sched, err := store.Get(id)
		if err != nil {
			return nil, fmt.Errorf("schedule with ID %d not found", id)
		}
		return sched, nil
	}
	sched, err := store.GetByName(identifier)
	if err != nil {
		return nil, fmt.Errorf("schedule '%s' not found", identifier)
	}
	return sched, nil
}

func scheduleRemoveCmd() *cobra.Command {
	var yes bool

	cmd := &cobra.Command{
		Use:   "remove [id|name]",
		Short: "Remove a schedule",
		Long: `Remove a schedule by ID or name.

Examples:
  lvdsctl schedule remove 1
  lvdsctl schedule remove "fhd soak"`,
		Args: cobra.ExactArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			database, err := openDB()
			if err != nil {
				return err
			}
			defer func() { _ = database.Close() }()

			store := schedule.NewStore(database)
			sched, err := findSchedule(store, args[0])
			if err != nil {
				return err
			}

			if !yes {
				fmt.Printf("Delete schedule '%s' (ID: %d)? [y/N] ", sched.Name, sched.ID)
				var confirm string
				if _, err := fmt.Scanln(&confirm); err != nil {
					confirm = "n"
				}
				if !strings.EqualFold(confirm, "y") {
					fmt.Println("Cancelled")
					return nil
				}
			}

			if err := store.Delete(sched.ID); err != nil {
				return fmt.Errorf("failed to delete schedule: %w", err)
			}

			fmt.Printf("Deleted schedule '%s'\n", sched.Name)
			return nil
		},
	}

	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "Do not ask for confirmation")

	return cmd
}

func scheduleEnableCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "enable [id|name]",
		Short: "Enable a schedule",
		Args:  cobra.ExactArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			return toggleSchedule(args[0], true)
		},
	}
}

func scheduleDisableCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "disable [id|name]",
		Short: "Disable a schedule",
		Args:  cobra.ExactArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			return toggleSchedule(args[0], false)
		},
	}
}

func toggleSchedule(identifier string, enable bool) error {
	database, err := openDB()
	if err != nil {
		return err
	}
	defer func() { _ = database.Close() }()

	store := schedule.NewStore(database)
	sched, err := findSchedule(store, identifier)
	if err != nil {
		return err
	}

	if enable {
		if err := store.Enable(sched.ID); err != nil {
			return fmt.Errorf("failed to enable schedule: %w", err)
		}
		fmt.Printf("Enabled schedule '%s'\n", sched.Name)
	} else {
		if err := store.Disable(sched.ID); err != nil {
			return fmt.Errorf("failed to disable schedule: %w", err)
		}
		fmt.Printf("Disabled schedule '%s'\n", sched.Name)
	}
	return nil
}

func scheduleStartCmd() *cobra.Command {
	var (
		checkInterval time.Duration
		logFile       string
		watchFile     string
	)

	cmd := &cobra.Command{
		Use:   "start",
		Short: "Start the scheduler daemon",
		Long: `Start the scheduler daemon to run bring-ups automatically.

The scheduler will:
- Load all enabled schedules
- Bring up each panel according to its cron expression
- Save runs to the database
- Continue running until interrupted

With --watch, panel profiles are read from a YAML or TOML file and
reloaded whenever it changes. Profiles in the file take precedence over
the built-in ones.

Examples:
  # Start scheduler in foreground
  lvdsctl schedule start

  # Start with profiles from a file and a log file
  lvdsctl schedule start --watch panels.yaml --log scheduler.log`,
		RunE: func(_ *cobra.Command, _ []string) error {
			logger := log.New(os.Stdout, "[scheduler] ", log.LstdFlags)
			if logFile != "" {
				f, err := os.OpenFile(logFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o666)
				if err != nil {
					return fmt.Errorf("failed to open log file: %w", err)
				}
				defer func() { _ = f.Close() }()
				logger = log.New(f, "[scheduler] ", log.LstdFlags)
			}

			database, err := openDB()
			if err != nil {
				return err
			}
			defer func() { _ = database.Close() }()

			runner := schedule.NewRunner(database, logger)
			if watchFile != "" {
				if err := runner.WatchProfiles(watchFile); err != nil {
					return fmt.Errorf("failed to load panel profiles: %w", err)
				}
			}
			if err := runner.Start(); err != nil {
				return fmt.Errorf("failed to start scheduler: %w", err)
			}

			sigChan := make(chan os.Signal, 1)
			signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

			ticker := time.NewTicker(checkInterval)
			defer ticker.Stop()

			fmt.Println("Scheduler started. Press Ctrl+C to stop.")
			logger.Println("Scheduler daemon started")

			for {
				select {
				case <-sigChan:
					logger.Println("Received shutdown signal")
					runner.Stop()
					return nil

				case <-ticker.C:
					if err := runner.CheckDue(); err != nil {
						logger.Printf("Error checking due schedules: %v", err)
					}
				}
			}
		},
	}

	cmd.Flags().DurationVar(&checkInterval, "check-interval", 60*time.Second, "Interval to check for overdue schedules")
	cmd.Flags().StringVar(&logFile, "log", "", "Log file path (default: stdout)")
	cmd.Flags().StringVarP(&watchFile, "watch", "w", "", "Panel profile file to load and watch")

	return cmd
}

func scheduleRunCmd() *cobra.Command {
	var watchFile string

	cmd := &cobra.Command{
		Use:   "run [id|name]",
		Short: "Run a schedule once now",
		Args:  cobra.ExactArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			database, err := openDB()
			if err != nil {
				return err
			}
			defer func() { _ = database.Close() }()

			runner := schedule.NewRunner(database, log.New(os.Stderr, "", log.LstdFlags))
			defer runner.Stop()
			if watchFile != "" {
				if err := runner.WatchProfiles(watchFile); err != nil {
					return fmt.Errorf("failed to load panel profiles: %w", err)
				}
			}

			sched, err := findSchedule(runner.Store(), args[0])
			if err != nil {
				return err
			}

			run, err := runner.RunOnce(sched.ID)
			if run != nil {
				fmt.Printf("Schedule '%s' recorded run %d (%s)\n", sched.Name, run.ID, run.GetStatus())
			}
			return err
		},
	}

	cmd.Flags().StringVarP(&watchFile, "config", "c", "", "Panel profile file")

	return cmd
}

func scheduleShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show [id|name]",
		Short: "Show schedule details",
		Args:  cobra.ExactArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			database, err := openDB()
			if err != nil {
				return err
			}
			defer func() { _ = database.Close() }()

			sched, err := findSchedule(schedule.NewStore(database), args[0])
			if err != nil {
				return err
			}

			fmt.Printf("Schedule: %s (ID: %d)\n", sched.Name, sched.ID)
			if sched.Description != "" {
				fmt.Printf("Description: %s\n", sched.Description)
			}
			fmt.Printf("Panel: %s\n", sched.Panel)
			fmt.Printf("Backend: %s\n", sched.Backend)
			fmt.Printf("Cron Expression: %s\n", sched.CronExpr)
			fmt.Printf("Enabled: %v\n", sched.Enabled)
			fmt.Printf("Created: %s\n", sched.CreatedAt.Format("2006-01-02 15:04:05"))
			fmt.Printf("Updated: %s\n", sched.UpdatedAt.Format("2006-01-02 15:04:05"))

			if sched.LastRunTime != nil {
				fmt.Printf("\nLast Run: %s\n", sched.LastRunTime.Format("2006-01-02 15:04:05"))
				if sched.LastRunID != nil {
					fmt.Printf("Last Run ID: %d\n", *sched.LastRunID)
				}
			} else {
				fmt.Printf("\nLast Run: Never\n")
			}

			if sched.NextRunTime != nil {
				fmt.Printf("Next Run: %s", sched.NextRunTime.Format("2006-01-02 15:04:05"))
				if sched.IsOverdue() {
					fmt.Printf(" (OVERDUE)")
				}
				fmt.Println()
			}

			if len(sched.Params) > 0 {
				fmt.Printf("\nParameters:\n")
				for k, v := range sched.Params {
					fmt.Printf("  %s: %v\n", k, v)
				}
			}
			return nil
		},
	}
}
