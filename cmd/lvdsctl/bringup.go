package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"sort"
	"strings"
	"time"

	"github.com/4ms/u-boot-stm32mp25/pkg/backend"
	"github.com/4ms/u-boot-stm32mp25/pkg/backend/sim"
	"github.com/4ms/u-boot-stm32mp25/pkg/bench"
	"github.com/4ms/u-boot-stm32mp25/pkg/lvds/phy"
	"github.com/4ms/u-boot-stm32mp25/pkg/trace"
	"github.com/spf13/cobra"
)

var (
	bringupPanel     string
	bringupConfig    string
	bringupBackend   string
	bringupLenient   bool
	bringupTrace     string
	bringupBase      int64
	bringupLockAfter int
	bringupNeverLock []string
	bringupTimeout   time.Duration
	bringupNoSave    bool
	bringupDryRun    bool
	bringupList      bool
)

func bringupCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "bringup",
		Short: "Bring up the LVDS transmitter",
		Long: `Bring the LVDS transmitter from reset to an enabled output for one panel
and record the attempt in the database.

Examples:
  # List available backends
  lvdsctl bringup --list

  # Bring up a built-in panel on the simulator
  lvdsctl bringup --panel fhd-dual

  # Bring up a panel from a profile file on the hardware
  lvdsctl bringup --config panels.yaml --panel my-panel --backend devmem

  # Simulate a slave PLL that never locks and keep the transition trace
  lvdsctl bringup --panel fhd-dual --never-lock slave --trace trace.jsonl

  # Show the PLL plan without touching any registers
  lvdsctl bringup --panel wsvga-7in --dry-run`,
		RunE: runBringup,
	}

	cmd.Flags().StringVarP(&bringupPanel, "panel", "p", "", "Panel profile name")
	cmd.Flags().StringVarP(&bringupConfig, "config", "c", "", "Profile file (YAML or TOML)")
	cmd.Flags().StringVarP(&bringupBackend, "backend", "b", sim.Name, "Register backend")
	cmd.Flags().BoolVar(&bringupLenient, "lenient", false, "Fall back to vesa-24 on unknown data mappings")
	cmd.Flags().StringVar(&bringupTrace, "trace", "", "Append PHY transitions to this file as JSON lines")
	cmd.Flags().Int64Var(&bringupBase, "base", 0, "Physical register base (devmem backend)")
	cmd.Flags().IntVar(&bringupLockAfter, "lock-after", 0, "PLL status reads before lock (sim backend)")
	cmd.Flags().StringSliceVar(&bringupNeverLock, "never-lock", nil, "PHYs whose PLL never locks (sim backend)")
	cmd.Flags().DurationVar(&bringupTimeout, "timeout", 0, "PLL lock timeout (default 20s)")
	cmd.Flags().BoolVar(&bringupNoSave, "no-save", false, "Do not record the run")
	cmd.Flags().BoolVar(&bringupDryRun, "dry-run", false, "Show the plan without bringing up")
	cmd.Flags().BoolVarP(&bringupList, "list", "l", false, "List available backends")

	return cmd
}

func runBringup(_ *cobra.Command, _ []string) error {
	if bringupList {
		return listBackends()
	}

	profile, err := resolvePanel(bringupConfig, bringupPanel)
	if err != nil {
		return err
	}

	plan, err := profile.Plan(bringupLenient)
	if err != nil {
		return err
	}

	if bringupDryRun {
		fmt.Printf("Would bring up panel: %s\n", profile.Name)
		fmt.Printf("Backend: %s\n", bringupBackend)
		fmt.Printf("Topology: %s\n", plan.Topology)
		fmt.Printf("Format: %s\n", plan.Format)
		fmt.Printf("PLL: %s, %d kHz for %d kHz\n", plan.Dividers, plan.AchievedKHz, plan.TargetKHz)
		return nil
	}

	if _, err := backend.Get(bringupBackend); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		fmt.Fprintf(os.Stderr, "\nAvailable backends:\n")
		_ = listBackends()
		return err
	}

	cfg, err := profile.Config(bringupLenient)
	if err != nil {
		return err
	}

	opts := backend.Options{Base: bringupBase, LockAfter: bringupLockAfter}
	for _, s := range bringupNeverLock {
		id, err := parsePHY(s)
		if err != nil {
			return err
		}
		opts.NeverLock = append(opts.NeverLock, id)
	}

	params := bench.Params{
		Panel:       profile.Name,
		Backend:     bringupBackend,
		Options:     opts,
		Config:      cfg,
		LockTimeout: bringupTimeout,
		Logger:      log.New(os.Stderr, "", log.LstdFlags),
	}

	var buf *trace.Buffer
	if bringupTrace != "" {
		buf = trace.New(trace.DefaultMaxEvents)
		buf.Record("bringup", map[string]interface{}{"panel": profile.Name, "backend": bringupBackend})
		params.Observer = buf.Observe
	}

	var store func(bench.Result) error
	if !bringupNoSave {
		database, err := openDB()
		if err != nil {
			return err
		}
		defer func() { _ = database.Close() }()

		run, err := bench.Begin(database, params)
		if err != nil {
			return fmt.Errorf("failed to create run record: %w", err)
		}
		store = func(result bench.Result) error {
			return bench.Save(database, run, result, bench.HostInfo())
		}
		fmt.Printf("Bringing up %s on %s (run ID: %d)\n", profile.Name, bringupBackend, run.ID)
	} else {
		fmt.Printf("Bringing up %s on %s\n", profile.Name, bringupBackend)
	}

	result, runErr := bench.Run(context.Background(), params)

	if buf != nil {
		if err := buf.FlushFile(bringupTrace); err != nil {
			fmt.Fprintf(os.Stderr, "Warning: failed to write trace: %v\n", err)
		}
	}
	if store != nil {
		if err := store(result); err != nil {
			fmt.Fprintf(os.Stderr, "Warning: failed to save run: %v\n", err)
		}
	}

	printResult(result)
	return runErr
}

func printResult(result bench.Result) {
	fmt.Printf("\nBring-up finished in %s\n", result.Duration)
	fmt.Printf("Success: %v\n", result.Success)
	if result.Error != "" {
		fmt.Printf("Error: %s\n", result.Error)
	}

	if r := result.Report; r != nil && len(r.PHYs) > 0 {
		fmt.Printf("\nTopology: %s, format %s\n", r.Topology, r.Format)
		for _, rec := range r.PHYs {
			fmt.Printf("  %-7s %-10s %s %d/%d kHz, %d polls, %s\n",
				rec.PHY, rec.State, rec.Dividers, rec.AchievedKHz, rec.TargetKHz, rec.Polls, rec.LockTime)
		}
	}

	if len(result.Metrics) > 0 {
		names := make([]string, 0, len(result.Metrics))
		for name := range result.Metrics {
			names = append(names, name)
		}
		sort.Strings(names)

		fmt.Printf("\nMetrics:\n")
		for _, name := range names {
			if unit := bench.Unit(name); unit != "" {
				fmt.Printf("  %s: %.2f %s\n", name, result.Metrics[name], unit)
			} else {
				fmt.Printf("  %s: %.2f\n", name, result.Metrics[name])
			}
		}
	}
}

func listBackends() error {
	infos := backend.GetInfo()
	if len(infos) == 0 {
		fmt.Println("No backends available")
		return nil
	}

	fmt.Printf("%-10s %-10s %s\n", "Name", "Hardware", "Description")
	fmt.Println(strings.Repeat("-", 60))
	for _, info := range infos {
		fmt.Printf("%-10s %-10v %s\n", info.Name, info.Hardware, info.Description)
	}
	return nil
}

func parsePHY(s string) (phy.ID, error) {
	for _, id := range []phy.ID{phy.Master, phy.Slave} {
		if strings.EqualFold(s, id.String()) {
			return id, nil
		}
	}
	return 0, fmt.Errorf("unknown PHY %q (want master or slave)", s)
}
