package main

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/4ms/u-boot-stm32mp25/pkg/panel"
	"github.com/spf13/cobra"
)

func panelCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "panel",
		Short: "Inspect panel profiles",
		Long:  "List built-in panel profiles and check profile files",
	}

	cmd.AddCommand(panelListCmd())
	cmd.AddCommand(panelShowCmd())
	cmd.AddCommand(panelCheckCmd())

	return cmd
}

func panelListCmd() *cobra.Command {
	var file string

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List panel profiles",
		RunE: func(_ *cobra.Command, _ []string) error {
			profiles := panel.All()
			if file != "" {
				var err error
				if profiles, err = panel.LoadFile(file); err != nil {
					return err
				}
			}

			fmt.Printf("%-20s %-10s %-12s %-8s %s\n", "Name", "Mapping", "Pixel MHz", "Ports", "Description")
			fmt.Println(strings.Repeat("-", 80))
			for _, p := range profiles {
				fmt.Printf("%-20s %-10s %-12.2f %-8d %s\n",
					truncate(p.Name, 20),
					p.DataMapping,
					float64(p.PixelHz)/1e6,
					len(p.Ports),
					p.Description,
				)
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&file, "file", "f", "", "Profile file (YAML or TOML) instead of the built-ins")

	return cmd
}

func panelShowCmd() *cobra.Command {
	var (
		file    string
		lenient bool
		asJSON  bool
	)

	cmd := &cobra.Command{
		Use:   "show [name]",
		Short: "Show a panel profile and its PLL plan",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			var name string
			if len(args) == 1 {
				name = args[0]
			}
			p, err := resolvePanel(file, name)
			if err != nil {
				return err
			}
			plan, planErr := p.Plan(lenient)

			if asJSON {
				out := struct {
					Profile panel.Profile `json:"profile"`
					Plan    *panel.Plan   `json:"plan,omitempty"`
					Error   string        `json:"error,omitempty"`
				}{Profile: p}
				if planErr != nil {
					out.Error = planErr.Error()
				} else {
					out.Plan = &plan
				}
				enc := json.NewEncoder(os.Stdout)
				enc.SetIndent("", "  ")
				return enc.Encode(out)
			}

			fmt.Printf("Panel: %s\n", p.Name)
			if p.Description != "" {
				fmt.Printf("Description: %s\n", p.Description)
			}
			if p.Compatible != "" {
				fmt.Printf("Compatible: %s\n", p.Compatible)
			}
			fmt.Printf("Data mapping: %s\n", p.DataMapping)
			fmt.Printf("Reference clock: %d Hz\n", p.ReferenceHz)
			fmt.Printf("Pixel clock: %d Hz\n", p.PixelHz)
			fmt.Printf("Active low: hsync=%v vsync=%v de=%v\n", p.HSyncLow, p.VSyncLow, p.DELow)

			if planErr != nil {
				fmt.Printf("\nPlan: %v\n", planErr)
				return nil
			}
			fmt.Printf("\nTopology: %s\n", plan.Topology)
			fmt.Printf("Format: %s\n", plan.Format)
			fmt.Printf("PLL: %s, %d kHz for %d kHz\n", plan.Dividers, plan.AchievedKHz, plan.TargetKHz)
			return nil
		},
	}

	cmd.Flags().StringVarP(&file, "file", "f", "", "Profile file (YAML or TOML)")
	cmd.Flags().BoolVar(&lenient, "lenient", false, "Fall back to vesa-24 on unknown data mappings")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print as JSON")

	return cmd
}

func panelCheckCmd() *cobra.Command {
	var lenient bool

	cmd := &cobra.Command{
		Use:   "check [file]",
		Short: "Check a profile file",
		Long: `Load a profile file and plan every panel in it without touching hardware.

Examples:
  lvdsctl panel check panels.yaml
  lvdsctl panel check panels.toml --lenient`,
		Args: cobra.ExactArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			profiles, err := panel.LoadFile(args[0])
			if err != nil {
				return err
			}

			failed := 0
			for _, p := range profiles {
				plan, err := p.Plan(lenient)
				if err != nil {
					failed++
					fmt.Printf("FAIL %-20s %v\n", p.Name, err)
					continue
				}
				fmt.Printf("OK   %-20s %s, %s, %s\n", p.Name, plan.Topology, plan.Format, plan.Dividers)
			}

			if failed > 0 {
				return fmt.Errorf("%d of %d panels failed", failed, len(profiles))
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&lenient, "lenient", false, "Fall back to vesa-24 on unknown data mappings")

	return cmd
}
