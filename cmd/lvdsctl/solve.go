package main

import (
	"fmt"

	"github.com/4ms/u-boot-stm32mp25/pkg/lvds/pll"
	"github.com/spf13/cobra"
)

func solveCmd() *cobra.Command {
	var (
		refKHz    uint32
		targetKHz uint32
		pixelHz   uint64
		dual      bool
	)

	cmd := &cobra.Command{
		Use:   "solve",
		Short: "Compute PLL dividers for a rate",
		Long: `Compute the PLL divider triple closest to a target rate.

The target is the PLL output in kHz. Pass --pixel instead to derive it from a
pixel clock in Hz (7 serial bits per pixel, split over two links with --dual).

Examples:
  lvdsctl solve --ref 24000 --target 358400
  lvdsctl solve --ref 24000 --pixel 148500000 --dual`,
		RunE: func(_ *cobra.Command, _ []string) error {
			if pixelHz != 0 {
				clock := pll.ClockSpec{ReferenceHz: uint64(refKHz) * 1000, PixelHz: pixelHz, LinkMultiplier: 1}
				if dual {
					clock.LinkMultiplier = 2
				}
				if err := clock.Validate(); err != nil {
					return err
				}
				targetKHz = clock.SerialKHz()
			}

			d, err := pll.Solve(refKHz, targetKHz)
			if err != nil {
				return fmt.Errorf("failed to solve %d kHz from %d kHz: %w", targetKHz, refKHz, err)
			}

			achieved := d.RateKHz(refKHz)
			fmt.Printf("Reference: %d kHz\n", refKHz)
			fmt.Printf("Target:    %d kHz\n", targetKHz)
			fmt.Printf("Dividers:  %s\n", d)
			fmt.Printf("Achieved:  %d kHz (%+d kHz)\n", achieved, int64(achieved)-int64(targetKHz))
			return nil
		},
	}

	cmd.Flags().Uint32Var(&refKHz, "ref", 0, "Reference clock in kHz (required)")
	cmd.Flags().Uint32Var(&targetKHz, "target", 0, "Target PLL rate in kHz")
	cmd.Flags().Uint64Var(&pixelHz, "pixel", 0, "Pixel clock in Hz, instead of --target")
	cmd.Flags().BoolVar(&dual, "dual", false, "Split the pixel clock over two links")
	cmd.MarkFlagsMutuallyExclusive("target", "pixel")
	_ = cmd.MarkFlagRequired("ref")

	return cmd
}
