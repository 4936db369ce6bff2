package main

import (
	"fmt"
	"os"

	"github.com/4ms/u-boot-stm32mp25/internal/version"
	_ "github.com/4ms/u-boot-stm32mp25/pkg/backend/hw"  // Register devmem backend
	_ "github.com/4ms/u-boot-stm32mp25/pkg/backend/sim" // Register simulator backend
	"github.com/spf13/cobra"
)

var (
	// Build variables set by ldflags
	buildVersion string
	buildCommit  string
	buildTime    string
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "lvdsctl",
		Short: "LVDS display transmitter bring-up",
		Long: `lvdsctl brings an LVDS display transmitter from reset to a locked,
enabled output, and records every attempt for soak testing.`,
		Version: version.GetVersion(buildVersion, buildCommit, buildTime),
	}

	rootCmd.AddCommand(versionCmd())
	rootCmd.AddCommand(solveCmd())
	rootCmd.AddCommand(mapCmd())
	rootCmd.AddCommand(negotiateCmd())
	rootCmd.AddCommand(panelCmd())
	rootCmd.AddCommand(bringupCmd())
	rootCmd.AddCommand(listCmd())
	rootCmd.AddCommand(showCmd())
	rootCmd.AddCommand(exportCmd())
	rootCmd.AddCommand(scheduleCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(_ *cobra.Command, _ []string) {
			fmt.Println(version.GetDetailedVersion(buildVersion, buildCommit, buildTime))
		},
	}
}
