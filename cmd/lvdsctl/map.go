package main

import (
	"fmt"
	"strings"

	"github.com/4ms/u-boot-stm32mp25/pkg/lvds/pixmap"
	"github.com/4ms/u-boot-stm32mp25/pkg/lvds/regs"
	"github.com/spf13/cobra"
)

func mapCmd() *cobra.Command {
	var (
		format    string
		registers bool
		lenient   bool
	)

	cmd := &cobra.Command{
		Use:   "map",
		Short: "Show the data mapping of a format",
		Long: `Show the lane mapping table of a data format, one row per lane with
serial bit 6 first.

Examples:
  lvdsctl map --format vesa-24
  lvdsctl map --format jeida-24 --registers`,
		RunE: func(_ *cobra.Command, _ []string) error {
			var table pixmap.Table
			if lenient {
				table = pixmap.MapForLenient(pixmap.ParseDataFormatLenient(format))
			} else {
				f, err := pixmap.ParseDataFormat(format)
				if err != nil {
					return err
				}
				if table, err = pixmap.MapFor(f); err != nil {
					return err
				}
			}

			for i, row := range table {
				cells := make([]string, len(row))
				for j, p := range row {
					cells[j] = fmt.Sprintf("%-4s", p)
				}
				fmt.Printf("lane %d: %s\n", i, strings.Join(cells, " "))
			}

			if registers {
				fmt.Println()
				for i, w := range table.Encode() {
					fmt.Printf("DMLCR%d @%#05x = %#08x   DMMCR%d @%#05x = %#08x\n",
						i, regs.DMLCR(i), w.LSB, i, regs.DMMCR(i), w.MSB)
				}
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&format, "format", "f", pixmap.TokenVESA24, "Data format token (vesa-24, jeida-24)")
	cmd.Flags().BoolVar(&registers, "registers", false, "Also print the register words")
	cmd.Flags().BoolVar(&lenient, "lenient", false, "Fall back to vesa-24 on unknown formats")

	return cmd
}
