package main

import (
	"fmt"
	"strings"

	"github.com/4ms/u-boot-stm32mp25/pkg/lvds/duallink"
	"github.com/spf13/cobra"
)

func negotiateCmd() *cobra.Command {
	var ports []string

	cmd := &cobra.Command{
		Use:   "negotiate",
		Short: "Work out the link topology of a port layout",
		Long: `Work out the link topology from the pixel tags of the panel ports.

Each --port takes the tags of one port: "even", "odd", "even+odd" or "none".
No --port at all means a single link panel.

Examples:
  lvdsctl negotiate
  lvdsctl negotiate --port even --port odd
  lvdsctl negotiate --port odd,even`,
		RunE: func(_ *cobra.Command, _ []string) error {
			var p *duallink.Ports
			if len(ports) > 0 {
				p = &duallink.Ports{}
				for _, s := range ports {
					tag, err := parsePortTag(s)
					if err != nil {
						return err
					}
					p.Tags = append(p.Tags, tag)
				}
			}

			topo, err := duallink.Negotiate(p)
			if err != nil {
				return err
			}

			fmt.Printf("Topology:   %s\n", topo)
			fmt.Printf("Multiplier: %d\n", topo.Multiplier())
			if topo.Dual {
				fmt.Printf("Link phase: %v\n", topo.Order.LinkPhase())
			}
			return nil
		},
	}

	cmd.Flags().StringSliceVarP(&ports, "port", "p", nil, "Pixel tags of one port, in port order")

	return cmd
}

func parsePortTag(s string) (duallink.PortTag, error) {
	var tag duallink.PortTag
	for _, part := range strings.Split(s, "+") {
		switch strings.TrimSpace(strings.ToLower(part)) {
		case "even":
			tag.EvenPixels = true
		case "odd":
			tag.OddPixels = true
		case "none", "":
		default:
			return tag, fmt.Errorf("invalid port tag %q", part)
		}
	}
	return tag, nil
}
