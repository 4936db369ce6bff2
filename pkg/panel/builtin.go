package panel

import (
	"fmt"

	"github.com/4ms/u-boot-stm32mp25/pkg/lvds/duallink"
	"github.com/4ms/u-boot-stm32mp25/pkg/lvds/pixmap"
)

// Built-in profile names.
const (
	WSVGASingle = "wsvga-7in"
	FHDDual     = "fhd-dual"
)

// Builtins returns the profiles that ship with the tool.
func Builtins() []Profile {
	return []Profile{
		{
			Name:        WSVGASingle,
			Description: "7 inch 1024x600 panel, single link",
			Compatible:  "panel-lvds",
			DataMapping: pixmap.TokenVESA24,
			ReferenceHz: 24000000,
			PixelHz:     51200000,
			HSyncLow:    true,
			VSyncLow:    true,
		},
		{
			Name:        FHDDual,
			Description: "1920x1080 panel, dual link, even pixels on the first port",
			Compatible:  "panel-lvds",
			DataMapping: pixmap.TokenJEIDA24,
			ReferenceHz: 24000000,
			PixelHz:     148500000,
			Ports: []duallink.PortTag{
				{EvenPixels: true},
				{OddPixels: true},
			},
		},
	}
}

func init() {
	for _, p := range Builtins() {
		if err := Register(p); err != nil {
			panic(fmt.Sprintf("failed to register panel %s: %v", p.Name, err))
		}
	}
}
