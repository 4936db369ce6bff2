package pll

import (
	"fmt"
	"math"
)

// ClockSpec is what the display timing provides for one bring-up.
type ClockSpec struct {
	ReferenceHz uint64 `json:"reference_hz" yaml:"reference_hz" toml:"reference_hz"`
	PixelHz     uint64 `json:"pixel_hz" yaml:"pixel_hz" toml:"pixel_hz"`

	// LinkMultiplier is 1 for single link and 2 for dual link. Zero leaves
	// the choice to the link topology.
	LinkMultiplier int `json:"link_multiplier,omitempty" yaml:"link_multiplier,omitempty" toml:"link_multiplier,omitempty"`
}

// Validate checks rates and multiplier.
func (c ClockSpec) Validate() error {
	if c.ReferenceHz == 0 {
		return fmt.Errorf("%w: reference clock is zero", ErrInvalidInput)
	}
	if c.PixelHz == 0 {
		return fmt.Errorf("%w: pixel clock is zero", ErrInvalidInput)
	}
	if c.ReferenceHz/1000 > math.MaxUint32 {
		return fmt.Errorf("%w: reference clock %d Hz out of range", ErrInvalidInput, c.ReferenceHz)
	}
	// checked for a single link, the largest serial rate
	if c.PixelHz > math.MaxUint64/BitsPerPixel || c.PixelHz*BitsPerPixel/1000 > math.MaxUint32 {
		return fmt.Errorf("%w: pixel clock %d Hz out of range", ErrInvalidInput, c.PixelHz)
	}
	switch c.LinkMultiplier {
	case 0, 1, 2:
	default:
		return fmt.Errorf("%w: link multiplier %d", ErrInvalidInput, c.LinkMultiplier)
	}
	return nil
}

// Multiplier returns LinkMultiplier, defaulting to 1.
func (c ClockSpec) Multiplier() int {
	if c.LinkMultiplier == 0 {
		return 1
	}
	return c.LinkMultiplier
}

// ReferenceKHz returns the reference clock in kHz.
func (c ClockSpec) ReferenceKHz() uint32 {
	return uint32(c.ReferenceHz / 1000)
}

// SerialKHz returns the PLL output each PHY has to produce: the serial bit
// clock of one lane, shared between the links in dual link.
func (c ClockSpec) SerialKHz() uint32 {
	return uint32(c.PixelHz * BitsPerPixel / 1000 / uint64(c.Multiplier()))
}
