// Package panel describes LVDS panels: their clocks, data mapping and port
// layout, and turns a description into a controller configuration.
package panel

import (
	"errors"
	"fmt"

	"github.com/4ms/u-boot-stm32mp25/pkg/lvds"
	"github.com/4ms/u-boot-stm32mp25/pkg/lvds/duallink"
	"github.com/4ms/u-boot-stm32mp25/pkg/lvds/pixmap"
	"github.com/4ms/u-boot-stm32mp25/pkg/lvds/pll"
)

var ErrInvalidProfile = errors.New("invalid panel profile")

// Profile is the configuration descriptor of one panel.
type Profile struct {
	Name        string `json:"name" yaml:"name" toml:"name"`
	Description string `json:"description,omitempty" yaml:"description,omitempty" toml:"description,omitempty"`
	Compatible  string `json:"compatible,omitempty" yaml:"compatible,omitempty" toml:"compatible,omitempty"`

	// DataMapping is a format token such as "vesa-24" or "jeida-24".
	DataMapping string `json:"data_mapping" yaml:"data_mapping" toml:"data_mapping"`

	ReferenceHz uint64 `json:"reference_hz" yaml:"reference_hz" toml:"reference_hz"`
	PixelHz     uint64 `json:"pixel_hz" yaml:"pixel_hz" toml:"pixel_hz"`

	HSyncLow bool `json:"hsync_low,omitempty" yaml:"hsync_low,omitempty" toml:"hsync_low,omitempty"`
	VSyncLow bool `json:"vsync_low,omitempty" yaml:"vsync_low,omitempty" toml:"vsync_low,omitempty"`
	DELow    bool `json:"de_low,omitempty" yaml:"de_low,omitempty" toml:"de_low,omitempty"`

	// Ports lists the panel input ports. Empty means single link.
	Ports []duallink.PortTag `json:"ports,omitempty" yaml:"ports,omitempty" toml:"ports,omitempty"`
}

// Validate checks the fields a bring-up cannot do without.
func (p Profile) Validate() error {
	if p.Name == "" {
		return fmt.Errorf("%w: name is empty", ErrInvalidProfile)
	}
	if p.ReferenceHz == 0 || p.PixelHz == 0 {
		return fmt.Errorf("%w: %s: reference and pixel clock are required", ErrInvalidProfile, p.Name)
	}
	if p.DataMapping == "" {
		return fmt.Errorf("%w: %s: data mapping is empty", ErrInvalidProfile, p.Name)
	}
	return nil
}

// Config builds the controller configuration. With lenient set an unknown
// data mapping falls back to VESA24 instead of failing.
func (p Profile) Config(lenient bool) (lvds.Config, error) {
	cfg := lvds.Config{
		Clock: pll.ClockSpec{ReferenceHz: p.ReferenceHz, PixelHz: p.PixelHz},
		Polarity: lvds.Polarity{
			HSyncLow: p.HSyncLow,
			VSyncLow: p.VSyncLow,
			DELow:    p.DELow,
		},
		LenientFormat: lenient,
	}

	if lenient {
		cfg.Format = pixmap.ParseDataFormatLenient(p.DataMapping)
	} else {
		f, err := pixmap.ParseDataFormat(p.DataMapping)
		if err != nil {
			return lvds.Config{}, fmt.Errorf("panel %s: %w", p.Name, err)
		}
		cfg.Format = f
	}

	if len(p.Ports) > 0 {
		tags := make([]duallink.PortTag, len(p.Ports))
		copy(tags, p.Ports)
		cfg.Ports = &duallink.Ports{Tags: tags}
	}
	return cfg, nil
}

// Plan is what a bring-up of the profile would program, worked out without
// touching hardware.
type Plan struct {
	Topology    duallink.Topology `json:"topology"`
	Format      pixmap.DataFormat `json:"format"`
	TargetKHz   uint32            `json:"target_khz"`
	Dividers    pll.Dividers      `json:"dividers"`
	AchievedKHz uint32            `json:"achieved_khz"`
}

// Plan validates the profile and solves its PLL setting.
func (p Profile) Plan(lenient bool) (Plan, error) {
	if err := p.Validate(); err != nil {
		return Plan{}, err
	}
	cfg, err := p.Config(lenient)
	if err != nil {
		return Plan{}, err
	}
	topo, err := duallink.Negotiate(cfg.Ports)
	if err != nil {
		return Plan{}, fmt.Errorf("panel %s: %w", p.Name, err)
	}

	clock := cfg.Clock
	clock.LinkMultiplier = topo.Multiplier()
	if err := clock.Validate(); err != nil {
		return Plan{}, fmt.Errorf("panel %s: %w", p.Name, err)
	}

	plan := Plan{Topology: topo, Format: cfg.Format, TargetKHz: clock.SerialKHz()}
	plan.Dividers, err = pll.Solve(clock.ReferenceKHz(), plan.TargetKHz)
	if err != nil {
		return Plan{}, fmt.Errorf("panel %s: %w", p.Name, err)
	}
	plan.AchievedKHz = plan.Dividers.RateKHz(clock.ReferenceKHz())
	return plan, nil
}
