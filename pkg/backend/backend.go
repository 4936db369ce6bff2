// Package backend abstracts where the LVDS registers live: a simulated
// register file or the real hardware.
package backend

import (
	"github.com/4ms/u-boot-stm32mp25/pkg/lvds/phy"
	"github.com/4ms/u-boot-stm32mp25/pkg/lvds/regs"
)

// Options are passed to Backend.Open. Backends ignore what they do not use.
type Options struct {
	// Base and Size select the physical register window.
	Base int64 `json:"base,omitempty"`
	Size int   `json:"size,omitempty"`

	// LockAfter and NeverLock tune a simulated PLL.
	LockAfter int      `json:"lock_after,omitempty"`
	NeverLock []phy.ID `json:"never_lock,omitempty"`
}

// Session is an open register window and the clock that goes with it.
type Session interface {
	Bus() regs.Bus
	Clock() phy.Clock
	Close() error
}

// Backend opens sessions.
type Backend interface {
	// Name returns the unique name of the backend
	Name() string

	// Description returns a human-readable description
	Description() string

	// Open acquires the register window
	Open(opts Options) (Session, error)
}

// Info provides metadata about a backend
type Info struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	Hardware    bool   `json:"hardware"`
}
