// Package hw registers the "devmem" backend, which drives the real LVDS block
// through a /dev/mem mapping.
package hw

import (
	"fmt"

	"github.com/4ms/u-boot-stm32mp25/pkg/backend"
	"github.com/4ms/u-boot-stm32mp25/pkg/lvds/devmem"
	"github.com/4ms/u-boot-stm32mp25/pkg/lvds/phy"
	"github.com/4ms/u-boot-stm32mp25/pkg/lvds/regs"
)

// Name is the registered backend name.
const Name = "devmem"

func init() {
	if err := backend.Register(&Backend{open: devmem.Open}); err != nil {
		panic(fmt.Sprintf("failed to register devmem backend: %v", err))
	}
}

// Backend opens hardware sessions.
type Backend struct {
	open func(base int64, size int) (*devmem.Window, error)
}

// Name returns the backend name
func (b *Backend) Name() string {
	return Name
}

// Description returns the backend description
func (b *Backend) Description() string {
	return "LVDS registers mapped through /dev/mem (requires root)"
}

// Info marks the backend as touching hardware.
func (b *Backend) Info() backend.Info {
	return backend.Info{Name: b.Name(), Description: b.Description(), Hardware: true}
}

// Open maps the register window, defaulting to the LVDS block of the SoC.
func (b *Backend) Open(opts backend.Options) (backend.Session, error) {
	base := opts.Base
	if base == 0 {
		base = devmem.DefaultBase
	}
	size := opts.Size
	if size == 0 {
		size = regs.Size
	}

	w, err := b.open(base, size)
	if err != nil {
		return nil, fmt.Errorf("failed to open register window: %w", err)
	}
	return &Session{w: w}, nil
}

// Session is a mapped hardware window on the wall clock.
type Session struct {
	w *devmem.Window
}

// Bus returns the mapped window.
func (s *Session) Bus() regs.Bus { return s.w }

// Clock returns the wall clock.
func (s *Session) Clock() phy.Clock { return phy.SystemClock{} }

// Version returns the IP version register.
func (s *Session) Version() uint32 { return s.w.Read(regs.VERR) }

// Close unmaps the window.
func (s *Session) Close() error { return s.w.Close() }
