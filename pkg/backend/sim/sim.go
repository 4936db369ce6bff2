// Package sim registers the "sim" backend: an in-memory register file with a
// virtual clock, so bring-ups run instantly and without hardware.
package sim

import (
	"fmt"
	"time"

	"github.com/4ms/u-boot-stm32mp25/pkg/backend"
	"github.com/4ms/u-boot-stm32mp25/pkg/lvds/phy"
	"github.com/4ms/u-boot-stm32mp25/pkg/lvds/regs"
	lvdssim "github.com/4ms/u-boot-stm32mp25/pkg/lvds/sim"
)

// Name is the registered backend name.
const Name = "sim"

// ClockStep is how far the virtual clock moves on every reading.
const ClockStep = time.Microsecond

func init() {
	if err := backend.Register(&Backend{}); err != nil {
		panic(fmt.Sprintf("failed to register sim backend: %v", err))
	}
}

// Backend opens simulated sessions.
type Backend struct{}

// Name returns the backend name
func (b *Backend) Name() string {
	return Name
}

// Description returns the backend description
func (b *Backend) Description() string {
	return "Simulated register file with a PLL lock model and virtual clock"
}

// Open returns a fresh register file.
func (b *Backend) Open(opts backend.Options) (backend.Session, error) {
	if opts.LockAfter < 0 {
		return nil, fmt.Errorf("lock_after must not be negative")
	}

	never := make([]uint32, 0, len(opts.NeverLock))
	for _, id := range opts.NeverLock {
		never = append(never, id.Base())
	}

	return &Session{
		bus:   lvdssim.New(lvdssim.Options{LockAfter: opts.LockAfter, NeverLock: never}),
		clock: lvdssim.NewClock(time.Now(), ClockStep),
	}, nil
}

// Session is a simulated session.
type Session struct {
	bus   *lvdssim.Bus
	clock *lvdssim.Clock
}

// Bus returns the register file.
func (s *Session) Bus() regs.Bus { return s.bus }

// Clock returns the virtual clock.
func (s *Session) Clock() phy.Clock { return s.clock }

// Registers exposes the simulated register file for inspection.
func (s *Session) Registers() *lvdssim.Bus { return s.bus }

// Close is a no-op.
func (s *Session) Close() error { return nil }
