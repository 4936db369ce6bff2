// Package sim provides an in-memory LVDS register file with a simple PLL
// model, and a virtual clock, for running bring-up without hardware.
package sim

import (
	"sync"

	"github.com/4ms/u-boot-stm32mp25/pkg/lvds/regs"
)

// Options tune the PLL model.
type Options struct {
	// LockAfter is the number of status reads, after the PLL is enabled,
	// that report "not locked" before lock is reported.
	LockAfter int

	// NeverLock lists PHY bases whose PLL never locks.
	NeverLock []uint32

	// Version is returned from the version register.
	Version uint32
}

// Access is one logged register access.
type Access struct {
	Write bool
	Off   uint32
	Val   uint32
}

// Bus is a simulated register window. It is safe for concurrent use.
type Bus struct {
	mu    sync.Mutex
	opts  Options
	mem   map[uint32]uint32
	polls map[uint32]int
	bad   map[uint32]bool
	log   []Access
}

var phyBases = []uint32{regs.PHYMaster, regs.PHYSlave}

// New returns a register file with every register cleared.
func New(opts Options) *Bus {
	b := &Bus{
		opts:  opts,
		mem:   make(map[uint32]uint32),
		polls: make(map[uint32]int),
		bad:   make(map[uint32]bool),
	}
	b.mem[regs.VERR] = opts.Version
	return b
}

// Read implements regs.Bus.
func (b *Bus) Read(off uint32) uint32 {
	b.mu.Lock()
	defer b.mu.Unlock()

	val := b.mem[off]
	for _, phy := range phyBases {
		if off == regs.PxPLLSR(phy) && b.locked(phy) {
			val |= regs.PLLSRLock
		}
	}

	b.log = append(b.log, Access{Off: off, Val: val})
	return val
}

// Write implements regs.Bus.
func (b *Bus) Write(off, val uint32) {
	b.mu.Lock()
	defer b.mu.Unlock()

	for _, phy := range phyBases {
		if off != regs.PxPLLCR1(phy) {
			continue
		}
		rising := val&regs.PLLCR1En != 0 && b.mem[off]&regs.PLLCR1En == 0
		if rising && b.mem[regs.PxBCR2(phy)]&regs.BIASEN == 0 {
			b.bad[phy] = true
		}
	}

	b.mem[off] = val
	b.log = append(b.log, Access{Write: true, Off: off, Val: val})
}

// locked advances the lock model of phy by one status read.
func (b *Bus) locked(phy uint32) bool {
	if b.mem[regs.PxPLLCR1(phy)]&regs.PLLCR1En == 0 || b.bad[phy] {
		return false
	}
	for _, never := range b.opts.NeverLock {
		if never == phy {
			return false
		}
	}
	b.polls[phy]++
	return b.polls[phy] > b.opts.LockAfter
}

// Peek returns a register value without logging the access or touching the
// PLL model.
func (b *Bus) Peek(off uint32) uint32 {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.mem[off]
}

// Log returns a copy of the access log.
func (b *Bus) Log() []Access {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]Access, len(b.log))
	copy(out, b.log)
	return out
}

// SequenceViolation reports whether the PLL of phy was enabled before its
// bias block.
func (b *Bus) SequenceViolation(phy uint32) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.bad[phy]
}
