// Package devmem maps the LVDS register window from physical memory so the
// controller can run against real hardware.
package devmem

import (
	"errors"
	"fmt"
	"sync/atomic"
	"unsafe"

	"github.com/4ms/u-boot-stm32mp25/pkg/lvds/regs"
)

// DefaultBase is the physical address of the LVDS block on the STM32MP25.
const DefaultBase = 0x48060000

var ErrUnsupported = errors.New("physical memory access is not supported on this platform")

// Window is a mapped register window. It implements regs.Bus.
type Window struct {
	mem   []byte
	base  int64
	unmap func([]byte) error
}

var _ regs.Bus = (*Window)(nil)

func newWindow(mem []byte, base int64, unmap func([]byte) error) *Window {
	return &Window{mem: mem, base: base, unmap: unmap}
}

// Base returns the physical address of offset 0.
func (w *Window) Base() int64 { return w.base }

// Size returns the mapped length in bytes.
func (w *Window) Size() int { return len(w.mem) }

// Read implements regs.Bus. An unaligned or out of range offset panics.
func (w *Window) Read(off uint32) uint32 {
	return atomic.LoadUint32(w.word(off))
}

// Write implements regs.Bus.
func (w *Window) Write(off, val uint32) {
	atomic.StoreUint32(w.word(off), val)
}

func (w *Window) word(off uint32) *uint32 {
	if off%4 != 0 || uint64(off)+4 > uint64(len(w.mem)) {
		panic(fmt.Sprintf("devmem: register offset %#x outside %d byte window", off, len(w.mem)))
	}
	return (*uint32)(unsafe.Pointer(&w.mem[off]))
}

// Close unmaps the window. The window must not be used afterwards.
func (w *Window) Close() error {
	if w.mem == nil {
		return nil
	}
	mem := w.mem
	w.mem = nil
	if w.unmap == nil {
		return nil
	}
	if err := w.unmap(mem); err != nil {
		return fmt.Errorf("failed to unmap %#x: %w", w.base, err)
	}
	return nil
}
