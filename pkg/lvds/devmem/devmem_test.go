package devmem

import (
	"errors"
	"testing"

	"github.com/4ms/u-boot-stm32mp25/pkg/lvds/regs"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWindowReadWrite(t *testing.T) {
	w := newWindow(make([]byte, 0x40), 0x1000, nil)

	w.Write(0x10, 0xdeadbeef)
	assert.Equal(t, uint32(0xdeadbeef), w.Read(0x10))
	assert.Zero(t, w.Read(0x14))

	regs.Set(w, 0x10, 0x1)
	regs.Clear(w, 0x10, 0xf0000000)
	assert.Equal(t, uint32(0x0eadbeef), w.Read(0x10))

	assert.Equal(t, int64(0x1000), w.Base())
	assert.Equal(t, 0x40, w.Size())
}

func TestWindowBounds(t *testing.T) {
	w := newWindow(make([]byte, 0x40), 0, nil)

	assert.Panics(t, func() { w.Read(0x40) })
	assert.Panics(t, func() { w.Read(0x3e) })
	assert.Panics(t, func() { w.Write(0x2, 1) })
	assert.NotPanics(t, func() { w.Read(0x3c) })
}

func TestWindowClose(t *testing.T) {
	var unmapped int
	w := newWindow(make([]byte, 8), 0, func(b []byte) error {
		unmapped = len(b)
		return nil
	})
	require.NoError(t, w.Close())
	assert.Equal(t, 8, unmapped)
	require.NoError(t, w.Close())

	failing := newWindow(make([]byte, 8), 0x2000, func([]byte) error { return errors.New("busy") })
	assert.ErrorContains(t, failing.Close(), "failed to unmap 0x2000")
}
