//go:build linux
// +build linux

package devmem

import (
	"fmt"
	"os"

	"golang.org/x/sys/unix"
)

// Open maps size bytes of physical memory at base through /dev/mem.
func Open(base int64, size int) (*Window, error) {
	if base%int64(unix.Getpagesize()) != 0 {
		return nil, fmt.Errorf("base %#x is not page aligned", base)
	}
	if size <= 0 {
		return nil, fmt.Errorf("invalid window size %d", size)
	}

	f, err := os.OpenFile("/dev/mem", os.O_RDWR|os.O_SYNC, 0)
	if err != nil {
		return nil, fmt.Errorf("failed to open /dev/mem: %w", err)
	}
	defer f.Close()

	mem, err := unix.Mmap(int(f.Fd()), base, size, unix.PROT_READ|unix.PROT_WRITE, unix.MAP_SHARED)
	if err != nil {
		return nil, fmt.Errorf("failed to map %#x: %w", base, err)
	}

	return newWindow(mem, base, unix.Munmap), nil
}
