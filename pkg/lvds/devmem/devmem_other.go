//go:build !linux
// +build !linux

package devmem

// Open is not available on this platform.
func Open(base int64, size int) (*Window, error) {
	return nil, ErrUnsupported
}
