//go:build !linux

package gpio

import "errors"

var errUnsupported = errors.New("gpio: not supported")

// RealPort is not available on non-Linux platforms.
type RealPort struct{}

// NewRealPort returns an error on non-Linux platforms.
func NewRealPort(chipName string, pins map[uint32]int) (*RealPort, error) {
	return nil, errors.New("gpio: not supported on this platform (requires Linux)")
}

// Tick is not implemented on non-Linux platforms.
func (r *RealPort) Tick() uint32 { return 0 }

// IsPressed is not implemented on non-Linux platforms.
func (r *RealPort) IsPressed(id uint32) bool { return false }

// Arm is not implemented on non-Linux platforms.
func (r *RealPort) Arm(id uint32) error { return errUnsupported }

// Poll is not implemented on non-Linux platforms.
func (r *RealPort) Poll() error { return errUnsupported }

// Close is not implemented on non-Linux platforms.
func (r *RealPort) Close() error {
	return nil
}
