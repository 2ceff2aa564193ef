// Package gpio provides the hardware side of a button: a millisecond tick
// source and an edge-driven input latch.
// The real implementation uses the Linux GPIO character device.
// The fake implementation allows testing without hardware.
package gpio

import (
	"sync/atomic"
	"time"
)

// Port is the hardware a button daemon polls.
// It satisfies button.Port.
type Port interface {
	// Tick returns milliseconds since the port was opened, wrapping at 2^32.
	Tick() uint32

	// IsPressed returns the latched level for the button.
	// Unknown ids read as released.
	IsPressed(id uint32) bool

	// Arm requests the button's line and starts latching edges.
	Arm(id uint32) error

	// Poll resynchronises latches with the current line levels.
	// Called once per loop iteration.
	Poll() error

	// Close releases GPIO resources.
	Close() error
}

// Defaults for a single button on a Raspberry Pi (BCM numbering).
const (
	DefaultChip     = "gpiochip0"
	DefaultPin      = 17
	DefaultButtonID = 0
)

// Latch holds the last observed level of a button line.
// It is written by the edge event goroutine and read by the poll loop.
type Latch struct {
	pressed atomic.Bool
}

// Set stores the pressed level.
func (l *Latch) Set(pressed bool) {
	l.pressed.Store(pressed)
}

// Pressed returns the stored level.
func (l *Latch) Pressed() bool {
	return l.pressed.Load()
}

// Clock is a millisecond tick source derived from a time function.
type Clock struct {
	start time.Time
	now   func() time.Time
}

// NewClock creates a Clock that counts from the current value of now.
func NewClock(now func() time.Time) *Clock {
	return &Clock{start: now(), now: now}
}

// Tick returns whole milliseconds since the clock was created.
// The conversion to uint32 wraps after about 49.7 days.
func (c *Clock) Tick() uint32 {
	return uint32(c.now().Sub(c.start) / time.Millisecond)
}
