//go:build linux

package gpio

import (
	"fmt"
	"sync"
	"time"

	"github.com/warthog618/go-gpiocdev"
)

// RealPort drives buttons on the Linux GPIO character device.
// Buttons are wired active-low: the line reads 0 while pressed.
type RealPort struct {
	clock *Clock
	chip  *gpiocdev.Chip
	pins  map[uint32]int

	mu      sync.Mutex
	lines   map[uint32]*gpiocdev.Line
	latches map[uint32]*Latch
}

// NewRealPort opens the named chip. pins maps button ids to line offsets.
func NewRealPort(chipName string, pins map[uint32]int) (*RealPort, error) {
	chip, err := gpiocdev.NewChip(chipName)
	if err != nil {
		return nil, fmt.Errorf("open gpio chip %s: %w", chipName, err)
	}

	return &RealPort{
		clock:   NewClock(time.Now),
		chip:    chip,
		pins:    pins,
		lines:   make(map[uint32]*gpiocdev.Line),
		latches: make(map[uint32]*Latch),
	}, nil
}

// Tick returns milliseconds since the port was opened.
func (r *RealPort) Tick() uint32 {
	return r.clock.Tick()
}

// Arm requests the button's line as an input with pull-up and both-edge
// events. The event handler updates the latch; the initial level is
// latched before Arm returns.
func (r *RealPort) Arm(id uint32) error {
	offset, ok := r.pins[id]
	if !ok {
		return fmt.Errorf("no pin configured for button %d", id)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, armed := r.lines[id]; armed {
		return fmt.Errorf("button %d already armed", id)
	}

	latch := &Latch{}
	line, err := r.chip.RequestLine(offset,
		gpiocdev.AsInput,
		gpiocdev.WithPullUp,
		gpiocdev.WithBothEdges,
		gpiocdev.WithEventHandler(func(evt gpiocdev.LineEvent) {
			latch.Set(evt.Type == gpiocdev.LineEventFallingEdge)
		}),
	)
	if err != nil {
		return fmt.Errorf("request pin %d: %w", offset, err)
	}

	v, err := line.Value()
	if err != nil {
		line.Close()
		return fmt.Errorf("read pin %d: %w", offset, err)
	}
	latch.Set(v == 0)

	r.lines[id] = line
	r.latches[id] = latch
	return nil
}

// IsPressed returns the latched level for the button.
func (r *RealPort) IsPressed(id uint32) bool {
	r.mu.Lock()
	latch := r.latches[id]
	r.mu.Unlock()

	if latch == nil {
		return false
	}
	return latch.Pressed()
}

// Poll reads every armed line and refreshes its latch, recovering from
// edge events the kernel dropped.
func (r *RealPort) Poll() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for id, line := range r.lines {
		v, err := line.Value()
		if err != nil {
			return fmt.Errorf("read button %d: %w", id, err)
		}
		r.latches[id].Set(v == 0)
	}
	return nil
}

// Close releases GPIO resources.
// Reconfigures lines to input with pull-down (matching Pi boot defaults)
// before closing so the pins are left in a clean state for reboot.
func (r *RealPort) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	var errs []error

	for id, line := range r.lines {
		if err := line.Reconfigure(gpiocdev.AsInput, gpiocdev.WithPullDown); err != nil {
			errs = append(errs, fmt.Errorf("reconfigure button %d: %w", id, err))
		}
		if err := line.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close button %d: %w", id, err))
		}
		delete(r.lines, id)
		delete(r.latches, id)
	}
	if r.chip != nil {
		if err := r.chip.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close chip: %w", err))
		}
		r.chip = nil
	}

	if len(errs) > 0 {
		return fmt.Errorf("close errors: %v", errs)
	}
	return nil
}
