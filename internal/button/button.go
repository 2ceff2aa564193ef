// Package button debounces a mechanical push-button and measures how long
// it was held, using the table-driven executor in internal/fsm.
//
// The hardware is reached only through Port. Step is meant to be called
// from a single polling loop at least once per debounce interval.
package button

import (
	"errors"
	"fmt"

	"github.com/sweeney/button-sensor/internal/fsm"
)

// Port is the hardware capability a Button needs.
type Port interface {
	// Tick returns a millisecond counter that wraps at 2^32.
	Tick() uint32

	// IsPressed returns the latched raw level of the button.
	IsPressed(id uint32) bool

	// Arm configures edge detection and enables the input line.
	Arm(id uint32) error
}

// ErrNilPort is returned by New when no Port is supplied.
var ErrNilPort = errors.New("button: nil port")

// Button states. The numbering matches the wire value published in events.
const (
	Released     fsm.StateID = iota // idle
	ReleasedWait                    // debounce elapsed, waiting for release
	Pressed                         // press seen, debouncing
	PressedWait                     // not reachable from the table
)

// Button is a debounced push-button.
type Button struct {
	machine *fsm.Machine[*Button]
	port    Port

	debounceMs  uint32
	nextTimeout uint32
	tickPressed uint32
	durationMs  uint32
	id          uint32
}

// New creates a Button in the Released state and arms its input line.
func New(port Port, debounceMs, id uint32) (*Button, error) {
	if port == nil {
		return nil, ErrNilPort
	}

	b := &Button{
		port:       port,
		debounceMs: debounceMs,
		id:         id,
	}
	b.machine = fsm.NewAt(b, Released, transitions())

	if err := port.Arm(id); err != nil {
		return nil, fmt.Errorf("arm button %d: %w", id, err)
	}
	return b, nil
}

// transitions returns the button's rule table in evaluation order.
func transitions() []fsm.Transition[*Button] {
	return []fsm.Transition[*Button]{
		{From: Released, Guard: (*Button).checkPressed, To: Pressed, Action: (*Button).storeTickPressed},
		{From: Pressed, Guard: (*Button).checkTimeout, To: ReleasedWait, Action: (*Button).setDuration},
		{From: ReleasedWait, Guard: (*Button).checkReleased, To: Released},
		{From: PressedWait, Guard: (*Button).checkTimeout, To: Released, Action: (*Button).setDuration},
	}
}

func (b *Button) checkPressed() bool {
	return b.port.IsPressed(b.id)
}

func (b *Button) checkReleased() bool {
	return !b.port.IsPressed(b.id)
}

// checkTimeout is strictly greater-than, so it fires one tick after the
// nominal window. The signed difference keeps it correct across counter
// wrap-around for windows shorter than 2^31 ms.
func (b *Button) checkTimeout() bool {
	return int32(b.port.Tick()-b.nextTimeout) > 0
}

func (b *Button) storeTickPressed() {
	now := b.port.Tick()
	b.tickPressed = now
	b.nextTimeout = now + b.debounceMs
}

func (b *Button) setDuration() {
	now := b.port.Tick()
	b.durationMs = now - b.tickPressed
	b.nextTimeout = now + b.debounceMs
}

// Step advances the state machine by at most one transition.
// Reports whether a transition fired.
func (b *Button) Step() bool {
	if b == nil {
		return false
	}
	return b.machine.Step()
}

// Duration returns the last completed press duration in milliseconds,
// or 0 if none has been measured since the last reset.
func (b *Button) Duration() uint32 {
	if b == nil {
		return 0
	}
	return b.durationMs
}

// ResetDuration clears the last press duration. The debounce window is
// left untouched; use Disarm to zero it.
func (b *Button) ResetDuration() {
	if b == nil {
		return
	}
	b.durationMs = 0
}

// Disarm zeroes the debounce window. Later timeouts fire on the tick
// after a press is seen.
func (b *Button) Disarm() {
	if b == nil {
		return
	}
	b.debounceMs = 0
}

// IsActive reports whether the button is anywhere but Released.
func (b *Button) IsActive() bool {
	if b == nil {
		return false
	}
	return b.machine.Current() != Released
}

// State returns the current state.
func (b *Button) State() fsm.StateID {
	if b == nil {
		return fsm.NoState
	}
	return b.machine.Current()
}

// ID returns the button id passed to New.
func (b *Button) ID() uint32 {
	if b == nil {
		return 0
	}
	return b.id
}

// DebounceMs returns the debounce window in milliseconds.
func (b *Button) DebounceMs() uint32 {
	if b == nil {
		return 0
	}
	return b.debounceMs
}

// Diagram returns the transition table in Graphviz DOT format.
func (b *Button) Diagram() string {
	if b == nil {
		return ""
	}
	return b.machine.ToDOT(StateName)
}

// StateName returns the display name of a button state.
func StateName(s fsm.StateID) string {
	switch s {
	case Released:
		return "RELEASED"
	case ReleasedWait:
		return "RELEASED_WAIT"
	case Pressed:
		return "PRESSED"
	case PressedWait:
		return "PRESSED_WAIT"
	}
	return "UNKNOWN"
}
