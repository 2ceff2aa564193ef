// Package logic turns button state changes into press events.
// This package has NO external dependencies (no GPIO, MQTT, OS, or time.Sleep).
// Time is always injectable via time.Time parameters.
package logic

import (
	"time"

	"github.com/sweeney/button-sensor/internal/fsm"
)

// State is the display name of a button state, e.g. "PRESSED".
type State string

// EventType represents a press event.
type EventType string

const (
	EventDown  EventType = "BUTTON_DOWN"  // press accepted, debounce started
	EventPress EventType = "BUTTON_PRESS" // press duration measured
	EventUp    EventType = "BUTTON_UP"    // button back to idle
)

// Button is the part of button.Button the detector drives.
type Button interface {
	Step() bool
	State() fsm.StateID
	Duration() uint32
	ResetDuration()
	ID() uint32
}

// Event represents a press event to be published.
type Event struct {
	Timestamp  time.Time
	Type       EventType
	ButtonID   uint32
	State      State
	DurationMs uint32 // set on EventPress only
}

// EventCounts tracks the number of each event type since startup.
type EventCounts struct {
	Down  int
	Press int
	Up    int
}

// HeartbeatData contains information for a heartbeat event.
type HeartbeatData struct {
	Timestamp time.Time
	Uptime    time.Duration
	Counts    EventCounts
}
