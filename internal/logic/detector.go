package logic

import (
	"time"

	"github.com/sweeney/button-sensor/internal/button"
	"github.com/sweeney/button-sensor/internal/fsm"
)

// Detector steps a button once per poll and reports what changed.
type Detector struct {
	button         Button
	startTime      time.Time
	eventCounts    EventCounts
	lastHeartbeat  time.Time
	lastDurationMs uint32
}

// NewDetector creates a detector for the given button.
// The startTime is used for calculating uptime in heartbeat events.
func NewDetector(b Button, startTime time.Time) *Detector {
	return &Detector{
		button:        b,
		startTime:     startTime,
		lastHeartbeat: startTime,
	}
}

// Process steps the button once and returns the events it produced.
// A measured duration is consumed: it is reported once and then reset on
// the button, so a stale value is never reported twice.
func (d *Detector) Process(now time.Time) []Event {
	prev := d.button.State()
	d.button.Step()
	cur := d.button.State()

	var events []Event

	if cur != prev && cur == button.Pressed {
		events = append(events, d.event(now, EventDown, cur, 0))
	}

	if ms := d.button.Duration(); ms > 0 {
		d.lastDurationMs = ms
		d.button.ResetDuration()
		events = append(events, d.event(now, EventPress, cur, ms))
	}

	if cur != prev && cur == button.Released {
		events = append(events, d.event(now, EventUp, cur, 0))
	}

	// Count events
	for _, e := range events {
		switch e.Type {
		case EventDown:
			d.eventCounts.Down++
		case EventPress:
			d.eventCounts.Press++
		case EventUp:
			d.eventCounts.Up++
		}
	}

	return events
}

func (d *Detector) event(now time.Time, t EventType, s fsm.StateID, ms uint32) Event {
	return Event{
		Timestamp:  now,
		Type:       t,
		ButtonID:   d.button.ID(),
		State:      State(button.StateName(s)),
		DurationMs: ms,
	}
}

// CurrentState returns the button's current state name.
func (d *Detector) CurrentState() State {
	return State(button.StateName(d.button.State()))
}

// IsActive reports whether the button is anywhere but RELEASED.
func (d *Detector) IsActive() bool {
	return d.button.State() != button.Released
}

// LastDurationMs returns the most recent press duration reported.
func (d *Detector) LastDurationMs() uint32 {
	return d.lastDurationMs
}

// EventCountsSnapshot returns the event counts since startup.
func (d *Detector) EventCountsSnapshot() EventCounts {
	return d.eventCounts
}

// CheckHeartbeat returns heartbeat data if the interval has elapsed since the
// last heartbeat (or startup). Returns nil if the interval has not elapsed,
// or if interval is <= 0 (disabled).
func (d *Detector) CheckHeartbeat(now time.Time, interval time.Duration) *HeartbeatData {
	if interval <= 0 {
		return nil
	}

	if now.Sub(d.lastHeartbeat) < interval {
		return nil
	}

	d.lastHeartbeat = now
	return &HeartbeatData{
		Timestamp: now,
		Uptime:    now.Sub(d.startTime),
		Counts:    d.eventCounts,
	}
}
