package gpio

import "errors"

// FakePort is a test double that plays back scripted ticks and levels.
type FakePort struct {
	// Samples contains scripted (tick, pressed) values.
	// Each call to Poll() applies the next sample.
	Samples []Sample

	// index tracks current position in Samples
	index int

	tick    uint32
	pressed bool

	// Armed records every id passed to Arm, in order.
	Armed []uint32

	// ArmError, if set, will be returned by Arm()
	ArmError error

	// PollError, if set, will be returned by Poll()
	PollError error

	// Closed tracks if Close was called
	Closed bool
}

// Sample is a single scripted reading. Pressed applies to every id.
type Sample struct {
	Tick    uint32
	Pressed bool
}

// NewFakePort creates a FakePort with the given samples.
func NewFakePort(samples []Sample) *FakePort {
	return &FakePort{Samples: samples}
}

// Poll applies the next scripted sample.
// If samples are exhausted, the last sample stays in effect.
func (f *FakePort) Poll() error {
	if f.PollError != nil {
		return f.PollError
	}

	if len(f.Samples) == 0 {
		return errors.New("no samples configured")
	}

	s := f.Samples[f.index]
	if f.index < len(f.Samples)-1 {
		f.index++
	}

	f.tick = s.Tick
	f.pressed = s.Pressed
	return nil
}

// Set overrides the current tick and level directly.
func (f *FakePort) Set(tick uint32, pressed bool) {
	f.tick = tick
	f.pressed = pressed
}

// Tick returns the current scripted tick.
func (f *FakePort) Tick() uint32 {
	return f.tick
}

// IsPressed returns the current scripted level.
func (f *FakePort) IsPressed(id uint32) bool {
	return f.pressed
}

// Arm records the id.
func (f *FakePort) Arm(id uint32) error {
	if f.ArmError != nil {
		return f.ArmError
	}
	f.Armed = append(f.Armed, id)
	return nil
}

// Close marks the port as closed.
func (f *FakePort) Close() error {
	f.Closed = true
	return nil
}

// Reset rewinds the samples and clears the current reading.
func (f *FakePort) Reset() {
	f.index = 0
	f.tick = 0
	f.pressed = false
	f.Closed = false
}
