// Package fsm provides a small table-driven finite state machine executor.
//
// A Machine holds an ordered list of transition rules and a subject value
// that guards and actions operate on. Each call to Step fires at most one
// rule, so the machine is meant to be polled from a loop rather than run to
// completion. The end of a table is its slice length.
package fsm

// StateID identifies a state in a transition table.
type StateID int

// NoState is reserved. A rule whose From is NoState never matches, so
// terminator rows copied from C-style tables are harmless.
const NoState StateID = -1

// Transition is a single rule in a transition table.
// Guard and Action receive the machine's subject. A nil Guard always
// passes; a nil Action does nothing.
type Transition[T any] struct {
	From   StateID
	Guard  func(T) bool
	To     StateID
	Action func(T)
}

// Machine executes a transition table against a subject.
// Not safe for concurrent use.
type Machine[T any] struct {
	subject T
	current StateID
	table   []Transition[T]
}

// New creates a Machine whose initial state is the From state of the first
// rule. An empty table yields a machine parked in NoState.
func New[T any](subject T, table []Transition[T]) *Machine[T] {
	initial := NoState
	if len(table) > 0 {
		initial = table[0].From
	}
	return NewAt(subject, initial, table)
}

// NewAt creates a Machine with an explicit initial state.
// The table is copied and never changes afterwards.
func NewAt[T any](subject T, initial StateID, table []Transition[T]) *Machine[T] {
	rules := make([]Transition[T], len(table))
	copy(rules, table)
	return &Machine[T]{
		subject: subject,
		current: initial,
		table:   rules,
	}
}

// Step scans the table once, in order, and fires the first rule whose From
// matches the current state and whose guard passes. The action runs before
// the state changes. Reports whether a rule fired.
func (m *Machine[T]) Step() bool {
	for i := range m.table {
		t := &m.table[i]
		if t.From == NoState || t.From != m.current {
			continue
		}
		if t.Guard != nil && !t.Guard(m.subject) {
			continue
		}
		if t.Action != nil {
			t.Action(m.subject)
		}
		m.current = t.To
		return true
	}
	return false
}

// Current returns the current state.
func (m *Machine[T]) Current() StateID {
	return m.current
}

// Transitions returns a copy of the transition table.
func (m *Machine[T]) Transitions() []Transition[T] {
	out := make([]Transition[T], len(m.table))
	copy(out, m.table)
	return out
}
