package fsm

import "github.com/enetx/g"

// ToDOT renders the transition table in Graphviz DOT format. Rules are
// emitted in table order and labelled with their position, so the picture
// also shows evaluation priority. name maps a StateID to a label; if nil,
// the numeric id is used.
func (m *Machine[T]) ToDOT(name func(StateID) string) string {
	label := func(s StateID) g.String {
		if name == nil {
			return g.Format("{}", int(s))
		}
		return g.String(name(s))
	}

	b := g.NewBuilder()

	b.WriteString("digraph FSM {\n")
	b.WriteString("  rankdir=LR;\n")
	b.WriteString("  node [shape=circle, fontname=\"Helvetica\"];\n")
	b.WriteString("  edge [fontname=\"Helvetica\", fontsize=10];\n\n")

	seen := make(map[StateID]bool)
	var states []StateID
	add := func(s StateID) {
		if s == NoState || seen[s] {
			return
		}
		seen[s] = true
		states = append(states, s)
	}
	for _, t := range m.table {
		if t.From == NoState {
			continue
		}
		add(t.From)
		add(t.To)
	}

	for _, s := range states {
		var attrs g.Slice[g.String]
		attrs.Push(g.Format("label=\"{}\"", label(s)))
		if s == m.current {
			attrs.Push("style=filled", "fillcolor=\"#90ee90\"", "shape=doublecircle")
		}
		b.WriteString(g.Format("  \"{}\" [{}];\n", label(s), attrs.Join(", ")))
	}

	b.WriteByte('\n')

	for i, t := range m.table {
		if t.From == NoState {
			continue
		}

		var parts g.Slice[g.String]
		parts.Push(g.Format("#{}", i+1))
		if t.Guard != nil {
			parts.Push("[guard]")
		}
		if t.Action != nil {
			parts.Push("/ action")
		}

		b.WriteString(g.Format("  \"{}\" -> \"{}\" [label=\" {} \"];\n", label(t.From), label(t.To), parts.Join(" ")))
	}

	b.WriteString("}\n")

	return string(b.String())
}
