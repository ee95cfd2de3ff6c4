// Package state implements the keyed, windowed reducing-state store: a
// process-wide registry of (chain, task) -> (window -> accumulator map),
// with insert/lookup/iterate and atomic drop-on-window-complete semantics.
package state

import "fmt"

// ChainID identifies an operator chain -- a fused sequence of operators
// executed on one thread.
type ChainID uint32

// TaskNumber is the index of a parallel instance of one chain.
type TaskNumber uint16

// WindowKind tags the semantics a Window was created under.
type WindowKind uint8

const (
	WindowTumbling WindowKind = iota
	WindowSliding
	WindowSession
)

func (k WindowKind) String() string {
	switch k {
	case WindowTumbling:
		return "Tumbling"
	case WindowSliding:
		return "Sliding"
	case WindowSession:
		return "Session"
	default:
		return "Unknown"
	}
}

// Window is a time interval with an inclusive start and exclusive end,
// plus a semantic tag. Window is comparable (all fields are value types)
// so it can be used directly as a Go map key -- this is the WindowWrap the
// spec calls for: a hashable, totally-ordered window identifier.
type Window struct {
	Start int64
	End   int64
	Kind  WindowKind
}

// Before totally orders Window identifiers: by start, then by end.
func (w Window) Before(other Window) bool {
	if w.Start != other.Start {
		return w.Start < other.Start
	}
	return w.End < other.End
}

func (w Window) String() string {
	return fmt.Sprintf("Window[%d,%d)/%s", w.Start, w.End, w.Kind)
}

// Key is the triple identifying one keyed-state instance: the operator
// chain, the parallel task within it, and the window.
type Key struct {
	ChainID    ChainID
	TaskNumber TaskNumber
	Window     Window
}

func (k Key) String() string {
	return fmt.Sprintf("Key{chain=%d, task=%d, window=%s}", k.ChainID, k.TaskNumber, k.Window)
}

// instanceKey identifies one (chain, task) owner: the ownership
// boundary within which no state belonging to one (chain_id,
// task_number) is mutated by another.
type instanceKey struct {
	chainID    ChainID
	taskNumber TaskNumber
}
