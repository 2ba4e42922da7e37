package compiler

import (
	"fmt"

	"github.com/chazu/luna/vm"
)

// Window is the register range an expression must fill.
//
// A bounded window [start, end) receives exactly end-start values: missing
// ones are padded with nil and surplus ones are dropped. An open window
// [start, ∞) receives however many values the expression naturally
// produces; it is how multiple results and varargs flow through the
// trailing position of an expression list.
type Window struct {
	start int
	end   int
	open  bool
}

// Discard is the empty window used for values nobody wants.
var Discard = Fixed(0, 0)

// Fixed returns the bounded window [start, end).
func Fixed(start, end int) Window {
	return Window{start: start, end: end}
}

// Slot returns the single-register window [r, r+1).
func Slot(r int) Window {
	return Fixed(r, r+1)
}

// Open returns the unbounded window [start, ∞).
func Open(start int) Window {
	return Window{start: start, open: true}
}

// Start returns the first register of the window.
func (w Window) Start() int { return w.start }

// IsOpen reports whether the window is unbounded.
func (w Window) IsOpen() bool { return w.open }

// End returns the bound of a bounded window; ok is false for an open window.
func (w Window) End() (end int, ok bool) {
	if w.open {
		return 0, false
	}
	return w.end, true
}

// Empty reports whether a bounded window has no registers to fill.
func (w Window) Empty() bool {
	return !w.open && w.start >= w.end
}

// Has reports whether register r lies inside the window.
func (w Window) Has(r int) bool {
	return r >= w.start && (w.open || r < w.end)
}

// From returns the remainder of the window beginning at r.
// An open window stays open.
func (w Window) From(r int) Window {
	if w.open {
		return Open(r)
	}
	if r > w.end {
		r = w.end
	}
	return Fixed(r, w.end)
}

// Count is the encoded number of values the window expects:
// its width, or vm.CountAny for an open window.
func (w Window) Count() int {
	if w.open {
		return vm.CountAny
	}
	if w.end < w.start {
		return 0
	}
	return w.end - w.start
}

// String renders the window in interval notation.
func (w Window) String() string {
	if w.open {
		return fmt.Sprintf("[%d, any)", w.start)
	}
	return fmt.Sprintf("[%d, %d)", w.start, w.end)
}
