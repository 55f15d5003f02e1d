// Package history keeps undo and redo stacks of full canvas snapshots.
package history

import "github.com/example/doodle/internal/raster"

// Stack is an undo/redo history. The zero value is an unbounded, empty
// history.
type Stack struct {
	undo []raster.Snapshot
	redo []raster.Snapshot
	// MaxDepth caps the undo stack when positive; the oldest entries are
	// dropped first.
	MaxDepth int
}

// New returns a Stack keeping at most depth undo entries. A depth of zero
// or less means unbounded.
func New(depth int) *Stack {
	return &Stack{MaxDepth: depth}
}

// PushUndo records s as the state before a new edit and invalidates the
// redo stack.
func (h *Stack) PushUndo(s raster.Snapshot) {
	h.undo = append(h.undo, s)
	if h.MaxDepth > 0 && len(h.undo) > h.MaxDepth {
		drop := len(h.undo) - h.MaxDepth
		n := copy(h.undo, h.undo[drop:])
		clear(h.undo[n:])
		h.undo = h.undo[:n]
	}
	clear(h.redo)
	h.redo = h.redo[:0]
}

// Undo moves current onto the redo stack and returns the most recent undo
// entry. It reports false and changes nothing when there is nothing to undo.
func (h *Stack) Undo(current raster.Snapshot) (raster.Snapshot, bool) {
	s, ok := pop(&h.undo)
	if !ok {
		return raster.Snapshot{}, false
	}
	h.redo = append(h.redo, current)
	return s, true
}

// Redo is the inverse of Undo.
func (h *Stack) Redo(current raster.Snapshot) (raster.Snapshot, bool) {
	s, ok := pop(&h.redo)
	if !ok {
		return raster.Snapshot{}, false
	}
	h.undo = append(h.undo, current)
	return s, true
}

func pop(st *[]raster.Snapshot) (raster.Snapshot, bool) {
	n := len(*st)
	if n == 0 {
		return raster.Snapshot{}, false
	}
	s := (*st)[n-1]
	(*st)[n-1] = raster.Snapshot{}
	*st = (*st)[:n-1]
	return s, true
}

// CanUndo reports whether Undo would succeed.
func (h *Stack) CanUndo() bool { return len(h.undo) > 0 }

// CanRedo reports whether Redo would succeed.
func (h *Stack) CanRedo() bool { return len(h.redo) > 0 }

// Len returns the number of undo and redo entries.
func (h *Stack) Len() (undo, redo int) { return len(h.undo), len(h.redo) }

// Rebase replaces every stored snapshot with fn applied to it. It is used
// when the canvas changes size so stored states stay restorable.
func (h *Stack) Rebase(fn func(raster.Snapshot) raster.Snapshot) {
	for i, s := range h.undo {
		h.undo[i] = fn(s)
	}
	for i, s := range h.redo {
		h.redo[i] = fn(s)
	}
}

// Reset empties both stacks.
func (h *Stack) Reset() {
	h.undo = nil
	h.redo = nil
}
