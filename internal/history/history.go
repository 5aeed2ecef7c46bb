// Package history is a linear undo/redo stack of full snapshots.
package history

// DefaultLimit is the number of snapshots kept when no limit is given.
const DefaultLimit = 50

// History stores snapshots oldest first with a cursor on the visible one.
// Snapshots are stored as given; callers commit immutable values.
type History[T any] struct {
	entries []T
	cursor  int
	limit   int
}

// New returns an empty history that keeps at most limit snapshots.
func New[T any](limit int) *History[T] {
	if limit <= 0 {
		limit = DefaultLimit
	}
	return &History[T]{cursor: -1, limit: limit}
}

// Commit appends a snapshot after the cursor, discarding anything that
// could have been redone. When full, the oldest snapshot is evicted and the
// cursor shifts with it, so the current snapshot stays current.
func (h *History[T]) Commit(snapshot T) {
	h.entries = append(h.entries[:h.cursor+1], snapshot)
	if len(h.entries) > h.limit {
		drop := len(h.entries) - h.limit
		var zero T
		for i := 0; i < drop; i++ {
			h.entries[i] = zero
		}
		h.entries = append(h.entries[:0], h.entries[drop:]...)
	}
	h.cursor = len(h.entries) - 1
}

// Reset replaces the whole history with a single snapshot.
func (h *History[T]) Reset(snapshot T) {
	h.entries = []T{snapshot}
	h.cursor = 0
}

// Undo steps back and returns the snapshot that is now current. At the
// oldest snapshot it does nothing and reports false.
func (h *History[T]) Undo() (T, bool) {
	if !h.CanUndo() {
		var zero T
		return zero, false
	}
	h.cursor--
	return h.entries[h.cursor], true
}

// Redo steps forward and returns the snapshot that is now current. At the
// newest snapshot it does nothing and reports false.
func (h *History[T]) Redo() (T, bool) {
	if !h.CanRedo() {
		var zero T
		return zero, false
	}
	h.cursor++
	return h.entries[h.cursor], true
}

func (h *History[T]) CanUndo() bool { return h.cursor > 0 }

func (h *History[T]) CanRedo() bool { return h.cursor >= 0 && h.cursor < len(h.entries)-1 }

// Current returns the visible snapshot.
func (h *History[T]) Current() (T, bool) {
	if h.cursor < 0 {
		var zero T
		return zero, false
	}
	return h.entries[h.cursor], true
}

// Len is the number of stored snapshots.
func (h *History[T]) Len() int { return len(h.entries) }

// Cursor is the index of the visible snapshot, -1 when empty.
func (h *History[T]) Cursor() int { return h.cursor }

// Limit is the capacity.
func (h *History[T]) Limit() int { return h.limit }
