// Package history implements a linear undo/redo log of immutable snapshots.
package history

// Log is an ordered sequence of snapshots with a cursor pointing at the current one.
// Snapshots must not be mutated after they are recorded.
type Log[T any] struct {
	entries []T
	cursor  int
	limit   int
}

// Option configures a Log
type Option func(*options)

type options struct {
	limit int
}

// WithLimit bounds the log to n snapshots; the oldest snapshots are dropped first.
// A limit below 1 means unbounded.
func WithLimit(n int) Option {
	return func(o *options) {
		o.limit = n
	}
}

// New returns an empty log. Its cursor is -1 until the first Record.
func New[T any](opts ...Option) *Log[T] {
	var o options
	for _, opt := range opts {
		opt(&o)
	}
	return &Log[T]{cursor: -1, limit: o.limit}
}

// Record discards every snapshot after the cursor, appends v and moves the cursor to it
func (l *Log[T]) Record(v T) {
	l.entries = append(l.entries[:l.cursor+1], v)
	if l.limit > 0 && len(l.entries) > l.limit {
		drop := len(l.entries) - l.limit
		var zero T
		for i := 0; i < drop; i++ {
			l.entries[i] = zero
		}
		l.entries = append(l.entries[:0:0], l.entries[drop:]...)
	}
	l.cursor = len(l.entries) - 1
}

// Undo steps the cursor back and returns the snapshot it now points at.
// It returns false at the first snapshot.
func (l *Log[T]) Undo() (T, bool) {
	if !l.CanUndo() {
		var zero T
		return zero, false
	}
	l.cursor--
	return l.entries[l.cursor], true
}

// Redo steps the cursor forward and returns the snapshot it now points at.
// It returns false at the last snapshot.
func (l *Log[T]) Redo() (T, bool) {
	if !l.CanRedo() {
		var zero T
		return zero, false
	}
	l.cursor++
	return l.entries[l.cursor], true
}

func (l *Log[T]) CanUndo() bool {
	return l.cursor > 0
}

func (l *Log[T]) CanRedo() bool {
	return l.cursor < len(l.entries)-1
}

// Current returns the snapshot under the cursor, or false when the log is empty
func (l *Log[T]) Current() (T, bool) {
	if l.cursor < 0 {
		var zero T
		return zero, false
	}
	return l.entries[l.cursor], true
}

// Cursor returns the index of the current snapshot, -1 when empty
func (l *Log[T]) Cursor() int {
	return l.cursor
}

// Len returns the number of snapshots held
func (l *Log[T]) Len() int {
	return len(l.entries)
}
