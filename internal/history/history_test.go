package history

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEmptyLog(t *testing.T) {
	l := New[string]()
	assert.Equal(t, -1, l.Cursor())
	assert.Equal(t, 0, l.Len())
	assert.False(t, l.CanUndo())
	assert.False(t, l.CanRedo())

	_, ok := l.Current()
	assert.False(t, ok)
	_, ok = l.Undo()
	assert.False(t, ok)
	_, ok = l.Redo()
	assert.False(t, ok)
}

func TestRecordUndoRedo(t *testing.T) {
	l := New[int]()
	l.Record(1)
	assert.False(t, l.CanUndo(), "a single snapshot cannot be undone")

	l.Record(2)
	l.Record(3)
	assert.Equal(t, 2, l.Cursor())

	v, ok := l.Undo()
	require.True(t, ok)
	assert.Equal(t, 2, v)
	v, ok = l.Undo()
	require.True(t, ok)
	assert.Equal(t, 1, v)

	_, ok = l.Undo()
	assert.False(t, ok, "Expected undo at cursor 0 to be a no-op")
	assert.Equal(t, 0, l.Cursor())

	v, ok = l.Redo()
	require.True(t, ok)
	assert.Equal(t, 2, v)
	v, ok = l.Redo()
	require.True(t, ok)
	assert.Equal(t, 3, v)

	_, ok = l.Redo()
	assert.False(t, ok, "Expected redo at the end to be a no-op")
}

func TestRecordDiscardsBranch(t *testing.T) {
	l := New[string]()
	l.Record("a")
	l.Record("b")
	l.Record("c")

	l.Undo()
	l.Undo()
	assert.True(t, l.CanRedo())

	l.Record("x")
	assert.False(t, l.CanRedo())
	assert.Equal(t, 2, l.Len())

	cur, _ := l.Current()
	assert.Equal(t, "x", cur)
	prev, _ := l.Undo()
	assert.Equal(t, "a", prev)
}

func TestWithLimit(t *testing.T) {
	tests := []struct {
		name    string
		limit   int
		records int
		wantLen int
		oldest  int
	}{
		{"unbounded", 0, 10, 10, 0},
		{"under limit", 5, 3, 3, 0},
		{"over limit", 3, 10, 3, 7},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			l := New[int](WithLimit(tt.limit))
			for i := 0; i < tt.records; i++ {
				l.Record(i)
			}
			assert.Equal(t, tt.wantLen, l.Len())
			assert.Equal(t, tt.wantLen-1, l.Cursor())

			var last int
			for l.CanUndo() {
				last, _ = l.Undo()
			}
			if tt.wantLen > 1 {
				assert.Equal(t, tt.oldest, last)
			}
		})
	}
}
