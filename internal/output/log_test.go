package output

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAppendAndGrow(t *testing.T) {
	l := NewLog()
	l.Append("> hi", TagPlayer)
	id := l.Begin(TagAI)
	for _, r := range "ok" {
		require.True(t, l.Grow(id, r))
	}

	got := l.Entries()
	require.Len(t, got, 2)
	assert.Equal(t, Entry{ID: 1, Text: "ok", Tag: TagAI}, got[1])
}

func TestClearKeepsIDsMonotonic(t *testing.T) {
	l := NewLog()
	old := l.Begin(TagAI)
	l.Clear()
	assert.False(t, l.Grow(old, 'x'))

	id := l.Append("fresh", TagSystem)
	assert.Greater(t, id, old)
	assert.Equal(t, 1, l.Len())
}

func TestTail(t *testing.T) {
	l := NewLog()
	for _, s := range []string{"a", "b", "c"} {
		l.Append(s, TagSystem)
	}
	tail := l.Tail(2)
	require.Len(t, tail, 2)
	assert.Equal(t, "b", tail[0].Text)
	assert.Len(t, l.Tail(10), 3)
}

func TestEntriesIsACopy(t *testing.T) {
	l := NewLog()
	l.Append("a", TagSystem)
	got := l.Entries()
	got[0].Text = "mutated"
	assert.Equal(t, "a", l.Entries()[0].Text)
}
