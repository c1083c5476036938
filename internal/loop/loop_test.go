package loop

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAdvanceFiresInDeadlineOrder(t *testing.T) {
	l := New()
	var got []string
	l.After(30*time.Millisecond, func() { got = append(got, "c") })
	l.After(10*time.Millisecond, func() { got = append(got, "a") })
	l.After(10*time.Millisecond, func() { got = append(got, "b") })

	require.Equal(t, 2, l.Advance(20*time.Millisecond))
	assert.Equal(t, []string{"a", "b"}, got)
	assert.Equal(t, 20*time.Millisecond, l.Now())

	l.Advance(10 * time.Millisecond)
	assert.Equal(t, []string{"a", "b", "c"}, got)
	assert.Zero(t, l.Pending())
}

func TestCallbackSeesItsOwnDeadline(t *testing.T) {
	l := New()
	var at time.Duration
	l.After(150*time.Millisecond, func() { at = l.Now() })
	l.Advance(time.Second)
	assert.Equal(t, 150*time.Millisecond, at)
	assert.Equal(t, time.Second, l.Now())
}

func TestChainedTimersFireWithinOneAdvance(t *testing.T) {
	l := New()
	count := 0
	var step func()
	step = func() {
		count++
		if count < 5 {
			l.After(100*time.Millisecond, step)
		}
	}
	l.After(100*time.Millisecond, step)
	l.Advance(450 * time.Millisecond)
	assert.Equal(t, 4, count)
	l.Advance(50 * time.Millisecond)
	assert.Equal(t, 5, count)
}

func TestEveryRepeatsUntilCancelled(t *testing.T) {
	l := New()
	ticks := 0
	var id TimerID
	id = l.Every(50*time.Millisecond, func() {
		ticks++
		if ticks == 3 {
			l.Cancel(id)
		}
	})
	l.Advance(time.Second)
	assert.Equal(t, 3, ticks)
	assert.Zero(t, l.Pending())
}

func TestCancel(t *testing.T) {
	l := New()
	fired := false
	id := l.After(time.Second, func() { fired = true })
	assert.True(t, l.Cancel(id))
	assert.False(t, l.Cancel(id))
	l.Advance(2 * time.Second)
	assert.False(t, fired)
}

func TestPostRunsAfterDueTimers(t *testing.T) {
	l := New()
	var got []int
	l.After(0, func() { got = append(got, 1) })
	l.Post(func() { got = append(got, 2) })
	l.Advance(0)
	assert.Equal(t, []int{1, 2}, got)
}

func TestCloseCancelsEverything(t *testing.T) {
	l := New()
	fired := 0
	l.After(time.Millisecond, func() {
		fired++
		l.Close()
	})
	l.After(2*time.Millisecond, func() { fired++ })
	l.Every(time.Millisecond, func() { fired++ })

	l.Advance(time.Second)
	assert.Equal(t, 1, fired)
	assert.True(t, l.Closed())
	assert.Zero(t, l.After(time.Millisecond, func() { fired++ }))
	assert.Zero(t, l.Pending())
}
