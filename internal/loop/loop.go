// Package loop is the single-threaded task queue every game timer runs on.
//
// Time is virtual: nothing fires until the owner advances the clock, so the UI
// maps wall-clock frames onto Advance and tests step it deterministically.
package loop

import (
	"container/heap"
	"time"
)

type TimerID uint64

type timer struct {
	id       TimerID
	seq      uint64
	deadline time.Duration
	interval time.Duration
	fn       func()
	index    int
}

type Loop struct {
	now    time.Duration
	seq    uint64
	nextID TimerID
	queue  timerQueue
	byID   map[TimerID]*timer
	closed bool
}

func New() *Loop {
	return &Loop{byID: map[TimerID]*timer{}}
}

func (l *Loop) Now() time.Duration { return l.now }

// After schedules fn once, d after the current virtual time.
func (l *Loop) After(d time.Duration, fn func()) TimerID {
	return l.schedule(d, 0, fn)
}

// Every schedules fn repeatedly with period d. Non-positive periods are
// clamped to one millisecond so an interval can never spin the queue.
func (l *Loop) Every(d time.Duration, fn func()) TimerID {
	if d <= 0 {
		d = time.Millisecond
	}
	return l.schedule(d, d, fn)
}

// Post queues fn to run at the current virtual time, after anything already due.
func (l *Loop) Post(fn func()) TimerID {
	return l.schedule(0, 0, fn)
}

func (l *Loop) schedule(d, interval time.Duration, fn func()) TimerID {
	if l.closed || fn == nil {
		return 0
	}
	if d < 0 {
		d = 0
	}
	l.nextID++
	l.seq++
	t := &timer{
		id:       l.nextID,
		seq:      l.seq,
		deadline: l.now + d,
		interval: interval,
		fn:       fn,
	}
	heap.Push(&l.queue, t)
	l.byID[t.id] = t
	return t.id
}

// Cancel removes a pending timer. It reports whether the timer was still pending.
func (l *Loop) Cancel(id TimerID) bool {
	t, ok := l.byID[id]
	if !ok {
		return false
	}
	delete(l.byID, id)
	if t.index >= 0 {
		heap.Remove(&l.queue, t.index)
	}
	return true
}

func (l *Loop) Pending() int { return len(l.byID) }

func (l *Loop) Closed() bool { return l.closed }

// Advance moves virtual time forward by d, firing every timer that falls due
// on the way in deadline order. It returns how many callbacks ran.
func (l *Loop) Advance(d time.Duration) int {
	if d < 0 {
		d = 0
	}
	return l.AdvanceTo(l.now + d)
}

func (l *Loop) AdvanceTo(target time.Duration) int {
	fired := 0
	for !l.closed && l.queue.Len() > 0 {
		next := l.queue[0]
		if next.deadline > target {
			break
		}
		heap.Pop(&l.queue)
		if next.deadline > l.now {
			l.now = next.deadline
		}
		if next.interval > 0 {
			l.seq++
			next.seq = l.seq
			next.deadline += next.interval
			heap.Push(&l.queue, next)
		} else {
			delete(l.byID, next.id)
		}
		next.fn()
		fired++
	}
	if target > l.now {
		l.now = target
	}
	return fired
}

// Close cancels every outstanding timer. Scheduling after Close is ignored.
func (l *Loop) Close() {
	l.closed = true
	l.queue = nil
	l.byID = map[TimerID]*timer{}
}

type timerQueue []*timer

func (q timerQueue) Len() int { return len(q) }

func (q timerQueue) Less(i, j int) bool {
	if q[i].deadline == q[j].deadline {
		return q[i].seq < q[j].seq
	}
	return q[i].deadline < q[j].deadline
}

func (q timerQueue) Swap(i, j int) {
	q[i], q[j] = q[j], q[i]
	q[i].index = i
	q[j].index = j
}

func (q *timerQueue) Push(x any) {
	t := x.(*timer)
	t.index = len(*q)
	*q = append(*q, t)
}

func (q *timerQueue) Pop() any {
	old := *q
	n := len(old)
	t := old[n-1]
	old[n-1] = nil
	t.index = -1
	*q = old[:n-1]
	return t
}
