package engine

import (
	"container/heap"
	"time"
)

type timer struct {
	due time.Duration
	seq uint64
	fn  func(*World)
}

// timerQueue is a min-heap ordered by due time, then by scheduling order.
type timerQueue []timer

var _ heap.Interface = (*timerQueue)(nil)

func (q timerQueue) Len() int { return len(q) }

func (q timerQueue) Less(i, j int) bool {
	if q[i].due != q[j].due {
		return q[i].due < q[j].due
	}
	return q[i].seq < q[j].seq
}

func (q timerQueue) Swap(i, j int) { q[i], q[j] = q[j], q[i] }

func (q *timerQueue) Push(x any) {
	*q = append(*q, x.(timer)) //nolint:errcheck,forcetypeassert // only timers are pushed
}

func (q *timerQueue) Pop() any {
	old := *q
	n := len(old)
	t := old[n-1]
	old[n-1] = timer{}
	*q = old[:n-1]
	return t
}

// AddTimer schedules fn to run during the first tick whose clock reaches now+delay. Timers can't be
// cancelled. An entity captured by fn may be destroyed, and its index recycled, before fn runs, so
// fn must check IsValid and component presence before touching it.
func (w *World) AddTimer(delay time.Duration, fn func(*World)) {
	w.timerSeq++
	heap.Push(&w.timers, timer{due: w.now + max(delay, 0), seq: w.timerSeq, fn: fn})
}

// PendingTimers returns the number of timers that haven't fired yet.
func (w *World) PendingTimers() int {
	return w.timers.Len()
}

// fireTimers runs every due timer. Timers scheduled by a firing timer run in the same pass if they
// are already due.
func (w *World) fireTimers() {
	for w.timers.Len() > 0 && w.timers[0].due <= w.now {
		t := heap.Pop(&w.timers).(timer) //nolint:errcheck,forcetypeassert // see Push
		t.fn(w)
	}
}
