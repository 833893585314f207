package sched

import "container/heap"

// wakeup is one pending timed transition from Blocked back to Ready.
type wakeup struct {
	tick int64
	seq  uint64 // insertion order, deterministic tie-breaker
	pid  ProcessID
}

// timerHeap orders pending wakeups by tick, then insertion order. Wakeups
// for processes that were terminated or unblocked early are dropped lazily
// when they fire.
type timerHeap struct {
	entries []wakeup
	nextSeq uint64
}

func newTimerHeap() *timerHeap {
	h := &timerHeap{entries: make([]wakeup, 0)}
	heap.Init(h)
	return h
}

// Len implements heap.Interface.
func (h *timerHeap) Len() int { return len(h.entries) }

// Less implements heap.Interface with deterministic ordering:
// wake tick, then insertion sequence.
func (h *timerHeap) Less(i, j int) bool {
	if h.entries[i].tick != h.entries[j].tick {
		return h.entries[i].tick < h.entries[j].tick
	}
	return h.entries[i].seq < h.entries[j].seq
}

// Swap implements heap.Interface.
func (h *timerHeap) Swap(i, j int) {
	h.entries[i], h.entries[j] = h.entries[j], h.entries[i]
}

// Push implements heap.Interface.
func (h *timerHeap) Push(x interface{}) {
	h.entries = append(h.entries, x.(wakeup))
}

// Pop implements heap.Interface.
func (h *timerHeap) Pop() interface{} {
	old := h.entries
	n := len(old)
	item := old[n-1]
	h.entries = old[0 : n-1]
	return item
}

// Schedule registers a wakeup for pid at the given tick.
func (h *timerHeap) Schedule(tick int64, pid ProcessID) {
	h.nextSeq++
	heap.Push(h, wakeup{tick: tick, seq: h.nextSeq, pid: pid})
}

// PopDue removes and returns the next wakeup at or before now.
// Returns false when nothing is due.
func (h *timerHeap) PopDue(now int64) (wakeup, bool) {
	if h.Len() == 0 || h.entries[0].tick > now {
		return wakeup{}, false
	}
	return heap.Pop(h).(wakeup), true
}
