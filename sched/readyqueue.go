package sched

import "fmt"

// ReadyQueues holds runnable processes grouped by priority class. Each class
// queue preserves insertion order; the fixed iteration order is Realtime,
// High, Normal, Low. Only Ready processes appear here: dispatch removes the
// chosen process and preemption re-enqueues it at the tail.
//
// Thread-safety: NOT thread-safe. The owning scheduler serializes access.
type ReadyQueues struct {
	queues [numPriorityClasses][]ProcessID
	size   int
}

func NewReadyQueues() *ReadyQueues {
	return &ReadyQueues{}
}

// Enqueue appends pid at the tail of its class queue.
// Failure modes: panics on the zero pid or an invalid class (misuse).
func (q *ReadyQueues) Enqueue(class PriorityClass, pid ProcessID) {
	if pid == 0 {
		panic("ReadyQueues.Enqueue: zero pid")
	}
	if class < 0 || class >= numPriorityClasses {
		panic(fmt.Sprintf("ReadyQueues.Enqueue: invalid priority class %d", class))
	}
	q.queues[class] = append(q.queues[class], pid)
	q.size++
}

// Dequeue pops the head of the given class queue.
func (q *ReadyQueues) Dequeue(class PriorityClass) (ProcessID, bool) {
	if len(q.queues[class]) == 0 {
		return 0, false
	}
	pid := q.queues[class][0]
	q.queues[class] = q.queues[class][1:]
	q.size--
	return pid, true
}

// Head returns the head of the given class queue without removing it.
func (q *ReadyQueues) Head(class PriorityClass) (ProcessID, bool) {
	if len(q.queues[class]) == 0 {
		return 0, false
	}
	return q.queues[class][0], true
}

// Remove deletes pid from whichever class queue holds it. Returns false if
// pid is not queued.
func (q *ReadyQueues) Remove(pid ProcessID) bool {
	for class := range q.queues {
		for i, queued := range q.queues[class] {
			if queued == pid {
				q.queues[class] = append(q.queues[class][:i], q.queues[class][i+1:]...)
				q.size--
				return true
			}
		}
	}
	return false
}

// Contains reports whether pid sits in any class queue.
func (q *ReadyQueues) Contains(pid ProcessID) bool {
	for class := range q.queues {
		for _, queued := range q.queues[class] {
			if queued == pid {
				return true
			}
		}
	}
	return false
}

// Class returns a read-only view of one class queue in insertion order.
// Callers must not mutate the returned slice.
func (q *ReadyQueues) Class(class PriorityClass) []ProcessID {
	return q.queues[class]
}

// Len reports the total number of queued processes across all classes.
func (q *ReadyQueues) Len() int { return q.size }

// Empty reports whether no process is queued.
func (q *ReadyQueues) Empty() bool { return q.size == 0 }
