package trace

import "fmt"

// DefaultCapacity bounds the decision history when the caller does not pick one.
const DefaultCapacity = 1024

// Log collects scheduling decisions in a fixed-capacity ring. When the ring
// is full the oldest record is evicted, so memory stays bounded no matter how
// long the scheduler runs.
//
// Thread-safety: NOT thread-safe. The owning scheduler serializes appends.
type Log struct {
	capacity int
	records  []Record
	start    int
	total    uint64
}

// NewLog creates a decision log retaining at most capacity records.
// Failure modes: panics if capacity is not positive (misuse).
func NewLog(capacity int) *Log {
	if capacity <= 0 {
		panic(fmt.Sprintf("NewLog: capacity must be positive, got %d", capacity))
	}
	return &Log{
		capacity: capacity,
		records:  make([]Record, 0, capacity),
	}
}

// Append records one decision, evicting the oldest when full.
func (l *Log) Append(r Record) {
	if len(l.records) < l.capacity {
		l.records = append(l.records, r)
	} else {
		l.records[l.start] = r
		l.start = (l.start + 1) % l.capacity
	}
	l.total++
}

// Len reports how many records are currently retained.
func (l *Log) Len() int { return len(l.records) }

// Total reports how many records were ever appended, including evicted ones.
func (l *Log) Total() uint64 { return l.total }

// Snapshot returns the retained records in append order, oldest first.
func (l *Log) Snapshot() []Record {
	out := make([]Record, 0, len(l.records))
	for i := 0; i < len(l.records); i++ {
		out = append(out, l.records[(l.start+i)%len(l.records)])
	}
	return out
}

// Last returns the most recent n records, oldest first. If fewer than n are
// retained, all of them are returned.
func (l *Log) Last(n int) []Record {
	snap := l.Snapshot()
	if n >= len(snap) {
		return snap
	}
	return snap[len(snap)-n:]
}
