package sched

import "fmt"

// tableSlot is one arena cell. gen increments on every free so stale handles
// miss; proc is nil while the slot is on the free list.
type tableSlot struct {
	gen  uint32
	proc *Process
}

// Table is the arena-allocated process registry. Descriptors live in a
// fixed-capacity slot array; ProcessIDs are checked handles (slot index plus
// generation) so lookups after slot reuse fail with ErrProcessNotFound
// instead of returning a different process.
//
// Thread-safety: NOT thread-safe. The owning scheduler serializes access.
type Table struct {
	slots []tableSlot
	free  []uint32
	live  int
}

// NewTable creates a table holding at most capacity processes.
// Failure modes: panics if capacity is not positive (misuse).
func NewTable(capacity int) *Table {
	if capacity <= 0 {
		panic(fmt.Sprintf("NewTable: capacity must be positive, got %d", capacity))
	}
	t := &Table{
		slots: make([]tableSlot, capacity),
		free:  make([]uint32, 0, capacity),
	}
	// Generation starts at 1 so the zero ProcessID is never issued.
	for i := capacity - 1; i >= 0; i-- {
		t.slots[i].gen = 1
		t.free = append(t.free, uint32(i))
	}
	return t
}

// Insert places a descriptor into a free slot and stamps its ID.
// Returns ErrResourceLimitExceeded when the arena is full.
func (t *Table) Insert(p *Process) (ProcessID, error) {
	if len(t.free) == 0 {
		return 0, fmt.Errorf("%w: process table full (%d entries)", ErrResourceLimitExceeded, len(t.slots))
	}
	idx := t.free[len(t.free)-1]
	t.free = t.free[:len(t.free)-1]

	slot := &t.slots[idx]
	slot.proc = p
	p.ID = makePID(idx, slot.gen)
	t.live++
	return p.ID, nil
}

// Lookup resolves a handle, validating slot bounds and generation.
func (t *Table) Lookup(id ProcessID) (*Process, error) {
	idx := id.slot()
	if int(idx) >= len(t.slots) {
		return nil, fmt.Errorf("%w: pid %d", ErrProcessNotFound, id)
	}
	slot := &t.slots[idx]
	if slot.proc == nil || slot.gen != id.generation() {
		return nil, fmt.Errorf("%w: pid %d", ErrProcessNotFound, id)
	}
	return slot.proc, nil
}

// Remove frees the slot behind a handle, bumping its generation so the
// handle (and any copies of it) go stale.
func (t *Table) Remove(id ProcessID) error {
	if _, err := t.Lookup(id); err != nil {
		return err
	}
	idx := id.slot()
	slot := &t.slots[idx]
	slot.proc = nil
	slot.gen++
	if slot.gen == 0 { // wrapped; keep zero id unissuable
		slot.gen = 1
	}
	t.free = append(t.free, idx)
	t.live--
	return nil
}

// Live reports the number of occupied slots.
func (t *Table) Live() int { return t.live }

// Capacity reports the arena size.
func (t *Table) Capacity() int { return len(t.slots) }

// Each calls fn for every occupied slot in slot order. fn must not insert or
// remove entries; collect ids first for structural changes.
func (t *Table) Each(fn func(*Process)) {
	for i := range t.slots {
		if t.slots[i].proc != nil {
			fn(t.slots[i].proc)
		}
	}
}
