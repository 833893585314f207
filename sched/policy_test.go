package sched

import (
	"strings"
	"testing"
)

// pickFixture assembles a table, queues and feeds the way the engine would
// present them to a picker.
type pickFixture struct {
	table       *Table
	queues      *ReadyQueues
	state       SystemState
	predictions PredictionSource
	signals     SignalSource
	seq         int64
}

func newPickFixture() *pickFixture {
	return &pickFixture{
		table:       NewTable(64),
		queues:      NewReadyQueues(),
		predictions: noPredictions{},
		signals:     noSignal{},
	}
}

// add tables a Ready process and enqueues it, stamping insertion order.
func (f *pickFixture) add(t *testing.T, name string, prio PriorityClass) *Process {
	t.Helper()
	p := &Process{Name: name, State: StateReady, Priority: prio}
	if _, err := f.table.Insert(p); err != nil {
		t.Fatalf("Insert %q: %v", name, err)
	}
	f.enqueue(p)
	return p
}

// enqueue re-stamps p and appends it at the tail of its class queue, the
// same motion the engine performs on preemption.
func (f *pickFixture) enqueue(p *Process) {
	f.seq++
	p.enqueueSeq = f.seq
	f.queues.Enqueue(p.Priority, p.ID)
}

func (f *pickFixture) view() *PickView {
	return &PickView{
		Queues:      f.queues,
		Table:       f.table,
		State:       f.state,
		Predictions: f.predictions,
		Signals:     f.signals,
	}
}

func TestNewPicker_ByName(t *testing.T) {
	for _, name := range Policies() {
		p := NewPicker(name, PolicyBundle{})
		if p.Name() != name {
			t.Errorf("NewPicker(%q).Name() = %q", name, p.Name())
		}
	}
	if got := NewPicker("", PolicyBundle{}).Name(); got != PolicyRoundRobin {
		t.Errorf("empty name built %q, want %q", got, PolicyRoundRobin)
	}
}

func TestNewPicker_UnknownNamePanics(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Error("NewPicker with unknown name did not panic")
		}
	}()
	NewPicker("lottery", PolicyBundle{})
}

func TestRoundRobin_PicksGlobalOldest(t *testing.T) {
	// GIVEN a low-priority process enqueued before a realtime one
	f := newPickFixture()
	old := f.add(t, "old-low", PriorityLow)
	f.add(t, "young-rt", PriorityRealtime)

	// WHEN round-robin picks
	sel, ok := (&RoundRobinPicker{}).Pick(f.view())

	// THEN insertion age wins, not class order
	if !ok {
		t.Fatal("Pick returned no selection")
	}
	if sel.Process != old.ID {
		t.Errorf("picked %d, want oldest %d", sel.Process, old.ID)
	}
	if sel.Confidence != 1.0 {
		t.Errorf("confidence = %v, want 1.0", sel.Confidence)
	}
}

func TestRoundRobin_EachProcessWithinNDecisions(t *testing.T) {
	f := newPickFixture()
	var procs []*Process
	for _, name := range []string{"a", "b", "c", "d"} {
		procs = append(procs, f.add(t, name, PriorityNormal))
	}

	rr := &RoundRobinPicker{}
	picked := make(map[ProcessID]int)
	for round := 0; round < len(procs); round++ {
		sel, ok := rr.Pick(f.view())
		if !ok {
			t.Fatalf("round %d: no selection", round)
		}
		picked[sel.Process]++
		// Engine motion: dispatch removes, preemption re-enqueues at tail.
		p, err := f.table.Lookup(sel.Process)
		if err != nil {
			t.Fatalf("round %d: %v", round, err)
		}
		f.queues.Remove(p.ID)
		f.enqueue(p)
	}

	for _, p := range procs {
		if picked[p.ID] != 1 {
			t.Errorf("process %q picked %d times in %d decisions, want exactly once",
				p.Name, picked[p.ID], len(procs))
		}
	}
}

func TestPriority_StrictClassOrder(t *testing.T) {
	f := newPickFixture()
	f.add(t, "low", PriorityLow)
	norm := f.add(t, "norm", PriorityNormal)
	rt := f.add(t, "rt", PriorityRealtime)

	pp := &PriorityPicker{}
	sel, ok := pp.Pick(f.view())
	if !ok || sel.Process != rt.ID {
		t.Fatalf("picked %d, want realtime %d", sel.Process, rt.ID)
	}
	if !strings.Contains(sel.Rationale, "realtime") {
		t.Errorf("rationale %q does not name the class", sel.Rationale)
	}

	f.queues.Remove(rt.ID)
	sel, ok = pp.Pick(f.view())
	if !ok || sel.Process != norm.ID {
		t.Errorf("after realtime drained picked %d, want normal %d", sel.Process, norm.ID)
	}
}

func TestPriority_NeverYieldsWhileRealtimeReady(t *testing.T) {
	f := newPickFixture()
	rt := f.add(t, "rt", PriorityRealtime)
	f.add(t, "norm", PriorityNormal)
	f.add(t, "low", PriorityLow)

	pp := &PriorityPicker{}
	for i := 0; i < 50; i++ {
		sel, ok := pp.Pick(f.view())
		if !ok {
			t.Fatal("no selection")
		}
		if sel.Process != rt.ID {
			t.Fatalf("iteration %d picked %d while realtime %d ready", i, sel.Process, rt.ID)
		}
		f.queues.Remove(rt.ID)
		f.enqueue(rt)
	}
}

func TestPickers_EmptyQueuesPickNothing(t *testing.T) {
	f := newPickFixture()
	for _, name := range Policies() {
		if _, ok := NewPicker(name, PolicyBundle{}).Pick(f.view()); ok {
			t.Errorf("%s picked from empty queues", name)
		}
	}
}

func TestMarginConfidence(t *testing.T) {
	tests := []struct {
		name       string
		best       float64
		second     float64
		candidates int
		want       float64
	}{
		{"sole candidate", 120, 0, 1, 1.0},
		{"dead heat", 80, 80, 2, 0.5},
		{"comfortable margin", 100, 10, 3, 0.95},
		{"runaway margin clamps", 100, -150, 3, 1.0},
		{"negative scores tie", -10, -10, 2, 0.5},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := marginConfidence(tt.best, tt.second, tt.candidates)
			if got < tt.want-1e-9 || got > tt.want+1e-9 {
				t.Errorf("marginConfidence(%v, %v, %d) = %v, want %v",
					tt.best, tt.second, tt.candidates, got, tt.want)
			}
		})
	}
}
