package sched

import (
	"github.com/coresched/coresched/sched/cpu"
	"github.com/coresched/coresched/sched/trace"
)

// lastDecisionsInReport bounds the decision tail included in a Report.
const lastDecisionsInReport = 32

// ProcessInfo is a point-in-time copy of one descriptor for reporting.
type ProcessInfo struct {
	ID        ProcessID
	Name      string
	State     State // externally visible state, sandbox overlay applied
	Phase     State // scheduling sub-state underneath the overlay
	Class     Class
	Priority  PriorityClass
	Core      cpu.CoreID // valid when Phase is running
	Sandboxed bool
	Exit      ExitStatus // valid when terminated
	Stats     Stats
}

// Report is a consistent snapshot of the engine: every tracked process in
// table order, the recent decision tail (oldest first), counters and the
// per-core load vector.
type Report struct {
	Tick       int64
	Policy     Policy
	LastPolicy Policy // effective policy of the latest dispatch
	Processes  []ProcessInfo
	Decisions  []trace.Record
	Metrics    Metrics
	CoreLoads  []float64
	Running    []ProcessID // per-core occupant, zero when idle
}

// Report snapshots the scheduler under the read lock. The returned value
// shares nothing with live engine state.
func (s *Scheduler) Report() Report {
	s.mu.RLock()
	defer s.mu.RUnlock()

	procs := make([]ProcessInfo, 0, s.table.Live())
	s.table.Each(func(p *Process) {
		procs = append(procs, ProcessInfo{
			ID:        p.ID,
			Name:      p.Name,
			State:     p.ReportedState(),
			Phase:     p.Phase(),
			Class:     p.Class,
			Priority:  p.Priority,
			Core:      p.Core,
			Sandboxed: p.Sandbox != nil,
			Exit:      p.Exit,
			Stats:     p.Stats,
		})
	})

	running := make([]ProcessID, len(s.running))
	copy(running, s.running)

	return Report{
		Tick:       s.tick,
		Policy:     s.picker.Name(),
		LastPolicy: s.lastPolicy,
		Processes:  procs,
		Decisions:  s.history.Last(lastDecisionsInReport),
		Metrics:    s.metrics,
		CoreLoads:  s.cores.Loads(),
		Running:    running,
	}
}

// Process returns the reporting view of a single process.
func (s *Scheduler) Process(pid ProcessID) (ProcessInfo, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, err := s.table.Lookup(pid)
	if err != nil {
		return ProcessInfo{}, err
	}
	return ProcessInfo{
		ID:        p.ID,
		Name:      p.Name,
		State:     p.ReportedState(),
		Phase:     p.Phase(),
		Class:     p.Class,
		Priority:  p.Priority,
		Core:      p.Core,
		Sandboxed: p.Sandbox != nil,
		Exit:      p.Exit,
		Stats:     p.Stats,
	}, nil
}

// Summary aggregates the retained decision history.
func (s *Scheduler) Summary() *trace.Summary {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return trace.Summarize(s.history)
}

// MetricsSnapshot returns a copy of the counters.
func (s *Scheduler) MetricsSnapshot() Metrics {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.metrics
}

// PrintMetrics writes the counter block to stdout.
func (s *Scheduler) PrintMetrics() {
	s.mu.RLock()
	m := s.metrics
	tick := s.tick
	s.mu.RUnlock()
	m.Print(tick)
}
