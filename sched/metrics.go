package sched

import "fmt"

// Metrics accumulates scheduler-wide counters. All updates happen under the
// engine lock; Snapshot copies are handed out by Report.
type Metrics struct {
	Spawned           uint64
	Terminated        uint64
	SandboxTimeouts   uint64
	SandboxViolations uint64
	ContextSwitches   uint64
	Preemptions       uint64
	Decisions         uint64
	IdleDecisions     uint64 // ticks where no eligible core or no pick
	Wakeups           uint64
	Reclassifications uint64
	Reaped            uint64
}

// Print writes a human-readable metrics block to stdout.
func (m *Metrics) Print(tick int64) {
	fmt.Println("=== Scheduler Metrics ===")
	fmt.Printf("Ticks                : %d\n", tick)
	fmt.Printf("Spawned Processes    : %d\n", m.Spawned)
	fmt.Printf("Terminated Processes : %d\n", m.Terminated)
	fmt.Printf("Sandbox Timeouts     : %d\n", m.SandboxTimeouts)
	fmt.Printf("Sandbox Violations   : %d\n", m.SandboxViolations)
	fmt.Printf("Context Switches     : %d\n", m.ContextSwitches)
	fmt.Printf("Preemptions          : %d\n", m.Preemptions)
	fmt.Printf("Decisions            : %d\n", m.Decisions)
	fmt.Printf("Idle Decisions       : %d\n", m.IdleDecisions)
	if m.Decisions > 0 {
		fmt.Printf("Switches/Decision    : %.2f\n", float64(m.ContextSwitches)/float64(m.Decisions))
	}
	fmt.Printf("Timer Wakeups        : %d\n", m.Wakeups)
	fmt.Printf("Reclassifications    : %d\n", m.Reclassifications)
	fmt.Printf("Reaped Descriptors   : %d\n", m.Reaped)
}
