// Defines the Process descriptor that models one schedulable unit, its
// lifecycle states, workload classes and priority classes.

package sched

import (
	"github.com/coresched/coresched/sched/cpu"
	"github.com/coresched/coresched/sched/sandbox"
)

// ProcessID is the stable handle to a process table entry. It packs the
// arena slot index (low 32 bits) and a generation counter (high 32 bits), so
// a handle kept across termination and slot reuse fails lookup instead of
// reaching a different process. Zero is never a valid id.
type ProcessID uint64

func makePID(slot, gen uint32) ProcessID {
	return ProcessID(uint64(gen)<<32 | uint64(slot))
}

func (id ProcessID) slot() uint32 { return uint32(id) }

func (id ProcessID) generation() uint32 { return uint32(id >> 32) }

// State represents the lifecycle state of a process.
type State string

const (
	StateReady      State = "ready"
	StateRunning    State = "running"
	StateBlocked    State = "blocked"
	StateSandboxed  State = "sandboxed"
	StateTerminated State = "terminated"
	StateDebug      State = "debug"
)

// BlockReason records why a blocked process is waiting.
type BlockReason string

// BlockSleep marks a process parked by Sleep until a timer wakeup.
const BlockSleep BlockReason = "sleep"

// Class is the workload classification of a process. The usage-derived
// classes are recomputed from recent samples; ClassRealTime and
// ClassSignalSensitive are admission-declared and sticky.
type Class string

const (
	ClassCPUBound        Class = "cpu-bound"
	ClassIOBound         Class = "io-bound"
	ClassInteractive     Class = "interactive"
	ClassBatch           Class = "batch"
	ClassRealTime        Class = "real-time"
	ClassSignalSensitive Class = "signal-sensitive"
	ClassMixed           Class = "mixed"
	ClassUnknown         Class = "unknown"
)

// validClasses maps accepted admission-declared class names.
var validClasses = map[Class]bool{
	ClassCPUBound:        true,
	ClassIOBound:         true,
	ClassInteractive:     true,
	ClassBatch:           true,
	ClassRealTime:        true,
	ClassSignalSensitive: true,
	ClassMixed:           true,
	ClassUnknown:         true,
	"":                   true, // empty defaults to unknown
}

// IsValidClass returns true if the given class string is a recognized
// workload class.
func IsValidClass(class string) bool {
	return validClasses[Class(class)]
}

// PriorityClass orders the ready queues. Lower value means higher priority;
// the queue iteration order is Realtime, High, Normal, Low.
type PriorityClass int

const (
	PriorityRealtime PriorityClass = iota
	PriorityHigh
	PriorityNormal
	PriorityLow
	numPriorityClasses
)

var priorityNames = [numPriorityClasses]string{"realtime", "high", "normal", "low"}

func (pc PriorityClass) String() string {
	if pc < 0 || pc >= numPriorityClasses {
		return "invalid"
	}
	return priorityNames[pc]
}

// Rank normalizes a priority class into [0, 1]: Realtime 1.0, Low 0.0.
// Used by the signal-weighted scorer.
func (pc PriorityClass) Rank() float64 {
	if pc < 0 || pc >= numPriorityClasses {
		return 0
	}
	return 1.0 - float64(pc)/float64(numPriorityClasses-1)
}

// PriorityClasses lists all classes in queue iteration order.
func PriorityClasses() []PriorityClass {
	return []PriorityClass{PriorityRealtime, PriorityHigh, PriorityNormal, PriorityLow}
}

// ExitCause distinguishes how a process reached Terminated.
type ExitCause string

const (
	ExitNormal           ExitCause = "normal"
	ExitSandboxTimeout   ExitCause = "sandbox-timeout"
	ExitSandboxViolation ExitCause = "sandbox-violation"
)

// ExitStatus is the terminal outcome of a process.
type ExitStatus struct {
	Code  int
	Cause ExitCause
}

// Image describes the executable a process is spawned from. StackSize zero
// picks the default stack; Privileged is required to declare ClassRealTime.
type Image struct {
	Name       string
	Entry      uint64
	StackSize  int64
	Class      Class
	Privileged bool
}

// Stats is the runtime accounting block of one process.
type Stats struct {
	CPUTicks  int64 // ticks spent running on a core
	WallTicks int64 // ticks since admission
	Switches  int64 // times switched onto a core
	VRuntime  int64 // fair-share virtual runtime, credited at deschedule
}

// Process is one schedulable unit tracked by the process table.
//
// The scheduler's lock guards every field except Context, which is written
// only by the core performing a switch with its interrupts masked. Context
// and the address space are exclusively owned: Context is valid only while
// the process is off-core, and the address space is released exactly once,
// at termination.
type Process struct {
	ID   ProcessID
	Name string
	Args []string

	State       State // Ready/Running/Blocked/Terminated/Debug; Sandboxed is derived
	BlockedOn   BlockReason
	Exit        ExitStatus
	Class       Class
	Priority    PriorityClass
	HasAffinity bool
	Affinity    cpu.CoreID
	Core        cpu.CoreID // core currently running on; valid only when Running

	Context cpu.Context
	Space   *cpu.AddressSpace
	Sandbox *sandbox.Profile

	Stats   Stats
	samples *sampleRing

	admittedTick     int64
	terminatedTick   int64
	lastDispatchTick int64
	enqueueSeq       int64 // stamped on every ready-queue insertion
	debugReturn      State // state to restore when leaving Debug
}

// ReportedState folds the sandbox overlay into the externally visible state:
// a sandboxed process reports Sandboxed while its scheduling phase cycles
// Ready/Running/Blocked underneath.
func (p *Process) ReportedState() State {
	if p.Sandbox != nil {
		switch p.State {
		case StateReady, StateRunning, StateBlocked:
			return StateSandboxed
		}
	}
	return p.State
}

// Phase returns the scheduling sub-state underneath the Sandboxed overlay.
// For non-sandboxed processes it equals the state itself.
func (p *Process) Phase() State { return p.State }

// Live reports whether the process still owns resources.
func (p *Process) Live() bool { return p.State != StateTerminated }
