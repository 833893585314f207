package sched

import "fmt"

// Policy names a scheduling policy. The set is closed: policies are selected
// by name, never registered at runtime.
type Policy string

const (
	PolicyRoundRobin     Policy = "round-robin"
	PolicyPriority       Policy = "priority"
	PolicyFairShare      Policy = "fair-share"
	PolicyPredictive     Policy = "predictive"
	PolicySignalWeighted Policy = "signal-weighted"
	PolicyAdaptive       Policy = "adaptive"
)

// validPolicies maps accepted policy names.
var validPolicies = map[Policy]bool{
	PolicyRoundRobin:     true,
	PolicyPriority:       true,
	PolicyFairShare:      true,
	PolicyPredictive:     true,
	PolicySignalWeighted: true,
	PolicyAdaptive:       true,
	"":                   true, // empty defaults to round-robin
}

// IsValidPolicy returns true if the given name is a recognized policy.
func IsValidPolicy(name string) bool {
	return validPolicies[Policy(name)]
}

// Policies lists the selectable policy names in a stable order.
func Policies() []Policy {
	return []Policy{
		PolicyRoundRobin,
		PolicyPriority,
		PolicyFairShare,
		PolicyPredictive,
		PolicySignalWeighted,
		PolicyAdaptive,
	}
}

// PickView is the read-only state a picker consults: the ready queues, the
// process table, the per-tick system snapshot and the advisory feeds.
// Pickers never mutate any of it; requeue side effects belong to the engine.
type PickView struct {
	Queues      *ReadyQueues
	Table       *Table
	State       SystemState
	Predictions PredictionSource
	Signals     SignalSource
}

// proc resolves a queued pid. Queues and table mutate under the same lock,
// so a queued pid always resolves; a miss is an engine bug.
func (v *PickView) proc(pid ProcessID) *Process {
	p, err := v.Table.Lookup(pid)
	if err != nil {
		panic(fmt.Sprintf("PickView: queued pid %d not in table", pid))
	}
	return p
}

// ready calls fn for every queued process in queue-iteration order
// (Realtime, High, Normal, Low; insertion order within a class).
func (v *PickView) ready(fn func(*Process)) {
	for _, class := range PriorityClasses() {
		for _, pid := range v.Queues.Class(class) {
			fn(v.proc(pid))
		}
	}
}

// Selection is the outcome of one policy invocation. Policy names the
// concrete policy that produced the pick; under adaptive delegation it names
// the delegate.
type Selection struct {
	Process    ProcessID
	Policy     Policy
	Rationale  string
	Confidence float64
	Scores     map[ProcessID]float64 // candidate → score (nil for non-scoring policies)
}

// Picker chooses the next process to run from the ready queues.
// Pick returns false when no ready process qualifies; the target core idles
// and that is not an error.
type Picker interface {
	Name() Policy
	Pick(v *PickView) (Selection, bool)
}

// NewPicker creates a picker by name. Empty name defaults to round-robin.
// Tunables (predictive coefficient, adaptive thresholds) come from the
// bundle; non-tunable policies ignore it.
// Panics on unrecognized names.
func NewPicker(name Policy, bundle PolicyBundle) Picker {
	if !IsValidPolicy(string(name)) {
		panic(fmt.Sprintf("unknown scheduling policy %q", name))
	}
	switch name {
	case "", PolicyRoundRobin:
		return &RoundRobinPicker{}
	case PolicyPriority:
		return &PriorityPicker{}
	case PolicyFairShare:
		return &FairSharePicker{}
	case PolicyPredictive:
		return &PredictivePicker{k: bundle.predictiveK()}
	case PolicySignalWeighted:
		return &SignalWeightedPicker{}
	case PolicyAdaptive:
		return newAdaptivePicker(bundle)
	default:
		panic(fmt.Sprintf("unhandled scheduling policy %q", name))
	}
}

// RoundRobinPicker selects the ready process whose last queue insertion is
// oldest, i.e. the head of a single logical FIFO laid across the class
// queues. Dispatch re-enqueues preempted processes at the tail, which yields
// the rotation: with N ready processes and no arrivals, each is selected
// once within any N consecutive decisions.
type RoundRobinPicker struct{}

func (rr *RoundRobinPicker) Name() Policy { return PolicyRoundRobin }

// Pick implements Picker for RoundRobinPicker. Only class heads need
// scanning: within a class, the head carries the oldest insertion.
func (rr *RoundRobinPicker) Pick(v *PickView) (Selection, bool) {
	var best *Process
	for _, class := range PriorityClasses() {
		pid, ok := v.Queues.Head(class)
		if !ok {
			continue
		}
		p := v.proc(pid)
		if best == nil || p.enqueueSeq < best.enqueueSeq {
			best = p
		}
	}
	if best == nil {
		return Selection{}, false
	}
	return Selection{
		Process:    best.ID,
		Policy:     PolicyRoundRobin,
		Rationale:  fmt.Sprintf("round-robin (oldest ready, class=%s)", best.Priority),
		Confidence: 1.0,
	}, true
}

// PriorityPicker selects the head of the first non-empty queue in strict
// class order. A saturated Realtime queue starves lower classes: this policy
// carries no starvation protection.
type PriorityPicker struct{}

func (pp *PriorityPicker) Name() Policy { return PolicyPriority }

// Pick implements Picker for PriorityPicker.
func (pp *PriorityPicker) Pick(v *PickView) (Selection, bool) {
	for _, class := range PriorityClasses() {
		pid, ok := v.Queues.Head(class)
		if !ok {
			continue
		}
		return Selection{
			Process:    pid,
			Policy:     PolicyPriority,
			Rationale:  fmt.Sprintf("priority (head of %s queue)", class),
			Confidence: 1.0,
		}, true
	}
	return Selection{}, false
}

// marginConfidence derives a confidence in [0, 1] from the gap between the
// best and runner-up scores of a scoring policy. A sole candidate scores
// full confidence; a dead heat scores 0.5.
func marginConfidence(best, second float64, candidates int) float64 {
	if candidates <= 1 {
		return 1.0
	}
	denom := best
	if denom < 0 {
		denom = -denom
	}
	if denom < 1e-9 {
		denom = 1e-9
	}
	return clamp01(0.5 + (best-second)/(2*denom))
}
