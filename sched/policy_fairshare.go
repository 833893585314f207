package sched

import "fmt"

// FairSharePicker selects the ready process with the smallest virtual
// runtime. The engine credits each process's counter with its consumed time
// slice when it comes off a core, so over time every continuously ready
// process converges to within one slice of the others.
//
// Ties break toward waiters over the expired incumbent (whose current slice
// is not credited yet), then toward the lower pid for determinism.
type FairSharePicker struct{}

func (fs *FairSharePicker) Name() Policy { return PolicyFairShare }

// fairShareBefore reports whether p should run ahead of q.
func fairShareBefore(p, q *Process) bool {
	if p.Stats.VRuntime != q.Stats.VRuntime {
		return p.Stats.VRuntime < q.Stats.VRuntime
	}
	if onCore, qOnCore := p.State == StateRunning, q.State == StateRunning; onCore != qOnCore {
		return !onCore
	}
	return p.ID < q.ID
}

// Pick implements Picker for FairSharePicker.
func (fs *FairSharePicker) Pick(v *PickView) (Selection, bool) {
	var best *Process
	v.ready(func(p *Process) {
		if best == nil || fairShareBefore(p, best) {
			best = p
		}
	})
	if best == nil {
		return Selection{}, false
	}
	return Selection{
		Process:    best.ID,
		Policy:     PolicyFairShare,
		Rationale:  fmt.Sprintf("fair-share (vruntime=%d)", best.Stats.VRuntime),
		Confidence: 1.0,
	}, true
}
