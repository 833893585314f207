package sched

import (
	"fmt"
	"math"
)

// Fixed term weights of the signal-weighted score. They sum to 1 so the
// composite stays in [0, 1].
const (
	signalWeight   = 0.5
	priorityWeight = 0.3
	loadWeight     = 0.2
)

// SignalWeightedPicker scores every ready process from the advisory signal,
// its priority rank and the headroom left on the cores:
//
//	score = 0.5*signal + 0.3*priorityRank + 0.2*(1 - load)
//
// Signal values are untrusted input and are clamped to [0, 1] before use.
// Ties break by first occurrence in queue-iteration order.
type SignalWeightedPicker struct{}

func (sw *SignalWeightedPicker) Name() Policy { return PolicySignalWeighted }

// Pick implements Picker for SignalWeightedPicker.
func (sw *SignalWeightedPicker) Pick(v *PickView) (Selection, bool) {
	headroom := 1 - v.State.CPUUtilization
	scores := make(map[ProcessID]float64)
	var best *Process
	bestScore := math.Inf(-1)
	secondScore := math.Inf(-1)
	bestSignal := 0.0

	v.ready(func(p *Process) {
		signal := clamp01(v.Signals.ProcessSignal(p.ID))
		score := signalWeight*signal + priorityWeight*p.Priority.Rank() + loadWeight*headroom
		scores[p.ID] = score
		switch {
		case score > bestScore:
			secondScore = bestScore
			best = p
			bestScore = score
			bestSignal = signal
		case score > secondScore:
			secondScore = score
		}
	})
	if best == nil {
		return Selection{}, false
	}
	return Selection{
		Process:    best.ID,
		Policy:     PolicySignalWeighted,
		Rationale:  fmt.Sprintf("signal-weighted (score=%.3f, signal=%.2f)", bestScore, bestSignal),
		Confidence: marginConfidence(bestScore, secondScore, len(scores)),
		Scores:     scores,
	}, true
}
