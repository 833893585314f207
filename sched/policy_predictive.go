package sched

import (
	"fmt"
	"math"
)

// PredictivePicker scores ready processes by their performance forecast and
// selects the cheapest expected candidate:
//
//	score = (100 - predCPU) + (100 - predMem) + k * (1000 / predExecTicks)
//
// Processes without a prediction are skipped and are never selected by this
// policy alone; with no predicted candidate at all the pick is empty and the
// core idles. Ties break by first occurrence in queue-iteration order.
type PredictivePicker struct {
	k float64 // weight of the short-job term
}

func (pp *PredictivePicker) Name() Policy { return PolicyPredictive }

// Pick implements Picker for PredictivePicker.
func (pp *PredictivePicker) Pick(v *PickView) (Selection, bool) {
	scores := make(map[ProcessID]float64)
	var best *Process
	bestScore := math.Inf(-1)
	secondScore := math.Inf(-1)
	var bestEst int64

	v.ready(func(p *Process) {
		pred, ok := v.Predictions.Predict(p.ID)
		if !ok {
			return
		}
		est := pred.ExecTicks
		if est < 1 {
			est = 1 // guards the division for degenerate forecasts
		}
		score := (100 - pred.CPU) + (100 - pred.Memory) + pp.k*(1000/float64(est))
		scores[p.ID] = score
		switch {
		case score > bestScore:
			secondScore = bestScore
			best = p
			bestScore = score
			bestEst = est
		case score > secondScore:
			secondScore = score
		}
	})
	if best == nil {
		return Selection{}, false
	}
	return Selection{
		Process:    best.ID,
		Policy:     PolicyPredictive,
		Rationale:  fmt.Sprintf("predictive (score=%.3f, est=%d ticks)", bestScore, bestEst),
		Confidence: marginConfidence(bestScore, secondScore, len(scores)),
		Scores:     scores,
	}, true
}
