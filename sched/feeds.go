package sched

import "math"

// Prediction is a performance forecast for one process: expected CPU demand
// and memory pressure in percent, and expected remaining execution ticks.
type Prediction struct {
	CPU       float64
	Memory    float64
	ExecTicks int64
}

// PredictionSource supplies performance predictions to the predictive
// policy. Predict returns false when no forecast exists for the process;
// such processes are skipped by the predictive policy.
//
// Implementations are called on the decision path and must answer from
// resident data without blocking.
type PredictionSource interface {
	Predict(pid ProcessID) (Prediction, bool)
}

// SignalSource supplies advisory scheduling signals, system-wide and per
// process. Values are untrusted input: consumers clamp to [0, 1] and treat
// NaN or infinities as zero.
//
// Implementations are called on the decision path and must answer from
// resident data without blocking.
type SignalSource interface {
	SystemSignal() float64
	ProcessSignal(pid ProcessID) float64
}

// clamp01 normalizes an untrusted signal value into [0, 1].
// NaN and infinities collapse to 0.
func clamp01(v float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0
	}
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

// StaticPredictions is a fixed PredictionSource backed by a map.
// Used by tests and the synthetic workload driver.
type StaticPredictions map[ProcessID]Prediction

func (sp StaticPredictions) Predict(pid ProcessID) (Prediction, bool) {
	if sp == nil {
		return Prediction{}, false
	}
	p, ok := sp[pid]
	return p, ok
}

// StaticSignal is a fixed SignalSource with one system value and optional
// per-process overrides.
type StaticSignal struct {
	System    float64
	Processes map[ProcessID]float64
}

func (s StaticSignal) SystemSignal() float64 { return s.System }

func (s StaticSignal) ProcessSignal(pid ProcessID) float64 {
	if v, ok := s.Processes[pid]; ok {
		return v
	}
	return s.System
}

// noSignal is the nil-safe default when no SignalSource is installed.
type noSignal struct{}

func (noSignal) SystemSignal() float64 { return 0 }

func (noSignal) ProcessSignal(ProcessID) float64 { return 0 }

// noPredictions is the nil-safe default when no PredictionSource is installed.
type noPredictions struct{}

func (noPredictions) Predict(ProcessID) (Prediction, bool) { return Prediction{}, false }
