// Package trace provides bounded scheduling-decision history for offline
// policy analysis. This package has no dependencies on sched/ — it stores
// pure data types.
package trace

// Record captures a single scheduling decision.
type Record struct {
	DecisionID     string
	Tick           int64
	WallNanos      int64
	Process        uint64
	Core           int
	Policy         string
	Confidence     float64
	PredictedTicks int64
	Rationale      string
	Scores         map[uint64]float64 // candidate process → score (may be nil)
}
