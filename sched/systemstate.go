package sched

// SystemState is the scheduler-wide snapshot the policies and the policy
// selector read each tick. It is rebuilt from resident data only.
type SystemState struct {
	Tick             int64
	CPUUtilization   float64   // aggregate over all cores, [0, 1]
	CoreLoads        []float64 // smoothed per-core utilization, indexed by core id
	InteractiveProcs int
	TotalProcs       int
	Signal           float64 // advisory system signal, clamped to [0, 1]
}

// InteractiveRatio reports the share of live processes classified
// interactive. Zero when no process is live.
func (s SystemState) InteractiveRatio() float64 {
	if s.TotalProcs == 0 {
		return 0
	}
	return float64(s.InteractiveProcs) / float64(s.TotalProcs)
}
