package trace

// Summary aggregates statistics over the retained decision history.
type Summary struct {
	TotalDecisions     uint64 // all decisions ever appended, including evicted
	Retained           int
	UniqueProcesses    int
	MeanConfidence     float64
	MeanPredictedTicks float64
	PolicyDistribution map[string]int // policy name → decision count
	CoreDistribution   map[int]int    // core → decision count
}

// Summarize computes aggregate statistics from a decision log.
// Safe for nil or empty logs (returns zero-value fields).
func Summarize(l *Log) *Summary {
	summary := &Summary{
		PolicyDistribution: make(map[string]int),
		CoreDistribution:   make(map[int]int),
	}
	if l == nil {
		return summary
	}

	summary.TotalDecisions = l.Total()
	records := l.Snapshot()
	summary.Retained = len(records)
	if len(records) == 0 {
		return summary
	}

	seen := make(map[uint64]bool)
	totalConfidence := 0.0
	totalPredicted := 0.0
	for _, r := range records {
		summary.PolicyDistribution[r.Policy]++
		summary.CoreDistribution[r.Core]++
		seen[r.Process] = true
		totalConfidence += r.Confidence
		totalPredicted += float64(r.PredictedTicks)
	}
	summary.UniqueProcesses = len(seen)
	summary.MeanConfidence = totalConfidence / float64(len(records))
	summary.MeanPredictedTicks = totalPredicted / float64(len(records))

	return summary
}
