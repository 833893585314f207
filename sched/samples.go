package sched

import "math"

// UsageSample is one accounting observation for a process: CPU time share
// and I/O wait share over the sampling interval, both in percent.
type UsageSample struct {
	CPU float64
	IO  float64
}

// clampPct forces a percentage into [0, 100]. NaN and -Inf map to 0,
// +Inf to 100.
func clampPct(v float64) float64 {
	if math.IsNaN(v) || v < 0 {
		return 0
	}
	if v > 100 {
		return 100
	}
	return v
}

// sampleRing keeps the most recent usage samples for one process in a
// fixed-capacity ring. The classifier reads means over the retained window.
type sampleRing struct {
	buf   []UsageSample
	start int
	count int
}

func newSampleRing(capacity int) *sampleRing {
	if capacity <= 0 {
		capacity = 1
	}
	return &sampleRing{buf: make([]UsageSample, capacity)}
}

// push records a sample, evicting the oldest when the ring is full.
func (r *sampleRing) push(s UsageSample) {
	if r.count < len(r.buf) {
		r.buf[(r.start+r.count)%len(r.buf)] = s
		r.count++
		return
	}
	r.buf[r.start] = s
	r.start = (r.start + 1) % len(r.buf)
}

func (r *sampleRing) len() int { return r.count }

// means returns the mean CPU and I/O percentages over the retained window.
// Zero means for an empty ring.
func (r *sampleRing) means() (cpuMean, ioMean float64) {
	if r.count == 0 {
		return 0, 0
	}
	var cpuSum, ioSum float64
	for i := 0; i < r.count; i++ {
		s := r.buf[(r.start+i)%len(r.buf)]
		cpuSum += s.CPU
		ioSum += s.IO
	}
	n := float64(r.count)
	return cpuSum / n, ioSum / n
}
