package sched

import (
	"fmt"
	"math/rand"
	"sort"

	"github.com/coresched/coresched/sched/sandbox"
)

// Archetype describes one synthetic process population for demo and
// benchmark runs: how many to admit, over what window, what they declare at
// admission and what usage shape they report while alive.
type Archetype struct {
	Name       string           `yaml:"name"`
	Count      int              `yaml:"count"`
	Class      Class            `yaml:"class"`
	Privileged bool             `yaml:"privileged"`
	Sandbox    *sandbox.Profile `yaml:"sandbox,omitempty"`

	// Usage shape fed back through RecordUsage each tick.
	CPUPct float64 `yaml:"cpu_pct"`
	IOPct  float64 `yaml:"io_pct"`
	Jitter float64 `yaml:"jitter"` // uniform +/- on both percentages

	LifeTicks   int64 `yaml:"life_ticks"`   // self-terminate after; 0 runs forever
	SpreadTicks int64 `yaml:"spread_ticks"` // admissions spread uniformly over [0, SpreadTicks)

	// SleepEvery approximates I/O waits: every SleepEvery ticks on a core the
	// process sleeps for SleepTicks. Zero disables.
	SleepEvery int64 `yaml:"sleep_every"`
	SleepTicks int64 `yaml:"sleep_ticks"`
}

// SpawnPlan is one planned admission, ready to hand to Spawn at its tick.
type SpawnPlan struct {
	AtTick  int64
	Image   Image
	Args    []string
	Profile *sandbox.Profile

	CPUPct     float64
	IOPct      float64
	Jitter     float64
	LifeTicks  int64
	SleepEvery int64
	SleepTicks int64
}

// GeneratePlan expands archetypes into a deterministic admission schedule.
// Deterministic given the same archetypes and seed. Returns plans sorted by
// AtTick with sequential per-archetype names.
func GeneratePlan(archetypes []Archetype, seed int64) ([]SpawnPlan, error) {
	rng := NewPartitionedRNG(RunKey(seed)).ForSubsystem(SubsystemWorkload)

	var plans []SpawnPlan
	for _, a := range archetypes {
		if a.Count <= 0 {
			continue
		}
		if a.Name == "" {
			return nil, fmt.Errorf("archetype with empty name")
		}
		if a.Class != "" && !validClasses[a.Class] {
			return nil, fmt.Errorf("archetype %q: unknown class %q", a.Name, a.Class)
		}
		for i := 0; i < a.Count; i++ {
			at := int64(0)
			if a.SpreadTicks > 0 {
				at = rng.Int63n(a.SpreadTicks)
			}
			plans = append(plans, SpawnPlan{
				AtTick: at,
				Image: Image{
					Name:       fmt.Sprintf("%s-%d", a.Name, i),
					Entry:      entryFor(rng),
					Class:      a.Class,
					Privileged: a.Privileged,
				},
				Profile:    a.Sandbox,
				CPUPct:     a.CPUPct,
				IOPct:      a.IOPct,
				Jitter:     a.Jitter,
				LifeTicks:  a.LifeTicks,
				SleepEvery: a.SleepEvery,
				SleepTicks: a.SleepTicks,
			})
		}
	}

	// Stable sort keeps archetype declaration order for same-tick admissions.
	sort.SliceStable(plans, func(i, j int) bool {
		return plans[i].AtTick < plans[j].AtTick
	})
	return plans, nil
}

// entryFor fabricates a plausible nonzero entry point.
func entryFor(rng *rand.Rand) uint64 {
	return 0x400000 + uint64(rng.Int63n(1<<20))*16
}

// SampleUsage draws one jittered usage observation for a planned process.
func (p SpawnPlan) SampleUsage(rng *rand.Rand) UsageSample {
	jitter := func(mean float64) float64 {
		if p.Jitter <= 0 {
			return clampPct(mean)
		}
		return clampPct(mean + (rng.Float64()*2-1)*p.Jitter)
	}
	return UsageSample{CPU: jitter(p.CPUPct), IO: jitter(p.IOPct)}
}

// DefaultWorkload is the stock demo mix: CPU hogs, I/O workers, interactive
// and batch populations, one privileged real-time process, plus two
// sandboxed processes, one of which will breach its restriction set.
func DefaultWorkload() []Archetype {
	return []Archetype{
		{
			Name: "cpu-hog", Count: 4,
			CPUPct: 92, IOPct: 6, Jitter: 5,
			SpreadTicks: 8,
		},
		{
			Name: "io-worker", Count: 4,
			CPUPct: 18, IOPct: 74, Jitter: 8,
			SpreadTicks: 8, SleepEvery: 3, SleepTicks: 5,
		},
		{
			Name: "shell", Count: 3, Class: ClassInteractive,
			CPUPct: 22, IOPct: 30, Jitter: 10,
			SpreadTicks: 4, SleepEvery: 6, SleepTicks: 2,
		},
		{
			Name: "batch-job", Count: 3, Class: ClassBatch,
			CPUPct: 55, IOPct: 35, Jitter: 6,
			SpreadTicks: 16, LifeTicks: 400,
		},
		{
			Name: "audio", Count: 1, Class: ClassRealTime, Privileged: true,
			CPUPct: 40, IOPct: 10, Jitter: 3,
		},
		{
			Name: "untrusted", Count: 1,
			Sandbox: &sandbox.Profile{
				NetworkIsolated:    true,
				PathAllowlist:      []string{"/tmp/untrusted"},
				OperationAllowlist: []string{"read", "write"},
				TimeBudget:         200,
			},
			CPUPct: 70, IOPct: 20, Jitter: 5,
		},
		{
			Name: "probe", Count: 1,
			Sandbox: &sandbox.Profile{
				NetworkIsolated:    true,
				PathAllowlist:      []string{"/tmp/probe"},
				OperationAllowlist: []string{"read"},
				TimeBudget:         800,
			},
			CPUPct: 30, IOPct: 40, Jitter: 5,
		},
	}
}
