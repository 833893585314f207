package sched

import (
	"fmt"
	"hash/fnv"
	"math/rand"
)

// RunKey uniquely identifies a reproducible scheduler run. Two runs with the
// same RunKey and identical configuration MUST produce identical workloads
// and identical decision sequences.
type RunKey int64

// RNG subsystem names. Each subsystem draws from an isolated stream so that
// adding draws in one never perturbs the others.
const (
	SubsystemWorkload = "workload"
	SubsystemSamples  = "samples"
	SubsystemSignals  = "signals"
)

// PartitionedRNG provides deterministic, isolated RNG instances per
// subsystem. The workload subsystem uses the master seed directly so --seed
// keeps its familiar meaning; every other subsystem derives its seed as
// masterSeed XOR fnv1a64(subsystemName).
//
// Thread-safety: NOT thread-safe. Must be called from a single goroutine.
type PartitionedRNG struct {
	key        RunKey
	subsystems map[string]*rand.Rand
}

// NewPartitionedRNG creates a PartitionedRNG from a RunKey.
func NewPartitionedRNG(key RunKey) *PartitionedRNG {
	return &PartitionedRNG{
		key:        key,
		subsystems: make(map[string]*rand.Rand),
	}
}

// ForSubsystem returns a deterministically-seeded RNG for the named
// subsystem. The same name always returns the same cached *rand.Rand.
// Never returns nil.
func (p *PartitionedRNG) ForSubsystem(name string) *rand.Rand {
	if rng, ok := p.subsystems[name]; ok {
		return rng
	}

	var derivedSeed int64
	if name == SubsystemWorkload {
		derivedSeed = int64(p.key)
	} else {
		derivedSeed = int64(p.key) ^ fnv1a64(name)
	}

	rng := rand.New(rand.NewSource(derivedSeed))
	p.subsystems[name] = rng
	return rng
}

// ForCore returns the isolated RNG stream of one core's subsystem.
func (p *PartitionedRNG) ForCore(id int) *rand.Rand {
	return p.ForSubsystem(fmt.Sprintf("core_%d", id))
}

// Key returns the RunKey used to create this PartitionedRNG.
func (p *PartitionedRNG) Key() RunKey { return p.key }

// fnv1a64 computes a 64-bit FNV-1a hash of the input string.
func fnv1a64(s string) int64 {
	h := fnv.New64a()
	h.Write([]byte(s))
	return int64(h.Sum64())
}
