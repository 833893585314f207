package cpu

import "fmt"

// CoreID identifies one logical execution core.
// Uses distinct type (not alias) to prevent accidental int mixing.
type CoreID int

// loadAlpha is the smoothing factor for the per-core utilization estimate.
// One busy tick moves the estimate 20% of the way toward 1.
const loadAlpha = 0.2

// Core models one logical execution core: its live register state, active
// address-space root, interrupt mask and utilization accounting. The process
// occupying a core is tracked by the scheduler, not here.
//
// Thread-safety: NOT thread-safe. A core is owned by its scheduler and all
// methods must be called from the same goroutine.
type Core struct {
	id   CoreID
	arch Arch

	regs RegisterFile
	root SpaceRoot

	masked bool

	load      float64
	busyTicks uint64
	idleTicks uint64
	switches  uint64
}

// NewCore creates a core for the given architecture.
// Failure modes: panics on nil arch (misuse).
func NewCore(id CoreID, arch Arch) *Core {
	if arch == nil {
		panic("NewCore: nil arch")
	}
	return &Core{id: id, arch: arch}
}

func (c *Core) ID() CoreID { return c.id }

func (c *Core) Arch() Arch { return c.arch }

// Registers exposes the live register file. Tests and the emulated arch read
// and write through this; real architectures would not.
func (c *Core) Registers() *RegisterFile { return &c.regs }

// ActiveRoot returns the address-space root currently loaded on the core.
func (c *Core) ActiveRoot() SpaceRoot { return c.root }

// MaskInterrupts disables interrupt delivery on this core for the duration of
// a context switch. Panics if the mask is already held: a nested switch on
// the same core means partial register state could become observable.
func (c *Core) MaskInterrupts() {
	if c.masked {
		panic(fmt.Sprintf("core %d: interrupts already masked (nested context switch)", c.id))
	}
	c.masked = true
}

// UnmaskInterrupts re-enables interrupt delivery. Panics if not masked.
func (c *Core) UnmaskInterrupts() {
	if !c.masked {
		panic(fmt.Sprintf("core %d: interrupts not masked", c.id))
	}
	c.masked = false
}

// Masked reports whether interrupts are currently disabled on this core.
func (c *Core) Masked() bool { return c.masked }

// AccountTick folds one timer tick into the utilization estimate.
func (c *Core) AccountTick(busy bool) {
	sample := 0.0
	if busy {
		sample = 1.0
		c.busyTicks++
	} else {
		c.idleTicks++
	}
	c.load = loadAlpha*sample + (1-loadAlpha)*c.load
}

// Load returns the smoothed utilization estimate in [0, 1].
func (c *Core) Load() float64 { return c.load }

func (c *Core) BusyTicks() uint64 { return c.busyTicks }

func (c *Core) IdleTicks() uint64 { return c.idleTicks }

// NoteSwitch increments the context-switch counter for this core.
func (c *Core) NoteSwitch() { c.switches++ }

// Switches reports how many context switches this core has performed.
func (c *Core) Switches() uint64 { return c.switches }

// CoreSet is the fixed set of cores the scheduler drives.
type CoreSet struct {
	cores []*Core
}

// NewCoreSet creates n cores sharing one architecture.
// Failure modes: panics if n is not positive (misuse).
func NewCoreSet(n int, arch Arch) *CoreSet {
	if n <= 0 {
		panic(fmt.Sprintf("NewCoreSet: core count must be positive, got %d", n))
	}
	cs := &CoreSet{cores: make([]*Core, n)}
	for i := range cs.cores {
		cs.cores[i] = NewCore(CoreID(i), arch)
	}
	return cs
}

func (cs *CoreSet) Len() int { return len(cs.cores) }

// Core returns the core with the given id.
// Failure modes: panics on an out-of-range id (misuse).
func (cs *CoreSet) Core(id CoreID) *Core {
	if int(id) < 0 || int(id) >= len(cs.cores) {
		panic(fmt.Sprintf("CoreSet.Core: id %d out of range [0,%d)", id, len(cs.cores)))
	}
	return cs.cores[id]
}

// Valid reports whether id names a core in this set.
func (cs *CoreSet) Valid(id CoreID) bool {
	return int(id) >= 0 && int(id) < len(cs.cores)
}

// Loads returns the per-core utilization vector, indexed by CoreID.
func (cs *CoreSet) Loads() []float64 {
	out := make([]float64, len(cs.cores))
	for i, c := range cs.cores {
		out[i] = c.load
	}
	return out
}
