// Package cpu provides the platform abstraction under the scheduler: register
// files, saved execution contexts, address-space handles, and logical cores.
//
// The scheduler never manipulates register layout directly. All save/restore
// mechanics go through the Arch interface so the switch path stays independent
// of the target architecture.
package cpu

// NumGPR is the number of general-purpose registers in a register file.
const NumGPR = 16

// RegisterFile is the architectural register state of one core: general
// purpose registers, stack pointer, instruction pointer and flags.
// Fixed size so copies never allocate.
type RegisterFile struct {
	GPR   [NumGPR]uint64
	SP    uint64
	IP    uint64
	Flags uint64
}

// Context is the saved execution state of a process that is not currently
// running: its registers plus the address-space root active when it was
// descheduled. A Context is exclusively owned by one process descriptor and
// is only written by the core performing a switch.
//
// Context is a plain value type. Embedding it by value in a descriptor keeps
// the save/restore path allocation-free.
type Context struct {
	Regs RegisterFile
	Root SpaceRoot
}

// Arch performs register save and restore for one target architecture.
// Implementations must not allocate: the switch path runs with the core's
// interrupts masked.
type Arch interface {
	Name() string

	// Save copies the core's live register state and active address-space
	// root into ctx.
	Save(ctx *Context, core *Core)

	// Restore loads ctx into the core's live register state and switches
	// the core's active address-space root.
	Restore(ctx *Context, core *Core)
}

// EmulatedArch is the portable Arch implementation backed by in-memory
// register files. It is the only architecture compiled on all platforms and
// the one exercised by tests.
type EmulatedArch struct{}

func (EmulatedArch) Name() string { return "emulated" }

func (EmulatedArch) Save(ctx *Context, core *Core) {
	ctx.Regs = core.regs
	ctx.Root = core.root
}

func (EmulatedArch) Restore(ctx *Context, core *Core) {
	core.regs = ctx.Regs
	core.root = ctx.Root
}
