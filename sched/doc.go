// Package sched provides the process scheduling and context-switch engine.
//
// # Reading Guide
//
// Start with these three files to understand the kernel:
//   - process.go: the process descriptor, its lifecycle states, workload and priority classes
//   - scheduler.go: Tick (accounting, budget enforcement, wakeups, one decision), Spawn and Terminate
//   - policy.go: the Picker interface, the policy name registry and the two classic pickers
//
// # Architecture
//
// The sched package owns the engine; mechanism lives in sub-packages:
//   - sched/cpu/: execution contexts, cores with interrupt masks, address-space allocation
//   - sched/sandbox/: restriction profiles attached at admission
//   - sched/trace/: the bounded decision history and its summaries
//
// Virtual time advances only through Tick. Each tick performs bookkeeping
// under the write lock, evaluates the active policy under the read lock, and
// re-validates the pick under the write lock before switching. The switch
// body itself runs with the target core's interrupts masked.
//
// # Key Interfaces
//
// The extension points are small interfaces:
//   - Picker: select the next process from the ready-queue view
//   - PredictionSource: expected CPU, memory and run length per process
//   - SignalSource: external advisory signals in [0, 1]
//   - cpu.Arch: save and restore register state for one core
//
// Pickers are selected by name through NewPicker; the adaptive picker
// re-evaluates that choice every tick from the system snapshot.
package sched
