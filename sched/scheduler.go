package sched

import (
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/coresched/coresched/sched/cpu"
	"github.com/coresched/coresched/sched/sandbox"
	"github.com/coresched/coresched/sched/trace"
)

// nowFunc supplies wall timestamps for decision records. Overridable in
// tests; the engine itself runs on virtual ticks only.
var nowFunc = time.Now

// Scheduler is the process scheduling and context-switch engine. Callers
// construct it with New, drive it with Tick once per timer interrupt, and
// own its lifecycle through Close. There is no package-level instance.
//
// Concurrency: one RWMutex guards the table, queues, history and metrics.
// Readers (Report, Summary) take the read lock. Tick releases the write
// lock before evaluating the policy and re-validates its pick afterwards,
// so no lock is ever held across a full decision. The context-switch body
// runs under the target core's interrupt mask, which models the hardware
// atomicity of the switch; it touches only that core and the two
// descriptors involved.
type Scheduler struct {
	mu sync.RWMutex

	cfg        Config
	arch       cpu.Arch
	cores      *cpu.CoreSet
	table      *Table
	queues     *ReadyQueues
	spaces     *cpu.SpaceAllocator
	classifier *Classifier
	picker     Picker
	history    *trace.Log
	timers     *timerHeap
	metrics    Metrics

	predictions PredictionSource
	signals     SignalSource

	running     []ProcessID // per-core occupant, zero when idle
	quantumLeft []int64     // per-core remaining slice ticks

	tick       int64
	enqueueSeq int64
	lastPolicy Policy
	closed     bool
}

// New creates a scheduler on the portable emulated architecture.
func New(cfg Config) (*Scheduler, error) {
	return NewWithArch(cfg, cpu.EmulatedArch{})
}

// NewWithArch creates a scheduler for an explicit target architecture.
// The zero-value fields of cfg fall back to DefaultConfig.
func NewWithArch(cfg Config, arch cpu.Arch) (*Scheduler, error) {
	if arch == nil {
		return nil, fmt.Errorf("scheduler: nil arch")
	}
	cfg = cfg.withDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("scheduler config: %w", err)
	}
	s := &Scheduler{
		cfg:         cfg,
		arch:        arch,
		cores:       cpu.NewCoreSet(cfg.Cores, arch),
		table:       NewTable(cfg.MaxProcesses),
		queues:      NewReadyQueues(),
		spaces:      cpu.NewSpaceAllocator(cfg.AddressSpaces),
		classifier:  NewClassifier(cfg.Classifier),
		picker:      NewPicker(Policy(cfg.Bundle.Policy), cfg.Bundle),
		history:     trace.NewLog(cfg.HistorySize),
		timers:      newTimerHeap(),
		predictions: noPredictions{},
		signals:     noSignal{},
		running:     make([]ProcessID, cfg.Cores),
		quantumLeft: make([]int64, cfg.Cores),
	}
	s.lastPolicy = s.picker.Name()
	logrus.Infof("scheduler ready: cores=%d policy=%s quantum=%d arch=%s",
		cfg.Cores, s.picker.Name(), cfg.Quantum, arch.Name())
	return s, nil
}

// UsePredictions installs the performance-prediction feed. A nil source
// reverts to "no predictions".
func (s *Scheduler) UsePredictions(src PredictionSource) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if src == nil {
		src = noPredictions{}
	}
	s.predictions = src
}

// UseSignals installs the advisory signal feed. A nil source reverts to a
// zero signal.
func (s *Scheduler) UseSignals(src SignalSource) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if src == nil {
		src = noSignal{}
	}
	s.signals = src
}

func validateImage(img Image) error {
	if img.Name == "" {
		return fmt.Errorf("%w: empty name", ErrInvalidImage)
	}
	if img.Entry == 0 {
		return fmt.Errorf("%w: zero entry point", ErrInvalidImage)
	}
	if img.StackSize < 0 || img.StackSize > MaxStackSize {
		return fmt.Errorf("%w: stack size %d out of range (0, %d]", ErrInvalidImage, img.StackSize, int64(MaxStackSize))
	}
	return nil
}

// Spawn validates the image, allocates the address space, builds the initial
// execution context and enqueues the new process as Ready. The sandbox
// profile, if any, is attached for budget enforcement and carried for the
// resource-access layer.
func (s *Scheduler) Spawn(img Image, args []string, profile *sandbox.Profile) (ProcessID, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return 0, ErrSchedulerClosed
	}

	if err := validateImage(img); err != nil {
		return 0, err
	}
	if err := profile.Validate(); err != nil {
		return 0, fmt.Errorf("%w: %v", ErrInvalidImage, err)
	}
	class := img.Class
	if class == "" {
		class = ClassUnknown
	}
	if !validClasses[class] {
		return 0, fmt.Errorf("%w: unknown class %q", ErrInvalidImage, class)
	}
	if class == ClassRealTime && !img.Privileged {
		return 0, fmt.Errorf("%w: class %s requires a privileged image", ErrPermissionDenied, ClassRealTime)
	}

	space, err := s.spaces.Allocate()
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrOutOfMemory, err)
	}

	stack := img.StackSize
	if stack == 0 {
		stack = DefaultStackSize
	}
	p := &Process{
		Name:             img.Name,
		Args:             args,
		State:            StateReady,
		Class:            class,
		Priority:         Recommend(class),
		Space:            space,
		Sandbox:          profile,
		samples:          newSampleRing(s.classifier.Config().WindowSize),
		admittedTick:     s.tick,
		lastDispatchTick: -1,
	}
	p.Context = cpu.Context{
		Regs: cpu.RegisterFile{IP: img.Entry, SP: uint64(stack)},
		Root: space.Root(),
	}

	pid, err := s.table.Insert(p)
	if err != nil {
		if relErr := s.spaces.Release(space); relErr != nil {
			logrus.Warnf("[tick %07d] rollback release failed: %v", s.tick, relErr)
		}
		return 0, err
	}
	s.enqueueLocked(p)
	s.metrics.Spawned++
	logrus.Infof("[tick %07d] spawn pid=%d name=%q class=%s prio=%s sandboxed=%v",
		s.tick, pid, img.Name, class, p.Priority, profile != nil)
	return pid, nil
}

// Terminate moves a process to Terminated with a normal exit. Terminating an
// already-terminated process reports success; the address space was released
// on the first transition and is never released again.
func (s *Scheduler) Terminate(pid ProcessID, exitCode int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrSchedulerClosed
	}
	p, err := s.table.Lookup(pid)
	if err != nil {
		return err
	}
	if p.State == StateTerminated {
		return nil
	}
	s.terminateLocked(p, ExitStatus{Code: exitCode, Cause: ExitNormal})
	return nil
}

// terminateLocked is the single transition into Terminated: off-core
// teardown if running, dequeue, exactly-once address-space release.
func (s *Scheduler) terminateLocked(p *Process, exit ExitStatus) {
	if p.State == StateRunning {
		s.teardownCoreLocked(p)
	}
	s.queues.Remove(p.ID)
	p.State = StateTerminated
	p.Exit = exit
	p.BlockedOn = ""
	p.terminatedTick = s.tick
	if err := s.spaces.Release(p.Space); err != nil {
		logrus.Warnf("[tick %07d] release pid=%d: %v", s.tick, p.ID, err)
	}
	s.metrics.Terminated++
	switch exit.Cause {
	case ExitSandboxTimeout:
		s.metrics.SandboxTimeouts++
	case ExitSandboxViolation:
		s.metrics.SandboxViolations++
	}
	logrus.Infof("[tick %07d] terminate pid=%d cause=%s code=%d", s.tick, p.ID, exit.Cause, exit.Code)
}

// teardownCoreLocked saves the final register state of a running process and
// frees its core without dispatching a successor. Also drops the queue entry
// an expired quantum may have left behind.
func (s *Scheduler) teardownCoreLocked(p *Process) {
	core := s.cores.Core(p.Core)
	core.MaskInterrupts()
	s.arch.Save(&p.Context, core)
	core.UnmaskInterrupts()
	s.creditSliceLocked(p)
	s.running[p.Core] = 0
	s.quantumLeft[p.Core] = 0
	s.queues.Remove(p.ID)
}

// creditSliceLocked adds the consumed part of the current slice to the
// fair-share counter. Called whenever a process comes off a core.
func (s *Scheduler) creditSliceLocked(p *Process) {
	consumed := s.cfg.Quantum - s.quantumLeft[p.Core]
	if consumed > 0 {
		p.Stats.VRuntime += consumed
	}
}

// enqueueLocked stamps global insertion order and appends p at the tail of
// its class queue.
func (s *Scheduler) enqueueLocked(p *Process) {
	s.enqueueSeq++
	p.enqueueSeq = s.enqueueSeq
	s.queues.Enqueue(p.Priority, p.ID)
}

// Block parks a process on the given reason. Blocking an already blocked
// process just updates the reason.
func (s *Scheduler) Block(pid ProcessID, reason BlockReason) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrSchedulerClosed
	}
	p, err := s.table.Lookup(pid)
	if err != nil {
		return err
	}
	switch p.State {
	case StateReady:
		s.queues.Remove(pid)
	case StateRunning:
		s.teardownCoreLocked(p)
	case StateBlocked:
		p.BlockedOn = reason
		return nil
	case StateTerminated:
		return fmt.Errorf("%w: pid %d terminated", ErrProcessNotFound, pid)
	default:
		return fmt.Errorf("cannot block pid %d in state %s", pid, p.State)
	}
	p.State = StateBlocked
	p.BlockedOn = reason
	logrus.Debugf("[tick %07d] block pid=%d reason=%s", s.tick, pid, reason)
	return nil
}

// Unblock returns a blocked process to Ready. Unblocking a process that is
// already Ready or Running is a no-op.
func (s *Scheduler) Unblock(pid ProcessID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrSchedulerClosed
	}
	p, err := s.table.Lookup(pid)
	if err != nil {
		return err
	}
	switch p.State {
	case StateBlocked:
		p.State = StateReady
		p.BlockedOn = ""
		s.enqueueLocked(p)
		logrus.Debugf("[tick %07d] unblock pid=%d", s.tick, pid)
		return nil
	case StateReady, StateRunning:
		return nil
	case StateTerminated:
		return fmt.Errorf("%w: pid %d terminated", ErrProcessNotFound, pid)
	default:
		return fmt.Errorf("cannot unblock pid %d in state %s", pid, p.State)
	}
}

// Sleep blocks a process for the given number of ticks; the timer heap wakes
// it on the due tick. Terminating or unblocking the process first cancels
// the wakeup lazily.
func (s *Scheduler) Sleep(pid ProcessID, ticks int64) error {
	if ticks <= 0 {
		return fmt.Errorf("sleep ticks must be positive, got %d", ticks)
	}
	if err := s.Block(pid, BlockSleep); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.timers.Schedule(s.tick+ticks, pid)
	return nil
}

// EnterDebug parks a process for a debugger: it is excluded from scheduling
// until ExitDebug. A sleep deadline elapsing while in debug leaves the
// process blocked afterwards until Unblock.
func (s *Scheduler) EnterDebug(pid ProcessID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrSchedulerClosed
	}
	p, err := s.table.Lookup(pid)
	if err != nil {
		return err
	}
	switch p.State {
	case StateReady:
		s.queues.Remove(pid)
		p.debugReturn = StateReady
	case StateRunning:
		s.teardownCoreLocked(p)
		p.debugReturn = StateReady
	case StateBlocked:
		p.debugReturn = StateBlocked
	case StateDebug:
		return nil
	case StateTerminated:
		return fmt.Errorf("%w: pid %d terminated", ErrProcessNotFound, pid)
	}
	p.State = StateDebug
	logrus.Infof("[tick %07d] debug attach pid=%d", s.tick, pid)
	return nil
}

// ExitDebug resumes a process parked by EnterDebug.
func (s *Scheduler) ExitDebug(pid ProcessID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrSchedulerClosed
	}
	p, err := s.table.Lookup(pid)
	if err != nil {
		return err
	}
	if p.State != StateDebug {
		return fmt.Errorf("pid %d is not in debug (state %s)", pid, p.State)
	}
	if p.debugReturn == StateBlocked {
		p.State = StateBlocked
	} else {
		p.State = StateReady
		s.enqueueLocked(p)
	}
	logrus.Infof("[tick %07d] debug detach pid=%d", s.tick, pid)
	return nil
}

// SetAffinity caches a preferred core for future dispatches.
func (s *Scheduler) SetAffinity(pid ProcessID, core cpu.CoreID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.cores.Valid(core) {
		return fmt.Errorf("core %d out of range [0,%d)", core, s.cores.Len())
	}
	p, err := s.table.Lookup(pid)
	if err != nil {
		return err
	}
	if p.State == StateTerminated {
		return fmt.Errorf("%w: pid %d terminated", ErrProcessNotFound, pid)
	}
	p.HasAffinity = true
	p.Affinity = core
	return nil
}

// ClearAffinity drops the cached core preference.
func (s *Scheduler) ClearAffinity(pid ProcessID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, err := s.table.Lookup(pid)
	if err != nil {
		return err
	}
	p.HasAffinity = false
	return nil
}

// RecordUsage feeds one accounting observation into the classifier window.
// In production the CPU accounting source calls this each sampling interval.
func (s *Scheduler) RecordUsage(pid ProcessID, cpuPct, ioPct float64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, err := s.table.Lookup(pid)
	if err != nil {
		return err
	}
	if p.State == StateTerminated {
		return fmt.Errorf("%w: pid %d terminated", ErrProcessNotFound, pid)
	}
	p.samples.push(UsageSample{CPU: clampPct(cpuPct), IO: clampPct(ioPct)})
	return nil
}

// ReportViolation is the revocation hook for the resource-access layer: a
// sandboxed process that breached its restriction set is forcibly
// terminated. Reporting a violation for a non-sandboxed process is itself an
// error; a violation against an already-terminated process is a no-op.
func (s *Scheduler) ReportViolation(pid ProcessID, op string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrSchedulerClosed
	}
	p, err := s.table.Lookup(pid)
	if err != nil {
		return err
	}
	if p.Sandbox == nil {
		return fmt.Errorf("%w: pid %d is not sandboxed", ErrSandboxViolation, pid)
	}
	if p.State == StateTerminated {
		return nil
	}
	logrus.Warnf("[tick %07d] sandbox violation pid=%d op=%q", s.tick, pid, op)
	s.terminateLocked(p, ExitStatus{Code: -1, Cause: ExitSandboxViolation})
	return nil
}

// Tick advances virtual time by one timer interrupt: accounting, sandbox
// budget enforcement, timer wakeups, periodic reclassification, then at most
// one scheduling decision.
func (s *Scheduler) Tick() {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.tick++
	s.accountLocked()
	s.expireQuantaLocked()
	s.enforceBudgetsLocked()
	s.fireTimersLocked()
	s.reclassifyLocked()
	state := s.systemStateLocked()
	s.mu.Unlock()

	// Policy evaluation runs under the read lock only.
	s.mu.RLock()
	dec, ok := s.decideLocked(state)
	s.mu.RUnlock()

	s.mu.Lock()
	s.applyLocked(dec, ok)
	s.mu.Unlock()
}

// accountLocked advances per-process and per-core clocks and reaps
// descriptors whose post-termination linger expired.
func (s *Scheduler) accountLocked() {
	var reap []ProcessID
	s.table.Each(func(p *Process) {
		if p.State == StateTerminated {
			if s.tick-p.terminatedTick > s.cfg.ReapAfter {
				reap = append(reap, p.ID)
			}
			return
		}
		p.Stats.WallTicks++
		if p.State == StateRunning {
			p.Stats.CPUTicks++
		}
	})
	for _, pid := range reap {
		if err := s.table.Remove(pid); err == nil {
			s.metrics.Reaped++
		}
	}
	for i := range s.running {
		busy := s.running[i] != 0
		s.cores.Core(cpu.CoreID(i)).AccountTick(busy)
		if busy && s.quantumLeft[i] > 0 {
			s.quantumLeft[i]--
		}
	}
}

// expireQuantaLocked requeues processes whose time slice ran out, so the
// decision phase weighs them against the waiting ready set. An expired
// process keeps its core and stays Running until an actual switch; picking
// it again just grants a fresh slice.
func (s *Scheduler) expireQuantaLocked() {
	for i := range s.running {
		pid := s.running[i]
		if pid == 0 || s.quantumLeft[i] > 0 {
			continue
		}
		p, err := s.table.Lookup(pid)
		if err != nil || p.State != StateRunning {
			continue
		}
		if s.queues.Contains(pid) {
			continue // still waiting on an earlier expiry
		}
		s.enqueueLocked(p) // tail re-entry: the round-robin rotation point
	}
}

// enforceBudgetsLocked kills sandboxed processes past their wall budget.
// Runs before any scheduling in the same tick, so a process admitted with
// budget T is terminated at or before tick T+1 regardless of policy.
func (s *Scheduler) enforceBudgetsLocked() {
	var kill []*Process
	s.table.Each(func(p *Process) {
		if p.Live() && p.Sandbox.Exceeded(p.Stats.WallTicks) {
			kill = append(kill, p)
		}
	})
	for _, p := range kill {
		logrus.Warnf("[tick %07d] sandbox budget exceeded pid=%d elapsed=%d budget=%d",
			s.tick, p.ID, p.Stats.WallTicks, p.Sandbox.TimeBudget)
		s.terminateLocked(p, ExitStatus{Code: -1, Cause: ExitSandboxTimeout})
	}
}

// fireTimersLocked wakes sleepers whose deadline arrived. Wakeups for
// processes that terminated or left the sleep state are dropped here.
func (s *Scheduler) fireTimersLocked() {
	for {
		w, ok := s.timers.PopDue(s.tick)
		if !ok {
			return
		}
		p, err := s.table.Lookup(w.pid)
		if err != nil || p.State != StateBlocked || p.BlockedOn != BlockSleep {
			continue
		}
		p.State = StateReady
		p.BlockedOn = ""
		s.enqueueLocked(p)
		s.metrics.Wakeups++
		logrus.Debugf("[tick %07d] wake pid=%d", s.tick, p.ID)
	}
}

// reclassifyLocked refreshes workload classes on the configured period and
// requeues processes whose derived priority class moved.
func (s *Scheduler) reclassifyLocked() {
	if s.cfg.ReclassifyEvery == 0 || s.tick%s.cfg.ReclassifyEvery != 0 {
		return
	}
	s.table.Each(func(p *Process) {
		if !p.Live() {
			return
		}
		class := s.classifier.Classify(p.Class, p.samples)
		if class == ClassUnknown && p.Class != ClassUnknown {
			return // admission hint stands until enough samples accumulate
		}
		if class == p.Class {
			return
		}
		logrus.Debugf("[tick %07d] reclassify pid=%d %s->%s", s.tick, p.ID, p.Class, class)
		p.Class = class
		s.metrics.Reclassifications++
		prio := Recommend(class)
		if prio != p.Priority {
			p.Priority = prio
			if s.queues.Remove(p.ID) {
				s.enqueueLocked(p)
			}
		}
	})
}

// systemStateLocked rebuilds the per-tick snapshot from resident data.
func (s *Scheduler) systemStateLocked() SystemState {
	loads := s.cores.Loads()
	util := 0.0
	for _, l := range loads {
		util += l
	}
	util /= float64(len(loads))

	total, interactive := 0, 0
	s.table.Each(func(p *Process) {
		if !p.Live() {
			return
		}
		total++
		if p.Class == ClassInteractive {
			interactive++
		}
	})
	return SystemState{
		Tick:             s.tick,
		CPUUtilization:   util,
		CoreLoads:        loads,
		InteractiveProcs: interactive,
		TotalProcs:       total,
		Signal:           clamp01(s.signals.SystemSignal()),
	}
}

// decision is the resolved outcome of one scheduling pass, ready to apply.
type decision struct {
	id        string
	sel       Selection
	core      cpu.CoreID
	preempt   ProcessID // occupant of core at decision time, zero if idle
	predicted int64
}

// decideLocked runs the active policy and resolves the target core. Read
// lock only: it mutates nothing, and applyLocked re-validates the outcome.
func (s *Scheduler) decideLocked(state SystemState) (decision, bool) {
	if s.closed || s.queues.Empty() {
		return decision{}, false
	}
	eligible := make([]cpu.CoreID, 0, s.cores.Len())
	for i := range s.running {
		if s.running[i] == 0 || s.quantumLeft[i] <= 0 {
			eligible = append(eligible, cpu.CoreID(i))
		}
	}
	if len(eligible) == 0 {
		return decision{}, false
	}

	view := &PickView{
		Queues:      s.queues,
		Table:       s.table,
		State:       state,
		Predictions: s.predictions,
		Signals:     s.signals,
	}
	sel, ok := s.picker.Pick(view)
	if !ok {
		return decision{}, false
	}
	p, err := s.table.Lookup(sel.Process)
	if err != nil {
		return decision{}, false
	}

	core := s.resolveCoreLocked(p, eligible)
	predicted := s.cfg.Quantum
	if pred, ok := s.predictions.Predict(p.ID); ok && pred.ExecTicks > 0 {
		predicted = pred.ExecTicks
	}
	return decision{
		id:        uuid.NewString(),
		sel:       sel,
		core:      core,
		preempt:   s.running[core],
		predicted: predicted,
	}, true
}

// resolveCoreLocked picks the target core: an expired incumbent sticks to
// the core it already occupies, otherwise the cached affinity when it is
// eligible, else the minimum-load eligible core (lowest id on ties).
func (s *Scheduler) resolveCoreLocked(p *Process, eligible []cpu.CoreID) cpu.CoreID {
	if p.State == StateRunning {
		for _, id := range eligible {
			if id == p.Core {
				return id
			}
		}
	}
	if p.HasAffinity {
		for _, id := range eligible {
			if id == p.Affinity {
				return id
			}
		}
	}
	best := eligible[0]
	bestLoad := s.cores.Core(best).Load()
	for _, id := range eligible[1:] {
		if load := s.cores.Core(id).Load(); load < bestLoad {
			best, bestLoad = id, load
		}
	}
	return best
}

// applyLocked re-validates a decision under the write lock and performs the
// switch. A decision invalidated by a concurrent API call is dropped; the
// tick simply produced no dispatch. Re-picking an expired incumbent grants
// it a fresh slice without a switch.
func (s *Scheduler) applyLocked(dec decision, ok bool) {
	if !ok {
		s.metrics.IdleDecisions++
		return
	}
	if s.closed {
		return
	}
	p, err := s.table.Lookup(dec.sel.Process)
	if err != nil || !s.queues.Contains(p.ID) {
		s.metrics.IdleDecisions++
		logrus.Debugf("[tick %07d] decision %s stale, dropped", s.tick, dec.id)
		return
	}
	continuation := false
	switch p.State {
	case StateReady:
	case StateRunning:
		// Only the expired incumbent of its own core may continue.
		if dec.core != p.Core || s.running[p.Core] != p.ID || s.quantumLeft[p.Core] > 0 {
			s.metrics.IdleDecisions++
			return
		}
		continuation = true
	default:
		s.metrics.IdleDecisions++
		return
	}
	if s.running[dec.core] != dec.preempt ||
		(dec.preempt != 0 && s.quantumLeft[dec.core] > 0) {
		s.metrics.IdleDecisions++
		logrus.Debugf("[tick %07d] decision %s lost its core, dropped", s.tick, dec.id)
		return
	}

	if continuation {
		s.queues.Remove(p.ID)
		s.creditSliceLocked(p)
		s.quantumLeft[dec.core] = s.cfg.Quantum
		p.lastDispatchTick = s.tick
	} else if err := s.dispatchLocked(p.ID, dec.core); err != nil {
		logrus.Warnf("[tick %07d] dispatch pid=%d core=%d failed: %v", s.tick, p.ID, dec.core, err)
		return
	}

	s.metrics.Decisions++
	s.lastPolicy = dec.sel.Policy
	s.history.Append(trace.Record{
		DecisionID:     dec.id,
		Tick:           s.tick,
		WallNanos:      nowFunc().UnixNano(),
		Process:        uint64(p.ID),
		Core:           int(dec.core),
		Policy:         string(dec.sel.Policy),
		Confidence:     dec.sel.Confidence,
		PredictedTicks: dec.predicted,
		Rationale:      dec.sel.Rationale,
		Scores:         rawScores(dec.sel.Scores),
	})
	logrus.Infof("[tick %07d] dispatch pid=%d core=%d policy=%s conf=%.2f (%s)",
		s.tick, p.ID, dec.core, dec.sel.Policy, dec.sel.Confidence, dec.sel.Rationale)
}

// dispatchLocked installs next on core. The masked body copies registers
// and flips the current-process slot; nothing in it allocates. When the
// target handle fails to resolve the switch aborts and the outgoing
// process, already saved, stays Ready and re-eligible.
func (s *Scheduler) dispatchLocked(nextID ProcessID, coreID cpu.CoreID) error {
	core := s.cores.Core(coreID)

	var prev *Process
	if prevID := s.running[coreID]; prevID != 0 {
		if p, lookupErr := s.table.Lookup(prevID); lookupErr == nil {
			prev = p
		}
	}

	core.MaskInterrupts()
	if prev != nil {
		s.arch.Save(&prev.Context, core)
		prev.State = StateReady
		s.running[coreID] = 0
	}
	next, err := s.table.Lookup(nextID)
	if err == nil {
		s.queues.Remove(nextID)
		s.arch.Restore(&next.Context, core)
		next.State = StateRunning
		next.Core = coreID
		s.running[coreID] = nextID
	}
	core.UnmaskInterrupts()

	if prev != nil {
		s.creditSliceLocked(prev)
		s.quantumLeft[coreID] = 0
		if !s.queues.Contains(prev.ID) {
			s.enqueueLocked(prev) // expiry usually requeued it already
		}
		s.metrics.Preemptions++
	}
	if err != nil {
		return fmt.Errorf("switch target: %w", err)
	}
	s.quantumLeft[coreID] = s.cfg.Quantum
	next.Stats.Switches++
	next.lastDispatchTick = s.tick
	core.NoteSwitch()
	s.metrics.ContextSwitches++
	return nil
}

// Close terminates every live process, releasing their address spaces, and
// marks the scheduler unusable. Idempotent.
func (s *Scheduler) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil
	}
	var live []*Process
	s.table.Each(func(p *Process) {
		if p.Live() {
			live = append(live, p)
		}
	})
	for _, p := range live {
		s.terminateLocked(p, ExitStatus{Code: 0, Cause: ExitNormal})
	}
	s.closed = true
	logrus.Infof("[tick %07d] scheduler closed (%d processes terminated)", s.tick, len(live))
	return nil
}

// CurrentTick reports the virtual time.
func (s *Scheduler) CurrentTick() int64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.tick
}

// ActivePolicy reports the configured policy name.
func (s *Scheduler) ActivePolicy() Policy {
	return s.picker.Name()
}

func rawScores(scores map[ProcessID]float64) map[uint64]float64 {
	if scores == nil {
		return nil
	}
	out := make(map[uint64]float64, len(scores))
	for pid, score := range scores {
		out[uint64(pid)] = score
	}
	return out
}
