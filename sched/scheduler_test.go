package sched

import (
	"errors"
	"testing"

	"github.com/coresched/coresched/sched/sandbox"
)

func testConfig() Config {
	return Config{
		Cores:           1,
		MaxProcesses:    16,
		Quantum:         4,
		HistorySize:     64,
		ReapAfter:       64,
		ReclassifyEvery: 8,
	}
}

func newTestScheduler(t *testing.T, cfg Config) *Scheduler {
	t.Helper()
	s, err := New(cfg)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return s
}

func mustSpawn(t *testing.T, s *Scheduler, img Image, profile *sandbox.Profile) ProcessID {
	t.Helper()
	pid, err := s.Spawn(img, nil, profile)
	if err != nil {
		t.Fatalf("Spawn %q: %v", img.Name, err)
	}
	return pid
}

func tickN(s *Scheduler, n int) {
	for i := 0; i < n; i++ {
		s.Tick()
	}
}

func mustInfo(t *testing.T, s *Scheduler, pid ProcessID) ProcessInfo {
	t.Helper()
	info, err := s.Process(pid)
	if err != nil {
		t.Fatalf("Process(%d): %v", pid, err)
	}
	return info
}

func TestScheduler_SpawnAdmitsReadyProcess(t *testing.T) {
	s := newTestScheduler(t, testConfig())
	pid := mustSpawn(t, s, Image{Name: "init", Entry: 0x4000}, nil)

	info := mustInfo(t, s, pid)
	if info.State != StateReady {
		t.Errorf("state = %s, want %s", info.State, StateReady)
	}
	if info.Class != ClassUnknown {
		t.Errorf("class = %s, want %s", info.Class, ClassUnknown)
	}
	if info.Priority != PriorityLow {
		t.Errorf("priority = %s, want %s", info.Priority, PriorityLow)
	}
	if got := s.MetricsSnapshot().Spawned; got != 1 {
		t.Errorf("Spawned = %d, want 1", got)
	}
}

func TestScheduler_FirstTickDispatches(t *testing.T) {
	s := newTestScheduler(t, testConfig())
	pid := mustSpawn(t, s, Image{Name: "init", Entry: 0x4000}, nil)

	s.Tick()

	info := mustInfo(t, s, pid)
	if info.State != StateRunning {
		t.Fatalf("state = %s, want %s", info.State, StateRunning)
	}
	if info.Core != 0 {
		t.Errorf("core = %d, want 0", info.Core)
	}
	rep := s.Report()
	if rep.Running[0] != pid {
		t.Errorf("Running[0] = %d, want %d", rep.Running[0], pid)
	}
	if rep.Metrics.Decisions != 1 || rep.Metrics.ContextSwitches != 1 {
		t.Errorf("decisions=%d switches=%d, want 1 and 1",
			rep.Metrics.Decisions, rep.Metrics.ContextSwitches)
	}
}

func TestScheduler_SoleProcessIsNotSelfPreempted(t *testing.T) {
	cfg := testConfig()
	cfg.Quantum = 2
	s := newTestScheduler(t, cfg)
	pid := mustSpawn(t, s, Image{Name: "solo", Entry: 0x4000}, nil)

	tickN(s, 20)

	info := mustInfo(t, s, pid)
	if info.State != StateRunning {
		t.Errorf("state = %s, want still %s", info.State, StateRunning)
	}
	if got := s.MetricsSnapshot().ContextSwitches; got != 1 {
		t.Errorf("ContextSwitches = %d, want 1 (no pointless rotation)", got)
	}
}

func TestScheduler_RoundRobinRotation(t *testing.T) {
	// GIVEN three always-ready processes sharing one core
	cfg := testConfig()
	cfg.Quantum = 2
	s := newTestScheduler(t, cfg)
	a := mustSpawn(t, s, Image{Name: "a", Entry: 0x4000}, nil)
	b := mustSpawn(t, s, Image{Name: "b", Entry: 0x4000}, nil)
	c := mustSpawn(t, s, Image{Name: "c", Entry: 0x4000}, nil)

	// WHEN six slices elapse
	tickN(s, 11)

	// THEN dispatches cycle a,b,c,a,b,c: each selected once per three
	// consecutive decisions
	rep := s.Report()
	if len(rep.Decisions) != 6 {
		t.Fatalf("got %d decisions, want 6", len(rep.Decisions))
	}
	for start := 0; start+3 <= len(rep.Decisions); start += 3 {
		window := map[uint64]bool{}
		for _, rec := range rep.Decisions[start : start+3] {
			window[rec.Process] = true
		}
		for _, pid := range []ProcessID{a, b, c} {
			if !window[uint64(pid)] {
				t.Errorf("window at %d misses pid %d: %v", start, pid, window)
			}
		}
	}
	for _, rec := range rep.Decisions {
		if rec.Policy != string(PolicyRoundRobin) {
			t.Errorf("decision policy = %q, want %q", rec.Policy, PolicyRoundRobin)
		}
		if rec.Confidence != 1.0 {
			t.Errorf("confidence = %v, want 1.0", rec.Confidence)
		}
	}
}

func TestScheduler_PriorityPolicyStarvesLowerClasses(t *testing.T) {
	cfg := testConfig()
	cfg.Quantum = 2
	cfg.Bundle = PolicyBundle{Policy: string(PolicyPriority)}
	s := newTestScheduler(t, cfg)
	rt := mustSpawn(t, s, Image{Name: "rt", Entry: 0x4000, Class: ClassRealTime, Privileged: true}, nil)
	b1 := mustSpawn(t, s, Image{Name: "batch-1", Entry: 0x4000, Class: ClassBatch}, nil)
	b2 := mustSpawn(t, s, Image{Name: "batch-2", Entry: 0x4000, Class: ClassBatch}, nil)

	tickN(s, 20)

	if got := mustInfo(t, s, rt).Stats.CPUTicks; got == 0 {
		t.Error("realtime process got no CPU")
	}
	for _, pid := range []ProcessID{b1, b2} {
		if got := mustInfo(t, s, pid).Stats.CPUTicks; got != 0 {
			t.Errorf("batch pid %d got %d CPU ticks while realtime ready; strict priority carries no starvation protection", pid, got)
		}
	}
	for _, rec := range s.Report().Decisions {
		if rec.Process != uint64(rt) {
			t.Errorf("decision dispatched %d, want realtime %d", rec.Process, rt)
		}
	}
}

func TestScheduler_TerminateIsIdempotentAndReaps(t *testing.T) {
	cfg := testConfig()
	cfg.MaxProcesses = 1
	cfg.AddressSpaces = 1
	cfg.ReapAfter = 2
	s := newTestScheduler(t, cfg)
	a := mustSpawn(t, s, Image{Name: "a", Entry: 0x4000}, nil)

	if _, err := s.Spawn(Image{Name: "b", Entry: 0x4000}, nil, nil); !errors.Is(err, ErrResourceLimitExceeded) {
		t.Fatalf("Spawn on full table = %v, want ErrResourceLimitExceeded", err)
	}

	if err := s.Terminate(a, 7); err != nil {
		t.Fatalf("Terminate: %v", err)
	}
	// Repeated termination within the linger window reports success and
	// changes nothing.
	if err := s.Terminate(a, 9); err != nil {
		t.Fatalf("repeated Terminate: %v", err)
	}
	info := mustInfo(t, s, a)
	if info.Exit.Code != 7 || info.Exit.Cause != ExitNormal {
		t.Errorf("exit = %+v, want code 7 cause normal", info.Exit)
	}
	if got := s.MetricsSnapshot().Terminated; got != 1 {
		t.Errorf("Terminated = %d, want 1", got)
	}

	// The slot lingers, so the table is still full.
	if _, err := s.Spawn(Image{Name: "c", Entry: 0x4000}, nil, nil); !errors.Is(err, ErrResourceLimitExceeded) {
		t.Fatalf("Spawn during linger = %v, want ErrResourceLimitExceeded", err)
	}

	tickN(s, 3) // linger expires, slot and address space come back

	if got := s.MetricsSnapshot().Reaped; got != 1 {
		t.Errorf("Reaped = %d, want 1", got)
	}
	if _, err := s.Spawn(Image{Name: "d", Entry: 0x4000}, nil, nil); err != nil {
		t.Fatalf("Spawn after reap: %v", err)
	}
	if err := s.Terminate(a, 0); !errors.Is(err, ErrProcessNotFound) {
		t.Errorf("Terminate on reaped handle = %v, want ErrProcessNotFound", err)
	}
}

func TestScheduler_SpawnValidation(t *testing.T) {
	cfg := testConfig()
	cfg.MaxProcesses = 4
	cfg.AddressSpaces = 1
	s := newTestScheduler(t, cfg)

	tests := []struct {
		name    string
		img     Image
		profile *sandbox.Profile
		want    error
	}{
		{"empty name", Image{Entry: 0x4000}, nil, ErrInvalidImage},
		{"zero entry", Image{Name: "x"}, nil, ErrInvalidImage},
		{"negative stack", Image{Name: "x", Entry: 0x4000, StackSize: -1}, nil, ErrInvalidImage},
		{"oversized stack", Image{Name: "x", Entry: 0x4000, StackSize: MaxStackSize + 1}, nil, ErrInvalidImage},
		{"unknown class", Image{Name: "x", Entry: 0x4000, Class: "quantum"}, nil, ErrInvalidImage},
		{"bad profile", Image{Name: "x", Entry: 0x4000}, &sandbox.Profile{TimeBudget: -1}, ErrInvalidImage},
		{"unprivileged realtime", Image{Name: "x", Entry: 0x4000, Class: ClassRealTime}, nil, ErrPermissionDenied},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := s.Spawn(tt.img, nil, tt.profile); !errors.Is(err, tt.want) {
				t.Errorf("Spawn = %v, want %v", err, tt.want)
			}
		})
	}

	// Rejections consumed no resources.
	mustSpawn(t, s, Image{Name: "ok", Entry: 0x4000}, nil)
	if _, err := s.Spawn(Image{Name: "starved", Entry: 0x4000}, nil, nil); !errors.Is(err, ErrOutOfMemory) {
		t.Errorf("Spawn with exhausted spaces = %v, want ErrOutOfMemory", err)
	}
}

func TestScheduler_SandboxBudgetEnforcedAtDeadline(t *testing.T) {
	cfg := testConfig()
	cfg.Quantum = 100
	s := newTestScheduler(t, cfg)
	pid := mustSpawn(t, s, Image{Name: "jailed", Entry: 0x4000},
		&sandbox.Profile{NetworkIsolated: true, TimeBudget: 5})

	tickN(s, 3)
	info := mustInfo(t, s, pid)
	if info.State != StateSandboxed {
		t.Errorf("reported state = %s, want %s", info.State, StateSandboxed)
	}
	if info.Phase != StateRunning {
		t.Errorf("phase = %s, want %s", info.Phase, StateRunning)
	}

	tickN(s, 2) // wall ticks now equal the budget; still within it
	if got := mustInfo(t, s, pid); got.State == StateTerminated {
		t.Fatal("terminated at the budget boundary; budget T allows T elapsed ticks")
	}

	s.Tick() // budget exceeded: killed at tick T+1, never later
	info = mustInfo(t, s, pid)
	if info.State != StateTerminated {
		t.Fatalf("state = %s, want %s", info.State, StateTerminated)
	}
	if info.Exit.Cause != ExitSandboxTimeout {
		t.Errorf("exit cause = %s, want %s", info.Exit.Cause, ExitSandboxTimeout)
	}
	if got := s.MetricsSnapshot().SandboxTimeouts; got != 1 {
		t.Errorf("SandboxTimeouts = %d, want 1", got)
	}
}

func TestScheduler_ViolationRevokesSandboxedOnly(t *testing.T) {
	s := newTestScheduler(t, testConfig())
	plain := mustSpawn(t, s, Image{Name: "plain", Entry: 0x4000}, nil)
	jailed := mustSpawn(t, s, Image{Name: "jailed", Entry: 0x4000},
		&sandbox.Profile{OperationAllowlist: []string{"read"}})

	if err := s.ReportViolation(plain, "net.connect"); !errors.Is(err, ErrSandboxViolation) {
		t.Errorf("violation on plain process = %v, want ErrSandboxViolation", err)
	}
	if got := mustInfo(t, s, plain); got.State == StateTerminated {
		t.Error("plain process was terminated by a misdirected violation")
	}

	if err := s.ReportViolation(jailed, "net.connect"); err != nil {
		t.Fatalf("ReportViolation: %v", err)
	}
	info := mustInfo(t, s, jailed)
	if info.State != StateTerminated || info.Exit.Cause != ExitSandboxViolation {
		t.Errorf("state=%s cause=%s, want terminated by violation", info.State, info.Exit.Cause)
	}
	if got := s.MetricsSnapshot().SandboxViolations; got != 1 {
		t.Errorf("SandboxViolations = %d, want 1", got)
	}

	// Revoking an already-dead process is satisfied trivially.
	if err := s.ReportViolation(jailed, "write"); err != nil {
		t.Errorf("violation on terminated process = %v, want nil", err)
	}
	if got := s.MetricsSnapshot().Terminated; got != 1 {
		t.Errorf("Terminated = %d, want 1", got)
	}
}

func TestScheduler_SleepBlocksAndTimerWakes(t *testing.T) {
	cfg := testConfig()
	cfg.Quantum = 100
	s := newTestScheduler(t, cfg)
	a := mustSpawn(t, s, Image{Name: "a", Entry: 0x4000}, nil)
	b := mustSpawn(t, s, Image{Name: "b", Entry: 0x4000}, nil)

	s.Tick() // a dispatched
	if err := s.Sleep(a, 3); err != nil {
		t.Fatalf("Sleep: %v", err)
	}
	if got := mustInfo(t, s, a); got.State != StateBlocked {
		t.Fatalf("state after Sleep = %s, want %s", got.State, StateBlocked)
	}

	s.Tick() // freed core goes to b
	if got := mustInfo(t, s, b); got.State != StateRunning {
		t.Errorf("b state = %s, want %s", got.State, StateRunning)
	}

	tickN(s, 2) // wake tick reached
	if got := mustInfo(t, s, a); got.State != StateReady {
		t.Errorf("a state after deadline = %s, want %s", got.State, StateReady)
	}
	if got := s.MetricsSnapshot().Wakeups; got != 1 {
		t.Errorf("Wakeups = %d, want 1", got)
	}
}

func TestScheduler_SleepValidation(t *testing.T) {
	s := newTestScheduler(t, testConfig())
	a := mustSpawn(t, s, Image{Name: "a", Entry: 0x4000}, nil)

	if err := s.Sleep(a, 0); err == nil {
		t.Error("Sleep(0) accepted")
	}
	if err := s.Sleep(a, -4); err == nil {
		t.Error("negative Sleep accepted")
	}
	if err := s.Sleep(makePID(9, 9), 5); !errors.Is(err, ErrProcessNotFound) {
		t.Errorf("Sleep on unknown pid = %v, want ErrProcessNotFound", err)
	}
}

func TestScheduler_EarlyUnblockCancelsWakeupLazily(t *testing.T) {
	cfg := testConfig()
	cfg.Quantum = 100
	s := newTestScheduler(t, cfg)
	a := mustSpawn(t, s, Image{Name: "a", Entry: 0x4000}, nil)
	mustSpawn(t, s, Image{Name: "b", Entry: 0x4000}, nil)

	s.Tick()
	if err := s.Sleep(a, 5); err != nil {
		t.Fatalf("Sleep: %v", err)
	}
	if err := s.Unblock(a); err != nil {
		t.Fatalf("Unblock: %v", err)
	}

	tickN(s, 8) // run well past the abandoned deadline

	if got := s.MetricsSnapshot().Wakeups; got != 0 {
		t.Errorf("Wakeups = %d, want 0 (stale wakeup must be dropped)", got)
	}
	// The early unblock must not leave a second queue entry behind.
	s.mu.RLock()
	occurrences := 0
	for _, class := range PriorityClasses() {
		for _, pid := range s.queues.Class(class) {
			if pid == a {
				occurrences++
			}
		}
	}
	s.mu.RUnlock()
	if occurrences > 1 {
		t.Errorf("pid %d queued %d times", a, occurrences)
	}
}

func TestScheduler_DebugParksAndResumes(t *testing.T) {
	s := newTestScheduler(t, testConfig())
	a := mustSpawn(t, s, Image{Name: "a", Entry: 0x4000}, nil)

	tickN(s, 2) // dispatch, then one accounted busy tick
	before := mustInfo(t, s, a).Stats.CPUTicks

	if err := s.EnterDebug(a); err != nil {
		t.Fatalf("EnterDebug: %v", err)
	}
	if got := mustInfo(t, s, a); got.State != StateDebug {
		t.Fatalf("state = %s, want %s", got.State, StateDebug)
	}
	if err := s.EnterDebug(a); err != nil {
		t.Errorf("repeated EnterDebug = %v, want nil", err)
	}

	tickN(s, 3)
	if got := mustInfo(t, s, a).Stats.CPUTicks; got != before {
		t.Errorf("CPU ticks advanced to %d in debug, want frozen at %d", got, before)
	}

	if err := s.ExitDebug(a); err != nil {
		t.Fatalf("ExitDebug: %v", err)
	}
	s.Tick()
	if got := mustInfo(t, s, a); got.State != StateRunning {
		t.Errorf("state after resume = %s, want %s", got.State, StateRunning)
	}
	if err := s.ExitDebug(a); err == nil {
		t.Error("ExitDebug on a running process accepted")
	}
}

func TestScheduler_AffinitySteersDispatch(t *testing.T) {
	cfg := testConfig()
	cfg.Cores = 4
	cfg.Quantum = 100
	s := newTestScheduler(t, cfg)
	a := mustSpawn(t, s, Image{Name: "a", Entry: 0x4000}, nil)
	if err := s.SetAffinity(a, 3); err != nil {
		t.Fatalf("SetAffinity: %v", err)
	}

	s.Tick()
	if got := mustInfo(t, s, a).Core; got != 3 {
		t.Errorf("dispatched on core %d, want affinity core 3", got)
	}

	// A second process preferring the now-busy core falls back to the least
	// loaded eligible one.
	b := mustSpawn(t, s, Image{Name: "b", Entry: 0x4000}, nil)
	if err := s.SetAffinity(b, 3); err != nil {
		t.Fatalf("SetAffinity: %v", err)
	}
	s.Tick()
	if got := mustInfo(t, s, b).Core; got == 3 {
		t.Error("dispatched onto an ineligible busy core")
	}

	if err := s.SetAffinity(a, 99); err == nil {
		t.Error("out-of-range core accepted")
	}
	if err := s.ClearAffinity(a); err != nil {
		t.Errorf("ClearAffinity: %v", err)
	}
}

func TestScheduler_ContextSurvivesSwitchesBitForBit(t *testing.T) {
	cfg := testConfig()
	cfg.Quantum = 1
	s := newTestScheduler(t, cfg)
	a := mustSpawn(t, s, Image{Name: "a", Entry: 0xA000}, nil)
	b := mustSpawn(t, s, Image{Name: "b", Entry: 0xB000}, nil)

	s.Tick() // a on core 0
	core := s.cores.Core(0)
	if core.Registers().IP != 0xA000 {
		t.Fatalf("core IP = %#x, want a's entry", core.Registers().IP)
	}
	// Simulate execution mutating live register state.
	core.Registers().GPR[5] = 0xDEAD
	core.Registers().Flags = 0x2

	s.Tick() // quantum expired: b switched in, a's context saved
	aProc, err := s.table.Lookup(a)
	if err != nil {
		t.Fatal(err)
	}
	if aProc.Context.Regs.GPR[5] != 0xDEAD || aProc.Context.Regs.Flags != 0x2 {
		t.Errorf("saved context = GPR5 %#x flags %#x, want mutated values",
			aProc.Context.Regs.GPR[5], aProc.Context.Regs.Flags)
	}
	if core.Registers().IP != 0xB000 {
		t.Errorf("core IP = %#x, want b's entry", core.Registers().IP)
	}
	if core.Registers().GPR[5] != 0 {
		t.Errorf("b inherited GPR5 %#x from a", core.Registers().GPR[5])
	}
	saved := aProc.Context.Regs

	s.Tick() // a switched back in
	if *core.Registers() != saved {
		t.Errorf("restored registers differ from saved context:\ngot  %+v\nwant %+v",
			*core.Registers(), saved)
	}
	bProc, err := s.table.Lookup(b)
	if err != nil {
		t.Fatal(err)
	}
	if bProc.Context.Regs.IP != 0xB000 {
		t.Errorf("b context IP = %#x, want %#x", bProc.Context.Regs.IP, 0xB000)
	}
	if core.ActiveRoot() != aProc.Space.Root() {
		t.Errorf("active root = %d, want a's space root %d", core.ActiveRoot(), aProc.Space.Root())
	}
}

func TestScheduler_ReclassificationPromotesInteractive(t *testing.T) {
	cfg := testConfig()
	cfg.Quantum = 100
	cfg.ReclassifyEvery = 4
	s := newTestScheduler(t, cfg)
	runner := mustSpawn(t, s, Image{Name: "runner", Entry: 0x4000}, nil)
	lurker := mustSpawn(t, s, Image{Name: "lurker", Entry: 0x4000}, nil)

	for i := 0; i < 4; i++ {
		if err := s.RecordUsage(lurker, 25, 22); err != nil {
			t.Fatalf("RecordUsage: %v", err)
		}
	}
	tickN(s, 4) // reclassification boundary

	info := mustInfo(t, s, lurker)
	if info.Class != ClassInteractive {
		t.Errorf("class = %s, want %s", info.Class, ClassInteractive)
	}
	if info.Priority != PriorityHigh {
		t.Errorf("priority = %s, want %s", info.Priority, PriorityHigh)
	}
	if got := s.MetricsSnapshot().Reclassifications; got != 1 {
		t.Errorf("Reclassifications = %d, want 1", got)
	}
	// The runner never reported usage and keeps its admission class.
	if got := mustInfo(t, s, runner).Class; got != ClassUnknown {
		t.Errorf("runner class = %s, want %s", got, ClassUnknown)
	}
}

func TestScheduler_CloseTerminatesEverything(t *testing.T) {
	s := newTestScheduler(t, testConfig())
	mustSpawn(t, s, Image{Name: "a", Entry: 0x4000}, nil)
	mustSpawn(t, s, Image{Name: "b", Entry: 0x4000}, nil)
	tickN(s, 2)

	if err := s.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if got := s.MetricsSnapshot().Terminated; got != 2 {
		t.Errorf("Terminated = %d, want 2", got)
	}
	if _, err := s.Spawn(Image{Name: "late", Entry: 0x4000}, nil, nil); !errors.Is(err, ErrSchedulerClosed) {
		t.Errorf("Spawn after Close = %v, want ErrSchedulerClosed", err)
	}

	tick := s.CurrentTick()
	s.Tick()
	if got := s.CurrentTick(); got != tick {
		t.Errorf("tick advanced to %d after Close", got)
	}
	if err := s.Close(); err != nil {
		t.Errorf("repeated Close = %v, want nil", err)
	}
}

func TestScheduler_ReportSnapshot(t *testing.T) {
	cfg := testConfig()
	cfg.Cores = 2
	s := newTestScheduler(t, cfg)
	mustSpawn(t, s, Image{Name: "a", Entry: 0x4000}, nil)
	mustSpawn(t, s, Image{Name: "b", Entry: 0x4000}, nil)
	jailed := mustSpawn(t, s, Image{Name: "jailed", Entry: 0x4000},
		&sandbox.Profile{NetworkIsolated: true})
	tickN(s, 6)

	rep := s.Report()
	if rep.Tick != 6 {
		t.Errorf("Tick = %d, want 6", rep.Tick)
	}
	if rep.Policy != PolicyRoundRobin {
		t.Errorf("Policy = %s, want %s", rep.Policy, PolicyRoundRobin)
	}
	if len(rep.Processes) != 3 {
		t.Errorf("Processes = %d entries, want 3", len(rep.Processes))
	}
	if len(rep.CoreLoads) != 2 || len(rep.Running) != 2 {
		t.Errorf("core vectors sized %d/%d, want 2/2", len(rep.CoreLoads), len(rep.Running))
	}
	if len(rep.Decisions) == 0 {
		t.Error("no decisions in report")
	}
	found := false
	for _, p := range rep.Processes {
		if p.ID == jailed {
			found = true
			if !p.Sandboxed || p.State != StateSandboxed {
				t.Errorf("jailed reported %+v, want sandboxed overlay", p)
			}
		}
	}
	if !found {
		t.Error("jailed process missing from report")
	}

	sum := s.Summary()
	if sum.TotalDecisions == 0 || sum.Retained == 0 {
		t.Errorf("summary = %+v, want recorded decisions", sum)
	}
}

func TestScheduler_BlockedProcessSkipsDispatch(t *testing.T) {
	s := newTestScheduler(t, testConfig())
	a := mustSpawn(t, s, Image{Name: "a", Entry: 0x4000}, nil)
	b := mustSpawn(t, s, Image{Name: "b", Entry: 0x4000}, nil)

	if err := s.Block(a, "io"); err != nil {
		t.Fatalf("Block: %v", err)
	}
	s.Tick()
	if got := mustInfo(t, s, b).State; got != StateRunning {
		t.Errorf("b state = %s, want %s", got, StateRunning)
	}
	if got := mustInfo(t, s, a).State; got != StateBlocked {
		t.Errorf("a state = %s, want %s", got, StateBlocked)
	}

	if err := s.Unblock(a); err != nil {
		t.Fatalf("Unblock: %v", err)
	}
	if got := mustInfo(t, s, a).State; got != StateReady {
		t.Errorf("a state after Unblock = %s, want %s", got, StateReady)
	}
	// Unblocking a ready process changes nothing.
	if err := s.Unblock(a); err != nil {
		t.Errorf("repeated Unblock = %v, want nil", err)
	}
}

func TestScheduler_NewRejectsBadConfig(t *testing.T) {
	if _, err := New(Config{Cores: -1}); err == nil {
		t.Error("negative core count accepted")
	}
	if _, err := New(Config{Bundle: PolicyBundle{Policy: "lottery"}}); err == nil {
		t.Error("unknown policy accepted")
	}
	if _, err := NewWithArch(DefaultConfig(), nil); err == nil {
		t.Error("nil arch accepted")
	}
}

func TestScheduler_PredictivePolicyEndToEnd(t *testing.T) {
	cfg := testConfig()
	cfg.Bundle = PolicyBundle{Policy: string(PolicyPredictive)}
	s := newTestScheduler(t, cfg)
	blind := mustSpawn(t, s, Image{Name: "blind", Entry: 0x4000}, nil)
	seen := mustSpawn(t, s, Image{Name: "seen", Entry: 0x4000}, nil)
	s.UsePredictions(StaticPredictions{
		seen: {CPU: 30, Memory: 30, ExecTicks: 8},
	})

	s.Tick()

	if got := mustInfo(t, s, seen).State; got != StateRunning {
		t.Errorf("forecast process state = %s, want %s", got, StateRunning)
	}
	if got := mustInfo(t, s, blind).State; got != StateReady {
		t.Errorf("unforecast process state = %s, want %s (skipped)", got, StateReady)
	}
	rep := s.Report()
	if len(rep.Decisions) != 1 {
		t.Fatalf("decisions = %d, want 1", len(rep.Decisions))
	}
	if rep.Decisions[0].PredictedTicks != 8 {
		t.Errorf("predicted ticks = %d, want 8", rep.Decisions[0].PredictedTicks)
	}
	if rep.LastPolicy != PolicyPredictive {
		t.Errorf("last policy = %s, want %s", rep.LastPolicy, PolicyPredictive)
	}
}
