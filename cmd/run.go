package cmd

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"sort"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/coresched/coresched/sched"
	"github.com/coresched/coresched/tracing"
)

var (
	seed        int64   // Seed for workload generation
	horizon     int64   // Total ticks to drive
	cores       int     // Number of execution cores
	maxProcs    int     // Process table capacity
	quantum     int64   // Ticks per time slice
	historySize int     // Retained scheduling decisions
	policyName  string  // Scheduling policy name
	bundleFile  string  // YAML policy bundle path
	workload    string  // YAML archetype list path
	signalValue float64 // System-wide advisory signal
	traceFile   string  // Span output file; empty disables tracing
)

// opProbeEvery is the tick period at which sandboxed processes attempt a
// privileged operation, exercising the resource-access revocation hook.
const opProbeEvery = 64

// runCmd drives a synthetic workload through the scheduler in virtual time
var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the scheduler against a synthetic workload",
	Run: func(cmd *cobra.Command, args []string) {
		settings, err := LoadSettings(configFile)
		if err != nil {
			logrus.Fatalf("Unable to load settings: %v", err)
		}
		applyFlagOverrides(cmd, &settings)

		if settings.TraceFile != "" {
			if err := tracing.Init("coresched", "dev", settings.TraceFile); err != nil {
				logrus.Fatalf("Unable to initialise tracing: %v", err)
			}
		}

		bundle := sched.PolicyBundle{Policy: settings.Policy}
		if settings.PolicyBundle != "" {
			loaded, err := sched.LoadPolicyBundle(settings.PolicyBundle)
			if err != nil {
				logrus.Fatalf("Unable to load policy bundle: %v", err)
			}
			bundle = *loaded
		}
		if err := bundle.Validate(); err != nil {
			logrus.Fatalf("Invalid policy bundle: %v", err)
		}

		archetypes := sched.DefaultWorkload()
		if settings.Workload != "" {
			archetypes, err = LoadWorkload(settings.Workload)
			if err != nil {
				logrus.Fatalf("Unable to load workload: %v", err)
			}
		}

		cfg := sched.Config{
			Cores:        settings.Cores,
			MaxProcesses: settings.MaxProcesses,
			Quantum:      settings.Quantum,
			HistorySize:  settings.HistorySize,
			Seed:         settings.Seed,
			Bundle:       bundle,
		}
		s, err := sched.New(cfg)
		if err != nil {
			logrus.Fatalf("Unable to construct scheduler: %v", err)
		}
		defer s.Close()

		logrus.Infof("Starting run: policy=%s cores=%d quantum=%d horizon=%d seed=%d",
			s.ActivePolicy(), settings.Cores, settings.Quantum, settings.Horizon, settings.Seed)

		startTime := time.Now()
		ctx, span := tracing.StartSpan(context.Background(), "coresched.run")
		span.WithAttributes(map[string]string{
			"policy": string(s.ActivePolicy()),
			"seed":   fmt.Sprintf("%d", settings.Seed),
		})

		err = driveWorkload(ctx, s, archetypes, settings)
		tracing.EndSpan(span, err)
		if err != nil {
			logrus.Fatalf("Run failed: %v", err)
		}

		s.PrintMetrics()
		printSummary(s)
		logrus.Infof("Run complete in %v.", time.Since(startTime))
	},
}

// liveProc tracks one admitted process across the drive loop.
type liveProc struct {
	pid       sched.ProcessID
	plan      sched.SpawnPlan
	spawnedAt int64
}

// driveWorkload admits the planned processes on schedule and advances virtual
// time tick by tick, feeding usage samples, sleep phases, self-terminations
// and sandbox operation probes back into the scheduler. Admissions are
// annotated as child spans of the run span.
func driveWorkload(ctx context.Context, s *sched.Scheduler, archetypes []sched.Archetype, settings Settings) error {
	plans, err := sched.GeneratePlan(archetypes, settings.Seed)
	if err != nil {
		return fmt.Errorf("workload plan: %w", err)
	}
	sampleRNG := sched.NewPartitionedRNG(sched.RunKey(settings.Seed)).ForSubsystem(sched.SubsystemSamples)

	preds := sched.StaticPredictions{}
	s.UsePredictions(preds)
	s.UseSignals(sched.StaticSignal{System: settings.Signal})

	var live []*liveProc
	next := 0
	for tick := int64(0); tick < settings.Horizon; tick++ {
		for next < len(plans) && plans[next].AtTick <= tick {
			plan := plans[next]
			next++
			_, span := tracing.StartSpan(ctx, "coresched.spawn")
			pid, err := s.Spawn(plan.Image, plan.Args, plan.Profile)
			span.WithAttributes(map[string]string{
				"image":     plan.Image.Name,
				"sandboxed": fmt.Sprintf("%t", plan.Profile != nil),
			})
			tracing.EndSpan(span, err)
			if err != nil {
				logrus.Warnf("spawn %q failed: %v", plan.Image.Name, err)
				continue
			}
			preds[pid] = planPrediction(plan, settings.Quantum)
			live = append(live, &liveProc{pid: pid, plan: plan, spawnedAt: tick})
		}

		live = stepLive(s, live, tick, sampleRNG)
		s.Tick()
	}
	return nil
}

// stepLive applies one tick of driver-side behavior to every admitted
// process and compacts the terminated ones out of the slice.
func stepLive(s *sched.Scheduler, live []*liveProc, tick int64, rng *rand.Rand) []*liveProc {
	kept := live[:0]
	for _, lp := range live {
		age := tick - lp.spawnedAt
		if lp.plan.LifeTicks > 0 && age >= lp.plan.LifeTicks {
			if err := s.Terminate(lp.pid, 0); err != nil {
				logrus.Warnf("terminate pid=%d: %v", lp.pid, err)
			}
			continue
		}
		sample := lp.plan.SampleUsage(rng)
		if err := s.RecordUsage(lp.pid, sample.CPU, sample.IO); err != nil {
			if errors.Is(err, sched.ErrProcessNotFound) {
				continue // sandbox enforcement got there first
			}
			logrus.Warnf("record usage pid=%d: %v", lp.pid, err)
		}
		if lp.plan.SleepEvery > 0 && age > 0 && age%lp.plan.SleepEvery == 0 {
			if err := s.Sleep(lp.pid, lp.plan.SleepTicks); err != nil && !errors.Is(err, sched.ErrProcessNotFound) {
				logrus.Warnf("sleep pid=%d: %v", lp.pid, err)
			}
		}
		// Sandboxed processes periodically attempt a write, standing in for
		// the resource-access layer's enforcement callback.
		if lp.plan.Profile != nil && age > 0 && age%opProbeEvery == 0 {
			if !lp.plan.Profile.AllowsOperation("write") {
				if err := s.ReportViolation(lp.pid, "write"); err != nil && !errors.Is(err, sched.ErrProcessNotFound) {
					logrus.Warnf("report violation pid=%d: %v", lp.pid, err)
				}
				continue
			}
		}
		kept = append(kept, lp)
	}
	return kept
}

// planPrediction derives the performance forecast the predictive policy sees
// for a planned process. Processes that run forever forecast a long slice
// multiple instead.
func planPrediction(plan sched.SpawnPlan, quantum int64) sched.Prediction {
	execTicks := plan.LifeTicks
	if execTicks <= 0 {
		execTicks = quantum * 16
	}
	return sched.Prediction{
		CPU:       plan.CPUPct,
		Memory:    (plan.CPUPct + plan.IOPct) / 2,
		ExecTicks: execTicks,
	}
}

// printSummary writes the decision-history aggregate block to stdout.
func printSummary(s *sched.Scheduler) {
	sum := s.Summary()
	fmt.Println("=== Decision Summary ===")
	fmt.Printf("Total Decisions      : %d\n", sum.TotalDecisions)
	fmt.Printf("Retained             : %d\n", sum.Retained)
	fmt.Printf("Unique Processes     : %d\n", sum.UniqueProcesses)
	fmt.Printf("Mean Confidence      : %.3f\n", sum.MeanConfidence)
	fmt.Printf("Mean Predicted Ticks : %.1f\n", sum.MeanPredictedTicks)

	policies := make([]string, 0, len(sum.PolicyDistribution))
	for name := range sum.PolicyDistribution {
		policies = append(policies, name)
	}
	sort.Strings(policies)
	for _, name := range policies {
		fmt.Printf("  policy %-16s: %d\n", name, sum.PolicyDistribution[name])
	}
	coreIDs := make([]int, 0, len(sum.CoreDistribution))
	for id := range sum.CoreDistribution {
		coreIDs = append(coreIDs, id)
	}
	sort.Ints(coreIDs)
	for _, id := range coreIDs {
		fmt.Printf("  core %d              : %d\n", id, sum.CoreDistribution[id])
	}
}

// applyFlagOverrides copies explicitly set CLI flags over the viper-resolved
// settings, keeping flags the highest-precedence layer.
func applyFlagOverrides(cmd *cobra.Command, s *Settings) {
	if cmd.Flags().Changed("seed") {
		s.Seed = seed
	}
	if cmd.Flags().Changed("horizon") {
		s.Horizon = horizon
	}
	if cmd.Flags().Changed("cores") {
		s.Cores = cores
	}
	if cmd.Flags().Changed("max-processes") {
		s.MaxProcesses = maxProcs
	}
	if cmd.Flags().Changed("quantum") {
		s.Quantum = quantum
	}
	if cmd.Flags().Changed("history-size") {
		s.HistorySize = historySize
	}
	if cmd.Flags().Changed("policy") {
		s.Policy = policyName
	}
	if cmd.Flags().Changed("policy-bundle") {
		s.PolicyBundle = bundleFile
	}
	if cmd.Flags().Changed("workload") {
		s.Workload = workload
	}
	if cmd.Flags().Changed("signal") {
		s.Signal = signalValue
	}
	if cmd.Flags().Changed("trace-file") {
		s.TraceFile = traceFile
	}
}

func init() {
	runCmd.Flags().Int64Var(&seed, "seed", 42, "Seed for workload generation")
	runCmd.Flags().Int64Var(&horizon, "horizon", 1000, "Total ticks to drive")
	runCmd.Flags().IntVar(&cores, "cores", 4, "Number of execution cores")
	runCmd.Flags().IntVar(&maxProcs, "max-processes", 256, "Process table capacity")
	runCmd.Flags().Int64Var(&quantum, "quantum", 4, "Ticks per time slice")
	runCmd.Flags().IntVar(&historySize, "history-size", 1024, "Retained scheduling decisions")
	runCmd.Flags().StringVar(&policyName, "policy", "round-robin", "Scheduling policy (see `coresched policies`)")
	runCmd.Flags().StringVar(&bundleFile, "policy-bundle", "", "YAML policy bundle (overrides --policy)")
	runCmd.Flags().StringVar(&workload, "workload", "", "YAML workload archetypes (default: built-in mix)")
	runCmd.Flags().Float64Var(&signalValue, "signal", 0.35, "System-wide advisory signal in [0,1]")
	runCmd.Flags().StringVar(&traceFile, "trace-file", "", "Write OpenTelemetry spans to this file")

	rootCmd.AddCommand(runCmd)
}
