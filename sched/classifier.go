package sched

// ClassifierConfig holds the sampling window and decision thresholds for
// workload classification. All thresholds are percentages in [0, 100].
type ClassifierConfig struct {
	WindowSize int `yaml:"window_size"` // samples retained per process
	MinSamples int `yaml:"min_samples"` // below this, classification is unknown

	CPUBoundCPU   float64 `yaml:"cpu_bound_cpu"`   // mean CPU above
	CPUBoundIO    float64 `yaml:"cpu_bound_io"`    // and mean IO below
	IOBoundCPU    float64 `yaml:"io_bound_cpu"`    // mean CPU below
	IOBoundIO     float64 `yaml:"io_bound_io"`     // and mean IO above
	InteractiveHi float64 `yaml:"interactive_hi"`  // both means below
	MixedCPU      float64 `yaml:"mixed_cpu"`       // mean CPU above
	MixedIO       float64 `yaml:"mixed_io"`        // and mean IO above
}

// DefaultClassifierConfig returns the stock thresholds.
func DefaultClassifierConfig() ClassifierConfig {
	return ClassifierConfig{
		WindowSize:    16,
		MinSamples:    4,
		CPUBoundCPU:   80,
		CPUBoundIO:    20,
		IOBoundCPU:    30,
		IOBoundIO:     60,
		InteractiveHi: 50,
		MixedCPU:      60,
		MixedIO:       40,
	}
}

// Classifier derives workload classes from recent usage samples. It is a
// pure function of the sample window plus thresholds; it never blocks and
// reads only resident data.
type Classifier struct {
	cfg ClassifierConfig
}

func NewClassifier(cfg ClassifierConfig) *Classifier {
	if cfg.WindowSize <= 0 {
		cfg.WindowSize = DefaultClassifierConfig().WindowSize
	}
	if cfg.MinSamples <= 0 {
		cfg.MinSamples = DefaultClassifierConfig().MinSamples
	}
	return &Classifier{cfg: cfg}
}

func (c *Classifier) Config() ClassifierConfig { return c.cfg }

// Classify computes the workload class for one process. Admission-declared
// real-time and signal-sensitive classes are sticky: usage samples never
// reclassify them. With fewer than MinSamples observations the class is
// unknown.
func (c *Classifier) Classify(declared Class, ring *sampleRing) Class {
	if declared == ClassRealTime || declared == ClassSignalSensitive {
		return declared
	}
	if ring == nil || ring.len() < c.cfg.MinSamples {
		return ClassUnknown
	}

	cpuMean, ioMean := ring.means()
	switch {
	case cpuMean > c.cfg.CPUBoundCPU && ioMean < c.cfg.CPUBoundIO:
		return ClassCPUBound
	case cpuMean < c.cfg.IOBoundCPU && ioMean > c.cfg.IOBoundIO:
		return ClassIOBound
	case cpuMean < c.cfg.InteractiveHi && ioMean < c.cfg.InteractiveHi:
		return ClassInteractive
	case cpuMean > c.cfg.MixedCPU && ioMean > c.cfg.MixedIO:
		return ClassMixed
	default:
		return ClassBatch
	}
}

// Recommend derives the priority class for a workload class:
// real-time work runs at Realtime, interactive at High, CPU-bound and mixed
// at Normal, everything else at Low.
func Recommend(class Class) PriorityClass {
	switch class {
	case ClassRealTime:
		return PriorityRealtime
	case ClassInteractive:
		return PriorityHigh
	case ClassCPUBound, ClassMixed:
		return PriorityNormal
	default:
		return PriorityLow
	}
}
