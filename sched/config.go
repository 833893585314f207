package sched

import "fmt"

// Stack sizing bounds applied at admission. A zero Image.StackSize picks the
// default; anything outside (0, MaxStackSize] is an invalid image.
const (
	DefaultStackSize = 1 << 20   // 1 MiB
	MaxStackSize     = 256 << 20 // 256 MiB
)

// Config is the scheduler construction configuration. Zero fields fall back
// to the defaults; Validate rejects nonsensical combinations.
type Config struct {
	Cores         int   `yaml:"cores"`
	MaxProcesses  int   `yaml:"max_processes"`
	AddressSpaces int   `yaml:"address_spaces"` // 0 means MaxProcesses
	Quantum       int64 `yaml:"quantum"`        // ticks per time slice
	HistorySize   int   `yaml:"history_size"`   // retained scheduling decisions

	// ReapAfter is how many ticks a terminated descriptor stays visible in
	// the table before its slot is reclaimed. Within that window a repeated
	// Terminate still reports success.
	ReapAfter int64 `yaml:"reap_after"`

	// ReclassifyEvery is the tick period of the classification refresh.
	ReclassifyEvery int64 `yaml:"reclassify_every"`

	Seed       int64            `yaml:"seed"`
	Bundle     PolicyBundle     `yaml:"bundle"`
	Classifier ClassifierConfig `yaml:"classifier"`
}

// DefaultConfig returns a runnable single-socket configuration.
func DefaultConfig() Config {
	return Config{
		Cores:           4,
		MaxProcesses:    256,
		Quantum:         4,
		HistorySize:     1024,
		ReapAfter:       128,
		ReclassifyEvery: 8,
		Classifier:      DefaultClassifierConfig(),
	}
}

// withDefaults fills unset fields from DefaultConfig.
func (c Config) withDefaults() Config {
	def := DefaultConfig()
	if c.Cores == 0 {
		c.Cores = def.Cores
	}
	if c.MaxProcesses == 0 {
		c.MaxProcesses = def.MaxProcesses
	}
	if c.AddressSpaces == 0 {
		c.AddressSpaces = c.MaxProcesses
	}
	if c.Quantum == 0 {
		c.Quantum = def.Quantum
	}
	if c.HistorySize == 0 {
		c.HistorySize = def.HistorySize
	}
	if c.ReapAfter == 0 {
		c.ReapAfter = def.ReapAfter
	}
	if c.ReclassifyEvery == 0 {
		c.ReclassifyEvery = def.ReclassifyEvery
	}
	if c.Classifier.WindowSize == 0 && c.Classifier.MinSamples == 0 {
		c.Classifier = def.Classifier
	}
	return c
}

// Validate checks the configuration after defaulting.
func (c Config) Validate() error {
	if c.Cores < 0 {
		return fmt.Errorf("cores must be non-negative, got %d", c.Cores)
	}
	if c.MaxProcesses < 0 {
		return fmt.Errorf("max_processes must be non-negative, got %d", c.MaxProcesses)
	}
	if c.AddressSpaces < 0 {
		return fmt.Errorf("address_spaces must be non-negative, got %d", c.AddressSpaces)
	}
	if c.Quantum < 0 {
		return fmt.Errorf("quantum must be non-negative, got %d", c.Quantum)
	}
	if c.ReapAfter < 0 {
		return fmt.Errorf("reap_after must be non-negative, got %d", c.ReapAfter)
	}
	if c.ReclassifyEvery < 0 {
		return fmt.Errorf("reclassify_every must be non-negative, got %d", c.ReclassifyEvery)
	}
	if err := c.Bundle.Validate(); err != nil {
		return err
	}
	return nil
}
