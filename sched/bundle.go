package sched

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// PolicyBundle holds the policy selection and its tunables, loadable from a
// YAML file. Nil pointer fields mean "not set in YAML" and fall back to the
// defaults; the empty policy name means round-robin.
type PolicyBundle struct {
	Policy      string              `yaml:"policy"`
	PredictiveK *float64            `yaml:"predictive_k"`
	Adaptive    *AdaptiveThresholds `yaml:"adaptive"`
}

// defaultPredictiveK weights the short-job term of the predictive score.
const defaultPredictiveK = 1.0

// LoadPolicyBundle reads and parses a YAML policy configuration file.
func LoadPolicyBundle(path string) (*PolicyBundle, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading policy config: %w", err)
	}
	var bundle PolicyBundle
	if err := yaml.Unmarshal(data, &bundle); err != nil {
		return nil, fmt.Errorf("parsing policy config: %w", err)
	}
	return &bundle, nil
}

// Validate checks that the policy name and parameter ranges are valid.
func (b *PolicyBundle) Validate() error {
	if !IsValidPolicy(b.Policy) {
		return fmt.Errorf("unknown scheduling policy %q", b.Policy)
	}
	if b.PredictiveK != nil && *b.PredictiveK < 0 {
		return fmt.Errorf("predictive_k must be non-negative, got %f", *b.PredictiveK)
	}
	if b.Adaptive != nil {
		if b.Adaptive.SignalAbove < 0 || b.Adaptive.SignalAbove > 1 {
			return fmt.Errorf("adaptive signal_above must be in [0,1], got %f", b.Adaptive.SignalAbove)
		}
		if b.Adaptive.CPUAbove < 0 || b.Adaptive.CPUAbove > 1 {
			return fmt.Errorf("adaptive cpu_above must be in [0,1], got %f", b.Adaptive.CPUAbove)
		}
		if b.Adaptive.InteractiveAbove < 0 || b.Adaptive.InteractiveAbove > 1 {
			return fmt.Errorf("adaptive interactive_above must be in [0,1], got %f", b.Adaptive.InteractiveAbove)
		}
	}
	return nil
}

func (b PolicyBundle) predictiveK() float64 {
	if b.PredictiveK == nil {
		return defaultPredictiveK
	}
	return *b.PredictiveK
}

func (b PolicyBundle) adaptiveThresholds() AdaptiveThresholds {
	if b.Adaptive == nil {
		return DefaultAdaptiveThresholds()
	}
	return *b.Adaptive
}
