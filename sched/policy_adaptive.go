package sched

import "fmt"

// AdaptiveThresholds are the delegation cut-offs of the adaptive policy.
// SignalAbove and CPUAbove compare against [0, 1] values; InteractiveAbove
// against the interactive process ratio.
type AdaptiveThresholds struct {
	SignalAbove      float64 `yaml:"signal_above"`
	CPUAbove         float64 `yaml:"cpu_above"`
	InteractiveAbove float64 `yaml:"interactive_above"`
}

// DefaultAdaptiveThresholds returns the stock delegation cut-offs.
func DefaultAdaptiveThresholds() AdaptiveThresholds {
	return AdaptiveThresholds{
		SignalAbove:      0.70,
		CPUAbove:         0.80,
		InteractiveAbove: 0.5,
	}
}

// SelectPolicy applies the adaptive delegation rules in order: a hot
// advisory signal wins, then CPU pressure, then an interactive-heavy mix,
// else strict priority. Deterministic in the snapshot.
func SelectPolicy(state SystemState, th AdaptiveThresholds) Policy {
	switch {
	case state.Signal > th.SignalAbove:
		return PolicySignalWeighted
	case state.CPUUtilization > th.CPUAbove:
		return PolicyPredictive
	case state.InteractiveRatio() > th.InteractiveAbove:
		return PolicyFairShare
	default:
		return PolicyPriority
	}
}

// AdaptivePicker re-evaluates SelectPolicy every pick and delegates to the
// chosen base policy. The advisory inputs only steer delegation here; the
// base policies stay independently selectable.
type AdaptivePicker struct {
	thresholds AdaptiveThresholds
	delegates  map[Policy]Picker
}

func newAdaptivePicker(bundle PolicyBundle) *AdaptivePicker {
	return &AdaptivePicker{
		thresholds: bundle.adaptiveThresholds(),
		delegates: map[Policy]Picker{
			PolicyPriority:       &PriorityPicker{},
			PolicyFairShare:      &FairSharePicker{},
			PolicyPredictive:     &PredictivePicker{k: bundle.predictiveK()},
			PolicySignalWeighted: &SignalWeightedPicker{},
		},
	}
}

func (ap *AdaptivePicker) Name() Policy { return PolicyAdaptive }

// Pick implements Picker for AdaptivePicker. The returned Selection carries
// the delegate's policy name; the rationale records the delegation.
func (ap *AdaptivePicker) Pick(v *PickView) (Selection, bool) {
	delegate := SelectPolicy(v.State, ap.thresholds)
	sel, ok := ap.delegates[delegate].Pick(v)
	if !ok {
		return Selection{}, false
	}
	sel.Rationale = fmt.Sprintf("adaptive[%s] %s", delegate, sel.Rationale)
	return sel, true
}
