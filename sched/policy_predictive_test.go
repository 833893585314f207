package sched

import (
	"math"
	"testing"
)

func TestPredictive_ScoreFormula(t *testing.T) {
	f := newPickFixture()
	heavy := f.add(t, "heavy", PriorityNormal)
	light := f.add(t, "light", PriorityNormal)
	f.predictions = StaticPredictions{
		heavy.ID: {CPU: 90, Memory: 50, ExecTicks: 10},
		light.ID: {CPU: 20, Memory: 20, ExecTicks: 1000},
	}

	sel, ok := (&PredictivePicker{k: 1.0}).Pick(f.view())
	if !ok {
		t.Fatal("no selection")
	}
	// heavy: (100-90)+(100-50)+1000/10 = 160; light: 80+80+1 = 161.
	if sel.Process != light.ID {
		t.Errorf("picked %d, want %d", sel.Process, light.ID)
	}
	if got := sel.Scores[heavy.ID]; got != 160 {
		t.Errorf("heavy score = %v, want 160", got)
	}
	if got := sel.Scores[light.ID]; got != 161 {
		t.Errorf("light score = %v, want 161", got)
	}
}

func TestPredictive_WeightFlipsShortJobPreference(t *testing.T) {
	f := newPickFixture()
	short := f.add(t, "short", PriorityNormal)
	cheap := f.add(t, "cheap", PriorityNormal)
	f.predictions = StaticPredictions{
		short.ID: {CPU: 80, Memory: 80, ExecTicks: 5},
		cheap.ID: {CPU: 10, Memory: 10, ExecTicks: 500},
	}

	// k=0 ignores run length: the cheap process wins.
	sel, _ := (&PredictivePicker{k: 0}).Pick(f.view())
	if sel.Process != cheap.ID {
		t.Errorf("k=0 picked %d, want %d", sel.Process, cheap.ID)
	}
	// A heavy short-job weight flips the choice.
	sel, _ = (&PredictivePicker{k: 2.0}).Pick(f.view())
	if sel.Process != short.ID {
		t.Errorf("k=2 picked %d, want %d", sel.Process, short.ID)
	}
}

func TestPredictive_SkipsProcessesWithoutForecast(t *testing.T) {
	// GIVEN a higher-class process with no forecast and a predicted one
	f := newPickFixture()
	f.add(t, "blind", PriorityRealtime)
	seen := f.add(t, "seen", PriorityLow)
	f.predictions = StaticPredictions{
		seen.ID: {CPU: 50, Memory: 50, ExecTicks: 20},
	}

	// WHEN the predictive policy picks
	sel, ok := (&PredictivePicker{k: 1.0}).Pick(f.view())

	// THEN only the predicted process is considered
	if !ok || sel.Process != seen.ID {
		t.Fatalf("picked %v (ok=%v), want %d", sel.Process, ok, seen.ID)
	}
	if _, scored := sel.Scores[0]; scored {
		t.Error("score map contains the zero pid")
	}
	if len(sel.Scores) != 1 {
		t.Errorf("scored %d candidates, want 1", len(sel.Scores))
	}
}

func TestPredictive_NoForecastsIdles(t *testing.T) {
	f := newPickFixture()
	f.add(t, "a", PriorityNormal)
	f.add(t, "b", PriorityNormal)

	if _, ok := (&PredictivePicker{k: 1.0}).Pick(f.view()); ok {
		t.Error("picked with no forecasts at all; the core should idle")
	}
}

func TestPredictive_DegenerateExecTicksGuarded(t *testing.T) {
	f := newPickFixture()
	p := f.add(t, "p", PriorityNormal)
	f.predictions = StaticPredictions{
		p.ID: {CPU: 0, Memory: 0, ExecTicks: 0},
	}

	sel, ok := (&PredictivePicker{k: 1.0}).Pick(f.view())
	if !ok {
		t.Fatal("no selection")
	}
	// ExecTicks clamps to 1: score = 100 + 100 + 1000.
	if got := sel.Scores[p.ID]; got != 1200 {
		t.Errorf("score = %v, want 1200", got)
	}
	if math.IsInf(sel.Scores[p.ID], 0) || math.IsNaN(sel.Scores[p.ID]) {
		t.Error("degenerate forecast produced a non-finite score")
	}
	if sel.Confidence != 1.0 {
		t.Errorf("sole candidate confidence = %v, want 1.0", sel.Confidence)
	}
}
