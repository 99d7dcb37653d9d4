package sim

import (
	"context"
	"errors"
	"math"
	"testing"

	"github.com/san-kum/gearbox/internal/gearbox"
)

type constPlant struct{}

func (p *constPlant) Derivative(x State, u float64, t float64) State { return State{0} }
func (p *constPlant) StateDim() int                                  { return 1 }

// followPlant moves toward the controller output at unit rate.
type followPlant struct{}

func (p *followPlant) Derivative(x State, u float64, t float64) State { return State{u - x[0]} }
func (p *followPlant) StateDim() int                                  { return 1 }

type blowupPlant struct{}

func (p *blowupPlant) Derivative(x State, u float64, t float64) State { return State{math.Inf(1)} }
func (p *blowupPlant) StateDim() int                                  { return 1 }

type testIntegrator struct{}

func (ti *testIntegrator) Step(p Plant, x State, u float64, t float64, dt float64) State {
	dx := p.Derivative(x, u, t)
	return State{x[0] + dt*dx[0]}
}

type testMetric struct {
	count int
	sum   float64
}

func (m *testMetric) Name() string     { return "test" }
func (m *testMetric) Observe(s Sample) { m.count++; m.sum += s.Output }
func (m *testMetric) Value() float64 {
	if m.count == 0 {
		return 0
	}
	return m.sum / float64(m.count)
}
func (m *testMetric) Reset() { m.count, m.sum = 0, 0 }

func TestSimulatorRun(t *testing.T) {
	ctrl := gearbox.New(1.0, 0.0, 0.0)
	s := New(&constPlant{}, &testIntegrator{}, ctrl)

	cfg := Config{Dt: 0.1, Duration: 1.0}
	result, err := s.Run(context.Background(), State{5.0}, cfg)
	if err != nil {
		t.Fatalf("run failed: %v", err)
	}

	if len(result.Samples) != 10 {
		t.Fatalf("expected 10 samples, got %d", len(result.Samples))
	}
	for i, smp := range result.Samples {
		if smp.Output != 10.0 {
			t.Errorf("sample %d: expected output 10, got %f", i, smp.Output)
		}
		if smp.Error != 10.0 {
			t.Errorf("sample %d: expected error 10, got %f", i, smp.Error)
		}
		if smp.Step != i {
			t.Errorf("sample %d: step field is %d", i, smp.Step)
		}
	}
	if result.FinalStatus != gearbox.NormalLabel {
		t.Errorf("expected normal status, got %q", result.FinalStatus)
	}
	if result.StepsTaken != 10 {
		t.Errorf("expected 10 steps, got %d", result.StepsTaken)
	}
}

func TestSimulatorConverges(t *testing.T) {
	ctrl := gearbox.New(2.0, 4.0, 0.0)
	s := New(&followPlant{}, &testIntegrator{}, ctrl)

	result, err := s.Run(context.Background(), State{0.0}, Config{Dt: 0.01, Duration: 20.0})
	if err != nil {
		t.Fatalf("run failed: %v", err)
	}

	final := result.FinalState[0]
	if math.Abs(final-gearbox.Setpoint) > 0.05 {
		t.Errorf("expected plant near setpoint, got %f", final)
	}
}

func TestSimulatorInvalidConfig(t *testing.T) {
	s := New(&constPlant{}, &testIntegrator{}, gearbox.New(1, 0, 0))

	tests := []struct {
		name string
		cfg  Config
		want error
	}{
		{"zero dt", Config{Dt: 0, Duration: 1.0}, ErrNonPositiveDt},
		{"negative dt", Config{Dt: -0.1, Duration: 1.0}, ErrNonPositiveDt},
		{"nan dt", Config{Dt: math.NaN(), Duration: 1.0}, ErrNonPositiveDt},
		{"zero duration", Config{Dt: 0.1, Duration: 0}, ErrInvalidDuration},
		{"negative duration", Config{Dt: 0.1, Duration: -1.0}, ErrInvalidDuration},
		{"unknown action", Config{Dt: 0.1, Duration: 1.0, Events: []Event{{At: 0, Action: "explode"}}}, ErrUnknownAction},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := s.Run(context.Background(), State{1.0}, tt.cfg)
			if !errors.Is(err, tt.want) {
				t.Errorf("expected %v, got %v", tt.want, err)
			}
		})
	}
}

func TestSimulatorDimensionMismatch(t *testing.T) {
	s := New(&constPlant{}, &testIntegrator{}, gearbox.New(1, 0, 0))
	_, err := s.Run(context.Background(), State{1.0, 2.0}, DefaultConfig())
	if !errors.Is(err, ErrDimensionMismatch) {
		t.Errorf("expected dimension mismatch, got %v", err)
	}

	s = New(nil, nil, gearbox.New(1, 0, 0))
	_, err = s.Run(context.Background(), State{1.0}, DefaultConfig())
	if !errors.Is(err, ErrNoPlant) {
		t.Errorf("expected no plant error, got %v", err)
	}
}

func TestSimulatorEvents(t *testing.T) {
	s := New(&constPlant{}, &testIntegrator{}, gearbox.New(1, 0, 0))

	cfg := Config{
		Dt:       0.25,
		Duration: 2.0,
		Events: []Event{
			{At: 1.5, Action: ActionReset},
			{At: 0.5, Action: ActionOverride, Key: gearbox.OverrideKey},
			{At: 1.0, Action: ActionOverride, Key: "guess"},
		},
	}

	result, err := s.Run(context.Background(), State{5.0}, cfg)
	if err != nil {
		t.Fatalf("run failed: %v", err)
	}

	want := []string{
		gearbox.NormalLabel,
		gearbox.NormalLabel,
		gearbox.SovereignLabel,
		gearbox.SovereignLabel,
		gearbox.AccessDeniedLabel,
		gearbox.AccessDeniedLabel,
		gearbox.NormalLabel,
		gearbox.NormalLabel,
	}
	if len(result.Samples) != len(want) {
		t.Fatalf("expected %d samples, got %d", len(want), len(result.Samples))
	}
	for i, w := range want {
		if result.Samples[i].Status != w {
			t.Errorf("sample %d: expected %q, got %q", i, w, result.Samples[i].Status)
		}
	}
	if result.FinalStatus != gearbox.NormalLabel {
		t.Errorf("expected final normal, got %q", result.FinalStatus)
	}
}

func TestSimulatorInvalidState(t *testing.T) {
	s := New(&blowupPlant{}, &testIntegrator{}, gearbox.New(1, 0, 0))

	cfg := DefaultConfig()
	result, err := s.Run(context.Background(), State{1.0}, cfg)
	if err != nil {
		t.Fatalf("run failed: %v", err)
	}

	if len(result.Samples) != 1 {
		t.Errorf("expected run to stop after 1 sample, got %d", len(result.Samples))
	}
	if len(result.Errors) != 1 {
		t.Fatalf("expected 1 error, got %d", len(result.Errors))
	}

	var stepErr *StepError
	if !errors.As(result.Errors[0], &stepErr) {
		t.Fatalf("expected StepError, got %T", result.Errors[0])
	}
	if !errors.Is(stepErr, ErrInvalidState) {
		t.Errorf("expected invalid state, got %v", stepErr.Err)
	}
}

func TestSimulatorCanceled(t *testing.T) {
	s := New(&constPlant{}, &testIntegrator{}, gearbox.New(1, 0, 0))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	result, err := s.Run(ctx, State{1.0}, DefaultConfig())
	if !errors.Is(err, context.Canceled) {
		t.Errorf("expected context canceled, got %v", err)
	}
	if result == nil || len(result.Samples) != 0 {
		t.Error("expected an empty partial result")
	}
}

func TestSimulatorMetrics(t *testing.T) {
	s := New(&constPlant{}, &testIntegrator{}, gearbox.New(1, 0, 0))
	metric := &testMetric{}
	s.AddMetric(metric)

	result, err := s.Run(context.Background(), State{5.0}, Config{Dt: 0.1, Duration: 1.0})
	if err != nil {
		t.Fatalf("run failed: %v", err)
	}

	if v, ok := result.Metrics["test"]; !ok || v != 10.0 {
		t.Errorf("expected test metric 10, got %v (present=%v)", v, ok)
	}
	if metric.count != 10 {
		t.Errorf("expected 10 observations, got %d", metric.count)
	}
}

func TestReplay(t *testing.T) {
	s := New(nil, nil, gearbox.New(0.0, 1.0, 0.0))

	trace := []Measurement{{0, 5}, {1, 5}, {2, 5}}
	result, err := s.Replay(context.Background(), trace, ReplayOptions{})
	if err != nil {
		t.Fatalf("replay failed: %v", err)
	}

	want := []float64{10, 20, 30}
	for i, w := range want {
		if result.Samples[i].Output != w {
			t.Errorf("sample %d: expected %f, got %f", i, w, result.Samples[i].Output)
		}
		if result.Samples[i].Dt != 1.0 {
			t.Errorf("sample %d: expected dt 1, got %f", i, result.Samples[i].Dt)
		}
	}
}

func TestReplayFirstDt(t *testing.T) {
	s := New(nil, nil, gearbox.New(0.0, 1.0, 0.0))

	result, err := s.Replay(context.Background(), []Measurement{{3, 5}}, ReplayOptions{FirstDt: 0.5})
	if err != nil {
		t.Fatalf("replay failed: %v", err)
	}
	if result.Samples[0].Output != 5.0 {
		t.Errorf("expected 5, got %f", result.Samples[0].Output)
	}
}

func TestReplayRejectsNonIncreasing(t *testing.T) {
	ctrl := gearbox.New(1.0, 1.0, 1.0)
	s := New(nil, nil, ctrl)

	trace := []Measurement{{0, 5}, {1, 5}, {1, 6}}
	_, err := s.Replay(context.Background(), trace, ReplayOptions{})

	var stepErr *StepError
	if !errors.As(err, &stepErr) {
		t.Fatalf("expected StepError, got %v", err)
	}
	if stepErr.Step != 2 {
		t.Errorf("expected step 2, got %d", stepErr.Step)
	}
	if !errors.Is(err, ErrNonPositiveDt) {
		t.Errorf("expected non-positive dt, got %v", err)
	}
	if ctrl.Integral() != 0 {
		t.Error("rejected trace should not tick the controller")
	}
}

func TestReplayAllowDegenerate(t *testing.T) {
	s := New(nil, nil, gearbox.New(0.0, 0.0, 1.0))

	trace := []Measurement{{0, 5}, {0, 5}}
	result, err := s.Replay(context.Background(), trace, ReplayOptions{FirstDt: 1.0, AllowDegenerate: true})
	if err != nil {
		t.Fatalf("replay failed: %v", err)
	}

	if result.Samples[0].Output != 10.0 {
		t.Errorf("expected 10, got %f", result.Samples[0].Output)
	}
	if !math.IsNaN(result.Samples[1].Output) {
		t.Errorf("expected NaN for zero dt, got %f", result.Samples[1].Output)
	}
}

func TestReplayEvents(t *testing.T) {
	s := New(nil, nil, gearbox.New(1.0, 0.0, 0.0))

	trace := []Measurement{{0, 5}, {1, 5}, {2, 5}}
	opts := ReplayOptions{Events: []Event{{At: 1, Action: ActionOverride, Key: gearbox.OverrideKey}}}
	result, err := s.Replay(context.Background(), trace, opts)
	if err != nil {
		t.Fatalf("replay failed: %v", err)
	}

	if result.Samples[0].Status != gearbox.NormalLabel {
		t.Errorf("expected normal first, got %q", result.Samples[0].Status)
	}
	if result.FinalStatus != gearbox.SovereignLabel {
		t.Errorf("expected sovereign at end, got %q", result.FinalStatus)
	}
}

func TestReplayEmpty(t *testing.T) {
	s := New(nil, nil, gearbox.New(1, 0, 0))
	if _, err := s.Replay(context.Background(), nil, ReplayOptions{}); !errors.Is(err, ErrEmptyTrace) {
		t.Errorf("expected empty trace error, got %v", err)
	}
}
