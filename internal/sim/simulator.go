package sim

import (
	"context"
	"fmt"
	"math"

	"github.com/san-kum/gearbox/internal/gearbox"
)

type Simulator struct {
	plant      Plant
	integrator Integrator
	controller Controller
	metrics    []Metric
	observers  []Observer
}

// New builds a simulator. plant and integrator may be nil when the
// simulator is only used for Replay.
func New(plant Plant, integrator Integrator, controller Controller) *Simulator {
	return &Simulator{
		plant:      plant,
		integrator: integrator,
		controller: controller,
		metrics:    make([]Metric, 0),
		observers:  make([]Observer, 0),
	}
}

func (s *Simulator) AddMetric(m Metric)     { s.metrics = append(s.metrics, m) }
func (s *Simulator) AddObserver(o Observer) { s.observers = append(s.observers, o) }

func (s *Simulator) Controller() Controller { return s.controller }

// Run drives the closed loop for cfg.Duration. On context cancellation it
// returns the partial result together with ctx.Err().
func (s *Simulator) Run(ctx context.Context, x0 State, cfg Config) (*Result, error) {
	loop, err := s.NewLoop(x0, cfg)
	if err != nil {
		return nil, err
	}

	steps := int(math.Floor(cfg.Duration/cfg.Dt + timeEpsilon))
	result := s.newResult(steps)

	for i := 0; i < steps; i++ {
		select {
		case <-ctx.Done():
			s.finish(result, loop.State())
			return result, ctx.Err()
		default:
		}

		sample, x := loop.Step()
		s.record(result, sample)

		if cfg.ValidateState && !x.IsValid() {
			result.Errors = append(result.Errors, &StepError{Step: sample.Step, Time: sample.Time, Err: ErrInvalidState})
			break
		}
	}

	s.finish(result, loop.State())
	return result, nil
}

// Replay feeds a recorded trace to the controller, bypassing the plant.
// Elapsed time for measurement i is trace[i].Time - trace[i-1].Time; the
// first measurement uses opts.FirstDt, or the spacing of the first two
// measurements when FirstDt is zero.
func (s *Simulator) Replay(ctx context.Context, trace []Measurement, opts ReplayOptions) (*Result, error) {
	if len(trace) == 0 {
		return nil, ErrEmptyTrace
	}
	if err := validateEvents(opts.Events); err != nil {
		return nil, err
	}

	dts := opts.elapsed(trace)
	if !opts.AllowDegenerate {
		for i, dt := range dts {
			if !(dt > 0) {
				return nil, &StepError{Step: i, Time: trace[i].Time, Err: ErrNonPositiveDt}
			}
		}
	}

	result := s.newResult(len(trace))
	sched := newSchedule(opts.Events)

	for i, m := range trace {
		select {
		case <-ctx.Done():
			s.finish(result, nil)
			return result, ctx.Err()
		default:
		}

		sched.apply(m.Time, s.controller)
		u := s.controller.Tick(dts[i], m.Value)
		s.record(result, Sample{
			Step:     i,
			Time:     m.Time,
			Dt:       dts[i],
			Measured: m.Value,
			Error:    gearbox.Setpoint - m.Value,
			Output:   u,
			Status:   s.controller.Status(),
		})
	}

	s.finish(result, nil)
	return result, nil
}

func (s *Simulator) newResult(capacity int) *Result {
	for _, m := range s.metrics {
		m.Reset()
	}
	return &Result{
		Samples: make([]Sample, 0, capacity),
		Metrics: make(map[string]float64),
		Errors:  make([]error, 0),
	}
}

func (s *Simulator) record(result *Result, sample Sample) {
	for _, m := range s.metrics {
		m.Observe(sample)
	}
	for _, obs := range s.observers {
		obs.OnStep(sample)
	}
	result.Samples = append(result.Samples, sample)
	result.StepsTaken++
}

func (s *Simulator) finish(result *Result, x State) {
	if x != nil {
		result.FinalState = x.Clone()
	}
	result.FinalStatus = s.controller.Status()
	for _, m := range s.metrics {
		result.Metrics[m.Name()] = m.Value()
	}
}

func validateConfig(cfg Config) error {
	if !(cfg.Dt > 0) {
		return fmt.Errorf("%w: dt=%f", ErrNonPositiveDt, cfg.Dt)
	}
	if !(cfg.Duration > 0) {
		return fmt.Errorf("%w: duration=%f", ErrInvalidDuration, cfg.Duration)
	}
	return validateEvents(cfg.Events)
}
