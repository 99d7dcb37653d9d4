package experiment

import (
	"context"
	"fmt"

	"github.com/san-kum/gearbox/internal/config"
	"github.com/san-kum/gearbox/internal/gearbox"
	"github.com/san-kum/gearbox/internal/integrators"
	"github.com/san-kum/gearbox/internal/metrics"
	"github.com/san-kum/gearbox/internal/plant"
	"github.com/san-kum/gearbox/internal/sim"
)

// Experiment wires a config into a ready-to-run simulator.
type Experiment struct {
	cfg        *config.Config
	controller *gearbox.Controller
	simulator  *sim.Simulator
}

func New(cfg *config.Config) (*Experiment, error) {
	p, err := plant.Get(cfg.Plant, cfg.PlantParams)
	if err != nil {
		return nil, err
	}

	integ, err := integrators.Get(cfg.Integrator)
	if err != nil {
		return nil, err
	}

	ctrl := gearbox.New(cfg.Gains.Kp, cfg.Gains.Ki, cfg.Gains.Kd)
	s := sim.New(p, integ, ctrl)
	for _, m := range metrics.Defaults() {
		s.AddMetric(m)
	}

	return &Experiment{
		cfg:        cfg,
		controller: ctrl,
		simulator:  s,
	}, nil
}

func (e *Experiment) Run(ctx context.Context) (*sim.Result, error) {
	return e.simulator.Run(ctx, e.cfg.InitState(), e.cfg.SimConfig())
}

// Replay feeds a recorded trace through the configured controller. The
// config's dt is used for the first measurement when opts.FirstDt is zero
// and the trace has a single entry.
func (e *Experiment) Replay(ctx context.Context, trace []sim.Measurement, opts sim.ReplayOptions) (*sim.Result, error) {
	if opts.FirstDt == 0 && len(trace) == 1 {
		opts.FirstDt = e.cfg.Dt
	}
	if opts.Events == nil {
		opts.Events = e.cfg.Events
	}
	return e.simulator.Replay(ctx, trace, opts)
}

// Loop starts a steppable closed loop for the live view.
func (e *Experiment) Loop() (*sim.Loop, error) {
	loop, err := e.simulator.NewLoop(e.cfg.InitState(), e.cfg.SimConfig())
	if err != nil {
		return nil, fmt.Errorf("experiment: %w", err)
	}
	return loop, nil
}

func (e *Experiment) Controller() *gearbox.Controller { return e.controller }
