package sim

import "github.com/san-kum/gearbox/internal/gearbox"

// Loop is a steppable closed loop. Run consumes one to completion; the
// live view steps one per frame.
type Loop struct {
	plant      Plant
	integrator Integrator
	controller Controller
	sched      *schedule
	x          State
	t          float64
	dt         float64
	step       int
}

func (s *Simulator) NewLoop(x0 State, cfg Config) (*Loop, error) {
	if err := validateConfig(cfg); err != nil {
		return nil, err
	}
	if s.plant == nil || s.integrator == nil {
		return nil, ErrNoPlant
	}
	if len(x0) != s.plant.StateDim() {
		return nil, ErrDimensionMismatch
	}
	return &Loop{
		plant:      s.plant,
		integrator: s.integrator,
		controller: s.controller,
		sched:      newSchedule(cfg.Events),
		x:          x0.Clone(),
		dt:         cfg.Dt,
	}, nil
}

// Step applies due events, ticks the controller on the current
// measurement, and integrates the plant one dt forward. It returns the
// tick's sample and the new plant state.
func (l *Loop) Step() (Sample, State) {
	l.sched.apply(l.t, l.controller)

	measured := l.x[0]
	u := l.controller.Tick(l.dt, measured)
	sample := Sample{
		Step:     l.step,
		Time:     l.t,
		Dt:       l.dt,
		Measured: measured,
		Error:    gearbox.Setpoint - measured,
		Output:   u,
		Status:   l.controller.Status(),
	}

	l.x = l.integrator.Step(l.plant, l.x, u, l.t, l.dt)
	l.t += l.dt
	l.step++

	return sample, l.x
}

func (l *Loop) State() State           { return l.x }
func (l *Loop) Time() float64          { return l.t }
func (l *Loop) Controller() Controller { return l.controller }
func (l *Loop) Plant() Plant           { return l.plant }
