package sim

import "math"

type State []float64

func (s State) Clone() State {
	c := make(State, len(s))
	copy(c, s)
	return c
}

func (s State) IsValid() bool {
	for _, v := range s {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return true
}

// Plant is a dynamical system whose first state component is the measured
// frequency.
type Plant interface {
	Derivative(x State, u float64, t float64) State
	StateDim() int
}

type Integrator interface {
	Step(p Plant, x State, u float64, t float64, dt float64) State
}

// Controller is the call surface of gearbox.Controller.
type Controller interface {
	Tick(dt, measured float64) float64
	Reset()
	EngageOverride(key string)
	Status() string
}

// Sample records one controller tick.
type Sample struct {
	Step     int
	Time     float64
	Dt       float64
	Measured float64
	Error    float64
	Output   float64
	Status   string
}

type Metric interface {
	Name() string
	Observe(s Sample)
	Value() float64
	Reset()
}

type Observer interface {
	OnStep(s Sample)
}

type Configurable interface {
	Params() map[string]float64
	SetParam(name string, value float64) error
}

type Config struct {
	Dt            float64
	Duration      float64
	ValidateState bool
	Events        []Event
}

func DefaultConfig() Config {
	return Config{
		Dt:            0.01,
		Duration:      10.0,
		ValidateState: true,
	}
}

type Result struct {
	Samples     []Sample
	FinalState  State
	FinalStatus string
	Metrics     map[string]float64
	StepsTaken  int
	Errors      []error
}

// Outputs returns the controller output of every sample.
func (r *Result) Outputs() []float64 {
	out := make([]float64, len(r.Samples))
	for i, s := range r.Samples {
		out[i] = s.Output
	}
	return out
}

// Measured returns the measured value of every sample.
func (r *Result) Measured() []float64 {
	out := make([]float64, len(r.Samples))
	for i, s := range r.Samples {
		out[i] = s.Measured
	}
	return out
}
