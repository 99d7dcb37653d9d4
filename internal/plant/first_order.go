package plant

import (
	"fmt"

	"github.com/san-kum/gearbox/internal/sim"
)

const (
	DefaultNatural = 10.0
	DefaultGain    = 1.0
	DefaultTau     = 0.5
)

// FirstOrder follows df/dt = (Gain*u - (f - Natural)) / Tau.
type FirstOrder struct {
	Natural float64
	Gain    float64
	Tau     float64
}

func NewFirstOrder(natural, gain, tau float64) *FirstOrder {
	return &FirstOrder{Natural: natural, Gain: gain, Tau: tau}
}

func (p *FirstOrder) StateDim() int { return 1 }

func (p *FirstOrder) Derivative(x sim.State, u float64, t float64) sim.State {
	return sim.State{(p.Gain*u - (x[0] - p.Natural)) / p.Tau}
}

func (p *FirstOrder) Params() map[string]float64 {
	return map[string]float64{
		"natural": p.Natural,
		"gain":    p.Gain,
		"tau":     p.Tau,
	}
}

func (p *FirstOrder) SetParam(name string, value float64) error {
	switch name {
	case "natural":
		p.Natural = value
	case "gain":
		p.Gain = value
	case "tau":
		if value <= 0 {
			return fmt.Errorf("%w: tau must be positive, got %f", sim.ErrParameterBounds, value)
		}
		p.Tau = value
	default:
		return fmt.Errorf("%w: %s", sim.ErrUnknownParam, name)
	}
	return nil
}
