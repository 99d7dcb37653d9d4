package plant

import (
	"fmt"

	"github.com/san-kum/gearbox/internal/sim"
)

// Drift follows df/dt = Gain*u + Rate. Without integral action the
// controller cannot cancel a nonzero Rate.
type Drift struct {
	Gain float64
	Rate float64
}

func NewDrift(gain, rate float64) *Drift {
	return &Drift{Gain: gain, Rate: rate}
}

func (p *Drift) StateDim() int { return 1 }

func (p *Drift) Derivative(x sim.State, u float64, t float64) sim.State {
	return sim.State{p.Gain*u + p.Rate}
}

func (p *Drift) Params() map[string]float64 {
	return map[string]float64{
		"gain": p.Gain,
		"rate": p.Rate,
	}
}

func (p *Drift) SetParam(name string, value float64) error {
	switch name {
	case "gain":
		p.Gain = value
	case "rate":
		p.Rate = value
	default:
		return fmt.Errorf("%w: %s", sim.ErrUnknownParam, name)
	}
	return nil
}
