package integrators

import "github.com/san-kum/gearbox/internal/sim"

type Euler struct{}

func NewEuler() *Euler {
	return &Euler{}
}

func (e *Euler) Step(p sim.Plant, x sim.State, u float64, t float64, dt float64) sim.State {
	dx := p.Derivative(x, u, t)
	result := make(sim.State, len(x))
	for i := range x {
		result[i] = x[i] + dt*dx[i]
	}
	return result
}
