// Package sim drives a [Controller] against a plant or a recorded trace.
//
// Closed loop: each step feeds the plant's measured frequency to the
// controller and integrates the plant forward under the returned output.
//
//	p := plant.NewFirstOrder(10.0, 1.0, 0.5)
//	s := sim.New(p, integrators.NewRK4(), gearbox.New(1.0, 0.5, 0.0))
//	res, err := s.Run(ctx, sim.State{10.0}, sim.DefaultConfig())
//
// Open loop: [Simulator.Replay] feeds timestamped measurements straight to
// the controller.
//
// Elapsed time is validated here rather than in the controller. Runs with
// a non-positive dt are rejected up front, and replay traces must have
// strictly increasing timestamps unless degenerate steps are allowed
// explicitly.
package sim
