// Package plant provides frequency plants for closed-loop runs.
//
//   - [FirstOrder]: lag toward a natural frequency, pushed by the controller
//   - [Drift]: pure integrator with a constant drift
//
// Both hold the measured frequency in state component 0 and implement
// [sim.Configurable] for live tuning.
package plant
