// Package gearbox implements the harmonic gearbox: a fixed-setpoint PID
// controller for a measured frequency signal.
//
// The controller is a plain value owned by one caller:
//
//   - [New]: build a controller from proportional, integral and derivative gains
//   - [Controller.Tick]: consume one (elapsed time, measured frequency) sample
//   - [Controller.Reset]: clear accumulators and return to [Normal] mode
//   - [Controller.EngageOverride]: switch to [Sovereign] or [AccessDenied]
//   - [Controller.Status]: read the display label of the current mode
//
// # Usage
//
//	g := gearbox.New(1.0, 0.1, 0.01)
//	u := g.Tick(0.01, 14.2) // drive 14.2 toward the 15.0 setpoint
//
// Mode is advisory. Tick never reads it.
//
// # Numeric edge cases
//
// Tick divides by the elapsed time. An elapsed time of exactly zero
// produces an infinite or NaN derivative that flows into the output. Tick
// never reports this; callers that need finite outputs validate the
// elapsed time before calling.
//
// # Thread Safety
//
// Controller instances are NOT thread-safe. Callers sharing one across
// goroutines must serialize every call.
package gearbox
