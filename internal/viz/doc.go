// Package viz renders a live terminal view of a closed-loop run.
//
// The [Model] steps a [sim.Loop] on a frame timer and draws recent
// measured frequency and controller output with asciigraph, alongside the
// controller status label. Keys drive the controller's administrative
// operations while the loop runs.
package viz
