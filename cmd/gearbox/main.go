package main

import (
	"io"
	"log"
	"os"
	"runtime"

	"github.com/spf13/cobra"
)

var (
	dataDir    string
	verbose    bool
	dt         float64
	duration   float64
	initFreq   float64
	integrator string
	kp         float64
	ki         float64
	kd         float64
	configFile string
	preset     string
	plantArgs  map[string]string
	// Scheduled administrative events
	overrideAt  float64
	overrideKey string
	resetAt     float64
	// Replay
	firstDt         float64
	allowDegenerate bool
	// Live view
	frameRate     int
	stepsPerFrame int
	// Plot
	plotWidth  int
	plotHeight int
	// Tune
	tuneMetric  string
	tuneSteps   int
	tuneWorkers int
	// One-shot tick
	tickDt   float64
	measured float64
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

// newRootCmd registers commands and flags. Flag defaults are written to
// the package variables on every call.
func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "gearbox",
		Short:         "harmonic gearbox frequency controller",
		SilenceUsage:  true,
		SilenceErrors: false,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			log.SetFlags(log.Ltime | log.Lmicroseconds)
			log.SetPrefix("gearbox: ")
			if verbose {
				log.SetOutput(os.Stderr)
			} else {
				log.SetOutput(io.Discard)
			}
		},
	}

	rootCmd.PersistentFlags().StringVar(&dataDir, "data", ".gearbox", "data directory")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "log diagnostics to stderr")

	runCmd := &cobra.Command{
		Use:   "run [plant]",
		Short: "run the controller in closed loop against a plant",
		Args:  cobra.MaximumNArgs(1),
		RunE:  runClosedLoop,
	}
	addRunFlags(runCmd)
	runCmd.Flags().Float64Var(&overrideAt, "override-at", -1, "engage override at this time (negative disables)")
	runCmd.Flags().StringVar(&overrideKey, "override-key", "", "key submitted at --override-at")
	runCmd.Flags().Float64Var(&resetAt, "reset-at", -1, "reset the controller at this time (negative disables)")

	replayCmd := &cobra.Command{
		Use:   "replay [trace.csv]",
		Short: "feed a recorded time,frequency trace to the controller",
		Args:  cobra.ExactArgs(1),
		RunE:  replayTrace,
	}
	addGainFlags(replayCmd)
	replayCmd.Flags().StringVar(&configFile, "config", "", "config file path (yaml)")
	replayCmd.Flags().Float64Var(&firstDt, "first-dt", 0, "elapsed time for the first measurement (0 uses the trace spacing)")
	replayCmd.Flags().BoolVar(&allowDegenerate, "allow-degenerate", false, "feed non-increasing timestamps through instead of rejecting them")

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "list runs",
		RunE:  listRuns,
	}

	plotCmd := &cobra.Command{
		Use:   "plot [run_id]",
		Short: "plot run results",
		Args:  cobra.ExactArgs(1),
		RunE:  plotRun,
	}
	plotCmd.Flags().IntVar(&plotWidth, "width", 80, "plot width")
	plotCmd.Flags().IntVar(&plotHeight, "height", 10, "plot height")

	exportCmd := &cobra.Command{
		Use:   "export [run_id]",
		Short: "export run metadata and samples as JSON",
		Args:  cobra.ExactArgs(1),
		RunE:  exportRun,
	}

	exportCSVCmd := &cobra.Command{
		Use:   "export-csv [run_id] [path]",
		Short: "export run samples to CSV",
		Args:  cobra.RangeArgs(1, 2),
		RunE:  exportCSV,
	}

	presetsCmd := &cobra.Command{
		Use:   "presets [plant]",
		Short: "list available presets for a plant",
		Args:  cobra.ExactArgs(1),
		RunE:  listPresets,
	}

	liveCmd := &cobra.Command{
		Use:   "live [plant]",
		Short: "run the closed loop with a live terminal view",
		Args:  cobra.MaximumNArgs(1),
		RunE:  runLive,
	}
	addRunFlags(liveCmd)
	liveCmd.Flags().StringVar(&overrideKey, "override-key", "", "key submitted by the o key (defaults to the accepted key)")
	liveCmd.Flags().IntVar(&frameRate, "fps", 30, "frame rate")
	liveCmd.Flags().IntVar(&stepsPerFrame, "steps", 2, "controller ticks per frame")

	tuneCmd := &cobra.Command{
		Use:   "tune [plant]",
		Short: "grid search kp, ki and kd for the lowest metric",
		Args:  cobra.MaximumNArgs(1),
		RunE:  tuneGains,
	}
	addRunFlags(tuneCmd)
	tuneCmd.Flags().StringVar(&tuneMetric, "metric", "iae", "metric to minimize")
	tuneCmd.Flags().IntVar(&tuneSteps, "grid", 5, "grid points per gain")
	tuneCmd.Flags().IntVar(&tuneWorkers, "workers", runtime.NumCPU(), "concurrent candidate runs")

	tickCmd := &cobra.Command{
		Use:   "tick",
		Short: "apply one tick to a fresh controller and print output and status",
		Args:  cobra.NoArgs,
		RunE:  tickOnce,
	}
	addGainFlags(tickCmd)
	tickCmd.Flags().Float64Var(&tickDt, "dt", 1.0, "elapsed time")
	tickCmd.Flags().Float64Var(&measured, "measured", 15.0, "measured frequency")
	tickCmd.Flags().StringVar(&overrideKey, "override-key", "", "engage override with this key before ticking")

	rootCmd.AddCommand(runCmd, replayCmd, listCmd, plotCmd, exportCmd, exportCSVCmd, presetsCmd, liveCmd, tuneCmd, tickCmd)
	return rootCmd
}

func addGainFlags(cmd *cobra.Command) {
	cmd.Flags().Float64Var(&kp, "kp", 1.0, "proportional gain")
	cmd.Flags().Float64Var(&ki, "ki", 0.5, "integral gain")
	cmd.Flags().Float64Var(&kd, "kd", 0.01, "derivative gain")
}

func addRunFlags(cmd *cobra.Command) {
	addGainFlags(cmd)
	cmd.Flags().Float64Var(&dt, "dt", 0.01, "timestep")
	cmd.Flags().Float64Var(&duration, "time", 10.0, "duration")
	cmd.Flags().Float64Var(&initFreq, "freq", 10.0, "initial measured frequency")
	cmd.Flags().StringVar(&integrator, "integrator", "rk4", "integrator")
	cmd.Flags().StringVar(&configFile, "config", "", "config file path (yaml)")
	cmd.Flags().StringVar(&preset, "preset", "", "use preset configuration")
	cmd.Flags().StringToStringVar(&plantArgs, "param", nil, "plant parameter overrides (name=value)")
}
