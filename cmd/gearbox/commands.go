package main

import (
	"context"
	"fmt"
	"log"
	"math"
	"os"
	"os/signal"
	"sort"
	"strconv"
	"sync/atomic"
	"text/tabwriter"
	"time"

	"github.com/guptarohit/asciigraph"
	"github.com/san-kum/gearbox/internal/config"
	"github.com/san-kum/gearbox/internal/experiment"
	"github.com/san-kum/gearbox/internal/gearbox"
	"github.com/san-kum/gearbox/internal/metrics"
	"github.com/san-kum/gearbox/internal/optim"
	"github.com/san-kum/gearbox/internal/sim"
	"github.com/san-kum/gearbox/internal/storage"
	"github.com/san-kum/gearbox/internal/viz"
	"github.com/spf13/cobra"
)

// resolveConfig layers preset, config file and flags. A config file
// overrides a preset, and explicitly set flags override both. Without a
// preset or file every flag value applies.
func resolveConfig(cmd *cobra.Command, args []string) (*config.Config, error) {
	cfg := config.DefaultConfig()
	layered := false

	if len(args) > 0 {
		cfg.Plant = args[0]
	}

	if preset != "" {
		p := config.GetPreset(cfg.Plant, preset)
		if p == nil {
			return nil, fmt.Errorf("unknown preset: %s (available: %v)", preset, config.ListPresets(cfg.Plant))
		}
		cfg = p
		layered = true
	}

	if configFile != "" {
		loaded, err := config.Load(configFile)
		if err != nil {
			return nil, fmt.Errorf("failed to load config: %w", err)
		}
		if len(args) > 0 {
			loaded.Plant = args[0]
		}
		cfg = loaded
		layered = true
	}

	flags := cmd.Flags()
	apply := func(name string) bool {
		return flags.Lookup(name) != nil && (!layered || flags.Changed(name))
	}
	if apply("dt") {
		cfg.Dt = dt
	}
	if apply("time") {
		cfg.Duration = duration
	}
	if apply("freq") {
		cfg.InitFreq = initFreq
	}
	if apply("integrator") {
		cfg.Integrator = integrator
	}
	if apply("kp") {
		cfg.Gains.Kp = kp
	}
	if apply("ki") {
		cfg.Gains.Ki = ki
	}
	if apply("kd") {
		cfg.Gains.Kd = kd
	}

	if len(plantArgs) > 0 {
		if cfg.PlantParams == nil {
			cfg.PlantParams = make(map[string]float64, len(plantArgs))
		}
		for name, raw := range plantArgs {
			v, err := strconv.ParseFloat(raw, 64)
			if err != nil {
				return nil, fmt.Errorf("plant param %s: %w", name, err)
			}
			cfg.PlantParams[name] = v
		}
	}

	log.Printf("config: plant=%s integrator=%s dt=%g duration=%g gains=%+v events=%d",
		cfg.Plant, cfg.Integrator, cfg.Dt, cfg.Duration, cfg.Gains, len(cfg.Events))
	return cfg, nil
}

func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt)
}

func runClosedLoop(cmd *cobra.Command, args []string) error {
	cfg, err := resolveConfig(cmd, args)
	if err != nil {
		return err
	}
	if overrideAt >= 0 {
		cfg.Events = append(cfg.Events, sim.Event{At: overrideAt, Action: sim.ActionOverride, Key: overrideKey})
	}
	if resetAt >= 0 {
		cfg.Events = append(cfg.Events, sim.Event{At: resetAt, Action: sim.ActionReset})
	}

	exp, err := experiment.New(cfg)
	if err != nil {
		return err
	}

	st := storage.New(dataDir)
	if err := st.Init(); err != nil {
		return err
	}

	ctx, stop := signalContext()
	defer stop()

	fmt.Printf("running %s loop...\n", cfg.Plant)
	start := time.Now()

	result, err := exp.Run(ctx)
	if err != nil && result == nil {
		return err
	}
	if err != nil {
		log.Printf("run interrupted after %d steps: %v", result.StepsTaken, err)
	}

	elapsed := time.Since(start)

	runID, err := st.Save(storage.RunMetadata{
		Source:     cfg.Plant,
		Dt:         cfg.Dt,
		Duration:   cfg.Duration,
		Integrator: cfg.Integrator,
		Gains:      exp.Controller().Gains(),
		Events:     cfg.Events,
	}, result)
	if err != nil {
		return err
	}

	fmt.Printf("completed in %v\n", elapsed)
	printSummary(runID, result)
	if len(result.FinalState) > 0 {
		fmt.Printf("final frequency: %.6f (setpoint %.1f)\n", result.FinalState[0], gearbox.Setpoint)
	}
	return nil
}

func replayTrace(cmd *cobra.Command, args []string) error {
	cfg, err := resolveConfig(cmd, nil)
	if err != nil {
		return err
	}

	trace, err := storage.LoadTrace(args[0])
	if err != nil {
		return fmt.Errorf("failed to load trace: %w", err)
	}
	log.Printf("loaded %d measurements from %s", len(trace), args[0])

	exp, err := experiment.New(cfg)
	if err != nil {
		return err
	}

	ctx, stop := signalContext()
	defer stop()

	result, err := exp.Replay(ctx, trace, sim.ReplayOptions{
		FirstDt:         firstDt,
		AllowDegenerate: allowDegenerate,
	})
	if err != nil && result == nil {
		return err
	}

	st := storage.New(dataDir)
	if err := st.Init(); err != nil {
		return err
	}

	span := 0.0
	if n := len(trace); n > 1 {
		span = trace[n-1].Time - trace[0].Time
	}
	runID, err := st.Save(storage.RunMetadata{
		Source:   "replay",
		Dt:       cfg.Dt,
		Duration: span,
		Gains:    exp.Controller().Gains(),
		Events:   cfg.Events,
	}, result)
	if err != nil {
		return err
	}

	if n := result.Metrics["non_finite"]; n > 0 {
		log.Printf("%d ticks produced non-finite output", int(n))
	}
	printSummary(runID, result)
	return nil
}

func printSummary(runID string, result *sim.Result) {
	fmt.Printf("run id: %s\n", runID)
	fmt.Printf("steps: %d\n", result.StepsTaken)
	fmt.Printf("status: %s\n", viz.StatusBadge(result.FinalStatus))

	names := make([]string, 0, len(result.Metrics))
	for name := range result.Metrics {
		names = append(names, name)
	}
	sort.Strings(names)

	fmt.Println("\nmetrics:")
	for _, name := range names {
		fmt.Printf("  %s: %.6f\n", name, result.Metrics[name])
	}

	if len(result.Errors) > 0 {
		fmt.Println("\nerrors:")
		for _, err := range result.Errors {
			fmt.Printf("  %v\n", err)
		}
	}
}

func listRuns(cmd *cobra.Command, args []string) error {
	st := storage.New(dataDir)
	runs, err := st.List()
	if err != nil {
		return err
	}

	if len(runs) == 0 {
		fmt.Println("no runs found")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tSOURCE\tTIME\tDURATION\tDT\tSTEPS\tKP\tKI\tKD\tSTATUS")

	for _, run := range runs {
		fmt.Fprintf(w, "%s\t%s\t%s\t%.2fs\t%.4fs\t%d\t%g\t%g\t%g\t%s\n",
			run.ID,
			run.Source,
			run.Timestamp.Format("2006-01-02 15:04:05"),
			run.Duration,
			run.Dt,
			run.Steps,
			run.Gains.Kp,
			run.Gains.Ki,
			run.Gains.Kd,
			run.FinalStatus,
		)
	}

	return w.Flush()
}

func plotRun(cmd *cobra.Command, args []string) error {
	runID := args[0]

	st := storage.New(dataDir)
	meta, err := st.Load(runID)
	if err != nil {
		return err
	}

	samples, err := st.LoadSamples(runID)
	if err != nil {
		return err
	}

	if len(samples) == 0 {
		return fmt.Errorf("no data to plot")
	}

	fmt.Printf("run: %s\n", meta.ID)
	fmt.Printf("source: %s\n", meta.Source)
	fmt.Printf("samples: %d\n\n", len(samples))

	series := []struct {
		caption string
		value   func(sim.Sample) float64
	}{
		{"measured frequency", func(s sim.Sample) float64 { return s.Measured }},
		{"tracking error", func(s sim.Sample) float64 { return s.Error }},
		{"controller output", func(s sim.Sample) float64 { return s.Output }},
	}

	for _, sr := range series {
		data := make([]float64, 0, len(samples))
		dropped := 0
		for _, s := range samples {
			v := sr.value(s)
			if math.IsNaN(v) || math.IsInf(v, 0) {
				dropped++
				continue
			}
			data = append(data, v)
		}

		if len(data) == 0 {
			fmt.Printf("%s: no finite values\n\n", sr.caption)
			continue
		}

		caption := sr.caption
		if dropped > 0 {
			caption = fmt.Sprintf("%s (%d non-finite dropped)", caption, dropped)
		}

		graph := asciigraph.Plot(data,
			asciigraph.Height(plotHeight),
			asciigraph.Width(plotWidth),
			asciigraph.Caption(caption),
		)
		fmt.Println(graph)
		fmt.Println()
	}

	return nil
}

func exportRun(cmd *cobra.Command, args []string) error {
	return storage.New(dataDir).ExportJSON(args[0], os.Stdout)
}

func exportCSV(cmd *cobra.Command, args []string) error {
	runID := args[0]
	path := runID + ".csv"
	if len(args) > 1 {
		path = args[1]
	}

	if err := storage.New(dataDir).ExportCSV(runID, path); err != nil {
		return err
	}
	fmt.Printf("exported %s to %s\n", runID, path)
	return nil
}

func listPresets(cmd *cobra.Command, args []string) error {
	presets := config.ListPresets(args[0])
	if len(presets) == 0 {
		fmt.Printf("no presets for plant: %s\n", args[0])
		return nil
	}
	fmt.Printf("presets for %s:\n", args[0])
	for _, p := range presets {
		fmt.Printf("  %s\n", p)
	}
	return nil
}

func runLive(cmd *cobra.Command, args []string) error {
	cfg, err := resolveConfig(cmd, args)
	if err != nil {
		return err
	}

	exp, err := experiment.New(cfg)
	if err != nil {
		return err
	}

	loop, err := exp.Loop()
	if err != nil {
		return err
	}

	key := overrideKey
	if !cmd.Flags().Changed("override-key") {
		key = gearbox.OverrideKey
	}

	return viz.Run(viz.NewModel(loop, cfg.Plant, key, frameRate, stepsPerFrame, metrics.Defaults()))
}

func tuneGains(cmd *cobra.Command, args []string) error {
	base, err := resolveConfig(cmd, args)
	if err != nil {
		return err
	}
	if tuneSteps < 1 {
		return fmt.Errorf("grid must have at least one point, got %d", tuneSteps)
	}

	names := []string{"kp", "ki", "kd"}
	ranges := [][]float64{
		optim.Linspace(0, 2*math.Max(base.Gains.Kp, 0.5), tuneSteps),
		optim.Linspace(0, 2*math.Max(base.Gains.Ki, 0.25), tuneSteps),
		optim.Linspace(0, 2*math.Max(base.Gains.Kd, 0.01), tuneSteps),
	}

	gs, err := optim.NewGridSearch(names, ranges)
	if err != nil {
		return err
	}

	var runs atomic.Int64
	run := func(ctx context.Context, p map[string]float64) (*sim.Result, error) {
		cfg := *base
		cfg.Gains = config.GainsConfig{Kp: p["kp"], Ki: p["ki"], Kd: p["kd"]}
		exp, err := experiment.New(&cfg)
		if err != nil {
			return nil, err
		}
		log.Printf("candidate %d: %+v", runs.Add(1), cfg.Gains)
		return exp.Run(ctx)
	}

	ctx, stop := signalContext()
	defer stop()

	start := time.Now()
	best, err := gs.SearchParallel(ctx, run, optim.MetricScore(tuneMetric), tuneWorkers)
	if err != nil {
		return err
	}

	fmt.Printf("evaluated %d candidates in %v\n", runs.Load(), time.Since(start))
	fmt.Printf("best %s: %.6f\n", tuneMetric, best.Score)
	fmt.Printf("  kp: %g\n  ki: %g\n  kd: %g\n", best.Params["kp"], best.Params["ki"], best.Params["kd"])
	return nil
}

func tickOnce(cmd *cobra.Command, args []string) error {
	ctrl := gearbox.New(kp, ki, kd)
	if cmd.Flags().Changed("override-key") {
		ctrl.EngageOverride(overrideKey)
	}

	u := ctrl.Tick(tickDt, measured)

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintf(w, "output\t%g\n", u)
	fmt.Fprintf(w, "integral\t%g\n", ctrl.Integral())
	fmt.Fprintf(w, "prev_error\t%g\n", ctrl.PrevError())
	fmt.Fprintf(w, "status\t%s\n", ctrl.Status())
	return w.Flush()
}
