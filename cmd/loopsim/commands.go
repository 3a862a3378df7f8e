package main

import (
	"errors"
	"fmt"
	"math"
	"os"
	"sort"
	"strconv"
	"strings"
	"text/tabwriter"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/guptarohit/asciigraph"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/san-kum/loopsim/internal/analysis"
	"github.com/san-kum/loopsim/internal/config"
	"github.com/san-kum/loopsim/internal/describe"
	"github.com/san-kum/loopsim/internal/experiment"
	"github.com/san-kum/loopsim/internal/logging"
	"github.com/san-kum/loopsim/internal/loop"
	"github.com/san-kum/loopsim/internal/lti"
	"github.com/san-kum/loopsim/internal/optim"
	"github.com/san-kum/loopsim/internal/plot"
	"github.com/san-kum/loopsim/internal/storage"
	"github.com/san-kum/loopsim/internal/tui"
)

func runScenario(cmd *cobra.Command, args []string) error {
	cfg, err := resolveConfig(cmd, args)
	if err != nil {
		return err
	}

	registry := experiment.NewRegistry()
	exp, err := registry.Build(cfg)
	if err != nil {
		return err
	}
	if logger.GetLevel() <= zerolog.DebugLevel {
		exp.GetSimulator().AddObserver(logging.SampleLogger(logger, max(1, len(exp.Grid())/20)))
	}

	logger.Info().Str("scenario", cfg.Name).Str("plant", exp.Plant().String()).Msg("running simulation")
	start := time.Now()

	result, err := exp.Run(cmd.Context())
	if err != nil {
		return err
	}
	elapsed := time.Since(start)
	if result.Diverged {
		logger.Warn().Msg("response diverged")
	}

	fmt.Printf("completed in %v\n", elapsed)
	fmt.Printf("steps: %d\n", result.Steps)
	printMetrics(result.Metrics)
	printStepInfo(result)

	if showASC {
		printGraphs(result)
	}
	if pngPath != "" {
		if err := plot.SavePNG(pngPath, cfg.Name, result, plot.DefaultOptions()); err != nil {
			return err
		}
		fmt.Printf("wrote %s\n", pngPath)
	}

	if !noSave {
		runID, err := storage.New(dataDir).Save(cfg, result)
		if err != nil {
			return err
		}
		fmt.Printf("\nrun id: %s\n", runID)
	}
	return nil
}

func printMetrics(m map[string]float64) {
	names := make([]string, 0, len(m))
	for name := range m {
		names = append(names, name)
	}
	sort.Strings(names)
	fmt.Println("\nmetrics:")
	for _, name := range names {
		fmt.Printf("  %s: %.6f\n", name, m[name])
	}
}

func printStepInfo(res *loop.Result) {
	if res.Diverged || len(res.Times) < 2 {
		return
	}
	info, err := analysis.StepInfo(res.Times, res.Response, math.NaN())
	if err != nil {
		return
	}
	fmt.Println("\nresponse:")
	fmt.Printf("  rise time: %.4fs\n", info.RiseTime)
	fmt.Printf("  settling time: %.4fs\n", info.SettlingTime)
	fmt.Printf("  overshoot: %.2f%%\n", info.Overshoot)
	fmt.Printf("  peak: %.4f at %.4fs\n", info.Peak, info.PeakTime)
}

func printGraphs(res *loop.Result) {
	if res.Diverged {
		fmt.Println("response diverged, nothing to plot")
		return
	}
	fmt.Println()
	fmt.Println(asciigraph.PlotMany([][]float64{res.Reference, res.Response},
		asciigraph.Height(12),
		asciigraph.Width(80),
		asciigraph.SeriesColors(asciigraph.Gray, asciigraph.Blue),
		asciigraph.Caption("reference / response"),
	))
	fmt.Println()
	fmt.Println(asciigraph.Plot(res.Control,
		asciigraph.Height(8),
		asciigraph.Width(80),
		asciigraph.Caption("control"),
	))
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
	fmt.Fprintln(w, "ID\tSCENARIO\tTIME\tDURATION\tDT\tGAIN\tHOLD\tDIVERGED")

	for _, run := range runs {
		fmt.Fprintf(w, "%s\t%s\t%s\t%.2fs\t%.4fs\t%g\t%s\t%v\n",
			run.ID,
			run.Scenario,
			run.Timestamp.Format("2006-01-02 15:04:05"),
			run.Duration,
			run.Dt,
			run.Gain,
			run.Hold,
			run.Diverged,
		)
	}

	return w.Flush()
}

func plotRun(cmd *cobra.Command, args []string) error {
	st := storage.New(dataDir)
	meta, err := st.Load(args[0])
	if err != nil {
		return err
	}
	res, err := st.LoadSignals(args[0])
	if err != nil {
		return err
	}
	if len(res.Times) == 0 {
		fmt.Println("no data")
		return nil
	}

	if pngPath != "" {
		if err := plot.SavePNG(pngPath, meta.Scenario, res, plot.DefaultOptions()); err != nil {
			return err
		}
		fmt.Printf("wrote %s\n", pngPath)
	} else {
		fmt.Printf("%s (K=%g, %s)\n", meta.Scenario, meta.Gain, meta.ID)
		printGraphs(res)
	}

	if showPhase || phaseSVG != "" {
		portrait := analysis.NewPhasePortrait(res.Times, res.Reference, res.Response)
		if portrait == nil {
			return fmt.Errorf("run too short for a phase portrait")
		}
		if showPhase {
			fmt.Println("\nerror phase portrait (e, de/dt):")
			fmt.Print(portrait.ASCII(60, 20))
		}
		if phaseSVG != "" {
			if err := os.WriteFile(phaseSVG, []byte(plot.PhaseSVG(portrait, 600, 600, "#00ff00")), 0644); err != nil {
				return err
			}
			fmt.Printf("wrote %s\n", phaseSVG)
		}
	}
	return nil
}

func exportJSON(cmd *cobra.Command, args []string) error {
	st := storage.New(dataDir)
	meta, err := st.Load(args[0])
	if err != nil {
		return err
	}
	res, err := st.LoadSignals(args[0])
	if err != nil {
		return err
	}
	return storage.ExportJSON(outPath, *meta, res)
}

func exportCSV(cmd *cobra.Command, args []string) error {
	st := storage.New(dataDir)
	res, err := st.LoadSignals(args[0])
	if err != nil {
		return err
	}
	return storage.ExportCSV(outPath, res)
}

func describeLoop(cmd *cobra.Command, args []string) error {
	cfg, err := resolveConfig(cmd, args)
	if err != nil {
		return err
	}
	plant, err := lti.NewTransferFunction(cfg.Plant.Num, cfg.Plant.Den)
	if err != nil {
		return err
	}

	fmt.Printf("plant: %s\n", plant)
	fmt.Printf("poles: %v\n", formatPoles(plant.Poles()))
	if g0, err := plant.StaticGain(); err == nil {
		fmt.Printf("static gain: %.6g\n", g0)
	}
	for _, w := range describe.PhaseCrossovers(plant) {
		fmt.Printf("phase crossover: ω=%.6g rad/s, G(jω)=%.6g, critical gain %.6g\n",
			w, real(plant.FrequencyResponse(w)), -1/real(plant.FrequencyResponse(w)))
	}

	m := max(-cfg.Saturation.Lower, cfg.Saturation.Upper)
	nl := describe.ClampedGain(cfg.Gain, m)
	if err := nl.Validate(); err != nil {
		fmt.Printf("no describing function for gain %g and limit %g\n", cfg.Gain, m)
		return nil
	}
	fmt.Printf("nonlinearity: %s\n", nl.Name())

	cycles, err := describe.PredictLimitCycles(plant, nl)
	if errors.Is(err, describe.ErrNoLimitCycle) {
		fmt.Println("no limit cycle predicted")
		return nil
	}
	if err != nil {
		return err
	}
	for _, lc := range cycles {
		fmt.Printf("limit cycle: %.6g Hz (period %.4gs), error amplitude %.6g\n", lc.Hz(), lc.Period(), lc.Amplitude)
	}

	if !simulate {
		return nil
	}
	exp, err := experiment.NewRegistry().Build(cfg)
	if err != nil {
		return err
	}
	res, err := exp.Run(cmd.Context())
	if err != nil {
		return err
	}
	if res.Diverged {
		fmt.Println("simulation diverged")
		return nil
	}
	tail := res.Response[exp.Grid().Index(cfg.Duration/3):]
	hz, _, err := analysis.DominantFrequency(tail, cfg.Dt)
	if err != nil {
		return err
	}
	lo, hi := tail[0], tail[0]
	for _, v := range tail {
		lo, hi = min(lo, v), max(hi, v)
	}
	fmt.Printf("simulated: %.6g Hz, amplitude %.6g\n", hz, (hi-lo)/2)
	return nil
}

func formatPoles(poles []complex128) string {
	parts := make([]string, len(poles))
	for i, p := range poles {
		if imag(p) == 0 {
			parts[i] = strconv.FormatFloat(real(p), 'g', 6, 64)
		} else {
			parts[i] = fmt.Sprintf("%.6g%+.6gi", real(p), imag(p))
		}
	}
	return "[" + strings.Join(parts, " ") + "]"
}

// parseRange reads name=lo:hi:n.
func parseRange(s string) (string, []float64, error) {
	name, spec, ok := strings.Cut(s, "=")
	if !ok {
		return "", nil, fmt.Errorf("bad range %q, want name=lo:hi:n", s)
	}
	parts := strings.Split(spec, ":")
	if len(parts) != 3 {
		return "", nil, fmt.Errorf("bad range %q, want name=lo:hi:n", s)
	}
	lo, err := strconv.ParseFloat(parts[0], 64)
	if err != nil {
		return "", nil, err
	}
	hi, err := strconv.ParseFloat(parts[1], 64)
	if err != nil {
		return "", nil, err
	}
	n, err := strconv.Atoi(parts[2])
	if err != nil {
		return "", nil, err
	}
	return name, optim.Linspace(lo, hi, n), nil
}

func sweep(cmd *cobra.Command, args []string) error {
	base, err := resolveConfig(cmd, args)
	if err != nil {
		return err
	}

	var names []string
	var ranges [][]float64
	for _, p := range sweepParams {
		name, values, err := parseRange(p)
		if err != nil {
			return err
		}
		names = append(names, name)
		ranges = append(ranges, values)
	}

	registry := experiment.NewRegistry()
	gs := optim.NewGridSearch(names, ranges)
	best, val, err := gs.Search(cmd.Context(), func(params map[string]float64) (*experiment.Experiment, error) {
		cfg, err := optim.Apply(base, params)
		if err != nil {
			return nil, err
		}
		return registry.Build(cfg)
	}, sweepMetric)

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintf(w, "%s\t%s\n", strings.ToUpper(strings.Join(names, "\t")), strings.ToUpper(sweepMetric))
	for _, tr := range gs.Trials() {
		row := make([]string, 0, len(names)+1)
		for _, n := range names {
			row = append(row, strconv.FormatFloat(tr.Params[n], 'g', 6, 64))
		}
		switch {
		case tr.Err != nil:
			row = append(row, "error: "+tr.Err.Error())
		case tr.Diverged:
			row = append(row, "diverged")
		default:
			row = append(row, strconv.FormatFloat(tr.Value, 'g', 6, 64))
		}
		fmt.Fprintln(w, strings.Join(row, "\t"))
	}
	if err := w.Flush(); err != nil {
		return err
	}
	if err != nil {
		return err
	}

	fmt.Printf("\nbest %s = %.6g at", sweepMetric, val)
	for _, n := range names {
		fmt.Printf(" %s=%g", n, best[n])
	}
	fmt.Println()
	return nil
}

func comparePresets(cmd *cobra.Command, args []string) error {
	plant := args[0]
	names := args[1:]
	if len(names) == 0 {
		names = config.ListPresets(plant)
	}
	if len(names) == 0 {
		return fmt.Errorf("unknown plant: %s (available: %v)", plant, config.Plants())
	}

	registry := experiment.NewRegistry()
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "PRESET\tGAIN\tIAE\tFINAL ERR\tEFFORT\tSATURATED\tOVERSHOOT\tSETTLING")

	for _, name := range names {
		cfg := config.GetPreset(plant, name)
		if cfg == nil {
			return fmt.Errorf("unknown preset: %s (available: %v)", name, config.ListPresets(plant))
		}
		exp, err := registry.Build(cfg)
		if err != nil {
			return err
		}
		res, err := exp.Run(cmd.Context())
		if err != nil {
			return err
		}
		if res.Diverged {
			fmt.Fprintf(w, "%s\t%g\tdiverged\t\t\t\t\t\n", name, cfg.Gain)
			continue
		}
		info, err := analysis.StepInfo(res.Times, res.Response, math.NaN())
		if err != nil {
			return err
		}
		fmt.Fprintf(w, "%s\t%g\t%.4g\t%.4g\t%.4g\t%.0f%%\t%.2f%%\t%.3gs\n",
			name, cfg.Gain,
			res.Metrics["iae"], res.Metrics["final_error"], res.Metrics["control_effort"],
			100*res.Metrics["saturation_ratio"], info.Overshoot, info.SettlingTime)
	}
	return w.Flush()
}

// scenarioFlagChanged reports whether any flag registered by scenarioFlags
// was set on the command line.
func scenarioFlagChanged(cmd *cobra.Command) bool {
	for _, name := range scenarioFlagNames {
		if f := cmd.Flags().Lookup(name); f != nil && f.Changed {
			return true
		}
	}
	return false
}

func runTuner(cmd *cobra.Command, args []string) error {
	var start *config.Config
	if len(args) > 0 || configFile != "" || scenarioFlagChanged(cmd) {
		cfg, err := resolveConfig(cmd, args)
		if err != nil {
			return err
		}
		start = cfg
	}
	p := tea.NewProgram(tui.NewTuner(cmd.Context(), start), tea.WithAltScreen())
	_, err := p.Run()
	return err
}
