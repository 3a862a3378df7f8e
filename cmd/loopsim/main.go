package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/san-kum/loopsim/internal/config"
	"github.com/san-kum/loopsim/internal/logging"
)

var (
	dataDir   string
	logLevel  string
	logFormat string
	logger    zerolog.Logger

	// scenario overrides
	configFile string
	preset     string
	dt         float64
	duration   float64
	gain       float64
	distGain   float64
	satLimit   float64
	initial    float64
	hold       string
	method     string
	ffScale    float64
	metricList []string

	// run output
	noSave  bool
	showASC bool
	pngPath string

	// plot
	phaseSVG  string
	showPhase bool

	// export
	outPath string

	// describe
	simulate bool

	// sweep
	sweepParams []string
	sweepMetric string

	// montecarlo
	trials  int
	perturb float64
	seed    int64
)

// main registers the loopsim commands and runs the tuner when no subcommand
// is given.
func main() {
	rootCmd := &cobra.Command{
		Use:   "loopsim",
		Short: "closed-loop control simulation lab",
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			l, err := logging.Setup(logLevel, logFormat, os.Stderr)
			if err != nil {
				return err
			}
			logger = l
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTuner(cmd, nil)
		},
		SilenceUsage: true,
	}

	rootCmd.PersistentFlags().StringVar(&dataDir, "data", ".loopsim", "data directory")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "info", "log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().StringVar(&logFormat, "log-format", "text", "log format (text, json)")

	runCmd := &cobra.Command{
		Use:   "run [plant[/preset]]",
		Short: "run a closed-loop scenario",
		Args:  cobra.MaximumNArgs(1),
		RunE:  runScenario,
	}
	scenarioFlags(runCmd)
	runCmd.Flags().BoolVar(&noSave, "no-save", false, "do not store the run")
	runCmd.Flags().BoolVar(&showASC, "plot", false, "print terminal plots")
	runCmd.Flags().StringVar(&pngPath, "png", "", "write a PNG plot")

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
	plotCmd.Flags().StringVar(&pngPath, "png", "", "write a PNG plot instead of terminal graphs")
	plotCmd.Flags().BoolVar(&showPhase, "phase", false, "print the error phase portrait")
	plotCmd.Flags().StringVar(&phaseSVG, "phase-svg", "", "write the error phase portrait as SVG")

	exportJSONCmd := &cobra.Command{
		Use:   "export-json [run_id]",
		Short: "export run data to JSON",
		Args:  cobra.ExactArgs(1),
		RunE:  exportJSON,
	}
	exportJSONCmd.Flags().StringVarP(&outPath, "out", "o", "-", "output file (- for stdout)")

	exportCSVCmd := &cobra.Command{
		Use:   "export-csv [run_id]",
		Short: "export run data to CSV",
		Args:  cobra.ExactArgs(1),
		RunE:  exportCSV,
	}
	exportCSVCmd.Flags().StringVarP(&outPath, "out", "o", "-", "output file (- for stdout)")

	presetsCmd := &cobra.Command{
		Use:   "presets [plant]",
		Short: "list available presets",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			plants := config.Plants()
			if len(args) > 0 {
				plants = args
			}
			for _, plant := range plants {
				presets := config.ListPresets(plant)
				if len(presets) == 0 {
					fmt.Printf("no presets for plant: %s\n", plant)
					continue
				}
				fmt.Printf("presets for %s:\n", plant)
				for _, p := range presets {
					fmt.Printf("  %s\n", p)
				}
			}
			return nil
		},
	}

	describeCmd := &cobra.Command{
		Use:   "describe [plant[/preset]]",
		Short: "predict limit cycles with the describing function",
		Args:  cobra.MaximumNArgs(1),
		RunE:  describeLoop,
	}
	scenarioFlags(describeCmd)
	describeCmd.Flags().BoolVar(&simulate, "simulate", false, "compare the prediction with a simulation")

	sweepCmd := &cobra.Command{
		Use:   "sweep [plant[/preset]]",
		Short: "grid search scenario parameters",
		Args:  cobra.MaximumNArgs(1),
		RunE:  sweep,
	}
	scenarioFlags(sweepCmd)
	sweepCmd.Flags().StringSliceVar(&sweepParams, "param", []string{"gain=1:20:8"}, "name=lo:hi:n (gain, ff_scale, disturbance_gain, saturation)")
	sweepCmd.Flags().StringVar(&sweepMetric, "metric", "iae", "metric to minimize")

	compareCmd := &cobra.Command{
		Use:   "compare [plant] [preset1] [preset2] ...",
		Short: "compare presets of a plant",
		Args:  cobra.MinimumNArgs(1),
		RunE:  comparePresets,
	}

	tuneCmd := &cobra.Command{
		Use:   "tune [plant[/preset]]",
		Short: "interactive gain tuner",
		Args:  cobra.MaximumNArgs(1),
		RunE:  runTuner,
	}
	scenarioFlags(tuneCmd)

	batchCmd := &cobra.Command{
		Use:   "batch [scenario.yaml]",
		Short: "run a scripted sequence of scenarios",
		Args:  cobra.ExactArgs(1),
		RunE:  runBatch,
	}
	batchCmd.Flags().BoolVar(&noSave, "no-save", false, "do not store the runs")

	monteCarloCmd := &cobra.Command{
		Use:   "montecarlo [plant[/preset]]",
		Short: "robustness under random gain and plant perturbations",
		Args:  cobra.MaximumNArgs(1),
		RunE:  runMonteCarlo,
	}
	scenarioFlags(monteCarloCmd)
	monteCarloCmd.Flags().IntVar(&trials, "trials", 100, "number of trials")
	monteCarloCmd.Flags().Float64Var(&perturb, "perturb", 0.2, "relative perturbation of gain and plant coefficients")
	monteCarloCmd.Flags().Int64Var(&seed, "seed", 0, "random seed (0 for time-based)")
	monteCarloCmd.Flags().StringVar(&sweepMetric, "metric", "iae", "metric to summarize")

	rootCmd.AddCommand(runCmd, listCmd, plotCmd, exportJSONCmd, exportCSVCmd, presetsCmd, describeCmd, sweepCmd, compareCmd, tuneCmd, batchCmd, monteCarloCmd)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}

var scenarioFlagNames = []string{"config", "preset", "dt", "time", "gain", "dist-gain", "sat", "ic", "hold", "method", "ff-scale", "metrics"}

func scenarioFlags(cmd *cobra.Command) {
	cmd.Flags().StringVar(&configFile, "config", "", "config file path (yaml)")
	cmd.Flags().StringVar(&preset, "preset", "", "preset name (default: first listed for the plant)")
	cmd.Flags().Float64Var(&dt, "dt", config.DefaultDt, "sample step")
	cmd.Flags().Float64Var(&duration, "time", config.DefaultDuration, "duration")
	cmd.Flags().Float64Var(&gain, "gain", config.DefaultGain, "proportional gain K")
	cmd.Flags().Float64Var(&distGain, "dist-gain", -1, "disturbance gain")
	cmd.Flags().Float64Var(&satLimit, "sat", 100, "symmetric saturation limit")
	cmd.Flags().Float64Var(&initial, "ic", 0, "initial output")
	cmd.Flags().StringVar(&hold, "hold", "foh", "input hold between samples (foh, zoh)")
	cmd.Flags().StringVar(&method, "method", "recurrence", "simulation method (recurrence, prefix)")
	cmd.Flags().Float64Var(&ffScale, "ff-scale", 1, "static-inverse feed-forward scale (enables feed-forward)")
	cmd.Flags().StringSliceVar(&metricList, "metrics", nil, "metrics or metric sets to collect")
}

// resolveConfig layers defaults, preset, config file and changed flags, in
// that order.
func resolveConfig(cmd *cobra.Command, args []string) (*config.Config, error) {
	cfg := config.DefaultConfig()

	if len(args) > 0 {
		plant, name := args[0], preset
		if p, n, ok := strings.Cut(args[0], "/"); ok {
			plant, name = p, n
		}
		if name == "" {
			names := config.ListPresets(plant)
			if len(names) == 0 {
				return nil, fmt.Errorf("unknown plant: %s (available: %v)", plant, config.Plants())
			}
			name = names[0]
		}
		cfg = config.GetPreset(plant, name)
		if cfg == nil {
			return nil, fmt.Errorf("unknown preset: %s (available: %v)", name, config.ListPresets(plant))
		}
	}

	if configFile != "" {
		loaded, err := config.Load(configFile)
		if err != nil {
			return nil, fmt.Errorf("failed to load config: %w", err)
		}
		if loaded.Name == "" {
			loaded.Name = strings.TrimSuffix(configFile, ".yaml")
		}
		cfg = loaded
	}

	flags := cmd.Flags()
	if flags.Changed("dt") {
		cfg.Dt = dt
	}
	if flags.Changed("time") {
		cfg.Duration = duration
	}
	if flags.Changed("gain") {
		cfg.Gain = gain
	}
	if flags.Changed("dist-gain") {
		cfg.DisturbanceGain = distGain
	}
	if flags.Changed("sat") {
		cfg.Saturation.Lower, cfg.Saturation.Upper = -satLimit, satLimit
	}
	if flags.Changed("ic") {
		cfg.InitialCondition = initial
	}
	if flags.Changed("hold") {
		cfg.Hold = hold
	}
	if flags.Changed("method") {
		cfg.Method = method
	}
	if flags.Changed("ff-scale") {
		cfg.FeedForward.Mode = config.FeedForwardInverse
		cfg.FeedForward.Scale = ffScale
	}
	if flags.Changed("metrics") {
		cfg.Metrics = metricList
	}
	return cfg, cfg.Validate()
}
