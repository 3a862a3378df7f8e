package main

import (
	"fmt"
	"math"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"gonum.org/v1/gonum/stat"

	"github.com/san-kum/loopsim/internal/automation"
	"github.com/san-kum/loopsim/internal/experiment"
	"github.com/san-kum/loopsim/internal/storage"
)

func runBatch(cmd *cobra.Command, args []string) error {
	sc, err := automation.LoadScenario(args[0])
	if err != nil {
		return err
	}

	results, err := automation.RunScenario(cmd.Context(), sc, experiment.NewRegistry(), logger)
	if err != nil {
		return err
	}

	var st *storage.Store
	if !noSave {
		st = storage.New(dataDir)
		if err := st.Init(); err != nil {
			return err
		}
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "STEP\tSCENARIO\tIAE\tFINAL ERR\tDIVERGED\tRUN ID")
	for i, r := range results {
		runID := "-"
		if st != nil {
			if runID, err = st.Save(r.Config, r.Result); err != nil {
				return err
			}
		}
		fmt.Fprintf(w, "%d\t%s\t%.4g\t%.4g\t%v\t%s\n",
			i+1, r.Name, r.Result.Metrics["iae"], r.Result.Metrics["final_error"], r.Result.Diverged, runID)
	}
	return w.Flush()
}

func runMonteCarlo(cmd *cobra.Command, args []string) error {
	base, err := resolveConfig(cmd, args)
	if err != nil {
		return err
	}

	results, err := automation.RunMonteCarlo(cmd.Context(), &automation.MonteCarloConfig{
		Base:         base,
		Perturbation: perturb,
		NumTrials:    trials,
		Seed:         seed,
		Metric:       sweepMetric,
	}, experiment.NewRegistry(), logger)
	if err != nil {
		return err
	}

	stable, unstable := automation.MonteCarloStats(results)
	var values []float64
	for _, r := range results {
		if r.Err == nil && r.Stable && !math.IsNaN(r.Value) {
			values = append(values, r.Value)
		}
	}

	fmt.Printf("trials: %d  stable: %d  unstable: %d  invalid: %d\n", len(results), stable, unstable, len(results)-stable-unstable)
	if len(values) > 1 {
		mean, std := stat.MeanStdDev(values, nil)
		fmt.Printf("%s over stable trials: mean %.6g  std %.6g\n", sweepMetric, mean, std)
	}
	return nil
}
