package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"slices"
	"strconv"
	"strings"

	"linhypo/adapters/excel"
	"linhypo/adapters/memory"
	"linhypo/app"
	"linhypo/domain/regression"
	"linhypo/internal"
	"linhypo/internal/config"
	"linhypo/internal/report"
	"linhypo/internal/testkit"
	"linhypo/models"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

func main() {
	_ = godotenv.Load()

	rootCmd := &cobra.Command{
		Use:          "linhypo",
		Short:        "OLS regression with general linear hypothesis tests",
		SilenceUsage: true,
	}

	rootCmd.AddCommand(
		newSimulateCmd(),
		newFitCmd(),
	)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// newService wires a regression service backed by an in-memory run store
func newService() (*app.RegressionService, *internal.Logger, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, err
	}
	logger := internal.NewLogger(internal.ParseLogLevel(cfg.LogLevel))
	orch := app.NewOrchestrator(cfg.Regression, logger)
	return app.NewRegressionService(orch, memory.NewRunRepository(), logger), logger, nil
}

func newSimulateCmd() *cobra.Command {
	var (
		sim       = testkit.DefaultSimulationConfig()
		coeffs    []string
		null      bool
		constrain []int
		format    string
	)

	cmd := &cobra.Command{
		Use:   "simulate",
		Short: "Fit and test a regression on simulated data",
		Long: `Simulate uniform predictors and a response with known effects, then fit
and test it. Without --constrain the model test covers every predictor;
each --constrain index adds the constraint that this predictor is zero.

--null (or --coeff none) simulates a response without any true effect.

Example: linhypo simulate --obs 300 --pred 5 --coeff 0=1 --coeff 3=2 --intercept 20 --constrain 1`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if null {
				coeffs = nil
			}
			fixed, err := parseCoefficients(coeffs)
			if err != nil {
				return err
			}
			sim.FixedCoefficients = fixed

			cs, err := indexConstraints(constrain, sim.Predictors)
			if err != nil {
				return err
			}

			svc, logger, err := newService()
			if err != nil {
				return err
			}
			defer logger.Sync()

			ctx := cmd.Context()
			run, err := svc.Simulate(ctx, "simulation", sim, cs)
			if err != nil {
				return err
			}
			return printRun(ctx, cmd, svc, run, format)
		},
	}

	cmd.Flags().IntVar(&sim.Observations, "obs", sim.Observations, "Number of observations")
	cmd.Flags().IntVar(&sim.Predictors, "pred", sim.Predictors, "Number of predictors")
	cmd.Flags().StringArrayVar(&coeffs, "coeff", []string{"0=1", "3=2"}, "Fixed coefficient as index=value (repeatable)")
	cmd.Flags().BoolVar(&null, "null", false, "Simulate without fixed coefficients")
	cmd.Flags().Float64Var(&sim.Intercept, "intercept", sim.Intercept, "Intercept added to the response")
	cmd.Flags().Uint64Var(&sim.Seed, "seed", sim.Seed, "Random seed")
	cmd.Flags().IntSliceVar(&constrain, "constrain", nil, "Predictor index constrained to zero (repeatable)")
	cmd.Flags().StringVar(&format, "format", "text", "Output format: text, markdown, html or json")

	return cmd
}

func newFitCmd() *cobra.Command {
	var (
		file              string
		response          string
		predictors        []string
		constrain         []string
		explicitIntercept bool
		dropIncomplete    bool
		sheet             string
		format            string
	)

	cmd := &cobra.Command{
		Use:   "fit",
		Short: "Fit and test a regression on an .xlsx or .csv file",
		Long: `Read a table with a header row, regress the response column on the
predictor columns and test the hypothesis built from --constrain (each named
predictor is constrained to zero; none tests every predictor).

Example: linhypo fit --file data.xlsx --response y --predictors a,b,c --constrain b`,
		RunE: func(cmd *cobra.Command, args []string) error {
			reader := excel.NewDataReaderWithConfig(file, excel.ExcelConfig{
				Sheet:              sheet,
				DropIncompleteRows: dropIncomplete,
			})
			ds, err := reader.ReadDesign(response, predictors)
			if err != nil {
				return err
			}

			indices, err := predictorIndices(ds.Predictors, constrain)
			if err != nil {
				return err
			}
			cs, err := indexConstraints(indices, len(ds.Predictors))
			if err != nil {
				return err
			}

			svc, logger, err := newService()
			if err != nil {
				return err
			}
			defer logger.Sync()

			ctx := cmd.Context()
			run, err := svc.Run(ctx, app.RunRequest{
				Name:              file,
				X:                 ds.X,
				Y:                 ds.Y,
				Constraints:       cs,
				ExplicitIntercept: explicitIntercept,
			})
			if err != nil {
				return err
			}

			if format == "text" {
				fmt.Fprintf(cmd.OutOrStdout(), "Response %s; predictors %s.\n", ds.Response, strings.Join(ds.Predictors, ", "))
			}
			return printRun(ctx, cmd, svc, run, format)
		},
	}

	cmd.Flags().StringVar(&file, "file", "", "Path to an .xlsx or .csv file")
	cmd.Flags().StringVar(&response, "response", "", "Response column")
	cmd.Flags().StringSliceVar(&predictors, "predictors", nil, "Predictor columns (default: every other column)")
	cmd.Flags().StringSliceVar(&constrain, "constrain", nil, "Predictor constrained to zero (repeatable)")
	cmd.Flags().BoolVar(&explicitIntercept, "explicit-intercept", false, "The predictors already include an intercept column")
	cmd.Flags().BoolVar(&dropIncomplete, "drop-incomplete", false, "Skip rows with empty cells")
	cmd.Flags().StringVar(&sheet, "sheet", "", "Sheet name (default: first sheet)")
	cmd.Flags().StringVar(&format, "format", "text", "Output format: text, markdown, html or json")
	cmd.MarkFlagRequired("file")
	cmd.MarkFlagRequired("response")

	return cmd
}

func printRun(ctx context.Context, cmd *cobra.Command, svc *app.RegressionService, run *models.RegressionRun, format string) error {
	out := cmd.OutOrStdout()
	if format == "json" {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(run)
	}

	f, ok := report.ParseFormat(format)
	if !ok {
		return fmt.Errorf("unknown format %q", format)
	}
	body, err := svc.Report(ctx, run.ID, f)
	if err != nil {
		return err
	}
	_, err = out.Write(body)
	return err
}

// parseCoefficients parses index=value pairs; "none" and empty entries add nothing
func parseCoefficients(pairs []string) (map[int]float64, error) {
	fixed := make(map[int]float64, len(pairs))
	for _, pair := range pairs {
		if p := strings.TrimSpace(pair); p == "" || strings.EqualFold(p, "none") {
			continue
		}
		idx, val, ok := strings.Cut(pair, "=")
		if !ok {
			return nil, fmt.Errorf("coefficient %q is not index=value", pair)
		}
		i, err := strconv.Atoi(strings.TrimSpace(idx))
		if err != nil {
			return nil, fmt.Errorf("coefficient index %q: %w", idx, err)
		}
		v, err := strconv.ParseFloat(strings.TrimSpace(val), 64)
		if err != nil {
			return nil, fmt.Errorf("coefficient value %q: %w", val, err)
		}
		fixed[i] = v
	}
	return fixed, nil
}

// indexConstraints builds one row e_i per index over the given number of
// columns; no indices yields the default hypothesis
func indexConstraints(indices []int, columns int) (regression.ConstraintSystem, error) {
	if len(indices) == 0 {
		return regression.ConstraintSystem{}, nil
	}
	rows := make([][]float64, len(indices))
	for r, idx := range indices {
		if idx < 0 || idx >= columns {
			return regression.ConstraintSystem{}, fmt.Errorf("constrained index %d outside 0..%d", idx, columns-1)
		}
		rows[r] = make([]float64, columns)
		rows[r][idx] = 1
	}
	return regression.NewConstraintSystem(rows, make([]float64, len(indices)))
}

func predictorIndices(predictors, names []string) ([]int, error) {
	indices := make([]int, 0, len(names))
	for _, name := range names {
		found := slices.Index(predictors, name)
		if found < 0 {
			return nil, fmt.Errorf("constrained column %q is not a predictor", name)
		}
		indices = append(indices, found)
	}
	return indices, nil
}
