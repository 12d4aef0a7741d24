package regression

import (
	"context"

	"linhypo/internal"
	"linhypo/internal/errors"

	"golang.org/x/sync/errgroup"
	"gonum.org/v1/gonum/mat"
)

// OrchestratorConfig controls how the per-coefficient tests are scheduled
type OrchestratorConfig struct {
	Parallel   bool
	MaxWorkers int
}

// Input is one regression request
type Input struct {
	X                 mat.Matrix
	Y                 []float64
	Constraints       ConstraintSystem // empty selects the default hypothesis
	ExplicitIntercept bool             // X already carries its intercept column
}

// Orchestrator fits a model and runs the overall and per-coefficient tests
type Orchestrator struct {
	tester *HypothesisTester
	cfg    OrchestratorConfig
	logger *internal.Logger
}

// NewOrchestrator creates an orchestrator; nil tester or logger select defaults
func NewOrchestrator(tester *HypothesisTester, cfg OrchestratorConfig, logger *internal.Logger) *Orchestrator {
	if tester == nil {
		tester = NewHypothesisTester(nil)
	}
	if logger == nil {
		logger = internal.DefaultLogger
	}
	if cfg.MaxWorkers < 1 {
		cfg.MaxWorkers = 1
	}
	return &Orchestrator{tester: tester, cfg: cfg, logger: logger}
}

// Tester returns the hypothesis tester used for every test of a run
func (o *Orchestrator) Tester() *HypothesisTester {
	return o.tester
}

// Run fits OLS coefficients and tests the supplied (or default) hypothesis,
// then every coefficient on its own. Unless ExplicitIntercept is set an
// all-ones column is appended to X and a zero column to a copy of C.
func (o *Orchestrator) Run(ctx context.Context, in Input) (*Result, error) {
	if in.X == nil {
		return nil, errors.InvalidInput("design matrix is required")
	}

	x := in.X
	cs := in.Constraints
	if !in.ExplicitIntercept {
		x = AppendIntercept(in.X)
		cs = AugmentConstraints(cs)
	}

	n, p := x.Dims()
	o.logger.Debug("fitting %d observations x %d coefficients (constraints: %d)", n, p, cs.Rows())

	coeffs, err := Fit(x, in.Y)
	if err != nil {
		return nil, errors.Wrap(err, "least squares fit failed")
	}

	overall, err := o.tester.Test(x, in.Y, coeffs, cs)
	if err != nil {
		return nil, errors.Wrap(err, "model test failed")
	}

	perCoefficient, err := o.testCoefficients(ctx, x, in.Y, coeffs)
	if err != nil {
		return nil, err
	}

	o.logger.Debug("model test F(%d,%d) = %.4g, p = %.4g", overall.DFModel, overall.DFError, overall.F, overall.P)
	return newResult(coeffs, overall, perCoefficient), nil
}

func (o *Orchestrator) testCoefficients(ctx context.Context, x mat.Matrix, y, coeffs []float64) ([]TestResult, error) {
	p := len(coeffs)
	results := make([]TestResult, p)

	if !o.cfg.Parallel {
		for i := 0; i < p; i++ {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
			tr, err := o.tester.Test(x, y, coeffs, ElementaryConstraint(p, i))
			if err != nil {
				return nil, errors.Wrapf(err, "test of coefficient %d failed", i)
			}
			results[i] = tr
		}
		return results, nil
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(o.cfg.MaxWorkers)
	for i := 0; i < p; i++ {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			tr, err := o.tester.Test(x, y, coeffs, ElementaryConstraint(p, i))
			if err != nil {
				return errors.Wrapf(err, "test of coefficient %d failed", i)
			}
			results[i] = tr
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}
