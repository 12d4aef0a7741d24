package app

import (
	"context"
	"fmt"
	"unicode/utf8"

	"linhypo/domain/regression"
	"linhypo/domain/stats"
	"linhypo/internal"
	"linhypo/internal/config"
	"linhypo/internal/errors"
	"linhypo/internal/profiling"
	"linhypo/internal/report"
	"linhypo/internal/testkit"
	"linhypo/models"
	"linhypo/ports"

	"github.com/google/uuid"
	"gonum.org/v1/gonum/mat"
)

// RegressionService runs regressions, profiles their residuals and stores the runs
type RegressionService struct {
	orchestrator *regression.Orchestrator
	runRepo      ports.RunRepository
	logger       *internal.Logger
}

// RunRequest defines one regression to run
type RunRequest struct {
	Name              string
	X                 mat.Matrix
	Y                 []float64
	Constraints       regression.ConstraintSystem
	ExplicitIntercept bool
}

// NewRegressionService creates a regression service
func NewRegressionService(orchestrator *regression.Orchestrator, runRepo ports.RunRepository, logger *internal.Logger) *RegressionService {
	if logger == nil {
		logger = internal.DefaultLogger
	}
	return &RegressionService{
		orchestrator: orchestrator,
		runRepo:      runRepo,
		logger:       logger,
	}
}

// NewOrchestrator builds the regression engine described by cfg
func NewOrchestrator(cfg config.RegressionConfig, logger *internal.Logger) *regression.Orchestrator {
	mode, ok := stats.ParseGammaMode(cfg.GammaMode)
	if !ok {
		mode = stats.GammaLog
	}
	beta := stats.NewIncompleteBeta(stats.BetaConfig{Terms: cfg.SeriesTerms, Mode: mode})
	tester := regression.NewHypothesisTester(stats.NewFDistribution(beta))
	return regression.NewOrchestrator(tester, regression.OrchestratorConfig{
		Parallel:   cfg.Parallel,
		MaxWorkers: cfg.MaxWorkers,
	}, logger)
}

// Run executes a regression and stores the resulting run
func (s *RegressionService) Run(ctx context.Context, req RunRequest) (*models.RegressionRun, error) {
	if utf8.RuneCountInString(req.Name) > models.MaxRunNameLength {
		return nil, errors.InvalidInput(fmt.Sprintf("run name exceeds %d characters", models.MaxRunNameLength))
	}
	if req.X == nil {
		return nil, errors.InvalidInput("design matrix is required")
	}
	n, p := req.X.Dims()
	if len(req.Y) == 0 {
		return nil, errors.InvalidInput("response vector is required")
	}

	res, err := s.orchestrator.Run(ctx, regression.Input{
		X:                 req.X,
		Y:                 req.Y,
		Constraints:       req.Constraints,
		ExplicitIntercept: req.ExplicitIntercept,
	})
	if err != nil {
		s.logger.Warn("regression %q failed: %v", req.Name, err)
		return nil, err
	}
	if !res.Finite() {
		s.logger.Warn("regression %q has non-finite statistics", req.Name)
		return nil, errors.InvalidInput("regression statistics are not finite: the response has no residual variance")
	}

	run := models.NewRegressionRun(req.Name, n, p)
	run.Constrained = !req.Constraints.IsEmpty()
	run.GammaMode = s.orchestrator.Tester().FDistribution().Beta().Mode().String()
	run.Result = res
	run.Residuals = s.profileResiduals(req, res)

	if err := s.runRepo.Save(ctx, run); err != nil {
		return nil, errors.Wrap(err, "failed to store regression run")
	}

	s.logger.Info("regression run %s stored: F(%d,%d) = %.4g, p = %.4g",
		run.ID, res.DFModel, res.DFError, res.F, res.P)
	return run, nil
}

// profileResiduals summarises the residuals of the fitted model; a failure
// leaves the run without diagnostics
func (s *RegressionService) profileResiduals(req RunRequest, res *regression.Result) *profiling.ResidualProfile {
	design := req.X
	if !req.ExplicitIntercept {
		design = regression.AppendIntercept(req.X)
	}
	residuals, err := regression.Residuals(design, req.Y, res.Coeffs)
	if err != nil {
		s.logger.Warn("residuals unavailable: %v", err)
		return nil
	}
	profile, err := profiling.AnalyzeResiduals(residuals)
	if err != nil {
		s.logger.Warn("residual profile unavailable: %v", err)
		return nil
	}
	return &profile
}

// Simulate generates data from cfg and runs a regression on it
func (s *RegressionService) Simulate(ctx context.Context, name string, cfg testkit.SimulationConfig, constraints regression.ConstraintSystem) (*models.RegressionRun, error) {
	x, y, err := testkit.Simulate(cfg)
	if err != nil {
		return nil, err
	}
	if name == "" {
		name = "simulation"
	}
	return s.Run(ctx, RunRequest{Name: name, X: x, Y: y, Constraints: constraints})
}

// Get returns a stored run
func (s *RegressionService) Get(ctx context.Context, id uuid.UUID) (*models.RegressionRun, error) {
	return s.runRepo.Get(ctx, id)
}

// List returns stored runs newest first
func (s *RegressionService) List(ctx context.Context, limit, offset int) ([]*models.RegressionRun, error) {
	return s.runRepo.List(ctx, limit, offset)
}

// Report renders a stored run
func (s *RegressionService) Report(ctx context.Context, id uuid.UUID, format report.Format) ([]byte, error) {
	run, err := s.runRepo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	return report.Render(report.Document{
		Title:     run.Name,
		Result:    run.Result,
		Residuals: run.Residuals,
	}, format)
}
