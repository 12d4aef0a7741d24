package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"

	"linhypo/domain/regression"
	"linhypo/internal/errors"
	"linhypo/internal/profiling"
	"linhypo/models"
	"linhypo/ports"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
)

// runRepository implements ports.RunRepository on PostgreSQL
type runRepository struct {
	db *sqlx.DB
}

// NewRunRepository creates a new regression run repository
func NewRunRepository(db *sqlx.DB) ports.RunRepository {
	return &runRepository{db: db}
}

// runRow is the table layout; result and residuals are JSONB documents
type runRow struct {
	ID           uuid.UUID `db:"id"`
	Name         string    `db:"name"`
	Observations int       `db:"observations"`
	Predictors   int       `db:"predictors"`
	Constrained  bool      `db:"constrained"`
	GammaMode    string    `db:"gamma_mode"`
	Result       []byte    `db:"result"`
	Residuals    []byte    `db:"residuals"`
	CreatedAt    time.Time `db:"created_at"`
}

const selectRuns = `SELECT id, name, observations, predictors, constrained, gamma_mode,
	result, residuals, created_at FROM regression_runs`

// Save inserts a run, or replaces the stored run with the same ID
func (r *runRepository) Save(ctx context.Context, run *models.RegressionRun) error {
	if run == nil {
		return errors.InvalidInput("run is required")
	}
	row, err := toRow(run)
	if err != nil {
		return err
	}

	query := `INSERT INTO regression_runs (
		id, name, observations, predictors, constrained, gamma_mode, result, residuals, created_at
	) VALUES (
		:id, :name, :observations, :predictors, :constrained, :gamma_mode, :result, :residuals, :created_at
	)
	ON CONFLICT (id) DO UPDATE SET
		name = EXCLUDED.name,
		observations = EXCLUDED.observations,
		predictors = EXCLUDED.predictors,
		constrained = EXCLUDED.constrained,
		gamma_mode = EXCLUDED.gamma_mode,
		result = EXCLUDED.result,
		residuals = EXCLUDED.residuals`

	if _, err := r.db.NamedExecContext(ctx, query, row); err != nil {
		return errors.DatabaseError("failed to save regression run", err)
	}
	return nil
}

// Get retrieves a run by its ID
func (r *runRepository) Get(ctx context.Context, id uuid.UUID) (*models.RegressionRun, error) {
	var row runRow
	err := r.db.GetContext(ctx, &row, selectRuns+` WHERE id = $1`, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, errors.NotFound("regression run " + id.String())
		}
		return nil, errors.DatabaseError("failed to get regression run", err)
	}
	return fromRow(row)
}

// List returns runs newest first with pagination; limit <= 0 returns all
func (r *runRepository) List(ctx context.Context, limit, offset int) ([]*models.RegressionRun, error) {
	if offset < 0 {
		offset = 0
	}
	query := selectRuns + ` ORDER BY created_at DESC, id`
	args := []interface{}{offset}
	if limit > 0 {
		query += ` LIMIT $2 OFFSET $1`
		args = append(args, limit)
	} else {
		query += ` OFFSET $1`
	}

	var rows []runRow
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, errors.DatabaseError("failed to list regression runs", err)
	}

	runs := make([]*models.RegressionRun, 0, len(rows))
	for _, row := range rows {
		run, err := fromRow(row)
		if err != nil {
			return nil, err
		}
		runs = append(runs, run)
	}
	return runs, nil
}

func toRow(run *models.RegressionRun) (runRow, error) {
	row := runRow{
		ID:           run.ID,
		Name:         run.Name,
		Observations: run.Observations,
		Predictors:   run.Predictors,
		Constrained:  run.Constrained,
		GammaMode:    run.GammaMode,
		CreatedAt:    run.CreatedAt,
	}

	var err error
	if row.Result, err = json.Marshal(run.Result); err != nil {
		return row, errors.Wrap(err, "failed to marshal regression result")
	}
	if run.Residuals != nil {
		if row.Residuals, err = json.Marshal(run.Residuals); err != nil {
			return row, errors.Wrap(err, "failed to marshal residual profile")
		}
	}
	return row, nil
}

func fromRow(row runRow) (*models.RegressionRun, error) {
	run := &models.RegressionRun{
		ID:           row.ID,
		Name:         row.Name,
		Observations: row.Observations,
		Predictors:   row.Predictors,
		Constrained:  row.Constrained,
		GammaMode:    row.GammaMode,
		CreatedAt:    row.CreatedAt,
	}

	if len(row.Result) > 0 {
		var res regression.Result
		if err := json.Unmarshal(row.Result, &res); err != nil {
			return nil, errors.Wrap(err, "failed to unmarshal regression result")
		}
		run.Result = &res
	}
	if len(row.Residuals) > 0 {
		var profile profiling.ResidualProfile
		if err := json.Unmarshal(row.Residuals, &profile); err != nil {
			return nil, errors.Wrap(err, "failed to unmarshal residual profile")
		}
		run.Residuals = &profile
	}
	return run, nil
}
