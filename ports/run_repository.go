package ports

import (
	"context"

	"linhypo/models"

	"github.com/google/uuid"
)

// RunRepository stores regression runs
type RunRepository interface {
	Save(ctx context.Context, run *models.RegressionRun) error
	Get(ctx context.Context, id uuid.UUID) (*models.RegressionRun, error)
	// List returns runs newest first
	List(ctx context.Context, limit, offset int) ([]*models.RegressionRun, error)
}
