package memory

import (
	"context"
	"sort"
	"sync"

	"linhypo/internal/errors"
	"linhypo/models"
	"linhypo/ports"

	"github.com/google/uuid"
)

// runRepository keeps regression runs in process memory
type runRepository struct {
	mu   sync.RWMutex
	runs map[uuid.UUID]models.RegressionRun
}

// NewRunRepository creates an empty in-memory run repository
func NewRunRepository() ports.RunRepository {
	return &runRepository{runs: make(map[uuid.UUID]models.RegressionRun)}
}

// Save stores a copy of run, replacing any run with the same ID
func (r *runRepository) Save(ctx context.Context, run *models.RegressionRun) error {
	if run == nil {
		return errors.InvalidInput("run is required")
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.runs[run.ID] = *run
	return nil
}

// Get returns a copy of the run with the given ID
func (r *runRepository) Get(ctx context.Context, id uuid.UUID) (*models.RegressionRun, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	run, ok := r.runs[id]
	if !ok {
		return nil, errors.NotFound("regression run " + id.String())
	}
	return &run, nil
}

// List returns runs newest first
func (r *runRepository) List(ctx context.Context, limit, offset int) ([]*models.RegressionRun, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.RLock()
	all := make([]*models.RegressionRun, 0, len(r.runs))
	for _, run := range r.runs {
		run := run
		all = append(all, &run)
	}
	r.mu.RUnlock()

	sort.Slice(all, func(i, j int) bool {
		if all[i].CreatedAt.Equal(all[j].CreatedAt) {
			return all[i].ID.String() < all[j].ID.String()
		}
		return all[i].CreatedAt.After(all[j].CreatedAt)
	})

	if offset < 0 {
		offset = 0
	}
	if offset >= len(all) {
		return []*models.RegressionRun{}, nil
	}
	all = all[offset:]
	if limit > 0 && limit < len(all) {
		all = all[:limit]
	}
	return all, nil
}
