package models

import (
	"time"

	"linhypo/domain/regression"
	"linhypo/internal/profiling"

	"github.com/google/uuid"
)

// MaxRunNameLength is the longest run name the store accepts, in characters
const MaxRunNameLength = 255

// RegressionRun is one stored regression with its tests and diagnostics
type RegressionRun struct {
	ID           uuid.UUID                  `json:"id" db:"id"`
	Name         string                     `json:"name" db:"name"`
	Observations int                        `json:"observations" db:"observations"`
	Predictors   int                        `json:"predictors" db:"predictors"` // design columns before any appended intercept
	Constrained  bool                       `json:"constrained" db:"constrained"`
	GammaMode    string                     `json:"gamma_mode" db:"gamma_mode"`
	Result       *regression.Result         `json:"result" db:"-"`
	Residuals    *profiling.ResidualProfile `json:"residuals,omitempty" db:"-"`
	CreatedAt    time.Time                  `json:"created_at" db:"created_at"`
}

// NewRegressionRun stamps a run with a fresh ID and creation time
func NewRegressionRun(name string, observations, predictors int) *RegressionRun {
	return &RegressionRun{
		ID:           uuid.New(),
		Name:         name,
		Observations: observations,
		Predictors:   predictors,
		CreatedAt:    time.Now().UTC(),
	}
}
