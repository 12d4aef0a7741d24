package postgres

import (
	"testing"

	"linhypo/domain/regression"
	"linhypo/internal/profiling"
	"linhypo/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRowConversionKeepsDocuments(t *testing.T) {
	run := models.NewRegressionRun("scenario", 300, 5)
	run.GammaMode = "log"
	run.Result = &regression.Result{
		Coeffs:     []float64{1, 2},
		TestResult: regression.TestResult{P: 0.01, F: 7, DFModel: 1, DFError: 297},
		CoeffsP:    []float64{0.2, 0.001},
		CoeffsF:    []float64{1.5, 11},
	}
	run.Residuals = &profiling.ResidualProfile{Count: 300}

	row, err := toRow(run)
	require.NoError(t, err)
	assert.Contains(t, string(row.Result), `"coeffs_p":[0.2,0.001]`)

	back, err := fromRow(row)
	require.NoError(t, err)
	assert.Equal(t, run.Result.Coeffs, back.Result.Coeffs)
	assert.Equal(t, run.Result.TestResult, back.Result.TestResult)
	assert.Equal(t, 300, back.Residuals.Count)
	assert.Equal(t, run.ID, back.ID)
}

func TestRowWithoutResiduals(t *testing.T) {
	run := models.NewRegressionRun("bare", 10, 1)
	run.Result = &regression.Result{Coeffs: []float64{1}}

	row, err := toRow(run)
	require.NoError(t, err)
	assert.Nil(t, row.Residuals)

	back, err := fromRow(row)
	require.NoError(t, err)
	assert.Nil(t, back.Residuals)
}
