package profiling

import (
	"math"
	"math/rand/v2"
	"testing"

	"linhypo/internal/errors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAnalyzeResidualsSummary(t *testing.T) {
	profile, err := AnalyzeResiduals([]float64{1, 2, 3, 4, 5})
	require.NoError(t, err)

	assert.Equal(t, 5, profile.Count)
	assert.InDelta(t, 3.0, profile.Summary.Mean, 1e-12)
	assert.InDelta(t, math.Sqrt2, profile.Summary.StdDev, 1e-12)
	assert.Equal(t, 1.0, profile.Summary.Min)
	assert.Equal(t, 5.0, profile.Summary.Max)
	assert.Equal(t, 3.0, profile.Summary.Median)
	assert.Equal(t, 2.0, profile.Summary.Q25)
	assert.Equal(t, 4.0, profile.Summary.Q75)
}

func TestAnalyzeResidualsShape(t *testing.T) {
	profile, err := AnalyzeResiduals([]float64{1, 2, 3, 4, 5})
	require.NoError(t, err)

	// m2 = 2, m4 = 6.8
	assert.InDelta(t, 0.0, profile.Shape.Skewness, 1e-12)
	assert.InDelta(t, 1.7, profile.Shape.Kurtosis, 1e-12)
	jb := 5.0 / 6 * (1.3 * 1.3 / 4)
	assert.InDelta(t, jb, profile.Shape.JarqueBera, 1e-12)
	// chi-squared with 2 df has survival exp(-x/2)
	assert.InDelta(t, math.Exp(-jb/2), profile.Shape.NormalityP, 1e-9)
	assert.True(t, profile.Shape.LooksNormal)
	assert.Zero(t, profile.Shape.OutlierCount)
}

func TestAnalyzeResidualsOutliers(t *testing.T) {
	profile, err := AnalyzeResiduals([]float64{1, 2, 3, 4, 100})
	require.NoError(t, err)
	assert.Equal(t, 1, profile.Shape.OutlierCount)
	assert.Greater(t, profile.Shape.Skewness, 0.0)
}

func TestAnalyzeResidualsFlagsSkewedSample(t *testing.T) {
	rng := rand.New(rand.NewPCG(11, 13))
	data := make([]float64, 500)
	for i := range data {
		data[i] = rng.ExpFloat64()
	}

	profile, err := AnalyzeResiduals(data)
	require.NoError(t, err)
	assert.False(t, profile.Shape.LooksNormal)
	assert.Less(t, profile.Shape.NormalityP, 1e-6)
}

func TestAnalyzeResidualsConstantSample(t *testing.T) {
	profile, err := AnalyzeResiduals([]float64{2, 2, 2})
	require.NoError(t, err)
	assert.Equal(t, 0.0, profile.Shape.Skewness)
	assert.Equal(t, 3.0, profile.Shape.Kurtosis)
	assert.Equal(t, 0.0, profile.Shape.JarqueBera)
}

func TestAnalyzeResidualsEmpty(t *testing.T) {
	_, err := AnalyzeResiduals(nil)
	assert.Equal(t, errors.CodeInvalidInput, errors.GetCode(err))
}
