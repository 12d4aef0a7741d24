package profiling

import (
	"math"

	"linhypo/internal/errors"

	"github.com/montanaflynn/stats"
	"gonum.org/v1/gonum/stat/distuv"
)

// NormalityAlpha is the level below which residuals are flagged as non-normal
const NormalityAlpha = 0.05

// Summary holds location and spread statistics
type Summary struct {
	Mean   float64 `json:"mean"`
	StdDev float64 `json:"std_dev"`
	Min    float64 `json:"min"`
	Max    float64 `json:"max"`
	Median float64 `json:"median"`
	Q25    float64 `json:"q25"`
	Q75    float64 `json:"q75"`
}

// Shape holds moment-based shape statistics and the normality check
type Shape struct {
	Skewness     float64 `json:"skewness"`
	Kurtosis     float64 `json:"kurtosis"` // not excess; 3 for a normal sample
	JarqueBera   float64 `json:"jarque_bera"`
	NormalityP   float64 `json:"normality_p"`
	LooksNormal  bool    `json:"looks_normal"`
	OutlierCount int     `json:"outlier_count"`
}

// ResidualProfile describes the residuals of a fitted model
type ResidualProfile struct {
	Count   int     `json:"count"`
	Summary Summary `json:"summary"`
	Shape   Shape   `json:"shape"`
}

// DistributionAnalyzer handles distribution shape analysis
type DistributionAnalyzer struct {
	alpha float64
}

// NewDistributionAnalyzer creates a new distribution analyzer
func NewDistributionAnalyzer() *DistributionAnalyzer {
	return &DistributionAnalyzer{alpha: NormalityAlpha}
}

// AnalyzeResiduals profiles residuals with the default analyzer
func AnalyzeResiduals(residuals []float64) (ResidualProfile, error) {
	return NewDistributionAnalyzer().AnalyzeDistribution(residuals)
}

// AnalyzeDistribution computes summary statistics, moment shape and a
// Jarque-Bera normality check for data
func (da *DistributionAnalyzer) AnalyzeDistribution(data []float64) (ResidualProfile, error) {
	profile := ResidualProfile{Count: len(data)}
	if len(data) == 0 {
		return profile, errors.InvalidInput("cannot profile an empty sample")
	}

	summary, err := summarize(data)
	if err != nil {
		return profile, errors.Wrap(err, "failed to summarize sample")
	}
	profile.Summary = summary

	skewness, kurtosis := moments(data, summary.Mean)
	jb := jarqueBera(len(data), skewness, kurtosis)
	p := 1 - distuv.ChiSquared{K: 2}.CDF(jb)

	profile.Shape = Shape{
		Skewness:     skewness,
		Kurtosis:     kurtosis,
		JarqueBera:   jb,
		NormalityP:   p,
		LooksNormal:  p > da.alpha,
		OutlierCount: detectOutliers(data, summary.Q25, summary.Q75),
	}
	return profile, nil
}

func summarize(data []float64) (Summary, error) {
	var s Summary
	var err error

	if s.Mean, err = stats.Mean(data); err != nil {
		return s, err
	}
	if s.StdDev, err = stats.StandardDeviation(data); err != nil {
		return s, err
	}
	if s.Min, err = stats.Min(data); err != nil {
		return s, err
	}
	if s.Max, err = stats.Max(data); err != nil {
		return s, err
	}
	if s.Median, err = stats.Median(data); err != nil {
		return s, err
	}

	// Nearest-rank quartiles are defined for any sample size
	if s.Q25, err = stats.PercentileNearestRank(data, 25); err != nil {
		return s, err
	}
	if s.Q75, err = stats.PercentileNearestRank(data, 75); err != nil {
		return s, err
	}
	return s, nil
}

// moments returns the population skewness g1 and kurtosis b2. A constant
// sample has no shape and reports the normal values 0 and 3.
func moments(data []float64, mean float64) (skewness, kurtosis float64) {
	var m2, m3, m4 float64
	for _, x := range data {
		d := x - mean
		d2 := d * d
		m2 += d2
		m3 += d2 * d
		m4 += d2 * d2
	}
	n := float64(len(data))
	m2 /= n
	m3 /= n
	m4 /= n

	if m2 == 0 {
		return 0, 3
	}
	return m3 / math.Pow(m2, 1.5), m4 / (m2 * m2)
}

func jarqueBera(n int, skewness, kurtosis float64) float64 {
	excess := kurtosis - 3
	return float64(n) / 6 * (skewness*skewness + excess*excess/4)
}

// detectOutliers identifies outliers using IQR method
func detectOutliers(data []float64, q25, q75 float64) int {
	iqr := q75 - q25
	lowerBound := q25 - 1.5*iqr
	upperBound := q75 + 1.5*iqr

	outlierCount := 0
	for _, x := range data {
		if x < lowerBound || x > upperBound {
			outlierCount++
		}
	}

	return outlierCount
}
