package stats

import "math"

// FDistribution converts F statistics to probabilities with the series in IncompleteBeta
type FDistribution struct {
	beta *IncompleteBeta
}

// NewFDistribution creates an F distribution evaluator; nil selects the default series
func NewFDistribution(beta *IncompleteBeta) *FDistribution {
	if beta == nil {
		beta = NewIncompleteBeta(DefaultBetaConfig())
	}
	return &FDistribution{beta: beta}
}

// Beta returns the underlying incomplete beta evaluator
func (fd *FDistribution) Beta() *IncompleteBeta {
	return fd.beta
}

// CDF returns P(F' ≤ f) for F' ~ F(dfModel, dfError).
//
// Below 1 the series is evaluated at x = d1·f/(d1·f+d2) directly; from 1 up it
// is evaluated on the other side of I_x(a,b) = 1 − I_{1−x}(b,a). The branch
// point is part of the contract: moving it changes the p-values.
func (fd *FDistribution) CDF(f, dfModel, dfError float64) float64 {
	x := dfModel * f / (dfModel*f + dfError)
	if f < 1 {
		return fd.beta.Regularized(x, dfModel/2, dfError/2)
	}
	return 1 - fd.beta.Regularized(1-x, dfError/2, dfModel/2)
}

// PValue returns 1 − CDF. Truncation can push it slightly outside [0,1]; it is not clamped.
func (fd *FDistribution) PValue(f, dfModel, dfError float64) float64 {
	return 1 - fd.CDF(f, dfModel, dfError)
}

// ClampProbability limits p to [0,1]; NaN is returned unchanged
func ClampProbability(p float64) float64 {
	if math.IsNaN(p) {
		return p
	}
	return math.Min(1, math.Max(0, p))
}
