package regression

import (
	"fmt"

	"linhypo/domain/stats"
	"linhypo/internal/errors"

	"gonum.org/v1/gonum/mat"
)

// HypothesisTester runs general linear hypothesis F-tests against fitted coefficients
type HypothesisTester struct {
	fdist *stats.FDistribution
}

// NewHypothesisTester creates a tester; nil selects the default F distribution
func NewHypothesisTester(fdist *stats.FDistribution) *HypothesisTester {
	if fdist == nil {
		fdist = stats.NewFDistribution(nil)
	}
	return &HypothesisTester{fdist: fdist}
}

// FDistribution returns the distribution used for p-values
func (h *HypothesisTester) FDistribution() *stats.FDistribution {
	return h.fdist
}

// Test evaluates C·b = q for the coefficients b fitted on (X, y).
//
// The constrained estimate is the projection of b onto the constraint
// hyperplane in the X'X metric:
//
//	b_c = b − (X'X)⁻¹C'·[C(X'X)⁻¹C']⁻¹·(Cb − q)
//
// SSH = (b−b_c)'X'X(b−b_c) is compared with the residual SSE of the free
// model. An empty constraint system tests all but the last coefficient against zero.
func (h *HypothesisTester) Test(x mat.Matrix, y, b []float64, cs ConstraintSystem) (TestResult, error) {
	n, p := x.Dims()
	if len(y) != n {
		return TestResult{}, errors.DimensionMismatch("response has %d values, design matrix has %d rows", len(y), n)
	}
	if len(b) != p {
		return TestResult{}, errors.DimensionMismatch("%d coefficients for %d design columns", len(b), p)
	}
	if n <= p {
		return TestResult{}, errors.SingularMatrix("X'X", fmt.Errorf("%d observations leave no error degrees of freedom for %d coefficients", n, p))
	}

	if cs.IsEmpty() {
		var err error
		if cs, err = DefaultConstraints(p); err != nil {
			return TestResult{}, err
		}
	}
	m, cols := cs.Coefficients.Dims()
	if cols != p {
		return TestResult{}, errors.DimensionMismatch("constraint matrix has %d columns, design matrix has %d", cols, p)
	}
	if len(cs.Constants) != m {
		return TestResult{}, errors.DimensionMismatch("%d constraint rows but %d constants", m, len(cs.Constants))
	}
	c := cs.Coefficients

	var xx mat.Dense
	xx.Mul(x.T(), x)
	var xxInv mat.Dense
	if err := xxInv.Inverse(&xx); err != nil {
		return TestResult{}, errors.SingularMatrix("X'X", err)
	}

	// (X'X)⁻¹C', reused for both the middle term and the projection
	var xxInvCt mat.Dense
	xxInvCt.Mul(&xxInv, c.T())

	var middle mat.Dense
	middle.Mul(c, &xxInvCt)
	var middleInv mat.Dense
	if err := middleInv.Inverse(&middle); err != nil {
		return TestResult{}, errors.SingularMatrix("C·(X'X)⁻¹·C'", err)
	}

	bv := mat.NewVecDense(p, b)

	var gap mat.VecDense
	gap.MulVec(c, bv)
	gap.SubVec(&gap, mat.NewVecDense(m, cs.Constants))

	var gain mat.Dense
	gain.Mul(&xxInvCt, &middleInv)
	var shift mat.VecDense
	shift.MulVec(&gain, &gap)

	var constrained mat.VecDense
	constrained.SubVec(bv, &shift)

	var delta mat.VecDense
	delta.SubVec(bv, &constrained)
	ssh := mat.Inner(&delta, &xx, &delta)

	var predicted mat.VecDense
	predicted.MulVec(x, bv)
	sse := 0.0
	for i := 0; i < n; i++ {
		r := predicted.AtVec(i) - y[i]
		sse += r * r
	}

	dfModel := m
	dfError := n - p
	f := (ssh / float64(dfModel)) / (sse / float64(dfError))

	return TestResult{
		P:              h.fdist.PValue(f, float64(dfModel), float64(dfError)),
		F:              f,
		DFModel:        dfModel,
		DFError:        dfError,
		AICFree:        stats.AIC(sse, p, n),
		AICConstrained: stats.AIC(ssh, p-m, n),
	}, nil
}

// Residuals returns y − X·b
func Residuals(x mat.Matrix, y, b []float64) ([]float64, error) {
	n, p := x.Dims()
	if len(y) != n || len(b) != p {
		return nil, errors.DimensionMismatch("residuals need %d responses and %d coefficients, got %d and %d", n, p, len(y), len(b))
	}
	var predicted mat.VecDense
	predicted.MulVec(x, mat.NewVecDense(p, b))
	out := make([]float64, n)
	for i := range out {
		out[i] = y[i] - predicted.AtVec(i)
	}
	return out, nil
}
