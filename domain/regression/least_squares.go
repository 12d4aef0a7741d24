package regression

import (
	"fmt"

	"linhypo/internal/errors"

	"gonum.org/v1/gonum/mat"
)

// Fit returns the ordinary least squares coefficients b = (X'X)⁻¹X'y.
// The normal equations are solved with an explicit inverse; a rank deficient
// design or fewer observations than n_features+1 is a SINGULAR_MATRIX error.
func Fit(x mat.Matrix, y []float64) ([]float64, error) {
	n, p := x.Dims()
	if len(y) != n {
		return nil, errors.DimensionMismatch("response has %d values, design matrix has %d rows", len(y), n)
	}
	if n <= p {
		return nil, errors.SingularMatrix("X'X", fmt.Errorf("%d observations cannot identify %d coefficients with error variance", n, p))
	}

	var xx mat.Dense
	xx.Mul(x.T(), x)

	var xxInv mat.Dense
	if err := xxInv.Inverse(&xx); err != nil {
		return nil, errors.SingularMatrix("X'X", err)
	}

	var proj mat.Dense
	proj.Mul(&xxInv, x.T())

	var b mat.VecDense
	b.MulVec(&proj, mat.NewVecDense(n, y))

	coeffs := make([]float64, p)
	for i := range coeffs {
		coeffs[i] = b.AtVec(i)
	}
	return coeffs, nil
}
