package regression

import (
	"fmt"
	"math"

	"linhypo/internal/errors"

	"gonum.org/v1/gonum/mat"
)

// ConstraintSystem encodes the null hypothesis C·b = q.
// The zero value is the empty system, which selects the default hypothesis
// that every non-intercept coefficient is zero.
type ConstraintSystem struct {
	Coefficients *mat.Dense // C, m × n_features
	Constants    []float64  // q, length m
}

// IsEmpty reports whether no constraint matrix was supplied
func (cs ConstraintSystem) IsEmpty() bool {
	return cs.Coefficients == nil
}

// Rows returns the number of constraints m
func (cs ConstraintSystem) Rows() int {
	if cs.Coefficients == nil {
		return 0
	}
	r, _ := cs.Coefficients.Dims()
	return r
}

// NewConstraintSystem builds a constraint system from row-wise coefficients
func NewConstraintSystem(rows [][]float64, constants []float64) (ConstraintSystem, error) {
	if len(rows) == 0 {
		return ConstraintSystem{}, errors.InvalidInput("constraint system needs at least one row")
	}
	if len(constants) != len(rows) {
		return ConstraintSystem{}, errors.DimensionMismatch("%d constraint rows but %d constants", len(rows), len(constants))
	}
	cols := len(rows[0])
	if cols == 0 {
		return ConstraintSystem{}, errors.InvalidInput("constraint rows must not be empty")
	}
	data := make([]float64, 0, len(rows)*cols)
	for i, row := range rows {
		if len(row) != cols {
			return ConstraintSystem{}, errors.DimensionMismatch("constraint row %d has %d entries, want %d", i, len(row), cols)
		}
		data = append(data, row...)
	}
	q := make([]float64, len(constants))
	copy(q, constants)
	return ConstraintSystem{Coefficients: mat.NewDense(len(rows), cols, data), Constants: q}, nil
}

// DefaultConstraints returns the identity without its last row and q = 0:
// every coefficient except the last (the intercept) is zero.
func DefaultConstraints(features int) (ConstraintSystem, error) {
	if features < 2 {
		return ConstraintSystem{}, errors.InvalidInput(fmt.Sprintf("default hypothesis needs at least one predictor besides the intercept, got %d columns", features))
	}
	m := features - 1
	c := mat.NewDense(m, features, nil)
	for i := 0; i < m; i++ {
		c.Set(i, i, 1)
	}
	return ConstraintSystem{Coefficients: c, Constants: make([]float64, m)}, nil
}

// ElementaryConstraint isolates coefficient index: a single row e_index with q = [0]
func ElementaryConstraint(features, index int) ConstraintSystem {
	c := mat.NewDense(1, features, nil)
	c.Set(0, index, 1)
	return ConstraintSystem{Coefficients: c, Constants: []float64{0}}
}

// AugmentConstraints returns a copy of cs with one zero column appended, so
// that it stays conformable with a design matrix that gained an intercept.
func AugmentConstraints(cs ConstraintSystem) ConstraintSystem {
	if cs.IsEmpty() {
		return cs
	}
	m, p := cs.Coefficients.Dims()
	c := mat.NewDense(m, p+1, nil)
	c.Slice(0, m, 0, p).(*mat.Dense).Copy(cs.Coefficients)
	q := make([]float64, len(cs.Constants))
	copy(q, cs.Constants)
	return ConstraintSystem{Coefficients: c, Constants: q}
}

// AppendIntercept returns X with an all-ones column appended
func AppendIntercept(x mat.Matrix) *mat.Dense {
	n, p := x.Dims()
	out := mat.NewDense(n, p+1, nil)
	out.Slice(0, n, 0, p).(*mat.Dense).Copy(x)
	for i := 0; i < n; i++ {
		out.Set(i, p, 1)
	}
	return out
}

// TestResult is the outcome of one constrained hypothesis test
type TestResult struct {
	P              float64 `json:"p"`
	F              float64 `json:"F"`
	DFModel        int     `json:"df_model"`
	DFError        int     `json:"df_error"`
	AICFree        float64 `json:"AIC_free"`
	AICConstrained float64 `json:"AIC_constrained"`
}

// AICDifference returns AIC_constrained − AIC_free; negative values favour the constraints
func (tr TestResult) AICDifference() float64 {
	return tr.AICConstrained - tr.AICFree
}

// Result is the fixed-shape record of one regression run. The overall test
// is embedded so its fields serialize at the top level; per-coefficient
// tests are stored as parallel lists in coefficient order.
type Result struct {
	Coeffs []float64 `json:"coeffs"`
	TestResult
	CoeffsP              []float64 `json:"coeffs_p"`
	CoeffsF              []float64 `json:"coeffs_F"`
	CoeffsDFModel        []int     `json:"coeffs_df_model"`
	CoeffsDFError        []int     `json:"coeffs_df_error"`
	CoeffsAICFree        []float64 `json:"coeffs_AIC_free"`
	CoeffsAICConstrained []float64 `json:"coeffs_AIC_constrained"`
}

func newResult(coeffs []float64, overall TestResult, perCoefficient []TestResult) *Result {
	k := len(perCoefficient)
	res := &Result{
		Coeffs:               coeffs,
		TestResult:           overall,
		CoeffsP:              make([]float64, k),
		CoeffsF:              make([]float64, k),
		CoeffsDFModel:        make([]int, k),
		CoeffsDFError:        make([]int, k),
		CoeffsAICFree:        make([]float64, k),
		CoeffsAICConstrained: make([]float64, k),
	}
	for i, tr := range perCoefficient {
		res.CoeffsP[i] = tr.P
		res.CoeffsF[i] = tr.F
		res.CoeffsDFModel[i] = tr.DFModel
		res.CoeffsDFError[i] = tr.DFError
		res.CoeffsAICFree[i] = tr.AICFree
		res.CoeffsAICConstrained[i] = tr.AICConstrained
	}
	return res
}

// Coefficient returns the elementary test of coefficient i
func (r *Result) Coefficient(i int) TestResult {
	tr := TestResult{
		P:       r.CoeffsP[i],
		F:       r.CoeffsF[i],
		DFModel: r.CoeffsDFModel[i],
		DFError: r.CoeffsDFError[i],
	}
	if i < len(r.CoeffsAICFree) {
		tr.AICFree = r.CoeffsAICFree[i]
	}
	if i < len(r.CoeffsAICConstrained) {
		tr.AICConstrained = r.CoeffsAICConstrained[i]
	}
	return tr
}

// PerCoefficient returns all elementary tests in coefficient order
func (r *Result) PerCoefficient() []TestResult {
	out := make([]TestResult, len(r.CoeffsP))
	for i := range out {
		out[i] = r.Coefficient(i)
	}
	return out
}

// Finite reports whether every coefficient and statistic is a finite number.
// A response without residual variance yields NaN F and p values and
// infinite AICs.
func (r *Result) Finite() bool {
	lists := [][]float64{
		r.Coeffs,
		{r.P, r.F, r.AICFree, r.AICConstrained},
		r.CoeffsP, r.CoeffsF, r.CoeffsAICFree, r.CoeffsAICConstrained,
	}
	for _, list := range lists {
		for _, v := range list {
			if math.IsNaN(v) || math.IsInf(v, 0) {
				return false
			}
		}
	}
	return true
}
