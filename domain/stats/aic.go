package stats

import "math"

// AIC returns the Akaike information criterion for a model with k coefficients
// fitted to n observations, where e is the squared-error total.
//
// The log-likelihood uses e both as the spread and inside the logarithm:
//
//	logL = −n·log(√e) − (n/2)·log(2π) − (1/(2e))·e·n
//
// which is not the textbook SSE/n form. Results are compared across runs, so
// the expression is kept term for term.
func AIC(e float64, k, n int) float64 {
	N := float64(n)
	logL := -N*math.Log(math.Sqrt(e)) - (N/2)*math.Log(2*math.Pi) - (1/(2*e))*e*N
	return -2*logL + 2*float64(k+1)
}
