package excel

import "gonum.org/v1/gonum/mat"

// RawRowData represents a row of raw sheet data keyed by header
type RawRowData map[string]string

// ExcelData represents the complete sheet or CSV table
type ExcelData struct {
	Headers []string     // Column headers
	Rows    []RawRowData // Data rows
}

// Dataset is a numeric design ready for regression. Columns of X follow
// Predictors; the intercept is not included.
type Dataset struct {
	Response   string
	Predictors []string
	X          *mat.Dense
	Y          []float64
	Dropped    int // rows skipped for missing values
}
