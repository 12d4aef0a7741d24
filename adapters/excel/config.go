package excel

// ExcelConfig holds configuration for tabular data sources
type ExcelConfig struct {
	Sheet              string `json:"sheet"`                // empty selects the first sheet
	DropIncompleteRows bool   `json:"drop_incomplete_rows"` // skip rows with empty cells instead of failing
}

// DefaultExcelConfig returns the reader defaults
func DefaultExcelConfig() ExcelConfig {
	return ExcelConfig{}
}
