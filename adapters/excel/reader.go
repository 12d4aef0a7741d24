package excel

import (
	"encoding/csv"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"slices"
	"strconv"
	"strings"
	"time"

	"linhypo/internal"
	"linhypo/internal/errors"

	"github.com/xuri/excelize/v2"
	"gonum.org/v1/gonum/mat"
)

// DataReader handles reading Excel and CSV files
type DataReader struct {
	filePath string
	fileType string // "xlsx" or "csv"
	config   ExcelConfig
	logger   *internal.Logger
}

// NewDataReader creates a new data reader that handles both Excel and CSV files
func NewDataReader(filePath string) *DataReader {
	return NewDataReaderWithConfig(filePath, DefaultExcelConfig())
}

// NewDataReaderWithConfig creates a data reader with explicit options
func NewDataReaderWithConfig(filePath string, config ExcelConfig) *DataReader {
	ext := strings.ToLower(filepath.Ext(filePath))
	fileType := "xlsx"
	if ext == ".csv" {
		fileType = "csv"
	}
	return &DataReader{
		filePath: filePath,
		fileType: fileType,
		config:   config,
		logger:   internal.DefaultLogger,
	}
}

// ReadData reads data from Excel or CSV files into structured format
func (r *DataReader) ReadData() (*ExcelData, error) {
	r.logger.Debug("reading %s file: %s", r.fileType, r.filePath)

	if _, err := os.Stat(r.filePath); os.IsNotExist(err) {
		return nil, errors.NotFound(fmt.Sprintf("%s file %s", strings.ToUpper(r.fileType), r.filePath))
	}

	switch r.fileType {
	case "csv":
		return r.readCSVData()
	case "xlsx":
		return r.readExcelData()
	default:
		return nil, errors.InvalidInput(fmt.Sprintf("unsupported file type: %s", r.fileType))
	}
}

// readExcelData reads the configured sheet, or the first one
func (r *DataReader) readExcelData() (*ExcelData, error) {
	startTime := time.Now()
	f, err := excelize.OpenFile(r.filePath)
	if err != nil {
		return nil, errors.Wrap(err, "failed to open Excel file")
	}
	defer f.Close()

	sheet := r.config.Sheet
	if sheet == "" {
		sheets := f.GetSheetList()
		if len(sheets) == 0 {
			return nil, errors.InvalidInput("Excel file has no sheets")
		}
		sheet = sheets[0]
	}

	rows, err := f.GetRows(sheet)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to read sheet %s", sheet)
	}
	r.logger.Debug("sheet %s read in %s (%d rows)", sheet, time.Since(startTime), len(rows))

	if len(rows) < 2 {
		return nil, errors.InvalidInput("Excel file must have at least a header row and one data row")
	}

	return r.processRows(rows)
}

// readCSVData reads CSV data into structured format
func (r *DataReader) readCSVData() (*ExcelData, error) {
	file, err := os.Open(r.filePath)
	if err != nil {
		return nil, errors.Wrap(err, "failed to open CSV file")
	}
	defer file.Close()

	reader := csv.NewReader(file)
	reader.FieldsPerRecord = -1
	rows, err := reader.ReadAll()
	if err != nil {
		return nil, errors.WithCode(errors.CodeInvalidInput, errors.Wrap(err, "failed to read CSV file"))
	}

	if len(rows) < 2 {
		return nil, errors.InvalidInput("CSV file must have at least a header row and one data row")
	}

	return r.processRows(rows)
}

// processRows converts raw string rows into ExcelData format
func (r *DataReader) processRows(rows [][]string) (*ExcelData, error) {
	headerRow := rows[0]
	headers := make([]string, len(headerRow))
	seen := make(map[string]bool, len(headerRow))
	for i, header := range headerRow {
		h := strings.TrimSpace(header)
		if h == "" {
			return nil, errors.InvalidInput(fmt.Sprintf("column %d has an empty header", i+1))
		}
		if seen[h] {
			return nil, errors.InvalidInput(fmt.Sprintf("duplicate column header %q", h))
		}
		seen[h] = true
		headers[i] = h
	}

	dataRows := make([]RawRowData, 0, len(rows)-1)
	for i := 1; i < len(rows); i++ {
		row := rows[i]
		if isBlank(row) {
			continue
		}
		rowData := make(RawRowData, len(headers))
		for j, cell := range row {
			if j < len(headers) {
				rowData[headers[j]] = strings.TrimSpace(cell)
			}
		}
		dataRows = append(dataRows, rowData)
	}

	r.logger.Debug("%s file processed (%d columns, %d rows)",
		strings.ToUpper(r.fileType), len(headers), len(dataRows))

	return &ExcelData{
		Headers: headers,
		Rows:    dataRows,
	}, nil
}

// ReadDesign reads the file and extracts the response and predictor columns
// as a numeric design. An empty predictor list selects every column other
// than the response, in file order.
func (r *DataReader) ReadDesign(response string, predictors []string) (*Dataset, error) {
	data, err := r.ReadData()
	if err != nil {
		return nil, err
	}
	return r.BuildDataset(data, response, predictors)
}

// BuildDataset converts a parsed table into a numeric design
func (r *DataReader) BuildDataset(data *ExcelData, response string, predictors []string) (*Dataset, error) {
	if !slices.Contains(data.Headers, response) {
		return nil, errors.InvalidInput(fmt.Sprintf("response column %q not found", response))
	}

	if len(predictors) == 0 {
		for _, h := range data.Headers {
			if h != response {
				predictors = append(predictors, h)
			}
		}
	}
	if len(predictors) == 0 {
		return nil, errors.InvalidInput("no predictor columns selected")
	}
	for _, p := range predictors {
		if p == response {
			return nil, errors.InvalidInput(fmt.Sprintf("column %q is both response and predictor", p))
		}
		if !slices.Contains(data.Headers, p) {
			return nil, errors.InvalidInput(fmt.Sprintf("predictor column %q not found", p))
		}
	}

	ds := &Dataset{Response: response, Predictors: predictors}
	values := make([]float64, 0, len(data.Rows)*len(predictors))
	y := make([]float64, 0, len(data.Rows))

	columns := append([]string{response}, predictors...)
	parsed := make([]float64, len(columns))
	for i, row := range data.Rows {
		complete := true
		for j, col := range columns {
			cell := row[col]
			if cell == "" {
				if !r.config.DropIncompleteRows {
					return nil, errors.InvalidInput(fmt.Sprintf("data row %d: column %q is empty", i+1, col))
				}
				complete = false
				break
			}
			v, err := strconv.ParseFloat(cell, 64)
			if err != nil {
				return nil, errors.InvalidInput(fmt.Sprintf("data row %d: column %q is not numeric: %q", i+1, col, cell))
			}
			if math.IsNaN(v) || math.IsInf(v, 0) {
				return nil, errors.InvalidInput(fmt.Sprintf("data row %d: column %q is not finite: %q", i+1, col, cell))
			}
			parsed[j] = v
		}
		if !complete {
			ds.Dropped++
			continue
		}
		y = append(y, parsed[0])
		values = append(values, parsed[1:]...)
	}

	if len(y) == 0 {
		return nil, errors.InvalidInput("no complete data rows")
	}
	ds.X = mat.NewDense(len(y), len(predictors), values)
	ds.Y = y

	if ds.Dropped > 0 {
		r.logger.Warn("dropped %d incomplete rows from %s", ds.Dropped, r.filePath)
	}
	return ds, nil
}

func isBlank(row []string) bool {
	for _, cell := range row {
		if strings.TrimSpace(cell) != "" {
			return false
		}
	}
	return true
}
