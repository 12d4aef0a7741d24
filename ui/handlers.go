package ui

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"

	"linhypo/app"
	"linhypo/domain/regression"
	"linhypo/internal/errors"
	"linhypo/internal/report"
	"linhypo/internal/testkit"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"gonum.org/v1/gonum/mat"
)

const maxRequestBytes = 32 << 20

type constraintsPayload struct {
	Coefficients [][]float64 `json:"coefficients"`
	Constants    []float64   `json:"constants"`
}

type regressionRequest struct {
	Name              string              `json:"name"`
	X                 [][]float64         `json:"x"`
	Y                 []float64           `json:"y"`
	Constraints       *constraintsPayload `json:"constraints,omitempty"`
	ExplicitIntercept bool                `json:"explicit_intercept"`
}

type simulationRequest struct {
	Name string `json:"name"`
	testkit.SimulationConfig
	Constraints *constraintsPayload `json:"constraints,omitempty"`
}

func (a *App) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// handleCreateRegression runs a regression on the posted design
func (a *App) handleCreateRegression(w http.ResponseWriter, r *http.Request) {
	var req regressionRequest
	if err := decodeJSON(w, r, &req); err != nil {
		a.writeError(w, err)
		return
	}

	x, err := designMatrix(req.X)
	if err != nil {
		a.writeError(w, err)
		return
	}
	cs, err := req.Constraints.system()
	if err != nil {
		a.writeError(w, err)
		return
	}

	run, err := a.service.Run(r.Context(), app.RunRequest{
		Name:              req.Name,
		X:                 x,
		Y:                 req.Y,
		Constraints:       cs,
		ExplicitIntercept: req.ExplicitIntercept,
	})
	if err != nil {
		a.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, run)
}

// handleSimulation runs a regression on simulated data
func (a *App) handleSimulation(w http.ResponseWriter, r *http.Request) {
	// omitted sizes, intercept and seed keep their defaults; effects must be listed
	req := simulationRequest{SimulationConfig: testkit.DefaultSimulationConfig()}
	req.FixedCoefficients = nil
	if err := decodeJSON(w, r, &req); err != nil {
		a.writeError(w, err)
		return
	}
	cs, err := req.Constraints.system()
	if err != nil {
		a.writeError(w, err)
		return
	}

	run, err := a.service.Simulate(r.Context(), req.Name, req.SimulationConfig, cs)
	if err != nil {
		a.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, run)
}

func (a *App) handleListRegressions(w http.ResponseWriter, r *http.Request) {
	limit, err := queryInt(r, "limit", 50)
	if err != nil {
		a.writeError(w, err)
		return
	}
	offset, err := queryInt(r, "offset", 0)
	if err != nil {
		a.writeError(w, err)
		return
	}

	runs, err := a.service.List(r.Context(), limit, offset)
	if err != nil {
		a.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, runs)
}

func (a *App) handleGetRegression(w http.ResponseWriter, r *http.Request) {
	id, err := runID(r)
	if err != nil {
		a.writeError(w, err)
		return
	}
	run, err := a.service.Get(r.Context(), id)
	if err != nil {
		a.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, run)
}

func (a *App) handleRegressionReport(w http.ResponseWriter, r *http.Request) {
	id, err := runID(r)
	if err != nil {
		a.writeError(w, err)
		return
	}
	format, ok := report.ParseFormat(r.URL.Query().Get("format"))
	if !ok {
		a.writeError(w, errors.InvalidInput(fmt.Sprintf("unknown report format %q", r.URL.Query().Get("format"))))
		return
	}

	body, err := a.service.Report(r.Context(), id, format)
	if err != nil {
		a.writeError(w, err)
		return
	}
	w.Header().Set("Content-Type", format.ContentType())
	w.WriteHeader(http.StatusOK)
	w.Write(body)
}

func (p *constraintsPayload) system() (regression.ConstraintSystem, error) {
	if p == nil || len(p.Coefficients) == 0 {
		return regression.ConstraintSystem{}, nil
	}
	constants := p.Constants
	if constants == nil {
		constants = make([]float64, len(p.Coefficients))
	}
	return regression.NewConstraintSystem(p.Coefficients, constants)
}

func designMatrix(rows [][]float64) (*mat.Dense, error) {
	if len(rows) == 0 || len(rows[0]) == 0 {
		return nil, errors.InvalidInput("x must be a non-empty matrix")
	}
	cols := len(rows[0])
	data := make([]float64, 0, len(rows)*cols)
	for i, row := range rows {
		if len(row) != cols {
			return nil, errors.DimensionMismatch("x row %d has %d values, expected %d", i, len(row), cols)
		}
		data = append(data, row...)
	}
	return mat.NewDense(len(rows), cols, data), nil
}

func decodeJSON(w http.ResponseWriter, r *http.Request, v interface{}) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxRequestBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return errors.InvalidInput("invalid request body: " + err.Error())
	}
	return nil
}

func runID(r *http.Request) (uuid.UUID, error) {
	raw := chi.URLParam(r, "id")
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, errors.InvalidInput(fmt.Sprintf("invalid run id %q", raw))
	}
	return id, nil
}

func queryInt(r *http.Request, key string, def int) (int, error) {
	raw := r.URL.Query().Get(key)
	if raw == "" {
		return def, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil || v < 0 {
		return 0, errors.InvalidInput(fmt.Sprintf("%s must be a non-negative integer", key))
	}
	return v, nil
}

// statusFor maps error codes to HTTP status codes
func statusFor(err error) int {
	switch errors.GetCode(err) {
	case errors.CodeInvalidInput, errors.CodeDimensionMismatch:
		return http.StatusBadRequest
	case errors.CodeSingularMatrix:
		return http.StatusUnprocessableEntity
	case errors.CodeNotFound:
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

func (a *App) writeError(w http.ResponseWriter, err error) {
	status := statusFor(err)
	if status == http.StatusInternalServerError {
		a.logger.Error("request failed: %v", err)
	}
	writeJSON(w, status, map[string]string{
		"error": err.Error(),
		"code":  errors.GetCode(err),
	})
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	body, err := json.Marshal(v)
	if err != nil {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusInternalServerError)
		fmt.Fprintf(w, `{"error":%q,"code":%q}`, "failed to encode response: "+err.Error(), errors.CodeInternalError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	w.Write(body)
}
