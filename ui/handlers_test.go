package ui

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"linhypo/adapters/memory"
	"linhypo/app"
	"linhypo/internal"
	"linhypo/internal/config"
	"linhypo/internal/testkit"
	"linhypo/models"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestApp() *App {
	logger := internal.NewNopLogger()
	svc := app.NewRegressionService(app.NewOrchestrator(config.Default().Regression, logger), memory.NewRunRepository(), logger)
	return NewApp(svc, logger)
}

func do(t *testing.T, a *App, method, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	a.Handler().ServeHTTP(rec, req)
	return rec
}

func simulatedPayload(t *testing.T) map[string]interface{} {
	t.Helper()
	x, y, err := testkit.Simulate(testkit.DefaultSimulationConfig())
	require.NoError(t, err)
	n, p := x.Dims()
	rows := make([][]float64, n)
	for i := range rows {
		rows[i] = make([]float64, p)
		copy(rows[i], x.RawRowView(i))
	}
	return map[string]interface{}{"name": "posted", "x": rows, "y": y}
}

func TestCreateAndFetchRegression(t *testing.T) {
	a := newTestApp()

	rec := do(t, a, http.MethodPost, "/api/regressions", simulatedPayload(t))
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var run models.RegressionRun
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &run))
	assert.Equal(t, "posted", run.Name)
	require.NotNil(t, run.Result)
	assert.Len(t, run.Result.Coeffs, 6)
	assert.Equal(t, 5, run.Result.DFModel)

	rec = do(t, a, http.MethodGet, "/api/regressions/"+run.ID.String(), nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var fetched models.RegressionRun
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &fetched))
	assert.Equal(t, run.ID, fetched.ID)
	assert.Equal(t, run.Result.Coeffs, fetched.Result.Coeffs)

	rec = do(t, a, http.MethodGet, "/api/regressions", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var runs []models.RegressionRun
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &runs))
	assert.Len(t, runs, 1)
}

func TestCreateRegressionWithConstraints(t *testing.T) {
	a := newTestApp()
	payload := simulatedPayload(t)
	payload["constraints"] = map[string]interface{}{
		"coefficients": [][]float64{{0, 1, 0, 0, 0}},
	}

	rec := do(t, a, http.MethodPost, "/api/regressions", payload)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var run models.RegressionRun
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &run))
	assert.True(t, run.Constrained)
	assert.Equal(t, 1, run.Result.DFModel)
	assert.Equal(t, run.Result.CoeffsF[1], run.Result.F)
}

func TestSimulationEndpoint(t *testing.T) {
	a := newTestApp()
	rec := do(t, a, http.MethodPost, "/api/simulations", map[string]interface{}{
		"name":               "sim",
		"observations":       120,
		"predictors":         3,
		"fixed_coefficients": map[string]float64{"1": 3},
		"seed":               7,
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var run models.RegressionRun
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &run))
	assert.Equal(t, 120, run.Observations)
	assert.Equal(t, 3, run.Predictors)
	assert.InDelta(t, 3.0, run.Result.Coeffs[1], 0.5)
	assert.InDelta(t, 20.0, run.Result.Coeffs[3], 1.0)
}

func TestReportEndpoint(t *testing.T) {
	a := newTestApp()
	rec := do(t, a, http.MethodPost, "/api/simulations", map[string]interface{}{"name": "report"})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var run models.RegressionRun
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &run))

	rec = do(t, a, http.MethodGet, "/api/regressions/"+run.ID.String()+"/report", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Header().Get("Content-Type"), "text/html")
	assert.Contains(t, rec.Body.String(), "<table>")

	rec = do(t, a, http.MethodGet, "/api/regressions/"+run.ID.String()+"/report?format=text", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, strings.HasPrefix(rec.Body.String(), "Test of the model:"))

	rec = do(t, a, http.MethodGet, "/api/regressions/"+run.ID.String()+"/report?format=pdf", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestErrorStatuses(t *testing.T) {
	a := newTestApp()

	cases := []struct {
		name   string
		method string
		path   string
		body   interface{}
		status int
		code   string
	}{
		{"malformed id", http.MethodGet, "/api/regressions/not-a-uuid", nil, http.StatusBadRequest, "INVALID_INPUT"},
		{"unknown run", http.MethodGet, "/api/regressions/" + uuid.NewString(), nil, http.StatusNotFound, "NOT_FOUND"},
		{"ragged design", http.MethodPost, "/api/regressions",
			map[string]interface{}{"x": [][]float64{{1, 2}, {3}}, "y": []float64{1, 2}},
			http.StatusBadRequest, "DIMENSION_MISMATCH"},
		{"unknown field", http.MethodPost, "/api/regressions",
			map[string]interface{}{"matrix": [][]float64{{1}}}, http.StatusBadRequest, "INVALID_INPUT"},
		{"singular design", http.MethodPost, "/api/regressions",
			map[string]interface{}{
				"x": [][]float64{{2, 2}, {2, 2}, {2, 2}, {2, 2}},
				"y": []float64{1, 2, 3, 4},
			}, http.StatusUnprocessableEntity, "SINGULAR_MATRIX"},
		{"bad limit", http.MethodGet, "/api/regressions?limit=-1", nil, http.StatusBadRequest, "INVALID_INPUT"},
		{"oversized simulation", http.MethodPost, "/api/simulations",
			map[string]interface{}{"observations": 100000000, "predictors": 1000},
			http.StatusBadRequest, "INVALID_INPUT"},
		{"long name", http.MethodPost, "/api/regressions",
			map[string]interface{}{
				"name": strings.Repeat("n", models.MaxRunNameLength+1),
				"x":    [][]float64{{0}, {1}, {2}, {3}, {4}},
				"y":    []float64{1, 3, 2, 5, 4},
			}, http.StatusBadRequest, "INVALID_INPUT"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rec := do(t, a, tc.method, tc.path, tc.body)
			assert.Equal(t, tc.status, rec.Code, rec.Body.String())
			var body map[string]string
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
			assert.Equal(t, tc.code, body["code"])
		})
	}
}

func TestResponseWithoutVarianceKeepsListUsable(t *testing.T) {
	a := newTestApp()

	rec := do(t, a, http.MethodPost, "/api/regressions", map[string]interface{}{
		"x": [][]float64{{0}, {1}, {2}, {3}, {4}},
		"y": []float64{0, 0, 0, 0, 0},
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code, rec.Body.String())
	var body map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "INVALID_INPUT", body["code"])

	rec = do(t, a, http.MethodGet, "/api/regressions", nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var runs []models.RegressionRun
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &runs))
	assert.Empty(t, runs)
}

func TestReportEscapesRunName(t *testing.T) {
	a := newTestApp()
	payload := simulatedPayload(t)
	payload["name"] = "<script>alert(1)</script>"

	rec := do(t, a, http.MethodPost, "/api/regressions", payload)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var run models.RegressionRun
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &run))

	rec = do(t, a, http.MethodGet, "/api/regressions/"+run.ID.String()+"/report", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.NotContains(t, rec.Body.String(), "<script>")
	assert.Contains(t, rec.Body.String(), "&lt;script&gt;")
}

func TestHealth(t *testing.T) {
	rec := do(t, newTestApp(), http.MethodGet, "/health", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
}
