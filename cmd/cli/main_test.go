package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"testing"

	"linhypo/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseCoefficients(t *testing.T) {
	fixed, err := parseCoefficients([]string{"0=1", " 3 = 2.5 "})
	require.NoError(t, err)
	assert.Equal(t, map[int]float64{0: 1, 3: 2.5}, fixed)

	fixed, err = parseCoefficients([]string{"none"})
	require.NoError(t, err)
	assert.Empty(t, fixed)
	fixed, err = parseCoefficients([]string{""})
	require.NoError(t, err)
	assert.Empty(t, fixed)

	for _, bad := range []string{"0", "a=1", "1=b"} {
		_, err := parseCoefficients([]string{bad})
		assert.Error(t, err, bad)
	}
}

func TestIndexConstraints(t *testing.T) {
	cs, err := indexConstraints(nil, 5)
	require.NoError(t, err)
	assert.True(t, cs.IsEmpty())

	cs, err = indexConstraints([]int{1, 3}, 5)
	require.NoError(t, err)
	assert.Equal(t, 2, cs.Rows())
	assert.Equal(t, 1.0, cs.Coefficients.At(0, 1))
	assert.Equal(t, 1.0, cs.Coefficients.At(1, 3))
	assert.Equal(t, []float64{0, 0}, cs.Constants)

	_, err = indexConstraints([]int{5}, 5)
	assert.Error(t, err)
}

func TestPredictorIndices(t *testing.T) {
	idx, err := predictorIndices([]string{"a", "b", "c"}, []string{"c", "a"})
	require.NoError(t, err)
	assert.Equal(t, []int{2, 0}, idx)

	_, err = predictorIndices([]string{"a"}, []string{"y"})
	assert.Error(t, err)
}

func execute(t *testing.T, args ...string) string {
	t.Helper()
	t.Setenv("LOG_LEVEL", "ERROR")
	var out bytes.Buffer
	cmd := newSimulateCmd()
	if args[0] == "fit" {
		cmd = newFitCmd()
	}
	cmd.SetOut(&out)
	cmd.SetArgs(args[1:])
	require.NoError(t, cmd.Execute())
	return out.String()
}

func TestSimulateCommand(t *testing.T) {
	out := execute(t, "simulate")
	assert.True(t, strings.HasPrefix(out, "Test of the model:\n\tF(5,294) = "))
	assert.Contains(t, out, "\tPredictor 4: b = ")
	assert.Contains(t, out, "\tIntercept: b = ")

	constrained := execute(t, "simulate", "--constrain", "1")
	assert.True(t, strings.HasPrefix(constrained, "Test of the model:\n\tF(1,294) = "))
}

func TestSimulateNullScenario(t *testing.T) {
	coefficient := func(args ...string) float64 {
		var run models.RegressionRun
		require.NoError(t, json.Unmarshal([]byte(execute(t, args...)), &run))
		require.NotNil(t, run.Result)
		return run.Result.Coeffs[3]
	}

	assert.InDelta(t, 2.0, coefficient("simulate", "--format", "json"), 0.3)
	assert.InDelta(t, 0.0, coefficient("simulate", "--null", "--format", "json"), 0.3)
	assert.InDelta(t, 0.0, coefficient("simulate", "--coeff", "none", "--format", "json"), 0.3)
}

func TestFitCommand(t *testing.T) {
	var csv strings.Builder
	csv.WriteString("a,b,y\n")
	for i := 0; i < 30; i++ {
		a := float64(i % 7)
		b := float64((i * 3) % 11)
		noise := float64(i%5) / 10
		csv.WriteString(strings.Join([]string{ftoa(a), ftoa(b), ftoa(2*a - b + 4 + noise)}, ","))
		csv.WriteString("\n")
	}
	path := filepath.Join(t.TempDir(), "data.csv")
	require.NoError(t, os.WriteFile(path, []byte(csv.String()), 0o644))

	out := execute(t, "fit", "--file", path, "--response", "y", "--constrain", "b")
	assert.True(t, strings.HasPrefix(out, "Response y; predictors a, b.\n"))
	assert.Contains(t, out, "F(1,27) = ")

	md := execute(t, "fit", "--file", path, "--response", "y", "--format", "markdown")
	assert.Contains(t, md, "| Intercept |")
}

func ftoa(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
