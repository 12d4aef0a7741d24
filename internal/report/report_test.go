package report

import (
	"strings"
	"testing"

	"linhypo/domain/regression"
	"linhypo/internal/errors"
	"linhypo/internal/profiling"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleResult() *regression.Result {
	return &regression.Result{
		Coeffs: []float64{1.0, 20.5},
		TestResult: regression.TestResult{
			P: 1.2e-7, F: 12.345, DFModel: 5, DFError: 294,
			AICFree: 100, AICConstrained: 90,
		},
		CoeffsP:              []float64{0.0001, -1e-12},
		CoeffsF:              []float64{16.2, 900},
		CoeffsDFModel:        []int{1, 1},
		CoeffsDFError:        []int{294, 294},
		CoeffsAICFree:        []float64{100, 100},
		CoeffsAICConstrained: []float64{110, 400},
	}
}

func TestText(t *testing.T) {
	want := "Test of the model:\n" +
		"\tF(5,294) = 12.3, p = 1.2e-07\n" +
		"\tAIC constrained - free = -10 (negative supports constraints).\n" +
		"Tests per coefficient.\n" +
		"\tPredictor 0: b = 1, F(1,294) = 16.2, p = 0.0001\n" +
		"\tIntercept: b = 20.5, F(1,294) = 900, p = 0\n"
	assert.Equal(t, want, Text(sampleResult()))
}

func TestMarkdown(t *testing.T) {
	profile, err := profiling.AnalyzeResiduals([]float64{-1, 0, 1})
	require.NoError(t, err)

	md := Markdown(Document{Title: "scenario", Result: sampleResult(), Residuals: &profile})
	assert.True(t, strings.HasPrefix(md, "# scenario\n"))
	assert.Contains(t, md, "| 12.3 | 5 | 294 | 1.2e-07 | 100 | 90 | -10 |")
	assert.Contains(t, md, "| Predictor 0 | 1 | 16.2 | 1, 294 | 0.0001 |")
	assert.Contains(t, md, "| Intercept | 20.5 | 900 | 1, 294 | 0 |")
	assert.Contains(t, md, "## Residuals")

	withoutProfile := Markdown(Document{Result: sampleResult()})
	assert.True(t, strings.HasPrefix(withoutProfile, "# Regression report\n"))
	assert.NotContains(t, withoutProfile, "## Residuals")
}

func TestHTML(t *testing.T) {
	page := string(HTML(Document{Title: "scenario", Result: sampleResult()}))
	assert.Contains(t, page, "<html")
	assert.Contains(t, page, "<table>")
	assert.Contains(t, page, "scenario")
	assert.Contains(t, page, "Intercept")
}

func TestHTMLEscapesTitle(t *testing.T) {
	page := string(HTML(Document{Title: "<script>alert(1)</script>", Result: sampleResult()}))
	assert.NotContains(t, page, "<script>")
	assert.Contains(t, page, "&lt;script&gt;")

	assert.Contains(t, page, "<title>&lt;script&gt;alert(1)&lt;/script&gt;</title>")

	md := Markdown(Document{Title: "<b>bold</b>\nrun_1", Result: sampleResult()})
	assert.True(t, strings.HasPrefix(md, "# \\<b\\>bold\\</b\\> run\\_1\n"), md)
}

func TestRender(t *testing.T) {
	doc := Document{Result: sampleResult()}

	text, err := Render(doc, FormatText)
	require.NoError(t, err)
	assert.Equal(t, Text(doc.Result), string(text))

	md, err := Render(doc, FormatMarkdown)
	require.NoError(t, err)
	assert.Equal(t, Markdown(doc), string(md))

	_, err = Render(doc, Format("pdf"))
	assert.Equal(t, errors.CodeInvalidInput, errors.GetCode(err))
	_, err = Render(Document{}, FormatText)
	assert.Equal(t, errors.CodeInvalidInput, errors.GetCode(err))
}

func TestParseFormat(t *testing.T) {
	for name, want := range map[string]Format{
		"":         FormatHTML,
		"HTML":     FormatHTML,
		"text":     FormatText,
		"txt":      FormatText,
		"markdown": FormatMarkdown,
		" md ":     FormatMarkdown,
	} {
		got, ok := ParseFormat(name)
		assert.True(t, ok, name)
		assert.Equal(t, want, got, name)
	}
	_, ok := ParseFormat("pdf")
	assert.False(t, ok)
	assert.Equal(t, "text/plain; charset=utf-8", FormatText.ContentType())
}
