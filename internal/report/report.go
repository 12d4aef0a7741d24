package report

import (
	"fmt"
	stdhtml "html"
	"strings"

	"linhypo/domain/regression"
	"linhypo/domain/stats"
	"linhypo/internal/errors"
	"linhypo/internal/profiling"

	"github.com/gomarkdown/markdown"
	"github.com/gomarkdown/markdown/html"
	"github.com/gomarkdown/markdown/parser"
)

// Format selects a report rendering
type Format string

const (
	FormatText     Format = "text"
	FormatMarkdown Format = "markdown"
	FormatHTML     Format = "html"
)

// ParseFormat maps a format name to a Format; an empty name selects HTML
func ParseFormat(name string) (Format, bool) {
	switch Format(strings.ToLower(strings.TrimSpace(name))) {
	case "", FormatHTML:
		return FormatHTML, true
	case FormatText, "txt":
		return FormatText, true
	case FormatMarkdown, "md":
		return FormatMarkdown, true
	}
	return "", false
}

// ContentType returns the MIME type of a rendered report
func (f Format) ContentType() string {
	switch f {
	case FormatText:
		return "text/plain; charset=utf-8"
	case FormatMarkdown:
		return "text/markdown; charset=utf-8"
	default:
		return "text/html; charset=utf-8"
	}
}

// Document is everything a report shows about one run
type Document struct {
	Title     string
	Result    *regression.Result
	Residuals *profiling.ResidualProfile // optional
}

func (d Document) title() string {
	if d.Title == "" {
		return "Regression report"
	}
	return strings.Join(strings.Fields(d.Title), " ")
}

// markdownPunctuation is the set gomarkdown accepts after a backslash
const markdownPunctuation = "\\`*_{}[]()#+-.!:|&<>~^$"

// markdownTitle backslash-escapes the title so run names render as plain text
func (d Document) markdownTitle() string {
	var b strings.Builder
	for _, r := range d.title() {
		if strings.ContainsRune(markdownPunctuation, r) {
			b.WriteByte('\\')
		}
		b.WriteRune(r)
	}
	return b.String()
}

// Render produces the report in the requested format
func Render(doc Document, format Format) ([]byte, error) {
	if doc.Result == nil {
		return nil, errors.InvalidInput(fmt.Sprintf("report %q has no result", doc.Title))
	}
	switch format {
	case FormatText:
		return []byte(Text(doc.Result)), nil
	case FormatMarkdown:
		return []byte(Markdown(doc)), nil
	case FormatHTML:
		return HTML(doc), nil
	}
	return nil, errors.InvalidInput(fmt.Sprintf("unknown report format %q", format))
}

// Text renders the console report: the model test, the AIC difference and
// one line per coefficient, the last of which is the intercept.
func Text(res *regression.Result) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Test of the model:\n\tF(%.3g,%.3g) = %.3g, p = %.3g\n",
		float64(res.DFModel), float64(res.DFError), res.F, stats.ClampProbability(res.P))
	fmt.Fprintf(&b, "\tAIC constrained - free = %.3g (negative supports constraints).\n", res.AICDifference())
	b.WriteString("Tests per coefficient.\n")
	for i, tr := range res.PerCoefficient() {
		fmt.Fprintf(&b, "\t%s: b = %.3g, F(%.3g,%.3g) = %.3g, p = %.3g\n",
			coefficientLabel(i, len(res.Coeffs)), res.Coeffs[i],
			float64(tr.DFModel), float64(tr.DFError), tr.F, stats.ClampProbability(tr.P))
	}
	return b.String()
}

func coefficientLabel(i, count int) string {
	if i == count-1 {
		return "Intercept"
	}
	return fmt.Sprintf("Predictor %d", i)
}

// Markdown renders the report as a markdown document with tables
func Markdown(doc Document) string {
	res := doc.Result
	var b strings.Builder

	fmt.Fprintf(&b, "# %s\n\n", doc.markdownTitle())

	b.WriteString("## Test of the model\n\n")
	b.WriteString("| F | df model | df error | p | AIC free | AIC constrained | AIC constrained - free |\n")
	b.WriteString("|---|---|---|---|---|---|---|\n")
	fmt.Fprintf(&b, "| %.3g | %d | %d | %.3g | %.4g | %.4g | %.3g |\n\n",
		res.F, res.DFModel, res.DFError, stats.ClampProbability(res.P),
		res.AICFree, res.AICConstrained, res.AICDifference())
	b.WriteString("A negative AIC difference supports the constraints.\n\n")

	b.WriteString("## Tests per coefficient\n\n")
	b.WriteString("| coefficient | b | F | df | p |\n")
	b.WriteString("|---|---|---|---|---|\n")
	for i, tr := range res.PerCoefficient() {
		fmt.Fprintf(&b, "| %s | %.3g | %.3g | %d, %d | %.3g |\n",
			coefficientLabel(i, len(res.Coeffs)), res.Coeffs[i], tr.F,
			tr.DFModel, tr.DFError, stats.ClampProbability(tr.P))
	}

	if r := doc.Residuals; r != nil {
		b.WriteString("\n## Residuals\n\n")
		b.WriteString("| n | mean | std dev | min | median | max | skewness | kurtosis | normality p | outliers |\n")
		b.WriteString("|---|---|---|---|---|---|---|---|---|---|\n")
		fmt.Fprintf(&b, "| %d | %.3g | %.3g | %.3g | %.3g | %.3g | %.3g | %.3g | %.3g | %d |\n",
			r.Count, r.Summary.Mean, r.Summary.StdDev, r.Summary.Min, r.Summary.Median, r.Summary.Max,
			r.Shape.Skewness, r.Shape.Kurtosis, r.Shape.NormalityP, r.Shape.OutlierCount)
	}
	return b.String()
}

// HTML renders the markdown report as a complete HTML page
func HTML(doc Document) []byte {
	p := parser.NewWithExtensions(parser.CommonExtensions | parser.AutoHeadingIDs)
	root := p.Parse([]byte(Markdown(doc)))

	renderer := html.NewRenderer(html.RendererOptions{
		// Smartypants writes the title unescaped
		Title: stdhtml.EscapeString(doc.title()),
		Flags: html.CommonFlags | html.CompletePage,
	})
	return markdown.Render(root, renderer)
}
