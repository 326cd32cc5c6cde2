package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/bndr/gotabulate"

	"github.com/toyz/annotate/internal/config"
	"github.com/toyz/annotate/pkg/annotations"
)

// maxCellSize is the width at which table cells wrap
const maxCellSize = 85

// Reporter renders scan results as a table or as JSON
type Reporter struct {
	out    io.Writer
	format string
	base   string
}

// NewReporter creates a reporter writing to out. File paths are shown
// relative to the working directory when possible.
func NewReporter(out io.Writer, format string) *Reporter {
	base, _ := os.Getwd()
	return &Reporter{out: out, format: format, base: base}
}

// Render writes the findings of result in the configured format
func (r *Reporter) Render(result *ScanResult) error {
	switch r.format {
	case config.OutputJSON:
		return r.renderJSON(result)
	case config.OutputTable, "":
		return r.renderTable(result)
	default:
		return fmt.Errorf("unsupported output format %q", r.format)
	}
}

func (r *Reporter) renderTable(result *ScanResult) error {
	if len(result.Findings) == 0 {
		_, err := fmt.Fprintln(r.out, "no annotations found")
		return err
	}

	rows := make([][]any, 0, len(result.Findings))
	for _, f := range result.Findings {
		rows = append(rows, []any{
			fmt.Sprintf("%s:%d:%d", r.relative(f.File), f.Line, f.Column),
			f.Element,
			"@" + f.Annotation,
			f.Value,
		})
	}

	t := gotabulate.Create(rows)
	t.SetHeaders([]string{"Location", "Element", "Annotation", "Value"})
	t.SetAlign("left")
	t.SetWrapStrings(true)
	t.SetMaxCellSize(maxCellSize)
	_, err := fmt.Fprint(r.out, t.Render("grid"))
	return err
}

type jsonReport struct {
	Files    int         `json:"files"`
	Cached   int         `json:"cached"`
	Findings []Finding   `json:"findings"`
	Errors   []jsonError `json:"errors"`
}

type jsonError struct {
	Code       string `json:"code"`
	Message    string `json:"message"`
	Source     string `json:"source,omitempty"`
	Line       int    `json:"line,omitempty"`
	Column     int    `json:"column"`
	Suggestion string `json:"suggestion,omitempty"`
}

func (r *Reporter) renderJSON(result *ScanResult) error {
	report := jsonReport{
		Files:    result.Files,
		Cached:   result.Cached,
		Findings: make([]Finding, 0, len(result.Findings)),
		Errors:   make([]jsonError, 0, len(result.Errors)),
	}
	for _, f := range result.Findings {
		f.File = r.relative(f.File)
		report.Findings = append(report.Findings, f)
	}
	for _, err := range result.Errors {
		report.Errors = append(report.Errors, newJSONError(err))
	}

	encoder := json.NewEncoder(r.out)
	encoder.SetIndent("", "  ")
	return encoder.Encode(report)
}

func newJSONError(err annotations.AnnotationError) jsonError {
	loc := err.Location()
	return jsonError{
		Code:       err.Code().String(),
		Message:    err.Error(),
		Source:     loc.Source,
		Line:       loc.Line,
		Column:     loc.Column,
		Suggestion: err.Suggestion(),
	}
}

func (r *Reporter) relative(path string) string {
	if r.base == "" || !filepath.IsAbs(path) {
		return path
	}
	rel, err := filepath.Rel(r.base, path)
	if err != nil || strings.HasPrefix(rel, "..") {
		return path
	}
	return rel
}
