package cli

import (
	"errors"
	"strings"

	"github.com/toyz/annotate/internal/config"
	"github.com/toyz/annotate/internal/utils"
	"github.com/toyz/annotate/pkg/annotations"
)

// DiagnosticReporter provides user-friendly error reporting and diagnostics
type DiagnosticReporter struct {
	diag    *utils.DiagnosticSystem
	verbose bool
}

// NewDiagnosticReporter creates a new diagnostic reporter
func NewDiagnosticReporter(diag *utils.DiagnosticSystem, verbose bool) *DiagnosticReporter {
	return &DiagnosticReporter{
		diag:    diag,
		verbose: verbose,
	}
}

// ReportWarning reports a warning with optional suggestions
func (r *DiagnosticReporter) ReportWarning(message string, suggestions ...string) {
	r.diag.Warn("%s", message)
	r.printSuggestions(suggestions)
}

// ReportError reports a failure of the tool itself. Annotation errors found
// inside the error chain are reported with their location and suggestion.
func (r *DiagnosticReporter) ReportError(err error) {
	var multi *annotations.MultipleAnnotationErrors
	if errors.As(err, &multi) {
		r.ReportAnnotationErrors(multi.Errors)
		return
	}

	var annErr annotations.AnnotationError
	if errors.As(err, &annErr) {
		r.ReportAnnotationErrors([]annotations.AnnotationError{annErr})
		return
	}

	r.diag.Error("%s", err.Error())
	if r.verbose {
		r.printErrorChain(err)
	}
}

// ReportAnnotationErrors reports every error in order, then a one-line
// summary of the error kinds
func (r *DiagnosticReporter) ReportAnnotationErrors(errs []annotations.AnnotationError) {
	if len(errs) == 0 {
		return
	}

	for _, err := range errs {
		r.diag.Error("%s", err.Error())
		if r.verbose {
			r.diag.Indent()
			r.diag.Verbose("code: %s", err.Code())
			r.diag.Unindent()
		}
		r.printSuggestions([]string{err.Suggestion()})
	}

	r.diag.Error("%s", annotations.SummarizeErrors(errs).String())

	all := &annotations.MultipleAnnotationErrors{Errors: errs}
	if all.HasType(annotations.UnknownAnnotationErrorCode) {
		r.ReportWarning("unknown annotation types: "+unknownNames(all.GetByType(annotations.UnknownAnnotationErrorCode)),
			"Declare them under types in "+config.DefaultFileName+", add them to the ignore list or rerun scan with --allow-unknown")
	}
}

// unknownNames lists the distinct names of unknown annotation errors
func unknownNames(errs []annotations.AnnotationError) string {
	seen := make(map[string]bool, len(errs))
	var names []string
	for _, err := range errs {
		unknown, ok := err.(*annotations.UnknownAnnotationError)
		if !ok || seen[unknown.Name] {
			continue
		}
		seen[unknown.Name] = true
		names = append(names, "@"+unknown.Name)
	}
	return strings.Join(names, ", ")
}

// ReportSummary reports the statistics of a scan run
func (r *DiagnosticReporter) ReportSummary(result *ScanResult) {
	stats := map[string]interface{}{
		"Files scanned": result.Files,
		"Annotations":   len(result.Findings),
		"Errors":        len(result.Errors),
	}
	if result.Cached > 0 {
		stats["Files from store"] = result.Cached
	}
	if len(result.Registered) > 0 {
		stats["Generic types"] = strings.Join(result.Registered, ", ")
	}

	if result.Failed() {
		r.diag.Summary("Scan finished with errors", stats)
		return
	}
	r.diag.Summary("Scan completed successfully", stats)
}

// printSuggestions prints actionable suggestions
func (r *DiagnosticReporter) printSuggestions(suggestions []string) {
	r.diag.Indent()
	defer r.diag.Unindent()

	for _, suggestion := range suggestions {
		if suggestion == "" {
			continue
		}
		// Format multi-line suggestions nicely
		lines := strings.Split(suggestion, "\n")
		r.diag.List("%s", lines[0])
		for _, line := range lines[1:] {
			if strings.TrimSpace(line) != "" {
				r.diag.List("  %s", line)
			}
		}
	}
}

// printErrorChain lists the wrapped causes of err
func (r *DiagnosticReporter) printErrorChain(err error) {
	r.diag.Indent()
	defer r.diag.Unindent()

	level := 1
	for err = errors.Unwrap(err); err != nil; err = errors.Unwrap(err) {
		r.diag.Verbose("%d. %s", level, err.Error())
		level++
	}
}
