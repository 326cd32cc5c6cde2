package annotations

import (
	"fmt"
	"strings"
)

// AnnotationError defines the interface for annotation-related errors
type AnnotationError interface {
	error
	Location() SourceLocation
	Suggestion() string
	Code() ErrorCode
}

// ErrorCode represents different types of annotation errors
type ErrorCode int

const (
	MalformedErrorCode ErrorCode = iota
	UnknownAnnotationErrorCode
	BindingErrorCode
)

// String returns the string representation of the error code
func (e ErrorCode) String() string {
	switch e {
	case MalformedErrorCode:
		return "MalformedAnnotation"
	case UnknownAnnotationErrorCode:
		return "UnknownAnnotationName"
	case BindingErrorCode:
		return "FactoryBindingError"
	default:
		return "UnknownError"
	}
}

// MalformedError represents a structural grammar violation
type MalformedError struct {
	Name string         // annotation name, empty for list and value errors
	Loc  SourceLocation // where the error occurred
	Hint string         // suggested fix
}

func (e *MalformedError) Error() string {
	if e.Name == "" {
		return fmt.Sprintf("malformed list or value found in %s, starting at line %d, column %d",
			e.Loc.Source, e.Loc.Line, e.Loc.Column)
	}
	return fmt.Sprintf("malformed annotation @%s found in %s, at line %d, column %d",
		e.Name, e.Loc.Source, e.Loc.Line, e.Loc.Column)
}

func (e *MalformedError) Location() SourceLocation { return e.Loc }
func (e *MalformedError) Suggestion() string       { return e.Hint }
func (e *MalformedError) Code() ErrorCode          { return MalformedErrorCode }

// UnknownAnnotationError is returned when a name does not resolve to a
// registered annotation type
type UnknownAnnotationError struct {
	Name    string         // canonical name
	RawName string         // name as written, when known
	Loc     SourceLocation // where the annotation was found, when known
	Hint    string
}

func (e *UnknownAnnotationError) Error() string {
	if e.Loc.IsZero() {
		return fmt.Sprintf("annotation @%s cannot be loaded", e.Name)
	}
	return fmt.Sprintf("annotation @%s found in %s at line %d, column %d cannot be loaded",
		e.Name, e.Loc.Source, e.Loc.Line, e.Loc.Column)
}

func (e *UnknownAnnotationError) Location() SourceLocation { return e.Loc }
func (e *UnknownAnnotationError) Suggestion() string       { return e.Hint }
func (e *UnknownAnnotationError) Code() ErrorCode          { return UnknownAnnotationErrorCode }

// BindingReason tells why members could not be bound to an annotation type
type BindingReason int

const (
	MissingArgument BindingReason = iota
	UnknownMember
	PositionalMember
	InvalidValue
	ConstructionFailed
)

// String returns the string representation of the binding reason
func (r BindingReason) String() string {
	switch r {
	case MissingArgument:
		return "missing argument"
	case UnknownMember:
		return "unknown member"
	case PositionalMember:
		return "positional member"
	case InvalidValue:
		return "invalid value"
	case ConstructionFailed:
		return "construction failed"
	default:
		return "unknown"
	}
}

// BindingError is returned when members cannot be bound to an annotation type
type BindingError struct {
	Annotation string         // canonical annotation name
	Member     string         // member or parameter name
	Reason     BindingReason  // what went wrong
	Detail     string         // extra information
	Cause      error          // underlying error from a user hook or conversion
	Loc        SourceLocation // where the annotation was found, when known
	Hint       string
}

func (e *BindingError) Error() string {
	var msg string
	switch e.Reason {
	case MissingArgument:
		msg = fmt.Sprintf("missing argument %q for %s", e.Member, e.Annotation)
	case UnknownMember:
		msg = fmt.Sprintf("unknown member %q for %s", e.Member, e.Annotation)
	case PositionalMember:
		msg = fmt.Sprintf("positional member %s is not allowed for %s", e.Member, e.Annotation)
	case InvalidValue:
		msg = fmt.Sprintf("invalid value for member %q of %s", e.Member, e.Annotation)
	default:
		msg = fmt.Sprintf("cannot create %s", e.Annotation)
	}
	if e.Detail != "" {
		msg += ": " + e.Detail
	} else if e.Cause != nil {
		msg += ": " + e.Cause.Error()
	}

	if e.Loc.IsZero() {
		return msg
	}
	return fmt.Sprintf("annotation @%s found in %s at line %d, column %d: %s",
		e.Annotation, e.Loc.Source, e.Loc.Line, e.Loc.Column, msg)
}

func (e *BindingError) Unwrap() error            { return e.Cause }
func (e *BindingError) Location() SourceLocation { return e.Loc }
func (e *BindingError) Suggestion() string       { return e.Hint }
func (e *BindingError) Code() ErrorCode          { return BindingErrorCode }

// MultipleAnnotationErrors represents multiple annotation errors collected
// together, e.g. one per documented element of a file
type MultipleAnnotationErrors struct {
	Errors []AnnotationError
}

func (e *MultipleAnnotationErrors) Error() string {
	if len(e.Errors) == 0 {
		return "no errors"
	}

	if len(e.Errors) == 1 {
		return e.Errors[0].Error()
	}

	var messages []string
	for i, err := range e.Errors {
		messages = append(messages, fmt.Sprintf("  %d. %s", i+1, err.Error()))
	}

	return fmt.Sprintf("multiple annotation errors (%d total):\n%s", len(e.Errors), strings.Join(messages, "\n"))
}

// Add appends an error to the collection
func (e *MultipleAnnotationErrors) Add(err AnnotationError) {
	e.Errors = append(e.Errors, err)
}

// ErrorOrNil returns nil when nothing was collected
func (e *MultipleAnnotationErrors) ErrorOrNil() error {
	if e == nil || len(e.Errors) == 0 {
		return nil
	}
	return e
}

// Unwrap returns the underlying errors for error inspection
func (e *MultipleAnnotationErrors) Unwrap() []error {
	errors := make([]error, len(e.Errors))
	for i, err := range e.Errors {
		errors[i] = err
	}
	return errors
}

// GetByType returns all errors of a specific type
func (e *MultipleAnnotationErrors) GetByType(code ErrorCode) []AnnotationError {
	var result []AnnotationError
	for _, err := range e.Errors {
		if err.Code() == code {
			result = append(result, err)
		}
	}
	return result
}

// HasType returns true if any error of the specified type exists
func (e *MultipleAnnotationErrors) HasType(code ErrorCode) bool {
	for _, err := range e.Errors {
		if err.Code() == code {
			return true
		}
	}
	return false
}

// generateSuggestion provides context-aware suggestions for annotation errors
func generateSuggestion(err AnnotationError) string {
	switch e := err.(type) {
	case *MalformedError:
		if e.Name == "" {
			return "Separate members with commas, quote strings and array keys, and use name=value for members"
		}
		return fmt.Sprintf("Close the argument list of @%s or move trailing text to its own line", e.Name)
	case *UnknownAnnotationError:
		if e.RawName != "" && e.RawName != e.Name {
			return fmt.Sprintf("@%s resolved to %s; register that type or fix the import alias", e.RawName, e.Name)
		}
		return fmt.Sprintf("Register the annotation type %s or add it to the ignore list", e.Name)
	case *BindingError:
		switch e.Reason {
		case MissingArgument:
			return fmt.Sprintf("Add %s=<value> to the annotation", e.Member)
		case UnknownMember:
			return fmt.Sprintf("Remove %s or check the spelling against the members of %s", e.Member, e.Annotation)
		case PositionalMember:
			return "Give every member a name: @Name(member=value)"
		case InvalidValue:
			return fmt.Sprintf("Check the type of the value given for %s", e.Member)
		}
	}
	return "Check annotation syntax and refer to documentation for examples"
}

// ErrorSummary provides a summary of errors by type for better reporting
type ErrorSummary struct {
	MalformedErrors []AnnotationError
	UnknownErrors   []AnnotationError
	BindingErrors   []AnnotationError
	TotalCount      int
}

// SummarizeErrors creates an error summary from a collection of errors
func SummarizeErrors(errors []AnnotationError) ErrorSummary {
	summary := ErrorSummary{
		TotalCount: len(errors),
	}

	for _, err := range errors {
		switch err.Code() {
		case MalformedErrorCode:
			summary.MalformedErrors = append(summary.MalformedErrors, err)
		case UnknownAnnotationErrorCode:
			summary.UnknownErrors = append(summary.UnknownErrors, err)
		default:
			summary.BindingErrors = append(summary.BindingErrors, err)
		}
	}

	return summary
}

// String returns a formatted summary of errors
func (s ErrorSummary) String() string {
	if s.TotalCount == 0 {
		return "No errors found"
	}

	var parts []string
	if len(s.MalformedErrors) > 0 {
		parts = append(parts, fmt.Sprintf("%d malformed annotation(s)", len(s.MalformedErrors)))
	}
	if len(s.UnknownErrors) > 0 {
		parts = append(parts, fmt.Sprintf("%d unknown annotation(s)", len(s.UnknownErrors)))
	}
	if len(s.BindingErrors) > 0 {
		parts = append(parts, fmt.Sprintf("%d binding error(s)", len(s.BindingErrors)))
	}

	return fmt.Sprintf("Found %d total error(s): %s", s.TotalCount, strings.Join(parts, ", "))
}
