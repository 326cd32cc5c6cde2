package cli

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/toyz/annotate/internal/utils"
	"github.com/toyz/annotate/pkg/annotations"
	"github.com/toyz/annotate/pkg/reader"
)

// ScanResult is the outcome of a scan run
type ScanResult struct {
	Findings []Finding
	Errors   []annotations.AnnotationError

	// Files is the number of Go files visited, Cached the number of them
	// served from the result store
	Files  int
	Cached int

	// Registered lists the generic types added for unknown names
	Registered []string
}

// Failed reports whether any annotation error was collected
func (r *ScanResult) Failed() bool {
	return len(r.Errors) > 0
}

// Scanner runs the scan pipeline: resolve directories, read every Go file
// and collect the annotations of its documented elements
type Scanner struct {
	config   Config
	registry *annotations.Registry
	ignored  []string
	reader   *reader.CachedReader
	files    *DirectoryScanner
	diag     *utils.DiagnosticSystem
}

// NewScanner creates a scanner reading annotations with registry. Names in
// ignored are skipped in every file.
func NewScanner(cfg Config, registry *annotations.Registry, ignored []string, diag *utils.DiagnosticSystem) *Scanner {
	if diag == nil {
		diag = utils.NewQuietDiagnostics()
	}
	parser := annotations.NewParser(annotations.NewFactory(registry))
	return &Scanner{
		config:   cfg,
		registry: registry,
		ignored:  ignored,
		reader:   reader.NewCachedReader(reader.New(parser, reader.WithIgnored(ignored...))),
		files:    NewDirectoryScanner(),
		diag:     diag,
	}
}

// Run scans the configured directories. Annotation errors do not stop the
// scan: they are collected in the result. Other failures, like unreadable
// or unparsable Go files, abort it. ctx is checked between files.
func (s *Scanner) Run(ctx context.Context) (*ScanResult, error) {
	paths, err := s.files.ScanFiles(s.config.Directories)
	if err != nil {
		return nil, err
	}
	s.diag.Verbose("found %d Go files", len(paths))

	var store *Store
	if s.config.CachePath != "" {
		store, err = OpenStore(s.config.CachePath, s.storeKey())
		if err != nil {
			return nil, err
		}
		s.diag.Debug("result store %s holds %d files", store.Path(), store.Len())
	}

	result := &ScanResult{Files: len(paths)}
	for _, path := range paths {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		if store != nil {
			if findings, ok := store.Lookup(path); ok {
				s.diag.Debug("%s unchanged, using stored results", path)
				result.Findings = append(result.Findings, findings...)
				result.Cached++
				continue
			}
		}

		findings, errs, err := s.scanFile(path, result)
		if err != nil {
			return nil, utils.WrapProcessError(fmt.Sprintf("file %s", path), err)
		}
		result.Findings = append(result.Findings, findings...)
		result.Errors = append(result.Errors, errs...)

		if store == nil {
			continue
		}
		if len(errs) > 0 {
			store.Forget(path)
		} else if err := store.Put(path, findings); err != nil {
			return nil, err
		}
	}

	if store != nil {
		if err := store.Save(); err != nil {
			return nil, err
		}
	}
	return result, nil
}

// scanFile reads every documented element of path
func (s *Scanner) scanFile(path string, result *ScanResult) ([]Finding, []annotations.AnnotationError, error) {
	file, err := s.reader.Reader().Inspect(path)
	if err != nil {
		return nil, nil, err
	}
	s.diag.Verbose("reading %s (package %s)", path, file.PackagePath)

	var findings []Finding
	var errs []annotations.AnnotationError
	for _, el := range file.Elements {
		if el.Doc == "" {
			continue
		}

		results, err := s.readElement(file, el, result)
		if err != nil {
			var annErr annotations.AnnotationError
			if !errors.As(err, &annErr) {
				return nil, nil, err
			}
			errs = append(errs, annErr)
			continue
		}
		for _, res := range results {
			findings = append(findings, newFinding(path, el, res))
		}
	}
	return findings, errs, nil
}

// readElement parses one element. With AllowUnknown, every unknown name is
// registered as a generic record type and the element is read again.
func (s *Scanner) readElement(file *reader.File, el reader.Element, result *ScanResult) ([]annotations.Result, error) {
	for {
		results, err := s.reader.ReadElement(file, el, s.config.Filter)

		var unknown *annotations.UnknownAnnotationError
		if err == nil || !s.config.AllowUnknown || !errors.As(err, &unknown) {
			return results, err
		}
		if regErr := s.registry.Register(annotations.RecordDescriptor(unknown.Name)); regErr != nil {
			return nil, err
		}

		s.diag.Warn("registered generic type for unknown annotation @%s", unknown.Name)
		result.Registered = append(result.Registered, unknown.Name)
	}
}

// storeKey identifies the settings stored results depend on: the shape of
// every registered type, the ignore list, the filter and AllowUnknown
func (s *Scanner) storeKey() string {
	names := s.registry.Names()
	types := make([]string, 0, len(names))
	for _, name := range names {
		if d, ok := s.registry.Lookup(name); ok {
			types = append(types, descriptorKey(d))
		}
	}

	return strings.Join([]string{
		strings.Join(types, ","),
		strings.Join(s.ignored, ","),
		s.config.Filter,
		fmt.Sprint(s.config.AllowUnknown),
	}, "|")
}

// descriptorKey renders the parts of a descriptor that change parse results
func descriptorKey(d annotations.Descriptor) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s:%s(", d.Name, d.Strategy())
	for i, p := range d.Params {
		if i > 0 {
			b.WriteByte(';')
		}
		b.WriteString(p.Name)
		if p.HasDefault {
			b.WriteString("=" + p.Default.String())
		}
	}
	b.WriteByte(')')
	if d.Prototype != nil {
		fmt.Fprintf(&b, "%T", d.Prototype)
	}
	b.WriteString("[" + strings.Join(d.Fields, ";") + "]")
	return b.String()
}
