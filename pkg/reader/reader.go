// Package reader reads annotations from the doc comments of Go source files.
//
// Each documented declaration of a file (types, struct fields, functions and
// methods) is parsed with its own context: the file's renamed imports form
// the alias table, the element label is used as source, and the comment's
// position anchors the text so that errors are reported in file coordinates.
package reader

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/toyz/annotate/internal/utils"
	"github.com/toyz/annotate/pkg/annotations"
)

// ElementAnnotations holds the annotations read from one element
type ElementAnnotations struct {
	Element     Element
	Annotations []annotations.Result
}

// Reader reads annotations from Go files
type Reader struct {
	parser  *annotations.Parser
	files   *utils.FileReader
	modules *utils.GoModParser
	ignored []string
}

// Option configures a Reader
type Option func(*Reader)

// WithIgnored adds annotation names skipped in every file
func WithIgnored(names ...string) Option {
	return func(r *Reader) {
		r.ignored = append(r.ignored, names...)
	}
}

// WithFileReader shares a file reader, and its cache, with the Reader
func WithFileReader(files *utils.FileReader) Option {
	return func(r *Reader) {
		r.files = files
	}
}

// New creates a reader that builds annotations with parser
func New(parser *annotations.Parser, opts ...Option) *Reader {
	r := &Reader{parser: parser}
	for _, opt := range opts {
		opt(r)
	}
	if r.files == nil {
		r.files = utils.NewFileReader()
	}
	r.modules = utils.NewGoModParser(r.files)
	return r
}

// Inspect loads a Go file and lists its elements. The package path
// is derived from the enclosing module, or falls back to the package name
// outside of a module.
func (r *Reader) Inspect(path string) (*File, error) {
	src, err := r.files.ReadGoFile(path)
	if err != nil {
		return nil, err
	}

	pkgPath := src.AST.Name.Name
	if importPath, err := r.modules.ImportPath(filepath.Dir(path)); err == nil {
		pkgPath = importPath
	}

	return newFile(src, pkgPath), nil
}

// InspectSource is Inspect for in-memory source. The package name is used as
// package path.
func (r *Reader) InspectSource(filename, source string) (*File, error) {
	src, err := utils.ParseGoSource(filename, source)
	if err != nil {
		return nil, err
	}
	return newFile(src, src.AST.Name.Name), nil
}

func newFile(src *utils.SourceFile, pkgPath string) *File {
	return &File{
		Path:        src.Path,
		Package:     src.AST.Name.Name,
		PackagePath: pkgPath,
		Aliases:     importAliases(src.AST),
		Elements:    collectElements(src, pkgPath),
	}
}

// ReadFile reads the annotations of every element of a Go file. Elements
// without annotations are omitted. Annotation errors do not stop the read:
// they are collected and returned together with the elements that parsed.
func (r *Reader) ReadFile(path, filter string) ([]ElementAnnotations, error) {
	file, err := r.Inspect(path)
	if err != nil {
		return nil, err
	}
	return r.readAll(file, filter)
}

// ReadSource is ReadFile for in-memory source
func (r *Reader) ReadSource(filename, source, filter string) ([]ElementAnnotations, error) {
	file, err := r.InspectSource(filename, source)
	if err != nil {
		return nil, err
	}
	return r.readAll(file, filter)
}

func (r *Reader) readAll(file *File, filter string) ([]ElementAnnotations, error) {
	var results []ElementAnnotations
	errs := &annotations.MultipleAnnotationErrors{}

	for _, el := range file.Elements {
		if el.Doc == "" {
			continue
		}
		found, err := r.ReadElement(file, el, filter)
		if err != nil {
			var annErr annotations.AnnotationError
			if !errors.As(err, &annErr) {
				return nil, err
			}
			errs.Add(annErr)
			continue
		}
		if len(found) > 0 {
			results = append(results, ElementAnnotations{Element: el, Annotations: found})
		}
	}

	return results, errs.ErrorOrNil()
}

// ReadElement parses the doc comment of a single element of file
func (r *Reader) ReadElement(file *File, el Element, filter string) ([]annotations.Result, error) {
	return r.parser.ParseResults(el.Doc, r.context(file, el), filter)
}

// ReadTypeAnnotations reads the annotations of a type declared in path
func (r *Reader) ReadTypeAnnotations(path, typeName, filter string) ([]annotations.Result, error) {
	return r.readNamed(path, TypeElement, typeName, filter)
}

// ReadFuncAnnotations reads the annotations of a function declared in path
func (r *Reader) ReadFuncAnnotations(path, funcName, filter string) ([]annotations.Result, error) {
	return r.readNamed(path, FuncElement, funcName, filter)
}

// ReadMethodAnnotations reads the annotations of a method declared in path.
// The receiver is written as declared: "Server" or "*Server".
func (r *Reader) ReadMethodAnnotations(path, receiver, method, filter string) ([]annotations.Result, error) {
	return r.readNamed(path, MethodElement, methodName(receiver, method), filter)
}

// ReadFieldAnnotations reads the annotations of a struct field declared in path
func (r *Reader) ReadFieldAnnotations(path, typeName, field, filter string) ([]annotations.Result, error) {
	return r.readNamed(path, FieldElement, typeName+"."+field, filter)
}

func (r *Reader) readNamed(path string, kind ElementKind, name, filter string) ([]annotations.Result, error) {
	file, el, err := r.lookup(path, kind, name)
	if err != nil {
		return nil, err
	}
	return r.ReadElement(file, el, filter)
}

// lookup inspects path and finds one of its elements
func (r *Reader) lookup(path string, kind ElementKind, name string) (*File, Element, error) {
	file, err := r.Inspect(path)
	if err != nil {
		return nil, Element{}, err
	}

	el, ok := file.Element(kind, name)
	if !ok {
		return nil, Element{}, fmt.Errorf("%s %s not found in %s", kind, name, path)
	}
	return file, el, nil
}

func methodName(receiver, method string) string {
	if strings.HasPrefix(receiver, "*") {
		receiver = "(" + receiver + ")"
	}
	return receiver + "." + method
}

// context builds the parse context of an element
func (r *Reader) context(file *File, el Element) *annotations.Context {
	return annotations.NewContext(
		annotations.WithAliases(file.Aliases...),
		annotations.WithIgnored(r.ignored...),
		annotations.WithSource(el.Label+" in "+file.Path),
		annotations.WithAnchor(el.Line, el.Column),
	)
}
