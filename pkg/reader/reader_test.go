package reader

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/toyz/annotate/pkg/annotations"
)

const serverSource = `package api

import (
	_ "embed"
	web "example.com/kit/httpx"
)

// Server handles requests.
//
// @web.Route(path="/users", method="POST")
type Server struct {
	// @Tag("addr")
	Addr string

	Port int
}

// NewServer builds a server.
// @Tag("ctor")
func NewServer() *Server { return nil }

// Start runs the server.
// @httpx.Route(path="/start")
// @Tag("start")
func (s *Server) Start() {}

// Plain has no annotations.
func Plain() {}
`

const brokenSource = `package api

// A is fine.
// @Tag
type A struct{}

// B is unknown.
// @Missing(x=1)
type B struct{}

// C is broken.
//   @Tag(a=
func C() {}
`

func newTestReader(opts ...Option) *Reader {
	registry := annotations.NewRegistry().MustRegister(
		annotations.RecordDescriptor("Tag"),
		annotations.ConstructorRecordDescriptor("httpx.Route",
			annotations.Required("path"),
			annotations.Optional("method", annotations.String("GET")),
		),
	)
	return New(annotations.NewParser(annotations.NewFactory(registry)), opts...)
}

func record(t *testing.T, result annotations.Result) *annotations.Record {
	t.Helper()
	rec, ok := result.Object.(*annotations.Record)
	require.True(t, ok, "expected *Record, got %T", result.Object)
	return rec
}

// writeModule lays out a module with the server source in its api package
func writeModule(t *testing.T) string {
	t.Helper()
	root := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(root, "go.mod"), []byte("module example.com/shop\n\ngo 1.22\n"), 0644))
	require.NoError(t, os.MkdirAll(filepath.Join(root, "api"), 0755))
	path := filepath.Join(root, "api", "server.go")
	require.NoError(t, os.WriteFile(path, []byte(serverSource), 0644))
	return path
}

func TestInspectSource_Elements(t *testing.T) {
	r := newTestReader()

	file, err := r.InspectSource("server.go", serverSource)
	require.NoError(t, err)

	assert.Equal(t, "api", file.Package)
	assert.Equal(t, "api", file.PackagePath)
	assert.Equal(t, []annotations.Alias{{Prefix: "web.", Canonical: "httpx."}}, file.Aliases)

	var names []string
	for _, el := range file.Elements {
		names = append(names, el.Kind.String()+" "+el.Name)
	}
	assert.Equal(t, []string{
		"type Server",
		"field Server.Addr",
		"field Server.Port",
		"func NewServer",
		"method (*Server).Start",
		"func Plain",
	}, names)

	addr, ok := file.Element(FieldElement, "Server.Addr")
	require.True(t, ok)
	assert.Equal(t, `// @Tag("addr")`, addr.Doc)
	assert.Equal(t, "api.Server.Addr", addr.Label)
	assert.Equal(t, 12, addr.Line)
	assert.Equal(t, 1, addr.Column)

	server, ok := file.Element(TypeElement, "Server")
	require.True(t, ok)
	assert.Equal(t, "// Server handles requests.\n//\n// @web.Route(path=\"/users\", method=\"POST\")", server.Doc)
	assert.Equal(t, 8, server.Line)
	assert.Equal(t, 0, server.Column)

	start, ok := file.Element(MethodElement, "(*Server).Start")
	require.True(t, ok)
	assert.Equal(t, "api.(*Server).Start()", start.Label)

	port, ok := file.Element(FieldElement, "Server.Port")
	require.True(t, ok)
	assert.Empty(t, port.Doc)
}

func TestReadSource(t *testing.T) {
	r := newTestReader()

	results, err := r.ReadSource("server.go", serverSource, "")
	require.NoError(t, err)
	require.Len(t, results, 4)

	server := results[0]
	assert.Equal(t, "Server", server.Element.Name)
	require.Len(t, server.Annotations, 1)
	route := server.Annotations[0]
	assert.Equal(t, "httpx.Route", route.Name)
	assert.Equal(t, "web.Route", route.RawName)
	assert.Equal(t, "/users", record(t, route).GetString("path"))
	assert.Equal(t, "POST", record(t, route).GetString("method"))
	assert.Equal(t, annotations.SourceLocation{
		Source: "api.Server in server.go",
		Line:   10,
		Column: 3,
		Offset: 34,
	}, route.Location)

	addr := results[1]
	assert.Equal(t, "Server.Addr", addr.Element.Name)
	require.Len(t, addr.Annotations, 1)
	assert.Equal(t, 12, addr.Annotations[0].Location.Line)
	assert.Equal(t, 4, addr.Annotations[0].Location.Column)
	value, ok := record(t, addr.Annotations[0]).Members.At(0)
	require.True(t, ok)
	assert.Equal(t, "addr", value.AsString())

	assert.Equal(t, "NewServer", results[2].Element.Name)

	start := results[3]
	require.Len(t, start.Annotations, 2)
	assert.Equal(t, "httpx.Route", start.Annotations[0].Name)
	assert.Equal(t, "GET", record(t, start.Annotations[0]).GetString("method"))
	assert.Equal(t, 23, start.Annotations[0].Location.Line)
	assert.Equal(t, "Tag", start.Annotations[1].Name)
	assert.Equal(t, 24, start.Annotations[1].Location.Line)
}

func TestReadSource_Filter(t *testing.T) {
	r := newTestReader()

	results, err := r.ReadSource("server.go", serverSource, "httpx.Route")
	require.NoError(t, err)
	require.Len(t, results, 2)
	assert.Equal(t, "Server", results[0].Element.Name)
	assert.Equal(t, "web.Route", results[0].Annotations[0].RawName)
	assert.Equal(t, "(*Server).Start", results[1].Element.Name)
	require.Len(t, results[1].Annotations, 1)
}

func TestReadSource_Ignored(t *testing.T) {
	r := newTestReader(WithIgnored("tag"))

	results, err := r.ReadSource("server.go", serverSource, "")
	require.NoError(t, err)
	require.Len(t, results, 2)
	assert.Len(t, results[1].Annotations, 1)
	assert.Equal(t, "httpx.Route", results[1].Annotations[0].Name)
}

func TestReadSource_CollectsErrors(t *testing.T) {
	r := newTestReader()

	results, err := r.ReadSource("broken.go", brokenSource, "")
	require.Len(t, results, 1)
	assert.Equal(t, "A", results[0].Element.Name)

	var multi *annotations.MultipleAnnotationErrors
	require.True(t, errors.As(err, &multi))
	require.Len(t, multi.Errors, 2)

	assert.Equal(t, annotations.UnknownAnnotationErrorCode, multi.Errors[0].Code())
	assert.Equal(t, "annotation @Missing found in api.B in broken.go at line 8, column 3 cannot be loaded", multi.Errors[0].Error())

	assert.Equal(t, annotations.MalformedErrorCode, multi.Errors[1].Code())
	assert.Equal(t, "malformed annotation @Tag found in api.C() in broken.go, at line 12, column 5", multi.Errors[1].Error())
}

func TestReadSource_InvalidGo(t *testing.T) {
	r := newTestReader()

	_, err := r.ReadSource("bad.go", "package", "")
	assert.Error(t, err)
}

func TestReadFile_ModulePath(t *testing.T) {
	path := writeModule(t)
	r := newTestReader()

	file, err := r.Inspect(path)
	require.NoError(t, err)
	assert.Equal(t, "example.com/shop/api", file.PackagePath)

	results, err := r.ReadFile(path, "")
	require.NoError(t, err)
	require.Len(t, results, 4)
	assert.Equal(t, "example.com/shop/api.Server", results[0].Element.Label)
	assert.Equal(t, "example.com/shop/api.Server in "+path, results[0].Annotations[0].Location.Source)
}

func TestReadElementHelpers(t *testing.T) {
	path := writeModule(t)
	r := newTestReader()

	types, err := r.ReadTypeAnnotations(path, "Server", "")
	require.NoError(t, err)
	require.Len(t, types, 1)
	assert.Equal(t, "httpx.Route", types[0].Name)

	methods, err := r.ReadMethodAnnotations(path, "*Server", "Start", "Tag")
	require.NoError(t, err)
	require.Len(t, methods, 1)
	assert.Equal(t, "Tag", methods[0].Name)

	funcs, err := r.ReadFuncAnnotations(path, "Plain", "")
	require.NoError(t, err)
	assert.Empty(t, funcs)

	fields, err := r.ReadFieldAnnotations(path, "Server", "Addr", "")
	require.NoError(t, err)
	require.Len(t, fields, 1)

	_, err = r.ReadFuncAnnotations(path, "Missing", "")
	assert.ErrorContains(t, err, "func Missing not found")

	_, err = r.ReadMethodAnnotations(path, "Server", "Start", "")
	assert.ErrorContains(t, err, "method Server.Start not found")
}

func TestImportName(t *testing.T) {
	tests := map[string]string{
		"example.com/kit/httpx":     "httpx",
		"github.com/acme/client/v2": "client",
		"github.com/acme/go-yaml":   "yaml",
		"gopkg.in/yaml.v3":          "yaml",
		"github.com/acme/some-lib":  "some_lib",
		"fmt":                       "fmt",
	}

	for importPath, expected := range tests {
		assert.Equal(t, expected, importName(importPath), importPath)
	}
}

func TestReceiverNames(t *testing.T) {
	src := `package p

type List[T any] struct{}

// @Tag
func (l *List[T]) Push() {}

// @Tag
func (l List[T]) Len() {}
`
	r := newTestReader()
	file, err := r.InspectSource("list.go", src)
	require.NoError(t, err)

	_, ok := file.Element(MethodElement, "(*List).Push")
	assert.True(t, ok)
	_, ok = file.Element(MethodElement, "List.Len")
	assert.True(t, ok)
}
