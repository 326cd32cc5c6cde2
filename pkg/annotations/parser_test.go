package annotations

import (
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type innerAnnotation struct {
	X float64
}

type outerAnnotation struct {
	Inner *innerAnnotation
	Name  string
}

func newTestParser(t *testing.T) *Parser {
	t.Helper()

	registry := NewRegistry()
	registry.MustRegister(
		RecordDescriptor("Tag"),
		ConstructorRecordDescriptor("Route", Required("path"), Optional("method", String("GET"))),
		ConstructorRecordDescriptor("Foo", Required("id")),
		FieldRecordDescriptor("Cache", "ttl"),
		Descriptor{Name: "Inner", Prototype: &innerAnnotation{}},
		Descriptor{Name: "Outer", Prototype: &outerAnnotation{Name: "default"}},
		RecordDescriptor(`App\Http\Route`),
	)
	return NewParser(NewFactory(registry))
}

func parseOne(t *testing.T, p *Parser, doc string, opts ...ContextOption) *Record {
	t.Helper()

	objects, err := p.Parse(doc, NewContext(opts...))
	require.NoError(t, err)
	require.Len(t, objects, 1)

	record, ok := objects[0].(*Record)
	require.True(t, ok, "expected *Record, got %T", objects[0])
	return record
}

func TestParseZeroArgumentMarker(t *testing.T) {
	p := newTestParser(t)

	for _, doc := range []string{"@Tag", "@Tag   ", "@Tag\t\n", "/** @Tag */", "@Tag()"} {
		t.Run(doc, func(t *testing.T) {
			record := parseOne(t, p, doc)
			assert.Equal(t, "Tag", record.Name)
			assert.Equal(t, 0, record.Members.Len())
		})
	}
}

func TestParseNestedAnnotation(t *testing.T) {
	p := newTestParser(t)

	objects, err := p.Parse("@Outer(inner=@Inner(x=1))", nil)
	require.NoError(t, err)
	require.Len(t, objects, 1)

	outer, ok := objects[0].(*outerAnnotation)
	require.True(t, ok)
	require.NotNil(t, outer.Inner)
	assert.Equal(t, 1.0, outer.Inner.X)
	assert.Equal(t, "default", outer.Name)
}

func TestParseMixedArray(t *testing.T) {
	p := newTestParser(t)

	record := parseOne(t, p, `@Tag(values={1, "a"=2, 3})`)
	values, ok := record.Get("values")
	require.True(t, ok)
	require.Equal(t, ListKind, values.Kind())

	entries := values.AsList().Entries()
	require.Len(t, entries, 3)

	assert.False(t, entries[0].Keyed())
	assert.Equal(t, 0, entries[0].Index)
	assert.Equal(t, 1.0, entries[0].Value.AsNumber())

	assert.True(t, entries[1].Keyed())
	assert.Equal(t, "a", entries[1].Key)
	assert.Equal(t, 2.0, entries[1].Value.AsNumber())

	assert.False(t, entries[2].Keyed())
	assert.Equal(t, 3.0, entries[2].Value.AsNumber())

	assert.True(t, values.AsList().Has("a"))
}

func TestParseScalars(t *testing.T) {
	p := newTestParser(t)

	record := parseOne(t, p, `@Tag(1, 2.5, TRUE, false, s="a \"q\" \\ b\n", nested={{}, {"x"}})`)
	list := record.Members

	v, _ := list.At(0)
	assert.Equal(t, Number(1), v)
	v, _ = list.At(1)
	assert.Equal(t, Number(2.5), v)
	v, _ = list.At(2)
	assert.Equal(t, Bool(true), v)
	v, _ = list.At(3)
	assert.Equal(t, Bool(false), v)

	assert.Equal(t, `a "q" \ b\n`, record.GetString("s"))

	nested, _ := list.Get("nested")
	require.Equal(t, 2, nested.AsList().Len())
	first, _ := nested.AsList().At(0)
	assert.Equal(t, 0, first.AsList().Len())
	second, _ := nested.AsList().At(1)
	x, _ := second.AsList().At(0)
	assert.Equal(t, "x", x.AsString())
}

func TestParseDecoratedBlockComment(t *testing.T) {
	p := newTestParser(t)

	doc := "/**\n * Lists users.\n *\n * @Route(\n *   path=\"/users\",\n *   method=\"POST\"\n * )\n */"
	record := parseOne(t, p, doc)
	assert.Equal(t, "Route", record.Name)
	assert.Equal(t, []string{"path", "method"}, record.Members.Keys())
	assert.Equal(t, "/users", record.GetString("path"))
	assert.Equal(t, "POST", record.GetString("method"))
}

func TestParseConstructorBinding(t *testing.T) {
	p := newTestParser(t)

	t.Run("missing required argument", func(t *testing.T) {
		_, err := p.Parse("@Foo()", NewContext(WithSource("pkg.Handler")))
		require.Error(t, err)

		var bindingErr *BindingError
		require.True(t, errors.As(err, &bindingErr))
		assert.Equal(t, MissingArgument, bindingErr.Reason)
		assert.Equal(t, "id", bindingErr.Member)
		assert.Equal(t, "Foo", bindingErr.Annotation)
		assert.Equal(t, `annotation @Foo found in pkg.Handler at line 1, column 0: missing argument "id" for Foo`, err.Error())
		assert.NotEmpty(t, bindingErr.Suggestion())
	})

	t.Run("supplied argument", func(t *testing.T) {
		record := parseOne(t, p, "@Foo(id=5)")
		assert.Equal(t, 5.0, record.GetNumber("id"))
	})

	t.Run("default argument", func(t *testing.T) {
		record := parseOne(t, p, `@Route(path="/x")`)
		assert.Equal(t, "GET", record.GetString("method"))
	})

	t.Run("leftover member", func(t *testing.T) {
		_, err := p.Parse("@Foo(id=1, extra=2)", nil)
		var bindingErr *BindingError
		require.True(t, errors.As(err, &bindingErr))
		assert.Equal(t, UnknownMember, bindingErr.Reason)
		assert.Equal(t, "extra", bindingErr.Member)
	})

	t.Run("leftover positional member", func(t *testing.T) {
		_, err := p.Parse("@Foo(id=1, 2)", nil)
		var bindingErr *BindingError
		require.True(t, errors.As(err, &bindingErr))
		assert.Equal(t, UnknownMember, bindingErr.Reason)
		assert.Equal(t, "0", bindingErr.Member)
	})
}

func TestParseFieldBinding(t *testing.T) {
	p := newTestParser(t)

	record := parseOne(t, p, "@Cache(ttl=30)")
	assert.Equal(t, 30.0, record.GetNumber("ttl"))

	tests := []struct {
		doc    string
		reason BindingReason
		member string
	}{
		{"@Cache(size=1)", UnknownMember, "size"},
		{"@Cache(30)", PositionalMember, "0"},
		{"@Inner(y=1)", UnknownMember, "y"},
		{"@Inner(1)", PositionalMember, "0"},
		{`@Inner(x="a")`, InvalidValue, "x"},
	}
	for _, tt := range tests {
		t.Run(tt.doc, func(t *testing.T) {
			_, err := p.Parse(tt.doc, nil)
			var bindingErr *BindingError
			require.True(t, errors.As(err, &bindingErr))
			assert.Equal(t, tt.reason, bindingErr.Reason)
			assert.Equal(t, tt.member, bindingErr.Member)
		})
	}
}

func TestParseIgnoredNames(t *testing.T) {
	p := newTestParser(t)

	doc := "@author John Doe\n@Tag\n@Author(\"x\")"
	objects, err := p.Parse(doc, NewContext(WithIgnored("author")))
	require.NoError(t, err)
	require.Len(t, objects, 1)
	assert.Equal(t, "Tag", objects[0].(*Record).Name)

	// without the ignore list the trailing text is malformed
	_, err = p.Parse(doc, nil)
	var malformed *MalformedError
	require.True(t, errors.As(err, &malformed))
	assert.Equal(t, "author", malformed.Name)
}

func TestParseIgnoredAliasedNames(t *testing.T) {
	p := newTestParser(t)
	alias := WithAliases(Alias{Prefix: `H\`, Canonical: `App\Http\`})

	doc := "@H\\Route\n@Tag"
	for _, ignored := range []string{`App\Http\Route`, `h\route`} {
		t.Run(ignored, func(t *testing.T) {
			objects, err := p.Parse(doc, NewContext(alias, WithIgnored(ignored)))
			require.NoError(t, err)
			require.Len(t, objects, 1)
			assert.Equal(t, "Tag", objects[0].(*Record).Name)
		})
	}

	objects, err := p.Parse(doc, NewContext(alias))
	require.NoError(t, err)
	require.Len(t, objects, 2)
	assert.Equal(t, `App\Http\Route`, objects[0].(*Record).Name)
}

func TestParseMalformedLocation(t *testing.T) {
	p := newTestParser(t)

	doc := "/**\n * @Foo(bar\n */"
	_, err := p.Parse(doc, nil)
	require.Error(t, err)

	var malformed *MalformedError
	require.True(t, errors.As(err, &malformed))
	assert.Equal(t, 2, malformed.Location().Line)
	assert.Equal(t, 3, malformed.Location().Column)
	assert.Equal(t, 7, malformed.Location().Offset)
	assert.Equal(t, MalformedErrorCode, malformed.Code())
	assert.Equal(t, "malformed annotation @Foo found in unknown source, at line 2, column 3", err.Error())

	_, err = p.Parse(doc, NewContext(WithSource("pkg.Type"), WithAnchor(10, 4)))
	require.True(t, errors.As(err, &malformed))
	assert.Equal(t, "malformed annotation @Foo found in pkg.Type, at line 11, column 3", err.Error())
}

func TestParseCoverageErrors(t *testing.T) {
	p := newTestParser(t)

	tests := []struct {
		doc    string
		line   int
		column int
	}{
		{"@Tag(a=1,,b=2)", 1, 5},
		{"@Tag(a={1 2})", 1, 8},
		{"@Tag(a=1)\n@Tag(\n  b={\"k\"=@Tag(c=1 d)}\n)", 3, 14},
		{"@Tag(a=-1)", 1, 5},
	}

	for _, tt := range tests {
		t.Run(tt.doc, func(t *testing.T) {
			_, err := p.Parse(tt.doc, NewContext(WithSource("src")))
			var malformed *MalformedError
			require.True(t, errors.As(err, &malformed), "got %v", err)
			assert.Empty(t, malformed.Name)
			assert.Equal(t, tt.line, malformed.Loc.Line)
			assert.Equal(t, tt.column, malformed.Loc.Column)
			assert.Equal(t, fmt.Sprintf("malformed list or value found in src, starting at line %d, column %d", tt.line, tt.column), err.Error())
		})
	}
}

func TestParseUnknownAnnotation(t *testing.T) {
	p := newTestParser(t)

	_, err := p.Parse("\n  @Missing(a=1)", nil)
	var unknown *UnknownAnnotationError
	require.True(t, errors.As(err, &unknown))
	assert.Equal(t, "Missing", unknown.Name)
	assert.Equal(t, "annotation @Missing found in unknown source at line 2, column 2 cannot be loaded", err.Error())
}

func TestParseNestedErrorLocation(t *testing.T) {
	p := newTestParser(t)

	doc := "@Tag(\n  list={\n    1,\n    @Missing\n  }\n)"
	_, err := p.Parse(doc, NewContext(WithAnchor(20, 3)))

	var unknown *UnknownAnnotationError
	require.True(t, errors.As(err, &unknown))
	assert.Equal(t, 23, unknown.Loc.Line)
	assert.Equal(t, 4, unknown.Loc.Column)
	assert.Equal(t, 26, unknown.Loc.Offset)
}

func TestParseDuplicateKeysLastWriteWins(t *testing.T) {
	p := newTestParser(t)

	record := parseOne(t, p, "@Tag(a=1, b=2, a=3)")
	assert.Equal(t, []string{"a", "b"}, record.Members.Keys())
	assert.Equal(t, 3.0, record.GetNumber("a"))
}

func TestParseAliases(t *testing.T) {
	p := newTestParser(t)

	doc := "@Http\\Route(\"/a\")\n@App\\Http\\Route(\"/b\")\n@Tag"
	ctx := NewContext(WithAliases(Alias{Prefix: `Http\`, Canonical: `App\Http\`}))

	objects, err := p.ParseNamed(doc, `App\Http\Route`, ctx)
	require.NoError(t, err)
	require.Len(t, objects, 2)
	for i, want := range []string{"/a", "/b"} {
		record := objects[i].(*Record)
		assert.Equal(t, `App\Http\Route`, record.Name)
		v, _ := record.Members.At(0)
		assert.Equal(t, want, v.AsString())
	}

	results, err := p.ParseResults(doc, ctx, "")
	require.NoError(t, err)
	require.Len(t, results, 3)
	assert.Equal(t, `App\Http\Route`, results[0].Name)
	assert.Equal(t, `Http\Route`, results[0].RawName)
	assert.Equal(t, "Tag", results[2].Name)

	// the aliased spelling is unknown without the alias table
	_, err = p.ParseNamed(doc, `App\Http\Route`, nil)
	var unknown *UnknownAnnotationError
	require.NoError(t, err)
	_, err = p.Parse(doc, nil)
	require.True(t, errors.As(err, &unknown))
	assert.Equal(t, `Http\Route`, unknown.RawName)
}

func TestParseResultsLocations(t *testing.T) {
	p := newTestParser(t)

	results, err := p.ParseResults("@Tag\n  @Tag", NewContext(WithSource("pkg.Type"), WithAnchor(10, 4)), "")
	require.NoError(t, err)
	require.Len(t, results, 2)

	assert.Equal(t, SourceLocation{Source: "pkg.Type", Line: 10, Column: 4, Offset: 0}, results[0].Location)
	assert.Equal(t, SourceLocation{Source: "pkg.Type", Line: 11, Column: 2, Offset: 7}, results[1].Location)
}

func TestParseIgnoresEmailAddresses(t *testing.T) {
	p := newTestParser(t)

	objects, err := p.Parse("Contact admin@example.com for access.\n@Tag", nil)
	require.NoError(t, err)
	assert.Len(t, objects, 1)
}

func TestParseHookErrors(t *testing.T) {
	boom := errors.New("boom")

	registry := NewRegistry()
	registry.MustRegister(Descriptor{
		Name: "Broken",
		QuickCreate: func(*List) (interface{}, error) {
			return nil, boom
		},
	})
	p := NewParser(NewFactory(registry))

	_, err := p.Parse("@Broken", nil)
	require.Error(t, err)
	assert.True(t, errors.Is(err, boom))

	var bindingErr *BindingError
	require.True(t, errors.As(err, &bindingErr))
	assert.Equal(t, ConstructionFailed, bindingErr.Reason)
	assert.Equal(t, 1, bindingErr.Loc.Line)
}

func TestParseConcurrent(t *testing.T) {
	p := newTestParser(t)

	docs := []string{
		"@Tag(a=1)",
		"\n\n@Foo(bar",
		"@Outer(inner=@Inner(x=2))",
		"@Route(path=\"/x\", method=\"PUT\")",
	}

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		doc := docs[i%len(docs)]
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := p.Parse(doc, NewContext(WithSource("concurrent")))
			if doc == docs[1] {
				var malformed *MalformedError
				if assert.True(t, errors.As(err, &malformed)) {
					assert.Equal(t, 3, malformed.Loc.Line)
				}
				return
			}
			assert.NoError(t, err)
		}()
	}
	wg.Wait()
}

func TestValueDispatchContractViolation(t *testing.T) {
	p := newTestParser(t)
	ctx := NewContext()

	assert.Panics(t, func() {
		_, _ = p.value("", ctx, RawMatch{Groups: map[string]Span{}}, 0)
	})
	assert.Panics(t, func() {
		_, _ = p.value("", ctx, RawMatch{Groups: map[string]Span{
			GroupBoolean: {Text: "true"},
			GroupNumber:  {Text: "1"},
		}}, 0)
	})
}

func TestUnescape(t *testing.T) {
	assert.Equal(t, "plain", unescape("plain"))
	assert.Equal(t, `say "hi"`, unescape(`say \"hi\"`))
	assert.Equal(t, `a\b`, unescape(`a\\b`))
	assert.Equal(t, `App\Route`, unescape(`App\Route`))
	assert.Equal(t, `trailing\`, unescape(`trailing\`))
}
