package annotations

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// Parser turns annotation markers found in documentation text into
// constructed objects. A Parser has no per-call state: the absolute offset
// of every nested subject is passed down explicitly, so one Parser may serve
// concurrent parses.
type Parser struct {
	factory *Factory
}

// Result is a parsed top-level annotation together with where it was found
type Result struct {
	Name     string         // canonical name
	RawName  string         // name as written
	Object   interface{}    // object built by the factory
	Location SourceLocation // location of the '@' sigil
}

// NewParser creates a parser that builds objects with the given factory
func NewParser(factory *Factory) *Parser {
	if factory == nil {
		factory = NewFactory(nil)
	}
	return &Parser{factory: factory}
}

// Factory returns the factory used by the parser
func (p *Parser) Factory() *Factory { return p.factory }

// Parse returns one object per non-ignored annotation of doc, in document
// order. The first error aborts the parse.
func (p *Parser) Parse(doc string, ctx *Context) ([]interface{}, error) {
	results, err := p.ParseResults(doc, ctx, "")
	if err != nil {
		return nil, err
	}
	return objects(results), nil
}

// ParseNamed is like Parse but only considers annotations of the given type,
// written under its canonical name or any of its aliases.
func (p *Parser) ParseNamed(doc, name string, ctx *Context) ([]interface{}, error) {
	results, err := p.ParseResults(doc, ctx, name)
	if err != nil {
		return nil, err
	}
	return objects(results), nil
}

// ParseResults parses doc and returns the results with their names and
// locations. An empty filter accepts every annotation.
func (p *Parser) ParseResults(doc string, ctx *Context, filter string) ([]Result, error) {
	if ctx == nil {
		ctx = NewContext()
	}

	pattern := AnyName()
	if filter != "" {
		pattern = NameAlternation(ctx.Aliases(filter)...)
	}

	var results []Result
	for _, m := range MatchAnnotations(doc, pattern) {
		raw := m.Groups[GroupName].Text
		name := ctx.ResolveName(raw)
		if ctx.ShouldIgnore(raw) || ctx.ShouldIgnore(name) {
			continue
		}

		if m.Has(GroupMalformed) || m.Has(GroupUnsupported) {
			return nil, withHint(&MalformedError{Name: raw, Loc: ctx.Location(doc, m.Offset)})
		}

		args, hasArgs := m.Group(GroupArgs)
		obj, err := p.annotation(doc, ctx, raw, args.Text, hasArgs, args.Offset, m.Offset)
		if err != nil {
			return nil, err
		}

		results = append(results, Result{
			Name:     name,
			RawName:  raw,
			Object:   obj,
			Location: ctx.Location(doc, m.Offset),
		})
	}

	return results, nil
}

// annotation parses the members of a marker and builds its object. argsBase
// is the absolute offset of the argument text and at that of the sigil.
func (p *Parser) annotation(doc string, ctx *Context, raw, args string, hasArgs bool, argsBase, at int) (interface{}, error) {
	ref := AnnotationRef{
		Name:    ctx.ResolveName(raw),
		RawName: raw,
		Members: NewList(),
		Offset:  at,
	}
	if hasArgs {
		var err error
		if ref.Members, err = p.list(doc, ctx, args, argsBase, memberList); err != nil {
			return nil, err
		}
	}

	obj, err := p.factory.Bind(ref)
	if err != nil {
		return nil, locate(err, ref.RawName, ctx.Location(doc, ref.Offset))
	}
	return obj, nil
}

// list parses a member list or an array body starting at absolute offset base
func (p *Parser) list(doc string, ctx *Context, subject string, base int, mode listMode) (*List, error) {
	matches, ok := matchList(subject, mode)
	if !ok {
		return nil, withHint(&MalformedError{Loc: ctx.Location(doc, base)})
	}

	list := NewList()
	for _, m := range matches {
		v, err := p.value(doc, ctx, m, base)
		if err != nil {
			return nil, err
		}

		if key, ok := m.Group(GroupMember); ok {
			list.Set(key.Text, v)
		} else if key, ok := m.Group(GroupKey); ok {
			list.Set(unescape(key.Text), v)
		} else {
			list.Append(v)
		}
	}
	return list, nil
}

// value converts the value groups of a list match; base is the absolute
// offset of the subject the match was taken from.
func (p *Parser) value(doc string, ctx *Context, m RawMatch, base int) (Value, error) {
	var group string
	for _, g := range valueGroups {
		if !m.Has(g) {
			continue
		}
		if group != "" {
			panic(fmt.Sprintf("annotations: value %q populates both %s and %s", m.Text, group, g))
		}
		group = g
	}

	span := m.Groups[group]
	switch group {
	case GroupBoolean:
		return Bool(strings.EqualFold(span.Text, "true")), nil
	case GroupNumber:
		n, err := strconv.ParseFloat(span.Text, 64)
		if err != nil {
			return Value{}, withHint(&MalformedError{Loc: ctx.Location(doc, base+span.Offset)})
		}
		return Number(n), nil
	case GroupString:
		return String(unescape(span.Text[1 : len(span.Text)-1])), nil
	case GroupArray:
		list, err := p.list(doc, ctx, span.Text[1:len(span.Text)-1], base+span.Offset+1, entryList)
		if err != nil {
			return Value{}, err
		}
		return ListOf(list), nil
	case GroupAnnotation:
		args, hasArgs := m.Group(GroupArgs)
		obj, err := p.annotation(doc, ctx, m.Groups[GroupName].Text, args.Text, hasArgs, base+args.Offset, base+span.Offset)
		if err != nil {
			return Value{}, err
		}
		return Object(obj), nil
	default:
		panic(fmt.Sprintf("annotations: value %q populates no value group", m.Text))
	}
}

// locate attaches a location and a suggestion to a factory error. Errors are
// copied so that errors returned by user hooks are never modified.
func locate(err error, raw string, loc SourceLocation) error {
	var unknown *UnknownAnnotationError
	if errors.As(err, &unknown) {
		e := *unknown
		e.RawName, e.Loc = raw, loc
		return withHint(&e)
	}

	var binding *BindingError
	if errors.As(err, &binding) {
		e := *binding
		e.Loc = loc
		return withHint(&e)
	}

	return err
}

func withHint[E AnnotationError](err E) E {
	switch e := any(err).(type) {
	case *MalformedError:
		e.Hint = generateSuggestion(e)
	case *UnknownAnnotationError:
		e.Hint = generateSuggestion(e)
	case *BindingError:
		if e.Hint == "" {
			e.Hint = generateSuggestion(e)
		}
	}
	return err
}

// unescape resolves \" and \\; any other backslash is kept as written
func unescape(s string) string {
	if !strings.Contains(s, `\`) {
		return s
	}

	var b strings.Builder
	b.Grow(len(s))
	for i := 0; i < len(s); i++ {
		if s[i] == '\\' && i+1 < len(s) && (s[i+1] == '"' || s[i+1] == '\\') {
			i++
		}
		b.WriteByte(s[i])
	}
	return b.String()
}

func objects(results []Result) []interface{} {
	out := make([]interface{}, len(results))
	for i, r := range results {
		out[i] = r.Object
	}
	return out
}
