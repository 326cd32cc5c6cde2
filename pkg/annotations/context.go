package annotations

import "strings"

const unknownSource = "unknown source"

// Context carries the per-document inputs of a parse: the alias table, the
// ignore list, a source label and the anchor of the text. A Context is
// read-only once built and may be shared between concurrent parses.
type Context struct {
	resolver *NameResolver
	ignored  map[string]struct{}
	source   string
	anchor   Anchor
}

// ContextOption configures a Context
type ContextOption func(*Context)

// WithAliases sets the ordered alias table
func WithAliases(aliases ...Alias) ContextOption {
	return func(c *Context) {
		c.resolver = NewNameResolver(aliases)
	}
}

// WithIgnored adds names that are skipped silently, compared case-insensitively
func WithIgnored(names ...string) ContextOption {
	return func(c *Context) {
		for _, name := range names {
			c.ignored[strings.ToLower(name)] = struct{}{}
		}
	}
}

// WithSource sets the label used in error messages
func WithSource(source string) ContextOption {
	return func(c *Context) {
		c.source = source
	}
}

// WithAnchor sets the position at which the parsed text starts
func WithAnchor(line, column int) ContextOption {
	return func(c *Context) {
		c.anchor = Anchor{Line: line, Column: column}
	}
}

// NewContext creates a context. Without options it has no aliases, ignores
// nothing and anchors the text at line 1, column 0.
func NewContext(opts ...ContextOption) *Context {
	c := &Context{
		resolver: NewNameResolver(nil),
		ignored:  make(map[string]struct{}),
		anchor:   Anchor{Line: 1},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Source returns the source label
func (c *Context) Source() string {
	if c.source == "" {
		return unknownSource
	}
	return c.source
}

// Anchor returns the anchor of the parsed text
func (c *Context) Anchor() Anchor { return c.anchor }

// Resolver returns the name resolver built from the alias table
func (c *Context) Resolver() *NameResolver { return c.resolver }

// ShouldIgnore checks if name is in the ignore list
func (c *Context) ShouldIgnore(name string) bool {
	_, ignored := c.ignored[strings.ToLower(name)]
	return ignored
}

// Ignored returns the lowercased ignore list
func (c *Context) Ignored() []string {
	names := make([]string, 0, len(c.ignored))
	for name := range c.ignored {
		names = append(names, name)
	}
	return names
}

// ResolveName maps a raw name to its canonical name
func (c *Context) ResolveName(raw string) string {
	return c.resolver.Resolve(raw)
}

// Aliases returns every spelling of a canonical name
func (c *Context) Aliases(canonical string) []string {
	return c.resolver.AliasesOf(canonical)
}

// Location translates an offset of text into a source location
func (c *Context) Location(text string, offset int) SourceLocation {
	line, column := Locate(text, offset, c.anchor)
	return SourceLocation{
		Source: c.Source(),
		Line:   line,
		Column: column,
		Offset: offset,
	}
}
