package annotations

import "fmt"

// Anchor is the position of the first byte of a parsed text within its origin
type Anchor struct {
	Line   int // 1-based
	Column int // 0-based
}

// SourceLocation represents the location of an annotation in source code
type SourceLocation struct {
	Source string // human-readable source label
	Line   int    // line number (1-based)
	Column int    // column number (0-based)
	Offset int    // byte offset within the parsed text
}

// String returns a formatted string representation of the location
func (l SourceLocation) String() string {
	if l.Source == "" {
		return fmt.Sprintf("line %d, column %d", l.Line, l.Column)
	}
	return fmt.Sprintf("%s, line %d, column %d", l.Source, l.Line, l.Column)
}

// IsZero reports whether the location was never set
func (l SourceLocation) IsZero() bool {
	return l == SourceLocation{}
}

// Rebase shifts a location computed for a fragment so that it is expressed
// in the coordinates of the enclosing text, where the fragment starts at
// (line, column). The column is only shifted for the fragment's first line.
func (l SourceLocation) Rebase(line, column int) SourceLocation {
	if l.Line <= 1 {
		l.Column += column
	}
	l.Line += line - 1
	return l
}

// Locate translates a byte offset of text into a line and column relative to
// the anchor. Newlines advance the line and reset the column to 0; any other
// byte advances the column.
func Locate(text string, offset int, anchor Anchor) (line, column int) {
	if offset > len(text) {
		offset = len(text)
	}

	line, column = anchor.Line, anchor.Column
	for i := 0; i < offset; i++ {
		if text[i] == '\n' {
			line++
			column = 0
			continue
		}
		column++
	}
	return line, column
}
