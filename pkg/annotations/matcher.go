package annotations

import (
	"strings"
)

// NamePattern selects which annotation names the matcher accepts. The zero
// value accepts nothing; use AnyName or NameAlternation.
type NamePattern struct {
	any   bool
	names map[string]struct{}
}

// AnyName accepts every syntactically valid identifier path
func AnyName() NamePattern {
	return NamePattern{any: true}
}

// NameAlternation accepts only the given names, compared case-insensitively
func NameAlternation(names ...string) NamePattern {
	p := NamePattern{names: make(map[string]struct{}, len(names))}
	for _, name := range names {
		p.names[strings.ToLower(name)] = struct{}{}
	}
	return p
}

// Match reports whether name is accepted by the pattern
func (p NamePattern) Match(name string) bool {
	if p.any {
		return true
	}
	_, ok := p.names[strings.ToLower(name)]
	return ok
}

// MatchAnnotations locates the top-level annotation markers of subject in
// document order. Each match carries the "annotation" and "name" groups and
// exactly one of "args" (balanced argument list), "malformed" (unbalanced
// opening parenthesis) or "unsupported" (trailing text on the marker line);
// a match with none of them is a marker without arguments.
func MatchAnnotations(subject string, pattern NamePattern) []RawMatch {
	var matches []RawMatch

	for i := 0; i < len(subject); {
		at := strings.IndexByte(subject[i:], '@')
		if at < 0 {
			break
		}
		at += i

		// e-mail addresses and similar are not markers
		if at > 0 && isIdentPart(subject[at-1]) {
			i = at + 1
			continue
		}

		nameEnd := scanName(subject, at+1)
		if nameEnd == at+1 {
			i = at + 1
			continue
		}

		name := subject[at+1 : nameEnd]
		if !pattern.Match(name) {
			i = nameEnd
			continue
		}

		match, next := matchMarker(subject, at, nameEnd)
		match.set(GroupName, subject, at+1, nameEnd)
		matches = append(matches, match)
		i = next
	}

	return matches
}

// matchMarker classifies what follows the marker name and returns the match
// together with the offset at which scanning resumes.
func matchMarker(subject string, at, nameEnd int) (RawMatch, int) {
	open := skipFiller(subject, nameEnd)
	if open < len(subject) && subject[open] == '(' {
		closing, ok := scanBalanced(subject, open)
		if !ok {
			match := newRawMatch(subject, at, nameEnd)
			match.set(GroupAnnotation, subject, at, nameEnd)
			match.set(GroupMalformed, subject, open, len(subject))
			return match, nameEnd
		}

		match := newRawMatch(subject, at, closing+1)
		match.set(GroupAnnotation, subject, at, closing+1)
		match.set(GroupArgs, subject, open+1, closing)
		return match, closing + 1
	}

	match := newRawMatch(subject, at, nameEnd)
	match.set(GroupAnnotation, subject, at, nameEnd)

	lineEnd := strings.IndexByte(subject[nameEnd:], '\n')
	if lineEnd < 0 {
		lineEnd = len(subject)
	} else {
		lineEnd += nameEnd
	}
	if hasTrailingContent(subject[nameEnd:lineEnd]) {
		match.set(GroupUnsupported, subject, nameEnd, lineEnd)
	}

	return match, nameEnd
}

// hasTrailingContent reports whether the rest of a marker line holds anything
// other than blanks and a closing block comment.
func hasTrailingContent(rest string) bool {
	rest = strings.TrimRight(rest, " \t\r")
	rest = strings.TrimSuffix(rest, "*/")
	return strings.TrimSpace(rest) != ""
}

// scanName consumes an identifier path starting at i and returns its end.
// Segments are separated by '\' or '.'; a separator not followed by an
// identifier is left unconsumed.
func scanName(s string, i int) int {
	if i >= len(s) || !isIdentStart(s[i]) {
		return i
	}

	j := i + 1
	for {
		for j < len(s) && isIdentPart(s[j]) {
			j++
		}
		if j+1 < len(s) && isNameSeparator(s[j]) && isIdentStart(s[j+1]) {
			j += 2
			continue
		}
		return j
	}
}

// scanBalanced returns the index of the parenthesis closing the one at open.
// Parentheses inside double-quoted strings are ignored.
func scanBalanced(s string, open int) (int, bool) {
	depth := 0
	inString := false

	for i := open; i < len(s); i++ {
		c := s[i]
		if inString {
			switch c {
			case '\\':
				i++
			case '"':
				inString = false
			}
			continue
		}

		switch c {
		case '"':
			inString = true
		case '(':
			depth++
		case ')':
			depth--
			if depth == 0 {
				return i, true
			}
		}
	}

	return -1, false
}

// skipFiller skips whitespace and comment decoration ('*' and "//")
func skipFiller(s string, i int) int {
	for i < len(s) {
		switch c := s[i]; {
		case isSpace(c) || c == '*':
			i++
		case c == '/' && i+1 < len(s) && s[i+1] == '/':
			i += 2
		default:
			return i
		}
	}
	return i
}

func isIdentStart(c byte) bool {
	return c == '_' || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') || c >= 0x7f
}

func isIdentPart(c byte) bool {
	return isIdentStart(c) || (c >= '0' && c <= '9')
}

func isNameSeparator(c byte) bool {
	return c == '\\' || c == '.'
}

func isSpace(c byte) bool {
	switch c {
	case ' ', '\t', '\n', '\r', '\f', '\v':
		return true
	}
	return false
}
