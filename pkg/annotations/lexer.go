package annotations

import (
	"strings"

	"github.com/alecthomas/participle/v2/lexer"
)

// listLexer tokenizes member lists and array bodies. Every byte of the input
// is covered by some rule so lexing itself never fails; anything the list
// grammar cannot place ends up as an Invalid token.
var listLexer = lexer.MustSimple([]lexer.SimpleRule{
	{Name: "String", Pattern: `"(\\.|[^"\\])*"`},
	{Name: "Number", Pattern: `(0|[1-9][0-9]*)(\.[0-9]+)?`},
	{Name: "Ident", Pattern: `[a-zA-Z_\x{7f}-\x{10FFFF}][a-zA-Z0-9_\x{7f}-\x{10FFFF}]*`},
	{Name: "Whitespace", Pattern: `\s+`},
	{Name: "Decoration", Pattern: `\*+|//+`},
	{Name: "Punct", Pattern: `[@(){},=\\.]`},
	{Name: "Invalid", Pattern: `.`},
})

var (
	stringToken     = listLexer.Symbols()["String"]
	numberToken     = listLexer.Symbols()["Number"]
	identToken      = listLexer.Symbols()["Ident"]
	whitespaceToken = listLexer.Symbols()["Whitespace"]
	decorationToken = listLexer.Symbols()["Decoration"]
	punctToken      = listLexer.Symbols()["Punct"]
)

type listMode int

const (
	// memberList entries take an optional bare identifier key
	memberList listMode = iota
	// entryList entries take an optional quoted string key
	entryList
)

// MatchMembers splits an argument list into member matches. It returns false
// when the matches do not cover the whole subject.
func MatchMembers(subject string) ([]RawMatch, bool) {
	return matchList(subject, memberList)
}

// MatchEntries splits an array body into entry matches. It returns false
// when the matches do not cover the whole subject.
func MatchEntries(subject string) ([]RawMatch, bool) {
	return matchList(subject, entryList)
}

func matchList(subject string, mode listMode) ([]RawMatch, bool) {
	tokens, ok := significantTokens(subject)
	if !ok {
		return nil, false
	}
	if len(tokens) == 0 {
		return nil, true
	}

	s := &listScanner{subject: subject, tokens: tokens, mode: mode}

	var matches []RawMatch
	consumed := 0
	for !s.done() {
		match, ok := s.entry(consumed)
		if !ok {
			return nil, false
		}
		consumed = match.End()
		matches = append(matches, match)
	}

	if consumed != len(subject) {
		return nil, false
	}

	return matches, true
}

func significantTokens(subject string) ([]lexer.Token, bool) {
	lex, err := listLexer.LexString("", subject)
	if err != nil {
		return nil, false
	}

	all, err := lexer.ConsumeAll(lex)
	if err != nil {
		return nil, false
	}

	tokens := make([]lexer.Token, 0, len(all))
	for _, tok := range all {
		switch tok.Type {
		case lexer.EOF, whitespaceToken, decorationToken:
			continue
		}
		tokens = append(tokens, tok)
	}
	return tokens, true
}

type listScanner struct {
	subject string
	tokens  []lexer.Token
	pos     int
	mode    listMode
}

func (s *listScanner) done() bool {
	return s.pos >= len(s.tokens)
}

func (s *listScanner) peek(ahead int) (lexer.Token, bool) {
	if s.pos+ahead >= len(s.tokens) {
		return lexer.Token{}, false
	}
	return s.tokens[s.pos+ahead], true
}

func (s *listScanner) next() (lexer.Token, bool) {
	tok, ok := s.peek(0)
	if ok {
		s.pos++
	}
	return tok, ok
}

func (s *listScanner) peekPunct(ahead int, value string) bool {
	tok, ok := s.peek(ahead)
	return ok && tok.Type == punctToken && tok.Value == value
}

// entry parses `[key '='] value [',']`. The match starts at start so that the
// filler preceding the entry is accounted for.
func (s *listScanner) entry(start int) (RawMatch, bool) {
	match := RawMatch{Groups: make(map[string]Span)}

	first, _ := s.peek(0)
	switch {
	case s.mode == memberList && first.Type == identToken && s.peekPunct(1, "="):
		match.set(GroupMember, s.subject, first.Pos.Offset, tokenEnd(first))
		s.pos += 2
	case s.mode == entryList && first.Type == stringToken && s.peekPunct(1, "="):
		match.set(GroupKey, s.subject, first.Pos.Offset+1, tokenEnd(first)-1)
		s.pos += 2
	}

	if !s.value(match) {
		return RawMatch{}, false
	}

	end := len(s.subject)
	if s.peekPunct(0, ",") {
		comma, _ := s.next()
		if !s.done() {
			end = tokenEnd(comma)
		}
	} else if !s.done() {
		return RawMatch{}, false
	}

	match.Span = Span{Text: s.subject[start:end], Offset: start}
	return match, true
}

func (s *listScanner) value(match RawMatch) bool {
	tok, ok := s.next()
	if !ok {
		return false
	}

	start := tok.Pos.Offset
	end := tokenEnd(tok)

	switch {
	case tok.Type == stringToken:
		match.set(GroupString, s.subject, start, end)
	case tok.Type == numberToken:
		match.set(GroupNumber, s.subject, start, end)
	case tok.Type == identToken && isBoolLiteral(tok.Value):
		match.set(GroupBoolean, s.subject, start, end)
	case tok.Type == punctToken && tok.Value == "{":
		closing, ok := s.skipBalanced("{", "}")
		if !ok {
			return false
		}
		end = tokenEnd(closing)
		match.set(GroupArray, s.subject, start, end)
	case tok.Type == punctToken && tok.Value == "@":
		end, ok = s.annotation(match, tok)
		if !ok {
			return false
		}
	default:
		return false
	}

	match.set(GroupValue, s.subject, start, end)
	return true
}

// annotation parses a nested marker whose sigil has been consumed and returns
// the end offset of the marker.
func (s *listScanner) annotation(match RawMatch, at lexer.Token) (int, bool) {
	name, ok := s.next()
	if !ok || name.Type != identToken || name.Pos.Offset != tokenEnd(at) {
		return 0, false
	}

	end := tokenEnd(name)
	for {
		sep, ok := s.peek(0)
		if !ok || sep.Type != punctToken || !isNameSeparator(sep.Value[0]) || sep.Pos.Offset != end {
			break
		}
		segment, ok := s.peek(1)
		if !ok || segment.Type != identToken || segment.Pos.Offset != end+1 {
			break
		}
		s.pos += 2
		end = tokenEnd(segment)
	}
	match.set(GroupName, s.subject, name.Pos.Offset, end)

	if s.peekPunct(0, "(") {
		open, _ := s.next()
		closing, ok := s.skipBalanced("(", ")")
		if !ok {
			return 0, false
		}
		match.set(GroupArgs, s.subject, tokenEnd(open), closing.Pos.Offset)
		end = tokenEnd(closing)
	}

	match.set(GroupAnnotation, s.subject, at.Pos.Offset, end)
	return end, true
}

// skipBalanced consumes tokens up to and including the delimiter closing an
// already consumed opening delimiter.
func (s *listScanner) skipBalanced(open, closing string) (lexer.Token, bool) {
	depth := 1
	for {
		tok, ok := s.next()
		if !ok {
			return lexer.Token{}, false
		}
		if tok.Type != punctToken {
			continue
		}
		switch tok.Value {
		case open:
			depth++
		case closing:
			depth--
			if depth == 0 {
				return tok, true
			}
		}
	}
}

func tokenEnd(tok lexer.Token) int {
	return tok.Pos.Offset + len(tok.Value)
}

func isBoolLiteral(s string) bool {
	return strings.EqualFold(s, "true") || strings.EqualFold(s, "false")
}
