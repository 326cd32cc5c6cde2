package annotations

// Named sub-spans of a RawMatch
const (
	GroupAnnotation  = "annotation"
	GroupName        = "name"
	GroupArgs        = "args"
	GroupMalformed   = "malformed"
	GroupUnsupported = "unsupported"
	GroupMember      = "member"
	GroupKey         = "key"
	GroupValue       = "value"
	GroupBoolean     = "boolean"
	GroupNumber      = "number"
	GroupString      = "string"
	GroupArray       = "array"
)

// valueGroups lists the groups that carry a value, in dispatch order
var valueGroups = []string{GroupBoolean, GroupNumber, GroupString, GroupArray, GroupAnnotation}

// Span is a piece of a subject text with its byte offset within that subject
type Span struct {
	Text   string
	Offset int
}

// End returns the offset just past the span
func (s Span) End() int { return s.Offset + len(s.Text) }

// RawMatch is a captured span plus named sub-spans. All offsets are relative
// to the subject passed to the match call that produced it.
type RawMatch struct {
	Span
	Groups map[string]Span
}

func newRawMatch(subject string, start, end int) RawMatch {
	return RawMatch{
		Span:   Span{Text: subject[start:end], Offset: start},
		Groups: make(map[string]Span),
	}
}

func (m RawMatch) set(name, subject string, start, end int) {
	m.Groups[name] = Span{Text: subject[start:end], Offset: start}
}

// Group returns the named sub-span
func (m RawMatch) Group(name string) (Span, bool) {
	span, ok := m.Groups[name]
	return span, ok
}

// Has checks if the named sub-span was captured
func (m RawMatch) Has(name string) bool {
	_, ok := m.Groups[name]
	return ok
}
