package annotations

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
)

// Kind represents the type of a parsed annotation value
type Kind int

const (
	InvalidKind Kind = iota
	BoolKind
	NumberKind
	StringKind
	ListKind
	ObjectKind
)

// String returns the string representation of the value kind
func (k Kind) String() string {
	switch k {
	case BoolKind:
		return "boolean"
	case NumberKind:
		return "number"
	case StringKind:
		return "string"
	case ListKind:
		return "list"
	case ObjectKind:
		return "annotation"
	default:
		return "invalid"
	}
}

// Value is a parsed annotation value. The zero Value is invalid.
type Value struct {
	kind Kind
	b    bool
	n    float64
	s    string
	l    *List
	obj  interface{}
}

// Bool creates a boolean value
func Bool(b bool) Value { return Value{kind: BoolKind, b: b} }

// Number creates a numeric value
func Number(n float64) Value { return Value{kind: NumberKind, n: n} }

// String creates a string value
func String(s string) Value { return Value{kind: StringKind, s: s} }

// ListOf wraps a list as a value
func ListOf(l *List) Value {
	if l == nil {
		l = NewList()
	}
	return Value{kind: ListKind, l: l}
}

// Object wraps an object constructed by the factory
func Object(obj interface{}) Value { return Value{kind: ObjectKind, obj: obj} }

// Kind returns the kind of the value
func (v Value) Kind() Kind { return v.kind }

// IsValid reports whether the value holds anything
func (v Value) IsValid() bool { return v.kind != InvalidKind }

// AsBool returns the boolean value with optional default
func (v Value) AsBool(defaultValue ...bool) bool {
	if v.kind == BoolKind {
		return v.b
	}
	if len(defaultValue) > 0 {
		return defaultValue[0]
	}
	return false
}

// AsNumber returns the numeric value with optional default
func (v Value) AsNumber(defaultValue ...float64) float64 {
	if v.kind == NumberKind {
		return v.n
	}
	if len(defaultValue) > 0 {
		return defaultValue[0]
	}
	return 0
}

// AsString returns the string value with optional default
func (v Value) AsString(defaultValue ...string) string {
	if v.kind == StringKind {
		return v.s
	}
	if len(defaultValue) > 0 {
		return defaultValue[0]
	}
	return ""
}

// AsList returns the list value, or nil if the value is not a list
func (v Value) AsList() *List {
	if v.kind == ListKind {
		return v.l
	}
	return nil
}

// AsObject returns the constructed annotation object, or nil
func (v Value) AsObject() interface{} {
	if v.kind == ObjectKind {
		return v.obj
	}
	return nil
}

// Interface returns the value as a plain Go value: bool, float64, string,
// *List or the constructed object.
func (v Value) Interface() interface{} {
	switch v.kind {
	case BoolKind:
		return v.b
	case NumberKind:
		return v.n
	case StringKind:
		return v.s
	case ListKind:
		return v.l
	case ObjectKind:
		return v.obj
	default:
		return nil
	}
}

// Equal reports whether two values are structurally equal. Objects are
// compared with ==, so only comparable objects can be equal.
func (v Value) Equal(other Value) bool {
	if v.kind != other.kind {
		return false
	}
	switch v.kind {
	case BoolKind:
		return v.b == other.b
	case NumberKind:
		return v.n == other.n
	case StringKind:
		return v.s == other.s
	case ListKind:
		return v.l.Equal(other.l)
	case ObjectKind:
		return safeEqual(v.obj, other.obj)
	default:
		return true
	}
}

func safeEqual(a, b interface{}) (equal bool) {
	defer func() {
		if recover() != nil {
			equal = false
		}
	}()
	return a == b
}

// String implements fmt.Stringer
func (v Value) String() string {
	switch v.kind {
	case BoolKind:
		return strconv.FormatBool(v.b)
	case NumberKind:
		return strconv.FormatFloat(v.n, 'f', -1, 64)
	case StringKind:
		return strconv.Quote(v.s)
	case ListKind:
		return v.l.String()
	case ObjectKind:
		return fmt.Sprintf("%v", v.obj)
	default:
		return "<invalid>"
	}
}

// MarshalJSON renders the value as JSON
func (v Value) MarshalJSON() ([]byte, error) {
	switch v.kind {
	case ListKind:
		return v.l.MarshalJSON()
	case InvalidKind:
		return []byte("null"), nil
	default:
		return json.Marshal(v.Interface())
	}
}

// Entry is a single list entry. Positional entries have an empty Key and a
// non-negative Index; keyed entries have Index -1.
type Entry struct {
	Key   string
	Index int
	Value Value
}

// Keyed reports whether the entry was given an explicit key
func (e Entry) Keyed() bool { return e.Index < 0 }

// Name returns the key of a keyed entry or the decimal index of a positional one
func (e Entry) Name() string {
	if e.Keyed() {
		return e.Key
	}
	return strconv.Itoa(e.Index)
}

// List is an ordered associative container. Entries keep source order;
// assigning an existing key replaces its value in place.
type List struct {
	entries []Entry
	keys    map[string]int
	next    int
}

// NewList creates an empty list
func NewList() *List {
	return &List{keys: make(map[string]int)}
}

// Append adds a positional entry and returns its index
func (l *List) Append(v Value) int {
	index := l.next
	l.entries = append(l.entries, Entry{Index: index, Value: v})
	l.next++
	return index
}

// Set assigns a keyed entry
func (l *List) Set(key string, v Value) {
	if l.keys == nil {
		l.keys = make(map[string]int)
	}
	if pos, exists := l.keys[key]; exists {
		l.entries[pos].Value = v
		return
	}
	l.keys[key] = len(l.entries)
	l.entries = append(l.entries, Entry{Key: key, Index: -1, Value: v})
}

// Get returns the value stored under key
func (l *List) Get(key string) (Value, bool) {
	if l == nil {
		return Value{}, false
	}
	pos, exists := l.keys[key]
	if !exists {
		return Value{}, false
	}
	return l.entries[pos].Value, true
}

// Has checks if a key exists
func (l *List) Has(key string) bool {
	_, exists := l.Get(key)
	return exists
}

// At returns the positional entry with the given index
func (l *List) At(index int) (Value, bool) {
	if l == nil {
		return Value{}, false
	}
	for _, e := range l.entries {
		if !e.Keyed() && e.Index == index {
			return e.Value, true
		}
	}
	return Value{}, false
}

// Delete removes a keyed entry
func (l *List) Delete(key string) bool {
	pos, exists := l.keys[key]
	if !exists {
		return false
	}
	l.removeAt(pos)
	return true
}

func (l *List) removeAt(pos int) {
	l.entries = append(l.entries[:pos], l.entries[pos+1:]...)
	l.keys = make(map[string]int, len(l.keys))
	for i, e := range l.entries {
		if e.Keyed() {
			l.keys[e.Key] = i
		}
	}
}

// Len returns the number of entries
func (l *List) Len() int {
	if l == nil {
		return 0
	}
	return len(l.entries)
}

// Entries returns a copy of the entries in source order
func (l *List) Entries() []Entry {
	if l == nil {
		return nil
	}
	out := make([]Entry, len(l.entries))
	copy(out, l.entries)
	return out
}

// Keys returns the explicit keys in source order
func (l *List) Keys() []string {
	if l == nil {
		return nil
	}
	keys := make([]string, 0, len(l.keys))
	for _, e := range l.entries {
		if e.Keyed() {
			keys = append(keys, e.Key)
		}
	}
	return keys
}

// Values returns the entry values in source order
func (l *List) Values() []Value {
	if l == nil {
		return nil
	}
	values := make([]Value, len(l.entries))
	for i, e := range l.entries {
		values[i] = e.Value
	}
	return values
}

// Clone returns a shallow copy of the list
func (l *List) Clone() *List {
	c := NewList()
	if l == nil {
		return c
	}
	c.entries = l.Entries()
	for k, v := range l.keys {
		c.keys[k] = v
	}
	c.next = l.next
	return c
}

// Equal reports whether two lists hold the same entries in the same order
func (l *List) Equal(other *List) bool {
	if l.Len() != other.Len() {
		return false
	}
	for i := 0; i < l.Len(); i++ {
		a, b := l.entries[i], other.entries[i]
		if a.Key != b.Key || a.Index != b.Index || !a.Value.Equal(b.Value) {
			return false
		}
	}
	return true
}

// String implements fmt.Stringer
func (l *List) String() string {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, e := range l.Entries() {
		if i > 0 {
			buf.WriteString(", ")
		}
		if e.Keyed() {
			buf.WriteString(strconv.Quote(e.Key))
			buf.WriteByte('=')
		}
		buf.WriteString(e.Value.String())
	}
	buf.WriteByte('}')
	return buf.String()
}

// MarshalJSON renders a list with only positional entries as a JSON array and
// any other list as an object whose keys keep source order.
func (l *List) MarshalJSON() ([]byte, error) {
	if l == nil {
		return []byte("[]"), nil
	}
	if len(l.keys) == 0 {
		return json.Marshal(l.Values())
	}

	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, e := range l.entries {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(e.Name())
		if err != nil {
			return nil, err
		}
		buf.Write(key)
		buf.WriteByte(':')
		value, err := e.Value.MarshalJSON()
		if err != nil {
			return nil, err
		}
		buf.Write(value)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// AnnotationRef is a parsed annotation that has not been bound to an object yet
type AnnotationRef struct {
	Name    string // canonical name
	RawName string // name as written in the text
	Members *List
	Offset  int // absolute offset of the '@' sigil
}
