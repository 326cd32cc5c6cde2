package annotations

import (
	"encoding/json"
)

// Record is a generic annotation object: the canonical name plus the bound
// members. It is produced for types declared without a Go representation,
// e.g. types declared in configuration.
type Record struct {
	Name    string
	Members *List
}

// Get returns the member stored under key
func (r *Record) Get(key string) (Value, bool) {
	return r.Members.Get(key)
}

// GetString returns a string member with optional default
func (r *Record) GetString(key string, defaultValue ...string) string {
	v, _ := r.Get(key)
	return v.AsString(defaultValue...)
}

// GetNumber returns a numeric member with optional default
func (r *Record) GetNumber(key string, defaultValue ...float64) float64 {
	v, _ := r.Get(key)
	return v.AsNumber(defaultValue...)
}

// GetBool returns a boolean member with optional default
func (r *Record) GetBool(key string, defaultValue ...bool) bool {
	v, _ := r.Get(key)
	return v.AsBool(defaultValue...)
}

// String implements fmt.Stringer
func (r *Record) String() string {
	return "@" + r.Name + "(" + trimBraces(r.Members.String()) + ")"
}

func trimBraces(s string) string {
	if len(s) >= 2 {
		return s[1 : len(s)-1]
	}
	return s
}

// MarshalJSON renders the record as {"name": ..., "members": ...}
func (r *Record) MarshalJSON() ([]byte, error) {
	members := r.Members
	if members == nil {
		members = NewList()
	}
	return json.Marshal(struct {
		Name    string `json:"name"`
		Members *List  `json:"members"`
	}{r.Name, members})
}

// RecordDescriptor declares a type whose quick-create hook stores the member
// list as is
func RecordDescriptor(name string) Descriptor {
	return Descriptor{
		Name: name,
		QuickCreate: func(members *List) (interface{}, error) {
			return &Record{Name: name, Members: members.Clone()}, nil
		},
	}
}

// ConstructorRecordDescriptor declares a type bound through constructor
// parameters; the record holds one member per parameter.
func ConstructorRecordDescriptor(name string, params ...Parameter) Descriptor {
	names := make([]string, len(params))
	for i, p := range params {
		names[i] = p.Name
	}

	return Descriptor{
		Name:   name,
		Params: params,
		Construct: func(args []Value) (interface{}, error) {
			members := NewList()
			for i, arg := range args {
				members.Set(names[i], arg)
			}
			return &Record{Name: name, Members: members}, nil
		},
	}
}

// FieldRecordDescriptor declares a map-like type that accepts only the
// given member names
func FieldRecordDescriptor(name string, fields ...string) Descriptor {
	if fields == nil {
		fields = []string{}
	}
	return Descriptor{Name: name, Fields: fields}
}
