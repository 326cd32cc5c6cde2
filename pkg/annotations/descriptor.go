package annotations

import (
	"fmt"
	"reflect"
	"strings"
)

// QuickCreateFunc builds an object from the complete member list
type QuickCreateFunc func(members *List) (interface{}, error)

// ConstructFunc builds an object from bound constructor arguments, given in
// parameter declaration order
type ConstructFunc func(args []Value) (interface{}, error)

// Parameter declares one constructor parameter
type Parameter struct {
	Name       string
	HasDefault bool
	Default    Value
}

// Required declares a constructor parameter without a default
func Required(name string) Parameter {
	return Parameter{Name: name}
}

// Optional declares a constructor parameter with a default
func Optional(name string, def Value) Parameter {
	return Parameter{Name: name, HasDefault: true, Default: def}
}

// Strategy is the binding strategy chosen for a descriptor
type Strategy int

const (
	QuickCreateStrategy Strategy = iota
	ConstructorStrategy
	FieldStrategy
)

// String returns the string representation of the strategy
func (s Strategy) String() string {
	switch s {
	case QuickCreateStrategy:
		return "quick"
	case ConstructorStrategy:
		return "constructor"
	case FieldStrategy:
		return "fields"
	default:
		return "unknown"
	}
}

// Descriptor declares the shape of an annotation type. The strategy is picked
// by precedence: QuickCreate, then Construct with Params, then field binding
// onto Prototype (a struct or pointer to struct) or, without a prototype,
// onto a *Record restricted to Fields.
type Descriptor struct {
	Name        string
	Description string

	QuickCreate QuickCreateFunc

	Params    []Parameter
	Construct ConstructFunc

	Prototype interface{}
	Fields    []string
}

// Strategy returns the binding strategy of the descriptor
func (d Descriptor) Strategy() Strategy {
	switch {
	case d.QuickCreate != nil:
		return QuickCreateStrategy
	case d.Construct != nil:
		return ConstructorStrategy
	default:
		return FieldStrategy
	}
}

// validate checks the descriptor for internal consistency
func (d Descriptor) validate() error {
	if d.Name == "" {
		return fmt.Errorf("annotation name cannot be empty")
	}
	if end := scanName(d.Name, 0); end != len(d.Name) {
		return fmt.Errorf("annotation name %q is not a valid identifier path", d.Name)
	}

	if d.Construct == nil && len(d.Params) > 0 {
		return fmt.Errorf("parameters declared without a construct function")
	}

	seen := make(map[string]bool, len(d.Params))
	for i, p := range d.Params {
		if p.Name == "" {
			return fmt.Errorf("parameter %d has an empty name", i)
		}
		if seen[p.Name] {
			return fmt.Errorf("parameter %s is declared twice", p.Name)
		}
		seen[p.Name] = true
		if p.HasDefault && !p.Default.IsValid() {
			return fmt.Errorf("parameter %s has an invalid default value", p.Name)
		}
	}

	if d.Prototype != nil {
		if len(d.Fields) > 0 {
			return fmt.Errorf("prototype and field list are mutually exclusive")
		}
		if _, err := structType(d.Prototype); err != nil {
			return err
		}
	}

	return nil
}

// structType returns the struct type behind a prototype
func structType(prototype interface{}) (reflect.Type, error) {
	t := reflect.TypeOf(prototype)
	if t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	if t.Kind() != reflect.Struct {
		return nil, fmt.Errorf("prototype must be a struct or a pointer to struct, got %T", prototype)
	}
	return t, nil
}

// fieldIndex finds the struct field bound to a member name. A field tagged
// `annotation:"name"` matches name exactly; untagged exported fields match
// case-insensitively. Fields tagged "-" are never bound.
func fieldIndex(t reflect.Type, member string) (int, bool) {
	fallback := -1
	for i := 0; i < t.NumField(); i++ {
		f := t.Field(i)
		if !f.IsExported() {
			continue
		}
		tag, tagged := f.Tag.Lookup("annotation")
		if tagged {
			if tag == "-" {
				continue
			}
			if tag == member {
				return i, true
			}
			continue
		}
		if fallback < 0 && strings.EqualFold(f.Name, member) {
			fallback = i
		}
	}
	return fallback, fallback >= 0
}
