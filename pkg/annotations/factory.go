package annotations

import (
	"errors"
	"reflect"
)

// Factory binds a canonical name and its members to a constructed object
// using the descriptors of a registry. A Factory holds no per-call state.
type Factory struct {
	registry *Registry
}

// NewFactory creates a factory backed by the given registry
func NewFactory(r *Registry) *Factory {
	if r == nil {
		r = NewRegistry()
	}
	return &Factory{registry: r}
}

// Registry returns the registry backing the factory
func (f *Factory) Registry() *Registry { return f.registry }

// Create builds the object for name. Errors are *UnknownAnnotationError or
// *BindingError without a location; the parser adds it. The members list is
// never modified.
func (f *Factory) Create(name string, members *List) (interface{}, error) {
	d, ok := f.registry.Lookup(name)
	if !ok {
		return nil, &UnknownAnnotationError{Name: name}
	}
	if members == nil {
		members = NewList()
	}

	switch d.Strategy() {
	case QuickCreateStrategy:
		obj, err := d.QuickCreate(members)
		if err != nil {
			return nil, constructionFailed(d, err)
		}
		return obj, nil
	case ConstructorStrategy:
		return f.construct(d, members)
	default:
		if d.Prototype != nil {
			return f.bindStruct(d, members)
		}
		return f.bindRecord(d, members)
	}
}

// Bind builds the object a parsed annotation stands for
func (f *Factory) Bind(ref AnnotationRef) (interface{}, error) {
	return f.Create(ref.Name, ref.Members)
}

func (f *Factory) construct(d Descriptor, members *List) (interface{}, error) {
	working := members.Clone()
	args := make([]Value, len(d.Params))

	for i, p := range d.Params {
		if v, ok := working.Get(p.Name); ok {
			args[i] = v
			working.Delete(p.Name)
			continue
		}
		if p.HasDefault {
			args[i] = p.Default
			continue
		}
		return nil, &BindingError{Annotation: d.Name, Member: p.Name, Reason: MissingArgument}
	}

	if working.Len() > 0 {
		leftover := working.Entries()[0]
		return nil, &BindingError{Annotation: d.Name, Member: leftover.Name(), Reason: UnknownMember}
	}

	obj, err := d.Construct(args)
	if err != nil {
		return nil, constructionFailed(d, err)
	}
	return obj, nil
}

func (f *Factory) bindStruct(d Descriptor, members *List) (interface{}, error) {
	st, err := structType(d.Prototype)
	if err != nil {
		return nil, constructionFailed(d, err)
	}

	// start from the prototype so that its field values act as defaults
	ptr := reflect.New(st)
	proto := reflect.ValueOf(d.Prototype)
	if proto.Kind() == reflect.Ptr {
		if !proto.IsNil() {
			ptr.Elem().Set(proto.Elem())
		}
	} else {
		ptr.Elem().Set(proto)
	}

	for _, e := range members.Entries() {
		if !e.Keyed() {
			return nil, &BindingError{Annotation: d.Name, Member: e.Name(), Reason: PositionalMember}
		}
		idx, ok := fieldIndex(st, e.Key)
		if !ok {
			return nil, &BindingError{Annotation: d.Name, Member: e.Key, Reason: UnknownMember}
		}
		field := ptr.Elem().Field(idx)
		v, err := convertValue(e.Value, field.Type())
		if err != nil {
			return nil, &BindingError{Annotation: d.Name, Member: e.Key, Reason: InvalidValue, Cause: err}
		}
		field.Set(v)
	}

	if proto.Kind() == reflect.Ptr {
		return ptr.Interface(), nil
	}
	return ptr.Elem().Interface(), nil
}

func (f *Factory) bindRecord(d Descriptor, members *List) (interface{}, error) {
	allowed := make(map[string]bool, len(d.Fields))
	for _, name := range d.Fields {
		allowed[name] = true
	}

	bound := NewList()
	for _, e := range members.Entries() {
		if !e.Keyed() {
			return nil, &BindingError{Annotation: d.Name, Member: e.Name(), Reason: PositionalMember}
		}
		if !allowed[e.Key] {
			return nil, &BindingError{Annotation: d.Name, Member: e.Key, Reason: UnknownMember}
		}
		bound.Set(e.Key, e.Value)
	}

	return &Record{Name: d.Name, Members: bound}, nil
}

func constructionFailed(d Descriptor, err error) error {
	var bindingErr *BindingError
	if errors.As(err, &bindingErr) {
		return bindingErr
	}
	return &BindingError{Annotation: d.Name, Reason: ConstructionFailed, Cause: err}
}
