package annotations

import (
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegistryRegister(t *testing.T) {
	r := NewRegistry()
	require.NoError(t, r.Register(RecordDescriptor("Route")))

	assert.True(t, r.IsRegistered("Route"))
	assert.True(t, r.IsRegistered("route"))
	assert.False(t, r.IsRegistered("Other"))

	d, ok := r.Lookup("ROUTE")
	require.True(t, ok)
	assert.Equal(t, "Route", d.Name)
	assert.Equal(t, QuickCreateStrategy, d.Strategy())

	err := r.Register(RecordDescriptor("route"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "already registered")
}

func TestRegistryValidation(t *testing.T) {
	construct := func([]Value) (interface{}, error) { return nil, nil }

	tests := []struct {
		name       string
		descriptor Descriptor
		wantErr    string
	}{
		{"empty name", Descriptor{}, "cannot be empty"},
		{"invalid name", Descriptor{Name: "Bad Name"}, "not a valid identifier path"},
		{"params without construct", Descriptor{Name: "A", Params: []Parameter{Required("x")}}, "without a construct function"},
		{"empty parameter name", Descriptor{Name: "A", Construct: construct, Params: []Parameter{{}}}, "empty name"},
		{"duplicate parameter", Descriptor{Name: "A", Construct: construct, Params: []Parameter{Required("x"), Required("x")}}, "declared twice"},
		{"invalid default", Descriptor{Name: "A", Construct: construct, Params: []Parameter{{Name: "x", HasDefault: true}}}, "invalid default"},
		{"non-struct prototype", Descriptor{Name: "A", Prototype: 42}, "must be a struct"},
		{"prototype and fields", Descriptor{Name: "A", Prototype: struct{}{}, Fields: []string{"x"}}, "mutually exclusive"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := NewRegistry().Register(tt.descriptor)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestRegistryMustRegisterPanics(t *testing.T) {
	r := NewRegistry().MustRegister(RecordDescriptor("A"))
	assert.Panics(t, func() { r.MustRegister(RecordDescriptor("A")) })
}

func TestRegistryNames(t *testing.T) {
	r := NewRegistry().MustRegister(
		RecordDescriptor("Zeta"),
		FieldRecordDescriptor("alpha"),
		ConstructorRecordDescriptor("Mid"),
	)
	assert.Equal(t, []string{"Mid", "Zeta", "alpha"}, r.Names())
	assert.Equal(t, 3, r.Len())
}

func TestRegistryConcurrentAccess(t *testing.T) {
	r := NewRegistry()

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(2)
		name := fmt.Sprintf("Type%d", i)
		go func() {
			defer wg.Done()
			assert.NoError(t, r.Register(RecordDescriptor(name)))
		}()
		go func() {
			defer wg.Done()
			_ = r.IsRegistered(name)
			_ = r.Names()
		}()
	}
	wg.Wait()

	assert.Equal(t, 20, r.Len())
}

func TestDescriptorStrategy(t *testing.T) {
	construct := func([]Value) (interface{}, error) { return nil, nil }
	quick := func(*List) (interface{}, error) { return nil, nil }

	assert.Equal(t, QuickCreateStrategy, Descriptor{QuickCreate: quick, Construct: construct}.Strategy())
	assert.Equal(t, ConstructorStrategy, Descriptor{Construct: construct}.Strategy())
	assert.Equal(t, FieldStrategy, Descriptor{Fields: []string{"a"}}.Strategy())
	assert.Equal(t, "constructor", ConstructorStrategy.String())
}

func TestFactoryUnknownName(t *testing.T) {
	f := NewFactory(nil)
	_, err := f.Create("Missing", nil)

	var unknown *UnknownAnnotationError
	require.True(t, errors.As(err, &unknown))
	assert.Equal(t, "annotation @Missing cannot be loaded", err.Error())
}

func TestFactoryDoesNotMutateMembers(t *testing.T) {
	var seen *List
	r := NewRegistry().MustRegister(
		Descriptor{Name: "Quick", QuickCreate: func(members *List) (interface{}, error) {
			seen = members
			return members.Len(), nil
		}},
		ConstructorRecordDescriptor("Ctor", Required("a")),
	)
	f := NewFactory(r)

	members := NewList()
	members.Set("a", Number(1))
	members.Append(String("x"))

	obj, err := f.Create("quick", members)
	require.NoError(t, err)
	assert.Equal(t, 2, obj)
	assert.Same(t, members, seen)

	_, err = f.Create("Ctor", members)
	require.Error(t, err)
	assert.Equal(t, 2, members.Len())
	assert.True(t, members.Has("a"))
}

func TestFactoryBind(t *testing.T) {
	r := NewRegistry().MustRegister(
		ConstructorRecordDescriptor("http.Route", Required("path"), Optional("method", String("GET"))),
	)
	f := NewFactory(r)

	members := NewList()
	members.Set("path", String("/users"))
	obj, err := f.Bind(AnnotationRef{Name: "http.Route", RawName: "web.Route", Members: members, Offset: 4})
	require.NoError(t, err)

	rec, ok := obj.(*Record)
	require.True(t, ok)
	assert.Equal(t, "http.Route", rec.Name)
	assert.Equal(t, "/users", rec.GetString("path"))
	assert.Equal(t, "GET", rec.GetString("method"))

	_, err = f.Bind(AnnotationRef{Name: "web.Route", RawName: "web.Route"})
	var unknown *UnknownAnnotationError
	require.True(t, errors.As(err, &unknown))
	assert.Equal(t, "web.Route", unknown.Name)
}

func TestFactoryIntegerOverflow(t *testing.T) {
	type limits struct{ Max int64 }
	r := NewRegistry().MustRegister(Descriptor{Name: "Limit", Prototype: limits{}})
	f := NewFactory(r)

	members := NewList()
	members.Set("Max", Number(9223372036854775808))
	_, err := f.Create("Limit", members)

	var bindingErr *BindingError
	require.True(t, errors.As(err, &bindingErr))
	assert.Equal(t, InvalidValue, bindingErr.Reason)
}

type bindTarget struct {
	Path    string
	Limit   int `annotation:"max"`
	Tags    []string
	Headers map[string]string
	Secret  string `annotation:"-"`
	Ratio   float32
	Any     interface{}
	Members *List
	Raw     Value
	Flag    bool
	hidden  string
}

func TestFactoryStructBinding(t *testing.T) {
	r := NewRegistry().MustRegister(Descriptor{Name: "Bind", Prototype: bindTarget{Path: "/default"}})
	f := NewFactory(r)

	tags := NewList()
	tags.Append(String("a"))
	tags.Append(String("b"))
	headers := NewList()
	headers.Set("X-Id", String("1"))

	members := NewList()
	members.Set("max", Number(10))
	members.Set("tags", ListOf(tags))
	members.Set("headers", ListOf(headers))
	members.Set("ratio", Number(0.5))
	members.Set("any", String("v"))
	members.Set("members", ListOf(tags))
	members.Set("raw", Bool(true))
	members.Set("FLAG", Bool(true))

	obj, err := f.Create("Bind", members)
	require.NoError(t, err)

	target, ok := obj.(bindTarget)
	require.True(t, ok, "value prototypes produce values, got %T", obj)
	assert.Equal(t, "/default", target.Path)
	assert.Equal(t, 10, target.Limit)
	assert.Equal(t, []string{"a", "b"}, target.Tags)
	assert.Equal(t, map[string]string{"X-Id": "1"}, target.Headers)
	assert.Equal(t, float32(0.5), target.Ratio)
	assert.Equal(t, "v", target.Any)
	assert.Same(t, tags, target.Members)
	assert.Equal(t, Bool(true), target.Raw)
	assert.True(t, target.Flag)

	for _, member := range []string{"limit", "secret", "hidden"} {
		m := NewList()
		m.Set(member, String("x"))
		_, err := f.Create("Bind", m)
		var bindingErr *BindingError
		require.True(t, errors.As(err, &bindingErr), member)
		assert.Equal(t, UnknownMember, bindingErr.Reason, member)
	}

	m := NewList()
	m.Set("max", Number(1.5))
	_, err = f.Create("Bind", m)
	var bindingErr *BindingError
	require.True(t, errors.As(err, &bindingErr))
	assert.Equal(t, InvalidValue, bindingErr.Reason)
	assert.Contains(t, err.Error(), "not an integer")
}
