package annotations

import (
	"fmt"
	"math"
	"reflect"
	"strconv"
)

var (
	valueType = reflect.TypeOf(Value{})
	listType  = reflect.TypeOf((*List)(nil))
)

// ConvertToInt converts a number without fractional part to an integer
func ConvertToInt(v Value) (int64, error) {
	switch v.Kind() {
	case NumberKind:
		// 2^63 is the first float64 above MaxInt64
		if v.n != math.Trunc(v.n) || v.n >= 1<<63 || v.n < math.MinInt64 {
			return 0, fmt.Errorf("number %s is not an integer", v.String())
		}
		return int64(v.n), nil
	case StringKind:
		n, err := strconv.ParseInt(v.s, 10, 64)
		if err != nil {
			return 0, fmt.Errorf("invalid integer string: %s", v.s)
		}
		return n, nil
	default:
		return 0, fmt.Errorf("cannot convert %s to int", v.Kind())
	}
}

// convertValue converts a parsed value into a Go value of type t
func convertValue(v Value, t reflect.Type) (reflect.Value, error) {
	switch t {
	case valueType:
		return reflect.ValueOf(v), nil
	case listType:
		if v.Kind() != ListKind {
			return reflect.Value{}, fmt.Errorf("expected list, got %s", v.Kind())
		}
		return reflect.ValueOf(v.l), nil
	}

	if v.Kind() == ObjectKind {
		if v.obj == nil {
			return reflect.Zero(t), nil
		}
		ov := reflect.ValueOf(v.obj)
		if ov.Type().AssignableTo(t) {
			return ov, nil
		}
		if ov.Kind() == reflect.Ptr && ov.Elem().Type().AssignableTo(t) {
			return ov.Elem(), nil
		}
		return reflect.Value{}, fmt.Errorf("cannot assign %T to %s", v.obj, t)
	}

	out := reflect.New(t).Elem()
	switch t.Kind() {
	case reflect.Bool:
		if v.Kind() != BoolKind {
			return reflect.Value{}, fmt.Errorf("expected boolean, got %s", v.Kind())
		}
		out.SetBool(v.b)
	case reflect.String:
		if v.Kind() != StringKind {
			return reflect.Value{}, fmt.Errorf("expected string, got %s", v.Kind())
		}
		out.SetString(v.s)
	case reflect.Float32, reflect.Float64:
		if v.Kind() != NumberKind {
			return reflect.Value{}, fmt.Errorf("expected number, got %s", v.Kind())
		}
		out.SetFloat(v.n)
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		if v.Kind() != NumberKind {
			return reflect.Value{}, fmt.Errorf("expected number, got %s", v.Kind())
		}
		n, err := ConvertToInt(v)
		if err != nil {
			return reflect.Value{}, err
		}
		if out.OverflowInt(n) {
			return reflect.Value{}, fmt.Errorf("number %d overflows %s", n, t)
		}
		out.SetInt(n)
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		if v.Kind() != NumberKind {
			return reflect.Value{}, fmt.Errorf("expected number, got %s", v.Kind())
		}
		n, err := ConvertToInt(v)
		if err != nil {
			return reflect.Value{}, err
		}
		if n < 0 || out.OverflowUint(uint64(n)) {
			return reflect.Value{}, fmt.Errorf("number %d overflows %s", n, t)
		}
		out.SetUint(uint64(n))
	case reflect.Slice:
		if v.Kind() != ListKind {
			return reflect.Value{}, fmt.Errorf("expected list, got %s", v.Kind())
		}
		values := v.l.Values()
		slice := reflect.MakeSlice(t, 0, len(values))
		for i, item := range values {
			elem, err := convertValue(item, t.Elem())
			if err != nil {
				return reflect.Value{}, fmt.Errorf("entry %d: %w", i, err)
			}
			slice = reflect.Append(slice, elem)
		}
		out.Set(slice)
	case reflect.Map:
		if v.Kind() != ListKind || t.Key().Kind() != reflect.String {
			return reflect.Value{}, fmt.Errorf("cannot convert %s to %s", v.Kind(), t)
		}
		m := reflect.MakeMapWithSize(t, v.l.Len())
		for _, e := range v.l.Entries() {
			elem, err := convertValue(e.Value, t.Elem())
			if err != nil {
				return reflect.Value{}, fmt.Errorf("entry %s: %w", e.Name(), err)
			}
			m.SetMapIndex(reflect.ValueOf(e.Name()).Convert(t.Key()), elem)
		}
		out.Set(m)
	case reflect.Interface:
		if !v.IsValid() {
			return out, nil
		}
		iv := reflect.ValueOf(v.Interface())
		if !iv.Type().AssignableTo(t) {
			return reflect.Value{}, fmt.Errorf("cannot assign %s to %s", v.Kind(), t)
		}
		out.Set(iv)
	default:
		return reflect.Value{}, fmt.Errorf("unsupported field type %s", t)
	}

	return out, nil
}
