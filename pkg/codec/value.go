// Package codec converts caller-supplied Go values into the cluster's
// native value representation. UDF arguments cross the wire as a
// heterogeneous list, so every element is kind-tagged to survive the
// round trip without type loss.
package codec

import (
	"encoding/json"
	"math"
	"reflect"

	"github.com/gridstore/client-go/pkg/clienterr"
)

// Kind identifies a native value type.
type Kind string

const (
	KindNil     Kind = "nil"
	KindBoolean Kind = "boolean"
	KindInteger Kind = "integer"
	KindDouble  Kind = "double"
	KindString  Kind = "string"
	KindBytes   Kind = "bytes"
	KindList    Kind = "list"
	KindMap     Kind = "map"
)

// Value is a single value in the cluster's native representation.
type Value interface {
	json.Marshaler

	// Kind returns the native type tag.
	Kind() Kind

	// Native returns the plain Go representation.
	Native() any
}

// envelope is the kind-tagged wire form of a value.
type envelope struct {
	Kind  Kind `json:"kind"`
	Value any  `json:"value"`
}

// NilValue is the native null value.
type NilValue struct{}

func (NilValue) Kind() Kind  { return KindNil }
func (NilValue) Native() any { return nil }

func (NilValue) MarshalJSON() ([]byte, error) {
	return json.Marshal(envelope{Kind: KindNil})
}

// BooleanValue is a native boolean.
type BooleanValue bool

func (v BooleanValue) Kind() Kind  { return KindBoolean }
func (v BooleanValue) Native() any { return bool(v) }

func (v BooleanValue) MarshalJSON() ([]byte, error) {
	return json.Marshal(envelope{Kind: KindBoolean, Value: bool(v)})
}

// IntegerValue is a native 64-bit signed integer.
type IntegerValue int64

func (v IntegerValue) Kind() Kind  { return KindInteger }
func (v IntegerValue) Native() any { return int64(v) }

func (v IntegerValue) MarshalJSON() ([]byte, error) {
	return json.Marshal(envelope{Kind: KindInteger, Value: int64(v)})
}

// DoubleValue is a native double-precision float.
type DoubleValue float64

func (v DoubleValue) Kind() Kind  { return KindDouble }
func (v DoubleValue) Native() any { return float64(v) }

func (v DoubleValue) MarshalJSON() ([]byte, error) {
	return json.Marshal(envelope{Kind: KindDouble, Value: float64(v)})
}

// StringValue is a native string.
type StringValue string

func (v StringValue) Kind() Kind  { return KindString }
func (v StringValue) Native() any { return string(v) }

func (v StringValue) MarshalJSON() ([]byte, error) {
	return json.Marshal(envelope{Kind: KindString, Value: string(v)})
}

// BytesValue is a native byte blob. Encoded as base64 on the wire.
type BytesValue []byte

func (v BytesValue) Kind() Kind  { return KindBytes }
func (v BytesValue) Native() any { return []byte(v) }

func (v BytesValue) MarshalJSON() ([]byte, error) {
	return json.Marshal(envelope{Kind: KindBytes, Value: []byte(v)})
}

// ListValue is a nested native list.
type ListValue List

func (v ListValue) Kind() Kind { return KindList }

func (v ListValue) Native() any {
	out := make([]any, len(v))
	for i, e := range v {
		out[i] = e.Native()
	}
	return out
}

func (v ListValue) MarshalJSON() ([]byte, error) {
	return json.Marshal(envelope{Kind: KindList, Value: List(v)})
}

// MapValue is a native map with string keys.
type MapValue map[string]Value

func (v MapValue) Kind() Kind { return KindMap }

func (v MapValue) Native() any {
	out := make(map[string]any, len(v))
	for k, e := range v {
		out[k] = e.Native()
	}
	return out
}

func (v MapValue) MarshalJSON() ([]byte, error) {
	return json.Marshal(envelope{Kind: KindMap, Value: map[string]Value(v)})
}

// NewValue converts a Go value into its native representation.
// Returns a CONVERSION error when the value's type has no native form.
func NewValue(v any) (Value, error) {
	switch x := v.(type) {
	case nil:
		return NilValue{}, nil
	case Value:
		return x, nil
	case bool:
		return BooleanValue(x), nil
	case int:
		return IntegerValue(x), nil
	case int8:
		return IntegerValue(x), nil
	case int16:
		return IntegerValue(x), nil
	case int32:
		return IntegerValue(x), nil
	case int64:
		return IntegerValue(x), nil
	case uint8:
		return IntegerValue(x), nil
	case uint16:
		return IntegerValue(x), nil
	case uint32:
		return IntegerValue(x), nil
	case uint64:
		if x > math.MaxInt64 {
			return nil, clienterr.Conversionf("uint64 value %d overflows native integer", x)
		}
		return IntegerValue(x), nil
	case uint:
		if uint64(x) > math.MaxInt64 {
			return nil, clienterr.Conversionf("uint value %d overflows native integer", x)
		}
		return IntegerValue(x), nil
	case float32:
		return DoubleValue(x), nil
	case float64:
		return DoubleValue(x), nil
	case string:
		return StringValue(x), nil
	case []byte:
		return BytesValue(x), nil
	case []any:
		return newListValue(x)
	case map[string]any:
		return newMapValue(x)
	}

	return reflectValue(v)
}

func newListValue(in []any) (Value, error) {
	out := make(List, len(in))
	for i, e := range in {
		nv, err := NewValue(e)
		if err != nil {
			return nil, err
		}
		out[i] = nv
	}
	return ListValue(out), nil
}

func newMapValue(in map[string]any) (Value, error) {
	out := make(MapValue, len(in))
	for k, e := range in {
		nv, err := NewValue(e)
		if err != nil {
			return nil, err
		}
		out[k] = nv
	}
	return out, nil
}

// reflectValue handles named types and typed slices/maps the switch in
// NewValue cannot see.
func reflectValue(v any) (Value, error) {
	rv := reflect.ValueOf(v)

	switch rv.Kind() {
	case reflect.Slice, reflect.Array:
		if rv.Kind() == reflect.Slice && rv.Type().Elem().Kind() == reflect.Uint8 {
			return BytesValue(rv.Bytes()), nil
		}
		out := make(List, rv.Len())
		for i := 0; i < rv.Len(); i++ {
			nv, err := NewValue(rv.Index(i).Interface())
			if err != nil {
				return nil, err
			}
			out[i] = nv
		}
		return ListValue(out), nil

	case reflect.Map:
		if rv.Type().Key().Kind() != reflect.String {
			return nil, clienterr.Conversionf("map key type %s has no native representation", rv.Type().Key())
		}
		out := make(MapValue, rv.Len())
		iter := rv.MapRange()
		for iter.Next() {
			nv, err := NewValue(iter.Value().Interface())
			if err != nil {
				return nil, err
			}
			out[iter.Key().String()] = nv
		}
		return out, nil

	case reflect.Bool:
		return BooleanValue(rv.Bool()), nil
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return IntegerValue(rv.Int()), nil
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		if rv.Uint() > math.MaxInt64 {
			return nil, clienterr.Conversionf("unsigned value %d overflows native integer", rv.Uint())
		}
		return IntegerValue(rv.Uint()), nil
	case reflect.Float32, reflect.Float64:
		return DoubleValue(rv.Float()), nil
	case reflect.String:
		return StringValue(rv.String()), nil
	}

	return nil, clienterr.Conversionf("type %T has no native representation", v)
}
