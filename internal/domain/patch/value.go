// Package patch holds the partial-update document model: a tagged value that
// keeps "absent" distinct from "present but empty", plus the coercion rules
// shared by every decoder.
package patch

import (
	"bytes"
	"encoding/json"
	"errors"
	"math"
)

// ErrNotObject is returned when a document's top level is not a JSON object.
var ErrNotObject = errors.New("patch: document is not an object")

type Kind uint8

const (
	KindAbsent Kind = iota
	KindNull
	KindBool
	KindNumber
	KindString
	KindArray
	KindObject
)

// Value is one field of a patch document.
type Value struct {
	raw     any
	present bool
}

// Absent returns the value of a missing key.
func Absent() Value {
	return Value{}
}

// Of wraps a decoded JSON value or a Go literal.
func Of(raw any) Value {
	return Value{raw: raw, present: true}
}

func (v Value) IsAbsent() bool {
	return !v.present
}

func (v Value) Raw() any {
	return v.raw
}

func (v Value) Kind() Kind {
	if !v.present {
		return KindAbsent
	}
	switch v.raw.(type) {
	case nil:
		return KindNull
	case bool:
		return KindBool
	case json.Number, float64, float32, int, int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64:
		return KindNumber
	case string:
		return KindString
	case []any:
		return KindArray
	case map[string]any, Object:
		return KindObject
	}
	return KindNull
}

// Int returns the value as an integer. Only integral numbers qualify.
func (v Value) Int() (int64, bool) {
	switch n := v.raw.(type) {
	case json.Number:
		if i, err := n.Int64(); err == nil {
			return i, true
		}
		f, err := n.Float64()
		if err != nil {
			return 0, false
		}
		return floatToInt(f)
	case float64:
		return floatToInt(n)
	case float32:
		return floatToInt(float64(n))
	case int:
		return int64(n), true
	case int8:
		return int64(n), true
	case int16:
		return int64(n), true
	case int32:
		return int64(n), true
	case int64:
		return n, true
	case uint:
		return int64(n), true
	case uint8:
		return int64(n), true
	case uint16:
		return int64(n), true
	case uint32:
		return int64(n), true
	case uint64:
		if n > math.MaxInt64 {
			return 0, false
		}
		return int64(n), true
	}
	return 0, false
}

func floatToInt(f float64) (int64, bool) {
	if f != math.Trunc(f) || f > math.MaxInt64 || f < math.MinInt64 {
		return 0, false
	}
	return int64(f), true
}

func (v Value) Bool() (bool, bool) {
	b, ok := v.raw.(bool)
	return b, ok
}

func (v Value) Text() (string, bool) {
	s, ok := v.raw.(string)
	return s, ok
}

func (v Value) Array() (Array, bool) {
	a, ok := v.raw.([]any)
	return Array(a), ok
}

func (v Value) Object() (Object, bool) {
	switch o := v.raw.(type) {
	case map[string]any:
		return Object(o), true
	case Object:
		return o, true
	}
	return nil, false
}

// Truthy follows JSON-variant truthiness: false, null, zero and absent are
// falsy, any string, array or object is truthy.
func (v Value) Truthy() bool {
	switch v.Kind() {
	case KindBool:
		b, _ := v.Bool()
		return b
	case KindNumber:
		if i, ok := v.Int(); ok {
			return i != 0
		}
		return true
	case KindString, KindArray, KindObject:
		return true
	}
	return false
}

// Array is a JSON array viewed without copying.
type Array []any

func (a Array) Len() int {
	return len(a)
}

// At returns element i, or Absent when i is out of range.
func (a Array) At(i int) Value {
	if i < 0 || i >= len(a) {
		return Absent()
	}
	return Of(a[i])
}

// Object is a patch document or sub-document.
type Object map[string]any

func (o Object) Get(key string) Value {
	raw, ok := o[key]
	if !ok {
		return Absent()
	}
	return Of(raw)
}

func (o Object) Has(key string) bool {
	_, ok := o[key]
	return ok
}

// Without returns a shallow copy of o minus the given keys.
func (o Object) Without(keys ...string) Object {
	out := make(Object, len(o))
	for k, v := range o {
		out[k] = v
	}
	for _, k := range keys {
		delete(out, k)
	}
	return out
}

// Parse decodes a document. Numbers are kept as json.Number so that integer
// precision survives and the document can be re-encoded unchanged.
func Parse(data []byte) (Object, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	var raw any
	if err := dec.Decode(&raw); err != nil {
		return nil, err
	}
	obj, ok := raw.(map[string]any)
	if !ok {
		return nil, ErrNotObject
	}
	return Object(obj), nil
}
