// Copyright 2013 Federico Sogaro. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package webdriver

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"reflect"
	"runtime"
	"sort"
	"strconv"
	"strings"
)

// Kind identifies the variant held by a Value.
type Kind int

const (
	KindNull Kind = iota
	KindString
	KindNumber
	KindBool
	KindMap
	KindList
	KindElement
)

var kindNames = [...]string{"null", "string", "number", "bool", "map", "list", "element"}

func (k Kind) String() string {
	if k < 0 || int(k) >= len(kindNames) {
		return "kind(" + strconv.Itoa(int(k)) + ")"
	}
	return kindNames[k]
}

// Value is a JSON value as exchanged with the remote end. The zero Value is
// null. Values are immutable once built.
type Value struct {
	kind  Kind
	str   string // string payload or element id
	num   float64
	isInt bool
	i     int64
	b     bool
	m     map[string]Value
	l     []Value
}

func Null() Value { return Value{} }

func String(s string) Value { return Value{kind: KindString, str: s} }

func Bool(b bool) Value { return Value{kind: KindBool, b: b} }

func ElementRef(id string) Value { return Value{kind: KindElement, str: id} }

func Number(f float64) Value {
	v := Value{kind: KindNumber, num: f}
	if f == math.Trunc(f) && math.Abs(f) < 1<<53 {
		v.isInt = true
		v.i = int64(f)
	}
	return v
}

func Int(i int64) Value {
	return Value{kind: KindNumber, num: float64(i), isInt: true, i: i}
}

// Map copies m.
func Map(m map[string]Value) Value {
	c := make(map[string]Value, len(m))
	for k, v := range m {
		c[k] = v
	}
	return Value{kind: KindMap, m: c}
}

// List copies vs.
func List(vs ...Value) Value {
	return Value{kind: KindList, l: append([]Value{}, vs...)}
}

func (v Value) Kind() Kind { return v.kind }

func (v Value) IsNull() bool { return v.kind == KindNull }

func (v Value) Str() (string, bool) {
	return v.str, v.kind == KindString
}

func (v Value) Float() (float64, bool) {
	return v.num, v.kind == KindNumber
}

// Int reports the number as an int64 when it represents a whole value
// exactly.
func (v Value) Int() (int64, bool) {
	return v.i, v.kind == KindNumber && v.isInt
}

func (v Value) Bool() (bool, bool) {
	return v.b, v.kind == KindBool
}

func (v Value) ElementID() (string, bool) {
	return v.str, v.kind == KindElement
}

// Map returns a copy of the entries of a map value.
func (v Value) Map() (map[string]Value, bool) {
	if v.kind != KindMap {
		return nil, false
	}
	c := make(map[string]Value, len(v.m))
	for k, e := range v.m {
		c[k] = e
	}
	return c, true
}

// Get looks up key in a map value.
func (v Value) Get(key string) (Value, bool) {
	if v.kind != KindMap {
		return Value{}, false
	}
	e, ok := v.m[key]
	return e, ok
}

func (v Value) List() ([]Value, bool) {
	if v.kind != KindList {
		return nil, false
	}
	return append([]Value{}, v.l...), true
}

// Len is the number of entries of a map or list value, zero otherwise.
func (v Value) Len() int {
	switch v.kind {
	case KindMap:
		return len(v.m)
	case KindList:
		return len(v.l)
	}
	return 0
}

// Interface converts v into plain Go values: nil, string, int64, float64,
// bool, map[string]interface{} and []interface{}. Elements become
// map[string]interface{}{"ELEMENT": id}.
func (v Value) Interface() interface{} {
	switch v.kind {
	case KindString:
		return v.str
	case KindNumber:
		if v.isInt {
			return v.i
		}
		return v.num
	case KindBool:
		return v.b
	case KindElement:
		return map[string]interface{}{"ELEMENT": v.str}
	case KindMap:
		m := make(map[string]interface{}, len(v.m))
		for k, e := range v.m {
			m[k] = e.Interface()
		}
		return m
	case KindList:
		l := make([]interface{}, len(v.l))
		for i, e := range v.l {
			l[i] = e.Interface()
		}
		return l
	}
	return nil
}

// Text renders scalars the way they appear in URLs; maps and lists render as
// JSON.
func (v Value) Text() string {
	switch v.kind {
	case KindNull:
		return ""
	case KindString, KindElement:
		return v.str
	case KindNumber:
		if v.isInt {
			return strconv.FormatInt(v.i, 10)
		}
		return strconv.FormatFloat(v.num, 'f', -1, 64)
	case KindBool:
		return strconv.FormatBool(v.b)
	}
	data, _ := json.Marshal(v)
	return string(data)
}

func (v Value) String() string {
	if v.kind == KindString {
		return strconv.Quote(v.str)
	}
	return v.Text()
}

func (v Value) MarshalJSON() ([]byte, error) {
	switch v.kind {
	case KindNull:
		return []byte("null"), nil
	case KindString:
		return json.Marshal(v.str)
	case KindNumber:
		if v.isInt {
			return []byte(strconv.FormatInt(v.i, 10)), nil
		}
		return json.Marshal(v.num)
	case KindBool:
		return json.Marshal(v.b)
	case KindElement:
		return json.Marshal(map[string]string{"ELEMENT": v.str})
	case KindMap:
		keys := make([]string, 0, len(v.m))
		for k := range v.m {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		var buf bytes.Buffer
		buf.WriteByte('{')
		for i, k := range keys {
			if i > 0 {
				buf.WriteByte(',')
			}
			kb, err := json.Marshal(k)
			if err != nil {
				return nil, err
			}
			buf.Write(kb)
			buf.WriteByte(':')
			eb, err := v.m[k].MarshalJSON()
			if err != nil {
				return nil, err
			}
			buf.Write(eb)
		}
		buf.WriteByte('}')
		return buf.Bytes(), nil
	case KindList:
		var buf bytes.Buffer
		buf.WriteByte('[')
		for i, e := range v.l {
			if i > 0 {
				buf.WriteByte(',')
			}
			eb, err := e.MarshalJSON()
			if err != nil {
				return nil, err
			}
			buf.Write(eb)
		}
		buf.WriteByte(']')
		return buf.Bytes(), nil
	}
	return nil, fmt.Errorf("webdriver: cannot encode value of kind %v", v.kind)
}

func (v *Value) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	var raw interface{}
	if err := dec.Decode(&raw); err != nil {
		return err
	}
	decoded, err := fromJSON(raw)
	if err != nil {
		return err
	}
	*v = decoded
	return nil
}

func fromJSON(raw interface{}) (Value, error) {
	switch x := raw.(type) {
	case nil:
		return Null(), nil
	case string:
		return String(x), nil
	case bool:
		return Bool(x), nil
	case json.Number:
		if i, err := x.Int64(); err == nil {
			return Int(i), nil
		}
		f, err := x.Float64()
		if err != nil {
			return Value{}, fmt.Errorf("webdriver: bad number %q: %w", x.String(), err)
		}
		return Number(f), nil
	case []interface{}:
		l := make([]Value, len(x))
		for i, e := range x {
			v, err := fromJSON(e)
			if err != nil {
				return Value{}, err
			}
			l[i] = v
		}
		return Value{kind: KindList, l: l}, nil
	case map[string]interface{}:
		if id, ok := x["ELEMENT"].(string); ok && len(x) == 1 {
			return ElementRef(id), nil
		}
		m := make(map[string]Value, len(x))
		for k, e := range x {
			v, err := fromJSON(e)
			if err != nil {
				return Value{}, err
			}
			m[k] = v
		}
		return Value{kind: KindMap, m: m}, nil
	}
	return Value{}, fmt.Errorf("webdriver: unexpected JSON type %T", raw)
}

// wireValuer is implemented by types with their own wire encoding.
type wireValuer interface {
	wireValue() Value
}

// ValueOf converts a Go value into its wire form. It knows the JSON
// primitives, maps with string keys, slices, Keys, Cookie, Platform and
// elements.
func ValueOf(x interface{}) (Value, error) {
	switch t := x.(type) {
	case nil:
		return Null(), nil
	case Value:
		return t, nil
	case wireValuer:
		return t.wireValue(), nil
	case string:
		return String(t), nil
	case []rune:
		return Keys(t).wireValue(), nil
	case bool:
		return Bool(t), nil
	case int:
		return Int(int64(t)), nil
	case int8:
		return Int(int64(t)), nil
	case int16:
		return Int(int64(t)), nil
	case int32:
		return Int(int64(t)), nil
	case int64:
		return Int(t), nil
	case uint:
		return uintValue(uint64(t))
	case uint64:
		return uintValue(t)
	case uint8:
		return Int(int64(t)), nil
	case uint16:
		return Int(int64(t)), nil
	case uint32:
		return Int(int64(t)), nil
	case float32:
		return Number(float64(t)), nil
	case float64:
		return Number(t), nil
	case json.Number:
		return fromJSON(t)
	case map[string]interface{}:
		m := make(map[string]Value, len(t))
		for k, e := range t {
			v, err := ValueOf(e)
			if err != nil {
				return Value{}, fmt.Errorf("key %q: %w", k, err)
			}
			m[k] = v
		}
		return Value{kind: KindMap, m: m}, nil
	case map[string]string:
		m := make(map[string]Value, len(t))
		for k, e := range t {
			m[k] = String(e)
		}
		return Value{kind: KindMap, m: m}, nil
	case []interface{}:
		l := make([]Value, len(t))
		for i, e := range t {
			v, err := ValueOf(e)
			if err != nil {
				return Value{}, fmt.Errorf("index %d: %w", i, err)
			}
			l[i] = v
		}
		return Value{kind: KindList, l: l}, nil
	case []string:
		l := make([]Value, len(t))
		for i, e := range t {
			l[i] = String(e)
		}
		return Value{kind: KindList, l: l}, nil
	}
	return reflectValue(reflect.ValueOf(x))
}

func uintValue(u uint64) (Value, error) {
	if u > math.MaxInt64 {
		return Value{}, fmt.Errorf("webdriver: %d overflows a wire integer", u)
	}
	return Int(int64(u)), nil
}

// reflectValue handles the shapes the type switch in ValueOf does not name:
// named scalar types, typed slices and arrays, and maps with string keys.
func reflectValue(rv reflect.Value) (Value, error) {
	switch rv.Kind() {
	case reflect.String:
		return String(rv.String()), nil
	case reflect.Bool:
		return Bool(rv.Bool()), nil
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return Int(rv.Int()), nil
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return uintValue(rv.Uint())
	case reflect.Float32, reflect.Float64:
		return Number(rv.Float()), nil
	case reflect.Slice, reflect.Array:
		if rv.Kind() == reflect.Slice && rv.IsNil() {
			return Null(), nil
		}
		l := make([]Value, rv.Len())
		for i := range l {
			v, err := ValueOf(rv.Index(i).Interface())
			if err != nil {
				return Value{}, fmt.Errorf("index %d: %w", i, err)
			}
			l[i] = v
		}
		return Value{kind: KindList, l: l}, nil
	case reflect.Map:
		if rv.Type().Key().Kind() != reflect.String {
			break
		}
		if rv.IsNil() {
			return Null(), nil
		}
		m := make(map[string]Value, rv.Len())
		iter := rv.MapRange()
		for iter.Next() {
			k := iter.Key().String()
			v, err := ValueOf(iter.Value().Interface())
			if err != nil {
				return Value{}, fmt.Errorf("key %q: %w", k, err)
			}
			m[k] = v
		}
		return Value{kind: KindMap, m: m}, nil
	}
	if !rv.IsValid() {
		return Null(), nil
	}
	return Value{}, fmt.Errorf("webdriver: unsupported value type %s", rv.Type())
}

// Keys is a keystroke sequence. It travels as a list of single character
// strings, which is what some remote ends expect for text input.
type Keys []rune

func (k Keys) wireValue() Value {
	l := make([]Value, len(k))
	for i, r := range k {
		l[i] = String(string(r))
	}
	return Value{kind: KindList, l: l}
}

func (k Keys) String() string { return string(k) }

// KeysFromValue joins a list of strings back into a Keys sequence.
func KeysFromValue(v Value) (Keys, error) {
	l, ok := v.List()
	if !ok {
		if s, ok := v.Str(); ok {
			return Keys(s), nil
		}
		return nil, fmt.Errorf("webdriver: keys must be a list, got %v", v.Kind())
	}
	var b strings.Builder
	for i, e := range l {
		s, ok := e.Str()
		if !ok {
			return nil, fmt.Errorf("webdriver: key %d is %v, not a string", i, e.Kind())
		}
		b.WriteString(s)
	}
	return Keys(b.String()), nil
}

// normalizeNewlines rewrites every string inside v so that line endings match
// the local platform.
func normalizeNewlines(v Value) Value {
	switch v.kind {
	case KindString:
		return String(localNewlines(v.str))
	case KindMap:
		m := make(map[string]Value, len(v.m))
		for k, e := range v.m {
			m[k] = normalizeNewlines(e)
		}
		return Value{kind: KindMap, m: m}
	case KindList:
		l := make([]Value, len(v.l))
		for i, e := range v.l {
			l[i] = normalizeNewlines(e)
		}
		return Value{kind: KindList, l: l}
	}
	return v
}

var newline = "\n"

func init() {
	if runtime.GOOS == "windows" {
		newline = "\r\n"
	}
}

func localNewlines(s string) string {
	s = strings.ReplaceAll(s, "\r\n", "\n")
	if newline != "\n" {
		s = strings.ReplaceAll(s, "\n", newline)
	}
	return s
}
