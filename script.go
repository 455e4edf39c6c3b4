// Copyright 2013 Federico Sogaro. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package webdriver

import (
	"context"
	"fmt"
)

// Script arguments and results travel as {"type": ..., "value": ...}.
const (
	scriptString  = "STRING"
	scriptNumber  = "NUMBER"
	scriptBoolean = "BOOLEAN"
	scriptElement = "ELEMENT"
	scriptNull    = "NULL"
)

func tagged(typ string, v Value) Value {
	return Map(map[string]Value{"type": String(typ), "value": v})
}

// scriptArgument converts a Go value into a tagged script argument. Only
// strings, numbers, booleans and elements are accepted.
func scriptArgument(arg interface{}) (Value, error) {
	if el, ok := arg.(*RemoteWebElement); ok {
		if el == nil {
			return Value{}, fmt.Errorf("webdriver: nil element argument")
		}
		return tagged(scriptElement, String(el.id)), nil
	}
	v, err := ValueOf(arg)
	if err != nil {
		return Value{}, err
	}
	switch v.Kind() {
	case KindString:
		return tagged(scriptString, v), nil
	case KindNumber:
		return tagged(scriptNumber, v), nil
	case KindBool:
		return tagged(scriptBoolean, v), nil
	case KindElement:
		id, _ := v.ElementID()
		return tagged(scriptElement, String(id)), nil
	}
	return Value{}, fmt.Errorf("webdriver: script argument of type %T is not supported", arg)
}

// ExecuteScript runs script in the context of the current frame. The result
// is nil, a string, an int64 for whole numbers, a float64, a bool, a
// *RemoteWebElement, or a []interface{} of those.
func (d *RemoteWebDriver) ExecuteScript(ctx context.Context, script string, args ...interface{}) (interface{}, error) {
	wireArgs := make([]Value, len(args))
	for i, arg := range args {
		v, err := scriptArgument(arg)
		if err != nil {
			return nil, fmt.Errorf("argument %d: %w", i, err)
		}
		wireArgs[i] = v
	}
	v, err := d.execute(ctx, CmdExecuteScript, param(params{
		"script": String(script),
		"args":   List(wireArgs...),
	}))
	if err != nil {
		return nil, err
	}
	return d.scriptResult(v)
}

func (d *RemoteWebDriver) scriptResult(v Value) (interface{}, error) {
	switch v.Kind() {
	case KindNull:
		return nil, nil
	case KindElement:
		return d.element(v)
	case KindList:
		l, _ := v.List()
		out := make([]interface{}, len(l))
		for i, e := range l {
			r, err := d.scriptResult(e)
			if err != nil {
				return nil, err
			}
			out[i] = r
		}
		return out, nil
	case KindMap:
		typ, hasType := v.Get("type")
		inner, hasValue := v.Get("value")
		t, _ := typ.Str()
		if !hasType || (!hasValue && t != scriptNull) {
			return v.Interface(), nil
		}
		switch t {
		case scriptNull:
			return nil, nil
		case scriptElement:
			return d.element(inner)
		case scriptString, scriptBoolean:
			return inner.Interface(), nil
		case scriptNumber:
			if inner.Kind() == KindString {
				s, _ := inner.Str()
				var n Value
				if err := n.UnmarshalJSON([]byte(s)); err != nil || n.Kind() != KindNumber {
					return nil, fmt.Errorf("%w: bad NUMBER result %q", ErrWebDriver, s)
				}
				inner = n
			}
			return numberResult(inner), nil
		}
		return v.Interface(), nil
	}
	if v.Kind() == KindNumber {
		return numberResult(v), nil
	}
	return v.Interface(), nil
}

// numberResult returns whole numbers as int64 so they compare cleanly.
func numberResult(v Value) interface{} {
	if i, ok := v.Int(); ok {
		return i
	}
	f, _ := v.Float()
	return f
}
