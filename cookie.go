// Copyright 2013 Federico Sogaro. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package webdriver

import (
	"fmt"
	"time"
)

type Cookie struct {
	Name   string
	Value  string
	Path   string
	Domain string
	Secure bool
	// Expiry is nil for session cookies.
	Expiry *time.Time
}

func (c Cookie) wireValue() Value {
	m := map[string]Value{
		"name":   String(c.Name),
		"value":  String(c.Value),
		"secure": Bool(c.Secure),
	}
	if c.Path != "" {
		m["path"] = String(c.Path)
	}
	if c.Domain != "" {
		m["domain"] = String(c.Domain)
	}
	if c.Expiry != nil {
		m["expiry"] = Int(c.Expiry.Unix())
	}
	return Map(m)
}

func cookieFromValue(v Value) (Cookie, error) {
	if v.Kind() != KindMap {
		return Cookie{}, fmt.Errorf("webdriver: cookie must be an object, got %v", v.Kind())
	}
	var c Cookie
	field := func(name string) string {
		f, _ := v.Get(name)
		s, _ := f.Str()
		return s
	}
	c.Name = field("name")
	c.Value = field("value")
	c.Path = field("path")
	c.Domain = field("domain")
	if f, ok := v.Get("secure"); ok {
		c.Secure, _ = f.Bool()
	}
	if f, ok := v.Get("expiry"); ok {
		if secs, ok := f.Float(); ok {
			t := time.Unix(int64(secs), 0)
			c.Expiry = &t
		}
	}
	return c, nil
}
