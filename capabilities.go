// Copyright 2013 Federico Sogaro. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package webdriver

import (
	"fmt"
	"strings"

	"github.com/mitchellh/mapstructure"
)

// Platform is the operating system a browser runs on.
type Platform string

const (
	PlatformAny     = Platform("ANY")
	PlatformWindows = Platform("WINDOWS")
	PlatformXP      = Platform("XP")
	PlatformVista   = Platform("VISTA")
	PlatformMac     = Platform("MAC")
	PlatformUnix    = Platform("UNIX")
	PlatformLinux   = Platform("LINUX")
)

func (p Platform) wireValue() Value { return String(strings.ToUpper(string(p))) }

// Capabilities describe a browser environment, either the one requested or
// the one the remote end actually provides.
type Capabilities struct {
	BrowserName       string   `mapstructure:"browserName"`
	Version           string   `mapstructure:"version"`
	Platform          Platform `mapstructure:"platform"`
	JavascriptEnabled bool     `mapstructure:"javascriptEnabled"`
	// Extra holds any capability not covered by the fields above.
	Extra map[string]interface{} `mapstructure:",remain"`
}

func Firefox() Capabilities {
	return Capabilities{BrowserName: "firefox", Platform: PlatformAny, JavascriptEnabled: true}
}

func Chrome() Capabilities {
	return Capabilities{BrowserName: "chrome", Platform: PlatformAny, JavascriptEnabled: true}
}

func InternetExplorer() Capabilities {
	return Capabilities{BrowserName: "internet explorer", Platform: PlatformWindows, JavascriptEnabled: true}
}

func HTMLUnit() Capabilities {
	return Capabilities{BrowserName: "htmlunit", Platform: PlatformAny}
}

// encode builds the desired capabilities object. Extra values the wire
// encoding cannot carry are an error.
func (c Capabilities) encode() (Value, error) {
	m := make(map[string]Value, len(c.Extra)+4)
	for k, x := range c.Extra {
		v, err := ValueOf(x)
		if err != nil {
			return Value{}, fmt.Errorf("capability %q: %w", k, err)
		}
		m[k] = v
	}
	m["browserName"] = String(c.BrowserName)
	m["version"] = String(c.Version)
	platform := c.Platform
	if platform == "" {
		platform = PlatformAny
	}
	m["platform"] = platform.wireValue()
	m["javascriptEnabled"] = Bool(c.JavascriptEnabled)
	return Map(m), nil
}

// ParseCapabilities decodes the capability map returned by the remote end.
func ParseCapabilities(v Value) (Capabilities, error) {
	var c Capabilities
	if v.IsNull() {
		return c, nil
	}
	if v.Kind() != KindMap {
		return c, fmt.Errorf("webdriver: capabilities must be an object, got %v", v.Kind())
	}
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		WeaklyTypedInput: true,
		Result:           &c,
	})
	if err != nil {
		return c, err
	}
	if err := dec.Decode(v.Interface()); err != nil {
		return c, fmt.Errorf("webdriver: decoding capabilities: %w", err)
	}
	if len(c.Extra) == 0 {
		c.Extra = nil
	}
	return c, nil
}
