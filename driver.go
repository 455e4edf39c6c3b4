// Copyright 2013 Federico Sogaro. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package webdriver

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/mitchellh/mapstructure"
)

type sessionState int

const (
	sessionUnstarted sessionState = iota
	sessionActive
	sessionClosed
)

// RemoteWebDriver controls one browser session on a remote end. Every
// method performs a single blocking round trip. Calls on one driver are
// serialised; separate drivers are independent.
type RemoteWebDriver struct {
	mu           sync.Mutex
	executor     CommandExecutor
	state        sessionState
	sessionID    SessionID
	context      Context
	capabilities Capabilities
}

// NewRemoteWebDriver starts a new session with the desired capabilities.
func NewRemoteWebDriver(ctx context.Context, executor CommandExecutor, desired Capabilities) (*RemoteWebDriver, error) {
	d := &RemoteWebDriver{executor: executor, context: DefaultContext}
	if err := d.startSession(ctx, desired); err != nil {
		return nil, err
	}
	return d, nil
}

// Attach binds a driver to a session that is already running on the remote
// end, for example one started by another process.
func Attach(executor CommandExecutor, id SessionID, caps Capabilities) *RemoteWebDriver {
	return &RemoteWebDriver{
		executor:     executor,
		state:        sessionActive,
		sessionID:    id,
		context:      DefaultContext,
		capabilities: caps,
	}
}

func (d *RemoteWebDriver) startSession(ctx context.Context, desired Capabilities) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.state != sessionUnstarted {
		return fmt.Errorf("%w: session already started", ErrInvalidOperation)
	}
	want, err := desired.encode()
	if err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidOperation, err)
	}
	cmd := NewCommand("", "", CmdNewSession, want)
	resp := d.executor.Execute(ctx, cmd)
	if resp.IsError {
		return responseError(cmd, resp)
	}
	if resp.SessionID == "" {
		return fmt.Errorf("%w: new session response carries no session id", ErrWebDriver)
	}
	caps, err := ParseCapabilities(resp.Value)
	if err != nil {
		return err
	}
	d.sessionID = SessionID(resp.SessionID)
	if resp.Context != "" {
		d.context = Context(resp.Context)
	}
	d.capabilities = caps
	d.state = sessionActive
	return nil
}

// SessionID is empty before the session starts and after Quit.
func (d *RemoteWebDriver) SessionID() SessionID {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.sessionID
}

// Capabilities returns the capabilities reported by the remote end when the
// session started.
func (d *RemoteWebDriver) Capabilities() Capabilities {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.capabilities
}

// execute sends one session command and returns the response value.
func (d *RemoteWebDriver) execute(ctx context.Context, name CommandName, params ...Value) (Value, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.state != sessionActive {
		return Value{}, ErrNoActiveSession
	}
	cmd := NewCommand(d.sessionID, d.context, name, params...)
	resp := d.executor.Execute(ctx, cmd)
	if resp.IsError {
		return Value{}, responseError(cmd, resp)
	}
	return resp.Value, nil
}

// Quit ends the session. The driver is closed afterwards even when the
// remote end reports an error, which is still returned.
func (d *RemoteWebDriver) Quit(ctx context.Context) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.state != sessionActive {
		return ErrNoActiveSession
	}
	defer func() {
		d.sessionID = ""
		d.state = sessionClosed
	}()
	cmd := NewCommand(d.sessionID, d.context, CmdQuit)
	resp := d.executor.Execute(ctx, cmd)
	if resp.IsError {
		return responseError(cmd, resp)
	}
	return nil
}

// RemoteCapabilities asks the remote end for the session capabilities
// instead of returning the ones recorded at start.
func (d *RemoteWebDriver) RemoteCapabilities(ctx context.Context) (Capabilities, error) {
	v, err := d.execute(ctx, CmdGetSessionCapabilities)
	if err != nil {
		return Capabilities{}, err
	}
	return ParseCapabilities(v)
}

// element wraps an element reference returned by the remote end.
func (d *RemoteWebDriver) element(v Value) (*RemoteWebElement, error) {
	id, err := elementID(v)
	if err != nil {
		return nil, err
	}
	return &RemoteWebElement{id: id, driver: d}, nil
}

func (d *RemoteWebDriver) elements(v Value) ([]*RemoteWebElement, error) {
	if v.IsNull() {
		return nil, nil
	}
	l, ok := v.List()
	if !ok {
		return nil, fmt.Errorf("%w: expected a list of elements, got %v", ErrWebDriver, v.Kind())
	}
	elements := make([]*RemoteWebElement, len(l))
	for i, e := range l {
		el, err := d.element(e)
		if err != nil {
			return nil, err
		}
		elements[i] = el
	}
	return elements, nil
}

// elementID extracts an element id. Remote ends answer with the element URL,
// ".../session/abc/element/99", of which only the last segment matters.
func elementID(v Value) (string, error) {
	switch v.Kind() {
	case KindElement:
		id, _ := v.ElementID()
		return id, nil
	case KindString:
		s, _ := v.Str()
		s = strings.TrimRight(s, "/")
		if i := strings.LastIndex(s, "/"); i >= 0 {
			s = s[i+1:]
		}
		if s == "" {
			return "", fmt.Errorf("%w: empty element reference", ErrWebDriver)
		}
		return s, nil
	}
	return "", fmt.Errorf("%w: unexpected element reference of kind %v", ErrWebDriver, v.Kind())
}

// WebElementFromID returns an element handle for a known id without asking
// the remote end.
func (d *RemoteWebDriver) WebElementFromID(id string) *RemoteWebElement {
	return &RemoteWebElement{id: id, driver: d}
}

//Server details.
type Status struct {
	Build Build `mapstructure:"build"`
	OS    OS    `mapstructure:"os"`
}

//Server built details.
type Build struct {
	Version  string `mapstructure:"version"`
	Revision string `mapstructure:"revision"`
	Time     string `mapstructure:"time"`
}

//Server OS details
type OS struct {
	Arch    string `mapstructure:"arch"`
	Name    string `mapstructure:"name"`
	Version string `mapstructure:"version"`
}

// ServerStatus queries the server's status. No session is needed.
func ServerStatus(ctx context.Context, executor CommandExecutor) (*Status, error) {
	cmd := NewCommand("", "", CmdStatus)
	resp := executor.Execute(ctx, cmd)
	if resp.IsError {
		return nil, responseError(cmd, resp)
	}
	status := &Status{}
	if resp.Value.Kind() != KindMap {
		return status, nil
	}
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		WeaklyTypedInput: true,
		Result:           status,
	})
	if err != nil {
		return nil, err
	}
	if err := dec.Decode(resp.Value.Interface()); err != nil {
		return nil, fmt.Errorf("webdriver: decoding status: %w", err)
	}
	return status, nil
}

// IsNoSuchElement reports whether err says an element could not be found.
func IsNoSuchElement(err error) bool {
	return errors.Is(err, ErrNoSuchElement)
}
