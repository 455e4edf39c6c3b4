// Copyright 2013 Federico Sogaro. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package webdriver

import (
	"context"
	"encoding/base64"
	"fmt"
	"time"
)

//typing saver
type params map[string]Value

func param(p params) Value { return Map(p) }

func (d *RemoteWebDriver) stringResult(ctx context.Context, name CommandName, args ...Value) (string, error) {
	v, err := d.execute(ctx, name, args...)
	if err != nil {
		return "", err
	}
	if v.IsNull() {
		return "", nil
	}
	s, ok := v.Str()
	if !ok {
		return "", fmt.Errorf("%w: %s returned %v, not a string", ErrWebDriver, name, v.Kind())
	}
	return s, nil
}

func (d *RemoteWebDriver) stringsResult(ctx context.Context, name CommandName) ([]string, error) {
	v, err := d.execute(ctx, name)
	if err != nil {
		return nil, err
	}
	l, ok := v.List()
	if !ok {
		return nil, fmt.Errorf("%w: %s returned %v, not a list", ErrWebDriver, name, v.Kind())
	}
	out := make([]string, len(l))
	for i, e := range l {
		out[i] = e.Text()
	}
	return out, nil
}

//Navigate to a new URL.
func (d *RemoteWebDriver) Get(ctx context.Context, url string) error {
	_, err := d.execute(ctx, CmdGet, param(params{"url": String(url)}))
	return err
}

//Retrieve the URL of the current page.
func (d *RemoteWebDriver) CurrentURL(ctx context.Context) (string, error) {
	return d.stringResult(ctx, CmdGetCurrentURL)
}

//Get the current page title.
func (d *RemoteWebDriver) Title(ctx context.Context) (string, error) {
	return d.stringResult(ctx, CmdGetTitle)
}

//Get the current page source.
func (d *RemoteWebDriver) PageSource(ctx context.Context) (string, error) {
	return d.stringResult(ctx, CmdGetPageSource)
}

//Navigate backwards in the browser history, if possible.
func (d *RemoteWebDriver) Back(ctx context.Context) error {
	_, err := d.execute(ctx, CmdGoBack)
	return err
}

//Navigate forwards in the browser history, if possible.
func (d *RemoteWebDriver) Forward(ctx context.Context) error {
	_, err := d.execute(ctx, CmdGoForward)
	return err
}

//Refresh the current page.
func (d *RemoteWebDriver) Refresh(ctx context.Context) error {
	_, err := d.execute(ctx, CmdRefresh)
	return err
}

//Take a screenshot of the current page. The result is PNG data.
func (d *RemoteWebDriver) Screenshot(ctx context.Context) ([]byte, error) {
	encoded, err := d.stringResult(ctx, CmdScreenshot)
	if err != nil {
		return nil, err
	}
	data, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return nil, fmt.Errorf("webdriver: decoding screenshot: %w", err)
	}
	return data, nil
}

//Search for an element on the page, starting from the document root.
func (d *RemoteWebDriver) FindElement(ctx context.Context, by By) (*RemoteWebElement, error) {
	v, err := d.execute(ctx, CmdFindElement, param(by.params()))
	if err != nil {
		return nil, err
	}
	return d.element(v)
}

//Search for multiple elements on the page, starting from the document root.
func (d *RemoteWebDriver) FindElements(ctx context.Context, by By) ([]*RemoteWebElement, error) {
	v, err := d.execute(ctx, CmdFindElements, param(by.params()))
	if err != nil {
		return nil, err
	}
	return d.elements(v)
}

//Get the element on the page that currently has focus.
func (d *RemoteWebDriver) ActiveElement(ctx context.Context) (*RemoteWebElement, error) {
	v, err := d.execute(ctx, CmdGetActiveElement)
	if err != nil {
		return nil, err
	}
	return d.element(v)
}

//Close the current window. The session stays alive.
func (d *RemoteWebDriver) Close(ctx context.Context) error {
	_, err := d.execute(ctx, CmdClose)
	return err
}

//Retrieve the list of all window handles available to the session.
func (d *RemoteWebDriver) WindowHandles(ctx context.Context) ([]string, error) {
	return d.stringsResult(ctx, CmdGetWindowHandles)
}

//Retrieve the current window handle.
func (d *RemoteWebDriver) CurrentWindowHandle(ctx context.Context) (string, error) {
	return d.stringResult(ctx, CmdGetCurrentWindowHandle)
}

//Change focus to another window, by server assigned handle or by the value of its name attribute.
func (d *RemoteWebDriver) SwitchToWindow(ctx context.Context, name string) error {
	_, err := d.execute(ctx, CmdSwitchToWindow, param(params{"name": String(name)}))
	return err
}

//Change focus to another frame on the page, by name, id or index.
func (d *RemoteWebDriver) SwitchToFrame(ctx context.Context, frame string) error {
	_, err := d.execute(ctx, CmdSwitchToFrame, param(params{"id": String(frame)}))
	return err
}

//Change focus to the frame at index.
func (d *RemoteWebDriver) SwitchToFrameIndex(ctx context.Context, index int) error {
	_, err := d.execute(ctx, CmdSwitchToFrame, param(params{"id": Int(int64(index))}))
	return err
}

//Change focus back to the top level document.
func (d *RemoteWebDriver) SwitchToDefaultContent(ctx context.Context) error {
	_, err := d.execute(ctx, CmdSwitchToFrame, param(params{"id": Null()}))
	return err
}

//Retrieve all cookies visible to the current page.
func (d *RemoteWebDriver) Cookies(ctx context.Context) ([]Cookie, error) {
	v, err := d.execute(ctx, CmdGetAllCookies)
	if err != nil {
		return nil, err
	}
	if v.IsNull() {
		return nil, nil
	}
	l, ok := v.List()
	if !ok {
		return nil, fmt.Errorf("%w: cookies returned as %v", ErrWebDriver, v.Kind())
	}
	cookies := make([]Cookie, 0, len(l))
	for _, e := range l {
		c, err := cookieFromValue(e)
		if err != nil {
			return nil, err
		}
		cookies = append(cookies, c)
	}
	return cookies, nil
}

// CookieNamed returns the visible cookie called name; ok is false when there
// is none.
func (d *RemoteWebDriver) CookieNamed(ctx context.Context, name string) (cookie Cookie, ok bool, err error) {
	cookies, err := d.Cookies(ctx)
	if err != nil {
		return Cookie{}, false, err
	}
	for _, c := range cookies {
		if c.Name == name {
			return c, true, nil
		}
	}
	return Cookie{}, false, nil
}

//Set a cookie.
func (d *RemoteWebDriver) AddCookie(ctx context.Context, cookie Cookie) error {
	_, err := d.execute(ctx, CmdAddCookie, param(params{"cookie": cookie.wireValue()}))
	return err
}

//Delete the cookie with the given name.
func (d *RemoteWebDriver) DeleteCookieNamed(ctx context.Context, name string) error {
	_, err := d.execute(ctx, CmdDeleteCookie, param(params{"name": String(name)}))
	return err
}

func (d *RemoteWebDriver) DeleteCookie(ctx context.Context, cookie Cookie) error {
	return d.DeleteCookieNamed(ctx, cookie.Name)
}

//Delete all cookies visible to the current page.
func (d *RemoteWebDriver) DeleteAllCookies(ctx context.Context) error {
	_, err := d.execute(ctx, CmdDeleteAllCookies)
	return err
}

// Speed is the delay a remote end inserts between user interactions.
type Speed string

const (
	SpeedSlow   = Speed("SLOW")
	SpeedMedium = Speed("MEDIUM")
	SpeedFast   = Speed("FAST")
)

func (d *RemoteWebDriver) Speed(ctx context.Context) (Speed, error) {
	s, err := d.stringResult(ctx, CmdGetSpeed)
	return Speed(s), err
}

func (d *RemoteWebDriver) SetSpeed(ctx context.Context, speed Speed) error {
	_, err := d.execute(ctx, CmdSetSpeed, param(params{"speed": String(string(speed))}))
	return err
}

//Set the amount of time the driver should wait when searching for elements.
func (d *RemoteWebDriver) ImplicitlyWait(ctx context.Context, timeout time.Duration) error {
	_, err := d.execute(ctx, CmdImplicitlyWait, param(params{"ms": Int(timeout.Milliseconds())}))
	return err
}
