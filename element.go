// Copyright 2013 Federico Sogaro. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package webdriver

import (
	"context"
	"fmt"
)

// RemoteWebElement is a handle on a DOM element held by the remote end. It
// routes its commands through the driver that found it and does not own that
// driver; the element is only valid while the driver's session is.
type RemoteWebElement struct {
	id     string
	driver *RemoteWebDriver
}

// ID is the server assigned element id.
func (e *RemoteWebElement) ID() string { return e.id }

// Driver returns the driver the element belongs to.
func (e *RemoteWebElement) Driver() *RemoteWebDriver { return e.driver }

func (e *RemoteWebElement) wireValue() Value { return ElementRef(e.id) }

func (e *RemoteWebElement) String() string { return "element " + e.id }

func (e *RemoteWebElement) params(extra params) Value {
	p := params{"id": String(e.id)}
	for k, v := range extra {
		p[k] = v
	}
	return Map(p)
}

func (e *RemoteWebElement) do(ctx context.Context, name CommandName, extra params) (Value, error) {
	return e.driver.execute(ctx, name, e.params(extra))
}

func (e *RemoteWebElement) boolResult(ctx context.Context, name CommandName, extra params) (bool, error) {
	v, err := e.do(ctx, name, extra)
	if err != nil {
		return false, err
	}
	b, ok := v.Bool()
	if !ok {
		return false, fmt.Errorf("%w: %s returned %v, not a bool", ErrWebDriver, name, v.Kind())
	}
	return b, nil
}

func (e *RemoteWebElement) stringResult(ctx context.Context, name CommandName, extra params) (string, error) {
	v, err := e.do(ctx, name, extra)
	if err != nil {
		return "", err
	}
	if v.IsNull() {
		return "", nil
	}
	if s, ok := v.Str(); ok {
		return s, nil
	}
	return v.Text(), nil
}

//Click on an element.
func (e *RemoteWebElement) Click(ctx context.Context) error {
	_, err := e.do(ctx, CmdClickElement, nil)
	return err
}

//Submit a FORM element.
func (e *RemoteWebElement) Submit(ctx context.Context) error {
	_, err := e.do(ctx, CmdSubmitElement, nil)
	return err
}

//Clear a TEXTAREA or text INPUT element's value.
func (e *RemoteWebElement) Clear(ctx context.Context) error {
	_, err := e.do(ctx, CmdClearElement, nil)
	return err
}

//Send a sequence of key strokes to an element.
func (e *RemoteWebElement) SendKeys(ctx context.Context, sequence string) error {
	_, err := e.do(ctx, CmdSendKeysToElement, params{"value": Keys(sequence).wireValue()})
	return err
}

//Returns the visible text for the element.
func (e *RemoteWebElement) Text(ctx context.Context) (string, error) {
	return e.stringResult(ctx, CmdGetElementText, nil)
}

//Query for an element's tag name.
func (e *RemoteWebElement) TagName(ctx context.Context) (string, error) {
	return e.stringResult(ctx, CmdGetElementTagName, nil)
}

//Query the value of an INPUT or TEXTAREA element.
func (e *RemoteWebElement) Value(ctx context.Context) (string, error) {
	return e.stringResult(ctx, CmdGetElementValue, nil)
}

//Get the value of an element's attribute.
func (e *RemoteWebElement) Attribute(ctx context.Context, name string) (string, error) {
	return e.stringResult(ctx, CmdGetElementAttribute, params{"name": String(name)})
}

//Query the value of an element's computed CSS property.
func (e *RemoteWebElement) CSSValue(ctx context.Context, property string) (string, error) {
	return e.stringResult(ctx, CmdGetElementValueOfCSSProperty, params{"propertyName": String(property)})
}

//Determine if an OPTION element, or an INPUT element of type checkbox or radiobutton is currently selected.
func (e *RemoteWebElement) IsSelected(ctx context.Context) (bool, error) {
	return e.boolResult(ctx, CmdIsElementSelected, nil)
}

//Select an OPTION element, or an INPUT element of type checkbox or radiobutton.
func (e *RemoteWebElement) SetSelected(ctx context.Context) error {
	_, err := e.do(ctx, CmdSetElementSelected, nil)
	return err
}

// Toggle flips the selection of a checkbox or multi-select option and
// reports whether it is selected afterwards.
func (e *RemoteWebElement) Toggle(ctx context.Context) (bool, error) {
	return e.boolResult(ctx, CmdToggleElement, nil)
}

//Determine if an element is currently enabled.
func (e *RemoteWebElement) IsEnabled(ctx context.Context) (bool, error) {
	return e.boolResult(ctx, CmdIsElementEnabled, nil)
}

//Determine if an element is currently displayed.
func (e *RemoteWebElement) IsDisplayed(ctx context.Context) (bool, error) {
	return e.boolResult(ctx, CmdIsElementDisplayed, nil)
}

type Size struct {
	Width  int
	Height int
}

type Position struct {
	X int
	Y int
}

func intField(v Value, name string) int {
	f, _ := v.Get(name)
	if i, ok := f.Int(); ok {
		return int(i)
	}
	n, _ := f.Float()
	return int(n)
}

//Determine an element's location on the page. The point (0, 0) refers to the upper-left corner of the page.
func (e *RemoteWebElement) Location(ctx context.Context) (Position, error) {
	v, err := e.do(ctx, CmdGetElementLocation, nil)
	if err != nil {
		return Position{}, err
	}
	return Position{X: intField(v, "x"), Y: intField(v, "y")}, nil
}

//Determine an element's size in pixels.
func (e *RemoteWebElement) Size(ctx context.Context) (Size, error) {
	v, err := e.do(ctx, CmdGetElementSize, nil)
	if err != nil {
		return Size{}, err
	}
	return Size{Width: intField(v, "width"), Height: intField(v, "height")}, nil
}

//Search for an element on the page, starting from the identified element.
func (e *RemoteWebElement) FindElement(ctx context.Context, by By) (*RemoteWebElement, error) {
	v, err := e.do(ctx, CmdFindChildElement, by.params())
	if err != nil {
		return nil, err
	}
	return e.driver.element(v)
}

//Search for multiple elements on the page, starting from the identified element.
func (e *RemoteWebElement) FindElements(ctx context.Context, by By) ([]*RemoteWebElement, error) {
	v, err := e.do(ctx, CmdFindChildElements, by.params())
	if err != nil {
		return nil, err
	}
	return e.driver.elements(v)
}

//Move the mouse over the element.
func (e *RemoteWebElement) Hover(ctx context.Context) error {
	_, err := e.do(ctx, CmdHoverOverElement, nil)
	return err
}

//Drag the element by an offset in pixels.
func (e *RemoteWebElement) DragBy(ctx context.Context, dx, dy int) error {
	_, err := e.do(ctx, CmdDragElement, params{"x": Int(int64(dx)), "y": Int(int64(dy))})
	return err
}

// Equals asks the remote end whether both handles refer to the same DOM
// element. Ids are not compared locally.
func (e *RemoteWebElement) Equals(ctx context.Context, other *RemoteWebElement) (bool, error) {
	if other == nil {
		return false, nil
	}
	return e.boolResult(ctx, CmdElementEquals, params{"other": String(other.id)})
}
