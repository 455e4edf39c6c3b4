// Copyright 2013 Federico Sogaro. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package webdriver

import (
	"bytes"
	"context"
	"errors"
	"image/png"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
	"go.uber.org/zap/zaptest"

	"github.com/SeleniumHQ/selenium-sub047/internal/hubtest"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m,
		goleak.IgnoreAnyFunction("net/http.(*persistConn).readLoop"),
		goleak.IgnoreAnyFunction("net/http.(*persistConn).writeLoop"),
	)
}

// elementsPage mirrors a small form page:
//
//	<form name="input"> check1 check2 q submit </form>
//	<div id="foo"><h3>This is a heading</h3><p>... <a href="http://golang.com">longwordlinktogolang</a></p></div>
func elementsPage(b *hubtest.Browser) {
	b.Title = "webdriver elements"
	b.Source = "<html><body>elements</body></html>"
	visible := func(e *hubtest.Element) *hubtest.Element {
		e.Displayed, e.Enabled = true, true
		return e
	}
	b.AddElement(visible(&hubtest.Element{ID: "form", Tag: "form", Attrs: map[string]string{"name": "input"},
		Children: []string{"check1", "check2", "q", "submit"}}))
	b.AddElement(visible(&hubtest.Element{ID: "check1", Tag: "input", Attrs: map[string]string{"type": "checkbox", "name": "check1", "value": "Check1"}}))
	b.AddElement(visible(&hubtest.Element{ID: "check2", Tag: "input", Attrs: map[string]string{"type": "checkbox", "name": "check2", "value": "Check2"}}))
	b.AddElement(visible(&hubtest.Element{ID: "q", Tag: "input", Attrs: map[string]string{"type": "text", "name": "q"}}))
	b.AddElement(&hubtest.Element{ID: "submit", Tag: "input", Displayed: true, Attrs: map[string]string{"type": "submit", "value": "Submit"}})
	b.AddElement(visible(&hubtest.Element{ID: "foo", Tag: "div", Attrs: map[string]string{"id": "foo"},
		CSS: map[string]string{"color": "rgba(0, 0, 255, 1)"}, Children: []string{"heading", "para"}}))
	b.AddElement(visible(&hubtest.Element{ID: "heading", Tag: "h3", Text: "This is a heading"}))
	b.AddElement(visible(&hubtest.Element{ID: "para", Tag: "p", Text: "This is a longwordlinktogolang to a page served by a go server.",
		Children: []string{"link"}}))
	b.AddElement(visible(&hubtest.Element{ID: "link", Tag: "a", Text: "longwordlinktogolang",
		Attrs: map[string]string{"href": "http://golang.com"}, X: 10, Y: 20, Width: 140, Height: 16}))
	b.AddElement(visible(&hubtest.Element{ID: "frame", Tag: "iframe", Attrs: map[string]string{"name": "inner"}}))
}

func newExecutor(t *testing.T, hub *hubtest.Hub) *HTTPCommandExecutor {
	t.Helper()
	ex, err := NewHTTPCommandExecutor(hub.URL(), WithLogger(zaptest.NewLogger(t)))
	require.NoError(t, err)
	t.Cleanup(ex.Close)
	return ex
}

func newSession(t *testing.T) (*RemoteWebDriver, *hubtest.Hub) {
	t.Helper()
	hub := hubtest.New(elementsPage)
	t.Cleanup(hub.Close)
	wd, err := NewRemoteWebDriver(context.Background(), newExecutor(t, hub), Firefox())
	require.NoError(t, err)
	return wd, hub
}

func TestStatus(t *testing.T) {
	hub := hubtest.New(nil)
	defer hub.Close()

	status, err := ServerStatus(context.Background(), newExecutor(t, hub))
	require.NoError(t, err)
	assert.Equal(t, "2.35.0", status.Build.Version)
	assert.Equal(t, "Linux", status.OS.Name)
}

func TestCreateSession(t *testing.T) {
	ctx := context.Background()
	wd, hub := newSession(t)

	require.NotEmpty(t, wd.SessionID())
	assert.Equal(t, []string{string(wd.SessionID())}, hub.Sessions())

	caps := wd.Capabilities()
	assert.Equal(t, "firefox", caps.BrowserName)
	assert.Equal(t, "1.0", caps.Version)
	assert.Equal(t, PlatformAny, caps.Platform)
	assert.True(t, caps.JavascriptEnabled)

	remote, err := wd.RemoteCapabilities(ctx)
	require.NoError(t, err)
	assert.Equal(t, caps, remote)

	req, ok := hub.LastRequest("newSession")
	require.True(t, ok)
	assert.Equal(t, "application/json;charset=utf-8", req.Header.Get("Content-Type"))
	assert.Equal(t, "ANY", req.Param("platform"))
}

func TestCreateSessionRejected(t *testing.T) {
	hub := hubtest.New(nil)
	defer hub.Close()

	_, err := NewRemoteWebDriver(context.Background(), newExecutor(t, hub), Capabilities{})
	require.Error(t, err)
	var werr *Error
	require.True(t, errors.As(err, &werr))
	assert.Equal(t, "browserName is required", werr.Message)
	assert.Empty(t, hub.Sessions())
}

func TestTimeouts(t *testing.T) {
	wd, hub := newSession(t)

	require.NoError(t, wd.ImplicitlyWait(context.Background(), 1500*time.Millisecond))
	hub.Browser(string(wd.SessionID()), func(b *hubtest.Browser) {
		assert.Equal(t, int64(1500), b.ImplicitWait)
	})
}

func TestUrl(t *testing.T) {
	ctx := context.Background()
	wd, _ := newSession(t)

	require.NoError(t, wd.Get(ctx, "http://127.0.0.1/simple"))
	for i := 0; i < 2; i++ {
		url, err := wd.CurrentURL(ctx)
		require.NoError(t, err)
		assert.Equal(t, "http://127.0.0.1/simple", url)
	}
	require.NoError(t, wd.Get(ctx, "http://127.0.0.1/simple2"))

	require.NoError(t, wd.Back(ctx))
	url, err := wd.CurrentURL(ctx)
	require.NoError(t, err)
	assert.Equal(t, "http://127.0.0.1/simple", url)

	require.NoError(t, wd.Forward(ctx))
	url, err = wd.CurrentURL(ctx)
	require.NoError(t, err)
	assert.Equal(t, "http://127.0.0.1/simple2", url)

	require.NoError(t, wd.Refresh(ctx))

	title, err := wd.Title(ctx)
	require.NoError(t, err)
	assert.Equal(t, "webdriver elements", title)

	source, err := wd.PageSource(ctx)
	require.NoError(t, err)
	assert.Contains(t, source, "elements")
}

func TestExecuteScript(t *testing.T) {
	ctx := context.Background()
	wd, hub := newSession(t)

	res, err := wd.ExecuteScript(ctx, "return document.title")
	require.NoError(t, err)
	assert.Equal(t, "webdriver elements", res)

	res, err = wd.ExecuteScript(ctx, "return arguments[0];", 42)
	require.NoError(t, err)
	assert.Equal(t, int64(42), res)

	res, err = wd.ExecuteScript(ctx, "return 1.5")
	require.NoError(t, err)
	assert.Equal(t, 1.5, res)

	res, err = wd.ExecuteScript(ctx, "return null")
	require.NoError(t, err)
	assert.Nil(t, res)

	link := wd.WebElementFromID("link")
	res, err = wd.ExecuteScript(ctx, "return arguments", "a", true, link)
	require.NoError(t, err)
	list, ok := res.([]interface{})
	require.True(t, ok)
	require.Len(t, list, 3)
	assert.Equal(t, "a", list[0])
	assert.Equal(t, true, list[1])
	el, ok := list[2].(*RemoteWebElement)
	require.True(t, ok)
	assert.Equal(t, "link", el.ID())
	assert.Same(t, wd, el.Driver())

	req, ok := hub.LastRequest("executeScript")
	require.True(t, ok)
	assert.Equal(t, []interface{}{
		map[string]interface{}{"type": "STRING", "value": "a"},
		map[string]interface{}{"type": "BOOLEAN", "value": true},
		map[string]interface{}{"type": "ELEMENT", "value": "link"},
	}, req.Param("args"))

	_, err = wd.ExecuteScript(ctx, "return arguments[0]", struct{}{})
	assert.Error(t, err)
}

func TestScreenshot(t *testing.T) {
	wd, _ := newSession(t)

	data, err := wd.Screenshot(context.Background())
	require.NoError(t, err)
	img, err := png.Decode(bytes.NewReader(data))
	require.NoError(t, err)
	assert.Equal(t, 2, img.Bounds().Dx())
}

func TestWindow(t *testing.T) {
	ctx := context.Background()
	wd, hub := newSession(t)

	handle, err := wd.CurrentWindowHandle(ctx)
	require.NoError(t, err)
	handles, err := wd.WindowHandles(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{handle}, handles)

	require.NoError(t, wd.SwitchToWindow(ctx, handle))
	err = wd.SwitchToWindow(ctx, "nowhere")
	assert.ErrorIs(t, err, ErrNoSuchWindow)

	require.NoError(t, wd.SwitchToFrame(ctx, "inner"))
	require.NoError(t, wd.SwitchToFrameIndex(ctx, 0))
	req, ok := hub.LastRequest("switchToFrame")
	require.True(t, ok)
	assert.Equal(t, float64(0), req.Param("id"), "an index travels as a JSON number")
	assert.ErrorIs(t, wd.SwitchToFrame(ctx, "0"), ErrNoSuchFrame, "a string selects by id or name")
	assert.ErrorIs(t, wd.SwitchToFrameIndex(ctx, 1), ErrNoSuchFrame)
	require.NoError(t, wd.SwitchToDefaultContent(ctx))
	assert.ErrorIs(t, wd.SwitchToFrame(ctx, "missing"), ErrNoSuchFrame)

	require.NoError(t, wd.Close(ctx))
	handles, err = wd.WindowHandles(ctx)
	require.NoError(t, err)
	assert.Empty(t, handles)
	assert.NotEmpty(t, wd.SessionID(), "closing the last window keeps the session")
}

func TestCookie(t *testing.T) {
	ctx := context.Background()
	wd, _ := newSession(t)

	expiry := time.Unix(1700000000, 0)
	require.NoError(t, wd.AddCookie(ctx, Cookie{Name: "a", Value: "1", Path: "/", Expiry: &expiry}))
	require.NoError(t, wd.AddCookie(ctx, Cookie{Name: "b", Value: "2", Secure: true}))

	cookies, err := wd.Cookies(ctx)
	require.NoError(t, err)
	require.Len(t, cookies, 2)
	assert.Equal(t, "a", cookies[0].Name)
	assert.Equal(t, "/", cookies[0].Path)
	require.NotNil(t, cookies[0].Expiry)
	assert.True(t, expiry.Equal(*cookies[0].Expiry))
	assert.True(t, cookies[1].Secure)
	assert.Nil(t, cookies[1].Expiry)

	c, ok, err := wd.CookieNamed(ctx, "b")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "2", c.Value)

	require.NoError(t, wd.DeleteCookie(ctx, c))
	_, ok, err = wd.CookieNamed(ctx, "b")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, wd.DeleteAllCookies(ctx))
	cookies, err = wd.Cookies(ctx)
	require.NoError(t, err)
	assert.Empty(t, cookies)
}

func TestSpeed(t *testing.T) {
	ctx := context.Background()
	wd, _ := newSession(t)

	require.NoError(t, wd.SetSpeed(ctx, SpeedSlow))
	speed, err := wd.Speed(ctx)
	require.NoError(t, err)
	assert.Equal(t, SpeedSlow, speed)
}

func TestElements(t *testing.T) {
	ctx := context.Background()
	wd, hub := newSession(t)

	inputs, err := wd.FindElements(ctx, ByTagName("input"))
	require.NoError(t, err)
	assert.Len(t, inputs, 4)

	none, err := wd.FindElements(ctx, ByTagName("table"))
	require.NoError(t, err)
	assert.Empty(t, none)

	check1, err := wd.FindElement(ctx, ByName("check1"))
	require.NoError(t, err)
	assert.Equal(t, "check1", check1.ID())
	selected, err := check1.IsSelected(ctx)
	require.NoError(t, err)
	assert.False(t, selected)
	require.NoError(t, check1.Click(ctx))
	selected, err = check1.IsSelected(ctx)
	require.NoError(t, err)
	assert.True(t, selected)

	active, err := wd.ActiveElement(ctx)
	require.NoError(t, err)
	same, err := active.Equals(ctx, check1)
	require.NoError(t, err)
	assert.True(t, same)

	toggled, err := check1.Toggle(ctx)
	require.NoError(t, err)
	assert.False(t, toggled)
	require.NoError(t, check1.SetSelected(ctx))
	selected, err = check1.IsSelected(ctx)
	require.NoError(t, err)
	assert.True(t, selected)

	q, err := wd.FindElement(ctx, ByCSSSelector("input"))
	require.NoError(t, err)
	assert.Equal(t, "check1", q.ID(), "first match in page order")
	q, err = wd.FindElement(ctx, ByName("q"))
	require.NoError(t, err)
	require.NoError(t, q.SendKeys(ctx, "héllo"))
	value, err := q.Value(ctx)
	require.NoError(t, err)
	assert.Equal(t, "héllo", value)
	req, ok := hub.LastRequest("sendKeysToElement")
	require.True(t, ok)
	assert.Equal(t, []interface{}{"h", "é", "l", "l", "o"}, req.Param("value"))
	require.NoError(t, q.Clear(ctx))
	value, err = q.Value(ctx)
	require.NoError(t, err)
	assert.Empty(t, value)

	foo, err := wd.FindElement(ctx, ByID("foo"))
	require.NoError(t, err)
	color, err := foo.CSSValue(ctx, "color")
	require.NoError(t, err)
	assert.Equal(t, "rgba(0, 0, 255, 1)", color)

	heading, err := foo.FindElement(ctx, ByTagName("h3"))
	require.NoError(t, err)
	text, err := heading.Text(ctx)
	require.NoError(t, err)
	assert.Equal(t, "This is a heading", text)
	tag, err := heading.TagName(ctx)
	require.NoError(t, err)
	assert.Equal(t, "h3", tag)

	links, err := foo.FindElements(ctx, ByPartialLinkText("longword"))
	require.NoError(t, err)
	require.Len(t, links, 1)
	link := links[0]
	href, err := link.Attribute(ctx, "href")
	require.NoError(t, err)
	assert.Equal(t, "http://golang.com", href)
	missing, err := link.Attribute(ctx, "title")
	require.NoError(t, err)
	assert.Empty(t, missing)

	enabled, err := link.IsEnabled(ctx)
	require.NoError(t, err)
	assert.True(t, enabled)
	displayed, err := link.IsDisplayed(ctx)
	require.NoError(t, err)
	assert.True(t, displayed)

	size, err := link.Size(ctx)
	require.NoError(t, err)
	assert.Equal(t, Size{Width: 140, Height: 16}, size)
	require.NoError(t, link.Hover(ctx))
	require.NoError(t, link.DragBy(ctx, 5, -5))
	pos, err := link.Location(ctx)
	require.NoError(t, err)
	assert.Equal(t, Position{X: 15, Y: 15}, pos)

	same, err = link.Equals(ctx, heading)
	require.NoError(t, err)
	assert.False(t, same)

	form, err := wd.FindElement(ctx, ByName("input"))
	require.NoError(t, err)
	require.NoError(t, form.Submit(ctx))

	require.NoError(t, link.Click(ctx))
	url, err := wd.CurrentURL(ctx)
	require.NoError(t, err)
	assert.Equal(t, "http://golang.com", url)
}

func TestElementErrors(t *testing.T) {
	ctx := context.Background()
	wd, hub := newSession(t)

	_, err := wd.FindElement(ctx, ByName("nothing"))
	require.Error(t, err)
	assert.True(t, IsNoSuchElement(err))
	var werr *Error
	require.True(t, errors.As(err, &werr))
	assert.Equal(t, ErrorNoSuchElement, werr.Kind)
	assert.Equal(t, CmdFindElement, werr.Command)
	assert.Equal(t, `Unable to locate element: {"method":"name","selector":"nothing"}`, werr.Message)
	assert.Equal(t, 500, werr.StatusCode)
	require.NotNil(t, werr.Response)
	assert.Equal(t, "org.openqa.selenium.NoSuchElementException", werr.Response.ClassName)

	heading := wd.WebElementFromID("heading")
	_, err = heading.Toggle(ctx)
	assert.ErrorIs(t, err, ErrNotImplemented)
	assert.NotErrorIs(t, err, ErrNotSupported)

	_, err = heading.FindElement(ctx, ByTagName("table"))
	assert.ErrorIs(t, err, ErrNoSuchElement)

	_, err = wd.WebElementFromID("gone").Text(ctx)
	assert.ErrorIs(t, err, ErrStaleElementReference)

	err = wd.WebElementFromID("submit").SetSelected(ctx)
	assert.ErrorIs(t, err, ErrInvalidOperation)

	hub.Browser(string(wd.SessionID()), func(b *hubtest.Browser) {
		b.Elements["link"].Displayed = false
	})
	err = wd.WebElementFromID("link").Click(ctx)
	assert.ErrorIs(t, err, ErrElementNotVisible)

	// the session survives failed commands
	_, err = wd.Title(ctx)
	assert.NoError(t, err)
}

func TestNonJSONError(t *testing.T) {
	wd, hub := newSession(t)

	hub.Fail("getTitle", hubtest.Failure{Status: 500, ContentType: "text/html", Body: "<html>proxy error</html>"})
	_, err := wd.Title(context.Background())
	require.Error(t, err)
	var werr *Error
	require.True(t, errors.As(err, &werr))
	assert.Equal(t, ErrorUnknown, werr.Kind)
	assert.Equal(t, "Internal Server Error", werr.Message)
	assert.ErrorIs(t, err, ErrWebDriver)

	hub.Fail("getTitle", hubtest.Failure{Status: 500, ContentType: "application/json", Body: "{not json"})
	_, err = wd.Title(context.Background())
	require.True(t, errors.As(err, &werr))
	assert.Equal(t, "{not json", werr.Message)
}

func TestQuit(t *testing.T) {
	ctx := context.Background()
	wd, hub := newSession(t)

	require.NoError(t, wd.Quit(ctx))
	assert.Empty(t, wd.SessionID())
	assert.Empty(t, hub.Sessions())

	_, err := wd.Title(ctx)
	assert.ErrorIs(t, err, ErrNoActiveSession)
	assert.ErrorIs(t, wd.Quit(ctx), ErrNoActiveSession)
}

func TestQuitAfterTransportError(t *testing.T) {
	ctx := context.Background()
	wd, hub := newSession(t)
	hub.Close()

	err := wd.Quit(ctx)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrTransport)
	assert.Empty(t, wd.SessionID())

	_, err = wd.CurrentURL(ctx)
	assert.ErrorIs(t, err, ErrNoActiveSession)
}

func TestAttach(t *testing.T) {
	ctx := context.Background()
	wd, hub := newSession(t)

	other := Attach(newExecutor(t, hub), wd.SessionID(), wd.Capabilities())
	require.NoError(t, other.Get(ctx, "http://127.0.0.1/attached"))
	url, err := wd.CurrentURL(ctx)
	require.NoError(t, err)
	assert.Equal(t, "http://127.0.0.1/attached", url)
}

func TestConcurrentCommands(t *testing.T) {
	ctx := context.Background()
	wd, _ := newSession(t)

	done := make(chan error)
	for i := 0; i < 8; i++ {
		go func() {
			_, err := wd.Title(ctx)
			done <- err
		}()
	}
	for i := 0; i < 8; i++ {
		assert.NoError(t, <-done)
	}
}
