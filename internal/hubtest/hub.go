// Package hubtest runs an in-process remote end that speaks the JSON wire
// protocol over a fake page model. It backs the tests of the client and of
// the wdctl command.
package hubtest

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
)

// BasePath is where the hub mounts its routes, as a Selenium hub does.
const BasePath = "/wd/hub"

// Request is one request received by the hub.
type Request struct {
	Route  string
	Method string
	Path   string
	Header http.Header
	// Params is the decoded JSON body, nil for bodiless requests.
	Params []interface{}
}

// Param returns a field of the first parameter object.
func (r Request) Param(name string) interface{} {
	if len(r.Params) == 0 {
		return nil
	}
	m, _ := r.Params[0].(map[string]interface{})
	return m[name]
}

// Failure is a canned reply that replaces the normal handling of a route.
type Failure struct {
	Status      int
	ContentType string
	Body        string
}

// Hub is a fake remote end. Create it with New and stop it with Close.
type Hub struct {
	server *httptest.Server

	mu       sync.Mutex
	sessions map[string]*Browser
	setup    func(*Browser)
	failures map[string]Failure
	requests []Request
}

// New starts a hub. setup, when not nil, prepares the page of every new
// session.
func New(setup func(*Browser)) *Hub {
	h := &Hub{
		sessions: map[string]*Browser{},
		failures: map[string]Failure{},
		setup:    setup,
	}
	r := chi.NewRouter()
	r.Route(BasePath, h.routes)
	h.server = httptest.NewServer(r)
	return h
}

// URL is the server URL to hand to an executor.
func (h *Hub) URL() string { return h.server.URL + BasePath }

func (h *Hub) Close() { h.server.Close() }

// Fail makes every later call of the named route reply with f. Routes are
// named after the commands they serve, e.g. "findElement".
func (h *Hub) Fail(route string, f Failure) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.failures[route] = f
}

// Recover undoes Fail.
func (h *Hub) Recover(route string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	delete(h.failures, route)
}

// Requests returns the requests received so far.
func (h *Hub) Requests() []Request {
	h.mu.Lock()
	defer h.mu.Unlock()
	return append([]Request(nil), h.requests...)
}

// LastRequest returns the most recent request of the named route.
func (h *Hub) LastRequest(route string) (Request, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for i := len(h.requests) - 1; i >= 0; i-- {
		if h.requests[i].Route == route {
			return h.requests[i], true
		}
	}
	return Request{}, false
}

// Sessions lists the ids of the live sessions.
func (h *Hub) Sessions() []string {
	h.mu.Lock()
	defer h.mu.Unlock()
	ids := make([]string, 0, len(h.sessions))
	for id := range h.sessions {
		ids = append(ids, id)
	}
	return ids
}

// Browser runs fn on the state of a live session, under the hub lock.
func (h *Hub) Browser(sessionID string, fn func(*Browser)) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	b, ok := h.sessions[sessionID]
	if ok {
		fn(b)
	}
	return ok
}

// ElementURL is the reference the hub returns for an element.
func (h *Hub) ElementURL(sessionID, elementID string) string {
	return h.URL() + "/session/" + sessionID + "/element/" + elementID
}

// call is the state a handler works with.
type call struct {
	w       http.ResponseWriter
	r       *http.Request
	req     Request
	session string
	browser *Browser
}

func (c *call) param(name string) interface{} { return c.req.Param(name) }

func (c *call) stringParam(name string) string {
	s, _ := c.param(name).(string)
	return s
}

func (c *call) element() (*Element, bool) {
	e, ok := c.browser.Elements[chi.URLParam(c.r, "id")]
	if !ok {
		c.exception(http.StatusInternalServerError, "StaleElementReferenceException", "Element not found in the cache")
	}
	return e, ok
}

type handler func(h *Hub, c *call)

// handle registers fn under a route name. Session handlers run with the
// session's browser, under the hub lock.
func (h *Hub) handle(r chi.Router, method, pattern, route string, session bool, fn handler) {
	r.MethodFunc(method, pattern, func(w http.ResponseWriter, req *http.Request) {
		c := &call{w: w, r: req, req: Request{
			Route:  route,
			Method: req.Method,
			Path:   req.URL.Path,
			Header: req.Header.Clone(),
		}}
		if req.Body != nil {
			data, _ := io.ReadAll(req.Body)
			if len(bytes.TrimSpace(data)) > 0 {
				if err := json.Unmarshal(data, &c.req.Params); err != nil {
					http.Error(w, "malformed body: "+err.Error(), http.StatusBadRequest)
					return
				}
			}
		}
		h.mu.Lock()
		defer h.mu.Unlock()
		h.requests = append(h.requests, c.req)
		if f, ok := h.failures[route]; ok {
			if f.ContentType != "" {
				w.Header().Set("Content-Type", f.ContentType)
			}
			w.WriteHeader(f.Status)
			io.WriteString(w, f.Body)
			return
		}
		if session {
			c.session = chi.URLParam(req, "sessionId")
			b, ok := h.sessions[c.session]
			if !ok {
				c.exception(http.StatusNotFound, "NoSuchSessionException", "Session "+c.session+" not found")
				return
			}
			c.browser = b
		}
		fn(h, c)
	})
}

func (c *call) reply(status int, value interface{}) {
	body := map[string]interface{}{"value": value, "status": 0}
	if c.session != "" {
		body["sessionId"] = c.session
	}
	c.w.Header().Set("Content-Type", "application/json;charset=UTF-8")
	c.w.WriteHeader(status)
	json.NewEncoder(c.w).Encode(body)
}

func (c *call) ok(value interface{}) { c.reply(http.StatusOK, value) }

// exception replies with a remote exception of the given class, named by its
// simple name.
func (c *call) exception(status int, class, message string) {
	body := map[string]interface{}{
		"sessionId": c.session,
		"status":    13,
		"error":     true,
		"value": map[string]interface{}{
			"message": message,
			"class":   "org.openqa.selenium." + class,
		},
	}
	c.w.Header().Set("Content-Type", "application/json;charset=UTF-8")
	c.w.WriteHeader(status)
	json.NewEncoder(c.w).Encode(body)
}

func (h *Hub) newSession(c *call) {
	caps := map[string]interface{}{}
	if len(c.req.Params) > 0 {
		if m, ok := c.req.Params[0].(map[string]interface{}); ok {
			for k, v := range m {
				caps[k] = v
			}
		}
	}
	if name, _ := caps["browserName"].(string); name == "" {
		c.exception(http.StatusInternalServerError, "SessionNotCreatedException", "browserName is required")
		return
	}
	if v, _ := caps["version"].(string); v == "" {
		caps["version"] = "1.0"
	}
	b := NewBrowser()
	b.Capabilities = caps
	if h.setup != nil {
		h.setup(b)
	}
	c.session = uuid.NewString()
	h.sessions[c.session] = b
	c.ok(caps)
}

func (h *Hub) quit(c *call) {
	delete(h.sessions, c.session)
	c.ok(nil)
}

func status(_ *Hub, c *call) {
	c.ok(map[string]interface{}{
		"build": map[string]interface{}{"version": "2.35.0", "revision": "c916b9d", "time": "2013-08-12 15:42:01"},
		"os":    map[string]interface{}{"arch": "amd64", "name": "Linux", "version": "3.10"},
	})
}

func (h *Hub) routes(r chi.Router) {
	h.handle(r, "GET", "/status", "status", false, status)
	h.handle(r, "POST", "/session", "newSession", false, (*Hub).newSession)
	r.Route("/session/{sessionId}", func(r chi.Router) {
		h.handle(r, "GET", "/", "getSessionCapabilities", true, func(_ *Hub, c *call) { c.ok(c.browser.Capabilities) })
		h.handle(r, "DELETE", "/", "quit", true, (*Hub).quit)
		r.Route("/{context}", h.sessionRoutes)
	})
}

func (h *Hub) sessionRoutes(r chi.Router) {
	h.handle(r, "POST", "/timeouts/implicit_wait", "implicitlyWait", true, implicitlyWait)

	h.handle(r, "POST", "/url", "get", true, get)
	h.handle(r, "GET", "/url", "getCurrentUrl", true, func(_ *Hub, c *call) { c.ok(c.browser.URL) })
	h.handle(r, "POST", "/back", "goBack", true, back)
	h.handle(r, "POST", "/forward", "goForward", true, forward)
	h.handle(r, "POST", "/refresh", "refresh", true, func(_ *Hub, c *call) { c.ok(nil) })
	h.handle(r, "GET", "/title", "getTitle", true, func(_ *Hub, c *call) { c.ok(c.browser.Title) })
	h.handle(r, "GET", "/source", "getPageSource", true, func(_ *Hub, c *call) { c.ok(c.browser.Source) })
	h.handle(r, "GET", "/screenshot", "screenshot", true, screenshot)
	h.handle(r, "POST", "/execute", "executeScript", true, executeScript)

	h.handle(r, "POST", "/element", "findElement", true, findElement)
	h.handle(r, "POST", "/elements", "findElements", true, findElements)
	h.handle(r, "POST", "/element/active", "getActiveElement", true, activeElement)
	r.Route("/element/{id}", h.elementRoutes)

	h.handle(r, "GET", "/cookie", "getAllCookies", true, func(_ *Hub, c *call) { c.ok(c.browser.Cookies) })
	h.handle(r, "POST", "/cookie", "addCookie", true, addCookie)
	h.handle(r, "DELETE", "/cookie", "deleteAllCookies", true, func(_ *Hub, c *call) {
		c.browser.Cookies = nil
		c.ok(nil)
	})
	h.handle(r, "DELETE", "/cookie/{name}", "deleteCookie", true, deleteCookie)

	h.handle(r, "GET", "/window_handles", "getWindowHandles", true, func(_ *Hub, c *call) { c.ok(c.browser.Windows) })
	h.handle(r, "GET", "/window_handle", "getCurrentWindowHandle", true, func(_ *Hub, c *call) { c.ok(c.browser.CurrentWindow) })
	h.handle(r, "POST", "/window/{name}", "switchToWindow", true, switchToWindow)
	h.handle(r, "DELETE", "/window", "close", true, closeWindow)
	h.handle(r, "POST", "/frame/", "switchToFrame", true, switchToFrame)
	h.handle(r, "POST", "/frame/{frame}", "switchToFrame", true, switchToFrame)

	h.handle(r, "GET", "/speed", "getSpeed", true, func(_ *Hub, c *call) { c.ok(c.browser.Speed) })
	h.handle(r, "POST", "/speed", "setSpeed", true, setSpeed)
}

func (h *Hub) elementRoutes(r chi.Router) {
	h.handle(r, "POST", "/element/{using}", "findChildElement", true, findChildElement)
	h.handle(r, "POST", "/elements/{using}", "findChildElements", true, findChildElements)
	h.handle(r, "POST", "/click", "clickElement", true, click)
	h.handle(r, "POST", "/submit", "submitElement", true, elementNoop)
	h.handle(r, "POST", "/clear", "clearElement", true, clearElement)
	h.handle(r, "POST", "/value", "sendKeysToElement", true, sendKeys)
	h.handle(r, "GET", "/value", "getElementValue", true, elementField(func(e *Element) interface{} { return e.Value }))
	h.handle(r, "GET", "/text", "getElementText", true, elementField(func(e *Element) interface{} { return e.Text }))
	h.handle(r, "GET", "/name", "getElementTagName", true, elementField(func(e *Element) interface{} { return strings.ToLower(e.Tag) }))
	h.handle(r, "GET", "/selected", "isElementSelected", true, elementField(func(e *Element) interface{} { return e.Selected }))
	h.handle(r, "POST", "/selected", "setElementSelected", true, setSelected)
	h.handle(r, "POST", "/toggle", "toggleElement", true, toggle)
	h.handle(r, "GET", "/enabled", "isElementEnabled", true, elementField(func(e *Element) interface{} { return e.Enabled }))
	h.handle(r, "GET", "/displayed", "isElementDisplayed", true, elementField(func(e *Element) interface{} { return e.Displayed }))
	h.handle(r, "GET", "/location", "getElementLocation", true, elementField(func(e *Element) interface{} {
		return map[string]int{"x": e.X, "y": e.Y}
	}))
	h.handle(r, "GET", "/size", "getElementSize", true, elementField(func(e *Element) interface{} {
		return map[string]int{"width": e.Width, "height": e.Height}
	}))
	h.handle(r, "GET", "/attribute/{name}", "getElementAttribute", true, attribute)
	h.handle(r, "GET", "/css/{propertyName}", "getElementValueOfCssProperty", true, cssValue)
	h.handle(r, "GET", "/equals/{other}", "elementEquals", true, equals)
	h.handle(r, "POST", "/hover", "hoverOverElement", true, elementNoop)
	h.handle(r, "POST", "/drag", "dragElement", true, drag)
}
