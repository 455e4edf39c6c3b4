package hubtest

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
)

func implicitlyWait(_ *Hub, c *call) {
	ms, _ := c.param("ms").(float64)
	c.browser.ImplicitWait = int64(ms)
	c.ok(nil)
}

func get(_ *Hub, c *call) {
	url := c.stringParam("url")
	if url == "" {
		c.exception(http.StatusInternalServerError, "WebDriverException", "url is required")
		return
	}
	c.browser.navigate(url)
	c.ok(nil)
}

func back(_ *Hub, c *call) {
	b := c.browser
	if n := len(b.History); n > 0 {
		b.Forward = append(b.Forward, b.URL)
		b.URL = b.History[n-1]
		b.History = b.History[:n-1]
	}
	c.ok(nil)
}

func forward(_ *Hub, c *call) {
	b := c.browser
	if n := len(b.Forward); n > 0 {
		b.History = append(b.History, b.URL)
		b.URL = b.Forward[n-1]
		b.Forward = b.Forward[:n-1]
	}
	c.ok(nil)
}

// Screenshot is the PNG the hub returns for every screenshot request.
func Screenshot() []byte {
	img := image.NewRGBA(image.Rect(0, 0, 2, 2))
	img.Set(0, 0, color.RGBA{R: 255, A: 255})
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		panic(err)
	}
	return buf.Bytes()
}

func screenshot(_ *Hub, c *call) {
	c.ok(base64.StdEncoding.EncodeToString(Screenshot()))
}

func scriptValue(typ string, v interface{}) map[string]interface{} {
	return map[string]interface{}{"type": typ, "value": v}
}

// executeScript understands a handful of literal scripts, enough to see
// arguments and results make the round trip.
func executeScript(h *Hub, c *call) {
	script := strings.TrimSpace(strings.TrimSuffix(strings.TrimSpace(c.stringParam("script")), ";"))
	args, _ := c.param("args").([]interface{})
	echo := func(arg interface{}) interface{} {
		m, ok := arg.(map[string]interface{})
		if !ok {
			return arg
		}
		if m["type"] == "ELEMENT" {
			id, _ := m["value"].(string)
			return scriptValue("ELEMENT", h.ElementURL(c.session, id))
		}
		return m
	}
	expr, ok := strings.CutPrefix(script, "return ")
	if !ok {
		c.ok(scriptValue("NULL", nil))
		return
	}
	expr = strings.TrimSpace(expr)
	switch {
	case expr == "arguments":
		out := make([]interface{}, len(args))
		for i, a := range args {
			out[i] = echo(a)
		}
		c.ok(out)
	case strings.HasPrefix(expr, "arguments[") && strings.HasSuffix(expr, "]"):
		i, err := strconv.Atoi(expr[len("arguments[") : len(expr)-1])
		if err != nil || i < 0 || i >= len(args) {
			c.ok(scriptValue("NULL", nil))
			return
		}
		c.ok(echo(args[i]))
	case expr == "document.title":
		c.ok(scriptValue("STRING", c.browser.Title))
	case expr == "null" || expr == "undefined":
		c.ok(scriptValue("NULL", nil))
	case expr == "true" || expr == "false":
		c.ok(scriptValue("BOOLEAN", expr == "true"))
	case len(expr) >= 2 && (expr[0] == '\'' || expr[0] == '"') && expr[len(expr)-1] == expr[0]:
		c.ok(scriptValue("STRING", expr[1:len(expr)-1]))
	default:
		if n, err := strconv.ParseFloat(expr, 64); err == nil {
			c.ok(scriptValue("NUMBER", n))
			return
		}
		c.exception(http.StatusInternalServerError, "WebDriverException", "unsupported script: "+script)
	}
}

func (h *Hub) refs(c *call, ids []string) []string {
	refs := make([]string, len(ids))
	for i, id := range ids {
		refs[i] = h.ElementURL(c.session, id)
	}
	return refs
}

func notFound(c *call, using, value string) {
	c.exception(http.StatusInternalServerError, "NoSuchElementException",
		fmt.Sprintf("Unable to locate element: {\"method\":%q,\"selector\":%q}", using, value))
}

func locate(h *Hub, c *call, scope []string, single bool) {
	using, value := c.stringParam("using"), c.stringParam("value")
	if using == "" {
		using = chi.URLParam(c.r, "using")
	}
	ids := c.browser.find(scope, using, value)
	if !single {
		c.ok(h.refs(c, ids))
		return
	}
	if len(ids) == 0 {
		notFound(c, using, value)
		return
	}
	c.ok(h.ElementURL(c.session, ids[0]))
}

func findElement(h *Hub, c *call)  { locate(h, c, c.browser.Order, true) }
func findElements(h *Hub, c *call) { locate(h, c, c.browser.Order, false) }

func findChildElement(h *Hub, c *call) {
	if e, ok := c.element(); ok {
		locate(h, c, c.browser.descendants(e.ID), true)
	}
}

func findChildElements(h *Hub, c *call) {
	if e, ok := c.element(); ok {
		locate(h, c, c.browser.descendants(e.ID), false)
	}
}

func activeElement(h *Hub, c *call) {
	if c.browser.Active == "" {
		c.exception(http.StatusInternalServerError, "NoSuchElementException", "No element has focus")
		return
	}
	c.ok(h.ElementURL(c.session, c.browser.Active))
}

func elementField(field func(*Element) interface{}) handler {
	return func(_ *Hub, c *call) {
		if e, ok := c.element(); ok {
			c.ok(field(e))
		}
	}
}

func elementNoop(_ *Hub, c *call) {
	if _, ok := c.element(); ok {
		c.ok(nil)
	}
}

func isCheckable(e *Element) bool {
	return e.Attrs["type"] == "checkbox" || strings.EqualFold(e.Tag, "option")
}

func click(_ *Hub, c *call) {
	e, ok := c.element()
	if !ok {
		return
	}
	if !e.Displayed {
		c.exception(http.StatusInternalServerError, "ElementNotVisibleException", "Element is not currently visible and so may not be interacted with")
		return
	}
	c.browser.Active = e.ID
	if isCheckable(e) {
		e.Selected = !e.Selected
	}
	if href := e.Attrs["href"]; href != "" {
		c.browser.navigate(href)
	}
	c.ok(nil)
}

func clearElement(_ *Hub, c *call) {
	if e, ok := c.element(); ok {
		e.Value = ""
		c.ok(nil)
	}
}

func sendKeys(_ *Hub, c *call) {
	e, ok := c.element()
	if !ok {
		return
	}
	keys, _ := c.param("value").([]interface{})
	var b strings.Builder
	for _, k := range keys {
		s, _ := k.(string)
		b.WriteString(s)
	}
	e.Value += b.String()
	c.browser.Active = e.ID
	c.ok(nil)
}

func setSelected(_ *Hub, c *call) {
	e, ok := c.element()
	if !ok {
		return
	}
	if !e.Enabled {
		c.exception(http.StatusInternalServerError, "InvalidElementStateException", "Cannot select a disabled element")
		return
	}
	e.Selected = true
	c.ok(nil)
}

func toggle(_ *Hub, c *call) {
	e, ok := c.element()
	if !ok {
		return
	}
	if !isCheckable(e) {
		c.exception(http.StatusInternalServerError, "UnsupportedOperationException", "You may only toggle checkboxes or options in a select which allows multiple selections")
		return
	}
	e.Selected = !e.Selected
	c.ok(e.Selected)
}

func attribute(_ *Hub, c *call) {
	e, ok := c.element()
	if !ok {
		return
	}
	name := chi.URLParam(c.r, "name")
	if v, ok := e.Attrs[name]; ok {
		c.ok(v)
		return
	}
	c.ok(nil)
}

func cssValue(_ *Hub, c *call) {
	if e, ok := c.element(); ok {
		c.ok(e.CSS[chi.URLParam(c.r, "propertyName")])
	}
}

func equals(_ *Hub, c *call) {
	if e, ok := c.element(); ok {
		c.ok(e.ID == chi.URLParam(c.r, "other"))
	}
}

func drag(_ *Hub, c *call) {
	e, ok := c.element()
	if !ok {
		return
	}
	dx, _ := c.param("x").(float64)
	dy, _ := c.param("y").(float64)
	e.X += int(dx)
	e.Y += int(dy)
	c.ok(nil)
}

func addCookie(_ *Hub, c *call) {
	cookie, ok := c.param("cookie").(map[string]interface{})
	if !ok || cookie["name"] == nil {
		c.exception(http.StatusInternalServerError, "UnableToSetCookieException", "cookie is required")
		return
	}
	b := c.browser
	for i, existing := range b.Cookies {
		if existing["name"] == cookie["name"] {
			b.Cookies[i] = cookie
			c.ok(nil)
			return
		}
	}
	b.Cookies = append(b.Cookies, cookie)
	c.ok(nil)
}

func deleteCookie(_ *Hub, c *call) {
	name := chi.URLParam(c.r, "name")
	b := c.browser
	kept := b.Cookies[:0]
	for _, cookie := range b.Cookies {
		if cookie["name"] != name {
			kept = append(kept, cookie)
		}
	}
	b.Cookies = kept
	c.ok(nil)
}

func switchToWindow(_ *Hub, c *call) {
	name := c.stringParam("name")
	for _, w := range c.browser.Windows {
		if w == name {
			c.browser.CurrentWindow = w
			c.browser.Frame = ""
			c.ok(nil)
			return
		}
	}
	c.exception(http.StatusInternalServerError, "NoSuchWindowException", "Unable to locate window: "+name)
}

func closeWindow(_ *Hub, c *call) {
	b := c.browser
	kept := b.Windows[:0]
	for _, w := range b.Windows {
		if w != b.CurrentWindow {
			kept = append(kept, w)
		}
	}
	b.Windows = kept
	b.CurrentWindow = ""
	c.ok(nil)
}

func isFrame(e *Element) bool {
	return strings.EqualFold(e.Tag, "iframe") || strings.EqualFold(e.Tag, "frame")
}

func switchToFrame(_ *Hub, c *call) {
	b := c.browser
	raw := c.param("id")
	if raw == nil {
		b.Frame = ""
		c.ok(nil)
		return
	}
	var frames []*Element
	for _, eid := range b.Order {
		if e := b.Elements[eid]; isFrame(e) {
			frames = append(frames, e)
		}
	}
	// numbers select by index, strings by id or name
	switch id := raw.(type) {
	case float64:
		if i := int(id); float64(i) == id && i >= 0 && i < len(frames) {
			b.Frame = frames[i].ID
			c.ok(nil)
			return
		}
	case string:
		for _, e := range frames {
			if e.Attrs["id"] == id || e.Attrs["name"] == id {
				b.Frame = e.ID
				c.ok(nil)
				return
			}
		}
	}
	c.exception(http.StatusInternalServerError, "NoSuchFrameException", fmt.Sprintf("Unable to locate frame: %v", raw))
}

func setSpeed(_ *Hub, c *call) {
	speed := c.stringParam("speed")
	switch speed {
	case "SLOW", "MEDIUM", "FAST":
		c.browser.Speed = speed
		c.ok(nil)
	default:
		c.exception(http.StatusInternalServerError, "WebDriverException", "unknown speed "+speed)
	}
}
