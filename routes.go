// Copyright 2013 Federico Sogaro. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package webdriver

import (
	"fmt"
	"net/url"
	"strings"
)

// CommandInfo says how a command travels: the HTTP method and the URL
// template whose ":name" segments are filled in per command.
type CommandInfo struct {
	Method   string
	Template string
}

type route struct {
	name     CommandName
	method   string
	template string
}

const sessionPath = "/session/:sessionId/:context"

var routes = []route{
	{CmdStatus, "GET", "/status"},
	{CmdNewSession, "POST", "/session"},
	{CmdGetSessionCapabilities, "GET", "/session/:sessionId"},
	{CmdQuit, "DELETE", "/session/:sessionId"},
	{CmdImplicitlyWait, "POST", sessionPath + "/timeouts/implicit_wait"},

	{CmdGet, "POST", sessionPath + "/url"},
	{CmdGetCurrentURL, "GET", sessionPath + "/url"},
	{CmdGoBack, "POST", sessionPath + "/back"},
	{CmdGoForward, "POST", sessionPath + "/forward"},
	{CmdRefresh, "POST", sessionPath + "/refresh"},
	{CmdGetTitle, "GET", sessionPath + "/title"},
	{CmdGetPageSource, "GET", sessionPath + "/source"},
	{CmdScreenshot, "GET", sessionPath + "/screenshot"},
	{CmdExecuteScript, "POST", sessionPath + "/execute"},

	{CmdFindElement, "POST", sessionPath + "/element"},
	{CmdFindElements, "POST", sessionPath + "/elements"},
	{CmdGetActiveElement, "POST", sessionPath + "/element/active"},
	{CmdFindChildElement, "POST", sessionPath + "/element/:id/element/:using"},
	{CmdFindChildElements, "POST", sessionPath + "/element/:id/elements/:using"},

	{CmdClickElement, "POST", sessionPath + "/element/:id/click"},
	{CmdSubmitElement, "POST", sessionPath + "/element/:id/submit"},
	{CmdClearElement, "POST", sessionPath + "/element/:id/clear"},
	{CmdSendKeysToElement, "POST", sessionPath + "/element/:id/value"},
	{CmdGetElementValue, "GET", sessionPath + "/element/:id/value"},
	{CmdGetElementText, "GET", sessionPath + "/element/:id/text"},
	{CmdGetElementTagName, "GET", sessionPath + "/element/:id/name"},
	{CmdIsElementSelected, "GET", sessionPath + "/element/:id/selected"},
	{CmdSetElementSelected, "POST", sessionPath + "/element/:id/selected"},
	{CmdToggleElement, "POST", sessionPath + "/element/:id/toggle"},
	{CmdIsElementEnabled, "GET", sessionPath + "/element/:id/enabled"},
	{CmdIsElementDisplayed, "GET", sessionPath + "/element/:id/displayed"},
	{CmdGetElementLocation, "GET", sessionPath + "/element/:id/location"},
	{CmdGetElementSize, "GET", sessionPath + "/element/:id/size"},
	{CmdGetElementAttribute, "GET", sessionPath + "/element/:id/attribute/:name"},
	{CmdGetElementValueOfCSSProperty, "GET", sessionPath + "/element/:id/css/:propertyName"},
	{CmdElementEquals, "GET", sessionPath + "/element/:id/equals/:other"},
	{CmdHoverOverElement, "POST", sessionPath + "/element/:id/hover"},
	{CmdDragElement, "POST", sessionPath + "/element/:id/drag"},

	{CmdGetAllCookies, "GET", sessionPath + "/cookie"},
	{CmdAddCookie, "POST", sessionPath + "/cookie"},
	{CmdDeleteAllCookies, "DELETE", sessionPath + "/cookie"},
	{CmdDeleteCookie, "DELETE", sessionPath + "/cookie/:name"},

	{CmdGetWindowHandles, "GET", sessionPath + "/window_handles"},
	{CmdGetCurrentWindowHandle, "GET", sessionPath + "/window_handle"},
	{CmdSwitchToWindow, "POST", sessionPath + "/window/:name"},
	{CmdClose, "DELETE", sessionPath + "/window"},
	{CmdSwitchToFrame, "POST", sessionPath + "/frame/:id"},

	{CmdGetSpeed, "GET", sessionPath + "/speed"},
	{CmdSetSpeed, "POST", sessionPath + "/speed"},
}

// routeTable is built at package initialisation, so a malformed table
// panics before any command is sent.
var routeTable = buildRouteTable()

func buildRouteTable() map[CommandName]CommandInfo {
	m := make(map[CommandName]CommandInfo, len(routes))
	for _, r := range routes {
		switch r.method {
		case "GET", "POST", "DELETE":
		default:
			panic("webdriver: invalid method " + r.method + " for " + string(r.name))
		}
		if _, dup := m[r.name]; dup {
			panic("webdriver: duplicate route for " + string(r.name))
		}
		m[r.name] = CommandInfo{Method: r.method, Template: r.template}
	}
	return m
}

// Commands lists every command name known to the route table.
func Commands() []CommandName {
	names := make([]CommandName, len(routes))
	for i, r := range routes {
		names[i] = r.name
	}
	return names
}

// Resolve returns the method and URL template for a command.
func Resolve(name CommandName) (CommandInfo, error) {
	info, ok := routeTable[name]
	if !ok {
		return CommandInfo{}, fmt.Errorf("%w: %q", ErrUnknownCommand, string(name))
	}
	return info, nil
}

// BuildURL fills the template with values from cmd and places the result
// under the path of base. Placeholders other than :sessionId and :context are
// looked up in the first command parameter; missing values become empty
// segments.
func (ci CommandInfo) BuildURL(cmd Command, base *url.URL) (*url.URL, error) {
	if base == nil || base.Scheme == "" || base.Host == "" {
		return nil, fmt.Errorf("%w: invalid base URL %v", ErrInvalidOperation, base)
	}
	segments := strings.Split(ci.Template, "/")
	for i, segment := range segments {
		if !strings.HasPrefix(segment, ":") {
			continue
		}
		var value string
		switch name := segment[1:]; name {
		case "sessionId":
			value = cmd.SessionID.String()
		case "context":
			value = cmd.Context.String()
		default:
			value = cmd.urlParameter(name)
		}
		segments[i] = url.PathEscape(value)
	}
	root := *base
	root.RawQuery, root.Fragment = "", ""
	raw := strings.TrimSuffix(root.String(), "/") + strings.Join(segments, "/")
	u, err := url.Parse(raw)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidOperation, err)
	}
	return u, nil
}
