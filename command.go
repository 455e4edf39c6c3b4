// Copyright 2013 Federico Sogaro. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package webdriver

import (
	"strings"
)

// SessionID identifies a browser session on the remote end.
type SessionID string

func (id SessionID) String() string { return string(id) }

// Context is the legacy sub-session discriminator that appears in most
// command URLs. Remote ends ignore its value.
type Context string

func (c Context) String() string { return string(c) }

// DefaultContext is the context sent with every session command.
const DefaultContext = Context("foo")

// CommandName names one remote operation. The set is closed: every name has
// exactly one entry in the route table.
type CommandName string

const (
	CmdStatus                 = CommandName("status")
	CmdNewSession             = CommandName("newSession")
	CmdGetSessionCapabilities = CommandName("getSessionCapabilities")
	CmdQuit                   = CommandName("quit")
	CmdImplicitlyWait         = CommandName("implicitlyWait")

	CmdGet           = CommandName("get")
	CmdGetCurrentURL = CommandName("getCurrentUrl")
	CmdGoBack        = CommandName("goBack")
	CmdGoForward     = CommandName("goForward")
	CmdRefresh       = CommandName("refresh")
	CmdGetTitle      = CommandName("getTitle")
	CmdGetPageSource = CommandName("getPageSource")
	CmdScreenshot    = CommandName("screenshot")
	CmdExecuteScript = CommandName("executeScript")

	CmdFindElement       = CommandName("findElement")
	CmdFindElements      = CommandName("findElements")
	CmdGetActiveElement  = CommandName("getActiveElement")
	CmdFindChildElement  = CommandName("findChildElement")
	CmdFindChildElements = CommandName("findChildElements")

	CmdClickElement                 = CommandName("clickElement")
	CmdSubmitElement                = CommandName("submitElement")
	CmdClearElement                 = CommandName("clearElement")
	CmdSendKeysToElement            = CommandName("sendKeysToElement")
	CmdGetElementValue              = CommandName("getElementValue")
	CmdGetElementText               = CommandName("getElementText")
	CmdGetElementTagName            = CommandName("getElementTagName")
	CmdIsElementSelected            = CommandName("isElementSelected")
	CmdSetElementSelected           = CommandName("setElementSelected")
	CmdToggleElement                = CommandName("toggleElement")
	CmdIsElementEnabled             = CommandName("isElementEnabled")
	CmdIsElementDisplayed           = CommandName("isElementDisplayed")
	CmdGetElementLocation           = CommandName("getElementLocation")
	CmdGetElementSize               = CommandName("getElementSize")
	CmdGetElementAttribute          = CommandName("getElementAttribute")
	CmdGetElementValueOfCSSProperty = CommandName("getElementValueOfCssProperty")
	CmdElementEquals                = CommandName("elementEquals")
	CmdHoverOverElement             = CommandName("hoverOverElement")
	CmdDragElement                  = CommandName("dragElement")

	CmdGetAllCookies    = CommandName("getAllCookies")
	CmdAddCookie        = CommandName("addCookie")
	CmdDeleteAllCookies = CommandName("deleteAllCookies")
	CmdDeleteCookie     = CommandName("deleteCookie")

	CmdGetWindowHandles       = CommandName("getWindowHandles")
	CmdGetCurrentWindowHandle = CommandName("getCurrentWindowHandle")
	CmdSwitchToWindow         = CommandName("switchToWindow")
	CmdClose                  = CommandName("close")
	CmdSwitchToFrame          = CommandName("switchToFrame")

	CmdGetSpeed = CommandName("getSpeed")
	CmdSetSpeed = CommandName("setSpeed")
)

// Command is one request for the remote end. Build it with NewCommand; the
// parameter list is never nil and is not shared with the caller.
type Command struct {
	SessionID  SessionID
	Context    Context
	Name       CommandName
	Parameters []Value
}

func NewCommand(sessionID SessionID, context Context, name CommandName, parameters ...Value) Command {
	p := make([]Value, len(parameters))
	copy(p, parameters)
	return Command{
		SessionID:  sessionID,
		Context:    context,
		Name:       name,
		Parameters: p,
	}
}

// urlParameter resolves a named URL placeholder from the first parameter,
// when that parameter is a map.
func (c Command) urlParameter(name string) string {
	if len(c.Parameters) == 0 {
		return ""
	}
	v, ok := c.Parameters[0].Get(name)
	if !ok {
		return ""
	}
	return v.Text()
}

func (c Command) String() string {
	var b strings.Builder
	b.WriteString(string(c.Name))
	if c.SessionID != "" {
		b.WriteString(" [")
		b.WriteString(string(c.SessionID))
		b.WriteString("]")
	}
	return b.String()
}
