// Copyright 2013 Federico Sogaro. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package webdriver

import (
	"errors"
	"fmt"
	"strings"

	"github.com/mitchellh/mapstructure"
)

var (
	// ErrUnknownCommand is returned for a command name missing from the
	// route table. It indicates a programming error, not a remote failure.
	ErrUnknownCommand = errors.New("webdriver: unknown command")
	// ErrInvalidOperation reports a request that could not be built, such as
	// a malformed server URL.
	ErrInvalidOperation = errors.New("webdriver: invalid operation")
	// ErrNoActiveSession is returned by drivers that were never started or
	// have already quit.
	ErrNoActiveSession = errors.New("webdriver: no active session")
	// ErrTransport wraps failures to reach the remote end at all.
	ErrTransport = errors.New("webdriver: transport failure")

	ErrNoSuchElement         = errors.New("no such element")
	ErrStaleElementReference = errors.New("stale element reference")
	ErrElementNotVisible     = errors.New("element not visible")
	ErrNoSuchFrame           = errors.New("no such frame")
	ErrNoSuchWindow          = errors.New("no such window")
	ErrNotSupported          = errors.New("operation not supported")
	ErrNotImplemented        = errors.New("operation not implemented")
	ErrTimeout               = errors.New("timeout")
	ErrWebDriver             = errors.New("webdriver exception")
)

// ErrorKind is the local classification of a remote error.
type ErrorKind int

const (
	ErrorUnknown ErrorKind = iota
	ErrorNoSuchElement
	ErrorStaleElementReference
	ErrorElementNotVisible
	ErrorNoSuchFrame
	ErrorNoSuchWindow
	ErrorNotSupported
	ErrorNotImplemented
	ErrorTimeout
	ErrorInvalidOperation
)

var kindSentinels = map[ErrorKind]error{
	ErrorUnknown:               ErrWebDriver,
	ErrorNoSuchElement:         ErrNoSuchElement,
	ErrorStaleElementReference: ErrStaleElementReference,
	ErrorElementNotVisible:     ErrElementNotVisible,
	ErrorNoSuchFrame:           ErrNoSuchFrame,
	ErrorNoSuchWindow:          ErrNoSuchWindow,
	ErrorNotSupported:          ErrNotSupported,
	ErrorNotImplemented:        ErrNotImplemented,
	ErrorTimeout:               ErrTimeout,
	ErrorInvalidOperation:      ErrInvalidOperation,
}

func (k ErrorKind) String() string {
	if err, ok := kindSentinels[k]; ok {
		return strings.TrimPrefix(err.Error(), "webdriver: ")
	}
	return fmt.Sprintf("error kind %d", int(k))
}

// remote exception class (last dotted segment) -> kind
var exceptionKinds = map[string]ErrorKind{
	"NoSuchElementException":          ErrorNoSuchElement,
	"StaleElementReferenceException":  ErrorStaleElementReference,
	"ElementNotVisibleException":      ErrorElementNotVisible,
	"NoSuchFrameException":            ErrorNoSuchFrame,
	"NoSuchWindowException":           ErrorNoSuchWindow,
	"UnsupportedOperationException":   ErrorNotSupported,
	"TimeoutException":                ErrorTimeout,
	"InvalidOperationException":       ErrorInvalidOperation,
	"IllegalStateException":           ErrorInvalidOperation,
	"InvalidElementStateException":    ErrorInvalidOperation,
	"ElementNotInteractableException": ErrorElementNotVisible,
}

// ClassifyException maps a remote exception class name such as
// "org.openqa.selenium.NoSuchElementException" to an ErrorKind. An
// unsupported operation whose message mentions toggling is reported as not
// implemented.
func ClassifyException(className, message string) ErrorKind {
	name := className
	if i := strings.LastIndexAny(name, ".$"); i >= 0 {
		name = name[i+1:]
	}
	kind, ok := exceptionKinds[name]
	if !ok {
		return ErrorUnknown
	}
	if kind == ErrorNotSupported && strings.Contains(strings.ToLower(message), "toggle") {
		return ErrorNotImplemented
	}
	return kind
}

// JSON wire protocol status codes.
const (
	Success                    = 0
	NoSuchDriver               = 6
	NoSuchElement              = 7
	NoSuchFrame                = 8
	UnknownCommand             = 9
	StaleElementReference      = 10
	ElementNotVisible          = 11
	InvalidElementState        = 12
	UnknownError               = 13
	ElementIsNotSelectable     = 15
	JavaScriptError            = 17
	XPathLookupError           = 19
	Timeout                    = 21
	NoSuchWindow               = 23
	InvalidCookieDomain        = 24
	UnableToSetCookie          = 25
	UnexpectedAlertOpen        = 26
	NoAlertOpenError           = 27
	ScriptTimeout              = 28
	InvalidElementCoordinates  = 29
	IMENotAvailable            = 30
	IMEEngineActivationFailed  = 31
	InvalidSelector            = 32
	SessionNotCreatedException = 33
	MoveTargetOutOfBounds      = 34
)

var statusCodeStrings = map[int]string{
	0:  "The command executed successfully.",
	6:  "A session is either terminated or not started.",
	7:  "An element could not be located on the page using the given search parameters.",
	8:  "A request to switch to a frame could not be satisfied because the frame could not be found.",
	9:  "The requested resource could not be found, or a request was received using an HTTP method that is not supported by the mapped resource.",
	10: "An element command failed because the referenced element is no longer attached to the DOM.",
	11: "An element command could not be completed because the element is not visible on the page.",
	12: "An element command could not be completed because the element is in an invalid state (e.g. attempting to click a disabled element).",
	13: "An unknown server-side error occurred while processing the command.",
	15: "An attempt was made to select an element that cannot be selected.",
	17: "An error occurred while executing user supplied JavaScript.",
	19: "An error occurred while searching for an element by XPath.",
	21: "An operation did not complete before its timeout expired.",
	23: "A request to switch to a different window could not be satisfied because the window could not be found.",
	24: "An illegal attempt was made to set a cookie under a different domain than the current page.",
	25: "A request to set a cookie's value could not be satisfied.",
	26: "A modal dialog was open, blocking this operation.",
	27: "An attempt was made to operate on a modal dialog when one was not open.",
	28: "A script did not complete before its timeout expired.",
	29: "The coordinates provided to an interactions operation are invalid.",
	30: "IME was not available.",
	31: "An IME engine could not be started.",
	32: "Argument was an invalid selector (e.g. XPath/CSS).",
	33: "A new session could not be created.",
	34: "Target provided for a move action is out of bounds.",
}

var statusKinds = map[int]ErrorKind{
	NoSuchElement:         ErrorNoSuchElement,
	NoSuchFrame:           ErrorNoSuchFrame,
	UnknownCommand:        ErrorNotImplemented,
	StaleElementReference: ErrorStaleElementReference,
	ElementNotVisible:     ErrorElementNotVisible,
	InvalidElementState:   ErrorInvalidOperation,
	Timeout:               ErrorTimeout,
	NoSuchWindow:          ErrorNoSuchWindow,
	ScriptTimeout:         ErrorTimeout,
}

// ClassifyStatus maps a JSON wire protocol status code to an ErrorKind.
func ClassifyStatus(status int) ErrorKind {
	if kind, ok := statusKinds[status]; ok {
		return kind
	}
	return ErrorUnknown
}

type StackTraceElement struct {
	FileName   string `mapstructure:"fileName"`
	ClassName  string `mapstructure:"className"`
	MethodName string `mapstructure:"methodName"`
	LineNumber int    `mapstructure:"lineNumber"`
}

func (f StackTraceElement) String() string {
	return fmt.Sprintf("%s.%s(%s:%d)", f.ClassName, f.MethodName, f.FileName, f.LineNumber)
}

// ErrorResponse is the error object a remote end sends as the value of a
// failed command.
type ErrorResponse struct {
	LocalizedMessage string              `mapstructure:"localizedMessage"`
	Message          string              `mapstructure:"message"`
	ClassName        string              `mapstructure:"class"`
	Screenshot       string              `mapstructure:"screen"`
	StackTrace       []StackTraceElement `mapstructure:"stackTrace"`
}

func decodeErrorResponse(v Value) (*ErrorResponse, error) {
	if v.Kind() != KindMap {
		return nil, fmt.Errorf("error value is %v, not an object", v.Kind())
	}
	er := &ErrorResponse{}
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		WeaklyTypedInput: true,
		Result:           er,
	})
	if err != nil {
		return nil, err
	}
	if err := dec.Decode(v.Interface()); err != nil {
		return nil, err
	}
	return er, nil
}

// Error is a failure reported by the remote end, classified once when the
// response is unpacked. Use errors.Is with the Err* sentinels to test the
// kind.
type Error struct {
	Kind       ErrorKind
	Command    CommandName
	Message    string
	StatusCode int
	// Response is nil when the remote end did not send a structured error.
	Response *ErrorResponse
}

func (e *Error) Error() string {
	m := "webdriver: " + string(e.Command) + ": " + e.Kind.String()
	if e.Message != "" {
		m += ": " + e.Message
	}
	return m
}

func (e *Error) Is(target error) bool {
	return kindSentinels[e.Kind] == target
}

// responseError turns a failed response into the error returned to callers.
func responseError(cmd Command, resp *Response) error {
	if resp.Cause != nil {
		return fmt.Errorf("webdriver: %s: %w", cmd.Name, resp.Cause)
	}
	e := &Error{Kind: ErrorUnknown, Command: cmd.Name, StatusCode: resp.StatusCode}
	switch resp.Value.Kind() {
	case KindString:
		e.Message, _ = resp.Value.Str()
		if resp.WireStatus != Success {
			e.Kind = ClassifyStatus(resp.WireStatus)
		}
		return e
	case KindMap:
		er, err := decodeErrorResponse(resp.Value)
		if err != nil {
			e.Message = resp.Value.Text()
			return e
		}
		e.Response = er
		e.Message = er.Message
		if e.Message == "" {
			e.Message = er.LocalizedMessage
		}
		if er.ClassName != "" {
			e.Kind = ClassifyException(er.ClassName, e.Message)
		} else if resp.WireStatus != Success {
			e.Kind = ClassifyStatus(resp.WireStatus)
		}
	default:
		if resp.WireStatus != Success {
			e.Kind = ClassifyStatus(resp.WireStatus)
		}
		e.Message = resp.Value.Text()
	}
	if e.Message == "" && resp.WireStatus != Success {
		e.Message = statusCodeStrings[resp.WireStatus]
	}
	return e
}
