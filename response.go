// Copyright 2013 Federico Sogaro. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package webdriver

import (
	"encoding/base64"
	"encoding/json"
	"mime"
	"net/http"
	"strconv"
	"strings"
)

// Response is the outcome of one command. It is filled in by the executor
// and read-only afterwards.
type Response struct {
	IsError   bool
	Value     Value
	SessionID string
	Context   string

	// StatusCode and Status describe the HTTP reply; both are empty when the
	// request never completed.
	StatusCode int
	Status     string
	// WireStatus is the JSON wire protocol "status" field, 0 when absent.
	WireStatus int
	// Cause holds the local error when the command could not be sent or the
	// reply could not be read.
	Cause error
}

// type matching the structure of a standard JSON response object.
type wireResponse struct {
	SessionID Value `json:"sessionId"`
	Context   Value `json:"context"`
	Value     Value `json:"value"`
	Error     *bool `json:"error"`
	Status    int   `json:"status"`
}

func failedResponse(cause error) *Response {
	return &Response{IsError: true, Cause: cause}
}

func isSuccessStatus(code int) bool {
	return code >= 200 && code < 300
}

// statusDescription strips the numeric code from an HTTP status line.
func statusDescription(r *http.Response) string {
	desc := strings.TrimPrefix(r.Status, strconv.Itoa(r.StatusCode)+" ")
	if desc == "" || desc == r.Status {
		return http.StatusText(r.StatusCode)
	}
	return desc
}

func mediaType(r *http.Response) string {
	mt, _, err := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if err != nil {
		return ""
	}
	return mt
}

// decodeResponse builds a Response from an HTTP reply. A non-2xx status is
// always an error. For 2xx replies the body decides, through its "error" flag
// or a non-zero wire status.
func decodeResponse(r *http.Response, body []byte) *Response {
	resp := &Response{
		StatusCode: r.StatusCode,
		Status:     statusDescription(r),
		IsError:    !isSuccessStatus(r.StatusCode),
	}
	switch mediaType(r) {
	case "application/json":
		var wr wireResponse
		if err := json.Unmarshal(body, &wr); err != nil {
			resp.IsError = true
			text := strings.TrimSpace(string(body))
			if text == "" {
				text = resp.Status
			}
			resp.Value = String(text)
			return resp
		}
		resp.Value = normalizeNewlines(wr.Value)
		resp.SessionID = wr.SessionID.Text()
		resp.Context = wr.Context.Text()
		resp.WireStatus = wr.Status
		if !resp.IsError {
			resp.IsError = (wr.Error != nil && *wr.Error) || wr.Status != Success
		}
	case "image/png":
		resp.Value = String(base64.StdEncoding.EncodeToString(body))
	default:
		resp.Value = String(resp.Status)
	}
	return resp
}
