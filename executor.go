// Copyright 2013 Federico Sogaro. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package webdriver

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"go.uber.org/zap"
)

// CommandExecutor sends commands to a remote end. Execute never returns nil;
// failures of any kind come back as a Response with IsError set.
type CommandExecutor interface {
	Execute(ctx context.Context, cmd Command) *Response
}

// HTTPCommandExecutor is the network boundary: one command, one blocking
// HTTP round trip, no retries.
type HTTPCommandExecutor struct {
	base    *url.URL
	client  *http.Client
	logger  *zap.Logger
	metrics *Metrics
}

type ExecutorOption func(*HTTPCommandExecutor)

// WithHTTPClient replaces http.DefaultClient.
func WithHTTPClient(c *http.Client) ExecutorOption {
	return func(e *HTTPCommandExecutor) {
		e.client = c
	}
}

func WithLogger(l *zap.Logger) ExecutorOption {
	return func(e *HTTPCommandExecutor) {
		e.logger = l
	}
}

func WithMetrics(m *Metrics) ExecutorOption {
	return func(e *HTTPCommandExecutor) {
		e.metrics = m
	}
}

// NewHTTPCommandExecutor creates an executor for the server at base, for
// example "http://127.0.0.1:4444/wd/hub".
func NewHTTPCommandExecutor(base string, opts ...ExecutorOption) (*HTTPCommandExecutor, error) {
	u, err := url.Parse(base)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidOperation, err)
	}
	if u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("%w: server URL %q is not absolute", ErrInvalidOperation, base)
	}
	e := &HTTPCommandExecutor{
		base:   u,
		client: http.DefaultClient,
		logger: zap.NewNop(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e, nil
}

// URL returns the server URL commands are resolved against.
func (e *HTTPCommandExecutor) URL() string {
	return e.base.String()
}

func (e *HTTPCommandExecutor) Execute(ctx context.Context, cmd Command) *Response {
	start := time.Now()
	resp := e.execute(ctx, cmd)
	e.metrics.observe(cmd.Name, resp, time.Since(start))
	return resp
}

func (e *HTTPCommandExecutor) execute(ctx context.Context, cmd Command) *Response {
	info, err := Resolve(cmd.Name)
	if err != nil {
		return failedResponse(err)
	}
	u, err := info.BuildURL(cmd, e.base)
	if err != nil {
		return failedResponse(err)
	}
	var body io.Reader
	if info.Method == "POST" {
		data, err := json.Marshal(cmd.Parameters)
		if err != nil {
			return failedResponse(fmt.Errorf("%w: encoding parameters: %v", ErrInvalidOperation, err))
		}
		body = bytes.NewReader(data)
	}
	request, err := http.NewRequestWithContext(ctx, info.Method, u.String(), body)
	if err != nil {
		return failedResponse(fmt.Errorf("%w: %v", ErrInvalidOperation, err))
	}
	if info.Method == "POST" {
		request.Header.Set("Content-Type", "application/json;charset=utf-8")
	}
	request.Header.Set("Accept", "application/json, image/png")
	request.Header.Set("Accept-Charset", "utf-8")

	log := e.logger.With(zap.String("command", string(cmd.Name)))
	log.Debug(">>", zap.String("method", info.Method), zap.String("url", u.String()))

	response, err := e.client.Do(request)
	if err != nil {
		log.Warn("request failed", zap.Error(err))
		return failedResponse(fmt.Errorf("%w: %w", ErrTransport, err))
	}
	defer response.Body.Close()

	buf, err := io.ReadAll(response.Body)
	if err != nil {
		log.Warn("reading response failed", zap.Error(err))
		return failedResponse(fmt.Errorf("%w: %w", ErrTransport, err))
	}
	head := string(buf)
	if len(buf) > 1024 {
		head = fmt.Sprintf("%s ...%d more bytes", string(buf[:1024]), len(buf)-1024)
	}
	log.Debug("<<", zap.Int("status", response.StatusCode), zap.String("body", head))

	return decodeResponse(response, buf)
}

// Close releases idle connections held by the executor's HTTP client.
func (e *HTTPCommandExecutor) Close() {
	e.client.CloseIdleConnections()
}
