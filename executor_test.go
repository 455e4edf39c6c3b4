// Copyright 2013 Federico Sogaro. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package webdriver

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

type recorded struct {
	method, path, contentType, accept, body string
}

func recordingServer(t *testing.T, status int, body string) (*httptest.Server, func() []recorded) {
	t.Helper()
	var (
		mu  sync.Mutex
		got []recorded
	)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		data, _ := io.ReadAll(r.Body)
		mu.Lock()
		defer mu.Unlock()
		got = append(got, recorded{
			method:      r.Method,
			path:        r.URL.EscapedPath(),
			contentType: r.Header.Get("Content-Type"),
			accept:      r.Header.Get("Accept"),
			body:        string(data),
		})
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		io.WriteString(w, body)
	}))
	t.Cleanup(srv.Close)
	return srv, func() []recorded {
		mu.Lock()
		defer mu.Unlock()
		return append([]recorded(nil), got...)
	}
}

func TestNewHTTPCommandExecutor(t *testing.T) {
	for _, bad := range []string{"", "/wd/hub", "127.0.0.1:4444", "http://%zz"} {
		_, err := NewHTTPCommandExecutor(bad)
		assert.ErrorIs(t, err, ErrInvalidOperation, bad)
	}
	ex, err := NewHTTPCommandExecutor("http://127.0.0.1:4444/wd/hub")
	require.NoError(t, err)
	assert.Equal(t, "http://127.0.0.1:4444/wd/hub", ex.URL())
}

func TestExecutePost(t *testing.T) {
	srv, got := recordingServer(t, 200, `{"sessionId":"abc","status":0,"value":null}`)
	ex, err := NewHTTPCommandExecutor(srv.URL + "/wd/hub")
	require.NoError(t, err)

	resp := ex.Execute(context.Background(), NewCommand("abc", DefaultContext, CmdGet,
		Map(map[string]Value{"url": String("http://example.com/")})))
	require.False(t, resp.IsError, "%+v", resp)
	assert.Equal(t, "abc", resp.SessionID)

	reqs := got()
	require.Len(t, reqs, 1)
	req := reqs[0]
	assert.Equal(t, "POST", req.method)
	assert.Equal(t, "/wd/hub/session/abc/foo/url", req.path)
	assert.Equal(t, "application/json;charset=utf-8", req.contentType)
	assert.Equal(t, "application/json, image/png", req.accept)
	assert.JSONEq(t, `[{"url":"http://example.com/"}]`, req.body)
}

func TestExecuteGetHasNoBody(t *testing.T) {
	srv, got := recordingServer(t, 200, `{"value":"t"}`)
	ex, err := NewHTTPCommandExecutor(srv.URL)
	require.NoError(t, err)

	resp := ex.Execute(context.Background(), NewCommand("abc", DefaultContext, CmdGetTitle))
	require.False(t, resp.IsError)
	assert.Equal(t, String("t"), resp.Value)
	reqs := got()
	require.Len(t, reqs, 1)
	assert.Equal(t, "GET", reqs[0].method)
	assert.Empty(t, reqs[0].body)
	assert.Empty(t, reqs[0].contentType)
}

func TestExecuteUnknownCommand(t *testing.T) {
	ex, err := NewHTTPCommandExecutor("http://127.0.0.1:1")
	require.NoError(t, err)
	resp := ex.Execute(context.Background(), NewCommand("", "", "launchMissiles"))
	assert.True(t, resp.IsError)
	assert.ErrorIs(t, resp.Cause, ErrUnknownCommand)
}

func TestExecuteTransportFailure(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	core, logs := observer.New(zapcore.WarnLevel)
	ex, err := NewHTTPCommandExecutor(url, WithLogger(zap.New(core)))
	require.NoError(t, err)

	resp := ex.Execute(context.Background(), NewCommand("abc", DefaultContext, CmdGetTitle))
	assert.True(t, resp.IsError)
	assert.Zero(t, resp.StatusCode)
	assert.ErrorIs(t, resp.Cause, ErrTransport)
	assert.Equal(t, 1, logs.FilterMessage("request failed").Len())
}

func TestExecuteCanceled(t *testing.T) {
	srv, got := recordingServer(t, 200, `{"value":null}`)
	ex, err := NewHTTPCommandExecutor(srv.URL)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	resp := ex.Execute(ctx, NewCommand("abc", DefaultContext, CmdGetTitle))
	assert.True(t, resp.IsError)
	assert.True(t, errors.Is(resp.Cause, context.Canceled))
	assert.Empty(t, got())
}

func TestExecuteLogsRoundTrip(t *testing.T) {
	srv, _ := recordingServer(t, 200, `{"value":"`+strings.Repeat("x", 2000)+`"}`)
	core, logs := observer.New(zapcore.DebugLevel)
	ex, err := NewHTTPCommandExecutor(srv.URL, WithLogger(zap.New(core)))
	require.NoError(t, err)

	ex.Execute(context.Background(), NewCommand("abc", DefaultContext, CmdGetPageSource))
	entries := logs.All()
	require.Len(t, entries, 2)
	assert.Equal(t, ">>", entries[0].Message)
	assert.Equal(t, "getPageSource", entries[0].ContextMap()["command"])
	assert.Equal(t, "<<", entries[1].Message)
	body := entries[1].ContextMap()["body"].(string)
	assert.Contains(t, body, "more bytes")
	assert.Less(t, len(body), 1100)
}

func TestExecutorMetrics(t *testing.T) {
	srv, _ := recordingServer(t, 500, `{"value":{"message":"no","class":"org.openqa.selenium.NoSuchElementException"}}`)
	reg := prometheus.NewRegistry()
	metrics := NewMetrics(reg)
	ex, err := NewHTTPCommandExecutor(srv.URL, WithMetrics(metrics), WithHTTPClient(srv.Client()))
	require.NoError(t, err)

	ex.Execute(context.Background(), NewCommand("abc", DefaultContext, CmdFindElement, Map(nil)))
	ex.Execute(context.Background(), NewCommand("abc", DefaultContext, CmdFindElement, Map(nil)))
	ex.Execute(context.Background(), NewCommand("", "", "launchMissiles"))

	assert.Equal(t, 2.0, testutil.ToFloat64(metrics.commands.WithLabelValues("findElement", "error")))
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.commands.WithLabelValues("launchMissiles", "transport")))
	assert.Equal(t, 2, testutil.CollectAndCount(metrics.duration))

	// a nil Metrics is a no-op
	var none *Metrics
	none.observe(CmdGetTitle, &Response{}, 0)
}
