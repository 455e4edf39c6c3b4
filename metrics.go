// Copyright 2013 Federico Sogaro. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package webdriver

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics counts and times the commands sent by an executor.
type Metrics struct {
	commands *prometheus.CounterVec
	duration *prometheus.HistogramVec
}

// NewMetrics creates the collectors and registers them on reg when it is not
// nil.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		commands: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "webdriver_commands_total",
				Help: "Total number of WebDriver commands sent, by outcome",
			},
			[]string{"command", "outcome"},
		),
		duration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "webdriver_command_duration_seconds",
				Help:    "Round trip time of WebDriver commands",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"command"},
		),
	}
	if reg != nil {
		reg.MustRegister(m.commands, m.duration)
	}
	return m
}

func outcome(resp *Response) string {
	switch {
	case resp.Cause != nil:
		return "transport"
	case resp.IsError:
		return "error"
	}
	return "ok"
}

func (m *Metrics) observe(name CommandName, resp *Response, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.commands.WithLabelValues(string(name), outcome(resp)).Inc()
	m.duration.WithLabelValues(string(name)).Observe(elapsed.Seconds())
}
