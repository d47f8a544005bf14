// Copyright 2021 The httpchain Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package middleware

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/gogama/httpchain/request"
	"github.com/gogama/httpchain/transport"
)

const (
	// MetricsOrder is the pipeline order of a Metrics stage.
	MetricsOrder = 250

	metricsStartKey = "middleware.metrics.start"
)

// Metrics records Prometheus metrics for every attempt:
//
//	<namespace>_attempts_total{method,host,outcome}
//	<namespace>_attempt_duration_seconds{method,host}
//	<namespace>_retries_total{method,host}
//
// The outcome label is the response status code, or the transport
// error kind for failed attempts ("error" if the failure did not come
// from the transport).
type Metrics struct {
	attempts *prometheus.CounterVec
	duration *prometheus.HistogramVec
	retries  *prometheus.CounterVec
}

// NewMetrics creates the metrics and registers them with reg.
func NewMetrics(reg prometheus.Registerer, namespace string) (*Metrics, error) {
	m := &Metrics{
		attempts: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "attempts_total",
				Help:      "Total number of HTTP request attempts",
			},
			[]string{"method", "host", "outcome"},
		),
		duration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "attempt_duration_seconds",
				Help:      "HTTP request attempt duration in seconds",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"method", "host"},
		),
		retries: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "retries_total",
				Help:      "Total number of HTTP request retries",
			},
			[]string{"method", "host"},
		),
	}
	for _, c := range []prometheus.Collector{m.attempts, m.duration, m.retries} {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}
	return m, nil
}

func (m *Metrics) Order() int   { return MetricsOrder }
func (m *Metrics) Name() string { return "metrics" }

func (m *Metrics) BeforeRequest(e *request.Execution) error {
	if e.Attempt > 0 {
		m.retries.WithLabelValues(e.Request.Method, e.Request.URL.Host).Inc()
	}
	return e.Set(metricsStartKey, time.Now())
}

func (m *Metrics) AfterResponse(e *request.Execution, resp *request.Response, err error) error {
	method, host := e.Request.Method, e.Request.URL.Host
	outcome := "error"
	if err == nil {
		outcome = strconv.Itoa(resp.StatusCode)
	} else if k := transport.KindOf(err); k != transport.None {
		outcome = k.String()
	}
	m.attempts.WithLabelValues(method, host, outcome).Inc()
	if v, ok := e.Remove(metricsStartKey); ok {
		m.duration.WithLabelValues(method, host).Observe(time.Since(v.(time.Time)).Seconds())
	}
	return nil
}
