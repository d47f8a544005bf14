// Copyright 2021 The httpchain Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package middleware

import (
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"

	"github.com/gogama/httpchain/request"
	"github.com/gogama/httpchain/transport"
)

const (
	// TracingOrder is the pipeline order of a Tracing stage.
	TracingOrder = 150

	instrumentationName = "github.com/gogama/httpchain"
	spanKey             = "middleware.tracing.span"
)

// A TracingOption configures a Tracing stage.
type TracingOption func(*Tracing)

// WithTracerProvider sets the tracer provider. The default is the
// global provider.
func WithTracerProvider(tp trace.TracerProvider) TracingOption {
	return func(m *Tracing) {
		m.tracer = tp.Tracer(instrumentationName)
	}
}

// WithPropagator sets the propagator used to inject the span context
// into attempt headers. The default is W3C Trace Context.
func WithPropagator(p propagation.TextMapPropagator) TracingOption {
	return func(m *Tracing) {
		m.propagator = p
	}
}

// Tracing opens a client span around every attempt and propagates it to
// the server in the attempt headers. Retries of one logical request
// appear as sibling spans under the caller's span, each tagged with its
// resend count.
type Tracing struct {
	tracer     trace.Tracer
	propagator propagation.TextMapPropagator
}

// NewTracing returns a Tracing stage.
func NewTracing(opts ...TracingOption) *Tracing {
	m := &Tracing{
		tracer:     otel.GetTracerProvider().Tracer(instrumentationName),
		propagator: propagation.TraceContext{},
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

func (m *Tracing) Order() int   { return TracingOrder }
func (m *Tracing) Name() string { return "tracing" }

// BeforeRequest starts the attempt span and injects its context.
func (m *Tracing) BeforeRequest(e *request.Execution) error {
	r := e.Request
	ctx, span := m.tracer.Start(r.Context(), "HTTP "+r.Method,
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(
			attribute.String("http.request.method", r.Method),
			attribute.String("url.full", r.URL.String()),
			attribute.String("server.address", r.URL.Hostname()),
		),
	)
	if e.Attempt > 0 {
		span.SetAttributes(attribute.Int("http.request.resend_count", e.Attempt))
	}
	if id := RequestIDOf(e); id != "" {
		span.SetAttributes(attribute.String("http.request.id", id))
	}
	e.Request = r.WithContext(ctx)
	m.propagator.Inject(ctx, propagation.HeaderCarrier(e.Request.Header))
	return e.Set(spanKey, span)
}

// AfterResponse ends the attempt span, recording the outcome.
func (m *Tracing) AfterResponse(e *request.Execution, resp *request.Response, err error) error {
	v, _ := e.Remove(spanKey)
	span, ok := v.(trace.Span)
	if !ok {
		return nil
	}
	defer span.End()
	if err != nil {
		span.RecordError(err)
		if k := transport.KindOf(err); k != transport.None {
			span.SetAttributes(attribute.String("error.type", k.String()))
		}
		span.SetStatus(codes.Error, err.Error())
		return nil
	}
	span.SetAttributes(attribute.Int("http.response.status_code", resp.StatusCode))
	if resp.StatusCode >= 500 {
		span.SetStatus(codes.Error, resp.Status)
	}
	return nil
}
