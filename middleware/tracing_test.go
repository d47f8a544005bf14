// Copyright 2021 The httpchain Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package middleware

import (
	"context"
	"net/http"
	"syscall"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
	"go.opentelemetry.io/otel/trace"

	"github.com/gogama/httpchain/request"
	"github.com/gogama/httpchain/transport"
)

func newTracerProvider(t *testing.T) (*sdktrace.TracerProvider, *tracetest.InMemoryExporter) {
	exporter := tracetest.NewInMemoryExporter()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSyncer(exporter))
	t.Cleanup(func() { _ = tp.Shutdown(context.Background()) })
	return tp, exporter
}

func attr(kvs []attribute.KeyValue, key string) (attribute.Value, bool) {
	for _, kv := range kvs {
		if string(kv.Key) == key {
			return kv.Value, true
		}
	}
	return attribute.Value{}, false
}

func TestTracing(t *testing.T) {
	t.Run("span per attempt", func(t *testing.T) {
		tp, exporter := newTracerProvider(t)
		rec := newRecorder(503, 200)
		cl := newClient(rec, NewTracing(WithTracerProvider(tp)), NewRequestID(""))

		_, err := cl.Get("http://example.com/things")

		require.NoError(t, err)
		spans := exporter.GetSpans()
		require.Len(t, spans, 2)
		for i, s := range spans {
			assert.Equal(t, "HTTP GET", s.Name)
			assert.Equal(t, trace.SpanKindClient, s.SpanKind)
			_, hasID := attr(s.Attributes, "http.request.id")
			assert.True(t, hasID)
			resend, ok := attr(s.Attributes, "http.request.resend_count")
			assert.Equal(t, i > 0, ok)
			if ok {
				assert.Equal(t, int64(i), resend.AsInt64())
			}
		}
		status, _ := attr(spans[0].Attributes, "http.response.status_code")
		assert.Equal(t, int64(503), status.AsInt64())
		assert.Equal(t, codes.Error, spans[0].Status.Code)
		assert.Equal(t, codes.Unset, spans[1].Status.Code)

		sent := rec.requests()
		require.Len(t, sent, 2)
		for i, r := range sent {
			traceparent := r.Header.Get("Traceparent")
			require.NotEmpty(t, traceparent)
			assert.Contains(t, traceparent, spans[i].SpanContext.SpanID().String())
		}
	})
	t.Run("failed attempt", func(t *testing.T) {
		tp, exporter := newTracerProvider(t)
		reset := transport.TransportFunc(func(r *http.Request) (*request.Response, error) {
			return nil, transport.Wrap(r, syscall.ECONNRESET)
		})
		cl := newClient(reset, NewTracing(WithTracerProvider(tp)))

		_, err := cl.Post("http://example.com", "text/plain", "x")

		require.Error(t, err)
		spans := exporter.GetSpans()
		require.Len(t, spans, 1)
		assert.Equal(t, codes.Error, spans[0].Status.Code)
		kind, _ := attr(spans[0].Attributes, "error.type")
		assert.Equal(t, "reset", kind.AsString())
		assert.NotEmpty(t, spans[0].Events, "error recorded")
	})
	t.Run("child of caller span", func(t *testing.T) {
		tp, exporter := newTracerProvider(t)
		ctx, parent := tp.Tracer("test").Start(context.Background(), "caller")
		cl := newClient(newRecorder(200), NewTracing(WithTracerProvider(tp)))
		p, err := request.NewPlanWithContext(ctx, "GET", "http://example.com", nil)
		require.NoError(t, err)

		_, err = cl.Do(p)
		parent.End()

		require.NoError(t, err)
		spans := exporter.GetSpans()
		require.Len(t, spans, 2)
		assert.Equal(t, parent.SpanContext().SpanID(), spans[0].Parent.SpanID())
	})
}
