// Copyright 2021 The httpchain Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package middleware

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/felixgeelhaar/fortify/ratelimit"
	"golang.org/x/time/rate"

	"github.com/gogama/httpchain/request"
	"github.com/gogama/httpchain/transport"
)

const (
	// RateLimitOrder is the pipeline order of a RateLimit stage.
	RateLimitOrder = 400
	// HostThrottleOrder is the pipeline order of a HostThrottle stage.
	HostThrottleOrder = 410
)

var (
	// ErrRateLimited is returned, wrapped, when an attempt cannot get a
	// token from a RateLimit stage before its deadline.
	ErrRateLimited = errors.New("httpchain/middleware: rate limited")
	// ErrThrottled is returned, wrapped, when a HostThrottle stage
	// rejects an attempt.
	ErrThrottled = errors.New("httpchain/middleware: host budget exceeded")
)

// RateLimit delays attempts to keep the overall attempt rate within a
// token bucket. Retries consume tokens like initial attempts do.
//
// An attempt waits for its token for at most as long as its context
// allows. If the plan is cancelled while waiting, the attempt ends with
// the cancellation. If only the attempt deadline passes, the attempt
// ends with a *transport.Error of kind Timeout, like any other attempt
// timeout.
type RateLimit struct {
	limiter *rate.Limiter
}

// NewRateLimit returns a RateLimit stage using limiter. It panics if
// limiter is nil.
func NewRateLimit(limiter *rate.Limiter) *RateLimit {
	if limiter == nil {
		panic("httpchain/middleware: nil limiter")
	}
	return &RateLimit{limiter: limiter}
}

func (m *RateLimit) Order() int   { return RateLimitOrder }
func (m *RateLimit) Name() string { return "rate-limit" }

func (m *RateLimit) BeforeRequest(e *request.Execution) error {
	ctx := e.Request.Context()
	if err := m.limiter.Wait(ctx); err != nil {
		if e.Plan.Context().Err() != nil {
			return ctx.Err()
		}
		if ctx.Err() != nil {
			return transport.Wrap(e.Request, ctx.Err())
		}
		return fmt.Errorf("%w: %v", ErrRateLimited, err)
	}
	return nil
}

func (m *RateLimit) AfterResponse(*request.Execution, *request.Response, error) error {
	return nil
}

// HostThrottle rejects attempts which exceed a per-host budget of rate
// attempts per second, with bursts of up to burst attempts. Unlike
// RateLimit it never waits: an attempt over budget fails at once with
// an error wrapping ErrThrottled, which retry policies do not retry.
type HostThrottle struct {
	limiter interface {
		Allow(ctx context.Context, key string) bool
	}
}

// NewHostThrottle returns a HostThrottle stage.
func NewHostThrottle(rate, burst int) *HostThrottle {
	return &HostThrottle{
		limiter: ratelimit.New(&ratelimit.Config{
			Rate:     rate,
			Burst:    burst,
			Interval: time.Second,
		}),
	}
}

func (m *HostThrottle) Order() int   { return HostThrottleOrder }
func (m *HostThrottle) Name() string { return "host-throttle" }

func (m *HostThrottle) BeforeRequest(e *request.Execution) error {
	host := e.Request.URL.Host
	if !m.limiter.Allow(e.Request.Context(), host) {
		return fmt.Errorf("%w: %s", ErrThrottled, host)
	}
	return nil
}

func (m *HostThrottle) AfterResponse(*request.Execution, *request.Response, error) error {
	return nil
}
