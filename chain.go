// Copyright 2021 The httpchain Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package httpchain

import (
	"context"
	"errors"
	"net/http"
	"sort"
	"time"

	"github.com/rs/zerolog"

	"github.com/gogama/httpchain/request"
	"github.com/gogama/httpchain/timeout"
	"github.com/gogama/httpchain/transport"
)

var errNoOutcome = errors.New("httpchain: transport returned neither response nor error")

// A Chain runs one attempt of a request plan through an ordered list of
// middleware and a terminal transport.
//
// The middleware are sorted once, when the chain is built, by ascending
// order with ties broken by registration order. The sorted list never
// changes afterwards, so a Chain is safe for concurrent use by any
// number of executions.
//
// A Chain does not retry. It reports a retry request by returning the
// *retry.Signal raised by a middleware, and leaves the loop and the
// backoff to its caller, normally a Client.
type Chain struct {
	transport transport.Transport
	stages    []stage
	timeout   timeout.Policy
}

type stage struct {
	Middleware
	name string
}

type sendFunc func(r *http.Request) (*request.Response, error)

// NewChain returns a chain over transport t with the given middleware.
// NewChain panics if t or any middleware is nil.
func NewChain(t transport.Transport, mws ...Middleware) *Chain {
	if t == nil {
		panic("httpchain: nil transport")
	}
	type entry struct {
		m     Middleware
		order int
	}
	entries := make([]entry, len(mws))
	for i, m := range mws {
		if m == nil {
			panic("httpchain: nil middleware")
		}
		entries[i] = entry{m: m, order: OrderOf(m)}
	}
	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].order < entries[j].order
	})
	stages := make([]stage, len(entries))
	for i := range entries {
		stages[i] = stage{Middleware: entries[i].m, name: NameOf(entries[i].m)}
	}
	return &Chain{
		transport: t,
		stages:    stages,
		timeout:   timeout.DefaultPolicy,
	}
}

// WithTimeoutPolicy returns a copy of c which uses p to compute attempt
// timeouts for plans that carry no timeout of their own. A nil p means
// timeout.DefaultPolicy.
func (c *Chain) WithTimeoutPolicy(p timeout.Policy) *Chain {
	if p == nil {
		p = timeout.DefaultPolicy
	}
	c2 := *c
	c2.timeout = p
	return &c2
}

// Transport returns the chain's transport.
func (c *Chain) Transport() transport.Transport {
	return c.transport
}

// Middleware returns the middleware in execution order.
func (c *Chain) Middleware() []Middleware {
	mws := make([]Middleware, len(c.stages))
	for i := range c.stages {
		mws[i] = c.stages[i].Middleware
	}
	return mws
}

// Names returns the names of the middleware in execution order.
func (c *Chain) Names() []string {
	names := make([]string, len(c.stages))
	for i := range c.stages {
		names[i] = c.stages[i].name
	}
	return names
}

// Async returns an asynchronous chain sharing c's middleware,
// transport, and timeout policy.
func (c *Chain) Async() *AsyncChain {
	return &AsyncChain{chain: c}
}

// CloseIdleConnections forwards to the transport, if it supports it.
func (c *Chain) CloseIdleConnections() {
	if ic, ok := c.transport.(transport.IdleCloser); ok {
		ic.CloseIdleConnections()
	}
}

// Execute runs one attempt of e's plan, blocking until the reverse pass
// is over, and returns its outcome. When it returns, e.Response and
// e.Err hold the outcome, unless the returned error is a retry signal,
// in which case they hold the outcome the signal was raised for.
//
// The attempt is cancelled when the plan context is.
func (c *Chain) Execute(e *request.Execution) (*request.Response, error) {
	return c.execute(e.Plan.Context(), e, c.transport.Send)
}

func (c *Chain) attemptTimeout(e *request.Execution) time.Duration {
	return timeout.Attempt(c.timeout, e)
}

func (c *Chain) execute(ctx context.Context, e *request.Execution, send sendFunc) (*request.Response, error) {
	logger := zerolog.Ctx(ctx)

	attemptCtx := ctx
	if d := c.attemptTimeout(e); d > 0 {
		var cancel context.CancelFunc
		attemptCtx, cancel = context.WithTimeout(ctx, d)
		defer cancel()
	}
	e.Request = e.Plan.ToRequest(attemptCtx)
	e.Response, e.Err = nil, nil

	var resp *request.Response
	var err error
	entered := 0
	for _, s := range c.stages {
		if ctx.Err() != nil {
			err = cancelled(ctx)
			break
		}
		entered++
		if bErr := s.BeforeRequest(e); bErr != nil {
			var sc *shortCircuit
			if errors.As(bErr, &sc) {
				resp = sc.resp
				logger.Debug().Str("middleware", s.name).Int("status", resp.StatusCode).Msg("Attempt short-circuited")
			} else {
				err = bErr
				if transport.KindOf(err) == transport.Timeout {
					err = attemptTimedOut(ctx, attemptCtx, e, err)
				}
				logger.Debug().Err(err).Str("middleware", s.name).Msg("Forward pass aborted")
			}
			break
		}
	}

	if resp == nil && err == nil {
		resp, err = c.send(ctx, attemptCtx, e, send)
	}
	if resp != nil && resp.Request == nil {
		resp.Request = e.Request
	}
	e.Response, e.Err = resp, err

	for i := entered - 1; i >= 0; i-- {
		s := c.stages[i]
		if ctx.Err() != nil && !isCancelled(err) {
			resp, err = nil, cancelled(ctx)
			e.Response, e.Err = nil, err
		}
		if aErr := s.AfterResponse(e, resp, err); aErr != nil {
			if IsRetrySignal(aErr) {
				logger.Debug().Err(aErr).Str("middleware", s.name).Msg("Retry requested")
				return nil, aErr
			}
			logger.Debug().Err(aErr).Str("middleware", s.name).Msg("Reverse pass aborted")
			e.Response, e.Err = nil, aErr
			return nil, aErr
		}
	}

	return resp, err
}

func (c *Chain) send(ctx, attemptCtx context.Context, e *request.Execution, send sendFunc) (*request.Response, error) {
	if ctx.Err() != nil {
		return nil, cancelled(ctx)
	}
	resp, err := send(e.Request)
	switch {
	case err == nil && resp == nil:
		return nil, transport.Wrap(e.Request, errNoOutcome)
	case err == nil:
		return resp, nil
	case ctx.Err() != nil:
		return nil, cancelled(ctx)
	}
	return nil, attemptTimedOut(ctx, attemptCtx, e, transport.Wrap(e.Request, err))
}

// attemptTimedOut counts err as an attempt timeout, forcing its kind to
// Timeout, if the attempt deadline passed while the plan context is
// still live. Otherwise err is returned unchanged.
func attemptTimedOut(ctx, attemptCtx context.Context, e *request.Execution, err error) error {
	if ctx.Err() != nil || !errors.Is(attemptCtx.Err(), context.DeadlineExceeded) {
		return err
	}
	e.AttemptTimeouts++
	var te *transport.Error
	if errors.As(err, &te) && te.Kind != transport.Timeout {
		te2 := *te
		te2.Kind = transport.Timeout
		err = &te2
	}
	return err
}

func isCancelled(err error) bool {
	var ce *CancelledError
	return errors.As(err, &ce)
}
