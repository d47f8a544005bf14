// Copyright 2021 The httpchain Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package httpchain

import (
	"context"
	"errors"
	"net/url"
	"time"

	"github.com/rs/zerolog"

	"github.com/gogama/httpchain/request"
	"github.com/gogama/httpchain/retry"
	"github.com/gogama/httpchain/transport"
)

var defaultChain = NewChain(transport.Default, retry.DefaultPolicy)

var nopLogger = zerolog.Nop()

// A Client executes request plans through a middleware chain, running
// the chain again whenever a middleware asks for a retry. Its zero
// value is a valid configuration.
//
// The zero value client uses a chain made of retry.DefaultPolicy over
// transport.Default, which sends requests with http.DefaultClient, and
// waits between attempts according to retry.DefaultWaiter.
//
// A Client is safe for concurrent use by multiple goroutines. Each
// logical request gets its own request.Execution, which lives until
// the request completes and is never shared, while the chain and its
// middleware are shared by all requests.
//
// Client's HTTP methods should feel familiar to anyone who has used the
// Go standard HTTP client (http.Client). The main differences are:
//
// • instead of consuming an http.Request, which is only suitable for
// making a one-off request attempt, Client.Do consumes a request.Plan
// which is suitable for making multiple attempts if necessary; and
//
// • instead of producing an http.Response, all of Client's HTTP methods
// return a request.Execution, which contains some metadata about the
// plan execution as well as a fully-buffered response.
type Client struct {
	// Chain is the middleware chain every attempt runs through.
	//
	// If Chain is nil, a chain made of retry.DefaultPolicy over
	// transport.Default is used.
	Chain *Chain
	// Backoff computes how long to wait before each retry. The client
	// never waits less than it did before an earlier retry of the same
	// execution.
	//
	// If Backoff is nil, retry.DefaultWaiter is used.
	Backoff retry.Waiter
	// RaiseForStatus, if set, makes a final response whose status is
	// not in the 2XX range an error of type *StatusError. Otherwise
	// such a response is returned with a nil error.
	RaiseForStatus bool
	// Logger receives the client's own log events, and is made
	// available to the chain's middleware through the plan context
	// unless the context already carries a logger.
	//
	// If Logger is nil, nothing is logged.
	Logger *zerolog.Logger
}

// Do executes an HTTP request plan and returns the results.
//
// Do runs the chain once per attempt. Whenever a middleware raises a
// *retry.Signal, Do waits according to the Backoff and runs the chain
// again with the same plan and the same execution, so attributes set
// by middleware, including the retry count, survive retries. Do has
// exactly one exit: it returns once an attempt ends without a signal,
// or once the plan context is done.
//
// When retries are exhausted, the outcome of the last attempt is
// returned as is: its response with a nil error, or its error. A
// non-2XX status in the final response is not an error unless
// RaiseForStatus is set.
//
// The returned Execution is never nil unless p is nil. If an error is
// returned, the execution's Err field references the same error. The
// possible errors are *ValidationError, *transport.Error,
// *CancelledError, *StatusError, and any error returned by a
// middleware. A retry signal is never returned.
func (c *Client) Do(p *request.Plan) (*request.Execution, error) {
	if p == nil {
		return nil, &ValidationError{Field: "plan", Reason: "must not be nil"}
	}
	e := request.NewExecution(p, c)
	ctx := c.withLogger(p.Context())
	chain := c.chain()
	err := c.run(ctx, e, func() error {
		_, err := chain.execute(ctx, e, chain.transport.Send)
		return err
	})
	return e, err
}

// DoAsync is the asynchronous counterpart of Do. It returns at once,
// and the returned future yields the execution and error Do would
// have returned.
//
// Cancelling the future abandons the attempt in flight, or ends a
// pending retry wait immediately, and makes the result a
// *CancelledError.
func (c *Client) DoAsync(p *request.Plan) *Future[*request.Execution] {
	if p == nil {
		return failed[*request.Execution](&ValidationError{Field: "plan", Reason: "must not be nil"})
	}
	e := request.NewExecution(p, c)
	f := newFuture[*request.Execution](c.withLogger(p.Context()))
	async := c.chain().Async()
	go func() {
		err := c.run(f.ctx, e, func() error {
			_, err := async.execute(f.ctx, e)
			return err
		})
		f.complete(e, err)
	}()
	return f
}

func (c *Client) run(ctx context.Context, e *request.Execution, attempt func() error) error {
	logger := c.logger()
	waiter := c.backoff()

	e.Start = time.Now()
	var lastWait time.Duration
	var err error
	for {
		err = attempt()
		var sig *retry.Signal
		if !errors.As(err, &sig) {
			break
		}
		wait := max(waiter.Wait(e), lastWait)
		lastWait = wait
		logger.Debug().
			Str("method", e.Plan.Method).
			Stringer("url", e.Plan.URL).
			Int("attempt", e.Attempt).
			Int("retry", sig.Attempt).
			Dur("wait", wait).
			Msg("Retrying request")
		if err = sleep(ctx, wait); err != nil {
			e.Response, e.Err = nil, err
			logger.Debug().Err(err).Stringer("url", e.Plan.URL).Msg("Retry wait cancelled")
			break
		}
		e.Attempt++
	}
	e.End = time.Now()

	if err == nil && c.RaiseForStatus && e.Response != nil && !e.Response.Success() {
		err = &StatusError{Response: e.Response}
		e.Err = err
	}

	ev := logger.Debug()
	if err != nil {
		ev = logger.Info().Err(err)
	}
	ev.Str("method", e.Plan.Method).
		Stringer("url", e.Plan.URL).
		Int("attempts", e.Attempt+1).
		Int("status", e.StatusCode()).
		Dur("duration", e.Duration()).
		Msg("Request completed")
	return err
}

// sleep waits for d, or until ctx is done.
func sleep(ctx context.Context, d time.Duration) error {
	if ctx.Err() != nil {
		return cancelled(ctx)
	}
	if d <= 0 {
		return nil
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return cancelled(ctx)
	}
}

// Get issues a GET to the specified URL, using the same policies
// followed by Do.
//
// To make a request plan with custom headers, use request.NewPlan and
// Client.Do.
func (c *Client) Get(url string) (*request.Execution, error) {
	return Get(c, url)
}

// Head issues a HEAD to the specified URL, using the same policies
// followed by Do.
//
// To make a request plan with custom headers, use request.NewPlan and
// Client.Do.
func (c *Client) Head(url string) (*request.Execution, error) {
	return Head(c, url)
}

// Post issues a POST to the specified URL, using the same policies
// followed by Do.
//
// The body parameter may be nil for an empty body, or may be any of the
// types supported by request.NewPlan, request.BodyBytes, and
// httpchain.Post, namely: string; []byte; io.Reader; and io.ReadCloser.
//
// To make a request plan with custom headers, use request.NewPlan and
// Client.Do.
func (c *Client) Post(url, contentType string, body any) (*request.Execution, error) {
	return Post(c, url, contentType, body)
}

// PostForm issues a POST to the specified URL, with data's keys and
// values URL-encoded as the request body.
//
// The Content-Type header is set to application/x-www-form-urlencoded.
// To set other headers, use request.NewPlan and Client.Do.
func (c *Client) PostForm(url string, data url.Values) (*request.Execution, error) {
	return PostForm(c, url, data)
}

// CloseIdleConnections invokes the same method on the chain's
// transport. If the transport has no CloseIdleConnections method, this
// method does nothing.
func (c *Client) CloseIdleConnections() {
	c.chain().CloseIdleConnections()
}

func (c *Client) chain() *Chain {
	if c.Chain == nil {
		return defaultChain
	}
	return c.Chain
}

func (c *Client) backoff() retry.Waiter {
	if c.Backoff == nil {
		return retry.DefaultWaiter
	}
	return c.Backoff
}

func (c *Client) logger() *zerolog.Logger {
	if c.Logger == nil {
		return &nopLogger
	}
	return c.Logger
}

func (c *Client) withLogger(ctx context.Context) context.Context {
	if c.Logger == nil || zerolog.Ctx(ctx).GetLevel() != zerolog.Disabled {
		return ctx
	}
	return c.Logger.WithContext(ctx)
}
