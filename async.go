// Copyright 2021 The httpchain Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package httpchain

import (
	"context"
	"net/http"

	"github.com/gogama/httpchain/request"
	"github.com/gogama/httpchain/timeout"
	"github.com/gogama/httpchain/transport"
)

// An AsyncChain runs attempts like a Chain, with the same ordering and
// nesting, but without blocking the caller. The middleware stages of
// an attempt still run one after another on a single goroutine.
//
// The transport runs on a goroutine of its own and is raced against
// the cancellation of the execution, so cancelling a Future abandons
// the transport call even if the transport ignores its context.
type AsyncChain struct {
	chain *Chain
}

// NewAsyncChain returns an asynchronous chain over transport t with
// the given middleware. It panics under the same conditions as
// NewChain.
func NewAsyncChain(t transport.Transport, mws ...Middleware) *AsyncChain {
	return NewChain(t, mws...).Async()
}

// Chain returns the synchronous chain sharing a's configuration.
func (a *AsyncChain) Chain() *Chain {
	return a.chain
}

// WithTimeoutPolicy returns a copy of a using timeout policy p.
func (a *AsyncChain) WithTimeoutPolicy(p timeout.Policy) *AsyncChain {
	return a.chain.WithTimeoutPolicy(p).Async()
}

// Execute starts one attempt of e's plan and returns its deferred
// outcome. The execution must not be touched until the future is done.
//
// The attempt is cancelled when the plan context is, or when the
// future is cancelled.
func (a *AsyncChain) Execute(e *request.Execution) *Future[*request.Response] {
	f := newFuture[*request.Response](e.Plan.Context())
	go func() {
		f.complete(a.execute(f.ctx, e))
	}()
	return f
}

func (a *AsyncChain) execute(ctx context.Context, e *request.Execution) (*request.Response, error) {
	return a.chain.execute(ctx, e, a.racingSend(ctx))
}

type sendResult struct {
	resp *request.Response
	err  error
}

// racingSend returns a send function which gives up on the transport
// as soon as ctx or the attempt context is done. An abandoned call
// finishes in the background and its result is discarded.
func (a *AsyncChain) racingSend(ctx context.Context) sendFunc {
	return func(r *http.Request) (*request.Response, error) {
		ch := make(chan sendResult, 1)
		go func() {
			resp, err := a.chain.transport.Send(r)
			ch <- sendResult{resp, err}
		}()
		select {
		case res := <-ch:
			return res.resp, res.err
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-r.Context().Done():
			return nil, r.Context().Err()
		}
	}
}
