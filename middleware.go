// Copyright 2021 The httpchain Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package httpchain

import (
	"fmt"

	"github.com/gogama/httpchain/request"
)

// DefaultOrder is the order of a middleware which does not implement
// Orderer.
const DefaultOrder = 500

// A Middleware intercepts every attempt of every request plan executed
// by a Chain.
//
// BeforeRequest is called on the request path in ascending order. It
// may inspect the execution and adjust the attempt request,
// e.Request, before it is sent. Returning a non-nil error aborts the
// forward pass: no later middleware is entered and the transport is not
// called. Returning the error made by ShortCircuit supplies a response
// instead of calling the transport.
//
// AfterResponse is called on the response path, in exactly the reverse
// order, on every middleware whose BeforeRequest was called, including
// one whose BeforeRequest failed. Exactly one of resp and err is
// non-nil. Returning a non-nil error stops the reverse pass and
// replaces the outcome of the attempt.
//
// One Middleware value is shared by all the requests a chain executes,
// so implementations must be safe for concurrent use. Per-request state
// belongs in the execution's attributes.
type Middleware interface {
	BeforeRequest(e *request.Execution) error
	AfterResponse(e *request.Execution, resp *request.Response, err error) error
}

// An Orderer is a Middleware with a position in the chain. Lower orders
// run earlier on the request path and later on the response path.
type Orderer interface {
	Order() int
}

// A Namer is a Middleware with a name for diagnostics.
type Namer interface {
	Name() string
}

// OrderOf returns the order of m, or DefaultOrder if m does not
// implement Orderer.
func OrderOf(m Middleware) int {
	if o, ok := m.(Orderer); ok {
		return o.Order()
	}
	return DefaultOrder
}

// NameOf returns the name of m. If m does not implement Namer, its
// dynamic type is used.
func NameOf(m Middleware) string {
	if n, ok := m.(Namer); ok {
		return n.Name()
	}
	return fmt.Sprintf("%T", m)
}

// Hooks is a Middleware made of ordinary functions. A nil function is
// a no-op.
type Hooks struct {
	Before func(e *request.Execution) error
	After  func(e *request.Execution, resp *request.Response, err error) error
}

// BeforeRequest calls h.Before, if set.
func (h Hooks) BeforeRequest(e *request.Execution) error {
	if h.Before == nil {
		return nil
	}
	return h.Before(e)
}

// AfterResponse calls h.After, if set.
func (h Hooks) AfterResponse(e *request.Execution, resp *request.Response, err error) error {
	if h.After == nil {
		return nil
	}
	return h.After(e, resp, err)
}

// WithOrder wraps m so that it runs at the given order. The wrapper
// keeps m's name.
func WithOrder(m Middleware, order int) Middleware {
	if m == nil {
		panic("httpchain: nil middleware")
	}
	return &decorated{Middleware: m, order: order, name: NameOf(m)}
}

// WithName wraps m so that it reports the given name. The wrapper keeps
// m's order.
func WithName(m Middleware, name string) Middleware {
	if m == nil {
		panic("httpchain: nil middleware")
	}
	return &decorated{Middleware: m, order: OrderOf(m), name: name}
}

type decorated struct {
	Middleware
	order int
	name  string
}

func (d *decorated) Order() int {
	return d.order
}

func (d *decorated) Name() string {
	return d.name
}

// ShortCircuit returns an error which, returned from BeforeRequest,
// ends the forward pass with resp as the outcome of the attempt. The
// transport is not called, and the reverse pass starts from the
// middleware which short-circuited. It is how caching or mocking
// middleware answers a request locally.
func ShortCircuit(resp *request.Response) error {
	if resp == nil {
		panic("httpchain: nil short-circuit response")
	}
	return &shortCircuit{resp: resp}
}

type shortCircuit struct {
	resp *request.Response
}

func (s *shortCircuit) Error() string {
	return fmt.Sprintf("httpchain: short-circuit response %d", s.resp.StatusCode)
}
