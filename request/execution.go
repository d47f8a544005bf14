// Copyright 2021 The httpchain Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package request

import (
	"errors"
	"net/http"
	"time"
)

// A Doer executes request plans. It is satisfied by httpchain.Client
// and lets middleware issue side requests through the same client that
// is executing the current plan.
type Doer interface {
	Do(p *Plan) (*Execution, error)
}

// An Execution holds the state of one logical request: the plan being
// executed, the outcome of the most recent attempt, and a string-keyed
// attribute bag that middleware use to share scratch data across
// pipeline stages and across retries.
//
// An Execution is created once per logical request, not once per
// attempt, so anything stored with Set survives retries. It is owned
// by exactly one goroutine at a time and is not safe for concurrent
// use; nothing in this library shares an Execution between logical
// requests.
//
// Middleware may read the exported fields freely. Apart from the
// attempt request, which middleware may adjust before it is sent, the
// fields are maintained by the chain and the client and should be
// treated as read-only.
type Execution struct {
	// Plan is the logical request being executed. It is never nil.
	Plan *Plan
	// Client is the client executing the plan. It may be nil if the
	// execution is driven by a bare chain.
	Client Doer
	// Start is the time the execution started.
	Start time.Time
	// End is the time the execution ended, or the zero time while the
	// execution is in flight.
	End time.Time
	// Attempt is the zero-based number of the current attempt: zero on
	// the initial attempt, one on the first retry, and so on.
	Attempt int
	// AttemptTimeouts counts the attempts which ended in an
	// attempt-level timeout.
	AttemptTimeouts int
	// Request is the HTTP request of the current attempt. It is built
	// from the plan at the start of every attempt, with a private copy
	// of the plan header.
	Request *http.Request
	// Response is the response received in the current attempt, or nil
	// if the attempt is underway or failed.
	Response *Response
	// Err is the error the current attempt ended with, or nil.
	Err error

	attrs map[string]any
}

// NewExecution returns a fresh execution for plan p, executed by the
// optional client c.
func NewExecution(p *Plan, c Doer) *Execution {
	if p == nil {
		panic("httpchain/request: nil plan")
	}
	return &Execution{Plan: p, Client: c}
}

// Set stores value under key, replacing any previous value. The key
// must not be empty.
func (e *Execution) Set(key string, value any) error {
	if key == "" {
		return &ValidationError{Field: "key", Reason: "attribute key must not be empty"}
	}
	if e.attrs == nil {
		e.attrs = make(map[string]any)
	}
	e.attrs[key] = value
	return nil
}

// Get returns the value stored under key, and whether it was present.
func (e *Execution) Get(key string) (any, bool) {
	v, ok := e.attrs[key]
	return v, ok
}

// Remove deletes key and returns the value it held, if any.
func (e *Execution) Remove(key string) (any, bool) {
	v, ok := e.attrs[key]
	if ok {
		delete(e.attrs, key)
	}
	return v, ok
}

// Has reports whether a value is stored under key.
func (e *Execution) Has(key string) bool {
	_, ok := e.attrs[key]
	return ok
}

// Clear removes every attribute.
func (e *Execution) Clear() {
	clear(e.attrs)
}

// Attributes returns a copy of the attribute bag.
func (e *Execution) Attributes() map[string]any {
	m := make(map[string]any, len(e.attrs))
	for k, v := range e.attrs {
		m[k] = v
	}
	return m
}

// Attr returns the value stored under key if it is present and has
// type T.
func Attr[T any](e *Execution, key string) (T, bool) {
	v, ok := e.attrs[key]
	if !ok {
		var zero T
		return zero, false
	}
	t, ok := v.(T)
	return t, ok
}

// StatusCode returns the status code of the current response, or 0 if
// there is none.
func (e *Execution) StatusCode() int {
	if e.Response == nil {
		return 0
	}
	return e.Response.StatusCode
}

// Header returns the headers of the current response, or a nil header
// if there is none. A nil header is safe for read-only use.
func (e *Execution) Header() http.Header {
	if e.Response == nil {
		return nil
	}
	return e.Response.Header
}

// Duration returns the duration of the execution: zero before it
// starts, End minus Start once it has ended, and the time elapsed since
// Start otherwise.
func (e *Execution) Duration() time.Duration {
	if !e.Started() {
		return 0
	} else if !e.Ended() {
		return time.Since(e.Start)
	}
	return e.End.Sub(e.Start)
}

// Started indicates whether the execution has started.
func (e *Execution) Started() bool {
	return !e.Start.IsZero()
}

// Ended indicates whether the execution has ended.
func (e *Execution) Ended() bool {
	return !e.End.IsZero()
}

// Timeout indicates whether Err currently holds a timeout error.
func (e *Execution) Timeout() bool {
	var t interface{ Timeout() bool }
	return errors.As(e.Err, &t) && t.Timeout()
}
