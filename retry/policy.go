// Copyright 2021 The httpchain Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package retry

import (
	"fmt"

	"github.com/gogama/httpchain/request"
	"github.com/gogama/httpchain/transport"
)

// CountKey is the execution attribute under which a Policy records the
// number of retries done so far in the logical request.
const CountKey = "retry.count"

// DefaultOrder is the pipeline order of a Policy unless configured
// otherwise. It is low, so the policy is entered first and sees the
// response last, after every other stage has observed it.
const DefaultOrder = 10

// A Signal is returned from Policy.AfterResponse to ask the driver to
// run the whole pipeline again for the same logical request.
//
// A Signal is a control value rather than a failure. The driver always
// consumes it and it is never returned to the caller.
type Signal struct {
	// Attempt is the retry count after this signal: 1 for the first
	// retry, 2 for the second, and so on.
	Attempt int
	// StatusCode is the status of the response which triggered the
	// retry, or 0 if the attempt failed with an error.
	StatusCode int
	// Err is the error the attempt failed with, if any.
	Err error
}

func (s *Signal) Error() string {
	if s.Err != nil {
		return fmt.Sprintf("httpchain/retry: retry %d requested after error: %v", s.Attempt, s.Err)
	}
	return fmt.Sprintf("httpchain/retry: retry %d requested after status %d", s.Attempt, s.StatusCode)
}

func (s *Signal) Unwrap() error {
	return s.Err
}

// Config configures a Policy built by NewPolicy.
type Config struct {
	// MaxAttempts is the maximum number of retries, not counting the
	// initial attempt. Zero disables retries. It must not be negative.
	MaxAttempts int
	// StatusCodes lists the response status codes which are retried.
	StatusCodes []int
	// ErrorKinds lists the transport failure kinds which are retried.
	ErrorKinds []transport.Kind
	// Methods lists the request methods which may be retried. A plan
	// whose method is not listed is never retried, whatever its
	// outcome. An empty list disables retries.
	Methods []string
	// Order is the pipeline order of the policy. Zero means
	// DefaultOrder.
	Order int
}

// A Policy is a middleware which asks for the pipeline to be run again
// when an attempt fails in a retryable way.
//
// A Policy holds no per-request state: the retry count of each logical
// request lives in its execution under CountKey, so one Policy can be
// shared by any number of concurrent requests.
type Policy struct {
	decider Decider
	order   int
}

// DefaultPolicy is a general-purpose retry policy suitable for common
// use cases. It retries GET, HEAD, and OPTIONS requests up to
// DefaultTimes times on a 500, 502, 503, or 504 status or on a
// connection failure, timeout, or reset.
var DefaultPolicy = NewPolicy(Config{
	MaxAttempts: DefaultTimes,
	StatusCodes: DefaultStatusCodes,
	ErrorKinds:  DefaultErrorKinds,
	Methods:     DefaultMethods,
})

// Never is a policy that never retries.
var Never = NewPolicy(Config{})

// NewPolicy builds a Policy from a configuration. A retry is requested
// only if all of these hold: fewer than MaxAttempts retries have been
// done, the plan method is in Methods, and either the response status
// is in StatusCodes or the transport error kind is in ErrorKinds.
//
// NewPolicy panics if MaxAttempts is negative.
func NewPolicy(cfg Config) *Policy {
	if cfg.MaxAttempts < 0 {
		panic("httpchain/retry: negative max attempts")
	}
	d := Times(cfg.MaxAttempts).
		And(Method(cfg.Methods...)).
		And(StatusCode(cfg.StatusCodes...).Or(ErrorKind(cfg.ErrorKinds...)))
	p := NewDeciderPolicy(d)
	if cfg.Order != 0 {
		p.order = cfg.Order
	}
	return p
}

// NewDeciderPolicy builds a Policy which retries whenever d says so.
//
// The decider is solely responsible for bounding the number of retries,
// typically by composing it with Times.
func NewDeciderPolicy(d Decider) *Policy {
	if d == nil {
		panic("httpchain/retry: nil decider")
	}
	return &Policy{decider: d, order: DefaultOrder}
}

// WithOrder returns a copy of p with a different pipeline order.
func (p *Policy) WithOrder(order int) *Policy {
	p2 := *p
	p2.order = order
	return &p2
}

// Order returns the pipeline order of the policy.
func (p *Policy) Order() int {
	return p.order
}

// Name returns "retry".
func (p *Policy) Name() string {
	return "retry"
}

// BeforeRequest initializes the retry count of the execution, if it is
// not already set.
func (p *Policy) BeforeRequest(e *request.Execution) error {
	if !e.Has(CountKey) {
		return e.Set(CountKey, 0)
	}
	return nil
}

// AfterResponse returns a *Signal if the attempt which just ended
// should be retried, after incrementing the retry count. Otherwise it
// returns nil and lets the outcome propagate.
//
// A plan whose context is already done is never retried.
func (p *Policy) AfterResponse(e *request.Execution, _ *request.Response, err error) error {
	if e.Plan.Context().Err() != nil {
		return nil
	}
	if !p.decider.Decide(e) {
		return nil
	}
	n := Count(e) + 1
	if setErr := e.Set(CountKey, n); setErr != nil {
		return setErr
	}
	return &Signal{Attempt: n, StatusCode: e.StatusCode(), Err: err}
}

// Decide consults the policy's decider directly.
func (p *Policy) Decide(e *request.Execution) bool {
	return p.decider.Decide(e)
}

// Count returns the number of retries done so far in the execution, or
// 0 if no Policy has recorded one.
func Count(e *request.Execution) int {
	n, _ := request.Attr[int](e, CountKey)
	return n
}
