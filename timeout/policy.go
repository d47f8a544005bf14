// Copyright 2021 The httpchain Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package timeout

import (
	"time"

	"github.com/gogama/httpchain/request"
	"github.com/gogama/httpchain/transport"
)

// A Policy computes the timeout of the next attempt of a request plan
// execution. It must be safe for concurrent use by multiple goroutines.
type Policy interface {
	// Timeout returns the timeout of the next attempt of e. When it is
	// called, e.Err and e.AttemptTimeouts still describe the previous
	// attempt, if there was one. Zero or less means the attempt is
	// bounded only by the plan context.
	Timeout(e *request.Execution) time.Duration
}

// DefaultPolicy bounds every attempt to 5 seconds.
var DefaultPolicy Policy = Fixed(5 * time.Second)

// Infinite never bounds an attempt.
var Infinite Policy = Fixed(0)

// Attempt returns the timeout of the next attempt of e. A positive
// Plan.Timeout takes precedence over p. A nil p means DefaultPolicy.
func Attempt(p Policy, e *request.Execution) time.Duration {
	if e.Plan != nil && e.Plan.Timeout > 0 {
		return e.Plan.Timeout
	}
	if p == nil {
		p = DefaultPolicy
	}
	return p.Timeout(e)
}

// TimedOut reports whether the previous attempt of e ended in a
// timeout, as classified by the transport package.
func TimedOut(e *request.Execution) bool {
	return transport.Classify(e.Err) == transport.Timeout
}

type fixed time.Duration

// Fixed returns a policy giving every attempt the timeout d.
func Fixed(d time.Duration) Policy {
	return fixed(d)
}

func (f fixed) Timeout(*request.Execution) time.Duration {
	return time.Duration(f)
}

type adaptive struct {
	usual time.Duration
	after []time.Duration
}

// Adaptive returns a policy which lengthens the timeout after attempts
// time out, for services whose slowness comes in bursts: a quick usual
// timeout cures one-off slow responses, while the longer timeouts keep
// a burst of slowness from failing every attempt.
//
// The initial attempt, and any attempt following one which did not time
// out, gets usual. An attempt following the n-th attempt timeout of the
// execution gets after[n-1], or the last element of after once n
// exceeds its length. For example:
//
//	p := Adaptive(200*time.Millisecond, time.Second, 10*time.Second)
//
// gives 200ms normally, 1s after the first attempt timeout, and 10s
// after any later one.
func Adaptive(usual time.Duration, after ...time.Duration) Policy {
	return &adaptive{
		usual: usual,
		after: append([]time.Duration(nil), after...),
	}
}

func (a *adaptive) Timeout(e *request.Execution) time.Duration {
	n := e.AttemptTimeouts
	if n == 0 || len(a.after) == 0 || !TimedOut(e) {
		return a.usual
	}
	if n > len(a.after) {
		n = len(a.after)
	}
	return a.after[n-1]
}
