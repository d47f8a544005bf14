// Copyright 2021 The httpchain Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package retry

import (
	"net/http"
	"time"

	"github.com/gogama/httpchain/request"
	"github.com/gogama/httpchain/transport"
)

// A Decider decides if a retry should be done.
//
// A Decider is consulted by a Policy from its AfterResponse hook. At
// that point the execution's Response and Err fields hold the outcome
// of the attempt which just ended, and the retry count attribute holds
// the number of retries already done.
//
// Implementations of Decider must be safe for concurrent use by
// multiple goroutines.
//
// Use the built-in constructors Times, Before, StatusCode, ErrorKind,
// and Method, and the built-in decider TransientErr; or implement your
// Decider. Use DeciderFunc to convert an ordinary function into a
// Decider, and to compose deciders logically using DeciderFunc.And and
// DeciderFunc.Or.
type Decider interface {
	Decide(e *request.Execution) bool
}

// The DeciderFunc type is an adapter to allow the use of ordinary
// functions as retry deciders. It implements the Decider interface, and
// also provides the logical composition methods And and Or.
//
// Every DeciderFunc must be safe for concurrent use by multiple
// goroutines.
type DeciderFunc func(e *request.Execution) bool

// DefaultTimes is the number of times DefaultPolicy will retry.
const DefaultTimes = 3

var (
	// DefaultStatusCodes are the response status codes DefaultPolicy
	// retries.
	DefaultStatusCodes = []int{500, 502, 503, 504}
	// DefaultErrorKinds are the transport failure kinds DefaultPolicy
	// retries.
	DefaultErrorKinds = []transport.Kind{transport.ConnectFailed, transport.Timeout, transport.Reset}
	// DefaultMethods are the request methods DefaultPolicy considers
	// safe to repeat.
	DefaultMethods = []string{http.MethodGet, http.MethodHead, http.MethodOptions}
)

// DefaultDecider is a general-purpose retry decider suitable for
// common use cases. It allows up to DefaultTimes retries (up to 4 total
// attempts) of GET, HEAD, and OPTIONS requests, and retries when a
// transient transport error occurs (TransientErr) or the response status
// is 500, 502, 503 or 504.
var DefaultDecider = Times(DefaultTimes).
	And(Method(DefaultMethods...)).
	And(StatusCode(DefaultStatusCodes...).Or(TransientErr))

// TransientErr is a decider that indicates a retry if the current error
// is a transport error of kind ConnectFailed, Timeout, or Reset.
//
// TransientErr only looks at the error, so it will always return false
// if a valid HTTP response is returned. Compose it with other deciders,
// for example a status code decider constructed with StatusCode, to
// get more complex functionality.
var TransientErr = ErrorKind(DefaultErrorKinds...)

// Decide returns true if a retry should be done, and false otherwise,
// after examining the current HTTP request plan execution state.
func (f DeciderFunc) Decide(e *request.Execution) bool {
	return f(e)
}

// And composes two retry deciders into a new decider which returns true
// if both sub-deciders return true, and false otherwise.
//
// Short-circuit logic is used, so g will not be evaluated if f returns
// false.
func (f DeciderFunc) And(g DeciderFunc) DeciderFunc {
	return func(e *request.Execution) bool {
		return f(e) && g(e)
	}
}

// Or composes two retry deciders into a new decider which returns
// true if either of the two sub-deciders returns true, but false if
// they both return false.
//
// Short-circuit logic is used, so g will not be evaluated if f returns
// true.
func (f DeciderFunc) Or(g DeciderFunc) DeciderFunc {
	return func(e *request.Execution) bool {
		return f(e) || g(e)
	}
}

// Times constructs a retry decider which allows up to n retries. The
// returned decider returns true while the retry count recorded in the
// execution (see Count) is less than n, and false otherwise.
func Times(n int) DeciderFunc {
	return func(e *request.Execution) bool {
		return Count(e) < n
	}
}

// Before constructs a retry decider allowing retries until a certain
// amount of time has elapsed since the start of the logical HTTP request
// plan execution. The returned decider returns true while the execution
// duration is less than d, and false afterward.
func Before(d time.Duration) DeciderFunc {
	return func(e *request.Execution) bool {
		return e.Duration() < d
	}
}

// StatusCode constructs a retry decider allowing retries based on the
// HTTP response status code. If the most recent request attempt within
// the plan execution received a valid HTTP response, and the response
// status code is contained in the list ss, the decider returns true.
// Otherwise, it returns false.
func StatusCode(ss ...int) DeciderFunc {
	set := make(map[int]struct{}, len(ss))
	for _, s := range ss {
		set[s] = struct{}{}
	}
	return func(e *request.Execution) bool {
		if e.Response == nil {
			return false
		}
		_, ok := set[e.StatusCode()]
		return ok
	}
}

// ErrorKind constructs a retry decider allowing retries based on the
// kind of transport error the most recent attempt ended with. Only
// errors wrapping a *transport.Error are considered; see
// transport.KindOf.
func ErrorKind(kinds ...transport.Kind) DeciderFunc {
	set := make(map[transport.Kind]struct{}, len(kinds))
	for _, k := range kinds {
		set[k] = struct{}{}
	}
	return func(e *request.Execution) bool {
		k := transport.KindOf(e.Err)
		if k == transport.None {
			return false
		}
		_, ok := set[k]
		return ok
	}
}

// Method constructs a retry decider which only allows retries of plans
// whose method is in the list ms. Methods are case-sensitive, and an
// empty plan method is treated as GET.
//
// Non-idempotent methods such as POST should normally be left out, so
// that an operation which may have reached the server is not
// duplicated.
func Method(ms ...string) DeciderFunc {
	set := make(map[string]struct{}, len(ms))
	for _, m := range ms {
		set[m] = struct{}{}
	}
	return func(e *request.Execution) bool {
		if e.Plan == nil {
			return false
		}
		m := e.Plan.Method
		if m == "" {
			m = http.MethodGet
		}
		_, ok := set[m]
		return ok
	}
}
