// Copyright 2021 The httpchain Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package httpchain

import (
	"context"
	"errors"
	"fmt"

	"github.com/gogama/httpchain/request"
	"github.com/gogama/httpchain/retry"
)

// ValidationError reports a malformed request plan or a misuse of the
// execution attribute bag. It is never retried.
type ValidationError = request.ValidationError

// A CancelledError reports that a request plan execution was stopped
// because its context was cancelled or its deadline passed, either
// during an attempt or while waiting to retry. It is terminal: no
// further attempt is made after it is raised.
//
// Middleware observe a CancelledError in AfterResponse exactly like
// any other error, so cleanup runs as usual.
type CancelledError struct {
	// Err is the context error, context.Canceled or
	// context.DeadlineExceeded.
	Err error
}

func (err *CancelledError) Error() string {
	return "httpchain: execution cancelled: " + err.Err.Error()
}

func (err *CancelledError) Unwrap() error {
	return err.Err
}

// Timeout reports whether the cancellation was caused by a deadline.
func (err *CancelledError) Timeout() bool {
	return errors.Is(err.Err, context.DeadlineExceeded)
}

func cancelled(ctx context.Context) error {
	err := ctx.Err()
	if err == nil {
		err = context.Canceled
	}
	return &CancelledError{Err: err}
}

// A StatusError reports a final response whose status is not in the
// 2XX range. It is only produced when Client.RaiseForStatus is set;
// otherwise such a response is returned normally.
type StatusError struct {
	Response *request.Response
}

func (err *StatusError) Error() string {
	method, url := "GET", ""
	if r := err.Response.Request; r != nil {
		if r.Method != "" {
			method = r.Method
		}
		url = r.URL.String()
	}
	return fmt.Sprintf("httpchain: request failed: %s for %s %s", err.status(), method, url)
}

func (err *StatusError) status() string {
	if err.Response.Status != "" {
		return err.Response.Status
	}
	return fmt.Sprintf("%d", err.Response.StatusCode)
}

// StatusCode returns the status code of the response.
func (err *StatusError) StatusCode() int {
	return err.Response.StatusCode
}

// IsRetrySignal reports whether err is, or wraps, a retry signal. A
// client never returns one; the helper is for middleware and custom
// drivers that run a Chain directly.
func IsRetrySignal(err error) bool {
	var s *retry.Signal
	return errors.As(err, &s)
}
