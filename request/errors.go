// Copyright 2021 The httpchain Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package request

import "fmt"

// A ValidationError reports a malformed request plan or a misuse of an
// execution's attribute bag, for example an empty attribute key.
//
// Validation errors are always local to the caller and are never
// retried.
type ValidationError struct {
	// Field names the offending input, for example "method" or "key".
	Field string
	// Value is the offending value, if it can be printed.
	Value string
	// Reason is a short description of the problem.
	Reason string
	// Err is the underlying cause, if any.
	Err error
}

func (err *ValidationError) Error() string {
	msg := "httpchain/request: invalid " + err.Field
	if err.Value != "" {
		msg += fmt.Sprintf(" %q", err.Value)
	}
	if err.Reason != "" {
		msg += ": " + err.Reason
	}
	if err.Err != nil {
		msg += ": " + err.Err.Error()
	}
	return msg
}

func (err *ValidationError) Unwrap() error {
	return err.Err
}
