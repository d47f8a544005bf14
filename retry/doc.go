// Copyright 2021 The httpchain Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

// Package retry provides the middleware which decides whether a failed
// attempt of an HTTP request plan should be retried, and the waiters
// which decide how long to wait before retrying.
//
// A Policy is a middleware. When an attempt ends it consults its
// Decider and, if a retry is warranted, returns a *Signal from
// AfterResponse. The signal unwinds the pipeline and tells the client
// to run it again for the same logical request. The retry count lives
// in the execution's attributes under CountKey, so a Policy is stateless
// and can be shared by any number of concurrent requests.
//
// The simplest way to build a policy is from a Config:
//
//	policy := retry.NewPolicy(retry.Config{
//		MaxAttempts: 3,
//		StatusCodes: []int{503},
//		ErrorKinds:  []transport.Kind{transport.Timeout},
//		Methods:     []string{"GET"},
//	})
//
// Deciders compose, so fully custom policies can be assembled too:
//
//	decider := retry.Times(3).
//		And(retry.Before(5 * time.Second)).
//		And(retry.StatusCode(500).Or(retry.TransientErr))
//	policy := retry.NewDeciderPolicy(decider)
//
// The wait before each retry is computed by a Waiter, configured on the
// client rather than on the policy.
package retry
