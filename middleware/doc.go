// Copyright 2021 The httpchain Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

/*
Package middleware provides ready-made pipeline stages for an
httpchain.Chain.

Every stage here has a fixed default order, so a chain built with any
subset of them nests the stages the same way regardless of the order in
which they are passed to httpchain.NewChain:

	RequestID      50
	Headers       100
	Tracing       150
	Metrics       250
	Logging       300
	RateLimit     400
	HostThrottle  410

The retry policy from package retry has order 10, so it wraps all of
them and its retry decision is made only after each stage has seen the
outcome of the attempt. Stages which are inside the retry policy run
once per attempt; state which must survive retries, such as the
request ID, is kept in the execution attributes.

All of the stages are safe for concurrent use.
*/
package middleware
