// Copyright 2021 The httpchain Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

/*
Package request contains the value types that flow through an httpchain
middleware pipeline: Plan (a logical HTTP request), Response (the
buffered result of one attempt) and Execution (the per-request state
shared by every pipeline stage).

A Plan describes how to make a logical HTTP request which may involve
several attempts if a retry is needed. It looks like a stripped-down
http.Request whose body has been replaced by a pre-buffered []byte, so
the same plan can be sent any number of times.

	p, err := request.NewPlan("GET", "https://example.com", nil)
	...
	e, err := client.Do(p)
	...

A plan may carry a context, which bounds and cancels the whole
execution, retry waits included:

	p, err := request.NewPlanWithContext(ctx, "POST", "https://example.com/upload", body)

An Execution is created once per logical request and lives across all
of its attempts. Middleware use its attribute bag to carry data from
BeforeRequest to AfterResponse, and from one attempt to the next:

	_ = e.Set("auth.token", tok)
	...
	tok, ok := request.Attr[string](e, "auth.token")
*/
package request
