// Copyright 2021 The httpchain Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

/*
Package httpchain provides an HTTP client built around an ordered
middleware pipeline, with retry support, within a simple and familiar
interface.

Create a Client to begin making requests.

	client := &httpchain.Client{}
	ex, err := client.Get("https://www.example.com")
	...
	ex, err := client.Post("https://www.example.com/upload",
		"application/json", &buf)
	...
	ex, err := client.PostForm("http://example.com/form",
		url.Values{"key": {"Value"}, "id": {"123"}})

Every attempt runs through a Chain: the BeforeRequest hook of each
Middleware in ascending order, then the Transport, then the
AfterResponse hooks in exactly the reverse order. A middleware whose
BeforeRequest was called always sees the outcome in AfterResponse, even
when a later stage failed, so cleanup is guaranteed.

	chain := httpchain.NewChain(
		&transport.HTTP{Doer: &http.Client{}},
		retry.DefaultPolicy,
		middleware.NewRequestID(""),
		middleware.NewLogging(&logger),
	)
	client := &httpchain.Client{
		Chain:   chain,
		Backoff: retry.NewExpWaiter(250*time.Millisecond, 5*time.Second, time.Now()),
	}

Retries are requested by middleware. A retry.Policy returns a
*retry.Signal from AfterResponse when an attempt should be repeated;
the Client then waits according to its Backoff and runs the chain
again with the same plan and the same request.Execution, so anything a
middleware stores in the execution survives across attempts.

For control over the individual attempt timeouts, set a timeout policy
on the chain or a Timeout on the plan:

	chain = chain.WithTimeoutPolicy(timeout.Fixed(10 * time.Second))

Cancelling the plan context stops the execution wherever it is. An
in-flight attempt is abandoned, a pending retry wait ends at once, and
the remaining AfterResponse hooks observe a *CancelledError.

Package httpchain provides basic interfaces for each method of the
client (Doer, AsyncDoer, Getter, Header, Poster, FormPoster, and
IdleCloser); a combined interface that composes the synchronous methods
(Executor); and utility functions for working with a Doer (Inflate,
Get, Head, Post, and PostForm).
*/
package httpchain
