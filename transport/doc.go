// Copyright 2021 The httpchain Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

/*
Package transport sends single HTTP request attempts and classifies the
errors they fail with.

A Transport is the innermost stage of a middleware chain. It receives
the fully prepared attempt request, sends it, and returns a completely
buffered request.Response. The HTTP type adapts any net/http style
doer, including http.Client, into a Transport.

Transport failures are reported as *Error, whose Kind field says what
went wrong in terms a retry policy can reason about: the connection
could not be established (ConnectFailed), the attempt ran out of time
(Timeout), an established connection was torn down (Reset), or the
peer violated the protocol (Protocol). Use Classify to compute the kind
of an arbitrary error, and KindOf to read it from an error chain.
*/
package transport
