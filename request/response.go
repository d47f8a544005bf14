// Copyright 2021 The httpchain Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package request

import (
	"mime"
	"net/http"
)

// A Response is the fully buffered result of one attempt. Every
// Transport call that succeeds produces a new Response; a retried
// attempt discards the previous one.
type Response struct {
	// StatusCode is the HTTP status code, e.g. 200.
	StatusCode int
	// Status is the status line text, e.g. "200 OK".
	Status string
	// Proto is the protocol version, e.g. "HTTP/1.1".
	Proto string
	// Header holds the response header fields.
	Header http.Header
	// Body is the complete response body.
	Body []byte
	// Request is the attempt request which produced this response.
	Request *http.Request
}

// Success reports whether the status code is in the 2XX range.
func (r *Response) Success() bool {
	return r.StatusCode >= 200 && r.StatusCode < 300
}

// IsError reports whether the status code signals a client or server
// error (4XX or 5XX).
func (r *Response) IsError() bool {
	return r.StatusCode >= 400
}

// Text returns the body as a string.
func (r *Response) Text() string {
	return string(r.Body)
}

// ContentType returns the media type of the Content-Type header,
// without parameters, or the empty string if it is missing or invalid.
func (r *Response) ContentType() string {
	mt, _, err := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if err != nil {
		return ""
	}
	return mt
}
