// Copyright 2021 The httpchain Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package request

import (
	"bytes"
	"context"
	"encoding/base64"
	"io"
	"net/http"
	urlpkg "net/url"
	"strings"
	"time"

	"golang.org/x/net/http/httpguts"
)

const nilCtxMsg = "httpchain/request: nil context"

// A Plan describes one logical HTTP request. A logical request may be
// sent several times over the wire if the middleware pipeline asks for
// a retry, so a Plan holds a pre-buffered body and is converted into a
// fresh http.Request (net/http) for every attempt.
//
// A Plan may be freely modified while it is being built. Once it is
// handed to a Client it must be treated as frozen: the pipeline never
// writes to it, and middleware that need to change what is sent should
// change the per-attempt request available as Execution.Request.
//
// Like http.Request, a Plan carries a context which controls the
// overall execution. Cancelling the context aborts the in-flight
// attempt or the pending retry wait.
type Plan struct {
	// Method specifies the HTTP method (GET, POST, PUT, etc.).
	// An empty string means GET.
	Method string
	// URL specifies the URL to access.
	URL *urlpkg.URL
	// Header contains the request header fields. Header names are
	// case-insensitive and unique; use Header.Set or SetHeader rather
	// than writing the map directly to keep names canonical.
	Header http.Header
	// Body is the pre-buffered request body. A nil or empty body
	// indicates no request body should be sent.
	Body []byte
	// Timeout optionally bounds each individual attempt. If zero, the
	// chain's timeout policy decides the attempt timeout.
	Timeout time.Duration
	// TransferEncoding lists the transfer encodings from outermost to
	// innermost. An empty list denotes the "identity" encoding.
	TransferEncoding []string
	// Close stipulates whether to close the connection after each
	// attempt.
	Close bool
	// Host optionally overrides the Host header to send. If empty, the
	// value of URL.Host will be sent.
	Host string

	ctx context.Context
}

// NewPlan wraps NewPlanWithContext using the background context.
func NewPlan(method, url string, body any) (*Plan, error) {
	return NewPlanWithContext(context.Background(), method, url, body)
}

// NewPlanWithContext returns a new Plan given a method, URL, and
// optional body.
//
// Parameter body may be nil (empty body), or it may be a string,
// []byte, io.Reader, or io.ReadCloser. See BodyBytes.
//
// If the method is not a valid HTTP token, or the URL cannot be parsed,
// or the body is of an unsupported type, the returned error is a
// *ValidationError.
func NewPlanWithContext(ctx context.Context, method, url string, body any) (*Plan, error) {
	if ctx == nil {
		return nil, &ValidationError{Field: "context", Reason: "must not be nil"}
	}
	if method == "" {
		method = http.MethodGet
	}
	if !validMethod(method) {
		return nil, &ValidationError{Field: "method", Value: method, Reason: "not a valid HTTP token"}
	}
	u, err := urlpkg.Parse(url)
	if err != nil {
		return nil, &ValidationError{Field: "url", Value: url, Reason: "cannot be parsed", Err: err}
	}
	u.Host = removeEmptyPort(u.Host)
	b, err := BodyBytes(body)
	if err != nil {
		return nil, &ValidationError{Field: "body", Reason: "cannot be buffered", Err: err}
	}
	return &Plan{
		ctx:    ctx,
		Method: method,
		URL:    u,
		Header: make(http.Header),
		Body:   b,
		Host:   u.Host,
	}, nil
}

// Context returns the plan's context. The returned context is always
// non-nil; it defaults to the background context.
func (p *Plan) Context() context.Context {
	if p.ctx != nil {
		return p.ctx
	}
	return context.Background()
}

// WithContext returns a shallow copy of p with its context changed to
// ctx, which must be non-nil.
func (p *Plan) WithContext(ctx context.Context) *Plan {
	if ctx == nil {
		panic(nilCtxMsg)
	}
	p2 := new(Plan)
	*p2 = *p
	p2.ctx = ctx
	return p2
}

// SetHeader validates and sets a header field, replacing any existing
// values. Invalid names or values produce a *ValidationError and leave
// the header unchanged.
func (p *Plan) SetHeader(name, value string) error {
	if !httpguts.ValidHeaderFieldName(name) {
		return &ValidationError{Field: "header", Value: name, Reason: "invalid field name"}
	}
	if !httpguts.ValidHeaderFieldValue(value) {
		return &ValidationError{Field: "header", Value: name, Reason: "invalid field value"}
	}
	if p.Header == nil {
		p.Header = make(http.Header)
	}
	p.Header.Set(name, value)
	return nil
}

// AddCookie adds a cookie to the plan. Per RFC 6265 section 5.4,
// AddCookie does not attach more than one Cookie header field.
func (p *Plan) AddCookie(c *http.Cookie) {
	c2 := &http.Cookie{Name: c.Name, Value: c.Value}
	s := c2.String()
	if h := p.Header.Get("Cookie"); h != "" {
		p.Header.Set("Cookie", h+"; "+s)
	} else {
		p.Header.Set("Cookie", s)
	}
}

// SetBasicAuth sets the plan's Authorization header to use HTTP Basic
// Authentication with the provided username and password.
func (p *Plan) SetBasicAuth(username, password string) {
	auth := username + ":" + password
	p.Header.Set("Authorization", "Basic "+base64.StdEncoding.EncodeToString([]byte(auth)))
}

// ToRequest creates a new HTTP request for one attempt of the plan. The
// request context is set to ctx, which may not be nil.
//
// The request URL and header are deep copies of the plan's, so changes
// made to the attempt request by middleware never leak back into the
// plan or into later attempts.
func (p *Plan) ToRequest(ctx context.Context) *http.Request {
	if ctx == nil {
		panic(nilCtxMsg)
	}
	method := p.Method
	if method == "" {
		method = http.MethodGet
	}
	r := &http.Request{
		Method:           method,
		URL:              cloneURL(p.URL),
		Proto:            "HTTP/1.1",
		ProtoMajor:       1,
		ProtoMinor:       1,
		Header:           p.Header.Clone(),
		TransferEncoding: p.TransferEncoding,
		Close:            p.Close,
		Host:             p.Host,
	}
	if r.Header == nil {
		r.Header = make(http.Header)
	}
	if len(p.Body) > 0 {
		body := p.Body
		r.Body = io.NopCloser(bytes.NewReader(body))
		r.GetBody = func() (io.ReadCloser, error) {
			return io.NopCloser(bytes.NewReader(body)), nil
		}
		r.ContentLength = int64(len(body))
	}
	return r.WithContext(ctx)
}

func cloneURL(u *urlpkg.URL) *urlpkg.URL {
	if u == nil {
		return nil
	}
	u2 := new(urlpkg.URL)
	*u2 = *u
	if u.User != nil {
		u2.User = new(urlpkg.Userinfo)
		*u2.User = *u.User
	}
	return u2
}

func validMethod(method string) bool {
	return len(method) > 0 && strings.IndexFunc(method, func(r rune) bool {
		return !httpguts.IsTokenRune(r)
	}) == -1
}

// removeEmptyPort strips the empty port in ":port" to "" as mandated by
// RFC 3986 Section 6.2.3.
func removeEmptyPort(host string) string {
	if strings.LastIndex(host, ":") > strings.LastIndex(host, "]") {
		return strings.TrimSuffix(host, ":")
	}
	return host
}
