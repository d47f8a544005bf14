// Copyright 2021 The httpchain Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package transport

import (
	"errors"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/gogama/httpchain/request"
)

// A Transport sends one HTTP request attempt and returns the fully
// buffered response.
//
// Send must honor the request context, must not modify the request
// after it returns, and must report failures with a non-nil error and
// a nil response. Implementations should return *Error so that retry
// policies can inspect the failure kind.
type Transport interface {
	Send(r *http.Request) (*request.Response, error)
}

// The TransportFunc type is an adapter to allow the use of ordinary
// functions as transports.
type TransportFunc func(r *http.Request) (*request.Response, error)

// Send calls f(r).
func (f TransportFunc) Send(r *http.Request) (*request.Response, error) {
	return f(r)
}

// A Doer implements a Do method in the same manner as the GoLang
// standard library http.Client from the net/http package.
type Doer interface {
	// Do sends an HTTP request and returns an HTTP response following
	// policy (such as redirects, cookies, auth) configured on the
	// Doer.
	Do(r *http.Request) (*http.Response, error)
}

// IdleCloser is the interface that wraps the basic
// CloseIdleConnections method.
type IdleCloser interface {
	CloseIdleConnections()
}

// HTTP adapts a Doer into a Transport. It reads and buffers the entire
// response body, closes it, and wraps every failure in an *Error.
//
// The zero value uses http.DefaultClient.
type HTTP struct {
	// Doer specifies the mechanics of sending HTTP requests and
	// receiving responses. If nil, http.DefaultClient is used.
	Doer Doer
}

// Default is the transport used when none is configured. It sends
// requests with http.DefaultClient.
var Default Transport = &HTTP{}

// Send sends r with the underlying doer.
func (t *HTTP) Send(r *http.Request) (*request.Response, error) {
	resp, err := t.doer().Do(r)
	if err != nil {
		return nil, Wrap(r, err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, Wrap(r, err)
	}
	return &request.Response{
		StatusCode: resp.StatusCode,
		Status:     resp.Status,
		Proto:      resp.Proto,
		Header:     resp.Header,
		Body:       body,
		Request:    r,
	}, nil
}

// CloseIdleConnections invokes the same method on the underlying doer.
// If the doer has no such method, CloseIdleConnections does nothing.
func (t *HTTP) CloseIdleConnections() {
	if ic, ok := t.doer().(IdleCloser); ok {
		ic.CloseIdleConnections()
	}
}

func (t *HTTP) doer() Doer {
	if t.Doer == nil {
		return http.DefaultClient
	}
	return t.Doer
}

// Wrap wraps err, which occurred while sending r, in an *Error. If err
// already is, or wraps, an *Error it is returned unchanged. A *url.Error
// is unwrapped first since *Error carries the same information.
func Wrap(r *http.Request, err error) error {
	if err == nil {
		return nil
	}
	var te *Error
	if errors.As(err, &te) {
		return err
	}
	kind := Classify(err)
	cause := err
	var ue *url.Error
	if errors.As(err, &ue) && ue.Err != nil {
		cause = ue.Err
	}
	op := "Get"
	if r.Method != "" {
		op = r.Method[:1] + strings.ToLower(r.Method[1:])
	}
	return &Error{
		Kind: kind,
		Op:   op,
		URL:  r.URL.String(),
		Err:  cause,
	}
}
