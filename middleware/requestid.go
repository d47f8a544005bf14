// Copyright 2021 The httpchain Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package middleware

import (
	"net/http"

	"github.com/google/uuid"

	"github.com/gogama/httpchain/request"
)

const (
	// RequestIDHeader is the default header carrying the request ID.
	RequestIDHeader = "X-Request-ID"
	// RequestIDKey is the execution attribute holding the request ID.
	RequestIDKey = "request.id"
	// RequestIDOrder is the pipeline order of a RequestID stage.
	RequestIDOrder = 50
)

// RequestID tags every attempt of a logical request with the same
// request ID, so that a server can recognize retries. The ID is taken
// from the plan header if the caller set one, and generated otherwise.
type RequestID struct {
	header string
	gen    func() string
}

// NewRequestID returns a RequestID stage writing the given header. An
// empty header means RequestIDHeader.
func NewRequestID(header string) *RequestID {
	if header == "" {
		header = RequestIDHeader
	}
	return &RequestID{
		header: http.CanonicalHeaderKey(header),
		gen:    uuid.NewString,
	}
}

func (m *RequestID) Order() int   { return RequestIDOrder }
func (m *RequestID) Name() string { return "request-id" }

// BeforeRequest stamps the attempt request with the request ID.
func (m *RequestID) BeforeRequest(e *request.Execution) error {
	id, ok := request.Attr[string](e, RequestIDKey)
	if !ok {
		id = e.Plan.Header.Get(m.header)
		if id == "" {
			id = m.gen()
		}
		if err := e.Set(RequestIDKey, id); err != nil {
			return err
		}
	}
	e.Request.Header.Set(m.header, id)
	return nil
}

func (m *RequestID) AfterResponse(*request.Execution, *request.Response, error) error {
	return nil
}

// RequestIDOf returns the request ID assigned to e, if any.
func RequestIDOf(e *request.Execution) string {
	id, _ := request.Attr[string](e, RequestIDKey)
	return id
}
