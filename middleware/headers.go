// Copyright 2021 The httpchain Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package middleware

import (
	"net/http"

	"github.com/gogama/httpchain/request"
)

// HeadersOrder is the pipeline order of a Headers stage.
const HeadersOrder = 100

// Headers adds default header fields to every attempt. A field already
// present in the attempt request, because the plan set it, is left
// alone.
type Headers struct {
	header http.Header
}

// NewHeaders returns a Headers stage adding the fields in h. The
// header is copied.
func NewHeaders(h http.Header) *Headers {
	return &Headers{header: h.Clone()}
}

// UserAgent returns a Headers stage setting only the User-Agent field.
func UserAgent(ua string) *Headers {
	return NewHeaders(http.Header{"User-Agent": {ua}})
}

func (m *Headers) Order() int   { return HeadersOrder }
func (m *Headers) Name() string { return "headers" }

func (m *Headers) BeforeRequest(e *request.Execution) error {
	for name, values := range m.header {
		name = http.CanonicalHeaderKey(name)
		if _, ok := e.Request.Header[name]; ok {
			continue
		}
		e.Request.Header[name] = append([]string(nil), values...)
	}
	return nil
}

func (m *Headers) AfterResponse(*request.Execution, *request.Response, error) error {
	return nil
}
