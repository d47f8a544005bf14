// Copyright 2021 The httpchain Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package request

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestResponse_StatusClasses(t *testing.T) {
	testCases := []struct {
		code    int
		success bool
		isError bool
	}{
		{100, false, false},
		{200, true, false},
		{204, true, false},
		{299, true, false},
		{304, false, false},
		{400, false, true},
		{404, false, true},
		{503, false, true},
	}
	for _, testCase := range testCases {
		t.Run(http.StatusText(testCase.code), func(t *testing.T) {
			r := &Response{StatusCode: testCase.code}
			assert.Equal(t, testCase.success, r.Success())
			assert.Equal(t, testCase.isError, r.IsError())
		})
	}
}

func TestResponse_Text(t *testing.T) {
	assert.Equal(t, "", (&Response{}).Text())
	assert.Equal(t, "hello", (&Response{Body: []byte("hello")}).Text())
}

func TestResponse_ContentType(t *testing.T) {
	testCases := []struct {
		name   string
		header string
		want   string
	}{
		{"missing", "", ""},
		{"plain", "application/json", "application/json"},
		{"with parameters", "text/html; charset=utf-8", "text/html"},
		{"mixed case", "Text/Plain", "text/plain"},
		{"invalid", "; ;", ""},
	}
	for _, testCase := range testCases {
		t.Run(testCase.name, func(t *testing.T) {
			r := &Response{Header: http.Header{}}
			if testCase.header != "" {
				r.Header.Set("Content-Type", testCase.header)
			}
			assert.Equal(t, testCase.want, r.ContentType())
		})
	}
}
