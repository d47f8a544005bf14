// Copyright 2021 The httpchain Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package middleware

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHeaders(t *testing.T) {
	h := http.Header{}
	h.Set("Accept", "application/json")
	h.Add("x-tags", "a")
	h.Add("x-tags", "b")
	m := NewHeaders(h)
	h.Set("Accept", "changed")

	rec := newRecorder(200)
	cl := newClient(rec, m, UserAgent("httpchain-test/1.0"))
	p := newPlan(t, "GET", "http://example.com")
	p.Header.Set("X-Tags", "mine")

	e, err := cl.Do(p)

	require.NoError(t, err)
	sent := rec.requests()[0]
	assert.Equal(t, "application/json", sent.Header.Get("Accept"))
	assert.Equal(t, []string{"mine"}, sent.Header.Values("X-Tags"))
	assert.Equal(t, "httpchain-test/1.0", sent.Header.Get("User-Agent"))
	assert.Empty(t, e.Plan.Header.Get("Accept"), "plan is not modified")
	assert.Equal(t, HeadersOrder, m.Order())
}
