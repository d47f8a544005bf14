// Copyright 2021 The httpchain Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package middleware

import (
	"net/http"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/gogama/httpchain"
	"github.com/gogama/httpchain/request"
	"github.com/gogama/httpchain/retry"
	"github.com/gogama/httpchain/transport"
)

// recorder is a transport answering with a fixed sequence of status
// codes, repeating the last one, and keeping every request it sent.
type recorder struct {
	lock  sync.Mutex
	codes []int
	sent  []*http.Request
}

func newRecorder(codes ...int) *recorder {
	return &recorder{codes: codes}
}

func (r *recorder) Send(req *http.Request) (*request.Response, error) {
	r.lock.Lock()
	defer r.lock.Unlock()
	i := len(r.sent)
	if i >= len(r.codes) {
		i = len(r.codes) - 1
	}
	r.sent = append(r.sent, req)
	code := r.codes[i]
	return &request.Response{StatusCode: code, Status: http.StatusText(code)}, nil
}

func (r *recorder) requests() []*http.Request {
	r.lock.Lock()
	defer r.lock.Unlock()
	return append([]*http.Request(nil), r.sent...)
}

func newClient(t transport.Transport, mws ...httpchain.Middleware) *httpchain.Client {
	return &httpchain.Client{
		Chain:   httpchain.NewChain(t, append([]httpchain.Middleware{retry.DefaultPolicy}, mws...)...),
		Backoff: retry.NewFixedWaiter(time.Millisecond),
	}
}

func newPlan(t *testing.T, method, url string) *request.Plan {
	p, err := request.NewPlan(method, url, nil)
	require.NoError(t, err)
	return p
}
