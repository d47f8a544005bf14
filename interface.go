// Copyright 2021 The httpchain Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package httpchain

import (
	"net/url"

	"github.com/gogama/httpchain/request"
)

// Doer executes a request plan and returns the final execution state,
// and error, if any. Implementations should honour the contract of
// Client.Do.
type Doer interface {
	Do(p *request.Plan) (*request.Execution, error)
}

// An AsyncDoer executes request plans without blocking the caller. The
// returned future yields what Do would have returned, and cancelling it
// ends the execution with a *CancelledError.
type AsyncDoer interface {
	DoAsync(p *request.Plan) *Future[*request.Execution]
}

// Getter wraps Get. See Client.Get.
type Getter interface {
	Get(url string) (*request.Execution, error)
}

// Header wraps Head. See Client.Head.
type Header interface {
	Head(url string) (*request.Execution, error)
}

// Poster wraps Post. See Client.Post.
type Poster interface {
	Post(url, contentType string, body any) (*request.Execution, error)
}

// FormPoster wraps PostForm. See Client.PostForm.
type FormPoster interface {
	PostForm(url string, data url.Values) (*request.Execution, error)
}

// IdleCloser wraps CloseIdleConnections, which closes idle keep-alive
// connections without interrupting any in use. Implementations which
// keep no connections do nothing.
type IdleCloser interface {
	CloseIdleConnections()
}

// Executor groups the synchronous and asynchronous ways of executing
// plans. Client implements it, and Inflate turns any Doer into one.
type Executor interface {
	Doer
	AsyncDoer
	Getter
	Header
	Poster
	FormPoster
	IdleCloser
}

const formContentType = "application/x-www-form-urlencoded"

// newPlan builds the plan behind the Get, Head, Post, and PostForm
// helpers. A non-empty contentType sets the Content-Type header.
func newPlan(method, url, contentType string, body any) (*request.Plan, error) {
	p, err := request.NewPlan(method, url, body)
	if err != nil {
		return nil, err
	}
	if contentType != "" {
		p.Header.Set("Content-Type", contentType)
	}
	return p, nil
}

func do(d Doer, p *request.Plan, err error) (*request.Execution, error) {
	if err != nil {
		return nil, err
	}
	return d.Do(p)
}

func doAsync(d AsyncDoer, p *request.Plan, err error) *Future[*request.Execution] {
	if err != nil {
		return failed[*request.Execution](err)
	}
	return d.DoAsync(p)
}

// Get issues a GET to url through d. To send custom headers, build the
// plan with request.NewPlan and call d.Do.
func Get(d Doer, url string) (*request.Execution, error) {
	p, err := newPlan("GET", url, "", nil)
	return do(d, p, err)
}

// Head issues a HEAD to url through d.
func Head(d Doer, url string) (*request.Execution, error) {
	p, err := newPlan("HEAD", url, "", nil)
	return do(d, p, err)
}

// Post issues a POST to url through d. The body may be nil, a string, a
// []byte, an io.Reader, or an io.ReadCloser; see request.BodyBytes.
func Post(d Doer, url, contentType string, body any) (*request.Execution, error) {
	p, err := newPlan("POST", url, contentType, body)
	return do(d, p, err)
}

// PostForm issues a POST to url through d, with data URL-encoded as the
// body and the Content-Type set to application/x-www-form-urlencoded.
func PostForm(d Doer, url string, data url.Values) (*request.Execution, error) {
	p, err := newPlan("POST", url, formContentType, data.Encode())
	return do(d, p, err)
}

// GetAsync is the asynchronous counterpart of Get. An invalid URL
// yields a future which is already done.
func GetAsync(d AsyncDoer, url string) *Future[*request.Execution] {
	p, err := newPlan("GET", url, "", nil)
	return doAsync(d, p, err)
}

// HeadAsync is the asynchronous counterpart of Head.
func HeadAsync(d AsyncDoer, url string) *Future[*request.Execution] {
	p, err := newPlan("HEAD", url, "", nil)
	return doAsync(d, p, err)
}

// PostAsync is the asynchronous counterpart of Post.
func PostAsync(d AsyncDoer, url, contentType string, body any) *Future[*request.Execution] {
	p, err := newPlan("POST", url, contentType, body)
	return doAsync(d, p, err)
}

// PostFormAsync is the asynchronous counterpart of PostForm.
func PostFormAsync(d AsyncDoer, url string, data url.Values) *Future[*request.Execution] {
	p, err := newPlan("POST", url, formContentType, data.Encode())
	return doAsync(d, p, err)
}

// Inflate converts any non-nil Doer into an Executor, returning d
// itself if it already is one.
//
// If d is not an AsyncDoer, DoAsync runs d.Do on a new goroutine with
// a copy of the plan whose context is cancelled along with the future,
// so the execution's Plan is that copy rather than the plan passed in.
func Inflate(d Doer) Executor {
	if d == nil {
		panic("httpchain: nil doer")
	}
	if x, ok := d.(Executor); ok {
		return x
	}
	return inflated{d}
}

type inflated struct {
	doer Doer
}

func (i inflated) Do(p *request.Plan) (*request.Execution, error) {
	return i.doer.Do(p)
}

func (i inflated) DoAsync(p *request.Plan) *Future[*request.Execution] {
	if ad, ok := i.doer.(AsyncDoer); ok {
		return ad.DoAsync(p)
	}
	if p == nil {
		return failed[*request.Execution](&ValidationError{Field: "plan", Reason: "must not be nil"})
	}
	f := newFuture[*request.Execution](p.Context())
	go func() {
		e, err := i.doer.Do(p.WithContext(f.ctx))
		f.complete(e, err)
	}()
	return f
}

func (i inflated) Get(url string) (*request.Execution, error) {
	return Get(i.doer, url)
}

func (i inflated) Head(url string) (*request.Execution, error) {
	return Head(i.doer, url)
}

func (i inflated) Post(url, contentType string, body any) (*request.Execution, error) {
	return Post(i.doer, url, contentType, body)
}

func (i inflated) PostForm(url string, data url.Values) (*request.Execution, error) {
	return PostForm(i.doer, url, data)
}

func (i inflated) CloseIdleConnections() {
	if ic, ok := i.doer.(IdleCloser); ok {
		ic.CloseIdleConnections()
	}
}
