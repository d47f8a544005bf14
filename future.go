// Copyright 2021 The httpchain Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package httpchain

import "context"

// A Future is the deferred result of an asynchronous execution.
//
// The result is written once, by the goroutine running the execution,
// before Done is closed. All methods are safe for concurrent use.
type Future[T any] struct {
	ctx    context.Context
	cancel context.CancelFunc
	done   chan struct{}
	value  T
	err    error
}

func newFuture[T any](parent context.Context) *Future[T] {
	ctx, cancel := context.WithCancel(parent)
	return &Future[T]{
		ctx:    ctx,
		cancel: cancel,
		done:   make(chan struct{}),
	}
}

// failed returns a future which is already done with err.
func failed[T any](err error) *Future[T] {
	f := newFuture[T](context.Background())
	var zero T
	f.complete(zero, err)
	return f
}

func (f *Future[T]) complete(value T, err error) {
	f.value, f.err = value, err
	close(f.done)
	f.cancel()
}

// Done returns a channel which is closed when the result is ready.
func (f *Future[T]) Done() <-chan struct{} {
	return f.done
}

// Cancel cancels the execution. An in-flight transport call is
// abandoned and a pending retry wait ends immediately; the remaining
// AfterResponse stages observe a *CancelledError, which also becomes
// the result. Cancel has no effect once the result is ready.
func (f *Future[T]) Cancel() {
	f.cancel()
}

// Wait blocks until the result is ready and returns it.
func (f *Future[T]) Wait() (T, error) {
	<-f.done
	return f.value, f.err
}

// Get is like Wait but gives up when ctx is done, returning ctx's
// error. Giving up does not cancel the execution.
func (f *Future[T]) Get(ctx context.Context) (T, error) {
	select {
	case <-f.done:
		return f.value, f.err
	case <-ctx.Done():
		var zero T
		return zero, ctx.Err()
	}
}
