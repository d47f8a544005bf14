// Copyright 2021 The httpchain Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package request

import (
	"context"
	"errors"
	"net/http"
	"net/url"
	"syscall"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewExecution(t *testing.T) {
	assert.PanicsWithValue(t, "httpchain/request: nil plan", func() {
		NewExecution(nil, nil)
	})
	p, err := NewPlan("GET", "test", nil)
	require.NoError(t, err)
	e := NewExecution(p, nil)
	assert.Same(t, p, e.Plan)
	assert.Nil(t, e.Client)
	assert.Zero(t, e.Attempt)
	assert.Empty(t, e.Attributes())
}

func TestExecution_StatusCode(t *testing.T) {
	e := &Execution{}
	t.Run("no Response", func(t *testing.T) {
		require.Nil(t, e.Response)
		assert.Equal(t, 0, e.StatusCode())
	})
	t.Run("with Response", func(t *testing.T) {
		e.Response = &Response{StatusCode: 999}
		assert.Equal(t, 999, e.StatusCode())
	})
}

func TestExecution_Header(t *testing.T) {
	e := &Execution{}
	t.Run("no Response", func(t *testing.T) {
		require.Nil(t, e.Response)
		assert.Nil(t, e.Header())
		assert.Empty(t, e.Header().Get("foo"))
	})
	t.Run("with Response", func(t *testing.T) {
		h := http.Header{
			"Foo": []string{"bar"},
			"Ham": []string{"eggs", "spam"},
		}
		e.Response = &Response{Header: h}
		assert.Equal(t, h, e.Header())
		assert.Equal(t, []string{"eggs", "spam"}, e.Header()["Ham"])
	})
}

func TestExecution_TimeMethods(t *testing.T) {
	t.Run("not started", func(t *testing.T) {
		e := &Execution{}
		assert.False(t, e.Started())
		assert.False(t, e.Ended())
		assert.Equal(t, time.Duration(0), e.Duration())
	})
	t.Run("started but not ended", func(t *testing.T) {
		e := &Execution{}
		e.Start = time.Now()
		assert.True(t, e.Started())
		assert.False(t, e.Ended())
		time.Sleep(2*time.Millisecond + 50*time.Microsecond)
		d := e.Duration()
		assert.LessOrEqual(t, d, time.Since(e.Start))
		assert.GreaterOrEqual(t, d, 2*time.Millisecond)
	})
	t.Run("ended", func(t *testing.T) {
		e := &Execution{}
		e.Start = time.Now()
		time.Sleep(2*time.Millisecond + 50*time.Microsecond)
		e.End = time.Now()
		d := e.Duration()
		assert.Greater(t, d, 2*time.Millisecond)
		assert.True(t, e.Ended())
		time.Sleep(2*time.Millisecond + 50*time.Microsecond)
		assert.Equal(t, d, e.Duration())
	})
}

func TestExecution_Timeout(t *testing.T) {
	testCases := []struct {
		name string
		err  error
		want bool
	}{
		{"no error", nil, false},
		{"generic error", errors.New("foo"), false},
		{"cancellation", context.Canceled, false},
		{"direct timeout", syscall.ETIMEDOUT, true},
		{"deadline", context.DeadlineExceeded, true},
		{"indirect timeout", &url.Error{Op: "Get", URL: "x", Err: syscall.ETIMEDOUT}, true},
	}
	for _, testCase := range testCases {
		t.Run(testCase.name, func(t *testing.T) {
			e := &Execution{Err: testCase.err}
			assert.Equal(t, testCase.want, e.Timeout())
		})
	}
}

func TestExecution_Attributes(t *testing.T) {
	t.Run("empty key", func(t *testing.T) {
		e := &Execution{}
		err := e.Set("", 1)
		var ve *ValidationError
		require.ErrorAs(t, err, &ve)
		assert.Equal(t, "key", ve.Field)
		assert.False(t, e.Has(""))
	})
	t.Run("zero value Execution", func(t *testing.T) {
		e := &Execution{}
		v, ok := e.Get("foo")
		assert.Nil(t, v)
		assert.False(t, ok)
		v, ok = e.Remove("foo")
		assert.Nil(t, v)
		assert.False(t, ok)
		e.Clear()
		assert.Empty(t, e.Attributes())
	})
	t.Run("set get remove", func(t *testing.T) {
		e := &Execution{}
		require.NoError(t, e.Set("foo", "bar"))
		require.NoError(t, e.Set("count", 1))
		assert.True(t, e.Has("foo"))
		v, ok := e.Get("foo")
		assert.True(t, ok)
		assert.Equal(t, "bar", v)

		require.NoError(t, e.Set("foo", "baz"))
		v, _ = e.Get("foo")
		assert.Equal(t, "baz", v)

		v, ok = e.Remove("foo")
		assert.True(t, ok)
		assert.Equal(t, "baz", v)
		assert.False(t, e.Has("foo"))
		assert.True(t, e.Has("count"))
	})
	t.Run("nil value is present", func(t *testing.T) {
		e := &Execution{}
		require.NoError(t, e.Set("nothing", nil))
		assert.True(t, e.Has("nothing"))
		v, ok := e.Get("nothing")
		assert.Nil(t, v)
		assert.True(t, ok)
	})
	t.Run("clear", func(t *testing.T) {
		e := &Execution{}
		require.NoError(t, e.Set("a", 1))
		require.NoError(t, e.Set("b", 2))
		e.Clear()
		assert.False(t, e.Has("a"))
		assert.False(t, e.Has("b"))
		assert.Empty(t, e.Attributes())
	})
	t.Run("snapshot is a copy", func(t *testing.T) {
		e := &Execution{}
		require.NoError(t, e.Set("a", 1))
		m := e.Attributes()
		m["b"] = 2
		assert.False(t, e.Has("b"))
		assert.Equal(t, map[string]any{"a": 1}, e.Attributes())
	})
	t.Run("typed access", func(t *testing.T) {
		e := &Execution{}
		require.NoError(t, e.Set("n", 42))
		n, ok := Attr[int](e, "n")
		assert.True(t, ok)
		assert.Equal(t, 42, n)
		s, ok := Attr[string](e, "n")
		assert.False(t, ok)
		assert.Empty(t, s)
		_, ok = Attr[int](e, "missing")
		assert.False(t, ok)
	})
}
