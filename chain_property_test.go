// Copyright 2021 The httpchain Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package httpchain

import (
	"fmt"
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
	"pgregory.net/rapid"

	"github.com/gogama/httpchain/request"
)

// For any set of middleware orders, the forward pass runs in stable
// ascending order and the reverse pass is its exact mirror image.
func TestProperty_ChainOrdering(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		n := rapid.IntRange(1, 8).Draw(rt, "numMiddleware")
		var tr trace
		type reg struct {
			name  string
			order int
			index int
		}
		regs := make([]reg, n)
		mws := make([]Middleware, n)
		for i := 0; i < n; i++ {
			order := rapid.IntRange(0, 5).Draw(rt, fmt.Sprintf("order_%d", i))
			name := fmt.Sprintf("m%d", i)
			regs[i] = reg{name: name, order: order, index: i}
			mws[i] = tr.stage(name, order)
		}

		p, err := request.NewPlan("GET", "http://example.com", nil)
		if err != nil {
			rt.Fatalf("plan: %v", err)
		}
		_, err = NewChain(okTransport(), mws...).Execute(request.NewExecution(p, nil))
		assert.NoError(rt, err)

		sort.Slice(regs, func(i, j int) bool {
			if regs[i].order != regs[j].order {
				return regs[i].order < regs[j].order
			}
			return regs[i].index < regs[j].index
		})
		want := make([]string, 0, 2*n)
		for _, r := range regs {
			want = append(want, "before:"+r.name)
		}
		for i := n - 1; i >= 0; i-- {
			want = append(want, "after:"+regs[i].name)
		}
		assert.Equal(rt, want, tr.calls())
	})
}

// Whichever stage fails in BeforeRequest, exactly the stages entered
// before it, and the failing stage itself, see AfterResponse.
func TestProperty_ChainCleanup(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		n := rapid.IntRange(1, 8).Draw(rt, "numMiddleware")
		fail := rapid.IntRange(0, n-1).Draw(rt, "failAt")
		var tr trace
		mws := make([]Middleware, n)
		for i := 0; i < n; i++ {
			s := tr.stage(fmt.Sprintf("m%d", i), i)
			if i == fail {
				s.before = func(*request.Execution) error { return fmt.Errorf("stage %d failed", fail) }
			}
			mws[i] = s
		}

		p, err := request.NewPlan("GET", "http://example.com", nil)
		if err != nil {
			rt.Fatalf("plan: %v", err)
		}
		_, err = NewChain(okTransport(), mws...).Execute(request.NewExecution(p, nil))
		assert.EqualError(rt, err, fmt.Sprintf("stage %d failed", fail))

		var want []string
		for i := 0; i <= fail; i++ {
			want = append(want, fmt.Sprintf("before:m%d", i))
		}
		for i := fail; i >= 0; i-- {
			want = append(want, fmt.Sprintf("after:m%d", i))
		}
		assert.Equal(rt, want, tr.calls())
	})
}
