// Copyright 2021 The httpchain Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package config

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gogama/httpchain"
	"github.com/gogama/httpchain/request"
	"github.com/gogama/httpchain/retry"
	"github.com/gogama/httpchain/timeout"
	"github.com/gogama/httpchain/transport"
)

func loadYAML(t *testing.T, doc string) *Config {
	cfg, err := Load(WithYAML([]byte(doc)), WithoutEnv())
	require.NoError(t, err)
	return cfg
}

func TestConfig_RetryPolicy(t *testing.T) {
	cfg := loadYAML(t, testYAML)
	policy, err := cfg.RetryPolicy()
	require.NoError(t, err)

	decide := func(method string, status int) bool {
		p, err := request.NewPlan(method, "http://example.com", nil)
		require.NoError(t, err)
		e := request.NewExecution(p, nil)
		e.Response = &request.Response{StatusCode: status}
		return policy.Decide(e)
	}
	assert.True(t, decide("GET", 429))
	assert.True(t, decide("PUT", 503))
	assert.False(t, decide("GET", 500))
	assert.False(t, decide("POST", 503))

	cfg.Retry.ErrorKinds = []string{"nonsense"}
	_, err = cfg.RetryPolicy()
	assert.Error(t, err)
}

func TestConfig_Waiter(t *testing.T) {
	e := &request.Execution{Attempt: 3}

	cfg := loadYAML(t, "backoff:\n  base: 10ms\n  max: 0s\n")
	assert.Equal(t, 10*time.Millisecond, cfg.Waiter().Wait(e))

	cfg = loadYAML(t, "backoff:\n  base: 10ms\n  max: 50ms\n  jitter: false\n")
	assert.Equal(t, 50*time.Millisecond, cfg.Waiter().Wait(e))

	cfg = loadYAML(t, "")
	w := cfg.Waiter().Wait(e)
	assert.GreaterOrEqual(t, w, time.Duration(0))
	assert.Less(t, w, 400*time.Millisecond)
}

func TestConfig_TimeoutPolicy(t *testing.T) {
	e := &request.Execution{}

	cfg := loadYAML(t, "timeout:\n  attempt: 0s\n")
	assert.Equal(t, timeout.Infinite, cfg.TimeoutPolicy())

	cfg = loadYAML(t, "timeout:\n  attempt: 3s\n")
	assert.Equal(t, 3*time.Second, cfg.TimeoutPolicy().Timeout(e))

	cfg = loadYAML(t, testYAML)
	p := cfg.TimeoutPolicy()
	assert.Equal(t, 2*time.Second, p.Timeout(e))
	e.Err = &transport.Error{Kind: transport.Timeout}
	e.AttemptTimeouts = 1
	assert.Equal(t, 5*time.Second, p.Timeout(e))
}

func TestConfig_Middleware(t *testing.T) {
	cfg := loadYAML(t, "")
	assert.Equal(t, []string{"request-id", "logging"}, httpchain.NewChain(transport.Default, cfg.Middleware()...).Names())

	cfg = loadYAML(t, testYAML)
	assert.Equal(t,
		[]string{"request-id", "headers", "logging", "rate-limit", "host-throttle"},
		httpchain.NewChain(transport.Default, cfg.Middleware()...).Names())
}

func TestConfig_NewClient(t *testing.T) {
	var lock sync.Mutex
	var got []http.Header
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		lock.Lock()
		got = append(got, r.Header.Clone())
		n := len(got)
		lock.Unlock()
		if n == 1 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusNotFound)
	}))
	defer server.Close()

	cfg := loadYAML(t, testYAML)
	cfg.Log.Level = "disabled"
	extra := httpchain.Hooks{}
	cl, err := cfg.NewClient(&transport.HTTP{Doer: server.Client()}, extra)
	require.NoError(t, err)
	assert.Equal(t,
		[]string{"retry", "request-id", "headers", "logging", "rate-limit", "host-throttle", "httpchain.Hooks"},
		cl.Chain.Names())

	e, err := cl.Get(server.URL)

	var se *httpchain.StatusError
	require.ErrorAs(t, err, &se, "raiseforstatus is set")
	assert.Equal(t, 404, e.StatusCode())
	assert.Equal(t, 1, retry.Count(e))
	require.Len(t, got, 2)
	for _, h := range got {
		assert.Equal(t, "test-agent/1.0", h.Get("User-Agent"))
		assert.Equal(t, "application/json", h.Get("Accept"))
		assert.NotEmpty(t, h.Get("X-Request-ID"))
	}
	assert.Equal(t, got[0].Get("X-Request-ID"), got[1].Get("X-Request-ID"))

	bad := loadYAML(t, "")
	bad.Retry.ErrorKinds = []string{"nonsense"}
	_, err = bad.NewClient(nil)
	assert.Error(t, err)
}

func TestLogConfig_NewLogger(t *testing.T) {
	testCases := []struct {
		level string
		want  zerolog.Level
	}{
		{"debug", zerolog.DebugLevel},
		{"warn", zerolog.WarnLevel},
		{"disabled", zerolog.Disabled},
		{"loud", zerolog.InfoLevel},
	}
	for _, testCase := range testCases {
		t.Run(testCase.level, func(t *testing.T) {
			var buf bytes.Buffer
			l := LogConfig{Level: testCase.level}.NewLogger(&buf)
			assert.Equal(t, testCase.want, l.GetLevel())
		})
	}
	t.Run("pretty", func(t *testing.T) {
		var buf bytes.Buffer
		l := LogConfig{Level: "info", Pretty: true}.NewLogger(&buf)
		l.Info().Msg("hello")
		assert.Contains(t, buf.String(), "hello")
		assert.NotContains(t, buf.String(), `"message"`)
	})
}
