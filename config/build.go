// Copyright 2021 The httpchain Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package config

import (
	"io"
	"net/http"
	"os"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/time/rate"

	"github.com/gogama/httpchain"
	"github.com/gogama/httpchain/middleware"
	"github.com/gogama/httpchain/retry"
	"github.com/gogama/httpchain/timeout"
	"github.com/gogama/httpchain/transport"
)

// RetryPolicy builds the retry policy.
func (c *Config) RetryPolicy() (*retry.Policy, error) {
	kinds := make([]transport.Kind, len(c.Retry.ErrorKinds))
	for i, s := range c.Retry.ErrorKinds {
		k, err := transport.ParseKind(s)
		if err != nil {
			return nil, err
		}
		kinds[i] = k
	}
	return retry.NewPolicy(retry.Config{
		MaxAttempts: c.Retry.MaxAttempts,
		StatusCodes: c.Retry.StatusCodes,
		ErrorKinds:  kinds,
		Methods:     c.Retry.Methods,
	}), nil
}

// Waiter builds the retry waiter from the backoff settings.
func (c *Config) Waiter() retry.Waiter {
	b := c.Backoff
	if b.Max == 0 || b.Base == 0 {
		return retry.NewFixedWaiter(b.Base)
	}
	var jitter any
	if b.Jitter {
		jitter = time.Now()
	}
	return retry.NewExpWaiter(b.Base, b.Max, jitter)
}

// TimeoutPolicy builds the attempt timeout policy.
func (c *Config) TimeoutPolicy() timeout.Policy {
	t := c.Timeout
	switch {
	case t.Attempt == 0:
		return timeout.Infinite
	case len(t.AfterTimeout) > 0:
		return timeout.Adaptive(t.Attempt, t.AfterTimeout...)
	default:
		return timeout.Fixed(t.Attempt)
	}
}

// Middleware builds the configured pipeline stages, excluding the
// retry policy.
func (c *Config) Middleware() []httpchain.Middleware {
	mws := []httpchain.Middleware{
		middleware.NewRequestID(c.Client.RequestIDHeader),
		middleware.NewLogging(nil),
	}
	if len(c.Client.Headers) > 0 || c.Client.UserAgent != "" {
		h := make(http.Header, len(c.Client.Headers)+1)
		for name, value := range c.Client.Headers {
			h.Set(name, value)
		}
		if c.Client.UserAgent != "" {
			h.Set("User-Agent", c.Client.UserAgent)
		}
		mws = append(mws, middleware.NewHeaders(h))
	}
	if rl := c.RateLimit; rl.Rate > 0 {
		burst := rl.Burst
		if burst == 0 {
			burst = 1
		}
		mws = append(mws, middleware.NewRateLimit(rate.NewLimiter(rate.Limit(rl.Rate), burst)))
	}
	if rl := c.RateLimit; rl.HostRate > 0 {
		burst := rl.HostBurst
		if burst == 0 {
			burst = rl.HostRate
		}
		mws = append(mws, middleware.NewHostThrottle(rl.HostRate, burst))
	}
	return mws
}

// NewClient builds a client sending through t, or transport.Default if
// t is nil. The extra middleware are added to the configured ones.
func (c *Config) NewClient(t transport.Transport, extra ...httpchain.Middleware) (*httpchain.Client, error) {
	policy, err := c.RetryPolicy()
	if err != nil {
		return nil, err
	}
	if t == nil {
		t = transport.Default
	}
	mws := append([]httpchain.Middleware{policy}, c.Middleware()...)
	mws = append(mws, extra...)
	return &httpchain.Client{
		Chain:          httpchain.NewChain(t, mws...).WithTimeoutPolicy(c.TimeoutPolicy()),
		Backoff:        c.Waiter(),
		RaiseForStatus: c.Client.RaiseForStatus,
		Logger:         c.Log.Logger(),
	}, nil
}

// Logger returns a logger writing to standard error.
func (c LogConfig) Logger() *zerolog.Logger {
	return c.NewLogger(os.Stderr)
}

// NewLogger returns a logger writing to w at the configured level. An
// unknown level means info.
func (c LogConfig) NewLogger(w io.Writer) *zerolog.Logger {
	if c.Pretty {
		w = zerolog.ConsoleWriter{Out: w, TimeFormat: time.RFC3339}
	}
	level, err := zerolog.ParseLevel(c.Level)
	if err != nil {
		level = zerolog.InfoLevel
	}
	l := zerolog.New(w).With().Timestamp().Logger().Level(level)
	return &l
}
