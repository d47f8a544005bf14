// Copyright 2021 The httpchain Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package middleware

import (
	"time"

	"github.com/rs/zerolog"

	"github.com/gogama/httpchain/request"
)

const (
	// LoggingOrder is the pipeline order of a Logging stage.
	LoggingOrder = 300

	loggingStartKey = "middleware.logging.start"
)

// Logging logs every attempt: a debug event when it is sent, and a
// debug event when it ends, raised to warn if it failed or received a
// server error.
type Logging struct {
	logger *zerolog.Logger
}

// NewLogging returns a Logging stage writing to logger. If logger is
// nil, the logger carried by the request context is used, which is the
// client's logger when the stage runs inside an httpchain.Client.
func NewLogging(logger *zerolog.Logger) *Logging {
	return &Logging{logger: logger}
}

func (m *Logging) Order() int   { return LoggingOrder }
func (m *Logging) Name() string { return "logging" }

func (m *Logging) BeforeRequest(e *request.Execution) error {
	m.log(e).Debug().
		Str("method", e.Request.Method).
		Stringer("url", e.Request.URL).
		Int("attempt", e.Attempt).
		Str("request_id", RequestIDOf(e)).
		Msg("Sending attempt")
	return e.Set(loggingStartKey, time.Now())
}

func (m *Logging) AfterResponse(e *request.Execution, resp *request.Response, err error) error {
	logger := m.log(e)
	var ev *zerolog.Event
	switch {
	case err != nil:
		ev = logger.Warn().Err(err)
	case resp.StatusCode >= 500:
		ev = logger.Warn().Int("status", resp.StatusCode)
	default:
		ev = logger.Debug().Int("status", resp.StatusCode)
	}
	if v, ok := e.Remove(loggingStartKey); ok {
		ev = ev.Dur("elapsed", time.Since(v.(time.Time)))
	}
	ev.Str("method", e.Request.Method).
		Stringer("url", e.Request.URL).
		Int("attempt", e.Attempt).
		Msg("Attempt finished")
	return nil
}

func (m *Logging) log(e *request.Execution) *zerolog.Logger {
	if m.logger != nil {
		return m.logger
	}
	return zerolog.Ctx(e.Request.Context())
}
