// Copyright 2021 The httpchain Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package config

import "time"

// Config is the complete client configuration.
type Config struct {
	Retry     RetryConfig     `koanf:"retry"`
	Backoff   BackoffConfig   `koanf:"backoff"`
	Timeout   TimeoutConfig   `koanf:"timeout"`
	Client    ClientConfig    `koanf:"client"`
	RateLimit RateLimitConfig `koanf:"ratelimit"`
	Log       LogConfig       `koanf:"log"`
}

// RetryConfig configures the retry policy. See retry.Config.
type RetryConfig struct {
	MaxAttempts int      `koanf:"maxattempts" validate:"gte=0,lte=100"`
	StatusCodes []int    `koanf:"statuscodes" validate:"dive,gte=100,lte=599"`
	ErrorKinds  []string `koanf:"errorkinds" validate:"dive,oneof=other connect_failed timeout reset protocol"`
	Methods     []string `koanf:"methods" validate:"dive,required,uppercase"`
}

// BackoffConfig configures the wait between attempts. A zero Max
// means a fixed wait of Base.
type BackoffConfig struct {
	Base   time.Duration `koanf:"base" validate:"gte=0"`
	Max    time.Duration `koanf:"max" validate:"eq=0|gtefield=Base"`
	Jitter bool          `koanf:"jitter"`
}

// TimeoutConfig configures attempt timeouts. A zero Attempt means no
// attempt timeout. AfterTimeout, if set, lists the timeouts used after
// consecutive attempt timeouts. See timeout.Adaptive.
type TimeoutConfig struct {
	Attempt      time.Duration   `koanf:"attempt" validate:"gte=0"`
	AfterTimeout []time.Duration `koanf:"aftertimeout" validate:"dive,gt=0"`
}

// ClientConfig holds the settings applied to every request.
type ClientConfig struct {
	UserAgent       string            `koanf:"useragent"`
	Headers         map[string]string `koanf:"headers"`
	RequestIDHeader string            `koanf:"requestidheader"`
	RaiseForStatus  bool              `koanf:"raiseforstatus"`
}

// RateLimitConfig configures client-side rate limiting. Zero rates
// disable the corresponding limiter.
type RateLimitConfig struct {
	// Rate is the overall attempt rate, per second.
	Rate float64 `koanf:"rate" validate:"gte=0"`
	// Burst is the overall burst size.
	Burst int `koanf:"burst" validate:"gte=0"`
	// HostRate is the per-host attempt budget, per second.
	HostRate int `koanf:"hostrate" validate:"gte=0"`
	// HostBurst is the per-host burst size.
	HostBurst int `koanf:"hostburst" validate:"gte=0"`
}

// LogConfig configures the client logger.
type LogConfig struct {
	Level  string `koanf:"level" validate:"oneof=trace debug info warn error fatal panic disabled"`
	Pretty bool   `koanf:"pretty"`
}
