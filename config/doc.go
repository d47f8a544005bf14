// Copyright 2021 The httpchain Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

/*
Package config loads client configuration from layered sources and
turns it into a ready-to-use httpchain.Client.

Sources are applied in this order, each overriding the previous one:
built-in defaults, an optional YAML document (from a file or from
bytes), and environment variables. Environment variables are named
after the configuration keys with a prefix, HTTPCHAIN_ by default, and
underscores for dots, so HTTPCHAIN_RETRY_MAXATTEMPTS sets
retry.maxattempts. List values may be given in the environment as
comma-separated strings.

A minimal YAML document looks like this:

	retry:
	  maxattempts: 5
	  statuscodes: [429, 503]
	timeout:
	  attempt: 2s
	  aftertimeout: [5s, 10s]
	client:
	  useragent: my-service/1.0
	log:
	  level: debug
*/
package config
