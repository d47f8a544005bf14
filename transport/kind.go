// Copyright 2021 The httpchain Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package transport

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"io"
	"net"
	"strings"
	"syscall"

	"golang.org/x/net/http2"
)

// A Kind is the category of a transport failure, as reported by
// Classify.
//
// The kinds ConnectFailed, Timeout and Reset describe failures which
// have some prospect of succeeding on a later attempt. Protocol and
// Other describe failures which usually do not.
type Kind int

const (
	// None indicates the absence of an error.
	None Kind = iota
	// Other indicates an error which fits no other kind.
	Other
	// ConnectFailed indicates a connection to the remote host could
	// not be established: the connection was refused, the host or
	// network was unreachable, or the host name could not be resolved.
	//
	// Although these may be permanent conditions, connection refusal
	// also happens while the service on the remote host is starting or
	// restarting, and a later attempt often succeeds.
	ConnectFailed
	// Timeout indicates a client-side timeout, either of the attempt
	// or of a lower-level network operation. The error or one of its
	// wrapped causes has a Timeout method that reports true.
	Timeout
	// Reset indicates an established connection or stream was torn
	// down before the response was complete: a TCP reset, a broken
	// pipe, an unexpected EOF, or an HTTP/2 stream reset or GOAWAY.
	//
	// Resets are common while the remote host is being redeployed, or
	// when the remote host is a load balancer, so they tend to indicate
	// a high probability of success on retry.
	Reset
	// Protocol indicates the remote host violated the protocol, for
	// example by answering a TLS handshake with plain text or sending
	// an HTTP/2 PROTOCOL_ERROR.
	Protocol
)

var kindNames = [...]string{
	None:          "none",
	Other:         "other",
	ConnectFailed: "connect_failed",
	Timeout:       "timeout",
	Reset:         "reset",
	Protocol:      "protocol",
}

func (k Kind) String() string {
	if k < 0 || int(k) >= len(kindNames) {
		return fmt.Sprintf("Kind(%d)", int(k))
	}
	return kindNames[k]
}

// ParseKind returns the Kind whose String value is name. Matching
// ignores case, and dashes may be used in place of underscores.
func ParseKind(name string) (Kind, error) {
	n := strings.ReplaceAll(strings.ToLower(strings.TrimSpace(name)), "-", "_")
	for k, s := range kindNames {
		if s == n {
			return Kind(k), nil
		}
	}
	return None, fmt.Errorf("httpchain/transport: unknown error kind %q", name)
}

// Classify returns the kind of err. A nil error is None and an error
// that matches no more specific kind is Other. If err already wraps an
// *Error, its Kind is returned.
//
// Classify inspects the whole chain of wrapped causes. Timeouts are
// checked first, so a timeout that wraps a connection reset is a
// Timeout. Classify never looks at Temporary methods, as their
// semantics are unclear.
func Classify(err error) Kind {
	if err == nil {
		return None
	}
	var te *Error
	if errors.As(err, &te) {
		return te.Kind
	}
	switch {
	case isTimeout(err):
		return Timeout
	case isConnectFailed(err):
		return ConnectFailed
	case isProtocol(err):
		return Protocol
	case isReset(err):
		return Reset
	}
	return Other
}

// KindOf returns the Kind of the first *Error in err's chain, or None
// if there is none.
func KindOf(err error) Kind {
	var te *Error
	if errors.As(err, &te) {
		return te.Kind
	}
	return None
}

type hasTimeout interface {
	Timeout() bool
}

func isTimeout(err error) bool {
	var t hasTimeout
	return (errors.As(err, &t) && t.Timeout()) || errors.Is(err, context.DeadlineExceeded)
}

func isConnectFailed(err error) bool {
	var errno syscall.Errno
	if errors.As(err, &errno) {
		switch errno {
		case syscall.ECONNREFUSED, syscall.EHOSTUNREACH, syscall.ENETUNREACH:
			return true
		}
	}
	var dnsErr *net.DNSError
	if errors.As(err, &dnsErr) {
		return true
	}
	var opErr *net.OpError
	return errors.As(err, &opErr) && opErr.Op == "dial"
}

func isProtocol(err error) bool {
	var rhe tls.RecordHeaderError
	if errors.As(err, &rhe) {
		return true
	}
	var ce http2.ConnectionError
	if errors.As(err, &ce) {
		return true
	}
	var se http2.StreamError
	return errors.As(err, &se) && se.Code == http2.ErrCodeProtocol
}

func isReset(err error) bool {
	var errno syscall.Errno
	if errors.As(err, &errno) {
		switch errno {
		case syscall.ECONNRESET, syscall.ECONNABORTED, syscall.EPIPE:
			return true
		}
	}
	if errors.Is(err, io.ErrUnexpectedEOF) || errors.Is(err, io.EOF) {
		return true
	}
	var se http2.StreamError
	if errors.As(err, &se) {
		return true
	}
	var gae http2.GoAwayError
	return errors.As(err, &gae)
}

// An Error reports a failed attempt to send a request or to read its
// response.
type Error struct {
	// Kind is the category of the failure.
	Kind Kind
	// Op is the operation, in the style of url.Error: "Get", "Post"...
	Op string
	// URL is the request URL.
	URL string
	// Err is the underlying cause.
	Err error
}

func (err *Error) Error() string {
	return fmt.Sprintf("httpchain/transport: %s %q: %v (%s)", err.Op, err.URL, err.Err, err.Kind)
}

func (err *Error) Unwrap() error {
	return err.Err
}

// Timeout reports whether the failure is a timeout.
func (err *Error) Timeout() bool {
	return err.Kind == Timeout
}
