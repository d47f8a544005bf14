// Copyright 2021 The httpchain Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package request

import (
	"errors"
	"io"
)

var errBadBodyType = errors.New("httpchain/request: invalid type (for body use nil, " +
	"string, []byte, io.Reader or io.ReadCloser)")

// BodyBytes converts a generic body parameter to a byte slice for use
// as a plan body.
//
// A nil body gives a nil slice. A string or []byte is converted
// directly. An io.Reader is read to the end, and an io.ReadCloser is
// additionally closed; a read or close failure returns a nil slice and
// the error. Any other type is an error.
func BodyBytes(body any) ([]byte, error) {
	switch x := body.(type) {
	case nil:
		return nil, nil
	case string:
		return []byte(x), nil
	case []byte:
		return x, nil
	case io.ReadCloser:
		b, err := io.ReadAll(x)
		if cerr := x.Close(); err == nil {
			err = cerr
		}
		if err != nil {
			return nil, err
		}
		return b, nil
	case io.Reader:
		b, err := io.ReadAll(x)
		if err != nil {
			return nil, err
		}
		return b, nil
	default:
		return nil, errBadBodyType
	}
}
