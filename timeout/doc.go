// Copyright 2021 The httpchain Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

// Package timeout defines policies for bounding each attempt of an HTTP
// request plan execution, including retries.
//
// A middleware chain consults its Policy at the start of every attempt
// unless the plan carries its own Timeout. The attempt request is then
// sent under a context with that deadline, derived from the plan
// context, so an attempt timeout ends only the attempt while a
// cancelled plan context ends the whole execution.
package timeout
