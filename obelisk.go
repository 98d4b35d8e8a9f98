// Copyright 2018 The go-zeromq Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package obelisk implements the Obelisk v3 bitcoin query protocol:
// https://github.com/libbitcoin/libbitcoin-server/wiki/Query-Service
//
// The package provides the query worker (a DEALER that dials the query
// service and dispatches requests by command name) and the query service
// relay it connects to. Command names and error codes are a wire contract
// shared with deployed clients and must not change.
package obelisk

import "fmt"

// ErrorCode is a protocol status code carried in reply payloads.
// Values are fixed by the v3 wire protocol.
type ErrorCode uint32

const (
	Success         ErrorCode = 0
	ServiceStopped  ErrorCode = 1
	OperationFailed ErrorCode = 2
	NotFound        ErrorCode = 3
	BadStream       ErrorCode = 12
	ChannelTimeout  ErrorCode = 13
)

// String returns the string representation of the error code
func (e ErrorCode) String() string {
	switch e {
	case Success:
		return "success"
	case ServiceStopped:
		return "service stopped"
	case OperationFailed:
		return "operation failed"
	case NotFound:
		return "object does not exist"
	case BadStream:
		return "bad data stream"
	case ChannelTimeout:
		return "connection timed out"
	default:
		return fmt.Sprintf("error code %d", uint32(e))
	}
}

// Ok reports whether the code indicates success.
func (e ErrorCode) Ok() bool {
	return e == Success
}
