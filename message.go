// Copyright 2018 The go-zeromq Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package obelisk

import (
	"encoding/binary"
	"fmt"
	"strings"
	"sync/atomic"
)

// Message is one query protocol message. On the wire it is a multi-part
// frame stack: every frame before the last three is an opaque reply route,
// followed by [command][id][payload]. The route is assigned by the
// transport and must be echoed verbatim on the reply; the id is a 4-byte
// little-endian value chosen by the client and echoed likewise.
type Message struct {
	// Route is the stack of opaque address frames ahead of the message
	// body. Replies carry the request's route byte-for-byte.
	Route [][]byte

	// Command is the registered command name, e.g.
	// "blockchain.fetch_last_height".
	Command string

	// ID correlates a reply with its request.
	ID uint32

	// Payload is the command-specific body. Reply payloads begin with a
	// 4-byte little-endian error code written by the handler.
	Payload []byte

	// Err, when not Success, replaces the payload with the serialized
	// code on encode. Set on worker-generated error replies only.
	Err ErrorCode
}

var nextID uint32

// NewRequest creates a client request with a fresh correlation id.
func NewRequest(command string, payload []byte) *Message {
	return &Message{
		Command: command,
		ID:      atomic.AddUint32(&nextID, 1),
		Payload: payload,
	}
}

// Reply creates a reply to m: same route, command and id, new payload.
func (m *Message) Reply(payload []byte) *Message {
	return &Message{
		Route:   m.Route,
		Command: m.Command,
		ID:      m.ID,
		Payload: payload,
	}
}

// NewErrorReply creates a reply to request carrying only the error code.
// The route, command and id of the request are preserved so the client can
// correlate the failure.
func NewErrorReply(request *Message, code ErrorCode) *Message {
	return &Message{
		Route:   request.Route,
		Command: request.Command,
		ID:      request.ID,
		Err:     code,
	}
}

// Frames encodes the message as a wire frame stack.
func (m *Message) Frames() [][]byte {
	id := make([]byte, 4)
	binary.LittleEndian.PutUint32(id, m.ID)

	payload := m.Payload
	if m.Err != Success {
		payload = make([]byte, 4)
		binary.LittleEndian.PutUint32(payload, uint32(m.Err))
	}
	if payload == nil {
		payload = []byte{}
	}

	frames := make([][]byte, 0, len(m.Route)+3)
	frames = append(frames, m.Route...)
	return append(frames, []byte(m.Command), id, payload)
}

// ParseMessage decodes a wire frame stack. On a malformed stack it returns
// BadStream together with a partial message holding whatever route and
// command could be salvaged, so the caller can still address an error
// reply.
func ParseMessage(frames [][]byte) (*Message, ErrorCode) {
	m := &Message{}

	if len(frames) < 3 {
		// Truncated stack, missing id and payload: salvage the leading
		// frames as route and the final frame as command so an error
		// reply can still echo them.
		if n := len(frames); n > 0 {
			m.Route = frames[:n-1]
			m.Command = string(frames[n-1])
		}
		return m, BadStream
	}

	body := len(frames) - 3
	m.Route = frames[:body]
	m.Command = string(frames[body])

	idFrame := frames[body+1]
	if len(idFrame) != 4 {
		return m, BadStream
	}
	m.ID = binary.LittleEndian.Uint32(idFrame)
	m.Payload = frames[body+2]
	return m, Success
}

// RouteDisplay renders the route for logging.
func (m *Message) RouteDisplay() string {
	if len(m.Route) == 0 {
		return "<unrouted>"
	}
	parts := make([]string, len(m.Route))
	for i, frame := range m.Route {
		parts[i] = fmt.Sprintf("%x", frame)
	}
	return strings.Join(parts, "/")
}
