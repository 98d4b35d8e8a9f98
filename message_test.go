// Copyright 2018 The go-zeromq Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package obelisk

import (
	"bytes"
	"encoding/binary"
	"testing"
)

func TestMessageFraming(t *testing.T) {
	msg := &Message{
		Route:   [][]byte{{0xde, 0xad}, {0xbe, 0xef}},
		Command: "blockchain.fetch_last_height",
		ID:      42,
		Payload: []byte{0x01, 0x02, 0x03},
	}

	frames := msg.Frames()
	if len(frames) != 5 {
		t.Fatalf("frame count mismatch: got %d, want 5", len(frames))
	}

	parsed, ec := ParseMessage(frames)
	if ec != Success {
		t.Fatalf("parse failed: %s", ec)
	}

	if len(parsed.Route) != 2 ||
		!bytes.Equal(parsed.Route[0], msg.Route[0]) ||
		!bytes.Equal(parsed.Route[1], msg.Route[1]) {
		t.Errorf("route not preserved: got %v, want %v", parsed.Route, msg.Route)
	}
	if parsed.Command != msg.Command {
		t.Errorf("command mismatch: got %q, want %q", parsed.Command, msg.Command)
	}
	if parsed.ID != msg.ID {
		t.Errorf("id mismatch: got %d, want %d", parsed.ID, msg.ID)
	}
	if !bytes.Equal(parsed.Payload, msg.Payload) {
		t.Errorf("payload mismatch: got %v, want %v", parsed.Payload, msg.Payload)
	}
}

func TestMessageFramingNoRoute(t *testing.T) {
	msg := NewRequest("protocol.total_connections", nil)

	frames := msg.Frames()
	if len(frames) != 3 {
		t.Fatalf("frame count mismatch: got %d, want 3", len(frames))
	}

	parsed, ec := ParseMessage(frames)
	if ec != Success {
		t.Fatalf("parse failed: %s", ec)
	}
	if len(parsed.Route) != 0 {
		t.Errorf("unexpected route: %v", parsed.Route)
	}
	if parsed.ID != msg.ID {
		t.Errorf("id mismatch: got %d, want %d", parsed.ID, msg.ID)
	}
}

func TestRequestIDsDistinct(t *testing.T) {
	a := NewRequest("blockchain.fetch_last_height", nil)
	b := NewRequest("blockchain.fetch_last_height", nil)
	if a.ID == b.ID {
		t.Errorf("consecutive requests share id %d", a.ID)
	}
}

func TestReplyPreservesEnvelope(t *testing.T) {
	request := &Message{
		Route:   [][]byte{{0x01}},
		Command: "blockchain.fetch_block_header",
		ID:      7,
		Payload: []byte{0xaa},
	}

	reply := request.Reply([]byte{0x00, 0x00, 0x00, 0x00, 0xff})

	if reply.Command != request.Command || reply.ID != request.ID {
		t.Errorf("reply envelope mismatch: %q/%d", reply.Command, reply.ID)
	}
	if !bytes.Equal(reply.Route[0], request.Route[0]) {
		t.Errorf("reply route mismatch: %v", reply.Route)
	}
}

func TestErrorReply(t *testing.T) {
	request := &Message{
		Route:   [][]byte{{0xca, 0xfe}},
		Command: "foo.bar",
		ID:      9,
	}

	reply := NewErrorReply(request, NotFound)
	frames := reply.Frames()

	payload := frames[len(frames)-1]
	if len(payload) != 4 {
		t.Fatalf("error payload length: got %d, want 4", len(payload))
	}
	if code := binary.LittleEndian.Uint32(payload); code != uint32(NotFound) {
		t.Errorf("error code mismatch: got %d, want %d", code, NotFound)
	}
	if !bytes.Equal(frames[0], request.Route[0]) {
		t.Errorf("error reply route mismatch: %v", frames[0])
	}
	if string(frames[1]) != request.Command {
		t.Errorf("error reply command mismatch: %q", frames[1])
	}
}

func TestParseMalformed(t *testing.T) {
	// Single frame: salvaged as command, no route.
	lone, ec := ParseMessage([][]byte{[]byte("blockchain.validate")})
	if ec != BadStream {
		t.Errorf("short stack: got %s, want %s", ec, BadStream)
	}
	if lone.Command != "blockchain.validate" || len(lone.Route) != 0 {
		t.Errorf("short stack salvage: %q / %v", lone.Command, lone.Route)
	}

	// Two frames: leading frame is route, final frame is command.
	pair, ec := ParseMessage([][]byte{{0x02}, []byte("blockchain.validate")})
	if ec != BadStream {
		t.Errorf("two-frame stack: got %s, want %s", ec, BadStream)
	}
	if pair.Command != "blockchain.validate" {
		t.Errorf("two-frame salvaged command: %q", pair.Command)
	}
	if len(pair.Route) != 1 || !bytes.Equal(pair.Route[0], []byte{0x02}) {
		t.Errorf("two-frame salvaged route: %v", pair.Route)
	}

	// Bad id frame width: the salvaged route and command must survive for
	// the error reply.
	frames := [][]byte{{0x01}, []byte("blockchain.fetch_spend"), {0x00}, {}}
	partial, ec := ParseMessage(frames)
	if ec != BadStream {
		t.Fatalf("bad id frame: got %s, want %s", ec, BadStream)
	}
	if partial.Command != "blockchain.fetch_spend" {
		t.Errorf("salvaged command mismatch: %q", partial.Command)
	}
	if len(partial.Route) != 1 || !bytes.Equal(partial.Route[0], []byte{0x01}) {
		t.Errorf("salvaged route mismatch: %v", partial.Route)
	}
}

func TestRouteDisplay(t *testing.T) {
	m := &Message{}
	if m.RouteDisplay() != "<unrouted>" {
		t.Errorf("empty route display: %q", m.RouteDisplay())
	}

	m.Route = [][]byte{{0xab}, {0xcd, 0xef}}
	if m.RouteDisplay() != "ab/cdef" {
		t.Errorf("route display: %q", m.RouteDisplay())
	}
}

func TestErrorCodeStrings(t *testing.T) {
	codes := map[ErrorCode]string{
		Success:        "success",
		ServiceStopped: "service stopped",
		NotFound:       "object does not exist",
		BadStream:      "bad data stream",
	}
	for code, want := range codes {
		if code.String() != want {
			t.Errorf("code %d: got %q, want %q", uint32(code), code.String(), want)
		}
	}
	if !Success.Ok() || NotFound.Ok() {
		t.Error("Ok() misclassifies codes")
	}
}
