// Copyright 2018 The go-zeromq Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package obelisk

import (
	"context"
	"errors"
	"net"
	"sync"
	"sync/atomic"
	"time"

	"github.com/destiny/zmq4/v25"
)

// connection wraps the worker's DEALER socket with a readiness notifier.
// A single reader goroutine feeds received messages and receive faults
// into channels; poll reports pending input without consuming it, receive
// consumes exactly one item. The dealer drops messages for lost peers and
// high water rather than blocking indefinitely.
type connection struct {
	sock zmq4.Socket
	ctx  context.Context

	msgCh chan zmq4.Msg
	errCh chan error
	term  atomic.Bool

	// pending input stashed by poll until receive consumes it
	pendingMsg *zmq4.Msg
	pendingErr error

	closeOnce sync.Once
	closeErr  error
}

func newConnection(ctx context.Context, security zmq4.Security) *connection {
	var sock zmq4.Socket
	if security != nil {
		sock = zmq4.NewDealer(ctx, zmq4.WithSecurity(security))
	} else {
		sock = zmq4.NewDealer(ctx)
	}

	return &connection{
		sock:  sock,
		ctx:   ctx,
		msgCh: make(chan zmq4.Msg, 1),
		errCh: make(chan error, 1),
	}
}

// connect dials the endpoint and starts the reader. No retry: a failed
// dial is fatal to the worker's run.
func (c *connection) connect(endpoint string) error {
	if err := c.sock.Dial(endpoint); err != nil {
		c.term.Store(true)
		return err
	}

	go c.read()
	return nil
}

func (c *connection) read() {
	for {
		msg, err := c.sock.Recv()
		if err != nil {
			if stoppedError(c.ctx, err) {
				c.term.Store(true)
				return
			}
			select {
			case c.errCh <- err:
			case <-c.ctx.Done():
				c.term.Store(true)
				return
			}
			continue
		}

		select {
		case c.msgCh <- msg:
		case <-c.ctx.Done():
			c.term.Store(true)
			return
		}
	}
}

// poll waits up to interval for pending input. It returns false on
// timeout or termination so the caller re-checks its stop condition.
func (c *connection) poll(interval time.Duration) bool {
	if c.pendingMsg != nil || c.pendingErr != nil {
		return true
	}

	timer := time.NewTimer(interval)
	defer timer.Stop()

	select {
	case msg := <-c.msgCh:
		c.pendingMsg = &msg
		return true
	case err := <-c.errCh:
		c.pendingErr = err
		return true
	case <-c.ctx.Done():
		return false
	case <-timer.C:
		return false
	}
}

// receive consumes the one pending input item. A non-Success code with a
// partial message means the caller can still address an error reply; the
// returned error, when present, carries the transport fault's text.
func (c *connection) receive() (*Message, ErrorCode, error) {
	if err := c.pendingErr; err != nil {
		c.pendingErr = nil
		return &Message{}, OperationFailed, err
	}

	if c.pendingMsg == nil {
		// receive without a successful poll: nothing buffered
		if c.terminated() {
			return &Message{}, ServiceStopped, nil
		}
		return &Message{}, OperationFailed, nil
	}

	frames := c.pendingMsg.Frames
	c.pendingMsg = nil
	m, ec := ParseMessage(frames)
	return m, ec, nil
}

// send writes one message to the connection.
func (c *connection) send(m *Message) ErrorCode {
	if c.terminated() {
		return ServiceStopped
	}

	err := c.sock.Send(zmq4.NewMsgFrom(m.Frames()...))
	if err == nil {
		return Success
	}
	if stoppedError(c.ctx, err) {
		return ServiceStopped
	}
	return OperationFailed
}

// terminated reports whether the transport has shut down.
func (c *connection) terminated() bool {
	return c.term.Load() || c.ctx.Err() != nil
}

// disconnect closes the socket. Safe to call more than once; only the
// first close is observed.
func (c *connection) disconnect() error {
	c.closeOnce.Do(func() {
		c.term.Store(true)
		c.closeErr = c.sock.Close()
	})
	return c.closeErr
}

// stoppedError classifies transport faults caused by orderly shutdown.
func stoppedError(ctx context.Context, err error) bool {
	if ctx.Err() != nil {
		return true
	}
	return errors.Is(err, net.ErrClosed) ||
		errors.Is(err, context.Canceled) ||
		errors.Is(err, context.DeadlineExceeded)
}
