// Copyright 2018 The go-zeromq Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package obelisk

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/destiny/zmq4/v25"
)

// WorkerOptions configures query worker behavior
type WorkerOptions struct {
	PollInterval time.Duration // Readiness wait granularity
	Security     zmq4.Security // Security mechanism (nil for no security)
	Logger       *zmq4.Logger  // Destination for worker logs
}

// DefaultWorkerOptions returns default worker options
func DefaultWorkerOptions() *WorkerOptions {
	return &WorkerOptions{
		PollInterval: 100 * time.Millisecond,
		Security:     nil,
		Logger:       zmq4.NewLogger(zmq4.LogLevelInfo),
	}
}

// QueryWorker dispatches query requests arriving over the query service
// connection. It is implemented as a dealer to the query service: the
// same identity receives synchronous responses and asynchronous
// notifications, so no delimiter stripping is needed on the reply path.
//
// Each worker owns one single-threaded run loop; a deployment typically
// runs one public worker and one secure worker, each with its own
// registry built from the same interface.
type QueryWorker struct {
	settings Settings
	secure   bool
	verbose  bool
	registry *Registry
	options  *WorkerOptions
	log      *zmq4.Logger

	mu        sync.Mutex
	running   bool
	connected bool
	ctx       context.Context
	cancel    context.CancelFunc
	stopCh    chan struct{}
	doneCh    chan struct{}
}

// NewQueryWorker creates a query worker for the secure or public channel.
// The registry is populated here, once, and never mutated afterward; the
// same interface is attached to the secure and public workers.
func NewQueryWorker(settings Settings, iface Interface, secure bool, options *WorkerOptions) *QueryWorker {
	if options == nil {
		options = DefaultWorkerOptions()
	}
	if options.Logger == nil {
		options.Logger = zmq4.NewLogger(zmq4.LogLevelInfo)
	}
	if options.PollInterval <= 0 {
		options.PollInterval = 100 * time.Millisecond
	}

	// A worker that has never run reports completion immediately.
	done := make(chan struct{})
	close(done)

	return &QueryWorker{
		settings: settings,
		secure:   secure,
		verbose:  settings.Verbose,
		registry: NewRegistry(iface),
		options:  options,
		log:      options.Logger,
		doneCh:   done,
	}
}

// Registry exposes the worker's command registry.
func (w *QueryWorker) Registry() *Registry {
	return w.registry
}

// Start launches the worker's run loop. A stopped worker may be started
// again; each run gets its own connection and lifecycle state.
func (w *QueryWorker) Start() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.running {
		return fmt.Errorf("obelisk: %s query worker already running", w.security())
	}
	select {
	case <-w.doneCh:
	default:
		return fmt.Errorf("obelisk: %s query worker still stopping", w.security())
	}

	w.ctx, w.cancel = context.WithCancel(context.Background())
	w.stopCh = make(chan struct{})
	w.doneCh = make(chan struct{})
	w.running = true

	go w.work()
	return nil
}

// Stop signals the run loop to exit and waits for it to finish. The stop
// flag is cooperative: it is observed once per loop iteration and again
// before each receive, so shutdown latency is bounded by one poll
// interval plus any in-flight transport operation.
func (w *QueryWorker) Stop() error {
	w.mu.Lock()
	if !w.running {
		w.mu.Unlock()
		return fmt.Errorf("obelisk: %s query worker not running", w.security())
	}
	w.running = false
	stopCh, cancel, doneCh := w.stopCh, w.cancel, w.doneCh
	w.mu.Unlock()

	close(stopCh)
	cancel()
	<-doneCh
	return nil
}

// Done is closed when the run loop has exited and the connection is
// closed.
func (w *QueryWorker) Done() <-chan struct{} {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.doneCh
}

// IsConnected reports whether the worker holds an open connection.
func (w *QueryWorker) IsConnected() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.connected
}

// IsRunning reports whether the run loop is active.
func (w *QueryWorker) IsRunning() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.running
}

func (w *QueryWorker) stopped() bool {
	select {
	case <-w.stopCh:
		return true
	default:
		return false
	}
}

func (w *QueryWorker) security() string {
	if w.secure {
		return "secure"
	}
	return "public"
}

// work is the run loop: connect, then one envelope per readiness wait
// until terminated or stopped, then disconnect unconditionally. One
// envelope per iteration keeps request/response ordering strictly FIFO on
// this worker and bounds per-iteration latency.
func (w *QueryWorker) work() {
	// The exit path runs on stop, termination and connect failure alike:
	// the accessors report a dead worker truthfully either way.
	defer func() {
		w.cancel()
		w.mu.Lock()
		w.running = false
		w.connected = false
		doneCh := w.doneCh
		w.mu.Unlock()
		close(doneCh)
	}()

	conn := newConnection(w.ctx, w.options.Security)

	if !w.connect(conn) {
		conn.disconnect()
		return
	}

	for !conn.terminated() && !w.stopped() {
		if conn.poll(w.options.PollInterval) {
			w.query(conn)
		}
	}

	w.disconnect(conn)
}

func (w *QueryWorker) connect(conn *connection) bool {
	endpoint := w.settings.WorkerEndpoint(w.secure)

	if err := conn.connect(endpoint); err != nil {
		w.log.Error("failed to connect %s query worker to %s: %v",
			w.security(), endpoint, err)
		return false
	}

	w.mu.Lock()
	w.connected = true
	w.mu.Unlock()

	w.log.Info("connected %s query worker to %s (priority %d)",
		w.security(), endpoint, w.settings.Priority)
	return true
}

func (w *QueryWorker) disconnect(conn *connection) {
	err := conn.disconnect()

	w.mu.Lock()
	w.connected = false
	w.mu.Unlock()

	// Don't log stop success.
	if err != nil && !w.stopped() {
		w.log.Error("failed to disconnect %s query worker: %v", w.security(), err)
	}
}

// query receives and dispatches exactly one request. Invalid requests are
// answered with an error reply and dropped; a stopped transport is a
// clean shutdown race and stays silent.
func (w *QueryWorker) query(conn *connection) {
	if w.stopped() {
		return
	}

	request, ec, fault := conn.receive()

	if ec == ServiceStopped {
		return
	}

	if ec != Success {
		detail := ec.String()
		if fault != nil {
			detail = fmt.Sprintf("%s: %v", ec, fault)
		}
		w.log.Debug("failed to receive query from %s: %s",
			request.RouteDisplay(), detail)
		w.send(NewErrorReply(request, ec), conn)
		return
	}

	handler, ok := w.registry.Find(request.Command)
	if !ok {
		w.log.Debug("invalid query command %q from %s",
			request.Command, request.RouteDisplay())
		w.send(NewErrorReply(request, NotFound), conn)
		return
	}

	if w.verbose {
		w.log.Info("query %s from %s", request.Command, request.RouteDisplay())
	}

	// The handler is trusted to invoke the sender exactly once; handler
	// latency is the backend's responsibility, no timeout is enforced
	// here.
	handler(request, func(reply *Message) {
		w.send(reply, conn)
	})
}

// send writes a reply best-effort: a failed send is a lost notification,
// not a handler fault, and is never retried.
func (w *QueryWorker) send(reply *Message, conn *connection) {
	ec := conn.send(reply)

	if ec != Success && ec != ServiceStopped {
		w.log.Warn("failed to send query response to %s: %s",
			reply.RouteDisplay(), ec)
	}
}
