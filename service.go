// Copyright 2018 The go-zeromq Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package obelisk

import (
	"context"
	"fmt"
	"sync"

	"github.com/destiny/zmq4/v25"
	"golang.org/x/sync/errgroup"
)

// ServiceOptions configures a query service relay
type ServiceOptions struct {
	Security zmq4.Security // Security mechanism (nil for no security)
	Logger   *zmq4.Logger  // Destination for service logs
}

// DefaultServiceOptions returns default service options
func DefaultServiceOptions() *ServiceOptions {
	return &ServiceOptions{
		Security: nil,
		Logger:   zmq4.NewLogger(zmq4.LogLevelInfo),
	}
}

// QueryService is the relay the query workers dial: a client-facing
// ROUTER bound to the query endpoint and a worker-facing DEALER bound to
// the worker endpoint, forwarding frames in both directions. The router
// prepends the client identity on the way in; that identity travels as
// the request's opaque route and addresses the reply on the way out.
//
// One public and one secure service are deployed per node; the secure
// service binds with CURVE server security.
type QueryService struct {
	settings Settings
	secure   bool
	options  *ServiceOptions
	log      *zmq4.Logger

	ctx    context.Context
	cancel context.CancelFunc
	group  *errgroup.Group

	mu      sync.Mutex
	running bool
	client  zmq4.Socket
	worker  zmq4.Socket
}

// NewQueryService creates a query service for the secure or public
// channel.
func NewQueryService(settings Settings, secure bool, options *ServiceOptions) *QueryService {
	if options == nil {
		options = DefaultServiceOptions()
	}
	if options.Logger == nil {
		options.Logger = zmq4.NewLogger(zmq4.LogLevelInfo)
	}

	ctx, cancel := context.WithCancel(context.Background())
	group, ctx := errgroup.WithContext(ctx)

	return &QueryService{
		settings: settings,
		secure:   secure,
		options:  options,
		log:      options.Logger,
		ctx:      ctx,
		cancel:   cancel,
		group:    group,
	}
}

func (s *QueryService) security() string {
	if s.secure {
		return "secure"
	}
	return "public"
}

// Start binds both endpoints and launches the relay loops.
func (s *QueryService) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.running {
		return fmt.Errorf("obelisk: %s query service already running", s.security())
	}

	if s.options.Security != nil {
		s.client = zmq4.NewRouter(s.ctx, zmq4.WithSecurity(s.options.Security))
	} else {
		s.client = zmq4.NewRouter(s.ctx)
	}
	s.worker = zmq4.NewDealer(s.ctx)

	queryEndpoint := s.settings.QueryEndpoint(s.secure)
	workerEndpoint := s.settings.WorkerEndpoint(s.secure)

	if err := s.client.Listen(queryEndpoint); err != nil {
		s.client.Close()
		return fmt.Errorf("obelisk: failed to bind %s query endpoint %s: %w",
			s.security(), queryEndpoint, err)
	}

	if err := s.worker.Listen(workerEndpoint); err != nil {
		s.client.Close()
		s.worker.Close()
		return fmt.Errorf("obelisk: failed to bind %s worker endpoint %s: %w",
			s.security(), workerEndpoint, err)
	}

	s.group.Go(func() error { return s.relay(s.client, s.worker) })
	s.group.Go(func() error { return s.relay(s.worker, s.client) })

	s.running = true
	s.log.Info("bound %s query service to %s (workers on %s)",
		s.security(), queryEndpoint, workerEndpoint)
	return nil
}

// relay forwards every message from one socket to the other, verbatim.
// Forwarding is best-effort: the dealer side drops for lost workers and
// high water rather than queueing indefinitely.
func (s *QueryService) relay(from, to zmq4.Socket) error {
	for {
		msg, err := from.Recv()
		if err != nil {
			if s.ctx.Err() != nil {
				return nil
			}
			s.log.Debug("%s query service receive failed: %v", s.security(), err)
			continue
		}

		if err := to.Send(zmq4.NewMsgFrom(msg.Frames...)); err != nil {
			if s.ctx.Err() != nil {
				return nil
			}
			s.log.Warn("%s query service failed to relay message: %v",
				s.security(), err)
		}
	}
}

// Stop tears the relay down and waits for both loops to exit.
func (s *QueryService) Stop() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.running {
		return fmt.Errorf("obelisk: %s query service not running", s.security())
	}
	s.running = false

	s.cancel()
	s.client.Close()
	s.worker.Close()
	return s.group.Wait()
}
