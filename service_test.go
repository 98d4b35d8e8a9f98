// Copyright 2018 The go-zeromq Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package obelisk

import (
	"context"
	"encoding/binary"
	"testing"
	"time"

	"github.com/destiny/zmq4/v25"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/destiny/obelisk/internal/testutil"
)

// TestQueryRoundTrip drives a request from a client dealer through the
// query service relay to a worker and back.
func TestQueryRoundTrip(t *testing.T) {
	queryEndpoint, err := testutil.GetTestEndpoint()
	require.NoError(t, err)
	workerEndpoint, err := testutil.GetTestEndpoint()
	require.NoError(t, err)

	settings := DefaultSettings()
	settings.PublicQueryEndpoint = queryEndpoint
	settings.PublicWorkerEndpoint = workerEndpoint

	options := DefaultServiceOptions()
	options.Logger = zmq4.DevNullLogger

	service := NewQueryService(settings, false, options)
	require.NoError(t, service.Start())
	t.Cleanup(func() { service.Stop() })

	height := make([]byte, 8)
	binary.LittleEndian.PutUint64(height, 650000)

	iface := Interface{
		Blockchain: BlockchainHandlers{
			FetchLastHeight: func(request *Message, send Sender) {
				send(request.Reply(height))
			},
		},
	}

	workerOptions := DefaultWorkerOptions()
	workerOptions.PollInterval = 10 * time.Millisecond
	workerOptions.Logger = zmq4.DevNullLogger

	worker := NewQueryWorker(settings, iface, false, workerOptions)
	require.NoError(t, worker.Start())
	t.Cleanup(func() {
		if worker.IsRunning() {
			worker.Stop()
		}
	})

	client := zmq4.NewDealer(context.Background())
	require.NoError(t, client.Dial(queryEndpoint))
	t.Cleanup(func() { client.Close() })

	// Let the dealer joins settle before the first send.
	time.Sleep(500 * time.Millisecond)

	request := NewRequest("blockchain.fetch_last_height", nil)
	require.NoError(t, client.Send(zmq4.NewMsgFrom(request.Frames()...)))

	type result struct {
		msg zmq4.Msg
		err error
	}
	ch := make(chan result, 1)
	go func() {
		msg, err := client.Recv()
		ch <- result{msg, err}
	}()

	select {
	case res := <-ch:
		require.NoError(t, res.err)
		reply, ec := ParseMessage(res.msg.Frames)
		require.Equal(t, Success, ec)
		// The client router strips its identity: no route remains.
		assert.Empty(t, reply.Route)
		assert.Equal(t, "blockchain.fetch_last_height", reply.Command)
		assert.Equal(t, request.ID, reply.ID)
		assert.Equal(t, height, reply.Payload)
	case <-time.After(10 * time.Second):
		t.Fatal("timed out waiting for query round trip")
	}
}

func TestServiceLifecycle(t *testing.T) {
	queryEndpoint, err := testutil.GetTestEndpoint()
	require.NoError(t, err)
	workerEndpoint, err := testutil.GetTestEndpoint()
	require.NoError(t, err)

	settings := DefaultSettings()
	settings.PublicQueryEndpoint = queryEndpoint
	settings.PublicWorkerEndpoint = workerEndpoint

	options := DefaultServiceOptions()
	options.Logger = zmq4.DevNullLogger

	service := NewQueryService(settings, false, options)
	require.NoError(t, service.Start())

	// Double start reports running.
	assert.Error(t, service.Start())

	require.NoError(t, service.Stop())
	assert.Error(t, service.Stop())
}
