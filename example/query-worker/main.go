// Copyright 2018 The go-zeromq Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Example public query worker with stub handlers
package main

import (
	"encoding/binary"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/destiny/zmq4/v25"

	"github.com/destiny/obelisk"
)

func main() {
	settingsPath := flag.String("settings", "", "path to YAML settings file")
	verbose := flag.Bool("verbose", false, "log each query")
	flag.Parse()

	settings := obelisk.DefaultSettings()
	if *settingsPath != "" {
		var err error
		settings, err = obelisk.LoadSettings(*settingsPath)
		if err != nil {
			log.Fatalf("Failed to load settings: %v", err)
		}
	}
	settings.Verbose = *verbose

	// Stub chain state: a fixed height and an empty transaction pool.
	height := make([]byte, 8)
	binary.LittleEndian.PutUint64(height, 650000)

	notFound := make([]byte, 4)
	binary.LittleEndian.PutUint32(notFound, uint32(obelisk.NotFound))

	iface := obelisk.Interface{
		Blockchain: obelisk.BlockchainHandlers{
			FetchLastHeight: func(request *obelisk.Message, send obelisk.Sender) {
				payload := make([]byte, 4, 12)
				payload = append(payload, height...)
				send(request.Reply(payload))
			},
			FetchBlockHeader: func(request *obelisk.Message, send obelisk.Sender) {
				send(request.Reply(notFound))
			},
		},
		TransactionPool: obelisk.TransactionPoolHandlers{
			FetchTransaction: func(request *obelisk.Message, send obelisk.Sender) {
				send(request.Reply(notFound))
			},
		},
		Protocol: obelisk.ProtocolHandlers{
			TotalConnections: func(request *obelisk.Message, send obelisk.Sender) {
				payload := make([]byte, 8)
				send(request.Reply(payload))
			},
		},
	}

	options := obelisk.DefaultWorkerOptions()
	options.Logger = zmq4.NewLogger(zmq4.LogLevelDebug)

	worker := obelisk.NewQueryWorker(settings, iface, false, options)
	if err := worker.Start(); err != nil {
		log.Fatalf("Failed to start worker: %v", err)
	}

	log.Printf("Public query worker dialing %s, commands: %v",
		settings.WorkerEndpoint(false), worker.Registry().Commands())

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case <-sigCh:
		log.Println("Shutting down...")
		if err := worker.Stop(); err != nil {
			log.Printf("Failed to stop worker: %v", err)
		}
	case <-worker.Done():
		log.Println("Worker exited")
	}
}
