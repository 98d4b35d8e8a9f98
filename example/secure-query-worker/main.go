// Copyright 2018 The go-zeromq Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Example secure query worker dialing a CURVE query service
package main

import (
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/destiny/obelisk"
)

func main() {
	settingsPath := flag.String("settings", "", "path to YAML settings file")
	generate := flag.Bool("generate-keys", false, "print a fresh CURVE keypair and exit")
	flag.Parse()

	if *generate {
		keys, err := obelisk.GenerateCURVEKeys()
		if err != nil {
			log.Fatalf("Failed to generate keys: %v", err)
		}
		public, _ := keys.PublicKeyZ85()
		secret, _ := keys.SecretKeyZ85()
		log.Printf("public: %s", public)
		log.Printf("secret: %s", secret)
		return
	}

	if *settingsPath == "" {
		log.Fatalf("Usage: %s -settings <file> (key material is required)", os.Args[0])
	}

	settings, err := obelisk.LoadSettings(*settingsPath)
	if err != nil {
		log.Fatalf("Failed to load settings: %v", err)
	}

	security, err := obelisk.WorkerSecurity(settings)
	if err != nil {
		log.Fatalf("Failed to build CURVE security: %v", err)
	}

	iface := obelisk.Interface{
		Protocol: obelisk.ProtocolHandlers{
			TotalConnections: func(request *obelisk.Message, send obelisk.Sender) {
				send(request.Reply(make([]byte, 8)))
			},
		},
	}

	options := obelisk.DefaultWorkerOptions()
	options.Security = security

	worker := obelisk.NewQueryWorker(settings, iface, true, options)
	if err := worker.Start(); err != nil {
		log.Fatalf("Failed to start secure worker: %v", err)
	}

	log.Printf("Secure query worker dialing %s", settings.WorkerEndpoint(true))

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
