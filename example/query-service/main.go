// Copyright 2018 The go-zeromq Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Example query service relay (public and secure channels)
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
	secure := flag.Bool("secure", false, "also run the CURVE-secured channel")
	flag.Parse()

	settings := obelisk.DefaultSettings()
	if *settingsPath != "" {
		var err error
		settings, err = obelisk.LoadSettings(*settingsPath)
		if err != nil {
			log.Fatalf("Failed to load settings: %v", err)
		}
	}

	public := obelisk.NewQueryService(settings, false, nil)
	if err := public.Start(); err != nil {
		log.Fatalf("Failed to start public query service: %v", err)
	}
	log.Printf("Public query service on %s", settings.QueryEndpoint(false))

	var secureService *obelisk.QueryService
	if *secure {
		security, err := obelisk.ServiceSecurity(settings)
		if err != nil {
			log.Fatalf("Failed to build CURVE security: %v", err)
		}

		options := obelisk.DefaultServiceOptions()
		options.Security = security

		secureService = obelisk.NewQueryService(settings, true, options)
		if err := secureService.Start(); err != nil {
			log.Fatalf("Failed to start secure query service: %v", err)
		}
		log.Printf("Secure query service on %s", settings.QueryEndpoint(true))
	}

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh

	log.Println("Shutting down...")
	if err := public.Stop(); err != nil {
		log.Printf("Failed to stop public query service: %v", err)
	}
	if secureService != nil {
		if err := secureService.Stop(); err != nil {
			log.Printf("Failed to stop secure query service: %v", err)
		}
	}
}
