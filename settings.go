// Copyright 2018 The go-zeromq Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package obelisk

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Settings is the node configuration captured at worker construction. It
// is copied by value into workers and services: nothing re-reads it while
// a run loop is live.
type Settings struct {
	// Priority is the advisory scheduling priority of the query workers.
	Priority int `yaml:"priority"`

	// Verbose enables per-query info logging.
	Verbose bool `yaml:"verbose"`

	// PublicQueryEndpoint is the client-facing public query endpoint.
	PublicQueryEndpoint string `yaml:"public_query_endpoint"`

	// SecureQueryEndpoint is the client-facing CURVE query endpoint.
	SecureQueryEndpoint string `yaml:"secure_query_endpoint"`

	// PublicWorkerEndpoint is dialed by public query workers.
	PublicWorkerEndpoint string `yaml:"public_worker_endpoint"`

	// SecureWorkerEndpoint is dialed by secure query workers.
	SecureWorkerEndpoint string `yaml:"secure_worker_endpoint"`

	// Z85-encoded CURVE key material for the secure channel. The server
	// keys belong to the secure query service; workers and clients dial
	// with their own keypair plus the server public key.
	ServerPublicKey string `yaml:"server_public_key"`
	ServerSecretKey string `yaml:"server_secret_key"`
	WorkerPublicKey string `yaml:"worker_public_key"`
	WorkerSecretKey string `yaml:"worker_secret_key"`
}

// DefaultSettings returns the default node settings.
func DefaultSettings() Settings {
	return Settings{
		Priority:             0,
		Verbose:              false,
		PublicQueryEndpoint:  "tcp://127.0.0.1:9091",
		SecureQueryEndpoint:  "tcp://127.0.0.1:9081",
		PublicWorkerEndpoint: "tcp://127.0.0.1:9092",
		SecureWorkerEndpoint: "tcp://127.0.0.1:9082",
	}
}

// LoadSettings reads settings from a YAML file, applying defaults for
// absent keys.
func LoadSettings(path string) (Settings, error) {
	settings := DefaultSettings()

	data, err := os.ReadFile(path)
	if err != nil {
		return settings, fmt.Errorf("obelisk: failed to read settings: %w", err)
	}

	if err := yaml.Unmarshal(data, &settings); err != nil {
		return settings, fmt.Errorf("obelisk: failed to parse settings: %w", err)
	}

	if err := settings.Validate(); err != nil {
		return settings, err
	}
	return settings, nil
}

// Validate checks that the configured endpoints are usable.
func (s Settings) Validate() error {
	endpoints := map[string]string{
		"public_query_endpoint":  s.PublicQueryEndpoint,
		"secure_query_endpoint":  s.SecureQueryEndpoint,
		"public_worker_endpoint": s.PublicWorkerEndpoint,
		"secure_worker_endpoint": s.SecureWorkerEndpoint,
	}
	for name, endpoint := range endpoints {
		if endpoint == "" {
			return fmt.Errorf("obelisk: %s must not be empty", name)
		}
	}
	return nil
}

// WorkerEndpoint returns the query service endpoint a worker dials for
// the given channel.
func (s Settings) WorkerEndpoint(secure bool) string {
	if secure {
		return s.SecureWorkerEndpoint
	}
	return s.PublicWorkerEndpoint
}

// QueryEndpoint returns the client-facing endpoint for the given channel.
func (s Settings) QueryEndpoint(secure bool) string {
	if secure {
		return s.SecureQueryEndpoint
	}
	return s.PublicQueryEndpoint
}
