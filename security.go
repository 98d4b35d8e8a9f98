// Copyright 2018 The go-zeromq Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package obelisk

import (
	"fmt"

	"github.com/destiny/zmq4/v25"
	"github.com/destiny/zmq4/v25/security/curve"
	"github.com/destiny/zmq4/v25/z85"
)

// GenerateCURVEKeys generates a new CURVE key pair for the secure channel
func GenerateCURVEKeys() (*curve.KeyPair, error) {
	return curve.GenerateKeyPair()
}

// LoadCURVEKeysFromZ85 loads CURVE keys from Z85-encoded strings
func LoadCURVEKeysFromZ85(publicZ85, secretZ85 string) (*curve.KeyPair, error) {
	return curve.NewKeyPairFromZ85(publicZ85, secretZ85)
}

// WorkerSecurity builds the CURVE client mechanism a secure query worker
// dials with, from the configured worker keypair and service public key.
func WorkerSecurity(settings Settings) (zmq4.Security, error) {
	if settings.WorkerPublicKey == "" || settings.WorkerSecretKey == "" {
		return nil, fmt.Errorf("obelisk: worker keys required for secure channel")
	}
	if settings.ServerPublicKey == "" {
		return nil, fmt.Errorf("obelisk: server public key required for secure channel")
	}

	workerKeys, err := curve.NewKeyPairFromZ85(settings.WorkerPublicKey,
		settings.WorkerSecretKey)
	if err != nil {
		return nil, fmt.Errorf("obelisk: invalid worker keys: %w", err)
	}

	serverKeys, err := serverPublicKey(settings.ServerPublicKey)
	if err != nil {
		return nil, err
	}

	return curve.NewClientSecurity(workerKeys, serverKeys), nil
}

// ServiceSecurity builds the CURVE server mechanism for the secure query
// service endpoints.
func ServiceSecurity(settings Settings) (zmq4.Security, error) {
	if settings.ServerPublicKey == "" || settings.ServerSecretKey == "" {
		return nil, fmt.Errorf("obelisk: server keys required for secure service")
	}

	serverKeys, err := curve.NewKeyPairFromZ85(settings.ServerPublicKey,
		settings.ServerSecretKey)
	if err != nil {
		return nil, fmt.Errorf("obelisk: invalid server keys: %w", err)
	}

	return curve.NewServerSecurity(serverKeys), nil
}

func serverPublicKey(publicZ85 string) ([curve.KeySize]byte, error) {
	var key [curve.KeySize]byte

	decoded, err := z85.DecodeString(publicZ85)
	if err != nil {
		return key, fmt.Errorf("obelisk: invalid server public key: %w", err)
	}
	if len(decoded) != curve.KeySize {
		return key, fmt.Errorf("obelisk: server public key must be %d bytes, got %d",
			curve.KeySize, len(decoded))
	}

	copy(key[:], decoded)
	return key, nil
}
