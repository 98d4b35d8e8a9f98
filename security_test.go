// Copyright 2018 The go-zeromq Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package obelisk

import (
	"testing"
)

func TestCURVEKeyRoundTrip(t *testing.T) {
	keys, err := GenerateCURVEKeys()
	if err != nil {
		t.Fatalf("failed to generate keys: %v", err)
	}

	publicZ85, err := keys.PublicKeyZ85()
	if err != nil {
		t.Fatalf("failed to encode public key: %v", err)
	}
	secretZ85, err := keys.SecretKeyZ85()
	if err != nil {
		t.Fatalf("failed to encode secret key: %v", err)
	}

	loaded, err := LoadCURVEKeysFromZ85(publicZ85, secretZ85)
	if err != nil {
		t.Fatalf("failed to load keys: %v", err)
	}

	if loaded.Public != keys.Public || loaded.Secret != keys.Secret {
		t.Error("loaded keys don't match originals")
	}
}

func TestWorkerSecurity(t *testing.T) {
	serverKeys, err := GenerateCURVEKeys()
	if err != nil {
		t.Fatalf("failed to generate server keys: %v", err)
	}
	workerKeys, err := GenerateCURVEKeys()
	if err != nil {
		t.Fatalf("failed to generate worker keys: %v", err)
	}

	settings := DefaultSettings()

	// Keys absent: the secure channel must refuse to build.
	if _, err := WorkerSecurity(settings); err == nil {
		t.Error("worker security built without keys")
	}
	if _, err := ServiceSecurity(settings); err == nil {
		t.Error("service security built without keys")
	}

	settings.ServerPublicKey, _ = serverKeys.PublicKeyZ85()
	settings.ServerSecretKey, _ = serverKeys.SecretKeyZ85()
	settings.WorkerPublicKey, _ = workerKeys.PublicKeyZ85()
	settings.WorkerSecretKey, _ = workerKeys.SecretKeyZ85()

	if _, err := WorkerSecurity(settings); err != nil {
		t.Errorf("worker security failed: %v", err)
	}
	if _, err := ServiceSecurity(settings); err != nil {
		t.Errorf("service security failed: %v", err)
	}
}

func TestWorkerSecurityBadKeys(t *testing.T) {
	settings := DefaultSettings()
	settings.ServerPublicKey = "not-z85!"
	settings.WorkerPublicKey = "also-bad"
	settings.WorkerSecretKey = "still-bad"

	if _, err := WorkerSecurity(settings); err == nil {
		t.Error("worker security accepted malformed keys")
	}
}
