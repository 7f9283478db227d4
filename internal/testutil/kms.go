/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

// Package testutil wires in-memory dependencies for package tests.
package testutil

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/hyperledger/aries-trust-core/pkg/kms/localkms"
	"github.com/hyperledger/aries-trust-core/pkg/secretlock"
	"github.com/hyperledger/aries-trust-core/pkg/secretlock/noop"
	"github.com/hyperledger/aries-trust-core/pkg/storage/mem"
	spi "github.com/hyperledger/aries-trust-core/spi/storage"
)

// Provider supplies storage and a secret lock.
type Provider struct {
	Storage spi.Provider
	Lock    secretlock.Service
}

// StorageProvider returns the storage provider.
func (p *Provider) StorageProvider() spi.Provider { return p.Storage }

// SecretLock returns the secret lock.
func (p *Provider) SecretLock() secretlock.Service { return p.Lock }

// NewProvider returns an in-memory provider with a noop lock.
func NewProvider() *Provider {
	return &Provider{Storage: mem.NewProvider(), Lock: noop.NoLock{}}
}

// NewKMS returns a local key manager over in-memory storage.
func NewKMS(t *testing.T) *localkms.LocalKMS {
	t.Helper()

	km, err := localkms.New(NewProvider())
	require.NoError(t, err)

	return km
}
