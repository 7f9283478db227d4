/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

// Package api holds the contract between the DID registry and DID method implementations.
package api

import (
	"context"
	"errors"

	"github.com/hyperledger/aries-trust-core/pkg/doc/did"
	"github.com/hyperledger/aries-trust-core/pkg/kms"
)

// ErrNotFound is returned when a DID resolver does not find the DID.
var ErrNotFound = errors.New("DID does not exist")

// ErrCreateNotSupported is returned by read-only methods.
var ErrCreateNotSupported = errors.New("DID method does not support create")

// VDR is a DID method: it derives documents from keys and resolves them.
type VDR interface {
	// Accept reports whether the VDR serves the DID method.
	Accept(method string) bool
	// Create derives a DID deterministically from a public key and returns its document.
	// keyID is the key manager's ID of the key, used as verification method fragment.
	Create(ctx context.Context, pubKey []byte, kt kms.KeyType, keyID string) (*did.Doc, error)
	// Read resolves a DID. A DID unknown to the method fails with ErrNotFound.
	Read(ctx context.Context, d did.DID) (*did.Doc, error)
}
