/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

// Package key implements the stateless did:key method.
package key

import (
	"context"
	"fmt"

	"github.com/hyperledger/aries-trust-core/pkg/doc/did"
	"github.com/hyperledger/aries-trust-core/pkg/doc/util/fingerprint"
	"github.com/hyperledger/aries-trust-core/pkg/kms"
	"github.com/hyperledger/aries-trust-core/pkg/vdr/api"
)

// DIDMethod did method.
const DIDMethod = "key"

// VDR implements did:key method support. The document is a pure function of the
// identifier, so nothing is stored.
type VDR struct{}

// New returns new instance of VDR that works with did:key method.
func New() *VDR {
	return &VDR{}
}

// Accept accepts did:key method.
func (v *VDR) Accept(method string) bool {
	return method == DIDMethod
}

// Create derives did:key:<fingerprint>. The verification method fragment is the
// fingerprint itself, which is also the key ID assigned by the key managers.
func (v *VDR) Create(_ context.Context, pubKey []byte, kt kms.KeyType, _ string) (*did.Doc, error) {
	fp, err := fingerprint.ForKey(kt, pubKey)
	if err != nil {
		return nil, fmt.Errorf("did:key: %w", err)
	}

	return createDIDDocument(fp, kt, pubKey)
}

// Read expands a did:key into its document.
func (v *VDR) Read(_ context.Context, d did.DID) (*did.Doc, error) {
	if d.Method != DIDMethod {
		return nil, fmt.Errorf("vdr Read: invalid did:key method: %s", d.Method)
	}

	kt, pubKey, err := fingerprint.PubKeyFromFingerprint(d.MethodSpecificID)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", api.ErrNotFound, err.Error())
	}

	return createDIDDocument(d.MethodSpecificID, kt, pubKey)
}

func createDIDDocument(fp string, kt kms.KeyType, pubKey []byte) (*did.Doc, error) {
	didKey := "did:key:" + fp

	vm, err := did.NewVerificationMethod(didKey+"#"+fp, didKey, kt, pubKey)
	if err != nil {
		return nil, err
	}

	return did.NewDoc(didKey, *vm), nil
}
