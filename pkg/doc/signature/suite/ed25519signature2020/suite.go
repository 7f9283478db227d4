/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

// Package ed25519signature2020 implements the Ed25519Signature2020 signature suite.
// The suite signs the proof signing input directly with Ed25519.
package ed25519signature2020

import (
	"fmt"

	"github.com/hyperledger/aries-trust-core/pkg/kms"
	"github.com/hyperledger/aries-trust-core/pkg/kms/keyutil"
)

// SignatureType is the signature type for ed25519 keys.
const SignatureType = "Ed25519Signature2020"

// Suite implements ed25519 signature suite.
type Suite struct{}

// New an instance of ed25519 signature suite.
func New() *Suite {
	return &Suite{}
}

// ID returns the suite identifier.
func (s *Suite) ID() string {
	return SignatureType
}

// Accept reports whether the suite signs with keys of type kt.
func (s *Suite) Accept(kt kms.KeyType) bool {
	return kt == kms.ED25519Type
}

// Sign signs data with the key manager's key.
func (s *Suite) Sign(km kms.KeyManager, keyID string, data []byte) ([]byte, error) {
	return km.Sign(keyID, data)
}

// Verify checks an Ed25519 signature.
func (s *Suite) Verify(pubKey []byte, kt kms.KeyType, data, signature []byte) error {
	if !s.Accept(kt) {
		return fmt.Errorf("%s: unsupported key type %s", SignatureType, kt)
	}

	return keyutil.Verify(kt, pubKey, data, signature)
}
