/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

// Package ecdsasecp256k1signature2019 implements the EcdsaSecp256k1Signature2019
// signature suite: ECDSA over secp256k1 with SHA-256, DER encoded signatures.
package ecdsasecp256k1signature2019

import (
	"fmt"

	"github.com/hyperledger/aries-trust-core/pkg/kms"
	"github.com/hyperledger/aries-trust-core/pkg/kms/keyutil"
)

// SignatureType is the signature type for secp256k1 keys.
const SignatureType = "EcdsaSecp256k1Signature2019"

// Suite implements EcdsaSecp256k1Signature2019 signature suite.
type Suite struct{}

// New an instance of EcdsaSecp256k1Signature2019 signature suite.
func New() *Suite {
	return &Suite{}
}

// ID returns the suite identifier.
func (s *Suite) ID() string {
	return SignatureType
}

// Accept reports whether the suite signs with keys of type kt.
func (s *Suite) Accept(kt kms.KeyType) bool {
	return kt == kms.ECDSASecp256k1TypeDER
}

// Sign signs data with the key manager's key. The key manager hashes with SHA-256.
func (s *Suite) Sign(km kms.KeyManager, keyID string, data []byte) ([]byte, error) {
	return km.Sign(keyID, data)
}

// Verify checks a DER encoded secp256k1 signature.
func (s *Suite) Verify(pubKey []byte, kt kms.KeyType, data, signature []byte) error {
	if !s.Accept(kt) {
		return fmt.Errorf("%s: unsupported key type %s", SignatureType, kt)
	}

	return keyutil.Verify(kt, pubKey, data, signature)
}
