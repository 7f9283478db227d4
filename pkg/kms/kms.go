/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

// Package kms defines the key manager contract. A key manager generates keys and
// signs with them; private key material never crosses this API.
package kms

// KeyType is a supported signing algorithm.
type KeyType string

// Supported key types. ECDSA signatures are ASN.1 DER over the SHA-256 digest.
const (
	ED25519Type           KeyType = "ED25519"
	ECDSASecp256k1TypeDER KeyType = "ECDSASecp256k1DER"
	ECDSAP256TypeDER      KeyType = "ECDSAP256DER"
)

// KeyHandle references a key held by a key manager.
type KeyHandle struct {
	KeyID string  `json:"keyId"`
	Type  KeyType `json:"type"`
}

// KeyManager creates keys and signs on their behalf. Unknown key IDs fail with
// an error of kind trusterr.KeyNotFound.
type KeyManager interface {
	Create(kt KeyType) (KeyHandle, error)
	Sign(keyID string, data []byte) ([]byte, error)
	// PublicKey returns the public key in its compact encoding: raw 32 bytes for
	// Ed25519, SEC1 compressed points for ECDSA.
	PublicKey(keyID string) ([]byte, KeyType, error)
}
