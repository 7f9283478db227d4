/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

// Package secretlock defines how private key material is wrapped before it is
// persisted by a key manager.
package secretlock

// Service seals and opens key material. keyID is bound to the ciphertext as
// additional authenticated data so a sealed key cannot be swapped under another ID.
type Service interface {
	Seal(keyID string, plaintext []byte) ([]byte, error)
	Open(keyID string, ciphertext []byte) ([]byte, error)
}
