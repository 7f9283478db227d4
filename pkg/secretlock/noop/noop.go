/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

// Package noop provides a secret lock that stores key material unencrypted.
// It is meant for tests and ephemeral in-memory deployments.
package noop

// NoLock returns its input unchanged.
type NoLock struct{}

// Seal returns a copy of plaintext.
func (NoLock) Seal(_ string, plaintext []byte) ([]byte, error) {
	return append([]byte(nil), plaintext...), nil
}

// Open returns a copy of ciphertext.
func (NoLock) Open(_ string, ciphertext []byte) ([]byte, error) {
	return append([]byte(nil), ciphertext...), nil
}
