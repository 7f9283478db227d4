/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

// Package hkdf provides a secret lock keyed by a passphrase expanded with HKDF.
package hkdf

import (
	"crypto/sha256"
	"errors"
	"fmt"
	"hash"
	"io"

	"github.com/google/tink/go/aead/subtle"
	"golang.org/x/crypto/hkdf"
)

// MasterLock seals key material with AES-GCM under a key derived from a passphrase.
type MasterLock struct {
	aead *subtle.AESGCM
}

// NewMasterLock derives the AES key from passphrase using HKDF with hash h and an
// optional salt. The hash output size must be 16 or 32 bytes.
func NewMasterLock(passphrase string, h func() hash.Hash, salt []byte) (*MasterLock, error) {
	if passphrase == "" {
		return nil, errors.New("passphrase is empty")
	}

	if h == nil {
		h = sha256.New
	}

	size := h().Size()
	if size > sha256.Size {
		return nil, errors.New("hash size not supported")
	}

	masterKey := make([]byte, size)

	if _, err := io.ReadFull(hkdf.New(h, []byte(passphrase), salt, nil), masterKey); err != nil {
		return nil, fmt.Errorf("expand master key: %w", err)
	}

	aead, err := subtle.NewAESGCM(masterKey)
	if err != nil {
		return nil, fmt.Errorf("create AES-GCM: %w", err)
	}

	return &MasterLock{aead: aead}, nil
}

// Seal encrypts plaintext. The random nonce is prepended to the ciphertext.
func (m *MasterLock) Seal(keyID string, plaintext []byte) ([]byte, error) {
	return m.aead.Encrypt(plaintext, []byte(keyID))
}

// Open decrypts ciphertext produced by Seal for the same keyID.
func (m *MasterLock) Open(keyID string, ciphertext []byte) ([]byte, error) {
	pt, err := m.aead.Decrypt(ciphertext, []byte(keyID))
	if err != nil {
		return nil, fmt.Errorf("open sealed key %s: %w", keyID, err)
	}

	return pt, nil
}
