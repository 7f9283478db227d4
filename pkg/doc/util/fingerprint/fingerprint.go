/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

// Package fingerprint computes multicodec key fingerprints, the identifiers used by
// did:key and by the local key manager for key IDs.
package fingerprint

import (
	"encoding/binary"
	"errors"
	"fmt"

	"github.com/multiformats/go-multibase"

	"github.com/hyperledger/aries-trust-core/pkg/kms"
)

// Multicodec codes for public keys.
const (
	ED25519PubKeyMultiCodec   = 0xed
	Secp256k1PubKeyMultiCodec = 0xe7
	P256PubKeyMultiCodec      = 0x1200
)

// CodeForKeyType returns the multicodec code of a key type.
func CodeForKeyType(kt kms.KeyType) (uint64, error) {
	switch kt {
	case kms.ED25519Type:
		return ED25519PubKeyMultiCodec, nil
	case kms.ECDSASecp256k1TypeDER:
		return Secp256k1PubKeyMultiCodec, nil
	case kms.ECDSAP256TypeDER:
		return P256PubKeyMultiCodec, nil
	default:
		return 0, fmt.Errorf("no multicodec for key type %s", kt)
	}
}

// KeyTypeForCode is the inverse of CodeForKeyType.
func KeyTypeForCode(code uint64) (kms.KeyType, error) {
	switch code {
	case ED25519PubKeyMultiCodec:
		return kms.ED25519Type, nil
	case Secp256k1PubKeyMultiCodec:
		return kms.ECDSASecp256k1TypeDER, nil
	case P256PubKeyMultiCodec:
		return kms.ECDSAP256TypeDER, nil
	default:
		return "", fmt.Errorf("unsupported multicodec 0x%x", code)
	}
}

// KeyFingerprint returns the base58btc multibase encoding of varint(code) || pubKey.
func KeyFingerprint(code uint64, pubKey []byte) (string, error) {
	buf := make([]byte, binary.MaxVarintLen64)
	n := binary.PutUvarint(buf, code)

	return multibase.Encode(multibase.Base58BTC, append(buf[:n], pubKey...))
}

// ForKey returns the fingerprint of a public key of the given type.
func ForKey(kt kms.KeyType, pubKey []byte) (string, error) {
	code, err := CodeForKeyType(kt)
	if err != nil {
		return "", err
	}

	return KeyFingerprint(code, pubKey)
}

// PubKeyFromFingerprint decodes a fingerprint into its key type and public key.
func PubKeyFromFingerprint(fp string) (kms.KeyType, []byte, error) {
	enc, data, err := multibase.Decode(fp)
	if err != nil {
		return "", nil, fmt.Errorf("decode fingerprint: %w", err)
	}

	if enc != multibase.Base58BTC {
		return "", nil, errors.New("fingerprint is not base58btc encoded")
	}

	code, n := binary.Uvarint(data)
	if n <= 0 {
		return "", nil, errors.New("invalid multicodec prefix")
	}

	kt, err := KeyTypeForCode(code)
	if err != nil {
		return "", nil, err
	}

	pub := data[n:]
	if len(pub) == 0 {
		return "", nil, errors.New("fingerprint carries no key")
	}

	return kt, pub, nil
}
