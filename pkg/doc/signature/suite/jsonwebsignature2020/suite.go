/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

// Package jsonwebsignature2020 implements the JsonWebSignature2020 signature suite.
// Signatures are detached compact JWS (EdDSA or ES256) over the proof signing input.
package jsonwebsignature2020

import (
	"crypto/ed25519"
	"encoding/asn1"
	"errors"
	"fmt"
	"math/big"

	"github.com/go-jose/go-jose/v3"

	"github.com/hyperledger/aries-trust-core/pkg/kms"
	"github.com/hyperledger/aries-trust-core/pkg/kms/keyutil"
)

// SignatureType is the JsonWebSignature2020 type.
const SignatureType = "JsonWebSignature2020"

const p256CoordSize = 32

// Suite implements jsonWebSignature2020 signature suite.
type Suite struct{}

// New an instance of JsonWebSignature2020 signature suite.
func New() *Suite {
	return &Suite{}
}

// ID returns the suite identifier.
func (s *Suite) ID() string {
	return SignatureType
}

// Accept reports whether the suite signs with keys of type kt.
func (s *Suite) Accept(kt kms.KeyType) bool {
	_, err := algFor(kt)

	return err == nil
}

// Sign returns the detached compact JWS of data signed by the key manager's key.
func (s *Suite) Sign(km kms.KeyManager, keyID string, data []byte) ([]byte, error) {
	pub, kt, err := km.PublicKey(keyID)
	if err != nil {
		return nil, err
	}

	alg, err := algFor(kt)
	if err != nil {
		return nil, err
	}

	jwk, err := publicJWK(kt, pub)
	if err != nil {
		return nil, err
	}

	signer, err := jose.NewSigner(jose.SigningKey{
		Algorithm: alg,
		Key:       &kmsSigner{km: km, keyID: keyID, kt: kt, alg: alg, public: jwk},
	}, (&jose.SignerOptions{}).WithHeader(jose.HeaderKey("kid"), keyID))
	if err != nil {
		return nil, fmt.Errorf("create jws signer: %w", err)
	}

	jws, err := signer.Sign(data)
	if err != nil {
		return nil, fmt.Errorf("sign jws: %w", err)
	}

	compact, err := jws.DetachedCompactSerialize()
	if err != nil {
		return nil, fmt.Errorf("serialize jws: %w", err)
	}

	return []byte(compact), nil
}

// Verify checks a detached compact JWS over data.
func (s *Suite) Verify(pubKey []byte, kt kms.KeyType, data, signature []byte) error {
	alg, err := algFor(kt)
	if err != nil {
		return err
	}

	jws, err := jose.ParseDetached(string(signature), data)
	if err != nil {
		return fmt.Errorf("parse jws: %w", err)
	}

	if len(jws.Signatures) != 1 || jws.Signatures[0].Header.Algorithm != string(alg) {
		return fmt.Errorf("jws: expected a single %s signature", alg)
	}

	jwk, err := publicJWK(kt, pubKey)
	if err != nil {
		return err
	}

	if _, err := jws.Verify(jwk.Key); err != nil {
		return fmt.Errorf("verify jws: %w", err)
	}

	return nil
}

func algFor(kt kms.KeyType) (jose.SignatureAlgorithm, error) {
	switch kt {
	case kms.ED25519Type:
		return jose.EdDSA, nil
	case kms.ECDSAP256TypeDER:
		return jose.ES256, nil
	default:
		return "", fmt.Errorf("%s: unsupported key type %s", SignatureType, kt)
	}
}

func publicJWK(kt kms.KeyType, pub []byte) (*jose.JSONWebKey, error) {
	switch kt {
	case kms.ED25519Type:
		if len(pub) != ed25519.PublicKeySize {
			return nil, errors.New("invalid ed25519 public key size")
		}

		return &jose.JSONWebKey{Key: ed25519.PublicKey(pub)}, nil
	case kms.ECDSAP256TypeDER:
		pk, err := keyutil.ParseP256PublicKey(pub)
		if err != nil {
			return nil, err
		}

		return &jose.JSONWebKey{Key: pk}, nil
	default:
		return nil, fmt.Errorf("%s: unsupported key type %s", SignatureType, kt)
	}
}

// kmsSigner is a jose.OpaqueSigner delegating to a key manager.
type kmsSigner struct {
	km     kms.KeyManager
	keyID  string
	kt     kms.KeyType
	alg    jose.SignatureAlgorithm
	public *jose.JSONWebKey
}

func (k *kmsSigner) Public() *jose.JSONWebKey {
	return k.public
}

func (k *kmsSigner) Algs() []jose.SignatureAlgorithm {
	return []jose.SignatureAlgorithm{k.alg}
}

func (k *kmsSigner) SignPayload(payload []byte, alg jose.SignatureAlgorithm) ([]byte, error) {
	if alg != k.alg {
		return nil, fmt.Errorf("unexpected jws algorithm %s", alg)
	}

	sig, err := k.km.Sign(k.keyID, payload)
	if err != nil {
		return nil, err
	}

	if k.kt == kms.ECDSAP256TypeDER {
		return derToConcat(sig)
	}

	return sig, nil
}

type ecdsaSignature struct {
	R, S *big.Int
}

// derToConcat converts an ASN.1 ECDSA signature to the JWS r||s form.
func derToConcat(der []byte) ([]byte, error) {
	sig := &ecdsaSignature{}

	rest, err := asn1.Unmarshal(der, sig)
	if err != nil {
		return nil, fmt.Errorf("parse ecdsa signature: %w", err)
	}

	if len(rest) != 0 {
		return nil, errors.New("parse ecdsa signature: trailing data")
	}

	out := make([]byte, 2*p256CoordSize)
	sig.R.FillBytes(out[:p256CoordSize])
	sig.S.FillBytes(out[p256CoordSize:])

	return out, nil
}
