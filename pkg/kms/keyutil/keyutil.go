/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

// Package keyutil implements key generation, signing and verification for the
// supported key types.
package keyutil

import (
	"crypto/ecdsa"
	"crypto/ed25519"
	"crypto/elliptic"
	"crypto/rand"
	"crypto/sha256"
	"errors"
	"fmt"
	"math/big"

	"github.com/decred/dcrd/dcrec/secp256k1/v4"
	secpecdsa "github.com/decred/dcrd/dcrec/secp256k1/v4/ecdsa"

	"github.com/hyperledger/aries-trust-core/pkg/kms"
)

const p256KeySize = 32

// ErrUnsupportedKeyType is returned for key types without an implementation.
var ErrUnsupportedKeyType = errors.New("unsupported key type")

// Generate creates a key pair and returns the private scalar or seed together
// with the compact public key.
func Generate(kt kms.KeyType) (priv, pub []byte, err error) {
	switch kt {
	case kms.ED25519Type:
		pk, sk, err := ed25519.GenerateKey(rand.Reader)
		if err != nil {
			return nil, nil, err
		}

		return sk.Seed(), pk, nil
	case kms.ECDSASecp256k1TypeDER:
		sk, err := secp256k1.GeneratePrivateKey()
		if err != nil {
			return nil, nil, err
		}

		return sk.Serialize(), sk.PubKey().SerializeCompressed(), nil
	case kms.ECDSAP256TypeDER:
		sk, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
		if err != nil {
			return nil, nil, err
		}

		return sk.D.FillBytes(make([]byte, p256KeySize)), elliptic.MarshalCompressed(elliptic.P256(), sk.X, sk.Y), nil
	default:
		return nil, nil, fmt.Errorf("%w: %s", ErrUnsupportedKeyType, kt)
	}
}

// Sign signs msg with the private key produced by Generate.
func Sign(kt kms.KeyType, priv, msg []byte) ([]byte, error) {
	switch kt {
	case kms.ED25519Type:
		if len(priv) != ed25519.SeedSize {
			return nil, errors.New("invalid ed25519 seed size")
		}

		return ed25519.Sign(ed25519.NewKeyFromSeed(priv), msg), nil
	case kms.ECDSASecp256k1TypeDER:
		digest := sha256.Sum256(msg)

		return secpecdsa.Sign(secp256k1.PrivKeyFromBytes(priv), digest[:]).Serialize(), nil
	case kms.ECDSAP256TypeDER:
		sk, err := p256PrivateKey(priv)
		if err != nil {
			return nil, err
		}

		digest := sha256.Sum256(msg)

		return ecdsa.SignASN1(rand.Reader, sk, digest[:])
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedKeyType, kt)
	}
}

// PublicKey recomputes the compact public key of a private key.
func PublicKey(kt kms.KeyType, priv []byte) ([]byte, error) {
	switch kt {
	case kms.ED25519Type:
		if len(priv) != ed25519.SeedSize {
			return nil, errors.New("invalid ed25519 seed size")
		}

		pub, _ := ed25519.NewKeyFromSeed(priv).Public().(ed25519.PublicKey)

		return pub, nil
	case kms.ECDSASecp256k1TypeDER:
		return secp256k1.PrivKeyFromBytes(priv).PubKey().SerializeCompressed(), nil
	case kms.ECDSAP256TypeDER:
		sk, err := p256PrivateKey(priv)
		if err != nil {
			return nil, err
		}

		return elliptic.MarshalCompressed(elliptic.P256(), sk.X, sk.Y), nil
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedKeyType, kt)
	}
}

// Verify checks sig over msg. It returns an error describing why verification failed.
func Verify(kt kms.KeyType, pub, msg, sig []byte) error {
	switch kt {
	case kms.ED25519Type:
		if len(pub) != ed25519.PublicKeySize {
			return errors.New("invalid ed25519 public key size")
		}

		if !ed25519.Verify(pub, msg, sig) {
			return errors.New("ed25519: invalid signature")
		}

		return nil
	case kms.ECDSASecp256k1TypeDER:
		pk, err := secp256k1.ParsePubKey(pub)
		if err != nil {
			return fmt.Errorf("secp256k1 public key: %w", err)
		}

		parsed, err := secpecdsa.ParseDERSignature(sig)
		if err != nil {
			return fmt.Errorf("secp256k1 signature: %w", err)
		}

		digest := sha256.Sum256(msg)

		if !parsed.Verify(digest[:], pk) {
			return errors.New("secp256k1: invalid signature")
		}

		return nil
	case kms.ECDSAP256TypeDER:
		pk, err := ParseP256PublicKey(pub)
		if err != nil {
			return err
		}

		digest := sha256.Sum256(msg)

		if !ecdsa.VerifyASN1(pk, digest[:], sig) {
			return errors.New("p-256: invalid signature")
		}

		return nil
	default:
		return fmt.Errorf("%w: %s", ErrUnsupportedKeyType, kt)
	}
}

// ParseP256PublicKey decodes a compressed or uncompressed P-256 point.
func ParseP256PublicKey(pub []byte) (*ecdsa.PublicKey, error) {
	curve := elliptic.P256()

	x, y := elliptic.UnmarshalCompressed(curve, pub)
	if x == nil {
		x, y = elliptic.Unmarshal(curve, pub) //nolint:staticcheck
	}

	if x == nil {
		return nil, errors.New("invalid p-256 public key")
	}

	return &ecdsa.PublicKey{Curve: curve, X: x, Y: y}, nil
}

func p256PrivateKey(priv []byte) (*ecdsa.PrivateKey, error) {
	if len(priv) != p256KeySize {
		return nil, errors.New("invalid p-256 private key size")
	}

	curve := elliptic.P256()
	sk := &ecdsa.PrivateKey{D: new(big.Int).SetBytes(priv)}
	sk.Curve = curve
	sk.X, sk.Y = curve.ScalarBaseMult(priv)

	return sk, nil
}
