/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package suite_test

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/hyperledger/aries-trust-core/internal/testutil"
	"github.com/hyperledger/aries-trust-core/pkg/common/trusterr"
	"github.com/hyperledger/aries-trust-core/pkg/doc/signature/suite"
	"github.com/hyperledger/aries-trust-core/pkg/doc/signature/suite/ecdsasecp256k1signature2019"
	"github.com/hyperledger/aries-trust-core/pkg/doc/signature/suite/ed25519signature2020"
	"github.com/hyperledger/aries-trust-core/pkg/doc/signature/suite/jsonwebsignature2020"
	"github.com/hyperledger/aries-trust-core/pkg/kms"
)

func TestGenerateAndVerify(t *testing.T) {
	km := testutil.NewKMS(t)
	r := suite.NewDefaultRegistry()

	tests := []struct {
		name      string
		keyType   kms.KeyType
		suiteID   string
		wantSuite string
	}{
		{"ed25519 default", kms.ED25519Type, "", ed25519signature2020.SignatureType},
		{"secp256k1 default", kms.ECDSASecp256k1TypeDER, "", ecdsasecp256k1signature2019.SignatureType},
		{"p-256 default", kms.ECDSAP256TypeDER, "", jsonwebsignature2020.SignatureType},
		{"ed25519 jws", kms.ED25519Type, jsonwebsignature2020.SignatureType, jsonwebsignature2020.SignatureType},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			handle, err := km.Create(tc.keyType)
			require.NoError(t, err)

			pub, kt, err := km.PublicKey(handle.KeyID)
			require.NoError(t, err)

			data := []byte(`{"hello":"world"}`)

			p, err := r.Generate(data, km, handle, "did:example:1#"+handle.KeyID,
				suite.WithSuite(tc.suiteID), suite.WithChallenge("nonce"))
			require.NoError(t, err)
			require.Equal(t, tc.wantSuite, p.SuiteID)
			require.Equal(t, "nonce", p.Challenge)
			require.Equal(t, 0, p.Created.Nanosecond())

			require.NoError(t, r.Verify(data, p, pub, kt))

			err = r.Verify([]byte(`{"hello":"mallory"}`), p, pub, kt)
			require.True(t, errors.Is(err, trusterr.ErrInvalidProof))

			rebound := *p
			rebound.Challenge = "other"
			require.True(t, errors.Is(r.Verify(data, &rebound, pub, kt), trusterr.ErrInvalidProof))

			backdated := *p
			backdated.Created = p.Created.Add(-time.Hour)
			require.True(t, errors.Is(r.Verify(data, &backdated, pub, kt), trusterr.ErrInvalidProof))

			other, err := km.Create(tc.keyType)
			require.NoError(t, err)

			otherPub, _, err := km.PublicKey(other.KeyID)
			require.NoError(t, err)
			require.True(t, errors.Is(r.Verify(data, p, otherPub, kt), trusterr.ErrInvalidProof))
		})
	}
}

func TestRegistryErrors(t *testing.T) {
	km := testutil.NewKMS(t)
	r := suite.NewRegistry(ed25519signature2020.New())

	handle, err := km.Create(kms.ECDSAP256TypeDER)
	require.NoError(t, err)

	_, err = r.Generate([]byte("x"), km, handle, "did:example:1#k")
	require.Error(t, err)

	_, err = r.Generate([]byte("x"), km, handle, "did:example:1#k", suite.WithSuite(ed25519signature2020.SignatureType))
	require.Error(t, err)

	_, err = r.Get("RsaSignature2018")
	require.Error(t, err)

	r.Register(jsonwebsignature2020.New())
	r.Register(jsonwebsignature2020.New())

	p, err := r.Generate([]byte("x"), km, handle, "did:example:1#k")
	require.NoError(t, err)
	require.True(t, strings.Count(string(p.Signature), ".") == 2)

	_, err = r.Generate([]byte("x"), km, kms.KeyHandle{KeyID: "missing", Type: kms.ED25519Type}, "did:example:1#k")
	require.True(t, errors.Is(err, trusterr.ErrKeyNotFound))

	require.True(t, errors.Is(r.Verify([]byte("x"), nil, nil, kms.ED25519Type), trusterr.ErrInvalidProof))

	p.SuiteID = "Unknown2024"
	require.True(t, errors.Is(r.Verify([]byte("x"), p, nil, kms.ECDSAP256TypeDER), trusterr.ErrInvalidProof))
}
