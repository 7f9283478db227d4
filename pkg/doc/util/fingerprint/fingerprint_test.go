/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package fingerprint_test

import (
	"crypto/ed25519"
	"strings"
	"testing"

	"github.com/btcsuite/btcutil/base58"
	"github.com/stretchr/testify/require"

	"github.com/hyperledger/aries-trust-core/pkg/doc/util/fingerprint"
	"github.com/hyperledger/aries-trust-core/pkg/kms"
)

func TestKeyFingerprint(t *testing.T) {
	// did:key ed25519 test vector
	pub := base58.Decode("B12NYF8RrR3h41TDCTJojY59usg3mbtbjnFs7Eud1Y6u")
	require.Len(t, pub, ed25519.PublicKeySize)

	fp, err := fingerprint.ForKey(kms.ED25519Type, pub)
	require.NoError(t, err)
	require.Equal(t, "z6MkpTHR8VNsBxYAAWHut2Geadd9jSwuBV8xRoAnwWsdvktH", fp)

	kt, decoded, err := fingerprint.PubKeyFromFingerprint(fp)
	require.NoError(t, err)
	require.Equal(t, kms.ED25519Type, kt)
	require.Equal(t, pub, decoded)
}

func TestRoundTripAllTypes(t *testing.T) {
	for _, kt := range []kms.KeyType{kms.ED25519Type, kms.ECDSASecp256k1TypeDER, kms.ECDSAP256TypeDER} {
		pub := []byte(strings.Repeat("k", 33))

		fp, err := fingerprint.ForKey(kt, pub)
		require.NoError(t, err)
		require.True(t, strings.HasPrefix(fp, "z"))

		gotType, gotPub, err := fingerprint.PubKeyFromFingerprint(fp)
		require.NoError(t, err)
		require.Equal(t, kt, gotType)
		require.Equal(t, pub, gotPub)
	}
}

func TestInvalidFingerprint(t *testing.T) {
	_, err := fingerprint.ForKey("RSA", []byte{1})
	require.Error(t, err)

	_, _, err = fingerprint.PubKeyFromFingerprint("!invalid")
	require.Error(t, err)

	// base64url multibase prefix
	_, _, err = fingerprint.PubKeyFromFingerprint("uAQID")
	require.Error(t, err)

	unknown, err := fingerprint.KeyFingerprint(0x99, []byte{1, 2})
	require.NoError(t, err)

	_, _, err = fingerprint.PubKeyFromFingerprint(unknown)
	require.Error(t, err)
}
