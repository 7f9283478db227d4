/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package keyutil_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/hyperledger/aries-trust-core/pkg/kms"
	"github.com/hyperledger/aries-trust-core/pkg/kms/keyutil"
)

func TestSignVerify(t *testing.T) {
	for _, kt := range []kms.KeyType{kms.ED25519Type, kms.ECDSASecp256k1TypeDER, kms.ECDSAP256TypeDER} {
		kt := kt

		t.Run(string(kt), func(t *testing.T) {
			priv, pub, err := keyutil.Generate(kt)
			require.NoError(t, err)

			derived, err := keyutil.PublicKey(kt, priv)
			require.NoError(t, err)
			require.Equal(t, pub, derived)

			msg := []byte("canonical payload")

			sig, err := keyutil.Sign(kt, priv, msg)
			require.NoError(t, err)
			require.NoError(t, keyutil.Verify(kt, pub, msg, sig))

			require.Error(t, keyutil.Verify(kt, pub, []byte("other payload"), sig))

			_, otherPub, err := keyutil.Generate(kt)
			require.NoError(t, err)
			require.Error(t, keyutil.Verify(kt, otherPub, msg, sig))
		})
	}
}

func TestUnsupported(t *testing.T) {
	_, _, err := keyutil.Generate("RSA")
	require.ErrorIs(t, err, keyutil.ErrUnsupportedKeyType)

	_, err = keyutil.Sign("RSA", nil, nil)
	require.ErrorIs(t, err, keyutil.ErrUnsupportedKeyType)

	require.ErrorIs(t, keyutil.Verify("RSA", nil, nil, nil), keyutil.ErrUnsupportedKeyType)

	_, err = keyutil.ParseP256PublicKey([]byte{1, 2, 3})
	require.Error(t, err)
}
