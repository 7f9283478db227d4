/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package awskms

import (
	"context"
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"crypto/x509"
	"errors"
	"strings"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/kms"
	"github.com/aws/aws-sdk-go-v2/service/kms/types"
	"github.com/golang/mock/gomock"
	"github.com/stretchr/testify/require"

	"github.com/hyperledger/aries-trust-core/pkg/common/trusterr"
	kmsapi "github.com/hyperledger/aries-trust-core/pkg/kms"
	"github.com/hyperledger/aries-trust-core/pkg/kms/keyutil"
)

func TestCreateSignVerify(t *testing.T) {
	sk, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	require.NoError(t, err)

	spki, err := x509.MarshalPKIXPublicKey(&sk.PublicKey)
	require.NoError(t, err)

	client := NewMockawsClient(gomock.NewController(t))

	client.EXPECT().CreateKey(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, in *kms.CreateKeyInput, _ ...func(*kms.Options)) (*kms.CreateKeyOutput, error) {
			require.Equal(t, types.KeySpecEccNistP256, in.KeySpec)

			return &kms.CreateKeyOutput{KeyMetadata: &types.KeyMetadata{KeyId: aws.String("aws-key-1")}}, nil
		})
	client.EXPECT().GetPublicKey(gomock.Any(), gomock.Any()).
		Return(&kms.GetPublicKeyOutput{PublicKey: spki}, nil)

	var alias string

	client.EXPECT().CreateAlias(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, in *kms.CreateAliasInput, _ ...func(*kms.Options)) (*kms.CreateAliasOutput, error) {
			alias = *in.AliasName
			require.Equal(t, "aws-key-1", *in.TargetKeyId)

			return &kms.CreateAliasOutput{}, nil
		})
	client.EXPECT().Sign(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, in *kms.SignInput, _ ...func(*kms.Options)) (*kms.SignOutput, error) {
			require.Equal(t, alias, *in.KeyId)
			require.Equal(t, types.MessageTypeDigest, in.MessageType)

			sig, err := ecdsa.SignASN1(rand.Reader, sk, in.Message)
			require.NoError(t, err)

			return &kms.SignOutput{Signature: sig}, nil
		})

	svc := New(nil, WithAWSClient(client), WithAliasPrefix("test"))

	handle, err := svc.Create(kmsapi.ECDSAP256TypeDER)
	require.NoError(t, err)
	require.True(t, strings.HasPrefix(alias, "alias/test/z"))
	require.Equal(t, "alias/test/"+handle.KeyID, alias)

	// served from the cache, no second GetPublicKey call
	pub, kt, err := svc.PublicKey(handle.KeyID)
	require.NoError(t, err)
	require.Equal(t, kmsapi.ECDSAP256TypeDER, kt)

	sig, err := svc.Sign(handle.KeyID, []byte("payload"))
	require.NoError(t, err)
	require.NoError(t, keyutil.Verify(kt, pub, []byte("payload"), sig))
}

func TestUnsupportedKeyType(t *testing.T) {
	svc := New(nil, WithAWSClient(NewMockawsClient(gomock.NewController(t))))

	_, err := svc.Create(kmsapi.ED25519Type)
	require.Error(t, err)
}

func TestKeyNotFound(t *testing.T) {
	client := NewMockawsClient(gomock.NewController(t))
	client.EXPECT().Sign(gomock.Any(), gomock.Any()).
		Return(nil, &types.NotFoundException{Message: aws.String("alias not found")})
	client.EXPECT().GetPublicKey(gomock.Any(), gomock.Any()).
		Return(nil, &types.NotFoundException{Message: aws.String("alias not found")})

	svc := New(nil, WithAWSClient(client))

	_, err := svc.Sign("zMissing", []byte("payload"))
	require.ErrorIs(t, err, trusterr.ErrKeyNotFound)

	_, _, err = svc.PublicKey("zMissing")
	require.ErrorIs(t, err, trusterr.ErrKeyNotFound)
}

func TestCreateErrors(t *testing.T) {
	client := NewMockawsClient(gomock.NewController(t))
	client.EXPECT().CreateKey(gomock.Any(), gomock.Any()).Return(nil, errors.New("throttled"))

	svc := New(nil, WithAWSClient(client))

	_, err := svc.Create(kmsapi.ECDSAP256TypeDER)
	require.ErrorContains(t, err, "throttled")
}
