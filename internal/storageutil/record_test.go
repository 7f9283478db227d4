/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package storageutil

import (
	"testing"

	"github.com/stretchr/testify/require"

	spi "github.com/hyperledger/aries-trust-core/spi/storage"
)

func TestRecordCodec(t *testing.T) {
	data, err := EncodeRecord([]byte{0, 1, 2}, []spi.Tag{{Name: "type", Value: "vc"}})
	require.NoError(t, err)

	rec, err := DecodeRecord(data)
	require.NoError(t, err)
	require.Equal(t, []byte{0, 1, 2}, rec.Value)
	require.Equal(t, []spi.Tag{{Name: "type", Value: "vc"}}, rec.Tags)

	_, err = DecodeRecord([]byte{0xc1})
	require.Error(t, err)
}

func TestSliceIterator(t *testing.T) {
	iter := NewSliceIterator([]spi.Entry{{Key: "a", Value: []byte("1")}})

	_, err := iter.Key()
	require.Error(t, err)

	ok, err := iter.Next()
	require.NoError(t, err)
	require.True(t, ok)

	key, err := iter.Key()
	require.NoError(t, err)
	require.Equal(t, "a", key)

	ok, err = iter.Next()
	require.NoError(t, err)
	require.False(t, ok)

	_, err = iter.Value()
	require.Error(t, err)
	require.NoError(t, iter.Close())
}
