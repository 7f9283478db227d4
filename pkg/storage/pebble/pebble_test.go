/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package pebble_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/hyperledger/aries-trust-core/internal/storageutil/storagetest"
	"github.com/hyperledger/aries-trust-core/pkg/storage/pebble"
	spi "github.com/hyperledger/aries-trust-core/spi/storage"
)

func TestProvider(t *testing.T) {
	provider, err := pebble.NewProvider(t.TempDir())
	require.NoError(t, err)

	t.Cleanup(func() {
		require.NoError(t, provider.Close())
	})

	storagetest.TestAll(t, provider)
}

func TestPrefixIsolation(t *testing.T) {
	provider, err := pebble.NewProvider(t.TempDir())
	require.NoError(t, err)

	defer func() { require.NoError(t, provider.Close()) }()

	short, err := provider.OpenStore("ab")
	require.NoError(t, err)

	long, err := provider.OpenStore("abc")
	require.NoError(t, err)

	require.NoError(t, long.Put("k", []byte("v"), spi.Tag{Name: "kind"}))

	iter, err := short.Query("kind")
	require.NoError(t, err)

	ok, err := iter.Next()
	require.NoError(t, err)
	require.False(t, ok)
}
