/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

// Package storagetest runs the common behaviour checks every storage backend must pass.
package storagetest

import (
	"errors"
	"sort"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	spi "github.com/hyperledger/aries-trust-core/spi/storage"
)

// TestAll runs every common test against the provider.
func TestAll(t *testing.T, provider spi.Provider) {
	t.Helper()

	t.Run("put get delete", func(t *testing.T) { TestPutGetDelete(t, provider) })
	t.Run("insert", func(t *testing.T) { TestInsert(t, provider) })
	t.Run("concurrent insert", func(t *testing.T) { TestConcurrentInsert(t, provider) })
	t.Run("query", func(t *testing.T) { TestQuery(t, provider) })
	t.Run("store isolation", func(t *testing.T) { TestStoreIsolation(t, provider) })
}

// TestPutGetDelete checks basic persistence.
func TestPutGetDelete(t *testing.T, provider spi.Provider) {
	store, err := provider.OpenStore("basic")
	require.NoError(t, err)

	_, err = store.Get("missing")
	require.True(t, errors.Is(err, spi.ErrDataNotFound))

	require.NoError(t, store.Put("k1", []byte("v1"), spi.Tag{Name: "type", Value: "a"}))

	value, err := store.Get("k1")
	require.NoError(t, err)
	require.Equal(t, []byte("v1"), value)

	tags, err := store.GetTags("k1")
	require.NoError(t, err)
	require.Equal(t, []spi.Tag{{Name: "type", Value: "a"}}, tags)

	require.NoError(t, store.Put("k1", []byte("v2")))

	value, err = store.Get("k1")
	require.NoError(t, err)
	require.Equal(t, []byte("v2"), value)

	require.Error(t, store.Put("", []byte("v")))
	require.Error(t, store.Put("k2", []byte("v"), spi.Tag{Name: "bad:name"}))

	require.NoError(t, store.Delete("k1"))
	require.NoError(t, store.Delete("k1"))

	_, err = store.Get("k1")
	require.True(t, errors.Is(err, spi.ErrDataNotFound))
}

// TestInsert checks that Insert never overwrites.
func TestInsert(t *testing.T, provider spi.Provider) {
	store, err := provider.OpenStore("insert")
	require.NoError(t, err)

	require.NoError(t, store.Insert("k", []byte("first")))

	err = store.Insert("k", []byte("second"))
	require.True(t, errors.Is(err, spi.ErrDuplicateKey))

	value, err := store.Get("k")
	require.NoError(t, err)
	require.Equal(t, []byte("first"), value)
}

// TestConcurrentInsert checks that exactly one of many racing inserts wins.
func TestConcurrentInsert(t *testing.T, provider spi.Provider) {
	store, err := provider.OpenStore("concurrent")
	require.NoError(t, err)

	const workers = 16

	var (
		wg      sync.WaitGroup
		mutex   sync.Mutex
		winners int
	)

	for i := 0; i < workers; i++ {
		wg.Add(1)

		go func() {
			defer wg.Done()

			if err := store.Insert("race", []byte("value")); err == nil {
				mutex.Lock()
				winners++
				mutex.Unlock()
			}
		}()
	}

	wg.Wait()

	require.Equal(t, 1, winners)
}

// TestQuery checks tag name and tag value queries.
func TestQuery(t *testing.T, provider spi.Provider) {
	store, err := provider.OpenStore("query")
	require.NoError(t, err)

	require.NoError(t, store.Put("a", []byte("1"), spi.Tag{Name: "kind", Value: "x"}))
	require.NoError(t, store.Put("b", []byte("2"), spi.Tag{Name: "kind", Value: "y"}))
	require.NoError(t, store.Put("c", []byte("3"), spi.Tag{Name: "other"}))

	keys := func(expression string) []string {
		iter, err := store.Query(expression)
		require.NoError(t, err)

		entries, err := spi.Collect(iter)
		require.NoError(t, err)

		var result []string
		for _, e := range entries {
			result = append(result, e.Key)
		}

		sort.Strings(result)

		return result
	}

	require.Equal(t, []string{"a", "b"}, keys("kind"))
	require.Equal(t, []string{"b"}, keys("kind:y"))
	require.Empty(t, keys("kind:z"))
	require.Equal(t, []string{"c"}, keys("other"))

	_, err = store.Query("")
	require.Error(t, err)

	_, err = store.Query("a:b:c")
	require.Error(t, err)
}

// TestStoreIsolation checks that stores do not see each other's keys and names ignore case.
func TestStoreIsolation(t *testing.T, provider spi.Provider) {
	first, err := provider.OpenStore("iso-one")
	require.NoError(t, err)

	second, err := provider.OpenStore("iso-two")
	require.NoError(t, err)

	require.NoError(t, first.Put("shared", []byte("one")))

	_, err = second.Get("shared")
	require.True(t, errors.Is(err, spi.ErrDataNotFound))

	again, err := provider.OpenStore("ISO-ONE")
	require.NoError(t, err)

	value, err := again.Get("shared")
	require.NoError(t, err)
	require.Equal(t, []byte("one"), value)
}
