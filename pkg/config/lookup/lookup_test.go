/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package lookup

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

type mapBackend map[string]interface{}

func (m mapBackend) Lookup(key string) (interface{}, bool) {
	v, ok := m[key]

	return v, ok
}

func TestGetters(t *testing.T) {
	c := New(mapBackend{
		"string":   "value1",
		"bool":     "true",
		"int":      "42",
		"duration": "1m30s",
		"nanos":    1000,
		"slice":    []interface{}{"a", "b"},
		"words":    "a b",
		"map":      map[string]interface{}{"web": "https://resolver.example.com"},
	})

	require.Equal(t, "value1", c.GetString("string"))
	require.True(t, c.GetBool("bool"))
	require.Equal(t, 42, c.GetInt("int"))
	require.Equal(t, 90*time.Second, c.GetDuration("duration"))
	require.Equal(t, time.Microsecond, c.GetDuration("nanos"))
	require.Equal(t, []string{"a", "b"}, c.GetStringSlice("slice"))
	require.Equal(t, []string{"a", "b"}, c.GetStringSlice("words"))
	require.Equal(t, map[string]string{"web": "https://resolver.example.com"}, c.GetStringMapString("map"))
}

func TestMissingKeys(t *testing.T) {
	c := New(mapBackend{})

	require.Empty(t, c.GetString("missing"))
	require.False(t, c.GetBool("missing"))
	require.Zero(t, c.GetInt("missing"))
	require.Zero(t, c.GetDuration("missing"))
	require.Nil(t, c.GetStringSlice("missing"))
	require.Nil(t, c.GetStringMapString("missing"))

	_, ok := c.Lookup("missing")
	require.False(t, ok)
}
