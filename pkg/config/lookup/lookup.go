/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

// Package lookup reads typed values out of a configuration backend.
package lookup

import (
	"time"

	"github.com/spf13/cast"
)

// Backend returns raw configuration values by key.
type Backend interface {
	Lookup(key string) (interface{}, bool)
}

// New returns a lookup wrapper around the given backend.
func New(backend Backend) *ConfigLookup {
	return &ConfigLookup{backend: backend}
}

// ConfigLookup is a wrapper for Backend which performs key lookup and conversion.
type ConfigLookup struct {
	backend Backend
}

// Lookup returns the raw value for the given key.
func (c *ConfigLookup) Lookup(key string) (interface{}, bool) {
	return c.backend.Lookup(key)
}

// GetBool returns the bool value for the given key.
func (c *ConfigLookup) GetBool(key string) bool {
	value, ok := c.Lookup(key)
	if !ok {
		return false
	}

	return cast.ToBool(value)
}

// GetString returns the string value for the given key.
func (c *ConfigLookup) GetString(key string) string {
	value, ok := c.Lookup(key)
	if !ok {
		return ""
	}

	return cast.ToString(value)
}

// GetInt returns the int value for the given key.
func (c *ConfigLookup) GetInt(key string) int {
	value, ok := c.Lookup(key)
	if !ok {
		return 0
	}

	return cast.ToInt(value)
}

// GetDuration returns the time.Duration value for the given key. Plain numbers
// are nanoseconds; strings use time.ParseDuration syntax.
func (c *ConfigLookup) GetDuration(key string) time.Duration {
	value, ok := c.Lookup(key)
	if !ok {
		return 0
	}

	return cast.ToDuration(value)
}

// GetStringSlice returns the list value for the given key. A string is split on
// whitespace.
func (c *ConfigLookup) GetStringSlice(key string) []string {
	value, ok := c.Lookup(key)
	if !ok {
		return nil
	}

	return cast.ToStringSlice(value)
}

// GetStringMapString returns the map value for the given key.
func (c *ConfigLookup) GetStringMapString(key string) map[string]string {
	value, ok := c.Lookup(key)
	if !ok {
		return nil
	}

	return cast.ToStringMapString(value)
}
