/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

// Package config loads trust core settings from YAML, TOML or JSON files with
// environment variable overrides.
package config

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/viper"
)

// DefaultEnvPrefix prefixes environment overrides: TRUSTCORE_VDR_RESOLVETIMEOUT
// overrides vdr.resolveTimeout.
const DefaultEnvPrefix = "TRUSTCORE"

type options struct {
	envPrefix string
}

// Option configures loading.
type Option func(opts *options)

// WithEnvPrefix defines the prefix for environment variable overrides.
func WithEnvPrefix(prefix string) Option {
	return func(opts *options) {
		opts.envPrefix = prefix
	}
}

// Backend is a loaded configuration source.
type Backend struct {
	v *viper.Viper
}

// Lookup gets the config item value by key, for example "anchor.s3.bucket".
func (b *Backend) Lookup(key string) (interface{}, bool) {
	value := b.v.Get(key)
	if value == nil {
		return nil, false
	}

	return value, true
}

// FromReader loads configuration from in. configType is "yaml", "toml" or "json".
func FromReader(in io.Reader, configType string, opts ...Option) (*Backend, error) {
	if configType == "" {
		return nil, errors.New("empty config type")
	}

	b := newBackend(opts...)

	// viper needs the type to decode a stream
	b.v.SetConfigType(configType)

	if err := b.v.MergeConfig(in); err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	return b, nil
}

// FromFile loads the named configuration file; its extension selects the format.
func FromFile(name string, opts ...Option) (*Backend, error) {
	if name == "" {
		return nil, errors.New("filename is required")
	}

	b := newBackend(opts...)
	b.v.SetConfigFile(name)

	if err := b.v.MergeInConfig(); err != nil {
		return nil, fmt.Errorf("loading config file failed: %w", err)
	}

	return b, nil
}

// FromEnv uses defaults and environment overrides only.
func FromEnv(opts ...Option) *Backend {
	return newBackend(opts...)
}

// Load reads the file at path and decodes it. An empty path yields the defaults
// with environment overrides.
func Load(path string, opts ...Option) (*Config, error) {
	var (
		b   *Backend
		err error
	)

	if path == "" {
		b = FromEnv(opts...)
	} else if b, err = FromFile(path, opts...); err != nil {
		return nil, err
	}

	return b.Config()
}

func newBackend(opts ...Option) *Backend {
	o := options{envPrefix: DefaultEnvPrefix}

	for _, option := range opts {
		option(&o)
	}

	v := viper.New()
	v.SetEnvPrefix(o.envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	return &Backend{v: v}
}
