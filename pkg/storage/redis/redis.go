/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

// Package redis is a storage provider backed by Redis. Values live under
// "<store>:data:<key>" and tag queries use Redis sets as secondary indexes.
package redis

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/hyperledger/aries-trust-core/internal/storageutil"
	spi "github.com/hyperledger/aries-trust-core/spi/storage"
)

const defaultTimeout = 15 * time.Second

type providerOpts struct {
	password  string
	tlsConfig *tls.Config
	timeout   time.Duration
}

// Opt configures the provider.
type Opt func(opts *providerOpts)

// WithPassword sets the Redis password.
func WithPassword(password string) Opt {
	return func(opts *providerOpts) {
		opts.password = password
	}
}

// WithTLSConfig enables TLS.
func WithTLSConfig(tlsConfig *tls.Config) Opt {
	return func(opts *providerOpts) {
		opts.tlsConfig = tlsConfig
	}
}

// WithTimeout bounds every Redis round trip.
func WithTimeout(timeout time.Duration) Opt {
	return func(opts *providerOpts) {
		opts.timeout = timeout
	}
}

// Provider is a Redis backed spi.Provider.
type Provider struct {
	client  redis.UniversalClient
	timeout time.Duration
}

// NewProvider connects to Redis. Two or more addresses select a cluster client.
func NewProvider(addrs []string, opts ...Opt) (*Provider, error) {
	opt := &providerOpts{timeout: defaultTimeout}

	for _, f := range opts {
		f(opt)
	}

	client := redis.NewUniversalClient(&redis.UniversalOptions{
		Addrs:                 addrs,
		ContextTimeoutEnabled: true,
		Password:              opt.password,
		TLSConfig:             opt.tlsConfig,
	})

	ctx, cancel := context.WithTimeout(context.Background(), opt.timeout)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	return &Provider{client: client, timeout: opt.timeout}, nil
}

// OpenStore returns a handle on the named key space.
func (p *Provider) OpenStore(name string) (spi.Store, error) {
	if name == "" {
		return nil, errors.New("store name cannot be empty")
	}

	return &store{client: p.client, timeout: p.timeout, name: strings.ToLower(name)}, nil
}

// Close closes the client.
func (p *Provider) Close() error {
	return p.client.Close()
}

type store struct {
	client  redis.UniversalClient
	timeout time.Duration
	name    string
}

func (s *store) Put(key string, value []byte, tags ...spi.Tag) error {
	data, err := encode(key, value, tags)
	if err != nil {
		return err
	}

	ctx, cancel := s.context()
	defer cancel()

	old, err := s.record(ctx, key)
	if err != nil && !errors.Is(err, spi.ErrDataNotFound) {
		return err
	}

	_, err = s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		if old != nil {
			s.unindex(ctx, pipe, key, old.Tags)
		}

		pipe.Set(ctx, s.dataKey(key), data, 0)
		s.index(ctx, pipe, key, tags)

		return nil
	})
	if err != nil {
		return fmt.Errorf("redis put: %w", err)
	}

	return nil
}

func (s *store) Insert(key string, value []byte, tags ...spi.Tag) error {
	data, err := encode(key, value, tags)
	if err != nil {
		return err
	}

	ctx, cancel := s.context()
	defer cancel()

	ok, err := s.client.SetNX(ctx, s.dataKey(key), data, 0).Result()
	if err != nil {
		return fmt.Errorf("redis insert: %w", err)
	}

	if !ok {
		return spi.ErrDuplicateKey
	}

	if len(tags) == 0 {
		return nil
	}

	_, err = s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		s.index(ctx, pipe, key, tags)

		return nil
	})
	if err != nil {
		return fmt.Errorf("redis index: %w", err)
	}

	return nil
}

func (s *store) Get(key string) ([]byte, error) {
	ctx, cancel := s.context()
	defer cancel()

	rec, err := s.record(ctx, key)
	if err != nil {
		return nil, err
	}

	return rec.Value, nil
}

func (s *store) GetTags(key string) ([]spi.Tag, error) {
	ctx, cancel := s.context()
	defer cancel()

	rec, err := s.record(ctx, key)
	if err != nil {
		return nil, err
	}

	return rec.Tags, nil
}

func (s *store) Query(expression string) (spi.Iterator, error) {
	name, value, err := spi.ParseQuery(expression)
	if err != nil {
		return nil, err
	}

	ctx, cancel := s.context()
	defer cancel()

	indexKey := s.tagNameKey(name)
	if value != "" {
		indexKey = s.tagValueKey(name, value)
	}

	keys, err := s.client.SMembers(ctx, indexKey).Result()
	if err != nil {
		return nil, fmt.Errorf("redis query: %w", err)
	}

	var entries []spi.Entry

	for _, key := range keys {
		rec, err := s.record(ctx, key)
		if errors.Is(err, spi.ErrDataNotFound) {
			continue
		}

		if err != nil {
			return nil, err
		}

		entries = append(entries, spi.Entry{Key: key, Value: rec.Value, Tags: rec.Tags})
	}

	return storageutil.NewSliceIterator(entries), nil
}

func (s *store) Delete(key string) error {
	if key == "" {
		return errors.New("key is mandatory")
	}

	ctx, cancel := s.context()
	defer cancel()

	old, err := s.record(ctx, key)
	if errors.Is(err, spi.ErrDataNotFound) {
		return nil
	}

	if err != nil {
		return err
	}

	_, err = s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		s.unindex(ctx, pipe, key, old.Tags)
		pipe.Del(ctx, s.dataKey(key))

		return nil
	})
	if err != nil {
		return fmt.Errorf("redis delete: %w", err)
	}

	return nil
}

func (s *store) Close() error {
	return nil
}

func (s *store) record(ctx context.Context, key string) (*storageutil.Record, error) {
	if key == "" {
		return nil, errors.New("key is mandatory")
	}

	data, err := s.client.Get(ctx, s.dataKey(key)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, spi.ErrDataNotFound
		}

		return nil, fmt.Errorf("redis get: %w", err)
	}

	return storageutil.DecodeRecord(data)
}

func (s *store) index(ctx context.Context, pipe redis.Pipeliner, key string, tags []spi.Tag) {
	for _, tag := range tags {
		pipe.SAdd(ctx, s.tagNameKey(tag.Name), key)
		pipe.SAdd(ctx, s.tagValueKey(tag.Name, tag.Value), key)
	}
}

func (s *store) unindex(ctx context.Context, pipe redis.Pipeliner, key string, tags []spi.Tag) {
	for _, tag := range tags {
		pipe.SRem(ctx, s.tagNameKey(tag.Name), key)
		pipe.SRem(ctx, s.tagValueKey(tag.Name, tag.Value), key)
	}
}

func (s *store) context() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), s.timeout)
}

func (s *store) dataKey(key string) string {
	return s.name + ":data:" + key
}

func (s *store) tagNameKey(name string) string {
	return s.name + ":tagname:" + name
}

func (s *store) tagValueKey(name, value string) string {
	return s.name + ":tagvalue:" + name + ":" + value
}

func encode(key string, value []byte, tags []spi.Tag) ([]byte, error) {
	if key == "" || value == nil {
		return nil, errors.New("key and value are mandatory")
	}

	if err := spi.ValidateTags(tags); err != nil {
		return nil, err
	}

	return storageutil.EncodeRecord(value, tags)
}
