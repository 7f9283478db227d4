/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

// Package pebble is a persistent storage provider sharing one pebble database
// between all stores, each store living under its own key prefix.
package pebble

import (
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/cockroachdb/pebble"

	"github.com/hyperledger/aries-trust-core/internal/storageutil"
	spi "github.com/hyperledger/aries-trust-core/spi/storage"
)

const separator = 0x00

// Provider is a pebble backed spi.Provider.
type Provider struct {
	db     *pebble.DB
	stores map[string]*store
	lock   sync.Mutex
}

// NewProvider opens (or creates) the pebble database at dir.
func NewProvider(dir string) (*Provider, error) {
	db, err := pebble.Open(dir, &pebble.Options{})
	if err != nil {
		return nil, fmt.Errorf("open pebble database: %w", err)
	}

	return &Provider{db: db, stores: make(map[string]*store)}, nil
}

// OpenStore returns the store for name.
func (p *Provider) OpenStore(name string) (spi.Store, error) {
	if name == "" {
		return nil, errors.New("store name cannot be empty")
	}

	name = strings.ToLower(name)

	p.lock.Lock()
	defer p.lock.Unlock()

	s, ok := p.stores[name]
	if !ok {
		s = &store{db: p.db, prefix: append([]byte(name), separator)}
		p.stores[name] = s
	}

	return s, nil
}

// Close closes the database.
func (p *Provider) Close() error {
	p.lock.Lock()
	defer p.lock.Unlock()

	p.stores = make(map[string]*store)

	return p.db.Close()
}

type store struct {
	db         *pebble.DB
	prefix     []byte
	insertLock sync.Mutex
}

func (s *store) Put(key string, value []byte, tags ...spi.Tag) error {
	data, err := encode(key, value, tags)
	if err != nil {
		return err
	}

	return s.db.Set(s.dbKey(key), data, pebble.Sync)
}

func (s *store) Insert(key string, value []byte, tags ...spi.Tag) error {
	data, err := encode(key, value, tags)
	if err != nil {
		return err
	}

	s.insertLock.Lock()
	defer s.insertLock.Unlock()

	_, closer, err := s.db.Get(s.dbKey(key))

	switch {
	case err == nil:
		closer.Close() //nolint:errcheck

		return spi.ErrDuplicateKey
	case !errors.Is(err, pebble.ErrNotFound):
		return err
	}

	return s.db.Set(s.dbKey(key), data, pebble.Sync)
}

func (s *store) Get(key string) ([]byte, error) {
	rec, err := s.record(key)
	if err != nil {
		return nil, err
	}

	return rec.Value, nil
}

func (s *store) GetTags(key string) ([]spi.Tag, error) {
	rec, err := s.record(key)
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

	upper := append([]byte(nil), s.prefix...)
	upper[len(upper)-1] = separator + 1

	iter, err := s.db.NewIter(&pebble.IterOptions{LowerBound: s.prefix, UpperBound: upper})
	if err != nil {
		return nil, fmt.Errorf("pebble query: %w", err)
	}

	defer iter.Close() //nolint:errcheck

	var entries []spi.Entry

	for iter.First(); iter.Valid(); iter.Next() {
		rec, err := storageutil.DecodeRecord(iter.Value())
		if err != nil {
			return nil, err
		}

		if spi.MatchTags(rec.Tags, name, value) {
			entries = append(entries, spi.Entry{
				Key:   string(iter.Key()[len(s.prefix):]),
				Value: rec.Value,
				Tags:  rec.Tags,
			})
		}
	}

	if err := iter.Error(); err != nil {
		return nil, fmt.Errorf("pebble query: %w", err)
	}

	return storageutil.NewSliceIterator(entries), nil
}

func (s *store) Delete(key string) error {
	if key == "" {
		return errors.New("key is mandatory")
	}

	return s.db.Delete(s.dbKey(key), pebble.Sync)
}

func (s *store) Close() error {
	return nil
}

func (s *store) dbKey(key string) []byte {
	return append(append([]byte(nil), s.prefix...), key...)
}

func (s *store) record(key string) (*storageutil.Record, error) {
	if key == "" {
		return nil, errors.New("key is mandatory")
	}

	val, closer, err := s.db.Get(s.dbKey(key))
	if err != nil {
		if errors.Is(err, pebble.ErrNotFound) {
			return nil, spi.ErrDataNotFound
		}

		return nil, err
	}

	defer closer.Close() //nolint:errcheck

	// decoding copies out of the pebble owned buffer
	return storageutil.DecodeRecord(val)
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
