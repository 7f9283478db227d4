/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

// Package leveldb is a persistent storage provider keeping one goleveldb database per store.
package leveldb

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"sync"

	"github.com/syndtr/goleveldb/leveldb"

	"github.com/hyperledger/aries-trust-core/internal/storageutil"
	spi "github.com/hyperledger/aries-trust-core/spi/storage"
)

// Provider opens leveldb backed stores under a root directory.
type Provider struct {
	dbPath string
	dbs    map[string]*store
	lock   sync.Mutex
}

// NewProvider instantiates a Provider rooted at dbPath.
func NewProvider(dbPath string) *Provider {
	return &Provider{dbPath: dbPath, dbs: make(map[string]*store)}
}

// OpenStore opens the named store, creating its database on first use.
func (p *Provider) OpenStore(name string) (spi.Store, error) {
	if name == "" {
		return nil, errors.New("store name cannot be empty")
	}

	name = strings.ToLower(name)

	p.lock.Lock()
	defer p.lock.Unlock()

	if s, ok := p.dbs[name]; ok {
		return s, nil
	}

	db, err := leveldb.OpenFile(filepath.Join(p.dbPath, name), nil)
	if err != nil {
		return nil, fmt.Errorf("open leveldb store %s: %w", name, err)
	}

	s := &store{db: db}
	p.dbs[name] = s

	return s, nil
}

// Close closes every open database.
func (p *Provider) Close() error {
	p.lock.Lock()
	defer p.lock.Unlock()

	var firstErr error

	for name, s := range p.dbs {
		if err := s.db.Close(); err != nil && firstErr == nil {
			firstErr = fmt.Errorf("close leveldb store %s: %w", name, err)
		}
	}

	p.dbs = make(map[string]*store)

	return firstErr
}

type store struct {
	db *leveldb.DB
	// serializes Insert's read-then-write
	insertLock sync.Mutex
}

func (s *store) Put(key string, value []byte, tags ...spi.Tag) error {
	data, err := encode(key, value, tags)
	if err != nil {
		return err
	}

	return s.db.Put([]byte(key), data, nil)
}

func (s *store) Insert(key string, value []byte, tags ...spi.Tag) error {
	data, err := encode(key, value, tags)
	if err != nil {
		return err
	}

	s.insertLock.Lock()
	defer s.insertLock.Unlock()

	exists, err := s.db.Has([]byte(key), nil)
	if err != nil {
		return err
	}

	if exists {
		return spi.ErrDuplicateKey
	}

	return s.db.Put([]byte(key), data, nil)
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

	iter := s.db.NewIterator(nil, nil)
	defer iter.Release()

	var entries []spi.Entry

	for iter.Next() {
		rec, err := storageutil.DecodeRecord(iter.Value())
		if err != nil {
			return nil, err
		}

		if spi.MatchTags(rec.Tags, name, value) {
			entries = append(entries, spi.Entry{Key: string(iter.Key()), Value: rec.Value, Tags: rec.Tags})
		}
	}

	if err := iter.Error(); err != nil {
		return nil, fmt.Errorf("leveldb query: %w", err)
	}

	return storageutil.NewSliceIterator(entries), nil
}

func (s *store) Delete(key string) error {
	if key == "" {
		return errors.New("key is mandatory")
	}

	return s.db.Delete([]byte(key), nil)
}

func (s *store) Close() error {
	return nil
}

func (s *store) record(key string) (*storageutil.Record, error) {
	if key == "" {
		return nil, errors.New("key is mandatory")
	}

	data, err := s.db.Get([]byte(key), nil)
	if err != nil {
		if errors.Is(err, leveldb.ErrNotFound) {
			return nil, spi.ErrDataNotFound
		}

		return nil, err
	}

	return storageutil.DecodeRecord(data)
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
