/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

// Package mem is an in-memory storage provider.
package mem

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/hyperledger/aries-trust-core/internal/storageutil"
	spi "github.com/hyperledger/aries-trust-core/spi/storage"
)

var errEmptyKey = errors.New("key cannot be empty")

// Provider is an in-memory implementation of spi.Provider.
type Provider struct {
	dbs  map[string]*memStore
	lock sync.RWMutex
}

// NewProvider instantiates a new in-memory storage Provider.
func NewProvider() *Provider {
	return &Provider{dbs: make(map[string]*memStore)}
}

// OpenStore opens the named store, creating it on first use.
func (p *Provider) OpenStore(name string) (spi.Store, error) {
	if name == "" {
		return nil, fmt.Errorf("store name cannot be empty")
	}

	storeName := strings.ToLower(name)

	p.lock.Lock()
	defer p.lock.Unlock()

	store, ok := p.dbs[storeName]
	if !ok {
		store = &memStore{db: make(map[string]dbEntry)}
		p.dbs[storeName] = store
	}

	return store, nil
}

// Close drops every store.
func (p *Provider) Close() error {
	p.lock.Lock()
	defer p.lock.Unlock()

	p.dbs = make(map[string]*memStore)

	return nil
}

type dbEntry struct {
	value []byte
	tags  []spi.Tag
}

type memStore struct {
	db     map[string]dbEntry
	dbLock sync.RWMutex
}

func (m *memStore) Put(key string, value []byte, tags ...spi.Tag) error {
	if err := validate(key, value, tags); err != nil {
		return err
	}

	m.dbLock.Lock()
	defer m.dbLock.Unlock()

	m.db[key] = newEntry(value, tags)

	return nil
}

func (m *memStore) Insert(key string, value []byte, tags ...spi.Tag) error {
	if err := validate(key, value, tags); err != nil {
		return err
	}

	m.dbLock.Lock()
	defer m.dbLock.Unlock()

	if _, ok := m.db[key]; ok {
		return spi.ErrDuplicateKey
	}

	m.db[key] = newEntry(value, tags)

	return nil
}

func (m *memStore) Get(key string) ([]byte, error) {
	entry, err := m.entry(key)
	if err != nil {
		return nil, err
	}

	return append([]byte(nil), entry.value...), nil
}

func (m *memStore) GetTags(key string) ([]spi.Tag, error) {
	entry, err := m.entry(key)
	if err != nil {
		return nil, err
	}

	return append([]spi.Tag(nil), entry.tags...), nil
}

func (m *memStore) Query(expression string) (spi.Iterator, error) {
	name, value, err := spi.ParseQuery(expression)
	if err != nil {
		return nil, err
	}

	m.dbLock.RLock()
	defer m.dbLock.RUnlock()

	var entries []spi.Entry

	for key, entry := range m.db {
		if spi.MatchTags(entry.tags, name, value) {
			entries = append(entries, spi.Entry{
				Key:   key,
				Value: append([]byte(nil), entry.value...),
				Tags:  append([]spi.Tag(nil), entry.tags...),
			})
		}
	}

	sort.Slice(entries, func(i, j int) bool { return entries[i].Key < entries[j].Key })

	return storageutil.NewSliceIterator(entries), nil
}

func (m *memStore) Delete(key string) error {
	if key == "" {
		return errEmptyKey
	}

	m.dbLock.Lock()
	defer m.dbLock.Unlock()

	delete(m.db, key)

	return nil
}

func (m *memStore) Close() error {
	return nil
}

func (m *memStore) entry(key string) (dbEntry, error) {
	if key == "" {
		return dbEntry{}, errEmptyKey
	}

	m.dbLock.RLock()
	defer m.dbLock.RUnlock()

	entry, ok := m.db[key]
	if !ok {
		return dbEntry{}, spi.ErrDataNotFound
	}

	return entry, nil
}

func newEntry(value []byte, tags []spi.Tag) dbEntry {
	return dbEntry{value: append([]byte(nil), value...), tags: append([]spi.Tag(nil), tags...)}
}

func validate(key string, value []byte, tags []spi.Tag) error {
	if key == "" {
		return errEmptyKey
	}

	if value == nil {
		return errors.New("value cannot be nil")
	}

	return spi.ValidateTags(tags)
}
