/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

// Package wallet is a content-addressed credential store with tags, collections
// and predicate queries.
package wallet

import (
	"context"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/jinzhu/copier"
	"github.com/samber/lo"

	"github.com/hyperledger/aries-trust-core/pkg/common/log"
	"github.com/hyperledger/aries-trust-core/pkg/doc/claim"
	"github.com/hyperledger/aries-trust-core/pkg/doc/verifiable"
	spi "github.com/hyperledger/aries-trust-core/spi/storage"
)

const (
	// StoreName is the name of the wallet store.
	StoreName = "wallet"

	// DefaultCacheSize is the number of entries kept decoded in memory.
	DefaultCacheSize = 256

	entryTag = "credential"
)

// ErrNotFound is returned for an unknown entry ID.
var ErrNotFound = errors.New("credential not found")

var logger = log.New("trustcore/wallet")

// Entry is a stored credential with its holder-side metadata.
type Entry struct {
	ID          string                 `json:"id"`
	Credential  *verifiable.Credential `json:"-" copier:"-"`
	Tags        []string               `json:"tags,omitempty"`
	Collections []string               `json:"collections,omitempty"`
	StoredAt    time.Time              `json:"storedAt"`
}

type record struct {
	Entry
	Credential json.RawMessage `json:"credential"`
}

func (e *Entry) clone() (*Entry, error) {
	c := &Entry{}
	if err := copier.CopyWithOption(c, e, copier.Option{DeepCopy: true}); err != nil {
		return nil, fmt.Errorf("copy entry %s: %w", e.ID, err)
	}

	c.Credential = e.Credential.Clone()

	return c, nil
}

// Option configures a Wallet.
type Option func(w *Wallet)

// WithCacheSize sets the number of cached entries.
func WithCacheSize(size int) Option {
	return func(w *Wallet) {
		w.cacheSize = size
	}
}

// WithClock sets the time source for StoredAt.
func WithClock(now func() time.Time) Option {
	return func(w *Wallet) {
		w.now = now
	}
}

// Wallet stores credentials under the digest of their canonical form.
type Wallet struct {
	store     spi.Store
	cache     *lru.Cache[string, *Entry]
	cacheSize int
	now       func() time.Time
	// serializes read-modify-write of entry metadata
	mu sync.Mutex
}

// New opens the wallet store of p.
func New(p spi.Provider, opts ...Option) (*Wallet, error) {
	w := &Wallet{cacheSize: DefaultCacheSize, now: time.Now}

	for _, opt := range opts {
		opt(w)
	}

	store, err := p.OpenStore(StoreName)
	if err != nil {
		return nil, fmt.Errorf("open wallet store: %w", err)
	}

	cache, err := lru.New[string, *Entry](w.cacheSize)
	if err != nil {
		return nil, fmt.Errorf("create wallet cache: %w", err)
	}

	w.store = store
	w.cache = cache

	return w, nil
}

// ID returns the wallet ID of vc: the hex SHA-256 of its canonical form, disclosures included.
func ID(vc *verifiable.Credential) (string, error) {
	n, err := vc.ToNode()
	if err != nil {
		return "", err
	}

	digest, err := claim.Digest(n)
	if err != nil {
		return "", err
	}

	return hex.EncodeToString(digest), nil
}

// Store saves vc and returns its ID. Storing the same credential again returns the
// same ID and keeps the existing entry.
func (w *Wallet) Store(vc *verifiable.Credential) (string, error) {
	if vc == nil {
		return "", errors.New("store credential: credential is required")
	}

	id, err := ID(vc)
	if err != nil {
		return "", fmt.Errorf("store credential: %w", err)
	}

	e := &Entry{ID: id, Credential: vc.Clone(), StoredAt: w.now().UTC()}

	data, err := marshalEntry(e)
	if err != nil {
		return "", err
	}

	err = w.store.Insert(id, data, spi.Tag{Name: entryTag})
	if errors.Is(err, spi.ErrDuplicateKey) {
		logger.Debugf("credential %s already stored as %s", vc.ID, id)

		return id, nil
	}

	if err != nil {
		return "", fmt.Errorf("store credential: %w", err)
	}

	w.cache.Add(id, e)

	logger.Debugf("stored credential %s as %s", vc.ID, id)

	return id, nil
}

// Get returns a copy of the entry.
func (w *Wallet) Get(id string) (*Entry, error) {
	e, err := w.get(id)
	if err != nil {
		return nil, err
	}

	return e.clone()
}

func (w *Wallet) get(id string) (*Entry, error) {
	if e, ok := w.cache.Get(id); ok {
		return e, nil
	}

	data, err := w.store.Get(id)
	if errors.Is(err, spi.ErrDataNotFound) {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}

	if err != nil {
		return nil, err
	}

	e, err := unmarshalEntry(data)
	if err != nil {
		return nil, err
	}

	w.cache.Add(id, e)

	return e, nil
}

// Tag adds labels to the entry.
func (w *Wallet) Tag(id string, labels ...string) error {
	return w.update(id, func(e *Entry) {
		e.Tags = lo.Uniq(append(e.Tags, labels...))
	})
}

// Untag removes labels from the entry.
func (w *Wallet) Untag(id string, labels ...string) error {
	return w.update(id, func(e *Entry) {
		e.Tags = lo.Without(e.Tags, labels...)
	})
}

// AddToCollection puts the entry in the named collection.
func (w *Wallet) AddToCollection(id, name string) error {
	if name == "" {
		return errors.New("collection name is required")
	}

	return w.update(id, func(e *Entry) {
		e.Collections = lo.Uniq(append(e.Collections, name))
	})
}

// RemoveFromCollection takes the entry out of the named collection.
func (w *Wallet) RemoveFromCollection(id, name string) error {
	return w.update(id, func(e *Entry) {
		e.Collections = lo.Without(e.Collections, name)
	})
}

func (w *Wallet) update(id string, fn func(e *Entry)) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	current, err := w.get(id)
	if err != nil {
		return err
	}

	e, err := current.clone()
	if err != nil {
		return err
	}

	fn(e)

	data, err := marshalEntry(e)
	if err != nil {
		return err
	}

	if err := w.store.Put(id, data, spi.Tag{Name: entryTag}); err != nil {
		return fmt.Errorf("update entry %s: %w", id, err)
	}

	w.cache.Add(id, e)

	return nil
}

// Delete removes the entry. Deleting an unknown ID is not an error.
func (w *Wallet) Delete(id string) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if err := w.store.Delete(id); err != nil {
		return fmt.Errorf("delete entry %s: %w", id, err)
	}

	w.cache.Remove(id)

	return nil
}

// Size returns the number of stored credentials.
func (w *Wallet) Size(ctx context.Context) (int, error) {
	entries, err := w.all(ctx)
	if err != nil {
		return 0, err
	}

	return len(entries), nil
}

// Collections returns the names of all non-empty collections, sorted.
func (w *Wallet) Collections(ctx context.Context) ([]string, error) {
	entries, err := w.all(ctx)
	if err != nil {
		return nil, err
	}

	names := lo.Uniq(lo.FlatMap(entries, func(e *Entry, _ int) []string { return e.Collections }))
	sort.Strings(names)

	return names, nil
}

// Query returns copies of the entries matching every predicate, oldest first.
func (w *Wallet) Query(ctx context.Context, predicates ...Predicate) ([]*Entry, error) {
	entries, err := w.all(ctx)
	if err != nil {
		return nil, err
	}

	match := And(predicates...)

	var results []*Entry

	for _, e := range entries {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		ok, err := match(ctx, e)
		if err != nil {
			return nil, fmt.Errorf("query entry %s: %w", e.ID, err)
		}

		if !ok {
			continue
		}

		c, err := e.clone()
		if err != nil {
			return nil, err
		}

		results = append(results, c)
	}

	return results, nil
}

func (w *Wallet) all(ctx context.Context) ([]*Entry, error) {
	iter, err := w.store.Query(entryTag)
	if err != nil {
		return nil, fmt.Errorf("query wallet: %w", err)
	}

	records, err := spi.Collect(iter)
	if err != nil {
		return nil, fmt.Errorf("query wallet: %w", err)
	}

	entries := make([]*Entry, 0, len(records))

	for _, r := range records {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		e, ok := w.cache.Get(r.Key)
		if !ok {
			if e, err = unmarshalEntry(r.Value); err != nil {
				return nil, err
			}

			w.cache.Add(r.Key, e)
		}

		entries = append(entries, e)
	}

	sort.Slice(entries, func(i, j int) bool {
		if entries[i].StoredAt.Equal(entries[j].StoredAt) {
			return entries[i].ID < entries[j].ID
		}

		return entries[i].StoredAt.Before(entries[j].StoredAt)
	})

	return entries, nil
}

func marshalEntry(e *Entry) ([]byte, error) {
	vc, err := e.Credential.MarshalJSON()
	if err != nil {
		return nil, fmt.Errorf("marshal entry %s: %w", e.ID, err)
	}

	return json.Marshal(&record{Entry: *e, Credential: vc})
}

func unmarshalEntry(data []byte) (*Entry, error) {
	var r record
	if err := json.Unmarshal(data, &r); err != nil {
		return nil, fmt.Errorf("unmarshal entry: %w", err)
	}

	vc, err := verifiable.ParseCredential(r.Credential)
	if err != nil {
		return nil, fmt.Errorf("unmarshal entry %s: %w", r.ID, err)
	}

	e := r.Entry
	e.Credential = vc

	return &e, nil
}
