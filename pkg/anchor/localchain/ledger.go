/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

// Package localchain is an anchor ledger of hash-chained blocks kept in a local store.
package localchain

import (
	"context"
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/hyperledger/aries-trust-core/pkg/anchor"
	"github.com/hyperledger/aries-trust-core/pkg/common/log"
	"github.com/hyperledger/aries-trust-core/pkg/common/trusterr"
	spi "github.com/hyperledger/aries-trust-core/spi/storage"
)

const (
	storePrefix = "localchain_"
	headKey     = "head"
	digestSize  = sha256.Size
)

var logger = log.New("trustcore/anchor/localchain")

// Block is one ledger entry. Hash covers every other field.
type Block struct {
	Height     uint64    `json:"height"`
	Prev       string    `json:"prev,omitempty"`
	Digest     []byte    `json:"digest"`
	PayloadRef string    `json:"payloadRef"`
	Timestamp  time.Time `json:"timestamp"`
	Hash       string    `json:"hash"`
}

func (b *Block) computeHash() string {
	h := sha256.New()

	var height [8]byte

	binary.BigEndian.PutUint64(height[:], b.Height)
	h.Write(height[:])

	for _, field := range [][]byte{[]byte(b.Prev), b.Digest, []byte(b.PayloadRef)} {
		var size [4]byte

		binary.BigEndian.PutUint32(size[:], uint32(len(field)))
		h.Write(size[:])
		h.Write(field)
	}

	var ts [8]byte

	binary.BigEndian.PutUint64(ts[:], uint64(b.Timestamp.UnixNano()))
	h.Write(ts[:])

	return hex.EncodeToString(h.Sum(nil))
}

// Option configures a Ledger.
type Option func(l *Ledger)

// WithClock sets the block timestamp source.
func WithClock(now func() time.Time) Option {
	return func(l *Ledger) {
		l.now = now
	}
}

// Ledger is an append-only chain of blocks. It implements anchor.ChainClient.
type Ledger struct {
	mu    sync.Mutex
	store spi.Store
	now   func() time.Time
}

// New opens the ledger of chainID in p.
func New(p spi.Provider, chainID string, opts ...Option) (*Ledger, error) {
	store, err := p.OpenStore(storePrefix + chainID)
	if err != nil {
		return nil, fmt.Errorf("open ledger %s: %w", chainID, err)
	}

	l := &Ledger{store: store, now: time.Now}

	for _, opt := range opts {
		opt(l)
	}

	return l, nil
}

// Write appends a block recording digest and returns the block hash as reference.
func (l *Ledger) Write(ctx context.Context, digest []byte, payloadRef string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", trusterr.NewRetryable(err)
	}

	if len(digest) != digestSize {
		return "", trusterr.New(trusterr.AnchorWriteFailure, "ledger rejects %d byte digest", len(digest))
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	head, err := l.head()
	if err != nil {
		return "", trusterr.NewRetryable(err)
	}

	b := &Block{
		Digest:     append([]byte(nil), digest...),
		PayloadRef: payloadRef,
		Timestamp:  l.now().UTC(),
	}

	if head != nil {
		b.Height = head.Height + 1
		b.Prev = head.Hash
	}

	b.Hash = b.computeHash()

	data, err := json.Marshal(b)
	if err != nil {
		return "", err
	}

	if err := l.store.Insert(b.Hash, data); err != nil {
		return "", trusterr.NewRetryable(fmt.Errorf("append block %d: %w", b.Height, err))
	}

	if err := l.store.Put(headKey, []byte(b.Hash)); err != nil {
		return "", trusterr.NewRetryable(fmt.Errorf("advance head to %d: %w", b.Height, err))
	}

	logger.Debugf("appended block %d %s", b.Height, b.Hash)

	return b.Hash, nil
}

// Read returns the digest and payload reference recorded in block txRef.
func (l *Ledger) Read(ctx context.Context, txRef string) ([]byte, string, error) {
	if err := ctx.Err(); err != nil {
		return nil, "", err
	}

	b, err := l.block(txRef)
	if err != nil {
		return nil, "", err
	}

	return b.Digest, b.PayloadRef, nil
}

// Head returns the latest block, or nil for an empty ledger.
func (l *Ledger) Head() (*Block, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	return l.head()
}

func (l *Ledger) head() (*Block, error) {
	hash, err := l.store.Get(headKey)
	if errors.Is(err, spi.ErrDataNotFound) {
		return nil, nil //nolint:nilnil
	}

	if err != nil {
		return nil, fmt.Errorf("read ledger head: %w", err)
	}

	return l.block(string(hash))
}

func (l *Ledger) block(hash string) (*Block, error) {
	data, err := l.store.Get(hash)
	if errors.Is(err, spi.ErrDataNotFound) {
		return nil, fmt.Errorf("%w: %s", anchor.ErrTxNotFound, hash)
	}

	if err != nil {
		return nil, err
	}

	b := &Block{}
	if err := json.Unmarshal(data, b); err != nil {
		return nil, fmt.Errorf("decode block %s: %w", hash, err)
	}

	if b.Hash != hash || b.computeHash() != hash {
		return nil, trusterr.New(trusterr.DigestMismatch, "block %s was altered", hash)
	}

	return b, nil
}

// Verify walks the ledger from its head back to the first block and checks every
// hash and link. It returns the number of blocks.
func (l *Ledger) Verify(ctx context.Context) (int, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	b, err := l.head()
	if err != nil || b == nil {
		return 0, err
	}

	count := 1

	for b.Prev != "" {
		if err := ctx.Err(); err != nil {
			return 0, err
		}

		prev, err := l.block(b.Prev)
		if err != nil {
			return 0, err
		}

		if prev.Height+1 != b.Height {
			return 0, trusterr.New(trusterr.DigestMismatch, "block %s at height %d follows height %d",
				b.Hash, b.Height, prev.Height)
		}

		b = prev
		count++
	}

	if b.Height != 0 {
		return 0, trusterr.New(trusterr.DigestMismatch, "first block %s has height %d", b.Hash, b.Height)
	}

	return count, nil
}

var _ anchor.ChainClient = (*Ledger)(nil)
