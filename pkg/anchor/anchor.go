/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

//go:generate mockgen -destination anchor_mocks_test.go -package anchor -source=anchor.go

// Package anchor records payload digests on external append-only ledgers and checks
// payloads against them later.
package anchor

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v4"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/hyperledger/aries-trust-core/pkg/common/log"
	"github.com/hyperledger/aries-trust-core/pkg/common/trusterr"
	"github.com/hyperledger/aries-trust-core/pkg/doc/claim"
	"github.com/hyperledger/aries-trust-core/pkg/observability/metrics"
	"github.com/hyperledger/aries-trust-core/pkg/observability/metrics/noop"
	spi "github.com/hyperledger/aries-trust-core/spi/storage"
)

const (
	// PayloadStoreName is the store holding anchored payloads.
	PayloadStoreName = "anchorpayload"

	defaultWriteTimeout = 30 * time.Second
	defaultMaxRetries   = 5
)

// ErrTxNotFound is returned by chain clients for an unknown transaction reference.
var ErrTxNotFound = errors.New("anchor transaction not found")

var logger = log.New("trustcore/anchor")

// ChainClient durably records digests on one ledger. Write errors wrapped with
// trusterr.NewRetryable are transient and retried; any other error is a rejection.
type ChainClient interface {
	Write(ctx context.Context, digest []byte, payloadRef string) (txRef string, err error)
	Read(ctx context.Context, txRef string) (digest []byte, payloadRef string, err error)
}

// Ref addresses an anchor.
type Ref struct {
	ChainID string `json:"chainId"`
	TxRef   string `json:"txRef"`
}

// Record is the outcome of anchoring a payload.
type Record struct {
	ChainID    string    `json:"chainId"`
	TxRef      string    `json:"txRef"`
	Digest     []byte    `json:"digest"`
	AnchoredAt time.Time `json:"anchoredAt"`
}

// Ref returns the reference of the record.
func (r *Record) Ref() Ref {
	return Ref{ChainID: r.ChainID, TxRef: r.TxRef}
}

// Option configures a Registry.
type Option func(r *Registry)

// WithWriteTimeout bounds one Anchor call, retries included.
func WithWriteTimeout(timeout time.Duration) Option {
	return func(r *Registry) {
		r.writeTimeout = timeout
	}
}

// WithBackOff sets the retry policy for transient write failures. newBackOff is
// called once per Anchor call.
func WithBackOff(newBackOff func() backoff.BackOff) Option {
	return func(r *Registry) {
		r.newBackOff = newBackOff
	}
}

// WithMetrics sets the metrics sink.
func WithMetrics(m metrics.Metrics) Option {
	return func(r *Registry) {
		r.metrics = m
	}
}

// WithTracer sets the tracer.
func WithTracer(tracer trace.Tracer) Option {
	return func(r *Registry) {
		r.tracer = tracer
	}
}

// WithClock sets the time source for AnchoredAt.
func WithClock(now func() time.Time) Option {
	return func(r *Registry) {
		r.now = now
	}
}

// Registry dispatches anchoring to per-chain clients.
type Registry struct {
	mu           sync.RWMutex
	clients      map[string]ChainClient
	payloads     *PayloadStore
	writeTimeout time.Duration
	newBackOff   func() backoff.BackOff
	metrics      metrics.Metrics
	tracer       trace.Tracer
	now          func() time.Time
}

// New returns a registry keeping payloads in p.
func New(p spi.Provider, opts ...Option) (*Registry, error) {
	payloads, err := NewPayloadStore(p)
	if err != nil {
		return nil, err
	}

	r := &Registry{
		clients:      make(map[string]ChainClient),
		payloads:     payloads,
		writeTimeout: defaultWriteTimeout,
		newBackOff: func() backoff.BackOff {
			return backoff.WithMaxRetries(backoff.NewExponentialBackOff(), defaultMaxRetries)
		},
		metrics: noop.GetMetrics(),
		tracer:  otel.Tracer("trustcore/anchor"),
		now:     time.Now,
	}

	for _, opt := range opts {
		opt(r)
	}

	return r, nil
}

// Register adds the client of chainID.
func (r *Registry) Register(chainID string, client ChainClient) error {
	if chainID == "" || client == nil {
		return errors.New("register chain: chain ID and client are required")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.clients[chainID]; ok {
		return fmt.Errorf("register chain: %s already registered", chainID)
	}

	r.clients[chainID] = client

	return nil
}

// Chains lists the registered chain IDs.
func (r *Registry) Chains() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	chains := make([]string, 0, len(r.clients))
	for id := range r.clients {
		chains = append(chains, id)
	}

	return chains
}

func (r *Registry) client(chainID string) (ChainClient, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	c, ok := r.clients[chainID]

	return c, ok
}

// Anchor records the digest of payload's canonical form on chainID. Every call
// writes a new transaction, even for a payload anchored before.
func (r *Registry) Anchor(ctx context.Context, payload *claim.Node, chainID string) (*Record, error) {
	ctx, span := r.tracer.Start(ctx, "anchor.Anchor", trace.WithAttributes(attribute.String("chain", chainID)))
	defer span.End()

	record, err := r.anchor(ctx, payload, chainID)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())

		return nil, err
	}

	span.SetAttributes(attribute.String("tx_ref", record.TxRef))

	return record, nil
}

func (r *Registry) anchor(ctx context.Context, payload *claim.Node, chainID string) (*Record, error) {
	client, ok := r.client(chainID)
	if !ok {
		return nil, trusterr.New(trusterr.AnchorWriteFailure, "chain %s is not registered", chainID)
	}

	data, err := claim.Canonicalize(payload)
	if err != nil {
		return nil, err
	}

	digest, payloadRef, err := r.payloads.Put(data)
	if err != nil {
		return nil, trusterr.Wrap(trusterr.AnchorWriteFailure, err, "keep payload")
	}

	ctx, cancel := context.WithTimeout(ctx, r.writeTimeout)
	defer cancel()

	start := time.Now()

	var txRef string

	write := func() error {
		var werr error

		txRef, werr = client.Write(ctx, digest, payloadRef)
		if werr == nil {
			return nil
		}

		if ctx.Err() == nil && trusterr.IsRetryable(werr) {
			return werr
		}

		return backoff.Permanent(werr)
	}

	notify := func(err error, next time.Duration) {
		r.metrics.AnchorRetry(chainID)

		logger.Warnf("anchor write on %s failed, retrying in %s: %s", chainID, next, err)
	}

	err = backoff.RetryNotify(write, backoff.WithContext(r.newBackOff(), ctx), notify)
	if err != nil {
		return nil, writeFailure(chainID, err)
	}

	r.metrics.AnchorWriteTime(chainID, time.Since(start))

	logger.Debugf("anchored %x on %s as %s", digest, chainID, txRef)

	return &Record{ChainID: chainID, TxRef: txRef, Digest: digest, AnchoredAt: r.now().UTC()}, nil
}

func writeFailure(chainID string, err error) error {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return trusterr.NewRetryable(fmt.Errorf("anchor on %s: %w", chainID, err))
	}

	if trusterr.KindOf(err) == trusterr.AnchorWriteFailure {
		return fmt.Errorf("anchor on %s: %w", chainID, err)
	}

	return trusterr.Wrap(trusterr.AnchorWriteFailure, err, "anchor on %s", chainID)
}

// Read returns the payload anchored at ref. A payload whose digest differs from the
// anchored one fails with DigestMismatch.
func (r *Registry) Read(ctx context.Context, ref Ref) (*claim.Node, error) {
	ctx, span := r.tracer.Start(ctx, "anchor.Read", trace.WithAttributes(
		attribute.String("chain", ref.ChainID), attribute.String("tx_ref", ref.TxRef)))
	defer span.End()

	digest, payloadRef, err := r.readTx(ctx, ref)
	if err != nil {
		return nil, err
	}

	data, err := r.payloads.Get(payloadRef)
	if err != nil {
		return nil, err
	}

	if !bytes.Equal(Digest(data), digest) {
		return nil, trusterr.New(trusterr.DigestMismatch, "payload %s does not match the digest anchored at %s",
			payloadRef, ref.TxRef)
	}

	return claim.Parse(data)
}

// VerifyIntegrity reports whether candidate's canonical digest equals the digest
// anchored at ref.
func (r *Registry) VerifyIntegrity(ctx context.Context, ref Ref, candidate *claim.Node) (bool, error) {
	ctx, span := r.tracer.Start(ctx, "anchor.VerifyIntegrity", trace.WithAttributes(
		attribute.String("chain", ref.ChainID), attribute.String("tx_ref", ref.TxRef)))
	defer span.End()

	digest, _, err := r.readTx(ctx, ref)
	if err != nil {
		return false, err
	}

	candidateDigest, err := claim.Digest(candidate)
	if err != nil {
		return false, err
	}

	ok := bytes.Equal(candidateDigest, digest)

	span.SetAttributes(attribute.Bool("intact", ok))

	return ok, nil
}

func (r *Registry) readTx(ctx context.Context, ref Ref) ([]byte, string, error) {
	client, ok := r.client(ref.ChainID)
	if !ok {
		return nil, "", fmt.Errorf("chain %s is not registered", ref.ChainID)
	}

	digest, payloadRef, err := client.Read(ctx, ref.TxRef)
	if err != nil {
		return nil, "", fmt.Errorf("read %s on %s: %w", ref.TxRef, ref.ChainID, err)
	}

	return digest, payloadRef, nil
}

// PayloadStore keeps canonical payload bytes addressed by their digest.
type PayloadStore struct {
	store spi.Store
}

// NewPayloadStore opens the payload store of p.
func NewPayloadStore(p spi.Provider) (*PayloadStore, error) {
	store, err := p.OpenStore(PayloadStoreName)
	if err != nil {
		return nil, fmt.Errorf("open anchor payload store: %w", err)
	}

	return &PayloadStore{store: store}, nil
}

// Digest is the SHA-256 of canonical payload bytes.
func Digest(data []byte) []byte {
	sum := sha256.Sum256(data)

	return sum[:]
}

// Put keeps data and returns its digest and reference.
func (s *PayloadStore) Put(data []byte) ([]byte, string, error) {
	digest := Digest(data)
	ref := hex.EncodeToString(digest)

	if err := s.store.Insert(ref, data); err != nil && !errors.Is(err, spi.ErrDuplicateKey) {
		return nil, "", err
	}

	return digest, ref, nil
}

// Get returns the payload kept under ref.
func (s *PayloadStore) Get(ref string) ([]byte, error) {
	data, err := s.store.Get(ref)
	if err != nil {
		return nil, fmt.Errorf("payload %s: %w", ref, err)
	}

	return data, nil
}
