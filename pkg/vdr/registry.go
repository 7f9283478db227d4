/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

// Package vdr provides the DID registry: DID creation over a key manager and
// resolution dispatched to registered DID methods.
package vdr

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/bluele/gcache"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/hyperledger/aries-trust-core/pkg/common/log"
	"github.com/hyperledger/aries-trust-core/pkg/common/trusterr"
	"github.com/hyperledger/aries-trust-core/pkg/doc/did"
	"github.com/hyperledger/aries-trust-core/pkg/kms"
	"github.com/hyperledger/aries-trust-core/pkg/observability/metrics"
	"github.com/hyperledger/aries-trust-core/pkg/observability/metrics/noop"
	"github.com/hyperledger/aries-trust-core/pkg/vdr/api"
)

const (
	defaultResolveTimeout = 10 * time.Second
	tracerName            = "trustcore/vdr"
)

var logger = log.New("trustcore/vdr")

// Option is a vdr instance option.
type Option func(opts *Registry)

// WithVDR adds did method implementation.
func WithVDR(method api.VDR) Option {
	return func(opts *Registry) {
		opts.vdr = append(opts.vdr, method)
	}
}

// WithResolveTimeout bounds every resolution. Zero disables the registry timeout;
// the caller's context deadline still applies.
func WithResolveTimeout(timeout time.Duration) Option {
	return func(opts *Registry) {
		opts.resolveTimeout = timeout
	}
}

// WithCache memoizes resolved documents in an LRU cache of the given size and TTL.
func WithCache(size int, ttl time.Duration) Option {
	return func(opts *Registry) {
		opts.cache = gcache.New(size).LRU().Expiration(ttl).Build()
	}
}

// WithMetrics sets the metrics sink.
func WithMetrics(m metrics.Metrics) Option {
	return func(opts *Registry) {
		opts.metrics = m
	}
}

// WithTracer sets the tracer used for resolution spans.
func WithTracer(tracer trace.Tracer) Option {
	return func(opts *Registry) {
		opts.tracer = tracer
	}
}

// Registry vdr registry.
type Registry struct {
	mu             sync.RWMutex
	vdr            []api.VDR
	kms            kms.KeyManager
	resolveTimeout time.Duration
	cache          gcache.Cache
	metrics        metrics.Metrics
	tracer         trace.Tracer
}

// New return new instance of vdr registry creating keys in km.
func New(km kms.KeyManager, opts ...Option) *Registry {
	r := &Registry{
		kms:            km,
		resolveTimeout: defaultResolveTimeout,
		metrics:        noop.GetMetrics(),
		tracer:         otel.Tracer(tracerName),
	}

	for _, opt := range opts {
		opt(r)
	}

	return r
}

// Register adds a DID method. The first registered method accepting a DID serves it.
func (r *Registry) Register(method api.VDR) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.vdr = append(r.vdr, method)
}

type createOpts struct {
	keyType kms.KeyType
}

// CreateOption configures DID creation.
type CreateOption func(opts *createOpts)

// WithKeyType selects the type of the generated key. Ed25519 by default.
func WithKeyType(kt kms.KeyType) CreateOption {
	return func(opts *createOpts) {
		opts.keyType = kt
	}
}

// Create generates a key in the registry's key manager and derives a DID of the
// given method from it.
func (r *Registry) Create(ctx context.Context, method string, opts ...CreateOption) (did.DID, kms.KeyHandle, error) {
	o := &createOpts{keyType: kms.ED25519Type}

	for _, opt := range opts {
		opt(o)
	}

	v, err := r.resolveVDR(method)
	if err != nil {
		return did.DID{}, kms.KeyHandle{}, err
	}

	handle, err := r.kms.Create(o.keyType)
	if err != nil {
		return did.DID{}, kms.KeyHandle{}, fmt.Errorf("create key: %w", err)
	}

	pub, kt, err := r.kms.PublicKey(handle.KeyID)
	if err != nil {
		return did.DID{}, kms.KeyHandle{}, fmt.Errorf("export public key: %w", err)
	}

	doc, err := v.Create(ctx, pub, kt, handle.KeyID)
	if err != nil {
		return did.DID{}, kms.KeyHandle{}, fmt.Errorf("create did:%s: %w", method, err)
	}

	id, err := did.Parse(doc.ID)
	if err != nil {
		return did.DID{}, kms.KeyHandle{}, fmt.Errorf("create did:%s: %w", method, err)
	}

	logger.Infof("created %s for key %s", id, handle.KeyID)

	return id, handle, nil
}

// ResolveString parses and resolves a DID string.
func (r *Registry) ResolveString(ctx context.Context, didID string) (*did.Doc, error) {
	id, err := did.Parse(didID)
	if err != nil {
		return nil, trusterr.Wrap(trusterr.DidNotFound, err, "resolve")
	}

	return r.Resolve(ctx, id)
}

// Resolve returns the DID document of id. Failures are of kind DidNotFound, including
// resolutions cut short by a deadline, or DidMethodUnsupported.
func (r *Registry) Resolve(ctx context.Context, id did.DID) (*did.Doc, error) {
	ctx, span := r.tracer.Start(ctx, "vdr.Resolve")
	defer span.End()

	span.SetAttributes(attribute.String("did", id.String()))

	start := time.Now()

	doc, err := r.resolve(ctx, id)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		r.metrics.ResolveFailed(id.Method)

		logger.Debugf("resolve %s: %s", id, err)

		return nil, err
	}

	r.metrics.ResolveTime(id.Method, time.Since(start))

	return doc, nil
}

func (r *Registry) resolve(ctx context.Context, id did.DID) (*did.Doc, error) {
	if r.cache != nil {
		if cached, err := r.cache.Get(id.String()); err == nil {
			return cached.(*did.Doc), nil //nolint:forcetypeassert
		}
	}

	method, err := r.resolveVDR(id.Method)
	if err != nil {
		return nil, err
	}

	if r.resolveTimeout > 0 {
		var cancel context.CancelFunc

		ctx, cancel = context.WithTimeout(ctx, r.resolveTimeout)
		defer cancel()
	}

	type result struct {
		doc *did.Doc
		err error
	}

	done := make(chan result, 1)

	go func() {
		doc, readErr := method.Read(ctx, id)
		done <- result{doc: doc, err: readErr}
	}()

	var res result

	select {
	case res = <-done:
	case <-ctx.Done():
		return nil, trusterr.Wrap(trusterr.DidNotFound, ctx.Err(), "resolve %s", id)
	}

	switch {
	case errors.Is(res.err, api.ErrNotFound):
		return nil, trusterr.Wrap(trusterr.DidNotFound, res.err, "resolve %s", id)
	case res.err != nil:
		return nil, trusterr.Wrap(trusterr.DidNotFound, res.err, "did method read failed for %s", id)
	case res.doc == nil || res.doc.ID != id.String():
		return nil, trusterr.New(trusterr.DidNotFound, "resolver returned no document for %s", id)
	}

	if r.cache != nil {
		if err := r.cache.Set(id.String(), res.doc); err != nil {
			logger.Warnf("cache did document %s: %s", id, err)
		}
	}

	return res.doc, nil
}

func (r *Registry) resolveVDR(method string) (api.VDR, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, v := range r.vdr {
		if v.Accept(method) {
			return v, nil
		}
	}

	return nil, trusterr.New(trusterr.DidMethodUnsupported, "did method %s not supported for vdr", method)
}
