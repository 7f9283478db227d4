/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

// Package trustcore assembles the key manager, DID registry, issuer, verifier,
// disclosure engine, wallet and anchor registry over one storage provider.
package trustcore

import (
	"fmt"
	"time"

	"github.com/cenkalti/backoff/v4"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"

	"github.com/hyperledger/aries-trust-core/pkg/anchor"
	"github.com/hyperledger/aries-trust-core/pkg/anchor/localchain"
	"github.com/hyperledger/aries-trust-core/pkg/common/log"
	"github.com/hyperledger/aries-trust-core/pkg/disclosure"
	"github.com/hyperledger/aries-trust-core/pkg/doc/signature/suite"
	"github.com/hyperledger/aries-trust-core/pkg/doc/validator/jsonschema"
	"github.com/hyperledger/aries-trust-core/pkg/issuer"
	"github.com/hyperledger/aries-trust-core/pkg/kms"
	"github.com/hyperledger/aries-trust-core/pkg/kms/localkms"
	"github.com/hyperledger/aries-trust-core/pkg/observability/metrics"
	"github.com/hyperledger/aries-trust-core/pkg/observability/metrics/noop"
	"github.com/hyperledger/aries-trust-core/pkg/revocation"
	"github.com/hyperledger/aries-trust-core/pkg/secretlock"
	noopLock "github.com/hyperledger/aries-trust-core/pkg/secretlock/noop"
	"github.com/hyperledger/aries-trust-core/pkg/storage/mem"
	"github.com/hyperledger/aries-trust-core/pkg/vdr"
	"github.com/hyperledger/aries-trust-core/pkg/vdr/api"
	"github.com/hyperledger/aries-trust-core/pkg/vdr/key"
	"github.com/hyperledger/aries-trust-core/pkg/vdr/peer"
	"github.com/hyperledger/aries-trust-core/pkg/verifier"
	"github.com/hyperledger/aries-trust-core/pkg/wallet"
	spi "github.com/hyperledger/aries-trust-core/spi/storage"
)

// DefaultLocalChain is the ledger registered when no chain is configured.
const DefaultLocalChain = "local"

var logger = log.New("trustcore/framework")

// TrustCore holds the wired services. Build it with New or NewFromConfig.
type TrustCore struct {
	storeProvider   spi.Provider
	secretLock      secretlock.Service
	kms             kms.KeyManager
	vdr             []api.VDR
	vdrOpts         []vdr.Option
	vdrRegistry     *vdr.Registry
	suites          *suite.Registry
	revocations     *revocation.List
	oracle          verifier.RevocationOracle
	schemas         verifier.SchemaValidator
	jsonSchemas     *jsonschema.CachingValidator
	metricsProvider metrics.Provider
	metrics         metrics.Metrics
	tracer          trace.Tracer
	now             func() time.Time
	challengeSize   int
	challengeTTL    time.Duration
	localChains     []string
	chains          map[string]anchor.ChainClient
	chainOrder      []string
	anchorOpts      []anchor.Option
	issuer          *issuer.Issuer
	verifier        *verifier.Verifier
	disclosure      *disclosure.Engine
	wallet          *wallet.Wallet
	anchors         *anchor.Registry
}

// Option configures the framework.
type Option func(opts *TrustCore) error

// New wires the services from the options. Services left unset get in-memory defaults.
func New(opts ...Option) (*TrustCore, error) {
	t := &TrustCore{chains: map[string]anchor.ChainClient{}}

	for _, option := range opts {
		if err := option(t); err != nil {
			closeErr := t.Close()

			return nil, fmt.Errorf("close err: %v Error in option passed to New: %w", closeErr, err)
		}
	}

	if err := defFrameworkOpts(t); err != nil {
		return nil, fmt.Errorf("default option initialization failed: %w", err)
	}

	if err := initializeServices(t); err != nil {
		closeErr := t.Close()

		return nil, fmt.Errorf("close err: %v service initialization failed: %w", closeErr, err)
	}

	return t, nil
}

func defFrameworkOpts(t *TrustCore) error {
	if t.storeProvider == nil {
		t.storeProvider = mem.NewProvider()
	}

	if t.secretLock == nil {
		t.secretLock = noopLock.NoLock{}
	}

	if t.suites == nil {
		t.suites = suite.NewDefaultRegistry()
	}

	if t.schemas == nil {
		t.jsonSchemas = jsonschema.NewCachingValidator()
		t.schemas = t.jsonSchemas
	}

	if t.tracer == nil {
		t.tracer = otel.Tracer("trustcore")
	}

	if t.now == nil {
		t.now = time.Now
	}

	if len(t.localChains) == 0 && len(t.chains) == 0 {
		t.localChains = []string{DefaultLocalChain}
	}

	return nil
}

func initializeServices(t *TrustCore) error {
	// Order matters: the registry needs the key manager, everything else needs the registry.
	if err := createMetrics(t); err != nil {
		return err
	}

	if err := createKMS(t); err != nil {
		return err
	}

	if err := createVDR(t); err != nil {
		return err
	}

	if err := createCredentialServices(t); err != nil {
		return err
	}

	if err := createWallet(t); err != nil {
		return err
	}

	return createAnchors(t)
}

func createMetrics(t *TrustCore) error {
	if t.metricsProvider == nil {
		t.metrics = noop.GetMetrics()

		return nil
	}

	if err := t.metricsProvider.Create(); err != nil {
		return fmt.Errorf("create metrics provider: %w", err)
	}

	t.metrics = t.metricsProvider.Metrics()

	return nil
}

func createKMS(t *TrustCore) error {
	if t.kms != nil {
		return nil
	}

	km, err := localkms.New(t)
	if err != nil {
		return fmt.Errorf("create local kms: %w", err)
	}

	logger.Infof("local kms instance %s", km.InstanceID())

	t.kms = km

	return nil
}

func createVDR(t *TrustCore) error {
	opts := append([]vdr.Option{vdr.WithMetrics(t.metrics), vdr.WithTracer(t.tracer)}, t.vdrOpts...)

	t.vdrRegistry = vdr.New(t.kms, opts...)

	for _, v := range t.vdr {
		t.vdrRegistry.Register(v)
	}

	p, err := peer.New(t.storeProvider)
	if err != nil {
		return fmt.Errorf("create did:peer vdr: %w", err)
	}

	t.vdrRegistry.Register(key.New())
	t.vdrRegistry.Register(p)

	return nil
}

func createCredentialServices(t *TrustCore) error {
	if t.oracle == nil {
		list, err := revocation.New(t.storeProvider)
		if err != nil {
			return fmt.Errorf("create revocation list: %w", err)
		}

		t.revocations = list
		t.oracle = list
	}

	t.issuer = issuer.New(t.kms, t.vdrRegistry, t.suites,
		issuer.WithClock(t.now), issuer.WithMetrics(t.metrics), issuer.WithTracer(t.tracer))

	t.verifier = verifier.New(t.vdrRegistry, t.suites,
		verifier.WithRevocationOracle(t.oracle),
		verifier.WithSchemaValidator(t.schemas),
		verifier.WithClock(t.now),
		verifier.WithMetrics(t.metrics),
		verifier.WithTracer(t.tracer))

	opts := []disclosure.Option{disclosure.WithClock(t.now), disclosure.WithTracer(t.tracer)}
	if t.challengeSize > 0 {
		opts = append(opts, disclosure.WithChallengeTracking(t.challengeSize, t.challengeTTL))
	}

	t.disclosure = disclosure.New(t.kms, t.vdrRegistry, t.suites, t.verifier, opts...)

	return nil
}

func createWallet(t *TrustCore) error {
	w, err := wallet.New(t.storeProvider, wallet.WithClock(t.now))
	if err != nil {
		return fmt.Errorf("create wallet: %w", err)
	}

	t.wallet = w

	return nil
}

func createAnchors(t *TrustCore) error {
	opts := append([]anchor.Option{
		anchor.WithMetrics(t.metrics),
		anchor.WithTracer(t.tracer),
		anchor.WithClock(t.now),
	}, t.anchorOpts...)

	registry, err := anchor.New(t.storeProvider, opts...)
	if err != nil {
		return fmt.Errorf("create anchor registry: %w", err)
	}

	for _, id := range t.localChains {
		ledger, e := localchain.New(t.storeProvider, id, localchain.WithClock(t.now))
		if e != nil {
			return fmt.Errorf("create local chain %s: %w", id, e)
		}

		if e = registry.Register(id, ledger); e != nil {
			return e
		}
	}

	for _, id := range t.chainOrder {
		if err = registry.Register(id, t.chains[id]); err != nil {
			return err
		}
	}

	logger.Debugf("anchor chains registered: %v", registry.Chains())

	t.anchors = registry

	return nil
}

// WithStoreProvider sets the storage backing keys, DID documents, the wallet,
// revocations and anchor payloads.
func WithStoreProvider(p spi.Provider) Option {
	return func(opts *TrustCore) error {
		opts.storeProvider = p

		return nil
	}
}

// WithSecretLock sets the lock protecting locally stored keys.
func WithSecretLock(s secretlock.Service) Option {
	return func(opts *TrustCore) error {
		opts.secretLock = s

		return nil
	}
}

// WithKMS replaces the local key manager.
func WithKMS(km kms.KeyManager) Option {
	return func(opts *TrustCore) error {
		opts.kms = km

		return nil
	}
}

// WithVDR registers a DID method ahead of the built-in did:key and did:peer methods.
func WithVDR(v api.VDR) Option {
	return func(opts *TrustCore) error {
		opts.vdr = append(opts.vdr, v)

		return nil
	}
}

// WithResolveTimeout bounds DID resolution.
func WithResolveTimeout(timeout time.Duration) Option {
	return func(opts *TrustCore) error {
		opts.vdrOpts = append(opts.vdrOpts, vdr.WithResolveTimeout(timeout))

		return nil
	}
}

// WithResolveCache caches resolved documents.
func WithResolveCache(size int, ttl time.Duration) Option {
	return func(opts *TrustCore) error {
		if size <= 0 {
			return fmt.Errorf("invalid resolve cache size %d", size)
		}

		opts.vdrOpts = append(opts.vdrOpts, vdr.WithCache(size, ttl))

		return nil
	}
}

// WithSuites replaces the default signature suites.
func WithSuites(suites *suite.Registry) Option {
	return func(opts *TrustCore) error {
		opts.suites = suites

		return nil
	}
}

// WithRevocationOracle replaces the stored revocation list.
func WithRevocationOracle(oracle verifier.RevocationOracle) Option {
	return func(opts *TrustCore) error {
		opts.oracle = oracle

		return nil
	}
}

// WithSchemaValidator replaces the JSON schema validator.
func WithSchemaValidator(validator verifier.SchemaValidator) Option {
	return func(opts *TrustCore) error {
		opts.schemas = validator

		return nil
	}
}

// WithChallengeTracking makes presentation challenges single use.
func WithChallengeTracking(size int, ttl time.Duration) Option {
	return func(opts *TrustCore) error {
		if size <= 0 {
			return fmt.Errorf("invalid challenge cache size %d", size)
		}

		opts.challengeSize = size
		opts.challengeTTL = ttl

		return nil
	}
}

// WithLocalChain registers a ledger kept in the store provider under the given chain ID.
func WithLocalChain(chainID string) Option {
	return func(opts *TrustCore) error {
		opts.localChains = append(opts.localChains, chainID)

		return nil
	}
}

// WithChainClient registers an external ledger.
func WithChainClient(chainID string, client anchor.ChainClient) Option {
	return func(opts *TrustCore) error {
		if _, ok := opts.chains[chainID]; ok {
			return fmt.Errorf("chain %s registered twice", chainID)
		}

		opts.chains[chainID] = client
		opts.chainOrder = append(opts.chainOrder, chainID)

		return nil
	}
}

// WithAnchorWriteTimeout bounds a single anchor write including retries.
func WithAnchorWriteTimeout(timeout time.Duration) Option {
	return func(opts *TrustCore) error {
		opts.anchorOpts = append(opts.anchorOpts, anchor.WithWriteTimeout(timeout))

		return nil
	}
}

// WithAnchorMaxRetries caps retries of transient anchor write failures.
func WithAnchorMaxRetries(retries int) Option {
	return func(opts *TrustCore) error {
		if retries < 0 {
			return fmt.Errorf("invalid anchor retries %d", retries)
		}

		opts.anchorOpts = append(opts.anchorOpts, anchor.WithBackOff(func() backoff.BackOff {
			return backoff.WithMaxRetries(backoff.NewExponentialBackOff(), uint64(retries))
		}))

		return nil
	}
}

// WithMetricsProvider enables metrics.
func WithMetricsProvider(p metrics.Provider) Option {
	return func(opts *TrustCore) error {
		opts.metricsProvider = p

		return nil
	}
}

// WithTracer sets the tracer of all services.
func WithTracer(tracer trace.Tracer) Option {
	return func(opts *TrustCore) error {
		opts.tracer = tracer

		return nil
	}
}

// WithClock sets the time source of all services.
func WithClock(now func() time.Time) Option {
	return func(opts *TrustCore) error {
		opts.now = now

		return nil
	}
}

// StorageProvider returns the storage provider.
func (t *TrustCore) StorageProvider() spi.Provider {
	return t.storeProvider
}

// SecretLock returns the secret lock.
func (t *TrustCore) SecretLock() secretlock.Service {
	return t.secretLock
}

// KMS returns the key manager.
func (t *TrustCore) KMS() kms.KeyManager {
	return t.kms
}

// VDRegistry returns the DID registry.
func (t *TrustCore) VDRegistry() *vdr.Registry {
	return t.vdrRegistry
}

// Suites returns the signature suites.
func (t *TrustCore) Suites() *suite.Registry {
	return t.suites
}

// Issuer returns the credential issuer.
func (t *TrustCore) Issuer() *issuer.Issuer {
	return t.issuer
}

// Verifier returns the credential verifier.
func (t *TrustCore) Verifier() *verifier.Verifier {
	return t.verifier
}

// Disclosure returns the selective disclosure engine.
func (t *TrustCore) Disclosure() *disclosure.Engine {
	return t.disclosure
}

// Wallet returns the credential wallet.
func (t *TrustCore) Wallet() *wallet.Wallet {
	return t.wallet
}

// Anchors returns the anchor registry.
func (t *TrustCore) Anchors() *anchor.Registry {
	return t.anchors
}

// Revocations returns the stored revocation list, or nil when an external oracle is used.
func (t *TrustCore) Revocations() *revocation.List {
	return t.revocations
}

// JSONSchemas returns the built-in schema registry, or nil when an external validator is used.
func (t *TrustCore) JSONSchemas() *jsonschema.CachingValidator {
	return t.jsonSchemas
}

// Close releases the metrics provider and the storage.
func (t *TrustCore) Close() error {
	if t.metricsProvider != nil {
		if err := t.metricsProvider.Destroy(); err != nil {
			return fmt.Errorf("failed to destroy metrics provider: %w", err)
		}
	}

	if t.storeProvider != nil {
		if err := t.storeProvider.Close(); err != nil {
			return fmt.Errorf("failed to close the store: %w", err)
		}
	}

	return nil
}
