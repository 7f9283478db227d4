/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

// Package suite holds the signature suite registry: it creates and verifies proofs
// with the suite a proof names.
package suite

import (
	"fmt"
	"sync"
	"time"

	"github.com/hyperledger/aries-trust-core/pkg/common/trusterr"
	"github.com/hyperledger/aries-trust-core/pkg/doc/signature/proof"
	"github.com/hyperledger/aries-trust-core/pkg/doc/signature/suite/ecdsasecp256k1signature2019"
	"github.com/hyperledger/aries-trust-core/pkg/doc/signature/suite/ed25519signature2020"
	"github.com/hyperledger/aries-trust-core/pkg/doc/signature/suite/jsonwebsignature2020"
	"github.com/hyperledger/aries-trust-core/pkg/kms"
)

// Suite signs and verifies with one signature algorithm family.
type Suite interface {
	// ID returns the proof type produced by the suite.
	ID() string
	// Accept reports whether the suite can sign with keys of type kt.
	Accept(kt kms.KeyType) bool
	// Sign signs data with a key held by km.
	Sign(km kms.KeyManager, keyID string, data []byte) ([]byte, error)
	// Verify checks signature over data.
	Verify(pubKey []byte, kt kms.KeyType, data, signature []byte) error
}

// Registry holds the signature suites known to an instance.
type Registry struct {
	mu     sync.RWMutex
	suites []Suite
}

// NewRegistry creates a registry. Suites are tried in order when a proof is
// generated without naming one.
func NewRegistry(suites ...Suite) *Registry {
	return &Registry{suites: suites}
}

// NewDefaultRegistry returns a registry with Ed25519Signature2020,
// EcdsaSecp256k1Signature2019 and JsonWebSignature2020.
func NewDefaultRegistry() *Registry {
	return NewRegistry(ed25519signature2020.New(), ecdsasecp256k1signature2019.New(), jsonwebsignature2020.New())
}

// Register adds a suite, replacing a registered suite with the same ID.
func (r *Registry) Register(s Suite) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for i, registered := range r.suites {
		if registered.ID() == s.ID() {
			r.suites[i] = s

			return
		}
	}

	r.suites = append(r.suites, s)
}

// Get returns the suite with the given ID.
func (r *Registry) Get(id string) (Suite, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, s := range r.suites {
		if s.ID() == id {
			return s, nil
		}
	}

	return nil, fmt.Errorf("signature suite %s not supported", id)
}

// ForKeyType returns the first suite accepting kt.
func (r *Registry) ForKeyType(kt kms.KeyType) (Suite, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, s := range r.suites {
		if s.Accept(kt) {
			return s, nil
		}
	}

	return nil, fmt.Errorf("no signature suite for key type %s", kt)
}

type generateOpts struct {
	suiteID   string
	challenge string
	created   time.Time
}

// GenerateOpt configures proof generation.
type GenerateOpt func(opts *generateOpts)

// WithSuite selects the suite by ID.
func WithSuite(id string) GenerateOpt {
	return func(opts *generateOpts) {
		opts.suiteID = id
	}
}

// WithChallenge embeds a verifier challenge in the proof.
func WithChallenge(challenge string) GenerateOpt {
	return func(opts *generateOpts) {
		opts.challenge = challenge
	}
}

// WithCreated sets the proof creation time. Defaults to now.
func WithCreated(t time.Time) GenerateOpt {
	return func(opts *generateOpts) {
		opts.created = t
	}
}

// Generate signs data with the key behind handle and returns the proof naming
// vmID as verification method.
func (r *Registry) Generate(data []byte, km kms.KeyManager, handle kms.KeyHandle, vmID string,
	opts ...GenerateOpt) (*proof.Proof, error) {
	o := &generateOpts{created: time.Now()}

	for _, opt := range opts {
		opt(o)
	}

	var (
		s   Suite
		err error
	)

	if o.suiteID != "" {
		s, err = r.Get(o.suiteID)
	} else {
		s, err = r.ForKeyType(handle.Type)
	}

	if err != nil {
		return nil, err
	}

	if !s.Accept(handle.Type) {
		return nil, fmt.Errorf("signature suite %s does not accept key type %s", s.ID(), handle.Type)
	}

	p := &proof.Proof{
		SuiteID:              s.ID(),
		VerificationMethodID: vmID,
		Created:              o.created.UTC().Truncate(time.Second),
		Challenge:            o.challenge,
	}

	input, err := p.SigningInput(data)
	if err != nil {
		return nil, err
	}

	p.Signature, err = s.Sign(km, handle.KeyID, input)
	if err != nil {
		return nil, fmt.Errorf("sign with %s: %w", s.ID(), err)
	}

	return p, nil
}

// Verify checks that p signs data under pubKey. Every failure is of kind InvalidProof.
func (r *Registry) Verify(data []byte, p *proof.Proof, pubKey []byte, kt kms.KeyType) error {
	if p == nil {
		return trusterr.New(trusterr.InvalidProof, "missing proof")
	}

	s, err := r.Get(p.SuiteID)
	if err != nil {
		return trusterr.Wrap(trusterr.InvalidProof, err, "verify proof")
	}

	input, err := p.SigningInput(data)
	if err != nil {
		return trusterr.Wrap(trusterr.InvalidProof, err, "verify proof")
	}

	if err := s.Verify(pubKey, kt, input, p.Signature); err != nil {
		return trusterr.Wrap(trusterr.InvalidProof, err, "verify %s proof", s.ID())
	}

	return nil
}
