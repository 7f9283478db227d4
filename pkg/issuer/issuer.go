/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

// Package issuer signs credentials, optionally replacing the subject with salted
// per-leaf commitments for selective disclosure.
package issuer

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/tink/go/subtle/random"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/hyperledger/aries-trust-core/pkg/common/log"
	"github.com/hyperledger/aries-trust-core/pkg/common/trusterr"
	"github.com/hyperledger/aries-trust-core/pkg/doc/claim"
	"github.com/hyperledger/aries-trust-core/pkg/doc/did"
	"github.com/hyperledger/aries-trust-core/pkg/doc/signature/suite"
	"github.com/hyperledger/aries-trust-core/pkg/doc/verifiable"
	"github.com/hyperledger/aries-trust-core/pkg/kms"
	"github.com/hyperledger/aries-trust-core/pkg/observability/metrics"
	"github.com/hyperledger/aries-trust-core/pkg/observability/metrics/noop"
)

// DefaultSaltSize is the size of commitment salts in bytes.
const DefaultSaltSize = verifiable.MinSaltSize

var logger = log.New("trustcore/issuer")

// Resolver resolves DIDs.
type Resolver interface {
	Resolve(ctx context.Context, id did.DID) (*did.Doc, error)
}

// Option configures an Issuer.
type Option func(i *Issuer)

// WithClock sets the time source.
func WithClock(now func() time.Time) Option {
	return func(i *Issuer) {
		i.now = now
	}
}

// WithMetrics sets the metrics sink.
func WithMetrics(m metrics.Metrics) Option {
	return func(i *Issuer) {
		i.metrics = m
	}
}

// WithTracer sets the tracer.
func WithTracer(tracer trace.Tracer) Option {
	return func(i *Issuer) {
		i.tracer = tracer
	}
}

// Issuer issues credentials signed by keys held in a key manager.
type Issuer struct {
	kms      kms.KeyManager
	resolver Resolver
	suites   *suite.Registry
	now      func() time.Time
	metrics  metrics.Metrics
	tracer   trace.Tracer
}

// New creates an Issuer.
func New(km kms.KeyManager, resolver Resolver, suites *suite.Registry, opts ...Option) *Issuer {
	i := &Issuer{
		kms:      km,
		resolver: resolver,
		suites:   suites,
		now:      time.Now,
		metrics:  noop.GetMetrics(),
		tracer:   otel.Tracer("trustcore/issuer"),
	}

	for _, opt := range opts {
		opt(i)
	}

	return i
}

type issueOpts struct {
	id                  string
	types               []string
	expiresAt           *time.Time
	selectiveDisclosure bool
	suiteID             string
	saltSize            int
}

// IssueOpt configures a single issuance.
type IssueOpt func(opts *issueOpts)

// WithID sets the credential ID. Defaults to a random urn:uuid.
func WithID(id string) IssueOpt {
	return func(opts *issueOpts) {
		opts.id = id
	}
}

// WithTypes adds credential types after VerifiableCredential.
func WithTypes(types ...string) IssueOpt {
	return func(opts *issueOpts) {
		opts.types = append(opts.types, types...)
	}
}

// WithExpiresAt sets the expiration date.
func WithExpiresAt(t time.Time) IssueOpt {
	return func(opts *issueOpts) {
		opts.expiresAt = &t
	}
}

// WithSelectiveDisclosure replaces the subject with salted commitments to each of its leaves.
func WithSelectiveDisclosure() IssueOpt {
	return func(opts *issueOpts) {
		opts.selectiveDisclosure = true
	}
}

// WithSuite selects the signature suite. Defaults to the first suite accepting the key.
func WithSuite(id string) IssueOpt {
	return func(opts *issueOpts) {
		opts.suiteID = id
	}
}

// WithSaltSize sets the salt size, at least verifiable.MinSaltSize bytes.
func WithSaltSize(size int) IssueOpt {
	return func(opts *issueOpts) {
		opts.saltSize = size
	}
}

// Issue signs subject as a credential of issuerDID with the key keyID. keyID is a
// verification method of the issuer's DID document, as a DID URL or bare fragment.
// A key the document does not list fails with KeyNotAuthorized and nothing is issued.
func (i *Issuer) Issue(ctx context.Context, subject *claim.Node, issuerDID did.DID, keyID string,
	opts ...IssueOpt) (*verifiable.Credential, error) {
	ctx, span := i.tracer.Start(ctx, "issuer.Issue")
	defer span.End()

	span.SetAttributes(attribute.String("issuer", issuerDID.String()), attribute.String("key_id", keyID))

	start := time.Now()

	o := &issueOpts{saltSize: DefaultSaltSize}

	for _, opt := range opts {
		opt(o)
	}

	if subject == nil {
		return nil, errors.New("issue: subject is required")
	}

	if o.saltSize < verifiable.MinSaltSize {
		return nil, fmt.Errorf("issue: salt size %d is below %d bytes", o.saltSize, verifiable.MinSaltSize)
	}

	vmID, handle, err := i.authorize(ctx, issuerDID, keyID)
	if err != nil {
		span.RecordError(err)

		return nil, err
	}

	vc, err := i.assemble(subject, issuerDID, o)
	if err != nil {
		return nil, err
	}

	payload, err := vc.SigningPayload()
	if err != nil {
		return nil, err
	}

	signStart := time.Now()

	vc.Proof, err = i.suites.Generate(payload, i.kms, handle, vmID,
		suite.WithSuite(o.suiteID), suite.WithCreated(i.now()))
	if err != nil {
		return nil, fmt.Errorf("issue: %w", err)
	}

	i.metrics.SignTime(time.Since(signStart))
	i.metrics.IssueTime(time.Since(start))

	logger.Debugf("issued credential %s by %s", vc.ID, issuerDID)

	return vc, nil
}

// authorize checks that keyID is a verification method of issuerDID and that the
// key manager holds its private key.
func (i *Issuer) authorize(ctx context.Context, issuerDID did.DID, keyID string) (string, kms.KeyHandle, error) {
	doc, err := i.resolver.Resolve(ctx, issuerDID)
	if err != nil {
		return "", kms.KeyHandle{}, trusterr.Wrap(trusterr.KeyNotAuthorized, err, "resolve issuer %s", issuerDID)
	}

	vm, ok := doc.VerificationMethodByID(keyID)
	if !ok {
		return "", kms.KeyHandle{}, trusterr.New(trusterr.KeyNotAuthorized,
			"key %s is not a verification method of %s", keyID, issuerDID)
	}

	vmID := vm.ID
	if strings.HasPrefix(vmID, "#") {
		vmID = doc.ID + vmID
	}

	_, fragment := did.SplitURL(vmID)

	pub, kt, err := i.kms.PublicKey(fragment)
	if err != nil {
		return "", kms.KeyHandle{}, err
	}

	if kt != vm.Algorithm || !bytes.Equal(pub, vm.Value) {
		return "", kms.KeyHandle{}, trusterr.New(trusterr.KeyNotAuthorized,
			"key %s does not match verification method %s", fragment, vmID)
	}

	return vmID, kms.KeyHandle{KeyID: fragment, Type: kt}, nil
}

func (i *Issuer) assemble(subject *claim.Node, issuerDID did.DID, o *issueOpts) (*verifiable.Credential, error) {
	id := o.id
	if id == "" {
		id = "urn:uuid:" + uuid.NewString()
	}

	vc := &verifiable.Credential{
		ID:       id,
		Types:    append([]string{verifiable.VCType}, o.types...),
		Issuer:   issuerDID,
		IssuedAt: i.now().UTC().Truncate(time.Second),
	}

	if o.expiresAt != nil {
		expires := o.expiresAt.UTC().Truncate(time.Second)
		vc.ExpiresAt = &expires
	}

	if !o.selectiveDisclosure {
		vc.Subject = subject.Clone()

		return vc, nil
	}

	for _, leaf := range claim.Leaves(subject) {
		d := verifiable.Disclosure{
			FieldPath: leaf.Path,
			Value:     leaf.Value.Clone(),
			Salt:      random.GetRandomBytes(uint32(o.saltSize)),
		}

		c, err := d.Commitment()
		if err != nil {
			return nil, err
		}

		vc.Commitments = append(vc.Commitments, c)
		vc.Disclosures = append(vc.Disclosures, d)
	}

	return vc, nil
}
