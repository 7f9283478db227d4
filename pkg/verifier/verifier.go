/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

//go:generate mockgen -destination verifier_mocks_test.go -package verifier -source=verifier.go

// Package verifier checks credentials. Every requested check runs and is reported
// on its own, so an expired but authentic credential is distinguishable from a forged one.
package verifier

import (
	"context"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/hyperledger/aries-trust-core/pkg/common/log"
	"github.com/hyperledger/aries-trust-core/pkg/common/trusterr"
	"github.com/hyperledger/aries-trust-core/pkg/doc/claim"
	"github.com/hyperledger/aries-trust-core/pkg/doc/did"
	"github.com/hyperledger/aries-trust-core/pkg/doc/signature/proof"
	"github.com/hyperledger/aries-trust-core/pkg/doc/signature/suite"
	"github.com/hyperledger/aries-trust-core/pkg/doc/verifiable"
	"github.com/hyperledger/aries-trust-core/pkg/observability/metrics"
	"github.com/hyperledger/aries-trust-core/pkg/observability/metrics/noop"
)

var logger = log.New("trustcore/verifier")

// Resolver resolves DIDs.
type Resolver interface {
	Resolve(ctx context.Context, id did.DID) (*did.Doc, error)
}

// RevocationOracle tells whether a credential has been revoked.
type RevocationOracle interface {
	IsRevoked(ctx context.Context, credentialID string) (bool, error)
}

// SchemaValidator validates a credential subject against a schema reference.
type SchemaValidator interface {
	Validate(subject *claim.Node, schemaRef string) error
}

// Result reports each check. Checks that were not requested report true.
type Result struct {
	ProofValid  bool              `json:"proofValid"`
	IssuerValid bool              `json:"issuerValid"`
	NotExpired  bool              `json:"notExpired"`
	NotRevoked  bool              `json:"notRevoked"`
	SchemaValid bool              `json:"schemaValid"`
	Errors      []trusterr.Kind   `json:"errors,omitempty"`
	Details     map[string]string `json:"details,omitempty"`
}

// Valid is the conjunction of all checks.
func (r *Result) Valid() bool {
	return r.ProofValid && r.IssuerValid && r.NotExpired && r.NotRevoked && r.SchemaValid
}

// Has reports whether the result carries an error of kind k.
func (r *Result) Has(k trusterr.Kind) bool {
	for _, e := range r.Errors {
		if e == k {
			return true
		}
	}

	return false
}

func (r *Result) fail(err error) {
	kind := trusterr.KindOf(err)
	r.Errors = append(r.Errors, kind)

	if r.Details == nil {
		r.Details = make(map[string]string)
	}

	r.Details[kind.String()] = err.Error()
}

// Option configures a Verifier.
type Option func(v *Verifier)

// WithRevocationOracle sets the revocation collaborator.
func WithRevocationOracle(oracle RevocationOracle) Option {
	return func(v *Verifier) {
		v.revocation = oracle
	}
}

// WithSchemaValidator sets the schema collaborator.
func WithSchemaValidator(validator SchemaValidator) Option {
	return func(v *Verifier) {
		v.schemas = validator
	}
}

// WithClock sets the time source used for expiration.
func WithClock(now func() time.Time) Option {
	return func(v *Verifier) {
		v.now = now
	}
}

// WithMetrics sets the metrics sink.
func WithMetrics(m metrics.Metrics) Option {
	return func(v *Verifier) {
		v.metrics = m
	}
}

// WithTracer sets the tracer.
func WithTracer(tracer trace.Tracer) Option {
	return func(v *Verifier) {
		v.tracer = tracer
	}
}

// Verifier verifies credentials.
type Verifier struct {
	resolver   Resolver
	suites     *suite.Registry
	revocation RevocationOracle
	schemas    SchemaValidator
	now        func() time.Time
	metrics    metrics.Metrics
	tracer     trace.Tracer
}

// New creates a Verifier.
func New(resolver Resolver, suites *suite.Registry, opts ...Option) *Verifier {
	v := &Verifier{
		resolver: resolver,
		suites:   suites,
		now:      time.Now,
		metrics:  noop.GetMetrics(),
		tracer:   otel.Tracer("trustcore/verifier"),
	}

	for _, opt := range opts {
		opt(v)
	}

	return v
}

type verifyOpts struct {
	checkExpiration bool
	checkRevocation bool
	schemaRef       string
}

// VerifyOpt selects the checks of a verification.
type VerifyOpt func(opts *verifyOpts)

// WithExpirationCheck enables or disables the expiration check. Enabled by default.
func WithExpirationCheck(enabled bool) VerifyOpt {
	return func(opts *verifyOpts) {
		opts.checkExpiration = enabled
	}
}

// WithRevocationCheck enables or disables the revocation check. Disabled by default.
func WithRevocationCheck(enabled bool) VerifyOpt {
	return func(opts *verifyOpts) {
		opts.checkRevocation = enabled
	}
}

// WithSchema validates the subject against schemaRef.
func WithSchema(schemaRef string) VerifyOpt {
	return func(opts *verifyOpts) {
		opts.schemaRef = schemaRef
	}
}

// Verify runs every requested check on vc.
func (v *Verifier) Verify(ctx context.Context, vc *verifiable.Credential, opts ...VerifyOpt) *Result {
	ctx, span := v.tracer.Start(ctx, "verifier.Verify")
	defer span.End()

	start := time.Now()

	o := &verifyOpts{checkExpiration: true}

	for _, opt := range opts {
		opt(o)
	}

	span.SetAttributes(
		attribute.String("credential_id", vc.ID),
		attribute.String("issuer", vc.Issuer.String()),
		attribute.Bool("check_expiration", o.checkExpiration),
		attribute.Bool("check_revocation", o.checkRevocation),
		attribute.String("schema", o.schemaRef),
	)

	result := &Result{ProofValid: true, IssuerValid: true, NotExpired: true, NotRevoked: true, SchemaValid: true}

	v.checkIssuerAndProof(ctx, vc, result)

	if o.checkExpiration && vc.Expired(v.now()) {
		result.NotExpired = false
		result.fail(trusterr.New(trusterr.ExpiredCredential, "credential expired at %s", vc.ExpiresAt))
	}

	if o.checkRevocation {
		if err := v.checkRevocation(ctx, vc); err != nil {
			result.NotRevoked = false
			result.fail(err)
		}
	}

	if o.schemaRef != "" {
		if err := v.checkSchema(vc, o.schemaRef); err != nil {
			result.SchemaValid = false
			result.fail(err)
		}
	}

	v.metrics.VerifyTime(time.Since(start))

	if !result.Valid() {
		v.metrics.VerifyRejected()
		span.SetAttributes(attribute.StringSlice("errors", kindNames(result.Errors)))

		logger.Debugf("credential %s rejected: %v", vc.ID, result.Errors)
	}

	return result
}

func (v *Verifier) checkIssuerAndProof(ctx context.Context, vc *verifiable.Credential, result *Result) {
	doc, err := v.resolver.Resolve(ctx, vc.Issuer)
	if err != nil {
		result.IssuerValid = false
		result.ProofValid = false
		result.fail(trusterr.Wrap(trusterr.IssuerUnresolvable, err, "resolve issuer %s", vc.Issuer))
		result.fail(trusterr.New(trusterr.InvalidProof, "no verification key for unresolvable issuer"))

		return
	}

	payload, err := vc.SigningPayload()
	if err == nil {
		err = v.verifyWithDoc(doc, payload, vc.Proof)
	}

	if err != nil {
		result.ProofValid = false
		result.fail(trusterr.Wrap(trusterr.InvalidProof, err, "credential %s", vc.ID))
	}
}

// VerifyProof checks that p signs payload with a verification method of signer's
// DID document. Resolution failures keep their kind; signature failures are InvalidProof.
func (v *Verifier) VerifyProof(ctx context.Context, signer did.DID, payload []byte, p *proof.Proof) error {
	doc, err := v.resolver.Resolve(ctx, signer)
	if err != nil {
		return err
	}

	return v.verifyWithDoc(doc, payload, p)
}

func (v *Verifier) verifyWithDoc(doc *did.Doc, payload []byte, p *proof.Proof) error {
	if p == nil {
		return trusterr.New(trusterr.InvalidProof, "missing proof")
	}

	vm, ok := doc.VerificationMethodByID(p.VerificationMethodID)
	if !ok {
		return trusterr.New(trusterr.InvalidProof,
			"verification method %s is not listed by %s", p.VerificationMethodID, doc.ID)
	}

	return v.suites.Verify(payload, p, vm.Value, vm.Algorithm)
}

func (v *Verifier) checkRevocation(ctx context.Context, vc *verifiable.Credential) error {
	if v.revocation == nil {
		return trusterr.New(trusterr.RevokedCredential, "no revocation oracle configured")
	}

	revoked, err := v.revocation.IsRevoked(ctx, vc.ID)
	if err != nil {
		return trusterr.Wrap(trusterr.RevokedCredential, err, "revocation status of %s unknown", vc.ID)
	}

	if revoked {
		return trusterr.New(trusterr.RevokedCredential, "credential %s is revoked", vc.ID)
	}

	return nil
}

func (v *Verifier) checkSchema(vc *verifiable.Credential, schemaRef string) error {
	if v.schemas == nil {
		return trusterr.New(trusterr.SchemaViolation, "no schema validator configured")
	}

	subject, err := vc.VisibleSubject()
	if err != nil {
		return trusterr.Wrap(trusterr.SchemaViolation, err, "subject of %s", vc.ID)
	}

	if err := v.schemas.Validate(subject, schemaRef); err != nil {
		return trusterr.Wrap(trusterr.SchemaViolation, err, "schema %s", schemaRef)
	}

	return nil
}

func kindNames(kinds []trusterr.Kind) []string {
	names := make([]string, len(kinds))
	for i, k := range kinds {
		names[i] = k.String()
	}

	return names
}
