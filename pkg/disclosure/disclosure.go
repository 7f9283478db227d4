/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

// Package disclosure derives presentations that reveal chosen fields of a selective
// disclosure credential and checks them against the original credential.
package disclosure

import (
	"bytes"
	"context"
	"encoding/base64"
	"errors"
	"strings"
	"time"

	"github.com/bluele/gcache"
	"github.com/google/tink/go/subtle/random"
	"github.com/google/uuid"
	"github.com/samber/lo"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/hyperledger/aries-trust-core/pkg/common/log"
	"github.com/hyperledger/aries-trust-core/pkg/common/trusterr"
	"github.com/hyperledger/aries-trust-core/pkg/doc/did"
	"github.com/hyperledger/aries-trust-core/pkg/doc/signature/proof"
	"github.com/hyperledger/aries-trust-core/pkg/doc/signature/suite"
	"github.com/hyperledger/aries-trust-core/pkg/doc/verifiable"
	"github.com/hyperledger/aries-trust-core/pkg/kms"
)

const (
	challengeSize = 32

	// DefaultChallengeTTL is how long an issued challenge stays usable when tracking is on.
	DefaultChallengeTTL = 5 * time.Minute
)

var logger = log.New("trustcore/disclosure")

// Resolver resolves DIDs.
type Resolver interface {
	Resolve(ctx context.Context, id did.DID) (*did.Doc, error)
}

// ProofVerifier checks a proof made by a DID's verification method.
type ProofVerifier interface {
	VerifyProof(ctx context.Context, signer did.DID, payload []byte, p *proof.Proof) error
}

// Option configures an Engine.
type Option func(e *Engine)

// WithChallengeTracking makes the engine accept only challenges it issued through
// NewChallenge, each at most once, within ttl. A non-positive ttl means DefaultChallengeTTL.
func WithChallengeTracking(size int, ttl time.Duration) Option {
	return func(e *Engine) {
		if ttl <= 0 {
			ttl = DefaultChallengeTTL
		}

		e.challenges = gcache.New(size).LRU().Expiration(ttl).Build()
	}
}

// WithClock sets the time source for holder proofs.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) {
		e.now = now
	}
}

// WithTracer sets the tracer.
func WithTracer(tracer trace.Tracer) Option {
	return func(e *Engine) {
		e.tracer = tracer
	}
}

// Engine builds and verifies presentations.
type Engine struct {
	kms        kms.KeyManager
	resolver   Resolver
	suites     *suite.Registry
	proofs     ProofVerifier
	challenges gcache.Cache
	now        func() time.Time
	tracer     trace.Tracer
}

// New returns a disclosure engine. km holds holder keys; proofs verifies issuer and
// holder signatures.
func New(km kms.KeyManager, resolver Resolver, suites *suite.Registry, proofs ProofVerifier, opts ...Option) *Engine {
	e := &Engine{
		kms:      km,
		resolver: resolver,
		suites:   suites,
		proofs:   proofs,
		now:      time.Now,
		tracer:   otel.Tracer("trustcore/disclosure"),
	}

	for _, opt := range opts {
		opt(e)
	}

	return e
}

// NewChallenge returns a fresh random challenge. With tracking on, the challenge is
// remembered until it is consumed or expires.
func (e *Engine) NewChallenge() (string, error) {
	challenge := base64.RawURLEncoding.EncodeToString(random.GetRandomBytes(challengeSize))

	if e.challenges != nil {
		if err := e.challenges.Set(challenge, struct{}{}); err != nil {
			return "", err
		}
	}

	return challenge, nil
}

type presentOpts struct {
	id      string
	suiteID string
}

// PresentOpt configures Present.
type PresentOpt func(opts *presentOpts)

// WithPresentationID sets the presentation ID. Defaults to a random urn:uuid.
func WithPresentationID(id string) PresentOpt {
	return func(opts *presentOpts) {
		opts.id = id
	}
}

// WithSuite selects the signature suite of the holder proof.
func WithSuite(id string) PresentOpt {
	return func(opts *presentOpts) {
		opts.suiteID = id
	}
}

// Present reveals the fields at paths of vc, which must carry its disclosures, and
// signs the result with the holder key holderKeyID over challenge.
func (e *Engine) Present(ctx context.Context, vc *verifiable.Credential, holder did.DID, holderKeyID string,
	paths []string, challenge string, opts ...PresentOpt) (*verifiable.Presentation, error) {
	ctx, span := e.tracer.Start(ctx, "disclosure.Present")
	defer span.End()

	if vc == nil || !vc.SelectiveDisclosure() {
		return nil, trusterr.New(trusterr.CommitmentMismatch, "credential has no commitments to disclose")
	}

	span.SetAttributes(
		attribute.String("credential_id", vc.ID),
		attribute.String("holder", holder.String()),
		attribute.StringSlice("paths", paths),
	)

	o := &presentOpts{}

	for _, opt := range opts {
		opt(o)
	}

	requested := lo.SliceToMap(paths, func(p string) (string, struct{}) { return p, struct{}{} })

	for path := range requested {
		if _, ok := vc.CommitmentAt(path); !ok {
			return nil, trusterr.New(trusterr.CommitmentMismatch, "no commitment at %s", path)
		}
	}

	vp := &verifiable.Presentation{
		ID:                 o.id,
		Holder:             holder,
		SourceCredentialID: vc.ID,
	}

	if vp.ID == "" {
		vp.ID = "urn:uuid:" + uuid.NewString()
	}

	for _, c := range vc.Commitments {
		if _, ok := requested[c.FieldPath]; !ok {
			vp.UndisclosedCommitments = append(vp.UndisclosedCommitments, c)

			continue
		}

		d, ok := vc.DisclosureAt(c.FieldPath)
		if !ok {
			return nil, trusterr.New(trusterr.CommitmentMismatch, "no disclosure held for %s", c.FieldPath)
		}

		opened, err := c.Opens(d.Value, d.Salt)
		if err != nil {
			return nil, err
		}

		if !opened {
			return nil, trusterr.New(trusterr.CommitmentMismatch, "disclosure for %s does not open its commitment",
				c.FieldPath)
		}

		vp.Disclosed = append(vp.Disclosed, verifiable.DisclosedClaim{
			FieldPath: d.FieldPath,
			Value:     d.Value.Clone(),
			Salt:      append([]byte(nil), d.Salt...),
		})
	}

	vmID, handle, err := e.holderKey(ctx, holder, holderKeyID)
	if err != nil {
		span.RecordError(err)

		return nil, err
	}

	payload, err := vp.SigningPayload()
	if err != nil {
		return nil, err
	}

	vp.HolderProof, err = e.suites.Generate(payload, e.kms, handle, vmID,
		suite.WithSuite(o.suiteID), suite.WithChallenge(challenge), suite.WithCreated(e.now()))
	if err != nil {
		return nil, err
	}

	logger.Debugf("presentation %s discloses %d of %d fields of %s", vp.ID, len(vp.Disclosed),
		len(vc.Commitments), vc.ID)

	return vp, nil
}

// holderKey checks that keyID is listed by the holder's DID document and that the
// key manager holds the matching private key.
func (e *Engine) holderKey(ctx context.Context, holder did.DID, keyID string) (string, kms.KeyHandle, error) {
	doc, err := e.resolver.Resolve(ctx, holder)
	if err != nil {
		return "", kms.KeyHandle{}, trusterr.Wrap(trusterr.KeyNotAuthorized, err, "resolve holder %s", holder)
	}

	vm, ok := doc.VerificationMethodByID(keyID)
	if !ok {
		return "", kms.KeyHandle{}, trusterr.New(trusterr.KeyNotAuthorized,
			"key %s is not a verification method of %s", keyID, holder)
	}

	vmID := vm.ID
	if strings.HasPrefix(vmID, "#") {
		vmID = doc.ID + vmID
	}

	_, fragment := did.SplitURL(vmID)

	pub, kt, err := e.kms.PublicKey(fragment)
	if err != nil {
		return "", kms.KeyHandle{}, err
	}

	if kt != vm.Algorithm || !bytes.Equal(pub, vm.Value) {
		return "", kms.KeyHandle{}, trusterr.New(trusterr.KeyNotAuthorized,
			"key %s does not match verification method %s", fragment, vmID)
	}

	return vmID, kms.KeyHandle{KeyID: fragment, Type: kt}, nil
}

// VerifyPresentation checks vp against the original credential it was derived from
// and the challenge the verifier handed to the holder.
func (e *Engine) VerifyPresentation(ctx context.Context, vp *verifiable.Presentation,
	original *verifiable.Credential, challenge string) error {
	ctx, span := e.tracer.Start(ctx, "disclosure.VerifyPresentation")
	defer span.End()

	err := e.verifyPresentation(ctx, vp, original, challenge)
	if err != nil {
		span.RecordError(err)

		logger.Debugf("presentation rejected: %s", err)
	}

	return err
}

func (e *Engine) verifyPresentation(ctx context.Context, vp *verifiable.Presentation,
	original *verifiable.Credential, challenge string) error {
	if vp == nil || original == nil {
		return errors.New("verify presentation: presentation and original credential are required")
	}

	if !original.SelectiveDisclosure() {
		return trusterr.New(trusterr.CommitmentMismatch, "original credential %s carries no commitments", original.ID)
	}

	payload, err := original.SigningPayload()
	if err != nil {
		return err
	}

	if err = e.proofs.VerifyProof(ctx, original.Issuer, payload, original.Proof); err != nil {
		return trusterr.Wrap(trusterr.InvalidProof, err, "original credential %s", original.ID)
	}

	if vp.SourceCredentialID != original.ID {
		return trusterr.New(trusterr.CommitmentMismatch, "presentation derives from %s, not %s",
			vp.SourceCredentialID, original.ID)
	}

	if err = checkDisclosed(vp, original); err != nil {
		return err
	}

	if err = checkUndisclosed(vp, original); err != nil {
		return err
	}

	if vp.HolderProof == nil {
		return trusterr.New(trusterr.InvalidProof, "presentation has no holder proof")
	}

	if vp.HolderProof.Challenge != challenge {
		return trusterr.New(trusterr.ReplayedChallenge, "holder proof was made for another challenge")
	}

	if e.challenges != nil && !e.challenges.Has(challenge) {
		return trusterr.New(trusterr.ReplayedChallenge, "challenge unknown, expired or already used")
	}

	payload, err = vp.SigningPayload()
	if err != nil {
		return err
	}

	if err = e.proofs.VerifyProof(ctx, vp.Holder, payload, vp.HolderProof); err != nil {
		return trusterr.Wrap(trusterr.InvalidProof, err, "holder proof of %s", vp.Holder)
	}

	return e.consume(challenge)
}

func checkDisclosed(vp *verifiable.Presentation, original *verifiable.Credential) error {
	seen := make(map[string]struct{}, len(vp.Disclosed))

	for _, d := range vp.Disclosed {
		if _, dup := seen[d.FieldPath]; dup {
			return trusterr.New(trusterr.CommitmentMismatch, "%s disclosed twice", d.FieldPath)
		}

		seen[d.FieldPath] = struct{}{}

		c, ok := original.CommitmentAt(d.FieldPath)
		if !ok {
			return trusterr.New(trusterr.CommitmentMismatch, "original credential commits to nothing at %s",
				d.FieldPath)
		}

		opened, err := c.Opens(d.Value, d.Salt)
		if err != nil {
			return err
		}

		if !opened {
			return trusterr.New(trusterr.CommitmentMismatch, "disclosed %s does not match its commitment",
				d.FieldPath)
		}
	}

	return nil
}

func checkUndisclosed(vp *verifiable.Presentation, original *verifiable.Credential) error {
	disclosed := lo.SliceToMap(vp.Disclosed, func(d verifiable.DisclosedClaim) (string, struct{}) {
		return d.FieldPath, struct{}{}
	})

	for _, c := range vp.UndisclosedCommitments {
		if _, ok := disclosed[c.FieldPath]; ok {
			return trusterr.New(trusterr.CommitmentMismatch, "%s is both disclosed and withheld", c.FieldPath)
		}

		orig, ok := original.CommitmentAt(c.FieldPath)
		if !ok || !bytes.Equal(orig.Digest, c.Digest) {
			return trusterr.New(trusterr.CommitmentMismatch, "commitment at %s is not the original's", c.FieldPath)
		}

		disclosed[c.FieldPath] = struct{}{}
	}

	// every original commitment is either opened or carried forward
	for _, c := range original.Commitments {
		if _, ok := disclosed[c.FieldPath]; !ok {
			return trusterr.New(trusterr.CommitmentMismatch, "commitment at %s is missing", c.FieldPath)
		}
	}

	return nil
}

func (e *Engine) consume(challenge string) error {
	if e.challenges == nil {
		return nil
	}

	if !e.challenges.Remove(challenge) {
		return trusterr.New(trusterr.ReplayedChallenge, "challenge already used")
	}

	return nil
}
