/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

// Package verifiable implements the credential and presentation data model.
//
// A credential either carries its subject in the clear or, in selective disclosure
// mode, only salted commitments to the subject's leaves. The issuer signs the
// canonical form of every field except the proof and the disclosures.
package verifiable

import (
	"fmt"
	"time"

	"github.com/hyperledger/aries-trust-core/pkg/common/trusterr"
	"github.com/hyperledger/aries-trust-core/pkg/doc/claim"
	"github.com/hyperledger/aries-trust-core/pkg/doc/did"
	"github.com/hyperledger/aries-trust-core/pkg/doc/signature/proof"
)

// ContextV1 is the verifiable credentials JSON-LD context.
const ContextV1 = "https://www.w3.org/2018/credentials/v1"

// VCType is the base credential type.
const VCType = "VerifiableCredential"

const (
	jsonldContext        = "@context"
	jsonldID             = "id"
	jsonldType           = "type"
	jsonldIssuer         = "issuer"
	jsonldIssuanceDate   = "issuanceDate"
	jsonldExpirationDate = "expirationDate"
	jsonldSubject        = "credentialSubject"
	jsonldCommitments    = "commitments"
	jsonldProof          = "proof"
	jsonldDisclosures    = "disclosures"
)

// Credential is a verifiable credential.
type Credential struct {
	ID          string
	Types       []string
	Issuer      did.DID
	Subject     *claim.Node
	Commitments []Commitment
	IssuedAt    time.Time
	ExpiresAt   *time.Time
	Proof       *proof.Proof
	// Disclosures open the commitments. They travel with the holder's copy only
	// and are not covered by the proof.
	Disclosures []Disclosure
}

// SelectiveDisclosure reports whether the credential carries commitments instead of a subject.
func (vc *Credential) SelectiveDisclosure() bool {
	return len(vc.Commitments) > 0
}

// Expired reports whether the credential is expired at now. A credential is
// expired from the instant of its expiration date on.
func (vc *Credential) Expired(now time.Time) bool {
	return vc.ExpiresAt != nil && !now.Before(*vc.ExpiresAt)
}

// HasType reports whether the credential declares type t.
func (vc *Credential) HasType(t string) bool {
	for _, vt := range vc.Types {
		if vt == t {
			return true
		}
	}

	return false
}

// CommitmentAt returns the commitment for a field path.
func (vc *Credential) CommitmentAt(path string) (Commitment, bool) {
	for _, c := range vc.Commitments {
		if c.FieldPath == path {
			return c, true
		}
	}

	return Commitment{}, false
}

// DisclosureAt returns the stored disclosure for a field path.
func (vc *Credential) DisclosureAt(path string) (Disclosure, bool) {
	for _, d := range vc.Disclosures {
		if d.FieldPath == path {
			return d, true
		}
	}

	return Disclosure{}, false
}

// VisibleSubject returns the subject in the clear or, in selective disclosure mode,
// the subject rebuilt from the disclosures that open their commitments.
func (vc *Credential) VisibleSubject() (*claim.Node, error) {
	if !vc.SelectiveDisclosure() {
		if vc.Subject == nil {
			return claim.Object(), nil
		}

		return vc.Subject.Clone(), nil
	}

	if len(vc.Disclosures) == 0 {
		return nil, trusterr.New(trusterr.CommitmentMismatch, "credential %s carries no disclosures", vc.ID)
	}

	return Rebuild(vc.Commitments, vc.Disclosures)
}

func (vc *Credential) payloadNode() *claim.Node {
	n := claim.Object().
		Set(jsonldContext, claim.Array(claim.String(ContextV1))).
		Set(jsonldID, claim.String(vc.ID)).
		Set(jsonldType, stringArray(vc.Types)).
		Set(jsonldIssuer, claim.String(vc.Issuer.String())).
		Set(jsonldIssuanceDate, claim.String(formatTime(vc.IssuedAt)))

	if vc.ExpiresAt != nil {
		n.Set(jsonldExpirationDate, claim.String(formatTime(*vc.ExpiresAt)))
	}

	if vc.SelectiveDisclosure() {
		items := make([]*claim.Node, len(vc.Commitments))
		for i, c := range vc.Commitments {
			items[i] = c.toNode()
		}

		n.Set(jsonldCommitments, claim.Array(items...))
	}

	// a subject is signed whenever present, commitments or not
	if vc.Subject != nil {
		n.Set(jsonldSubject, vc.Subject.Clone())
	}

	return n
}

// SigningPayload returns the canonical bytes the issuer signs: every field except
// the proof and the disclosures.
func (vc *Credential) SigningPayload() ([]byte, error) {
	return claim.Canonicalize(vc.payloadNode())
}

// ToNode returns the full credential, proof and disclosures included.
func (vc *Credential) ToNode() (*claim.Node, error) {
	n := vc.payloadNode()

	if vc.Proof != nil {
		p, err := vc.Proof.ToNode()
		if err != nil {
			return nil, err
		}

		n.Set(jsonldProof, p)
	}

	if len(vc.Disclosures) > 0 {
		items := make([]*claim.Node, len(vc.Disclosures))
		for i, d := range vc.Disclosures {
			items[i] = d.toNode()
		}

		n.Set(jsonldDisclosures, claim.Array(items...))
	}

	return n, nil
}

// WithoutDisclosures returns a copy of the credential stripped of its disclosures.
func (vc *Credential) WithoutDisclosures() *Credential {
	c := *vc
	c.Disclosures = nil

	return &c
}

// Clone returns a deep copy of the credential.
func (vc *Credential) Clone() *Credential {
	c := *vc
	c.Types = append([]string(nil), vc.Types...)
	c.Subject = vc.Subject.Clone()

	if vc.Commitments != nil {
		c.Commitments = make([]Commitment, len(vc.Commitments))
		for i, cm := range vc.Commitments {
			c.Commitments[i] = Commitment{FieldPath: cm.FieldPath, Digest: append([]byte(nil), cm.Digest...)}
		}
	}

	if vc.Disclosures != nil {
		c.Disclosures = make([]Disclosure, len(vc.Disclosures))
		for i, d := range vc.Disclosures {
			c.Disclosures[i] = Disclosure{FieldPath: d.FieldPath, Value: d.Value.Clone(), Salt: append([]byte(nil), d.Salt...)}
		}
	}

	if vc.ExpiresAt != nil {
		expires := *vc.ExpiresAt
		c.ExpiresAt = &expires
	}

	if vc.Proof != nil {
		p := *vc.Proof
		p.Signature = append([]byte(nil), vc.Proof.Signature...)
		c.Proof = &p
	}

	return &c
}

// MarshalJSON returns the canonical JSON form of the credential.
func (vc *Credential) MarshalJSON() ([]byte, error) {
	n, err := vc.ToNode()
	if err != nil {
		return nil, err
	}

	return claim.Canonicalize(n)
}

// UnmarshalJSON parses a credential.
func (vc *Credential) UnmarshalJSON(data []byte) error {
	parsed, err := ParseCredential(data)
	if err != nil {
		return err
	}

	*vc = *parsed

	return nil
}

// ParseCredential parses a credential from JSON.
func ParseCredential(data []byte) (*Credential, error) {
	n, err := claim.Parse(data)
	if err != nil {
		return nil, fmt.Errorf("parse credential: %w", err)
	}

	return CredentialFromNode(n)
}

// CredentialFromNode reads a credential from a claim node.
func CredentialFromNode(n *claim.Node) (*Credential, error) {
	if n.Kind() != claim.ObjectKind {
		return nil, fmt.Errorf("parse credential: expected an object, got %s", n.Kind())
	}

	vc, err := credentialFromNode(n)
	if err != nil {
		return nil, fmt.Errorf("parse credential: %w", err)
	}

	return vc, nil
}

func credentialFromNode(n *claim.Node) (*Credential, error) {
	vc := &Credential{}

	var err error

	if vc.ID, err = stringField(n, jsonldID, false); err != nil {
		return nil, err
	}

	if vc.Types, err = stringsField(n, jsonldType); err != nil {
		return nil, err
	}

	issuer, err := stringField(n, jsonldIssuer, true)
	if err != nil {
		return nil, err
	}

	if vc.Issuer, err = did.Parse(issuer); err != nil {
		return nil, err
	}

	issued, err := timeField(n, jsonldIssuanceDate, true)
	if err != nil {
		return nil, err
	}

	vc.IssuedAt = *issued

	if vc.ExpiresAt, err = timeField(n, jsonldExpirationDate, false); err != nil {
		return nil, err
	}

	if subject, ok := n.Field(jsonldSubject); ok {
		vc.Subject = subject.Clone()
	}

	if vc.Commitments, err = readCommitments(n, jsonldCommitments); err != nil {
		return nil, err
	}

	if p, ok := n.Field(jsonldProof); ok {
		if vc.Proof, err = proof.FromNode(p); err != nil {
			return nil, err
		}
	}

	disclosures, err := arrayField(n, jsonldDisclosures)
	if err != nil {
		return nil, err
	}

	for _, item := range disclosures {
		d, err := disclosureFromNode(item)
		if err != nil {
			return nil, err
		}

		vc.Disclosures = append(vc.Disclosures, d)
	}

	return vc, nil
}

func readCommitments(n *claim.Node, key string) ([]Commitment, error) {
	items, err := arrayField(n, key)
	if err != nil {
		return nil, err
	}

	commitments := make([]Commitment, 0, len(items))

	for _, item := range items {
		c, err := commitmentFromNode(item)
		if err != nil {
			return nil, err
		}

		commitments = append(commitments, c)
	}

	if len(commitments) == 0 {
		return nil, nil
	}

	return commitments, nil
}
