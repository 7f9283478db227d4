/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package verifiable

import (
	"fmt"

	"github.com/hyperledger/aries-trust-core/pkg/doc/claim"
	"github.com/hyperledger/aries-trust-core/pkg/doc/did"
	"github.com/hyperledger/aries-trust-core/pkg/doc/signature/proof"
)

// VPType is the base presentation type.
const VPType = "VerifiablePresentation"

const (
	jsonldHolder        = "holder"
	jsonldSource        = "sourceCredential"
	jsonldDisclosed     = "disclosed"
	jsonldUndisclosed   = "undisclosedCommitments"
	jsonldHolderProof   = "proof"
	presentationContext = ContextV1
)

// DisclosedClaim reveals one committed field with the salt opening its commitment.
type DisclosedClaim struct {
	FieldPath string
	Value     *claim.Node
	Salt      []byte
}

// Presentation is a holder's disclosure of part of a selective disclosure credential.
type Presentation struct {
	ID                     string
	Holder                 did.DID
	SourceCredentialID     string
	Disclosed              []DisclosedClaim
	UndisclosedCommitments []Commitment
	HolderProof            *proof.Proof
}

func (vp *Presentation) payloadNode() *claim.Node {
	disclosed := make([]*claim.Node, len(vp.Disclosed))
	for i, d := range vp.Disclosed {
		disclosed[i] = Disclosure(d).toNode()
	}

	undisclosed := make([]*claim.Node, len(vp.UndisclosedCommitments))
	for i, c := range vp.UndisclosedCommitments {
		undisclosed[i] = c.toNode()
	}

	return claim.Object().
		Set(jsonldContext, claim.Array(claim.String(presentationContext))).
		Set(jsonldID, claim.String(vp.ID)).
		Set(jsonldType, claim.Array(claim.String(VPType))).
		Set(jsonldHolder, claim.String(vp.Holder.String())).
		Set(jsonldSource, claim.String(vp.SourceCredentialID)).
		Set(jsonldDisclosed, claim.Array(disclosed...)).
		Set(jsonldUndisclosed, claim.Array(undisclosed...))
}

// SigningPayload returns the canonical bytes the holder signs: everything but the proof.
func (vp *Presentation) SigningPayload() ([]byte, error) {
	return claim.Canonicalize(vp.payloadNode())
}

// ToNode returns the full presentation.
func (vp *Presentation) ToNode() (*claim.Node, error) {
	n := vp.payloadNode()

	if vp.HolderProof != nil {
		p, err := vp.HolderProof.ToNode()
		if err != nil {
			return nil, err
		}

		n.Set(jsonldHolderProof, p)
	}

	return n, nil
}

// MarshalJSON returns the canonical JSON form of the presentation.
func (vp *Presentation) MarshalJSON() ([]byte, error) {
	n, err := vp.ToNode()
	if err != nil {
		return nil, err
	}

	return claim.Canonicalize(n)
}

// UnmarshalJSON parses a presentation.
func (vp *Presentation) UnmarshalJSON(data []byte) error {
	parsed, err := ParsePresentation(data)
	if err != nil {
		return err
	}

	*vp = *parsed

	return nil
}

// ParsePresentation parses a presentation from JSON.
func ParsePresentation(data []byte) (*Presentation, error) {
	n, err := claim.Parse(data)
	if err != nil {
		return nil, fmt.Errorf("parse presentation: %w", err)
	}

	vp, err := presentationFromNode(n)
	if err != nil {
		return nil, fmt.Errorf("parse presentation: %w", err)
	}

	return vp, nil
}

func presentationFromNode(n *claim.Node) (*Presentation, error) {
	if n.Kind() != claim.ObjectKind {
		return nil, fmt.Errorf("expected an object, got %s", n.Kind())
	}

	vp := &Presentation{}

	var err error

	if vp.ID, err = stringField(n, jsonldID, false); err != nil {
		return nil, err
	}

	holder, err := stringField(n, jsonldHolder, true)
	if err != nil {
		return nil, err
	}

	if vp.Holder, err = did.Parse(holder); err != nil {
		return nil, err
	}

	if vp.SourceCredentialID, err = stringField(n, jsonldSource, true); err != nil {
		return nil, err
	}

	disclosed, err := arrayField(n, jsonldDisclosed)
	if err != nil {
		return nil, err
	}

	for _, item := range disclosed {
		d, err := disclosureFromNode(item)
		if err != nil {
			return nil, err
		}

		vp.Disclosed = append(vp.Disclosed, DisclosedClaim(d))
	}

	if vp.UndisclosedCommitments, err = readCommitments(n, jsonldUndisclosed); err != nil {
		return nil, err
	}

	if p, ok := n.Field(jsonldHolderProof); ok {
		if vp.HolderProof, err = proof.FromNode(p); err != nil {
			return nil, err
		}
	}

	return vp, nil
}
