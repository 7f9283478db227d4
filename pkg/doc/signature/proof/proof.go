/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

// Package proof models the proof attached to credentials and presentations and
// computes the bytes a proof signs.
package proof

import (
	"crypto/sha256"
	"encoding/json"
	"fmt"
	"time"

	"github.com/multiformats/go-multibase"

	"github.com/hyperledger/aries-trust-core/pkg/doc/claim"
)

const (
	// jsonldType is key for proof type
	jsonldType = "type"
	// jsonldCreated is key for time proof created
	jsonldCreated = "created"
	// jsonldVerificationMethod is a key for verification method
	jsonldVerificationMethod = "verificationMethod"
	// jsonldChallenge is a key for challenge
	jsonldChallenge = "challenge"
	// jsonldProofValue is key for proof value
	jsonldProofValue = "proofValue"
)

// Proof is cryptographic proof of the integrity of a credential or presentation.
type Proof struct {
	SuiteID              string
	VerificationMethodID string
	Created              time.Time
	Signature            []byte
	Challenge            string
}

// Options returns the proof options: every proof field except the signature.
func (p *Proof) Options() *claim.Node {
	opts := claim.Object().
		Set(jsonldType, claim.String(p.SuiteID)).
		Set(jsonldVerificationMethod, claim.String(p.VerificationMethodID)).
		Set(jsonldCreated, claim.String(formatTime(p.Created)))

	if p.Challenge != "" {
		opts.Set(jsonldChallenge, claim.String(p.Challenge))
	}

	return opts
}

// ToNode returns the proof as a claim node, signature included.
func (p *Proof) ToNode() (*claim.Node, error) {
	value, err := multibase.Encode(multibase.Base58BTC, p.Signature)
	if err != nil {
		return nil, fmt.Errorf("encode proof value: %w", err)
	}

	return p.Options().Set(jsonldProofValue, claim.String(value)), nil
}

// SigningInput returns SHA-256(canonical proof options) || SHA-256(data). The proof
// options bind the suite, verification method, creation time and challenge.
func (p *Proof) SigningInput(data []byte) ([]byte, error) {
	optsDigest, err := claim.Digest(p.Options())
	if err != nil {
		return nil, err
	}

	dataDigest := sha256.Sum256(data)

	return append(optsDigest, dataDigest[:]...), nil
}

type rawProof struct {
	Type               string `json:"type"`
	VerificationMethod string `json:"verificationMethod"`
	Created            string `json:"created"`
	Challenge          string `json:"challenge,omitempty"`
	ProofValue         string `json:"proofValue"`
}

// MarshalJSON writes the proof with a multibase proofValue.
func (p *Proof) MarshalJSON() ([]byte, error) {
	node, err := p.ToNode()
	if err != nil {
		return nil, err
	}

	return claim.Canonicalize(node)
}

// UnmarshalJSON reads a proof.
func (p *Proof) UnmarshalJSON(data []byte) error {
	raw := &rawProof{}
	if err := json.Unmarshal(data, raw); err != nil {
		return fmt.Errorf("unmarshal proof: %w", err)
	}

	created, err := time.Parse(time.RFC3339, raw.Created)
	if err != nil {
		return fmt.Errorf("unmarshal proof: created: %w", err)
	}

	_, sig, err := multibase.Decode(raw.ProofValue)
	if err != nil {
		return fmt.Errorf("unmarshal proof: proofValue: %w", err)
	}

	*p = Proof{
		SuiteID:              raw.Type,
		VerificationMethodID: raw.VerificationMethod,
		Created:              created,
		Signature:            sig,
		Challenge:            raw.Challenge,
	}

	return nil
}

// FromNode reads a proof from a claim node.
func FromNode(n *claim.Node) (*Proof, error) {
	data, err := claim.Canonicalize(n)
	if err != nil {
		return nil, err
	}

	p := &Proof{}

	return p, p.UnmarshalJSON(data)
}

func formatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339)
}
