/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package verifiable

import (
	"bytes"
	"crypto/sha256"
	"encoding/base64"
	"fmt"

	"github.com/hyperledger/aries-trust-core/pkg/common/trusterr"
	"github.com/hyperledger/aries-trust-core/pkg/doc/claim"
)

// MinSaltSize is the smallest accepted commitment salt.
const MinSaltSize = 16

// Commitment binds a credential to the value of one subject field without revealing
// it: Digest = SHA-256(salt || canonical(value)). Only the path and digest are signed.
type Commitment struct {
	FieldPath string
	Digest    []byte
}

// Disclosure is the unsigned (value, salt) opening of a commitment, handed to the
// holder at issuance.
type Disclosure struct {
	FieldPath string
	Value     *claim.Node
	Salt      []byte
}

// ComputeDigest returns SHA-256(salt || canonical(value)).
func ComputeDigest(salt []byte, value *claim.Node) ([]byte, error) {
	canonical, err := claim.Canonicalize(value)
	if err != nil {
		return nil, err
	}

	h := sha256.New()
	h.Write(salt)
	h.Write(canonical)

	return h.Sum(nil), nil
}

// Opens reports whether value and salt open the commitment.
func (c Commitment) Opens(value *claim.Node, salt []byte) (bool, error) {
	if len(salt) < MinSaltSize {
		return false, nil
	}

	digest, err := ComputeDigest(salt, value)
	if err != nil {
		return false, err
	}

	return bytes.Equal(digest, c.Digest), nil
}

// Commitment returns the commitment the disclosure opens.
func (d Disclosure) Commitment() (Commitment, error) {
	digest, err := ComputeDigest(d.Salt, d.Value)
	if err != nil {
		return Commitment{}, err
	}

	return Commitment{FieldPath: d.FieldPath, Digest: digest}, nil
}

func (c Commitment) toNode() *claim.Node {
	return claim.Object().
		Set("path", claim.String(c.FieldPath)).
		Set("digest", claim.String(encode(c.Digest)))
}

func commitmentFromNode(n *claim.Node) (Commitment, error) {
	path, err := stringField(n, "path", true)
	if err != nil {
		return Commitment{}, err
	}

	digest, err := bytesField(n, "digest")
	if err != nil {
		return Commitment{}, err
	}

	return Commitment{FieldPath: path, Digest: digest}, nil
}

func (d Disclosure) toNode() *claim.Node {
	return claim.Object().
		Set("path", claim.String(d.FieldPath)).
		Set("value", d.Value.Clone()).
		Set("salt", claim.String(encode(d.Salt)))
}

func disclosureFromNode(n *claim.Node) (Disclosure, error) {
	path, err := stringField(n, "path", true)
	if err != nil {
		return Disclosure{}, err
	}

	value, ok := n.Field("value")
	if !ok {
		return Disclosure{}, fmt.Errorf("disclosure %s: missing value", path)
	}

	salt, err := bytesField(n, "salt")
	if err != nil {
		return Disclosure{}, err
	}

	return Disclosure{FieldPath: path, Value: value.Clone(), Salt: salt}, nil
}

// Rebuild reconstructs a subject from the disclosures that open one of commitments.
// Disclosures that do not match are returned as an error of kind CommitmentMismatch.
func Rebuild(commitments []Commitment, disclosures []Disclosure) (*claim.Node, error) {
	byPath := make(map[string]Commitment, len(commitments))
	for _, c := range commitments {
		byPath[c.FieldPath] = c
	}

	// the first disclosure decides the root kind; a scalar subject is disclosed at ""
	subject := claim.Null()

	for _, d := range disclosures {
		c, ok := byPath[d.FieldPath]
		if !ok {
			return nil, trusterr.New(trusterr.CommitmentMismatch, "no commitment for %s", d.FieldPath)
		}

		opens, err := c.Opens(d.Value, d.Salt)
		if err != nil {
			return nil, err
		}

		if !opens {
			return nil, trusterr.New(trusterr.CommitmentMismatch, "disclosure does not open commitment %s", d.FieldPath)
		}

		subject, err = subject.With(d.FieldPath, d.Value.Clone())
		if err != nil {
			return nil, trusterr.Wrap(trusterr.CommitmentMismatch, err, "rebuild %s", d.FieldPath)
		}
	}

	if len(disclosures) == 0 {
		return claim.Object(), nil
	}

	return subject, nil
}

func encode(b []byte) string {
	return base64.RawURLEncoding.EncodeToString(b)
}

func decode(s string) ([]byte, error) {
	return base64.RawURLEncoding.DecodeString(s)
}
