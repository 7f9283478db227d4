/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package did

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/btcsuite/btcutil/base58"
	"github.com/multiformats/go-multibase"

	"github.com/hyperledger/aries-trust-core/pkg/kms"
)

// ContextV1 is the DID core JSON-LD context.
const ContextV1 = "https://www.w3.org/ns/did/v1"

// Verification method types.
const (
	Ed25519VerificationKey2020        = "Ed25519VerificationKey2020"
	Ed25519VerificationKey2018        = "Ed25519VerificationKey2018"
	EcdsaSecp256k1VerificationKey2019 = "EcdsaSecp256k1VerificationKey2019"
	EcdsaSecp256r1VerificationKey2019 = "EcdsaSecp256r1VerificationKey2019"
)

// VerificationMethodType returns the verification method type used for a key type.
func VerificationMethodType(kt kms.KeyType) (string, error) {
	switch kt {
	case kms.ED25519Type:
		return Ed25519VerificationKey2020, nil
	case kms.ECDSASecp256k1TypeDER:
		return EcdsaSecp256k1VerificationKey2019, nil
	case kms.ECDSAP256TypeDER:
		return EcdsaSecp256r1VerificationKey2019, nil
	default:
		return "", fmt.Errorf("no verification method type for key type %s", kt)
	}
}

func keyTypeOf(vmType string) (kms.KeyType, error) {
	switch vmType {
	case Ed25519VerificationKey2020, Ed25519VerificationKey2018:
		return kms.ED25519Type, nil
	case EcdsaSecp256k1VerificationKey2019:
		return kms.ECDSASecp256k1TypeDER, nil
	case EcdsaSecp256r1VerificationKey2019:
		return kms.ECDSAP256TypeDER, nil
	default:
		return "", fmt.Errorf("unsupported verification method type %s", vmType)
	}
}

// VerificationMethod is a public key published in a DID document.
type VerificationMethod struct {
	ID         string
	Type       string
	Controller string
	Algorithm  kms.KeyType
	Value      []byte
}

// NewVerificationMethod builds a verification method for a public key.
func NewVerificationMethod(id, controller string, kt kms.KeyType, pub []byte) (*VerificationMethod, error) {
	vmType, err := VerificationMethodType(kt)
	if err != nil {
		return nil, err
	}

	return &VerificationMethod{ID: id, Type: vmType, Controller: controller, Algorithm: kt, Value: pub}, nil
}

type rawVerificationMethod struct {
	ID                 string `json:"id"`
	Type               string `json:"type"`
	Controller         string `json:"controller"`
	PublicKeyMultibase string `json:"publicKeyMultibase,omitempty"`
	PublicKeyBase58    string `json:"publicKeyBase58,omitempty"`
}

// MarshalJSON writes the key as publicKeyMultibase.
func (vm VerificationMethod) MarshalJSON() ([]byte, error) {
	encoded, err := multibase.Encode(multibase.Base58BTC, vm.Value)
	if err != nil {
		return nil, err
	}

	return json.Marshal(&rawVerificationMethod{
		ID:                 vm.ID,
		Type:               vm.Type,
		Controller:         vm.Controller,
		PublicKeyMultibase: encoded,
	})
}

// UnmarshalJSON accepts publicKeyMultibase or publicKeyBase58.
func (vm *VerificationMethod) UnmarshalJSON(data []byte) error {
	raw := &rawVerificationMethod{}
	if err := json.Unmarshal(data, raw); err != nil {
		return err
	}

	kt, err := keyTypeOf(raw.Type)
	if err != nil {
		return err
	}

	var value []byte

	switch {
	case raw.PublicKeyMultibase != "":
		_, value, err = multibase.Decode(raw.PublicKeyMultibase)
		if err != nil {
			return fmt.Errorf("decode publicKeyMultibase: %w", err)
		}
	case raw.PublicKeyBase58 != "":
		value = base58.Decode(raw.PublicKeyBase58)
		if len(value) == 0 {
			return errors.New("decode publicKeyBase58: invalid base58")
		}
	default:
		return fmt.Errorf("verification method %s carries no public key", raw.ID)
	}

	*vm = VerificationMethod{ID: raw.ID, Type: raw.Type, Controller: raw.Controller, Algorithm: kt, Value: value}

	return nil
}

// Doc is a DID document.
type Doc struct {
	Context            []string             `json:"@context"`
	ID                 string               `json:"id"`
	VerificationMethod []VerificationMethod `json:"verificationMethod"`
	Created            *time.Time           `json:"created,omitempty"`
}

// NewDoc creates a document publishing the given verification methods.
func NewDoc(id string, vms ...VerificationMethod) *Doc {
	return &Doc{Context: []string{ContextV1}, ID: id, VerificationMethod: vms}
}

// ParseDocument parses a DID document.
func ParseDocument(data []byte) (*Doc, error) {
	doc := &Doc{}
	if err := json.Unmarshal(data, doc); err != nil {
		return nil, fmt.Errorf("parse did document: %w", err)
	}

	if doc.ID == "" {
		return nil, errors.New("parse did document: missing id")
	}

	return doc, nil
}

// JSONBytes serializes the document.
func (d *Doc) JSONBytes() ([]byte, error) {
	return json.Marshal(d)
}

// VerificationMethodByID finds a verification method by its full DID URL, by a
// relative "#fragment" reference or by the bare fragment.
func (d *Doc) VerificationMethodByID(id string) (*VerificationMethod, bool) {
	wantDID, wantFragment := SplitURL(id)
	if wantFragment == "" {
		wantDID, wantFragment = "", id
	}

	if wantDID != "" && wantDID != d.ID {
		return nil, false
	}

	for i := range d.VerificationMethod {
		vm := &d.VerificationMethod[i]

		vmDID, vmFragment := SplitURL(vm.ID)
		if vmDID != "" && vmDID != d.ID {
			continue
		}

		if vm.ID == id || vmFragment == wantFragment {
			return vm, true
		}
	}

	return nil, false
}
