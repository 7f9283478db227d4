/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

// Package peer implements a stored did:peer method. The identifier is the
// multibase encoded SHA2-256 multihash of the canonical genesis document.
package peer

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/multiformats/go-multibase"

	"github.com/hyperledger/aries-trust-core/pkg/doc/claim"
	"github.com/hyperledger/aries-trust-core/pkg/doc/did"
	"github.com/hyperledger/aries-trust-core/pkg/kms"
	"github.com/hyperledger/aries-trust-core/pkg/vdr/api"
	spi "github.com/hyperledger/aries-trust-core/spi/storage"
)

const (
	// DIDMethod did method.
	DIDMethod = "peer"
	// StoreNamespace store name.
	StoreNamespace = "peer"

	numAlgo = "1"

	// multihash header of a 32 byte sha2-256 digest.
	sha256Code = 0x12
	sha256Size = 0x20
)

// VDR implements did:peer method support.
type VDR struct {
	store spi.Store
	now   func() time.Time
}

// New returns new instance of VDR that works with did:peer method.
func New(p spi.Provider) (*VDR, error) {
	didDBStore, err := p.OpenStore(StoreNamespace)
	if err != nil {
		return nil, fmt.Errorf("open store : %w", err)
	}

	return &VDR{store: didDBStore, now: time.Now}, nil
}

// Accept did method.
func (v *VDR) Accept(method string) bool {
	return method == DIDMethod
}

// Create builds the genesis document of a key, derives its did:peer and stores the document.
func (v *VDR) Create(_ context.Context, pubKey []byte, kt kms.KeyType, keyID string) (*did.Doc, error) {
	if keyID == "" {
		return nil, errors.New("did:peer: key id is required")
	}

	vm, err := did.NewVerificationMethod("#"+keyID, "", kt, pubKey)
	if err != nil {
		return nil, fmt.Errorf("did:peer: %w", err)
	}

	genesis := did.NewDoc("", *vm)

	id, err := computeDID(genesis)
	if err != nil {
		return nil, err
	}

	doc := withID(genesis, id)

	created := v.now().UTC().Truncate(time.Second)
	doc.Created = &created

	if err := v.put(doc); err != nil {
		return nil, err
	}

	return doc, nil
}

// Read resolves a stored did:peer, checking that the stored document still hashes
// to its identifier.
func (v *VDR) Read(_ context.Context, d did.DID) (*did.Doc, error) {
	data, err := v.store.Get(d.String())
	if err != nil {
		if errors.Is(err, spi.ErrDataNotFound) {
			return nil, api.ErrNotFound
		}

		return nil, fmt.Errorf("peer vdr read: %w", err)
	}

	doc, err := did.ParseDocument(data)
	if err != nil {
		return nil, fmt.Errorf("peer vdr read: %w", err)
	}

	id, err := computeDID(genesisOf(doc))
	if err != nil {
		return nil, err
	}

	if id != d.String() {
		return nil, fmt.Errorf("peer vdr read: stored document does not match %s", d)
	}

	return doc, nil
}

func (v *VDR) put(doc *did.Doc) error {
	data, err := doc.JSONBytes()
	if err != nil {
		return fmt.Errorf("marshal did document: %w", err)
	}

	err = v.store.Insert(doc.ID, data, spi.Tag{Name: "method", Value: DIDMethod})
	if err != nil && !errors.Is(err, spi.ErrDuplicateKey) {
		return fmt.Errorf("put did document: %w", err)
	}

	return nil
}

func computeDID(genesis *did.Doc) (string, error) {
	data, err := genesis.JSONBytes()
	if err != nil {
		return "", fmt.Errorf("marshal genesis document: %w", err)
	}

	node, err := claim.Parse(data)
	if err != nil {
		return "", err
	}

	digest, err := claim.Digest(node)
	if err != nil {
		return "", err
	}

	encoded, err := multibase.Encode(multibase.Base58BTC, append([]byte{sha256Code, sha256Size}, digest...))
	if err != nil {
		return "", fmt.Errorf("encode did:peer: %w", err)
	}

	return "did:" + DIDMethod + ":" + numAlgo + encoded, nil
}

func withID(genesis *did.Doc, id string) *did.Doc {
	vms := make([]did.VerificationMethod, len(genesis.VerificationMethod))

	for i, vm := range genesis.VerificationMethod {
		vm.ID = id + vm.ID
		vm.Controller = id
		vms[i] = vm
	}

	return did.NewDoc(id, vms...)
}

func genesisOf(doc *did.Doc) *did.Doc {
	vms := make([]did.VerificationMethod, len(doc.VerificationMethod))

	for i, vm := range doc.VerificationMethod {
		vm.ID = strings.TrimPrefix(vm.ID, doc.ID)
		vm.Controller = ""
		vms[i] = vm
	}

	return did.NewDoc("", vms...)
}

