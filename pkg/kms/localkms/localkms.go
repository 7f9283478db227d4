/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

// Package localkms is a key manager keeping sealed private keys in a storage provider.
package localkms

import (
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"github.com/google/uuid"

	"github.com/hyperledger/aries-trust-core/pkg/common/log"
	"github.com/hyperledger/aries-trust-core/pkg/common/trusterr"
	"github.com/hyperledger/aries-trust-core/pkg/doc/util/fingerprint"
	"github.com/hyperledger/aries-trust-core/pkg/kms"
	"github.com/hyperledger/aries-trust-core/pkg/kms/keyutil"
	"github.com/hyperledger/aries-trust-core/pkg/secretlock"
	spi "github.com/hyperledger/aries-trust-core/spi/storage"
)

const storeNamePrefix = "localkms_"

var logger = log.New("trustcore/kms")

// Provider supplies the dependencies of a LocalKMS.
type Provider interface {
	StorageProvider() spi.Provider
	SecretLock() secretlock.Service
}

type options struct {
	instanceID string
}

// Opt configures a LocalKMS.
type Opt func(opts *options)

// WithInstanceID reopens the key space of an earlier instance. Without it every
// instance gets a fresh key space, so two instances never see each other's keys.
func WithInstanceID(id string) Opt {
	return func(opts *options) {
		opts.instanceID = id
	}
}

// LocalKMS implements kms.KeyManager.
type LocalKMS struct {
	instanceID string
	store      spi.Store
	lock       secretlock.Service
	keyLocks   sync.Map
}

type keyRecord struct {
	Type   kms.KeyType `json:"type"`
	Sealed []byte      `json:"sealed"`
	Public []byte      `json:"public"`
}

// New opens the key store of a key manager instance.
func New(p Provider, opts ...Opt) (*LocalKMS, error) {
	o := &options{instanceID: uuid.NewString()}

	for _, opt := range opts {
		opt(o)
	}

	if p.SecretLock() == nil {
		return nil, errors.New("localkms: secret lock is required")
	}

	store, err := p.StorageProvider().OpenStore(storeNamePrefix + o.instanceID)
	if err != nil {
		return nil, fmt.Errorf("localkms: open key store: %w", err)
	}

	return &LocalKMS{instanceID: o.instanceID, store: store, lock: p.SecretLock()}, nil
}

// InstanceID identifies the key space of this instance.
func (l *LocalKMS) InstanceID() string {
	return l.instanceID
}

// Create generates a key. Its ID is the multicodec fingerprint of the public key.
func (l *LocalKMS) Create(kt kms.KeyType) (kms.KeyHandle, error) {
	priv, pub, err := keyutil.Generate(kt)
	if err != nil {
		return kms.KeyHandle{}, fmt.Errorf("localkms: create key: %w", err)
	}

	keyID, err := fingerprint.ForKey(kt, pub)
	if err != nil {
		return kms.KeyHandle{}, fmt.Errorf("localkms: key id: %w", err)
	}

	sealed, err := l.lock.Seal(keyID, priv)
	if err != nil {
		return kms.KeyHandle{}, fmt.Errorf("localkms: seal key: %w", err)
	}

	data, err := json.Marshal(&keyRecord{Type: kt, Sealed: sealed, Public: pub})
	if err != nil {
		return kms.KeyHandle{}, fmt.Errorf("localkms: marshal key: %w", err)
	}

	if err = l.store.Insert(keyID, data); err != nil {
		return kms.KeyHandle{}, fmt.Errorf("localkms: store key: %w", err)
	}

	logger.Debugf("created %s key %s", kt, keyID)

	return kms.KeyHandle{KeyID: keyID, Type: kt}, nil
}

// Sign signs data. Signing with the same key is serialized; different keys sign in parallel.
func (l *LocalKMS) Sign(keyID string, data []byte) ([]byte, error) {
	mu, _ := l.keyLocks.LoadOrStore(keyID, &sync.Mutex{})
	keyLock := mu.(*sync.Mutex) //nolint:forcetypeassert

	keyLock.Lock()
	defer keyLock.Unlock()

	rec, err := l.record(keyID)
	if err != nil {
		return nil, err
	}

	priv, err := l.lock.Open(keyID, rec.Sealed)
	if err != nil {
		return nil, fmt.Errorf("localkms: %w", err)
	}

	sig, err := keyutil.Sign(rec.Type, priv, data)
	if err != nil {
		return nil, fmt.Errorf("localkms: sign: %w", err)
	}

	return sig, nil
}

// PublicKey returns the public key and type of keyID.
func (l *LocalKMS) PublicKey(keyID string) ([]byte, kms.KeyType, error) {
	rec, err := l.record(keyID)
	if err != nil {
		return nil, "", err
	}

	return rec.Public, rec.Type, nil
}

func (l *LocalKMS) record(keyID string) (*keyRecord, error) {
	data, err := l.store.Get(keyID)
	if err != nil {
		if errors.Is(err, spi.ErrDataNotFound) {
			return nil, trusterr.New(trusterr.KeyNotFound, "key %s not found", keyID)
		}

		return nil, fmt.Errorf("localkms: read key: %w", err)
	}

	rec := &keyRecord{}
	if err = json.Unmarshal(data, rec); err != nil {
		return nil, fmt.Errorf("localkms: unmarshal key: %w", err)
	}

	return rec, nil
}
