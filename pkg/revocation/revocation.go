/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

// Package revocation keeps a revocation list of credential IDs in a storage provider.
package revocation

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/hyperledger/aries-trust-core/pkg/common/log"
	spi "github.com/hyperledger/aries-trust-core/spi/storage"
)

// StoreName is the revocation list store.
const StoreName = "revocation"

var logger = log.New("trustcore/revocation")

// List is a revocation list.
type List struct {
	store spi.Store
	now   func() time.Time
}

// New opens the revocation list of a storage provider.
func New(p spi.Provider) (*List, error) {
	store, err := p.OpenStore(StoreName)
	if err != nil {
		return nil, fmt.Errorf("open revocation store: %w", err)
	}

	return &List{store: store, now: time.Now}, nil
}

// Revoke adds a credential to the list. Revoking twice is a no-op.
func (l *List) Revoke(credentialID string) error {
	if credentialID == "" {
		return errors.New("revoke: empty credential id")
	}

	err := l.store.Insert(credentialID, []byte(l.now().UTC().Format(time.RFC3339)))
	if err != nil && !errors.Is(err, spi.ErrDuplicateKey) {
		return fmt.Errorf("revoke %s: %w", credentialID, err)
	}

	logger.Infof("revoked credential %s", credentialID)

	return nil
}

// Reinstate removes a credential from the list.
func (l *List) Reinstate(credentialID string) error {
	err := l.store.Delete(credentialID)
	if err != nil && !errors.Is(err, spi.ErrDataNotFound) {
		return fmt.Errorf("reinstate %s: %w", credentialID, err)
	}

	return nil
}

// IsRevoked reports whether the credential is on the list.
func (l *List) IsRevoked(ctx context.Context, credentialID string) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}

	_, err := l.store.Get(credentialID)

	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, spi.ErrDataNotFound):
		return false, nil
	default:
		return false, fmt.Errorf("revocation status of %s: %w", credentialID, err)
	}
}
