/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package wallet

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/hyperledger/aries-trust-core/internal/testutil"
	"github.com/hyperledger/aries-trust-core/pkg/doc/claim"
	"github.com/hyperledger/aries-trust-core/pkg/doc/did"
	"github.com/hyperledger/aries-trust-core/pkg/doc/signature/suite"
	"github.com/hyperledger/aries-trust-core/pkg/doc/verifiable"
	"github.com/hyperledger/aries-trust-core/pkg/issuer"
	"github.com/hyperledger/aries-trust-core/pkg/storage/mem"
	"github.com/hyperledger/aries-trust-core/pkg/vdr"
	"github.com/hyperledger/aries-trust-core/pkg/vdr/key"
	"github.com/hyperledger/aries-trust-core/pkg/verifier"
)

func newCredential(id string, subject map[string]interface{}, types ...string) *verifiable.Credential {
	return &verifiable.Credential{
		ID:       id,
		Types:    append([]string{verifiable.VCType}, types...),
		Issuer:   did.MustParse("did:example:issuer"),
		Subject:  claim.MustFromGo(subject),
		IssuedAt: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
	}
}

func newWallet(t *testing.T) *Wallet {
	t.Helper()

	w, err := New(mem.NewProvider(), WithCacheSize(4))
	require.NoError(t, err)

	return w
}

func TestStore(t *testing.T) {
	w := newWallet(t)
	vc := newCredential("urn:uuid:1", map[string]interface{}{"name": "Alice"})

	id, err := w.Store(vc)
	require.NoError(t, err)

	canonical, err := vc.MarshalJSON()
	require.NoError(t, err)

	digest := sha256.Sum256(canonical)
	require.Equal(t, hex.EncodeToString(digest[:]), id)

	again, err := w.Store(newCredential("urn:uuid:1", map[string]interface{}{"name": "Alice"}))
	require.NoError(t, err)
	require.Equal(t, id, again)

	other, err := w.Store(newCredential("urn:uuid:1", map[string]interface{}{"name": "Bob"}))
	require.NoError(t, err)
	require.NotEqual(t, id, other)

	size, err := w.Size(context.Background())
	require.NoError(t, err)
	require.Equal(t, 2, size)

	_, err = w.Store(nil)
	require.Error(t, err)
}

func TestStoreConcurrent(t *testing.T) {
	w := newWallet(t)

	const n = 16

	ids := make([]string, n)

	var wg sync.WaitGroup

	for i := 0; i < n; i++ {
		wg.Add(1)

		go func(i int) {
			defer wg.Done()

			id, err := w.Store(newCredential("urn:uuid:1", map[string]interface{}{"name": "Alice"}))
			require.NoError(t, err)

			ids[i] = id
		}(i)
	}

	wg.Wait()

	for _, id := range ids {
		require.Equal(t, ids[0], id)
	}

	size, err := w.Size(context.Background())
	require.NoError(t, err)
	require.Equal(t, 1, size)
}

func TestGet(t *testing.T) {
	p := mem.NewProvider()

	w, err := New(p)
	require.NoError(t, err)

	vc := newCredential("urn:uuid:1", map[string]interface{}{"name": "Alice"})

	id, err := w.Store(vc)
	require.NoError(t, err)

	e, err := w.Get(id)
	require.NoError(t, err)
	require.Equal(t, id, e.ID)
	require.True(t, claim.Equal(vc.Subject, e.Credential.Subject))

	e.Credential.Subject.Set("name", claim.String("Mallory"))
	e.Tags = append(e.Tags, "mutated")

	fresh, err := w.Get(id)
	require.NoError(t, err)
	require.True(t, claim.Equal(vc.Subject, fresh.Credential.Subject))
	require.Empty(t, fresh.Tags)

	reopened, err := New(p)
	require.NoError(t, err)

	persisted, err := reopened.Get(id)
	require.NoError(t, err)
	require.Equal(t, fresh.StoredAt, persisted.StoredAt)
	require.True(t, claim.Equal(vc.Subject, persisted.Credential.Subject))

	_, err = w.Get("unknown")
	require.True(t, errors.Is(err, ErrNotFound))
}

func TestMetadata(t *testing.T) {
	w := newWallet(t)
	ctx := context.Background()

	id, err := w.Store(newCredential("urn:uuid:1", map[string]interface{}{"name": "Alice"}))
	require.NoError(t, err)

	require.NoError(t, w.Tag(id, "work", "travel", "work"))
	require.NoError(t, w.Untag(id, "travel"))
	require.NoError(t, w.AddToCollection(id, "passports"))
	require.NoError(t, w.AddToCollection(id, "archive"))
	require.NoError(t, w.AddToCollection(id, "archive"))
	require.Error(t, w.AddToCollection(id, ""))

	e, err := w.Get(id)
	require.NoError(t, err)
	require.Equal(t, []string{"work"}, e.Tags)
	require.Equal(t, []string{"passports", "archive"}, e.Collections)

	names, err := w.Collections(ctx)
	require.NoError(t, err)
	require.Equal(t, []string{"archive", "passports"}, names)

	require.NoError(t, w.RemoveFromCollection(id, "archive"))

	names, err = w.Collections(ctx)
	require.NoError(t, err)
	require.Equal(t, []string{"passports"}, names)

	require.True(t, errors.Is(w.Tag("unknown", "x"), ErrNotFound))

	require.NoError(t, w.Delete(id))
	require.NoError(t, w.Delete(id))

	_, err = w.Get(id)
	require.True(t, errors.Is(err, ErrNotFound))
}

func TestQueryIssued(t *testing.T) {
	ctx := context.Background()
	km := testutil.NewKMS(t)
	registry := vdr.New(km, vdr.WithVDR(key.New()))
	suites := suite.NewDefaultRegistry()

	issuerDID, handle, err := registry.Create(ctx, key.DIDMethod)
	require.NoError(t, err)

	issuedAt := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	iss := issuer.New(km, registry, suites, issuer.WithClock(func() time.Time { return issuedAt }))
	subject := claim.MustFromGo(map[string]interface{}{"name": "Alice", "age": 30})

	current, err := iss.Issue(ctx, subject, issuerDID, handle.KeyID, issuer.WithID("urn:uuid:current"),
		issuer.WithSelectiveDisclosure())
	require.NoError(t, err)

	expired, err := iss.Issue(ctx, subject, issuerDID, handle.KeyID, issuer.WithID("urn:uuid:expired"),
		issuer.WithExpiresAt(issuedAt.Add(time.Hour)))
	require.NoError(t, err)

	w := newWallet(t)

	for _, vc := range []*verifiable.Credential{current, expired, current.WithoutDisclosures()} {
		_, err = w.Store(vc)
		require.NoError(t, err)
	}

	size, err := w.Size(ctx)
	require.NoError(t, err)
	require.Equal(t, 3, size)

	v := verifier.New(registry, suites, verifier.WithClock(func() time.Time { return issuedAt.Add(2 * time.Hour) }))

	valid, err := w.Query(ctx, IsValid(v))
	require.NoError(t, err)
	require.ElementsMatch(t, []string{"urn:uuid:current", "urn:uuid:current"}, ids(valid))

	disclosed, err := w.Query(ctx, ClaimEquals("$.age", 30), IsValid(v))
	require.NoError(t, err)
	require.Len(t, disclosed, 1)
	require.NotEmpty(t, disclosed[0].Credential.Disclosures)
}
