/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package localkms_test

import (
	"crypto/sha256"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/hyperledger/aries-trust-core/pkg/common/trusterr"
	"github.com/hyperledger/aries-trust-core/pkg/kms"
	"github.com/hyperledger/aries-trust-core/pkg/kms/keyutil"
	"github.com/hyperledger/aries-trust-core/pkg/kms/localkms"
	"github.com/hyperledger/aries-trust-core/pkg/secretlock"
	"github.com/hyperledger/aries-trust-core/pkg/secretlock/hkdf"
	"github.com/hyperledger/aries-trust-core/pkg/storage/mem"
	spi "github.com/hyperledger/aries-trust-core/spi/storage"
)

type provider struct {
	storage spi.Provider
	lock    secretlock.Service
}

func (p *provider) StorageProvider() spi.Provider   { return p.storage }
func (p *provider) SecretLock() secretlock.Service { return p.lock }

func newProvider(t *testing.T) *provider {
	t.Helper()

	lock, err := hkdf.NewMasterLock("passphrase", sha256.New, nil)
	require.NoError(t, err)

	return &provider{storage: mem.NewProvider(), lock: lock}
}

func TestCreateAndSign(t *testing.T) {
	km, err := localkms.New(newProvider(t))
	require.NoError(t, err)

	for _, kt := range []kms.KeyType{kms.ED25519Type, kms.ECDSASecp256k1TypeDER, kms.ECDSAP256TypeDER} {
		t.Run(string(kt), func(t *testing.T) {
			handle, err := km.Create(kt)
			require.NoError(t, err)
			require.Equal(t, kt, handle.Type)
			require.NotEmpty(t, handle.KeyID)

			pub, gotType, err := km.PublicKey(handle.KeyID)
			require.NoError(t, err)
			require.Equal(t, kt, gotType)

			sig, err := km.Sign(handle.KeyID, []byte("msg"))
			require.NoError(t, err)
			require.NoError(t, keyutil.Verify(kt, pub, []byte("msg"), sig))
		})
	}

	_, err = km.Create("RSA")
	require.Error(t, err)
}

func TestKeyNotFound(t *testing.T) {
	km, err := localkms.New(newProvider(t))
	require.NoError(t, err)

	_, err = km.Sign("z6MkUnknown", []byte("msg"))
	require.ErrorIs(t, err, trusterr.ErrKeyNotFound)

	_, _, err = km.PublicKey("z6MkUnknown")
	require.ErrorIs(t, err, trusterr.ErrKeyNotFound)
}

func TestInstancesAreIsolated(t *testing.T) {
	p := newProvider(t)

	issuer, err := localkms.New(p)
	require.NoError(t, err)

	holder, err := localkms.New(p)
	require.NoError(t, err)

	handle, err := issuer.Create(kms.ED25519Type)
	require.NoError(t, err)

	_, err = holder.Sign(handle.KeyID, []byte("msg"))
	require.ErrorIs(t, err, trusterr.ErrKeyNotFound)

	reopened, err := localkms.New(p, localkms.WithInstanceID(issuer.InstanceID()))
	require.NoError(t, err)

	_, err = reopened.Sign(handle.KeyID, []byte("msg"))
	require.NoError(t, err)
}

func TestPrivateKeyIsSealed(t *testing.T) {
	p := newProvider(t)

	km, err := localkms.New(p, localkms.WithInstanceID("sealed"))
	require.NoError(t, err)

	handle, err := km.Create(kms.ED25519Type)
	require.NoError(t, err)

	store, err := p.storage.OpenStore("localkms_sealed")
	require.NoError(t, err)

	raw, err := store.Get(handle.KeyID)
	require.NoError(t, err)
	require.Contains(t, string(raw), "sealed")
}

func TestConcurrentSign(t *testing.T) {
	km, err := localkms.New(newProvider(t))
	require.NoError(t, err)

	first, err := km.Create(kms.ED25519Type)
	require.NoError(t, err)

	second, err := km.Create(kms.ECDSAP256TypeDER)
	require.NoError(t, err)

	var wg sync.WaitGroup

	errs := make(chan error, 40)

	for i := 0; i < 20; i++ {
		for _, h := range []kms.KeyHandle{first, second} {
			wg.Add(1)

			go func(h kms.KeyHandle, i int) {
				defer wg.Done()

				_, err := km.Sign(h.KeyID, []byte(fmt.Sprintf("msg-%d", i)))
				errs <- err
			}(h, i)
		}
	}

	wg.Wait()
	close(errs)

	for err := range errs {
		require.NoError(t, err)
	}
}
