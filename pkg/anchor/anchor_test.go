/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package anchor

import (
	"context"
	"encoding/hex"
	"errors"
	"testing"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/golang/mock/gomock"
	"github.com/stretchr/testify/require"

	"github.com/hyperledger/aries-trust-core/pkg/common/trusterr"
	"github.com/hyperledger/aries-trust-core/pkg/doc/claim"
	"github.com/hyperledger/aries-trust-core/pkg/storage/mem"
)

func newRegistry(t *testing.T, opts ...Option) *Registry {
	t.Helper()

	r, err := New(mem.NewProvider(), append([]Option{WithBackOff(func() backoff.BackOff {
		return backoff.WithMaxRetries(&backoff.ZeroBackOff{}, 2)
	})}, opts...)...)
	require.NoError(t, err)

	return r
}

func payload() *claim.Node {
	return claim.MustFromGo(map[string]interface{}{"batch": "B-17", "temperature": 4.5})
}

func TestRegister(t *testing.T) {
	r := newRegistry(t)
	client := NewMockChainClient(gomock.NewController(t))

	require.NoError(t, r.Register("local", client))
	require.Error(t, r.Register("local", client))
	require.Error(t, r.Register("", client))
	require.Error(t, r.Register("other", nil))
	require.Equal(t, []string{"local"}, r.Chains())
}

func TestAnchor(t *testing.T) {
	ctx := context.Background()
	ctrl := gomock.NewController(t)
	client := NewMockChainClient(ctrl)

	r := newRegistry(t)
	require.NoError(t, r.Register("local", client))

	want, err := claim.Digest(payload())
	require.NoError(t, err)

	client.EXPECT().Write(gomock.Any(), want, hex.EncodeToString(want)).Return("tx-1", nil)

	record, err := r.Anchor(ctx, payload(), "local")
	require.NoError(t, err)
	require.Equal(t, Ref{ChainID: "local", TxRef: "tx-1"}, record.Ref())
	require.Equal(t, want, record.Digest)

	client.EXPECT().Read(gomock.Any(), "tx-1").Return(want, hex.EncodeToString(want), nil).Times(3)

	read, err := r.Read(ctx, record.Ref())
	require.NoError(t, err)
	require.True(t, claim.Equal(payload(), read))

	ok, err := r.VerifyIntegrity(ctx, record.Ref(), payload())
	require.NoError(t, err)
	require.True(t, ok)

	ok, err = r.VerifyIntegrity(ctx, record.Ref(), payload().Set("temperature", claim.Number(4.6)))
	require.NoError(t, err)
	require.False(t, ok)
}

func TestAnchorRetries(t *testing.T) {
	ctx := context.Background()

	t.Run("transient failure recovers", func(t *testing.T) {
		client := NewMockChainClient(gomock.NewController(t))
		r := newRegistry(t)
		require.NoError(t, r.Register("local", client))

		gomock.InOrder(
			client.EXPECT().Write(gomock.Any(), gomock.Any(), gomock.Any()).
				Return("", trusterr.NewRetryable(errors.New("connection reset"))),
			client.EXPECT().Write(gomock.Any(), gomock.Any(), gomock.Any()).Return("tx-2", nil),
		)

		record, err := r.Anchor(ctx, payload(), "local")
		require.NoError(t, err)
		require.Equal(t, "tx-2", record.TxRef)
	})

	t.Run("transient failure persists", func(t *testing.T) {
		client := NewMockChainClient(gomock.NewController(t))
		r := newRegistry(t)
		require.NoError(t, r.Register("local", client))

		client.EXPECT().Write(gomock.Any(), gomock.Any(), gomock.Any()).
			Return("", trusterr.NewRetryable(errors.New("connection reset"))).Times(3)

		_, err := r.Anchor(ctx, payload(), "local")
		require.True(t, errors.Is(err, trusterr.ErrAnchorWriteFailure))
		require.True(t, trusterr.IsRetryable(err))
	})

	t.Run("rejection is not retried", func(t *testing.T) {
		client := NewMockChainClient(gomock.NewController(t))
		r := newRegistry(t)
		require.NoError(t, r.Register("local", client))

		client.EXPECT().Write(gomock.Any(), gomock.Any(), gomock.Any()).
			Return("", errors.New("insufficient funds")).Times(1)

		_, err := r.Anchor(ctx, payload(), "local")
		require.True(t, errors.Is(err, trusterr.ErrAnchorWriteFailure))
		require.False(t, trusterr.IsRetryable(err))
	})

	t.Run("timeout", func(t *testing.T) {
		client := NewMockChainClient(gomock.NewController(t))
		r := newRegistry(t, WithWriteTimeout(10*time.Millisecond))
		require.NoError(t, r.Register("local", client))

		client.EXPECT().Write(gomock.Any(), gomock.Any(), gomock.Any()).DoAndReturn(
			func(ctx context.Context, _ []byte, _ string) (string, error) {
				<-ctx.Done()

				return "", ctx.Err()
			})

		_, err := r.Anchor(ctx, payload(), "local")
		require.True(t, errors.Is(err, trusterr.ErrAnchorWriteFailure))
		require.True(t, errors.Is(err, context.DeadlineExceeded))
		require.True(t, trusterr.IsRetryable(err))
	})

	t.Run("unknown chain", func(t *testing.T) {
		_, err := newRegistry(t).Anchor(ctx, payload(), "mainnet")
		require.True(t, errors.Is(err, trusterr.ErrAnchorWriteFailure))
	})

	t.Run("payload not canonicalizable", func(t *testing.T) {
		r := newRegistry(t)
		require.NoError(t, r.Register("local", NewMockChainClient(gomock.NewController(t))))

		_, err := r.Anchor(ctx, claim.Object().Set("bad", claim.String("\xff")), "local")
		require.True(t, errors.Is(err, trusterr.ErrCanonicalization))
	})
}

func TestReadDetectsTamperedPayload(t *testing.T) {
	ctx := context.Background()
	p := mem.NewProvider()
	client := NewMockChainClient(gomock.NewController(t))

	r, err := New(p)
	require.NoError(t, err)
	require.NoError(t, r.Register("local", client))

	var digest []byte

	client.EXPECT().Write(gomock.Any(), gomock.Any(), gomock.Any()).DoAndReturn(
		func(_ context.Context, d []byte, _ string) (string, error) {
			digest = d

			return "tx-1", nil
		})

	record, err := r.Anchor(ctx, payload(), "local")
	require.NoError(t, err)

	ref := hex.EncodeToString(digest)

	store, err := p.OpenStore(PayloadStoreName)
	require.NoError(t, err)
	require.NoError(t, store.Put(ref, []byte(`{"batch":"B-18","temperature":4.5}`)))

	client.EXPECT().Read(gomock.Any(), "tx-1").Return(digest, ref, nil)

	_, err = r.Read(ctx, record.Ref())
	require.True(t, errors.Is(err, trusterr.ErrDigestMismatch))

	_, err = r.Read(ctx, Ref{ChainID: "other", TxRef: "tx-1"})
	require.Error(t, err)
}
