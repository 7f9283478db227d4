/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package trusterr_test

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/hyperledger/aries-trust-core/pkg/common/trusterr"
)

func TestKinds(t *testing.T) {
	err := trusterr.New(trusterr.KeyNotFound, "key %s", "abc")

	require.EqualError(t, err, "KeyNotFound: key abc")
	require.ErrorIs(t, err, trusterr.ErrKeyNotFound)
	require.NotErrorIs(t, err, trusterr.ErrDidNotFound)
	require.Equal(t, trusterr.KeyNotFound, trusterr.KindOf(err))

	wrapped := fmt.Errorf("sign: %w", err)
	require.ErrorIs(t, wrapped, trusterr.ErrKeyNotFound)
	require.Equal(t, trusterr.KeyNotFound, trusterr.KindOf(wrapped))

	require.Equal(t, trusterr.Unknown, trusterr.KindOf(errors.New("plain")))
	require.Equal(t, "Kind(99)", trusterr.Kind(99).String())
}

func TestWrap(t *testing.T) {
	cause := errors.New("timeout")
	err := trusterr.Wrap(trusterr.DidNotFound, cause, "resolve %s", "did:key:z1")

	require.ErrorIs(t, err, cause)
	require.ErrorIs(t, err, trusterr.ErrDidNotFound)
	require.Contains(t, err.Error(), "resolve did:key:z1: timeout")

	require.NoError(t, trusterr.Wrap(trusterr.DidNotFound, nil, "nothing"))
}

func TestRetryable(t *testing.T) {
	err := trusterr.NewRetryable(errors.New("network"))

	require.True(t, trusterr.IsRetryable(err))
	require.ErrorIs(t, err, trusterr.ErrAnchorWriteFailure)

	fatal := trusterr.New(trusterr.AnchorWriteFailure, "rejected")
	require.False(t, trusterr.IsRetryable(fatal))
	require.False(t, trusterr.IsRetryable(errors.New("plain")))
}
