/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package proof

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func newProof() *Proof {
	return &Proof{
		SuiteID:              "Ed25519Signature2020",
		VerificationMethodID: "did:key:z6Mk#z6Mk",
		Created:              time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC),
		Signature:            []byte{1, 2, 3},
		Challenge:            "c-1",
	}
}

func TestJSON(t *testing.T) {
	p := newProof()

	data, err := json.Marshal(p)
	require.NoError(t, err)
	require.JSONEq(t, `{
		"type": "Ed25519Signature2020",
		"verificationMethod": "did:key:z6Mk#z6Mk",
		"created": "2024-01-02T03:04:05Z",
		"challenge": "c-1",
		"proofValue": "zLdp"
	}`, string(data))

	parsed := &Proof{}
	require.NoError(t, json.Unmarshal(data, parsed))
	require.Equal(t, p, parsed)

	node, err := p.ToNode()
	require.NoError(t, err)

	fromNode, err := FromNode(node)
	require.NoError(t, err)
	require.Equal(t, p, fromNode)

	require.Error(t, json.Unmarshal([]byte(`{"created": "yesterday"}`), parsed))
	require.Error(t, json.Unmarshal([]byte(`{"created": "2024-01-02T03:04:05Z", "proofValue": "!x"}`), parsed))
}

func TestSigningInput(t *testing.T) {
	p := newProof()

	input, err := p.SigningInput([]byte("data"))
	require.NoError(t, err)
	require.Len(t, input, 64)

	again, err := p.SigningInput([]byte("data"))
	require.NoError(t, err)
	require.Equal(t, input, again)

	other, err := p.SigningInput([]byte("other"))
	require.NoError(t, err)
	require.Equal(t, input[:32], other[:32])
	require.NotEqual(t, input[32:], other[32:])

	p.Challenge = "c-2"

	rebound, err := p.SigningInput([]byte("data"))
	require.NoError(t, err)
	require.NotEqual(t, input[:32], rebound[:32])

	p.Signature = []byte{9}

	unaffected, err := p.SigningInput([]byte("data"))
	require.NoError(t, err)
	require.Equal(t, rebound, unaffected)
}
