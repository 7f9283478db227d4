/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package disclosure

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/hyperledger/aries-trust-core/internal/testutil"
	"github.com/hyperledger/aries-trust-core/pkg/common/trusterr"
	"github.com/hyperledger/aries-trust-core/pkg/doc/claim"
	"github.com/hyperledger/aries-trust-core/pkg/doc/did"
	"github.com/hyperledger/aries-trust-core/pkg/doc/signature/suite"
	"github.com/hyperledger/aries-trust-core/pkg/doc/verifiable"
	"github.com/hyperledger/aries-trust-core/pkg/issuer"
	"github.com/hyperledger/aries-trust-core/pkg/kms"
	"github.com/hyperledger/aries-trust-core/pkg/vdr"
	"github.com/hyperledger/aries-trust-core/pkg/vdr/key"
	"github.com/hyperledger/aries-trust-core/pkg/verifier"
)

type party struct {
	did   did.DID
	keyID string
}

type fixture struct {
	engine *Engine
	issuer party
	holder party
	vc     *verifiable.Credential
}

func newFixture(t *testing.T, opts ...Option) *fixture {
	t.Helper()

	ctx := context.Background()
	km := testutil.NewKMS(t)
	registry := vdr.New(km, vdr.WithVDR(key.New()))
	suites := suite.NewDefaultRegistry()

	newParty := func(kt kms.KeyType) party {
		id, handle, err := registry.Create(ctx, key.DIDMethod, vdr.WithKeyType(kt))
		require.NoError(t, err)

		return party{did: id, keyID: handle.KeyID}
	}

	f := &fixture{
		engine: New(km, registry, suites, verifier.New(registry, suites), opts...),
		issuer: newParty(kms.ED25519Type),
		holder: newParty(kms.ECDSAP256TypeDER),
	}

	subject := claim.MustFromGo(map[string]interface{}{
		"name":    "Alice",
		"age":     30,
		"address": map[string]interface{}{"city": "Paris", "country": "FR"},
	})

	var err error

	f.vc, err = issuer.New(km, registry, suites).Issue(ctx, subject, f.issuer.did, f.issuer.keyID,
		issuer.WithSelectiveDisclosure())
	require.NoError(t, err)
	require.Len(t, f.vc.Commitments, 4)

	return f
}

func (f *fixture) present(t *testing.T, challenge string, paths ...string) *verifiable.Presentation {
	t.Helper()

	vp, err := f.engine.Present(context.Background(), f.vc, f.holder.did, f.holder.keyID, paths, challenge)
	require.NoError(t, err)

	return vp
}

func requireKind(t *testing.T, err error, kind trusterr.Kind) {
	t.Helper()

	require.Error(t, err)
	require.Equal(t, kind, trusterr.KindOf(err), err.Error())
}

func TestPresent(t *testing.T) {
	f := newFixture(t)

	vp := f.present(t, "c-1", "/age", "/address/city")

	require.Equal(t, f.vc.ID, vp.SourceCredentialID)
	require.Equal(t, f.holder.did, vp.Holder)
	require.Len(t, vp.Disclosed, 2)
	require.Len(t, vp.UndisclosedCommitments, 2)
	require.Equal(t, "c-1", vp.HolderProof.Challenge)

	raw, err := json.Marshal(vp)
	require.NoError(t, err)

	for _, c := range vp.UndisclosedCommitments {
		d, ok := f.vc.DisclosureAt(c.FieldPath)
		require.True(t, ok)
		require.NotContains(t, string(raw), base64.RawURLEncoding.EncodeToString(d.Salt),
			"salt of %s leaked", c.FieldPath)
	}

	require.NoError(t, f.engine.VerifyPresentation(context.Background(), vp, f.vc, "c-1"))

	parsed, err := verifiable.ParsePresentation(raw)
	require.NoError(t, err)
	require.NoError(t, f.engine.VerifyPresentation(context.Background(), parsed, f.vc, "c-1"))
}

func TestPresentNothing(t *testing.T) {
	f := newFixture(t)

	vp := f.present(t, "c-1")
	require.Empty(t, vp.Disclosed)
	require.Len(t, vp.UndisclosedCommitments, len(f.vc.Commitments))
	require.NoError(t, f.engine.VerifyPresentation(context.Background(), vp, f.vc, "c-1"))
}

func TestPresentErrors(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	t.Run("unknown path", func(t *testing.T) {
		_, err := f.engine.Present(ctx, f.vc, f.holder.did, f.holder.keyID, []string{"/salary"}, "c")
		requireKind(t, err, trusterr.CommitmentMismatch)
	})

	t.Run("missing disclosures", func(t *testing.T) {
		_, err := f.engine.Present(ctx, f.vc.WithoutDisclosures(), f.holder.did, f.holder.keyID,
			[]string{"/age"}, "c")
		requireKind(t, err, trusterr.CommitmentMismatch)
	})

	t.Run("plain credential", func(t *testing.T) {
		plain := *f.vc
		plain.Commitments = nil
		plain.Subject = claim.MustFromGo(map[string]interface{}{"age": 30})

		_, err := f.engine.Present(ctx, &plain, f.holder.did, f.holder.keyID, []string{"/age"}, "c")
		requireKind(t, err, trusterr.CommitmentMismatch)
	})

	t.Run("key of another DID", func(t *testing.T) {
		_, err := f.engine.Present(ctx, f.vc, f.holder.did, f.issuer.keyID, []string{"/age"}, "c")
		requireKind(t, err, trusterr.KeyNotAuthorized)
	})

	t.Run("unresolvable holder", func(t *testing.T) {
		_, err := f.engine.Present(ctx, f.vc, did.MustParse("did:web:example.com"), "key-1", []string{"/age"}, "c")
		requireKind(t, err, trusterr.KeyNotAuthorized)
		require.True(t, errors.Is(err, trusterr.ErrDidMethodUnsupported))
	})
}

func TestVerifyPresentationRejects(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	tests := []struct {
		name   string
		mutate func(vp *verifiable.Presentation, vc *verifiable.Credential) string
		kind   trusterr.Kind
	}{
		{
			name: "altered disclosed value",
			mutate: func(vp *verifiable.Presentation, _ *verifiable.Credential) string {
				vp.Disclosed[0].Value = claim.Number(21)

				return "c-1"
			},
			kind: trusterr.CommitmentMismatch,
		},
		{
			name: "altered salt",
			mutate: func(vp *verifiable.Presentation, _ *verifiable.Credential) string {
				vp.Disclosed[0].Salt[0] ^= 0xff

				return "c-1"
			},
			kind: trusterr.CommitmentMismatch,
		},
		{
			name: "disclosure of uncommitted field",
			mutate: func(vp *verifiable.Presentation, _ *verifiable.Credential) string {
				vp.Disclosed[0].FieldPath = "/salary"

				return "c-1"
			},
			kind: trusterr.CommitmentMismatch,
		},
		{
			name: "injected commitment",
			mutate: func(vp *verifiable.Presentation, _ *verifiable.Credential) string {
				vp.UndisclosedCommitments = append(vp.UndisclosedCommitments,
					verifiable.Commitment{FieldPath: "/salary", Digest: make([]byte, 32)})

				return "c-1"
			},
			kind: trusterr.CommitmentMismatch,
		},
		{
			name: "replaced commitment digest",
			mutate: func(vp *verifiable.Presentation, _ *verifiable.Credential) string {
				vp.UndisclosedCommitments[0].Digest = make([]byte, 32)

				return "c-1"
			},
			kind: trusterr.CommitmentMismatch,
		},
		{
			name: "dropped commitment",
			mutate: func(vp *verifiable.Presentation, _ *verifiable.Credential) string {
				vp.UndisclosedCommitments = vp.UndisclosedCommitments[1:]

				return "c-1"
			},
			kind: trusterr.CommitmentMismatch,
		},
		{
			name: "original without commitments",
			mutate: func(_ *verifiable.Presentation, vc *verifiable.Credential) string {
				vc.Subject = claim.MustFromGo(map[string]interface{}{"age": 29})
				vc.Commitments = nil
				vc.Disclosures = nil

				return "c-1"
			},
			kind: trusterr.CommitmentMismatch,
		},
		{
			name: "other source credential",
			mutate: func(vp *verifiable.Presentation, _ *verifiable.Credential) string {
				vp.SourceCredentialID = "urn:uuid:other"

				return "c-1"
			},
			kind: trusterr.CommitmentMismatch,
		},
		{
			name: "forged original",
			mutate: func(_ *verifiable.Presentation, vc *verifiable.Credential) string {
				vc.Types = append(vc.Types, "DriverLicense")

				return "c-1"
			},
			kind: trusterr.InvalidProof,
		},
		{
			name: "other challenge",
			mutate: func(_ *verifiable.Presentation, _ *verifiable.Credential) string {
				return "c-2"
			},
			kind: trusterr.ReplayedChallenge,
		},
		{
			name: "rewritten proof challenge",
			mutate: func(vp *verifiable.Presentation, _ *verifiable.Credential) string {
				vp.HolderProof.Challenge = "c-2"

				return "c-2"
			},
			kind: trusterr.InvalidProof,
		},
		{
			name: "claimed by another holder",
			mutate: func(vp *verifiable.Presentation, _ *verifiable.Credential) string {
				vp.Holder = f.issuer.did

				return "c-1"
			},
			kind: trusterr.InvalidProof,
		},
		{
			name: "missing holder proof",
			mutate: func(vp *verifiable.Presentation, _ *verifiable.Credential) string {
				vp.HolderProof = nil

				return "c-1"
			},
			kind: trusterr.InvalidProof,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			vp := f.present(t, "c-1", "/age", "/name")

			raw, err := json.Marshal(f.vc)
			require.NoError(t, err)

			original, err := verifiable.ParseCredential(raw)
			require.NoError(t, err)

			challenge := tc.mutate(vp, original)

			requireKind(t, f.engine.VerifyPresentation(ctx, vp, original, challenge), tc.kind)
		})
	}
}

func TestChallengeTracking(t *testing.T) {
	ctx := context.Background()

	t.Run("single use", func(t *testing.T) {
		f := newFixture(t, WithChallengeTracking(16, time.Minute))

		challenge, err := f.engine.NewChallenge()
		require.NoError(t, err)

		vp := f.present(t, challenge, "/age")

		require.NoError(t, f.engine.VerifyPresentation(ctx, vp, f.vc, challenge))
		requireKind(t, f.engine.VerifyPresentation(ctx, vp, f.vc, challenge), trusterr.ReplayedChallenge)
	})

	t.Run("unknown challenge", func(t *testing.T) {
		f := newFixture(t, WithChallengeTracking(16, time.Minute))

		vp := f.present(t, "made-up", "/age")
		requireKind(t, f.engine.VerifyPresentation(ctx, vp, f.vc, "made-up"), trusterr.ReplayedChallenge)
	})

	t.Run("failed verification keeps the challenge", func(t *testing.T) {
		f := newFixture(t, WithChallengeTracking(16, time.Minute))

		challenge, err := f.engine.NewChallenge()
		require.NoError(t, err)

		vp := f.present(t, challenge, "/age")
		good := vp.Disclosed[0].Value
		vp.Disclosed[0].Value = claim.Number(99)

		requireKind(t, f.engine.VerifyPresentation(ctx, vp, f.vc, challenge), trusterr.CommitmentMismatch)

		vp.Disclosed[0].Value = good
		require.NoError(t, f.engine.VerifyPresentation(ctx, vp, f.vc, challenge))
	})

	t.Run("expired challenge", func(t *testing.T) {
		f := newFixture(t, WithChallengeTracking(16, time.Millisecond))

		challenge, err := f.engine.NewChallenge()
		require.NoError(t, err)

		vp := f.present(t, challenge, "/age")

		time.Sleep(20 * time.Millisecond)

		requireKind(t, f.engine.VerifyPresentation(ctx, vp, f.vc, challenge), trusterr.ReplayedChallenge)
	})

	t.Run("untracked challenges are unique", func(t *testing.T) {
		f := newFixture(t)

		a, err := f.engine.NewChallenge()
		require.NoError(t, err)

		b, err := f.engine.NewChallenge()
		require.NoError(t, err)

		require.NotEqual(t, a, b)
	})
}
