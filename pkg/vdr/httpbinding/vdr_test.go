/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package httpbinding

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gorilla/mux"
	"github.com/stretchr/testify/require"

	"github.com/hyperledger/aries-trust-core/pkg/doc/did"
	"github.com/hyperledger/aries-trust-core/pkg/kms"
	"github.com/hyperledger/aries-trust-core/pkg/vdr/api"
)

const docTemplate = `{
  "@context": ["https://www.w3.org/ns/did/v1"],
  "id": "%s",
  "verificationMethod": [{
    "id": "%s#key-1",
    "type": "Ed25519VerificationKey2018",
    "controller": "%s",
    "publicKeyBase58": "B12NYF8RrR3h41TDCTJojY59usg3mbtbjnFs7Eud1Y6u"
  }]
}`

func newResolverServer(t *testing.T) *httptest.Server {
	t.Helper()

	router := mux.NewRouter()

	router.HandleFunc("/1.0/identifiers/{did}", func(w http.ResponseWriter, r *http.Request) {
		id := mux.Vars(r)["did"]
		require.Equal(t, didLDJson, r.Header.Get("Accept"))

		switch id {
		case "did:example:bare":
			w.Header().Set("Content-type", didLDJson)
			fmt.Fprintf(w, docTemplate, id, id, id)
		case "did:example:resolution":
			w.Header().Set("Content-type", "application/ld+json")
			fmt.Fprintf(w, `{"didDocument": `+docTemplate+`, "didDocumentMetadata": {}}`, id, id, id)
		case "did:example:deactivated":
			fmt.Fprint(w, `{"didDocument": null}`)
		case "did:example:empty":
			w.WriteHeader(http.StatusOK)
		case "did:example:broken":
			w.WriteHeader(http.StatusInternalServerError)
		case "did:example:slow":
			time.Sleep(200 * time.Millisecond)
			fmt.Fprintf(w, docTemplate, id, id, id)
		case "did:example:auth":
			if r.Header.Get("Authorization") != "Bearer tk1" {
				w.WriteHeader(http.StatusUnauthorized)

				return
			}

			fmt.Fprintf(w, docTemplate, id, id, id)
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}).Methods(http.MethodGet)

	srv := httptest.NewServer(router)
	t.Cleanup(srv.Close)

	return srv
}

func TestNew(t *testing.T) {
	_, err := New("invalid url")
	require.Error(t, err)

	v, err := New("https://resolver.example.com/1.0/identifiers",
		WithAccept(func(method string) bool { return method == "example" }))
	require.NoError(t, err)
	require.True(t, v.Accept("example"))
	require.False(t, v.Accept("key"))

	_, err = v.Create(context.Background(), nil, kms.ED25519Type, "")
	require.True(t, errors.Is(err, api.ErrCreateNotSupported))
}

func TestRead(t *testing.T) {
	srv := newResolverServer(t)

	v, err := New(srv.URL + "/1.0/identifiers")
	require.NoError(t, err)

	t.Run("bare document", func(t *testing.T) {
		doc, err := v.Read(context.Background(), did.MustParse("did:example:bare"))
		require.NoError(t, err)
		require.Equal(t, "did:example:bare", doc.ID)
		require.Len(t, doc.VerificationMethod[0].Value, 32)
	})

	t.Run("resolution result", func(t *testing.T) {
		doc, err := v.Read(context.Background(), did.MustParse("did:example:resolution"))
		require.NoError(t, err)
		require.Equal(t, "did:example:resolution", doc.ID)
	})

	for _, id := range []string{"did:example:unknown", "did:example:deactivated", "did:example:empty"} {
		t.Run(id, func(t *testing.T) {
			_, err := v.Read(context.Background(), did.MustParse(id))
			require.True(t, errors.Is(err, api.ErrNotFound), err)
		})
	}

	t.Run("server error", func(t *testing.T) {
		_, err := v.Read(context.Background(), did.MustParse("did:example:broken"))
		require.Error(t, err)
		require.Contains(t, err.Error(), "unsupported response from DID resolver [500]")
	})

	t.Run("context deadline", func(t *testing.T) {
		ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
		defer cancel()

		_, err := v.Read(ctx, did.MustParse("did:example:slow"))
		require.Error(t, err)
	})

	t.Run("auth token", func(t *testing.T) {
		_, err := v.Read(context.Background(), did.MustParse("did:example:auth"))
		require.Error(t, err)

		authed, err := New(srv.URL+"/1.0/identifiers", WithResolveAuthToken("tk1"), WithTimeout(time.Second))
		require.NoError(t, err)

		doc, err := authed.Read(context.Background(), did.MustParse("did:example:auth"))
		require.NoError(t, err)
		require.Equal(t, "did:example:auth", doc.ID)
	})
}
