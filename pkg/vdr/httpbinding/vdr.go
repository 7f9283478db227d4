/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

// Package httpbinding resolves DIDs against a DID resolver HTTP(s) endpoint.
package httpbinding

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"path"
	"time"

	"github.com/tidwall/gjson"

	"github.com/hyperledger/aries-trust-core/pkg/common/log"
	"github.com/hyperledger/aries-trust-core/pkg/doc/did"
	"github.com/hyperledger/aries-trust-core/pkg/kms"
	"github.com/hyperledger/aries-trust-core/pkg/vdr/api"
)

const (
	didLDJson      = "application/did+ld+json"
	defaultTimeout = 10 * time.Second
)

var logger = log.New("trustcore/vdr/httpbinding")

// Accept is method to accept did method.
type Accept func(method string) bool

// Option configures the httpbinding vdr.
type Option func(opts *VDR)

// WithTimeout option is for definition of HTTP(s) timeout value of DID Resolver.
func WithTimeout(timeout time.Duration) Option {
	return func(opts *VDR) {
		opts.client.Timeout = timeout
	}
}

// WithHTTPClient option is for custom http client.
func WithHTTPClient(httpClient *http.Client) Option {
	return func(opts *VDR) {
		opts.client = httpClient
	}
}

// WithAccept option is for accept did method.
func WithAccept(accept Accept) Option {
	return func(opts *VDR) {
		opts.accept = accept
	}
}

// WithResolveAuthToken add auth token for resolve.
func WithResolveAuthToken(authToken string) Option {
	return func(opts *VDR) {
		opts.resolveAuthToken = "Bearer " + authToken
	}
}

// VDR via HTTP(s) endpoint.
type VDR struct {
	endpointURL      string
	client           *http.Client
	accept           Accept
	resolveAuthToken string
}

// New creates new DID Resolver.
func New(endpointURL string, opts ...Option) (*VDR, error) {
	v := &VDR{
		client: &http.Client{Timeout: defaultTimeout},
		accept: func(string) bool { return true },
	}

	for _, opt := range opts {
		opt(v)
	}

	// Validate host
	_, err := url.ParseRequestURI(endpointURL)
	if err != nil {
		return nil, fmt.Errorf("base URL invalid: %w", err)
	}

	v.endpointURL = endpointURL

	return v, nil
}

// Accept did method - attempt to resolve any method.
func (v *VDR) Accept(method string) bool {
	return v.accept(method)
}

// Create is not supported by a remote resolver.
func (v *VDR) Create(context.Context, []byte, kms.KeyType, string) (*did.Doc, error) {
	return nil, api.ErrCreateNotSupported
}

// Read fetches <endpoint>/<did>. The response is either a DID resolution result
// carrying a didDocument member or a bare DID document.
func (v *VDR) Read(ctx context.Context, d did.DID) (*did.Doc, error) {
	reqURL, err := url.ParseRequestURI(v.endpointURL)
	if err != nil {
		return nil, fmt.Errorf("url parse request uri failed: %w", err)
	}

	reqURL.Path = path.Join(reqURL.Path, d.String())

	data, err := v.resolveDID(ctx, reqURL.String())
	if err != nil {
		return nil, err
	}

	if len(data) == 0 {
		return nil, api.ErrNotFound
	}

	result := gjson.ParseBytes(data)

	if doc := result.Get("didDocument"); doc.Exists() {
		if !doc.IsObject() {
			return nil, api.ErrNotFound
		}

		return did.ParseDocument([]byte(doc.Raw))
	}

	return did.ParseDocument(data)
}

// resolveDID makes DID resolution via HTTP.
func (v *VDR) resolveDID(ctx context.Context, uri string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, uri, nil)
	if err != nil {
		return nil, fmt.Errorf("HTTP create get request failed: %w", err)
	}

	req.Header.Add("Accept", didLDJson)

	if v.resolveAuthToken != "" {
		req.Header.Add("Authorization", v.resolveAuthToken)
	}

	resp, err := v.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("HTTP Get request failed: %w", err)
	}

	defer closeResponseBody(resp.Body)

	gotBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading response body failed: %w", err)
	}

	switch resp.StatusCode {
	case http.StatusOK:
		return gotBody, nil
	case http.StatusNotFound, http.StatusGone:
		return nil, api.ErrNotFound
	default:
		return nil, fmt.Errorf("unsupported response from DID resolver [%v] header [%s] body [%s]",
			resp.StatusCode, resp.Header.Get("Content-type"), gotBody)
	}
}

func closeResponseBody(respBody io.Closer) {
	e := respBody.Close()
	if e != nil {
		logger.Errorf("Failed to close response body: %v", e)
	}
}
