/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package metrics

import (
	"time"
)

// Constants used by different metrics provider.
const (
	// Namespace Organization namespace.
	Namespace = "trustcore"

	// DID resolution.
	VDR               = "vdr"
	VDRResolveMetric  = "resolve_seconds"
	VDRResolveFailure = "resolve_failures_total"

	// Credential operations.
	Credential          = "credential"
	CredentialIssue     = "issue_seconds"
	CredentialVerify    = "verify_seconds"
	CredentialRejected  = "verify_rejected_total"
	CredentialSignature = "sign_seconds"

	// Anchoring.
	Anchor            = "anchor"
	AnchorWriteMetric = "write_seconds"
	AnchorRetryMetric = "write_retries_total"

	// Labels.
	MethodLabel = "method"
	ChainLabel  = "chain"
)

// Provider is an interface for metrics provider.
type Provider interface {
	// Create creates a metrics provider instance
	Create() error
	// Destroy destroys the metrics provider instance
	Destroy() error
	// Metrics providers metrics
	Metrics() Metrics
}

// Metrics is an interface for the metrics to be supported by the provider.
type Metrics interface {
	ResolveTime(method string, value time.Duration)
	ResolveFailed(method string)
	IssueTime(value time.Duration)
	SignTime(value time.Duration)
	VerifyTime(value time.Duration)
	VerifyRejected()
	AnchorWriteTime(chain string, value time.Duration)
	AnchorRetry(chain string)
}
