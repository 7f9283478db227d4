/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package noop

import (
	"time"

	"github.com/hyperledger/aries-trust-core/pkg/observability/metrics"
)

// NoMetrics provides default no operation implementation for the Metrics interface.
type NoMetrics struct{}

// GetMetrics returns metrics implementation.
func GetMetrics() metrics.Metrics {
	return &NoMetrics{}
}

func (n *NoMetrics) ResolveTime(_ string, _ time.Duration)     {}
func (n *NoMetrics) ResolveFailed(_ string)                    {}
func (n *NoMetrics) IssueTime(_ time.Duration)                 {}
func (n *NoMetrics) SignTime(_ time.Duration)                  {}
func (n *NoMetrics) VerifyTime(_ time.Duration)                {}
func (n *NoMetrics) VerifyRejected()                           {}
func (n *NoMetrics) AnchorWriteTime(_ string, _ time.Duration) {}
func (n *NoMetrics) AnchorRetry(_ string)                      {}
