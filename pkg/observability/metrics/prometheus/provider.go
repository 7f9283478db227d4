/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package prometheus

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/hyperledger/aries-trust-core/pkg/common/log"
	"github.com/hyperledger/aries-trust-core/pkg/observability/metrics"
)

var logger = log.New("trustcore/metrics")

type promProvider struct {
	registry *prometheus.Registry
	metrics  *PromMetrics
}

// NewPrometheusProvider creates new instance of Prometheus Metrics Provider. Metrics
// are registered with their own registry, exposed through Handler.
func NewPrometheusProvider() metrics.Provider {
	return &promProvider{registry: prometheus.NewRegistry()}
}

// Create registers the metrics.
func (pp *promProvider) Create() error {
	if pp.metrics != nil {
		return nil
	}

	m, err := NewMetrics(pp.registry)
	if err != nil {
		return err
	}

	pp.metrics = m

	return nil
}

// Metrics returns supported metrics.
func (pp *promProvider) Metrics() metrics.Metrics {
	return pp.metrics
}

// Destroy unregisters the metrics.
func (pp *promProvider) Destroy() error {
	if pp.metrics != nil {
		pp.metrics.unregister(pp.registry)
		pp.metrics = nil
	}

	return nil
}

// Gatherer returns the registry the provider's metrics are registered with.
func (pp *promProvider) Gatherer() prometheus.Gatherer {
	return pp.registry
}

// PromMetrics manages the metrics of a trust core instance.
type PromMetrics struct {
	resolveTime     *prometheus.HistogramVec
	resolveFailures *prometheus.CounterVec
	issueTime       prometheus.Histogram
	signTime        prometheus.Histogram
	verifyTime      prometheus.Histogram
	verifyRejected  prometheus.Counter
	anchorWriteTime *prometheus.HistogramVec
	anchorRetries   *prometheus.CounterVec
}

// NewMetrics creates instance of prometheus metrics registered with reg.
func NewMetrics(reg prometheus.Registerer) (*PromMetrics, error) {
	pm := &PromMetrics{
		resolveTime: newHistogramVec(metrics.VDR, metrics.VDRResolveMetric,
			"The time (in seconds) it takes to resolve a DID.", metrics.MethodLabel),
		resolveFailures: newCounterVec(metrics.VDR, metrics.VDRResolveFailure,
			"The number of failed DID resolutions.", metrics.MethodLabel),
		issueTime: newHistogram(metrics.Credential, metrics.CredentialIssue,
			"The time (in seconds) it takes to issue a credential."),
		signTime: newHistogram(metrics.Credential, metrics.CredentialSignature,
			"The time (in seconds) it takes to sign a proof."),
		verifyTime: newHistogram(metrics.Credential, metrics.CredentialVerify,
			"The time (in seconds) it takes to verify a credential."),
		verifyRejected: newCounter(metrics.Credential, metrics.CredentialRejected,
			"The number of credentials failing verification."),
		anchorWriteTime: newHistogramVec(metrics.Anchor, metrics.AnchorWriteMetric,
			"The time (in seconds) it takes to anchor a digest.", metrics.ChainLabel),
		anchorRetries: newCounterVec(metrics.Anchor, metrics.AnchorRetryMetric,
			"The number of retried anchor writes.", metrics.ChainLabel),
	}

	for _, c := range pm.collectors() {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}

	return pm, nil
}

// ResolveTime records the time for DID resolution.
func (pm *PromMetrics) ResolveTime(method string, value time.Duration) {
	pm.resolveTime.WithLabelValues(method).Observe(value.Seconds())

	logger.Debugf("did:%s resolve time: %s", method, value)
}

// ResolveFailed counts a failed DID resolution.
func (pm *PromMetrics) ResolveFailed(method string) {
	pm.resolveFailures.WithLabelValues(method).Inc()
}

// IssueTime records the time for credential issuance.
func (pm *PromMetrics) IssueTime(value time.Duration) {
	pm.issueTime.Observe(value.Seconds())

	logger.Debugf("credential issue time: %s", value)
}

// SignTime records the time for signing a proof.
func (pm *PromMetrics) SignTime(value time.Duration) {
	pm.signTime.Observe(value.Seconds())
}

// VerifyTime records the time for credential verification.
func (pm *PromMetrics) VerifyTime(value time.Duration) {
	pm.verifyTime.Observe(value.Seconds())

	logger.Debugf("credential verify time: %s", value)
}

// VerifyRejected counts a credential failing verification.
func (pm *PromMetrics) VerifyRejected() {
	pm.verifyRejected.Inc()
}

// AnchorWriteTime records the time for anchoring a digest.
func (pm *PromMetrics) AnchorWriteTime(chain string, value time.Duration) {
	pm.anchorWriteTime.WithLabelValues(chain).Observe(value.Seconds())

	logger.Debugf("anchor write time on %s: %s", chain, value)
}

// AnchorRetry counts a retried anchor write.
func (pm *PromMetrics) AnchorRetry(chain string) {
	pm.anchorRetries.WithLabelValues(chain).Inc()
}

func (pm *PromMetrics) collectors() []prometheus.Collector {
	return []prometheus.Collector{
		pm.resolveTime, pm.resolveFailures, pm.issueTime, pm.signTime,
		pm.verifyTime, pm.verifyRejected, pm.anchorWriteTime, pm.anchorRetries,
	}
}

func (pm *PromMetrics) unregister(reg prometheus.Registerer) {
	for _, c := range pm.collectors() {
		reg.Unregister(c)
	}
}

func newCounter(subsystem, name, help string) prometheus.Counter {
	return prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: metrics.Namespace,
		Subsystem: subsystem,
		Name:      name,
		Help:      help,
	})
}

func newCounterVec(subsystem, name, help string, labels ...string) *prometheus.CounterVec {
	return prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: metrics.Namespace,
		Subsystem: subsystem,
		Name:      name,
		Help:      help,
	}, labels)
}

func newHistogram(subsystem, name, help string) prometheus.Histogram {
	return prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: metrics.Namespace,
		Subsystem: subsystem,
		Name:      name,
		Help:      help,
	})
}

func newHistogramVec(subsystem, name, help string, labels ...string) *prometheus.HistogramVec {
	return prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: metrics.Namespace,
		Subsystem: subsystem,
		Name:      name,
		Help:      help,
	}, labels)
}
