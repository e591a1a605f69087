// Package metrics registers the Prometheus collectors exported on /metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// HTTP Metrics
var (
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: MetricNameHTTPRequestsTotal,
			Help: HelpTextHTTPRequestsTotal,
		},
		[]string{LabelMethod, LabelPath, LabelStatus},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    MetricNameHTTPRequestDuration,
			Help:    HelpTextHTTPRequestDuration,
			Buckets: HTTPLatencyBuckets,
		},
		[]string{LabelMethod, LabelPath},
	)

	HTTPRequestsInFlight = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: MetricNameHTTPRequestsInFlight,
			Help: HelpTextHTTPRequestsInFlight,
		},
	)
)

// Authorization flow metrics
var (
	OAuthInitiations = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: MetricNameOAuthInitiations,
			Help: HelpTextOAuthInitiations,
		},
		[]string{LabelPlatform},
	)

	OAuthCallbacks = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: MetricNameOAuthCallbacks,
			Help: HelpTextOAuthCallbacks,
		},
		[]string{LabelPlatform, LabelOutcome},
	)

	StatesSwept = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: MetricNameStatesSwept,
			Help: HelpTextStatesSwept,
		},
	)
)

// Token lifecycle metrics
var (
	TokenRefreshes = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: MetricNameTokenRefreshes,
			Help: HelpTextTokenRefreshes,
		},
		[]string{LabelPlatform, LabelTrigger, LabelOutcome},
	)

	TokenRefreshDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    MetricNameTokenRefreshDuration,
			Help:    HelpTextTokenRefreshDuration,
			Buckets: PlatformLatencyBuckets,
		},
		[]string{LabelPlatform},
	)
)

// Scheduler metrics
var (
	JobRuns = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: MetricNameJobRuns,
			Help: HelpTextJobRuns,
		},
		[]string{LabelJob, LabelOutcome},
	)

	JobDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    MetricNameJobDurations,
			Help:    HelpTextJobDurations,
			Buckets: PlatformLatencyBuckets,
		},
		[]string{LabelJob},
	)
)
