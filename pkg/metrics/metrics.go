// Package metrics exposes Prometheus collectors for probing, resolution and
// dispatch.
package metrics

import (
	"context"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/morezero/intents/pkg/intent"
	"github.com/morezero/intents/pkg/resolver"
)

var (
	probeCallsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "intents_probe_calls_total",
			Help: "Total number of capability probe calls",
		},
		[]string{"verb", "result"},
	)

	probeDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "intents_probe_duration_seconds",
			Help:    "Capability probe duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"verb"},
	)

	resolutionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "intents_resolutions_total",
			Help: "Total number of fallback resolutions",
		},
		[]string{"state"},
	)

	dispatchRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "intents_dispatch_requests_total",
			Help: "Total number of dispatched requests",
		},
		[]string{"method", "outcome"},
	)

	dispatchDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "intents_dispatch_duration_seconds",
			Help:    "Dispatch duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method"},
	)
)

// Probe results.
const (
	ResultAvailable   = "available"
	ResultUnavailable = "unavailable"
	ResultError       = "error"
)

// Handler serves the default registry.
func Handler() http.Handler {
	return promhttp.Handler()
}

func RecordProbe(verb intent.Verb, result string, duration time.Duration) {
	probeCallsTotal.WithLabelValues(string(verb), result).Inc()
	probeDuration.WithLabelValues(string(verb)).Observe(duration.Seconds())
}

func RecordResolution(state resolver.State) {
	resolutionsTotal.WithLabelValues(string(state)).Inc()
}

// RecordDispatch counts one dispatched request. outcome is "ok" or an error code.
func RecordDispatch(method, outcome string, duration time.Duration) {
	dispatchRequestsTotal.WithLabelValues(method, outcome).Inc()
	dispatchDuration.WithLabelValues(method).Observe(duration.Seconds())
}

// InstrumentProbe wraps p so every call is counted and timed.
func InstrumentProbe(p resolver.Probe) resolver.Probe {
	return resolver.ProbeFunc(func(ctx context.Context, req intent.Request) (bool, error) {
		start := time.Now()
		ok, err := p.Available(ctx, req)
		result := ResultUnavailable
		switch {
		case err != nil:
			result = ResultError
		case ok:
			result = ResultAvailable
		}
		RecordProbe(req.Verb, result, time.Since(start))
		return ok, err
	})
}
