// Package metrics exports lovecontract's observability hooks as Prometheus
// metrics.
package metrics

import (
	"context"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/matzehuels/lovecontract/pkg/errors"
	"github.com/matzehuels/lovecontract/pkg/observability"
)

var durationBuckets = []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5}

// Metrics holds every Prometheus collector lovecontract exports. It
// implements the store, codec and session hooks.
type Metrics struct {
	StoreOps         *prometheus.CounterVec
	StoreDuration    *prometheus.HistogramVec
	StoreRetries     *prometheus.CounterVec
	BlobsEncoded     *prometheus.CounterVec
	BlobsDecoded     *prometheus.CounterVec
	DecodeDuration   prometheus.Histogram
	ActiveSessions   prometheus.Gauge
	SignaturesSaved  *prometheus.CounterVec
	PersistFailures  *prometheus.CounterVec
	HTTPRequests     *prometheus.CounterVec
	HTTPDuration     *prometheus.HistogramVec
	registry         *prometheus.Registry
}

// New creates a registry holding the Go and process collectors plus every
// lovecontract metric.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	f := promauto.With(reg)

	return &Metrics{
		registry: reg,
		StoreOps: f.NewCounterVec(prometheus.CounterOpts{
			Name: "lovecontract_store_operations_total",
			Help: "Store calls by operation, slot and outcome code",
		}, []string{"op", "slot", "code"}),
		StoreDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "lovecontract_store_operation_duration_seconds",
			Help:    "Duration of store calls, retries included",
			Buckets: durationBuckets,
		}, []string{"op"}),
		StoreRetries: f.NewCounterVec(prometheus.CounterOpts{
			Name: "lovecontract_store_retries_total",
			Help: "Store calls retried after a transient failure",
		}, []string{"op"}),
		BlobsEncoded: f.NewCounterVec(prometheus.CounterOpts{
			Name: "lovecontract_blobs_encoded_total",
			Help: "Signature surfaces serialized, by outcome code",
		}, []string{"code"}),
		BlobsDecoded: f.NewCounterVec(prometheus.CounterOpts{
			Name: "lovecontract_blobs_decoded_total",
			Help: "Signature blobs deserialized, by media type and outcome code",
		}, []string{"media_type", "code"}),
		DecodeDuration: f.NewHistogram(prometheus.HistogramOpts{
			Name:    "lovecontract_blob_decode_duration_seconds",
			Help:    "Duration of signature blob decoding",
			Buckets: durationBuckets,
		}),
		ActiveSessions: f.NewGauge(prometheus.GaugeOpts{
			Name: "lovecontract_sessions_active",
			Help: "Signing sessions currently open",
		}),
		SignaturesSaved: f.NewCounterVec(prometheus.CounterOpts{
			Name: "lovecontract_signatures_saved_total",
			Help: "Captures saved, by slot",
		}, []string{"slot"}),
		PersistFailures: f.NewCounterVec(prometheus.CounterOpts{
			Name: "lovecontract_persist_failures_total",
			Help: "Failed store writes, by operation and whether memory was rolled back",
		}, []string{"op", "slot", "rolled_back"}),
		HTTPRequests: f.NewCounterVec(prometheus.CounterOpts{
			Name: "lovecontract_http_requests_total",
			Help: "HTTP requests by route pattern, method and status",
		}, []string{"route", "method", "status"}),
		HTTPDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "lovecontract_http_request_duration_seconds",
			Help:    "HTTP request latency by route pattern",
			Buckets: durationBuckets,
		}, []string{"route"}),
	}
}

// Install registers m as the process-wide observability hooks.
func (m *Metrics) Install() {
	observability.SetStoreHooks(m)
	observability.SetCodecHooks(m)
	observability.SetSessionHooks(m)
}

// Registry returns the registry the collectors live in.
func (m *Metrics) Registry() *prometheus.Registry { return m.registry }

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// ObserveHTTP records one served request.
func (m *Metrics) ObserveHTTP(route, method string, status int, d time.Duration) {
	if route == "" {
		route = "unmatched"
	}
	m.HTTPRequests.WithLabelValues(route, method, statusClass(status)).Inc()
	m.HTTPDuration.WithLabelValues(route).Observe(d.Seconds())
}

func (m *Metrics) OnOperation(_ context.Context, op, slot string, d time.Duration, err error) {
	m.StoreOps.WithLabelValues(op, slot, outcome(err)).Inc()
	m.StoreDuration.WithLabelValues(op).Observe(d.Seconds())
}

func (m *Metrics) OnRetry(_ context.Context, op string, _ int, _ error) {
	m.StoreRetries.WithLabelValues(op).Inc()
}

func (m *Metrics) OnEncode(_ context.Context, _ int, _ time.Duration, err error) {
	m.BlobsEncoded.WithLabelValues(outcome(err)).Inc()
}

func (m *Metrics) OnDecode(_ context.Context, mediaType string, _ int, d time.Duration, err error) {
	if mediaType == "" {
		mediaType = "unknown"
	}
	m.BlobsDecoded.WithLabelValues(mediaType, outcome(err)).Inc()
	m.DecodeDuration.Observe(d.Seconds())
}

func (m *Metrics) OnSessionOpen(context.Context)  { m.ActiveSessions.Inc() }
func (m *Metrics) OnSessionClose(context.Context) { m.ActiveSessions.Dec() }

func (m *Metrics) OnSignatureSaved(_ context.Context, slot string) {
	m.SignaturesSaved.WithLabelValues(slot).Inc()
}

func (m *Metrics) OnPersistFailure(_ context.Context, op, slot string, rolledBack bool) {
	rb := "false"
	if rolledBack {
		rb = "true"
	}
	m.PersistFailures.WithLabelValues(op, slot, rb).Inc()
}

// outcome labels a result by its error code, "ok" for success.
func outcome(err error) string {
	if err == nil {
		return "ok"
	}
	if code := errors.GetCode(err); code != "" {
		return string(code)
	}
	return string(errors.ErrCodeInternal)
}

func statusClass(status int) string {
	switch {
	case status >= 500:
		return "5xx"
	case status >= 400:
		return "4xx"
	case status >= 300:
		return "3xx"
	default:
		return "2xx"
	}
}
