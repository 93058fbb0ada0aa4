package observability

import (
	"errors"
	"net/http"
	"strconv"
	"sync/atomic"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/yungbote/medsim-backend/internal/platform/envutil"
	"github.com/yungbote/medsim-backend/internal/platform/logger"
)

// Metrics holds the Prometheus collectors for the API process. A nil *Metrics is
// valid and records nothing.
type Metrics struct {
	registry *prometheus.Registry

	apiRequests *prometheus.CounterVec
	apiLatency  *prometheus.HistogramVec
	apiInflight prometheus.Gauge

	upstreamRequests *prometheus.CounterVec
	upstreamLatency  *prometheus.HistogramVec

	feedbackSource *prometheus.CounterVec
	audioCache     *prometheus.CounterVec
}

var current atomic.Pointer[Metrics]

func Enabled() bool {
	return envutil.Bool("METRICS_ENABLED", true)
}

// Current returns the process-wide metrics set by Init, or nil.
func Current() *Metrics {
	return current.Load()
}

func Init(log *logger.Logger) *Metrics {
	if !Enabled() {
		return nil
	}
	m := NewMetrics()
	m.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	current.Store(m)
	if log != nil {
		log.Info("prometheus metrics initialized")
	}
	return m
}

// NewMetrics builds an isolated registry; it does not touch Current.
func NewMetrics() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		apiRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "medsim_api_requests_total",
			Help: "HTTP requests by method, route and status.",
		}, []string{"method", "route", "status"}),
		apiLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "medsim_api_request_duration_seconds",
			Help:    "HTTP request latency.",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "route"}),
		apiInflight: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "medsim_api_inflight_requests",
			Help: "HTTP requests currently being served.",
		}),
		upstreamRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "medsim_upstream_requests_total",
			Help: "Calls to external model and speech providers.",
		}, []string{"provider", "op", "status"}),
		upstreamLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "medsim_upstream_request_duration_seconds",
			Help:    "Latency of calls to external providers.",
			Buckets: []float64{0.1, 0.25, 0.5, 1, 2, 5, 10, 20, 40, 80},
		}, []string{"provider", "op"}),
		feedbackSource: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "medsim_feedback_generated_total",
			Help: "Feedback records by how they were produced (model, local, fallback).",
		}, []string{"source"}),
		audioCache: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "medsim_speech_cache_total",
			Help: "Speech audio cache lookups by result.",
		}, []string{"result"}),
	}
	m.registry.MustRegister(
		m.apiRequests, m.apiLatency, m.apiInflight,
		m.upstreamRequests, m.upstreamLatency,
		m.feedbackSource, m.audioCache,
	)
	return m
}

func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func (m *Metrics) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
}

func (m *Metrics) ObserveAPI(method, route, status string, dur time.Duration) {
	if m == nil {
		return
	}
	m.apiRequests.WithLabelValues(method, route, status).Inc()
	m.apiLatency.WithLabelValues(method, route).Observe(dur.Seconds())
}

func (m *Metrics) ApiInflightInc() {
	if m == nil {
		return
	}
	m.apiInflight.Inc()
}

func (m *Metrics) ApiInflightDec() {
	if m == nil {
		return
	}
	m.apiInflight.Dec()
}

func (m *Metrics) ObserveUpstream(provider, op, status string, dur time.Duration) {
	if m == nil {
		return
	}
	m.upstreamRequests.WithLabelValues(provider, op, status).Inc()
	m.upstreamLatency.WithLabelValues(provider, op).Observe(dur.Seconds())
}

func (m *Metrics) IncFeedbackSource(source string) {
	if m == nil {
		return
	}
	m.feedbackSource.WithLabelValues(source).Inc()
}

func (m *Metrics) IncAudioCache(result string) {
	if m == nil {
		return
	}
	m.audioCache.WithLabelValues(result).Inc()
}

// UpstreamStatus labels an upstream outcome: "ok", the HTTP code when err exposes
// one, or "error".
func UpstreamStatus(err error) string {
	if err == nil {
		return "ok"
	}
	var sc interface{ HTTPStatusCode() int }
	if errors.As(err, &sc) && sc.HTTPStatusCode() > 0 {
		return strconv.Itoa(sc.HTTPStatusCode())
	}
	return "error"
}
