package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Collector exposes Prometheus metrics for inbound HTTP requests and for
// portfolio generations. It owns a private registry so nothing else leaks
// into the exposition.
type Collector struct {
	registry        *prometheus.Registry
	requestDuration *prometheus.HistogramVec
	requestTotal    *prometheus.CounterVec

	generationTotal    *prometheus.CounterVec
	normalizationTotal prometheus.Counter
	providerDuration   *prometheus.HistogramVec
}

// NewCollector constructs a collector with default histograms/counters.
func NewCollector() (*Collector, error) {
	registry := prometheus.NewRegistry()

	requestDuration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "foliogen",
		Subsystem: "http",
		Name:      "request_duration_seconds",
		Help:      "Latency distribution for inbound HTTP requests.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"method", "path", "status"})

	requestTotal := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "foliogen",
		Subsystem: "http",
		Name:      "requests_total",
		Help:      "Total number of inbound HTTP requests.",
	}, []string{"method", "path", "status"})

	generationTotal := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "foliogen",
		Subsystem: "advisor",
		Name:      "generations_total",
		Help:      "Portfolio generations by provider and outcome.",
	}, []string{"provider", "status"})

	normalizationTotal := prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "foliogen",
		Subsystem: "advisor",
		Name:      "normalizations_total",
		Help:      "Generations whose allocations needed rescaling to 100%.",
	})

	providerDuration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "foliogen",
		Subsystem: "advisor",
		Name:      "provider_call_duration_seconds",
		Help:      "Provider round-trip latency, including the retry.",
		Buckets:   []float64{0.5, 1, 2.5, 5, 10, 20, 30, 60, 120},
	}, []string{"provider"})

	for _, c := range []prometheus.Collector{
		requestDuration,
		requestTotal,
		generationTotal,
		normalizationTotal,
		providerDuration,
	} {
		if err := registry.Register(c); err != nil {
			return nil, err
		}
	}

	return &Collector{
		registry:           registry,
		requestDuration:    requestDuration,
		requestTotal:       requestTotal,
		generationTotal:    generationTotal,
		normalizationTotal: normalizationTotal,
		providerDuration:   providerDuration,
	}, nil
}

// Handler returns an HTTP handler for exposing Prometheus metrics.
func (c *Collector) Handler() http.Handler {
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{})
}

// InstrumentHandler wraps the provided handler to record HTTP metrics.
func (c *Collector) InstrumentHandler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		rw := &responseWriter{ResponseWriter: w, status: http.StatusOK}

		next.ServeHTTP(rw, r)

		duration := time.Since(start).Seconds()
		status := strconv.Itoa(rw.status)
		path := r.URL.Path

		c.requestTotal.WithLabelValues(r.Method, path, status).Inc()
		c.requestDuration.WithLabelValues(r.Method, path, status).Observe(duration)
	})
}

// ObserveGeneration records one generation outcome. status is 'success' or
// 'error'; normalized marks allocations that needed rescaling.
func (c *Collector) ObserveGeneration(provider, status string, normalized bool, callDuration time.Duration) {
	if c == nil {
		return
	}
	c.generationTotal.WithLabelValues(provider, status).Inc()
	if normalized {
		c.normalizationTotal.Inc()
	}
	c.providerDuration.WithLabelValues(provider).Observe(callDuration.Seconds())
}

type responseWriter struct {
	http.ResponseWriter
	status int
}

func (w *responseWriter) WriteHeader(code int) {
	w.status = code
	w.ResponseWriter.WriteHeader(code)
}
