package api

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/warp/pay-engine/payroll"
)

// Metrics holds the pay engine's Prometheus collectors on a private
// registry, so several routers (tests) never collide on registration.
type Metrics struct {
	registry *prometheus.Registry

	HTTPRequestsTotal    *prometheus.CounterVec
	HTTPRequestDuration  *prometheus.HistogramVec
	HTTPRequestsInFlight prometheus.Gauge

	CalculationsTotal   *prometheus.CounterVec
	CalculationDuration prometheus.Histogram
	PayCalculated       *prometheus.CounterVec
}

// NewMetrics creates and registers all collectors under the given namespace.
func NewMetrics(namespace string) *Metrics {
	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector())
	registry.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	m := &Metrics{registry: registry}

	m.HTTPRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "Total number of HTTP requests",
		},
		[]string{"method", "route", "status"},
	)
	m.HTTPRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request duration in seconds",
			Buckets:   []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5},
		},
		[]string{"method", "route"},
	)
	m.HTTPRequestsInFlight = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "http_requests_in_flight",
			Help:      "Number of HTTP requests currently being processed",
		},
	)

	m.CalculationsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "calculations_total",
			Help:      "Pay calculations by outcome",
		},
		[]string{"outcome"},
	)
	m.CalculationDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "calculation_duration_seconds",
			Help:      "Time spent inside the calculation pipeline",
			Buckets:   []float64{.00005, .0001, .00025, .0005, .001, .0025, .005, .01},
		},
	)
	m.PayCalculated = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "pay_calculated_dollars_total",
			Help:      "Gross pay produced by successful calculations, by component",
		},
		[]string{"component"},
	)

	registry.MustRegister(
		m.HTTPRequestsTotal,
		m.HTTPRequestDuration,
		m.HTTPRequestsInFlight,
		m.CalculationsTotal,
		m.CalculationDuration,
		m.PayCalculated,
	)
	return m
}

// Handler serves the registry for scraping.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// Registry exposes the underlying registry.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Middleware records request count, latency and in-flight requests. Routes
// are labelled by their chi pattern, not the raw path, to bound cardinality.
func (m *Metrics) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		m.HTTPRequestsInFlight.Inc()
		defer m.HTTPRequestsInFlight.Dec()

		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		route := "unmatched"
		if rctx := chi.RouteContext(r.Context()); rctx != nil {
			if p := rctx.RoutePattern(); p != "" {
				route = p
			}
		}
		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		m.HTTPRequestsTotal.WithLabelValues(r.Method, route, strconv.Itoa(status)).Inc()
		m.HTTPRequestDuration.WithLabelValues(r.Method, route).Observe(time.Since(start).Seconds())
	})
}

// observeCalculation records one pipeline run.
func (m *Metrics) observeCalculation(d time.Duration, res payroll.PayCalculationResult, err error) {
	m.CalculationDuration.Observe(d.Seconds())
	m.recordOutcome(res, err)
}

func (m *Metrics) recordOutcome(res payroll.PayCalculationResult, err error) {
	if err != nil {
		m.CalculationsTotal.WithLabelValues("rejected").Inc()
		return
	}
	m.CalculationsTotal.WithLabelValues("ok").Inc()
	m.PayCalculated.WithLabelValues("base").Add(res.Breakdown.BasePay.InexactFloat64())
	m.PayCalculated.WithLabelValues("penalty").Add(res.Breakdown.PenaltyPay.InexactFloat64())
	m.PayCalculated.WithLabelValues("overtime").Add(res.Breakdown.OvertimePay.InexactFloat64())
}
