// internal/pkg/metrics/metrics.go
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/shopspring/decimal"
)

const namespace = "pharmabook"

// Metrics holds the HTTP and billing collectors. It implements ports.BillingMetrics.
type Metrics struct {
	registry prometheus.Gatherer

	RequestsTotal   *prometheus.CounterVec
	RequestDuration *prometheus.HistogramVec
	InFlight        prometheus.Gauge

	BillsTotal      prometheus.Counter
	BillFailures    *prometheus.CounterVec
	BillItems       prometheus.Histogram
	BillAmount      prometheus.Counter
	LedgerDuration  prometheus.Histogram
	ConflictRetries prometheus.Counter
	StockIntake     *prometheus.CounterVec
}

// New registers every collector on reg. A nil reg gets a fresh registry.
func New(reg *prometheus.Registry) *Metrics {
	if reg == nil {
		reg = prometheus.NewRegistry()
	}

	m := &Metrics{
		registry: reg,
		RequestsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "HTTP requests handled, by method, route and status.",
		}, []string{"method", "route", "status"}),
		RequestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "route"}),
		InFlight: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "http_in_flight_requests",
			Help:      "Requests currently being served.",
		}),
		BillsTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "bills_created_total",
			Help:      "Bills committed.",
		}),
		BillFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "bill_failures_total",
			Help:      "Rejected or failed bills, by error kind.",
		}, []string{"kind"}),
		BillItems: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "bill_items",
			Help:      "Line items per committed bill.",
			Buckets:   []float64{1, 2, 3, 5, 10, 20, 50},
		}),
		BillAmount: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "bill_amount_total",
			Help:      "Sum of committed bill totals.",
		}),
		LedgerDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "bill_duration_seconds",
			Help:      "Time from request to commit for successful bills.",
			Buckets:   []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5},
		}),
		ConflictRetries: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "bill_conflict_retries_total",
			Help:      "Bill attempts retried after a write conflict.",
		}),
		StockIntake: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "stock_intake_total",
			Help:      "Batches received, split by whether a medicine was created.",
		}, []string{"medicine"}),
	}

	reg.MustRegister(
		m.RequestsTotal, m.RequestDuration, m.InFlight,
		m.BillsTotal, m.BillFailures, m.BillItems, m.BillAmount,
		m.LedgerDuration, m.ConflictRetries, m.StockIntake,
	)
	return m
}

func (m *Metrics) BillCreated(items int, total decimal.Decimal, elapsed time.Duration) {
	m.BillsTotal.Inc()
	m.BillItems.Observe(float64(items))
	m.BillAmount.Add(total.InexactFloat64())
	m.LedgerDuration.Observe(elapsed.Seconds())
}

func (m *Metrics) BillFailed(kind string) {
	if kind == "" {
		kind = "internal"
	}
	m.BillFailures.WithLabelValues(kind).Inc()
}

func (m *Metrics) ConflictRetried() { m.ConflictRetries.Inc() }

func (m *Metrics) StockAdded(newMedicine bool) {
	label := "existing"
	if newMedicine {
		label = "new"
	}
	m.StockIntake.WithLabelValues(label).Inc()
}

// Handler serves the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Middleware records request count, latency and in-flight requests.
// routeOf maps a request to a low-cardinality route label; unmatched
// requests are reported as "unmatched".
func (m *Metrics) Middleware(routeOf func(*http.Request) string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			route := ""
			if routeOf != nil {
				route = routeOf(r)
			}
			if route == "" {
				route = "unmatched"
			}

			m.InFlight.Inc()
			defer m.InFlight.Dec()

			rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
			start := time.Now()
			next.ServeHTTP(rec, r)

			m.RequestDuration.WithLabelValues(r.Method, route).Observe(time.Since(start).Seconds())
			m.RequestsTotal.WithLabelValues(r.Method, route, strconv.Itoa(rec.status)).Inc()
		})
	}
}

// MuxRoute resolves the pattern the mux would dispatch r to.
func MuxRoute(mux *http.ServeMux) func(*http.Request) string {
	return func(r *http.Request) string {
		_, pattern := mux.Handler(r)
		return pattern
	}
}

type statusRecorder struct {
	http.ResponseWriter
	status      int
	wroteHeader bool
}

func (r *statusRecorder) WriteHeader(code int) {
	if !r.wroteHeader {
		r.status = code
		r.wroteHeader = true
	}
	r.ResponseWriter.WriteHeader(code)
}

func (r *statusRecorder) Unwrap() http.ResponseWriter { return r.ResponseWriter }
