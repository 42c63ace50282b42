package metrics

import (
	"bufio"
	"errors"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/Go-routine-4595/aquavigil/model"
)

// Metrics owns its registry so several instances (tests, one per server) never clash
// on the global default registerer.
type Metrics struct {
	registry          *prometheus.Registry
	httpRequestsTotal *prometheus.CounterVec
	httpDuration      *prometheus.HistogramVec
	alertsRaised      *prometheus.CounterVec
	gatewayMessages   *prometheus.CounterVec
	gatewayErrors     prometheus.Counter
	contactMessages   prometheus.Counter
}

func NewMetrics() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		httpRequestsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total count of HTTP requests processed by route and status.",
		}, []string{"route", "status"}),
		httpDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "Histogram of HTTP request durations by route.",
			Buckets: prometheus.DefBuckets,
		}, []string{"route"}),
		alertsRaised: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "aquavigil_alerts_raised_total",
			Help: "Alerts computed, by severity.",
		}, []string{"severity"}),
		gatewayMessages: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "aquavigil_gateway_messages_total",
			Help: "Messages handed to the notification gateways, by type.",
		}, []string{"type"}),
		gatewayErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "aquavigil_gateway_errors_total",
			Help: "Failed gateway deliveries.",
		}),
		contactMessages: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "aquavigil_contact_messages_total",
			Help: "Contact form messages accepted.",
		}),
	}

	m.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.httpRequestsTotal,
		m.httpDuration,
		m.alertsRaised,
		m.gatewayMessages,
		m.gatewayErrors,
		m.contactMessages,
	)

	return m
}

func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func (m *Metrics) ObserveAlerts(alerts []model.Alert) {
	for _, a := range alerts {
		m.alertsRaised.WithLabelValues(string(a.Severity)).Inc()
	}
}

func (m *Metrics) ObserveGateway(t model.MessageType, err error) {
	m.gatewayMessages.WithLabelValues(string(t)).Inc()
	if err != nil {
		m.gatewayErrors.Inc()
	}
}

func (m *Metrics) ObserveContact() {
	m.contactMessages.Inc()
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (s *statusRecorder) WriteHeader(status int) {
	s.status = status
	s.ResponseWriter.WriteHeader(status)
}

// Hijack keeps websocket upgrades working behind the recorder.
func (s *statusRecorder) Hijack() (net.Conn, *bufio.ReadWriter, error) {
	h, ok := s.ResponseWriter.(http.Hijacker)
	if !ok {
		return nil, nil, errors.New("response writer does not support hijacking")
	}
	s.status = http.StatusSwitchingProtocols
	return h.Hijack()
}

// Middleware records count and latency per chi route pattern, so ids in the path do
// not blow up label cardinality.
func (m *Metrics) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}

		next.ServeHTTP(rec, r)

		route := "unmatched"
		if rctx := chi.RouteContext(r.Context()); rctx != nil && rctx.RoutePattern() != "" {
			route = rctx.RoutePattern()
		}
		m.httpRequestsTotal.WithLabelValues(route, strconv.Itoa(rec.status)).Inc()
		m.httpDuration.WithLabelValues(route).Observe(time.Since(start).Seconds())
	})
}
