package metrics

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/el-rey08/EDHF-logistics/internal/platform/logger"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

// MetricsManager holds the service's Prometheus collectors.
// All recording methods are safe on a nil receiver.
type MetricsManager struct {
	Registry *prometheus.Registry

	OTPIssuedTotal       *prometheus.CounterVec
	OTPVerificationTotal *prometheus.CounterVec
	LoginsTotal          *prometheus.CounterVec
	DeliveriesCreated    *prometheus.CounterVec
	LocationUpdatesTotal prometheus.Counter
	HTTPErrorsTotal      *prometheus.CounterVec
	HTTPLatency          *prometheus.HistogramVec
}

func NewMetricsManager(namespace string) *MetricsManager {
	registry := prometheus.NewRegistry()

	m := &MetricsManager{
		Registry: registry,
		OTPIssuedTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "otp_issued_total",
			Help:      "One-time codes issued, by account kind and purpose.",
		}, []string{"kind", "purpose"}),
		OTPVerificationTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "otp_verifications_total",
			Help:      "OTP verification attempts by account kind and outcome.",
		}, []string{"kind", "outcome"}),
		LoginsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "logins_total",
			Help:      "Login attempts by account kind and outcome.",
		}, []string{"kind", "outcome"}),
		DeliveriesCreated: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "deliveries_created_total",
			Help:      "Delivery requests accepted, by delivery type.",
		}, []string{"type"}),
		LocationUpdatesTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "rider_location_updates_total",
			Help:      "Rider location updates broadcast.",
		}),
		HTTPErrorsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_errors_total",
			Help:      "HTTP responses with status >= 400 by route and status.",
		}, []string{"route", "status"}),
		HTTPLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "Latency of HTTP requests by method and route.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "route"}),
	}

	registry.MustRegister(
		m.OTPIssuedTotal,
		m.OTPVerificationTotal,
		m.LoginsTotal,
		m.DeliveriesCreated,
		m.LocationUpdatesTotal,
		m.HTTPErrorsTotal,
		m.HTTPLatency,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

func (m *MetricsManager) OTPIssued(kind, purpose string) {
	if m == nil {
		return
	}
	m.OTPIssuedTotal.WithLabelValues(kind, purpose).Inc()
}

func (m *MetricsManager) OTPVerification(kind, outcome string) {
	if m == nil {
		return
	}
	m.OTPVerificationTotal.WithLabelValues(kind, outcome).Inc()
}

func (m *MetricsManager) Login(kind, outcome string) {
	if m == nil {
		return
	}
	m.LoginsTotal.WithLabelValues(kind, outcome).Inc()
}

func (m *MetricsManager) DeliveryCreated(deliveryType string) {
	if m == nil {
		return
	}
	m.DeliveriesCreated.WithLabelValues(deliveryType).Inc()
}

func (m *MetricsManager) LocationUpdated() {
	if m == nil {
		return
	}
	m.LocationUpdatesTotal.Inc()
}

func (m *MetricsManager) ObserveHTTP(method, route string, status int, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.HTTPLatency.WithLabelValues(method, route).Observe(elapsed.Seconds())
	if status >= 400 {
		m.HTTPErrorsTotal.WithLabelValues(route, http.StatusText(status)).Inc()
	}
}

// Server exposes the registry on /metrics.
type Server struct {
	srv *http.Server
	log *logger.Logger
}

// NewServer returns nil when port is empty.
func NewServer(port string, registry *prometheus.Registry, log *logger.Logger) *Server {
	if port == "" {
		log.Info("Prometheus metrics server port not configured, server will not start")
		return nil
	}
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))
	return &Server{
		srv: &http.Server{Addr: ":" + port, Handler: mux, ReadHeaderTimeout: 5 * time.Second},
		log: log,
	}
}

func (s *Server) Start() error {
	if s == nil {
		return nil
	}
	s.log.Info("Prometheus metrics server starting", zap.String("addr", s.srv.Addr), zap.String("path", "/metrics"))
	if err := s.srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *Server) Shutdown(ctx context.Context) error {
	if s == nil {
		return nil
	}
	return s.srv.Shutdown(ctx)
}
