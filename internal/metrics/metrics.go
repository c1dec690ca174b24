package metrics

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds the engine's Prometheus instruments. A nil *Metrics is
// valid and records nothing.
type Metrics struct {
	registry       *prometheus.Registry
	packets        prometheus.Counter
	alerts         *prometheus.CounterVec
	detectorErrors *prometheus.CounterVec
	slowPackets    prometheus.Counter
	queueDepth     prometheus.Gauge
	processing     prometheus.Histogram
}

func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		packets: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "gonetsentry_packets_total",
			Help: "Packets dispatched to the detector set",
		}),
		alerts: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "gonetsentry_alerts_total",
			Help: "Alerts raised by anomaly type",
		}, []string{"type"}),
		detectorErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "gonetsentry_detector_errors_total",
			Help: "Packets a detector failed to inspect",
		}, []string{"detector"}),
		slowPackets: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "gonetsentry_slow_packets_total",
			Help: "Packets whose dispatch exceeded the processing budget",
		}),
		queueDepth: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "gonetsentry_queue_depth",
			Help: "Packets waiting in the ingestion queue",
		}),
		processing: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "gonetsentry_packet_processing_seconds",
			Help:    "Time spent dispatching one packet to all detectors",
			Buckets: prometheus.ExponentialBuckets(0.000001, 4, 10),
		}),
	}
	m.registry.MustRegister(m.packets, m.alerts, m.detectorErrors, m.slowPackets, m.queueDepth, m.processing)
	return m
}

func (m *Metrics) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
}

func (m *Metrics) ObservePacket(d time.Duration) {
	if m == nil {
		return
	}
	m.packets.Inc()
	m.processing.Observe(d.Seconds())
}

func (m *Metrics) AlertRaised(kind string) {
	if m == nil {
		return
	}
	m.alerts.WithLabelValues(kind).Inc()
}

func (m *Metrics) DetectorError(detector string) {
	if m == nil {
		return
	}
	m.detectorErrors.WithLabelValues(detector).Inc()
}

func (m *Metrics) SlowPacket() {
	if m == nil {
		return
	}
	m.slowPackets.Inc()
}

func (m *Metrics) SetQueueDepth(n int) {
	if m == nil {
		return
	}
	m.queueDepth.Set(float64(n))
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Serve exposes /metrics on addr until ctx is done.
func Serve(ctx context.Context, addr string, m *Metrics, logger *slog.Logger) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", m.Handler())
	srv := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		if logger != nil {
			logger.Info("metrics listening", "addr", addr)
		}
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) && logger != nil {
			logger.Error("metrics server failed", "err", err)
		}
	}()
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()
	return srv
}
