// Package metrics exposes simulation state as Prometheus metrics.
package metrics

import (
	"context"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/roamsim/roamsim/pkg"
	"github.com/roamsim/roamsim/pkg/logx"
	"github.com/roamsim/roamsim/pkg/telem"
)

// Server provides Prometheus metrics for a simulation run.
type Server struct {
	store    *telem.Store
	logger   *logx.Logger
	server   *http.Server
	registry *prometheus.Registry

	apRSSI  *prometheus.GaugeVec
	apDelay *prometheus.GaugeVec
	apLoad  *prometheus.GaugeVec

	stationAP *prometheus.GaugeVec

	handovers *prometheus.CounterVec
	ticks     *prometheus.CounterVec

	telemetrySamples *prometheus.GaugeVec
	telemetryEvents  prometheus.Gauge
	telemetryBytes   prometheus.Gauge
}

// NewServer creates a metrics server backed by its own registry.
func NewServer(store *telem.Store, logger *logx.Logger) *Server {
	s := &Server{
		store:    store,
		logger:   logger,
		registry: prometheus.NewRegistry(),
	}

	s.registerMetrics()
	return s
}

func (s *Server) registerMetrics() {
	s.apRSSI = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "roamsim_ap_rssi_dbm",
			Help: "Latest estimated RSSI per station and AP in dBm",
		},
		[]string{"station", "ap"},
	)

	s.apDelay = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "roamsim_ap_delay_ms",
			Help: "Latest estimated transmission delay per station and AP in milliseconds",
		},
		[]string{"station", "ap"},
	)

	s.apLoad = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "roamsim_ap_load",
			Help: "Station count observed per AP at decision time",
		},
		[]string{"ap"},
	)

	s.stationAP = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "roamsim_station_association",
			Help: "Current association of each station (1 for the connected AP)",
		},
		[]string{"station", "ap"},
	)

	s.handovers = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "roamsim_handovers_total",
			Help: "Total number of committed handovers",
		},
		[]string{"station", "strategy", "reason"},
	)

	s.ticks = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "roamsim_ticks_total",
			Help: "Total number of decision ticks",
		},
		[]string{"station", "strategy"},
	)

	s.telemetrySamples = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "roamsim_telemetry_samples",
			Help: "Number of samples in the telemetry store",
		},
		[]string{"station"},
	)

	s.telemetryEvents = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "roamsim_telemetry_events",
			Help: "Number of handover events in the telemetry store",
		},
	)

	s.telemetryBytes = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "roamsim_telemetry_memory_bytes",
			Help: "Estimated memory usage of the telemetry store in bytes",
		},
	)

	s.registry.MustRegister(
		s.apRSSI,
		s.apDelay,
		s.apLoad,
		s.stationAP,
		s.handovers,
		s.ticks,
		s.telemetrySamples,
		s.telemetryEvents,
		s.telemetryBytes,
	)
}

// Start begins serving /metrics and /health on addr.
func (s *Server) Start(addr string) error {
	s.logger.Info("Starting metrics server", "addr", addr)

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(s.registry, promhttp.HandlerOpts{}))
	mux.HandleFunc("/health", s.healthHandler)

	s.server = &http.Server{
		Addr:    addr,
		Handler: mux,
	}

	go func() {
		if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			s.logger.Error("Metrics server error", "error", err.Error())
		}
	}()

	return nil
}

// Stop shuts the metrics server down.
func (s *Server) Stop() error {
	s.logger.Info("Stopping metrics server")

	if s.server != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return s.server.Shutdown(ctx)
	}
	return nil
}

func (s *Server) healthHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(`{"status":"healthy","timestamp":"` + time.Now().Format(time.RFC3339) + `"}`))
}

// RecordTick publishes the telemetry of one decision tick.
func (s *Server) RecordTick(sample telem.Sample) {
	s.ticks.With(prometheus.Labels{
		"station":  sample.Station,
		"strategy": sample.Strategy,
	}).Inc()

	for _, row := range sample.Rows {
		labels := prometheus.Labels{"station": sample.Station, "ap": row.AP}
		s.apRSSI.With(labels).Set(row.RSSIdBm)
		s.apDelay.With(labels).Set(row.DelayMs)
		s.apLoad.With(prometheus.Labels{"ap": row.AP}).Set(row.Load)

		connected := 0.0
		if row.AP == sample.ConnectedAP {
			connected = 1.0
		}
		s.stationAP.With(labels).Set(connected)
	}

	s.updateStoreMetrics()
}

// RecordHandover counts one committed handover.
func (s *Server) RecordHandover(event pkg.HandoverEvent, strategy string) {
	s.handovers.With(prometheus.Labels{
		"station":  event.Station,
		"strategy": strategy,
		"reason":   event.Reason,
	}).Inc()
}

func (s *Server) updateStoreMetrics() {
	if s.store == nil {
		return
	}

	stats := s.store.GetStats()
	if per, ok := stats["station_samples"].(map[string]int); ok {
		for station, n := range per {
			s.telemetrySamples.With(prometheus.Labels{"station": station}).Set(float64(n))
		}
	}
	if n, ok := stats["total_events"].(int); ok {
		s.telemetryEvents.Set(float64(n))
	}
	if b, ok := stats["estimated_bytes"].(int); ok {
		s.telemetryBytes.Set(float64(b))
	}
}

// Registry exposes the server's registry for testing and embedding.
func (s *Server) Registry() *prometheus.Registry {
	return s.registry
}
