// Package server exposes the meters over HTTP: event tracking, a JSON
// stats snapshot, prometheus scraping and a health probe.
package server

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"spindle/internal/metrics"
	"spindle/internal/stats"
)

type Server struct {
	logger  *zap.Logger
	meters  map[string]*stats.Meter
	latency *stats.Latency
}

func New(logger *zap.Logger, meters []*stats.Meter, latency *stats.Latency) *Server {
	byName := make(map[string]*stats.Meter, len(meters))
	for _, m := range meters {
		byName[m.Name()] = m
	}
	return &Server{logger: logger, meters: byName, latency: latency}
}

func (s *Server) Routes(mux *http.ServeMux, gatherer prometheus.Gatherer) {
	mux.HandleFunc("/track", s.handleTrack)
	mux.HandleFunc("/stats", s.handleStats)
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	mux.Handle("/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))
}

func (s *Server) handleTrack(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	started := time.Now()

	name := r.URL.Query().Get("meter")
	meter := s.meters[name]
	if meter == nil {
		http.Error(w, "unknown meter", http.StatusNotFound)
		return
	}

	n := int64(1)
	if raw := r.URL.Query().Get("n"); raw != "" {
		parsed, err := strconv.ParseInt(raw, 10, 64)
		if err != nil || parsed <= 0 {
			http.Error(w, "invalid count", http.StatusBadRequest)
			return
		}
		n = parsed
	}

	if err := meter.Mark(n); err != nil {
		s.logger.Error("mark failed", zap.String("meter", name), zap.Error(err))
		http.Error(w, "aggregation failed", http.StatusInternalServerError)
		return
	}
	metrics.TrackRequests.WithLabelValues(name).Inc()

	if s.latency != nil {
		if err := s.latency.Observe(time.Since(started)); err != nil {
			s.logger.Error("latency observe failed", zap.Error(err))
		}
	}
	w.WriteHeader(http.StatusAccepted)
}

type meterStats struct {
	Name  string  `json:"name"`
	Rate  float64 `json:"rate_per_second"`
	Total int64   `json:"total"`
}

type latencyStats struct {
	Name      string  `json:"name"`
	AverageMS float64 `json:"average_ms"`
}

type statsResponse struct {
	Meters  []meterStats  `json:"meters"`
	Latency *latencyStats `json:"latency,omitempty"`
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	resp := statsResponse{Meters: make([]meterStats, 0, len(s.meters))}
	for name, meter := range s.meters {
		rate, err := meter.Rate()
		if err != nil {
			s.logger.Error("rate failed", zap.String("meter", name), zap.Error(err))
			http.Error(w, "aggregation failed", http.StatusInternalServerError)
			return
		}
		total, err := meter.Total()
		if err != nil {
			s.logger.Error("total failed", zap.String("meter", name), zap.Error(err))
			http.Error(w, "aggregation failed", http.StatusInternalServerError)
			return
		}
		resp.Meters = append(resp.Meters, meterStats{Name: name, Rate: rate, Total: total})
	}

	if s.latency != nil {
		avg, err := s.latency.Average()
		if err != nil {
			s.logger.Error("latency average failed", zap.Error(err))
			http.Error(w, "aggregation failed", http.StatusInternalServerError)
			return
		}
		resp.Latency = &latencyStats{
			Name:      s.latency.Name(),
			AverageMS: float64(avg) / float64(time.Millisecond),
		}
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(resp); err != nil {
		s.logger.Error("encode stats failed", zap.Error(err))
	}
}
