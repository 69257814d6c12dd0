// Package metrics exposes the windowed aggregates on a prometheus
// registry alongside plain monotonic counters.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"

	"spindle/internal/stats"
)

var (
	TrackRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "spindled_track_requests_total",
			Help: "Total track requests received, by meter.",
		},
		[]string{"meter"},
	)
)

func Init(reg prometheus.Registerer) {
	reg.MustRegister(TrackRequests)
}

// RegisterMeter publishes the meter's windowed rate as a gauge. A rate
// read failing mid-scrape reports zero rather than failing the scrape.
func RegisterMeter(reg prometheus.Registerer, meter *stats.Meter) {
	reg.MustRegister(prometheus.NewGaugeFunc(
		prometheus.GaugeOpts{
			Name:        "spindled_meter_rate_per_second",
			Help:        "Event rate over the rolling window.",
			ConstLabels: prometheus.Labels{"meter": meter.Name()},
		},
		func() float64 {
			rate, err := meter.Rate()
			if err != nil {
				return 0
			}
			return rate
		},
	))
}

// RegisterLatency publishes the tracker's windowed average in seconds.
func RegisterLatency(reg prometheus.Registerer, latency *stats.Latency) {
	reg.MustRegister(prometheus.NewGaugeFunc(
		prometheus.GaugeOpts{
			Name:        "spindled_latency_average_seconds",
			Help:        "Average observed latency over the rolling window.",
			ConstLabels: prometheus.Labels{"meter": latency.Name()},
		},
		func() float64 {
			avg, err := latency.Average()
			if err != nil {
				return 0
			}
			return avg.Seconds()
		},
	))
}
