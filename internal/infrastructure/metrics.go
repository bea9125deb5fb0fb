package infrastructure

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the application's Prometheus collectors.
type Metrics struct {
	RequestCount     *prometheus.CounterVec
	RequestDuration  *prometheus.HistogramVec
	ReviewsProcessed prometheus.Counter
	ReviewDuration   prometheus.Histogram
}

// NewMetrics creates and registers the application metrics against reg.
// A nil registerer skips registration, which tests use to avoid duplicate
// collector errors.
func NewMetrics(reg prometheus.Registerer) (*Metrics, error) {
	m := &Metrics{
		RequestCount: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "http_requests_total",
				Help: "Total number of HTTP requests processed.",
			},
			[]string{"method", "path", "status"},
		),
		RequestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "http_request_duration_seconds",
				Help:    "HTTP request latency in seconds.",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "path"},
		),
		ReviewsProcessed: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "reviews_processed_total",
				Help: "Total number of review runs completed.",
			},
		),
		ReviewDuration: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "review_duration_seconds",
				Help:    "End-to-end review pipeline duration in seconds.",
				Buckets: []float64{0.1, 0.5, 1, 2.5, 5, 10, 30, 60},
			},
		),
	}

	collectors := []prometheus.Collector{
		m.RequestCount,
		m.RequestDuration,
		m.ReviewsProcessed,
		m.ReviewDuration,
	}
	if reg != nil {
		for _, c := range collectors {
			if err := reg.Register(c); err != nil {
				return nil, err
			}
		}
	}

	return m, nil
}
