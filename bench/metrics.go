package bench

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics exports benchmark progress. A nil *Metrics records nothing.
type Metrics struct {
	samples       *prometheus.CounterVec
	paths         *prometheus.CounterVec
	sampleSeconds prometheus.Histogram
	pathSeconds   prometheus.Histogram
	pathLength    prometheus.Histogram
}

func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		samples: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "navquery_bench_samples_total",
			Help: "Random point draws by result",
		}, []string{"result"}), // "ok" or "failed"

		paths: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "navquery_bench_paths_total",
			Help: "Path queries by result",
		}, []string{"result"}), // "complete", "partial" or "failed"

		sampleSeconds: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "navquery_bench_sample_duration_seconds",
			Help:    "Random point draw duration in seconds",
			Buckets: prometheus.ExponentialBuckets(0.000001, 4, 10), // 1us to ~260ms
		}),

		pathSeconds: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "navquery_bench_path_duration_seconds",
			Help:    "Path query duration in seconds",
			Buckets: prometheus.ExponentialBuckets(0.00001, 2, 16), // 10us to ~330ms
		}),

		pathLength: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "navquery_bench_path_nodes",
			Help:    "Number of nodes per returned path",
			Buckets: []float64{1, 2, 5, 10, 20, 50, 100, 200, 500},
		}),
	}
}

func (m *Metrics) observeSample(ok bool, d time.Duration) {
	if m == nil {
		return
	}
	result := "ok"
	if !ok {
		result = "failed"
	}
	m.samples.WithLabelValues(result).Inc()
	m.sampleSeconds.Observe(d.Seconds())
}

func (m *Metrics) observePath(result string, nodes int, d time.Duration) {
	if m == nil {
		return
	}
	m.paths.WithLabelValues(result).Inc()
	m.pathSeconds.Observe(d.Seconds())
	if nodes > 0 {
		m.pathLength.Observe(float64(nodes))
	}
}
