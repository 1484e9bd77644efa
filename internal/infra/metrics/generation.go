package metrics

import "github.com/prometheus/client_golang/prometheus"

func init() {
	register(generationRequestsTotal, generationAttempts)
}

var (
	generationRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "generation_requests_total",
			Help: "Generation requests by size class, trigger and result (ok/empty/invalid).",
		},
		[]string{"size", "trigger", "result"},
	)

	generationAttempts = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "generation_attempts",
			Help:    "Random walks spent per generation request.",
			Buckets: []float64{1, 2, 5, 10, 25, 50, 100, 200, 300},
		},
	)
)

// ObserveGeneration records one generation request.
func ObserveGeneration(size, trigger, result string, attempts int) {
	generationRequestsTotal.WithLabelValues(norm(size), norm(trigger), norm(result)).Inc()
	generationAttempts.Observe(float64(attempts))
}
