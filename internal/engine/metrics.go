package engine

import "github.com/prometheus/client_golang/prometheus"

var (
	modelLoadAttempts = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "humanizer",
			Subsystem: "engine",
			Name:      "model_load_attempts_total",
			Help:      "Base model load attempts by candidate and outcome",
		},
		[]string{"model", "outcome"},
	)

	generationsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "humanizer",
			Subsystem: "engine",
			Name:      "generations_total",
			Help:      "Generation passes by outcome",
		},
		[]string{"outcome"},
	)

	generationDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "humanizer",
			Subsystem: "engine",
			Name:      "generation_duration_seconds",
			Help:      "Duration of generation passes in seconds",
			Buckets:   []float64{0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60, 120},
		},
	)
)

func init() {
	prometheus.MustRegister(modelLoadAttempts, generationsTotal, generationDuration)
}
