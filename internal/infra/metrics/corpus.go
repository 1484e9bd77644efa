package metrics

import "github.com/prometheus/client_golang/prometheus"

func init() {
	register(
		samplesAppendedTotal,
		samplesRejectedTotal,
		corpusClearsTotal,
		settingsResetsTotal,
		storageErrorsTotal,
	)
}

var (
	samplesAppendedTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "corpus_samples_appended_total",
			Help: "Total number of messages stored into chat corpora.",
		},
	)

	samplesRejectedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "corpus_samples_rejected_total",
			Help: "Messages that were not stored, by reason.",
		},
		[]string{"reason"}, // e.g., reason="too_long"
	)

	corpusClearsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "corpus_clears_total",
			Help: "Number of times a chat corpus was cleared.",
		},
	)

	settingsResetsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "settings_resets_total",
			Help: "Settings records replaced by defaults, by cause (missing/corrupt).",
		},
		[]string{"cause"},
	)

	storageErrorsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "storage_errors_total",
			Help: "Storage failures that were degraded instead of reported.",
		},
		[]string{"record", "op"},
	)
)

func IncSampleAppended() {
	samplesAppendedTotal.Inc()
}

func IncSampleRejected(reason string) {
	samplesRejectedTotal.WithLabelValues(norm(reason)).Inc()
}

func IncCorpusCleared() {
	corpusClearsTotal.Inc()
}

func IncSettingsReset(cause string) {
	settingsResetsTotal.WithLabelValues(norm(cause)).Inc()
}

func IncStorageError(record, op string) {
	storageErrorsTotal.WithLabelValues(norm(record), norm(op)).Inc()
}
