package metrics

import "github.com/prometheus/client_golang/prometheus"

// Dialog Prometheus metrics.
var (
	KBQueriesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "converse",
			Name:      "kb_queries_total",
			Help:      "Total number of knowledge base queries",
		},
		[]string{"status"},
	)

	KBQueryDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "converse",
			Name:      "kb_query_duration_seconds",
			Help:      "Knowledge base query duration in seconds",
			Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		},
	)

	FeedbackSubmissionsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "converse",
			Name:      "feedback_submissions_total",
			Help:      "Total number of training feedback submissions",
		},
		[]string{"status"},
	)

	DialogTurnsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "converse",
			Name:      "dialog_turns_total",
			Help:      "Total number of processed dialog turns by outcome",
		},
		[]string{"outcome"},
	)

	DisambiguationCardsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "converse",
			Name:      "disambiguation_cards_total",
			Help:      "Total number of disambiguation cards shown",
		},
	)

	FollowUpCardsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "converse",
			Name:      "follow_up_cards_total",
			Help:      "Total number of follow-up prompt cards shown",
		},
	)

	IntentRecognitionsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "converse",
			Name:      "intent_recognitions_total",
			Help:      "Total number of intent recognition calls",
		},
		[]string{"intent", "status"},
	)
)

var dialogMetricsRegistered bool

// RegisterDialogMetrics registers Prometheus dialog metrics. Must be called once from main.
func RegisterDialogMetrics() {
	if dialogMetricsRegistered {
		return
	}
	prometheus.MustRegister(KBQueriesTotal)
	prometheus.MustRegister(KBQueryDuration)
	prometheus.MustRegister(FeedbackSubmissionsTotal)
	prometheus.MustRegister(DialogTurnsTotal)
	prometheus.MustRegister(DisambiguationCardsTotal)
	prometheus.MustRegister(FollowUpCardsTotal)
	prometheus.MustRegister(IntentRecognitionsTotal)
	dialogMetricsRegistered = true
}
